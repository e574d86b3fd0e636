package handler

import (
	"time"

	"github.com/rl1809/estate-listings/internal/core/domain"
)

// Wire types shared by the HTTP and gRPC transports.

type ImageDTO struct {
	ImageID      string `json:"image_id"`
	URL          string `json:"url"`
	ThumbnailURL string `json:"thumbnail_url"`
	SortOrder    int    `json:"sort_order"`
	AltText      string `json:"alt_text"`
	FileSize     int64  `json:"file_size"`
	ContentType  string `json:"content_type"`
}

type ListingDTO struct {
	ID               string     `json:"id"`
	Title            string     `json:"title"`
	Description      string     `json:"description"`
	Status           string     `json:"status"`
	FirstPublishedAt *time.Time `json:"first_published_at,omitempty"`
	Images           []ImageDTO `json:"images"`
	Version          int        `json:"version"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
	UpdatedBy        string     `json:"updated_by,omitempty"`
}

type CreateListingRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type ListingRequest struct {
	ListingID string `json:"listing_id"`
}

type ListListingsRequest struct {
	PageSize  int    `json:"page_size"`
	PageToken string `json:"page_token"`
}

type ListListingsResponse struct {
	Listings      []ListingDTO `json:"listings"`
	NextPageToken string       `json:"next_page_token,omitempty"`
}

type AddImageRequest struct {
	ListingID    string `json:"listing_id"`
	URL          string `json:"url"`
	ThumbnailURL string `json:"thumbnail_url"`
	AltText      string `json:"alt_text"`
	FileSize     int64  `json:"file_size"`
	ContentType  string `json:"content_type"`
}

type RemoveImageRequest struct {
	ListingID string `json:"listing_id"`
	ImageID   string `json:"image_id"`
}

// ReorderImagesRequest carries the complete target order: image id to rank.
type ReorderImagesRequest struct {
	ListingID string         `json:"listing_id"`
	Order     map[string]int `json:"order"`
}

type UpdateImageRequest struct {
	ListingID string `json:"listing_id"`
	ImageID   string `json:"image_id"`
	AltText   string `json:"alt_text"`
}

type MutationResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type StatusResponse struct {
	ListingID string `json:"listing_id"`
	Status    string `json:"status"`
}

type ErrorResponse struct {
	Success bool   `json:"success"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func toImageDTO(img domain.ListingImage) ImageDTO {
	return ImageDTO(img)
}

func toListingDTO(l domain.Listing) ListingDTO {
	images := l.SortedImages()
	dto := ListingDTO{
		ID:               l.ID,
		Title:            l.Title,
		Description:      l.Description,
		Status:           string(l.Status),
		FirstPublishedAt: l.FirstPublishedAt,
		Images:           make([]ImageDTO, len(images)),
		Version:          l.Version,
		CreatedAt:        l.CreatedAt,
		UpdatedAt:        l.UpdatedAt,
		UpdatedBy:        l.UpdatedBy,
	}
	for i, img := range images {
		dto.Images[i] = toImageDTO(img)
	}
	return dto
}

func toListingPageDTO(page domain.ListingPage) ListListingsResponse {
	out := ListListingsResponse{
		Listings:      make([]ListingDTO, len(page.Listings)),
		NextPageToken: page.NextPageToken,
	}
	for i, l := range page.Listings {
		out.Listings[i] = toListingDTO(l)
	}
	return out
}

func (r AddImageRequest) meta() domain.ImageMeta {
	return domain.ImageMeta{
		URL:          r.URL,
		ThumbnailURL: r.ThumbnailURL,
		AltText:      r.AltText,
		FileSize:     r.FileSize,
		ContentType:  r.ContentType,
	}
}
