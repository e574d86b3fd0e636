package domain

import (
	"sort"
	"time"
)

type ListingStatus string

const (
	ListingStatusDraft     ListingStatus = "draft"
	ListingStatusPublished ListingStatus = "published"
	ListingStatusArchived  ListingStatus = "archived"
	ListingStatusPortfolio ListingStatus = "portfolio"
)

// ParseListingStatus returns the status named by s, or false if s is not a known status.
func ParseListingStatus(s string) (ListingStatus, bool) {
	switch ListingStatus(s) {
	case ListingStatusDraft, ListingStatusPublished, ListingStatusArchived, ListingStatusPortfolio:
		return ListingStatus(s), true
	}
	return "", false
}

type Listing struct {
	ID               string
	Title            string
	Description      string
	Status           ListingStatus
	FirstPublishedAt *time.Time // set once, never cleared
	Images           []ListingImage
	Version          int // optimistic locking
	CreatedAt        time.Time
	UpdatedAt        time.Time
	UpdatedBy        string
}

type ListingImage struct {
	ImageID      string
	URL          string
	ThumbnailURL string
	SortOrder    int
	AltText      string
	FileSize     int64
	ContentType  string
}

// ImageMeta describes an uploaded image before it is placed in a gallery.
type ImageMeta struct {
	URL          string
	ThumbnailURL string
	AltText      string
	FileSize     int64
	ContentType  string
}

type ListingPage struct {
	Listings      []Listing
	NextPageToken string
}

// NewListing returns a draft listing with an empty gallery.
func NewListing(id, title, description string, now time.Time, actor string) Listing {
	return Listing{
		ID:          id,
		Title:       title,
		Description: description,
		Status:      ListingStatusDraft,
		Images:      []ListingImage{},
		CreatedAt:   now,
		UpdatedAt:   now,
		UpdatedBy:   actor,
	}
}

// Touch records the last modification time and actor.
func (l *Listing) Touch(now time.Time, actor string) {
	l.UpdatedAt = now
	l.UpdatedBy = actor
}

// Clone returns a deep copy so callers never share the image slice.
func (l Listing) Clone() Listing {
	out := l
	if l.FirstPublishedAt != nil {
		t := *l.FirstPublishedAt
		out.FirstPublishedAt = &t
	}
	out.Images = make([]ListingImage, len(l.Images))
	copy(out.Images, l.Images)
	return out
}

// SortedImages returns the gallery ordered by SortOrder.
func (l Listing) SortedImages() []ListingImage {
	out := make([]ListingImage, len(l.Images))
	copy(out, l.Images)
	sort.SliceStable(out, func(i, j int) bool { return out[i].SortOrder < out[j].SortOrder })
	return out
}
