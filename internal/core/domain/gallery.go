package domain

import (
	"fmt"
	"sort"
	"strings"
)

// Gallery operations are pure: they never modify the slice they are given and
// return a new one ordered by SortOrder. Callers serialize access per listing.

// AddImage appends img after the highest existing rank, or at rank 0 for an
// empty gallery. Existing ranks are left untouched.
func AddImage(images []ListingImage, img ListingImage) []ListingImage {
	next := 0
	for _, existing := range images {
		if existing.SortOrder+1 > next {
			next = existing.SortOrder + 1
		}
	}
	img.SortOrder = next

	out := make([]ListingImage, 0, len(images)+1)
	out = append(out, images...)
	out = append(out, img)
	sortByRank(out)
	return out
}

// RemoveImage drops imageID and compacts the remaining ranks to 0..N-2,
// keeping their relative order.
func RemoveImage(images []ListingImage, imageID string) ([]ListingImage, error) {
	idx := indexOf(images, imageID)
	if idx < 0 {
		return nil, fmt.Errorf("remove image %s: %w", imageID, ErrImageNotFound)
	}

	out := make([]ListingImage, 0, len(images)-1)
	out = append(out, images[:idx]...)
	out = append(out, images[idx+1:]...)
	sortByRank(out)
	for i := range out {
		out[i].SortOrder = i
	}
	return out, nil
}

// ReorderImages assigns every image the rank named in target. target must
// cover exactly the gallery's image ids and its ranks must be 0..N-1 with no
// repeats; otherwise nothing changes.
func ReorderImages(images []ListingImage, target map[string]int) ([]ListingImage, error) {
	if len(images) == 0 {
		return nil, fmt.Errorf("reorder empty gallery: %w", ErrInvalidReorder)
	}
	if len(target) != len(images) {
		return nil, fmt.Errorf("reorder names %d images, gallery has %d: %w", len(target), len(images), ErrInvalidReorder)
	}

	seen := make([]bool, len(images))
	for id, rank := range target {
		if indexOf(images, id) < 0 {
			return nil, fmt.Errorf("reorder names unknown image %s: %w", id, ErrInvalidReorder)
		}
		if rank < 0 || rank >= len(images) {
			return nil, fmt.Errorf("rank %d for image %s out of range: %w", rank, id, ErrInvalidReorder)
		}
		if seen[rank] {
			return nil, fmt.Errorf("rank %d assigned twice: %w", rank, ErrInvalidReorder)
		}
		seen[rank] = true
	}

	out := make([]ListingImage, len(images))
	copy(out, images)
	for i := range out {
		out[i].SortOrder = target[out[i].ImageID]
	}
	sortByRank(out)
	return out, nil
}

// SetImageAltText replaces the alt text of one image without touching ranks.
func SetImageAltText(images []ListingImage, imageID, altText string) ([]ListingImage, ListingImage, error) {
	idx := indexOf(images, imageID)
	if idx < 0 {
		return nil, ListingImage{}, fmt.Errorf("update image %s: %w", imageID, ErrImageNotFound)
	}
	out := make([]ListingImage, len(images))
	copy(out, images)
	out[idx].AltText = strings.TrimSpace(altText)
	return out, out[idx], nil
}

// ValidateImageMeta checks the fields an uploaded image must carry.
func ValidateImageMeta(meta ImageMeta) error {
	if strings.TrimSpace(meta.URL) == "" {
		return fmt.Errorf("image url is required: %w", ErrInvalidImage)
	}
	if meta.FileSize < 0 {
		return fmt.Errorf("image file size must not be negative: %w", ErrInvalidImage)
	}
	return nil
}

// RanksDense reports whether the gallery ranks are exactly 0..N-1.
func RanksDense(images []ListingImage) bool {
	seen := make([]bool, len(images))
	for _, img := range images {
		if img.SortOrder < 0 || img.SortOrder >= len(images) || seen[img.SortOrder] {
			return false
		}
		seen[img.SortOrder] = true
	}
	return true
}

func indexOf(images []ListingImage, imageID string) int {
	for i, img := range images {
		if img.ImageID == imageID {
			return i
		}
	}
	return -1
}

func sortByRank(images []ListingImage) {
	sort.SliceStable(images, func(i, j int) bool { return images[i].SortOrder < images[j].SortOrder })
}
