package domain

import (
	"errors"
	"fmt"
	"math/rand"
	"testing"
)

func img(id string, rank int) ListingImage {
	return ListingImage{ImageID: id, URL: "https://cdn.example.com/" + id + ".jpg", SortOrder: rank}
}

func ids(images []ListingImage) []string {
	out := make([]string, len(images))
	for i, im := range images {
		out[i] = im.ImageID
	}
	return out
}

func assertOrder(t *testing.T, images []ListingImage, want ...string) {
	t.Helper()
	if len(images) != len(want) {
		t.Fatalf("expected %d images, got %d (%v)", len(want), len(images), ids(images))
	}
	for i, id := range want {
		if images[i].ImageID != id || images[i].SortOrder != i {
			t.Fatalf("position %d: expected %s at rank %d, got %s at rank %d", i, id, i, images[i].ImageID, images[i].SortOrder)
		}
	}
}

func TestAddImage_EmptyGalleryStartsAtZero(t *testing.T) {
	out := AddImage(nil, img("a", 99))
	assertOrder(t, out, "a")
}

func TestAddImage_AppendsAfterHighestRank(t *testing.T) {
	images := []ListingImage{img("a", 0), img("b", 1)}
	out := AddImage(images, img("c", 0))
	assertOrder(t, out, "a", "b", "c")

	// Input is not modified
	if len(images) != 2 {
		t.Errorf("expected input untouched, got %d images", len(images))
	}
}

func TestRemoveImage_CompactsRanks(t *testing.T) {
	images := []ListingImage{img("a", 0), img("b", 1), img("c", 2), img("d", 3)}
	out, err := RemoveImage(images, "b")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertOrder(t, out, "a", "c", "d")
}

func TestRemoveImage_NotFound(t *testing.T) {
	_, err := RemoveImage([]ListingImage{img("a", 0)}, "zzz")
	if !errors.Is(err, ErrImageNotFound) {
		t.Errorf("expected ErrImageNotFound, got: %v", err)
	}

	_, err = RemoveImage(nil, "a")
	if !errors.Is(err, ErrImageNotFound) {
		t.Errorf("expected ErrImageNotFound on empty gallery, got: %v", err)
	}
}

func TestReorderImages_AppliesTargetRanks(t *testing.T) {
	images := []ListingImage{img("a", 0), img("b", 1), img("c", 2)}
	out, err := ReorderImages(images, map[string]int{"c": 0, "b": 1, "a": 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertOrder(t, out, "c", "b", "a")
}

func TestReorderImages_RejectsBadTargets(t *testing.T) {
	images := []ListingImage{img("a", 0), img("b", 1), img("c", 2)}

	tests := []struct {
		name   string
		target map[string]int
	}{
		{"missing id", map[string]int{"a": 0, "b": 1}},
		{"unknown id", map[string]int{"a": 0, "b": 1, "x": 2}},
		{"extra id", map[string]int{"a": 0, "b": 1, "c": 2, "x": 3}},
		{"duplicate rank", map[string]int{"a": 0, "b": 0, "c": 2}},
		{"rank out of range", map[string]int{"a": 0, "b": 1, "c": 3}},
		{"negative rank", map[string]int{"a": -1, "b": 1, "c": 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := ReorderImages(images, tt.target)
			if !errors.Is(err, ErrInvalidReorder) {
				t.Fatalf("expected ErrInvalidReorder, got: %v", err)
			}
			if out != nil {
				t.Errorf("expected no result on failure, got %v", ids(out))
			}
			assertOrder(t, images, "a", "b", "c")
		})
	}
}

func TestReorderImages_EmptyGallery(t *testing.T) {
	_, err := ReorderImages(nil, map[string]int{})
	if !errors.Is(err, ErrInvalidReorder) {
		t.Errorf("expected ErrInvalidReorder, got: %v", err)
	}
}

func TestGallery_ReorderThenRemove(t *testing.T) {
	images := []ListingImage{img("A", 0), img("B", 1), img("C", 2)}

	images, err := ReorderImages(images, map[string]int{"C": 0, "B": 1, "A": 2})
	if err != nil {
		t.Fatalf("reorder failed: %v", err)
	}
	images, err = RemoveImage(images, "B")
	if err != nil {
		t.Fatalf("remove failed: %v", err)
	}

	assertOrder(t, images, "C", "A")
}

func TestGallery_RanksStayDenseUnderRandomOperations(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	var images []ListingImage
	next := 0

	for step := 0; step < 500; step++ {
		switch op := rng.Intn(3); {
		case op == 0 || len(images) == 0:
			images = AddImage(images, img(fmt.Sprintf("img-%d", next), 0))
			next++
		case op == 1:
			victim := images[rng.Intn(len(images))].ImageID
			var err error
			images, err = RemoveImage(images, victim)
			if err != nil {
				t.Fatalf("step %d: remove failed: %v", step, err)
			}
		default:
			perm := rng.Perm(len(images))
			target := make(map[string]int, len(images))
			for i, im := range images {
				target[im.ImageID] = perm[i]
			}
			var err error
			images, err = ReorderImages(images, target)
			if err != nil {
				t.Fatalf("step %d: reorder failed: %v", step, err)
			}
		}

		if !RanksDense(images) {
			t.Fatalf("step %d: ranks not dense: %+v", step, images)
		}
	}
}

func TestSetImageAltText(t *testing.T) {
	images := []ListingImage{img("a", 0), img("b", 1)}
	out, updated, err := SetImageAltText(images, "b", "  Living room  ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.AltText != "Living room" {
		t.Errorf("expected trimmed alt text, got %q", updated.AltText)
	}
	assertOrder(t, out, "a", "b")
	if images[1].AltText != "" {
		t.Error("expected input untouched")
	}

	if _, _, err := SetImageAltText(images, "zzz", "x"); !errors.Is(err, ErrImageNotFound) {
		t.Errorf("expected ErrImageNotFound, got: %v", err)
	}
}

func TestValidateImageMeta(t *testing.T) {
	if err := ValidateImageMeta(ImageMeta{URL: "https://cdn.example.com/a.jpg"}); err != nil {
		t.Errorf("expected valid meta, got: %v", err)
	}
	if err := ValidateImageMeta(ImageMeta{URL: "  "}); !errors.Is(err, ErrInvalidImage) {
		t.Errorf("expected ErrInvalidImage for blank url, got: %v", err)
	}
	if err := ValidateImageMeta(ImageMeta{URL: "u", FileSize: -1}); !errors.Is(err, ErrInvalidImage) {
		t.Errorf("expected ErrInvalidImage for negative size, got: %v", err)
	}
}
