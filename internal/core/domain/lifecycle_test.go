package domain

import (
	"errors"
	"testing"
	"time"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func listingIn(status ListingStatus, images int) Listing {
	l := NewListing("listing-1", "Loft", "", testNow.Add(-time.Hour), "creator")
	l.Status = status
	for i := 0; i < images; i++ {
		l.Images = AddImage(l.Images, img(string(rune('a'+i)), 0))
	}
	return l
}

func TestTransition_Table(t *testing.T) {
	statuses := []ListingStatus{
		ListingStatusDraft, ListingStatusPublished, ListingStatusArchived, ListingStatusPortfolio,
	}
	allowed := map[[2]ListingStatus]bool{
		{ListingStatusDraft, ListingStatusPublished}:     true,
		{ListingStatusPublished, ListingStatusDraft}:     true,
		{ListingStatusPublished, ListingStatusArchived}:  true,
		{ListingStatusPublished, ListingStatusPortfolio}: true,
		{ListingStatusArchived, ListingStatusPublished}:  true,
		{ListingStatusPortfolio, ListingStatusArchived}:  true,
		{ListingStatusPortfolio, ListingStatusPublished}: true,
	}

	for _, from := range statuses {
		for _, to := range statuses {
			l := listingIn(from, 1)
			err := Transition(&l, to, testNow, "editor")

			switch {
			case from == to:
				if !errors.Is(err, ErrAlreadyInState) {
					t.Errorf("%s -> %s: expected ErrAlreadyInState, got: %v", from, to, err)
				}
			case allowed[[2]ListingStatus{from, to}]:
				if err != nil {
					t.Errorf("%s -> %s: unexpected error: %v", from, to, err)
				}
				if l.Status != to {
					t.Errorf("%s -> %s: status is %s", from, to, l.Status)
				}
				if !l.UpdatedAt.Equal(testNow) || l.UpdatedBy != "editor" {
					t.Errorf("%s -> %s: expected modification stamp, got %v by %q", from, to, l.UpdatedAt, l.UpdatedBy)
				}
			default:
				if !errors.Is(err, ErrInvalidTransition) {
					t.Errorf("%s -> %s: expected ErrInvalidTransition, got: %v", from, to, err)
				}
			}

			if err != nil && l.Status != from {
				t.Errorf("%s -> %s: failed transition changed status to %s", from, to, l.Status)
			}
		}
	}
}

func TestMoveToPortfolio_RequiresImages(t *testing.T) {
	for _, from := range []ListingStatus{ListingStatusDraft, ListingStatusPublished, ListingStatusArchived} {
		l := listingIn(from, 0)
		err := MoveToPortfolio(&l, testNow, "editor")
		if !errors.Is(err, ErrNoImages) {
			t.Errorf("from %s: expected ErrNoImages, got: %v", from, err)
		}
		if l.Status != from {
			t.Errorf("from %s: status changed to %s", from, l.Status)
		}
		if KindOf(err) != KindBusinessRule {
			t.Errorf("from %s: expected business rule kind, got %s", from, KindOf(err))
		}
	}
}

func TestPublish_WithoutImagesIsAllowed(t *testing.T) {
	l := listingIn(ListingStatusDraft, 0)
	if err := Publish(&l, testNow, "editor"); err != nil {
		t.Fatalf("publish failed: %v", err)
	}
	if l.Status != ListingStatusPublished {
		t.Errorf("expected published, got %s", l.Status)
	}

	err := MoveToPortfolio(&l, testNow, "editor")
	if !errors.Is(err, ErrNoImages) {
		t.Errorf("expected ErrNoImages, got: %v", err)
	}
	if l.Status != ListingStatusPublished {
		t.Errorf("expected status unchanged, got %s", l.Status)
	}
}

func TestFirstPublishedAt_SetOnlyOnce(t *testing.T) {
	l := listingIn(ListingStatusDraft, 0)
	first := testNow
	second := testNow.Add(48 * time.Hour)

	if err := Publish(&l, first, "editor"); err != nil {
		t.Fatalf("first publish failed: %v", err)
	}
	if l.FirstPublishedAt == nil || !l.FirstPublishedAt.Equal(first) {
		t.Fatalf("expected first published at %v, got %v", first, l.FirstPublishedAt)
	}

	if err := Unpublish(&l, first.Add(time.Hour), "editor"); err != nil {
		t.Fatalf("unpublish failed: %v", err)
	}
	if l.FirstPublishedAt == nil {
		t.Fatal("unpublish cleared first published at")
	}

	if err := Publish(&l, second, "editor"); err != nil {
		t.Fatalf("second publish failed: %v", err)
	}
	if !l.FirstPublishedAt.Equal(first) {
		t.Errorf("expected first published at to stay %v, got %v", first, l.FirstPublishedAt)
	}
}

func TestPublish_Twice(t *testing.T) {
	l := listingIn(ListingStatusDraft, 0)
	if err := Publish(&l, testNow, "editor"); err != nil {
		t.Fatalf("publish failed: %v", err)
	}
	stamp := l.UpdatedAt

	err := Publish(&l, testNow.Add(time.Minute), "other")
	if !errors.Is(err, ErrAlreadyInState) {
		t.Errorf("expected ErrAlreadyInState, got: %v", err)
	}
	if !l.UpdatedAt.Equal(stamp) || l.UpdatedBy != "editor" {
		t.Error("failed publish must not restamp the listing")
	}
}

func TestUnarchive_OnlyFromArchived(t *testing.T) {
	l := listingIn(ListingStatusPortfolio, 1)
	if err := Unarchive(&l, testNow, "editor"); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition, got: %v", err)
	}

	l = listingIn(ListingStatusArchived, 0)
	if err := Unarchive(&l, testNow, "editor"); err != nil {
		t.Fatalf("unarchive failed: %v", err)
	}
	if l.Status != ListingStatusPublished {
		t.Errorf("expected published, got %s", l.Status)
	}
}

func TestErrorHelpers(t *testing.T) {
	wrapped := errors.Join(errors.New("context"), ErrLockUnavailable)
	if !IsRetryable(wrapped) {
		t.Error("expected lock unavailable to be retryable")
	}
	if IsRetryable(ErrNoImages) {
		t.Error("expected business rule to be non-retryable")
	}
	if CodeOf(ErrConcurrencyConflict) != "concurrency_conflict" {
		t.Errorf("unexpected code %q", CodeOf(ErrConcurrencyConflict))
	}
	if CodeOf(errors.New("boom")) != "internal" || KindOf(errors.New("boom")) != KindUnknown {
		t.Error("expected plain errors to be unknown/internal")
	}
}

func TestParseListingStatus(t *testing.T) {
	if s, ok := ParseListingStatus("portfolio"); !ok || s != ListingStatusPortfolio {
		t.Errorf("expected portfolio, got %q %v", s, ok)
	}
	if _, ok := ParseListingStatus("sold"); ok {
		t.Error("expected unknown status to fail")
	}
}
