package domain

import (
	"fmt"
	"time"
)

// allowedTransitions lists every legal source -> target status move.
var allowedTransitions = map[ListingStatus]map[ListingStatus]bool{
	ListingStatusDraft: {
		ListingStatusPublished: true,
	},
	ListingStatusPublished: {
		ListingStatusDraft:     true,
		ListingStatusArchived:  true,
		ListingStatusPortfolio: true,
	},
	ListingStatusArchived: {
		ListingStatusPublished: true,
	},
	ListingStatusPortfolio: {
		ListingStatusArchived:  true,
		ListingStatusPublished: true,
	},
}

// CanTransition reports whether from -> to is in the transition table.
func CanTransition(from, to ListingStatus) bool {
	return allowedTransitions[from][to]
}

// Transition moves l to target, enforcing the transition table and the
// invariants attached to the target status. On error l is left unmodified.
func Transition(l *Listing, target ListingStatus, now time.Time, actor string) error {
	if target == ListingStatusPortfolio && len(l.Images) == 0 {
		return fmt.Errorf("move listing %s to portfolio: %w", l.ID, ErrNoImages)
	}
	if l.Status == target {
		return fmt.Errorf("listing %s is already %s: %w", l.ID, target, ErrAlreadyInState)
	}
	if !CanTransition(l.Status, target) {
		return fmt.Errorf("listing %s cannot move from %s to %s: %w", l.ID, l.Status, target, ErrInvalidTransition)
	}

	l.Status = target
	if target == ListingStatusPublished && l.FirstPublishedAt == nil {
		t := now
		l.FirstPublishedAt = &t
	}
	l.Touch(now, actor)
	return nil
}

// Publish moves a listing to published. A listing without images may be
// published; only the portfolio status requires images.
func Publish(l *Listing, now time.Time, actor string) error {
	return Transition(l, ListingStatusPublished, now, actor)
}

func Unpublish(l *Listing, now time.Time, actor string) error {
	return Transition(l, ListingStatusDraft, now, actor)
}

func Archive(l *Listing, now time.Time, actor string) error {
	return Transition(l, ListingStatusArchived, now, actor)
}

// Unarchive returns an archived listing to published.
func Unarchive(l *Listing, now time.Time, actor string) error {
	if l.Status != ListingStatusArchived {
		return fmt.Errorf("listing %s is %s, not archived: %w", l.ID, l.Status, ErrInvalidTransition)
	}
	return Transition(l, ListingStatusPublished, now, actor)
}

func MoveToPortfolio(l *Listing, now time.Time, actor string) error {
	return Transition(l, ListingStatusPortfolio, now, actor)
}
