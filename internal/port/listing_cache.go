package port

import (
	"context"

	"github.com/rl1809/estate-listings/internal/core/domain"
)

type ListingCache interface {
	// GetListing returns a cached snapshot, ok is false on a miss
	GetListing(ctx context.Context, listingID string) (listing domain.Listing, ok bool, err error)

	// SetListing stores a snapshot
	SetListing(ctx context.Context, listing domain.Listing) error

	// InvalidateListing drops the snapshot after a mutation
	InvalidateListing(ctx context.Context, listingID string) error
}
