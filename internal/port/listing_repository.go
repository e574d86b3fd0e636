package port

import (
	"context"

	"github.com/rl1809/estate-listings/internal/core/domain"
)

type ListingRepository interface {
	// CreateListing persists a new listing and its gallery
	CreateListing(ctx context.Context, listing domain.Listing) error

	// GetListing loads a listing with its images, or domain.ErrListingNotFound
	GetListing(ctx context.Context, listingID string) (domain.Listing, error)

	// SaveListing writes the listing if its Version still matches the stored one,
	// otherwise returns domain.ErrConcurrencyConflict. On success listing.Version is advanced.
	SaveListing(ctx context.Context, listing *domain.Listing) error

	// ListListings returns one page of listings ordered by id
	ListListings(ctx context.Context, pageSize int, pageToken string) (domain.ListingPage, error)
}
