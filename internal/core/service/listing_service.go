package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/rl1809/estate-listings/internal/core/domain"
	"github.com/rl1809/estate-listings/internal/core/lock"
	"github.com/rl1809/estate-listings/internal/platform/logger"
	"github.com/rl1809/estate-listings/internal/platform/requestctx"
	"github.com/rl1809/estate-listings/internal/port"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 50
)

const tracerName = "github.com/rl1809/estate-listings/internal/core/service"

// ListingService serializes every gallery and lifecycle mutation of a listing
// behind the per-listing lock: load, apply, save, release.
type ListingService struct {
	repo   port.ListingRepository
	cache  port.ListingCache
	locks  *lock.Pool
	clock  port.Clock
	log    *logger.Logger
	tracer trace.Tracer
	newID  func() string
}

// NewListingService wires the orchestrator. cache may be nil; a nil clock or
// logger falls back to the system clock and a no-op logger.
func NewListingService(repo port.ListingRepository, cache port.ListingCache, locks *lock.Pool, clock port.Clock, log *logger.Logger) *ListingService {
	if clock == nil {
		clock = port.SystemClock{}
	}
	if log == nil {
		log = logger.Nop()
	}
	if locks == nil {
		locks = lock.NewPool(lock.DefaultTimeout)
	}
	return &ListingService{
		repo:   repo,
		cache:  cache,
		locks:  locks,
		clock:  clock,
		log:    log,
		tracer: otel.Tracer(tracerName),
		newID:  uuid.NewString,
	}
}

func (s *ListingService) CreateListing(ctx context.Context, title, description string) (domain.Listing, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return domain.Listing{}, fmt.Errorf("title is required: %w", domain.ErrInvalidListing)
	}

	listing := domain.NewListing(s.newID(), title, strings.TrimSpace(description), s.clock.Now(), requestctx.UserIDFromContext(ctx))
	if err := s.repo.CreateListing(ctx, listing); err != nil {
		return domain.Listing{}, err
	}

	s.log.Info("listing created", "listing_id", listing.ID)
	return listing, nil
}

// GetListing reads through the cache when one is configured. A snapshot is
// only written while holding the listing's lock, so a fill can never land
// after a mutation has saved and invalidated. When a mutation holds the lock
// the read is served from the repository without caching.
func (s *ListingService) GetListing(ctx context.Context, listingID string) (domain.Listing, error) {
	listingID = strings.TrimSpace(listingID)
	if listingID == "" {
		return domain.Listing{}, fmt.Errorf("listing id is required: %w", domain.ErrListingNotFound)
	}

	if s.cache == nil {
		return s.load(ctx, listingID)
	}

	cached, ok, err := s.cache.GetListing(ctx, listingID)
	if err != nil {
		s.log.Warn("listing cache read failed", "listing_id", listingID, "error", err)
	} else if ok {
		return cached, nil
	}

	guard, locked := s.locks.TryAcquire(listingID)
	if !locked {
		return s.load(ctx, listingID)
	}
	defer guard.Release()

	listing, err := s.load(ctx, listingID)
	if err != nil {
		return domain.Listing{}, err
	}
	if err := s.cache.SetListing(ctx, listing); err != nil {
		s.log.Warn("listing cache write failed", "listing_id", listingID, "error", err)
	}
	return listing, nil
}

func (s *ListingService) load(ctx context.Context, listingID string) (domain.Listing, error) {
	listing, err := s.repo.GetListing(ctx, listingID)
	if err != nil {
		return domain.Listing{}, err
	}
	listing.Images = listing.SortedImages()
	return listing, nil
}

func (s *ListingService) ListListings(ctx context.Context, pageSize int, pageToken string) (domain.ListingPage, error) {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return s.repo.ListListings(ctx, pageSize, strings.TrimSpace(pageToken))
}

func (s *ListingService) AddImage(ctx context.Context, listingID string, meta domain.ImageMeta) (domain.ListingImage, error) {
	if err := domain.ValidateImageMeta(meta); err != nil {
		return domain.ListingImage{}, err
	}

	img := domain.ListingImage{
		ImageID:      s.newID(),
		URL:          strings.TrimSpace(meta.URL),
		ThumbnailURL: strings.TrimSpace(meta.ThumbnailURL),
		AltText:      strings.TrimSpace(meta.AltText),
		FileSize:     meta.FileSize,
		ContentType:  strings.TrimSpace(meta.ContentType),
	}

	var added domain.ListingImage
	_, err := s.mutate(ctx, "add_image", listingID, func(l *domain.Listing, now time.Time, actor string) error {
		l.Images = domain.AddImage(l.Images, img)
		added = l.Images[len(l.Images)-1]
		l.Touch(now, actor)
		return nil
	})
	if err != nil {
		return domain.ListingImage{}, err
	}
	return added, nil
}

func (s *ListingService) RemoveImage(ctx context.Context, listingID, imageID string) error {
	_, err := s.mutate(ctx, "remove_image", listingID, func(l *domain.Listing, now time.Time, actor string) error {
		images, err := domain.RemoveImage(l.Images, imageID)
		if err != nil {
			return err
		}
		l.Images = images
		l.Touch(now, actor)
		return nil
	})
	return err
}

// ReorderImages sets every image's rank from target, a complete map of image
// id to rank.
func (s *ListingService) ReorderImages(ctx context.Context, listingID string, target map[string]int) error {
	_, err := s.mutate(ctx, "reorder_images", listingID, func(l *domain.Listing, now time.Time, actor string) error {
		images, err := domain.ReorderImages(l.Images, target)
		if err != nil {
			return err
		}
		l.Images = images
		l.Touch(now, actor)
		return nil
	})
	return err
}

func (s *ListingService) UpdateImageAltText(ctx context.Context, listingID, imageID, altText string) (domain.ListingImage, error) {
	var updated domain.ListingImage
	_, err := s.mutate(ctx, "update_image", listingID, func(l *domain.Listing, now time.Time, actor string) error {
		images, img, err := domain.SetImageAltText(l.Images, imageID, altText)
		if err != nil {
			return err
		}
		l.Images = images
		updated = img
		l.Touch(now, actor)
		return nil
	})
	if err != nil {
		return domain.ListingImage{}, err
	}
	return updated, nil
}

func (s *ListingService) Publish(ctx context.Context, listingID string) (domain.ListingStatus, error) {
	l, err := s.mutate(ctx, "publish", listingID, domain.Publish)
	if err != nil {
		return "", err
	}
	if len(l.Images) == 0 {
		s.log.Warn("listing published without images", "listing_id", l.ID)
	}
	return l.Status, nil
}

func (s *ListingService) Unpublish(ctx context.Context, listingID string) (domain.ListingStatus, error) {
	return s.transition(ctx, "unpublish", listingID, domain.Unpublish)
}

func (s *ListingService) Archive(ctx context.Context, listingID string) (domain.ListingStatus, error) {
	return s.transition(ctx, "archive", listingID, domain.Archive)
}

func (s *ListingService) Unarchive(ctx context.Context, listingID string) (domain.ListingStatus, error) {
	return s.transition(ctx, "unarchive", listingID, domain.Unarchive)
}

func (s *ListingService) MoveToPortfolio(ctx context.Context, listingID string) (domain.ListingStatus, error) {
	return s.transition(ctx, "move_to_portfolio", listingID, domain.MoveToPortfolio)
}

type applyFunc func(l *domain.Listing, now time.Time, actor string) error

func (s *ListingService) transition(ctx context.Context, op, listingID string, apply applyFunc) (domain.ListingStatus, error) {
	l, err := s.mutate(ctx, op, listingID, apply)
	if err != nil {
		return "", err
	}
	return l.Status, nil
}

// mutate runs load -> apply -> save under the listing's lock. Errors from
// apply and from the repository reach the caller unchanged; the lock is
// released on every path.
func (s *ListingService) mutate(ctx context.Context, op, listingID string, apply applyFunc) (domain.Listing, error) {
	listingID = strings.TrimSpace(listingID)
	ctx, span := s.tracer.Start(ctx, "listing."+op, trace.WithAttributes(
		attribute.String("listing.id", listingID),
	))
	defer span.End()

	if listingID == "" {
		err := fmt.Errorf("listing id is required: %w", domain.ErrListingNotFound)
		span.SetStatus(codes.Error, domain.CodeOf(err))
		return domain.Listing{}, err
	}

	listing, err := lock.WithLock(ctx, s.locks, listingID, func(ctx context.Context) (domain.Listing, error) {
		l, err := s.repo.GetListing(ctx, listingID)
		if err != nil {
			return domain.Listing{}, err
		}
		if err := apply(&l, s.clock.Now(), requestctx.UserIDFromContext(ctx)); err != nil {
			return domain.Listing{}, err
		}
		if err := s.repo.SaveListing(ctx, &l); err != nil {
			return domain.Listing{}, err
		}
		s.invalidate(ctx, listingID)
		return l, nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, domain.CodeOf(err))
		switch domain.KindOf(err) {
		case domain.KindLockUnavailable, domain.KindConcurrencyConflict:
			s.log.Warn("listing mutation not applied", "op", op, "listing_id", listingID, "error", err)
		default:
			s.log.Debug("listing mutation rejected", "op", op, "listing_id", listingID, "error", err)
		}
		return domain.Listing{}, err
	}

	span.SetAttributes(
		attribute.Int("listing.version", listing.Version),
		attribute.String("listing.status", string(listing.Status)),
		attribute.Int("listing.images", len(listing.Images)),
	)
	s.log.Debug("listing mutated", "op", op, "listing_id", listingID, "version", listing.Version)
	return listing, nil
}

func (s *ListingService) invalidate(ctx context.Context, listingID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateListing(ctx, listingID); err != nil {
		s.log.Warn("listing cache invalidation failed", "listing_id", listingID, "error", err)
	}
}
