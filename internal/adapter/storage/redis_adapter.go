package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rl1809/estate-listings/internal/core/domain"
)

const (
	listingKeyPrefix   = "listing:"
	defaultSnapshotTTL = 10 * time.Minute
)

// setSnapshotScript writes a snapshot unless the cached one carries a higher
// version. An undecodable cached value is overwritten.
var setSnapshotScript = redis.NewScript(`
local key = KEYS[1]
local version = tonumber(ARGV[2])

local current = redis.call('GET', key)
if current then
	local ok, snap = pcall(cjson.decode, current)
	if ok and type(snap) == 'table' and tonumber(snap.version) and tonumber(snap.version) > version then
		return 0
	end
end

redis.call('SET', key, ARGV[1], 'PX', ARGV[3])
return 1
`)

// listingSnapshot is the JSON shape cached in Redis.
type listingSnapshot struct {
	ID               string          `json:"id"`
	Title            string          `json:"title"`
	Description      string          `json:"description"`
	Status           string          `json:"status"`
	FirstPublishedAt *time.Time      `json:"first_published_at,omitempty"`
	Images           []imageSnapshot `json:"images"`
	Version          int             `json:"version"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
	UpdatedBy        string          `json:"updated_by"`
}

type imageSnapshot struct {
	ImageID      string `json:"image_id"`
	URL          string `json:"url"`
	ThumbnailURL string `json:"thumbnail_url"`
	SortOrder    int    `json:"sort_order"`
	AltText      string `json:"alt_text"`
	FileSize     int64  `json:"file_size"`
	ContentType  string `json:"content_type"`
}

type RedisAdapter struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisAdapter(client *redis.Client, ttl time.Duration) *RedisAdapter {
	if ttl <= 0 {
		ttl = defaultSnapshotTTL
	}
	return &RedisAdapter{client: client, ttl: ttl}
}

func (r *RedisAdapter) GetListing(ctx context.Context, listingID string) (domain.Listing, bool, error) {
	raw, err := r.client.Get(ctx, listingKeyPrefix+listingID).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Listing{}, false, nil
	}
	if err != nil {
		return domain.Listing{}, false, err
	}

	var snap listingSnapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return domain.Listing{}, false, fmt.Errorf("decode listing snapshot: %w", err)
	}
	listing, err := snap.toDomain()
	if err != nil {
		return domain.Listing{}, false, err
	}
	return listing, true, nil
}

func (r *RedisAdapter) SetListing(ctx context.Context, listing domain.Listing) error {
	raw, err := json.Marshal(snapshotFromDomain(listing))
	if err != nil {
		return fmt.Errorf("encode listing snapshot: %w", err)
	}
	keys := []string{listingKeyPrefix + listing.ID}
	return setSnapshotScript.Run(ctx, r.client, keys, raw, listing.Version, r.ttl.Milliseconds()).Err()
}

func (r *RedisAdapter) InvalidateListing(ctx context.Context, listingID string) error {
	return r.client.Del(ctx, listingKeyPrefix+listingID).Err()
}

func snapshotFromDomain(l domain.Listing) listingSnapshot {
	snap := listingSnapshot{
		ID:               l.ID,
		Title:            l.Title,
		Description:      l.Description,
		Status:           string(l.Status),
		FirstPublishedAt: l.FirstPublishedAt,
		Images:           make([]imageSnapshot, len(l.Images)),
		Version:          l.Version,
		CreatedAt:        l.CreatedAt,
		UpdatedAt:        l.UpdatedAt,
		UpdatedBy:        l.UpdatedBy,
	}
	for i, img := range l.Images {
		snap.Images[i] = imageSnapshot(img)
	}
	return snap
}

func (s listingSnapshot) toDomain() (domain.Listing, error) {
	status, ok := domain.ParseListingStatus(s.Status)
	if !ok {
		return domain.Listing{}, fmt.Errorf("listing snapshot %s has unknown status %q", s.ID, s.Status)
	}
	l := domain.Listing{
		ID:               s.ID,
		Title:            s.Title,
		Description:      s.Description,
		Status:           status,
		FirstPublishedAt: s.FirstPublishedAt,
		Images:           make([]domain.ListingImage, len(s.Images)),
		Version:          s.Version,
		CreatedAt:        s.CreatedAt,
		UpdatedAt:        s.UpdatedAt,
		UpdatedBy:        s.UpdatedBy,
	}
	for i, img := range s.Images {
		l.Images[i] = domain.ListingImage(img)
	}
	return l, nil
}
