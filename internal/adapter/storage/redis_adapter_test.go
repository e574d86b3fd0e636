package storage

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rl1809/estate-listings/internal/core/domain"
)

func getRedisClient(t *testing.T) *redis.Client {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(context.Background()).Err(); err != nil {
		client.Close()
		t.Skipf("Redis not available: %v", err)
	}
	return client
}

func TestRedisCache_Miss(t *testing.T) {
	client := getRedisClient(t)
	defer client.Close()

	ctx := context.Background()
	adapter := NewRedisAdapter(client, time.Minute)
	client.Del(ctx, "listing:cache-miss")

	_, ok, err := adapter.GetListing(ctx, "cache-miss")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Error("expected cache miss")
	}
}

func TestRedisCache_SetGetInvalidate(t *testing.T) {
	client := getRedisClient(t)
	defer client.Close()

	ctx := context.Background()
	adapter := NewRedisAdapter(client, time.Minute)

	listing := newTestListing("cache-hit")
	published := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	listing.Status = domain.ListingStatusPublished
	listing.FirstPublishedAt = &published
	listing.Images = []domain.ListingImage{testImage("a", 0), testImage("b", 1)}
	listing.Version = 3

	if err := adapter.SetListing(ctx, listing); err != nil {
		t.Fatalf("set: %v", err)
	}
	defer client.Del(ctx, "listing:cache-hit")

	ttl, _ := client.TTL(ctx, "listing:cache-hit").Result()
	if ttl <= 0 || ttl > time.Minute {
		t.Errorf("expected TTL within a minute, got %v", ttl)
	}

	got, ok, err := adapter.GetListing(ctx, "cache-hit")
	if err != nil || !ok {
		t.Fatalf("expected hit, got ok=%v err=%v", ok, err)
	}
	if got.Version != 3 || got.Status != domain.ListingStatusPublished || len(got.Images) != 2 {
		t.Errorf("unexpected cached listing: %+v", got)
	}
	if got.FirstPublishedAt == nil || !got.FirstPublishedAt.Equal(published) {
		t.Errorf("expected first published %v, got %v", published, got.FirstPublishedAt)
	}
	if got.Images[1] != testImage("b", 1) {
		t.Errorf("image mismatch: %+v", got.Images[1])
	}

	if err := adapter.InvalidateListing(ctx, "cache-hit"); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	if _, ok, _ := adapter.GetListing(ctx, "cache-hit"); ok {
		t.Error("expected miss after invalidation")
	}
}

func TestRedisCache_OlderSnapshotDoesNotReplaceNewer(t *testing.T) {
	client := getRedisClient(t)
	defer client.Close()

	ctx := context.Background()
	adapter := NewRedisAdapter(client, time.Minute)
	defer client.Del(ctx, "listing:versioned")

	newer := newTestListing("versioned")
	newer.Images = []domain.ListingImage{testImage("a", 0)}
	newer.Version = 5
	if err := adapter.SetListing(ctx, newer); err != nil {
		t.Fatalf("set newer: %v", err)
	}

	older := newTestListing("versioned")
	older.Version = 4
	if err := adapter.SetListing(ctx, older); err != nil {
		t.Fatalf("set older: %v", err)
	}
	got, ok, err := adapter.GetListing(ctx, "versioned")
	if err != nil || !ok {
		t.Fatalf("expected hit, got ok=%v err=%v", ok, err)
	}
	if got.Version != 5 || len(got.Images) != 1 {
		t.Errorf("expected version 5 to survive, got version %d with %d images", got.Version, len(got.Images))
	}

	newer.Version = 6
	if err := adapter.SetListing(ctx, newer); err != nil {
		t.Fatalf("set newest: %v", err)
	}
	if got, _, _ := adapter.GetListing(ctx, "versioned"); got.Version != 6 {
		t.Errorf("expected version 6, got %d", got.Version)
	}
}

func TestRedisCache_SetOverwritesCorruptSnapshot(t *testing.T) {
	client := getRedisClient(t)
	defer client.Close()

	ctx := context.Background()
	adapter := NewRedisAdapter(client, time.Minute)
	client.Set(ctx, "listing:garbled", "{not json", time.Minute)
	defer client.Del(ctx, "listing:garbled")

	if err := adapter.SetListing(ctx, newTestListing("garbled")); err != nil {
		t.Fatalf("set: %v", err)
	}
	if _, ok, err := adapter.GetListing(ctx, "garbled"); err != nil || !ok {
		t.Errorf("expected hit after overwrite, got ok=%v err=%v", ok, err)
	}
}

func TestRedisCache_CorruptSnapshot(t *testing.T) {
	client := getRedisClient(t)
	defer client.Close()

	ctx := context.Background()
	adapter := NewRedisAdapter(client, time.Minute)
	client.Set(ctx, "listing:corrupt", "{not json", time.Minute)
	defer client.Del(ctx, "listing:corrupt")

	if _, _, err := adapter.GetListing(ctx, "corrupt"); err == nil {
		t.Error("expected decode error")
	}
}

func TestSnapshotRoundTripWithoutRedis(t *testing.T) {
	listing := newTestListing("offline")
	listing.Images = []domain.ListingImage{testImage("a", 0)}

	got, err := snapshotFromDomain(listing).toDomain()
	if err != nil {
		t.Fatalf("toDomain: %v", err)
	}
	if got.ID != listing.ID || got.Status != listing.Status || got.Images[0] != listing.Images[0] {
		t.Errorf("unexpected listing: %+v", got)
	}

	bad := snapshotFromDomain(listing)
	bad.Status = "sold"
	if _, err := bad.toDomain(); err == nil {
		t.Error("expected error for unknown status")
	}
}
