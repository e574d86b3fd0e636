package main

import (
	"context"
	"fmt"
	"log"
	"math/rand/v2"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/rl1809/estate-listings/internal/adapter/handler"
	"github.com/rl1809/estate-listings/internal/core/domain"
)

const (
	defaultGRPCAddr = "localhost:50051"
	totalAdds       = 50
	totalReorders   = 20
	totalRemoves    = 10
)

func main() {
	addr := os.Getenv("LISTINGS_GRPC_ADDR")
	if addr == "" {
		addr = defaultGRPCAddr
	}

	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		log.Fatalf("failed to connect: %v", err)
	}
	defer conn.Close()

	client := handler.NewListingClient(conn)
	ctx := metadata.AppendToOutgoingContext(context.Background(), handler.UserIDMetadataKey, "stress-test")

	listing, err := client.CreateListing(ctx, &handler.CreateListingRequest{
		Title:       fmt.Sprintf("stress-%d", time.Now().UnixNano()),
		Description: "concurrent gallery mutations",
	})
	if err != nil {
		log.Fatalf("failed to create listing: %v", err)
	}

	// Counters
	var addOK, reorderOK, removeOK, retryable, rejected atomic.Int32
	var imagesMu sync.Mutex
	var imageIDs []string

	classify := func(err error) {
		switch status.Code(err) {
		case codes.Unavailable, codes.Aborted:
			retryable.Add(1)
		default:
			rejected.Add(1)
		}
	}

	var wg sync.WaitGroup
	start := time.Now()

	for i := 0; i < totalAdds; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			img, err := client.AddImage(ctx, &handler.AddImageRequest{
				ListingID:   listing.ID,
				URL:         fmt.Sprintf("https://cdn.example.com/%s/%d.jpg", listing.ID, n),
				ContentType: "image/jpeg",
			})
			if err != nil {
				classify(err)
				return
			}
			addOK.Add(1)
			imagesMu.Lock()
			imageIDs = append(imageIDs, img.ImageID)
			imagesMu.Unlock()
		}(i)
	}

	for i := 0; i < totalReorders; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			current, err := client.GetListing(ctx, &handler.ListingRequest{ListingID: listing.ID})
			if err != nil {
				classify(err)
				return
			}
			order := make(map[string]int, len(current.Images))
			for rank, idx := range rand.Perm(len(current.Images)) {
				order[current.Images[idx].ImageID] = rank
			}
			// A snapshot taken before a concurrent add or remove is expected
			// to be rejected as an invalid reorder.
			if _, err := client.ReorderImages(ctx, &handler.ReorderImagesRequest{ListingID: listing.ID, Order: order}); err != nil {
				classify(err)
				return
			}
			reorderOK.Add(1)
		}()
	}

	for i := 0; i < totalRemoves; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			time.Sleep(time.Duration(rand.IntN(50)) * time.Millisecond)
			imagesMu.Lock()
			if len(imageIDs) == 0 {
				imagesMu.Unlock()
				return
			}
			id := imageIDs[len(imageIDs)-1]
			imageIDs = imageIDs[:len(imageIDs)-1]
			imagesMu.Unlock()

			if _, err := client.RemoveImage(ctx, &handler.RemoveImageRequest{ListingID: listing.ID, ImageID: id}); err != nil {
				classify(err)
				return
			}
			removeOK.Add(1)
		}()
	}

	wg.Wait()
	elapsed := time.Since(start)

	final, err := client.GetListing(ctx, &handler.ListingRequest{ListingID: listing.ID})
	if err != nil {
		log.Fatalf("failed to load listing: %v", err)
	}

	fmt.Println("========== STRESS TEST RESULTS ==========")
	fmt.Printf("Listing:          %s\n", listing.ID)
	fmt.Printf("Adds:             %d/%d\n", addOK.Load(), totalAdds)
	fmt.Printf("Reorders:         %d/%d\n", reorderOK.Load(), totalReorders)
	fmt.Printf("Removes:          %d\n", removeOK.Load())
	fmt.Printf("Retryable errors: %d\n", retryable.Load())
	fmt.Printf("Rejected:         %d\n", rejected.Load())
	fmt.Printf("Final images:     %d\n", len(final.Images))
	fmt.Printf("Duration:         %v\n", elapsed)
	fmt.Println("==========================================")

	// Assertions
	expected := int(addOK.Load() - removeOK.Load())
	if len(final.Images) == expected {
		fmt.Printf("PASS: gallery holds %d images\n", expected)
	} else {
		fmt.Printf("FAIL: expected %d images, got %d\n", expected, len(final.Images))
	}

	gallery := make([]domain.ListingImage, len(final.Images))
	ranks := make([]int, len(final.Images))
	for i, img := range final.Images {
		gallery[i] = domain.ListingImage{ImageID: img.ImageID, SortOrder: img.SortOrder}
		ranks[i] = img.SortOrder
	}
	if domain.RanksDense(gallery) {
		fmt.Println("PASS: ranks are exactly 0..N-1")
	} else {
		fmt.Printf("FAIL: ranks are not dense: %v\n", ranks)
		os.Exit(1)
	}
}
