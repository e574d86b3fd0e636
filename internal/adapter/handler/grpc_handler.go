package handler

import (
	"context"
	"errors"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/rl1809/estate-listings/internal/core/domain"
	"github.com/rl1809/estate-listings/internal/core/service"
	"github.com/rl1809/estate-listings/internal/platform/requestctx"
)

// UserIDMetadataKey names the incoming metadata entry carrying the acting user.
const UserIDMetadataKey = "x-user-id"

type GRPCHandler struct {
	listingService *service.ListingService
}

var _ ListingServiceServer = (*GRPCHandler)(nil)

func NewGRPCHandler(listingService *service.ListingService) *GRPCHandler {
	return &GRPCHandler{listingService: listingService}
}

func (h *GRPCHandler) CreateListing(ctx context.Context, req *CreateListingRequest) (*ListingDTO, error) {
	listing, err := h.listingService.CreateListing(ctx, req.Title, req.Description)
	if err != nil {
		return nil, toStatusError(err)
	}
	dto := toListingDTO(listing)
	return &dto, nil
}

func (h *GRPCHandler) GetListing(ctx context.Context, req *ListingRequest) (*ListingDTO, error) {
	listing, err := h.listingService.GetListing(ctx, req.ListingID)
	if err != nil {
		return nil, toStatusError(err)
	}
	dto := toListingDTO(listing)
	return &dto, nil
}

func (h *GRPCHandler) ListListings(ctx context.Context, req *ListListingsRequest) (*ListListingsResponse, error) {
	page, err := h.listingService.ListListings(ctx, req.PageSize, req.PageToken)
	if err != nil {
		return nil, toStatusError(err)
	}
	resp := toListingPageDTO(page)
	return &resp, nil
}

func (h *GRPCHandler) AddImage(ctx context.Context, req *AddImageRequest) (*ImageDTO, error) {
	img, err := h.listingService.AddImage(ctx, req.ListingID, req.meta())
	if err != nil {
		return nil, toStatusError(err)
	}
	dto := toImageDTO(img)
	return &dto, nil
}

func (h *GRPCHandler) RemoveImage(ctx context.Context, req *RemoveImageRequest) (*MutationResponse, error) {
	if err := h.listingService.RemoveImage(ctx, req.ListingID, req.ImageID); err != nil {
		return nil, toStatusError(err)
	}
	return &MutationResponse{Success: true, Message: "image removed"}, nil
}

func (h *GRPCHandler) ReorderImages(ctx context.Context, req *ReorderImagesRequest) (*MutationResponse, error) {
	if err := h.listingService.ReorderImages(ctx, req.ListingID, req.Order); err != nil {
		return nil, toStatusError(err)
	}
	return &MutationResponse{Success: true, Message: "images reordered"}, nil
}

func (h *GRPCHandler) UpdateImage(ctx context.Context, req *UpdateImageRequest) (*ImageDTO, error) {
	img, err := h.listingService.UpdateImageAltText(ctx, req.ListingID, req.ImageID, req.AltText)
	if err != nil {
		return nil, toStatusError(err)
	}
	dto := toImageDTO(img)
	return &dto, nil
}

func (h *GRPCHandler) Publish(ctx context.Context, req *ListingRequest) (*StatusResponse, error) {
	return statusResult(req.ListingID)(h.listingService.Publish(ctx, req.ListingID))
}

func (h *GRPCHandler) Unpublish(ctx context.Context, req *ListingRequest) (*StatusResponse, error) {
	return statusResult(req.ListingID)(h.listingService.Unpublish(ctx, req.ListingID))
}

func (h *GRPCHandler) Archive(ctx context.Context, req *ListingRequest) (*StatusResponse, error) {
	return statusResult(req.ListingID)(h.listingService.Archive(ctx, req.ListingID))
}

func (h *GRPCHandler) Unarchive(ctx context.Context, req *ListingRequest) (*StatusResponse, error) {
	return statusResult(req.ListingID)(h.listingService.Unarchive(ctx, req.ListingID))
}

func (h *GRPCHandler) MoveToPortfolio(ctx context.Context, req *ListingRequest) (*StatusResponse, error) {
	return statusResult(req.ListingID)(h.listingService.MoveToPortfolio(ctx, req.ListingID))
}

func statusResult(listingID string) func(domain.ListingStatus, error) (*StatusResponse, error) {
	return func(st domain.ListingStatus, err error) (*StatusResponse, error) {
		if err != nil {
			return nil, toStatusError(err)
		}
		return &StatusResponse{ListingID: listingID, Status: string(st)}, nil
	}
}

// UnaryUserInterceptor copies the x-user-id metadata entry into the request
// context.
func UnaryUserInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, _ *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			if values := md.Get(UserIDMetadataKey); len(values) > 0 {
				if userID := strings.TrimSpace(values[0]); userID != "" {
					ctx = requestctx.WithUserID(ctx, userID)
				}
			}
		}
		return handler(ctx, req)
	}
}

func toStatusError(err error) error {
	switch {
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	}

	var code codes.Code
	switch domain.KindOf(err) {
	case domain.KindValidation:
		code = codes.InvalidArgument
	case domain.KindNotFound:
		code = codes.NotFound
	case domain.KindBusinessRule:
		code = codes.FailedPrecondition
	case domain.KindLockUnavailable:
		code = codes.Unavailable
	case domain.KindConcurrencyConflict:
		code = codes.Aborted
	case domain.KindUnknown:
		return status.Error(codes.Internal, "internal error")
	default:
		return status.Error(codes.Internal, "internal error")
	}
	// The domain code leads the message so clients can branch on it.
	return status.Error(code, domain.CodeOf(err)+": "+err.Error())
}
