package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rl1809/estate-listings/internal/core/domain"
	"github.com/rl1809/estate-listings/internal/core/service"
	"github.com/rl1809/estate-listings/internal/platform/requestctx"
)

// UserIDHeader carries the acting user on HTTP requests.
const UserIDHeader = "X-User-ID"

const maxBodyBytes = 1 << 20

type HTTPHandler struct {
	listingService *service.ListingService
	retryAfter     time.Duration
}

type addImageHTTPRequest struct {
	URL          string `json:"url"`
	ThumbnailURL string `json:"thumbnail_url"`
	AltText      string `json:"alt_text"`
	FileSize     int64  `json:"file_size"`
	ContentType  string `json:"content_type"`
}

type reorderHTTPRequest struct {
	Order map[string]int `json:"order"`
}

type updateImageHTTPRequest struct {
	AltText string `json:"alt_text"`
}

// NewHTTPHandler builds the JSON API. retryAfter is advertised on 503
// responses when a listing lock could not be acquired.
func NewHTTPHandler(listingService *service.ListingService, retryAfter time.Duration) *HTTPHandler {
	if retryAfter <= 0 {
		retryAfter = time.Second
	}
	return &HTTPHandler{listingService: listingService, retryAfter: retryAfter}
}

// Register mounts the listing routes on mux.
func (h *HTTPHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.HealthCheck)
	mux.HandleFunc("POST /api/listings", h.CreateListing)
	mux.HandleFunc("GET /api/listings", h.ListListings)
	mux.HandleFunc("GET /api/listings/{id}", h.GetListing)
	mux.HandleFunc("POST /api/listings/{id}/images", h.AddImage)
	mux.HandleFunc("PUT /api/listings/{id}/images/order", h.ReorderImages)
	mux.HandleFunc("PATCH /api/listings/{id}/images/{imageID}", h.UpdateImage)
	mux.HandleFunc("DELETE /api/listings/{id}/images/{imageID}", h.RemoveImage)
	mux.HandleFunc("POST /api/listings/{id}/publish", h.transition(h.listingService.Publish))
	mux.HandleFunc("POST /api/listings/{id}/unpublish", h.transition(h.listingService.Unpublish))
	mux.HandleFunc("POST /api/listings/{id}/archive", h.transition(h.listingService.Archive))
	mux.HandleFunc("POST /api/listings/{id}/unarchive", h.transition(h.listingService.Unarchive))
	mux.HandleFunc("POST /api/listings/{id}/portfolio", h.transition(h.listingService.MoveToPortfolio))
}

// WithUser stores the X-User-ID header in the request context.
func WithUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if userID := strings.TrimSpace(r.Header.Get(UserIDHeader)); userID != "" {
			r = r.WithContext(requestctx.WithUserID(r.Context(), userID))
		}
		next.ServeHTTP(w, r)
	})
}

func (h *HTTPHandler) CreateListing(w http.ResponseWriter, r *http.Request) {
	var req CreateListingRequest
	if !decodeBody(w, r, &req) {
		return
	}

	listing, err := h.listingService.CreateListing(r.Context(), req.Title, req.Description)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toListingDTO(listing))
}

func (h *HTTPHandler) GetListing(w http.ResponseWriter, r *http.Request) {
	listing, err := h.listingService.GetListing(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toListingDTO(listing))
}

func (h *HTTPHandler) ListListings(w http.ResponseWriter, r *http.Request) {
	pageSize := 0
	if raw := r.URL.Query().Get("page_size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Code: "invalid_request", Message: "page_size must be a non-negative integer"})
			return
		}
		pageSize = n
	}

	page, err := h.listingService.ListListings(r.Context(), pageSize, r.URL.Query().Get("page_token"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toListingPageDTO(page))
}

func (h *HTTPHandler) AddImage(w http.ResponseWriter, r *http.Request) {
	var req addImageHTTPRequest
	if !decodeBody(w, r, &req) {
		return
	}

	img, err := h.listingService.AddImage(r.Context(), r.PathValue("id"), domain.ImageMeta(req))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toImageDTO(img))
}

func (h *HTTPHandler) RemoveImage(w http.ResponseWriter, r *http.Request) {
	if err := h.listingService.RemoveImage(r.Context(), r.PathValue("id"), r.PathValue("imageID")); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MutationResponse{Success: true, Message: "image removed"})
}

func (h *HTTPHandler) ReorderImages(w http.ResponseWriter, r *http.Request) {
	var req reorderHTTPRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := h.listingService.ReorderImages(r.Context(), r.PathValue("id"), req.Order); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MutationResponse{Success: true, Message: "images reordered"})
}

func (h *HTTPHandler) UpdateImage(w http.ResponseWriter, r *http.Request) {
	var req updateImageHTTPRequest
	if !decodeBody(w, r, &req) {
		return
	}

	img, err := h.listingService.UpdateImageAltText(r.Context(), r.PathValue("id"), r.PathValue("imageID"), req.AltText)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toImageDTO(img))
}

func (h *HTTPHandler) transition(apply func(context.Context, string) (domain.ListingStatus, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		st, err := apply(r.Context(), id)
		if err != nil {
			h.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, StatusResponse{ListingID: id, Status: string(st)})
	}
}

func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *HTTPHandler) writeError(w http.ResponseWriter, err error) {
	status, message := httpStatusOf(err)
	if status == http.StatusServiceUnavailable {
		w.Header().Set("Retry-After", strconv.Itoa(int(h.retryAfter.Round(time.Second)/time.Second)))
	}
	writeJSON(w, status, ErrorResponse{
		Success: false,
		Code:    domain.CodeOf(err),
		Message: message,
	})
}

func httpStatusOf(err error) (int, string) {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return http.StatusRequestTimeout, err.Error()
	}

	switch domain.KindOf(err) {
	case domain.KindValidation:
		return http.StatusBadRequest, err.Error()
	case domain.KindNotFound:
		return http.StatusNotFound, err.Error()
	case domain.KindBusinessRule:
		return http.StatusUnprocessableEntity, err.Error()
	case domain.KindLockUnavailable:
		return http.StatusServiceUnavailable, err.Error()
	case domain.KindConcurrencyConflict:
		return http.StatusConflict, err.Error()
	case domain.KindUnknown:
		return http.StatusInternalServerError, "internal error"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Success: false,
			Code:    "invalid_request",
			Message: "invalid request body",
		})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
