package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/alxtravel/travel-booking-api/internal/domain"
	"github.com/alxtravel/travel-booking-api/internal/logging"
)

type listingStore interface {
	Create(ctx context.Context, l *domain.Listing) error
	GetByID(ctx context.Context, id int64) (*domain.Listing, error)
	List(ctx context.Context, limit, offset int) ([]domain.Listing, error)
	Update(ctx context.Context, l *domain.Listing) error
	Delete(ctx context.Context, id int64) error
}

type ListingHandler struct {
	listings listingStore
}

func NewListingHandler(listings listingStore) *ListingHandler {
	return &ListingHandler{listings: listings}
}

type listingRequest struct {
	Title         string          `json:"title"`
	Description   string          `json:"description"`
	Location      string          `json:"location"`
	PricePerNight decimal.Decimal `json:"price_per_night"`
}

func (r listingRequest) validate() string {
	if r.Title == "" {
		return "title is required"
	}
	if r.Location == "" {
		return "location is required"
	}
	if !r.PricePerNight.IsPositive() {
		return "price_per_night must be greater than zero"
	}
	return ""
}

type listingDTO struct {
	ID            int64           `json:"id"`
	Title         string          `json:"title"`
	Description   string          `json:"description"`
	Location      string          `json:"location"`
	PricePerNight decimal.Decimal `json:"price_per_night"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

func toListingDTO(l *domain.Listing) listingDTO {
	return listingDTO{
		ID:            l.ID,
		Title:         l.Title,
		Description:   l.Description,
		Location:      l.Location,
		PricePerNight: l.PricePerNight,
		CreatedAt:     l.CreatedAt,
		UpdatedAt:     l.UpdatedAt,
	}
}

func (h *ListingHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)

	listings, err := h.listings.List(r.Context(), limit, offset)
	if err != nil {
		logging.FromContext(r.Context()).Error("listing list failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	dtos := make([]listingDTO, 0, len(listings))
	for i := range listings {
		dtos = append(dtos, toListingDTO(&listings[i]))
	}
	RespondJSON(w, http.StatusOK, dtos)
}

func (h *ListingHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		RespondError(w, http.StatusNotFound, "Not found", nil)
		return
	}

	l, err := h.listings.GetByID(r.Context(), id)
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, toListingDTO(l))
}

func (h *ListingHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req listingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondError(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}
	if msg := req.validate(); msg != "" {
		RespondError(w, http.StatusBadRequest, msg, nil)
		return
	}

	l := &domain.Listing{
		Title:         req.Title,
		Description:   req.Description,
		Location:      req.Location,
		PricePerNight: req.PricePerNight,
		CreatedAt:     time.Now().UTC(),
	}
	if err := h.listings.Create(r.Context(), l); err != nil {
		logging.FromContext(r.Context()).Error("listing creation failed", "error", err)
		RespondDomainError(w, err)
		return
	}
	l.UpdatedAt = l.CreatedAt
	RespondJSON(w, http.StatusCreated, toListingDTO(l))
}

func (h *ListingHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		RespondError(w, http.StatusNotFound, "Not found", nil)
		return
	}

	var req listingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondError(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}
	if msg := req.validate(); msg != "" {
		RespondError(w, http.StatusBadRequest, msg, nil)
		return
	}

	l, err := h.listings.GetByID(r.Context(), id)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	l.Title = req.Title
	l.Description = req.Description
	l.Location = req.Location
	l.PricePerNight = req.PricePerNight

	if err := h.listings.Update(r.Context(), l); err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, toListingDTO(l))
}

func (h *ListingHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		RespondError(w, http.StatusNotFound, "Not found", nil)
		return
	}

	if err := h.listings.Delete(r.Context(), id); err != nil {
		RespondDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func pagination(r *http.Request) (limit, offset int) {
	limit, offset = 50, 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}
	return limit, offset
}
