package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/farebridge/agency-booking/internal/database"
	"github.com/farebridge/agency-booking/internal/models"
	"github.com/farebridge/agency-booking/internal/service"
	"github.com/farebridge/agency-booking/internal/session"
)

// Handler contains HTTP handlers for the API
type Handler struct {
	bookingService service.BookingService
}

// NewHandler creates a new Handler instance
func NewHandler(bookingService service.BookingService) *Handler {
	return &Handler{
		bookingService: bookingService,
	}
}

// Response helpers
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

func respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrOperationInFlight):
		respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrSearchNotFound),
		errors.Is(err, service.ErrCandidateNotFound),
		errors.Is(err, session.ErrNotFound),
		errors.Is(err, database.ErrNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	default:
		respondError(w, http.StatusBadGateway, err.Error())
	}
}

// StartSearch handles POST /api/search
func (h *Handler) StartSearch(w http.ResponseWriter, r *http.Request) {
	var req models.SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	// Reject invalid requests before any upstream call.
	if err := req.Validate(time.Now()); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	tui, err := h.bookingService.StartSearch(r.Context(), &req)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusAccepted, map[string]string{"tui": tui})
}

// GetSearch handles GET /api/search/{tui}
func (h *Handler) GetSearch(w http.ResponseWriter, r *http.Request) {
	tui := mux.Vars(r)["tui"]

	snap, err := h.bookingService.SearchSnapshot(tui)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, snap)
}

// CancelSearch handles DELETE /api/search/{tui}
func (h *Handler) CancelSearch(w http.ResponseWriter, r *http.Request) {
	tui := mux.Vars(r)["tui"]

	if err := h.bookingService.CancelSearch(tui); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Search cancelled"})
}

// CreateBookingRequest starts a booking from a search selection
type CreateBookingRequest struct {
	TUI   string `json:"tui"`
	Index string `json:"index"`
}

// StartBooking handles POST /api/bookings
func (h *Handler) StartBooking(w http.ResponseWriter, r *http.Request) {
	var req CreateBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.TUI == "" {
		respondError(w, http.StatusBadRequest, "Search token is required")
		return
	}
	if req.Index == "" {
		respondError(w, http.StatusBadRequest, "Candidate index is required")
		return
	}

	bookingID, err := h.bookingService.StartBooking(r.Context(), req.TUI, req.Index)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]string{"bookingId": bookingID})
}

// GetBooking handles GET /api/bookings/{id}
func (h *Handler) GetBooking(w http.ResponseWriter, r *http.Request) {
	bookingID := mux.Vars(r)["id"]

	state, err := h.bookingService.GetBookingState(r.Context(), bookingID)
	if err != nil {
		respondError(w, http.StatusNotFound, "Booking not found")
		return
	}
	respondJSON(w, http.StatusOK, state)
}

// FareDecisionRequest resolves a fare-change prompt
type FareDecisionRequest struct {
	Accept bool `json:"accept"`
}

// DecideFare handles POST /api/bookings/{id}/fare
func (h *Handler) DecideFare(w http.ResponseWriter, r *http.Request) {
	bookingID := mux.Vars(r)["id"]

	var req FareDecisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.bookingService.DecideFare(r.Context(), bookingID, req.Accept); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusAccepted, map[string]string{"message": "Fare decision recorded"})
}

// SubmitPassengers handles POST /api/bookings/{id}/passengers
func (h *Handler) SubmitPassengers(w http.ResponseWriter, r *http.Request) {
	bookingID := mux.Vars(r)["id"]

	var req models.SubmitPassengersSignal
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if len(req.Travellers) == 0 {
		respondError(w, http.StatusBadRequest, "At least one traveller is required")
		return
	}

	if err := h.bookingService.SubmitPassengers(r.Context(), bookingID, &req); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusAccepted, map[string]string{"message": "Passengers submitted"})
}

// GetAncillaries handles GET /api/bookings/{id}/ancillaries
func (h *Handler) GetAncillaries(w http.ResponseWriter, r *http.Request) {
	bookingID := mux.Vars(r)["id"]

	offers, err := h.bookingService.GetAncillaries(r.Context(), bookingID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, offers)
}

// PaymentRequest triggers the payment step
type PaymentRequest struct {
	PayMode string `json:"payMode,omitempty"`
}

// SubmitPayment handles POST /api/bookings/{id}/pay
func (h *Handler) SubmitPayment(w http.ResponseWriter, r *http.Request) {
	bookingID := mux.Vars(r)["id"]

	var req PaymentRequest
	if r.Body != nil {
		// Body is optional; the default pay mode applies when absent.
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	if err := h.bookingService.SubmitPayment(r.Context(), bookingID, req.PayMode); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusAccepted, map[string]string{"message": "Payment submitted"})
}

// RetryPricing handles POST /api/bookings/{id}/retry
func (h *Handler) RetryPricing(w http.ResponseWriter, r *http.Request) {
	bookingID := mux.Vars(r)["id"]

	if err := h.bookingService.RetryPricing(r.Context(), bookingID); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusAccepted, map[string]string{"message": "Retry requested"})
}

// CancelBooking handles DELETE /api/bookings/{id}
func (h *Handler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	bookingID := mux.Vars(r)["id"]

	if err := h.bookingService.CancelBooking(r.Context(), bookingID); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Booking cancelled"})
}

// RetrieveBooking handles GET /api/bookings/{id}/record
func (h *Handler) RetrieveBooking(w http.ResponseWriter, r *http.Request) {
	bookingID := mux.Vars(r)["id"]

	detail, err := h.bookingService.RetrieveBooking(r.Context(), bookingID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, detail)
}

// VoidBookingRequest cancels a ticketed booking upstream
type VoidBookingRequest struct {
	Remarks string `json:"remarks,omitempty"`
}

// VoidBooking handles POST /api/bookings/{id}/void
func (h *Handler) VoidBooking(w http.ResponseWriter, r *http.Request) {
	bookingID := mux.Vars(r)["id"]

	var req VoidBookingRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	resp, err := h.bookingService.VoidBooking(r.Context(), bookingID, req.Remarks)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

// ListBookings handles GET /api/bookings
func (h *Handler) ListBookings(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	records, err := h.bookingService.ListBookings(r.Context(), limit)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, records)
}

// HealthCheck handles GET /health
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}
