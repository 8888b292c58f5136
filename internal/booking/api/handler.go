package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"eventsure/internal/auth"
	"eventsure/internal/booking"
	"eventsure/internal/models"
)

type Handler struct {
	BookingService *booking.Service
}

// CreateBooking holds seats and opens a pending reservation.
func (h *Handler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	var req models.BookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	identity := auth.FromContext(r.Context())
	ticket, err := h.BookingService.BeginBooking(req.EventID, identity.UserID, req.Quantity)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := models.BookingResponse{
		TicketID:        ticket.TicketID,
		EventID:         ticket.EventID,
		Status:          ticket.Status,
		Quantity:        ticket.Quantity,
		TotalPrice:      ticket.TotalPrice,
		PaymentIntentID: ticket.PaymentIntentID,
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(resp)
}

// ConfirmBooking applies an externally-asserted payment result.
func (h *Handler) ConfirmBooking(w http.ResponseWriter, r *http.Request) {
	ticketID := chi.URLParam(r, "ticketId")

	var req models.ConfirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	identity := auth.FromContext(r.Context())
	ticket, err := h.BookingService.Confirm(ticketID, identity.UserID, req)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(ticket)
}

// RequestPaymentIntent returns the payment intent for a pending ticket.
func (h *Handler) RequestPaymentIntent(w http.ResponseWriter, r *http.Request) {
	ticketID := chi.URLParam(r, "ticketId")

	identity := auth.FromContext(r.Context())
	intentID, err := h.BookingService.RequestPaymentIntent(ticketID, identity.UserID)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"payment_intent_id": intentID})
}

// CancelBooking removes the ticket and releases its seats.
func (h *Handler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	ticketID := chi.URLParam(r, "ticketId")

	identity := auth.FromContext(r.Context())
	if err := h.BookingService.Cancel(ticketID, identity.UserID); err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"message": "Ticket cancelled successfully, refund will process in a few days"})
}

// GetMyBookings lists the caller's tickets.
func (h *Handler) GetMyBookings(w http.ResponseWriter, r *http.Request) {
	identity := auth.FromContext(r.Context())
	tickets, err := h.BookingService.GetTicketsForUser(identity.UserID)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(tickets)
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, booking.ErrEventNotFound), errors.Is(err, booking.ErrTicketNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, booking.ErrForbidden):
		http.Error(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, booking.ErrCapacityExceeded):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, booking.ErrInvalidQuantity),
		errors.Is(err, booking.ErrPolicyViolation),
		errors.Is(err, booking.ErrVerificationFailed):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, booking.ErrTransientStore):
		http.Error(w, "store temporarily unavailable, retry the request", http.StatusServiceUnavailable)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
