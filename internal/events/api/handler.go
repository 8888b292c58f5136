package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"eventsure/internal/auth"
	"eventsure/internal/events"
	"eventsure/internal/models"
)

type Handler struct {
	EventService *events.Service
}

func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req events.CreateEventInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	identity := auth.FromContext(r.Context())
	event, err := h.EventService.Create(req, identity.UserID, identity.Name)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(event)
}

func (h *Handler) GetEvent(w http.ResponseWriter, r *http.Request) {
	event, err := h.EventService.Get(chi.URLParam(r, "eventId"))
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(event.ToResponse())
}

// ListEvents returns the approved catalogue, or the caller's own events
// (any status) when ?mine=true.
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	var (
		list []models.Event
		err  error
	)
	if r.URL.Query().Get("mine") == "true" {
		identity := auth.FromContext(r.Context())
		list, err = h.EventService.ListByOrganizer(identity.UserID)
	} else {
		list, err = h.EventService.ListApproved()
	}
	if err != nil {
		writeError(w, err)
		return
	}

	responses := make([]models.EventResponse, len(list))
	for i := range list {
		responses[i] = list[i].ToResponse()
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(responses)
}

func (h *Handler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	var patch models.EventUpdate
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	identity := auth.FromContext(r.Context())
	event, err := h.EventService.Update(chi.URLParam(r, "eventId"), identity.UserID, patch)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(event)
}

func (h *Handler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	identity := auth.FromContext(r.Context())
	if err := h.EventService.Delete(chi.URLParam(r, "eventId"), identity.UserID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ApproveEvent(w http.ResponseWriter, r *http.Request) {
	h.setStatus(w, r, models.EventApproved)
}

func (h *Handler) RejectEvent(w http.ResponseWriter, r *http.Request) {
	h.setStatus(w, r, models.EventRejected)
}

func (h *Handler) setStatus(w http.ResponseWriter, r *http.Request, status models.EventStatus) {
	identity := auth.FromContext(r.Context())
	if identity.Role != auth.RoleAdmin {
		http.Error(w, "admin role required", http.StatusForbidden)
		return
	}

	event, err := h.EventService.SetStatus(chi.URLParam(r, "eventId"), status)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(event)
}

func (h *Handler) GetMyNotifications(w http.ResponseWriter, r *http.Request) {
	identity := auth.FromContext(r.Context())
	notifications, err := h.EventService.NotificationsForUser(identity.UserID)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(notifications)
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, events.ErrEventNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, events.ErrForbidden):
		http.Error(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, events.ErrInvalidEvent):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
