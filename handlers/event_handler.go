package handlers

import (
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/futbolmvp/booking-system/services"
)

// EventHandler serves the player-facing event surface: browsing events and
// registering, cancelling and moving participants.
type EventHandler struct {
	eventService        *services.EventService
	registrationService *services.RegistrationService
}

func NewEventHandler(eventService *services.EventService, registrationService *services.RegistrationService) *EventHandler {
	return &EventHandler{eventService: eventService, registrationService: registrationService}
}

func (h *EventHandler) ListOpen(w http.ResponseWriter, r *http.Request) {
	events, err := h.eventService.ListOpenEvents(r.Context())
	if err != nil {
		serverErrorResponse(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"items": events, "count": len(events)}, nil)
}

func (h *EventHandler) Active(w http.ResponseWriter, r *http.Request) {
	detail, err := h.eventService.ActiveEvent(r.Context())
	if err != nil {
		if errors.Is(err, services.ErrEventNotFound) {
			notFoundResponse(w, r)
			return
		}
		serverErrorResponse(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, detail, nil)
}

func (h *EventHandler) Detail(w http.ResponseWriter, r *http.Request) {
	eventID, ok := uuidParam(w, r, "eventID")
	if !ok {
		return
	}
	detail, err := h.eventService.GetEventDetail(r.Context(), eventID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, detail, nil)
}

func (h *EventHandler) Register(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorID(w, r)
	if !ok {
		return
	}
	eventID, ok := uuidParam(w, r, "eventID")
	if !ok {
		return
	}

	var input struct {
		CourtID uuid.UUID `json:"court_id"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	result, err := h.registrationService.Register(r.Context(), eventID, input.CourtID, actor)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, result, nil)
}

func (h *EventHandler) RegisterGuest(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorID(w, r)
	if !ok {
		return
	}
	eventID, ok := uuidParam(w, r, "eventID")
	if !ok {
		return
	}

	var input struct {
		CourtID   uuid.UUID `json:"court_id"`
		GuestName string    `json:"guest_name"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	result, err := h.registrationService.RegisterGuest(r.Context(), eventID, input.CourtID, actor, input.GuestName)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, result, nil)
}

func (h *EventHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorID(w, r)
	if !ok {
		return
	}
	registrationID, ok := uuidParam(w, r, "registrationID")
	if !ok {
		return
	}

	result, err := h.registrationService.Cancel(r.Context(), registrationID, actor)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result, nil)
}

func (h *EventHandler) Move(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorID(w, r)
	if !ok {
		return
	}
	registrationID, ok := uuidParam(w, r, "registrationID")
	if !ok {
		return
	}

	var input struct {
		ToCourtID uuid.UUID `json:"to_court_id"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	result, err := h.registrationService.Move(r.Context(), registrationID, input.ToCourtID, actor)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result, nil)
}
