package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/futbolmvp/booking-system/models"
	"github.com/futbolmvp/booking-system/repositories"
	"github.com/futbolmvp/booking-system/services"
)

var (
	errInvalidStatus  = errors.New("invalid status filter")
	errInvalidEventID = errors.New("invalid event_id filter")
)

// AdminEventHandler covers event lifecycle, court management, captains and
// the audit log. Every operation is admin-gated in the service layer.
type AdminEventHandler struct {
	eventService *services.EventService
}

func NewAdminEventHandler(eventService *services.EventService) *AdminEventHandler {
	return &AdminEventHandler{eventService: eventService}
}

func (h *AdminEventHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorID(w, r)
	if !ok {
		return
	}

	var input services.CreateEventInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	event, err := h.eventService.CreateEvent(r.Context(), actor, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, event, nil)
}

func (h *AdminEventHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorID(w, r)
	if !ok {
		return
	}

	filter := repositories.ListEventsFilter{}
	if raw := r.URL.Query().Get("status"); raw != "" {
		status := models.EventStatus(raw)
		if !status.IsValid() {
			badRequestResponse(w, r, errInvalidStatus)
			return
		}
		filter.Status = &status
	}
	filter.IncludeFinalized = r.URL.Query().Get("include_finalized") == "true"
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if limit, err := strconv.Atoi(raw); err == nil && limit > 0 {
			filter.Limit = limit
		}
	}

	events, err := h.eventService.ListEvents(r.Context(), actor, filter)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"items": events, "count": len(events)}, nil)
}

func (h *AdminEventHandler) Reopen(w http.ResponseWriter, r *http.Request) {
	h.lifecycle(w, r, h.eventService.ReopenEvent)
}

func (h *AdminEventHandler) Close(w http.ResponseWriter, r *http.Request) {
	h.lifecycle(w, r, h.eventService.CloseEvent)
}

func (h *AdminEventHandler) Finalize(w http.ResponseWriter, r *http.Request) {
	h.lifecycle(w, r, h.eventService.FinalizeEvent)
}

func (h *AdminEventHandler) lifecycle(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, eventID, actorUserID uuid.UUID) (*models.Event, error)) {
	actor, ok := actorID(w, r)
	if !ok {
		return
	}
	eventID, ok := uuidParam(w, r, "eventID")
	if !ok {
		return
	}

	event, err := op(r.Context(), eventID, actor)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, event, nil)
}

func (h *AdminEventHandler) CreateCourt(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorID(w, r)
	if !ok {
		return
	}
	eventID, ok := uuidParam(w, r, "eventID")
	if !ok {
		return
	}

	var input services.CreateCourtInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	court, err := h.eventService.CreateCourt(r.Context(), eventID, actor, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, court, nil)
}

func (h *AdminEventHandler) UpdateCourt(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorID(w, r)
	if !ok {
		return
	}
	eventID, ok := uuidParam(w, r, "eventID")
	if !ok {
		return
	}
	courtID, ok := uuidParam(w, r, "courtID")
	if !ok {
		return
	}

	var input struct {
		Name      *string `json:"name,omitempty"`
		Capacity  *int    `json:"capacity,omitempty"`
		SortOrder *int    `json:"sort_order,omitempty"`
		IsOpen    *bool   `json:"is_open,omitempty"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	patch := repositories.CourtPatch{
		Name:      input.Name,
		Capacity:  input.Capacity,
		SortOrder: input.SortOrder,
		IsOpen:    input.IsOpen,
	}
	court, err := h.eventService.UpdateCourt(r.Context(), eventID, courtID, actor, patch)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, court, nil)
}

func (h *AdminEventHandler) DeleteCourt(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorID(w, r)
	if !ok {
		return
	}
	eventID, ok := uuidParam(w, r, "eventID")
	if !ok {
		return
	}
	courtID, ok := uuidParam(w, r, "courtID")
	if !ok {
		return
	}

	if err := h.eventService.DeleteCourt(r.Context(), eventID, courtID, actor); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"event_id": eventID, "court_id": courtID, "message": "court deleted"}, nil)
}

func (h *AdminEventHandler) OpenCourt(w http.ResponseWriter, r *http.Request) {
	h.setCourtOpen(w, r, true)
}

func (h *AdminEventHandler) CloseCourt(w http.ResponseWriter, r *http.Request) {
	h.setCourtOpen(w, r, false)
}

func (h *AdminEventHandler) setCourtOpen(w http.ResponseWriter, r *http.Request, open bool) {
	actor, ok := actorID(w, r)
	if !ok {
		return
	}
	eventID, ok := uuidParam(w, r, "eventID")
	if !ok {
		return
	}
	courtID, ok := uuidParam(w, r, "courtID")
	if !ok {
		return
	}

	if err := h.eventService.SetCourtOpen(r.Context(), eventID, courtID, actor, open); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"court_id": courtID, "is_open": open}, nil)
}

func (h *AdminEventHandler) AssignCaptain(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorID(w, r)
	if !ok {
		return
	}
	eventID, ok := uuidParam(w, r, "eventID")
	if !ok {
		return
	}
	courtID, ok := uuidParam(w, r, "courtID")
	if !ok {
		return
	}

	var input struct {
		UserID uuid.UUID `json:"user_id"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.eventService.AssignCaptain(r.Context(), eventID, courtID, input.UserID, actor); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, jsonResponse{"event_id": eventID, "court_id": courtID, "user_id": input.UserID}, nil)
}

func (h *AdminEventHandler) RemoveCaptain(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorID(w, r)
	if !ok {
		return
	}
	eventID, ok := uuidParam(w, r, "eventID")
	if !ok {
		return
	}
	courtID, ok := uuidParam(w, r, "courtID")
	if !ok {
		return
	}
	userID, ok := uuidParam(w, r, "userID")
	if !ok {
		return
	}

	if err := h.eventService.RemoveCaptain(r.Context(), eventID, courtID, userID, actor); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"message": "captain removed"}, nil)
}

func (h *AdminEventHandler) ListAudit(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorID(w, r)
	if !ok {
		return
	}

	filter := repositories.ListAuditFilter{}
	if raw := r.URL.Query().Get("event_id"); raw != "" {
		eventID, err := uuid.Parse(raw)
		if err != nil {
			badRequestResponse(w, r, errInvalidEventID)
			return
		}
		filter.EventID = &eventID
	}
	if raw := r.URL.Query().Get("action"); raw != "" {
		action := models.AuditAction(raw)
		filter.Action = &action
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if limit, err := strconv.Atoi(raw); err == nil && limit > 0 {
			filter.Limit = limit
		}
	}

	entries, err := h.eventService.ListAudit(r.Context(), actor, filter)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"items": entries, "count": len(entries)}, nil)
}
