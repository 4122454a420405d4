package handlers

import (
	"net/http"
	"strconv"

	"github.com/futbolmvp/booking-system/services"
)

type NotificationHandler struct {
	notificationService *services.NotificationService
}

func NewNotificationHandler(notificationService *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

func (h *NotificationHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorID(w, r)
	if !ok {
		return
	}

	var input services.CreateNotificationInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	notification, err := h.notificationService.Create(r.Context(), actor, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, notification, nil)
}

func (h *NotificationHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorID(w, r)
	if !ok {
		return
	}

	notifications, err := h.notificationService.ListForUser(r.Context(), actor)
	if err != nil {
		serverErrorResponse(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"items": notifications, "count": len(notifications)}, nil)
}

func (h *NotificationHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorID(w, r)
	if !ok {
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	notifications, err := h.notificationService.ListAll(r.Context(), actor, limit)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"items": notifications, "count": len(notifications)}, nil)
}

func (h *NotificationHandler) Dismiss(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorID(w, r)
	if !ok {
		return
	}
	notificationID, ok := uuidParam(w, r, "notificationID")
	if !ok {
		return
	}

	if err := h.notificationService.Dismiss(r.Context(), notificationID, actor); err != nil {
		serverErrorResponse(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"message": "notification dismissed"}, nil)
}

func (h *NotificationHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorID(w, r)
	if !ok {
		return
	}
	notificationID, ok := uuidParam(w, r, "notificationID")
	if !ok {
		return
	}

	if err := h.notificationService.Deactivate(r.Context(), notificationID, actor); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"message": "notification deactivated"}, nil)
}
