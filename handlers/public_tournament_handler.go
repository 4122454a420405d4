package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/futbolmvp/booking-system/fixtures"
	"github.com/futbolmvp/booking-system/services"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// PublicTournamentHandler serves the tokenized read-only live page and its
// websocket feed. The token acts as the capability, no auth required.
type PublicTournamentHandler struct {
	matchService *services.MatchService
	hub          *fixtures.Hub
	logger       *slog.Logger
}

func NewPublicTournamentHandler(matchService *services.MatchService, hub *fixtures.Hub, logger *slog.Logger) *PublicTournamentHandler {
	return &PublicTournamentHandler{matchService: matchService, hub: hub, logger: logger}
}

func (h *PublicTournamentHandler) Live(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	view, err := h.matchService.PublicLive(r.Context(), token)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view, nil)
}

// ServeWs upgrades the connection and subscribes it to the tournament room
// keyed by the public token. The token is validated before upgrading.
func (h *PublicTournamentHandler) ServeWs(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if _, err := h.matchService.PublicLive(r.Context(), token); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	client := &fixtures.Client{
		Hub:  h.hub,
		Conn: conn,
		Send: make(chan []byte, 256),
		Room: token,
	}
	h.hub.Register <- client

	go client.WritePump()
	go client.ReadPump()
}
