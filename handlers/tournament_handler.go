package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/futbolmvp/booking-system/models"
	"github.com/futbolmvp/booking-system/repositories"
	"github.com/futbolmvp/booking-system/services"
)

// TournamentHandler is the admin tournament surface: config, teams, fixture
// generation and live match control.
type TournamentHandler struct {
	tournamentService *services.TournamentService
	matchService      *services.MatchService
}

func NewTournamentHandler(tournamentService *services.TournamentService, matchService *services.MatchService) *TournamentHandler {
	return &TournamentHandler{tournamentService: tournamentService, matchService: matchService}
}

func (h *TournamentHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorID(w, r)
	if !ok {
		return
	}

	var input services.CreateTournamentInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	tournament, err := h.tournamentService.CreateTournament(r.Context(), actor, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, jsonResponse{
		"tournament": tournament,
		"public_url": "/tournaments/live?token=" + tournament.PublicToken,
	}, nil)
}

func (h *TournamentHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorID(w, r)
	if !ok {
		return
	}

	filter := repositories.ListTournamentsFilter{}
	if raw := r.URL.Query().Get("status"); raw != "" {
		status := models.TournamentStatus(raw)
		filter.Status = &status
	}
	filter.IncludeArchived = r.URL.Query().Get("include_archived") == "true"
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if limit, err := strconv.Atoi(raw); err == nil && limit > 0 {
			filter.Limit = limit
		}
	}

	tournaments, err := h.tournamentService.ListTournaments(r.Context(), actor, filter)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"items": tournaments, "count": len(tournaments)}, nil)
}

func (h *TournamentHandler) Detail(w http.ResponseWriter, r *http.Request) {
	tournamentID, ok := uuidParam(w, r, "tournamentID")
	if !ok {
		return
	}
	detail, err := h.tournamentService.GetDetail(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, detail, nil)
}

func (h *TournamentHandler) UpdateConfig(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorID(w, r)
	if !ok {
		return
	}
	tournamentID, ok := uuidParam(w, r, "tournamentID")
	if !ok {
		return
	}

	var input struct {
		Title           *string                  `json:"title,omitempty"`
		LocationName    *string                  `json:"location_name,omitempty"`
		StartsAt        *time.Time               `json:"starts_at,omitempty"`
		Format          *models.TournamentFormat `json:"format,omitempty"`
		TeamsCount      *int                     `json:"teams_count,omitempty"`
		MinutesPerMatch *int                     `json:"minutes_per_match,omitempty"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	patch := repositories.TournamentPatch{
		Title:           input.Title,
		LocationName:    input.LocationName,
		StartsAt:        input.StartsAt,
		Format:          input.Format,
		TeamsCount:      input.TeamsCount,
		MinutesPerMatch: input.MinutesPerMatch,
	}
	tournament, err := h.tournamentService.UpdateConfig(r.Context(), tournamentID, actor, patch)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tournament, nil)
}

func (h *TournamentHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorID(w, r)
	if !ok {
		return
	}
	tournamentID, ok := uuidParam(w, r, "tournamentID")
	if !ok {
		return
	}

	var input struct {
		Status models.TournamentStatus `json:"status"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	tournament, err := h.tournamentService.UpdateStatus(r.Context(), tournamentID, actor, input.Status)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tournament, nil)
}

func (h *TournamentHandler) CreateTeam(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorID(w, r)
	if !ok {
		return
	}
	tournamentID, ok := uuidParam(w, r, "tournamentID")
	if !ok {
		return
	}

	var input services.CreateTeamInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	team, err := h.tournamentService.CreateTeam(r.Context(), tournamentID, actor, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, team, nil)
}

func (h *TournamentHandler) ListTeams(w http.ResponseWriter, r *http.Request) {
	tournamentID, ok := uuidParam(w, r, "tournamentID")
	if !ok {
		return
	}
	teams, err := h.tournamentService.ListTeams(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"items": teams, "count": len(teams)}, nil)
}

func (h *TournamentHandler) DeleteTeam(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorID(w, r)
	if !ok {
		return
	}
	tournamentID, ok := uuidParam(w, r, "tournamentID")
	if !ok {
		return
	}
	teamID, ok := uuidParam(w, r, "teamID")
	if !ok {
		return
	}

	if err := h.tournamentService.DeleteTeam(r.Context(), tournamentID, teamID, actor); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"message": "team deleted"}, nil)
}

func (h *TournamentHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorID(w, r)
	if !ok {
		return
	}
	tournamentID, ok := uuidParam(w, r, "tournamentID")
	if !ok {
		return
	}
	teamID, ok := uuidParam(w, r, "teamID")
	if !ok {
		return
	}

	var input services.AddMemberInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	member, err := h.tournamentService.AddMember(r.Context(), tournamentID, teamID, actor, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, member, nil)
}

func (h *TournamentHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorID(w, r)
	if !ok {
		return
	}
	tournamentID, ok := uuidParam(w, r, "tournamentID")
	if !ok {
		return
	}
	teamID, ok := uuidParam(w, r, "teamID")
	if !ok {
		return
	}
	memberID, ok := uuidParam(w, r, "memberID")
	if !ok {
		return
	}

	if err := h.tournamentService.RemoveMember(r.Context(), tournamentID, teamID, memberID, actor); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"message": "member removed"}, nil)
}

func (h *TournamentHandler) GenerateFixture(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorID(w, r)
	if !ok {
		return
	}
	tournamentID, ok := uuidParam(w, r, "tournamentID")
	if !ok {
		return
	}

	matches, err := h.tournamentService.GenerateFixture(r.Context(), tournamentID, actor)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, jsonResponse{"items": matches, "count": len(matches)}, nil)
}

func (h *TournamentHandler) StartMatch(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorID(w, r)
	if !ok {
		return
	}
	tournamentID, ok := uuidParam(w, r, "tournamentID")
	if !ok {
		return
	}
	matchID, ok := uuidParam(w, r, "matchID")
	if !ok {
		return
	}

	match, err := h.matchService.StartMatch(r.Context(), tournamentID, matchID, actor)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, match, nil)
}

func (h *TournamentHandler) PatchScore(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorID(w, r)
	if !ok {
		return
	}
	tournamentID, ok := uuidParam(w, r, "tournamentID")
	if !ok {
		return
	}
	matchID, ok := uuidParam(w, r, "matchID")
	if !ok {
		return
	}

	var input struct {
		HomeGoals int `json:"home_goals"`
		AwayGoals int `json:"away_goals"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.matchService.PatchScore(r.Context(), tournamentID, matchID, actor, input.HomeGoals, input.AwayGoals)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, match, nil)
}

func (h *TournamentHandler) FinishMatch(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorID(w, r)
	if !ok {
		return
	}
	tournamentID, ok := uuidParam(w, r, "tournamentID")
	if !ok {
		return
	}
	matchID, ok := uuidParam(w, r, "matchID")
	if !ok {
		return
	}

	match, err := h.matchService.FinishMatch(r.Context(), tournamentID, matchID, actor)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, match, nil)
}

func (h *TournamentHandler) Standings(w http.ResponseWriter, r *http.Request) {
	tournamentID, ok := uuidParam(w, r, "tournamentID")
	if !ok {
		return
	}
	standings, err := h.matchService.Standings(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"items": standings, "count": len(standings)}, nil)
}
