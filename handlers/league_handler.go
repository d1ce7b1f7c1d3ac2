package handlers

import (
	"net/http"

	"github.com/fantaleague/league-system/services"
)

type LeagueHandler struct {
	leagueService services.LeagueService
	teamService   services.TeamService
}

func NewLeagueHandler(leagueService services.LeagueService, teamService services.TeamService) *LeagueHandler {
	return &LeagueHandler{
		leagueService: leagueService,
		teamService:   teamService,
	}
}

// GetLeague обрабатывает GET /leagues/{leagueID}.
func (h *LeagueHandler) GetLeague(w http.ResponseWriter, r *http.Request) {
	leagueID, err := getIDFromURL(r, "leagueID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	league, err := h.leagueService.GetLeague(r.Context(), leagueID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"league": league}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetLeagueConfig обрабатывает GET /leagues/{leagueID}/config -
// режим лиги, лимиты ролей и флаги Rosa A/B и кантеры.
func (h *LeagueHandler) GetLeagueConfig(w http.ResponseWriter, r *http.Request) {
	leagueID, err := getIDFromURL(r, "leagueID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	config, err := h.leagueService.GetLeagueConfig(r.Context(), leagueID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"config": config}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListLeagueTeams обрабатывает GET /leagues/{leagueID}/teams.
func (h *LeagueHandler) ListLeagueTeams(w http.ResponseWriter, r *http.Request) {
	leagueID, err := getIDFromURL(r, "leagueID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	teams, err := h.teamService.ListLeagueTeams(r.Context(), leagueID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"teams": teams}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
