package handlers

import (
	"errors"
	"net/http"

	"github.com/fantaleague/league-system/middleware"
	"github.com/fantaleague/league-system/services"
)

type InviteHandler struct {
	inviteService services.InviteService
}

func NewInviteHandler(inviteService services.InviteService) *InviteHandler {
	return &InviteHandler{inviteService: inviteService}
}

// CreateInvite обрабатывает POST /leagues/{leagueID}/invites.
// Тело: {"team_id": 5} - опционально; без него приглашение на любую
// свободную команду.
func (h *InviteHandler) CreateInvite(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	leagueID, err := getIDFromURL(r, "leagueID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input struct {
		TeamID *int `json:"team_id,omitempty"`
	}
	if r.ContentLength > 0 {
		if err := readJSON(w, r, &input); err != nil {
			badRequestResponse(w, r, err)
			return
		}
	}

	invite, err := h.inviteService.CreateInvite(r.Context(), leagueID, input.TeamID, userID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"invite": invite}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetInviteByToken обрабатывает GET /invites/{token} - публичный просмотр
// приглашения перед принятием.
func (h *InviteHandler) GetInviteByToken(w http.ResponseWriter, r *http.Request) {
	token := getTokenFromURL(r)
	if token == "" {
		badRequestResponse(w, r, errors.New("invite token is required"))
		return
	}

	invite, err := h.inviteService.GetInviteByToken(r.Context(), token)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"invite": invite}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// AcceptInvite обрабатывает POST /invites/{token}/accept.
func (h *InviteHandler) AcceptInvite(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	token := getTokenFromURL(r)
	if token == "" {
		badRequestResponse(w, r, errors.New("invite token is required"))
		return
	}

	team, err := h.inviteService.AcceptInvite(r.Context(), token, userID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"team": team}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// DeleteInvite обрабатывает DELETE /invites/{inviteID}.
func (h *InviteHandler) DeleteInvite(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	inviteID, err := getIDFromURL(r, "inviteID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.inviteService.DeleteInvite(r.Context(), inviteID, userID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListLeagueInvites обрабатывает GET /leagues/{leagueID}/invites.
func (h *InviteHandler) ListLeagueInvites(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	leagueID, err := getIDFromURL(r, "leagueID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	invites, err := h.inviteService.ListLeagueInvites(r.Context(), leagueID, userID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"invites": invites}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
