package handlers

import (
	"errors"
	"net/http"

	"github.com/fantaleague/league-system/middleware"
	"github.com/fantaleague/league-system/models"
	"github.com/fantaleague/league-system/services"
)

type RosterHandler struct {
	rosterService services.RosterService
}

func NewRosterHandler(rosterService services.RosterService) *RosterHandler {
	return &RosterHandler{rosterService: rosterService}
}

// ReturnFromLoan обрабатывает POST /players/{playerID}/return-from-loan.
func (h *RosterHandler) ReturnFromLoan(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	playerID, err := getIDFromURL(r, "playerID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	result, err := h.rosterService.ReturnFromLoan(r.Context(), playerID, userID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"player": result.Player}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// MovePlayerRoster обрабатывает PATCH /players/{playerID}/roster.
// Тело: {"slot": "A"} или {"slot": "B"}. Только для админов лиги.
func (h *RosterHandler) MovePlayerRoster(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	playerID, err := getIDFromURL(r, "playerID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input struct {
		Slot models.RosterSlot `json:"slot"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.Slot != models.RosterSlotA && input.Slot != models.RosterSlotB {
		badRequestResponse(w, r, errors.New("slot must be A or B"))
		return
	}

	result, err := h.rosterService.MovePlayerRoster(r.Context(), playerID, input.Slot, userID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"player": result.Player}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
