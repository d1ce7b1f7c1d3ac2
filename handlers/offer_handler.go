package handlers

import (
	"errors"
	"net/http"

	"github.com/fantaleague/league-system/middleware"
	"github.com/fantaleague/league-system/services"
)

type OfferHandler struct {
	offerService services.OfferService
}

func NewOfferHandler(offerService services.OfferService) *OfferHandler {
	return &OfferHandler{offerService: offerService}
}

// CreateOffer обрабатывает POST /offers.
func (h *OfferHandler) CreateOffer(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	var input services.CreateOfferInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	result, err := h.offerService.CreateOffer(r.Context(), input, userID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"offer": result.Offer}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// RespondToOffer обрабатывает POST /offers/{offerID}/respond.
// Тело: {"decision": "accept"} или {"decision": "reject"}.
func (h *OfferHandler) RespondToOffer(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	offerID, err := getIDFromURL(r, "offerID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input struct {
		Decision services.OfferDecision `json:"decision"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.Decision == "" {
		badRequestResponse(w, r, errors.New("decision is required"))
		return
	}

	result, err := h.offerService.RespondToOffer(r.Context(), offerID, input.Decision, userID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"offer": result.Offer}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// CancelOffer обрабатывает POST /offers/{offerID}/cancel.
func (h *OfferHandler) CancelOffer(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	offerID, err := getIDFromURL(r, "offerID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	result, err := h.offerService.CancelOffer(r.Context(), offerID, userID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"offer": result.Offer}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetOffer обрабатывает GET /offers/{offerID}.
func (h *OfferHandler) GetOffer(w http.ResponseWriter, r *http.Request) {
	offerID, err := getIDFromURL(r, "offerID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	offer, err := h.offerService.GetOfferDetails(r.Context(), offerID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"offer": offer}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListTeamOffers обрабатывает GET /teams/{teamID}/offers -
// все предложения, где команда отправитель или получатель.
func (h *OfferHandler) ListTeamOffers(w http.ResponseWriter, r *http.Request) {
	teamID, err := getIDFromURL(r, "teamID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	offers, err := h.offerService.ListTeamOffers(r.Context(), teamID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"offers": offers}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
