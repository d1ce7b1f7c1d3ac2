package handlers

import (
	"net/http"
	"strconv"

	"github.com/fantaleague/league-system/middleware"
	"github.com/fantaleague/league-system/services"
)

type NotificationHandler struct {
	notificationService services.NotificationService
}

func NewNotificationHandler(notificationService services.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

// ListMyNotifications обрабатывает GET /notifications?limit=50.
func (h *NotificationHandler) ListMyNotifications(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	limit := 0
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		limit, _ = strconv.Atoi(limitStr)
	}

	events, err := h.notificationService.ListUserNotifications(r.Context(), userID, limit)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"notifications": events}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
