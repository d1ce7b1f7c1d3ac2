package services

import (
	"context"
	"fmt"

	"github.com/fantaleague/league-system/models"
	"github.com/fantaleague/league-system/repositories"
)

const defaultNotificationLimit = 50

type NotificationService interface {
	// ListUserNotifications возвращает последние события пользователя,
	// сохранённые движком перемещений.
	ListUserNotifications(ctx context.Context, userID int, limit int) ([]*models.NotificationEvent, error)
}

type notificationService struct {
	notificationRepo repositories.NotificationRepository
}

func NewNotificationService(notificationRepo repositories.NotificationRepository) NotificationService {
	return &notificationService{notificationRepo: notificationRepo}
}

func (s *notificationService) ListUserNotifications(ctx context.Context, userID int, limit int) ([]*models.NotificationEvent, error) {
	if limit <= 0 || limit > 200 {
		limit = defaultNotificationLimit
	}

	events, err := s.notificationRepo.ListByRecipient(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list notifications for user %d: %w", userID, err)
	}
	return events, nil
}
