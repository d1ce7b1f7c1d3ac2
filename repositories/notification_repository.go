package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/fantaleague/league-system/models"
)

var ErrNotificationNotFound = errors.New("notification not found")

// NotificationRepository хранит события движка перемещений.
// Вставка идемпотентна по (offer_id, kind, recipient_user_id): повторная
// запись того же события не создаёт дубликата - доставка at-least-once.
type NotificationRepository interface {
	Create(ctx context.Context, exec SQLExecutor, event *models.NotificationEvent) error
	ListByRecipient(ctx context.Context, userID int, limit int) ([]*models.NotificationEvent, error)
}

type postgresNotificationRepository struct {
	db *sql.DB
}

func NewPostgresNotificationRepository(db *sql.DB) NotificationRepository {
	return &postgresNotificationRepository{db: db}
}

func (r *postgresNotificationRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresNotificationRepository) Create(ctx context.Context, exec SQLExecutor, event *models.NotificationEvent) error {
	payload, err := json.Marshal(event.Payload)
	if err != nil {
		return fmt.Errorf("failed to marshal notification payload: %w", err)
	}

	query := `
		INSERT INTO notifications (league_id, offer_id, player_id, recipient_user_id, kind, payload)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (offer_id, kind, recipient_user_id) DO NOTHING
		RETURNING id, created_at`

	err = r.getExecutor(exec).QueryRowContext(ctx, query,
		event.LeagueID,
		event.OfferID,
		event.PlayerID,
		event.RecipientUserID,
		event.Kind,
		payload,
	).Scan(&event.ID, &event.CreatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		// Событие уже записано ранее, это не ошибка.
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

func (r *postgresNotificationRepository) ListByRecipient(ctx context.Context, userID int, limit int) ([]*models.NotificationEvent, error) {
	query := `
		SELECT id, league_id, offer_id, player_id, recipient_user_id, kind, payload, created_at
		FROM notifications
		WHERE recipient_user_id = $1
		ORDER BY created_at DESC
		LIMIT $2`

	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications for user %d: %w", userID, err)
	}
	defer rows.Close()

	events := make([]*models.NotificationEvent, 0)
	for rows.Next() {
		event := &models.NotificationEvent{}
		var payload []byte
		if scanErr := rows.Scan(
			&event.ID,
			&event.LeagueID,
			&event.OfferID,
			&event.PlayerID,
			&event.RecipientUserID,
			&event.Kind,
			&payload,
			&event.CreatedAt,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", scanErr)
		}
		if len(payload) > 0 {
			if unmarshalErr := json.Unmarshal(payload, &event.Payload); unmarshalErr != nil {
				return nil, fmt.Errorf("failed to unmarshal notification payload: %w", unmarshalErr)
			}
		}
		events = append(events, event)
	}
	return events, rows.Err()
}
