package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/fantaleague/league-system/models"
	"github.com/lib/pq"
)

var (
	ErrOfferNotFound      = errors.New("offer not found")
	ErrOfferStateConflict = errors.New("offer is not pending anymore")
	ErrOfferInvalidRef    = errors.New("offer references unknown team or player")
)

// OfferRepository определяет интерфейс для работы с предложениями.
type OfferRepository interface {
	Create(ctx context.Context, offer *models.Offer) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Offer, error)

	// GetByIDForUpdate читает предложение с блокировкой строки.
	// Первая блокировка accept-пайплайна, берётся до блокировок команд и игроков.
	GetByIDForUpdate(ctx context.Context, exec SQLExecutor, id int) (*models.Offer, error)

	// ListByTeam возвращает входящие и исходящие предложения команды.
	ListByTeam(ctx context.Context, teamID int) ([]*models.Offer, error)

	// ResolveIfPending переводит предложение из pending в терминальное состояние
	// условным UPDATE. Если строка уже не pending, возвращает ErrOfferStateConflict -
	// так из двух конкурентных ответов выигрывает ровно один.
	ResolveIfPending(ctx context.Context, exec SQLExecutor, id int, state models.OfferState, resolvedAt time.Time) error
}

type postgresOfferRepository struct {
	db *sql.DB
}

func NewPostgresOfferRepository(db *sql.DB) OfferRepository {
	return &postgresOfferRepository{db: db}
}

func (r *postgresOfferRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const offerColumns = `id, league_id, sender_team_id, recipient_team_id, target_player_id,
	counter_player_id, kind, cash_offered, cash_requested, state, created_at, resolved_at`

func (r *postgresOfferRepository) Create(ctx context.Context, offer *models.Offer) error {
	query := `
		INSERT INTO offers (league_id, sender_team_id, recipient_team_id, target_player_id,
		                    counter_player_id, kind, cash_offered, cash_requested, state)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		offer.LeagueID,
		offer.SenderTeamID,
		offer.RecipientTeamID,
		offer.TargetPlayerID,
		offer.CounterPlayerID,
		offer.Kind,
		offer.CashOffered,
		offer.CashRequested,
		offer.State,
	).Scan(&offer.ID, &offer.CreatedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23503" { // foreign_key_violation
			return ErrOfferInvalidRef
		}
		return fmt.Errorf("failed to create offer: %w", err)
	}
	return nil
}

func scanOffer(row rowScanner) (*models.Offer, error) {
	offer := &models.Offer{}
	err := row.Scan(
		&offer.ID,
		&offer.LeagueID,
		&offer.SenderTeamID,
		&offer.RecipientTeamID,
		&offer.TargetPlayerID,
		&offer.CounterPlayerID,
		&offer.Kind,
		&offer.CashOffered,
		&offer.CashRequested,
		&offer.State,
		&offer.CreatedAt,
		&offer.ResolvedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOfferNotFound
		}
		return nil, fmt.Errorf("failed to scan offer: %w", err)
	}
	return offer, nil
}

func (r *postgresOfferRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Offer, error) {
	query := `SELECT ` + offerColumns + ` FROM offers WHERE id = $1`
	return scanOffer(r.getExecutor(exec).QueryRowContext(ctx, query, id))
}

func (r *postgresOfferRepository) GetByIDForUpdate(ctx context.Context, exec SQLExecutor, id int) (*models.Offer, error) {
	query := `SELECT ` + offerColumns + ` FROM offers WHERE id = $1 FOR UPDATE`
	return scanOffer(r.getExecutor(exec).QueryRowContext(ctx, query, id))
}

func (r *postgresOfferRepository) ListByTeam(ctx context.Context, teamID int) ([]*models.Offer, error) {
	query := `
		SELECT ` + offerColumns + `
		FROM offers
		WHERE sender_team_id = $1 OR recipient_team_id = $1
		ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to list offers for team %d: %w", teamID, err)
	}
	defer rows.Close()

	offers := make([]*models.Offer, 0)
	for rows.Next() {
		offer, scanErr := scanOffer(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		offers = append(offers, offer)
	}
	return offers, rows.Err()
}

func (r *postgresOfferRepository) ResolveIfPending(ctx context.Context, exec SQLExecutor, id int, state models.OfferState, resolvedAt time.Time) error {
	query := `
		UPDATE offers
		SET state = $1, resolved_at = $2
		WHERE id = $3 AND state = $4`

	result, err := r.getExecutor(exec).ExecContext(ctx, query, state, resolvedAt, id, models.OfferStatePending)
	if err != nil {
		return fmt.Errorf("failed to resolve offer %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrOfferStateConflict)
}
