package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/fantaleague/league-system/models"
	"github.com/lib/pq"
)

var (
	ErrInviteNotFound      = errors.New("invite not found")
	ErrInviteTokenConflict = errors.New("invite token conflict")
	ErrInviteLeagueInvalid = errors.New("invite league conflict or invalid")
)

// InviteRepository определяет интерфейс для работы с приглашениями в лигу.
type InviteRepository interface {
	// Create создает новое приглашение в базе данных.
	// Заполняет поля ID, CreatedAt у переданного объекта invite.
	Create(ctx context.Context, invite *models.Invite) error

	// GetByID ищет приглашение по ID.
	GetByID(ctx context.Context, id int) (*models.Invite, error)

	// GetByToken ищет приглашение по его уникальному токену.
	GetByToken(ctx context.Context, token string) (*models.Invite, error)

	// ListByLeagueID возвращает действующие приглашения лиги.
	ListByLeagueID(ctx context.Context, leagueID int) ([]*models.Invite, error)

	// Delete удаляет приглашение по его ID.
	Delete(ctx context.Context, id int) error

	// DeleteExpired удаляет все приглашения с истёкшим сроком действия.
	DeleteExpired(ctx context.Context) (int64, error)
}

type postgresInviteRepository struct {
	db *sql.DB
}

func NewPostgresInviteRepository(db *sql.DB) InviteRepository {
	return &postgresInviteRepository{db: db}
}

func (r *postgresInviteRepository) Create(ctx context.Context, invite *models.Invite) error {
	// ExpiresAt устанавливается в сервисном слое перед вызовом Create.
	query := `
		INSERT INTO invites (league_id, team_id, token, expires_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		invite.LeagueID,
		invite.TeamID,
		invite.Token,
		invite.ExpiresAt,
	).Scan(&invite.ID, &invite.CreatedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Code {
			case "23505": // unique_violation
				if pqErr.Constraint == "invites_token_key" {
					return ErrInviteTokenConflict
				}
			case "23503": // foreign_key_violation
				return ErrInviteLeagueInvalid
			}
		}
		return err
	}
	return nil
}

func (r *postgresInviteRepository) GetByID(ctx context.Context, id int) (*models.Invite, error) {
	query := `
		SELECT id, league_id, team_id, token, expires_at, created_at
		FROM invites
		WHERE id = $1`

	invite := &models.Invite{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&invite.ID,
		&invite.LeagueID,
		&invite.TeamID,
		&invite.Token,
		&invite.ExpiresAt,
		&invite.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInviteNotFound
		}
		return nil, err
	}
	return invite, nil
}

func (r *postgresInviteRepository) GetByToken(ctx context.Context, token string) (*models.Invite, error) {
	query := `
		SELECT id, league_id, team_id, token, expires_at, created_at
		FROM invites
		WHERE token = $1`

	invite := &models.Invite{}
	err := r.db.QueryRowContext(ctx, query, token).Scan(
		&invite.ID,
		&invite.LeagueID,
		&invite.TeamID,
		&invite.Token,
		&invite.ExpiresAt,
		&invite.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInviteNotFound
		}
		return nil, err
	}

	// Проверка срока действия остаётся в сервисном слое.
	return invite, nil
}

func (r *postgresInviteRepository) ListByLeagueID(ctx context.Context, leagueID int) ([]*models.Invite, error) {
	query := `
		SELECT id, league_id, team_id, token, expires_at, created_at
		FROM invites
		WHERE league_id = $1
		ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, leagueID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	invites := make([]*models.Invite, 0)
	for rows.Next() {
		var invite models.Invite
		if scanErr := rows.Scan(
			&invite.ID,
			&invite.LeagueID,
			&invite.TeamID,
			&invite.Token,
			&invite.ExpiresAt,
			&invite.CreatedAt,
		); scanErr != nil {
			return nil, scanErr
		}
		invites = append(invites, &invite)
	}
	return invites, rows.Err()
}

func (r *postgresInviteRepository) Delete(ctx context.Context, id int) error {
	query := `DELETE FROM invites WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrInviteNotFound)
}

func (r *postgresInviteRepository) DeleteExpired(ctx context.Context) (int64, error) {
	query := `DELETE FROM invites WHERE expires_at <= NOW()`
	result, err := r.db.ExecContext(ctx, query)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
