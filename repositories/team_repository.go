package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fantaleague/league-system/models"
	"github.com/lib/pq"
)

var (
	ErrTeamNotFound      = errors.New("team not found")
	ErrTeamNameConflict  = errors.New("team name is already in use")
	ErrTeamLeagueInvalid = errors.New("team league conflict or invalid")
)

// TeamRepository определяет интерфейс для работы с командами.
type TeamRepository interface {
	Create(ctx context.Context, team *models.Team) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Team, error)

	// GetByIDForUpdate читает команду с блокировкой строки (SELECT ... FOR UPDATE).
	// Должен вызываться только внутри транзакции.
	GetByIDForUpdate(ctx context.Context, exec SQLExecutor, id int) (*models.Team, error)

	ListByLeague(ctx context.Context, leagueID int) ([]*models.Team, error)

	// UpdateCashBalance перезаписывает баланс команды. Вызывается только
	// из расчёта предложений и админских операций.
	UpdateCashBalance(ctx context.Context, exec SQLExecutor, teamID int, balance int64) error

	UpdateOwner(ctx context.Context, exec SQLExecutor, teamID int, ownerUserID *int) error
	UpdateCrestKey(ctx context.Context, teamID int, crestKey *string) error
}

type postgresTeamRepository struct {
	db *sql.DB
}

func NewPostgresTeamRepository(db *sql.DB) TeamRepository {
	return &postgresTeamRepository{db: db}
}

func (r *postgresTeamRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const teamColumns = `id, league_id, name, owner_user_id, cash_balance, max_players, crest_key, created_at`

func (r *postgresTeamRepository) Create(ctx context.Context, team *models.Team) error {
	query := `
		INSERT INTO teams (league_id, name, owner_user_id, cash_balance, max_players)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		team.LeagueID,
		team.Name,
		team.OwnerUserID,
		team.CashBalance,
		team.MaxPlayers,
	).Scan(&team.ID, &team.CreatedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Code {
			case "23505": // unique_violation
				if pqErr.Constraint == "teams_league_id_name_key" {
					return ErrTeamNameConflict
				}
			case "23503": // foreign_key_violation
				return ErrTeamLeagueInvalid
			}
		}
		return fmt.Errorf("failed to create team: %w", err)
	}
	return nil
}

func (r *postgresTeamRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Team, error) {
	query := `SELECT ` + teamColumns + ` FROM teams WHERE id = $1`
	return r.scanTeam(r.getExecutor(exec).QueryRowContext(ctx, query, id))
}

func (r *postgresTeamRepository) GetByIDForUpdate(ctx context.Context, exec SQLExecutor, id int) (*models.Team, error) {
	query := `SELECT ` + teamColumns + ` FROM teams WHERE id = $1 FOR UPDATE`
	return r.scanTeam(r.getExecutor(exec).QueryRowContext(ctx, query, id))
}

func (r *postgresTeamRepository) scanTeam(row *sql.Row) (*models.Team, error) {
	team := &models.Team{}
	err := row.Scan(
		&team.ID,
		&team.LeagueID,
		&team.Name,
		&team.OwnerUserID,
		&team.CashBalance,
		&team.MaxPlayers,
		&team.CrestKey,
		&team.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to scan team: %w", err)
	}
	return team, nil
}

func (r *postgresTeamRepository) ListByLeague(ctx context.Context, leagueID int) ([]*models.Team, error) {
	query := `SELECT ` + teamColumns + ` FROM teams WHERE league_id = $1 ORDER BY name`

	rows, err := r.db.QueryContext(ctx, query, leagueID)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams for league %d: %w", leagueID, err)
	}
	defer rows.Close()

	teams := make([]*models.Team, 0)
	for rows.Next() {
		team := &models.Team{}
		if scanErr := rows.Scan(
			&team.ID,
			&team.LeagueID,
			&team.Name,
			&team.OwnerUserID,
			&team.CashBalance,
			&team.MaxPlayers,
			&team.CrestKey,
			&team.CreatedAt,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan team row: %w", scanErr)
		}
		teams = append(teams, team)
	}

	return teams, rows.Err()
}

func (r *postgresTeamRepository) UpdateCashBalance(ctx context.Context, exec SQLExecutor, teamID int, balance int64) error {
	query := `UPDATE teams SET cash_balance = $1 WHERE id = $2`
	result, err := r.getExecutor(exec).ExecContext(ctx, query, balance, teamID)
	if err != nil {
		return fmt.Errorf("failed to update cash balance of team %d: %w", teamID, err)
	}
	return checkAffectedRows(result, ErrTeamNotFound)
}

func (r *postgresTeamRepository) UpdateOwner(ctx context.Context, exec SQLExecutor, teamID int, ownerUserID *int) error {
	query := `UPDATE teams SET owner_user_id = $1 WHERE id = $2`
	result, err := r.getExecutor(exec).ExecContext(ctx, query, ownerUserID, teamID)
	if err != nil {
		return fmt.Errorf("failed to update owner of team %d: %w", teamID, err)
	}
	return checkAffectedRows(result, ErrTeamNotFound)
}

func (r *postgresTeamRepository) UpdateCrestKey(ctx context.Context, teamID int, crestKey *string) error {
	query := `UPDATE teams SET crest_key = $1 WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, crestKey, teamID)
	if err != nil {
		return fmt.Errorf("failed to update crest key of team %d: %w", teamID, err)
	}
	return checkAffectedRows(result, ErrTeamNotFound)
}
