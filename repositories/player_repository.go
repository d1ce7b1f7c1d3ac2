package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fantaleague/league-system/models"
)

var ErrPlayerNotFound = errors.New("player not found")

// PlayerRepository определяет интерфейс для работы с игроками.
type PlayerRepository interface {
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Player, error)

	// GetByIDForUpdate читает игрока с блокировкой строки (SELECT ... FOR UPDATE).
	// Должен вызываться только внутри транзакции.
	GetByIDForUpdate(ctx context.Context, exec SQLExecutor, id int) (*models.Player, error)

	// ListByFieldingTeam возвращает игроков, выступающих за команду сейчас:
	// собственных не в аренде плюс взятых в аренду.
	ListByFieldingTeam(ctx context.Context, exec SQLExecutor, teamID int) ([]*models.Player, error)

	// CountRosterA возвращает занятость Rosa A команды.
	CountRosterA(ctx context.Context, exec SQLExecutor, teamID int) (int, error)

	UpdateOwnership(ctx context.Context, exec SQLExecutor, playerID, owningTeamID int) error
	SetLoan(ctx context.Context, exec SQLExecutor, playerID, loanTeamID int) error
	ClearLoan(ctx context.Context, exec SQLExecutor, playerID int) error
	UpdateRosterSlot(ctx context.Context, exec SQLExecutor, playerID int, slot models.RosterSlot, requiresAction bool) error
}

type postgresPlayerRepository struct {
	db *sql.DB
}

func NewPostgresPlayerRepository(db *sql.DB) PlayerRepository {
	return &postgresPlayerRepository{db: db}
}

func (r *postgresPlayerRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const playerColumns = `id, league_id, name, roles, owning_team_id, loan_team_id, on_loan,
	roster_slot, requires_action, salary, market_value, cantera, created_at`

type rowScanner interface{ Scan(...interface{}) error }

func scanPlayer(row rowScanner) (*models.Player, error) {
	player := &models.Player{}
	err := row.Scan(
		&player.ID,
		&player.LeagueID,
		&player.Name,
		&player.RolesRaw,
		&player.OwningTeamID,
		&player.LoanTeamID,
		&player.OnLoan,
		&player.RosterSlot,
		&player.RequiresAction,
		&player.Salary,
		&player.MarketValue,
		&player.Cantera,
		&player.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPlayerNotFound
		}
		return nil, fmt.Errorf("failed to scan player: %w", err)
	}

	// Роли разбираем на границе хранилища, дальше только типизированный набор.
	player.Roles, err = models.ParseRoleSet(player.RolesRaw)
	if err != nil {
		return nil, fmt.Errorf("player %d has invalid role list: %w", player.ID, err)
	}
	return player, nil
}

func (r *postgresPlayerRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Player, error) {
	query := `SELECT ` + playerColumns + ` FROM players WHERE id = $1`
	return scanPlayer(r.getExecutor(exec).QueryRowContext(ctx, query, id))
}

func (r *postgresPlayerRepository) GetByIDForUpdate(ctx context.Context, exec SQLExecutor, id int) (*models.Player, error) {
	query := `SELECT ` + playerColumns + ` FROM players WHERE id = $1 FOR UPDATE`
	return scanPlayer(r.getExecutor(exec).QueryRowContext(ctx, query, id))
}

func (r *postgresPlayerRepository) ListByFieldingTeam(ctx context.Context, exec SQLExecutor, teamID int) ([]*models.Player, error) {
	query := `
		SELECT ` + playerColumns + `
		FROM players
		WHERE (owning_team_id = $1 AND NOT on_loan) OR loan_team_id = $1
		ORDER BY id`

	rows, err := r.getExecutor(exec).QueryContext(ctx, query, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to list players fielding for team %d: %w", teamID, err)
	}
	defer rows.Close()

	players := make([]*models.Player, 0)
	for rows.Next() {
		player, scanErr := scanPlayer(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		players = append(players, player)
	}
	return players, rows.Err()
}

func (r *postgresPlayerRepository) CountRosterA(ctx context.Context, exec SQLExecutor, teamID int) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM players
		WHERE ((owning_team_id = $1 AND NOT on_loan) OR loan_team_id = $1)
		  AND roster_slot = $2`

	var count int
	err := r.getExecutor(exec).QueryRowContext(ctx, query, teamID, models.RosterSlotA).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count roster A of team %d: %w", teamID, err)
	}
	return count, nil
}

func (r *postgresPlayerRepository) UpdateOwnership(ctx context.Context, exec SQLExecutor, playerID, owningTeamID int) error {
	query := `UPDATE players SET owning_team_id = $1 WHERE id = $2`
	result, err := r.getExecutor(exec).ExecContext(ctx, query, owningTeamID, playerID)
	if err != nil {
		return fmt.Errorf("failed to update ownership of player %d: %w", playerID, err)
	}
	return checkAffectedRows(result, ErrPlayerNotFound)
}

func (r *postgresPlayerRepository) SetLoan(ctx context.Context, exec SQLExecutor, playerID, loanTeamID int) error {
	query := `UPDATE players SET on_loan = TRUE, loan_team_id = $1 WHERE id = $2`
	result, err := r.getExecutor(exec).ExecContext(ctx, query, loanTeamID, playerID)
	if err != nil {
		return fmt.Errorf("failed to set loan of player %d: %w", playerID, err)
	}
	return checkAffectedRows(result, ErrPlayerNotFound)
}

func (r *postgresPlayerRepository) ClearLoan(ctx context.Context, exec SQLExecutor, playerID int) error {
	query := `UPDATE players SET on_loan = FALSE, loan_team_id = NULL WHERE id = $1`
	result, err := r.getExecutor(exec).ExecContext(ctx, query, playerID)
	if err != nil {
		return fmt.Errorf("failed to clear loan of player %d: %w", playerID, err)
	}
	return checkAffectedRows(result, ErrPlayerNotFound)
}

func (r *postgresPlayerRepository) UpdateRosterSlot(ctx context.Context, exec SQLExecutor, playerID int, slot models.RosterSlot, requiresAction bool) error {
	query := `UPDATE players SET roster_slot = $1, requires_action = $2 WHERE id = $3`
	result, err := r.getExecutor(exec).ExecContext(ctx, query, slot, requiresAction, playerID)
	if err != nil {
		return fmt.Errorf("failed to update roster slot of player %d: %w", playerID, err)
	}
	return checkAffectedRows(result, ErrPlayerNotFound)
}
