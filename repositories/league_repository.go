package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fantaleague/league-system/models"
)

var ErrLeagueNotFound = errors.New("league not found")

// LeagueRepository определяет интерфейс для работы с лигами.
type LeagueRepository interface {
	// GetByID возвращает лигу вместе с лимитами ролей.
	// Mode разрешается из строки модальности здесь, один раз.
	GetByID(ctx context.Context, id int) (*models.League, error)

	// GetConfig возвращает конфигурацию движка перемещений для лиги.
	GetConfig(ctx context.Context, leagueID int) (*models.LeagueConfig, error)
}

type postgresLeagueRepository struct {
	db *sql.DB
}

func NewPostgresLeagueRepository(db *sql.DB) LeagueRepository {
	return &postgresLeagueRepository{db: db}
}

func (r *postgresLeagueRepository) GetByID(ctx context.Context, id int) (*models.League, error) {
	query := `
		SELECT id, name, modality, admin_user_id, max_players,
		       roster_ab_enabled, cantera_enabled, created_at
		FROM leagues
		WHERE id = $1`

	league := &models.League{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&league.ID,
		&league.Name,
		&league.Modality,
		&league.AdminUserID,
		&league.MaxPlayers,
		&league.RosterABEnabled,
		&league.CanteraEnabled,
		&league.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrLeagueNotFound
		}
		return nil, fmt.Errorf("failed to get league %d: %w", id, err)
	}

	league.Mode = models.ResolveLeagueMode(league.Modality)

	limits, err := r.loadRoleLimits(ctx, id)
	if err != nil {
		return nil, err
	}
	league.RoleLimits = limits

	return league, nil
}

func (r *postgresLeagueRepository) GetConfig(ctx context.Context, leagueID int) (*models.LeagueConfig, error) {
	league, err := r.GetByID(ctx, leagueID)
	if err != nil {
		return nil, err
	}
	cfg := league.Config()
	return &cfg, nil
}

func (r *postgresLeagueRepository) loadRoleLimits(ctx context.Context, leagueID int) (models.RoleLimits, error) {
	query := `
		SELECT role, min_count, max_count
		FROM league_role_limits
		WHERE league_id = $1`

	limits := models.RoleLimits{
		Min: make(map[models.Role]int),
		Max: make(map[models.Role]int),
	}

	rows, err := r.db.QueryContext(ctx, query, leagueID)
	if err != nil {
		return limits, fmt.Errorf("failed to load role limits for league %d: %w", leagueID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var role string
		var minCount, maxCount int
		if scanErr := rows.Scan(&role, &minCount, &maxCount); scanErr != nil {
			return limits, fmt.Errorf("failed to scan role limit: %w", scanErr)
		}
		limits.Min[models.Role(role)] = minCount
		limits.Max[models.Role(role)] = maxCount
	}

	return limits, rows.Err()
}
