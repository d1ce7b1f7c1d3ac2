package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/fantaleague/league-system/models"
	"github.com/fantaleague/league-system/repositories"
	"github.com/fantaleague/league-system/rules"
	"github.com/fantaleague/league-system/storage"
)

// PayrollView - зарплатная ведомость команды. Зарплату получают
// только игроки Rosa A, Rosa B освобождена от выплат.
type PayrollView struct {
	TeamID      int   `json:"team_id"`
	Total       int64 `json:"total"`
	CashBalance int64 `json:"cash_balance"`
	PlayerCount int   `json:"player_count"`
}

type TeamService interface {
	GetTeam(ctx context.Context, teamID int) (*models.Team, error)
	ListLeagueTeams(ctx context.Context, leagueID int) ([]*models.Team, error)
	GetSquad(ctx context.Context, teamID int) ([]*models.Player, error)
	ComputePayroll(ctx context.Context, teamID int) (*PayrollView, error)

	// AdjustCashBalance - админская корректировка казны команды.
	AdjustCashBalance(ctx context.Context, teamID int, delta int64, actorUserID int) (*models.Team, error)

	UploadCrest(ctx context.Context, teamID int, actorUserID int, file io.Reader, contentType string) (*models.Team, error)
}

type teamService struct {
	teamRepo   repositories.TeamRepository
	playerRepo repositories.PlayerRepository
	leagueRepo repositories.LeagueRepository
	userRepo   repositories.UserRepository
	uploader   storage.FileUploader
	logger     *slog.Logger
}

func NewTeamService(
	teamRepo repositories.TeamRepository,
	playerRepo repositories.PlayerRepository,
	leagueRepo repositories.LeagueRepository,
	userRepo repositories.UserRepository,
	uploader storage.FileUploader,
	logger *slog.Logger,
) TeamService {
	return &teamService{
		teamRepo:   teamRepo,
		playerRepo: playerRepo,
		leagueRepo: leagueRepo,
		userRepo:   userRepo,
		uploader:   uploader,
		logger:     logger,
	}
}

func (s *teamService) GetTeam(ctx context.Context, teamID int) (*models.Team, error) {
	team, err := s.teamRepo.GetByID(ctx, nil, teamID)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to get team %d: %w", teamID, err)
	}
	s.populateCrestURL(team)
	return team, nil
}

func (s *teamService) ListLeagueTeams(ctx context.Context, leagueID int) ([]*models.Team, error) {
	if _, err := s.leagueRepo.GetByID(ctx, leagueID); err != nil {
		if errors.Is(err, repositories.ErrLeagueNotFound) {
			return nil, ErrLeagueNotFound
		}
		return nil, err
	}

	teams, err := s.teamRepo.ListByLeague(ctx, leagueID)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams of league %d: %w", leagueID, err)
	}
	for _, team := range teams {
		s.populateCrestURL(team)
	}
	return teams, nil
}

func (s *teamService) GetSquad(ctx context.Context, teamID int) ([]*models.Player, error) {
	if _, err := s.GetTeam(ctx, teamID); err != nil {
		return nil, err
	}
	players, err := s.playerRepo.ListByFieldingTeam(ctx, nil, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to list squad of team %d: %w", teamID, err)
	}
	return players, nil
}

func (s *teamService) ComputePayroll(ctx context.Context, teamID int) (*PayrollView, error) {
	team, err := s.GetTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}

	cfg, err := s.leagueRepo.GetConfig(ctx, team.LeagueID)
	if err != nil {
		return nil, err
	}

	squad, err := s.playerRepo.ListByFieldingTeam(ctx, nil, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to list squad of team %d: %w", teamID, err)
	}

	return &PayrollView{
		TeamID:      teamID,
		Total:       rules.TeamPayroll(*cfg, squad),
		CashBalance: team.CashBalance,
		PlayerCount: len(squad),
	}, nil
}

func (s *teamService) AdjustCashBalance(ctx context.Context, teamID int, delta int64, actorUserID int) (*models.Team, error) {
	team, err := s.GetTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}

	actor, err := s.userRepo.GetByID(ctx, actorUserID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if !actor.Permissions().ManageTreasury || actor.LeagueID == nil || *actor.LeagueID != team.LeagueID {
		return nil, ErrAdminActionForbidden
	}

	newBalance := team.CashBalance + delta
	if newBalance < 0 {
		return nil, ErrInsufficientFunds
	}

	if err := s.teamRepo.UpdateCashBalance(ctx, nil, teamID, newBalance); err != nil {
		return nil, err
	}
	team.CashBalance = newBalance

	s.logger.Info("team cash balance adjusted",
		slog.Int("team_id", teamID),
		slog.Int64("delta", delta),
		slog.Int64("balance", newBalance),
	)
	return team, nil
}

func (s *teamService) UploadCrest(ctx context.Context, teamID int, actorUserID int, file io.Reader, contentType string) (*models.Team, error) {
	team, err := s.GetTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}

	actor, err := s.userRepo.GetByID(ctx, actorUserID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	isOwner := actor.TeamID != nil && *actor.TeamID == team.ID
	if !isOwner && !actor.Permissions().ManageLeague {
		return nil, ErrForbiddenOperation
	}

	key := fmt.Sprintf("teams/%d/crest", team.ID)
	result, err := s.uploader.Upload(ctx, key, contentType, file)
	if err != nil {
		return nil, fmt.Errorf("failed to upload crest for team %d: %w", teamID, err)
	}

	if err := s.teamRepo.UpdateCrestKey(ctx, teamID, &result.Key); err != nil {
		return nil, err
	}
	team.CrestKey = &result.Key
	team.CrestURL = &result.Location
	return team, nil
}

func (s *teamService) populateCrestURL(team *models.Team) {
	if s.uploader == nil || team.CrestKey == nil {
		return
	}
	url := s.uploader.GetPublicURL(*team.CrestKey)
	team.CrestURL = &url
}
