package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/fantaleague/league-system/models"
	"github.com/fantaleague/league-system/repositories"
	"github.com/fantaleague/league-system/rules"
)

// RosterResult - итог операции над составом вместе с событиями для эмиттера.
type RosterResult struct {
	Player *models.Player              `json:"player"`
	Events []*models.NotificationEvent `json:"events,omitempty"`
}

type RosterService interface {
	// ReturnFromLoan досрочно возвращает игрока из аренды в команду-владельца.
	// Вызывается владельцем, не через предложение.
	ReturnFromLoan(ctx context.Context, playerID int, actorUserID int) (*RosterResult, error)

	// MovePlayerRoster - ручное перемещение игрока между Rosa A и Rosa B.
	// Доступно только админу/суб-админу лиги.
	MovePlayerRoster(ctx context.Context, playerID int, targetSlot models.RosterSlot, actorUserID int) (*RosterResult, error)
}

type rosterService struct {
	db               *sql.DB
	playerRepo       repositories.PlayerRepository
	teamRepo         repositories.TeamRepository
	leagueRepo       repositories.LeagueRepository
	userRepo         repositories.UserRepository
	notificationRepo repositories.NotificationRepository
	notifier         Notifier
	logger           *slog.Logger
}

func NewRosterService(
	db *sql.DB,
	playerRepo repositories.PlayerRepository,
	teamRepo repositories.TeamRepository,
	leagueRepo repositories.LeagueRepository,
	userRepo repositories.UserRepository,
	notificationRepo repositories.NotificationRepository,
	notifier Notifier,
	logger *slog.Logger,
) RosterService {
	return &rosterService{
		db:               db,
		playerRepo:       playerRepo,
		teamRepo:         teamRepo,
		leagueRepo:       leagueRepo,
		userRepo:         userRepo,
		notificationRepo: notificationRepo,
		notifier:         notifier,
		logger:           logger,
	}
}

func (s *rosterService) ReturnFromLoan(ctx context.Context, playerID int, actorUserID int) (*RosterResult, error) {
	var result *RosterResult

	err := repositories.WithTransaction(ctx, s.db, func(tx *sql.Tx) error {
		player, err := s.playerRepo.GetByIDForUpdate(ctx, tx, playerID)
		if err != nil {
			if errors.Is(err, repositories.ErrPlayerNotFound) {
				return ErrPlayerNotFound
			}
			return err
		}
		if !player.OnLoan || player.LoanTeamID == nil {
			return ErrPlayerNotOnLoan
		}

		owner, err := s.teamRepo.GetByIDForUpdate(ctx, tx, player.OwningTeamID)
		if err != nil {
			if errors.Is(err, repositories.ErrTeamNotFound) {
				return ErrTeamNotFound
			}
			return err
		}

		if authErr := s.authorizeOwnerAction(ctx, actorUserID, owner); authErr != nil {
			if errors.Is(authErr, ErrForbiddenOperation) {
				return ErrNotPlayerOwner
			}
			return authErr
		}

		loanTeam, err := s.teamRepo.GetByID(ctx, tx, *player.LoanTeamID)
		if err != nil && !errors.Is(err, repositories.ErrTeamNotFound) {
			return err
		}

		if clearErr := s.playerRepo.ClearLoan(ctx, tx, player.ID); clearErr != nil {
			return clearErr
		}
		player.OnLoan = false
		player.LoanTeamID = nil

		cfg, err := s.leagueRepo.GetConfig(ctx, player.LeagueID)
		if err != nil {
			return err
		}

		count, err := s.playerRepo.CountRosterA(ctx, tx, owner.ID)
		if err != nil {
			return err
		}
		// После снятия аренды игрок уже числится за владельцем;
		// вычитаем его самого, если прежний слот был A.
		if player.RosterSlot == models.RosterSlotA {
			count--
		}

		assignment := rules.AssignReturnSlot(*cfg, count, owner.MaxPlayers)
		if slotErr := s.playerRepo.UpdateRosterSlot(ctx, tx, player.ID, assignment.Slot, assignment.RequiresAction); slotErr != nil {
			return slotErr
		}
		player.RosterSlot = assignment.Slot
		player.RequiresAction = assignment.RequiresAction

		events := s.rosterEvents(ctx, tx, player, models.NotificationLoanReturned, owner, loanTeam)
		result = &RosterResult{Player: player, Events: events}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.broadcast(result.Player.LeagueID, result.Events)
	s.logger.Info("player returned from loan",
		slog.Int("player_id", result.Player.ID),
		slog.String("roster_slot", string(result.Player.RosterSlot)),
		slog.Bool("requires_action", result.Player.RequiresAction),
	)
	return result, nil
}

func (s *rosterService) MovePlayerRoster(ctx context.Context, playerID int, targetSlot models.RosterSlot, actorUserID int) (*RosterResult, error) {
	if targetSlot != models.RosterSlotA && targetSlot != models.RosterSlotB {
		return nil, fmt.Errorf("%w: unknown roster slot %q", ErrValidationFailed, targetSlot)
	}

	var result *RosterResult

	err := repositories.WithTransaction(ctx, s.db, func(tx *sql.Tx) error {
		player, err := s.playerRepo.GetByIDForUpdate(ctx, tx, playerID)
		if err != nil {
			if errors.Is(err, repositories.ErrPlayerNotFound) {
				return ErrPlayerNotFound
			}
			return err
		}

		fieldingTeam, err := s.teamRepo.GetByIDForUpdate(ctx, tx, player.FieldingTeamID())
		if err != nil {
			if errors.Is(err, repositories.ErrTeamNotFound) {
				return ErrTeamNotFound
			}
			return err
		}

		if authErr := s.authorizeAdminAction(ctx, actorUserID, fieldingTeam.LeagueID); authErr != nil {
			return authErr
		}

		// Перевод в Rosa A требует свободного места.
		if targetSlot == models.RosterSlotA && player.RosterSlot != models.RosterSlotA {
			count, countErr := s.playerRepo.CountRosterA(ctx, tx, fieldingTeam.ID)
			if countErr != nil {
				return countErr
			}
			if count >= fieldingTeam.MaxPlayers {
				return ErrRosterCapacityFull
			}
		}

		if slotErr := s.playerRepo.UpdateRosterSlot(ctx, tx, player.ID, targetSlot, false); slotErr != nil {
			return slotErr
		}
		player.RosterSlot = targetSlot
		player.RequiresAction = false

		events := s.rosterEvents(ctx, tx, player, models.NotificationRosterMoved, fieldingTeam)
		result = &RosterResult{Player: player, Events: events}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.broadcast(result.Player.LeagueID, result.Events)
	s.logger.Info("player roster slot moved",
		slog.Int("player_id", result.Player.ID),
		slog.String("roster_slot", string(result.Player.RosterSlot)),
	)
	return result, nil
}

func (s *rosterService) rosterEvents(ctx context.Context, exec repositories.SQLExecutor, player *models.Player, kind models.NotificationKind, teams ...*models.Team) []*models.NotificationEvent {
	payload := map[string]any{
		"player_id":       player.ID,
		"roster_slot":     string(player.RosterSlot),
		"requires_action": player.RequiresAction,
	}

	events := make([]*models.NotificationEvent, 0, len(teams))
	seen := make(map[int]bool)
	for _, team := range teams {
		if team == nil || team.OwnerUserID == nil || seen[*team.OwnerUserID] {
			continue
		}
		seen[*team.OwnerUserID] = true

		playerID := player.ID
		event := &models.NotificationEvent{
			LeagueID:        player.LeagueID,
			PlayerID:        &playerID,
			RecipientUserID: *team.OwnerUserID,
			Kind:            kind,
			Payload:         payload,
		}
		if err := s.notificationRepo.Create(ctx, exec, event); err != nil {
			s.logger.Error("failed to persist notification",
				slog.Int("player_id", player.ID),
				slog.Any("error", err),
			)
			continue
		}
		events = append(events, event)
	}
	return events
}

func (s *rosterService) broadcast(leagueID int, events []*models.NotificationEvent) {
	if s.notifier == nil {
		return
	}
	for _, event := range events {
		s.notifier.NotifyLeague(leagueID, event)
	}
}

func (s *rosterService) authorizeOwnerAction(ctx context.Context, userID int, team *models.Team) error {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return err
	}
	if user.TeamID != nil && *user.TeamID == team.ID {
		return nil
	}
	if user.Permissions().ManageRosters && user.LeagueID != nil && *user.LeagueID == team.LeagueID {
		return nil
	}
	return ErrForbiddenOperation
}

func (s *rosterService) authorizeAdminAction(ctx context.Context, userID int, leagueID int) error {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return err
	}
	if !user.Permissions().ManageRosters {
		return ErrAdminActionForbidden
	}
	if user.LeagueID == nil || *user.LeagueID != leagueID {
		return ErrAdminActionForbidden
	}
	return nil
}

func (s *rosterService) getUser(ctx context.Context, userID int) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user %d: %w", userID, err)
	}
	return user, nil
}
