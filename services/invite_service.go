package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/fantaleague/league-system/models"
	"github.com/fantaleague/league-system/repositories"
)

const (
	inviteTokenLength = 16                 // Длина токена в байтах (32 символа в hex)
	inviteDuration    = 7 * 24 * time.Hour // Срок действия приглашения (7 дней)
)

var (
	ErrInviteCreationFailed  = errors.New("failed to create invite")
	ErrInviteTokenGeneration = errors.New("failed to generate unique invite token")
	ErrNoFreeTeam            = errors.New("invite has no free team to claim")
)

type InviteService interface {
	CreateInvite(ctx context.Context, leagueID int, teamID *int, currentUserID int) (*models.Invite, error)
	GetInviteByToken(ctx context.Context, token string) (*models.Invite, error)

	// AcceptInvite привязывает пользователя к команде лиги по токену.
	AcceptInvite(ctx context.Context, token string, currentUserID int) (*models.Team, error)

	DeleteInvite(ctx context.Context, inviteID int, currentUserID int) error
	ListLeagueInvites(ctx context.Context, leagueID int, currentUserID int) ([]*models.Invite, error)
}

type inviteService struct {
	inviteRepo repositories.InviteRepository
	leagueRepo repositories.LeagueRepository
	teamRepo   repositories.TeamRepository
	userRepo   repositories.UserRepository
}

func NewInviteService(
	inviteRepo repositories.InviteRepository,
	leagueRepo repositories.LeagueRepository,
	teamRepo repositories.TeamRepository,
	userRepo repositories.UserRepository,
) InviteService {
	return &inviteService{
		inviteRepo: inviteRepo,
		leagueRepo: leagueRepo,
		teamRepo:   teamRepo,
		userRepo:   userRepo,
	}
}

func generateSecureToken(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}

func (s *inviteService) CreateInvite(ctx context.Context, leagueID int, teamID *int, currentUserID int) (*models.Invite, error) {
	league, err := s.leagueRepo.GetByID(ctx, leagueID)
	if err != nil {
		if errors.Is(err, repositories.ErrLeagueNotFound) {
			return nil, ErrLeagueNotFound
		}
		return nil, fmt.Errorf("failed to get league %d: %w", leagueID, err)
	}

	if league.AdminUserID != currentUserID {
		return nil, ErrAdminActionForbidden
	}

	if teamID != nil {
		team, teamErr := s.teamRepo.GetByID(ctx, nil, *teamID)
		if teamErr != nil {
			if errors.Is(teamErr, repositories.ErrTeamNotFound) {
				return nil, ErrTeamNotFound
			}
			return nil, teamErr
		}
		if team.LeagueID != leagueID {
			return nil, fmt.Errorf("%w: team belongs to another league", ErrValidationFailed)
		}
		if team.OwnerUserID != nil {
			return nil, ErrTeamAlreadyClaimed
		}
	}

	maxAttempts := 3 // Попытки сгенерировать уникальный токен
	for attempt := 0; attempt < maxAttempts; attempt++ {
		token, tokenErr := generateSecureToken(inviteTokenLength)
		if tokenErr != nil {
			return nil, fmt.Errorf("%w: %w", ErrInviteTokenGeneration, tokenErr)
		}

		invite := &models.Invite{
			LeagueID:  leagueID,
			TeamID:    teamID,
			Token:     token,
			ExpiresAt: time.Now().Add(inviteDuration),
		}

		err = s.inviteRepo.Create(ctx, invite)
		if err == nil {
			return invite, nil
		}
		if !errors.Is(err, repositories.ErrInviteTokenConflict) {
			if errors.Is(err, repositories.ErrInviteLeagueInvalid) {
				return nil, ErrLeagueNotFound
			}
			return nil, fmt.Errorf("%w: %w", ErrInviteCreationFailed, err)
		}
		// Конфликт токена, пробуем снова.
	}

	return nil, fmt.Errorf("%w after %d attempts", ErrInviteTokenGeneration, maxAttempts)
}

func (s *inviteService) GetInviteByToken(ctx context.Context, token string) (*models.Invite, error) {
	invite, err := s.inviteRepo.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, repositories.ErrInviteNotFound) {
			return nil, ErrInviteNotFound
		}
		return nil, fmt.Errorf("failed to get invite by token: %w", err)
	}

	if time.Now().After(invite.ExpiresAt) {
		return nil, ErrInviteExpired
	}
	return invite, nil
}

func (s *inviteService) AcceptInvite(ctx context.Context, token string, currentUserID int) (*models.Team, error) {
	invite, err := s.GetInviteByToken(ctx, token)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByID(ctx, currentUserID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user %d: %w", currentUserID, err)
	}
	if user.LeagueID != nil && *user.LeagueID == invite.LeagueID {
		return nil, ErrUserAlreadyInLeague
	}

	team, err := s.resolveInviteTeam(ctx, invite)
	if err != nil {
		return nil, err
	}

	userID := user.ID
	if err := s.teamRepo.UpdateOwner(ctx, nil, team.ID, &userID); err != nil {
		return nil, err
	}
	team.OwnerUserID = &userID

	user.LeagueID = &invite.LeagueID
	user.TeamID = &team.ID
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to attach user %d to team %d: %w", user.ID, team.ID, err)
	}

	// Одноразовое приглашение: удаляем после использования.
	if err := s.inviteRepo.Delete(ctx, invite.ID); err != nil && !errors.Is(err, repositories.ErrInviteNotFound) {
		return nil, err
	}

	return team, nil
}

func (s *inviteService) resolveInviteTeam(ctx context.Context, invite *models.Invite) (*models.Team, error) {
	if invite.TeamID != nil {
		team, err := s.teamRepo.GetByID(ctx, nil, *invite.TeamID)
		if err != nil {
			if errors.Is(err, repositories.ErrTeamNotFound) {
				return nil, ErrTeamNotFound
			}
			return nil, err
		}
		if team.OwnerUserID != nil {
			return nil, ErrTeamAlreadyClaimed
		}
		return team, nil
	}

	teams, err := s.teamRepo.ListByLeague(ctx, invite.LeagueID)
	if err != nil {
		return nil, err
	}
	for _, team := range teams {
		if team.OwnerUserID == nil {
			return team, nil
		}
	}
	return nil, ErrNoFreeTeam
}

func (s *inviteService) DeleteInvite(ctx context.Context, inviteID int, currentUserID int) error {
	invite, err := s.inviteRepo.GetByID(ctx, inviteID)
	if err != nil {
		if errors.Is(err, repositories.ErrInviteNotFound) {
			return ErrInviteNotFound
		}
		return err
	}

	league, err := s.leagueRepo.GetByID(ctx, invite.LeagueID)
	if err != nil {
		if errors.Is(err, repositories.ErrLeagueNotFound) {
			return ErrLeagueNotFound
		}
		return err
	}
	if league.AdminUserID != currentUserID {
		return ErrAdminActionForbidden
	}

	if err := s.inviteRepo.Delete(ctx, inviteID); err != nil {
		if errors.Is(err, repositories.ErrInviteNotFound) {
			return ErrInviteNotFound
		}
		return err
	}
	return nil
}

func (s *inviteService) ListLeagueInvites(ctx context.Context, leagueID int, currentUserID int) ([]*models.Invite, error) {
	league, err := s.leagueRepo.GetByID(ctx, leagueID)
	if err != nil {
		if errors.Is(err, repositories.ErrLeagueNotFound) {
			return nil, ErrLeagueNotFound
		}
		return nil, err
	}
	if league.AdminUserID != currentUserID {
		return nil, ErrAdminActionForbidden
	}
	return s.inviteRepo.ListByLeagueID(ctx, leagueID)
}
