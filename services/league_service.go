package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/fantaleague/league-system/models"
	"github.com/fantaleague/league-system/repositories"
)

type LeagueService interface {
	GetLeague(ctx context.Context, leagueID int) (*models.League, error)
	GetLeagueConfig(ctx context.Context, leagueID int) (*models.LeagueConfig, error)
}

type leagueService struct {
	leagueRepo repositories.LeagueRepository
	teamRepo   repositories.TeamRepository
}

func NewLeagueService(leagueRepo repositories.LeagueRepository, teamRepo repositories.TeamRepository) LeagueService {
	return &leagueService{leagueRepo: leagueRepo, teamRepo: teamRepo}
}

func (s *leagueService) GetLeague(ctx context.Context, leagueID int) (*models.League, error) {
	league, err := s.leagueRepo.GetByID(ctx, leagueID)
	if err != nil {
		if errors.Is(err, repositories.ErrLeagueNotFound) {
			return nil, ErrLeagueNotFound
		}
		return nil, fmt.Errorf("failed to get league %d: %w", leagueID, err)
	}

	teams, err := s.teamRepo.ListByLeague(ctx, leagueID)
	if err != nil {
		return nil, err
	}
	league.Teams = make([]models.Team, 0, len(teams))
	for _, team := range teams {
		league.Teams = append(league.Teams, *team)
	}
	return league, nil
}

func (s *leagueService) GetLeagueConfig(ctx context.Context, leagueID int) (*models.LeagueConfig, error) {
	cfg, err := s.leagueRepo.GetConfig(ctx, leagueID)
	if err != nil {
		if errors.Is(err, repositories.ErrLeagueNotFound) {
			return nil, ErrLeagueNotFound
		}
		return nil, err
	}
	return cfg, nil
}
