package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"poketeams/internal/cache"
	apperrors "poketeams/internal/errors"
	"poketeams/internal/model"
	"poketeams/internal/repository"
)

const teamCacheTTL = 5 * time.Minute

// TeamService manages the teams of the authenticated user. A team owned by
// someone else is reported as apperrors.ErrNotFound.
type TeamService interface {
	ListTeams(ctx context.Context, ownerID uint) ([]model.Team, error)
	GetTeam(ctx context.Context, ownerID, teamID uint) (*model.Team, error)
	CreateTeam(ctx context.Context, ownerID uint, name string, pokemon []string) (*model.Team, error)
	UpdateTeam(ctx context.Context, ownerID, teamID uint, name string, pokemon []string) (*model.Team, error)
	DeleteTeam(ctx context.Context, ownerID, teamID uint) error
}

type teamService struct {
	repo  repository.TeamRepository
	cache *cache.Client
}

// NewTeamService creates a new team service. cache may be nil.
func NewTeamService(repo repository.TeamRepository, cache *cache.Client) TeamService {
	return &teamService{
		repo:  repo,
		cache: cache,
	}
}

func teamKey(ownerID, teamID uint) string {
	return fmt.Sprintf("team:%d:%d", ownerID, teamID)
}

func ownerTeamsKey(ownerID uint) string {
	return fmt.Sprintf("teams:owner:%d", ownerID)
}

// ListTeams returns every team of the owner with its pokemon.
func (s *teamService) ListTeams(ctx context.Context, ownerID uint) ([]model.Team, error) {
	var cached []model.Team
	if s.cache.GetJSON(ctx, ownerTeamsKey(ownerID), &cached) {
		return cached, nil
	}

	teams, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}

	s.cache.SetJSON(ctx, ownerTeamsKey(ownerID), teams, teamCacheTTL)
	return teams, nil
}

// GetTeam retrieves one team by ID with caching.
func (s *teamService) GetTeam(ctx context.Context, ownerID, teamID uint) (*model.Team, error) {
	var cached model.Team
	if s.cache.GetJSON(ctx, teamKey(ownerID, teamID), &cached) {
		return &cached, nil
	}

	team, err := s.repo.FindByIDAndOwner(ctx, teamID, ownerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("get team: %w", err)
	}

	s.cache.SetJSON(ctx, teamKey(ownerID, teamID), team, teamCacheTTL)
	return team, nil
}

// CreateTeam stores a new team with its roster.
func (s *teamService) CreateTeam(ctx context.Context, ownerID uint, name string, pokemon []string) (*model.Team, error) {
	team, err := buildTeam(ownerID, name, pokemon)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, team); err != nil {
		return nil, fmt.Errorf("create team: %w", err)
	}

	s.cache.Delete(ctx, ownerTeamsKey(ownerID))
	return team, nil
}

// UpdateTeam renames the team and replaces its roster atomically.
func (s *teamService) UpdateTeam(ctx context.Context, ownerID, teamID uint, name string, pokemon []string) (*model.Team, error) {
	update, err := buildTeam(ownerID, name, pokemon)
	if err != nil {
		return nil, err
	}
	update.ID = teamID

	var updated *model.Team
	err = s.repo.WithTransaction(ctx, func(ctx context.Context, repo repository.TeamRepository) error {
		if _, err := repo.FindByIDAndOwner(ctx, teamID, ownerID); err != nil {
			return err
		}
		if err := repo.ReplaceRoster(ctx, update); err != nil {
			return err
		}
		team, err := repo.FindByIDAndOwner(ctx, teamID, ownerID)
		if err != nil {
			return err
		}
		updated = team
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("update team: %w", err)
	}

	s.cache.Delete(ctx, teamKey(ownerID, teamID), ownerTeamsKey(ownerID))
	return updated, nil
}

// DeleteTeam removes a team and its pokemon.
func (s *teamService) DeleteTeam(ctx context.Context, ownerID, teamID uint) error {
	if err := s.repo.Delete(ctx, teamID, ownerID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrNotFound
		}
		return fmt.Errorf("delete team: %w", err)
	}

	s.cache.Delete(ctx, teamKey(ownerID, teamID), ownerTeamsKey(ownerID))
	return nil
}

func buildTeam(ownerID uint, name string, pokemon []string) (*model.Team, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: team name is required", apperrors.ErrValidation)
	}
	if len(pokemon) > model.MaxTeamSize {
		return nil, fmt.Errorf("%w: a team holds at most %d pokemon", apperrors.ErrValidation, model.MaxTeamSize)
	}

	team := &model.Team{
		Name:    name,
		OwnerID: ownerID,
		Pokemon: make([]model.Pokemon, 0, len(pokemon)),
	}
	for _, p := range pokemon {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == "" {
			return nil, fmt.Errorf("%w: pokemon name is required", apperrors.ErrValidation)
		}
		team.Pokemon = append(team.Pokemon, model.Pokemon{Name: p})
	}
	return team, nil
}
