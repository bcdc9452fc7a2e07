package repository

import (
	"context"

	"gorm.io/gorm"

	"poketeams/internal/model"
)

// TeamRepository defines team persistence operations. Every read and write
// is scoped to the owning user.
type TeamRepository interface {
	Create(ctx context.Context, team *model.Team) error
	FindByIDAndOwner(ctx context.Context, id, ownerID uint) (*model.Team, error)
	ListByOwner(ctx context.Context, ownerID uint) ([]model.Team, error)
	ReplaceRoster(ctx context.Context, team *model.Team) error
	Delete(ctx context.Context, id, ownerID uint) error
	// Transaction methods
	WithTransaction(ctx context.Context, fn func(ctx context.Context, repo TeamRepository) error) error
}

type teamRepository struct {
	db *gorm.DB
}

// NewTeamRepository creates a new team repository.
func NewTeamRepository(db *gorm.DB) TeamRepository {
	return &teamRepository{db: db}
}

// Create inserts the team and its pokemon.
func (r *teamRepository) Create(ctx context.Context, team *model.Team) error {
	return r.db.WithContext(ctx).Create(team).Error
}

// FindByIDAndOwner loads a team with its pokemon.
func (r *teamRepository) FindByIDAndOwner(ctx context.Context, id, ownerID uint) (*model.Team, error) {
	var team model.Team
	if err := r.db.WithContext(ctx).Preload("Pokemon").
		Where("id = ? AND owner_id = ?", id, ownerID).
		First(&team).Error; err != nil {
		return nil, err
	}
	return &team, nil
}

// ListByOwner lists all teams of a user, oldest first.
func (r *teamRepository) ListByOwner(ctx context.Context, ownerID uint) ([]model.Team, error) {
	teams := []model.Team{}
	if err := r.db.WithContext(ctx).Preload("Pokemon").
		Where("owner_id = ?", ownerID).
		Order("id").
		Find(&teams).Error; err != nil {
		return nil, err
	}
	return teams, nil
}

// ReplaceRoster renames the team and swaps its pokemon for team.Pokemon.
// Call it inside WithTransaction so the roster is never half-replaced.
func (r *teamRepository) ReplaceRoster(ctx context.Context, team *model.Team) error {
	db := r.db.WithContext(ctx)
	if err := db.Model(&model.Team{}).
		Where("id = ? AND owner_id = ?", team.ID, team.OwnerID).
		Update("name", team.Name).Error; err != nil {
		return err
	}
	if err := db.Where("team_id = ?", team.ID).Delete(&model.Pokemon{}).Error; err != nil {
		return err
	}
	if len(team.Pokemon) == 0 {
		return nil
	}
	for i := range team.Pokemon {
		team.Pokemon[i].ID = 0
		team.Pokemon[i].TeamID = team.ID
	}
	return db.Create(&team.Pokemon).Error
}

// Delete removes a team; its pokemon go with it through the foreign key.
// Returns gorm.ErrRecordNotFound when the user owns no such team.
func (r *teamRepository) Delete(ctx context.Context, id, ownerID uint) error {
	res := r.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", id, ownerID).
		Delete(&model.Team{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// WithTransaction executes a function within a database transaction.
func (r *teamRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context, repo TeamRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txRepo := &teamRepository{db: tx}
		return fn(ctx, txRepo)
	})
}
