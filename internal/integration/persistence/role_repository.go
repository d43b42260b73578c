package persistence

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/user-accounts/backend/internal/application/adapter"
	"github.com/user-accounts/backend/internal/domain/entity"
	"github.com/user-accounts/backend/internal/integration/persistence/model"
)

// roleRepository implements the adapter.RoleRepository interface.
type roleRepository struct {
	db *gorm.DB
}

// NewRoleRepository creates a new role repository instance.
func NewRoleRepository(db *gorm.DB) adapter.RoleRepository {
	return &roleRepository{db: db}
}

// EnsureDefaults inserts the default roles, skipping those already present.
func (r *roleRepository) EnsureDefaults(ctx context.Context) error {
	roles := []model.RoleModel{
		{Label: entity.RoleUser},
		{Label: entity.RoleAdmin},
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "label"}}, DoNothing: true}).
		Create(&roles).Error
}

// List returns all roles ordered by id.
func (r *roleRepository) List(ctx context.Context) ([]*entity.Role, error) {
	var models []model.RoleModel
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&models).Error; err != nil {
		return nil, err
	}

	roles := make([]*entity.Role, len(models))
	for i := range models {
		roles[i] = models[i].ToEntity()
	}
	return roles, nil
}
