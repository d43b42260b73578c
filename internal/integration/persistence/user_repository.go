// Package persistence implements repository interfaces for database operations.
package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/user-accounts/backend/internal/application/adapter"
	"github.com/user-accounts/backend/internal/domain/entity"
	domainerror "github.com/user-accounts/backend/internal/domain/error"
	"github.com/user-accounts/backend/internal/integration/persistence/model"
)

// userRepository implements the adapter.UserRepository interface.
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new user repository instance.
func NewUserRepository(db *gorm.DB) adapter.UserRepository {
	return &userRepository{
		db: db,
	}
}

// Create inserts a new user.
func (r *userRepository) Create(ctx context.Context, user *entity.User) error {
	userModel := model.UserModelFromEntity(user)
	if err := r.db.WithContext(ctx).Create(userModel).Error; err != nil {
		return translateWriteError(err)
	}
	return nil
}

// FindByID retrieves a user by their ID.
func (r *userRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	return r.findOne(ctx, "id = ?", id)
}

// FindByName retrieves a user by exact name.
func (r *userRepository) FindByName(ctx context.Context, name string) (*entity.User, error) {
	return r.findOne(ctx, "name = ?", name)
}

// FindByEmail retrieves a user by their email address.
func (r *userRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	return r.findOne(ctx, "email = ?", email)
}

func (r *userRepository) findOne(ctx context.Context, query string, arg any) (*entity.User, error) {
	var userModel model.UserModel
	result := r.db.WithContext(ctx).Where(query, arg).First(&userModel)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, domainerror.ErrUserNotFound
		}
		return nil, result.Error
	}
	return userModel.ToEntity(), nil
}

// Update saves name, email and digest of an existing user.
func (r *userRepository) Update(ctx context.Context, user *entity.User) error {
	result := r.db.WithContext(ctx).
		Model(&model.UserModel{}).
		Where("id = ?", user.ID).
		Updates(map[string]any{
			"name":            user.Name,
			"email":           user.Email,
			"password_digest": user.PasswordDigest,
			"updated_at":      user.UpdatedAt,
		})
	if result.Error != nil {
		return translateWriteError(result.Error)
	}
	if result.RowsAffected == 0 {
		return domainerror.ErrUserNotFound
	}
	return nil
}

// DeleteByName removes the user with the given name.
func (r *userRepository) DeleteByName(ctx context.Context, name string) error {
	result := r.db.WithContext(ctx).Where("name = ?", name).Delete(&model.UserModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerror.ErrUserNotFound
	}
	return nil
}

// List returns every user ordered by name.
func (r *userRepository) List(ctx context.Context) ([]*entity.User, error) {
	var models []model.UserModel
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&models).Error; err != nil {
		return nil, err
	}

	users := make([]*entity.User, len(models))
	for i := range models {
		users[i] = models[i].ToEntity()
	}
	return users, nil
}

// ExistsByName checks if a user with the given name exists.
func (r *userRepository) ExistsByName(ctx context.Context, name string) (bool, error) {
	return r.exists(ctx, "name = ?", name)
}

// ExistsByEmail checks if a user with the given email exists.
func (r *userRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, "email = ?", email)
}

func (r *userRepository) exists(ctx context.Context, query string, arg any) (bool, error) {
	var count int64
	result := r.db.WithContext(ctx).Model(&model.UserModel{}).Where(query, arg).Count(&count)
	if result.Error != nil {
		return false, result.Error
	}
	return count > 0, nil
}

// translateWriteError maps unique index violations to ErrUserAlreadyExists.
// Dialects without error translation are matched on their message.
func translateWriteError(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return domainerror.ErrUserAlreadyExists
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key") {
		return domainerror.ErrUserAlreadyExists
	}
	return err
}
