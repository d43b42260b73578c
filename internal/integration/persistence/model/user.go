// Package model defines database models for persistence layer.
package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/user-accounts/backend/internal/domain/entity"
)

// UserModel represents the users table. Both name and email carry unique
// indexes so concurrent registrations cannot both succeed.
type UserModel struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name           string    `gorm:"type:varchar(50);uniqueIndex:idx_users_name;not null"`
	Email          string    `gorm:"type:varchar(255);uniqueIndex:idx_users_email;not null"`
	PasswordDigest string    `gorm:"column:password_digest;type:varchar(255);not null"`
	CreatedAt      time.Time `gorm:"not null"`
	UpdatedAt      time.Time `gorm:"not null"`
}

// TableName returns the table name for the UserModel.
func (UserModel) TableName() string {
	return "users"
}

// ToEntity converts a UserModel to a domain User entity.
func (m *UserModel) ToEntity() *entity.User {
	return &entity.User{
		ID:             m.ID,
		Name:           m.Name,
		Email:          m.Email,
		PasswordDigest: m.PasswordDigest,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

// UserModelFromEntity creates a UserModel from a domain User entity.
func UserModelFromEntity(user *entity.User) *UserModel {
	return &UserModel{
		ID:             user.ID,
		Name:           user.Name,
		Email:          user.Email,
		PasswordDigest: user.PasswordDigest,
		CreatedAt:      user.CreatedAt,
		UpdatedAt:      user.UpdatedAt,
	}
}

// RoleModel represents the roles table.
type RoleModel struct {
	ID    int    `gorm:"primaryKey;autoIncrement"`
	Label string `gorm:"type:varchar(50);uniqueIndex;not null"`
}

// TableName returns the table name for the RoleModel.
func (RoleModel) TableName() string {
	return "roles"
}

// ToEntity converts a RoleModel to a domain Role entity.
func (m *RoleModel) ToEntity() *entity.Role {
	return &entity.Role{ID: m.ID, Label: m.Label}
}

// All lists every model managed by migrations.
func All() []any {
	return []any{
		&UserModel{},
		&RoleModel{},
		&EmailQueueModel{},
	}
}
