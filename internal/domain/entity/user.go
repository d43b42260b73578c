// Package entity defines the core business entities for the domain layer.
package entity

import (
	"time"

	"github.com/google/uuid"
)

// User represents a registered account.
// PasswordDigest holds the stored password hash, never the raw password.
type User struct {
	ID             uuid.UUID
	Name           string
	Email          string
	PasswordDigest string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// NewUser creates a new User with a fresh ID, created at now.
func NewUser(name, email, passwordDigest string, now time.Time) *User {
	return &User{
		ID:             uuid.New(),
		Name:           name,
		Email:          email,
		PasswordDigest: passwordDigest,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// Rename changes the account name, email and digest in one step.
func (u *User) Rename(name, email, passwordDigest string, now time.Time) {
	u.Name = name
	u.Email = email
	u.PasswordDigest = passwordDigest
	u.UpdatedAt = now
}

// Role is a named permission group. Roles are seeded at migration time.
type Role struct {
	ID    int
	Label string
}

// Default role labels.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)
