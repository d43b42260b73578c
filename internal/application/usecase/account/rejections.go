// Package account contains the account lifecycle use cases: register, update,
// delete and lookups.
package account

import (
	"errors"

	domainerror "github.com/user-accounts/backend/internal/domain/error"
)

func nameTakenRejection() *domainerror.AuthError {
	return domainerror.NewAuthError(domainerror.ErrCodeNameTaken, "Name already taken", domainerror.ErrNameTaken)
}

func emailTakenRejection() *domainerror.AuthError {
	return domainerror.NewAuthError(domainerror.ErrCodeEmailTaken, "Email already taken", domainerror.ErrEmailTaken)
}

func notFoundRejection() *domainerror.AuthError {
	return domainerror.NewAuthError(domainerror.ErrCodeAccountNotFound, "User not found", domainerror.ErrUserNotFound)
}

func nameConflictRejection() *domainerror.AuthError {
	return domainerror.NewAuthError(domainerror.ErrCodeNameConflict, "New name already in use", domainerror.ErrNameConflict)
}

func emailConflictRejection() *domainerror.AuthError {
	return domainerror.NewAuthError(domainerror.ErrCodeEmailConflict, "New email already in use", domainerror.ErrEmailConflict)
}

// weakPasswordRejection keeps the password service's message when it provides one.
func weakPasswordRejection(err error) *domainerror.AuthError {
	var authErr *domainerror.AuthError
	if errors.As(err, &authErr) {
		return authErr
	}
	return domainerror.NewAuthError(domainerror.ErrCodeWeakPassword, "Password too weak", domainerror.ErrWeakPassword)
}
