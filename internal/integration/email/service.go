// Package email queues, renders and delivers transactional emails.
package email

import (
	"context"

	"github.com/user-accounts/backend/internal/application/adapter"
	"github.com/user-accounts/backend/internal/domain/entity"
	domainerror "github.com/user-accounts/backend/internal/domain/error"
)

// Service handles email queueing operations.
type Service struct {
	queue   adapter.EmailQueueRepository
	appName string
}

// NewService creates a new email service.
func NewService(queue adapter.EmailQueueRepository, appName string) *Service {
	return &Service{
		queue:   queue,
		appName: appName,
	}
}

// QueueRecoveryCodeEmail queues the email carrying a password recovery code.
func (s *Service) QueueRecoveryCodeEmail(ctx context.Context, input adapter.QueueRecoveryCodeInput) error {
	job := entity.NewEmailJob(
		entity.TemplateRecoveryCode,
		input.UserEmail,
		input.UserName,
		"Your password recovery code - "+s.appName,
		map[string]any{
			"user_name":  input.UserName,
			"code":       input.Code,
			"expires_in": input.ExpiresIn,
			"app_name":   s.appName,
		},
	)

	if err := s.queue.Create(ctx, job); err != nil {
		return domainerror.NewEmailError(
			domainerror.ErrCodeEmailQueueFailed,
			"failed to queue recovery code email",
			err,
		)
	}

	return nil
}

// QueueAccountCreatedEmail queues the welcome email sent after registration.
func (s *Service) QueueAccountCreatedEmail(ctx context.Context, input adapter.QueueAccountCreatedInput) error {
	job := entity.NewEmailJob(
		entity.TemplateAccountCreated,
		input.UserEmail,
		input.UserName,
		"Welcome to "+s.appName,
		map[string]any{
			"user_name": input.UserName,
			"app_name":  s.appName,
		},
	)

	if err := s.queue.Create(ctx, job); err != nil {
		return domainerror.NewEmailError(
			domainerror.ErrCodeEmailQueueFailed,
			"failed to queue account created email",
			err,
		)
	}

	return nil
}

var _ adapter.EmailService = (*Service)(nil)
