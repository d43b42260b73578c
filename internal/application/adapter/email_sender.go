package adapter

import (
	"context"
)

// SendEmailInput represents the input for sending an email.
type SendEmailInput struct {
	To      string
	Name    string
	Subject string
	HTML    string
	Text    string
}

// SendEmailResult carries the provider's message id.
type SendEmailResult struct {
	ProviderID string
}

// EmailSender defines the interface for sending emails via an external provider.
type EmailSender interface {
	Send(ctx context.Context, input SendEmailInput) (*SendEmailResult, error)
}

// EmailService defines the interface for queueing emails.
type EmailService interface {
	// QueueRecoveryCodeEmail queues the email carrying a password recovery code.
	QueueRecoveryCodeEmail(ctx context.Context, input QueueRecoveryCodeInput) error

	// QueueAccountCreatedEmail queues the welcome email sent after registration.
	QueueAccountCreatedEmail(ctx context.Context, input QueueAccountCreatedInput) error
}

// QueueRecoveryCodeInput represents the input for queueing a recovery code email.
type QueueRecoveryCodeInput struct {
	UserEmail string
	UserName  string
	Code      string
	ExpiresIn string
}

// QueueAccountCreatedInput represents the input for queueing a welcome email.
type QueueAccountCreatedInput struct {
	UserEmail string
	UserName  string
}
