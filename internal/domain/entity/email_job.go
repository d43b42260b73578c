package entity

import (
	"time"

	"github.com/google/uuid"
)

// EmailStatus is the delivery state of a queued email.
type EmailStatus string

const (
	EmailStatusPending    EmailStatus = "pending"
	EmailStatusProcessing EmailStatus = "processing"
	EmailStatusSent       EmailStatus = "sent"
	EmailStatusFailed     EmailStatus = "failed"
)

// EmailTemplateType names a template under internal/integration/email/templates.
type EmailTemplateType string

const (
	TemplateRecoveryCode   EmailTemplateType = "recovery_code"
	TemplateAccountCreated EmailTemplateType = "account_created"
)

// sensitiveTemplateKeys are dropped from a job's data once it is finished.
var sensitiveTemplateKeys = []string{"code"}

// Recovery codes expire quickly, so retries are kept short.
var emailRetryDelays = []time.Duration{0, 15 * time.Second, time.Minute}

// EmailJob is an outbound email waiting in the queue.
type EmailJob struct {
	ID             uuid.UUID
	TemplateType   EmailTemplateType
	RecipientEmail string
	RecipientName  string
	Subject        string
	TemplateData   map[string]any
	Status         EmailStatus
	Attempts       int
	MaxAttempts    int
	LastError      string
	ProviderID     string
	CreatedAt      time.Time
	ScheduledAt    time.Time
	ProcessedAt    *time.Time
}

// NewEmailJob creates a pending job scheduled for immediate delivery.
func NewEmailJob(templateType EmailTemplateType, recipientEmail, recipientName, subject string, data map[string]any) *EmailJob {
	now := time.Now().UTC()
	return &EmailJob{
		ID:             uuid.New(),
		TemplateType:   templateType,
		RecipientEmail: recipientEmail,
		RecipientName:  recipientName,
		Subject:        subject,
		TemplateData:   data,
		Status:         EmailStatusPending,
		MaxAttempts:    len(emailRetryDelays),
		CreatedAt:      now,
		ScheduledAt:    now,
	}
}

// MarkProcessing marks the job as claimed by a worker.
func (e *EmailJob) MarkProcessing() {
	e.Status = EmailStatusProcessing
}

// MarkSent records a successful delivery and the provider's message id.
func (e *EmailJob) MarkSent(providerID string) {
	now := time.Now().UTC()
	e.Status = EmailStatusSent
	e.ProviderID = providerID
	e.ProcessedAt = &now
	e.redact()
}

// MarkFailed records a failed attempt. Permanent failures and exhausted jobs
// become failed; others are rescheduled.
func (e *EmailJob) MarkFailed(err error, permanent bool) {
	e.Attempts++
	e.LastError = err.Error()

	if permanent || !e.CanRetry() {
		now := time.Now().UTC()
		e.Status = EmailStatusFailed
		e.ProcessedAt = &now
		e.redact()
		return
	}

	e.Status = EmailStatusPending
	e.ScheduledAt = time.Now().UTC().Add(e.retryDelay())
}

func (e *EmailJob) retryDelay() time.Duration {
	if e.Attempts < len(emailRetryDelays) {
		return emailRetryDelays[e.Attempts]
	}
	return emailRetryDelays[len(emailRetryDelays)-1]
}

func (e *EmailJob) redact() {
	for _, key := range sensitiveTemplateKeys {
		delete(e.TemplateData, key)
	}
}

// CanRetry reports whether attempts remain.
func (e *EmailJob) CanRetry() bool {
	return e.Attempts < e.MaxAttempts
}
