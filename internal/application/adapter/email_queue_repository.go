package adapter

import (
	"context"

	"github.com/user-accounts/backend/internal/domain/entity"
)

// EmailQueueRepository defines the interface for email queue persistence operations.
type EmailQueueRepository interface {
	// Create adds a new email job to the queue.
	Create(ctx context.Context, job *entity.EmailJob) error

	// GetPendingJobs retrieves jobs ready to be processed, ordered by scheduled_at.
	GetPendingJobs(ctx context.Context, limit int) ([]*entity.EmailJob, error)

	// Update saves changes to an email job.
	Update(ctx context.Context, job *entity.EmailJob) error

	// GetByRecipient retrieves jobs for an address, newest first.
	GetByRecipient(ctx context.Context, email string) ([]*entity.EmailJob, error)

	// DeleteOldSentJobs removes sent jobs older than the given number of days.
	DeleteOldSentJobs(ctx context.Context, olderThanDays int) (int64, error)
}
