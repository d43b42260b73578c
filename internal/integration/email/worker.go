package email

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/user-accounts/backend/internal/application/adapter"
	"github.com/user-accounts/backend/internal/domain/entity"
	domainerror "github.com/user-accounts/backend/internal/domain/error"
	"github.com/user-accounts/backend/internal/integration/email/templates"
)

// Worker processes the email queue and sends emails.
type Worker struct {
	queue           adapter.EmailQueueRepository
	sender          adapter.EmailSender
	renderer        *templates.Renderer
	metrics         adapter.MetricsRecorder
	logger          *slog.Logger
	pollInterval    time.Duration
	cleanupInterval time.Duration
	batchSize       int
	retentionDays   int

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// WorkerConfig holds configuration for the email worker.
type WorkerConfig struct {
	PollInterval    time.Duration
	CleanupInterval time.Duration
	BatchSize       int
	RetentionDays   int
}

// DefaultWorkerConfig returns the default worker configuration.
func DefaultWorkerConfig() WorkerConfig {
	return WorkerConfig{
		PollInterval:    5 * time.Second,
		CleanupInterval: time.Hour,
		BatchSize:       10,
		RetentionDays:   7,
	}
}

// NewWorker creates a new email worker.
func NewWorker(
	queue adapter.EmailQueueRepository,
	sender adapter.EmailSender,
	renderer *templates.Renderer,
	metrics adapter.MetricsRecorder,
	logger *slog.Logger,
	config WorkerConfig,
) *Worker {
	return &Worker{
		queue:           queue,
		sender:          sender,
		renderer:        renderer,
		metrics:         metrics,
		logger:          logger.With("component", "email_worker"),
		pollInterval:    config.PollInterval,
		cleanupInterval: config.CleanupInterval,
		batchSize:       config.BatchSize,
		retentionDays:   config.RetentionDays,
		stop:            make(chan struct{}),
		done:            make(chan struct{}),
	}
}

// Start runs the worker loop until the context is cancelled or Stop is called.
func (w *Worker) Start(ctx context.Context) {
	defer close(w.done)

	w.logger.Info("Email worker started",
		"poll_interval", w.pollInterval,
		"batch_size", w.batchSize,
	)

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	cleanup := time.NewTicker(w.cleanupInterval)
	defer cleanup.Stop()

	w.processBatch(ctx)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Email worker shutting down")
			return
		case <-w.stop:
			w.logger.Info("Email worker stopped")
			return
		case <-ticker.C:
			w.processBatch(ctx)
		case <-cleanup.C:
			w.cleanup(ctx)
		}
	}
}

// Stop ends the loop started by Start and waits for it to return.
func (w *Worker) Stop() {
	w.stopOnce.Do(func() { close(w.stop) })
	<-w.done
}

// ProcessNow processes one batch of pending emails immediately.
func (w *Worker) ProcessNow(ctx context.Context) {
	w.processBatch(ctx)
}

func (w *Worker) processBatch(ctx context.Context) {
	jobs, err := w.queue.GetPendingJobs(ctx, w.batchSize)
	if err != nil {
		w.logger.Error("Failed to get pending email jobs", "error", err)
		return
	}

	if len(jobs) == 0 {
		return
	}

	w.logger.Debug("Processing email batch", "count", len(jobs))

	for _, job := range jobs {
		select {
		case <-ctx.Done():
			return
		default:
			w.processJob(ctx, job)
		}
	}
}

func (w *Worker) processJob(ctx context.Context, job *entity.EmailJob) {
	logger := w.logger.With(
		"job_id", job.ID,
		"template", job.TemplateType,
		"recipient", job.RecipientEmail,
	)

	job.MarkProcessing()
	if err := w.queue.Update(ctx, job); err != nil {
		logger.Error("Failed to mark job as processing", "error", err)
		return
	}

	html, text, err := w.renderTemplate(job)
	if err != nil {
		logger.Error("Failed to render email template", "error", err)
		// Template errors never succeed on retry
		w.handleFailure(ctx, job, err, true)
		return
	}

	result, err := w.sender.Send(ctx, adapter.SendEmailInput{
		To:      job.RecipientEmail,
		Name:    job.RecipientName,
		Subject: job.Subject,
		HTML:    html,
		Text:    text,
	})
	if err != nil {
		logger.Error("Failed to send email", "error", err)

		w.handleFailure(ctx, job, err, errors.Is(err, domainerror.ErrPermanentEmailFailure))
		return
	}

	job.MarkSent(result.ProviderID)
	if err := w.queue.Update(ctx, job); err != nil {
		logger.Error("Failed to mark job as sent", "error", err)
		return
	}

	w.metrics.RecordEmail(string(job.TemplateType), string(entity.EmailStatusSent))
	logger.Info("Email sent", "provider_id", result.ProviderID)
}

func (w *Worker) renderTemplate(job *entity.EmailJob) (html string, text string, err error) {
	var data any
	switch job.TemplateType {
	case entity.TemplateRecoveryCode:
		data = templates.RecoveryCodeData{
			UserName:  getString(job.TemplateData, "user_name"),
			Code:      getString(job.TemplateData, "code"),
			ExpiresIn: getString(job.TemplateData, "expires_in"),
			AppName:   getString(job.TemplateData, "app_name"),
		}
	case entity.TemplateAccountCreated:
		data = templates.AccountCreatedData{
			UserName: getString(job.TemplateData, "user_name"),
			AppName:  getString(job.TemplateData, "app_name"),
		}
	default:
		return "", "", domainerror.NewEmailError(
			domainerror.ErrCodeInvalidTemplate,
			"unknown template type",
			domainerror.ErrInvalidTemplate,
		)
	}

	html, text, err = w.renderer.Render(string(job.TemplateType), data)
	if err != nil {
		return "", "", domainerror.NewEmailError(
			domainerror.ErrCodeTemplateRenderFailed,
			string(job.TemplateType),
			fmt.Errorf("%w: %w", domainerror.ErrTemplateRenderFailed, err),
		)
	}
	return html, text, nil
}

func (w *Worker) handleFailure(ctx context.Context, job *entity.EmailJob, err error, permanent bool) {
	job.MarkFailed(err, permanent)

	if updateErr := w.queue.Update(ctx, job); updateErr != nil {
		w.logger.Error("Failed to update job after failure",
			"job_id", job.ID,
			"error", updateErr,
		)
	}

	if job.Status == entity.EmailStatusFailed {
		w.metrics.RecordEmail(string(job.TemplateType), string(entity.EmailStatusFailed))
		w.logger.Warn("Email job permanently failed",
			"job_id", job.ID,
			"attempts", job.Attempts,
			"last_error", job.LastError,
		)
		return
	}

	w.metrics.RecordEmail(string(job.TemplateType), "retry")
	w.logger.Info("Email job scheduled for retry",
		"job_id", job.ID,
		"attempts", job.Attempts,
		"scheduled_at", job.ScheduledAt,
	)
}

func (w *Worker) cleanup(ctx context.Context) {
	deleted, err := w.queue.DeleteOldSentJobs(ctx, w.retentionDays)
	if err != nil {
		w.logger.Error("Failed to delete old email jobs", "error", err)
		return
	}
	if deleted > 0 {
		w.logger.Info("Deleted old email jobs", "count", deleted)
	}
}

func getString(data map[string]any, key string) string {
	if v, ok := data[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
