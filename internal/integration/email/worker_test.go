package email

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/user-accounts/backend/internal/application/adapter"
	"github.com/user-accounts/backend/internal/domain/entity"
	"github.com/user-accounts/backend/internal/infra/observability"
	"github.com/user-accounts/backend/internal/integration/email/templates"
	"github.com/user-accounts/backend/internal/integration/persistence"
	tu "github.com/user-accounts/backend/internal/testutil"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type workerFixture struct {
	queue   adapter.EmailQueueRepository
	service *Service
	sender  *MockEmailSender
	metrics *observability.Metrics
	worker  *Worker
}

func newWorkerFixture(t *testing.T, cfg WorkerConfig) *workerFixture {
	t.Helper()

	queue := persistence.NewEmailQueueRepository(tu.NewDB(t))
	renderer, err := templates.NewRenderer()
	require.NoError(t, err)

	sender := NewMockEmailSender()
	metrics := observability.NewMetrics()

	return &workerFixture{
		queue:   queue,
		service: NewService(queue, "User Accounts"),
		sender:  sender,
		metrics: metrics,
		worker:  NewWorker(queue, sender, renderer, metrics, tu.Logger(), cfg),
	}
}

func (f *workerFixture) queueRecoveryCode(t *testing.T) {
	t.Helper()
	require.NoError(t, f.service.QueueRecoveryCodeEmail(context.Background(), adapter.QueueRecoveryCodeInput{
		UserEmail: "carol@x.com",
		UserName:  "carol",
		Code:      "123456",
		ExpiresIn: "15 minutes",
	}))
}

func (f *workerFixture) jobs(t *testing.T, email string) []*entity.EmailJob {
	t.Helper()
	jobs, err := f.queue.GetByRecipient(context.Background(), email)
	require.NoError(t, err)
	return jobs
}

func TestWorkerSendsQueuedEmails(t *testing.T) {
	f := newWorkerFixture(t, DefaultWorkerConfig())
	ctx := context.Background()

	f.queueRecoveryCode(t)
	require.NoError(t, f.service.QueueAccountCreatedEmail(ctx, adapter.QueueAccountCreatedInput{
		UserEmail: "dave@x.com",
		UserName:  "dave",
	}))

	f.worker.ProcessNow(ctx)

	sent := f.sender.SentEmails()
	require.Len(t, sent, 2)

	byRecipient := map[string]adapter.SendEmailInput{}
	for _, s := range sent {
		byRecipient[s.To] = s
	}
	assert.Contains(t, byRecipient["carol@x.com"].Text, "123456")
	assert.Equal(t, "Your password recovery code - User Accounts", byRecipient["carol@x.com"].Subject)
	assert.Contains(t, byRecipient["dave@x.com"].HTML, "Welcome, dave!")

	jobs := f.jobs(t, "carol@x.com")
	require.Len(t, jobs, 1)
	assert.Equal(t, entity.EmailStatusSent, jobs[0].Status)
	assert.NotEmpty(t, jobs[0].ProviderID)
	assert.NotNil(t, jobs[0].ProcessedAt)
	assert.NotContains(t, jobs[0].TemplateData, "code")
	assert.Equal(t, "carol", jobs[0].TemplateData["user_name"])

	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.EmailsTotal.WithLabelValues("recovery_code", "sent")))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.EmailsTotal.WithLabelValues("account_created", "sent")))

	// Nothing left to send
	f.worker.ProcessNow(ctx)
	assert.Len(t, f.sender.SentEmails(), 2)
}

func TestWorkerRetriesTemporaryFailures(t *testing.T) {
	f := newWorkerFixture(t, DefaultWorkerConfig())
	f.queueRecoveryCode(t)
	f.sender.SetFailure(errors.New("503 service unavailable"), false)

	f.worker.ProcessNow(context.Background())

	jobs := f.jobs(t, "carol@x.com")
	require.Len(t, jobs, 1)
	assert.Equal(t, entity.EmailStatusPending, jobs[0].Status)
	assert.Equal(t, 1, jobs[0].Attempts)
	assert.Contains(t, jobs[0].LastError, "503")
	assert.True(t, jobs[0].ScheduledAt.After(time.Now().UTC()))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.EmailsTotal.WithLabelValues("recovery_code", "retry")))
}

func TestWorkerPermanentFailure(t *testing.T) {
	f := newWorkerFixture(t, DefaultWorkerConfig())
	f.queueRecoveryCode(t)
	f.sender.SetFailure(errors.New("422 validation error"), true)

	f.worker.ProcessNow(context.Background())

	jobs := f.jobs(t, "carol@x.com")
	require.Len(t, jobs, 1)
	assert.Equal(t, entity.EmailStatusFailed, jobs[0].Status)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.EmailsTotal.WithLabelValues("recovery_code", "failed")))
}

func TestWorkerUnknownTemplateFailsPermanently(t *testing.T) {
	f := newWorkerFixture(t, DefaultWorkerConfig())
	ctx := context.Background()

	job := entity.NewEmailJob("newsletter", "erin@x.com", "erin", "News", map[string]any{})
	require.NoError(t, f.queue.Create(ctx, job))

	f.worker.ProcessNow(ctx)

	jobs := f.jobs(t, "erin@x.com")
	require.Len(t, jobs, 1)
	assert.Equal(t, entity.EmailStatusFailed, jobs[0].Status)
	assert.Empty(t, f.sender.SentEmails())
}

func TestWorkerStartAndStop(t *testing.T) {
	cfg := DefaultWorkerConfig()
	cfg.PollInterval = 10 * time.Millisecond
	f := newWorkerFixture(t, cfg)
	f.queueRecoveryCode(t)

	go f.worker.Start(context.Background())

	require.Eventually(t, func() bool {
		return len(f.sender.SentEmails()) == 1
	}, 2*time.Second, 10*time.Millisecond)

	f.worker.Stop()
	f.worker.Stop()
}

func TestWorkerStopsOnContextCancel(t *testing.T) {
	cfg := DefaultWorkerConfig()
	cfg.PollInterval = 10 * time.Millisecond
	f := newWorkerFixture(t, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		f.worker.Start(ctx)
		close(done)
	}()

	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop after cancel")
	}
}

func TestIsPermanentError(t *testing.T) {
	tests := []struct {
		err      error
		expected bool
	}{
		{errors.New("401 unauthorized"), true},
		{errors.New("422: validation_error"), true},
		{errors.New("429 rate limit exceeded"), false},
		{errors.New("500 internal server error"), false},
		{nil, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, isPermanentError(tt.err))
	}
}
