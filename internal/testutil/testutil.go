// Package testutil holds helpers shared by unit tests.
package testutil

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/user-accounts/backend/internal/application/adapter"
	"github.com/user-accounts/backend/internal/integration/persistence/model"
)

// NewDB opens a private in-memory SQLite database with the full schema.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.AutoMigrate(model.All()...); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// Logger returns a logger that discards everything.
func Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Clock is a manually advanced adapter.Clock.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock starts a clock at now.
func NewClock(now time.Time) *Clock {
	return &Clock{now: now}
}

// Now returns the current fake time.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Outbox records queued emails instead of persisting them.
type Outbox struct {
	mu            sync.Mutex
	RecoveryCodes []adapter.QueueRecoveryCodeInput
	Welcomes      []adapter.QueueAccountCreatedInput
	Err           error
}

var _ adapter.EmailService = (*Outbox)(nil)

// QueueRecoveryCodeEmail records the recovery email.
func (o *Outbox) QueueRecoveryCodeEmail(_ context.Context, input adapter.QueueRecoveryCodeInput) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.Err != nil {
		return o.Err
	}
	o.RecoveryCodes = append(o.RecoveryCodes, input)
	return nil
}

// QueueAccountCreatedEmail records the welcome email.
func (o *Outbox) QueueAccountCreatedEmail(_ context.Context, input adapter.QueueAccountCreatedInput) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.Err != nil {
		return o.Err
	}
	o.Welcomes = append(o.Welcomes, input)
	return nil
}

// LastRecoveryCode returns the most recent code sent to email, or "".
func (o *Outbox) LastRecoveryCode(email string) string {
	o.mu.Lock()
	defer o.mu.Unlock()
	for i := len(o.RecoveryCodes) - 1; i >= 0; i-- {
		if o.RecoveryCodes[i].UserEmail == email {
			return o.RecoveryCodes[i].Code
		}
	}
	return ""
}
