// Package dependency provides dependency injection for the application.
package dependency

import (
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/user-accounts/backend/config"
	"github.com/user-accounts/backend/internal/application/adapter"
	"github.com/user-accounts/backend/internal/application/usecase/account"
	"github.com/user-accounts/backend/internal/application/usecase/auth"
	"github.com/user-accounts/backend/internal/application/usecase/session"
	"github.com/user-accounts/backend/internal/domain/valueobject"
	"github.com/user-accounts/backend/internal/infra/observability"
	"github.com/user-accounts/backend/internal/infra/server/router"
	"github.com/user-accounts/backend/internal/integration/adapters"
	"github.com/user-accounts/backend/internal/integration/cache"
	"github.com/user-accounts/backend/internal/integration/email"
	"github.com/user-accounts/backend/internal/integration/email/templates"
	"github.com/user-accounts/backend/internal/integration/entrypoint/controller"
	"github.com/user-accounts/backend/internal/integration/entrypoint/middleware"
	"github.com/user-accounts/backend/internal/integration/persistence"
)

// Accounts holds the account use cases and what they need. It is enough for
// the command line tool, which runs without Redis or HTTP.
type Accounts struct {
	UserRepo        adapter.UserRepository
	RoleRepo        adapter.RoleRepository
	EmailQueue      adapter.EmailQueueRepository
	EmailService    *email.Service
	PasswordService adapter.PasswordService
	TokenService    adapter.TokenService
	Clock           adapter.Clock
	Metrics         *observability.Metrics

	Register     *account.RegisterUserUseCase
	Update       *account.UpdateUserUseCase
	Delete       *account.DeleteUserUseCase
	Get          *account.GetUserUseCase
	List         *account.ListUsersUseCase
	Authenticate *auth.AuthenticateUserUseCase
	Login        *auth.LoginUserUseCase
}

// NewAccounts wires the account use cases on db.
func NewAccounts(cfg *config.Config, db *gorm.DB, metrics *observability.Metrics, clock adapter.Clock, logger *slog.Logger) *Accounts {
	userRepo := persistence.NewUserRepository(db)
	emailQueue := persistence.NewEmailQueueRepository(db)
	emailService := email.NewService(emailQueue, cfg.Email.FromName)

	passwordService := adapters.NewPasswordService(adapters.HashScheme(cfg.Auth.HashScheme), NewPasswordPolicy(cfg))
	tokenService := adapters.NewTokenService(cfg.JWT.Secret, cfg.JWT.AccessTokenExpiry, clock)

	authenticate := auth.NewAuthenticateUserUseCase(userRepo, passwordService, metrics, logger)

	return &Accounts{
		UserRepo:        userRepo,
		RoleRepo:        persistence.NewRoleRepository(db),
		EmailQueue:      emailQueue,
		EmailService:    emailService,
		PasswordService: passwordService,
		TokenService:    tokenService,
		Clock:           clock,
		Metrics:         metrics,

		Register:     account.NewRegisterUserUseCase(userRepo, passwordService, emailService, metrics, clock, logger),
		Update:       account.NewUpdateUserUseCase(userRepo, passwordService, metrics, clock, logger),
		Delete:       account.NewDeleteUserUseCase(userRepo, metrics, logger),
		Get:          account.NewGetUserUseCase(userRepo),
		List:         account.NewListUsersUseCase(userRepo),
		Authenticate: authenticate,
		Login:        auth.NewLoginUserUseCase(authenticate, tokenService),
	}
}

// NewPasswordPolicy builds the password gates from the auth configuration.
// Unset or non-positive thresholds keep their defaults.
func NewPasswordPolicy(cfg *config.Config) valueobject.PasswordPolicy {
	policy := valueobject.DefaultPasswordPolicy()
	if cfg.Auth.MinPasswordLength > 0 {
		policy.MinLength = cfg.Auth.MinPasswordLength
	}
	if cfg.Auth.MinPasswordStrength > 0 {
		policy.MinStrength = valueobject.PasswordStrengthScore(cfg.Auth.MinPasswordStrength)
	}
	return policy
}

// Injector holds all application dependencies.
type Injector struct {
	Config      *config.Config
	DB          *gorm.DB
	Redis       *redis.Client
	Accounts    *Accounts
	Flow        *session.Flow
	EmailSender adapter.EmailSender
	EmailWorker *email.Worker
	RateLimiter *middleware.RateLimiter
	Router      *router.Router
}

// HealthCheckers are the checks served on /health.
type HealthCheckers struct {
	Database controller.HealthChecker
	Cache    controller.HealthChecker
}

// Options overrides collaborators, mostly for tests.
type Options struct {
	Metrics     *observability.Metrics
	Clock       adapter.Clock
	EmailSender adapter.EmailSender
}

// NewInjector creates a new dependency injector with all dependencies wired.
func NewInjector(
	cfg *config.Config,
	db *gorm.DB,
	redisClient *redis.Client,
	health HealthCheckers,
	logger *slog.Logger,
	opts Options,
) (*Injector, error) {
	metrics := opts.Metrics
	if metrics == nil {
		metrics = observability.NewMetrics()
	}
	clock := opts.Clock
	if clock == nil {
		clock = adapter.SystemClock{}
	}

	accounts := NewAccounts(cfg, db, metrics, clock, logger)

	flow := session.NewFlow(session.Dependencies{
		Store:           cache.NewSessionStore(redisClient, cfg.Auth.SessionTTL),
		UserRepo:        accounts.UserRepo,
		PasswordService: accounts.PasswordService,
		Codes:           adapters.NewRecoveryCodeService(cfg.Auth.RecoveryCodeDigits),
		EmailService:    accounts.EmailService,
		Authenticate:    accounts.Authenticate,
		Register:        accounts.Register,
		Update:          accounts.Update,
		Clock:           clock,
		Metrics:         metrics,
		Logger:          logger,
	}, session.Config{
		RecoveryCodeTTL:     cfg.Auth.RecoveryCodeTTL,
		MaxRecoveryAttempts: cfg.Auth.RecoveryMaxAttempts,
		ExposeRecoveryCode:  cfg.Auth.ExposeRecoveryCode,
	})

	sender, err := newEmailSender(cfg, opts.EmailSender, logger)
	if err != nil {
		return nil, err
	}

	renderer, err := templates.NewRenderer()
	if err != nil {
		return nil, fmt.Errorf("failed to load email templates: %w", err)
	}

	worker := email.NewWorker(accounts.EmailQueue, sender, renderer, metrics, logger, email.WorkerConfig{
		PollInterval:    cfg.Email.PollInterval,
		CleanupInterval: email.DefaultWorkerConfig().CleanupInterval,
		BatchSize:       cfg.Email.BatchSize,
		RetentionDays:   cfg.Email.RetentionDays,
	})

	loginRateLimiter := middleware.NewRateLimiter(redisClient, "login", cfg.RateLimit.LoginAttempts, cfg.RateLimit.Window, logger)

	r := router.NewRouter(router.Dependencies{
		HealthController:  controller.NewHealthController(health.Database, health.Cache),
		AuthController:    controller.NewAuthController(accounts.Login, accounts.Get, clock, logger),
		UserController:    controller.NewUserController(accounts.Register, accounts.Update, accounts.Delete, accounts.Get, accounts.List, logger),
		SessionController: controller.NewSessionController(flow, logger),
		LoginRateLimiter:  loginRateLimiter,
		AuthMiddleware:    middleware.NewAuthMiddleware(accounts.TokenService),
		HTTPMetrics:       metrics,
		MetricsHandler:    metrics.Handler(),
		Logger:            logger,
	})

	return &Injector{
		Config:      cfg,
		DB:          db,
		Redis:       redisClient,
		Accounts:    accounts,
		Flow:        flow,
		EmailSender: sender,
		EmailWorker: worker,
		RateLimiter: loginRateLimiter,
		Router:      r,
	}, nil
}

// newEmailSender picks Resend when an API key is configured and records
// emails in memory otherwise.
func newEmailSender(cfg *config.Config, override adapter.EmailSender, logger *slog.Logger) (adapter.EmailSender, error) {
	if override != nil {
		return override, nil
	}
	if cfg.Email.ResendAPIKey == "" {
		logger.Warn("RESEND_API_KEY not set, emails will not be delivered")
		return email.NewMockEmailSender(), nil
	}
	client, err := email.NewResendClient(cfg.Email.ResendAPIKey, cfg.Email.ResendBaseURL, cfg.Email.FromName, cfg.Email.FromEmail)
	if err != nil {
		return nil, err
	}
	return client, nil
}
