// Package steps provides step definitions for BDD integration tests.
package steps

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/cucumber/godog"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/user-accounts/backend/config"
	"github.com/user-accounts/backend/internal/infra/dependency"
	"github.com/user-accounts/backend/internal/infra/observability"
	"github.com/user-accounts/backend/internal/integration/persistence/model"
	"github.com/user-accounts/backend/test/integration/mock"
)

const testJWTSecret = "test-jwt-secret-key-for-testing-purposes"

// suite holds what every scenario shares: one server over one database,
// one Redis and one email provider stand-in.
type suite struct {
	server    *httptest.Server
	injector  *dependency.Injector
	db        *mock.Db
	redis     *miniredis.Miniredis
	redisConn *redis.Client
	resendAPI *mock.ResendAPI
	timeMock  *mock.Time
}

var shared *suite

type testContext struct {
	*suite

	uri           string
	headers       map[string]string
	client        *http.Client
	response      *response
	accessToken   string
	sessionID     string
	recoveryCode  string
	currentUserID uuid.UUID
}

type response struct {
	status int
	body   any
}

// InitializeTestSuite starts the server before any scenario runs.
func InitializeTestSuite(ctx *godog.TestSuiteContext) {
	ctx.BeforeSuite(func() {
		gin.SetMode(gin.TestMode)
		shared = startSuite()
	})

	ctx.AfterSuite(func() {
		if shared == nil {
			return
		}
		shared.server.Close()
		shared.resendAPI.Close()
		_ = shared.redisConn.Close()
		shared.redis.Close()
	})
}

func startSuite() *suite {
	s := &suite{
		db: mock.NewDb(map[string]any{
			"users":       &model.UserModel{},
			"roles":       &model.RoleModel{},
			"email_queue": &model.EmailQueueModel{},
		}),
		resendAPI: mock.NewResendAPI(),
		timeMock:  mock.NewTime(),
	}
	s.redis, s.redisConn = mock.NewRedis()
	s.resendAPI.Start()

	cfg := config.Load()
	cfg.Server.Environment = "test"
	cfg.JWT.Secret = testJWTSecret
	cfg.Auth.ExposeRecoveryCode = false
	cfg.Email.ResendAPIKey = "re_test_key"
	cfg.Email.ResendBaseURL = s.resendAPI.GetUrl()
	cfg.RateLimit.LoginAttempts = 5
	cfg.RateLimit.Window = time.Minute

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	injector, err := dependency.NewInjector(cfg, s.db.DbConn, s.redisConn, dependency.HealthCheckers{
		Database: func(ctx context.Context) error {
			sqlDB, err := s.db.DbConn.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
		Cache: func(ctx context.Context) error { return s.redisConn.Ping(ctx).Err() },
	}, logger, dependency.Options{
		Metrics: observability.NewMetrics(),
		Clock:   s.timeMock,
	})
	if err != nil {
		panic(fmt.Sprintf("failed to wire application: %v", err))
	}

	s.injector = injector
	s.server = httptest.NewServer(injector.Router.Setup(cfg.Server.Environment))
	return s
}

// InitializeScenario registers all step definitions.
func InitializeScenario(ctx *godog.ScenarioContext) {
	test := &testContext{
		client: &http.Client{Timeout: 10 * time.Second},
	}

	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		return ctx, test.before(ctx)
	})

	// Background steps
	ctx.Given(`^the API server is running$`, test.theAPIServerIsRunning)

	// Account setup steps
	ctx.Given(`^a user "([^"]*)" exists with email "([^"]*)" and password "([^"]*)"$`, test.aUserExists)
	ctx.Given(`^I am logged in as "([^"]*)" with password "([^"]*)"$`, test.iAmLoggedInAs)

	// Session steps
	ctx.Given(`^I have started a session$`, test.iHaveStartedASession)
	ctx.Given(`^(\d+) minutes have passed$`, test.minutesHavePassed)

	// Email steps
	ctx.Given(`^the email provider answers with status (\d+)$`, test.theEmailProviderAnswersWithStatus)
	ctx.When(`^the email worker runs$`, test.theEmailWorkerRuns)
	ctx.Then(`^an email with subject "([^"]*)" should have been sent to "([^"]*)"$`, test.anEmailShouldHaveBeenSent)
	ctx.Then(`^no email should have been sent$`, test.noEmailShouldHaveBeenSent)

	// Header steps
	ctx.Given(`^the header is empty$`, test.theHeaderIsEmpty)
	ctx.Given(`^the header contains the key "([^"]*)" with "([^"]*)"$`, test.theHeaderContainsTheKeyWith)

	// Request steps
	ctx.When(`^I send a "([^"]*)" request to "([^"]*)"$`, test.iSendARequestTo)
	ctx.When(`^I send a "([^"]*)" request to "([^"]*)" with body:$`, test.iSendARequestToWithBody)

	// Response assertion steps
	ctx.Then(`^the response status should be (\d+)$`, test.theResponseStatusShouldBe)
	ctx.Then(`^the response should be JSON$`, test.theResponseShouldBeJSON)
	ctx.Then(`^the response should contain "([^"]*)"$`, test.theResponseShouldContain)
	ctx.Then(`^the response should not contain "([^"]*)"$`, test.theResponseShouldNotContain)
	ctx.Then(`^the response field "([^"]*)" should be "([^"]*)"$`, test.theResponseFieldShouldBe)
	ctx.Then(`^the response field "([^"]*)" should exist$`, test.theResponseFieldShouldExist)

	// Database assertion steps
	ctx.Then(`^the db should contain (\d+) objects in the "([^"]*)" table$`, test.theDbShouldContainObjectsInTheTable)
	ctx.Then(`^the db should contain (\d+) objects in "([^"]*)" with the values$`, test.theDbShouldContainObjectsInWithTheValues)
}

func (t *testContext) before(ctx context.Context) error {
	if shared == nil {
		return fmt.Errorf("test suite not initialized")
	}

	t.suite = shared
	t.uri = shared.server.URL
	t.headers = make(map[string]string)
	t.response = nil
	t.accessToken = ""
	t.sessionID = ""
	t.recoveryCode = ""
	t.currentUserID = uuid.Nil

	t.timeMock.SetCurrentTime(time.Now().UTC())
	t.resendAPI.Clear()
	if err := mock.ClearRedis(t.redisConn); err != nil {
		return err
	}
	if err := t.db.ClearDB(); err != nil {
		return err
	}
	return t.injector.Accounts.RoleRepo.EnsureDefaults(ctx)
}
