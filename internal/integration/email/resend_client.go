package email

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/resend/resend-go/v2"

	"github.com/user-accounts/backend/internal/application/adapter"
	domainerror "github.com/user-accounts/backend/internal/domain/error"
)

// ResendClient implements adapter.EmailSender using Resend.
type ResendClient struct {
	client    *resend.Client
	fromName  string
	fromEmail string
}

// NewResendClient creates a new Resend client. An empty baseURL keeps the
// public API endpoint.
func NewResendClient(apiKey, baseURL, fromName, fromEmail string) (*ResendClient, error) {
	client := resend.NewClient(apiKey)
	if baseURL != "" {
		if !strings.HasSuffix(baseURL, "/") {
			baseURL += "/"
		}
		parsed, err := url.Parse(baseURL)
		if err != nil {
			return nil, fmt.Errorf("invalid resend base url: %w", err)
		}
		client.BaseURL = parsed
	}

	return &ResendClient{
		client:    client,
		fromName:  fromName,
		fromEmail: fromEmail,
	}, nil
}

// Send sends an email via Resend.
func (c *ResendClient) Send(ctx context.Context, input adapter.SendEmailInput) (*adapter.SendEmailResult, error) {
	params := &resend.SendEmailRequest{
		From:    fmt.Sprintf("%s <%s>", c.fromName, c.fromEmail),
		To:      []string{input.To},
		Subject: input.Subject,
		Html:    input.HTML,
		Text:    input.Text,
	}

	resp, err := c.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		if isPermanentError(err) {
			return nil, domainerror.NewEmailError(
				domainerror.ErrCodePermanentEmailFailure,
				"resend rejected the email",
				fmt.Errorf("%w: %w", domainerror.ErrPermanentEmailFailure, err),
			)
		}
		return nil, domainerror.NewEmailError(
			domainerror.ErrCodeTemporaryEmailFailure,
			"resend request failed",
			fmt.Errorf("%w: %w", domainerror.ErrTemporaryEmailFailure, err),
		)
	}
	if resp == nil || resp.Id == "" {
		return nil, domainerror.NewEmailError(
			domainerror.ErrCodeEmailSendFailed,
			"resend returned no message id",
			domainerror.ErrEmailSendFailed,
		)
	}

	return &adapter.SendEmailResult{
		ProviderID: resp.Id,
	}, nil
}

var permanentPatterns = []string{
	"401",
	"403",
	"422",
	"unauthorized",
	"forbidden",
	"validation",
	"invalid",
	"bad request",
}

// isPermanentError reports whether a Resend failure should not be retried.
// Rate limits and 5xx responses are temporary.
func isPermanentError(err error) bool {
	if err == nil {
		return false
	}

	msg := strings.ToLower(err.Error())
	for _, pattern := range permanentPatterns {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}

// MockEmailSender records emails instead of sending them. It is used when no
// Resend API key is configured and in tests.
type MockEmailSender struct {
	mu          sync.Mutex
	sent        []adapter.SendEmailInput
	failErr     error
	isPermanent bool
}

// NewMockEmailSender creates a new mock email sender.
func NewMockEmailSender() *MockEmailSender {
	return &MockEmailSender{}
}

// Send implements adapter.EmailSender.
func (m *MockEmailSender) Send(_ context.Context, input adapter.SendEmailInput) (*adapter.SendEmailResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failErr != nil {
		code, sentinel := domainerror.ErrCodeTemporaryEmailFailure, domainerror.ErrTemporaryEmailFailure
		if m.isPermanent {
			code, sentinel = domainerror.ErrCodePermanentEmailFailure, domainerror.ErrPermanentEmailFailure
		}
		return nil, domainerror.NewEmailError(code, "mock failure", fmt.Errorf("%w: %w", sentinel, m.failErr))
	}

	m.sent = append(m.sent, input)
	return &adapter.SendEmailResult{
		ProviderID: fmt.Sprintf("mock-%d", len(m.sent)),
	}, nil
}

// SentEmails returns a copy of every email sent so far.
func (m *MockEmailSender) SentEmails() []adapter.SendEmailInput {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]adapter.SendEmailInput(nil), m.sent...)
}

// SetFailure makes every following Send fail with err.
func (m *MockEmailSender) SetFailure(err error, permanent bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failErr = err
	m.isPermanent = permanent
}

// Reset clears sent emails and the failure configuration.
func (m *MockEmailSender) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = nil
	m.failErr = nil
	m.isPermanent = false
}

var (
	_ adapter.EmailSender = (*ResendClient)(nil)
	_ adapter.EmailSender = (*MockEmailSender)(nil)
)
