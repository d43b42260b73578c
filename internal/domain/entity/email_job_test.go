package entity

import (
	"errors"
	"testing"
)

func TestEmailJobMarkFailed(t *testing.T) {
	tests := []struct {
		name           string
		failures       int
		permanent      bool
		expectedStatus EmailStatus
	}{
		{name: "first temporary failure is rescheduled", failures: 1, expectedStatus: EmailStatusPending},
		{name: "permanent failure stops retries", failures: 1, permanent: true, expectedStatus: EmailStatusFailed},
		{name: "exhausted attempts fail", failures: 3, expectedStatus: EmailStatusFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job := NewEmailJob(TemplateRecoveryCode, "a@example.com", "a", "subject", nil)
			for i := 0; i < tt.failures; i++ {
				job.MarkFailed(errors.New("boom"), tt.permanent)
			}
			if job.Status != tt.expectedStatus {
				t.Errorf("Status = %s, want %s", job.Status, tt.expectedStatus)
			}
			if job.LastError != "boom" {
				t.Errorf("LastError = %q, want %q", job.LastError, "boom")
			}
			if tt.expectedStatus == EmailStatusFailed && job.ProcessedAt == nil {
				t.Error("ProcessedAt not set on failed job")
			}
		})
	}
}

func TestEmailJobDropsRecoveryCodeWhenFinished(t *testing.T) {
	data := func() map[string]any {
		return map[string]any{"code": "123456", "user_name": "carol"}
	}

	sent := NewEmailJob(TemplateRecoveryCode, "c@example.com", "carol", "subject", data())
	sent.MarkSent("msg-1")
	if _, ok := sent.TemplateData["code"]; ok {
		t.Error("sent job still holds the recovery code")
	}
	if sent.TemplateData["user_name"] != "carol" {
		t.Errorf("user_name = %v, want carol", sent.TemplateData["user_name"])
	}

	retried := NewEmailJob(TemplateRecoveryCode, "c@example.com", "carol", "subject", data())
	retried.MarkFailed(errors.New("503"), false)
	if retried.TemplateData["code"] != "123456" {
		t.Error("rescheduled job lost the recovery code")
	}

	failed := NewEmailJob(TemplateRecoveryCode, "c@example.com", "carol", "subject", data())
	failed.MarkFailed(errors.New("422"), true)
	if _, ok := failed.TemplateData["code"]; ok {
		t.Error("failed job still holds the recovery code")
	}
}

func TestEmailJobMarkSent(t *testing.T) {
	job := NewEmailJob(TemplateAccountCreated, "a@example.com", "a", "subject", nil)
	job.MarkProcessing()
	job.MarkSent("msg-1")

	if job.Status != EmailStatusSent || job.ProviderID != "msg-1" || job.ProcessedAt == nil {
		t.Errorf("unexpected job after MarkSent: %+v", job)
	}
}
