package steps

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/cucumber/godog"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/user-accounts/backend/internal/application/usecase/account"
	"github.com/user-accounts/backend/internal/domain/valueobject"
)

const emailsPath = "/emails"

var recoveryCodePattern = regexp.MustCompile(`recovery code: (\d+)`)

func (t *testContext) theAPIServerIsRunning() error {
	resp, err := t.client.Get(t.uri + "/health")
	if err != nil {
		return fmt.Errorf("test server is not running: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("test server is unhealthy: status %d", resp.StatusCode)
	}
	return nil
}

func (t *testContext) aUserExists(name, email, password string) error {
	out, err := t.injector.Accounts.Register.Execute(context.Background(), account.RegisterUserInput{
		Name:     name,
		Email:    email,
		Password: password,
	})
	if err != nil {
		return err
	}
	if out.Outcome != valueobject.RegisterOutcomeCreated {
		return fmt.Errorf("failed to create user %q: %s", name, out.Outcome)
	}
	t.currentUserID = out.User.ID
	return nil
}

func (t *testContext) iAmLoggedInAs(name, password string) error {
	payload, _ := json.Marshal(map[string]any{
		"name":        name,
		"password":    password,
		"issue_token": true,
	})
	if err := t.executeRequest(http.MethodPost, "/api/v1/auth/login", payload); err != nil {
		return err
	}
	if err := t.theResponseStatusShouldBe(http.StatusOK); err != nil {
		return err
	}

	token, ok := getFieldValue(t.response.body, "access_token").(string)
	if !ok || token == "" {
		return fmt.Errorf("login returned no access token: %v", t.response.body)
	}
	t.accessToken = token
	return nil
}

func (t *testContext) iHaveStartedASession() error {
	if err := t.executeRequest(http.MethodPost, "/api/v1/sessions", nil); err != nil {
		return err
	}
	if err := t.theResponseStatusShouldBe(http.StatusCreated); err != nil {
		return err
	}
	if t.sessionID == "" {
		return fmt.Errorf("session id missing from response: %v", t.response.body)
	}
	return nil
}

func (t *testContext) minutesHavePassed(minutes int) error {
	t.timeMock.Advance(time.Duration(minutes) * time.Minute)
	return nil
}

func (t *testContext) theEmailProviderAnswersWithStatus(status int) error {
	t.resendAPI.SetResponseStatus(http.MethodPost, emailsPath, status)
	return nil
}

func (t *testContext) theEmailWorkerRuns() error {
	t.injector.EmailWorker.ProcessNow(context.Background())
	return nil
}

func (t *testContext) anEmailShouldHaveBeenSent(subject, recipient string) error {
	requests := t.resendAPI.GetRequests(http.MethodPost, emailsPath)
	for _, request := range requests {
		if request["subject"] != subject || !sentTo(request, recipient) {
			continue
		}
		if text, ok := request["text"].(string); ok {
			if match := recoveryCodePattern.FindStringSubmatch(text); match != nil {
				t.recoveryCode = match[1]
			}
		}
		return nil
	}
	return fmt.Errorf("no email %q sent to %s among %d requests", subject, recipient, len(requests))
}

func sentTo(request map[string]any, recipient string) bool {
	to, ok := request["to"].([]any)
	if !ok {
		return false
	}
	for _, address := range to {
		if address == recipient {
			return true
		}
	}
	return false
}

func (t *testContext) noEmailShouldHaveBeenSent() error {
	if requests := t.resendAPI.GetRequests(http.MethodPost, emailsPath); len(requests) > 0 {
		return fmt.Errorf("expected no email, got %d", len(requests))
	}
	return nil
}

func (t *testContext) theHeaderIsEmpty() error {
	t.headers = make(map[string]string)
	t.accessToken = ""
	return nil
}

func (t *testContext) theHeaderContainsTheKeyWith(key, value string) error {
	t.headers[key] = value
	return nil
}

func (t *testContext) iSendARequestTo(method, path string) error {
	path = t.replacePlaceholders(path)
	return t.executeRequest(method, path, nil)
}

func (t *testContext) iSendARequestToWithBody(method, path string, body *godog.DocString) error {
	path = t.replacePlaceholders(path)

	var payload []byte
	if body != nil && body.Content != "" {
		payload = []byte(t.replacePlaceholders(body.Content))
	}

	return t.executeRequest(method, path, payload)
}

func (t *testContext) replacePlaceholders(content string) string {
	content = strings.ReplaceAll(content, "{{access_token}}", t.accessToken)
	content = strings.ReplaceAll(content, "{{session_id}}", t.sessionID)
	content = strings.ReplaceAll(content, "{{recovery_code}}", t.recoveryCode)
	content = strings.ReplaceAll(content, "{{user_id}}", t.currentUserID.String())
	return content
}

func (t *testContext) executeRequest(method, path string, payload []byte) error {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, t.uri+path, body)
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/json")
	if t.accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+t.accessToken)
	}
	for key, value := range t.headers {
		req.Header.Set(key, value)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	t.response = &response{status: resp.StatusCode}

	var responseBody map[string]any
	if err := json.Unmarshal(bodyBytes, &responseBody); err != nil {
		t.response.body = string(bodyBytes)
		return nil
	}
	t.response.body = responseBody

	// Session responses carry their id; keep it for {{session_id}}.
	if strings.HasPrefix(path, "/api/v1/sessions") {
		if id, ok := responseBody["id"].(string); ok {
			if _, err := uuid.Parse(id); err == nil {
				t.sessionID = id
			}
		}
	}

	return nil
}

func (t *testContext) theResponseStatusShouldBe(expectedStatus int) error {
	if t.response == nil {
		return errors.New("no response received")
	}
	if t.response.status != expectedStatus {
		return fmt.Errorf("expected status %d, got %d (body: %v)", expectedStatus, t.response.status, t.response.body)
	}
	return nil
}

func (t *testContext) theResponseShouldBeJSON() error {
	if t.response == nil {
		return errors.New("no response received")
	}
	if _, ok := t.response.body.(map[string]any); !ok {
		return fmt.Errorf("response is not JSON: %v", t.response.body)
	}
	return nil
}

func (t *testContext) theResponseShouldContain(field string) error {
	if t.response == nil {
		return errors.New("no response received")
	}
	if getFieldValue(t.response.body, field) == nil {
		return fmt.Errorf("response does not contain field '%s': %v", field, t.response.body)
	}
	return nil
}

func (t *testContext) theResponseShouldNotContain(field string) error {
	if t.response == nil {
		return errors.New("no response received")
	}
	if getFieldValue(t.response.body, field) != nil {
		return fmt.Errorf("response should not contain field '%s': %v", field, t.response.body)
	}
	return nil
}

func (t *testContext) theResponseFieldShouldBe(field, expectedValue string) error {
	if t.response == nil {
		return errors.New("no response received")
	}

	value := getFieldValue(t.response.body, field)
	if value == nil {
		return fmt.Errorf("field '%s' not found in response: %v", field, t.response.body)
	}

	expectedValue = t.replacePlaceholders(expectedValue)
	if actualValue := fmt.Sprintf("%v", value); actualValue != expectedValue {
		return fmt.Errorf("field '%s' expected '%s', got '%s'", field, expectedValue, actualValue)
	}
	return nil
}

func (t *testContext) theResponseFieldShouldExist(field string) error {
	return t.theResponseShouldContain(field)
}

func (t *testContext) theDbShouldContainObjectsInTheTable(quantity int, table string) error {
	return t.countRows(quantity, table, nil)
}

func (t *testContext) theDbShouldContainObjectsInWithTheValues(quantity int, table string, content *godog.DocString) error {
	var criteria map[string]any
	if err := json.Unmarshal([]byte(content.Content), &criteria); err != nil {
		return err
	}
	return t.countRows(quantity, table, criteria)
}

func (t *testContext) countRows(quantity int, table string, criteria map[string]any) error {
	entity, ok := t.db.GetModel(table)
	if !ok {
		return fmt.Errorf("table '%s' not found in models", table)
	}

	entityType := reflect.TypeOf(entity).Elem()
	entitySlicePtr := reflect.New(reflect.SliceOf(entityType))

	query := t.db.DbConn.Unscoped()
	for key, value := range criteria {
		query = query.Where(fmt.Sprintf("%s = ?", key), value)
	}

	result := query.Find(entitySlicePtr.Interface())
	if result.Error != nil && !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return result.Error
	}

	if count := entitySlicePtr.Elem().Len(); count != quantity {
		return fmt.Errorf("expected %d objects in '%s' with criteria %v, got %d", quantity, table, criteria, count)
	}
	return nil
}

func getFieldValue(object any, dotSeparatedField string) any {
	objectMap, ok := object.(map[string]any)
	if !ok {
		return nil
	}

	var field any = objectMap
	for _, currentField := range strings.Split(dotSeparatedField, ".") {
		if i, err := strconv.Atoi(currentField); err == nil {
			arr, ok := field.([]any)
			if !ok || i >= len(arr) {
				return nil
			}
			field = arr[i]
			continue
		}

		m, ok := field.(map[string]any)
		if !ok {
			return nil
		}
		field = m[currentField]
		if field == nil {
			return nil
		}
	}
	return field
}
