package mock

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
)

// ResendAPI is an HTTP stand-in for the Resend email API. It records every
// request body by method and path and answers with a configurable status.
type ResendAPI struct {
	mu               sync.Mutex
	server           *httptest.Server
	requestsReceived map[string][]map[string]any
	responseStatus   map[string]int
}

func NewResendAPI() *ResendAPI {
	return &ResendAPI{
		requestsReceived: map[string][]map[string]any{},
		responseStatus:   map[string]int{},
	}
}

func (a *ResendAPI) Start() {
	a.server = httptest.NewServer(http.HandlerFunc(a.handle))
}

func (a *ResendAPI) Close() {
	if a.server != nil {
		a.server.Close()
	}
}

func (a *ResendAPI) GetUrl() string {
	return a.server.URL
}

func (a *ResendAPI) handle(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	var request map[string]any
	_ = json.Unmarshal(body, &request)
	if request == nil {
		request = map[string]any{}
	}

	key := r.Method + r.URL.Path

	a.mu.Lock()
	a.requestsReceived[key] = append(a.requestsReceived[key], request)
	index := len(a.requestsReceived[key])
	status, ok := a.responseStatus[key]
	a.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if !ok || status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)

	if status >= http.StatusBadRequest {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"statusCode": status,
			"name":       "mock_error",
			"message":    strconv.Itoa(status) + " " + http.StatusText(status),
		})
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]any{"id": "mock-email-" + strconv.Itoa(index)})
}

// SetResponseStatus makes every following request to method and path answer
// with status.
func (a *ResendAPI) SetResponseStatus(method, path string, status int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.responseStatus[method+path] = status
}

// GetRequests returns the bodies received on method and path, oldest first.
func (a *ResendAPI) GetRequests(method, path string) []map[string]any {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]map[string]any, len(a.requestsReceived[method+path]))
	copy(out, a.requestsReceived[method+path])
	return out
}

func (a *ResendAPI) Clear() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.requestsReceived = map[string][]map[string]any{}
	a.responseStatus = map[string]int{}
}
