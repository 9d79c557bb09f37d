package httpx

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"
)

// Mock HTTP RoundTripper: answers with a fixed script of responses/errors.
type mockRoundTripper struct {
	responses []*http.Response
	errors    []error
	index     int
	mux       sync.Mutex

	requestIDs []string
}

func (m *mockRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	m.mux.Lock()
	defer m.mux.Unlock()

	m.requestIDs = append(m.requestIDs, req.Header.Get("X-Request-ID"))

	if m.index >= len(m.responses) {
		return nil, errors.New("no more responses")
	}
	resp := m.responses[m.index]
	err := m.errors[m.index]
	m.index++
	return resp, err
}

func newMockClient(responses []*http.Response, errs []error) (*http.Client, *mockRoundTripper) {
	for len(errs) < len(responses) {
		errs = append(errs, nil)
	}
	rt := &mockRoundTripper{responses: responses, errors: errs}
	return &http.Client{Transport: rt}, rt
}

func newMockResponse(statusCode int, body string, headers map[string]string) *http.Response {
	header := http.Header{}
	for k, v := range headers {
		header.Set(k, v)
	}
	return &http.Response{
		StatusCode: statusCode,
		Body:       io.NopCloser(bytes.NewBufferString(body)),
		Header:     header,
	}
}

func buildGet(ctx context.Context) (*http.Request, error) {
	return http.NewRequestWithContext(ctx, http.MethodGet, "https://example.com", nil)
}

func fastRetry() RetryConfig {
	return RetryConfig{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}
}

func TestDoSuccess(t *testing.T) {
	client, _ := newMockClient([]*http.Response{newMockResponse(200, `{"ok":true}`, nil)}, nil)

	body, err := Do(context.Background(), client, buildGet, fastRetry())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if string(body) != `{"ok":true}` {
		t.Errorf("Expected body %q, got %q", `{"ok":true}`, string(body))
	}
}

func TestDoNonRetryableStatus(t *testing.T) {
	client, rt := newMockClient([]*http.Response{newMockResponse(401, `{"message":"Invalid email or password"}`, nil)}, nil)

	_, err := Do(context.Background(), client, buildGet, fastRetry())
	herr, ok := AsHTTPError(err)
	if !ok {
		t.Fatalf("Expected HTTPError, got %v", err)
	}
	if herr.StatusCode != 401 {
		t.Errorf("Expected status 401, got %d", herr.StatusCode)
	}
	if got := herr.Message("fallback"); got != "Invalid email or password" {
		t.Errorf("Expected service message, got %q", got)
	}
	if len(rt.requestIDs) != 1 {
		t.Errorf("Expected a single attempt for 401, got %d", len(rt.requestIDs))
	}
}

func TestDoRetriesRetryableStatus(t *testing.T) {
	client, rt := newMockClient([]*http.Response{
		newMockResponse(429, `rate limited`, map[string]string{"Retry-After": "0"}),
		newMockResponse(200, `ok`, nil),
	}, nil)

	body, err := Do(context.Background(), client, buildGet, fastRetry())
	if err != nil {
		t.Fatalf("Expected success after retry, got %v", err)
	}
	if string(body) != "ok" {
		t.Errorf("Expected body 'ok', got %q", string(body))
	}
	if len(rt.requestIDs) != 2 {
		t.Fatalf("Expected 2 attempts, got %d", len(rt.requestIDs))
	}
	if rt.requestIDs[0] == "" || rt.requestIDs[0] != rt.requestIDs[1] {
		t.Errorf("Expected the same non-empty X-Request-ID on every attempt, got %v", rt.requestIDs)
	}
}

func TestDoExhaustsAttempts(t *testing.T) {
	client, rt := newMockClient([]*http.Response{
		newMockResponse(503, `down`, nil),
		newMockResponse(503, `down`, nil),
		newMockResponse(503, `down`, nil),
	}, nil)

	_, err := Do(context.Background(), client, buildGet, fastRetry())
	herr, ok := AsHTTPError(err)
	if !ok || herr.StatusCode != 503 {
		t.Fatalf("Expected final 503 HTTPError, got %v", err)
	}
	if len(rt.requestIDs) != 3 {
		t.Errorf("Expected 3 attempts, got %d", len(rt.requestIDs))
	}
}

func TestDoBuildReqError(t *testing.T) {
	client, _ := newMockClient(nil, nil)

	_, err := Do(context.Background(), client, func(context.Context) (*http.Request, error) {
		return nil, errors.New("request build error")
	}, fastRetry())
	if err == nil || !strings.Contains(err.Error(), "request build error") {
		t.Errorf("Expected request build error, got %v", err)
	}
}

func TestDoJSONParsesBody(t *testing.T) {
	client, _ := newMockClient([]*http.Response{newMockResponse(200, `{"token":"abc"}`, nil)}, nil)

	var out struct {
		Token string `json:"token"`
	}
	if err := DoJSON(context.Background(), client, buildGet, &out, fastRetry()); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if out.Token != "abc" {
		t.Errorf("Expected token 'abc', got %q", out.Token)
	}
}

func TestDoJSONParseError(t *testing.T) {
	client, _ := newMockClient([]*http.Response{newMockResponse(200, `<html>`, nil)}, nil)

	var out map[string]any
	err := DoJSON(context.Background(), client, buildGet, &out, fastRetry())
	if err == nil || !strings.Contains(err.Error(), "json parse error") {
		t.Errorf("Expected json parse error, got %v", err)
	}
}

func TestRetryableClassification(t *testing.T) {
	if isRetryableNetErr(context.Canceled) {
		t.Error("Expected canceled context not retryable")
	}
	if !isRetryableNetErr(context.DeadlineExceeded) {
		t.Error("Expected deadline exceeded retryable")
	}
	if !isRetryableNetErr(errors.New("read: connection reset by peer")) {
		t.Error("Expected connection reset retryable")
	}
	if isRetryableStatus(404) {
		t.Error("Expected 404 not retryable")
	}
	if !isRetryableStatus(502) {
		t.Error("Expected 502 retryable")
	}
}
