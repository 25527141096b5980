package httputil

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/wonny/rollstitch/backend/pkg/config"
	"github.com/wonny/rollstitch/backend/pkg/logger"
)

func testConfig() *config.Config {
	return &config.Config{
		Env:      "development",
		LogLevel: "error", // Reduce log noise
		HTTP: config.HTTPConfig{
			Timeout:    5 * time.Second,
			MaxRetries: 3,
		},
	}
}

func TestNew(t *testing.T) {
	cfg := testConfig()
	client := New(cfg, logger.New(cfg))
	if client == nil {
		t.Fatal("Expected client to be created")
	}

	if client.httpClient.Timeout != 5*time.Second {
		t.Errorf("Expected timeout=5s, got %v", client.httpClient.Timeout)
	}

	if client.retryConfig.MaxRetries != 3 {
		t.Errorf("Expected MaxRetries=3, got %d", client.retryConfig.MaxRetries)
	}

	if client.limiter != nil {
		t.Error("Expected no rate limiter by default")
	}
}

func TestNewDefaults(t *testing.T) {
	cfg := &config.Config{HTTP: config.HTTPConfig{RatePerSecond: 0.5}}
	client := New(cfg, nil)

	if client.httpClient.Timeout != 30*time.Second {
		t.Errorf("Expected default timeout=30s, got %v", client.httpClient.Timeout)
	}
	if client.retryConfig.Enabled {
		t.Error("Expected retry disabled with MaxRetries=0")
	}
	if client.limiter == nil {
		t.Error("Expected rate limiter to be set")
	}
}

func TestWithRetry(t *testing.T) {
	client := New(testConfig(), nil).WithRetry(5, 2*time.Second)

	if client.retryConfig.MaxRetries != 5 {
		t.Errorf("Expected MaxRetries=5, got %d", client.retryConfig.MaxRetries)
	}

	if client.retryConfig.InitialDelay != 2*time.Second {
		t.Errorf("Expected InitialDelay=2s, got %v", client.retryConfig.InitialDelay)
	}
}

func TestDisableRetry(t *testing.T) {
	client := New(testConfig(), nil).DisableRetry()

	if client.retryConfig.Enabled {
		t.Error("Expected retry to be disabled")
	}
}

func TestGetBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("Expected GET, got %s", r.Method)
		}
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "DATETIME,CLOSE\n2024-03-11,100\n")
	}))
	defer server.Close()

	client := New(testConfig(), nil)
	body, err := client.GetBody(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("GetBody failed: %v", err)
	}
	if string(body) != "DATETIME,CLOSE\n2024-03-11,100\n" {
		t.Errorf("Unexpected body %q", body)
	}
}

func TestGetJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `["ES","NQ"]`)
	}))
	defer server.Close()

	var codes []string
	if err := New(testConfig(), nil).GetJSON(context.Background(), server.URL, &codes); err != nil {
		t.Fatalf("GetJSON failed: %v", err)
	}
	if len(codes) != 2 || codes[0] != "ES" {
		t.Errorf("Unexpected codes %v", codes)
	}
}

func TestGetNotFound(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	_, err := New(testConfig(), nil).GetBody(context.Background(), server.URL)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestRetryOn5xx(t *testing.T) {
	var attempts int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Fail the first 2 attempts, succeed on the 3rd
		if atomic.AddInt32(&attempts, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "ok")
	}))
	defer server.Close()

	client := New(testConfig(), nil).WithRetry(3, 10*time.Millisecond)

	body, err := client.GetBody(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	if string(body) != "ok" {
		t.Errorf("Unexpected body %q", body)
	}
	if got := atomic.LoadInt32(&attempts); got != 3 {
		t.Errorf("Expected 3 attempts, got %d", got)
	}
}

func TestRetryExhausted(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := New(testConfig(), nil).WithRetry(1, time.Millisecond)

	_, err := client.GetBody(context.Background(), server.URL)
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("Expected StatusError, got %v", err)
	}
	if statusErr.StatusCode != http.StatusBadGateway {
		t.Errorf("Expected 502, got %d", statusErr.StatusCode)
	}
}

func TestRetryCanceled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := New(testConfig(), nil).WithRetry(5, time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.GetBody(ctx, server.URL)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected deadline exceeded, got %v", err)
	}
}

func TestIsRetryableError(t *testing.T) {
	tests := []struct {
		statusCode int
		expected   bool
	}{
		{200, false},
		{400, false},
		{404, false},
		{429, true},
		{500, true},
		{502, true},
		{503, true},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("status_%d", tt.statusCode), func(t *testing.T) {
			if got := IsRetryableError(tt.statusCode); got != tt.expected {
				t.Errorf("IsRetryableError(%d) = %v, want %v", tt.statusCode, got, tt.expected)
			}
		})
	}
}
