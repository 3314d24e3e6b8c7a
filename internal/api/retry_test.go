package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/sashabaranov/go-openai"
)

// noBackoff removes the sleep between attempts for the duration of a test
func noBackoff(t *testing.T) {
	t.Helper()
	old := backoffFor
	backoffFor = func(int) time.Duration { return 0 }
	t.Cleanup(func() { backoffFor = old })
}

func TestShouldRetryAPICall(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		want       bool
	}{
		{"429 Too Many Requests", http.StatusTooManyRequests, true},
		{"500 Internal Server Error", http.StatusInternalServerError, true},
		{"502 Bad Gateway", http.StatusBadGateway, true},
		{"503 Service Unavailable", http.StatusServiceUnavailable, true},
		{"504 Gateway Timeout", http.StatusGatewayTimeout, true},
		{"400 Bad Request", http.StatusBadRequest, false},
		{"401 Unauthorized", http.StatusUnauthorized, false},
		{"403 Forbidden", http.StatusForbidden, false},
		{"404 Not Found", http.StatusNotFound, false},
		{"200 OK", http.StatusOK, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ShouldRetryAPICall(tt.statusCode)
			if got != tt.want {
				t.Errorf("ShouldRetryAPICall(%d) = %v, want %v", tt.statusCode, got, tt.want)
			}
		})
	}
}

func TestCalculateAPIBackoff(t *testing.T) {
	tests := []struct {
		name    string
		attempt int
		want    time.Duration
	}{
		{"attempt 0", 0, APIInitialBackoff},
		{"attempt 1", 1, APIInitialBackoff * 2},
		{"attempt 2", 2, APIInitialBackoff * 4},
		{"attempt large", 10, APIMaxBackoff}, // Should cap at max
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CalculateAPIBackoff(tt.attempt)
			if got != tt.want {
				t.Errorf("CalculateAPIBackoff(%d) = %v, want %v", tt.attempt, got, tt.want)
			}
		})
	}
}

func TestWithRetry_Success(t *testing.T) {
	ctx := context.Background()
	callCount := 0

	result, err := WithRetry(ctx, func() (string, error) {
		callCount++
		return "success", nil
	})

	if err != nil {
		t.Errorf("WithRetry() unexpected error: %v", err)
	}
	if result != "success" {
		t.Errorf("WithRetry() = %v, want %v", result, "success")
	}
	if callCount != 1 {
		t.Errorf("WithRetry() called %d times, want 1", callCount)
	}
}

func TestWithRetry_RetryableError(t *testing.T) {
	noBackoff(t)
	ctx := context.Background()
	callCount := 0

	_, err := WithRetry(ctx, func() (string, error) {
		callCount++
		return "", &APIError{StatusCode: http.StatusTooManyRequests, Message: "rate limited"}
	})

	if err == nil {
		t.Error("WithRetry() expected error, got nil")
	}
	if callCount != MaxAPIRetryAttempts {
		t.Errorf("WithRetry() called %d times, want %d", callCount, MaxAPIRetryAttempts)
	}
}

func TestWithRetry_NonRetryableError(t *testing.T) {
	ctx := context.Background()
	callCount := 0

	_, err := WithRetry(ctx, func() (string, error) {
		callCount++
		return "", &APIError{StatusCode: http.StatusBadRequest, Message: "bad request"}
	})

	if err == nil {
		t.Error("WithRetry() expected error, got nil")
	}
	if callCount != 1 {
		t.Errorf("WithRetry() called %d times, want 1 (no retry for non-retryable)", callCount)
	}
}

func TestWithRetry_NonAPIError(t *testing.T) {
	ctx := context.Background()
	callCount := 0

	_, err := WithRetry(ctx, func() (string, error) {
		callCount++
		return "", errors.New("some other error")
	})

	if err == nil {
		t.Error("WithRetry() expected error, got nil")
	}
	if callCount != 1 {
		t.Errorf("WithRetry() called %d times, want 1 (no retry for non-API error)", callCount)
	}
}

func TestWithRetry_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel() // Cancel immediately

	_, err := WithRetry(ctx, func() (string, error) {
		return "success", nil
	})

	if err == nil {
		t.Error("WithRetry() expected error for cancelled context, got nil")
	}
}

func TestWithRetry_SuccessAfterRetry(t *testing.T) {
	noBackoff(t)
	ctx := context.Background()
	callCount := 0

	result, err := WithRetry(ctx, func() (string, error) {
		callCount++
		if callCount < 2 {
			return "", &APIError{StatusCode: http.StatusTooManyRequests, Message: "rate limited"}
		}
		return "success", nil
	})

	if err != nil {
		t.Errorf("WithRetry() unexpected error: %v", err)
	}
	if result != "success" {
		t.Errorf("WithRetry() = %v, want %v", result, "success")
	}
	if callCount != 2 {
		t.Errorf("WithRetry() called %d times, want 2", callCount)
	}
}

func TestAPIError_Error(t *testing.T) {
	err := &APIError{
		StatusCode: 429,
		Message:    "rate limited",
	}

	got := err.Error()
	want := "rate limited"
	if got != want {
		t.Errorf("APIError.Error() = %v, want %v", got, want)
	}
}

func TestShouldRotateKey(t *testing.T) {
	tests := []struct {
		statusCode int
		want       bool
	}{
		{http.StatusUnauthorized, true},
		{http.StatusForbidden, true},
		{http.StatusTooManyRequests, true},
		{http.StatusBadRequest, false},
		{http.StatusInternalServerError, false},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.statusCode), func(t *testing.T) {
			if got := ShouldRotateKey(tt.statusCode); got != tt.want {
				t.Errorf("ShouldRotateKey(%d) = %v, want %v", tt.statusCode, got, tt.want)
			}
		})
	}
}

func TestClassifyError(t *testing.T) {
	plain := errors.New("dial tcp: refused")
	if got := classifyError(plain); got != plain {
		t.Errorf("classifyError(plain) = %v, want it unchanged", got)
	}
	if classifyError(nil) != nil {
		t.Error("classifyError(nil) should be nil")
	}

	wrapped := fmt.Errorf("stream: %w", &openai.APIError{HTTPStatusCode: 503, Message: "overloaded"})
	var apiErr *APIError
	if !errors.As(classifyError(wrapped), &apiErr) {
		t.Fatal("openai.APIError should become *APIError")
	}
	if apiErr.StatusCode != 503 || !strings.Contains(apiErr.Message, "overloaded") {
		t.Errorf("APIError = %+v", apiErr)
	}

	reqErr := &openai.RequestError{HTTPStatusCode: 401, Err: errors.New("unauthorized")}
	if !errors.As(classifyError(reqErr), &apiErr) || apiErr.StatusCode != 401 {
		t.Errorf("openai.RequestError should become *APIError with 401, got %v", apiErr)
	}
}

func TestWithRetry_WrappedAPIError(t *testing.T) {
	noBackoff(t)
	callCount := 0

	_, err := WithRetry(context.Background(), func() (string, error) {
		callCount++
		return "", fmt.Errorf("query: %w", &APIError{StatusCode: http.StatusBadGateway, Message: "bad gateway"})
	})

	if err == nil {
		t.Error("WithRetry() expected error, got nil")
	}
	if callCount != MaxAPIRetryAttempts {
		t.Errorf("WithRetry() called %d times, want %d", callCount, MaxAPIRetryAttempts)
	}
}
