package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/quocvuong92/ai-chat/internal/config"
)

// Retry configuration constants
const (
	MaxAPIRetryAttempts = 3
	APIInitialBackoff   = 500 * time.Millisecond
	APIMaxBackoff       = 5 * time.Second
	BackoffMultiplier   = 2.0
)

// RetryableStatusCodes are HTTP status codes that should trigger a retry for AI API calls
var RetryableStatusCodes = []int{
	http.StatusTooManyRequests,     // 429 - Rate limited
	http.StatusServiceUnavailable,  // 503 - Service unavailable
	http.StatusGatewayTimeout,      // 504 - Gateway timeout
	http.StatusBadGateway,          // 502 - Bad gateway
	http.StatusInternalServerError, // 500 - Internal server error (transient)
}

// APIError represents an error with status code
type APIError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *APIError) Error() string {
	return e.Message
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// classifyError turns go-openai errors into *APIError so retry and key
// rotation can look at the status code. Other errors pass through.
func classifyError(err error) error {
	if err == nil {
		return nil
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &APIError{
			StatusCode: apiErr.HTTPStatusCode,
			Message:    fmt.Sprintf("API request failed with status %d: %s", apiErr.HTTPStatusCode, apiErr.Message),
			Err:        err,
		}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &APIError{
			StatusCode: reqErr.HTTPStatusCode,
			Message:    fmt.Sprintf("API request failed with status %d: %v", reqErr.HTTPStatusCode, reqErr.Err),
			Err:        err,
		}
	}
	return err
}

// ShouldRotateKey checks if the error status code indicates we should try another key
func ShouldRotateKey(statusCode int) bool {
	for _, code := range config.RotatableErrorCodes {
		if statusCode == code {
			return true
		}
	}
	return false
}

// ShouldRetryAPICall checks if the error status code indicates we should retry the API call
func ShouldRetryAPICall(statusCode int) bool {
	for _, code := range RetryableStatusCodes {
		if statusCode == code {
			return true
		}
	}
	return false
}

// CalculateAPIBackoff returns the backoff duration for AI API retry attempts
func CalculateAPIBackoff(attempt int) time.Duration {
	backoff := APIInitialBackoff
	for i := 0; i < attempt; i++ {
		backoff = time.Duration(float64(backoff) * BackoffMultiplier)
		if backoff > APIMaxBackoff {
			backoff = APIMaxBackoff
			break
		}
	}
	return backoff
}

// RetryableFunc is a function that can be retried
type RetryableFunc[T any] func() (T, error)

// backoffFor is swapped out by tests to avoid sleeping
var backoffFor = CalculateAPIBackoff

// WithRetry executes a function with retry logic for transient failures.
// It retries on retryable HTTP status codes (429, 500, 502, 503, 504)
// with exponential backoff between attempts.
func WithRetry[T any](ctx context.Context, fn RetryableFunc[T]) (T, error) {
	var lastErr error
	var zero T

	for attempt := 0; attempt < MaxAPIRetryAttempts; attempt++ {
		// Check for context cancellation
		if err := ctx.Err(); err != nil {
			return zero, fmt.Errorf("operation cancelled: %w", err)
		}

		result, err := fn()
		if err == nil {
			return result, nil
		}
		lastErr = err

		// Only API errors with a retryable status are retried
		var apiErr *APIError
		if !errors.As(err, &apiErr) || !ShouldRetryAPICall(apiErr.StatusCode) {
			return zero, err
		}

		// Apply backoff before retry (except for last attempt)
		if attempt < MaxAPIRetryAttempts-1 {
			select {
			case <-ctx.Done():
				return zero, fmt.Errorf("operation cancelled: %w", ctx.Err())
			case <-time.After(backoffFor(attempt)):
			}
		}
	}

	return zero, fmt.Errorf("max retry attempts (%d) exceeded: %w", MaxAPIRetryAttempts, lastErr)
}
