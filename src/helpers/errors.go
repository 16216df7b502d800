package helpers

import (
	"context"
	"fmt"
	"time"

	"sales-observer/src/logger"
)

// -----------------------------------------------------------------------------
// Custom Error Types
// -----------------------------------------------------------------------------

type SalesObserverError struct {
	Message string
	Cause   error
}

func (e *SalesObserverError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *SalesObserverError) Unwrap() error {
	return e.Cause
}

// -----------------------------------------------------------------------------

// AggregationError means the store was unreachable or timed out while
// computing the dashboard snapshot. Recovered locally by falling back to the
// last cached snapshot, then to the zero default.
type AggregationError struct{ SalesObserverError }

// ListenerError means the change-notification stream dropped. Recovered
// locally by resubscribing; the periodic tick keeps stats flowing meanwhile.
type ListenerError struct{ SalesObserverError }

// ValidationError carries per-field input failures.
type ValidationError struct{ SalesObserverError }

// NotFoundError means the requested record does not exist.
type NotFoundError struct{ SalesObserverError }

// ConfigurationError means the loaded config failed validation.
type ConfigurationError struct{ SalesObserverError }

// -----------------------------------------------------------------------------

func NewAggregationError(msg string, cause error) *AggregationError {
	return &AggregationError{SalesObserverError{Message: msg, Cause: cause}}
}

func NewListenerError(msg string, cause error) *ListenerError {
	return &ListenerError{SalesObserverError{Message: msg, Cause: cause}}
}

func NewNotFoundError(msg string) *NotFoundError {
	return &NotFoundError{SalesObserverError{Message: msg}}
}

// -----------------------------------------------------------------------------
// Retry Logic
// -----------------------------------------------------------------------------

// RetryWithBackoff attempts fn up to maxRetries times with exponential backoff.
// The context aborts the wait between attempts.
func RetryWithBackoff(ctx context.Context, log *logger.Logger, operation string, maxRetries int, baseDelay time.Duration, fn func() error) error {
	var lastErr error

	for attempt := 0; attempt < maxRetries; attempt++ {
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
		}

		delay := baseDelay * time.Duration(1<<attempt)
		log.Warning("%s failed (attempt %d/%d), retrying in %v: %v",
			operation, attempt+1, maxRetries, delay, lastErr)

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operation, maxRetries, lastErr)
}
