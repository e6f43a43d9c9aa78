package errors

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"
)

// RetryLogger is satisfied by logging.Logger
type RetryLogger interface {
	Warn(msg string, fields ...interface{})
}

// RetryConfig holds configuration for retry logic
type RetryConfig struct {
	MaxAttempts     int           // Maximum number of attempts, first one included
	InitialDelay    time.Duration // Delay before the second attempt
	MaxDelay        time.Duration // Upper bound for any delay
	BackoffFactor   float64       // Exponential backoff factor
	Jitter          bool          // Whether to add up to 25% jitter
	RetryableErrors []ErrorCode   // Codes worth another attempt
	Logger          RetryLogger   // Optional
}

// DefaultRetryConfig suits the settings store: a locked SQLite file usually frees up quickly
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxAttempts:   3,
		InitialDelay:  50 * time.Millisecond,
		MaxDelay:      time.Second,
		BackoffFactor: 2.0,
		Jitter:        true,
		RetryableErrors: []ErrorCode{
			ErrCodeBusy,
			ErrCodeConnection,
			ErrCodeTimeout,
			ErrCodeTransaction,
		},
	}
}

// RetryableOperation represents an operation that can be retried
type RetryableOperation func() error

// WithRetry runs operation until it succeeds, fails with a non-retryable error,
// runs out of attempts or ctx is cancelled.
func WithRetry(ctx context.Context, config *RetryConfig, operationName string, operation RetryableOperation) error {
	if config == nil {
		config = DefaultRetryConfig()
	}

	var lastErr error

	for attempt := 0; attempt < config.MaxAttempts; attempt++ {
		err := operation()
		if err == nil {
			return nil
		}
		lastErr = err

		if !shouldRetry(err, config) {
			return err
		}

		if attempt == config.MaxAttempts-1 {
			break
		}

		delay := calculateDelay(attempt, config)
		if config.Logger != nil {
			config.Logger.Warn("Store operation failed, retrying",
				"operation", operationName,
				"attempt", attempt+1,
				"max_attempts", config.MaxAttempts,
				"delay_ms", delay.Milliseconds(),
				"error", err.Error())
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("operation '%s' cancelled during retry: %w", operationName, ctx.Err())
		case <-time.After(delay):
		}
	}

	return fmt.Errorf("operation '%s' failed after %d attempts: %w", operationName, config.MaxAttempts, lastErr)
}

// shouldRetry only retries StoreErrors whose code is listed in the config
func shouldRetry(err error, config *RetryConfig) bool {
	var storeErr *StoreError
	if !errors.As(err, &storeErr) {
		return false
	}
	if !storeErr.IsRetryable() {
		return false
	}
	return slices.Contains(config.RetryableErrors, storeErr.Code)
}

// calculateDelay calculates the delay for the next retry attempt
func calculateDelay(attempt int, config *RetryConfig) time.Duration {
	multiplier := 1.0
	for range attempt {
		multiplier *= config.BackoffFactor
	}

	delay := time.Duration(float64(config.InitialDelay) * multiplier)

	if config.Jitter && delay > 0 {
		jitterAmount := time.Duration(float64(delay) * 0.25)
		if jitterAmount > 0 {
			delay += time.Duration(time.Now().UnixNano() % int64(jitterAmount))
		}
	}

	return min(delay, config.MaxDelay)
}
