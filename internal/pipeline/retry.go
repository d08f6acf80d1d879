package pipeline

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/yakuphankucukkesim/resonora-ai/internal/config"
)

type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err as non-retryable; Retry returns the wrapped error
// immediately instead of re-attempting.
func Permanent(err error) error {
	return &permanentError{err: err}
}

func Retry(ctx context.Context, logger *zap.Logger, retryCfg config.RetryConfig, operation string, fn func() error) error {
	attempts := int32(0)
	interval := time.Duration(retryCfg.InitialIntervalSec * float64(time.Second))

	for {
		select {
		case <-ctx.Done():
			logger.Warn("Retry cancelled", zap.String("operation", operation), zap.Error(ctx.Err()))
			return ctx.Err()
		default:
			err := fn()
			if err == nil {
				return nil
			}
			var perm *permanentError
			if errors.As(err, &perm) {
				logger.Error("Permanent failure, not retrying", zap.String("operation", operation), zap.Error(perm.err))
				return perm.err
			}
			attempts++
			if attempts >= retryCfg.MaxAttempts {
				logger.Error("Retry limit reached", zap.String("operation", operation), zap.Int32("attempts", attempts), zap.Error(err))
				return err
			}
			logger.Warn("Retry attempt failed", zap.String("operation", operation), zap.Int32("attempt", attempts), zap.Error(err))
			time.Sleep(interval)
			interval = time.Duration(float64(interval) * retryCfg.BackoffCoefficient)
		}
	}
}
