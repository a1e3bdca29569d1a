package service

import (
	"context"

	"inventory/internal/metrics"
	"inventory/internal/repository"
	"inventory/pkg/apperror"
	"inventory/pkg/logger"
)

// withRetry runs a whole transaction, and runs it once more when the first
// attempt failed for a transient reason. A second transient failure becomes
// a TransactionConflict. Any other error is returned unchanged.
func withRetry(ctx context.Context, operation string, fn func() error) error {
	err := fn()
	if err == nil || !repository.IsTransient(err) {
		return err
	}

	if ctx.Err() != nil {
		return apperror.TransactionConflict(operation, err)
	}

	metrics.TransactionRetriesTotal.WithLabelValues(operation).Inc()
	logger.Warn(ctx).Err(err).Str("operation", operation).Msg("transient transaction failure, retrying")

	err = fn()
	if err == nil || !repository.IsTransient(err) {
		return err
	}

	metrics.TransactionConflictsTotal.WithLabelValues(operation).Inc()
	logger.Error(ctx).Err(err).Str("operation", operation).Msg("transaction failed after retry")
	return apperror.TransactionConflict(operation, err)
}
