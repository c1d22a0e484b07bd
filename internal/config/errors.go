package config

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

// retryIntervals определяет паузы между попытками.
var retryIntervals = []time.Duration{1 * time.Second, 3 * time.Second, 5 * time.Second}

// RetryWithBackoff выполняет op, повторяя её после временных ошибок PostgreSQL.
//
// Не временная ошибка возвращается сразу. Если попытки исчерпаны, возвращается
// последняя ошибка, если отменён контекст - ctx.Err().
func RetryWithBackoff(ctx context.Context, op func() error) error {
	var lastErr error
	for i, wait := range retryIntervals {
		err := op()
		if err == nil {
			return nil
		}
		if !IsRetriable(err) {
			return err
		}
		lastErr = err
		zap.L().Warn("retriable error",
			zap.Error(err),
			zap.Int("attempt", i+1),
			zap.Int("attempts", len(retryIntervals)),
			zap.Duration("wait", wait),
		)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
	return fmt.Errorf("operation failed after retries: %w", lastErr)
}

// IsRetriable сообщает, стоит ли повторять операцию после ошибки err.
//
// Повторяются ошибки соединения: SQLSTATE класса 08 и ошибки установки
// подключения pgconn.
func IsRetriable(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return len(pgErr.Code) >= 2 && pgErr.Code[:2] == "08"
	}
	var connErr *pgconn.ConnectError
	return errors.As(err, &connErr)
}
