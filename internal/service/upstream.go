package service

import (
	"context"
	"errors"
	"fmt"
	"gw-teller-ledger/internal/custom_err"
	"time"
)

// withTimeout ограничивает обращение к внешнему хранилищу. Нулевой timeout отключает ограничение.
func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

// upstreamErr приводит истечение дедлайна к ErrUpstreamTimeout
func upstreamErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, custom_err.ErrUpstreamTimeout) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", op, custom_err.ErrUpstreamTimeout)
	}
	return err
}
