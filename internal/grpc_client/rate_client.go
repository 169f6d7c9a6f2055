package grpc_client

import (
	"context"
	"errors"
	"fmt"
	"gw-teller-ledger/internal/custom_err"
	"gw-teller-ledger/internal/models"
	"gw-teller-ledger/internal/ratepb"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
)

// RateClient источник курсов из удалённого exchanger'а
type RateClient struct {
	conn    *grpc.ClientConn
	client  ratepb.RateServiceClient
	timeout time.Duration
	log     *slog.Logger
}

func NewRateClient(addr string, timeout time.Duration, log *slog.Logger) (*RateClient, error) {
	const op = "grpc_client.NewRateClient"

	log.Info("подключение к gRPC сервису курсов", slog.String("addr", addr))

	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("%s: failed to connect: %w", op, err)
	}

	client := NewRateClientFromConn(conn, timeout, log)
	client.conn = conn
	return client, nil
}

func NewRateClientFromConn(cc grpc.ClientConnInterface, timeout time.Duration, log *slog.Logger) *RateClient {
	return &RateClient{
		client:  ratepb.NewRateServiceClient(cc),
		timeout: timeout,
		log:     log,
	}
}

func (c *RateClient) GetCurrentRate(ctx context.Context, base, target models.Currency, at time.Time) (*models.ExchangeRate, error) {
	const op = "grpc_client.GetCurrentRate"

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := ratepb.RateRequest{Base: string(base), Target: string(target), At: at}.ToStruct()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	start := time.Now()
	resp, err := c.client.GetRate(ctx, req)
	if err != nil {
		return nil, c.mapError(op, base, target, err)
	}

	if duration := time.Since(start); duration > 100*time.Millisecond {
		c.log.Warn("медленный gRPC запрос",
			slog.String("op", op),
			slog.Duration("duration", duration))
	}

	reply, err := ratepb.RateReplyFromStruct(resp)
	if err != nil {
		return nil, fmt.Errorf("%s: malformed reply: %w", op, err)
	}
	return toExchangeRate(reply)
}

func (c *RateClient) mapError(op string, base, target models.Currency, err error) error {
	switch status.Code(err) {
	case codes.NotFound:
		return fmt.Errorf("%s: %w", op, custom_err.ErrNotFound)
	case codes.DeadlineExceeded:
		return fmt.Errorf("%s: %w", op, custom_err.ErrUpstreamTimeout)
	case codes.InvalidArgument:
		return fmt.Errorf("%s: %w: %s", op, custom_err.ErrInvalidCurrency, status.Convert(err).Message())
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", op, custom_err.ErrUpstreamTimeout)
	}

	c.log.Error("ошибка получения курса",
		slog.String("op", op),
		slog.String("base", string(base)),
		slog.String("target", string(target)),
		slog.String("error", err.Error()))
	return fmt.Errorf("%s: %w", op, err)
}

func toExchangeRate(reply ratepb.RateReply) (*models.ExchangeRate, error) {
	const op = "grpc_client.toExchangeRate"

	rate, err := decimal.NewFromString(reply.Rate)
	if err != nil {
		return nil, fmt.Errorf("%s: invalid rate: %w", op, err)
	}
	buy, err := decimalOr(reply.BuyRate, rate)
	if err != nil {
		return nil, fmt.Errorf("%s: invalid buy_rate: %w", op, err)
	}
	sell, err := decimalOr(reply.SellRate, rate)
	if err != nil {
		return nil, fmt.Errorf("%s: invalid sell_rate: %w", op, err)
	}

	return &models.ExchangeRate{
		Base:        models.Currency(reply.Base),
		Target:      models.Currency(reply.Target),
		Rate:        rate,
		BuyRate:     buy,
		SellRate:    sell,
		EffectiveAt: reply.EffectiveAt,
		ExpiresAt:   reply.ExpiresAt,
	}, nil
}

func decimalOr(raw string, fallback decimal.Decimal) (decimal.Decimal, error) {
	if raw == "" {
		return fallback, nil
	}
	return decimal.NewFromString(raw)
}

func (c *RateClient) Close() error {
	if c.conn == nil {
		return nil
	}
	c.log.Info("закрытие соединения с сервисом курсов")
	return c.conn.Close()
}
