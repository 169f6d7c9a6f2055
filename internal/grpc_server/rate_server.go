package grpc_server

import (
	"context"
	"errors"
	"gw-teller-ledger/internal/custom_err"
	"gw-teller-ledger/internal/models"
	"gw-teller-ledger/internal/ratepb"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// RateReader прямое чтение курса без обращения пары
type RateReader interface {
	GetCurrentRate(ctx context.Context, base, target models.Currency, at time.Time) (*models.ExchangeRate, error)
}

// RateServer отдаёт курсы ledger'а другим инсталляциям по gRPC
type RateServer struct {
	reader RateReader
	now    func() time.Time
	log    *slog.Logger
}

func NewRateServer(reader RateReader, log *slog.Logger) *RateServer {
	return &RateServer{
		reader: reader,
		now:    time.Now,
		log:    log,
	}
}

// Register регистрирует сервис курсов и health check на сервере
func Register(s *grpc.Server, srv *RateServer) *health.Server {
	ratepb.RegisterRateServiceServer(s, srv)

	hs := health.NewServer()
	hs.SetServingStatus(ratepb.ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(s, hs)
	return hs
}

func (s *RateServer) GetRate(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	const op = "grpc_server.GetRate"

	req, err := ratepb.RateRequestFromStruct(in)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	base := models.Currency(strings.ToUpper(strings.TrimSpace(req.Base)))
	target := models.Currency(strings.ToUpper(strings.TrimSpace(req.Target)))
	if !base.IsValid() {
		return nil, status.Errorf(codes.InvalidArgument, "unsupported base currency: %s", req.Base)
	}
	if !target.IsValid() {
		return nil, status.Errorf(codes.InvalidArgument, "unsupported target currency: %s", req.Target)
	}

	at := req.At
	if at.IsZero() {
		at = s.now()
	}

	rate, err := s.reader.GetCurrentRate(ctx, base, target, at)
	switch {
	case err == nil:
	case errors.Is(err, custom_err.ErrNotFound):
		return nil, status.Errorf(codes.NotFound, "rate %s/%s not found", base, target)
	case errors.Is(err, custom_err.ErrUpstreamTimeout), errors.Is(err, context.DeadlineExceeded):
		return nil, status.Error(codes.DeadlineExceeded, "rate lookup timed out")
	default:
		s.log.Error("failed to get rate",
			slog.String("op", op),
			slog.String("base", string(base)),
			slog.String("target", string(target)),
			slog.String("error", err.Error()))
		return nil, status.Error(codes.Internal, "failed to get exchange rate")
	}

	reply, err := ratepb.RateReply{
		Base:        string(rate.Base),
		Target:      string(rate.Target),
		Rate:        rate.Rate.String(),
		BuyRate:     rate.BuyRate.String(),
		SellRate:    rate.SellRate.String(),
		EffectiveAt: rate.EffectiveAt,
		ExpiresAt:   rate.ExpiresAt,
	}.ToStruct()
	if err != nil {
		s.log.Error("failed to encode rate", slog.String("op", op), slog.String("error", err.Error()))
		return nil, status.Error(codes.Internal, "failed to encode exchange rate")
	}
	return reply, nil
}
