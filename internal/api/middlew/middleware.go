package middlew

import (
	"context"
	"gw-teller-ledger/internal/models"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
)

type contextKey string

const (
	loggerKey   contextKey = "logger"
	operatorKey contextKey = "operator"
)

// WithLogger кладёт в контекст логгер запроса с trace_id, методом и путём
func WithLogger(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			loggerWithTrace := log.With(
				slog.String("trace_id", middleware.GetReqID(r.Context())),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path))

			ctx := context.WithValue(r.Context(), loggerKey, loggerWithTrace)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AccessLog пишет итог запроса: статус, размер ответа и длительность. Ставится после WithLogger.
func AccessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		level := slog.LevelInfo
		if status >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		GetLogger(r.Context()).Log(r.Context(), level, "запрос обработан",
			slog.Int("status", status),
			slog.Int("bytes", ww.BytesWritten()),
			slog.Duration("duration", time.Since(start)))
	})
}

// withOperator кладёт оператора в контекст и дописывает его поля в логгер запроса
func withOperator(ctx context.Context, operator models.Operator) context.Context {
	log := GetLogger(ctx).With(
		slog.String("operator_id", operator.ID),
		slog.String("branch_id", operator.BranchID),
		slog.String("role", string(operator.Role)))

	ctx = context.WithValue(ctx, operatorKey, operator)
	return context.WithValue(ctx, loggerKey, log)
}

func GetLogger(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(loggerKey).(*slog.Logger); ok {
		return logger
	}
	return slog.Default()
}
