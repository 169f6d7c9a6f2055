package middlew

import (
	"context"
	"errors"
	"gw-teller-ledger/internal/auth"
	"gw-teller-ledger/internal/custom_err"
	"gw-teller-ledger/internal/models"
	"gw-teller-ledger/pkg/response"
	"log/slog"
	"net/http"
	"strings"
)

func RequireOperator(validator auth.TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log := GetLogger(r.Context())

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				response.WriteJSONError(w, log, http.StatusUnauthorized, "unauthorized", "Authorization header is required")
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				log.Warn("invalid authorization header format")
				response.WriteJSONError(w, log, http.StatusUnauthorized, "unauthorized", "Invalid authorization header format")
				return
			}

			claims, err := validator.ValidateToken(parts[1])
			if err != nil {
				switch {
				case errors.Is(err, custom_err.ErrTokenExpired):
					response.WriteJSONError(w, log, http.StatusUnauthorized, "token_expired", "Token has expired")
				case errors.Is(err, custom_err.ErrTokenNotActive):
					response.WriteJSONError(w, log, http.StatusUnauthorized, "token_not_active", "Token not yet active")
				case errors.Is(err, custom_err.ErrInvalidToken):
					response.WriteJSONError(w, log, http.StatusUnauthorized, "invalid_token", "Invalid token")
				default:
					log.Error("failed to validate token", slog.String("error", err.Error()))
					response.WriteJSONError(w, log, http.StatusInternalServerError, "internal_error", "Internal error")
				}
				return
			}

			ctx := withOperator(r.Context(), claims.Operator())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole пропускает только операторов с одной из ролей, ставится после RequireOperator
func RequireRole(roles ...models.OperatorRole) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			operator, ok := OperatorFromContext(r.Context())
			if !ok || !operator.HasRole(roles...) {
				log := GetLogger(r.Context())
				log.Warn("operator role is not allowed", slog.String("role", string(operator.Role)))
				response.WriteJSONError(w, log, http.StatusForbidden, "forbidden", "Operator role is not allowed")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func OperatorFromContext(ctx context.Context) (models.Operator, bool) {
	operator, ok := ctx.Value(operatorKey).(models.Operator)
	return operator, ok
}

func GetOperator(ctx context.Context) models.Operator {
	operator, ok := OperatorFromContext(ctx)
	if !ok {
		panic("operator not found in context - RequireOperator middleware not applied?")
	}
	return operator
}
