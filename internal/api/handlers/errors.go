package handlers

import (
	"encoding/json"
	"errors"
	"gw-teller-ledger/internal/api/middlew"
	"gw-teller-ledger/internal/custom_err"
	"gw-teller-ledger/pkg/response"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type errorMapping struct {
	kind    error
	status  int
	code    string
	message string
}

// первое совпадение выигрывает
var errorMappings = []errorMapping{
	{custom_err.ErrInvalidAmount, http.StatusBadRequest, "invalid_amount", "Invalid amount"},
	{custom_err.ErrInvalidCurrency, http.StatusBadRequest, "invalid_currency", "Invalid currency"},
	{custom_err.ErrCurrencyMismatch, http.StatusBadRequest, "currency_mismatch", "Currencies do not match"},
	{custom_err.ErrInsufficientFunds, http.StatusUnprocessableEntity, "insufficient_funds", "Insufficient cash in the register"},
	{custom_err.ErrInvalidFee, http.StatusUnprocessableEntity, "invalid_fee", "Fee policy produced an invalid fee"},
	{custom_err.ErrRateNotFound, http.StatusUnprocessableEntity, "rate_not_found", "Exchange rate not found"},
	{custom_err.ErrNotFound, http.StatusNotFound, "not_found", "Resource not found"},
	{custom_err.ErrNoOpenSession, http.StatusConflict, "no_open_register", "Operator has no open register"},
	{custom_err.ErrAlreadyOpen, http.StatusConflict, "register_already_open", "Operator already has an open register"},
	{custom_err.ErrSessionClosed, http.StatusConflict, "register_closed", "Register session is closed"},
	{custom_err.ErrSessionOwnership, http.StatusConflict, "register_ownership", "Register session belongs to another operator"},
	{custom_err.ErrInvalidStateTransition, http.StatusConflict, "invalid_state_transition", "Transaction cannot move to the requested status"},
	{custom_err.ErrUpstreamTimeout, http.StatusGatewayTimeout, "upstream_timeout", "Upstream did not respond in time"},
	{custom_err.ErrReferenceGenerationFailed, http.StatusInternalServerError, "reference_generation_failed", "Could not allocate a transaction reference"},
}

func writeServiceError(w http.ResponseWriter, log *slog.Logger, op string, err error) {
	var verr *custom_err.ValidationError
	if errors.As(err, &verr) {
		log.Warn("validation failed",
			slog.String("op", op),
			slog.String("field", verr.Field),
			slog.String("reason", verr.Reason))
		response.WriteFieldError(w, log, http.StatusBadRequest, "validation_error", verr.Field, verr.Error())
		return
	}

	for _, m := range errorMappings {
		if !errors.Is(err, m.kind) {
			continue
		}
		if m.status >= http.StatusInternalServerError {
			log.Error("request failed", slog.String("op", op), slog.String("error", err.Error()))
		} else {
			log.Info("request rejected", slog.String("op", op), slog.String("error", err.Error()))
		}
		response.WriteJSONError(w, log, m.status, m.code, m.message)
		return
	}

	log.Error("internal error", slog.String("op", op), slog.String("error", err.Error()))
	response.WriteJSONError(w, log, http.StatusInternalServerError, "internal_error", "An internal error occurred")
}

func decodeJSON(w http.ResponseWriter, r *http.Request, op string, dst any) bool {
	log := middlew.GetLogger(r.Context())
	defer r.Body.Close()

	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		log.Warn("invalid JSON", slog.String("op", op), slog.String("error", err.Error()))
		response.WriteJSONError(w, log, http.StatusBadRequest, "invalid_json", "Invalid JSON body")
		return false
	}
	return true
}

func uuidParam(w http.ResponseWriter, r *http.Request, op, name string) (uuid.UUID, bool) {
	log := middlew.GetLogger(r.Context())

	raw := chi.URLParam(r, name)
	id, err := uuid.Parse(raw)
	if err != nil {
		log.Warn("invalid UUID", slog.String("op", op), slog.String("uuid", raw))
		response.WriteFieldError(w, log, http.StatusBadRequest, "invalid_request", name, "Invalid ID format")
		return uuid.Nil, false
	}
	return id, true
}
