package handlers

import (
	"errors"
	"gw-teller-ledger/internal/api/middlew"
	"gw-teller-ledger/internal/custom_err"
	"gw-teller-ledger/internal/models"
	"gw-teller-ledger/internal/service"
	"gw-teller-ledger/pkg/response"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

type RateHandler struct {
	service service.Rates
}

func NewRateHandler(service service.Rates) *RateHandler {
	return &RateHandler{
		service: service,
	}
}

// List godoc
// @Summary      Действующие курсы
// @Tags         rates
// @Security     BearerAuth
// @Produce      json
// @Success      200 {object} models.ExchangeRatesResponse
// @Failure      504 {object} response.ErrorResponse
// @Router       /rates [get]
func (h *RateHandler) List(w http.ResponseWriter, r *http.Request) {
	const op = "handler.RateHandler.List"
	log := middlew.GetLogger(r.Context())

	rates, err := h.service.ListCurrent(r.Context())
	if err != nil {
		writeServiceError(w, log, op, err)
		return
	}

	response.WriteJSONSuccess(w, log, http.StatusOK, models.ExchangeRatesResponse{
		Rates: rates,
	})
}

// Get godoc
// @Summary      Курс пары
// @Description  Прямой или обратный курс. С fallback=identity при отсутствии курса возвращается 1 и флаг fallback.
// @Tags         rates
// @Security     BearerAuth
// @Produce      json
// @Param        base path string true "Базовая валюта"
// @Param        target path string true "Котируемая валюта"
// @Param        fallback query string false "identity"
// @Success      200 {object} models.ResolvedRateResponse
// @Failure      400 {object} response.ErrorResponse
// @Failure      422 {object} response.ErrorResponse
// @Router       /rates/{base}/{target} [get]
func (h *RateHandler) Get(w http.ResponseWriter, r *http.Request) {
	const op = "handler.RateHandler.Get"
	log := middlew.GetLogger(r.Context())

	base := models.Currency(strings.ToUpper(chi.URLParam(r, "base")))
	target := models.Currency(strings.ToUpper(chi.URLParam(r, "target")))

	fallback := r.URL.Query().Get("fallback")
	if fallback != "" && fallback != "identity" {
		response.WriteFieldError(w, log, http.StatusBadRequest, "invalid_request", "fallback", "Only identity fallback is supported")
		return
	}

	resp := models.ResolvedRateResponse{Base: base, Target: target}

	rate, err := h.service.Resolve(r.Context(), base, target)
	switch {
	case err == nil:
		resp.Rate = rate
	case fallback == "identity" && errors.Is(err, custom_err.ErrRateNotFound):
		log.Warn("rate not found, identity fallback used",
			slog.String("op", op),
			slog.String("base", string(base)),
			slog.String("target", string(target)))
		resp.Rate = decimal.NewFromInt(1)
		resp.Fallback = true
	default:
		writeServiceError(w, log, op, err)
		return
	}

	response.WriteJSONSuccess(w, log, http.StatusOK, resp)
}

// Set godoc
// @Summary      Установить курс
// @Description  Новый курс вытесняет действующий по той же паре. Только для роли admin.
// @Tags         rates
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request body models.SetRateRequest true "Курс"
// @Success      201 {object} models.ExchangeRate
// @Failure      400 {object} response.ErrorResponse
// @Failure      403 {object} response.ErrorResponse
// @Router       /rates [post]
func (h *RateHandler) Set(w http.ResponseWriter, r *http.Request) {
	const op = "handler.RateHandler.Set"
	log := middlew.GetLogger(r.Context())

	var req models.SetRateRequest
	if !decodeJSON(w, r, op, &req) {
		return
	}

	rate, err := h.service.SetRate(r.Context(), middlew.GetOperator(r.Context()), req)
	if err != nil {
		writeServiceError(w, log, op, err)
		return
	}

	log.Info("rate set",
		slog.String("op", op),
		slog.String("base", string(rate.Base)),
		slog.String("target", string(rate.Target)),
		slog.String("rate", rate.Rate.String()))

	response.WriteJSONSuccess(w, log, http.StatusCreated, rate)
}
