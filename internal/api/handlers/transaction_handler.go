package handlers

import (
	"gw-teller-ledger/internal/api/middlew"
	"gw-teller-ledger/internal/models"
	"gw-teller-ledger/internal/service"
	"gw-teller-ledger/pkg/response"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

type TransactionHandler struct {
	service service.Transactions
}

func NewTransactionHandler(service service.Transactions) *TransactionHandler {
	return &TransactionHandler{
		service: service,
	}
}

// Create godoc
// @Summary      Создать транзакцию
// @Description  Рассчитывает курс и комиссию, выдаёт референс. Транзакция создаётся в статусе PENDING.
// @Tags         transactions
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request body models.TransactionRequest true "Данные транзакции"
// @Success      201 {object} models.Transaction
// @Failure      400 {object} response.ErrorResponse
// @Failure      422 {object} response.ErrorResponse
// @Failure      504 {object} response.ErrorResponse
// @Router       /transactions [post]
func (h *TransactionHandler) Create(w http.ResponseWriter, r *http.Request) {
	const op = "handler.TransactionHandler.Create"
	log := middlew.GetLogger(r.Context())
	operator := middlew.GetOperator(r.Context())

	var req models.TransactionRequest
	if !decodeJSON(w, r, op, &req) {
		return
	}

	log.Info("transaction request",
		slog.String("op", op),
		slog.String("type", string(req.Type)),
		slog.String("amount", req.SendAmount),
		slog.String("from", string(req.SendCurrency)),
		slog.String("to", string(req.ReceiveCurrency)))

	txn, err := h.service.CreateTransaction(r.Context(), operator, req)
	if err != nil {
		writeServiceError(w, log, op, err)
		return
	}

	response.WriteJSONSuccess(w, log, http.StatusCreated, txn)
}

// Get godoc
// @Summary      Получить транзакцию
// @Tags         transactions
// @Security     BearerAuth
// @Produce      json
// @Param        id path string true "ID транзакции"
// @Success      200 {object} models.Transaction
// @Failure      404 {object} response.ErrorResponse
// @Router       /transactions/{id} [get]
func (h *TransactionHandler) Get(w http.ResponseWriter, r *http.Request) {
	const op = "handler.TransactionHandler.Get"
	log := middlew.GetLogger(r.Context())

	id, ok := uuidParam(w, r, op, "id")
	if !ok {
		return
	}

	txn, err := h.service.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, log, op, err)
		return
	}

	response.WriteJSONSuccess(w, log, http.StatusOK, txn)
}

// GetByReference godoc
// @Summary      Найти транзакцию по референсу
// @Tags         transactions
// @Security     BearerAuth
// @Produce      json
// @Param        reference path string true "Референс, например REM123456789012"
// @Success      200 {object} models.Transaction
// @Failure      404 {object} response.ErrorResponse
// @Router       /transactions/reference/{reference} [get]
func (h *TransactionHandler) GetByReference(w http.ResponseWriter, r *http.Request) {
	const op = "handler.TransactionHandler.GetByReference"
	log := middlew.GetLogger(r.Context())

	txn, err := h.service.GetByReference(r.Context(), chi.URLParam(r, "reference"))
	if err != nil {
		writeServiceError(w, log, op, err)
		return
	}

	response.WriteJSONSuccess(w, log, http.StatusOK, txn)
}

// List godoc
// @Summary      История транзакций оператора
// @Tags         transactions
// @Security     BearerAuth
// @Produce      json
// @Param        limit query int false "Размер страницы (по умолчанию 50, максимум 500)"
// @Param        offset query int false "Смещение"
// @Success      200 {object} models.TransactionListResponse
// @Failure      400 {object} response.ErrorResponse
// @Router       /transactions [get]
func (h *TransactionHandler) List(w http.ResponseWriter, r *http.Request) {
	const op = "handler.TransactionHandler.List"
	log := middlew.GetLogger(r.Context())

	limit, ok := intQuery(w, r, op, "limit")
	if !ok {
		return
	}
	offset, ok := intQuery(w, r, op, "offset")
	if !ok {
		return
	}

	txns, err := h.service.List(r.Context(), middlew.GetOperator(r.Context()), limit, offset)
	if err != nil {
		writeServiceError(w, log, op, err)
		return
	}

	response.WriteJSONSuccess(w, log, http.StatusOK, models.TransactionListResponse{
		Transactions: txns,
		Limit:        service.ListLimit(limit),
		Offset:       offset,
	})
}

// Advance godoc
// @Summary      Сменить статус транзакции
// @Description  COMPLETED проводит наличные через открытую кассу оператора, FAILED фиксирует причину
// @Tags         transactions
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id path string true "ID транзакции"
// @Param        request body models.AdvanceRequest true "Новый статус"
// @Success      200 {object} models.Transaction
// @Failure      409 {object} response.ErrorResponse
// @Failure      422 {object} response.ErrorResponse
// @Router       /transactions/{id}/advance [post]
func (h *TransactionHandler) Advance(w http.ResponseWriter, r *http.Request) {
	const op = "handler.TransactionHandler.Advance"
	log := middlew.GetLogger(r.Context())

	id, ok := uuidParam(w, r, op, "id")
	if !ok {
		return
	}

	var req models.AdvanceRequest
	if !decodeJSON(w, r, op, &req) {
		return
	}

	txn, err := h.service.Advance(r.Context(), middlew.GetOperator(r.Context()), id, req)
	if err != nil {
		writeServiceError(w, log, op, err)
		return
	}

	response.WriteJSONSuccess(w, log, http.StatusOK, txn)
}

// Cancel godoc
// @Summary      Отменить транзакцию
// @Tags         transactions
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id path string true "ID транзакции"
// @Param        request body models.CancelRequest false "Причина"
// @Success      200 {object} models.Transaction
// @Failure      409 {object} response.ErrorResponse
// @Router       /transactions/{id}/cancel [post]
func (h *TransactionHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	const op = "handler.TransactionHandler.Cancel"
	log := middlew.GetLogger(r.Context())

	id, ok := uuidParam(w, r, op, "id")
	if !ok {
		return
	}

	var req models.CancelRequest
	if r.ContentLength != 0 {
		if !decodeJSON(w, r, op, &req) {
			return
		}
	}

	txn, err := h.service.Cancel(r.Context(), middlew.GetOperator(r.Context()), id, req.Reason)
	if err != nil {
		writeServiceError(w, log, op, err)
		return
	}

	response.WriteJSONSuccess(w, log, http.StatusOK, txn)
}

func intQuery(w http.ResponseWriter, r *http.Request, op, name string) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		log := middlew.GetLogger(r.Context())
		log.Warn("invalid query parameter", slog.String("op", op), slog.String(name, raw))
		response.WriteFieldError(w, log, http.StatusBadRequest, "invalid_request", name, "Must be an integer")
		return 0, false
	}
	return n, true
}
