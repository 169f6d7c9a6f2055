package handlers

import (
	"context"
	"errors"
	"gw-teller-ledger/internal/api/middlew"
	"gw-teller-ledger/internal/custom_err"
	"gw-teller-ledger/internal/models"
	"gw-teller-ledger/internal/service"
	"gw-teller-ledger/pkg/response"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
)

type RegisterHandler struct {
	service service.Register
}

func NewRegisterHandler(service service.Register) *RegisterHandler {
	return &RegisterHandler{
		service: service,
	}
}

// Open godoc
// @Summary      Открыть кассу
// @Description  Открывает кассовую смену оператора с начальными остатками
// @Tags         registers
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request body models.OpenRegisterRequest true "Начальные остатки"
// @Success      201 {object} models.CashRegisterSession
// @Failure      400 {object} response.ErrorResponse
// @Failure      409 {object} response.ErrorResponse
// @Router       /registers [post]
func (h *RegisterHandler) Open(w http.ResponseWriter, r *http.Request) {
	const op = "handler.RegisterHandler.Open"
	log := middlew.GetLogger(r.Context())
	operator := middlew.GetOperator(r.Context())

	var req models.OpenRegisterRequest
	if !decodeJSON(w, r, op, &req) {
		return
	}

	session, err := h.service.Open(r.Context(), operator, req)
	if err != nil {
		writeServiceError(w, log, op, err)
		return
	}

	response.WriteJSONSuccess(w, log, http.StatusCreated, session)
}

// GetCurrent godoc
// @Summary      Текущая касса
// @Description  Возвращает открытую кассу оператора
// @Tags         registers
// @Security     BearerAuth
// @Produce      json
// @Success      200 {object} models.CashRegisterSession
// @Failure      404 {object} response.ErrorResponse
// @Router       /registers/current [get]
func (h *RegisterHandler) GetCurrent(w http.ResponseWriter, r *http.Request) {
	const op = "handler.RegisterHandler.GetCurrent"
	log := middlew.GetLogger(r.Context())
	operator := middlew.GetOperator(r.Context())

	session, err := h.service.GetCurrent(r.Context(), operator)
	if err != nil {
		if errors.Is(err, custom_err.ErrNoOpenSession) {
			log.Info("no open register", slog.String("op", op))
			response.WriteJSONError(w, log, http.StatusNotFound, "no_open_register", "Operator has no open register")
			return
		}
		writeServiceError(w, log, op, err)
		return
	}

	response.WriteJSONSuccess(w, log, http.StatusOK, session)
}

// Get godoc
// @Summary      Получить кассу
// @Tags         registers
// @Security     BearerAuth
// @Produce      json
// @Param        sessionID path string true "ID кассовой смены"
// @Success      200 {object} models.CashRegisterSession
// @Failure      404 {object} response.ErrorResponse
// @Failure      409 {object} response.ErrorResponse
// @Router       /registers/{sessionID} [get]
func (h *RegisterHandler) Get(w http.ResponseWriter, r *http.Request) {
	const op = "handler.RegisterHandler.Get"
	log := middlew.GetLogger(r.Context())

	id, ok := uuidParam(w, r, op, "sessionID")
	if !ok {
		return
	}

	session, err := h.service.Get(r.Context(), middlew.GetOperator(r.Context()), id)
	if err != nil {
		writeServiceError(w, log, op, err)
		return
	}

	response.WriteJSONSuccess(w, log, http.StatusOK, session)
}

// ListOperations godoc
// @Summary      Журнал кассы
// @Description  Операции кассовой смены в порядке проведения
// @Tags         registers
// @Security     BearerAuth
// @Produce      json
// @Param        sessionID path string true "ID кассовой смены"
// @Success      200 {array} models.CashOperation
// @Failure      404 {object} response.ErrorResponse
// @Router       /registers/{sessionID}/operations [get]
func (h *RegisterHandler) ListOperations(w http.ResponseWriter, r *http.Request) {
	const op = "handler.RegisterHandler.ListOperations"
	log := middlew.GetLogger(r.Context())

	id, ok := uuidParam(w, r, op, "sessionID")
	if !ok {
		return
	}

	ops, err := h.service.ListOperations(r.Context(), middlew.GetOperator(r.Context()), id)
	if err != nil {
		writeServiceError(w, log, op, err)
		return
	}

	response.WriteJSONSuccess(w, log, http.StatusOK, map[string]any{
		"operations": ops,
	})
}

// Deposit godoc
// @Summary      Внести наличные
// @Tags         registers
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        sessionID path string true "ID кассовой смены"
// @Param        request body models.CashMovementRequest true "Сумма и валюта"
// @Success      200 {object} models.RegisterOperationResponse
// @Failure      400 {object} response.ErrorResponse
// @Failure      409 {object} response.ErrorResponse
// @Router       /registers/{sessionID}/deposit [post]
func (h *RegisterHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	h.movement(w, r, "handler.RegisterHandler.Deposit", h.service.Deposit)
}

// Withdraw godoc
// @Summary      Изъять наличные
// @Tags         registers
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        sessionID path string true "ID кассовой смены"
// @Param        request body models.CashMovementRequest true "Сумма и валюта"
// @Success      200 {object} models.RegisterOperationResponse
// @Failure      400 {object} response.ErrorResponse
// @Failure      422 {object} response.ErrorResponse
// @Router       /registers/{sessionID}/withdraw [post]
func (h *RegisterHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	h.movement(w, r, "handler.RegisterHandler.Withdraw", h.service.Withdraw)
}

type movementFunc func(ctx context.Context, operator models.Operator, sessionID uuid.UUID, req models.CashMovementRequest) (*models.RegisterOperationResponse, error)

func (h *RegisterHandler) movement(w http.ResponseWriter, r *http.Request, op string, apply movementFunc) {
	log := middlew.GetLogger(r.Context())
	operator := middlew.GetOperator(r.Context())

	id, ok := uuidParam(w, r, op, "sessionID")
	if !ok {
		return
	}

	var req models.CashMovementRequest
	if !decodeJSON(w, r, op, &req) {
		return
	}

	log.Info("cash movement request",
		slog.String("op", op),
		slog.String("session_id", id.String()),
		slog.String("amount", req.Amount),
		slog.String("currency", string(req.Currency)))

	result, err := apply(r.Context(), operator, id, req)
	if err != nil {
		writeServiceError(w, log, op, err)
		return
	}

	response.WriteJSONSuccess(w, log, http.StatusOK, result)
}

// Reconcile godoc
// @Summary      Пересчёт наличных
// @Description  Фиксирует расхождение пересчёта операцией ADJUSTMENT
// @Tags         registers
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        sessionID path string true "ID кассовой смены"
// @Param        request body models.ReconcileRequest true "Пересчитанная сумма"
// @Success      200 {object} models.RegisterOperationResponse
// @Failure      400 {object} response.ErrorResponse
// @Failure      409 {object} response.ErrorResponse
// @Router       /registers/{sessionID}/reconcile [post]
func (h *RegisterHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	const op = "handler.RegisterHandler.Reconcile"
	log := middlew.GetLogger(r.Context())

	id, ok := uuidParam(w, r, op, "sessionID")
	if !ok {
		return
	}

	var req models.ReconcileRequest
	if !decodeJSON(w, r, op, &req) {
		return
	}

	result, err := h.service.Reconcile(r.Context(), middlew.GetOperator(r.Context()), id, req)
	if err != nil {
		writeServiceError(w, log, op, err)
		return
	}

	response.WriteJSONSuccess(w, log, http.StatusOK, result)
}

// Close godoc
// @Summary      Закрыть кассу
// @Description  Закрывает смену, расхождения с итоговыми остатками проводятся как ADJUSTMENT
// @Tags         registers
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        sessionID path string true "ID кассовой смены"
// @Param        request body models.CloseRegisterRequest true "Итоговые остатки"
// @Success      200 {object} models.CashRegisterSession
// @Failure      400 {object} response.ErrorResponse
// @Failure      409 {object} response.ErrorResponse
// @Router       /registers/{sessionID}/close [post]
func (h *RegisterHandler) Close(w http.ResponseWriter, r *http.Request) {
	const op = "handler.RegisterHandler.Close"
	log := middlew.GetLogger(r.Context())

	id, ok := uuidParam(w, r, op, "sessionID")
	if !ok {
		return
	}

	var req models.CloseRegisterRequest
	if !decodeJSON(w, r, op, &req) {
		return
	}

	session, err := h.service.Close(r.Context(), middlew.GetOperator(r.Context()), id, req)
	if err != nil {
		writeServiceError(w, log, op, err)
		return
	}

	response.WriteJSONSuccess(w, log, http.StatusOK, session)
}
