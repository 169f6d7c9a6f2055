package handlers

import (
	"encoding/json"
	"fmt"
	"gw-teller-ledger/internal/api/middlew"
	"gw-teller-ledger/internal/custom_err"
	"gw-teller-ledger/internal/models"
	"gw-teller-ledger/pkg/logger"
	"gw-teller-ledger/pkg/response"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var teller = models.Operator{ID: "op-1", BranchID: "br-1", Role: models.RoleTeller}

type staticValidator struct{}

func (staticValidator) ValidateToken(token string) (*models.OperatorClaims, error) {
	if token != "ok" {
		return nil, custom_err.ErrInvalidToken
	}
	return &models.OperatorClaims{OperatorID: teller.ID, BranchID: teller.BranchID}, nil
}

func newTestRouter(reg *MockRegister, txs *MockTransactions, rates *MockRates) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middlew.WithLogger(logger.NewDiscard()))
	r.Use(middlew.RequireOperator(staticValidator{}))

	rh := NewRegisterHandler(reg)
	r.Post("/registers", rh.Open)
	r.Get("/registers/current", rh.GetCurrent)
	r.Get("/registers/{sessionID}", rh.Get)
	r.Get("/registers/{sessionID}/operations", rh.ListOperations)
	r.Post("/registers/{sessionID}/deposit", rh.Deposit)
	r.Post("/registers/{sessionID}/withdraw", rh.Withdraw)
	r.Post("/registers/{sessionID}/reconcile", rh.Reconcile)
	r.Post("/registers/{sessionID}/close", rh.Close)

	th := NewTransactionHandler(txs)
	r.Post("/transactions", th.Create)
	r.Get("/transactions", th.List)
	r.Get("/transactions/reference/{reference}", th.GetByReference)
	r.Get("/transactions/{id}", th.Get)
	r.Post("/transactions/{id}/advance", th.Advance)
	r.Post("/transactions/{id}/cancel", th.Cancel)

	ph := NewRateHandler(rates)
	r.Get("/rates", ph.List)
	r.Get("/rates/{base}/{target}", ph.Get)
	r.Post("/rates", ph.Set)
	return r
}

func do(t *testing.T, router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	req.Header.Set("Authorization", "Bearer ok")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func errorBody(t *testing.T, rec *httptest.ResponseRecorder) response.ErrorResponse {
	t.Helper()
	var body response.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

func TestRegisterHandler_Open(t *testing.T) {
	reg := new(MockRegister)
	session := &models.CashRegisterSession{ID: uuid.New(), OperatorID: teller.ID, Status: models.SessionOpen}
	reg.On("Open", mock.Anything, teller, models.OpenRegisterRequest{
		InitialBalances: map[models.Currency]string{"USD": "1000.00"},
	}).Return(session, nil)

	rec := do(t, newTestRouter(reg, nil, nil), http.MethodPost, "/registers", `{"initial_balances":{"USD":"1000.00"}}`)

	assert.Equal(t, http.StatusCreated, rec.Code)
	var got models.CashRegisterSession
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, session.ID, got.ID)
	reg.AssertExpectations(t)
}

func TestRegisterHandler_OpenInvalidJSON(t *testing.T) {
	rec := do(t, newTestRouter(new(MockRegister), nil, nil), http.MethodPost, "/registers", `{`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_json", errorBody(t, rec).Error)
}

func TestRegisterHandler_ErrorMapping(t *testing.T) {
	sessionID := uuid.New()
	movement := models.CashMovementRequest{Currency: "USD", Amount: "50.00"}

	tests := []struct {
		name   string
		err    error
		status int
		code   string
		field  string
	}{
		{"insufficient funds", fmt.Errorf("service: %w", custom_err.ErrInsufficientFunds), http.StatusUnprocessableEntity, "insufficient_funds", ""},
		{"closed", custom_err.ErrSessionClosed, http.StatusConflict, "register_closed", ""},
		{"ownership", custom_err.ErrSessionOwnership, http.StatusConflict, "register_ownership", ""},
		{"not found", custom_err.ErrNotFound, http.StatusNotFound, "not_found", ""},
		{"timeout", custom_err.ErrUpstreamTimeout, http.StatusGatewayTimeout, "upstream_timeout", ""},
		{"validation", custom_err.NewValidationErrorKind("amount", "must be positive", custom_err.ErrInvalidAmount), http.StatusBadRequest, "validation_error", "amount"},
		{"unknown", fmt.Errorf("boom"), http.StatusInternalServerError, "internal_error", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := new(MockRegister)
			reg.On("Withdraw", mock.Anything, teller, sessionID, movement).Return(nil, tt.err)

			rec := do(t, newTestRouter(reg, nil, nil), http.MethodPost,
				"/registers/"+sessionID.String()+"/withdraw", `{"currency":"USD","amount":"50.00"}`)

			assert.Equal(t, tt.status, rec.Code)
			body := errorBody(t, rec)
			assert.Equal(t, tt.code, body.Error)
			assert.Equal(t, tt.field, body.Field)
		})
	}
}

func TestRegisterHandler_GetCurrentWithoutOpenRegister(t *testing.T) {
	reg := new(MockRegister)
	reg.On("GetCurrent", mock.Anything, teller).Return(nil, custom_err.ErrNoOpenSession)

	rec := do(t, newTestRouter(reg, nil, nil), http.MethodGet, "/registers/current", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "no_open_register", errorBody(t, rec).Error)
}

func TestRegisterHandler_InvalidSessionID(t *testing.T) {
	rec := do(t, newTestRouter(new(MockRegister), nil, nil), http.MethodGet, "/registers/not-a-uuid", "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "sessionID", errorBody(t, rec).Field)
}

func TestRegisterHandler_ReconcileAndClose(t *testing.T) {
	sessionID := uuid.New()
	reg := new(MockRegister)
	reg.On("Reconcile", mock.Anything, teller, sessionID, models.ReconcileRequest{Currency: "USD", CountedAmount: "990.00"}).
		Return(&models.RegisterOperationResponse{Session: &models.CashRegisterSession{ID: sessionID}}, nil)
	reg.On("Close", mock.Anything, teller, sessionID, models.CloseRegisterRequest{FinalBalances: map[models.Currency]string{"USD": "990.00"}}).
		Return(&models.CashRegisterSession{ID: sessionID, Status: models.SessionClosed}, nil)
	router := newTestRouter(reg, nil, nil)

	rec := do(t, router, http.MethodPost, "/registers/"+sessionID.String()+"/reconcile", `{"currency":"USD","counted_amount":"990.00"}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, router, http.MethodPost, "/registers/"+sessionID.String()+"/close", `{"final_balances":{"USD":"990.00"}}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	var got models.CashRegisterSession
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, models.SessionClosed, got.Status)
	reg.AssertExpectations(t)
}

func TestTransactionHandler_Create(t *testing.T) {
	req := models.TransactionRequest{
		Type:            models.TransactionRemittance,
		SendAmount:      "1000.00",
		SendCurrency:    "USD",
		ReceiveCurrency: "EUR",
		SenderID:        "cust-1",
	}
	txn := &models.Transaction{ID: uuid.New(), Reference: "REM123456789012", Status: models.StatusPending}

	txs := new(MockTransactions)
	txs.On("CreateTransaction", mock.Anything, teller, req).Return(txn, nil)

	rec := do(t, newTestRouter(nil, txs, nil), http.MethodPost, "/transactions",
		`{"type":"REMITTANCE","send_amount":"1000.00","send_currency":"USD","receive_currency":"EUR","sender_id":"cust-1"}`)

	assert.Equal(t, http.StatusCreated, rec.Code)
	var got map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, "REM123456789012", got["reference"])
}

func TestTransactionHandler_CreateRateNotFound(t *testing.T) {
	txs := new(MockTransactions)
	txs.On("CreateTransaction", mock.Anything, teller, mock.Anything).
		Return(nil, fmt.Errorf("%w: USD/XYZ", custom_err.ErrRateNotFound))

	rec := do(t, newTestRouter(nil, txs, nil), http.MethodPost, "/transactions", `{"type":"REMITTANCE"}`)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "rate_not_found", errorBody(t, rec).Error)
}

func TestTransactionHandler_Advance(t *testing.T) {
	id := uuid.New()
	txs := new(MockTransactions)
	txs.On("Advance", mock.Anything, teller, id, models.AdvanceRequest{Status: models.StatusCompleted}).
		Return(nil, custom_err.ErrInvalidStateTransition)

	rec := do(t, newTestRouter(nil, txs, nil), http.MethodPost, "/transactions/"+id.String()+"/advance", `{"status":"COMPLETED"}`)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "invalid_state_transition", errorBody(t, rec).Error)
}

func TestTransactionHandler_CancelWithoutBody(t *testing.T) {
	id := uuid.New()
	txs := new(MockTransactions)
	txs.On("Cancel", mock.Anything, teller, id, "").
		Return(&models.Transaction{ID: id, Status: models.StatusCancelled}, nil)

	rec := do(t, newTestRouter(nil, txs, nil), http.MethodPost, "/transactions/"+id.String()+"/cancel", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	txs.AssertExpectations(t)
}

func TestTransactionHandler_GetByReference(t *testing.T) {
	txs := new(MockTransactions)
	txs.On("GetByReference", mock.Anything, "rem123456789012").Return(nil, custom_err.ErrNotFound)

	rec := do(t, newTestRouter(nil, txs, nil), http.MethodGet, "/transactions/reference/rem123456789012", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTransactionHandler_List(t *testing.T) {
	txs := new(MockTransactions)
	txs.On("List", mock.Anything, teller, 0, 10).Return([]*models.Transaction{{ID: uuid.New()}}, nil)
	router := newTestRouter(nil, txs, nil)

	rec := do(t, router, http.MethodGet, "/transactions?offset=10", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var got struct {
		Transactions []map[string]any `json:"transactions"`
		Limit        int              `json:"limit"`
		Offset       int              `json:"offset"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Len(t, got.Transactions, 1)
	assert.Equal(t, 50, got.Limit)
	assert.Equal(t, 10, got.Offset)

	rec = do(t, router, http.MethodGet, "/transactions?limit=ten", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "limit", errorBody(t, rec).Field)
}

func TestRateHandler_Get(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		err      error
		status   int
		rate     string
		fallback bool
	}{
		{"resolved", "", nil, http.StatusOK, "0.92", false},
		{"missing without fallback", "", custom_err.ErrRateNotFound, http.StatusUnprocessableEntity, "", false},
		{"identity fallback", "?fallback=identity", custom_err.ErrRateNotFound, http.StatusOK, "1", true},
		{"fallback does not hide timeouts", "?fallback=identity", custom_err.ErrUpstreamTimeout, http.StatusGatewayTimeout, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rates := new(MockRates)
			rate := decimal.Zero
			if tt.err == nil {
				rate = decimal.RequireFromString("0.92")
			}
			rates.On("Resolve", mock.Anything, models.CurrencyUSD, models.CurrencyEUR).Return(rate, tt.err)

			rec := do(t, newTestRouter(nil, nil, rates), http.MethodGet, "/rates/usd/eur"+tt.query, "")

			require.Equal(t, tt.status, rec.Code)
			if tt.status != http.StatusOK {
				return
			}
			var got models.ResolvedRateResponse
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
			assert.True(t, got.Rate.Equal(decimal.RequireFromString(tt.rate)))
			assert.Equal(t, tt.fallback, got.Fallback)
		})
	}
}

func TestRateHandler_GetUnsupportedFallback(t *testing.T) {
	rec := do(t, newTestRouter(nil, nil, new(MockRates)), http.MethodGet, "/rates/USD/EUR?fallback=last", "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "fallback", errorBody(t, rec).Field)
}

func TestRateHandler_Set(t *testing.T) {
	rates := new(MockRates)
	rates.On("SetRate", mock.Anything, teller, models.SetRateRequest{Base: "USD", Target: "EUR", Rate: "0.92"}).
		Return(&models.ExchangeRate{Base: "USD", Target: "EUR", Rate: decimal.RequireFromString("0.92")}, nil)

	rec := do(t, newTestRouter(nil, nil, rates), http.MethodPost, "/rates", `{"base":"USD","target":"EUR","rate":"0.92"}`)

	assert.Equal(t, http.StatusCreated, rec.Code)
	rates.AssertExpectations(t)
}
