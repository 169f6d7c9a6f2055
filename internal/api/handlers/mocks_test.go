package handlers

import (
	"context"
	"gw-teller-ledger/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

type MockRegister struct {
	mock.Mock
}

func (m *MockRegister) Open(ctx context.Context, operator models.Operator, req models.OpenRegisterRequest) (*models.CashRegisterSession, error) {
	args := m.Called(ctx, operator, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CashRegisterSession), args.Error(1)
}

func (m *MockRegister) Deposit(ctx context.Context, operator models.Operator, sessionID uuid.UUID, req models.CashMovementRequest) (*models.RegisterOperationResponse, error) {
	args := m.Called(ctx, operator, sessionID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.RegisterOperationResponse), args.Error(1)
}

func (m *MockRegister) Withdraw(ctx context.Context, operator models.Operator, sessionID uuid.UUID, req models.CashMovementRequest) (*models.RegisterOperationResponse, error) {
	args := m.Called(ctx, operator, sessionID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.RegisterOperationResponse), args.Error(1)
}

func (m *MockRegister) Reconcile(ctx context.Context, operator models.Operator, sessionID uuid.UUID, req models.ReconcileRequest) (*models.RegisterOperationResponse, error) {
	args := m.Called(ctx, operator, sessionID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.RegisterOperationResponse), args.Error(1)
}

func (m *MockRegister) Close(ctx context.Context, operator models.Operator, sessionID uuid.UUID, req models.CloseRegisterRequest) (*models.CashRegisterSession, error) {
	args := m.Called(ctx, operator, sessionID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CashRegisterSession), args.Error(1)
}

func (m *MockRegister) Get(ctx context.Context, operator models.Operator, sessionID uuid.UUID) (*models.CashRegisterSession, error) {
	args := m.Called(ctx, operator, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CashRegisterSession), args.Error(1)
}

func (m *MockRegister) GetCurrent(ctx context.Context, operator models.Operator) (*models.CashRegisterSession, error) {
	args := m.Called(ctx, operator)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CashRegisterSession), args.Error(1)
}

func (m *MockRegister) ListOperations(ctx context.Context, operator models.Operator, sessionID uuid.UUID) ([]*models.CashOperation, error) {
	args := m.Called(ctx, operator, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.CashOperation), args.Error(1)
}

type MockTransactions struct {
	mock.Mock
}

func (m *MockTransactions) CreateTransaction(ctx context.Context, operator models.Operator, req models.TransactionRequest) (*models.Transaction, error) {
	args := m.Called(ctx, operator, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Transaction), args.Error(1)
}

func (m *MockTransactions) Advance(ctx context.Context, operator models.Operator, id uuid.UUID, req models.AdvanceRequest) (*models.Transaction, error) {
	args := m.Called(ctx, operator, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Transaction), args.Error(1)
}

func (m *MockTransactions) Cancel(ctx context.Context, operator models.Operator, id uuid.UUID, reason string) (*models.Transaction, error) {
	args := m.Called(ctx, operator, id, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Transaction), args.Error(1)
}

func (m *MockTransactions) Get(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Transaction), args.Error(1)
}

func (m *MockTransactions) GetByReference(ctx context.Context, reference string) (*models.Transaction, error) {
	args := m.Called(ctx, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Transaction), args.Error(1)
}

func (m *MockTransactions) List(ctx context.Context, operator models.Operator, limit, offset int) ([]*models.Transaction, error) {
	args := m.Called(ctx, operator, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Transaction), args.Error(1)
}

type MockRates struct {
	mock.Mock
}

func (m *MockRates) SetRate(ctx context.Context, actor models.Operator, req models.SetRateRequest) (*models.ExchangeRate, error) {
	args := m.Called(ctx, actor, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ExchangeRate), args.Error(1)
}

func (m *MockRates) ListCurrent(ctx context.Context) ([]*models.ExchangeRate, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.ExchangeRate), args.Error(1)
}

func (m *MockRates) Resolve(ctx context.Context, base, target models.Currency) (decimal.Decimal, error) {
	args := m.Called(ctx, base, target)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}
