package models

import (
	"time"

	"github.com/google/uuid"
)

type SessionStatus string

const (
	SessionOpen   SessionStatus = "OPEN"
	SessionClosed SessionStatus = "CLOSED"
)

// CashRegisterSession кассовая смена оператора в отделении
type CashRegisterSession struct {
	ID         uuid.UUID          `json:"id"`
	OperatorID string             `json:"operator_id"`
	BranchID   string             `json:"branch_id"`
	Status     SessionStatus      `json:"status"`
	Balances   map[Currency]Money `json:"balances"`
	OpenedAt   time.Time          `json:"opened_at"`
	ClosedAt   *time.Time         `json:"closed_at,omitempty"`
	CloseNotes string             `json:"close_notes,omitempty"`
}

func (s *CashRegisterSession) IsOpen() bool {
	return s.Status == SessionOpen
}

// Balance returns the balance for the currency, zero when the drawer never held it.
func (s *CashRegisterSession) Balance(currency Currency) Money {
	if b, ok := s.Balances[currency]; ok {
		return b
	}
	return ZeroMoney(currency)
}

type CashOperationType string

const (
	CashOpOpen       CashOperationType = "OPEN"
	CashOpDeposit    CashOperationType = "DEPOSIT"
	CashOpWithdrawal CashOperationType = "WITHDRAWAL"
	CashOpAdjustment CashOperationType = "ADJUSTMENT"
	CashOpClose      CashOperationType = "CLOSE"
)

// CashOperation запись журнала кассы, после создания не изменяется.
// Amount is signed: withdrawals and negative adjustments are below zero.
type CashOperation struct {
	ID           uuid.UUID         `json:"id"`
	SessionID    uuid.UUID         `json:"session_id"`
	Type         CashOperationType `json:"type"`
	Amount       Money             `json:"amount"`
	BalanceAfter Money             `json:"balance_after"`
	Reference    string            `json:"reference,omitempty"`
	Notes        string            `json:"notes,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
}

// OpenRegisterRequest запрос на открытие кассы
type OpenRegisterRequest struct {
	InitialBalances map[Currency]string `json:"initial_balances"`
	Notes           string              `json:"notes,omitempty"`
}

// CashMovementRequest запрос на внесение/изъятие наличных
type CashMovementRequest struct {
	Currency  Currency `json:"currency"`
	Amount    string   `json:"amount"`
	Reference string   `json:"reference,omitempty"`
	Notes     string   `json:"notes,omitempty"`
}

// ReconcileRequest пересчёт наличных по валюте
type ReconcileRequest struct {
	Currency      Currency `json:"currency"`
	CountedAmount string   `json:"counted_amount"`
	Notes         string   `json:"notes,omitempty"`
}

// CloseRegisterRequest закрытие кассы с итоговыми остатками
type CloseRegisterRequest struct {
	FinalBalances map[Currency]string `json:"final_balances"`
	Notes         string              `json:"notes,omitempty"`
}

// RegisterOperationResponse ответ на операцию с кассой
type RegisterOperationResponse struct {
	Session   *CashRegisterSession `json:"session"`
	Operation *CashOperation       `json:"operation,omitempty"`
}
