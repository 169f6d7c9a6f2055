package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TransactionRemittance TransactionType = "REMITTANCE"
	TransactionExchange   TransactionType = "EXCHANGE"
	TransactionDeposit    TransactionType = "DEPOSIT"
	TransactionWithdrawal TransactionType = "WITHDRAWAL"
)

func (t TransactionType) IsValid() bool {
	switch t {
	case TransactionRemittance, TransactionExchange, TransactionDeposit, TransactionWithdrawal:
		return true
	}
	return false
}

// ReferencePrefix трёхбуквенный префикс референса
func (t TransactionType) ReferencePrefix() string {
	switch t {
	case TransactionRemittance:
		return "REM"
	case TransactionExchange:
		return "EXC"
	case TransactionDeposit:
		return "DEP"
	case TransactionWithdrawal:
		return "WDR"
	}
	return "TRX"
}

// RequiresRate reports whether the type may move value across currencies.
func (t TransactionType) RequiresRate() bool {
	return t == TransactionRemittance || t == TransactionExchange
}

type TransactionStatus string

const (
	StatusPending   TransactionStatus = "PENDING"
	StatusCompleted TransactionStatus = "COMPLETED"
	StatusFailed    TransactionStatus = "FAILED"
	StatusCancelled TransactionStatus = "CANCELLED"
)

func (s TransactionStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusCompleted, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

func (s TransactionStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

// CanTransitionTo: PENDING is the only non-terminal state.
func (s TransactionStatus) CanTransitionTo(target TransactionStatus) bool {
	if s != StatusPending {
		return false
	}
	return target == StatusCompleted || target == StatusFailed || target == StatusCancelled
}

type PayoutMethod string

const (
	PayoutCash         PayoutMethod = "CASH"
	PayoutBankTransfer PayoutMethod = "BANK_TRANSFER"
	PayoutMobileWallet PayoutMethod = "MOBILE_WALLET"
)

func (p PayoutMethod) IsValid() bool {
	return p == PayoutCash || p == PayoutBankTransfer || p == PayoutMobileWallet
}

// Transaction денежный перевод или обмен, проведённый оператором
type Transaction struct {
	ID                  uuid.UUID         `json:"id"`
	Reference           string            `json:"reference"`
	Type                TransactionType   `json:"type"`
	Status              TransactionStatus `json:"status"`
	SendAmount          Money             `json:"send_amount"`
	ReceiveAmount       Money             `json:"receive_amount"`
	Fee                 Money             `json:"fee"`
	ExchangeRate        *decimal.Decimal  `json:"exchange_rate,omitempty"`
	PayoutMethod        PayoutMethod      `json:"payout_method"`
	SenderID            string            `json:"sender_id"`
	ReceiverID          string            `json:"receiver_id,omitempty"`
	OperatorID          string            `json:"operator_id"`
	BranchID            string            `json:"branch_id"`
	SettlementSessionID *uuid.UUID        `json:"settlement_session_id,omitempty"`
	Notes               string            `json:"notes,omitempty"`
	CreatedAt           time.Time         `json:"created_at"`
	CompletedAt         *time.Time        `json:"completed_at,omitempty"`
}

// TransactionRequest запрос на создание транзакции
type TransactionRequest struct {
	Type            TransactionType `json:"type"`
	SendAmount      string          `json:"send_amount"`
	SendCurrency    Currency        `json:"send_currency"`
	ReceiveCurrency Currency        `json:"receive_currency"`
	SenderID        string          `json:"sender_id"`
	ReceiverID      string          `json:"receiver_id,omitempty"`
	PayoutMethod    PayoutMethod    `json:"payout_method"`
	Notes           string          `json:"notes,omitempty"`
}

// AdvanceRequest перевод транзакции в новый статус
type AdvanceRequest struct {
	Status TransactionStatus `json:"status"`
	Reason string            `json:"reason,omitempty"`
}

// CancelRequest отмена транзакции
type CancelRequest struct {
	Reason string `json:"reason,omitempty"`
}

// TransactionListResponse история транзакций оператора
type TransactionListResponse struct {
	Transactions []*Transaction `json:"transactions"`
	Limit        int            `json:"limit"`
	Offset       int            `json:"offset"`
}
