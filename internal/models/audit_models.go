package models

import (
	"time"

	"github.com/google/uuid"
)

type AuditStatus string

const (
	AuditSuccess AuditStatus = "SUCCESS"
	AuditFailure AuditStatus = "FAILURE"
)

// AuditEvent событие аудита, отправляется в kafka
type AuditEvent struct {
	EventID   uuid.UUID         `json:"event_id"`           // Уникальный ID события
	Action    string            `json:"action"`             // Действие, например TRANSACTION_CREATED
	Module    string            `json:"module"`             // Модуль: registers, transactions, rates
	Details   string            `json:"details"`            // Описание для человека
	Status    AuditStatus       `json:"status"`             // SUCCESS или FAILURE
	UserID    string            `json:"user_id"`            // Оператор
	Metadata  map[string]string `json:"metadata,omitempty"` // Доп. поля: reference, session_id и т.д.
	Timestamp time.Time         `json:"timestamp"`          // Время операции
}

// AuditRecord запись аудита в архиве (mongodb)
type AuditRecord struct {
	ID          string            `bson:"_id,omitempty" json:"id"`
	EventID     string            `bson:"event_id" json:"event_id"`
	Action      string            `bson:"action" json:"action"`
	Module      string            `bson:"module" json:"module"`
	Details     string            `bson:"details" json:"details"`
	Status      string            `bson:"status" json:"status"`
	UserID      string            `bson:"user_id" json:"user_id"`
	Metadata    map[string]string `bson:"metadata,omitempty" json:"metadata,omitempty"`
	Timestamp   time.Time         `bson:"timestamp" json:"timestamp"`
	ProcessedAt time.Time         `bson:"processed_at" json:"processed_at"`
}
