// Package docs регистрирует описание API для swag и http-swagger.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/registers": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["registers"],
                "summary": "Открыть кассу",
                "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/models.OpenRegisterRequest"}}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/models.CashRegisterSession"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/response.ErrorResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/response.ErrorResponse"}}
                }
            }
        },
        "/registers/current": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["registers"],
                "summary": "Текущая касса",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.CashRegisterSession"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/response.ErrorResponse"}}
                }
            }
        },
        "/registers/{sessionID}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["registers"],
                "summary": "Получить кассу",
                "parameters": [{"type": "string", "in": "path", "name": "sessionID", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.CashRegisterSession"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/response.ErrorResponse"}}
                }
            }
        },
        "/registers/{sessionID}/operations": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["registers"],
                "summary": "Журнал кассы",
                "parameters": [{"type": "string", "in": "path", "name": "sessionID", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/models.CashOperation"}}}
                }
            }
        },
        "/registers/{sessionID}/deposit": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["registers"],
                "summary": "Внести наличные",
                "parameters": [
                    {"type": "string", "in": "path", "name": "sessionID", "required": true},
                    {"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/models.CashMovementRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.RegisterOperationResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/response.ErrorResponse"}}
                }
            }
        },
        "/registers/{sessionID}/withdraw": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["registers"],
                "summary": "Изъять наличные",
                "parameters": [
                    {"type": "string", "in": "path", "name": "sessionID", "required": true},
                    {"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/models.CashMovementRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.RegisterOperationResponse"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/response.ErrorResponse"}}
                }
            }
        },
        "/registers/{sessionID}/reconcile": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["registers"],
                "summary": "Пересчёт наличных",
                "parameters": [
                    {"type": "string", "in": "path", "name": "sessionID", "required": true},
                    {"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/models.ReconcileRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.RegisterOperationResponse"}}
                }
            }
        },
        "/registers/{sessionID}/close": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["registers"],
                "summary": "Закрыть кассу",
                "parameters": [
                    {"type": "string", "in": "path", "name": "sessionID", "required": true},
                    {"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/models.CloseRegisterRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.CashRegisterSession"}}
                }
            }
        },
        "/transactions": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["transactions"],
                "summary": "История транзакций оператора",
                "parameters": [
                    {"type": "integer", "in": "query", "name": "limit"},
                    {"type": "integer", "in": "query", "name": "offset"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.TransactionListResponse"}}
                }
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["transactions"],
                "summary": "Создать транзакцию",
                "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/models.TransactionRequest"}}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/models.Transaction"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/response.ErrorResponse"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/response.ErrorResponse"}},
                    "504": {"description": "Gateway Timeout", "schema": {"$ref": "#/definitions/response.ErrorResponse"}}
                }
            }
        },
        "/transactions/reference/{reference}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["transactions"],
                "summary": "Найти транзакцию по референсу",
                "parameters": [{"type": "string", "in": "path", "name": "reference", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Transaction"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/response.ErrorResponse"}}
                }
            }
        },
        "/transactions/{id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["transactions"],
                "summary": "Получить транзакцию",
                "parameters": [{"type": "string", "in": "path", "name": "id", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Transaction"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/response.ErrorResponse"}}
                }
            }
        },
        "/transactions/{id}/advance": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["transactions"],
                "summary": "Сменить статус транзакции",
                "parameters": [
                    {"type": "string", "in": "path", "name": "id", "required": true},
                    {"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/models.AdvanceRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Transaction"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/response.ErrorResponse"}}
                }
            }
        },
        "/transactions/{id}/cancel": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["transactions"],
                "summary": "Отменить транзакцию",
                "parameters": [
                    {"type": "string", "in": "path", "name": "id", "required": true},
                    {"in": "body", "name": "request", "schema": {"$ref": "#/definitions/models.CancelRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Transaction"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/response.ErrorResponse"}}
                }
            }
        },
        "/rates": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["rates"],
                "summary": "Действующие курсы",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.ExchangeRatesResponse"}}
                }
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["rates"],
                "summary": "Установить курс",
                "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/models.SetRateRequest"}}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/models.ExchangeRate"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/response.ErrorResponse"}}
                }
            }
        },
        "/rates/{base}/{target}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["rates"],
                "summary": "Курс пары",
                "parameters": [
                    {"type": "string", "in": "path", "name": "base", "required": true},
                    {"type": "string", "in": "path", "name": "target", "required": true},
                    {"type": "string", "in": "query", "name": "fallback"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.ResolvedRateResponse"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/response.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "models.Money": {
            "type": "object",
            "properties": {
                "amount": {"type": "string", "example": "1000.00"},
                "currency": {"type": "string", "example": "USD"}
            }
        },
        "models.OpenRegisterRequest": {
            "type": "object",
            "properties": {
                "initial_balances": {"type": "object", "additionalProperties": {"type": "string"}},
                "notes": {"type": "string"}
            }
        },
        "models.CloseRegisterRequest": {
            "type": "object",
            "properties": {
                "final_balances": {"type": "object", "additionalProperties": {"type": "string"}},
                "notes": {"type": "string"}
            }
        },
        "models.CashMovementRequest": {
            "type": "object",
            "properties": {
                "currency": {"type": "string"},
                "amount": {"type": "string"},
                "reference": {"type": "string"},
                "notes": {"type": "string"}
            }
        },
        "models.ReconcileRequest": {
            "type": "object",
            "properties": {
                "currency": {"type": "string"},
                "counted_amount": {"type": "string"},
                "notes": {"type": "string"}
            }
        },
        "models.CashRegisterSession": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "operator_id": {"type": "string"},
                "branch_id": {"type": "string"},
                "status": {"type": "string", "enum": ["OPEN", "CLOSED"]},
                "balances": {"type": "object", "additionalProperties": {"$ref": "#/definitions/models.Money"}},
                "opened_at": {"type": "string"},
                "closed_at": {"type": "string"},
                "close_notes": {"type": "string"}
            }
        },
        "models.CashOperation": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "session_id": {"type": "string"},
                "type": {"type": "string", "enum": ["OPEN", "DEPOSIT", "WITHDRAWAL", "ADJUSTMENT", "CLOSE"]},
                "amount": {"$ref": "#/definitions/models.Money"},
                "balance_after": {"$ref": "#/definitions/models.Money"},
                "reference": {"type": "string"},
                "notes": {"type": "string"},
                "created_at": {"type": "string"}
            }
        },
        "models.RegisterOperationResponse": {
            "type": "object",
            "properties": {
                "session": {"$ref": "#/definitions/models.CashRegisterSession"},
                "operation": {"$ref": "#/definitions/models.CashOperation"}
            }
        },
        "models.TransactionRequest": {
            "type": "object",
            "properties": {
                "type": {"type": "string", "enum": ["REMITTANCE", "EXCHANGE", "DEPOSIT", "WITHDRAWAL"]},
                "send_amount": {"type": "string"},
                "send_currency": {"type": "string"},
                "receive_currency": {"type": "string"},
                "sender_id": {"type": "string"},
                "receiver_id": {"type": "string"},
                "payout_method": {"type": "string", "enum": ["CASH", "BANK_TRANSFER", "MOBILE_WALLET"]},
                "notes": {"type": "string"}
            }
        },
        "models.Transaction": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "reference": {"type": "string"},
                "type": {"type": "string"},
                "status": {"type": "string", "enum": ["PENDING", "COMPLETED", "FAILED", "CANCELLED"]},
                "send_amount": {"$ref": "#/definitions/models.Money"},
                "receive_amount": {"$ref": "#/definitions/models.Money"},
                "fee": {"$ref": "#/definitions/models.Money"},
                "exchange_rate": {"type": "string"},
                "payout_method": {"type": "string"},
                "sender_id": {"type": "string"},
                "receiver_id": {"type": "string"},
                "operator_id": {"type": "string"},
                "branch_id": {"type": "string"},
                "settlement_session_id": {"type": "string"},
                "notes": {"type": "string"},
                "created_at": {"type": "string"},
                "completed_at": {"type": "string"}
            }
        },
        "models.TransactionListResponse": {
            "type": "object",
            "properties": {
                "transactions": {"type": "array", "items": {"$ref": "#/definitions/models.Transaction"}},
                "limit": {"type": "integer"},
                "offset": {"type": "integer"}
            }
        },
        "models.AdvanceRequest": {
            "type": "object",
            "properties": {
                "status": {"type": "string", "enum": ["COMPLETED", "FAILED", "CANCELLED"]},
                "reason": {"type": "string"}
            }
        },
        "models.CancelRequest": {
            "type": "object",
            "properties": {
                "reason": {"type": "string"}
            }
        },
        "models.SetRateRequest": {
            "type": "object",
            "properties": {
                "base": {"type": "string"},
                "target": {"type": "string"},
                "rate": {"type": "string"},
                "buy_rate": {"type": "string"},
                "sell_rate": {"type": "string"},
                "effective_at": {"type": "string"},
                "expires_at": {"type": "string"}
            }
        },
        "models.ExchangeRate": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "base": {"type": "string"},
                "target": {"type": "string"},
                "rate": {"type": "string"},
                "buy_rate": {"type": "string"},
                "sell_rate": {"type": "string"},
                "effective_at": {"type": "string"},
                "expires_at": {"type": "string"},
                "created_by": {"type": "string"},
                "created_at": {"type": "string"}
            }
        },
        "models.ExchangeRatesResponse": {
            "type": "object",
            "properties": {
                "rates": {"type": "array", "items": {"$ref": "#/definitions/models.ExchangeRate"}}
            }
        },
        "models.ResolvedRateResponse": {
            "type": "object",
            "properties": {
                "base": {"type": "string"},
                "target": {"type": "string"},
                "rate": {"type": "string"},
                "fallback": {"type": "boolean"}
            }
        },
        "response.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string", "example": "validation_error"},
                "message": {"type": "string", "example": "amount: must be positive"},
                "field": {"type": "string", "example": "amount"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Teller Ledger API",
	Description:      "Кассы операторов, денежные переводы и обмен валют в отделениях",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
