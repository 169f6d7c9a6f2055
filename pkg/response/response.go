package response

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

type ErrorResponse struct {
	Error   string `json:"error" example:"validation_error"`
	Message string `json:"message,omitempty" example:"amount: must be positive"`
	Field   string `json:"field,omitempty" example:"amount"`
}

func WriteJSONError(w http.ResponseWriter, log *slog.Logger, status int, errCode, message string) {
	writeJSON(w, log, status, ErrorResponse{Error: errCode, Message: message})
}

// WriteFieldError ошибка валидации с указанием поля запроса
func WriteFieldError(w http.ResponseWriter, log *slog.Logger, status int, errCode, field, message string) {
	writeJSON(w, log, status, ErrorResponse{Error: errCode, Message: message, Field: field})
}

func WriteJSONSuccess(w http.ResponseWriter, log *slog.Logger, status int, data any) {
	if data == nil {
		w.WriteHeader(status)
		return
	}
	writeJSON(w, log, status, data)
}

func writeJSON(w http.ResponseWriter, log *slog.Logger, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error("ошибка при кодировании JSON-ответа", slog.String("error", err.Error()))
	}
}
