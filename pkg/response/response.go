package response

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// StatusResponse — тело ответа вебхука по контракту Rehive:
// {"status":"success"} либо {"status":"error","message":"..."}
type StatusResponse struct {
	Status  string `json:"status" example:"success"`
	Message string `json:"message,omitempty"`
}

func WriteStatusError(w http.ResponseWriter, log *slog.Logger, status int, message string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(StatusResponse{Status: "error", Message: message}); err != nil {
		log.Error("ошибка при кодировании JSON-ошибки", slog.String("error", err.Error()))
	}
}

func WriteStatusSuccess(w http.ResponseWriter, log *slog.Logger, status int) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(StatusResponse{Status: "success"}); err != nil {
		log.Error("ошибка при кодировании JSON-ответа", slog.String("error", err.Error()))
	}
}
