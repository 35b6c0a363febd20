package handlers

import (
	"log/slog"
	"net/http"

	"rehive-autosave/internal/api/middlew"
)

// Greeting статичный текст главной страницы. Токен API сюда попадать не должен.
const Greeting = "Rehive auto-savings demo"

type IndexHandler struct{}

func NewIndexHandler() *IndexHandler {
	return &IndexHandler{}
}

// Greet godoc
// @Summary      Главная страница
// @Description  Возвращает статичное приветствие
// @Tags         index
// @Produce      plain
// @Success      200 {string} string
// @Router       / [get]
func (h *IndexHandler) Greet(w http.ResponseWriter, r *http.Request) {
	log := middlew.GetLogger(r.Context())

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(Greeting)); err != nil {
		log.Error("ошибка записи ответа", slog.String("error", err.Error()))
	}
}
