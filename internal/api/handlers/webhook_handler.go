package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"rehive-autosave/internal/api/middlew"
	"rehive-autosave/internal/custom_err"
	"rehive-autosave/internal/metrics"
	"rehive-autosave/internal/models"
	"rehive-autosave/internal/service"
	"rehive-autosave/pkg/response"
)

type WebhookHandler struct {
	service service.Savings
	metrics *metrics.Metrics
}

func NewWebhookHandler(service service.Savings, m *metrics.Metrics) *WebhookHandler {
	return &WebhookHandler{
		service: service,
		metrics: m,
	}
}

// HandleTransaction godoc
// @Summary      Вебхук о транзакции
// @Description  Принимает уведомление Rehive о смене статуса транзакции и при выполнении условий отчисляет 10% на счет-копилку
// @Tags         webhook
// @Accept       json
// @Produce      json
// @Param        Authorization header string true "secret {WEBHOOK_SECRET}"
// @Param        request body models.TransactionWebhook true "Событие транзакции"
// @Success      200 {object} response.StatusResponse
// @Failure      400 {object} response.StatusResponse
// @Failure      403 {object} response.StatusResponse
// @Failure      502 {object} response.StatusResponse
// @Router       /webhook/transaction/ [post]
func (h *WebhookHandler) HandleTransaction(w http.ResponseWriter, r *http.Request) {
	const op = "handler.HandleTransaction"
	log := middlew.GetLogger(r.Context())

	defer r.Body.Close()

	h.metrics.WebhooksReceived.Inc()

	var payload models.TransactionWebhook
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		log.Warn("invalid JSON", slog.String("op", op), slog.String("error", err.Error()))
		h.metrics.WebhooksRejected.WithLabelValues("invalid_json").Inc()
		response.WriteStatusError(w, log, http.StatusBadRequest, "Invalid JSON body.")
		return
	}

	event := payload.Data
	if err := event.Validate(); err != nil {
		log.Warn("invalid webhook payload", slog.String("op", op), slog.String("error", err.Error()))
		h.metrics.WebhooksRejected.WithLabelValues("missing_field").Inc()
		response.WriteStatusError(w, log, http.StatusBadRequest, "Invalid webhook payload: "+err.Error())
		return
	}

	result, err := h.service.ProcessTransaction(r.Context(), event)
	if err != nil {
		// ошибки леджера отдаем как 502, чтобы отправитель вебхука повторил доставку
		switch {
		case errors.Is(err, custom_err.ErrLedgerUnavailable):
			log.Error("ledger unavailable", slog.String("op", op), slog.String("error", err.Error()))
		default:
			log.Error("failed to process transaction", slog.String("op", op), slog.String("error", err.Error()))
		}
		response.WriteStatusError(w, log, http.StatusBadGateway, "Ledger service unavailable.")
		return
	}

	if result.Transferred {
		log.Info("savings transfer completed",
			slog.String("op", op),
			slog.String("transfer_id", result.TransferID),
			slog.Int64("transfer_amount", result.TransferAmount),
			slog.Bool("account_created", result.AccountCreated))
	} else {
		log.Info("webhook accepted, transfer skipped",
			slog.String("op", op),
			slog.String("reason", result.SkipReason))
	}

	response.WriteStatusSuccess(w, log, http.StatusOK)
}
