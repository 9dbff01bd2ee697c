package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/taskbridge/taskbridge-gobackend/internal/models"
	"github.com/taskbridge/taskbridge-gobackend/internal/services"
)

// WebhookHandler receives gateway callbacks. Events only land in the payment
// history log; escrow state changes exclusively through explicit
// verification.
type WebhookHandler struct {
	history       services.HistorySink
	callbackToken string
	logger        *zap.Logger
}

func NewWebhookHandler(history services.HistorySink, callbackToken string, logger *zap.Logger) *WebhookHandler {
	return &WebhookHandler{history: history, callbackToken: callbackToken, logger: logger}
}

func (h *WebhookHandler) HandleGatewayEvent(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("x-callback-token") != h.callbackToken {
		http.Error(w, `{"error":"Unauthorized webhook"}`, http.StatusUnauthorized)
		return
	}

	var payload struct {
		Event string `json:"event"`
		Data  struct {
			OrderID   string  `json:"order_id"`
			PaymentID string  `json:"id"`
			Amount    int64   `json:"amount"`
			Currency  string  `json:"currency"`
			Status    string  `json:"status"`
		} `json:"data"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, `{"error":"Invalid webhook payload"}`, http.StatusBadRequest)
		return
	}

	record := &models.PaymentRecord{
		OrderID:   payload.Data.OrderID,
		PaymentID: payload.Data.PaymentID,
		Amount:    float64(payload.Data.Amount) / 100,
		Currency:  payload.Data.Currency,
		Status:    models.PaymentWebhookEvent + ":" + payload.Event,
	}
	if err := h.history.Record(r.Context(), record); err != nil {
		h.logger.Warn("webhook event not recorded",
			zap.String("event", payload.Event),
			zap.String("payment_id", payload.Data.PaymentID),
			zap.Error(err),
		)
	}

	w.WriteHeader(http.StatusOK)
}
