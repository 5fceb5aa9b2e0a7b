package api

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/Divam-dev/flower-shop-bot/internal/events"
	"github.com/Divam-dev/flower-shop-bot/internal/orderflow"
	postgres "github.com/Divam-dev/flower-shop-bot/internal/storage/postgres"
	"github.com/Divam-dev/flower-shop-bot/internal/wayforpay"
)

// Publisher is the slice of the event producer the webhook needs.
type Publisher interface {
	Publish(ctx context.Context, topic, key string, evt events.Envelope) error
}

// WebhookHandler processes WayForPay payment-status callbacks delivered to
// the serviceUrl registered with each invoice.
type WebhookHandler struct {
	merchant    wayforpay.Merchant
	repo        *postgres.Repository
	publisher   Publisher
	ordersTopic string
	now         func() time.Time
}

func NewWebhookHandler(m wayforpay.Merchant, repo *postgres.Repository, pub Publisher, ordersTopic string) *WebhookHandler {
	return &WebhookHandler{
		merchant:    m,
		repo:        repo,
		publisher:   pub,
		ordersTopic: ordersTopic,
		now:         time.Now,
	}
}

// RegisterWebhookRoutes mounts the payment callback endpoint.
func RegisterWebhookRoutes(mux *http.ServeMux, h *WebhookHandler) {
	mux.Handle("/api/webhooks/wayforpay", otelhttp.NewHandler(http.HandlerFunc(h.handleCallback), "wayforpay-webhook"))
}

func (h *WebhookHandler) handleCallback(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var cb wayforpay.Callback
	if err := json.NewDecoder(r.Body).Decode(&cb); err != nil {
		http.Error(w, "invalid JSON payload", http.StatusBadRequest)
		return
	}
	if cb.OrderReference == "" {
		http.Error(w, "missing orderReference", http.StatusBadRequest)
		return
	}

	if !cb.VerifySignature(h.merchant.SecretKey) {
		log.Printf("[Webhook] signature mismatch for %s", cb.OrderReference)
		http.Error(w, "invalid signature", http.StatusUnauthorized)
		return
	}

	status, eventType := classify(cb)
	if eventType == "" {
		log.Printf("[Webhook] ignoring transactionStatus %q for %s", cb.TransactionStatus, cb.OrderReference)
	} else {
		h.applyStatus(r.Context(), cb, status, eventType)
	}

	ack := wayforpay.NewAck(h.merchant.SecretKey, cb.OrderReference, h.now())
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(ack)
}

// classify maps a gateway transaction status onto the order status and the
// event to publish. Pending/InProcessing notifications are acknowledged but
// change nothing.
func classify(cb wayforpay.Callback) (orderStatus, eventType string) {
	if cb.Approved() {
		return orderflow.OrderStatusPaid, orderflow.EventPaymentCompleted
	}
	switch cb.TransactionStatus {
	case "Declined", "Expired", "Refunded":
		return orderflow.OrderStatusDeclined, orderflow.EventPaymentDeclined
	default:
		return "", ""
	}
}

func (h *WebhookHandler) applyStatus(ctx context.Context, cb wayforpay.Callback, status, eventType string) {
	chatID := ""
	if h.repo != nil {
		if err := h.repo.UpdateOrderStatus(ctx, cb.OrderReference, status); err != nil {
			log.Printf("[Webhook] Warning: failed to update order %s: %v", cb.OrderReference, err)
		}
		if rec, err := h.repo.GetOrderByReference(ctx, cb.OrderReference); err == nil {
			chatID = rec.ChatID
		}
	}

	if h.publisher != nil {
		evt := events.Envelope{
			EventType:    eventType,
			EventVersion: "1",
			AggregateID:  cb.OrderReference,
			Data: map[string]any{
				"orderReference":    cb.OrderReference,
				"chatId":            chatID,
				"amount":            cb.Amount,
				"currency":          cb.Currency,
				"transactionStatus": cb.TransactionStatus,
			},
		}
		if err := h.publisher.Publish(ctx, h.ordersTopic, cb.OrderReference, evt); err != nil {
			log.Printf("[Webhook] Warning: failed to publish %s: %v", eventType, err)
		}
	}

	log.Printf("[Webhook] %s -> %s (%s)", cb.OrderReference, status, eventType)
}
