package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/segmentio/kafka-go"

	"github.com/Divam-dev/flower-shop-bot/internal/email"
	"github.com/Divam-dev/flower-shop-bot/internal/events"
)

func main() {
	_ = godotenv.Load()
	log.Println("Email worker starting...")
	startConsumer()
}

func startConsumer() {
	brokers := getenv("KAFKA_BROKERS", "localhost:9092")
	topic := getenv("KAFKA_ORDERS_TOPIC", "orders.v1")
	group := getenv("KAFKA_EMAIL_GROUP_ID", "email-workers")
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  []string{brokers},
		Topic:    topic,
		GroupID:  group,
		MinBytes: 1e3, MaxBytes: 10e6,
	})
	defer reader.Close()

	sender := pickSender()
	log.Printf("[email-worker] consuming %s (group=%s)", topic, group)
	for {
		msg, err := reader.ReadMessage(context.Background())
		if err != nil {
			log.Printf("[email-worker] read error: %v", err)
			return
		}

		var evt events.Envelope
		if err := json.Unmarshal(msg.Value, &evt); err != nil {
			log.Printf("[email-worker] bad json: %v; payload=%s", err, string(msg.Value))
			continue
		}

		switch evt.EventType {
		case "OrderPlaced":
			handleReceipt(sender, evt, "Ваше замовлення прийнято", email.RenderOrderPlaced)
		case "InvoiceCreated":
			handleReceipt(sender, evt, "Посилання на оплату замовлення", email.RenderInvoiceCreated)
		case "PaymentCompleted":
			handleReceipt(sender, evt, "Оплату отримано", email.RenderPaymentCompleted)
		default:
			// ignore other event types
		}
	}
}

func handleReceipt(sender email.Sender, evt events.Envelope, subject string, render func(email.ReceiptData) string) {
	data := toMap(evt.Data)
	to := toString(data["email"])
	if to == "" {
		// webhook events carry no address; fall back to the ops mailbox
		to = getenv("RECEIPT_FALLBACK_EMAIL", "orders@flowershop.local")
	}

	body := render(email.ReceiptData{
		OrderReference: toString(data["orderReference"]),
		Amount:         toFloat(data["amount"]),
		Currency:       toString(data["currency"]),
		InvoiceURL:     toString(data["invoiceUrl"]),
	})
	if err := sender.Send(to, subject, body); err != nil {
		log.Printf("[email-worker] send failed: %v", err)
		return
	}
	log.Printf("[email-worker] sent %s email to=%s order=%s", evt.EventType, to, toString(data["orderReference"]))
}

func pickSender() email.Sender {
	// Use SMTP if configured; else fall back to log output
	if os.Getenv("SMTP_HOST") != "" || os.Getenv("SMTP_PORT") != "" {
		return email.NewSMTPSender()
	}
	return email.LogSender{}
}

// helpers
func getenv(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func toMap(v interface{}) map[string]interface{} {
	if m, ok := v.(map[string]interface{}); ok {
		return m
	}
	return map[string]interface{}{}
}

func toString(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

func toFloat(v interface{}) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case float32:
		return float64(t)
	case int:
		return float64(t)
	case string:
		if f, err := strconv.ParseFloat(t, 64); err == nil {
			return f
		}
	}
	return 0
}
