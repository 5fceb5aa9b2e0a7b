package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	postgres "github.com/Divam-dev/flower-shop-bot/internal/storage/postgres"
)

// RegisterOrderRoutes mounts the read-only order lookup used by the shop's
// back office.
func RegisterOrderRoutes(mux *http.ServeMux, repo *postgres.Repository) {
	mux.Handle("/api/orders/", otelhttp.NewHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handleGetOrder(repo, w, r)
	}), "get-order"))
}

func handleGetOrder(repo *postgres.Repository, w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if repo == nil || repo.DB == nil {
		http.Error(w, "db unavailable", http.StatusInternalServerError)
		return
	}

	ref := strings.TrimPrefix(r.URL.Path, "/api/orders/")
	if ref == "" {
		http.Error(w, "order reference required", http.StatusBadRequest)
		return
	}

	rec, err := repo.GetOrderByReference(r.Context(), ref)
	if errors.Is(err, sql.ErrNoRows) {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "query error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"order": map[string]any{
			"orderReference": rec.OrderReference,
			"chatId":         rec.ChatID,
			"deliveryMethod": rec.DeliveryMethod,
			"amount":         rec.Amount,
			"currency":       rec.Currency,
			"status":         rec.Status,
			"invoiceUrl":     rec.InvoiceURL,
			"createdAt":      rec.CreatedAt,
		},
	})
}
