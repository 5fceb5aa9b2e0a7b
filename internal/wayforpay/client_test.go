package wayforpay

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateInvoiceSuccess(t *testing.T) {
	var received InvoiceRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"reason":         "Ok",
			"invoiceUrl":     "https://pay/x",
			"orderReference": received.OrderReference,
		})
	}))
	defer srv.Close()

	req := BuildInvoiceRequest(testMerchant, testItems(), testCustomer, "order_1_42", time.Unix(1700000000, 0))
	resp, err := NewClient(srv.URL).CreateInvoice(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, resp.Ok())
	assert.Equal(t, "https://pay/x", resp.InvoiceURL)
	assert.Equal(t, "order_1_42", resp.OrderReference)

	// The wire body must carry the signed payload untouched.
	assert.Equal(t, req.MerchantSignature, received.MerchantSignature)
	assert.Equal(t, req.ProductName, received.ProductName)
}

func TestCreateInvoiceDeclinedIsNotAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"reason": "Declined"})
	}))
	defer srv.Close()

	req := BuildInvoiceRequest(testMerchant, testItems(), testCustomer, "ref", time.Unix(0, 0))
	resp, err := NewClient(srv.URL).CreateInvoice(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, resp.Ok())
	assert.Equal(t, "Declined", resp.Reason)
}

func TestCreateInvoiceNonJSONResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("<html>upstream error</html>"))
	}))
	defer srv.Close()

	req := BuildInvoiceRequest(testMerchant, testItems(), testCustomer, "ref", time.Unix(0, 0))
	resp, err := NewClient(srv.URL).CreateInvoice(context.Background(), req)
	require.Error(t, err)
	assert.Nil(t, resp)
	assert.Contains(t, err.Error(), "decode wayforpay response")
}

func TestCreateInvoiceTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	req := BuildInvoiceRequest(testMerchant, testItems(), testCustomer, "ref", time.Unix(0, 0))
	_, err := NewClient(srv.URL).CreateInvoice(context.Background(), req)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "wayforpay request failed")
}
