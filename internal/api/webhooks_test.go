package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Divam-dev/flower-shop-bot/internal/events"
	"github.com/Divam-dev/flower-shop-bot/internal/wayforpay"
)

const testSecret = "flk3409refn54t54t*FNJRET"

var testMerchant = wayforpay.Merchant{
	Account:    "test_merch_n1",
	SecretKey:  testSecret,
	DomainName: "www.yourdomain.com",
	ServiceURL: "https://yourdomain.com/wfpcallback",
}

type capturedEvent struct {
	topic string
	key   string
	evt   events.Envelope
}

type fakePublisher struct {
	published []capturedEvent
}

func (p *fakePublisher) Publish(_ context.Context, topic, key string, evt events.Envelope) error {
	p.published = append(p.published, capturedEvent{topic: topic, key: key, evt: evt})
	return nil
}

func signedCallback(status string) wayforpay.Callback {
	cb := wayforpay.Callback{
		MerchantAccount:   testMerchant.Account,
		OrderReference:    "order_1700000000_42",
		Amount:            546.49,
		Currency:          "UAH",
		AuthCode:          "123456",
		CardPan:           "41****1111",
		TransactionStatus: status,
		ReasonCode:        1100,
	}
	payload := testMerchant.Account + ";" + cb.OrderReference + ";546.49;UAH;123456;41****1111;" + status + ";1100"
	cb.MerchantSignature = wayforpay.Sign(testSecret, payload)
	return cb
}

func newTestHandler(pub *fakePublisher) *WebhookHandler {
	h := NewWebhookHandler(testMerchant, nil, pub, "orders.v1")
	h.now = func() time.Time { return time.Unix(1700000100, 0) }
	return h
}

func postCallback(t *testing.T, h *WebhookHandler, cb wayforpay.Callback) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(cb)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/wayforpay", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	h.handleCallback(rec, req)
	return rec
}

func TestWebhookApprovedPublishesAndAcks(t *testing.T) {
	pub := &fakePublisher{}
	h := newTestHandler(pub)

	rec := postCallback(t, h, signedCallback("Approved"))

	assert.Equal(t, http.StatusOK, rec.Code)

	var ack wayforpay.Ack
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ack))
	assert.Equal(t, "order_1700000000_42", ack.OrderReference)
	assert.Equal(t, "accept", ack.Status)
	assert.Equal(t, int64(1700000100), ack.Time)
	expected := wayforpay.Sign(testSecret, "order_1700000000_42;accept;1700000100")
	assert.Equal(t, expected, ack.Signature)

	require.Len(t, pub.published, 1)
	got := pub.published[0]
	assert.Equal(t, "orders.v1", got.topic)
	assert.Equal(t, "order_1700000000_42", got.key)
	assert.Equal(t, "PaymentCompleted", got.evt.EventType)
	assert.Equal(t, "order_1700000000_42", got.evt.AggregateID)

	data, ok := got.evt.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Approved", data["transactionStatus"])
}

func TestWebhookDeclinedPublishesDeclineEvent(t *testing.T) {
	pub := &fakePublisher{}
	h := newTestHandler(pub)

	rec := postCallback(t, h, signedCallback("Declined"))

	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, pub.published, 1)
	assert.Equal(t, "PaymentDeclined", pub.published[0].evt.EventType)
}

func TestWebhookPendingIsAckedButNotPublished(t *testing.T) {
	pub := &fakePublisher{}
	h := newTestHandler(pub)

	rec := postCallback(t, h, signedCallback("InProcessing"))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, pub.published)

	var ack wayforpay.Ack
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ack))
	assert.Equal(t, "accept", ack.Status)
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	pub := &fakePublisher{}
	h := newTestHandler(pub)

	cb := signedCallback("Approved")
	cb.MerchantSignature = "deadbeef"
	rec := postCallback(t, h, cb)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, pub.published)
}

func TestWebhookRejectsTamperedAmount(t *testing.T) {
	pub := &fakePublisher{}
	h := newTestHandler(pub)

	cb := signedCallback("Approved")
	cb.Amount = 1.00
	rec := postCallback(t, h, cb)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, pub.published)
}

func TestWebhookRejectsMissingReference(t *testing.T) {
	h := newTestHandler(&fakePublisher{})

	cb := signedCallback("Approved")
	cb.OrderReference = ""
	rec := postCallback(t, h, cb)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWebhookRejectsNonPost(t *testing.T) {
	h := newTestHandler(&fakePublisher{})

	req := httptest.NewRequest(http.MethodGet, "/api/webhooks/wayforpay", nil)
	rec := httptest.NewRecorder()
	h.handleCallback(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
