package wayforpay

import (
	"crypto/hmac"
	"strconv"
	"strings"
	"time"
)

// Callback is the payment-status notification WayForPay POSTs to the
// serviceUrl supplied with the invoice.
type Callback struct {
	MerchantAccount   string  `json:"merchantAccount"`
	OrderReference    string  `json:"orderReference"`
	MerchantSignature string  `json:"merchantSignature"`
	Amount            float64 `json:"amount"`
	Currency          string  `json:"currency"`
	AuthCode          string  `json:"authCode"`
	CardPan           string  `json:"cardPan"`
	TransactionStatus string  `json:"transactionStatus"`
	ReasonCode        int     `json:"reasonCode"`
}

// Approved reports whether the notification marks the invoice as paid.
func (c *Callback) Approved() bool {
	return strings.EqualFold(c.TransactionStatus, "Approved")
}

// VerifySignature recomputes the callback signature
// (account;reference;amount;currency;authCode;cardPan;status;reasonCode)
// and compares it in constant time against the one the gateway sent.
func (c *Callback) VerifySignature(secretKey string) bool {
	payload := strings.Join([]string{
		c.MerchantAccount,
		c.OrderReference,
		FormatAmount(c.Amount),
		c.Currency,
		c.AuthCode,
		c.CardPan,
		c.TransactionStatus,
		strconv.Itoa(c.ReasonCode),
	}, ";")
	expected := Sign(secretKey, payload)
	return hmac.Equal([]byte(expected), []byte(c.MerchantSignature))
}

// Ack is the signed acknowledgement the merchant must answer a callback with;
// without it WayForPay keeps re-delivering the notification.
type Ack struct {
	OrderReference string `json:"orderReference"`
	Status         string `json:"status"`
	Time           int64  `json:"time"`
	Signature      string `json:"signature"`
}

// NewAck builds the "accept" acknowledgement for a callback, signed over
// reference;status;time.
func NewAck(secretKey, orderReference string, now time.Time) Ack {
	ack := Ack{
		OrderReference: orderReference,
		Status:         "accept",
		Time:           now.Unix(),
	}
	payload := strings.Join([]string{
		ack.OrderReference,
		ack.Status,
		strconv.FormatInt(ack.Time, 10),
	}, ";")
	ack.Signature = Sign(secretKey, payload)
	return ack
}
