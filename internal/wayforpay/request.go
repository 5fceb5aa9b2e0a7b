package wayforpay

import (
	"crypto/hmac"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Item is one cart line at invoice-build time. Slice order matters: WayForPay
// verifies the signature against the product arrays in the exact order they
// are sent, so callers must pass items in cart insertion order.
type Item struct {
	Name     string
	Quantity int
	Price    float64
}

// Customer carries the contact fields collected by the order flow.
type Customer struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
	Currency  string
}

// Merchant identifies the shop to the gateway.
type Merchant struct {
	Account    string
	SecretKey  string
	DomainName string
	ServiceURL string
}

// InvoiceRequest is the CREATE_INVOICE payload in WayForPay's wire format.
// Amounts are strings with exactly two decimals; productName, productPrice
// and productCount are parallel arrays in cart order.
type InvoiceRequest struct {
	TransactionType   string   `json:"transactionType"`
	MerchantAccount   string   `json:"merchantAccount"`
	MerchantDomain    string   `json:"merchantDomainName"`
	MerchantSignature string   `json:"merchantSignature"`
	APIVersion        int      `json:"apiVersion"`
	OrderReference    string   `json:"orderReference"`
	OrderDate         int64    `json:"orderDate"`
	Amount            string   `json:"amount"`
	Currency          string   `json:"currency"`
	ProductName       []string `json:"productName"`
	ProductPrice      []string `json:"productPrice"`
	ProductCount      []int    `json:"productCount"`
	ClientFirstName   string   `json:"clientFirstName"`
	ClientLastName    string   `json:"clientLastName"`
	ClientEmail       string   `json:"clientEmail"`
	ClientPhone       string   `json:"clientPhone"`
	Language          string   `json:"language"`
	ServiceURL        string   `json:"serviceUrl"`
}

// InvoiceResponse is the subset of the gateway response the flow consumes.
type InvoiceResponse struct {
	Reason         string `json:"reason"`
	InvoiceURL     string `json:"invoiceUrl"`
	OrderReference string `json:"orderReference"`
}

// Ok reports whether the gateway accepted the request and returned a payable
// link.
func (r *InvoiceResponse) Ok() bool {
	return r != nil && r.Reason == "Ok" && r.InvoiceURL != ""
}

// OrderReference builds the per-order reference from a coarse timestamp and
// the session id. Two orders for the same session within the same second
// would collide; the flow never runs two checkouts for one session
// concurrently, so this stays a documented boundary rather than a bug.
func OrderReference(sessionID string, now time.Time) string {
	return fmt.Sprintf("order_%d_%s", now.Unix(), sessionID)
}

// BuildInvoiceRequest assembles and signs a CREATE_INVOICE payload. It is a
// pure function of its arguments: same items, customer, reference and date
// always produce the same signed request.
func BuildInvoiceRequest(m Merchant, items []Item, cust Customer, orderReference string, orderDate time.Time) *InvoiceRequest {
	names := make([]string, 0, len(items))
	counts := make([]int, 0, len(items))
	prices := make([]string, 0, len(items))

	var total float64
	for _, it := range items {
		names = append(names, it.Name)
		counts = append(counts, it.Quantity)
		prices = append(prices, FormatAmount(it.Price))
		total += float64(it.Quantity) * it.Price
	}

	lastName := cust.LastName
	if lastName == "" {
		lastName = "Unknown"
	}

	req := &InvoiceRequest{
		TransactionType: "CREATE_INVOICE",
		MerchantAccount: m.Account,
		MerchantDomain:  m.DomainName,
		APIVersion:      1,
		OrderReference:  orderReference,
		OrderDate:       orderDate.Unix(),
		Amount:          FormatAmount(total),
		Currency:        cust.Currency,
		ProductName:     names,
		ProductPrice:    prices,
		ProductCount:    counts,
		ClientFirstName: cust.FirstName,
		ClientLastName:  lastName,
		ClientEmail:     cust.Email,
		ClientPhone:     cust.Phone,
		Language:        "UA",
		ServiceURL:      m.ServiceURL,
	}
	req.MerchantSignature = Sign(m.SecretKey, req.SignatureString())
	return req
}

// SignatureString joins the signed fields with ";" in the order the gateway
// recomputes server-side: account, domain, reference, date, amount, currency,
// then every product name, count and price. Reordering anything here makes
// WayForPay reject the request.
func (r *InvoiceRequest) SignatureString() string {
	elements := []string{
		r.MerchantAccount,
		r.MerchantDomain,
		r.OrderReference,
		strconv.FormatInt(r.OrderDate, 10),
		r.Amount,
		r.Currency,
	}
	elements = append(elements, r.ProductName...)
	for _, c := range r.ProductCount {
		elements = append(elements, strconv.Itoa(c))
	}
	elements = append(elements, r.ProductPrice...)
	return strings.Join(elements, ";")
}

// Sign computes the merchant signature WayForPay expects: hex-encoded
// HMAC-MD5 of the payload under the shared secret key.
func Sign(secretKey, payload string) string {
	mac := hmac.New(md5.New, []byte(secretKey))
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}

// FormatAmount renders a monetary value with exactly two decimal places.
func FormatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
