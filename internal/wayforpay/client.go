package wayforpay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

// DefaultAPIURL is WayForPay's invoice-creation endpoint.
const DefaultAPIURL = "https://api.wayforpay.com/api"

// Client submits signed requests to the WayForPay API.
type Client struct {
	apiURL     string
	httpClient *http.Client
}

// NewClient builds a gateway client with a bounded request timeout. The state
// machine has no retry of its own, so an expired timeout surfaces to the flow
// as a transport failure.
func NewClient(apiURL string) *Client {
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}
	return &Client{
		apiURL:     apiURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// CreateInvoice POSTs the signed payload and decodes the gateway's verdict.
// The response is returned verbatim even when reason != "Ok"; only transport
// and decode failures become errors.
func (c *Client) CreateInvoice(ctx context.Context, req *InvoiceRequest) (*InvoiceResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal invoice request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build invoice request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("wayforpay request failed: %w", err)
	}
	defer httpResp.Body.Close()

	raw, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("read wayforpay response: %w", err)
	}

	var resp InvoiceResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		log.Printf("[WayForPay] non-JSON response (status %d): %s", httpResp.StatusCode, truncate(raw, 512))
		return nil, fmt.Errorf("decode wayforpay response (status %d): %w", httpResp.StatusCode, err)
	}
	return &resp, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
