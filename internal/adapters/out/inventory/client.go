// Package inventory is the HTTP client of the external inventory system.
package inventory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"dispatch/internal/core/ports"

	"github.com/shopspring/decimal"
)

const maxErrorBody = 64 << 10

// Client implements ports.ExternalFulfillment against
// POST {baseURL}/orders/{external number}/fulfillments.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

type Option func(*Client)

// WithToken sends the token as a bearer credential.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func NewClient(baseURL string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type fulfillmentLine struct {
	ProductID     string          `json:"product_id"`
	Quantity      decimal.Decimal `json:"quantity"`
	SerialNumbers []string        `json:"serial_numbers,omitempty"`
}

type fulfillmentBody struct {
	OrderID  string            `json:"order_id"`
	SalesRef string            `json:"sales_ref,omitempty"`
	Lines    []fulfillmentLine `json:"lines"`
}

type receiptBody struct {
	Reference string `json:"reference"`
}

type errorBody struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Retryable *bool  `json:"retryable,omitempty"`
}

func (c *Client) Fulfill(ctx context.Context, req ports.FulfillmentRequest) (ports.FulfillmentReceipt, error) {
	body := fulfillmentBody{
		OrderID:  req.OrderID.String(),
		SalesRef: req.SalesRef,
		Lines:    make([]fulfillmentLine, 0, len(req.Lines)),
	}
	for _, line := range req.Lines {
		body.Lines = append(body.Lines, fulfillmentLine{
			ProductID:     line.ProductID,
			Quantity:      line.Picked,
			SerialNumbers: line.SerialNumbers,
		})
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return ports.FulfillmentReceipt{}, err
	}

	endpoint := c.baseURL + "/orders/" + url.PathEscape(req.ExternalNumber) + "/fulfillments"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return ports.FulfillmentReceipt{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Idempotency-Key", req.OrderID.String())
	if c.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return ports.FulfillmentReceipt{}, fmt.Errorf("inventory request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		var receipt receiptBody
		if err := json.NewDecoder(resp.Body).Decode(&receipt); err != nil && err != io.EOF {
			return ports.FulfillmentReceipt{}, fmt.Errorf("decode inventory receipt: %w", err)
		}
		return ports.FulfillmentReceipt{Reference: receipt.Reference}, nil
	}

	return ports.FulfillmentReceipt{}, decodeError(resp)
}

// decodeError turns a non-2xx response into *ports.FulfillmentError. 429 and
// 5xx are retryable unless the body says otherwise.
func decodeError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	var parsed errorBody
	_ = json.Unmarshal(raw, &parsed)

	fe := &ports.FulfillmentError{
		Code:      parsed.Code,
		Message:   parsed.Message,
		Retryable: resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500,
	}
	if parsed.Retryable != nil {
		fe.Retryable = *parsed.Retryable
	}
	if fe.Code == "" {
		fe.Code = fmt.Sprintf("http_%d", resp.StatusCode)
	}
	if fe.Message == "" {
		fe.Message = strings.TrimSpace(string(raw))
	}
	if fe.Message == "" {
		fe.Message = http.StatusText(resp.StatusCode)
	}
	return fe
}
