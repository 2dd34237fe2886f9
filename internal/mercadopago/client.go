package mercadopago

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/groupgate/pixbot/internal/config"
)

// ErrGateway marks any failure talking to Mercado Pago: transport errors,
// non-2xx responses, and responses missing required fields.
var ErrGateway = errors.New("mercadopago gateway error")

type Client struct {
	accessToken    string
	baseURL        string
	httpClient     *http.Client
	log            *slog.Logger
	idempotencyKey func() string
}

type CreateRequest struct {
	Amount          float64
	Description     string
	PaymentMethodID string
	PayerEmail      string
}

// Payment is the subset of the gateway payment object this bot consumes.
type Payment struct {
	ID           string
	Status       string
	QRCode       string
	QRCodeBase64 string
}

func NewClient(cfg config.Config, log *slog.Logger) *Client {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		accessToken: cfg.MPAccessToken,
		baseURL:     strings.TrimRight(cfg.MPBaseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		log:            log,
		idempotencyKey: uuid.NewString,
	}
}

// CreatePayment opens a payment intent and returns the gateway id together
// with the PIX copy-paste code and QR image payload.
func (c *Client) CreatePayment(ctx context.Context, req CreateRequest) (*Payment, error) {
	payload := map[string]any{
		"transaction_amount": req.Amount,
		"description":        req.Description,
		"payment_method_id":  req.PaymentMethodID,
		"payer": map[string]string{
			"email": req.PayerEmail,
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payment payload: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/payments", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.accessToken)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-Idempotency-Key", c.idempotencyKey())

	rawBody, status, err := c.do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: create payment: %v", ErrGateway, err)
	}
	if status >= 300 {
		if c.log != nil {
			c.log.Error("mercadopago create payment failed", "status", status, "body", truncateBody(rawBody))
		}
		return nil, fmt.Errorf("%w: create payment: status=%d body=%s", ErrGateway, status, truncateBody(rawBody))
	}

	var parsed paymentResponse
	if err := json.Unmarshal(rawBody, &parsed); err != nil {
		return nil, fmt.Errorf("%w: decode create response: %v (body=%s)", ErrGateway, err, truncateBody(rawBody))
	}
	if parsed.ID.String() == "" {
		return nil, fmt.Errorf("%w: create response missing payment id", ErrGateway)
	}
	if parsed.PointOfInteraction.TransactionData.QRCode == "" {
		return nil, fmt.Errorf("%w: create response missing qr code", ErrGateway)
	}

	return parsed.payment(), nil
}

// GetPayment fetches the current status of a payment by gateway id.
func (c *Client) GetPayment(ctx context.Context, id string) (*Payment, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/payments/"+id, nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.accessToken)
	httpReq.Header.Set("Accept", "application/json")

	rawBody, status, err := c.do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: get payment: %v", ErrGateway, err)
	}
	if status >= 300 {
		if c.log != nil {
			c.log.Error("mercadopago get payment failed", "payment_id", id, "status", status, "body", truncateBody(rawBody))
		}
		return nil, fmt.Errorf("%w: get payment: status=%d body=%s", ErrGateway, status, truncateBody(rawBody))
	}

	var parsed paymentResponse
	if err := json.Unmarshal(rawBody, &parsed); err != nil {
		return nil, fmt.Errorf("%w: decode status response: %v (body=%s)", ErrGateway, err, truncateBody(rawBody))
	}
	if parsed.Status == "" {
		return nil, fmt.Errorf("%w: status response missing status", ErrGateway)
	}

	return parsed.payment(), nil
}

func (c *Client) do(req *http.Request) ([]byte, int, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	rawBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read response body: %w", err)
	}
	return rawBody, resp.StatusCode, nil
}

type paymentResponse struct {
	ID                 json.Number `json:"id"`
	Status             string      `json:"status"`
	PointOfInteraction struct {
		TransactionData struct {
			QRCode       string `json:"qr_code"`
			QRCodeBase64 string `json:"qr_code_base64"`
		} `json:"transaction_data"`
	} `json:"point_of_interaction"`
}

func (p paymentResponse) payment() *Payment {
	return &Payment{
		ID:           p.ID.String(),
		Status:       p.Status,
		QRCode:       p.PointOfInteraction.TransactionData.QRCode,
		QRCodeBase64: p.PointOfInteraction.TransactionData.QRCodeBase64,
	}
}

func truncateBody(body []byte) string {
	const limit = 512
	s := strings.TrimSpace(string(body))
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "…"
}
