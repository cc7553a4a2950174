// Package gateway wraps the Chapa payment provider's transaction API.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/alxtravel/travel-booking-api/internal/logging"
)

type Client struct {
	baseURL     string
	secretKey   string
	callbackURL string
	httpClient  *http.Client
}

func NewClient(baseURL, secretKey, callbackURL string) *Client {
	return &Client{
		baseURL:     baseURL,
		secretKey:   secretKey,
		callbackURL: callbackURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// RejectedError is returned when the provider answers but does not accept
// the transaction. Payload carries the provider's raw response body for
// diagnostics.
type RejectedError struct {
	StatusCode int
	Payload    json.RawMessage
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("gateway rejected request with status %d", e.StatusCode)
}

type InitializeRequest struct {
	Amount    decimal.Decimal
	Currency  string
	Email     string
	FirstName string
	LastName  string
	TxRef     string
}

type InitializeData struct {
	CheckoutURL string `json:"checkout_url"`
	TxRef       string `json:"tx_ref"`
}

type VerifyResult struct {
	Success bool
	Raw     json.RawMessage
}

type apiResponse struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type initializePayload struct {
	Amount      string `json:"amount"`
	Currency    string `json:"currency"`
	Email       string `json:"email"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	TxRef       string `json:"tx_ref"`
	CallbackURL string `json:"callback_url"`
}

func (c *Client) Initialize(ctx context.Context, req InitializeRequest) (*InitializeData, error) {
	log := logging.FromContext(ctx)

	payload := initializePayload{
		Amount:      req.Amount.String(),
		Currency:    req.Currency,
		Email:       req.Email,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		TxRef:       req.TxRef,
		CallbackURL: c.callbackURL,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("Initialize: marshal: %w", err)
	}

	url := c.baseURL + "/transaction/initialize"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("Initialize: build request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.secretKey)
	httpReq.Header.Set("Content-Type", "application/json")

	start := time.Now()
	log.Info("gateway initialize request sent", "tx_ref", req.TxRef)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("Initialize: send: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("Initialize: read response: %w", err)
	}

	log.Info("gateway initialize response received",
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	var parsed apiResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("Initialize: decode response: %w", err)
	}

	if resp.StatusCode != http.StatusOK || parsed.Status != "success" {
		return nil, &RejectedError{StatusCode: resp.StatusCode, Payload: respBody}
	}

	var data InitializeData
	if err := json.Unmarshal(parsed.Data, &data); err != nil {
		return nil, fmt.Errorf("Initialize: decode data: %w", err)
	}
	if data.TxRef == "" {
		data.TxRef = req.TxRef
	}
	return &data, nil
}

func (c *Client) Verify(ctx context.Context, txRef string) (*VerifyResult, error) {
	log := logging.FromContext(ctx)

	url := c.baseURL + "/transaction/verify/" + txRef
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("Verify: build request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.secretKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("Verify: send: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("Verify: read response: %w", err)
	}

	var parsed apiResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("Verify: decode response: %w", err)
	}

	success := resp.StatusCode == http.StatusOK && parsed.Status == "success"
	log.Info("gateway verify response received", "tx_ref", txRef, "status", resp.StatusCode, "success", success)

	return &VerifyResult{Success: success, Raw: respBody}, nil
}
