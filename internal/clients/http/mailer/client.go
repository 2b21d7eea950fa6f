package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// OrderLine is one purchased item in the confirmation message.
type OrderLine struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

// OrderConfirmation is the payload for a purchase confirmation e-mail.
type OrderConfirmation struct {
	Email       string      `json:"email"`
	OrderNumber string      `json:"orderNumber"`
	Total       float64     `json:"total"`
	Items       []OrderLine `json:"items"`
	PlacedAt    time.Time   `json:"placedAt"`
}

// Client talks to the mail gateway over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient instantiates the mailer client with sane defaults.
func NewClient(baseURL string, httpClient *http.Client) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("mailer base URL is required")
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 5 * time.Second}
	}
	return &Client{baseURL: baseURL, httpClient: httpClient}, nil
}

// SendOrderConfirmation posts the confirmation to the gateway.
func (c *Client) SendOrderConfirmation(ctx context.Context, msg OrderConfirmation) error {
	if c == nil || c.httpClient == nil {
		return errors.New("mailer client not configured")
	}
	if strings.TrimSpace(msg.Email) == "" {
		return errors.New("recipient e-mail is required")
	}
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode confirmation: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/messages/order-confirmation", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build mailer request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("call mail gateway: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("mail gateway returned %s", resp.Status)
	}
	return nil
}
