package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client posts low-stock alerts to a tenant-operations webhook. Delivery is
// advisory: callers log failures and move on.
type Client struct {
	WebhookURL string
	HTTPClient *http.Client
}

type LowStockAlertPayload struct {
	TenantID    string    `json:"tenant_id"`
	OrderNumber string    `json:"order_number"`
	Warnings    []string  `json:"warnings"`
	SentAt      time.Time `json:"sent_at"`
}

func NewClient(webhookURL string) *Client {
	return &Client{
		WebhookURL: webhookURL,
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (c *Client) SendLowStockAlert(ctx context.Context, tenantID, orderNumber string, warnings []string) error {
	payload := LowStockAlertPayload{
		TenantID:    tenantID,
		OrderNumber: orderNumber,
		Warnings:    warnings,
		SentAt:      time.Now(),
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal alert payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.WebhookURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send alert: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("webhook returned status %d: %s", resp.StatusCode, string(body))
	}

	return nil
}
