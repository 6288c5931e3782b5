package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
)

var ErrNotifyFailed = errors.New("notification dispatch failed")

// Client dispatches messages to drivers. Delivery is fire-and-forget: callers
// log failures but never fail their own operation on one.
type Client interface {
	Notify(ctx context.Context, driverID uuid.UUID, message string) error
}

// WebhookClient posts notifications to a webhook endpoint owned by the push
// collaborator.
type WebhookClient struct {
	webhookURL string
	client     *http.Client
}

// NewWebhookClient creates a webhook notification client.
func NewWebhookClient(webhookURL string, timeout time.Duration) *WebhookClient {
	return &WebhookClient{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: timeout},
	}
}

func (c *WebhookClient) Notify(ctx context.Context, driverID uuid.UUID, message string) error {
	payload, err := json.Marshal(map[string]string{
		"driver_id": driverID.String(),
		"message":   message,
	})
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNotifyFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("%w: status %d", ErrNotifyFailed, resp.StatusCode)
	}
	return nil
}

// Compile-time check that WebhookClient implements Client.
var _ Client = (*WebhookClient)(nil)
