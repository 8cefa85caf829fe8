// Package alert posts trigger events to a PagerDuty-v1-compatible endpoint.
package alert

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultEndpoint is the PagerDuty Events API v1 enqueue URL.
const DefaultEndpoint = "https://events.pagerduty.com/generic/2010-04-15/create_event.json"

type event struct {
	ServiceKey  string  `json:"service_key"`
	EventType   string  `json:"event_type"`
	IncidentKey *string `json:"incident_key"`
	Description string  `json:"description"`
	Details     string  `json:"details"`
}

type Client struct {
	Endpoint   string
	ServiceKey string
	HTTPClient *http.Client
}

func NewClient(endpoint, serviceKey string) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &Client{
		Endpoint:   endpoint,
		ServiceKey: serviceKey,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Trigger sends a single trigger event carrying the run description and the
// rendered transcript. Runs are independent, so incident_key is always null.
// Any non-2xx response or transport error is a dispatch failure.
func (c *Client) Trigger(ctx context.Context, description, details string) error {
	body, err := json.Marshal(event{
		ServiceKey:  c.ServiceKey,
		EventType:   "trigger",
		Description: description,
		Details:     details,
	})
	if err != nil {
		return fmt.Errorf("encoding alert: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building alert request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("posting alert: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("alert endpoint returned %s", resp.Status)
	}
	return nil
}
