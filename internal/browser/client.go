// Package browser reaches the step-executor daemon that performs the
// actual browser actions. The daemon owns the browser; this client only
// speaks its session protocol.
package browser

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/flowdeck/flowdeck/internal/flow"
	"github.com/flowdeck/flowdeck/internal/runner"
)

// Client opens executor sessions against a driver daemon.
type Client struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// Open allocates a fresh browser session on the driver.
func (c *Client) Open(ctx context.Context) (runner.Session, error) {
	var created struct {
		SessionID string `json:"sessionId"`
	}
	if err := c.post(ctx, c.baseURL+"/session", nil, &created); err != nil {
		return nil, err
	}
	if created.SessionID == "" {
		return nil, fmt.Errorf("driver returned no session id")
	}
	c.logger.Debug("opened executor session", zap.String("session", created.SessionID))
	return &session{client: c, id: created.SessionID}, nil
}

type session struct {
	client *Client
	id     string
}

func (s *session) Run(ctx context.Context, step flow.Step) (flow.StepResult, error) {
	var result flow.StepResult
	url := fmt.Sprintf("%s/session/%s/step", s.client.baseURL, s.id)
	if err := s.client.post(ctx, url, step, &result); err != nil {
		return flow.StepResult{}, err
	}
	return result, nil
}

func (s *session) Close(ctx context.Context) error {
	url := fmt.Sprintf("%s/session/%s", s.client.baseURL, s.id)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, url, nil)
	if err != nil {
		return err
	}
	resp, err := s.client.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("driver returned status %d releasing session", resp.StatusCode)
	}
	return nil
}

func (c *Client) post(ctx context.Context, url string, payload any, out any) error {
	var body bytes.Buffer
	if payload != nil {
		if err := json.NewEncoder(&body).Encode(payload); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("driver returned status %d", resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("driver returned a non-JSON response: %w", err)
	}
	return nil
}
