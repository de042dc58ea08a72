// Package mailing is a small client for the Kit (ConvertKit) v3 API: form
// subscription and tag assignment.
package mailing

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/tbourn/fdd-analyzer-backend/internal/config"
)

var (
	// ErrNotConfigured is returned when no form id is set.
	ErrNotConfigured = errors.New("mailing form not configured")

	// ErrRejected wraps a non-2xx answer from the provider.
	ErrRejected = errors.New("mailing provider rejected request")
)

// Subscriber is the minimal profile sent to the form.
type Subscriber struct {
	Email     string
	FirstName string
}

// Client talks to one Kit account.
type Client struct {
	baseURL   string
	formID    string
	apiSecret string
	http      *http.Client
}

// New builds a Client from configuration.
func New(cfg config.KitConfig) *Client {
	return &Client{
		baseURL:   strings.TrimRight(cfg.APIURL, "/"),
		formID:    cfg.FormID,
		apiSecret: cfg.APISecret,
		http:      &http.Client{Timeout: cfg.Timeout},
	}
}

// Configured reports whether a form id is set.
func (c *Client) Configured() bool { return c.formID != "" }

// CanTag reports whether tagging calls can be authenticated.
func (c *Client) CanTag() bool { return c.apiSecret != "" }

type formRequest struct {
	Email     string `json:"email"`
	APISecret string `json:"api_secret,omitempty"`
	FirstName string `json:"first_name,omitempty"`
}

type formResponse struct {
	Subscription struct {
		Subscriber struct {
			ID json.Number `json:"id"`
		} `json:"subscriber"`
	} `json:"subscription"`
}

// SubscribeToForm adds s to the configured form and returns the provider's
// subscriber id (empty if the response did not carry one).
func (c *Client) SubscribeToForm(ctx context.Context, s Subscriber) (string, error) {
	if !c.Configured() {
		return "", ErrNotConfigured
	}
	payload, err := json.Marshal(formRequest{Email: s.Email, APISecret: c.apiSecret, FirstName: s.FirstName})
	if err != nil {
		return "", fmt.Errorf("marshal form request: %w", err)
	}

	var out formResponse
	u := fmt.Sprintf("%s/v3/forms/%s/subscribe", c.baseURL, url.PathEscape(c.formID))
	if err := c.do(ctx, u, payload, &out); err != nil {
		return "", err
	}
	return out.Subscription.Subscriber.ID.String(), nil
}

// Tag applies tagID to the subscriber identified by email.
func (c *Client) Tag(ctx context.Context, tagID, email string) error {
	payload, err := json.Marshal(formRequest{Email: email, APISecret: c.apiSecret})
	if err != nil {
		return fmt.Errorf("marshal tag request: %w", err)
	}
	u := fmt.Sprintf("%s/v3/tags/%s/subscribe", c.baseURL, url.PathEscape(tagID))
	return c.do(ctx, u, payload, nil)
}

// do POSTs a JSON payload and decodes a 2xx JSON answer into v (when non-nil).
func (c *Client) do(ctx context.Context, u string, payload []byte, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		d, _ := io.ReadAll(io.LimitReader(res.Body, 4<<10))
		return fmt.Errorf("%w: http status %d: %s", ErrRejected, res.StatusCode, bytes.TrimSpace(d))
	}
	if v == nil {
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
