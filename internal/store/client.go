package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"go.uber.org/zap"
)

// Client talks to the central secret service over its JSON API.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

// NewClient builds a Client for the service at baseURL.
func NewClient(baseURL string, logger *zap.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{},
		logger:  logger,
	}
}

func (c *Client) secretsURL(namespace string, parts ...string) string {
	u := c.baseURL + "/v1/" + url.PathEscape(namespace) + "/secrets"
	for _, p := range parts {
		u += "/" + url.PathEscape(p)
	}
	return u
}

// List returns all records under namespace.
func (c *Client) List(ctx context.Context, namespace string) ([]Record, error) {
	var out struct {
		Secrets []Record `json:"secrets"`
	}
	if err := c.do(ctx, http.MethodGet, c.secretsURL(namespace), nil, &out); err != nil {
		return nil, fmt.Errorf("listing secrets: %w", err)
	}
	c.logger.Debug("listed secrets", zap.String("namespace", namespace), zap.Int("count", len(out.Secrets)))
	return out.Secrets, nil
}

// LatestValue fetches the newest version of the named secret. A 404 maps to
// ErrNotFound so the scan can treat versionless secrets as missing keys.
func (c *Client) LatestValue(ctx context.Context, namespace, name string) ([]byte, error) {
	var out struct {
		Value []byte `json:"value"`
	}
	if err := c.do(ctx, http.MethodGet, c.secretsURL(namespace, name, "latest"), nil, &out); err != nil {
		return nil, err
	}
	return out.Value, nil
}

// Create registers a new secret with labels and no versions.
func (c *Client) Create(ctx context.Context, namespace, name string, labels map[string]string) error {
	body := map[string]any{"name": name, "labels": labels}
	return c.do(ctx, http.MethodPost, c.secretsURL(namespace), body, nil)
}

// AddVersion appends a value version to an existing secret.
func (c *Client) AddVersion(ctx context.Context, namespace, name string, value []byte) error {
	body := map[string]any{"value": value}
	return c.do(ctx, http.MethodPost, c.secretsURL(namespace, name, "versions"), body, nil)
}

// Delete removes the named secret.
func (c *Client) Delete(ctx context.Context, namespace, name string) error {
	return c.do(ctx, http.MethodDelete, c.secretsURL(namespace, name), nil, nil)
}

func (c *Client) do(ctx context.Context, method, rawURL string, body, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.Debug("store request failed",
			zap.String("method", method),
			zap.String("url", rawURL),
			zap.Int("status", resp.StatusCode))
		return fmt.Errorf("%s %s: status %d: %s", method, rawURL, resp.StatusCode, payload)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}
	return nil
}
