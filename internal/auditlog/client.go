package auditlog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

var errUnauthorized = errors.New("audit unauthorized")

// Client posts round events to an easyweb3 log service. It logs in with the
// API key on first use and again when the bearer token nears expiry or is refused.
type Client struct {
	BaseURL string
	APIKey  string
	HTTP    *http.Client

	mu      sync.Mutex
	bearer  string
	expires time.Time
}

type logEntry struct {
	Agent      string         `json:"agent"`
	Action     string         `json:"action"`
	Level      string         `json:"level"`
	Details    map[string]any `json:"details"`
	SessionKey string         `json:"session_key"`
	Metadata   map[string]any `json:"metadata"`
}

// Record posts one event. A 401 drops the cached token and retries once.
func (c *Client) Record(ctx context.Context, agent, session, betHouse string, ev RoundEvent) error {
	entry := logEntry{
		Agent:      agent,
		Action:     string(ev.Kind),
		Level:      ev.Level(),
		Details:    ev.details(),
		SessionKey: session,
		Metadata:   ev.metadata(betHouse),
	}
	err := c.postEntry(ctx, entry)
	if errors.Is(err, errUnauthorized) {
		c.forget()
		err = c.postEntry(ctx, entry)
	}
	if err != nil {
		return fmt.Errorf("record %s round %d: %w", ev.Kind, ev.RoundID, err)
	}
	return nil
}

func (c *Client) postEntry(ctx context.Context, entry logEntry) error {
	tok, err := c.token(ctx)
	if err != nil {
		return err
	}
	_, err = c.postJSON(ctx, "/api/v1/logs", tok, entry)
	return err
}

func (c *Client) token(ctx context.Context) (string, error) {
	c.mu.Lock()
	tok, exp := c.bearer, c.expires
	c.mu.Unlock()
	if tok != "" && (exp.IsZero() || time.Until(exp) >= 2*time.Minute) {
		return tok, nil
	}

	key := strings.TrimSpace(c.APIKey)
	if key == "" {
		return "", errors.New("audit api key is empty")
	}
	b, err := c.postJSON(ctx, "/api/v1/auth/login", "", map[string]string{"api_key": key})
	if err != nil {
		return "", fmt.Errorf("audit login: %w", err)
	}
	var lr struct {
		Token     string `json:"token"`
		ExpiresAt string `json:"expires_at"`
	}
	if err := json.Unmarshal(b, &lr); err != nil {
		return "", fmt.Errorf("audit login: %w", err)
	}
	tok = strings.TrimSpace(lr.Token)
	if tok == "" {
		return "", errors.New("audit login: empty token")
	}
	exp, _ = time.Parse(time.RFC3339, strings.TrimSpace(lr.ExpiresAt))

	c.mu.Lock()
	c.bearer, c.expires = tok, exp
	c.mu.Unlock()
	return tok, nil
}

func (c *Client) forget() {
	c.mu.Lock()
	c.bearer, c.expires = "", time.Time{}
	c.mu.Unlock()
}

func (c *Client) postJSON(ctx context.Context, path, bearer string, body any) ([]byte, error) {
	base := strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if base == "" {
		return nil, errors.New("audit base url is empty")
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, base+path, bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	hc := c.HTTP
	if hc == nil {
		hc = &http.Client{Timeout: 10 * time.Second}
	}
	resp, err := hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()
	b, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	switch {
	case resp.StatusCode == http.StatusUnauthorized && bearer != "":
		return nil, errUnauthorized
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, fmt.Errorf("POST %s http %d: %s", path, resp.StatusCode, strings.TrimSpace(string(b)))
	}
	return b, nil
}
