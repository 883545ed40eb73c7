// Package client provides the typed backend API client used by the console.
//
// # Operations
//
// - Admin: ListClients, GlobalStats, CreateClient, DeleteClient, tokens
// - Per-client reads: GetClient, ListAgents, ListInstances, SwitchHistory, Savings, LiveData
// - Agent mutations: toggle, settings, config, retire, delete
// - Instance: InstancePools, ForceSwitch
// - Notifications and the /health check
// - System: SystemHealth, ModelsStatus
//
// # Failures
//
// Every call fails with either a *RequestError (non-2xx, message drawn from
// the envelope's "error" field) or a *TransportError (no usable response).
// The client never retries; that decision belongs to the caller.
package client

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

const (
	// maxErrorBody bounds how much of a failed response is read for parsing.
	maxErrorBody = 64 << 10

	defaultUserAgent = "spot-console/1.0"
)

// Client communicates with the optimizer backend.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	authToken   string
	userAgent   string
	rateLimiter *rate.Limiter
	logger      *slog.Logger
}

// Config for the client.
type Config struct {
	BaseURL            string
	AuthToken          string
	HTTPClient         *http.Client
	InsecureSkipVerify bool
	Timeout            time.Duration // HTTP timeout (default: 30s)
	RateLimit          int           // Requests per minute (0 = unlimited)
	UserAgent          string
	Logger             *slog.Logger
}

// NewClient creates a new backend client.
func NewClient(cfg Config) *Client {
	if cfg.HTTPClient == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = 30 * time.Second
		}
		transport := &http.Transport{}
		if cfg.InsecureSkipVerify {
			transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
		}
		cfg.HTTPClient = &http.Client{
			Timeout:   timeout,
			Transport: transport,
		}
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	c := &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: cfg.HTTPClient,
		authToken:  cfg.AuthToken,
		userAgent:  cfg.UserAgent,
		logger:     cfg.Logger.With("component", "backend_client"),
	}
	if cfg.RateLimit > 0 {
		c.rateLimiter = rate.NewLimiter(rate.Limit(float64(cfg.RateLimit)/60.0), 1)
	}
	return c
}

// envelope is the response wrapper every backend endpoint uses.
type envelope struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
	Error  string          `json:"error"`
}

// do performs one request and decodes the envelope's data into out (which
// may be nil).
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	resp, err := c.send(ctx, method, path, query, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	op := method + " " + path
	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		if err == io.EOF && out == nil {
			return nil
		}
		return &TransportError{Op: op, Cause: fmt.Errorf("decoding response: %w", err)}
	}
	if env.Status == "error" {
		return &RequestError{
			StatusCode: resp.StatusCode,
			Message:    errorMessage(env.Error, resp.StatusCode),
			Method:     method,
			Path:       path,
		}
	}

	if out == nil || len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return &TransportError{Op: op, Cause: fmt.Errorf("decoding response data: %w", err)}
	}
	return nil
}

// getRaw performs a GET against an endpoint that answers with a bare JSON
// object instead of the status/data envelope.
func (c *Client) getRaw(ctx context.Context, path string, out any) error {
	resp, err := c.send(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &TransportError{Op: http.MethodGet + " " + path, Cause: fmt.Errorf("decoding response: %w", err)}
	}
	return nil
}

// send performs an HTTP request with standard headers. Non-2xx responses
// are converted to a *RequestError and their body closed.
func (c *Client) send(ctx context.Context, method, path string, query url.Values, body any) (*http.Response, error) {
	op := method + " " + path

	if c.rateLimiter != nil {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, &TransportError{Op: op, Cause: fmt.Errorf("rate limit wait: %w", err)}
		}
	}

	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, &TransportError{Op: op, Cause: fmt.Errorf("marshaling request: %w", err)}
		}
		bodyReader = bytes.NewReader(data)
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target, bodyReader)
	if err != nil {
		return nil, &TransportError{Op: op, Cause: fmt.Errorf("creating request: %w", err)}
	}

	requestID := uuid.New().String()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-ID", requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.authToken)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("request failed", "op", op, "request_id", requestID, "error", err)
		return nil, &TransportError{Op: op, Cause: err}
	}

	c.logger.Debug("request complete",
		"op", op,
		"request_id", requestID,
		"status", resp.StatusCode,
		"elapsed", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		return nil, c.readError(resp, method, path)
	}
	return resp, nil
}

// readError extracts an error message from a failed response.
func (c *Client) readError(resp *http.Response, method, path string) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	var env envelope
	msg := ""
	if err := json.Unmarshal(body, &env); err == nil {
		msg = env.Error
	}

	return &RequestError{
		StatusCode: resp.StatusCode,
		Message:    errorMessage(msg, resp.StatusCode),
		Method:     method,
		Path:       path,
	}
}

func errorMessage(msg string, status int) string {
	if msg = strings.TrimSpace(msg); msg != "" {
		return msg
	}
	return fmt.Sprintf("request failed with status %d", status)
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, query, nil, out)
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, nil, body, out)
}

func escape(id string) string {
	return url.PathEscape(id)
}
