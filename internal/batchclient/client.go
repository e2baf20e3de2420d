// Package batchclient talks to the inventory batch endpoint over HTTP.
package batchclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Jujulu67/djlarian-react-sub002/internal/action"
)

const (
	// DefaultBaseURL is used when no base URL is configured.
	DefaultBaseURL = "http://127.0.0.1:8080"

	// DefaultBatchPath is the batch endpoint path.
	DefaultBatchPath = "/api/inventory/batch"

	// DefaultTimeout bounds each HTTP exchange.
	DefaultTimeout = 15 * time.Second
)

// HTTPError is returned for any non-2xx response.
type HTTPError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *HTTPError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("http %d %s: %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("http %d: %s", e.StatusCode, e.Message)
}

// Client sends batches and fetches authoritative inventory.
//
// Client never retries: a failed batch is reported to the dispatcher, which
// fails every call of the flush and lets the adapters resync.
type Client struct {
	baseURL    string
	batchPath  string
	token      string
	httpClient *http.Client
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithBatchPath overrides DefaultBatchPath.
func WithBatchPath(p string) Option {
	return func(c *Client) {
		if p = strings.TrimSpace(p); p != "" {
			c.batchPath = "/" + strings.TrimLeft(p, "/")
		}
	}
}

// WithLogger sets the structured logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// New creates a Client for baseURL. An empty token sends no Authorization
// header.
func New(baseURL, token string, opts ...Option) *Client {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:    baseURL,
		batchPath:  DefaultBatchPath,
		token:      strings.TrimSpace(token),
		httpClient: &http.Client{Timeout: DefaultTimeout},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Send posts one batch. The batch id is sent as both correlation id and
// idempotency key. Every result in the response must name a known action.
func (c *Client) Send(ctx context.Context, req action.BatchRequest) (action.BatchOutcome, error) {
	if len(req.Actions) == 0 {
		return action.BatchOutcome{}, fmt.Errorf("batch %s: no actions", req.BatchID)
	}

	headers := map[string]string{
		"X-Correlation-Id": req.BatchID,
		"Idempotency-Key":  req.BatchID,
	}
	var outcome action.BatchOutcome
	start := time.Now()
	if err := c.doJSON(ctx, http.MethodPost, c.batchPath, headers, req, &outcome); err != nil {
		return action.BatchOutcome{}, fmt.Errorf("send batch %s: %w", req.BatchID, err)
	}
	for i, r := range outcome.Results {
		if _, err := r.Action(); err != nil {
			return action.BatchOutcome{}, fmt.Errorf("batch %s result %d: %w", req.BatchID, i, err)
		}
	}

	c.logger.Debug("batch sent",
		"batch_id", req.BatchID,
		"actions", len(req.Actions),
		"success", outcome.Summary.Success,
		"errors", outcome.Summary.Errors,
		"elapsed", time.Since(start),
	)
	return outcome, nil
}

// FetchOwner returns the authoritative inventory of one owner.
func (c *Client) FetchOwner(ctx context.Context, ownerID string) (action.OwnerInventory, error) {
	var inv action.OwnerInventory
	p := "/api/inventory/" + url.PathEscape(ownerID)
	if err := c.doJSON(ctx, http.MethodGet, p, nil, nil, &inv); err != nil {
		return action.OwnerInventory{}, fmt.Errorf("fetch inventory %s: %w", ownerID, err)
	}
	return inv, nil
}

// FetchAll returns every inventory line across owners.
func (c *Client) FetchAll(ctx context.Context) (action.AdminInventory, error) {
	var inv action.AdminInventory
	if err := c.doJSON(ctx, http.MethodGet, "/api/admin/inventory", nil, nil, &inv); err != nil {
		return action.AdminInventory{}, fmt.Errorf("fetch admin inventory: %w", err)
	}
	return inv, nil
}

// Health checks that the endpoint is reachable.
func (c *Client) Health(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodGet, "/health", nil, nil, nil)
}

func (c *Client) doJSON(
	ctx context.Context,
	method, requestPath string,
	headers map[string]string,
	body any,
	out any,
) error {
	var bodyReader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return err
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+requestPath, bodyReader)
	if err != nil {
		return err
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Correlation-Id", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	payload, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return readErr
	}

	if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
		if out == nil || len(payload) == 0 {
			return nil
		}
		return json.Unmarshal(payload, out)
	}

	var errPayload struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	_ = json.Unmarshal(payload, &errPayload)
	if errPayload.Message == "" {
		errPayload.Message = http.StatusText(resp.StatusCode)
	}
	return &HTTPError{
		StatusCode: resp.StatusCode,
		Code:       errPayload.Code,
		Message:    errPayload.Message,
	}
}
