package score

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/UnknownOlympus/helios/internal/metrics"
	"github.com/UnknownOlympus/helios/internal/models"
)

// DefaultPath is the light score endpoint relative to the backend URL.
const DefaultPath = "/light_score/"

// maxErrorBody caps how much of an error response is read for diagnostics.
const maxErrorBody = 64 << 10

// HTTPClient defines the interface for making HTTP requests.
// This allows for easy mocking in tests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client calls the light score backend.
type Client struct {
	client    HTTPClient
	endpoint  string
	validator *Validator
	metrics   *metrics.Metrics
	log       *slog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(client HTTPClient) ClientOption {
	return func(c *Client) { c.client = client }
}

// WithPath overrides DefaultPath.
func WithPath(path string) ClientOption {
	return func(c *Client) { c.endpoint = path }
}

// WithOptionalPostalCode accepts submissions without a postal code.
func WithOptionalPostalCode() ClientOption {
	return func(c *Client) { c.validator = NewValidator(true) }
}

// NewClient creates a Client for the backend at backendURL.
func NewClient(backendURL string, m *metrics.Metrics, log *slog.Logger, opts ...ClientOption) (*Client, error) {
	const timeout = 30

	c := &Client{
		client:    &http.Client{Timeout: timeout * time.Second},
		endpoint:  DefaultPath,
		validator: NewValidator(false),
		metrics:   m,
		log:       log,
	}
	for _, opt := range opts {
		opt(c)
	}

	base, err := url.Parse(strings.TrimRight(backendURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("failed to parse backend URL: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("backend URL %q must be absolute", backendURL)
	}

	c.endpoint = base.String() + "/" + strings.TrimLeft(c.endpoint, "/")

	return c, nil
}

// Validate checks fragments without contacting the backend.
func (c *Client) Validate(fragments models.AddressFragments) error {
	return c.validator.Validate(fragments)
}

// Fetch validates fragments and requests their light score. Every non-empty field is sent
// as a query parameter. Failures are returned as *Error with a user-facing message.
func (c *Client) Fetch(ctx context.Context, fragments models.AddressFragments) (*models.ScoreResult, error) {
	if err := c.validator.Validate(fragments); err != nil {
		c.metrics.ScoreRequests.WithLabelValues("invalid").Inc()
		return nil, err
	}

	reqURL := c.endpoint + "?" + fragments.Trimmed().QueryParams().Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	c.log.DebugContext(ctx, "Requesting light score", "url", reqURL)

	startTime := time.Now()
	resp, err := c.client.Do(req)
	c.metrics.ScoreSeconds.Observe(time.Since(startTime).Seconds())
	if err != nil {
		c.metrics.ScoreRequests.WithLabelValues("transport_error").Inc()
		c.log.ErrorContext(ctx, "Light score request failed", "error", err)
		return nil, &Error{Kind: KindTransport, Message: MsgFailed, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		c.metrics.ScoreRequests.WithLabelValues(strconv.Itoa(resp.StatusCode)).Inc()
		detail := errorDetail(resp.Body)
		c.log.ErrorContext(ctx, "Light score backend error", "status", resp.StatusCode, "detail", detail)
		return nil, classifyStatus(resp.StatusCode, detail)
	}

	var result models.ScoreResult
	if err = json.NewDecoder(resp.Body).Decode(&result); err != nil {
		c.metrics.ScoreRequests.WithLabelValues("decode_error").Inc()
		c.log.ErrorContext(ctx, "Failed to decode light score response", "error", err)
		return nil, &Error{Kind: KindUpstream, Message: MsgFailed, Status: resp.StatusCode, Err: err}
	}

	c.metrics.ScoreRequests.WithLabelValues("success").Inc()
	c.log.InfoContext(ctx, "Light score received", "score", result.LightScore, "label", result.Label())

	return &result, nil
}

// errorDetail extracts the "detail" field of an error body, falling back to the raw text.
func errorDetail(body io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(body, maxErrorBody))
	if err != nil {
		return ""
	}

	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if json.Unmarshal(raw, &payload) == nil && len(payload.Detail) > 0 {
		var text string
		if json.Unmarshal(payload.Detail, &text) == nil {
			return text
		}
		// FastAPI style validation errors carry a list of objects.
		return string(payload.Detail)
	}

	return strings.TrimSpace(string(raw))
}
