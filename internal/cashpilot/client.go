// Package cashpilot is an HTTP client for the CashPilot reconciliation API.
package cashpilot

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"gitlab.com/yelinaung/cashpilot-bot/internal/logger"
	"gitlab.com/yelinaung/cashpilot-bot/internal/metrics"
	"gitlab.com/yelinaung/cashpilot-bot/internal/models"
)

const (
	defaultTimeout       = 10 * time.Second
	defaultMaxRetries    = 3
	defaultRetryInterval = 200 * time.Millisecond
	maxResponseBytes     = 1 << 20
)

// API is the set of CashPilot operations used by the bot.
type API interface {
	OpenCashSession(ctx context.Context, req OpenSessionRequest) (*models.CashSession, error)
	CloseCashSession(ctx context.Context, sessionID string, req CloseSessionRequest) (*models.CashSession, error)
	GetSession(ctx context.Context, sessionID string) (*models.CashSession, error)
	ListSessions(ctx context.Context, params ListSessionsParams) ([]models.CashSession, error)
	GetBusiness(ctx context.Context, businessID string) (*models.Business, error)
	HealthCheck(ctx context.Context) (*models.Health, error)
}

// Client talks to the CashPilot backend over HTTP.
type Client struct {
	baseURL       string
	apiKey        string
	httpClient    *http.Client
	maxRetries    uint64
	retryInterval time.Duration
	duration      metric.Float64Histogram
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// WithMaxRetries sets how many times idempotent requests are retried.
func WithMaxRetries(n uint64) Option {
	return func(c *Client) { c.maxRetries = n }
}

// WithRetryInterval sets the initial backoff between retries.
func WithRetryInterval(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.retryInterval = d
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// NewClient creates a CashPilot API client. An empty apiKey disables the
// Authorization header.
func NewClient(baseURL, apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout:   defaultTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		maxRetries:    defaultMaxRetries,
		retryInterval: defaultRetryInterval,
	}
	for _, opt := range opts {
		opt(c)
	}

	hist, err := otel.Meter("gitlab.com/yelinaung/cashpilot-bot/internal/cashpilot").Float64Histogram(
		"cashpilot.client.request.duration",
		metric.WithUnit("s"),
		metric.WithDescription("Duration of CashPilot API calls."),
	)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("Failed to create CashPilot duration histogram")
	}
	c.duration = hist

	return c
}

// OpenCashSession opens a new cash session.
func (c *Client) OpenCashSession(ctx context.Context, req OpenSessionRequest) (*models.CashSession, error) {
	if err := validate.Struct(req); err != nil {
		return nil, fmt.Errorf("invalid open session request: %w", err)
	}

	var session models.CashSession
	if err := c.do(ctx, "open_session", http.MethodPost, "/cash-sessions", req.payload(), &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// CloseCashSession closes a session. The backend computes the reconciliation.
func (c *Client) CloseCashSession(ctx context.Context, sessionID string, req CloseSessionRequest) (*models.CashSession, error) {
	if sessionID == "" {
		return nil, errors.New("session id is required")
	}
	if err := validate.Struct(req); err != nil {
		return nil, fmt.Errorf("invalid close session request: %w", err)
	}

	var session models.CashSession
	path := "/cash-sessions/" + url.PathEscape(sessionID)
	if err := c.do(ctx, "close_session", http.MethodPut, path, req.payload(), &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// GetSession fetches a single cash session.
func (c *Client) GetSession(ctx context.Context, sessionID string) (*models.CashSession, error) {
	if sessionID == "" {
		return nil, errors.New("session id is required")
	}

	var session models.CashSession
	path := "/cash-sessions/" + url.PathEscape(sessionID)
	if err := c.do(ctx, "get_session", http.MethodGet, path, nil, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// ListSessions lists cash sessions, optionally filtered by business.
func (c *Client) ListSessions(ctx context.Context, params ListSessionsParams) ([]models.CashSession, error) {
	if err := validate.Struct(params); err != nil {
		return nil, fmt.Errorf("invalid list sessions params: %w", err)
	}
	if params.Limit == 0 {
		params.Limit = DefaultListLimit
	}

	query := url.Values{}
	if params.BusinessID != "" {
		query.Set("business_id", params.BusinessID)
	}
	query.Set("skip", strconv.Itoa(params.Skip))
	query.Set("limit", strconv.Itoa(params.Limit))

	var sessions []models.CashSession
	if err := c.do(ctx, "list_sessions", http.MethodGet, "/cash-sessions?"+query.Encode(), nil, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

// GetBusiness fetches a business by ID.
func (c *Client) GetBusiness(ctx context.Context, businessID string) (*models.Business, error) {
	if businessID == "" {
		return nil, errors.New("business id is required")
	}

	var business models.Business
	path := "/businesses/" + url.PathEscape(businessID)
	if err := c.do(ctx, "get_business", http.MethodGet, path, nil, &business); err != nil {
		return nil, err
	}
	return &business, nil
}

// HealthCheck calls the backend health endpoint.
func (c *Client) HealthCheck(ctx context.Context) (*models.Health, error) {
	var health models.Health
	if err := c.do(ctx, "health", http.MethodGet, "/health", nil, &health); err != nil {
		return nil, err
	}
	return &health, nil
}

// do performs a request and decodes a successful response into out. GETs are
// retried on connection failures and 5xx responses.
func (c *Client) do(ctx context.Context, operation, method, path string, body, out any) (err error) {
	start := time.Now()
	defer func() { c.observe(ctx, operation, start, err) }()

	var payload []byte
	if body != nil {
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode %s request: %w", operation, err)
		}
	}

	attempt := func() ([]byte, error) {
		return c.send(ctx, method, path, payload)
	}

	var data []byte
	if method == http.MethodGet && c.maxRetries > 0 {
		data, err = c.retry(ctx, operation, attempt)
	} else {
		data, err = attempt()
	}
	if err != nil {
		return err
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", operation, err)
	}
	return nil
}

func (c *Client) retry(ctx context.Context, operation string, attempt func() ([]byte, error)) ([]byte, error) {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.retryInterval
	policy.MaxInterval = 20 * c.retryInterval
	b := backoff.WithContext(backoff.WithMaxRetries(policy, c.maxRetries), ctx)

	var data []byte
	err := backoff.RetryNotify(
		func() error {
			var err error
			data, err = attempt()
			if err != nil && !retryable(ctx, err) {
				return backoff.Permanent(err)
			}
			return err
		},
		b,
		func(err error, wait time.Duration) {
			logger.Log.Warn().
				Err(err).
				Str("operation", operation).
				Dur("next_attempt_in", wait).
				Msg("CashPilot request failed, retrying")
		},
	)
	return data, err
}

func retryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	apiErr, ok := AsAPIError(err)
	if !ok {
		return false
	}
	return apiErr.Status == 0 || apiErr.Status >= http.StatusInternalServerError
}

func (c *Client) send(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, connectionError(err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, connectionError(err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, newAPIError(resp.StatusCode, data)
	}
	return data, nil
}

func (c *Client) observe(ctx context.Context, operation string, start time.Time, err error) {
	result := "ok"
	if err != nil {
		result = "error"
		if apiErr, ok := AsAPIError(err); ok {
			result = strings.ToLower(apiErr.Code)
		}
		logger.Log.Debug().Err(err).Str("operation", operation).Msg("CashPilot request failed")
	}

	metrics.IncCashPilotRequest(operation, result)
	if c.duration != nil {
		c.duration.Record(ctx, time.Since(start).Seconds(), metric.WithAttributes(
			attribute.String("operation", operation),
			attribute.String("result", result),
		))
	}
}
