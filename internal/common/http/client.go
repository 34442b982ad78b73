// internal/common/http/client.go
package http

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	apperrors "menza-admin/internal/common/errors"
	"menza-admin/internal/common/logger"
	"menza-admin/internal/common/metrics"
)

const (
	HeaderClientType = "X-Client-Type"
	HeaderRequestID  = "X-Request-Id"

	tracerName = "menza-admin/http"
)

// Options configures a Client. BaseURL must be absolute.
type Options struct {
	BaseURL    string
	Timeout    time.Duration
	Headers    map[string]string
	HTTPClient *http.Client
	Logger     logger.Logger
}

// Client sends requests relative to a fixed base URL with a fixed set of
// default headers. A single Client is safe for concurrent use; connections are
// pooled by the underlying *http.Client.
type Client struct {
	base       *url.URL
	httpClient *http.Client
	headers    http.Header
	logger     logger.Logger
	tracer     trace.Tracer
}

// Request describes one call. Path is already escaped and is joined onto the
// base URL's path. A query string in Path is merged with Query.
type Request struct {
	Operation   string
	Method      string
	Path        string
	Query       url.Values
	Body        io.Reader
	ContentType string
}

// Response is a fully read response. The status is not interpreted here.
type Response struct {
	StatusCode int
	Body       []byte
	Header     http.Header
	RequestID  string
}

// IsSuccess reports a 2xx status.
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

func NewClient(opts Options) (*Client, error) {
	base, err := url.Parse(opts.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base url %q: %w", opts.BaseURL, err)
	}
	if !base.IsAbs() || base.Host == "" {
		return nil, fmt.Errorf("base url must be absolute, got %q", opts.BaseURL)
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}

	headers := make(http.Header, len(opts.Headers))
	for k, v := range opts.Headers {
		headers.Set(k, v)
	}

	return &Client{
		base:       base,
		httpClient: httpClient,
		headers:    headers,
		logger:     logger.OrNoOp(opts.Logger),
		tracer:     otel.Tracer(tracerName),
	}, nil
}

// URL resolves path and query against the base URL. Values in query win over
// the same keys in path's own query string.
func (c *Client) URL(path string, query url.Values) (string, error) {
	path, rawQuery, _ := strings.Cut(path, "?")
	merged, err := url.ParseQuery(rawQuery)
	if err != nil {
		return "", fmt.Errorf("invalid query in path %q: %w", path, err)
	}
	for k, values := range query {
		merged[k] = values
	}

	u := c.base.JoinPath(path)
	if len(merged) > 0 {
		u.RawQuery = merged.Encode()
	}
	return u.String(), nil
}

// Do executes req and reads the whole body. Connection, timeout and body read
// failures come back as transport errors; any HTTP status is returned as a
// Response.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	requestID := uuid.NewString()
	target, err := c.URL(req.Path, req.Query)
	if err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}

	ctx, span := c.tracer.Start(ctx, "backend "+req.Operation,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", req.Method),
			attribute.String("url.full", target),
			attribute.String("menza.request_id", requestID),
		),
	)
	defer span.End()

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, req.Body)
	if err != nil {
		return nil, apperrors.NewInternalError(fmt.Errorf("failed to create request: %w", err))
	}
	for k, values := range c.headers {
		for _, v := range values {
			httpReq.Header.Add(k, v)
		}
	}
	httpReq.Header.Set(HeaderRequestID, requestID)
	if req.ContentType != "" {
		httpReq.Header.Set("Content-Type", req.ContentType)
	}

	start := time.Now()
	metrics.BackendRequestsInFlight.Inc()
	defer metrics.BackendRequestsInFlight.Dec()

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.observe(req, "error", start)
		span.RecordError(err)
		span.SetStatus(codes.Error, "transport failure")
		transportErr := apperrors.NewTransportError(req.Operation, err)
		c.logger.WithError(err).Warn("backend request failed", map[string]interface{}{
			"operation":     req.Operation,
			"method":        req.Method,
			"path":          req.Path,
			"requestId":     requestID,
			"errorCategory": apperrors.Category(transportErr),
		})
		return nil, transportErr
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.observe(req, "error", start)
		span.RecordError(err)
		span.SetStatus(codes.Error, "body read failure")
		return nil, apperrors.NewTransportError(req.Operation, fmt.Errorf("failed to read response body: %w", err))
	}

	c.observe(req, strconv.Itoa(resp.StatusCode), start)
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
	if resp.StatusCode >= 400 {
		span.SetStatus(codes.Error, http.StatusText(resp.StatusCode))
	}

	c.logger.Debug("backend request finished", map[string]interface{}{
		"operation":  req.Operation,
		"method":     req.Method,
		"path":       req.Path,
		"status":     resp.StatusCode,
		"durationMs": time.Since(start).Milliseconds(),
		"requestId":  requestID,
	})

	return &Response{
		StatusCode: resp.StatusCode,
		Body:       body,
		Header:     resp.Header,
		RequestID:  requestID,
	}, nil
}

func (c *Client) observe(req Request, status string, start time.Time) {
	metrics.BackendRequests.WithLabelValues(req.Operation, req.Method, status).Inc()
	metrics.BackendRequestDuration.WithLabelValues(req.Operation).Observe(time.Since(start).Seconds())
}

// CloseIdleConnections releases pooled connections.
func (c *Client) CloseIdleConnections() {
	c.httpClient.CloseIdleConnections()
}
