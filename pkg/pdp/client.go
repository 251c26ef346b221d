package pdp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/patrickfnielsen/pdpclient/pkg/pdp"

// Client asks a remote Policy Decision Point for decisions. It is safe for
// concurrent use once built.
type Client struct {
	config     Config
	retry      RetryPolicy
	httpClient HTTPDoer
	logger     *slog.Logger
	metrics    *Metrics
	tracer     trace.Tracer
}

// New resolves the configuration (defaults, then PDP_* environment
// variables, then opts) and builds an HTTP client from its timeouts.
func New(opts ...Option) (*Client, error) {
	o := newOptions(opts)

	cfg, err := o.resolve()
	if err != nil {
		return nil, err
	}

	client := &Client{
		config:     cfg,
		retry:      NewRetryPolicy(cfg.RetryMaxAttempts, cfg.RetryBackoff),
		httpClient: o.httpClient,
		logger:     o.logger,
		metrics:    o.metrics,
	}

	if client.httpClient == nil {
		client.httpClient = newHTTPClient(cfg.ConnectTimeout, cfg.ReadTimeout)
	}
	if client.logger == nil {
		client.logger = slog.Default()
	}

	tp := o.tracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	client.tracer = tp.Tracer(tracerName)
	client.retry.OnRetry = client.logRetry

	return client, nil
}

// Config returns a copy of the resolved configuration.
func (c *Client) Config() Config {
	return c.config
}

// RetryPolicy returns the policy derived from the configuration.
func (c *Client) RetryPolicy() RetryPolicy {
	return c.retry
}

// Endpoint returns the URL decisions are posted to.
func (c *Client) Endpoint() (string, error) {
	return BuildEndpoint(c.config)
}

// SetHTTPClient replaces the transport. It exists for tests and must not be
// called while requests are in flight; build a new Client for anything else.
func (c *Client) SetHTTPClient(client HTTPDoer) {
	c.httpClient = client
}

// Evaluate posts payload as JSON to the PDP and returns the captured
// response. payload is usually an AuthorizationRequest, but any value that
// marshals to a JSON object works. Only transport failures are retried; any
// HTTP status is returned as a Response.
func (c *Client) Evaluate(ctx context.Context, payload any) (*Response, error) {
	start := time.Now()

	resp, err := c.evaluate(ctx, payload)

	elapsed := time.Since(start)
	c.metrics.recordRequest(err, elapsed)
	if err != nil {
		return nil, err
	}

	resp.Duration = elapsed
	return resp, nil
}

// EvaluateTree is Evaluate followed by DecodeTree on the body.
func (c *Client) EvaluateTree(ctx context.Context, payload any) (Value, error) {
	resp, err := c.Evaluate(ctx, payload)
	if err != nil {
		return Value{}, err
	}
	return resp.Tree()
}

// EvaluateMap is Evaluate followed by DecodeMap on the body.
func (c *Client) EvaluateMap(ctx context.Context, payload any) (*Map, error) {
	resp, err := c.Evaluate(ctx, payload)
	if err != nil {
		return nil, err
	}
	return resp.Map()
}

func (c *Client) evaluate(ctx context.Context, payload any) (*Response, error) {
	endpoint, err := BuildEndpoint(c.config)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	requestID := uuid.NewString()

	ctx, span := c.tracer.Start(ctx, "pdp.evaluate",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("pdp.endpoint", endpoint),
			attribute.String("pdp.request_id", requestID),
			attribute.Int("pdp.retry.max_attempts", c.retry.MaxAttempts),
		),
	)
	defer span.End()

	var resp *Response
	err = c.retry.Do(ctx, func(ctx context.Context, attempt int) error {
		span.AddEvent("pdp.attempt", trace.WithAttributes(attribute.Int("pdp.attempt", attempt)))

		r, err := c.attempt(ctx, attempt, endpoint, requestID, body)
		c.metrics.recordAttempt(err)
		if err != nil {
			return err
		}

		resp = r
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(
		attribute.Int("http.status_code", resp.StatusCode),
		attribute.Int("pdp.attempts", resp.Attempts),
	)
	return resp, nil
}

func (c *Client) logRetry(attempt int, delay time.Duration, err error) {
	c.logger.Debug("retrying pdp request",
		slog.Int("attempt", attempt),
		slog.Int("max_attempts", c.retry.MaxAttempts),
		slog.Duration("backoff", delay),
		slog.String("error", err.Error()),
	)
}
