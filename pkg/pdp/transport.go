package pdp

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

const (
	HeaderContentType = "Content-Type"
	HeaderAccept      = "Accept"
	HeaderRequestID   = "X-Request-ID"

	ContentTypeJSON = "application/json; charset=utf-8"
)

// HTTPDoer sends a single HTTP request. *http.Client implements it.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

func newHTTPClient(connectTimeout, readTimeout time.Duration) *http.Client {
	// Ensure we use a http.Transport with proper settings: the zero values are not
	// a good choice, as they cause leaking connections:
	// https://github.com/golang/go/issues/19620

	// copy, we don't want to alter the default client's Transport
	tr := http.DefaultTransport.(*http.Transport).Clone()
	tr.DialContext = (&net.Dialer{
		Timeout:   connectTimeout,
		KeepAlive: 30 * time.Second,
	}).DialContext
	tr.TLSHandshakeTimeout = connectTimeout
	tr.ResponseHeaderTimeout = readTimeout

	c := *http.DefaultClient
	c.Transport = tr
	return &c
}

// attempt posts body once and captures the complete response. Failures to
// get a response are wrapped in *TransportError; a cancelled parent context
// is returned as is so it is not retried.
func (c *Client) attempt(ctx context.Context, n int, endpoint, requestID string, body []byte) (*Response, error) {
	attemptCtx := ctx
	if timeout := c.config.ConnectTimeout + c.config.ReadTimeout; timeout > 0 {
		var cancel context.CancelFunc
		attemptCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	request, err := http.NewRequestWithContext(attemptCtx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEndpoint, err)
	}

	request.Header.Set(HeaderContentType, ContentTypeJSON)
	request.Header.Set(HeaderAccept, "application/json")
	request.Header.Set(HeaderRequestID, requestID)
	otel.GetTextMapPropagator().Inject(attemptCtx, propagation.HeaderCarrier(request.Header))

	resp, err := c.httpClient.Do(request)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &TransportError{Attempt: n, Err: err}
	}

	defer closeHttp(resp)

	var data []byte
	if resp.Body != nil {
		data, err = io.ReadAll(resp.Body)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, &TransportError{Attempt: n, Err: fmt.Errorf("read response: %w", err)}
		}
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       data,
		Attempts:   n,
		RequestID:  requestID,
		Endpoint:   endpoint,
	}, nil
}

func closeHttp(resp *http.Response) {
	if resp != nil && resp.Body != nil {
		// drain so the connection can be reused
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}
}
