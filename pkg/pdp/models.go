package pdp

import (
	"net/http"
	"time"

	"log/slog"
)

// Response is a PDP reply captured in full. Any status code counts as a
// response; what a 4xx or 5xx means is up to the caller.
type Response struct {
	StatusCode int           // HTTP status returned by the PDP
	Header     http.Header   // response headers
	Body       []byte        // raw body, read completely before the connection was released
	Attempts   int           // attempts used, including the successful one
	RequestID  string        // X-Request-ID sent on every attempt
	Endpoint   string        // URL the request was posted to
	Duration   time.Duration // time spent including backoff waits
}

// OK reports whether the PDP answered with a 2xx status.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Tree decodes the body as any JSON value.
func (r *Response) Tree() (Value, error) {
	return DecodeTree(r.Body)
}

// Map decodes the body as a JSON object.
func (r *Response) Map() (*Map, error) {
	return DecodeMap(r.Body)
}

func (r *Response) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("request_id", r.RequestID),
		slog.String("endpoint", r.Endpoint),
		slog.Int("status_code", r.StatusCode),
		slog.Int("attempts", r.Attempts),
		slog.Int("body_bytes", len(r.Body)),
		slog.Duration("duration", r.Duration))
}
