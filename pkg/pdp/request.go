package pdp

import (
	"net"
	"net/http"
	"strconv"
	"strings"
)

// AuthorizationRequest is the body posted to the PDP. Field names follow
// the decision service's input schema and must not change.
type AuthorizationRequest struct {
	Input Input `json:"input"`
}

type Input struct {
	Request     IncomingHTTP    `json:"request"`
	Resources   Resources       `json:"resources"`
	Source      ConnectionTuple `json:"source"`
	Destination ConnectionTuple `json:"destination"`
}

// IncomingHTTP describes the intercepted call being authorized.
type IncomingHTTP struct {
	Scheme  string              `json:"scheme"`
	Method  string              `json:"method"`
	Path    string              `json:"path"`
	Query   map[string][]string `json:"query"`
	Headers map[string]string   `json:"headers"`
}

// Resources lists what the call needs: required permissions and free-form
// attributes of the resource.
type Resources struct {
	Requirements []string          `json:"requirements"`
	Attributes   map[string]string `json:"attributes"`
}

type ConnectionTuple struct {
	IPAddress string `json:"ipAddress"`
	Port      int    `json:"port"`
}

// NewAuthorizationRequest returns a request whose collections are empty
// rather than nil, so they serialize as {} and [].
func NewAuthorizationRequest() AuthorizationRequest {
	return AuthorizationRequest{
		Input: Input{
			Request: IncomingHTTP{
				Query:   map[string][]string{},
				Headers: map[string]string{},
			},
			Resources: Resources{
				Requirements: []string{},
				Attributes:   map[string]string{},
			},
		},
	}
}

// NewIncomingHTTP describes r. Header names are lower-cased and repeated
// headers are joined with ", ".
func NewIncomingHTTP(r *http.Request) IncomingHTTP {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if r.URL != nil && r.URL.Scheme != "" {
		scheme = r.URL.Scheme
	}

	in := IncomingHTTP{
		Scheme:  scheme,
		Method:  r.Method,
		Query:   map[string][]string{},
		Headers: make(map[string]string, len(r.Header)),
	}
	if r.URL != nil {
		in.Path = r.URL.Path
		for k, v := range r.URL.Query() {
			in.Query[k] = v
		}
	}
	for k, v := range r.Header {
		in.Headers[strings.ToLower(k)] = strings.Join(v, ", ")
	}

	return in
}

// ParseConnectionTuple splits "host:port" (or a bare host) into a tuple.
// A missing or invalid port is reported as 0.
func ParseConnectionTuple(addr string) ConnectionTuple {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return ConnectionTuple{IPAddress: strings.Trim(addr, "[]")}
	}

	p, err := strconv.Atoi(port)
	if err != nil {
		p = 0
	}
	return ConnectionTuple{IPAddress: host, Port: p}
}
