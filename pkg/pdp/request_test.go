package pdp

import (
	"crypto/tls"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthorizationRequest_JSONShape(t *testing.T) {
	t.Parallel()

	req := NewAuthorizationRequest()
	req.Input.Request.Scheme = "https"
	req.Input.Request.Method = "GET"
	req.Input.Request.Path = "/orders/42"
	req.Input.Request.Query["expand"] = []string{"items"}
	req.Input.Request.Headers["authorization"] = "Bearer abc"
	req.Input.Resources.Requirements = append(req.Input.Resources.Requirements, "orders:read")
	req.Input.Resources.Attributes["owner"] = "alice"
	req.Input.Source = ConnectionTuple{IPAddress: "10.0.0.1", Port: 51234}
	req.Input.Destination = ConnectionTuple{IPAddress: "10.0.0.2", Port: 8080}

	out, err := json.Marshal(req)
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"input": {
			"request": {
				"scheme": "https",
				"method": "GET",
				"path": "/orders/42",
				"query": {"expand": ["items"]},
				"headers": {"authorization": "Bearer abc"}
			},
			"resources": {
				"requirements": ["orders:read"],
				"attributes": {"owner": "alice"}
			},
			"source": {"ipAddress": "10.0.0.1", "port": 51234},
			"destination": {"ipAddress": "10.0.0.2", "port": 8080}
		}
	}`, string(out))
}

func TestNewAuthorizationRequest_EmptyCollections(t *testing.T) {
	t.Parallel()

	out, err := json.Marshal(NewAuthorizationRequest())
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"input": {
			"request": {"scheme": "", "method": "", "path": "", "query": {}, "headers": {}},
			"resources": {"requirements": [], "attributes": {}},
			"source": {"ipAddress": "", "port": 0},
			"destination": {"ipAddress": "", "port": 0}
		}
	}`, string(out))
}

func TestNewIncomingHTTP(t *testing.T) {
	t.Parallel()

	r := httptest.NewRequest(http.MethodPut, "/things/1?a=1&a=2&b=x", nil)
	r.Header.Add("X-Forwarded-For", "10.0.0.1")
	r.Header.Add("X-Forwarded-For", "10.0.0.2")
	r.Header.Set("Authorization", "Bearer abc")

	in := NewIncomingHTTP(r)

	assert.Equal(t, "http", in.Scheme)
	assert.Equal(t, http.MethodPut, in.Method)
	assert.Equal(t, "/things/1", in.Path)
	assert.Equal(t, map[string][]string{"a": {"1", "2"}, "b": {"x"}}, in.Query)
	assert.Equal(t, "10.0.0.1, 10.0.0.2", in.Headers["x-forwarded-for"])
	assert.Equal(t, "Bearer abc", in.Headers["authorization"])
	assert.NotContains(t, in.Headers, "Authorization")
}

func TestNewIncomingHTTP_TLS(t *testing.T) {
	t.Parallel()

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.TLS = &tls.ConnectionState{}

	assert.Equal(t, "https", NewIncomingHTTP(r).Scheme)
}

func TestParseConnectionTuple(t *testing.T) {
	t.Parallel()

	tests := []struct {
		addr string
		want ConnectionTuple
	}{
		{"10.0.0.1:8080", ConnectionTuple{IPAddress: "10.0.0.1", Port: 8080}},
		{"[::1]:443", ConnectionTuple{IPAddress: "::1", Port: 443}},
		{"10.0.0.1", ConnectionTuple{IPAddress: "10.0.0.1"}},
		{"[::1]", ConnectionTuple{IPAddress: "::1"}},
		{"host:http", ConnectionTuple{IPAddress: "host"}},
		{"", ConnectionTuple{}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.addr, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ParseConnectionTuple(tt.addr))
		})
	}
}
