package pdp

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
)

const schemeDelimiter = "://"

var supportedSchemas = map[string]bool{"http": true, "https": true}

// BuildEndpoint returns the URL the decision request is posted to.
//
// The hostname may carry its own scheme ("https://pdp.local"), which then
// replaces cfg.Schema for this URL only. The policy path gets a leading
// slash when it lacks one, and the port is always written out.
func BuildEndpoint(cfg Config) (string, error) {
	schema, hostname := cfg.Schema, cfg.Hostname

	parts := strings.Split(cfg.Hostname, schemeDelimiter)
	if len(parts) > 2 {
		return "", fmt.Errorf("%w: invalid schema/hostname: %s", ErrMalformedEndpoint, cfg.Hostname)
	} else if len(parts) == 2 {
		schema, hostname = parts[0], parts[1]
	}

	schema = strings.ToLower(schema)
	if !supportedSchemas[schema] {
		return "", fmt.Errorf("%w: unsupported schema %q", ErrMalformedEndpoint, schema)
	}

	hostname = strings.TrimSuffix(strings.TrimPrefix(hostname, "["), "]")
	if hostname == "" || strings.ContainsAny(hostname, "/?#@") {
		return "", fmt.Errorf("%w: invalid hostname %q", ErrMalformedEndpoint, cfg.Hostname)
	}
	// only IPv6 literals may contain a colon, the port has its own field
	if strings.Contains(hostname, ":") && net.ParseIP(hostname) == nil {
		return "", fmt.Errorf("%w: invalid hostname %q", ErrMalformedEndpoint, cfg.Hostname)
	}

	if cfg.Port < 0 || cfg.Port > 65535 {
		return "", fmt.Errorf("%w: port %d out of range", ErrMalformedEndpoint, cfg.Port)
	}

	policyPath := cfg.PolicyPath
	if !strings.HasPrefix(policyPath, "/") {
		policyPath = "/" + policyPath
	}

	u := url.URL{
		Scheme: schema,
		Host:   net.JoinHostPort(hostname, strconv.Itoa(cfg.Port)),
		Path:   policyPath,
	}

	return u.String(), nil
}
