// Package source provides source adapters for the ingestion pipeline. Each
// adapter lists recently published articles from one publication and
// retrieves full article bodies, with rate limiting and reliability patterns
// applied to every outbound request.
package source

import (
	"crypto/tls"
	"fmt"
	"net/http"
	"time"
)

// FetchConfig holds the configuration for outbound fetching.
//
// Security settings:
//   - MaxBodySize: Prevents memory exhaustion from oversized responses
//   - MaxRedirects: Prevents infinite redirect loops
//   - Timeout: Prevents resource starvation from slow servers
//
// Politeness settings:
//   - RequestsPerSecond and Burst: token bucket rate limiting per source
type FetchConfig struct {
	// Timeout is the maximum duration for a single HTTP request.
	// Default: 10s
	Timeout time.Duration

	// MaxBodySize is the maximum HTTP response body size in bytes.
	// Responses exceeding this limit are rejected.
	// Default: 10485760 (10MB)
	MaxBodySize int64

	// MaxRedirects is the maximum number of HTTP redirects to follow.
	// Default: 5
	MaxRedirects int

	// RequestsPerSecond is the sustained request rate against one source.
	// Default: 2
	RequestsPerSecond float64

	// Burst is the token bucket burst capacity.
	// Default: 5
	Burst int

	// UserAgent identifies the pipeline to the sites it fetches from.
	UserAgent string
}

// DefaultFetchConfig returns production-ready defaults: polite request
// rates, bounded response sizes, and a short per-request timeout.
func DefaultFetchConfig() FetchConfig {
	return FetchConfig{
		Timeout:           10 * time.Second,
		MaxBodySize:       10 * 1024 * 1024,
		MaxRedirects:      5,
		RequestsPerSecond: 2.0,
		Burst:             5,
		UserAgent:         "interlocutor-pipeline/1.0",
	}
}

// httpClient builds an HTTP client enforcing the config's timeout, redirect
// limit, and TLS floor.
func (c FetchConfig) httpClient() *http.Client {
	maxRedirects := c.MaxRedirects
	return &http.Client{
		Timeout: c.Timeout,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
		},
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return fmt.Errorf("stopped after %d redirects", len(via))
			}
			return nil
		},
	}
}
