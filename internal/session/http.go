// Package session owns the two pools the engine's outbound requests draw
// from: a tuned net/http client pool for HtmlForm/ApiJson/
// PersianAirline/InternationalAggregator adapters, and a headless-browser
// context pool (chromedp) for JavaScriptHeavy adapters.
package session

import (
	"compress/gzip"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"
)

// HTTPPoolConfig tunes the shared *http.Client every non-browser adapter
// draws from.
type HTTPPoolConfig struct {
	MaxIdleConns        int
	MaxIdleConnsPerHost int
	MaxConnsPerHost     int
	IdleConnTimeout     time.Duration
	DNSCacheTTL         time.Duration
	UserAgent           string
	ProxyURL            string
}

// DefaultHTTPPoolConfig defaults to: keep-alive >=60s, 50 total
// idle connections, 20 per host, and a DNSCacheTTL of 300s (a value
// NewHTTPPool does not apply).
func DefaultHTTPPoolConfig() HTTPPoolConfig {
	return HTTPPoolConfig{
		MaxIdleConns:        50,
		MaxIdleConnsPerHost: 20,
		MaxConnsPerHost:     20,
		IdleConnTimeout:     90 * time.Second,
		DNSCacheTTL:         300 * time.Second,
		UserAgent:           "Mozilla/5.0 (compatible; flightcrawl/1.0)",
	}
}

// HTTPPool is a single shared *http.Client plus the user-agent/gzip
// defaults every request through it should carry.
type HTTPPool struct {
	client    *http.Client
	userAgent string
}

// NewHTTPPool builds an HTTPPool from cfg. cfg.DNSCacheTTL is not used:
// the transport dials through a plain net.Dialer with a 60s TCP keep-alive,
// and Go's net package does not cache DNS lookups, so there is no DNS
// cache; a lookup is skipped only when an idle pooled connection is reused.
func NewHTTPPool(cfg HTTPPoolConfig) *HTTPPool {
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 60 * time.Second,
	}

	transport := &http.Transport{
		Proxy:               proxyFunc(cfg.ProxyURL),
		DialContext:         dialer.DialContext,
		MaxIdleConns:        cfg.MaxIdleConns,
		MaxIdleConnsPerHost: cfg.MaxIdleConnsPerHost,
		MaxConnsPerHost:     cfg.MaxConnsPerHost,
		IdleConnTimeout:     cfg.IdleConnTimeout,
		DisableCompression:  false, // transport negotiates gzip automatically
	}

	return &HTTPPool{
		client:    &http.Client{Transport: transport},
		userAgent: cfg.UserAgent,
	}
}

// Do performs req through the pooled client, applying the configured
// User-Agent and Accept-Encoding headers. Callers get back an
// already-gzip-decoded body when the server compressed it with
// Content-Encoding: gzip (the stdlib transport only auto-decompresses when
// it negotiated the encoding itself; since adapters may set their own
// Accept-Encoding for brotli negotiation, Do decompresses gzip explicitly
// as a fallback).
func (p *HTTPPool) Do(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", p.userAgent)
	}
	if req.Header.Get("Accept-Encoding") == "" {
		req.Header.Set("Accept-Encoding", "gzip, br")
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.Header.Get("Content-Encoding") == "gzip" {
		gz, gzErr := gzip.NewReader(resp.Body)
		if gzErr == nil {
			resp.Body = &gzipCloser{reader: gz, underlying: resp.Body}
			resp.Header.Del("Content-Encoding")
		}
	}

	return resp, nil
}

// Close releases idle connections held by the pool's transport.
func (p *HTTPPool) Close() {
	p.client.CloseIdleConnections()
}

type gzipCloser struct {
	reader     *gzip.Reader
	underlying io.ReadCloser
}

func (g *gzipCloser) Read(p []byte) (int, error) { return g.reader.Read(p) }
func (g *gzipCloser) Close() error {
	g.reader.Close()
	return g.underlying.Close()
}

func proxyFunc(proxyURL string) func(*http.Request) (*url.URL, error) {
	if proxyURL == "" {
		return http.ProxyFromEnvironment
	}
	// A per-site declared proxy (Features.ProxyUsage) overrides the
	// environment-derived default.
	parsed, err := url.Parse(proxyURL)
	return func(req *http.Request) (*url.URL, error) {
		return parsed, err
	}
}
