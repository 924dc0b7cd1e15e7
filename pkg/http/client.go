package http

import (
	"net"
	"net/http"
	"time"
)

type TransportFunc func(http.RoundTripper) http.RoundTripper

type HttpOpts func(*httpConfig)

type httpConfig struct {
	connClientTimeout     time.Duration
	requestTimeout        time.Duration
	clientKeepAlive       time.Duration
	tlsHandshakeTimeout   time.Duration
	responseHeaderTimeout time.Duration
	idleConnTimeout       time.Duration
	maxIdleConnsPerHost   int
	baseTransport         http.RoundTripper
	transports            []TransportFunc
}

// Model endpoints can take a long time before the first response byte,
// so the header timeout is close to the whole request timeout.
func defaultHTTPConfig() *httpConfig {
	return &httpConfig{
		connClientTimeout:     10 * time.Second,
		requestTimeout:        120 * time.Second,
		clientKeepAlive:       90 * time.Second,
		tlsHandshakeTimeout:   10 * time.Second,
		responseHeaderTimeout: 110 * time.Second,
		idleConnTimeout:       90 * time.Second,
		maxIdleConnsPerHost:   4,
	}
}

func WithConnClientTimeout(timeout time.Duration) HttpOpts {
	return func(c *httpConfig) {
		if timeout > 0 {
			c.connClientTimeout = timeout
		}
	}
}

func WithRequestTimeout(timeout time.Duration) HttpOpts {
	return func(c *httpConfig) {
		if timeout > 0 {
			c.requestTimeout = timeout
		}
	}
}

func WithClientKeepAlive(keepAlive time.Duration) HttpOpts {
	return func(c *httpConfig) {
		if keepAlive > 0 {
			c.clientKeepAlive = keepAlive
		}
	}
}

func WithResponseHeaderTimeout(timeout time.Duration) HttpOpts {
	return func(c *httpConfig) {
		if timeout > 0 {
			c.responseHeaderTimeout = timeout
		}
	}
}

func WithIdleConnTimeout(timeout time.Duration) HttpOpts {
	return func(c *httpConfig) {
		if timeout > 0 {
			c.idleConnTimeout = timeout
		}
	}
}

// WithBaseTransport replaces the dialing transport, mostly for tests.
func WithBaseTransport(rt http.RoundTripper) HttpOpts {
	return func(c *httpConfig) {
		c.baseTransport = rt
	}
}

// WithTransport wraps the base transport. Wrappers apply in registration order,
// so the last registered wrapper sees the request first.
func WithTransport(transport TransportFunc) HttpOpts {
	return func(c *httpConfig) {
		c.transports = append(c.transports, transport)
	}
}

func newClient(opts ...HttpOpts) *http.Client {
	cfg := defaultHTTPConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	transport := cfg.baseTransport
	if transport == nil {
		dialer := net.Dialer{
			Timeout:   cfg.connClientTimeout,
			KeepAlive: cfg.clientKeepAlive,
		}
		transport = &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			DialContext:           dialer.DialContext,
			MaxIdleConnsPerHost:   cfg.maxIdleConnsPerHost,
			TLSHandshakeTimeout:   cfg.tlsHandshakeTimeout,
			ResponseHeaderTimeout: cfg.responseHeaderTimeout,
			IdleConnTimeout:       cfg.idleConnTimeout,
		}
	}

	for _, wrap := range cfg.transports {
		transport = wrap(transport)
	}

	return &http.Client{
		Timeout:   cfg.requestTimeout,
		Transport: transport,
	}
}
