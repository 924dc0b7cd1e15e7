package http

import (
	"net/http"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

type payloadContextKey struct{}

const redacted = "[REDACTED]"

type headerTransport struct {
	header    string
	value     string
	transport http.RoundTripper
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.value == "" {
		return t.transport.RoundTrip(req)
	}

	reqCopy := req.Clone(req.Context())
	reqCopy.Header.Set(t.header, t.value)
	return t.transport.RoundTrip(reqCopy)
}

// WithAuthToken sends "Authorization: Bearer <token>" when token is set.
func WithAuthToken(token string) HttpOpts {
	if token == "" {
		return WithStaticHeader("Authorization", "")
	}
	return WithStaticHeader("Authorization", "Bearer "+token)
}

// WithAPIKey sends the key in a provider specific header such as x-api-key.
func WithAPIKey(header, key string) HttpOpts {
	return WithStaticHeader(header, key)
}

// WithStaticHeader sets one header on every outbound request.
func WithStaticHeader(header, value string) HttpOpts {
	return WithTransport(func(rt http.RoundTripper) http.RoundTripper {
		return &headerTransport{header: header, value: value, transport: rt}
	})
}

type logTransport struct {
	secretHeaders []string
	transport     http.RoundTripper
}

func (t *logTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()

	headers := req.Header.Clone()
	for _, h := range t.secretHeaders {
		if headers.Get(h) != "" {
			headers.Set(h, redacted)
		}
	}

	fields := []zap.Field{
		zap.String("method", req.Method),
		zap.String("url", req.URL.String()),
		zap.Any("headers", headers),
	}
	if payload, ok := ctx.Value(payloadContextKey{}).([]byte); ok && len(payload) > 0 {
		fields = append(fields, zap.Int("payload_bytes", len(payload)))
	}

	ctxzap.Debug(ctx, "HTTP outbound request", fields...)

	resp, err := t.transport.RoundTrip(req)
	if err != nil {
		ctxzap.Debug(ctx, "HTTP outbound request failed", zap.Error(err))
		return nil, err
	}

	ctxzap.Debug(ctx, "HTTP outbound response", zap.Int("status", resp.StatusCode))
	return resp, nil
}

// WithRequestLogging logs method, URL, headers and payload size.
// Register it before the header transports so it wraps the base transport
// directly and sees their headers; the listed secret headers are redacted.
func WithRequestLogging(secretHeaders ...string) HttpOpts {
	secrets := append([]string{"Authorization"}, secretHeaders...)
	return WithTransport(func(rt http.RoundTripper) http.RoundTripper {
		return &logTransport{secretHeaders: secrets, transport: rt}
	})
}
