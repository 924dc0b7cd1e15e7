package common

import (
	"github.com/futig/template-chat/internal/config"
	pkgHTTP "github.com/futig/template-chat/pkg/http"
	"go.uber.org/zap"
)

// NewBaseConnector builds the JSON connector for an upstream service.
// Credentials go in apiKeyHeader when set, otherwise as a bearer token.
func NewBaseConnector(cfg config.HTTPClientConfig, apiKeyHeader string, logger *zap.Logger, extra ...pkgHTTP.HttpOpts) *pkgHTTP.Connector {
	connCfg := &pkgHTTP.ConnectorConfig{
		Logger:  logger,
		BaseURL: cfg.Url,
	}

	opts := []pkgHTTP.HttpOpts{
		pkgHTTP.WithRequestTimeout(cfg.RequestTimeout),
		pkgHTTP.WithConnClientTimeout(cfg.ConnTimeout),
		pkgHTTP.WithClientKeepAlive(cfg.KeepAlive),
		pkgHTTP.WithIdleConnTimeout(cfg.IdleConnTimeout),
		pkgHTTP.WithResponseHeaderTimeout(cfg.ResponseHeaderTimeout),
		// registered first so it wraps innermost and sees the final headers
		pkgHTTP.WithRequestLogging(apiKeyHeader),
	}
	opts = append(opts, extra...)

	if apiKeyHeader != "" {
		opts = append(opts, pkgHTTP.WithAPIKey(apiKeyHeader, cfg.Token))
	} else {
		opts = append(opts, pkgHTTP.WithAuthToken(cfg.Token))
	}

	return pkgHTTP.NewConnector(connCfg, opts...)
}
