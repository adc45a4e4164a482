package tls

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"

	"github.com/spiffe/go-spiffe/v2/spiffetls/tlsconfig"
	"github.com/spiffe/go-spiffe/v2/workloadapi"
	"go.uber.org/zap"
)

type Config struct {
	Enabled    bool   `envconfig:"TLS_ENABLED" default:"false"`
	SocketPath string `envconfig:"SPIRE_SOCKET_PATH" default:"unix:///run/spire/sockets/agent.sock"`
}

// LoadServerConfig builds an mTLS server config from the SPIRE Workload
// API. It returns nil config when TLS is disabled. The returned closer
// releases the X509 source and must be closed on shutdown.
func LoadServerConfig(ctx context.Context, cfg *Config, logger *zap.Logger) (*tls.Config, io.Closer, error) {
	if !cfg.Enabled {
		logger.Info("TLS is disabled")
		return nil, nil, nil
	}

	source, err := workloadapi.NewX509Source(
		ctx,
		workloadapi.WithClientOptions(
			workloadapi.WithAddr(cfg.SocketPath),
		),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("unable to create X509Source: %w", err)
	}

	tlsConfig := tlsconfig.MTLSServerConfig(source, source, tlsconfig.AuthorizeAny())
	tlsConfig.MinVersion = tls.VersionTLS12

	logger.Info("SPIRE TLS configuration loaded",
		zap.String("socket_path", cfg.SocketPath))

	return tlsConfig, source, nil
}
