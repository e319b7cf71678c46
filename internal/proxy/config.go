package proxy

import (
	"context"
	"net"

	"github.com/die-net/obfs4shim/internal/logging"
)

// Upstream opens one ready-to-use connection through the helper per call.
// *socks5.Client implements it.
type Upstream interface {
	Dial(ctx context.Context) (net.Conn, error)
}

type Config struct {
	Upstream Upstream

	Logger *logging.Logger

	// Observer receives forwarding events. Defaults to logging them to
	// Logger and recording metrics.
	Observer Observer
}
