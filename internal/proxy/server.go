package proxy

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/die-net/obfs4shim/internal/logging"
	"github.com/die-net/obfs4shim/internal/socks5"
)

// Server accepts local clients and relays each through a fresh upstream
// connection to the helper.
type Server struct {
	ctx      context.Context
	upstream Upstream
	log      *logging.Logger
	obs      Observer
}

func NewServer(ctx context.Context, cfg Config) *Server {
	if ctx == nil {
		ctx = context.Background()
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Discard()
	}
	if cfg.Observer == nil {
		cfg.Observer = NewLogObserver(cfg.Logger)
	}
	return &Server{ctx: ctx, upstream: cfg.Upstream, log: cfg.Logger, obs: cfg.Observer}
}

// Serve accepts connections on ln until it is closed. It returns nil if the
// Server's context has ended.
func (s *Server) Serve(ln net.Listener) error {
	for {
		c, err := ln.Accept()
		if err != nil {
			if s.ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("accept: %w", err)
		}
		go s.handle(c)
	}
}

func (s *Server) handle(client net.Conn) {
	SessionsTotal.Inc()
	port := portOf(client.RemoteAddr())

	s.log.Infof("new client from port %d: starting obfs4proxy handshake...", port)
	up, err := s.upstream.Dial(s.ctx)
	if err != nil {
		HandshakeFailures.WithLabelValues(failureStage(err)).Inc()
		s.log.Errorf("(%d) obfs4proxy handshake failed: %v", port, err)
		_ = client.Close()
		return
	}
	s.log.Infof("new client from port %d: obfs4proxy handshake successful", port)

	sess := newSession(s.ctx, client, up)
	go sess.forward(Outbound, s.obs)
	go sess.forward(Inbound, s.obs)
}

func failureStage(err error) string {
	if errors.Is(err, socks5.ErrConnectionRefused) {
		return "refused"
	}
	var herr *socks5.HandshakeError
	if errors.As(err, &herr) {
		return string(herr.Stage)
	}
	return "other"
}
