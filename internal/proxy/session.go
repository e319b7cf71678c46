package proxy

import (
	"context"
	"net"
	"sync"
	"sync/atomic"
)

// session pairs an accepted client with its upstream connection through the
// helper. Each direction calls done when it ends; the sockets are closed
// exactly once, when the last direction ends or as soon as one fails.
type session struct {
	client   net.Conn
	upstream net.Conn
	port     int

	open      atomic.Int32
	closeOnce sync.Once
	// stop releases the close-on-cancel hook.
	stop func() bool
}

func newSession(ctx context.Context, client, upstream net.Conn) *session {
	s := &session{
		client:   client,
		upstream: upstream,
		port:     portOf(client.RemoteAddr()),
	}
	s.open.Store(2)
	ActiveSessions.Inc()
	s.stop = context.AfterFunc(ctx, s.close)
	return s
}

func (s *session) flow(d Direction) Flow {
	return Flow{
		ClientPort: s.port,
		Direction:  d,
		Client:     s.client.RemoteAddr(),
		Helper:     s.upstream.RemoteAddr(),
	}
}

// forward runs one direction to completion.
func (s *session) forward(d Direction, obs Observer) {
	src, dst := s.client, s.upstream
	if d == Inbound {
		src, dst = s.upstream, s.client
	}

	if err := Forward(src, dst, s.flow(d), obs); err != nil {
		s.close()
	} else {
		closeWrite(dst)
	}

	if s.open.Add(-1) == 0 {
		s.stop()
		s.close()
	}
}

func (s *session) close() {
	s.closeOnce.Do(func() {
		_ = s.client.Close()
		_ = s.upstream.Close()
		ActiveSessions.Dec()
	})
}

type closeWriter interface {
	CloseWrite() error
}

// closeWrite passes end-of-stream on to the peer while leaving the other
// direction open.
func closeWrite(c net.Conn) {
	if cw, ok := c.(closeWriter); ok {
		_ = cw.CloseWrite()
	}
}
