package socks5

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"syscall"
	"time"

	"github.com/die-net/obfs4shim/internal/dialer"
)

// Client opens upstream connections through the helper.
type Client struct {
	Dialer      dialer.Dialer
	ControlAddr netip.AddrPort
	Credentials Credentials
	Remote      netip.AddrPort

	// NegotiationTimeout bounds the whole handshake. Zero means no limit.
	NegotiationTimeout time.Duration
}

// Dial connects to the helper's control port and performs the handshake.
// The returned connection has no deadline set. On failure nothing is left
// open.
func (c *Client) Dial(ctx context.Context) (net.Conn, error) {
	conn, err := c.Dialer.DialContext(ctx, "tcp", c.ControlAddr.String())
	if err != nil {
		if errors.Is(err, syscall.ECONNREFUSED) {
			return nil, fmt.Errorf("%w: %w", ErrConnectionRefused, err)
		}
		return nil, &HandshakeError{Stage: StageDial, Reason: "connect to helper", Err: err}
	}

	if c.NegotiationTimeout > 0 {
		_ = conn.SetDeadline(time.Now().Add(c.NegotiationTimeout))
	}
	stop := context.AfterFunc(ctx, func() {
		_ = conn.SetDeadline(time.Unix(1, 0))
	})

	err = ClientHandshake(conn, c.Credentials, c.Remote)
	if !stop() && err == nil {
		err = &HandshakeError{Stage: StageConnect, Reason: "canceled", Err: ctx.Err()}
	}
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	if c.NegotiationTimeout > 0 {
		_ = conn.SetDeadline(time.Time{})
	}
	return conn, nil
}
