package proxy

import (
	"errors"
	"fmt"
	"io"
	"net"
	"net/netip"
	"syscall"

	"github.com/die-net/obfs4shim/internal/logging"
)

// Direction says which way a forwarder copies. It only affects log phrasing.
type Direction int

const (
	// Outbound copies client bytes to the helper.
	Outbound Direction = iota
	// Inbound copies helper bytes to the client.
	Inbound
)

func (d Direction) String() string {
	if d == Inbound {
		return "inbound"
	}
	return "outbound"
}

func (d Direction) verb() string {
	if d == Inbound {
		return "recv"
	}
	return "sent"
}

// Flow identifies one direction of one session.
type Flow struct {
	ClientPort int
	Direction  Direction
	Client     net.Addr
	Helper     net.Addr
}

// String renders the endpoints with the helper side first and an arrow
// pointing the way bytes move.
func (f Flow) String() string {
	arrow := "<-"
	if f.Direction == Inbound {
		arrow = "->"
	}
	return fmt.Sprintf("%s %s %s", hostPort(f.Helper), arrow, hostPort(f.Client))
}

func hostPort(a net.Addr) string {
	if a == nil {
		return "? ?"
	}
	ap, err := netip.ParseAddrPort(a.String())
	if err != nil {
		return a.String()
	}
	return fmt.Sprintf("%s %d", ap.Addr().Unmap(), ap.Port())
}

func portOf(a net.Addr) int {
	if a == nil {
		return 0
	}
	ap, err := netip.ParseAddrPort(a.String())
	if err != nil {
		return 0
	}
	return int(ap.Port())
}

// Observer receives forwarding lifecycle events. ForwardStopped is called
// exactly once per Forward call, after ForwardStarted.
type Observer interface {
	ForwardStarted(f Flow)
	Transferred(f Flow, n int)
	ForwardStopped(f Flow, err error)
}

// Forward copies src to dst one chunk of at most BufferSize bytes at a time,
// writing each chunk before reading the next. It returns nil when src reaches
// end-of-stream, or the first read or write error.
func Forward(src io.Reader, dst io.Writer, f Flow, obs Observer) (err error) {
	obs.ForwardStarted(f)
	defer func() { obs.ForwardStopped(f, err) }()

	bp := buffers.Get()
	defer buffers.Put(bp)
	buf := *bp

	for {
		n, rerr := src.Read(buf)
		if n > 0 {
			if _, werr := dst.Write(buf[:n]); werr != nil {
				return werr
			}
			obs.Transferred(f, n)
		}
		if rerr != nil {
			if errors.Is(rerr, io.EOF) {
				return nil
			}
			return rerr
		}
	}
}

// expectedCloseErr reports whether err is the ordinary result of the peer or
// the other direction closing a socket.
func expectedCloseErr(err error) bool {
	return errors.Is(err, net.ErrClosed) ||
		errors.Is(err, io.ErrClosedPipe) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EPIPE)
}

type logObserver struct {
	log *logging.Logger
}

// NewLogObserver returns the default Observer: it logs each event and
// records forwarding metrics.
func NewLogObserver(log *logging.Logger) Observer {
	return &logObserver{log: log}
}

func (o *logObserver) ForwardStarted(f Flow) {
	ActiveForwards.WithLabelValues(f.Direction.String()).Inc()
	o.log.Infof("Starting forward %s", f)
}

func (o *logObserver) Transferred(f Flow, n int) {
	ForwardedBytes.WithLabelValues(f.Direction.String()).Add(float64(n))
	if o.log.Enabled(logging.Debug) {
		o.log.Debugf("%s %6d bytes %s", f.Direction.verb(), n, f)
	}
}

func (o *logObserver) ForwardStopped(f Flow, err error) {
	ActiveForwards.WithLabelValues(f.Direction.String()).Dec()
	switch {
	case err == nil:
	case expectedCloseErr(err):
		o.log.Debugf("(%d) %s socket closed: %v", f.ClientPort, f.Direction, err)
	default:
		ForwardErrors.WithLabelValues(f.Direction.String()).Inc()
		o.log.Warnf("(%d) %s socket failed", f.ClientPort, f.Direction)
		o.log.Debugf("(%d) %s socket failed: %v", f.ClientPort, f.Direction, err)
	}
	o.log.Infof("Stopped forward %s", f)
}
