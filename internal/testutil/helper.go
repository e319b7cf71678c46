package testutil

import (
	"bytes"
	"context"
	"io"
	"net"
	"testing"

	"github.com/txthinking/socks5"
)

// StartFakeHelper serves a stand-in for obfs4proxy's SOCKS5 control
// interface. It demands username/password auth with the given username and a
// single NUL password byte, then dials each CONNECT target directly and relays.
func StartFakeHelper(t *testing.T, ctx context.Context, username string) net.Listener {
	t.Helper()

	lc := net.ListenConfig{}
	ln, err := lc.Listen(ctx, "tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	context.AfterFunc(ctx, func() { _ = ln.Close() })

	go func() {
		for {
			c, err := ln.Accept()
			if err != nil {
				return
			}
			go func() {
				defer c.Close()
				_ = serveFakeHelper(ctx, c, username)
			}()
		}
	}()

	return ln
}

func serveFakeHelper(ctx context.Context, c net.Conn, username string) error {
	if _, err := socks5.NewNegotiationRequestFrom(c); err != nil {
		return err
	}
	if _, err := socks5.NewNegotiationReply(socks5.MethodUsernamePassword).WriteTo(c); err != nil {
		return err
	}

	urq, err := socks5.NewUserPassNegotiationRequestFrom(c)
	if err != nil {
		return err
	}
	if string(urq.Uname) != username || !bytes.Equal(urq.Passwd, []byte{0x00}) {
		_, _ = socks5.NewUserPassNegotiationReply(socks5.UserPassStatusFailure).WriteTo(c)
		return nil
	}
	if _, err := socks5.NewUserPassNegotiationReply(socks5.UserPassStatusSuccess).WriteTo(c); err != nil {
		return err
	}

	req, err := socks5.NewRequestFrom(c)
	if err != nil {
		return err
	}
	if req.Cmd != socks5.CmdConnect {
		_, _ = socks5.NewReply(socks5.RepCommandNotSupported, socks5.ATYPIPv4, []byte{0x00, 0x00, 0x00, 0x00}, []byte{0x00, 0x00}).WriteTo(c)
		return nil
	}

	d := net.Dialer{}
	dst, err := d.DialContext(ctx, "tcp", req.Address())
	if err != nil {
		_, _ = socks5.NewReply(socks5.RepConnectionRefused, socks5.ATYPIPv4, []byte{0x00, 0x00, 0x00, 0x00}, []byte{0x00, 0x00}).WriteTo(c)
		return nil
	}
	defer dst.Close()

	a, addr, port, err := socks5.ParseAddress(dst.LocalAddr().String())
	if err != nil {
		return err
	}
	if a == socks5.ATYPDomain {
		addr = addr[1:]
	}
	if _, err := socks5.NewReply(socks5.RepSuccess, a, addr, port).WriteTo(c); err != nil {
		return err
	}

	go func() {
		_, _ = io.Copy(dst, c)
		if tc, ok := dst.(*net.TCPConn); ok {
			_ = tc.CloseWrite()
		}
	}()
	_, _ = io.Copy(c, dst)

	return nil
}
