// Package testutil holds loopback servers shared by obfs4shim tests.
package testutil

import (
	"context"
	"net"
	"sync"
	"testing"
)

// StartSingleAcceptServer accepts one connection and passes it to handler,
// closing it when handler returns. The returned wait func closes the listener
// and blocks until handler is done; it also runs at test cleanup.
func StartSingleAcceptServer(t *testing.T, ctx context.Context, handler func(net.Conn)) (net.Listener, func()) {
	t.Helper()

	lc := net.ListenConfig{}
	ln, err := lc.Listen(ctx, "tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	wg.Go(func() {
		c, err := ln.Accept()
		if err != nil {
			return
		}
		defer c.Close()
		handler(c)
	})

	var once sync.Once
	wait := func() {
		once.Do(func() {
			_ = ln.Close()
			wg.Wait()
		})
	}
	t.Cleanup(wait)

	return ln, wait
}
