// Package proxy implements the obfs4shim listener: it accepts local TCP
// connections, opens a matching upstream connection through the helper's
// SOCKS5 control port, and relays bytes in both directions.
//
// Each direction of a session runs on its own goroutine and owns its half of
// the teardown; nothing joins them.
package proxy
