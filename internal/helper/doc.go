// Package helper supervises the obfs4proxy helper process.
//
// Start launches the helper with a fully controlled environment and scans its
// stdout for the managed-transport announcement
//
//	CMETHOD obfs4 socks5 127.0.0.1:<port>
//
// echoing every line to the shim's own stdout so that whatever launched the
// shim still sees the helper's bootstrap protocol. Once the control port is
// known, Drain keeps forwarding the rest of the helper's output for the life of
// the process; it must be running, otherwise the helper blocks on a full pipe.
package helper
