// Package dialer provides the outbound dialer obfs4shim uses to reach the
// helper's SOCKS5 control port.
//
// Dialers implement a small interface (DialContext) so tests and the proxy
// listener can swap in their own.
package dialer
