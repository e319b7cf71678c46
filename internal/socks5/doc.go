// Package socks5 drives the client side of obfs4proxy's SOCKS5 control
// dialect.
//
// It wraps the low-level protocol types in github.com/txthinking/socks5. The
// dialect is narrow: the only method offered is username/password, the
// username smuggles the obfs4 bridge credentials ("cert;iat_mode"), the
// password is a single NUL byte, and the only command is CONNECT to an IPv4 or
// IPv6 literal.
//
// This package is not a general SOCKS5 client.
package socks5
