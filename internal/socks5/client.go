package socks5

import (
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"net/netip"

	txsocks5 "github.com/txthinking/socks5"
)

const (
	socksVersion    = 0x05
	userPassVersion = 0x01
)

// nulPassword stands in for the empty password; the subnegotiation framing
// needs a non-empty field.
var nulPassword = []byte{0x00}

// Credentials are the obfs4 bridge parameters carried in the username.
type Credentials struct {
	Cert    string
	IATMode string
}

// Username is "cert;iat_mode".
func (c Credentials) Username() string { return c.Cert + ";" + c.IATMode }

// ClientHandshake negotiates username/password auth carrying creds and asks
// the helper to CONNECT to remote. On success conn is ready to carry the
// tunneled stream.
func ClientHandshake(conn net.Conn, creds Credentials, remote netip.AddrPort) error {
	if err := ClientNegotiate(conn, creds); err != nil {
		return err
	}
	return ClientConnect(conn, remote)
}

// ClientNegotiate performs method selection and the username/password
// subnegotiation.
func ClientNegotiate(conn net.Conn, creds Credentials) error {
	user := []byte(creds.Username())
	if len(user) > 0xff {
		return &HandshakeError{Stage: StageAuth, Reason: fmt.Sprintf("username is %d bytes, limit is 255", len(user))}
	}

	if _, err := txsocks5.NewNegotiationRequest([]byte{txsocks5.MethodUsernamePassword}).WriteTo(conn); err != nil {
		return &HandshakeError{Stage: StageMethod, Reason: "write request", Err: err}
	}

	neg, err := txsocks5.NewNegotiationReplyFrom(conn)
	if err != nil {
		return &HandshakeError{Stage: StageMethod, Reason: "read reply", Err: err}
	}
	if neg.Ver != socksVersion || neg.Method != txsocks5.MethodUsernamePassword {
		return &HandshakeError{Stage: StageMethod, Reason: "helper did not accept user/pass authentication method"}
	}

	if _, err := txsocks5.NewUserPassNegotiationRequest(user, nulPassword).WriteTo(conn); err != nil {
		return &HandshakeError{Stage: StageAuth, Reason: "write request", Err: err}
	}

	rep, err := txsocks5.NewUserPassNegotiationReplyFrom(conn)
	if err != nil {
		return &HandshakeError{Stage: StageAuth, Reason: "authentication failed", Err: err}
	}
	if rep.Ver != userPassVersion || rep.Status != txsocks5.UserPassStatusSuccess {
		return &HandshakeError{Stage: StageAuth, Reason: "authentication failed"}
	}
	return nil
}

// ClientConnect sends a CONNECT request for remote and consumes the reply.
// The bound address in the reply is discarded.
func ClientConnect(conn net.Conn, remote netip.AddrPort) error {
	addr := remote.Addr().Unmap()

	var atyp byte
	var dstAddr []byte
	switch {
	case addr.Is4():
		a := addr.As4()
		atyp, dstAddr = txsocks5.ATYPIPv4, a[:]
	case addr.Is6():
		a := addr.As16()
		atyp, dstAddr = txsocks5.ATYPIPv6, a[:]
	default:
		return &HandshakeError{Stage: StageConnect, Reason: fmt.Sprintf("unsupported remote address %v", remote)}
	}
	dstPort := binary.BigEndian.AppendUint16(nil, remote.Port())

	if _, err := txsocks5.NewRequest(txsocks5.CmdConnect, atyp, dstAddr, dstPort).WriteTo(conn); err != nil {
		return &HandshakeError{Stage: StageConnect, Reason: "write request", Err: err}
	}

	// VER REP RSV ATYP
	hdr := make([]byte, 4)
	if _, err := io.ReadFull(conn, hdr); err != nil {
		return &HandshakeError{Stage: StageConnect, Reason: "read reply", Err: err}
	}
	if rep := hdr[1]; rep != txsocks5.RepSuccess {
		return &HandshakeError{Stage: StageConnect, Reason: ReplyMessage(rep), Reply: rep}
	}

	var bound int64
	switch hdr[3] {
	case txsocks5.ATYPIPv4:
		bound = net.IPv4len + 2
	case txsocks5.ATYPIPv6:
		bound = net.IPv6len + 2
	default:
		return &HandshakeError{Stage: StageConnect, Reason: fmt.Sprintf("unsupported bound address type 0x%02x", hdr[3])}
	}
	if _, err := io.CopyN(io.Discard, conn, bound); err != nil {
		return &HandshakeError{Stage: StageConnect, Reason: "read bound address", Err: err}
	}
	return nil
}
