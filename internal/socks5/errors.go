package socks5

import (
	"errors"
	"fmt"
)

// ErrConnectionRefused means nothing is listening on the helper's control
// port.
var ErrConnectionRefused = errors.New("helper control port refused connection")

// Stage names the handshake step that failed.
type Stage string

const (
	StageDial    Stage = "dial"
	StageMethod  Stage = "method"
	StageAuth    Stage = "auth"
	StageConnect Stage = "connect"
)

// HandshakeError reports a failed negotiation with the helper. Reason is a
// human-readable description; for a rejected CONNECT it is the reply code's
// message and Reply holds the code.
type HandshakeError struct {
	Stage  Stage
	Reason string
	Reply  byte
	Err    error
}

func (e *HandshakeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("socks5 %s: %s: %v", e.Stage, e.Reason, e.Err)
	}
	return fmt.Sprintf("socks5 %s: %s", e.Stage, e.Reason)
}

func (e *HandshakeError) Unwrap() error { return e.Err }
