package helper

import (
	"errors"
	"fmt"
)

// ErrNoAnnouncement means the helper's stdout ended before it announced its
// SOCKS5 control port.
var ErrNoAnnouncement = errors.New("no obfs4 socks5 CMETHOD line announced")

// LaunchError means the helper binary could not be started.
type LaunchError struct {
	Command string
	Err     error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("launch helper %q: %v", e.Command, e.Err)
}

func (e *LaunchError) Unwrap() error { return e.Err }

// PortDiscoveryError means no usable control port was announced.
type PortDiscoveryError struct {
	Err error
}

func (e *PortDiscoveryError) Error() string {
	return fmt.Sprintf("helper port discovery: %v", e.Err)
}

func (e *PortDiscoveryError) Unwrap() error { return e.Err }

// DrainError means forwarding the helper's output failed after discovery.
// The helper has been killed by the time it is returned.
type DrainError struct {
	Err error
}

func (e *DrainError) Error() string {
	return fmt.Sprintf("helper output drain: %v", e.Err)
}

func (e *DrainError) Unwrap() error { return e.Err }
