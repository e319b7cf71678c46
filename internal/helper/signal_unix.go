//go:build unix

package helper

import (
	"os"

	"golang.org/x/sys/unix"
)

// terminate asks the helper to exit; Wait escalates to a kill after the
// grace period.
func terminate(p *os.Process) error {
	return p.Signal(unix.SIGTERM)
}
