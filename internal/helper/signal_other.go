//go:build !unix

package helper

import "os"

func terminate(p *os.Process) error {
	return p.Kill()
}
