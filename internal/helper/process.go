package helper

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/netip"
	"os"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/die-net/obfs4shim/internal/logging"
)

var cmethodPattern = regexp.MustCompile(`^CMETHOD obfs4 socks5 127\.0\.0\.1:(\d+)$`)

// DefaultStopGrace is how long a helper gets to exit after SIGTERM.
const DefaultStopGrace = 5 * time.Second

// Options controls where the helper's output goes.
type Options struct {
	// Stdout receives every helper stdout line verbatim. Defaults to os.Stdout.
	Stdout io.Writer
	// Stderr is handed to the helper as its stderr. Defaults to os.Stderr.
	Stderr io.Writer
	// StopGrace bounds the wait after SIGTERM when ctx is canceled.
	StopGrace time.Duration

	Logger *logging.Logger
}

// Process is a running helper whose control port has been discovered.
type Process struct {
	cmd    *exec.Cmd
	ctx    context.Context
	port   uint16
	stdout *bufio.Reader
	echo   io.Writer
	log    *logging.Logger
}

// Start launches command, split on whitespace, with exactly the variables in
// env, and blocks until the helper announces its control port. Canceling ctx
// stops the helper.
func Start(ctx context.Context, command string, env map[string]string, opts Options) (*Process, error) {
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	if opts.StopGrace <= 0 {
		opts.StopGrace = DefaultStopGrace
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}

	args := strings.Fields(command)
	if len(args) == 0 {
		return nil, &LaunchError{Command: command, Err: errors.New("empty command")}
	}

	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Env = envList(env)
	cmd.Stderr = opts.Stderr
	cmd.Cancel = func() error { return terminate(cmd.Process) }
	cmd.WaitDelay = opts.StopGrace

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, &LaunchError{Command: command, Err: err}
	}
	if err := cmd.Start(); err != nil {
		return nil, &LaunchError{Command: command, Err: err}
	}
	opts.Logger.Debugf("helper started with pid %d", cmd.Process.Pid)

	p := &Process{
		cmd:    cmd,
		ctx:    ctx,
		stdout: bufio.NewReader(stdout),
		echo:   opts.Stdout,
		log:    opts.Logger,
	}

	port, err := p.awaitPort()
	if err != nil {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
		return nil, err
	}
	p.port = port

	return p, nil
}

func (p *Process) awaitPort() (uint16, error) {
	for {
		line, err := p.stdout.ReadString('\n')
		if line != "" {
			if _, werr := io.WriteString(p.echo, line); werr != nil {
				return 0, &PortDiscoveryError{Err: fmt.Errorf("echo: %w", werr)}
			}
			if m := cmethodPattern.FindStringSubmatch(strings.TrimRight(line, "\r\n")); m != nil {
				port, perr := strconv.ParseUint(m[1], 10, 16)
				if perr != nil || port == 0 {
					return 0, &PortDiscoveryError{Err: fmt.Errorf("announced port %s out of range", m[1])}
				}
				return uint16(port), nil
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return 0, &PortDiscoveryError{Err: ErrNoAnnouncement}
			}
			return 0, &PortDiscoveryError{Err: err}
		}
	}
}

// Port is the announced SOCKS5 control port.
func (p *Process) Port() uint16 { return p.port }

// ControlAddr is the loopback address of the helper's SOCKS5 interface.
func (p *Process) ControlAddr() netip.AddrPort {
	return netip.AddrPortFrom(netip.AddrFrom4([4]byte{127, 0, 0, 1}), p.port)
}

// Pid is the helper's process ID.
func (p *Process) Pid() int { return p.cmd.Process.Pid }

// Drain copies the rest of the helper's stdout until it closes, then reaps
// the helper. Ordinary closure returns nil even if the helper exited with an
// error. Any other failure kills the helper and returns a *DrainError.
func (p *Process) Drain() error {
	_, err := io.Copy(p.echo, p.stdout)
	if err != nil && !errors.Is(err, os.ErrClosed) {
		_ = p.cmd.Process.Kill()
		_ = p.cmd.Wait()
		return &DrainError{Err: err}
	}

	werr := p.cmd.Wait()
	switch {
	case p.ctx.Err() != nil:
		p.log.Debugf("helper stopped: %v", werr)
	case werr != nil:
		p.log.Warnf("helper exited: %v", werr)
	default:
		p.log.Warnf("helper exited")
	}
	return nil
}
