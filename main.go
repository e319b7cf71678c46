package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	_ "net/http/pprof" //nolint:gosec // Intentionally exposed on debug port.
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/die-net/obfs4shim/internal/config"
	"github.com/die-net/obfs4shim/internal/dialer"
	"github.com/die-net/obfs4shim/internal/helper"
	"github.com/die-net/obfs4shim/internal/logging"
	"github.com/die-net/obfs4shim/internal/proxy"
	"github.com/die-net/obfs4shim/internal/socks5"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath = pflag.String("config", "", "Path to the properties file (default $OBFS4SHIM_CONFIG_PATH, else obfs4shim.properties)")

		debugListen        = pflag.String("debug-listen", "", "Debug HTTP listen address exposing /debug/pprof and /metrics (e.g. 127.0.0.1:6060). Empty disables.")
		dialTimeout        = pflag.Duration("dial-timeout", 10*time.Second, "Timeout for connecting to the helper's control port (0 disables)")
		negotiationTimeout = pflag.Duration("negotiation-timeout", 30*time.Second, "Timeout for the SOCKS5 handshake with the helper (0 disables)")
		helperStopGrace    = pflag.Duration("helper-stop-grace", helper.DefaultStopGrace, "Time the helper gets to exit after SIGTERM before it is killed")
		tcpKeepAlive       = pflag.String("tcp-keepalive", "45:45:3", "TCP keepalive: on|off|keepidle:keepintvl:keepcnt")
	)

	pflag.CommandLine.SortFlags = false
	pflag.Parse()

	ka, err := parseTCPKeepAlive(*tcpKeepAlive)
	if err != nil {
		return fmt.Errorf("invalid --tcp-keepalive: %w", err)
	}

	env := helper.Environ(config.Environ(os.Environ()))
	path := *configPath
	if path == "" {
		path = env[helper.EnvConfigPath]
	}

	cfg, err := config.Load(path, env)
	if err != nil {
		return err
	}

	logger := logging.New(os.Stderr, cfg.DebugLevel())
	logger.Infof("Loaded configuration: %s", path)

	g, ctx := errgroup.WithContext(context.Background())

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	env = helper.WithStateLocation(env, cfg.HelperDir())
	logger.Infof("Starting obfs4proxy: %s", cfg.HelperCmd())
	logger.Infof("%s: %s", helper.EnvStateLocation, env[helper.EnvStateLocation])

	proc, err := helper.Start(ctx, cfg.HelperCmd(), env, helper.Options{
		Logger:    logger,
		StopGrace: *helperStopGrace,
	})
	if err != nil {
		return err
	}
	logger.Infof("Started obfs4proxy; port %d", proc.Port())

	g.Go(func() error {
		if err := proc.Drain(); err != nil {
			logger.Errorf("%v", err)
			return err
		}
		return nil
	})

	if *debugListen != "" {
		http.Handle("/metrics", promhttp.Handler())
		debugSrv := &http.Server{Handler: http.DefaultServeMux} //nolint:gosec // Not concerned about timeouts on debug port.
		lc := net.ListenConfig{KeepAliveConfig: ka}
		debugLn, err := lc.Listen(ctx, "tcp", *debugListen)
		if err != nil {
			stop()
			_ = g.Wait()
			return fmt.Errorf("debug listen: %w", err)
		}
		context.AfterFunc(ctx, func() {
			_ = debugSrv.Close()
			_ = debugLn.Close()
		})

		g.Go(func() error {
			if err := debugSrv.Serve(debugLn); err != nil {
				return fmt.Errorf("debug serve: %w", err)
			}
			return nil
		})
		logger.Infof("debug listening on %s", *debugListen)
	}

	ln, err := proxy.ListenLoopback(cfg.LocalPort(), ka)
	if err != nil {
		stop()
		_ = g.Wait()
		return err
	}
	context.AfterFunc(ctx, func() {
		_ = ln.Close()
	})

	srv := proxy.NewServer(ctx, proxy.Config{
		Upstream: &socks5.Client{
			Dialer: dialer.NewDirectDialer(dialer.Config{
				DialTimeout: *dialTimeout,
				KeepAlive:   ka,
			}),
			ControlAddr:        proc.ControlAddr(),
			Credentials:        socks5.Credentials{Cert: cfg.Cert(), IATMode: cfg.IATMode()},
			Remote:             cfg.Remote(),
			NegotiationTimeout: *negotiationTimeout,
		},
		Logger: logger,
	})

	g.Go(func() error {
		if err := srv.Serve(ln); err != nil {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})
	logger.Infof("Listening on port %d", cfg.LocalPort())

	err = g.Wait()
	if errors.Is(err, http.ErrServerClosed) {
		err = nil
	}

	logger.Infof("shutting down")
	return err
}
