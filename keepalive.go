package main

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"
)

// parseTCPKeepAlive accepts "on", "off", or "keepidle:keepintvl:keepcnt"
// with the first two in seconds.
func parseTCPKeepAlive(s string) (net.KeepAliveConfig, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	switch s {
	case "":
		return net.KeepAliveConfig{}, errors.New("empty")
	case "on":
		return net.KeepAliveConfig{Enable: true}, nil
	case "off":
		return net.KeepAliveConfig{Enable: false}, nil
	}

	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return net.KeepAliveConfig{}, errors.New("expected on|off|keepidle:keepintvl:keepcnt")
	}

	var vals [3]int
	for i, name := range []string{"keepidle", "keepintvl", "keepcnt"} {
		n, err := strconv.Atoi(strings.TrimSpace(parts[i]))
		if err != nil {
			return net.KeepAliveConfig{}, fmt.Errorf("%s: %w", name, err)
		}
		if n <= 0 {
			return net.KeepAliveConfig{}, fmt.Errorf("%s: must be > 0", name)
		}
		vals[i] = n
	}

	return net.KeepAliveConfig{
		Enable:   true,
		Idle:     time.Duration(vals[0]) * time.Second,
		Interval: time.Duration(vals[1]) * time.Second,
		Count:    vals[2],
	}, nil
}
