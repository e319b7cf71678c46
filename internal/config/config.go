// Package config loads the obfs4shim properties file into an immutable,
// validated Config.
package config

import (
	"fmt"
	"maps"
	"net/netip"
	"strconv"
	"strings"

	"gopkg.in/ini.v1"

	"github.com/die-net/obfs4shim/internal/logging"
)

// Recognized keys.
const (
	KeyCert       = "cert"
	KeyIATMode    = "iat_mode"
	KeyRemote     = "remote"
	KeyRemotePort = "remote_port"
	KeyHelperDir  = "obfs4proxy_dir"
	KeyHelperCmd  = "obfs4proxy_cmd"
	KeyLocalPort  = "local_port"
	KeyDebugLevel = "debug_level"
)

// RequiredKeys must be present after merging.
var RequiredKeys = []string{
	KeyCert,
	KeyIATMode,
	KeyRemote,
	KeyRemotePort,
	KeyHelperDir,
	KeyHelperCmd,
}

// Defaults fill in optional keys missing from every other source.
var Defaults = map[string]string{
	KeyLocalPort:  "1080",
	KeyDebugLevel: "1",
}

// maxUsernameLen is exclusive; the SOCKS5 username length is a single byte.
const maxUsernameLen = 256

// Error reports a missing or invalid configuration key.
type Error struct {
	Key    string
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("config %s: %s", e.Key, e.Reason)
}

// Config is the merged, validated key/value configuration. It is safe for
// concurrent use; nothing mutates it after Load returns.
type Config struct {
	values map[string]string

	remote     netip.Addr
	remotePort uint16
	localPort  uint16
	debugLevel logging.Level
}

// Load reads the properties file at path and merges it over environ and
// Defaults. Values from the file win over environ, which wins over Defaults.
func Load(path string, environ map[string]string) (*Config, error) {
	f, err := ini.LoadSources(loadOptions, path)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return New(f.Section("").KeysHash(), environ)
}

// Parse is like Load but reads properties from data.
func Parse(data []byte, environ map[string]string) (*Config, error) {
	f, err := ini.LoadSources(loadOptions, data)
	if err != nil {
		return nil, fmt.Errorf("parse properties: %w", err)
	}
	return New(f.Section("").KeysHash(), environ)
}

// Properties files have no sections and treat ';' inside values literally.
var loadOptions = ini.LoadOptions{
	IgnoreInlineComment:     true,
	SkipUnrecognizableLines: true,
	KeyValueDelimiters:      "=:",
	PreserveSurroundedQuote: true,
}

// New merges base over environ and Defaults and validates the result.
func New(base, environ map[string]string) (*Config, error) {
	values := Merge(Merge(base, environ), Defaults)

	for _, key := range RequiredKeys {
		if _, ok := values[key]; !ok {
			return nil, &Error{Key: key, Reason: "missing required key"}
		}
	}

	c := &Config{values: values}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) validate() error {
	if n := len(c.Username()); n >= maxUsernameLen {
		return &Error{Key: KeyCert, Reason: fmt.Sprintf("cert;iat_mode is %d bytes, must be under %d", n, maxUsernameLen)}
	}

	remote, err := netip.ParseAddr(strings.TrimSpace(c.values[KeyRemote]))
	if err != nil || remote.Zone() != "" {
		return &Error{Key: KeyRemote, Reason: fmt.Sprintf("%q is not an IP address literal", c.values[KeyRemote])}
	}
	c.remote = remote.Unmap()

	if c.remotePort, err = parsePort(c.values[KeyRemotePort]); err != nil {
		return &Error{Key: KeyRemotePort, Reason: err.Error()}
	}
	if c.localPort, err = parsePort(c.values[KeyLocalPort]); err != nil {
		return &Error{Key: KeyLocalPort, Reason: err.Error()}
	}

	lvl, err := strconv.Atoi(strings.TrimSpace(c.values[KeyDebugLevel]))
	if err != nil || lvl < int(logging.Debug) || lvl > int(logging.Error) {
		return &Error{Key: KeyDebugLevel, Reason: fmt.Sprintf("%q is not a level between %d and %d", c.values[KeyDebugLevel], logging.Debug, logging.Error)}
	}
	c.debugLevel = logging.Level(lvl)

	if strings.TrimSpace(c.values[KeyHelperCmd]) == "" {
		return &Error{Key: KeyHelperCmd, Reason: "empty command"}
	}
	return nil
}

func parsePort(s string) (uint16, error) {
	n, err := strconv.ParseUint(strings.TrimSpace(s), 10, 16)
	if err != nil || n == 0 {
		return 0, fmt.Errorf("%q is not a port between 1 and 65535", s)
	}
	return uint16(n), nil
}

// Get returns the raw value for key, or "" if unset.
func (c *Config) Get(key string) string { return c.values[key] }

// Lookup returns the raw value for key and whether it was set.
func (c *Config) Lookup(key string) (string, bool) {
	v, ok := c.values[key]
	return v, ok
}

// Values returns a copy of every merged key/value pair.
func (c *Config) Values() map[string]string { return maps.Clone(c.values) }

func (c *Config) Cert() string      { return c.values[KeyCert] }
func (c *Config) IATMode() string   { return c.values[KeyIATMode] }
func (c *Config) HelperDir() string { return c.values[KeyHelperDir] }
func (c *Config) HelperCmd() string { return c.values[KeyHelperCmd] }

// Username is the SOCKS5 username carrying the transport credentials.
func (c *Config) Username() string { return c.Cert() + ";" + c.IATMode() }

// Remote is the obfs4 bridge address the helper is asked to CONNECT to.
func (c *Config) Remote() netip.AddrPort { return netip.AddrPortFrom(c.remote, c.remotePort) }

func (c *Config) LocalPort() uint16 { return c.localPort }

func (c *Config) DebugLevel() logging.Level { return c.debugLevel }
