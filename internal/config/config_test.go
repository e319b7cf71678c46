package config

import (
	"errors"
	"maps"
	"net/netip"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/die-net/obfs4shim/internal/logging"
)

func validBase() map[string]string {
	return map[string]string{
		KeyCert:       "AAAAcertBBBB",
		KeyIATMode:    "0",
		KeyRemote:     "192.0.2.10",
		KeyRemotePort: "443",
		KeyHelperDir:  "/var/lib/obfs4",
		KeyHelperCmd:  "/usr/bin/obfs4proxy -enableLogging",
	}
}

func TestNewMissingRequiredKey(t *testing.T) {
	for _, key := range RequiredKeys {
		t.Run(key, func(t *testing.T) {
			base := validBase()
			delete(base, key)

			_, err := New(base, nil)
			var cerr *Error
			if !errors.As(err, &cerr) {
				t.Fatalf("expected *Error, got %v", err)
			}
			if cerr.Key != key {
				t.Fatalf("expected key %q, got %q", key, cerr.Key)
			}
		})
	}
}

func TestNewDefaults(t *testing.T) {
	c, err := New(validBase(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if got := c.Get(KeyLocalPort); got != "1080" {
		t.Fatalf("local_port = %q", got)
	}
	if c.LocalPort() != 1080 {
		t.Fatalf("LocalPort() = %d", c.LocalPort())
	}
	if c.DebugLevel() != logging.Info {
		t.Fatalf("DebugLevel() = %v", c.DebugLevel())
	}

	base := validBase()
	base[KeyLocalPort] = "9050"
	base[KeyDebugLevel] = "0"
	c, err = New(base, nil)
	if err != nil {
		t.Fatal(err)
	}
	if c.LocalPort() != 9050 || c.DebugLevel() != logging.Debug {
		t.Fatalf("explicit values overridden: port=%d level=%v", c.LocalPort(), c.DebugLevel())
	}
}

func TestNewPrecedence(t *testing.T) {
	base := validBase()
	env := map[string]string{
		KeyRemotePort: "8443",
		KeyLocalPort:  "2080",
		"HOME":        "/root",
	}

	c, err := New(base, env)
	if err != nil {
		t.Fatal(err)
	}
	if c.Remote().Port() != 443 {
		t.Fatalf("file value should win, got %d", c.Remote().Port())
	}
	if c.LocalPort() != 2080 {
		t.Fatalf("environment should beat defaults, got %d", c.LocalPort())
	}
	if v, ok := c.Lookup("HOME"); !ok || v != "/root" {
		t.Fatalf("HOME = %q, %v", v, ok)
	}
}

func TestNewValidation(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{name: "long_username", key: KeyCert, val: strings.Repeat("c", 254)},
		{name: "remote_hostname", key: KeyRemote, val: "bridge.example.com"},
		{name: "remote_port_zero", key: KeyRemotePort, val: "0"},
		{name: "remote_port_large", key: KeyRemotePort, val: "65536"},
		{name: "remote_port_text", key: KeyRemotePort, val: "https"},
		{name: "local_port_large", key: KeyLocalPort, val: "70000"},
		{name: "debug_level_high", key: KeyDebugLevel, val: "4"},
		{name: "debug_level_text", key: KeyDebugLevel, val: "verbose"},
		{name: "empty_command", key: KeyHelperCmd, val: "  "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base := validBase()
			base[tt.key] = tt.val

			_, err := New(base, nil)
			var cerr *Error
			if !errors.As(err, &cerr) {
				t.Fatalf("expected *Error, got %v", err)
			}
			if cerr.Key != tt.key {
				t.Fatalf("expected key %q, got %q (%v)", tt.key, cerr.Key, err)
			}
		})
	}
}

func TestUsernameBoundary(t *testing.T) {
	base := validBase()
	base[KeyIATMode] = "1"
	base[KeyCert] = strings.Repeat("c", 253) // 253 + ";" + "1" = 255
	c, err := New(base, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(c.Username()) != 255 {
		t.Fatalf("username length %d", len(c.Username()))
	}
}

func TestRemoteAddress(t *testing.T) {
	tests := []struct {
		remote string
		want   netip.AddrPort
	}{
		{remote: "192.0.2.10", want: netip.MustParseAddrPort("192.0.2.10:443")},
		{remote: "2001:db8::1", want: netip.MustParseAddrPort("[2001:db8::1]:443")},
		{remote: "::ffff:192.0.2.10", want: netip.MustParseAddrPort("192.0.2.10:443")},
	}

	for _, tt := range tests {
		t.Run(tt.remote, func(t *testing.T) {
			base := validBase()
			base[KeyRemote] = tt.remote
			c, err := New(base, nil)
			if err != nil {
				t.Fatal(err)
			}
			if c.Remote() != tt.want {
				t.Fatalf("Remote() = %v, want %v", c.Remote(), tt.want)
			}
		})
	}
}

func TestLoadPropertiesFile(t *testing.T) {
	props := `# obfs4shim settings
; legacy comment
cert=ssH+9rP8dG2NLDN2XuFw63hIO/9MNNinLmxQDpVa+7kTOa9/m+tGWT1SmSYpQ9uTBGa6Hw
iat_mode = 0
remote: 192.0.2.10
remote_port=443
obfs4proxy_dir=/var/lib/obfs4
obfs4proxy_cmd=/usr/bin/obfs4proxy -enableLogging
debug_level=2
`
	path := filepath.Join(t.TempDir(), "obfs4shim.properties")
	if err := os.WriteFile(path, []byte(props), 0o600); err != nil {
		t.Fatal(err)
	}

	c, err := Load(path, map[string]string{KeyLocalPort: "1999"})
	if err != nil {
		t.Fatal(err)
	}
	if want := "ssH+9rP8dG2NLDN2XuFw63hIO/9MNNinLmxQDpVa+7kTOa9/m+tGWT1SmSYpQ9uTBGa6Hw;0"; c.Username() != want {
		t.Fatalf("Username() = %q", c.Username())
	}
	if c.Remote() != netip.MustParseAddrPort("192.0.2.10:443") {
		t.Fatalf("Remote() = %v", c.Remote())
	}
	if c.HelperCmd() != "/usr/bin/obfs4proxy -enableLogging" {
		t.Fatalf("HelperCmd() = %q", c.HelperCmd())
	}
	if c.DebugLevel() != logging.Warn || c.LocalPort() != 1999 {
		t.Fatalf("level=%v port=%d", c.DebugLevel(), c.LocalPort())
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.properties"), nil); err == nil {
		t.Fatal("expected error")
	}
}

func TestValuesIsCopy(t *testing.T) {
	c, err := New(validBase(), nil)
	if err != nil {
		t.Fatal(err)
	}
	v := c.Values()
	v[KeyCert] = "tampered"
	if c.Cert() == "tampered" {
		t.Fatal("Values() exposed internal map")
	}
}

func TestMerge(t *testing.T) {
	dst := map[string]string{"a": "1"}
	got := Merge(dst, map[string]string{"a": "2", "b": "3"})
	if want := map[string]string{"a": "1", "b": "3"}; !maps.Equal(got, want) {
		t.Fatalf("Merge = %v", got)
	}
	if len(dst) != 1 {
		t.Fatal("Merge modified dst")
	}
}

func TestEnviron(t *testing.T) {
	got := Environ([]string{"A=1", "B=x=y", "NOEQUALS", "=hidden", "A=2"})
	if want := map[string]string{"A": "2", "B": "x=y"}; !maps.Equal(got, want) {
		t.Fatalf("Environ = %v", got)
	}
}
