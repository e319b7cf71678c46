package helper

import (
	"sort"

	"github.com/die-net/obfs4shim/internal/config"
)

const (
	// EnvStateLocation tells the helper where to keep its state.
	EnvStateLocation = "TOR_PT_STATE_LOCATION"
	// EnvConfigPath names the shim's own properties file.
	EnvConfigPath = "OBFS4SHIM_CONFIG_PATH"
)

// DefaultEnv holds the managed pluggable transport variables the helper
// needs, plus the shim's config path default.
var DefaultEnv = map[string]string{
	"TOR_PT_MANAGED_TRANSPORT_VER": "1",
	"TOR_PT_CLIENT_TRANSPORTS":     "obfs4",
	EnvConfigPath:                  "obfs4shim.properties",
}

// Environ merges the ambient environment over DefaultEnv. Ambient values win.
func Environ(ambient map[string]string) map[string]string {
	return config.Merge(ambient, DefaultEnv)
}

// WithStateLocation returns env with TOR_PT_STATE_LOCATION set to dir unless
// it is already present.
func WithStateLocation(env map[string]string, dir string) map[string]string {
	return config.Merge(env, map[string]string{EnvStateLocation: dir})
}

func envList(env map[string]string) []string {
	list := make([]string, 0, len(env))
	for k, v := range env {
		list = append(list, k+"="+v)
	}
	sort.Strings(list)
	return list
}
