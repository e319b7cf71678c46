package config

import (
	"maps"
	"strings"
)

// Merge returns a copy of dst with every entry of src whose key dst lacks.
// Entries already in dst win.
func Merge(dst, src map[string]string) map[string]string {
	out := make(map[string]string, len(dst)+len(src))
	maps.Copy(out, dst)
	for k, v := range src {
		if _, ok := out[k]; !ok {
			out[k] = v
		}
	}
	return out
}

// Environ converts os.Environ-style "KEY=value" entries into a map. Entries
// without "=" are ignored; later duplicates win, as with os.Getenv.
func Environ(entries []string) map[string]string {
	env := make(map[string]string, len(entries))
	for _, e := range entries {
		k, v, ok := strings.Cut(e, "=")
		if !ok || k == "" {
			continue
		}
		env[k] = v
	}
	return env
}
