// Package token resolves the Legistar API token for a city from the
// supported sources in precedence order. Resolution is policy-free: it
// never checks whether the city actually requires a token, so it can be
// tested without registry access.
package token

import (
	"os"
	"strings"
)

// EnvPrefix is prepended to the uppercased city code to form the
// per-city environment variable, e.g. LEGISTAR_TOKEN_NYC.
const EnvPrefix = "LEGISTAR_TOKEN_"

// Source identifies where a token value came from.
type Source string

const (
	SourceCLI    Source = "cli-argument"
	SourceEnv    Source = "environment-variable"
	SourceConfig Source = "config-file"
	SourceNone   Source = "none"
)

// Resolved is the outcome of token resolution. Value may be empty, in
// which case Source is SourceNone.
type Resolved struct {
	Value  string
	Source Source
}

// EnvVar returns the environment variable consulted for a city code.
func EnvVar(cityCode string) string {
	return EnvPrefix + strings.ToUpper(strings.TrimSpace(cityCode))
}

// Resolve picks the token for a city. Precedence, highest first:
// explicit CLI argument, per-city environment variable, city entry in
// the configured token map. Sources are tried in order and the first
// non-empty value wins.
func Resolve(cityCode, cliToken string, configured map[string]string) Resolved {
	code := strings.ToLower(strings.TrimSpace(cityCode))

	lookups := []struct {
		source Source
		fn     func() string
	}{
		{SourceCLI, func() string { return cliToken }},
		{SourceEnv, func() string { return os.Getenv(EnvVar(code)) }},
		{SourceConfig, func() string { return configured[code] }},
	}

	for _, l := range lookups {
		if v := strings.TrimSpace(l.fn()); v != "" {
			return Resolved{Value: v, Source: l.source}
		}
	}
	return Resolved{Source: SourceNone}
}
