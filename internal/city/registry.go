package city

import (
	"fmt"
	"sort"
	"strings"
)

// Config describes one Legistar deployment. The registry is fixed data
// known at build time; lookups never touch the network or disk.
type Config struct {
	Code          string `yaml:"code"`
	DisplayName   string `yaml:"display_name"`
	BaseURL       string `yaml:"base_url"`
	TokenRequired bool   `yaml:"token_required"`
}

// UnknownCityError is returned when a code has no registered deployment.
// Supported carries the full list of valid codes for user-facing hints.
type UnknownCityError struct {
	Code      string
	Supported []string
}

func (e *UnknownCityError) Error() string {
	return fmt.Sprintf("unknown city %q (supported: %s)", e.Code, strings.Join(e.Supported, ", "))
}

// Registry maps city codes to their Legistar deployment configs.
type Registry struct {
	cities map[string]Config
	order  []string // insertion order for deterministic listing
}

// builtin is the set of deployments shipped with the binary. Every entry
// must have a non-empty BaseURL; NewRegistry panics otherwise since a
// bad entry is a programming error, not an operator error.
var builtin = []Config{
	{Code: "sanfrancisco", DisplayName: "San Francisco", BaseURL: "https://webapi.legistar.com/v1/sanfrancisco", TokenRequired: false},
	{Code: "nyc", DisplayName: "New York City", BaseURL: "https://webapi.legistar.com/v1/nyc", TokenRequired: true},
	{Code: "chicago", DisplayName: "Chicago", BaseURL: "https://webapi.legistar.com/v1/chicago", TokenRequired: false},
	{Code: "seattle", DisplayName: "Seattle", BaseURL: "https://webapi.legistar.com/v1/seattle", TokenRequired: false},
	{Code: "oakland", DisplayName: "Oakland", BaseURL: "https://webapi.legistar.com/v1/oakland", TokenRequired: false},
	{Code: "longbeach", DisplayName: "Long Beach", BaseURL: "https://webapi.legistar.com/v1/longbeach", TokenRequired: false},
	{Code: "mountainview", DisplayName: "Mountain View", BaseURL: "https://webapi.legistar.com/v1/mountainview", TokenRequired: false},
	{Code: "solano", DisplayName: "Solano County", BaseURL: "https://webapi.legistar.com/v1/solano", TokenRequired: false},
}

// NewRegistry creates a registry populated with the built-in deployments.
func NewRegistry() *Registry {
	r := &Registry{cities: make(map[string]Config)}
	for _, c := range builtin {
		r.register(c)
	}
	return r
}

func (r *Registry) register(c Config) {
	if c.Code == "" || c.BaseURL == "" {
		panic(fmt.Sprintf("city: invalid registry entry %+v", c))
	}
	code := strings.ToLower(c.Code)
	if _, exists := r.cities[code]; !exists {
		r.order = append(r.order, code)
	}
	c.Code = code
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	r.cities[code] = c
}

// Lookup returns the deployment config for a code. Matching is
// case-insensitive.
func (r *Registry) Lookup(code string) (Config, error) {
	c, ok := r.cities[strings.ToLower(strings.TrimSpace(code))]
	if !ok {
		return Config{}, &UnknownCityError{Code: code, Supported: r.Codes()}
	}
	return c, nil
}

// Codes returns all registered city codes, sorted.
func (r *Registry) Codes() []string {
	out := make([]string, 0, len(r.cities))
	for code := range r.cities {
		out = append(out, code)
	}
	sort.Strings(out)
	return out
}

// All returns all deployment configs in registration order.
func (r *Registry) All() []Config {
	out := make([]Config, 0, len(r.order))
	for _, code := range r.order {
		out = append(out, r.cities[code])
	}
	return out
}
