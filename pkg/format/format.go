// Package format renders SigNoz query results as plain text for MCP tool
// responses. Every function is pure: the same input always yields the same
// output.
package format

import "sort"

// DefaultHiddenKeys are attributes already shown in a log header line and
// therefore left out of verbose attribute listings.
var DefaultHiddenKeys = []string{
	"body",
	"level",
	"severity_text",
	"service.name",
	"k8s.deployment.name",
	"k8s.namespace.name",
}

// Config is immutable once built.
type Config struct {
	hidden map[string]struct{}
}

// NewConfig builds a Config that hides the given keys in verbose mode.
func NewConfig(hiddenKeys ...string) Config {
	hidden := make(map[string]struct{}, len(hiddenKeys))
	for _, k := range hiddenKeys {
		hidden[k] = struct{}{}
	}
	return Config{hidden: hidden}
}

// IsHidden reports whether key is suppressed in verbose log output.
func (c Config) IsHidden(key string) bool {
	_, ok := c.hidden[key]
	return ok
}

// Formatter renders query results. It is safe for concurrent use.
type Formatter struct {
	cfg Config
}

// New returns a Formatter using cfg.
func New(cfg Config) *Formatter {
	return &Formatter{cfg: cfg}
}

// Default returns a Formatter hiding DefaultHiddenKeys.
func Default() *Formatter {
	return New(NewConfig(DefaultHiddenKeys...))
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
