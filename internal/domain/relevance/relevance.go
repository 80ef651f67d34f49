// Package relevance holds the fulltext tuning applied to a search request.
package relevance

import (
	"fmt"
	"strings"
	"sync"
)

// FuzzinessConfig tunes fuzzy matching of misspelled text.
type FuzzinessConfig struct {
	Enabled       bool
	Value         string
	PrefixLength  int
	MaxExpansions int
}

// PhoneticConfig toggles phonetic matching.
type PhoneticConfig struct {
	Enabled bool
}

// SpanMatchConfig boosts documents whose fields start with the searched terms.
type SpanMatchConfig struct {
	Enabled bool
	Boost   float64
	Size    int
}

// Config is the relevance tuning of one scope.
type Config struct {
	MinimumShouldMatch string
	TieBreaker         float64
	PhraseMatchBoost   float64 // 0 disables the shingle phrase boost
	CutoffFrequency    float64
	Fuzziness          FuzzinessConfig
	Phonetic           PhoneticConfig
	SpanMatch          SpanMatchConfig
}

// Default returns the tuning used when nothing is configured.
func Default() Config {
	return Config{
		MinimumShouldMatch: "100%",
		TieBreaker:         1.0,
		CutoffFrequency:    0.15,
		Fuzziness: FuzzinessConfig{
			Enabled:       true,
			Value:         "AUTO",
			PrefixLength:  1,
			MaxExpansions: 10,
		},
		Phonetic:  PhoneticConfig{Enabled: true},
		SpanMatch: SpanMatchConfig{Boost: 10, Size: 10},
	}
}

// Validate checks ranges.
func (c Config) Validate() error {
	if c.MinimumShouldMatch == "" {
		return fmt.Errorf("minimum_should_match is required")
	}
	if c.TieBreaker < 0 || c.TieBreaker > 1 {
		return fmt.Errorf("tie_breaker must be between 0 and 1, got %v", c.TieBreaker)
	}
	if c.CutoffFrequency <= 0 || c.CutoffFrequency >= 1 {
		return fmt.Errorf("cutoff_frequency must be between 0 and 1 exclusive, got %v", c.CutoffFrequency)
	}
	if c.PhraseMatchBoost < 0 {
		return fmt.Errorf("phrase_match_boost must not be negative")
	}
	if c.Fuzziness.Enabled {
		if c.Fuzziness.Value == "" {
			return fmt.Errorf("fuzziness value is required when fuzziness is enabled")
		}
		if c.Fuzziness.PrefixLength < 0 || c.Fuzziness.MaxExpansions <= 0 {
			return fmt.Errorf("fuzziness prefix_length must be >= 0 and max_expansions > 0")
		}
	}
	if c.SpanMatch.Enabled && (c.SpanMatch.Boost <= 0 || c.SpanMatch.Size <= 0) {
		return fmt.Errorf("span_match boost and size must be positive")
	}
	return nil
}

// Scope selects the configuration of a catalog and request type. Empty parts are wildcards.
type Scope struct {
	Catalog     string
	RequestType string
}

func (s Scope) String() string {
	return strings.Join([]string{orAny(s.Catalog), orAny(s.RequestType)}, "/")
}

func orAny(s string) string {
	if s == "" {
		return "*"
	}
	return s
}

// Resolver picks the most specific configuration of a scope:
// catalog+type, then catalog, then type, then the default.
type Resolver struct {
	mu      sync.RWMutex
	def     Config
	byScope map[Scope]Config
}

// NewResolver creates a resolver falling back to def.
func NewResolver(def Config) *Resolver {
	return &Resolver{def: def, byScope: make(map[Scope]Config)}
}

// Set registers the configuration of a scope.
func (r *Resolver) Set(scope Scope, cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("relevance %s: %w", scope, err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if scope == (Scope{}) {
		r.def = cfg
		return nil
	}
	r.byScope[scope] = cfg
	return nil
}

// Resolve returns the configuration of catalog and request type.
func (r *Resolver) Resolve(catalog, requestType string) Config {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, s := range []Scope{
		{Catalog: catalog, RequestType: requestType},
		{Catalog: catalog},
		{RequestType: requestType},
	} {
		if s == (Scope{}) {
			continue
		}
		if cfg, ok := r.byScope[s]; ok {
			return cfg
		}
	}
	return r.def
}
