// Package registry maintains the model alias table: the mapping from the
// model identifiers clients send to the model identifiers the upstream
// understands. The table is built once from the built-in defaults plus the
// configuration file and is read-only afterwards; a config reload builds a
// fresh Registry rather than mutating an existing one.
package registry

import (
	"sort"
	"strings"
)

// Upstream model identifiers for the three capability tiers used by the
// heuristic fallback and the built-in alias table.
const (
	LargeTierModel = "llama-3.1-405b-instruct"
	MidTierModel   = "llama-3.1-70b-instruct"
	SmallTierModel = "llama-3.1-8b-instruct"
)

// defaultAliases is the built-in alias table. Config entries extend or
// override it.
func defaultAliases() map[string]string {
	return map[string]string{
		"gpt-4":             LargeTierModel,
		"gpt-4o":            LargeTierModel,
		"gpt-4-turbo":       LargeTierModel,
		"claude-3-opus":     LargeTierModel,
		"gpt-4o-mini":       MidTierModel,
		"claude-3-sonnet":   MidTierModel,
		"claude-3-5-sonnet": MidTierModel,
		"gemini-1.5-pro":    MidTierModel,
		"gpt-3.5-turbo":     SmallTierModel,
		"claude-3-haiku":    SmallTierModel,
	}
}

// Registry holds the immutable alias table.
type Registry struct {
	aliases map[string]string
}

// NewRegistry builds a registry from the built-in table merged with the given
// overrides. The overrides win on conflict.
func NewRegistry(overrides map[string]string) *Registry {
	aliases := defaultAliases()
	for alias, upstream := range overrides {
		if alias == "" || upstream == "" {
			continue
		}
		aliases[alias] = upstream
	}
	return &Registry{aliases: aliases}
}

// Lookup returns the upstream model for an inbound alias, if present.
func (r *Registry) Lookup(alias string) (string, bool) {
	upstream, ok := r.aliases[alias]
	return upstream, ok
}

// Aliases returns the inbound model identifiers in sorted order. This backs
// the /v1/models listing.
func (r *Registry) Aliases() []string {
	out := make([]string, 0, len(r.aliases))
	for alias := range r.aliases {
		out = append(out, alias)
	}
	sort.Strings(out)
	return out
}

// TierForModel maps an unknown inbound model identifier to an upstream model
// by case-insensitive substring matching. Identifiers that look like a top
// tier request map to the large model, recognizable mid-tier names map to the
// mid model, and everything else falls back to the small model.
func TierForModel(model string) string {
	lower := strings.ToLower(model)
	switch {
	case strings.Contains(lower, "gpt-4"),
		strings.Contains(lower, "claude-opus"),
		strings.Contains(lower, "405b"):
		return LargeTierModel
	case strings.Contains(lower, "claude"),
		strings.Contains(lower, "gemini"),
		strings.Contains(lower, "70b"):
		return MidTierModel
	default:
		return SmallTierModel
	}
}
