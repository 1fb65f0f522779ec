package registry

import (
	"context"

	log "github.com/sirupsen/logrus"
)

// ProbeFunc reports whether the upstream accepts the given model identifier
// verbatim. Implementations must swallow their own errors: a failed or
// unavailable probe is simply reported as false.
type ProbeFunc func(ctx context.Context, model string) bool

// Resolver turns inbound model identifiers into upstream model identifiers.
// Resolution never fails: a table miss falls through to a live capability
// probe, and a failed probe falls through to the tier heuristic.
type Resolver struct {
	registry *Registry
	probe    ProbeFunc
}

// NewResolver creates a resolver over the given alias table. probe may be nil,
// in which case unknown models go straight to the heuristic.
func NewResolver(registry *Registry, probe ProbeFunc) *Resolver {
	return &Resolver{registry: registry, probe: probe}
}

// Resolve maps an inbound model identifier to an upstream one. Table hits are
// returned directly without probing.
func (r *Resolver) Resolve(ctx context.Context, model string) string {
	if upstream, ok := r.registry.Lookup(model); ok {
		return upstream
	}

	if r.probe != nil && r.probe(ctx, model) {
		log.Debugf("model %q accepted by upstream probe, passing through", model)
		return model
	}

	upstream := TierForModel(model)
	log.Debugf("model %q resolved to %q by tier heuristic", model, upstream)
	return upstream
}
