// Package handlers provides the shared handler state and error envelope for
// the API endpoints. The state is a single snapshot of the configuration and
// the components derived from it; the config watcher swaps the snapshot
// atomically between requests.
package handlers

import (
	"sync"

	"github.com/thinkgate-dev/thinkgate/internal/config"
	"github.com/thinkgate-dev/thinkgate/internal/registry"
	"github.com/thinkgate-dev/thinkgate/internal/upstream"
)

// ErrorResponse is the standard OpenAI-style error envelope.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail provides specific information about an error that occurred.
type ErrorDetail struct {
	// Message is a human-readable message providing more details.
	Message string `json:"message"`

	// Type is the category of error (e.g., "invalid_request_error").
	Type string `json:"type"`

	// Code is the HTTP status associated with the error, if applicable.
	Code int `json:"code,omitempty"`
}

// Snapshot is the immutable per-request view of the gateway's configuration
// and derived components. Requests in flight keep reading the snapshot they
// started with even if the config reloads underneath them.
type Snapshot struct {
	Cfg      *config.Config
	Registry *registry.Registry
	Resolver *registry.Resolver
	Executor *upstream.Executor
}

// BaseAPIHandler holds the current snapshot behind a read lock.
type BaseAPIHandler struct {
	mu       sync.RWMutex
	snapshot Snapshot
}

// NewBaseAPIHandler builds the handler state from a configuration.
func NewBaseAPIHandler(cfg *config.Config) *BaseAPIHandler {
	h := &BaseAPIHandler{}
	h.Update(cfg)
	return h
}

// Update rebuilds the registry, resolver and executor from a new
// configuration and swaps the snapshot.
func (h *BaseAPIHandler) Update(cfg *config.Config) {
	reg := registry.NewRegistry(cfg.ModelAliases)
	exec := upstream.NewExecutor(cfg.Upstream.BaseURL, cfg.Upstream.APIKey)
	res := registry.NewResolver(reg, exec.Probe)

	h.mu.Lock()
	h.snapshot = Snapshot{Cfg: cfg, Registry: reg, Resolver: res, Executor: exec}
	h.mu.Unlock()
}

// Snapshot returns the current immutable view.
func (h *BaseAPIHandler) Snapshot() Snapshot {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.snapshot
}
