package model

import (
	"github.com/mentor-lab/chiron/pkg/domain/interfaces"
)

// Router selects a model backend by required capability. Backends are
// fixed at construction; a capability that was never wired is reported as
// unavailable instead of being emulated by a weaker backend.
type Router struct {
	reasoning interfaces.ReasoningModel
	embedder  interfaces.Embedder
	vision    interfaces.VisionModel
}

// RouterOption configures optional backends on a Router
type RouterOption func(*Router)

func WithReasoning(m interfaces.ReasoningModel) RouterOption {
	return func(r *Router) {
		r.reasoning = m
	}
}

func WithVision(m interfaces.VisionModel) RouterOption {
	return func(r *Router) {
		r.vision = m
	}
}

// NewRouter builds a router. The local embedder is always present; the
// reasoning and vision backends depend on deployment configuration.
func NewRouter(embedder interfaces.Embedder, opts ...RouterOption) *Router {
	r := &Router{embedder: embedder}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Router) Embedder() interfaces.Embedder {
	return r.embedder
}

// Reasoning returns the reasoning backend, or false when none is configured
func (r *Router) Reasoning() (interfaces.ReasoningModel, bool) {
	if r.reasoning == nil {
		return nil, false
	}
	return r.reasoning, true
}

// Vision returns the vision backend, or false when none is configured
func (r *Router) Vision() (interfaces.VisionModel, bool) {
	if r.vision == nil {
		return nil, false
	}
	return r.vision, true
}
