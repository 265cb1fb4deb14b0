// Package tools assembles the per-turn tool catalog an agent exposes to the
// model: a knowledge-search tool backed by the agent's knowledge source, plus
// any tools discovered from the agent's remote MCP servers.
package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/parley-ai/parley/pkg/core/types"
)

// Executor is one callable tool.
type Executor interface {
	Definition() types.ToolDefinition
	Execute(ctx context.Context, input map[string]any) (*types.ToolResult, error)
}

// Registry holds the tools available for a single turn, keyed by the name
// exposed to the model. It is built once per turn and never mutated while the
// turn runs.
type Registry struct {
	byName map[string]Executor
	order  []string
}

func NewRegistry(executors ...Executor) *Registry {
	registry := &Registry{byName: make(map[string]Executor, len(executors))}
	for _, ex := range executors {
		registry.Register(ex)
	}
	return registry
}

// Register adds an executor under its definition name. A later registration
// with the same name wins silently.
func (r *Registry) Register(ex Executor) {
	if ex == nil {
		return
	}
	name := ex.Definition().Name
	if name == "" {
		return
	}
	if _, exists := r.byName[name]; !exists {
		r.order = append(r.order, name)
	}
	r.byName[name] = ex
}

func (r *Registry) Has(name string) bool {
	if r == nil {
		return false
	}
	_, ok := r.byName[strings.TrimSpace(name)]
	return ok
}

func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.byName)
}

// Definitions returns the catalog in registration order, which is the order
// it is sent to the completion service.
func (r *Registry) Definitions() []types.ToolDefinition {
	if r == nil {
		return nil
	}
	defs := make([]types.ToolDefinition, 0, len(r.order))
	for _, name := range r.order {
		defs = append(defs, r.byName[name].Definition())
	}
	return defs
}

// Execute runs the named tool. Unknown names return an error the caller
// surfaces to the model as a failed tool result rather than aborting the turn.
func (r *Registry) Execute(ctx context.Context, name string, input map[string]any) (*types.ToolResult, error) {
	if r == nil {
		return nil, fmt.Errorf("tool registry is not configured")
	}
	ex, ok := r.byName[strings.TrimSpace(name)]
	if !ok {
		return nil, fmt.Errorf("unknown tool %q", name)
	}
	return ex.Execute(ctx, input)
}
