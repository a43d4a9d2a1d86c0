package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/stackline/foreman/internal/domain/tool"
	"github.com/stackline/foreman/internal/port/database"
)

// Env is the per-run environment handed to every tool handler. It scopes
// handlers to one company, project and run, and tracks which action
// payloads the run has already produced.
type Env struct {
	Store     database.Store
	Actions   *ActionService
	Resolver  *ResolverService
	CompanyID string
	ProjectID string
	RunID     string
	// CallerID is the contact on whose behalf the run executes, used as
	// the sender on outbound action records.
	CallerID string

	seenActions map[string]bool
}

// MarkAction records an action dedupe key for this run and reports whether
// it was already present.
func (e *Env) MarkAction(key string) (seen bool) {
	if e.seenActions == nil {
		e.seenActions = make(map[string]bool)
	}
	if e.seenActions[key] {
		return true
	}
	e.seenActions[key] = true
	return false
}

// Handler is a single callable tool.
type Handler interface {
	Definition() tool.Definition
	Execute(ctx context.Context, env *Env, args json.RawMessage) (tool.Result, error)
}

// callLimited is implemented by handlers that may only run a bounded number
// of times per run.
type callLimited interface {
	CallLimit() int
}

// Registry holds the tool catalog exposed to the model.
type Registry struct {
	handlers map[string]Handler
}

// NewRegistry builds a registry from the given handlers. Duplicate names
// are a programming error.
func NewRegistry(handlers ...Handler) (*Registry, error) {
	r := &Registry{handlers: make(map[string]Handler, len(handlers))}
	for _, h := range handlers {
		name := h.Definition().Name
		if _, dup := r.handlers[name]; dup {
			return nil, fmt.Errorf("duplicate tool %q", name)
		}
		r.handlers[name] = h
	}
	return r, nil
}

// Get returns the handler for name.
func (r *Registry) Get(name string) (Handler, bool) {
	h, ok := r.handlers[name]
	return h, ok
}

// Limit returns the per-run call cap for name, or 0 when uncapped.
func (r *Registry) Limit(name string) int {
	if h, ok := r.handlers[name]; ok {
		if cl, ok := h.(callLimited); ok {
			return cl.CallLimit()
		}
	}
	return 0
}

// Definitions returns the tool definitions in stable name order. A non-nil
// allow list restricts the catalog to the named tools.
func (r *Registry) Definitions(allow []string) []tool.Definition {
	var names []string
	if allow != nil {
		for _, n := range allow {
			if _, ok := r.handlers[n]; ok {
				names = append(names, n)
			}
		}
	} else {
		for n := range r.handlers {
			names = append(names, n)
		}
	}
	sort.Strings(names)

	defs := make([]tool.Definition, 0, len(names))
	for _, n := range names {
		defs = append(defs, r.handlers[n].Definition())
	}
	return defs
}
