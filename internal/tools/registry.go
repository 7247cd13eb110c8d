// Package tools implements the four step handlers (template, action,
// codemod, recipe) and the process-wide registries actions and codemod
// transforms are looked up from.
package tools

import (
	"fmt"
	"sync"

	hgerrors "github.com/hypergen/hypergen/internal/errors"
	"github.com/hypergen/hypergen/internal/ports"
)

// actionRegistry is a thread-safe, registration-order-preserving registry,
// the same shape as the teacher's detector.Registry, retargeted from
// providers.Provider to ports.ActionFunc. Populated once at startup with
// the built-in actions (internal/builtin); treated as read-mostly thereafter.
type actionRegistry struct {
	mu      sync.RWMutex
	byName  map[string]ports.ActionFunc
	ordered []string
}

// NewActionRegistry returns an empty, ready-to-populate ActionRegistry.
func NewActionRegistry() ports.ActionRegistry {
	return &actionRegistry{byName: make(map[string]ports.ActionFunc)}
}

func (r *actionRegistry) Register(name string, fn ports.ActionFunc) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byName[name]; exists {
		return fmt.Errorf("%w: %s", hgerrors.ErrDuplicateAction, name)
	}
	r.byName[name] = fn
	r.ordered = append(r.ordered, name)
	return nil
}

func (r *actionRegistry) Lookup(name string) (ports.ActionFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.byName[name]
	return fn, ok
}

// transformRegistry is the codemod-transform counterpart to actionRegistry.
type transformRegistry struct {
	mu      sync.RWMutex
	byName  map[string]ports.TransformFunc
	ordered []string
}

// NewTransformRegistry returns an empty, ready-to-populate TransformRegistry.
func NewTransformRegistry() ports.TransformRegistry {
	return &transformRegistry{byName: make(map[string]ports.TransformFunc)}
}

func (r *transformRegistry) Register(name string, fn ports.TransformFunc) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byName[name]; exists {
		return fmt.Errorf("%w: %s", hgerrors.ErrDuplicateAction, name)
	}
	r.byName[name] = fn
	r.ordered = append(r.ordered, name)
	return nil
}

func (r *transformRegistry) Lookup(name string) (ports.TransformFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.byName[name]
	return fn, ok
}
