package tool

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/omniforge/agentcore/pkg/registry"
)

// entry pairs a live Tool with the Source that discovered it, so the
// registry can report provenance (used by ListBySource).
type entry struct {
	def    Definition
	tool   Tool
	source string
}

// Registry is the thread-safe name->Tool map described in spec.md §4.1.
type Registry struct {
	base *registry.Base[entry]
}

// NewRegistry creates an empty tool registry.
func NewRegistry() *Registry {
	return &Registry{base: registry.New[entry]()}
}

// Register adds a tool under its own definition name. replace=false fails
// with ErrAlreadyRegistered if the name is taken.
func (r *Registry) Register(t Tool, replace bool) error {
	def := t.Definition()
	if def.Name == "" {
		return newRegistryError("Register", "tool name cannot be empty", nil)
	}

	err := r.base.Register(def.Name, entry{def: def, tool: t, source: "local"}, replace)
	if err != nil {
		if errors.Is(err, registry.ErrAlreadyRegistered) {
			return newRegistryError("Register", def.Name, ErrAlreadyRegistered)
		}
		return newRegistryError("Register", def.Name, err)
	}
	return nil
}

// RegisterFromSource registers every tool a Source currently exposes,
// tagging each entry with the source's name for provenance.
func (r *Registry) RegisterFromSource(ctx context.Context, src Source, replace bool) error {
	if err := src.Discover(ctx); err != nil {
		return newRegistryError("RegisterFromSource", src.Name(), err)
	}

	for _, def := range src.List() {
		t, ok := src.Get(def.Name)
		if !ok {
			continue
		}
		err := r.base.Register(def.Name, entry{def: def, tool: t, source: src.Name()}, replace)
		if err != nil {
			if errors.Is(err, registry.ErrAlreadyRegistered) {
				return newRegistryError("RegisterFromSource", def.Name, ErrAlreadyRegistered)
			}
			return newRegistryError("RegisterFromSource", def.Name, err)
		}
	}
	return nil
}

// Unregister removes a tool by name.
func (r *Registry) Unregister(name string) error {
	if err := r.base.Unregister(name); err != nil {
		return newRegistryError("Unregister", name, ErrNotFound)
	}
	return nil
}

// Get returns the Tool registered under name.
func (r *Registry) Get(name string) (Tool, error) {
	e, ok := r.base.Get(name)
	if !ok {
		return nil, newRegistryError("Get", name, ErrNotFound)
	}
	return e.tool, nil
}

// GetDefinition returns the Definition registered under name.
func (r *Registry) GetDefinition(name string) (Definition, error) {
	e, ok := r.base.Get(name)
	if !ok {
		return Definition{}, newRegistryError("GetDefinition", name, ErrNotFound)
	}
	return e.def, nil
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	return r.base.Has(name)
}

// List returns definitions sorted by name, optionally filtered by Type.
// An empty typeFilter returns every tool.
func (r *Registry) List(typeFilter Type) []Definition {
	all := r.base.List()
	defs := make([]Definition, 0, len(all))
	for _, e := range all {
		if typeFilter != "" && e.def.Type != typeFilter {
			continue
		}
		defs = append(defs, e.def)
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
	return defs
}

// ListBySource groups tool definitions by the Source.Name() that provided
// them (source=="local" for directly Register'd tools).
func (r *Registry) ListBySource() map[string][]Definition {
	result := make(map[string][]Definition)
	for _, e := range r.base.List() {
		result[e.source] = append(result[e.source], e.def)
	}
	for _, defs := range result {
		sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
	}
	return result
}

// Clear removes every registered tool.
func (r *Registry) Clear() {
	r.base.Clear()
}

// default process-wide registry: init on first access, never torn down.
var (
	defaultOnce sync.Once
	defaultReg  *Registry
)

// Default returns the process-wide default tool registry, creating it on
// first access (spec.md §4.1). Tests that need isolation should construct
// their own Registry with NewRegistry instead.
func Default() *Registry {
	defaultOnce.Do(func() {
		defaultReg = NewRegistry()
	})
	return defaultReg
}
