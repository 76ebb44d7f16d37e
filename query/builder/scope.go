package builder

import (
	"sort"
	"sync"

	"github.com/satishbabariya/sqlkit/query/sqlgen"
)

// Scope mutates a builder right before compilation.
type Scope func(*Builder)

type namedScope struct {
	name  string
	scope Scope
}

// WithScope registers a named scope. Scopes run once per compile, in
// registration order, against a copy of the plan. Registering an existing
// name replaces that scope in place.
func (b *Builder) WithScope(name string, scope Scope) *Builder {
	for i, s := range b.scopes {
		if s.name == name {
			b.scopes[i].scope = scope
			return b
		}
	}
	b.scopes = append(b.scopes, namedScope{name: name, scope: scope})
	return b
}

// WithoutScope removes a named scope.
func (b *Builder) WithoutScope(name string) *Builder {
	out := b.scopes[:0]
	for _, s := range b.scopes {
		if s.name != name {
			out = append(out, s)
		}
	}
	b.scopes = out
	return b
}

// Scopes returns the registered scope names in order.
func (b *Builder) Scopes() []string {
	names := make([]string, len(b.scopes))
	for i, s := range b.scopes {
		names[i] = s.name
	}
	return names
}

// Macro extends a builder with a named, reusable chain of calls.
type Macro func(b *Builder, args ...interface{}) *Builder

// Registry holds macros. It is safe for concurrent use.
type Registry struct {
	mu     sync.RWMutex
	macros map[string]Macro
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{macros: make(map[string]Macro)}
}

// Register adds or replaces a macro.
func (r *Registry) Register(name string, m Macro) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.macros[name] = m
}

// Lookup returns the macro registered under name.
func (r *Registry) Lookup(name string) (Macro, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.macros[name]
	return m, ok
}

// Names returns the registered macro names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.macros))
	for n := range r.macros {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Macro applies a registered macro.
func (b *Builder) Macro(name string, args ...interface{}) *Builder {
	if b.registry == nil {
		return b.fail("macro", sqlgen.ErrUnknownMacro, name)
	}
	m, ok := b.registry.Lookup(name)
	if !ok {
		return b.fail("macro", sqlgen.ErrUnknownMacro, name)
	}
	if out := m(b, args...); out != nil {
		return out
	}
	return b
}
