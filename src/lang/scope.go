package lang

// Template is a named code block registered by a `template("name") { ... }`
// call; invoking `name("target_name") { ... }` later runs Body in a child
// scope of DefiningScope (its lexical closure), with `invoker` bound to the
// caller's own local scope (spec.md 4.D).
type Template struct {
	Name          string
	Body          *Block
	DefiningScope *Scope
}

// binding records a variable's current value together with the position it
// was last assigned from, for "requested/assigned from here" diagnostics.
type binding struct {
	value  Value
	origin Position
	used   bool
}

// Scope is a single lexical scope: the file-level scope, a toolchain's
// root scope, or the child scope a target/template/foreach body executes
// in (an if/else body runs in the scope that contains it). Scopes are never shared across files; each file evaluates
// in its own scope tree rooted at its toolchain's root scope.
type Scope struct {
	parent    *Scope
	vars      map[string]*binding
	templates map[string]*Template
	// Invoker is the caller's scope inside a template body, nil elsewhere.
	Invoker *Scope
}

// NewScope creates a scope with the given parent (nil for a root scope).
func NewScope(parent *Scope) *Scope {
	return &Scope{parent: parent, vars: map[string]*binding{}, templates: map[string]*Template{}}
}

// GetValue looks up name in this scope and its ancestors, reporting
// whether it was found.
func (s *Scope) GetValue(name string) (Value, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if b, ok := cur.vars[name]; ok {
			b.used = true
			return b.value, true
		}
	}
	return None, false
}

// SetValue assigns name in this scope (never an ancestor's — GN scopes
// don't have mutable outer assignment, only lookup), recording origin for
// diagnostics.
func (s *Scope) SetValue(name string, value Value, origin Position) {
	s.vars[name] = &binding{value: value, origin: origin}
}

// Names returns every variable name bound directly in this scope (not
// ancestors), for target-construction ("recognized variables") and
// unused-variable checking.
func (s *Scope) Names() []string {
	names := make([]string, 0, len(s.vars))
	for name := range s.vars {
		names = append(names, name)
	}
	return names
}

// Unused returns the names bound in this scope that were never read, and
// aren't private (don't start with "_") — spec.md §7.2's "unused variables
// left in a scope at scope exit" evaluation error. Private variables are
// conventionally scratch values and exempt, matching GN's own leading
// underscore convention.
func (s *Scope) Unused() []string {
	var names []string
	for name, b := range s.vars {
		if !b.used && len(name) > 0 && name[0] != '_' {
			names = append(names, name)
		}
	}
	return names
}

// RegisterTemplate records a template definition in this scope.
func (s *Scope) RegisterTemplate(t *Template) {
	s.templates[t.Name] = t
}

// Template looks up a template definition by name in this scope or an
// ancestor.
func (s *Scope) Template(name string) (*Template, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if t, ok := cur.templates[name]; ok {
			return t, true
		}
	}
	return nil, false
}

// Clone deep-copies this scope's local bindings into a freshly allocated
// scope re-parented onto the same parent, implementing the copy-on-demand
// semantics a scope-valued variable (e.g. `invoker`) needs when assigned
// elsewhere (spec.md 4.C).
func (s *Scope) Clone() *Scope {
	clone := NewScope(s.parent)
	for name, b := range s.vars {
		clone.vars[name] = &binding{value: b.value.Copy(), origin: b.origin}
	}
	for name, t := range s.templates {
		clone.templates[name] = t
	}
	clone.Invoker = s.Invoker
	return clone
}

// MergeNonPrivate copies every non-private (not leading "_") binding from
// src into s, as `import()` does when folding an imported file's top-level
// scope into the importer (spec.md 4.D).
func (s *Scope) MergeNonPrivate(src *Scope) {
	for name, b := range src.vars {
		if len(name) > 0 && name[0] == '_' {
			continue
		}
		s.vars[name] = &binding{value: b.value.Copy(), origin: b.origin}
	}
	for name, t := range src.templates {
		if len(name) > 0 && name[0] == '_' {
			continue
		}
		s.templates[name] = t
	}
}
