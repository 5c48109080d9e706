// Package core implements the dependency graph: label parsing, the item
// registry, the dependency resolver, and the transitive property
// propagation engine. It has no knowledge of the configuration language
// that produces items (that's src/lang) nor of how a resolved target is
// turned into build-graph output (that's src/write/...).
package core

import (
	"sync"

	"github.com/forgebuild/bg/src/cmap"
)

// An Atom is a handle to an interned string. Two atoms are equal if and
// only if the strings they were interned from are equal; comparing atoms is
// therefore a pointer comparison rather than a string comparison, and an
// atom can be used directly as a map key with the same property.
type Atom struct {
	s *string
}

// String returns the interned string.
func (a Atom) String() string {
	if a.s == nil {
		return ""
	}
	return *a.s
}

// IsZero returns true for the zero Atom (never produced by Intern).
func (a Atom) IsZero() bool {
	return a.s == nil
}

// An Interner hands out Atoms for strings, guaranteeing that interning the
// same string twice (from any goroutine) returns the identical Atom.
// The zero value is not usable; construct with NewInterner.
type Interner struct {
	mu    sync.RWMutex
	atoms map[string]Atom
}

// NewInterner constructs an empty Interner.
func NewInterner() *Interner {
	return &Interner{atoms: make(map[string]Atom, 1024)}
}

// Intern returns the Atom for s, creating one if this is the first time s
// has been seen.
func (in *Interner) Intern(s string) Atom {
	in.mu.RLock()
	if a, ok := in.atoms[s]; ok {
		in.mu.RUnlock()
		return a
	}
	in.mu.RUnlock()

	in.mu.Lock()
	defer in.mu.Unlock()
	if a, ok := in.atoms[s]; ok {
		return a
	}
	// Copy s so the Atom doesn't keep alive whatever larger buffer the
	// caller's string might have been sliced from.
	owned := string([]byte(s))
	a := Atom{s: &owned}
	in.atoms[s] = a
	return a
}

// Len returns the number of distinct strings interned so far.
func (in *Interner) Len() int {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return len(in.atoms)
}

// globalInterner backs the package-level Intern convenience function, used
// by label parsing where passing an explicit Interner through every call
// site would be pure ceremony; the loader and evaluator both need the same
// universe of atoms regardless of which goroutine touches them first.
var globalInterner = NewInterner()

// Intern interns s against the process-wide interner.
func Intern(s string) Atom {
	return globalInterner.Intern(s)
}

// atomHash hashes an Atom for use as a cmap key, by hashing its string
// value; two equal atoms (same pointer) always hash identically since
// they share the same backing string.
func atomHash(a Atom) uint64 {
	return cmap.XXHash(a.String())
}
