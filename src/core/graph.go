package core

import (
	"sort"
	"sync"
)

// record is the registry's per-label bookkeeping (4.F): the item itself
// once declared, the location it was first referenced from (for "requested
// from here" diagnostics), and the set of records waiting on it, indexed by
// relationship kind.
type record struct {
	label Label
	item  Item // nil until the declaration is processed

	requestedFrom Location

	// waiters are labels of items that have a pending reference to this
	// record, split by what kind of reference it is so the resolver can
	// decide what "satisfied" means for each.
	depWaiters    map[Label]bool
	configWaiters map[Label]bool
}

func newRecord(label Label) *record {
	return &record{
		label:         label,
		depWaiters:    make(map[Label]bool),
		configWaiters: make(map[Label]bool),
	}
}

// BuildGraph is the concurrent label registry plus the realized dependency
// edges between targets. It is the single shared, process-wide structure
// every loader worker and the resolver operate on (5. "Shared resources").
type BuildGraph struct {
	mu      sync.Mutex
	records map[Label]*record

	// revDeps indexes, for every target, the set of targets that declared
	// a dependency on it — the mirror image of DepList, used to answer
	// "refs" queries.
	revDeps map[Label]map[Label]bool
}

// NewGraph returns an empty BuildGraph.
func NewGraph() *BuildGraph {
	return &BuildGraph{
		records: make(map[Label]*record),
		revDeps: make(map[Label]map[Label]bool),
	}
}

// recordFor returns the record for label, creating an empty one
// (declared_but_incomplete, in 4.F's terms) if none exists yet. Must be
// called with mu held.
func (g *BuildGraph) recordFor(label Label) *record {
	r, ok := g.records[label]
	if !ok {
		r = newRecord(label)
		g.records[label] = r
	}
	return r
}

// Declare installs item as the declaration for its label. It is an error
// (returned, not panicked — a malformed build file is user error, not a
// programming one) to declare the same label twice.
func (g *BuildGraph) Declare(item Item) *GenError {
	g.mu.Lock()
	defer g.mu.Unlock()
	label := item.ItemLabel()
	r := g.recordFor(label)
	if r.item != nil {
		return NewError(ErrDeclaration, Location{}, "duplicate declaration of %s", label)
	}
	r.item = item
	return nil
}

// Item looks up a label's declared item. ok is false if the label has
// never been declared (it may still have a record, if only referenced).
func (g *BuildGraph) Item(label Label) (Item, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	r, ok := g.records[label]
	if !ok || r.item == nil {
		return nil, false
	}
	return r.item, true
}

// Target is a convenience wrapper over Item for the common case of wanting
// a *Target specifically.
func (g *BuildGraph) Target(label Label) *Target {
	item, ok := g.Item(label)
	if !ok {
		return nil
	}
	t, _ := item.(*Target)
	return t
}

// Config looks up a declared *Config.
func (g *BuildGraph) Config(label Label) *Config {
	item, ok := g.Item(label)
	if !ok {
		return nil
	}
	c, _ := item.(*Config)
	return c
}

// Toolchain looks up a declared *Toolchain.
func (g *BuildGraph) Toolchain(label Label) *Toolchain {
	item, ok := g.Item(label)
	if !ok {
		return nil
	}
	tc, _ := item.(*Toolchain)
	return tc
}

// Reference records that label has been mentioned (as a dependency,
// config, or toolchain reference) from referencedFrom, creating a pending
// record if this is the first mention. It always returns the (possibly
// still-undeclared) record's current item, which is nil if unresolved.
func (g *BuildGraph) Reference(label Label, referencedFrom Location) (Item, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	r := g.recordFor(label)
	if r.item == nil && r.requestedFrom.File == "" {
		r.requestedFrom = referencedFrom
	}
	return r.item, r.item != nil
}

// AddDependency records that fromLabel depends on toLabel, for the "refs"
// query. It does not itself mutate
// either Target's DepList — that happens when the declaring code calls
// AddDep — it only tracks the reverse-edge index.
func (g *BuildGraph) AddDependency(fromLabel, toLabel Label) {
	g.mu.Lock()
	defer g.mu.Unlock()
	set, ok := g.revDeps[toLabel]
	if !ok {
		set = make(map[Label]bool)
		g.revDeps[toLabel] = set
	}
	set[fromLabel] = true
}

// ReverseDependencies returns every label known to depend on target, sorted
// for deterministic output.
func (g *BuildGraph) ReverseDependencies(target Label) []Label {
	g.mu.Lock()
	defer g.mu.Unlock()
	set := g.revDeps[target]
	out := make([]Label, 0, len(set))
	for l := range set {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return Compare(out[i], out[j]) < 0 })
	return out
}

// AllTargets returns every declared Target, sorted by label.
func (g *BuildGraph) AllTargets() Targets {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make(Targets, 0, len(g.records))
	for _, r := range g.records {
		if t, ok := r.item.(*Target); ok {
			out = append(out, t)
		}
	}
	sort.Sort(out)
	return out
}

// AllToolchains returns every declared Toolchain, sorted by label. Writers
// use this to discover which per-toolchain ninja files to emit without
// having to walk every target first.
func (g *BuildGraph) AllToolchains() []*Toolchain {
	g.mu.Lock()
	defer g.mu.Unlock()
	var out []*Toolchain
	for _, r := range g.records {
		if tc, ok := r.item.(*Toolchain); ok {
			out = append(out, tc)
		}
	}
	sort.Slice(out, func(i, j int) bool { return Compare(out[i].Label, out[j].Label) < 0 })
	return out
}

// Len returns the number of declared items (of any kind).
func (g *BuildGraph) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := 0
	for _, r := range g.records {
		if r.item != nil {
			n++
		}
	}
	return n
}

// addDepWaiter records that waiter has a pending dependency-kind reference
// to label, creating label's record if needed. Returns the record's
// current item so the caller can avoid a race between checking presence and
// registering as a waiter.
func (g *BuildGraph) addDepWaiter(label, waiter Label, from Location) Item {
	g.mu.Lock()
	defer g.mu.Unlock()
	r := g.recordFor(label)
	if r.item != nil {
		return r.item
	}
	if r.requestedFrom.File == "" {
		r.requestedFrom = from
	}
	r.depWaiters[waiter] = true
	return nil
}

// addConfigWaiter is addDepWaiter's counterpart for config-kind references.
func (g *BuildGraph) addConfigWaiter(label, waiter Label, from Location) Item {
	g.mu.Lock()
	defer g.mu.Unlock()
	r := g.recordFor(label)
	if r.item != nil {
		return r.item
	}
	if r.requestedFrom.File == "" {
		r.requestedFrom = from
	}
	r.configWaiters[waiter] = true
	return nil
}

// takeWaiters returns and clears the waiter sets recorded against label,
// called once label's item has just become available.
func (g *BuildGraph) takeWaiters(label Label) (deps, configs []Label) {
	g.mu.Lock()
	defer g.mu.Unlock()
	r, ok := g.records[label]
	if !ok {
		return nil, nil
	}
	for l := range r.depWaiters {
		deps = append(deps, l)
	}
	for l := range r.configWaiters {
		configs = append(configs, l)
	}
	r.depWaiters = make(map[Label]bool)
	r.configWaiters = make(map[Label]bool)
	return deps, configs
}

// requestedFromLoc returns the location label was first referenced from, for
// missing-label diagnostics. Zero Location if label was never referenced.
func (g *BuildGraph) requestedFromLoc(label Label) Location {
	g.mu.Lock()
	defer g.mu.Unlock()
	r, ok := g.records[label]
	if !ok {
		return Location{}
	}
	return r.requestedFrom
}

// unresolvedRecords returns every record that has been referenced but never
// declared, plus their requestedFrom provenance — used by the cycle
// detector when the loader goes idle with work still pending (4.G's
// "Cycle detection").
func (g *BuildGraph) unresolvedRecords() []*record {
	g.mu.Lock()
	defer g.mu.Unlock()
	var out []*record
	for _, r := range g.records {
		if r.item == nil {
			out = append(out, r)
		}
	}
	return out
}
