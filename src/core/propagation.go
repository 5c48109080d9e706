package core

// Order selects one of the four traversal disciplines component H can
// flatten a target's transitive dependency DAG under.
type Order int

const (
	// OrderDefault is breadth-first from the root: order-stable but
	// otherwise unspecified relative to the other three.
	OrderDefault Order = iota
	// OrderInclude is post-order DFS, left-to-right: dependencies appear
	// before dependents, so a leaf's include directories take precedence
	// over directories contributed by things closer to the root.
	OrderInclude
	// OrderLink is reverse post-order: dependents appear before
	// dependencies, the order a Unix linker wants its -l arguments in.
	OrderLink
	// OrderLegacy is a naive pre-order DFS, kept for targets whose build
	// output must match the historical (pre-ordering-engine) tool byte
	// for byte.
	OrderLegacy
)

// directLinkDeps returns t's immediate public+private dependency targets
// that have actually been resolved, in public-then-private declaration
// order. Data and gen deps never participate in these traversals — they
// affect build ordering, not linking or include search paths.
func directLinkDeps(t *Target) []*Target {
	var out []*Target
	for _, list := range t.LinkDeps() {
		for _, ref := range list.Refs() {
			if ref.Target != nil {
				out = append(out, ref.Target)
			}
		}
	}
	return out
}

// Traverse flattens root and every target reachable from its dependency
// edges into the order the given mode specifies. Each uses a single
// iterative pass with an explicit stack (or queue) and a visited set, per
// 4.H.3's contract that these are plain iterative traversals, not
// recursive ones.
func Traverse(root *Target, mode Order) []*Target {
	switch mode {
	case OrderInclude:
		return postOrderDeps(root, false)
	case OrderLink:
		out := postOrderDeps(root, true)
		reverseTargets(out)
		return out
	case OrderLegacy:
		return preOrderDeps(root)
	default:
		return bfsDeps(root)
	}
}

func reverseTargets(ts []*Target) {
	for i, j := 0, len(ts)-1; i < j; i, j = i+1, j-1 {
		ts[i], ts[j] = ts[j], ts[i]
	}
}

// bfsDeps visits root and its transitive dependencies breadth-first using
// an explicit FIFO queue, root first.
func bfsDeps(root *Target) []*Target {
	visited := map[Label]bool{root.Label: true}
	queue := []*Target{root}
	var out []*Target
	for len(queue) > 0 {
		t := queue[0]
		queue = queue[1:]
		out = append(out, t)
		for _, c := range directLinkDeps(t) {
			if !visited[c.Label] {
				visited[c.Label] = true
				queue = append(queue, c)
			}
		}
	}
	return out
}

// preOrderDeps visits root and its transitive dependencies in naive
// left-to-right pre-order using an explicit LIFO stack: children are
// pushed in reverse so popping recovers declaration order.
func preOrderDeps(root *Target) []*Target {
	visited := map[Label]bool{}
	var out []*Target
	stack := []*Target{root}
	for len(stack) > 0 {
		t := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[t.Label] {
			continue
		}
		visited[t.Label] = true
		out = append(out, t)
		stack = pushReversed(stack, directLinkDeps(t))
	}
	return out
}

func pushReversed(stack, items []*Target) []*Target {
	for i := len(items) - 1; i >= 0; i-- {
		stack = append(stack, items[i])
	}
	return stack
}

// postOrderDeps visits root and its transitive dependencies in iterative
// post-order (children fully explored before the node itself is emitted),
// using an explicit stack of (node, next-child-index) frames rather than
// recursion. When reversedChildren is set, each node's children are
// visited in the opposite of their declared order; combined with reversing
// the whole output afterward (as OrderLink does) this produces a
// topological order that keeps a branch's most-recently-declared
// dependency closest to the branch root, matching the reference tool's
// link-line ordering.
func postOrderDeps(root *Target, reversedChildren bool) []*Target {
	type frame struct {
		t        *Target
		deps     []*Target
		childIdx int
	}
	childrenOf := func(t *Target) []*Target {
		d := directLinkDeps(t)
		if !reversedChildren {
			return d
		}
		rev := make([]*Target, len(d))
		for i, c := range d {
			rev[len(d)-1-i] = c
		}
		return rev
	}
	visited := map[Label]bool{root.Label: true}
	stack := []*frame{{t: root, deps: childrenOf(root)}}
	var out []*Target
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		if top.childIdx < len(top.deps) {
			child := top.deps[top.childIdx]
			top.childIdx++
			if !visited[child.Label] {
				visited[child.Label] = true
				stack = append(stack, &frame{t: child, deps: childrenOf(child)})
			}
			continue
		}
		stack = stack[:len(stack)-1]
		out = append(out, top.t)
	}
	return out
}

// ComputeInheritedLibraries implements 4.H.2: the ordered (lib-target,
// is_public) pair list a target's dependents use to decide what ends up on
// their own link line. It recurses through every linkable dependency except
// final binaries and complete static libraries, which absorb what they
// depend on but don't themselves forward it further.
func ComputeInheritedLibraries(t *Target) []InheritedLib {
	acc := &inheritedAccum{index: map[Label]int{}}
	accumulate(t, acc)
	return acc.entries
}

func accumulate(t *Target, acc *inheritedAccum) {
	for _, ref := range t.PublicDeps.Refs() {
		accumulateEdge(ref, true, acc)
	}
	for _, ref := range t.PrivateDeps.Refs() {
		accumulateEdge(ref, false, acc)
	}
}

func accumulateEdge(ref DepRef, edgePublic bool, acc *inheritedAccum) {
	dep := ref.Target
	if dep == nil || !dep.Type.IsLinkable() {
		return
	}
	acc.push(dep, edgePublic)
	if stopsInheritedForwarding(dep.Type) {
		return
	}
	for _, sub := range ComputeInheritedLibraries(dep) {
		acc.push(sub.Target, edgePublic && sub.IsPublic)
	}
}

// stopsInheritedForwarding reports whether a dependency of this type
// absorbs whatever it depends on rather than exposing those dependencies
// as separate entries further up the chain. Final binaries (exec/shared
// lib/loadable module) stop because nothing links against them directly;
// complete_static_lib stops because invariant 5 has it bundle every
// transitively reachable source_set's (and static lib's) objects into its
// own archive, so listing them again up the chain would double them up. A
// plain (non-complete) static_lib does *not* stop — per the spec's H.2
// note, only a complete one absorbs.
func stopsInheritedForwarding(tt TargetType) bool {
	return tt.IsFinalBinary() || tt == TypeCompleteStaticLibrary
}

// inheritedAccum is the H.1 ordered-uniqued accumulator specialised for
// InheritedLib entries, with the "public wins" upgrade rule from H.2's
// invariant 4.
type inheritedAccum struct {
	entries []InheritedLib
	index   map[Label]int
}

func (a *inheritedAccum) push(t *Target, public bool) {
	if i, ok := a.index[t.Label]; ok {
		if public && !a.entries[i].IsPublic {
			a.entries[i].IsPublic = true
		}
		return
	}
	a.index[t.Label] = len(a.entries)
	a.entries = append(a.entries, InheritedLib{Target: t, IsPublic: public})
}

// ComputeResolvedView implements 4.H.4: it populates and caches t's
// ResolvedTargetData, flattening library/framework search paths from a
// depth-first walk of the transitive linked dependencies and collecting the hard
// dependencies that must finish building before t can.
//
// The cache is populated at most once per target (guarded by t's own
// mutex); later calls return the memoized value without recomputing.
func ComputeResolvedView(t *Target) *ResolvedTargetData {
	if cached := t.Resolved(); cached != nil {
		return cached
	}
	data := &ResolvedTargetData{
		InheritedLibraries: ComputeInheritedLibraries(t),
		RecursiveHardDeps:  computeHardDeps(t),
	}
	collectLinkedConfigValues(t, data, map[Label]bool{t.Label: true})
	t.setResolved(data)
	return data
}

// collectLinkedConfigValues flattens all_libs/all_lib_dirs/all_frameworks/
// all_weak_frameworks across the transitive linked-dependency subgraph,
// skipping a final binary's own flags and not descending past it (4.H.4:
// "skipping executables, they terminate library propagation"). Unlike
// ComputeInheritedLibraries this walk does NOT stop at complete_static_lib:
// the external -l/-L flags a source_set or static lib declares still have
// to reach the final link step even once its objects are absorbed into an
// enclosing archive.
func collectLinkedConfigValues(t *Target, data *ResolvedTargetData, seen map[Label]bool) {
	for _, list := range t.LinkDeps() {
		for _, ref := range list.Refs() {
			dep := ref.Target
			if dep == nil || !dep.Type.IsLinkable() || seen[dep.Label] {
				continue
			}
			seen[dep.Label] = true
			if dep.Type.IsFinalBinary() {
				continue
			}
			data.AllLibDirs = appendUniqueDir(data.AllLibDirs, dep.ConfigValues.LibDirs)
			data.AllLibs = appendUnique(data.AllLibs, dep.ConfigValues.Libs)
			data.AllFrameworkDirs = appendUnique(data.AllFrameworkDirs, dep.ConfigValues.FrameworkDirs)
			data.AllFrameworks = appendUnique(data.AllFrameworks, dep.ConfigValues.Frameworks)
			data.AllWeakFrameworks = appendUnique(data.AllWeakFrameworks, dep.ConfigValues.WeakFrameworks)
			collectLinkedConfigValues(dep, data, seen)
		}
	}
}

// isHardDepType reports whether tt is a type whose mere presence as a dependency (at any
// depth, through any of the four dependency lists) forces t to wait for
// them to finish building, regardless of whether anything they produce is
// actually linked.
func isHardDepType(tt TargetType) bool {
	switch tt {
	case TypeAction, TypeActionForEach, TypeGeneratedFile, TypeBundleData, TypeCopy, TypeCreateBundle:
		return true
	default:
		return false
	}
}

func computeHardDeps(t *Target) []*Target {
	seen := map[Label]bool{}
	var out []*Target
	var walk func(*Target)
	walk = func(cur *Target) {
		for _, list := range []*DepList{cur.PublicDeps, cur.PrivateDeps, cur.DataDeps, cur.GenDeps} {
			for _, ref := range list.Refs() {
				if ref.Target == nil || seen[ref.Label] {
					continue
				}
				seen[ref.Label] = true
				if isHardDepType(ref.Target.Type) {
					out = append(out, ref.Target)
				}
				walk(ref.Target)
			}
		}
	}
	walk(t)
	return out
}

// CheckAssertNoDeps verifies none of t's transitive dependencies match any
// of t's declared AssertNoDeps patterns, returning a GenError describing
// the first violation found.
func CheckAssertNoDeps(t *Target) *GenError {
	if len(t.AssertNoDeps) == 0 {
		return nil
	}
	for _, dep := range bfsDeps(t) {
		if dep == t {
			continue
		}
		if LabelMatches(dep.Label, t.AssertNoDeps) {
			return NewError(ErrResolution, Location{}, "%s transitively depends on %s, which is forbidden by assert_no_deps", t.Label, dep.Label)
		}
	}
	return nil
}
