package core

import (
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
)

// TargetType is GN's output_type: what kind of thing a target produces, and
// consequently how the propagation engine treats it (whether it's a final
// binary that terminates library propagation, a source_set whose objects
// get absorbed into whatever links it, and so on).
type TargetType int

const (
	TypeGroup TargetType = iota
	TypeExecutable
	TypeSharedLibrary
	TypeLoadableModule
	TypeStaticLibrary
	TypeCompleteStaticLibrary
	TypeSourceSet
	TypeAction
	TypeActionForEach
	TypeCopy
	TypeBundleData
	TypeCreateBundle
	TypeGeneratedFile
	TypeRustLibrary
	TypeRustProcMacro
)

func (t TargetType) String() string {
	switch t {
	case TypeGroup:
		return "group"
	case TypeExecutable:
		return "executable"
	case TypeSharedLibrary:
		return "shared_library"
	case TypeLoadableModule:
		return "loadable_module"
	case TypeStaticLibrary:
		return "static_library"
	case TypeCompleteStaticLibrary:
		return "complete_static_lib"
	case TypeSourceSet:
		return "source_set"
	case TypeAction:
		return "action"
	case TypeActionForEach:
		return "action_foreach"
	case TypeCopy:
		return "copy"
	case TypeBundleData:
		return "bundle_data"
	case TypeCreateBundle:
		return "create_bundle"
	case TypeGeneratedFile:
		return "generated_file"
	case TypeRustLibrary:
		return "rust_library"
	case TypeRustProcMacro:
		return "rust_proc_macro"
	default:
		return "unknown"
	}
}

// IsFinalBinary reports whether targets of this type terminate library
// propagation (4.H.2): executables, shared libraries and loadable modules
// absorb their dependencies' objects but don't in turn expose them further
// up the chain. complete_static_lib is deliberately excluded here even
// though it's also a "final" artifact in the output sense — per 4.H.2 it
// stays in the recursing branch so its own inherited libraries keep
// propagating to whatever links the complete_static_lib itself; the
// absorption invariant 5 describes (bundling transitively reachable
// source_set objects into the archive) is a writer-side lowering decision,
// not a difference in this list's shape.
func (t TargetType) IsFinalBinary() bool {
	switch t {
	case TypeExecutable, TypeSharedLibrary, TypeLoadableModule:
		return true
	default:
		return false
	}
}

// IsLinkable reports whether this target type produces something another
// target can link against at all (as opposed to action/copy/group/bundle
// targets, which only ever contribute files or ordering).
func (t TargetType) IsLinkable() bool {
	switch t {
	case TypeExecutable, TypeSharedLibrary, TypeLoadableModule, TypeStaticLibrary,
		TypeCompleteStaticLibrary, TypeSourceSet, TypeRustLibrary, TypeRustProcMacro:
		return true
	default:
		return false
	}
}

// TargetState tracks a target's progress through resolution, mirroring the
// registry states in 4.F/4.G: a target starts Declared, becomes
// PendingDeps while any of its referenced labels are still unresolved, and
// becomes Resolved once OnResolved has run. Failed is terminal.
type TargetState int32

const (
	Declared TargetState = iota
	PendingDeps
	Resolved
	Failed
)

func (s TargetState) String() string {
	switch s {
	case Declared:
		return "Declared"
	case PendingDeps:
		return "PendingDeps"
	case Resolved:
		return "Resolved"
	case Failed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// ConfigValues is the merged set of compiler/linker flags a target ends up
// building with once its own settings and every config it pulls in (4.G
// step 5: "merges configs, assembles config_values") have been folded
// together. Each slice preserves first-insertion order per 4.H.1.
type ConfigValues struct {
	Defines        []string
	CFlags         []string
	CFlagsC        []string
	CFlagsCC       []string
	CFlagsObjC     []string
	CFlagsObjCC    []string
	LDFlags        []string
	IncludeDirs    []SourceDir
	FrameworkDirs  []string
	Frameworks     []string
	WeakFrameworks []string
	Libs           []string
	LibDirs        []SourceDir
	SwiftFlags     []string
	RustFlags      []string
	RustEnv        []string
	Externs        []string
}

// Append folds other onto c in order, skipping values already present so
// that a config pulled in by two different paths doesn't duplicate its
// flags (4.H.1's push_back_if_unique, applied per field).
func (c *ConfigValues) Append(other *ConfigValues) {
	c.Defines = appendUnique(c.Defines, other.Defines)
	c.CFlags = appendUnique(c.CFlags, other.CFlags)
	c.CFlagsC = appendUnique(c.CFlagsC, other.CFlagsC)
	c.CFlagsCC = appendUnique(c.CFlagsCC, other.CFlagsCC)
	c.CFlagsObjC = appendUnique(c.CFlagsObjC, other.CFlagsObjC)
	c.CFlagsObjCC = appendUnique(c.CFlagsObjCC, other.CFlagsObjCC)
	c.LDFlags = appendUnique(c.LDFlags, other.LDFlags)
	c.IncludeDirs = appendUniqueDir(c.IncludeDirs, other.IncludeDirs)
	c.FrameworkDirs = appendUnique(c.FrameworkDirs, other.FrameworkDirs)
	c.Frameworks = appendUnique(c.Frameworks, other.Frameworks)
	c.WeakFrameworks = appendUnique(c.WeakFrameworks, other.WeakFrameworks)
	c.Libs = appendUnique(c.Libs, other.Libs)
	c.LibDirs = appendUniqueDir(c.LibDirs, other.LibDirs)
	c.SwiftFlags = appendUnique(c.SwiftFlags, other.SwiftFlags)
	c.RustFlags = appendUnique(c.RustFlags, other.RustFlags)
	c.RustEnv = appendUnique(c.RustEnv, other.RustEnv)
	c.Externs = appendUnique(c.Externs, other.Externs)
}

func appendUnique(dst, src []string) []string {
	for _, v := range src {
		found := false
		for _, d := range dst {
			if d == v {
				found = true
				break
			}
		}
		if !found {
			dst = append(dst, v)
		}
	}
	return dst
}

func appendUniqueDir(dst, src []SourceDir) []SourceDir {
	for _, v := range src {
		found := false
		for _, d := range dst {
			if d == v {
				found = true
				break
			}
		}
		if !found {
			dst = append(dst, v)
		}
	}
	return dst
}

// Target is a single buildable declaration: an executable, a library, an
// action, a bundle, or a group. It's the concrete Item variant that drives
// the propagation engine.
type Target struct {
	Label    Label
	Settings *Settings
	Type     TargetType

	Sources       []SourceFile
	PublicHeaders []SourceFile
	Inputs        []SourceFile
	Data          []SourceFile

	// PublicDeps/PrivateDeps/DataDeps/GenDeps are the four independent
	// ordered-uniqued dependency lists a target can declare (4. Item
	// fields). DataDeps never affect link/include propagation, only
	// runtime ordering; GenDeps only affect build-time ordering.
	PublicDeps  *DepList
	PrivateDeps *DepList
	DataDeps    *DepList
	GenDeps     *DepList

	Configs             *ConfigList
	PublicConfigs       *ConfigList
	AllDependentConfigs *ConfigList

	ConfigValues     ConfigValues
	AllHeadersPublic bool

	Toolchain *Toolchain

	// Rust-specific fields; zero-valued for non-Rust target types.
	CrateName   string
	CrateRoot   SourceFile
	CrateType   string
	AliasedDeps map[string]Label

	// Visibility restricts which labels may depend on this target. An
	// empty list means "visible only within the declaring directory",
	// matching GN's default.
	Visibility []LabelPattern

	// AssertNoDeps is a set of patterns that must match none of this
	// target's transitive dependencies; violating it is a resolution
	// error (4.221).
	AssertNoDeps []LabelPattern

	state int32

	resolvedMu sync.Mutex
	resolved   *ResolvedTargetData
}

// NewTarget constructs a Target ready to accumulate declarations.
func NewTarget(label Label, settings *Settings, typ TargetType) *Target {
	return &Target{
		Label:               label,
		Settings:            settings,
		Type:                typ,
		PublicDeps:          NewDepList(),
		PrivateDeps:         NewDepList(),
		DataDeps:            NewDepList(),
		GenDeps:             NewDepList(),
		Configs:             NewConfigList(),
		PublicConfigs:       NewConfigList(),
		AllDependentConfigs: NewConfigList(),
		state:               int32(Declared),
	}
}

func (t *Target) ItemLabel() Label { return t.Label }
func (t *Target) Kind() ItemKind   { return KindTarget }

// State returns the target's current resolution state.
func (t *Target) State() TargetState {
	return TargetState(atomic.LoadInt32(&t.state))
}

// SetState updates the target's resolution state.
func (t *Target) SetState(s TargetState) {
	atomic.StoreInt32(&t.state, int32(s))
}

// AllDeclaredDeps returns every label this target references as a
// dependency, across all four dependency lists, in the fixed order
// public/private/data/gen. The resolver walks this to find-or-create
// registry records (4.G step 1).
func (t *Target) AllDeclaredDeps() []Label {
	out := make([]Label, 0, t.PublicDeps.Len()+t.PrivateDeps.Len()+t.DataDeps.Len()+t.GenDeps.Len())
	out = append(out, t.PublicDeps.Labels()...)
	out = append(out, t.PrivateDeps.Labels()...)
	out = append(out, t.DataDeps.Labels()...)
	out = append(out, t.GenDeps.Labels()...)
	return out
}

// LinkDeps returns the dependency lists that participate in link/include
// propagation: public and private, but not data or gen deps.
func (t *Target) LinkDeps() []*DepList {
	return []*DepList{t.PublicDeps, t.PrivateDeps}
}

// AllConfigLabels returns every label referenced across configs,
// public_configs and all_dependent_configs, for the resolver to walk.
func (t *Target) AllConfigLabels() []Label {
	out := make([]Label, 0, t.Configs.Len()+t.PublicConfigs.Len()+t.AllDependentConfigs.Len())
	out = append(out, t.Configs.Labels()...)
	out = append(out, t.PublicConfigs.Labels()...)
	out = append(out, t.AllDependentConfigs.Labels()...)
	return out
}

// allDepsResolved reports whether every dependency list has a Target
// pointer for each of its entries.
func (t *Target) allDepsResolved() bool {
	return t.PublicDeps.AllResolved() && t.PrivateDeps.AllResolved() &&
		t.DataDeps.AllResolved() && t.GenDeps.AllResolved()
}

// CanSee reports whether t (the dependent) is permitted to depend on dep,
// per dep's visibility list. Targets in the same directory are always
// visible to one another, matching GN's "same BUILD.gn file" default.
func (dep *Target) CanSee(t *Target) bool {
	if dep.Label.Dir == t.Label.Dir {
		return true
	}
	if len(dep.Visibility) == 0 {
		return false
	}
	return LabelMatches(t.Label, dep.Visibility)
}

// CheckDependencyVisibility verifies every declared dependency of t is
// visible to it, returning a GenError describing the first violation found.
func (t *Target) CheckDependencyVisibility(graph *BuildGraph) *GenError {
	for _, label := range t.AllDeclaredDeps() {
		item, ok := graph.Item(label)
		if !ok {
			continue // missing-label errors are reported by the resolver itself
		}
		dep, ok := item.(*Target)
		if !ok {
			continue
		}
		if !dep.CanSee(t) {
			return NewError(ErrResolution, Location{}, "%s is not visible to %s", dep.Label, t.Label).
				WithHelp(fmt.Sprintf("add %s to the visibility list of %s, or depend on something else", t.Label, dep.Label))
		}
	}
	return nil
}

// ResolvedTargetData is the per-target memoized view described in 4.H.4: the
// flattened library/framework lists and the ordered inherited-libraries
// pairs, computed once and cached. Every field is populated together by the
// propagation engine's ComputeResolvedView (propagation.go); reads go
// through Resolved, which takes the target's mutex.
type ResolvedTargetData struct {
	AllLibDirs        []SourceDir
	AllLibs           []string
	AllFrameworkDirs  []string
	AllFrameworks     []string
	AllWeakFrameworks []string

	// InheritedLibraries is the ordered (lib-target, is_public) list from
	// 4.H.2.
	InheritedLibraries []InheritedLib

	// RecursiveHardDeps are targets that must finish building before this
	// one can (actions, generated files, bundle data feeding a
	// create_bundle), per 4.H.4.
	RecursiveHardDeps []*Target
}

// InheritedLib is one entry of the 4.H.2 inherited-libraries computation.
type InheritedLib struct {
	Target   *Target
	IsPublic bool
}

// Resolved returns the cached ResolvedTargetData, or nil if
// ComputeResolvedView hasn't run for this target yet.
func (t *Target) Resolved() *ResolvedTargetData {
	t.resolvedMu.Lock()
	defer t.resolvedMu.Unlock()
	return t.resolved
}

// setResolved installs the computed view. Only the propagation engine calls
// this, and it does so at most once per target.
func (t *Target) setResolved(data *ResolvedTargetData) {
	t.resolvedMu.Lock()
	defer t.resolvedMu.Unlock()
	t.resolved = data
}

// Targets is a sortable slice of *Target, ordered by label, used wherever
// deterministic output order matters (desc/refs listings, error messages).
type Targets []*Target

func (t Targets) Len() int      { return len(t) }
func (t Targets) Swap(i, j int) { t[i], t[j] = t[j], t[i] }
func (t Targets) Less(i, j int) bool {
	return Compare(t[i].Label, t[j].Label) < 0
}

var _ sort.Interface = Targets(nil)
