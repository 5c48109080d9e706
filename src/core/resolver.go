package core

// Resolver implements component G: as items are declared it links their
// declared references to other items, and once every reference a target
// makes is satisfied it finalizes that target (OnResolved in spec terms:
// merge configs, assemble config_values, mark state Resolved).
//
// Linking is idempotent and re-entrant by design: rather than track a
// precise per-owner pending count that must be decremented exactly once
// per satisfied reference (which risks double-counting under concurrent
// declarations), tryResolve simply re-attempts every one of a target's
// references each time any of them might have become available, and only
// registers the ones still missing as fresh waiters. A target can be
// re-attempted arbitrarily many times; finalizing only ever happens once,
// guarded by its state.
type Resolver struct {
	graph *BuildGraph
	errs  *ErrorList
}

// NewResolver returns a Resolver that reports failures into errs.
func NewResolver(graph *BuildGraph, errs *ErrorList) *Resolver {
	return &Resolver{graph: graph, errs: errs}
}

// DeclareTarget registers t in the graph, wakes anything waiting on its
// label, and attempts to resolve t itself.
func (r *Resolver) DeclareTarget(t *Target) {
	if err := r.graph.Declare(t); err != nil {
		r.errs.Add(err)
		return
	}
	r.satisfyWaiters(t.Label)
	r.tryResolve(t)
}

// DeclareConfig registers a Config and wakes anything waiting on it.
func (r *Resolver) DeclareConfig(c *Config) {
	if err := r.graph.Declare(c); err != nil {
		r.errs.Add(err)
		return
	}
	r.satisfyWaiters(c.Label)
}

// DeclareToolchain registers a Toolchain and wakes anything waiting on it.
func (r *Resolver) DeclareToolchain(tc *Toolchain) {
	if err := r.graph.Declare(tc); err != nil {
		r.errs.Add(err)
		return
	}
	r.satisfyWaiters(tc.Label)
}

// DeclarePool registers a Pool and wakes anything waiting on it.
func (r *Resolver) DeclarePool(p *Pool) {
	if err := r.graph.Declare(p); err != nil {
		r.errs.Add(err)
		return
	}
	r.satisfyWaiters(p.Label)
}

// satisfyWaiters retries resolution for every target that had registered a
// pending reference to label.
func (r *Resolver) satisfyWaiters(label Label) {
	deps, configs := r.graph.takeWaiters(label)
	seen := make(map[Label]bool, len(deps)+len(configs))
	retry := func(owner Label) {
		if seen[owner] {
			return
		}
		seen[owner] = true
		if t := r.graph.Target(owner); t != nil {
			r.tryResolve(t)
		}
	}
	for _, owner := range deps {
		retry(owner)
	}
	for _, owner := range configs {
		retry(owner)
	}
}

// toolchainLabelOf returns the label of the toolchain() declaration itself,
// given a ToolchainKey naming it. Toolchains are always declared in the
// default toolchain context, so the label carries no ToolchainKey of its
// own.
func toolchainLabelOf(tk ToolchainKey) Label {
	return Label{Dir: tk.Dir, Name: tk.Name}
}

// tryResolve attempts to link every reference t declares (deps, configs,
// its own toolchain). References still missing register t as a waiter;
// once nothing is missing, t is finalized exactly once.
func (r *Resolver) tryResolve(t *Target) {
	if t.State() == Resolved || t.State() == Failed {
		return
	}
	missing := false

	linkDep := func(label Label) {
		item, ok := r.graph.Item(label)
		if !ok {
			missing = true
			r.graph.addDepWaiter(label, t.Label, Location{})
			return
		}
		dep, ok := item.(*Target)
		if !ok {
			r.errs.Add(NewError(ErrResolution, Location{}, "%s depends on %s, which is not a target", t.Label, label))
			return
		}
		t.PublicDeps.Resolve(label, dep)
		t.PrivateDeps.Resolve(label, dep)
		t.DataDeps.Resolve(label, dep)
		t.GenDeps.Resolve(label, dep)
		r.graph.AddDependency(t.Label, label)
	}
	linkConfig := func(label Label) {
		item, ok := r.graph.Item(label)
		if !ok {
			missing = true
			r.graph.addConfigWaiter(label, t.Label, Location{})
			return
		}
		cfg, ok := item.(*Config)
		if !ok {
			r.errs.Add(NewError(ErrResolution, Location{}, "%s references %s as a config, but it isn't one", t.Label, label))
			return
		}
		t.Configs.Resolve(label, cfg)
		t.PublicConfigs.Resolve(label, cfg)
		t.AllDependentConfigs.Resolve(label, cfg)
	}

	for _, l := range t.AllDeclaredDeps() {
		linkDep(l)
	}
	for _, l := range t.AllConfigLabels() {
		linkConfig(l)
	}
	if t.Toolchain == nil && t.Label.Toolchain.IsSet() {
		tcLabel := toolchainLabelOf(t.Label.Toolchain)
		item, ok := r.graph.Item(tcLabel)
		if !ok {
			missing = true
			r.graph.addDepWaiter(tcLabel, t.Label, Location{})
		} else if tc, ok := item.(*Toolchain); ok {
			t.Toolchain = tc
		} else {
			r.errs.Add(NewError(ErrResolution, Location{}, "%s is not a toolchain", tcLabel))
		}
	}

	if missing {
		t.SetState(PendingDeps)
		return
	}
	r.finalize(t)
}

// finalize runs OnResolved: expands this target's own configs (including
// each config's own sub-configs, recursively, in declaration order) into
// its merged ConfigValues, checks dependency visibility, and marks the
// target Resolved. Transitive propagation across the dependency DAG
// (inherited libraries, all_dependent_configs from dependencies, ordered
// traversal) is component H's job, run separately once the whole graph has
// settled — not part of per-target finalization.
func (r *Resolver) finalize(t *Target) {
	if t.State() == Resolved {
		return
	}
	seen := map[Label]bool{}
	for _, ref := range t.Configs.Refs() {
		if ref.Config != nil {
			mergeConfigInto(r.graph, &t.ConfigValues, ref.Config, seen)
		}
	}
	if err := t.CheckDependencyVisibility(r.graph); err != nil {
		r.errs.Add(err)
		t.SetState(Failed)
		return
	}
	t.SetState(Resolved)
}

// mergeConfigInto folds cfg's own config_values into dst, first recursing
// into cfg's sub-configs so they take effect before cfg's own direct
// values (matching 4.H.1's first-insertion-order rule applied depth-first).
// Sub-configs are looked up in graph; one that is not declared by the time
// the owning target is finalized is skipped, as the resolver does not wait
// on sub-config labels.
func mergeConfigInto(graph *BuildGraph, dst *ConfigValues, cfg *Config, seen map[Label]bool) {
	if seen[cfg.Label] {
		return
	}
	seen[cfg.Label] = true
	// Sub-configs' values are applied before cfg's own so that a config
	// forwarding to another takes effect in declaration order.
	for _, sub := range cfg.Configs {
		if subCfg := graph.Config(sub); subCfg != nil {
			mergeConfigInto(graph, dst, subCfg, seen)
		}
	}
	values := &ConfigValues{
		Defines:  cfg.Defines,
		CFlags:   cfg.CFlags,
		CFlagsCC: cfg.CXXFlags,
		LDFlags:  cfg.LDFlags,
		Libs:     cfg.Libs,
	}
	for _, dir := range cfg.Includes {
		values.IncludeDirs = append(values.IncludeDirs, dir)
	}
	for _, dir := range cfg.LibDirs {
		values.LibDirs = append(values.LibDirs, dir)
	}
	dst.Append(values)
}
