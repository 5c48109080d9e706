package lang

import (
	"github.com/forgebuild/bg/src/core"
)

// targetTypes maps the build-file-visible declaration keywords to the
// TargetType the constructed Target gets, mirroring spec.md 4.D's list of
// builtins ("executable, static_library, etc.").
var targetTypes = map[string]core.TargetType{
	"executable":            core.TypeExecutable,
	"shared_library":        core.TypeSharedLibrary,
	"loadable_module":       core.TypeLoadableModule,
	"static_library":        core.TypeStaticLibrary,
	"complete_static_lib":   core.TypeCompleteStaticLibrary,
	"source_set":            core.TypeSourceSet,
	"group":                 core.TypeGroup,
	"action":                core.TypeAction,
	"action_foreach":        core.TypeActionForEach,
	"copy":                  core.TypeCopy,
	"bundle_data":           core.TypeBundleData,
	"create_bundle":         core.TypeCreateBundle,
	"generated_file":        core.TypeGeneratedFile,
	"rust_library":          core.TypeRustLibrary,
	"rust_proc_macro":       core.TypeRustProcMacro,
}

// TargetTypeByName looks up a declaration keyword (e.g. "executable") the
// same way callFunction does, for front ends other than this package's own
// parser that still want to produce a core.Target through DeclareFromValues.
func TargetTypeByName(name string) (core.TargetType, bool) {
	tt, ok := targetTypes[name]
	return tt, ok
}

// AllTargetTypeNames returns every declaration keyword callFunction
// recognizes as a target type, for an alternate front-end that wants to
// predeclare one builtin per target type.
func AllTargetTypeNames() []string {
	names := make([]string, 0, len(targetTypes))
	for name := range targetTypes {
		names = append(names, name)
	}
	return names
}

// callFunction dispatches a FunctionCall to whichever of: a target-type
// declaration, a config/toolchain/pool/template declaration, declare_args,
// import, a user template invocation, or a value-returning builtin it
// names. It's the single entry point both statement execution and
// expression evaluation funnel through.
func (e *Evaluator) callFunction(call *FunctionCall, scope *Scope) Value {
	if tt, ok := targetTypes[call.Name]; ok {
		e.declareTarget(call, tt, scope)
		return None
	}
	switch call.Name {
	case "config":
		e.declareConfig(call, scope)
		return None
	case "toolchain":
		e.declareToolchain(call, scope)
		return None
	case "pool":
		e.declarePool(call, scope)
		return None
	case "template":
		e.declareTemplate(call, scope)
		return None
	case "declare_args":
		e.execDeclareArgs(call, scope)
		return None
	case "set_defaults":
		// Recognized but not applied: default-value templates for target
		// types aren't part of this evaluator's scope (spec.md's builtins
		// list names it; no scenario in spec.md 9 exercises it).
		return None
	case "import":
		e.execImport(call, scope)
		return None
	}
	if tmpl, ok := scope.Template(call.Name); ok {
		e.invokeTemplate(call, tmpl, scope)
		return None
	}
	if fn, ok := builtinFuncs[call.Name]; ok {
		args := e.evalArgs(call.Args, scope)
		return fn(e, scope, args, call.Pos)
	}
	e.fail(call.Pos, "undefined function %q", call.Name)
	panic("unreachable")
}

func (e *Evaluator) evalArgs(nodes []Node, scope *Scope) []Value {
	args := make([]Value, len(nodes))
	for i, n := range nodes {
		args[i] = e.evalExpr(n, scope)
	}
	return args
}

func (e *Evaluator) argString(args []Node, idx int, scope *Scope, pos Position, what string) string {
	if idx >= len(args) {
		e.fail(pos, "%s requires a %s argument", what, what)
	}
	v := e.evalExpr(args[idx], scope)
	if v.Kind != KindString {
		e.fail(pos, "%s's first argument must be a string, got %s", what, v.Kind)
	}
	return v.Str
}

// declareTarget executes call.Block in a fresh child scope, then builds a
// core.Target out of that scope's recognized variables (spec.md 4.D).
func (e *Evaluator) declareTarget(call *FunctionCall, tt core.TargetType, scope *Scope) {
	name := e.argString(call.Args, 0, scope, call.Pos, "target_name")
	child := NewScope(scope)
	child.SetValue("target_name", NewString(name), call.Pos)
	if call.Block != nil {
		e.execBlock(call.Block, child)
	}
	e.declareTargetFromScope(name, tt, child, call.Pos)
}

// declareTargetFromScope builds and declares a core.Target from child's
// recognized variables. It's the single place a target actually gets
// constructed, so that both a native target-type call and an alternate
// front-end (see DeclareFromValues) produce identically-shaped targets.
func (e *Evaluator) declareTargetFromScope(name string, tt core.TargetType, child *Scope, pos Position) *core.Target {
	label := core.NewLabel(e.CurrentDir, name)
	if !e.CurrentToolchain.IsNull() {
		label = label.WithToolchain(e.CurrentToolchain.DirPath(), e.CurrentToolchain.Name.String())
	}
	target := core.NewTarget(label, e.Settings, tt)
	e.populateTarget(target, child, pos)
	e.Resolver.DeclareTarget(target)
	e.Declared = append(e.Declared, target)
	return target
}

// DeclareFromValues lets an alternate front-end construct a target without
// going through this package's own tokenizer/parser — the loader's
// TryLoadAlternate hook uses this to feed targets parsed by a different
// front-end (spec.md 4.E step 3) through the identical populateTarget path
// a native `executable(...) { ... }` call would use, so the two front ends
// can never disagree about what a recognized field means.
func (e *Evaluator) DeclareFromValues(name string, tt core.TargetType, fields map[string]Value, pos Position) *core.Target {
	child := NewScope(nil)
	child.SetValue("target_name", NewString(name), pos)
	for k, v := range fields {
		child.SetValue(k, v, pos)
	}
	return e.declareTargetFromScope(name, tt, child, pos)
}

func stringsOf(e *Evaluator, child *Scope, name string, pos Position) ([]string, bool) {
	v, ok := child.GetValue(name)
	if !ok {
		return nil, false
	}
	ss, err := v.Strings()
	if err != nil {
		e.fail(pos, "%s: %s", name, err.Error())
	}
	return ss, true
}

func (e *Evaluator) populateTarget(t *core.Target, child *Scope, pos Position) {
	if ss, ok := stringsOf(e, child, "sources", pos); ok {
		for _, s := range ss {
			t.Sources = append(t.Sources, core.NewSourceFile(s, e.CurrentDir))
		}
	}
	if ss, ok := stringsOf(e, child, "public", pos); ok {
		for _, s := range ss {
			t.PublicHeaders = append(t.PublicHeaders, core.NewSourceFile(s, e.CurrentDir))
		}
	}
	if ss, ok := stringsOf(e, child, "inputs", pos); ok {
		for _, s := range ss {
			t.Inputs = append(t.Inputs, core.NewSourceFile(s, e.CurrentDir))
		}
	}
	if ss, ok := stringsOf(e, child, "data", pos); ok {
		for _, s := range ss {
			t.Data = append(t.Data, core.NewSourceFile(s, e.CurrentDir))
		}
	}
	e.addLabels(child, "deps", pos, t.PrivateDeps.Add)
	e.addLabels(child, "public_deps", pos, t.PublicDeps.Add)
	e.addLabels(child, "data_deps", pos, t.DataDeps.Add)
	e.addLabels(child, "gen_deps", pos, t.GenDeps.Add)
	e.addLabels(child, "configs", pos, t.Configs.Add)
	e.addLabels(child, "public_configs", pos, t.PublicConfigs.Add)
	e.addLabels(child, "all_dependent_configs", pos, t.AllDependentConfigs.Add)

	if ss, ok := stringsOf(e, child, "defines", pos); ok {
		t.ConfigValues.Defines = ss
	}
	if ss, ok := stringsOf(e, child, "cflags", pos); ok {
		t.ConfigValues.CFlags = ss
	}
	if ss, ok := stringsOf(e, child, "cflags_c", pos); ok {
		t.ConfigValues.CFlagsC = ss
	}
	if ss, ok := stringsOf(e, child, "cflags_cc", pos); ok {
		t.ConfigValues.CFlagsCC = ss
	}
	if ss, ok := stringsOf(e, child, "ldflags", pos); ok {
		t.ConfigValues.LDFlags = ss
	}
	if ss, ok := stringsOf(e, child, "libs", pos); ok {
		t.ConfigValues.Libs = ss
	}
	if ss, ok := stringsOf(e, child, "frameworks", pos); ok {
		t.ConfigValues.Frameworks = ss
	}
	if ss, ok := stringsOf(e, child, "weak_frameworks", pos); ok {
		t.ConfigValues.WeakFrameworks = ss
	}
	if ss, ok := stringsOf(e, child, "lib_dirs", pos); ok {
		for _, s := range ss {
			t.ConfigValues.LibDirs = append(t.ConfigValues.LibDirs, core.NewSourceDir(s, e.CurrentDir))
		}
	}
	if ss, ok := stringsOf(e, child, "include_dirs", pos); ok {
		for _, s := range ss {
			t.ConfigValues.IncludeDirs = append(t.ConfigValues.IncludeDirs, core.NewSourceDir(s, e.CurrentDir))
		}
	}
	if v, ok := child.GetValue("visibility"); ok {
		t.Visibility = e.parsePatterns(v, pos)
	}
	if v, ok := child.GetValue("assert_no_deps"); ok {
		t.AssertNoDeps = e.parsePatterns(v, pos)
	}
	if v, ok := child.GetValue("all_headers_public"); ok {
		t.AllHeadersPublic = v.IsTruthy()
	}
	if v, ok := child.GetValue("crate_name"); ok && v.Kind == KindString {
		t.CrateName = v.Str
	}
	if v, ok := child.GetValue("crate_root"); ok && v.Kind == KindString {
		t.CrateRoot = core.NewSourceFile(v.Str, e.CurrentDir)
	}
	if v, ok := child.GetValue("crate_type"); ok && v.Kind == KindString {
		t.CrateType = v.Str
	}
}

func (e *Evaluator) addLabels(child *Scope, name string, pos Position, add func(core.Label) bool) {
	ss, ok := stringsOf(e, child, name, pos)
	if !ok {
		return
	}
	for _, s := range ss {
		l, err := core.ParseLabel(s, e.CurrentDir, e.CurrentToolchain)
		if err != nil {
			e.fail(pos, "%s: %s", name, err.Error())
		}
		add(l)
	}
}

func (e *Evaluator) parsePatterns(v Value, pos Position) []core.LabelPattern {
	ss, err := v.Strings()
	if err != nil {
		e.fail(pos, "%s", err.Error())
	}
	out := make([]core.LabelPattern, len(ss))
	for i, s := range ss {
		p, err := core.ParseLabelPattern(s, e.CurrentDir)
		if err != nil {
			e.fail(pos, "%s", err.Error())
		}
		out[i] = p
	}
	return out
}

// declareConfig builds a core.Config. Like targets, a config declared in a
// BUILD file is implicitly qualified by whatever toolchain is evaluating
// that file — the same source config can be instantiated once per
// toolchain, each with that toolchain's own config() label — so it carries
// the same toolchain qualifier addLabels already applies when resolving a
// `configs = [...]` reference to it.
func (e *Evaluator) declareConfig(call *FunctionCall, scope *Scope) {
	name := e.argString(call.Args, 0, scope, call.Pos, "config_name")
	label := core.NewLabel(e.CurrentDir, name)
	if !e.CurrentToolchain.IsNull() {
		label = label.WithToolchain(e.CurrentToolchain.DirPath(), e.CurrentToolchain.Name.String())
	}
	child := NewScope(scope)
	if call.Block != nil {
		e.execBlock(call.Block, child)
	}
	cfg := &core.Config{Label: label}
	if ss, ok := stringsOf(e, child, "defines", call.Pos); ok {
		cfg.Defines = ss
	}
	if ss, ok := stringsOf(e, child, "cflags", call.Pos); ok {
		cfg.CFlags = ss
	}
	if ss, ok := stringsOf(e, child, "cflags_cc", call.Pos); ok {
		cfg.CXXFlags = ss
	}
	if ss, ok := stringsOf(e, child, "ldflags", call.Pos); ok {
		cfg.LDFlags = ss
	}
	if ss, ok := stringsOf(e, child, "libs", call.Pos); ok {
		cfg.Libs = ss
	}
	if ss, ok := stringsOf(e, child, "lib_dirs", call.Pos); ok {
		for _, s := range ss {
			cfg.LibDirs = append(cfg.LibDirs, core.NewSourceDir(s, e.CurrentDir))
		}
	}
	if ss, ok := stringsOf(e, child, "include_dirs", call.Pos); ok {
		for _, s := range ss {
			cfg.Includes = append(cfg.Includes, core.NewSourceDir(s, e.CurrentDir))
		}
	}
	e.addLabels(child, "configs", call.Pos, func(l core.Label) bool {
		cfg.Configs = append(cfg.Configs, l)
		return true
	})
	e.Resolver.DeclareConfig(cfg)
}

// declareToolchain builds a core.Toolchain, recognizing nested
// `tool("name") { command=... }` calls in its block specially since those
// aren't separately addressable items (spec.md GLOSSARY: "Toolchain").
func (e *Evaluator) declareToolchain(call *FunctionCall, scope *Scope) {
	name := e.argString(call.Args, 0, scope, call.Pos, "toolchain_name")
	label := core.NewLabel(e.CurrentDir, name)
	tc := &core.Toolchain{Label: label, Tools: map[string]*core.Tool{}}
	child := NewScope(scope)
	if call.Block != nil {
		for _, stmt := range call.Block.Statements {
			fc, ok := stmt.(*FunctionCall)
			if ok && fc.Name == "tool" {
				e.declareTool(fc, tc, child)
				continue
			}
			e.execStatement(stmt, child)
		}
	}
	e.addLabels(child, "deps", call.Pos, func(l core.Label) bool {
		tc.Deps = append(tc.Deps, l)
		return true
	})
	if v, ok := child.GetValue("pool"); ok && v.Kind == KindString {
		p, err := core.ParseLabel(v.Str, e.CurrentDir, core.Label{})
		if err != nil {
			e.fail(call.Pos, "%s", err.Error())
		}
		tc.Pool = p
	}
	e.Resolver.DeclareToolchain(tc)
}

func (e *Evaluator) declareTool(call *FunctionCall, tc *core.Toolchain, scope *Scope) {
	name := e.argString(call.Args, 0, scope, call.Pos, "tool_name")
	child := NewScope(scope)
	if call.Block != nil {
		e.execBlock(call.Block, child)
	}
	tool := &core.Tool{Name: name}
	if v, ok := child.GetValue("command"); ok && v.Kind == KindString {
		tool.Command = v.Str
	}
	if v, ok := child.GetValue("description"); ok && v.Kind == KindString {
		tool.Description = v.Str
	}
	if v, ok := child.GetValue("depfile"); ok && v.Kind == KindString {
		tool.Depfile = v.Str
	}
	if v, ok := child.GetValue("restat"); ok {
		tool.Restat = v.IsTruthy()
	}
	if ss, ok := stringsOf(e, child, "outputs", call.Pos); ok {
		tool.Outputs = ss
	}
	tc.Tools[name] = tool
}

func (e *Evaluator) declarePool(call *FunctionCall, scope *Scope) {
	name := e.argString(call.Args, 0, scope, call.Pos, "pool_name")
	label := core.NewLabel(e.CurrentDir, name)
	child := NewScope(scope)
	if call.Block != nil {
		e.execBlock(call.Block, child)
	}
	pool := &core.Pool{Label: label}
	if v, ok := child.GetValue("depth"); ok && v.Kind == KindInt {
		pool.Depth = int(v.Int)
	}
	e.Resolver.DeclarePool(pool)
}

func (e *Evaluator) declareTemplate(call *FunctionCall, scope *Scope) {
	name := e.argString(call.Args, 0, scope, call.Pos, "template_name")
	if call.Block == nil {
		e.fail(call.Pos, "template(%q) requires a block body", name)
	}
	scope.RegisterTemplate(&Template{Name: name, Body: call.Block, DefiningScope: scope})
}

// invokeTemplate runs tmpl.Body in a child of its defining scope, binding
// `invoker` to the caller's local scope (spec.md 4.D). The template's body
// typically itself calls a target-type declaration using target_name,
// which is how the expansion actually produces a Target.
func (e *Evaluator) invokeTemplate(call *FunctionCall, tmpl *Template, scope *Scope) {
	name := e.argString(call.Args, 0, scope, call.Pos, "target_name")
	// The call's own block is executed first, in a scope chained off the
	// caller's local scope; its resulting bindings become `invoker` inside
	// the template body (spec.md 4.D).
	invokerScope := NewScope(scope)
	invokerScope.SetValue("target_name", NewString(name), call.Pos)
	if call.Block != nil {
		e.execBlock(call.Block, invokerScope)
	}
	child := NewScope(tmpl.DefiningScope)
	child.SetValue("target_name", NewString(name), call.Pos)
	child.Invoker = invokerScope
	child.SetValue("invoker", NewScopeValue(invokerScope), call.Pos)
	e.execBlock(tmpl.Body, child)
}

// execDeclareArgs runs call.Block in a scratch scope to discover each
// arg's default value, then binds the final value (an override from
// e.Args if present, else the default) into the enclosing scope — GN's
// declare_args()/--args override semantics (spec.md §6).
func (e *Evaluator) execDeclareArgs(call *FunctionCall, scope *Scope) {
	if call.Block == nil {
		return
	}
	defaults := NewScope(nil)
	e.execBlock(call.Block, defaults)
	for _, name := range defaults.Names() {
		def, _ := defaults.GetValue(name)
		if override, ok := e.Args[name]; ok {
			scope.SetValue(name, override, call.Pos)
		} else {
			scope.SetValue(name, def, call.Pos)
		}
	}
}

func (e *Evaluator) execImport(call *FunctionCall, scope *Scope) {
	path := e.argString(call.Args, 0, scope, call.Pos, "import path")
	if e.Importer == nil {
		e.fail(call.Pos, "import(%q): no importer configured", path)
	}
	imported, err := e.Importer.Import(path, e.CurrentDir)
	if err != nil {
		e.fail(call.Pos, "import(%q): %s", path, err.Error())
	}
	scope.MergeNonPrivate(imported)
}
