package loader

import (
	"fmt"
	"os"

	"github.com/forgebuild/bg/src/core"
	"github.com/forgebuild/bg/src/lang"
)

// DotfileName is the root-identifying file spec.md §6 describes: "The root
// directory is identified by a .gn dotfile whose evaluation yields: the
// build-config file path, default args, check-dependent-configs policy, and
// other build-wide toggles."
const DotfileName = ".gn"

// BootstrapResult carries everything evaluating the root dotfile produced,
// plus the constructed Loader ready for its first Enqueue.
type BootstrapResult struct {
	Loader           *Loader
	DefaultToolchain core.Label
	Build            *core.BuildSettings
}

// Bootstrap reads and evaluates sourceRoot's ".gn" dotfile, builds the
// shared core.BuildSettings from it, and constructs a Loader. argOverrides
// are applied on top of the defaults read from the file the dotfile's
// "args_file" names (matching GN's
// "--args on the command line wins over args.gn" precedence).
func Bootstrap(sourceRoot, buildDir string, argOverrides map[string]string, numWorkers int) (*BootstrapResult, error) {
	dotfilePath := sourceRoot + "/" + DotfileName
	data, err := os.ReadFile(dotfilePath)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", dotfilePath, err)
	}
	blk, err := lang.Parse(DotfileName, data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", dotfilePath, err)
	}

	graph := core.NewGraph()
	errs := core.NewErrorList()
	resolver := core.NewResolver(graph, errs)

	build := &core.BuildSettings{
		SourceRoot: sourceRoot,
		BuildDir:   core.NewSourceDir(buildDir, "//"),
		Args:       map[string]string{},
	}

	scope := lang.NewScope(nil)
	e := &lang.Evaluator{
		Graph:       graph,
		Resolver:    resolver,
		Settings:    &core.Settings{Build: build},
		Args:        map[string]lang.Value{},
		CurrentDir:  core.SourceDir("//"),
		CurrentFile: core.SourceFile("//" + DotfileName),
	}
	if gerr := e.EvalFile(blk, scope); gerr != nil {
		return nil, fmt.Errorf("evaluating %s: %s", dotfilePath, gerr.Error())
	}

	if v, ok := scope.GetValue("buildconfig"); ok && v.Kind == lang.KindString {
		build.BuildConfigFile = core.NewSourceFile(v.Str, "//")
	}
	if v, ok := scope.GetValue("check_dependent_configs"); ok {
		build.CheckDependentConfigs = v.IsTruthy()
	}
	// default args live in their own plain-assignment file (GN's own
	// "args.gn" convention), named by the dotfile rather than written
	// inline, since this language has no bare scope-literal expression to
	// assign a block of defaults to a variable directly.
	if v, ok := scope.GetValue("args_file"); ok && v.Kind == lang.KindString {
		defaults, err := loadArgsFile(sourceRoot, v.Str)
		if err != nil {
			return nil, err
		}
		for name, value := range defaults {
			build.Args[name] = value
		}
	}
	for name, value := range argOverrides {
		build.Args[name] = value
	}

	var defaultToolchain core.Label
	if v, ok := scope.GetValue("default_toolchain"); ok && v.Kind == lang.KindString {
		defaultToolchain, err = core.ParseLabel(v.Str, core.SourceDir("//"), core.NullLabel)
		if err != nil {
			return nil, fmt.Errorf("default_toolchain: %w", err)
		}
	}

	l := NewLoader(graph, resolver, errs, build, numWorkers)
	l.DefaultToolchain = defaultToolchain
	l.Alternate = NewStarlarkAlternate()

	return &BootstrapResult{Loader: l, DefaultToolchain: defaultToolchain, Build: build}, nil
}

// loadArgsFile reads and evaluates rel (a source-relative path to a plain
// assignment file, GN's "args.gn" convention) and stringifies every
// top-level binding it makes, for use as a declare_args() override.
func loadArgsFile(sourceRoot, rel string) (map[string]string, error) {
	trimmed := rel
	if len(trimmed) >= 2 && trimmed[:2] == "//" {
		trimmed = trimmed[2:]
	}
	full := sourceRoot + "/" + trimmed
	data, err := os.ReadFile(full)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading args file %s: %w", full, err)
	}
	blk, err := lang.Parse(rel, data)
	if err != nil {
		return nil, fmt.Errorf("parsing args file %s: %w", full, err)
	}
	scope := lang.NewScope(nil)
	e := &lang.Evaluator{Args: map[string]lang.Value{}, CurrentDir: core.SourceDir("//")}
	if gerr := e.EvalFile(blk, scope); gerr != nil {
		return nil, fmt.Errorf("evaluating args file %s: %s", full, gerr.Error())
	}
	out := map[string]string{}
	for _, name := range scope.Names() {
		v, _ := scope.GetValue(name)
		out[name] = stringifyArg(v)
	}
	return out, nil
}

func stringifyArg(v lang.Value) string {
	switch v.Kind {
	case lang.KindString:
		return v.Str
	case lang.KindBool:
		if v.Bool {
			return "true"
		}
		return "false"
	case lang.KindInt:
		return fmt.Sprintf("%d", v.Int)
	default:
		return ""
	}
}
