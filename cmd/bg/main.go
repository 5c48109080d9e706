// Command bg is the meta-build generator's entry point: it loads a source
// tree, resolves the declared target graph, and hands the resolved view to
// whichever writer the invoked verb asks for.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/forgebuild/bg/src/cli"
	"github.com/forgebuild/bg/src/cli/logging"
	"github.com/forgebuild/bg/src/core"
	"github.com/forgebuild/bg/src/loader"
	"github.com/forgebuild/bg/src/write/compiledb"
	"github.com/forgebuild/bg/src/write/ninja"
	"github.com/forgebuild/bg/src/write/strictdeps"
)

var log = logging.Log

const version = "0.1.0"

var opts struct {
	Usage string `usage:"bg is a meta-build generator: it reads a tree of declarative build files and produces Ninja build files from the resolved target graph."`

	RepoFlags struct {
		RepoRoot string   `short:"r" long:"repo_root" description:"Root of the source tree (defaults to the current directory)."`
		Args     []string `long:"args" description:"Build argument override, name=value. May be repeated."`
	} `group:"Options controlling what's loaded"`

	OutputFlags struct {
		Verbosity string `short:"v" long:"verbosity" description:"Log verbosity (critical, error, warning, notice, info, debug)." default:"notice"`
	} `group:"Options controlling output"`

	HelpFlags struct {
		Version bool `long:"version" description:"Print the version of bg"`
	} `group:"Help Options"`

	Gen struct {
		Args struct {
			OutDir string `positional-arg-name:"out_dir" description:"Build output directory, e.g. out/Default"`
		} `positional-args:"true" required:"true"`
		CompileCommands bool `long:"compile_commands" description:"Also emit a compile_commands.json alongside the ninja files."`
		StrictDeps      bool `long:"strict_deps" description:"Also emit the auxiliary strict-deps JSON document."`
	} `command:"gen" description:"Loads, resolves, and writes Ninja build files for a build directory"`

	Desc struct {
		Args struct {
			Label string `positional-arg-name:"label" description:"Label of the target to describe"`
		} `positional-args:"true" required:"true"`
	} `command:"desc" description:"Prints the resolved view of a single target"`

	Check struct {
	} `command:"check" description:"Loads and resolves the tree, reporting errors without writing any output"`

	Refs struct {
		Args struct {
			Label string `positional-arg-name:"label" description:"Label to find dependents of"`
		} `positional-args:"true" required:"true"`
	} `command:"refs" description:"Lists every target that depends on the given label"`

	Format struct {
		Args struct {
			Files []string `positional-arg-name:"files" description:"Build files to format in place"`
		} `positional-args:"true"`
	} `command:"format" description:"Reformats build files canonically (not yet implemented)"`

	Clean struct {
		Args struct {
			OutDir string `positional-arg-name:"out_dir" description:"Build output directory to remove"`
		} `positional-args:"true" required:"true"`
	} `command:"clean" description:"Removes a build output directory"`
}

func main() {
	parser, _ := cli.ParseFlagsOrDie("bg", version, &opts)
	if opts.HelpFlags.Version {
		fmt.Printf("bg version %s\n", version)
		os.Exit(0)
	}
	logging.SetLevel(verbosityLevel(opts.OutputFlags.Verbosity))

	repoRoot := opts.RepoFlags.RepoRoot
	if repoRoot == "" {
		wd, err := os.Getwd()
		if err != nil {
			log.Fatalf("Couldn't determine working directory: %s", err)
		}
		repoRoot = wd
	}
	repoRoot, err := filepath.Abs(repoRoot)
	if err != nil {
		log.Fatalf("Couldn't resolve repo root %s: %s", repoRoot, err)
	}

	toolConfig, err := core.ReadToolConfig(repoRoot)
	if err != nil {
		log.Fatalf("Couldn't read tool config: %s", err)
	}

	argOverrides, err := cli.ParseBuildArgs(opts.RepoFlags.Args)
	if err != nil {
		log.Fatalf("%s", err)
	}

	command := parser.Active
	if command == nil {
		parser.WriteHelp(os.Stderr)
		os.Exit(1)
	}

	var buildDir string
	switch command.Name {
	case "gen":
		buildDir = opts.Gen.Args.OutDir
	case "clean":
		buildDir = opts.Clean.Args.OutDir
	default:
		buildDir = toolConfig.Build.DefaultOutDir
	}

	if command.Name == "clean" {
		os.Exit(runClean(repoRoot, buildDir))
	}

	graph, errs, err := loader.Run(repoRoot, buildDir, argOverrides, toolConfig.Build.NumThreads)
	if err != nil {
		log.Fatalf("%s", err)
	}
	if !errs.Empty() {
		fmt.Fprint(os.Stderr, errs.Error())
		os.Exit(1)
	}

	var code int
	switch command.Name {
	case "gen":
		code = runGen(graph, buildDir)
	case "desc":
		code = runDesc(graph, opts.Desc.Args.Label)
	case "check":
		code = 0 // loader.Run already drained and reported errors above
	case "refs":
		code = runRefs(graph, opts.Refs.Args.Label)
	case "format":
		log.Error("format is not yet implemented")
		code = 1
	default:
		parser.WriteHelp(os.Stderr)
		code = 1
	}
	os.Exit(code)
}

func runGen(graph *core.BuildGraph, buildDir string) int {
	build := firstBuildSettings(graph)
	if build == nil {
		log.Error("no targets were declared; nothing to generate")
		return 1
	}

	w := ninja.New(graph, build)
	defaultTarget := pickDefaultTarget(graph)
	rootPath, err := w.WriteFiles(defaultTarget)
	if err != nil {
		log.Error("writing ninja files: %s", err)
		return 1
	}
	log.Notice("Wrote %s", rootPath)

	if opts.Gen.CompileCommands {
		path := filepath.Join(build.SourceRoot, trimSourcePrefix(string(build.BuildDir)), "compile_commands.json")
		if err := compiledb.Write(graph, build, path); err != nil {
			log.Error("writing compile_commands.json: %s", err)
			return 1
		}
		log.Notice("Wrote %s", path)
	}
	if opts.Gen.StrictDeps {
		path := filepath.Join(build.SourceRoot, trimSourcePrefix(string(build.BuildDir)), "strict_deps.json")
		if err := strictdeps.Write(graph, path); err != nil {
			log.Error("writing strict_deps.json: %s", err)
			return 1
		}
		log.Notice("Wrote %s", path)
	}
	return 0
}

func runDesc(graph *core.BuildGraph, rawLabel string) int {
	label, err := core.ParseLabel(rawLabel, core.SourceDir("//"), defaultToolchainOf(graph))
	if err != nil {
		log.Error("%s", err)
		return 1
	}
	target := graph.Target(label)
	if target == nil {
		log.Error("no such target: %s", label)
		return 1
	}
	fmt.Printf("%s\n", target.Label)
	fmt.Printf("  type: %s\n", target.Type)
	fmt.Printf("  sources:\n")
	for _, s := range target.Sources {
		fmt.Printf("    %s\n", s)
	}
	fmt.Printf("  public_deps:\n")
	for _, ref := range target.PublicDeps.Refs() {
		fmt.Printf("    %s\n", ref.Label)
	}
	fmt.Printf("  deps:\n")
	for _, ref := range target.PrivateDeps.Refs() {
		fmt.Printf("    %s\n", ref.Label)
	}
	view := core.ComputeResolvedView(target)
	fmt.Printf("  libs: %v\n", view.AllLibs)
	fmt.Printf("  lib_dirs: %v\n", view.AllLibDirs)
	return 0
}

func runRefs(graph *core.BuildGraph, rawLabel string) int {
	label, err := core.ParseLabel(rawLabel, core.SourceDir("//"), defaultToolchainOf(graph))
	if err != nil {
		log.Error("%s", err)
		return 1
	}
	for _, dependent := range graph.ReverseDependencies(label) {
		fmt.Printf("%s\n", dependent)
	}
	return 0
}

func runClean(repoRoot, buildDir string) int {
	if buildDir == "" {
		log.Error("clean requires a build output directory")
		return 1
	}
	trimmed := trimSourcePrefix(buildDir)
	full := filepath.Join(repoRoot, trimmed)
	if err := os.RemoveAll(full); err != nil {
		log.Error("removing %s: %s", full, err)
		return 1
	}
	log.Notice("Removed %s", full)
	return 0
}

// firstBuildSettings recovers the shared *core.BuildSettings from any
// declared target; every target's Settings.Build points at the same
// instance regardless of toolchain, so the first one found is as good as
// any other.
func firstBuildSettings(graph *core.BuildGraph) *core.BuildSettings {
	for _, t := range graph.AllTargets() {
		if t.Settings != nil {
			return t.Settings.Build
		}
	}
	return nil
}

// defaultToolchainOf recovers the default-toolchain label the loader
// resolved labels against, the same way firstBuildSettings recovers the
// shared BuildSettings: every target's Settings carries it, so the first
// target found is as good as any other.
func defaultToolchainOf(graph *core.BuildGraph) core.Label {
	for _, t := range graph.AllTargets() {
		if t.Settings != nil {
			return t.Settings.DefaultToolchain
		}
	}
	return core.NullLabel
}

// pickDefaultTarget returns the root-directory "all" group if one was
// declared, falling back to the first target in label order so `gen` always
// has something to point the ninja "default" statement at.
func pickDefaultTarget(graph *core.BuildGraph) core.Label {
	all := graph.AllTargets()
	for _, t := range all {
		if t.Label.DirPath() == core.SourceDir("//") && t.Label.Name.String() == "all" {
			return t.Label
		}
	}
	if len(all) > 0 {
		return all[0].Label
	}
	return core.NullLabel
}

func trimSourcePrefix(s string) string {
	if len(s) >= 2 && s[:2] == "//" {
		return s[2:]
	}
	return s
}

func verbosityLevel(v string) logging.Level {
	switch v {
	case "critical":
		return logging.CRITICAL
	case "error":
		return logging.ERROR
	case "warning":
		return logging.WARNING
	case "info":
		return logging.INFO
	case "debug":
		return logging.DEBUG
	default:
		return logging.NOTICE
	}
}
