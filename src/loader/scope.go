package loader

import (
	"fmt"
	"os"

	"github.com/forgebuild/bg/src/core"
	"github.com/forgebuild/bg/src/lang"
)

// rootScopeFor returns the toolchain's root scope: the result of evaluating
// the configured build-config file once for that toolchain (spec.md 4.E
// step 5, "a fresh child scope of the toolchain's root scope"). If no
// build-config file is configured, every toolchain gets an empty root
// scope.
func (l *Loader) rootScopeFor(toolchain core.Label) (*lang.Scope, error) {
	key := toolchain.String()

	l.scopeMu.Lock()
	if scope, ok := l.toolchainScopes[key]; ok {
		l.scopeMu.Unlock()
		return scope, nil
	}
	l.scopeMu.Unlock()

	// Two workers can race to build the same toolchain's root scope; both
	// do the work and the second one's result simply gets discarded. The
	// buildconfig file has no declaration-visible side effects beyond its
	// own returned scope, so the redundant work is harmless.
	built, err := l.buildRootScope(toolchain)
	if err != nil {
		return nil, err
	}

	l.scopeMu.Lock()
	if scope, ok := l.toolchainScopes[key]; ok {
		l.scopeMu.Unlock()
		return scope, nil
	}
	l.toolchainScopes[key] = built
	l.scopeMu.Unlock()
	return built, nil
}

func (l *Loader) buildRootScope(toolchain core.Label) (*lang.Scope, error) {
	root := lang.NewScope(nil)
	if l.Settings.BuildConfigFile == "" {
		return root, nil
	}

	path := l.hostPath(l.Settings.BuildConfigFile)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("buildconfig %q: %w", path, err)
	}
	blk, err := lang.Parse(string(l.Settings.BuildConfigFile), data)
	if err != nil {
		return nil, fmt.Errorf("buildconfig %q: %w", path, err)
	}
	e := &lang.Evaluator{
		Graph:            l.Graph,
		Resolver:         l.Resolver,
		Settings:         l.settingsFor(toolchain),
		Importer:         l.Importer,
		Args:             l.args(),
		CurrentDir:       l.Settings.BuildConfigFile.Dir(),
		CurrentFile:      l.Settings.BuildConfigFile,
		CurrentToolchain: toolchain,
	}
	if gerr := e.EvalFile(blk, root); gerr != nil {
		return nil, fmt.Errorf("buildconfig: %s", gerr.Error())
	}
	return root, nil
}
