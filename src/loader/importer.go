package loader

import (
	"fmt"
	"os"
	"sync"

	"github.com/forgebuild/bg/src/core"
	"github.com/forgebuild/bg/src/lang"
)

// importer is the loader's concrete lang.Importer: import("//a/b.gni")
// resolves synchronously, inline in whichever worker hit it, rather than
// going through the async work queue — the importing file is blocked on
// the result either way, so there's nothing to gain from enqueueing it.
//
// lang.Importer carries no toolchain parameter, so an imported file is
// evaluated at most once, under the default toolchain, and its scope is
// shared by every importer regardless of which toolchain's BUILD.gn pulled
// it in — correct for the overwhelming common case of a .gni file that
// only defines lists/templates/functions, which is all import() is for.
type importer struct {
	loader *Loader

	mu    sync.Mutex
	cache map[string]*importResult
}

type importResult struct {
	ready chan struct{}
	scope *lang.Scope
	err   error
}

// Import implements lang.Importer.
func (im *importer) Import(path string, fromDir core.SourceDir) (*lang.Scope, error) {
	file := core.NewSourceFile(path, fromDir)
	key := string(file)

	im.mu.Lock()
	if im.cache == nil {
		im.cache = map[string]*importResult{}
	}
	if res, ok := im.cache[key]; ok {
		im.mu.Unlock()
		<-res.ready
		return res.scope, res.err
	}
	res := &importResult{ready: make(chan struct{})}
	im.cache[key] = res
	im.mu.Unlock()

	res.scope, res.err = im.load(file)
	close(res.ready)
	return res.scope, res.err
}

func (im *importer) load(file core.SourceFile) (*lang.Scope, error) {
	l := im.loader
	data, err := os.ReadFile(l.hostPath(file))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", file, err)
	}
	blk, err := lang.Parse(string(file), data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", file, err)
	}
	scope := lang.NewScope(nil)
	e := &lang.Evaluator{
		Graph:            l.Graph,
		Resolver:         l.Resolver,
		Settings:         l.settingsFor(l.DefaultToolchain),
		Importer:         im,
		Args:             l.args(),
		CurrentDir:       file.Dir(),
		CurrentFile:      file,
		CurrentToolchain: l.DefaultToolchain,
	}
	if gerr := e.EvalFile(blk, scope); gerr != nil {
		return nil, gerr
	}
	return scope, nil
}
