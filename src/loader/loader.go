// Package loader implements the demand-driven, thread-parallel input loader
// (spec.md 4.E): it turns a root directory and a default toolchain into a
// fully-declared BuildGraph by reading build files, evaluating them with
// src/lang, and enqueueing whatever directories their declared targets and
// configs still reference but that haven't been loaded yet.
package loader

import (
	"fmt"
	"os"
	"sync"
	"sync/atomic"

	"github.com/forgebuild/bg/src/cli/logging"
	"github.com/forgebuild/bg/src/cmap"
	"github.com/forgebuild/bg/src/core"
	"github.com/forgebuild/bg/src/lang"
)

// BuildFileName is the conventional build file every directory is searched
// for before any AlternateLoader gets a chance.
const BuildFileName = "BUILD.gn"

// workItem is one unit of loader work: a directory to evaluate under a
// specific toolchain. Each directory maps to exactly one build file, so a
// (dir, toolchain) pair is all a worker needs to find and evaluate it.
type workItem struct {
	Dir       core.SourceDir
	Toolchain core.Label
}

func (w workItem) key() string {
	return string(w.Dir) + "\x00" + w.Toolchain.String()
}

// AlternateLoader lets a front-end other than this package's own
// tokenizer/parser declare targets in a directory whose conventional build
// file is missing (spec.md 4.E step 3: "if the conventional file doesn't
// exist, consult a configured alternate loader before treating the
// directory as an error").
type AlternateLoader interface {
	// CanHandle reports whether this loader recognizes dir (e.g. because it
	// contains a file with a different, alternate-syntax name).
	CanHandle(dir core.SourceDir, sourceRoot string) (fullPath string, ok bool)
	// Load interprets fullPath's contents, declaring targets into e via
	// e.DeclareFromValues rather than through src/lang's own AST.
	Load(e *lang.Evaluator, fullPath string) error
}

// Loader drives the whole demand-driven loading process described by
// spec.md 4.E: a work queue, a fixed worker pool, a once-only "already
// loaded" guarantee per (directory, toolchain), and idle detection (queue
// empty and no worker still processing).
type Loader struct {
	Graph            *core.BuildGraph
	Resolver         *core.Resolver
	Errors           *core.ErrorList
	Settings         *core.BuildSettings
	Importer         lang.Importer
	Alternate        AlternateLoader
	NumWorkers       int
	DefaultToolchain core.Label

	loaded *cmap.Map[string, bool]

	scopeMu         sync.Mutex
	toolchainScopes map[string]*lang.Scope

	queue chan workItem

	mu      sync.Mutex
	pending int
	done    chan struct{}
	closed  bool

	cancelled int32
}

// NewLoader constructs a Loader ready to have Start and Enqueue called on
// it. settings.BuildConfigFile (if set) is evaluated once per toolchain to
// build that toolchain's root scope, per spec.md 4.E step 5.
func NewLoader(graph *core.BuildGraph, resolver *core.Resolver, errs *core.ErrorList, settings *core.BuildSettings, numWorkers int) *Loader {
	if numWorkers < 1 {
		numWorkers = 1
	}
	l := &Loader{
		Graph:           graph,
		Resolver:        resolver,
		Errors:          errs,
		Settings:        settings,
		NumWorkers:      numWorkers,
		loaded:          cmap.New[string, bool](cmap.SmallShardCount, cmap.XXHash),
		toolchainScopes: map[string]*lang.Scope{},
		queue:           make(chan workItem, 256),
		done:            make(chan struct{}),
	}
	l.Importer = &importer{loader: l}
	return l
}

// Start launches the fixed-size worker pool (grounded on plz.Run's drain
// loop: a bounded number of goroutines pulling from a channel until it's
// closed). Call Enqueue before or after Start; workers block on the queue
// either way.
func (l *Loader) Start() {
	for i := 0; i < l.NumWorkers; i++ {
		go l.worker()
	}
}

// Enqueue requests that dir be loaded under toolchain, unless it already
// has been (or is already queued). Safe for concurrent use; workers call it
// themselves as they discover new references (spec.md 4.E step 7).
func (l *Loader) Enqueue(dir core.SourceDir, toolchain core.Label) {
	item := workItem{Dir: dir, Toolchain: toolchain}
	if !l.loaded.Add(item.key(), true) {
		return
	}
	l.mu.Lock()
	l.pending++
	l.mu.Unlock()
	l.queue <- item
}

// Cancel sets the external-abort flag workers check between files; any
// parse already in progress is allowed to finish (spec.md 4.E: "in-flight
// parses are allowed to finish").
func (l *Loader) Cancel() {
	atomic.StoreInt32(&l.cancelled, 1)
}

func (l *Loader) cancelled_() bool {
	return atomic.LoadInt32(&l.cancelled) != 0
}

// Wait blocks until the queue is empty and no worker is still processing,
// then closes the queue so the worker goroutines exit. It's safe to call
// Wait exactly once per Loader.
func (l *Loader) Wait() {
	<-l.done
	close(l.queue)
}

func (l *Loader) worker() {
	for item := range l.queue {
		if !l.cancelled_() {
			logging.Log.Debugf("loading %s%s", item.Dir, toolchainSuffix(item.Toolchain))
			l.process(item)
		}
		l.finishOne()
	}
}

func toolchainSuffix(tc core.Label) string {
	if tc.IsNull() {
		return ""
	}
	return " (" + tc.Name.String() + ")"
}

func (l *Loader) finishOne() {
	l.mu.Lock()
	l.pending--
	done := l.pending <= 0 && !l.closed
	if done {
		l.closed = true
	}
	l.mu.Unlock()
	if done {
		close(l.done)
	}
}

// process reads and evaluates the build file for item, then walks every
// target it declared to enqueue whatever (directory, toolchain) pairs it
// references that aren't loaded yet.
func (l *Loader) process(item workItem) {
	root, err := l.rootScopeFor(item.Toolchain)
	if err != nil {
		l.Errors.Add(core.NewError(core.ErrIO, core.Location{}, "%s", err.Error()))
		return
	}

	settings := l.settingsFor(item.Toolchain)
	e := &lang.Evaluator{
		Graph:            l.Graph,
		Resolver:         l.Resolver,
		Settings:         settings,
		Importer:         l.Importer,
		Args:             l.args(),
		CurrentDir:       item.Dir,
		CurrentToolchain: item.Toolchain,
	}

	buildFile := core.SourceFile(string(item.Dir) + BuildFileName)
	fullPath := l.hostPath(buildFile)
	data, readErr := os.ReadFile(fullPath)
	if readErr != nil {
		if os.IsNotExist(readErr) && l.Alternate != nil {
			if altPath, ok := l.Alternate.CanHandle(item.Dir, l.Settings.SourceRoot); ok {
				e.CurrentFile = core.NewSourceFile(altPath, item.Dir)
				if altErr := l.Alternate.Load(e, altPath); altErr != nil {
					l.Errors.Add(core.NewError(core.ErrIO, core.Location{File: e.CurrentFile}, "%s", altErr.Error()))
					return
				}
				l.enqueueReferences(e)
				return
			}
		}
		l.Errors.Add(core.NewError(core.ErrIO, core.Location{File: buildFile}, "%s", readErr.Error()))
		return
	}

	e.CurrentFile = buildFile
	scope := lang.NewScope(root)
	blk, parseErr := lang.Parse(string(buildFile), data)
	if parseErr != nil {
		l.Errors.Add(core.NewError(core.ErrParse, core.Location{File: buildFile}, "%s", parseErr.Error()))
		return
	}
	if gerr := e.EvalFile(blk, scope); gerr != nil {
		l.Errors.Add(gerr)
		return
	}
	l.enqueueReferences(e)
}

// enqueueReferences walks every target the evaluation run just declared,
// deriving a (directory, toolchain) pair for each dependency/config label
// it names and enqueueing those not yet loaded (spec.md 4.E step 7).
func (l *Loader) enqueueReferences(e *lang.Evaluator) {
	for _, t := range e.Declared {
		for _, label := range t.AllDeclaredDeps() {
			l.Enqueue(label.DirPath(), l.toolchainOf(label, e.CurrentToolchain))
		}
		for _, label := range t.AllConfigLabels() {
			l.Enqueue(label.DirPath(), l.toolchainOf(label, e.CurrentToolchain))
		}
	}
}

// toolchainOf derives the toolchain a label's directory should be loaded
// under: the label's own explicit toolchain qualifier if it carries one
// (a cross-toolchain reference such as "//build/tools:cc(//build/toolchain:clang)"),
// otherwise whatever toolchain is currently evaluating.
func (l *Loader) toolchainOf(label core.Label, current core.Label) core.Label {
	if label.Toolchain.IsSet() {
		return core.NewLabel(core.SourceDir(label.Toolchain.Dir.String()), label.Toolchain.Name.String())
	}
	return current
}

// settingsFor returns the per-toolchain core.Settings for toolchain,
// constructing it on first use.
func (l *Loader) settingsFor(toolchain core.Label) *core.Settings {
	return &core.Settings{
		Build:            l.Settings,
		ToolchainLabel:   toolchain,
		DefaultToolchain: l.DefaultToolchain,
	}
}

// hostPath turns a source-relative file into an absolute filesystem path
// under the configured source root.
func (l *Loader) hostPath(f core.SourceFile) string {
	rel := string(f)
	if len(rel) >= 2 && rel[:2] == "//" {
		rel = rel[2:]
	}
	return l.Settings.SourceRoot + "/" + rel
}

// args converts the build-wide string-valued arg overrides (defaults from
// the dotfile's args_file, overridden by --args) into the typed Values
// declare_args() compares against. A bare "true"/"false" or integer parses
// as the matching literal kind; anything else is a string, matching how a
// GN args.gn value is a small expression rather than always quoted text.
func (l *Loader) args() map[string]lang.Value {
	out := make(map[string]lang.Value, len(l.Settings.Args))
	for name, raw := range l.Settings.Args {
		out[name] = parseArgValue(raw)
	}
	return out
}

func parseArgValue(raw string) lang.Value {
	switch raw {
	case "true":
		return lang.NewBool(true)
	case "false":
		return lang.NewBool(false)
	}
	var n int64
	if _, err := fmt.Sscanf(raw, "%d", &n); err == nil && fmt.Sprintf("%d", n) == raw {
		return lang.NewInt(n)
	}
	return lang.NewString(raw)
}
