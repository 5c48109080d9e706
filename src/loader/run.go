package loader

import (
	"github.com/forgebuild/bg/src/core"
)

// Run bootstraps and drives a full load: evaluate the root dotfile, start
// the worker pool, enqueue the root directory under the default toolchain,
// and wait for the queue to drain. Once idle, it runs the post-load checks
// spec.md 4.E and 4.G describe — cycle detection and missing-label
// reporting — adding anything they find to the shared ErrorList before
// returning.
//
// The returned *core.BuildGraph is fully declared and resolved (or, if
// Errors is non-empty, partially so); callers inspect Errors to decide
// whether to proceed to writing output.
func Run(sourceRoot, buildDir string, argOverrides map[string]string, numWorkers int) (*core.BuildGraph, *core.ErrorList, error) {
	result, err := Bootstrap(sourceRoot, buildDir, argOverrides, numWorkers)
	if err != nil {
		return nil, nil, err
	}
	l := result.Loader

	l.Start()
	l.Enqueue(core.SourceDir("//"), result.DefaultToolchain)
	if !result.DefaultToolchain.IsNull() {
		// The directory declaring the default toolchain itself needs
		// loading too — nothing else necessarily depends on it, since
		// toolchain() items are toolchain-neutral and never appear in a
		// deps/configs list the way targets and configs do.
		l.Enqueue(result.DefaultToolchain.DirPath(), result.DefaultToolchain)
	}
	l.Wait()

	if cycle := core.NewCycleDetector(l.Graph).FindCycle(); cycle != nil {
		l.Errors.Add(core.NewError(core.ErrResolution, core.Location{}, "dependency cycle: %s", core.FormatCycle(cycle)))
	}
	for _, gerr := range core.MissingLabels(l.Graph) {
		l.Errors.Add(gerr)
	}

	return l.Graph, l.Errors, nil
}
