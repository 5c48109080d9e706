// Package ninja lowers a resolved *core.BuildGraph into Ninja build files:
// one per toolchain, referenced by a top-level build.ninja, per spec.md §6
// ("One sub-file per toolchain with rules keyed by
// <toolchain-prefix>_<tool-name> and per-target build lines"). Everything
// here reads only the public resolved-target view (spec.md 4.I); nothing in
// src/core knows this package exists.
package ninja

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/forgebuild/bg/src/core"
)

// Writer lowers a graph already fully loaded and resolved by src/loader.
type Writer struct {
	Graph    *core.BuildGraph
	Settings *core.BuildSettings
}

// New returns a Writer over graph.
func New(graph *core.BuildGraph, settings *core.BuildSettings) *Writer {
	return &Writer{Graph: graph, Settings: settings}
}

// WriteFiles generates the top-level build.ninja plus one file per declared
// toolchain, writing them under the configured build directory, and
// returns the top-level file's path.
func (w *Writer) WriteFiles(defaultTarget core.Label) (string, error) {
	root, perToolchain, err := w.Generate(defaultTarget)
	if err != nil {
		return "", err
	}
	buildDir := w.hostBuildDir()
	if err := os.MkdirAll(buildDir, 0o755); err != nil {
		return "", err
	}
	rootPath := filepath.Join(buildDir, "build.ninja")
	if err := os.WriteFile(rootPath, []byte(root), 0o644); err != nil {
		return "", err
	}
	for name, content := range perToolchain {
		if err := os.WriteFile(filepath.Join(buildDir, name), []byte(content), 0o644); err != nil {
			return "", err
		}
	}
	return rootPath, nil
}

func (w *Writer) hostBuildDir() string {
	rel := string(w.Settings.BuildDir)
	if len(rel) >= 2 && rel[:2] == "//" {
		rel = rel[2:]
	}
	return filepath.Join(w.Settings.SourceRoot, rel)
}

// Generate builds the in-memory content of build.ninja and every
// per-toolchain subninja file, without touching disk; WriteFiles is a thin
// wrapper around this for the common case.
func (w *Writer) Generate(defaultTarget core.Label) (root string, perToolchain map[string]string, err error) {
	toolchains := w.Graph.AllToolchains()
	if len(toolchains) == 0 {
		return "", nil, fmt.Errorf("ninja: no toolchains declared")
	}

	perToolchain = make(map[string]string, len(toolchains))
	var b strings.Builder
	fmt.Fprintf(&b, "# This file is auto-generated. Do not edit by hand.\nninja_required_version = 1.8.2\n\n")

	for _, tc := range toolchains {
		fname := subninjaName(tc.Label)
		content, werr := w.generateToolchain(tc)
		if werr != nil {
			return "", nil, werr
		}
		perToolchain[fname] = content
		fmt.Fprintf(&b, "subninja %s\n", fname)
	}

	b.WriteString("\n")
	if target := w.Graph.Target(defaultTarget); target != nil {
		fmt.Fprintf(&b, "default %s\n", ninjaEscape(primaryOutput(target)))
	}

	return b.String(), perToolchain, nil
}

func subninjaName(toolchain core.Label) string {
	return fmt.Sprintf("toolchain_%s.ninja", toolchain.Name.String())
}

// generateToolchain emits every rule declared on tc, then a build edge for
// every target belonging to it: compile edges per source file, one link
// (or stamp) edge per target.
func (w *Writer) generateToolchain(tc *core.Toolchain) (string, error) {
	var b strings.Builder
	prefix := tc.Label.Name.String()

	names := make([]string, 0, len(tc.Tools))
	for name := range tc.Tools {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		writeRule(&b, prefix, name, tc.Tools[name])
	}

	targets := w.targetsForToolchain(tc.Label)
	for _, t := range targets {
		if err := w.generateTarget(&b, prefix, tc, t); err != nil {
			return "", err
		}
	}
	return b.String(), nil
}

func (w *Writer) targetsForToolchain(toolchain core.Label) core.Targets {
	var out core.Targets
	for _, t := range w.Graph.AllTargets() {
		if t.Label.Toolchain.Dir == toolchain.Dir && t.Label.Toolchain.Name == toolchain.Name {
			out = append(out, t)
		}
	}
	return out
}

func writeRule(b *strings.Builder, prefix, name string, tool *core.Tool) {
	fmt.Fprintf(b, "\nrule %s_%s\n", prefix, name)
	fmt.Fprintf(b, "  command = %s\n", tool.Command)
	if tool.Description != "" {
		fmt.Fprintf(b, "  description = %s\n", tool.Description)
	}
	if tool.Depfile != "" {
		fmt.Fprintf(b, "  depfile = %s\n", tool.Depfile)
		fmt.Fprintf(b, "  deps = gcc\n")
	}
	if !tool.Pool.IsNull() {
		fmt.Fprintf(b, "  pool = %s\n", tool.Pool.Name.String())
	}
	if tool.Restat {
		fmt.Fprintf(b, "  restat = 1\n")
	}
}
