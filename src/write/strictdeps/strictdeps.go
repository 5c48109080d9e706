// Package strictdeps emits the auxiliary per-target sources/outputs JSON
// spec.md §9's "open question — strict-deps emission" describes: a
// versioned, schema-of-its-own producer for external consumers (dependency
// checkers, IDE indexers), explicitly not part of the core's contract. The
// DESIGN.md entry for this package records why it's encoding/json rather
// than a protobuf schema: no .proto/protoc step is available here, and a
// hand-authored .pb.go would be a fabricated generated-code stub.
package strictdeps

import (
	"encoding/json"
	"os"
	"sort"

	"github.com/forgebuild/bg/src/core"
	"github.com/forgebuild/bg/src/write/ninja"
)

// SchemaVersion is bumped whenever Target's fields change shape; external
// consumers should refuse to parse a document with a version they don't
// recognize rather than guess at missing fields.
const SchemaVersion = 1

// Document is the top-level emitted file: one Target entry per declared
// target, plus the schema version it was written under.
type Document struct {
	Version int      `json:"version"`
	Targets []Target `json:"targets"`
}

// Target is one target's strict-deps-relevant shape: what it's built from,
// what it produces, and what it directly (not transitively) depends on —
// "strict" in the sense that a consumer checking #include correctness
// should only trust headers reachable through one of these edges, not
// anything merely reachable transitively through a dependency's own deps.
type Target struct {
	Label   string   `json:"label"`
	Type    string   `json:"type"`
	Sources []string `json:"sources"`
	Outputs []string `json:"outputs"`
	Deps    []string `json:"deps"`
}

// Generate builds the Document for every declared target in graph, sorted
// by label for deterministic output across runs.
func Generate(graph *core.BuildGraph) Document {
	all := graph.AllTargets()
	doc := Document{Version: SchemaVersion, Targets: make([]Target, 0, len(all))}
	for _, t := range all {
		doc.Targets = append(doc.Targets, targetOf(t))
	}
	return doc
}

func targetOf(t *core.Target) Target {
	out := Target{
		Label: t.Label.String(),
		Type:  t.Type.String(),
	}
	for _, s := range t.Sources {
		out.Sources = append(out.Sources, string(s))
	}
	out.Outputs = outputsOf(t)
	deps := make([]string, 0, t.PublicDeps.Len()+t.PrivateDeps.Len())
	for _, ref := range t.PublicDeps.Refs() {
		deps = append(deps, ref.Label.String())
	}
	for _, ref := range t.PrivateDeps.Refs() {
		deps = append(deps, ref.Label.String())
	}
	sort.Strings(deps)
	out.Deps = deps
	return out
}

// outputsOf returns every file this target's build edges produce: one
// object per compiled source, plus its own primary output for anything
// that has one.
func outputsOf(t *core.Target) []string {
	var outputs []string
	for _, s := range t.Sources {
		if _, ok := ninja.CompileTools[ext(string(s))]; ok {
			outputs = append(outputs, ninja.ObjectPath(t, s))
		}
	}
	if t.Type != core.TypeSourceSet {
		outputs = append(outputs, ninja.PrimaryOutput(t))
	}
	return outputs
}

func ext(s string) string {
	for i := len(s) - 1; i >= 0 && s[i] != '/'; i-- {
		if s[i] == '.' {
			return s[i:]
		}
	}
	return ""
}

// Write generates the document and writes it as indented JSON to path.
func Write(graph *core.BuildGraph, path string) error {
	data, err := json.MarshalIndent(Generate(graph), "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
