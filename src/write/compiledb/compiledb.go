// Package compiledb emits the optional compile-commands database spec.md §6
// describes: "an array of {directory, file, command, output} objects." It
// is an auxiliary writer, exactly like src/write/ninja, consuming only the
// resolved target view — nothing here is part of the core's contract.
package compiledb

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/forgebuild/bg/src/core"
	"github.com/forgebuild/bg/src/write/ninja"
)

// Entry is one compile-commands.json record, per the schema in
// compile_commands_writer.h (original_source): directory, file, command and
// output, nothing else.
type Entry struct {
	Directory string `json:"directory"`
	File      string `json:"file"`
	Command   string `json:"command"`
	Output    string `json:"output"`
}

// Generate walks every resolved target in graph and returns one Entry per
// compiled source file, sorted by output path for deterministic diffs
// across runs (spec.md §8's determinism property).
func Generate(graph *core.BuildGraph, build *core.BuildSettings) []Entry {
	hostDir := hostBuildDir(build)
	var entries []Entry
	for _, t := range graph.AllTargets() {
		if t.Toolchain == nil {
			continue
		}
		for _, src := range t.Sources {
			toolName, ok := ninja.CompileTools[filepath.Ext(string(src))]
			if !ok {
				continue
			}
			tool := t.Toolchain.Tool(toolName)
			if tool == nil {
				continue
			}
			output := ninja.ObjectPath(t, src)
			entries = append(entries, Entry{
				Directory: hostDir,
				File:      string(src),
				Command:   substitute(tool.Command, string(src), output, ninja.TargetFlags(t)),
				Output:    output,
			})
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Output < entries[j].Output })
	return entries
}

// Write generates the database and writes it as indented JSON to path.
func Write(graph *core.BuildGraph, build *core.BuildSettings, path string) error {
	entries := Generate(graph, build)
	if entries == nil {
		entries = []Entry{}
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func hostBuildDir(build *core.BuildSettings) string {
	rel := string(build.BuildDir)
	if len(rel) >= 2 && rel[:2] == "//" {
		rel = rel[2:]
	}
	return filepath.Join(build.SourceRoot, rel)
}

// substitution order matters: the longer variable names must be replaced
// before their prefixes ($cflags_cc before $cflags) or the shorter name's
// replacement would clobber part of the longer one's text.
var substitutionOrder = []string{
	"$cflags_objcc", "$cflags_objc", "$cflags_cc", "$cflags_c", "$cflags",
	"$lib_dirs", "$ldflags", "$libs", "$includes", "$defines",
}

func substitute(command, in, out string, flags map[string]string) string {
	result := command
	for _, placeholder := range substitutionOrder {
		name := strings.TrimPrefix(placeholder, "$")
		result = strings.ReplaceAll(result, placeholder, flags[name])
	}
	result = strings.ReplaceAll(result, "$in", in)
	result = strings.ReplaceAll(result, "$out", out)
	return result
}
