package ninja

import (
	"fmt"
	"path"
	"strings"

	"github.com/forgebuild/bg/src/core"
)

// CompileTools maps a source file's extension to the tool name that
// compiles it, mirroring GN's own GetToolTypeForSourceType dispatch
// (original_source's target_generator.cc). Header files never appear here;
// they contribute to a target's include-dir propagation only. Exported so
// other writers can tell which of a target's sources are compiled at all.
var CompileTools = map[string]string{
	".c":   "cc",
	".cc":  "cxx",
	".cpp": "cxx",
	".cxx": "cxx",
	".m":   "objc",
	".mm":  "objcxx",
	".s":   "asm",
	".S":   "asm",
	".asm": "asm",
}

// compileTools is kept as the package's own unexported alias so the rest of
// this file reads naturally.
var compileTools = CompileTools

// generateTarget emits every build edge target needs: a compile edge per
// compilable source, and (for anything that produces a linkable or staged
// artifact) one further edge producing the target's primary output.
func (w *Writer) generateTarget(b *strings.Builder, prefix string, tc *core.Toolchain, t *core.Target) error {
	objects, err := w.generateCompileEdges(b, prefix, tc, t)
	if err != nil {
		return err
	}

	switch t.Type {
	case core.TypeSourceSet:
		// A source_set contributes its own objects to whatever finally
		// links it (invariant 6); it has no link edge of its own.
		return nil
	case core.TypeGroup, core.TypeAction, core.TypeActionForEach, core.TypeCopy,
		core.TypeBundleData, core.TypeCreateBundle, core.TypeGeneratedFile:
		return w.generateStampEdge(b, t)
	default:
		return w.generateLinkEdge(b, prefix, tc, t, objects)
	}
}

// generateCompileEdges emits one build edge per compilable source file in
// t.Sources and returns the list of object files produced, in source order.
func (w *Writer) generateCompileEdges(b *strings.Builder, prefix string, tc *core.Toolchain, t *core.Target) ([]string, error) {
	var objects []string
	for _, src := range t.Sources {
		ext := path.Ext(string(src))
		toolName, ok := compileTools[ext]
		if !ok {
			continue // header or otherwise non-compiled input
		}
		tool := tc.Tool(toolName)
		if tool == nil {
			return nil, fmt.Errorf("target %s: no %q tool declared in toolchain %s", t.Label, toolName, tc.Label)
		}
		obj := objectPath(t, src)
		fmt.Fprintf(b, "\nbuild %s: %s_%s %s\n", ninjaEscape(obj), prefix, toolName, ninjaEscape(string(src)))
		writeTargetVars(b, t)
		objects = append(objects, obj)
	}
	return objects, nil
}

// generateLinkEdge emits the edge that produces t's primary output: objects
// compiled directly from t.Sources, plus (per the inherited-libraries list
// computed by component H) every absorbed source_set's own objects and
// every linked library's output file.
func (w *Writer) generateLinkEdge(b *strings.Builder, prefix string, tc *core.Toolchain, t *core.Target, objects []string) error {
	toolName := linkTool(t.Type)
	tool := tc.Tool(toolName)
	if tool == nil {
		return fmt.Errorf("target %s: no %q tool declared in toolchain %s", t.Label, toolName, tc.Label)
	}

	view := core.ComputeResolvedView(t)
	inputs := append([]string{}, objects...)
	var libs []string
	for _, lib := range view.InheritedLibraries {
		if lib.Target.Type == core.TypeSourceSet {
			for _, src := range lib.Target.Sources {
				if _, ok := compileTools[path.Ext(string(src))]; ok {
					inputs = append(inputs, objectPath(lib.Target, src))
				}
			}
			continue
		}
		libs = append(libs, primaryOutput(lib.Target))
	}
	allInputs := append(append([]string{}, inputs...), libs...)

	var orderOnly []string
	for _, dep := range view.RecursiveHardDeps {
		orderOnly = append(orderOnly, primaryOutput(dep))
	}

	out := primaryOutput(t)
	fmt.Fprintf(b, "\nbuild %s: %s_%s %s", ninjaEscape(out), prefix, toolName, joinEscaped(allInputs))
	if len(orderOnly) > 0 {
		fmt.Fprintf(b, " || %s", joinEscaped(orderOnly))
	}
	b.WriteString("\n")
	writeTargetVars(b, t)
	if len(libs) > 0 {
		fmt.Fprintf(b, "  solibs = %s\n", joinEscaped(libs))
	}
	return nil
}

// generateStampEdge handles target types whose semantics this core doesn't
// model beyond their declared inputs (actions, copies, bundles, groups):
// core.Target carries no script/command/declared-outputs fields for these
// (spec.md §3's data model subset), so the writer can only make their
// ordering visible to dependents, via a phony stamp over their own inputs.
func (w *Writer) generateStampEdge(b *strings.Builder, t *core.Target) error {
	var inputs []string
	for _, f := range t.Sources {
		inputs = append(inputs, string(f))
	}
	for _, f := range t.Inputs {
		inputs = append(inputs, string(f))
	}
	for _, f := range t.Data {
		inputs = append(inputs, string(f))
	}
	for _, ref := range t.PublicDeps.Refs() {
		if ref.Target != nil {
			inputs = append(inputs, primaryOutput(ref.Target))
		}
	}
	for _, ref := range t.PrivateDeps.Refs() {
		if ref.Target != nil {
			inputs = append(inputs, primaryOutput(ref.Target))
		}
	}
	fmt.Fprintf(b, "\nbuild %s: phony %s\n", ninjaEscape(primaryOutput(t)), joinEscaped(inputs))
	return nil
}

// TargetFlags pre-formats t's merged ConfigValues into ready-to-splice flag
// strings, keyed by the ninja variable name a tool's command template
// references ($defines, $includes, ...). Exported so other writers
// (src/write/compiledb) that need an actual resolved command line, rather
// than a ninja edge, can substitute the same values without recomputing
// them a different way.
func TargetFlags(t *core.Target) map[string]string {
	cv := t.ConfigValues
	return map[string]string{
		"defines":      strings.Join(prefixed("-D", cv.Defines), " "),
		"includes":     strings.Join(prefixedDirs("-I", cv.IncludeDirs), " "),
		"cflags":       strings.Join(cv.CFlags, " "),
		"cflags_c":     strings.Join(cv.CFlagsC, " "),
		"cflags_cc":    strings.Join(cv.CFlagsCC, " "),
		"cflags_objc":  strings.Join(cv.CFlagsObjC, " "),
		"cflags_objcc": strings.Join(cv.CFlagsObjCC, " "),
		"ldflags":      strings.Join(cv.LDFlags, " "),
		"libs":         strings.Join(prefixed("-l", cv.Libs), " "),
		"lib_dirs":     strings.Join(prefixedDirs("-L", cv.LibDirs), " "),
	}
}

func writeTargetVars(b *strings.Builder, t *core.Target) {
	flags := TargetFlags(t)
	for _, name := range []string{"defines", "includes", "cflags", "cflags_c", "cflags_cc", "cflags_objc", "cflags_objcc", "ldflags", "libs", "lib_dirs"} {
		if v := flags[name]; v != "" {
			fmt.Fprintf(b, "  %s = %s\n", name, v)
		}
	}
}

func prefixed(flag string, values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = flag + v
	}
	return out
}

func prefixedDirs(flag string, dirs []core.SourceDir) []string {
	out := make([]string, len(dirs))
	for i, d := range dirs {
		out[i] = flag + string(d)
	}
	return out
}

// linkTool returns the tool name that produces t's primary output.
func linkTool(tt core.TargetType) string {
	switch tt {
	case core.TypeExecutable:
		return "link"
	case core.TypeSharedLibrary:
		return "solink"
	case core.TypeLoadableModule:
		return "solink_module"
	case core.TypeStaticLibrary, core.TypeCompleteStaticLibrary:
		return "alink"
	case core.TypeRustLibrary, core.TypeRustProcMacro:
		return "rustc"
	default:
		return "stamp"
	}
}

// ObjectPath computes the compiled-object path for one of t's sources,
// rooted under t's own obj/ output directory (get_label_info's
// target_out_dir) and flattened so sources from different subdirectories
// never collide.
func ObjectPath(t *core.Target, src core.SourceFile) string {
	dir := t.Settings.OutDir(t.Label.DirPath())
	rel := strings.TrimPrefix(string(src), "//")
	flat := strings.ReplaceAll(rel, "/", "_")
	ext := path.Ext(flat)
	return string(dir) + strings.TrimSuffix(flat, ext) + ".o"
}

func objectPath(t *core.Target, src core.SourceFile) string { return ObjectPath(t, src) }

// PrimaryOutput returns the single output file that represents t to its
// dependents: a library/executable file for linkable types, or a bare stamp
// file for everything else.
func PrimaryOutput(t *core.Target) string { return primaryOutput(t) }

func primaryOutput(t *core.Target) string {
	dir := t.Settings.OutDir(t.Label.DirPath())
	name := t.Label.Name.String()
	switch t.Type {
	case core.TypeStaticLibrary, core.TypeCompleteStaticLibrary:
		return string(dir) + "lib" + name + ".a"
	case core.TypeSharedLibrary:
		return string(dir) + "lib" + name + ".so"
	case core.TypeLoadableModule:
		return string(dir) + name + ".so"
	case core.TypeExecutable:
		return string(dir) + name
	case core.TypeRustLibrary:
		return string(dir) + "lib" + name + ".rlib"
	default:
		return string(dir) + name + ".stamp"
	}
}

func joinEscaped(items []string) string {
	out := make([]string, len(items))
	for i, s := range items {
		out[i] = ninjaEscape(s)
	}
	return strings.Join(out, " ")
}
