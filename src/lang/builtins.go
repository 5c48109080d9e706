package lang

import (
	"os"
	"os/exec"
	"strings"

	"github.com/forgebuild/bg/src/cli/logging"
	"github.com/forgebuild/bg/src/core"
)

// builtinFunc is a value-returning builtin: get_label_info, label_matches,
// filter_labels, read_file, write_file, exec_script, print, assert (spec.md
// 4.D's builtins list). Target-type/config/toolchain/pool/template/
// declare_args/import all construct or register items instead of
// returning a value and are dispatched directly in targets.go.
type builtinFunc func(e *Evaluator, scope *Scope, args []Value, pos Position) Value

var builtinFuncs = map[string]builtinFunc{
	"get_label_info":     biGetLabelInfo,
	"get_target_outputs": biGetTargetOutputs,
	"label_matches":       biLabelMatches,
	"filter_labels":       biFilterLabels,
	"read_file":           biReadFile,
	"write_file":          biWriteFile,
	"exec_script":         biExecScript,
	"print":               biPrint,
	"assert":              biAssert,
}

func (e *Evaluator) resolveLabel(s string, pos Position) core.Label {
	l, err := core.ParseLabel(s, e.CurrentDir, e.CurrentToolchain)
	if err != nil {
		e.fail(pos, "%s", err.Error())
	}
	return l
}

// biGetLabelInfo implements get_label_info(label, what). The recognized
// "what" values follow GN's own set; target_gen_dir/target_out_dir are the
// two that round-trip through Settings (scenario 6).
func biGetLabelInfo(e *Evaluator, scope *Scope, args []Value, pos Position) Value {
	if len(args) != 2 || args[0].Kind != KindString || args[1].Kind != KindString {
		e.fail(pos, "get_label_info(label, what) requires two string arguments")
	}
	label := e.resolveLabel(args[0].Str, pos)
	// labelSettings puts the label's own toolchain, when it names one, in
	// ToolchainLabel so its gen/out dirs get that toolchain's subdirectory.
	labelSettings := func() *core.Settings {
		s := *e.Settings
		if label.Toolchain.IsSet() {
			s.ToolchainLabel = core.NewLabel(core.SourceDir(label.Toolchain.Dir.String()), label.Toolchain.Name.String())
		}
		return &s
	}
	switch args[1].Str {
	case "name":
		return NewString(label.Name.String())
	case "dir":
		return NewString(strings.TrimSuffix(string(label.DirPath()), "/"))
	case "label_no_toolchain":
		noTC := label
		noTC.Toolchain = core.ToolchainKey{}
		return NewString(noTC.String())
	case "toolchain":
		tc := label.Toolchain
		if !tc.IsSet() {
			return NewString("")
		}
		return NewString(tc.String())
	case "target_gen_dir":
		return NewString(strings.TrimSuffix(string(labelSettings().GenDir(label.DirPath())), "/"))
	case "target_out_dir":
		return NewString(strings.TrimSuffix(string(labelSettings().OutDir(label.DirPath())), "/"))
	case "root_gen_dir":
		return NewString(strings.TrimSuffix(string(e.Settings.GenDir(core.SourceDir("//"))), "/"))
	case "root_out_dir":
		return NewString(strings.TrimSuffix(string(e.Settings.Build.BuildDir), "/"))
	}
	e.fail(pos, "get_label_info: unsupported property %q", args[1].Str)
	panic("unreachable")
}

// biGetTargetOutputs implements get_target_outputs(label): the declared
// sources of the named target, relative-pathed the way a generated-file
// consumer would reference them. The resolved output file list for
// actions/copy targets is a writer-side concern (spec.md §4.I); this
// builtin only exposes what the core itself knows about at evaluation
// time, namely the target's declared Sources.
func biGetTargetOutputs(e *Evaluator, scope *Scope, args []Value, pos Position) Value {
	if len(args) != 1 || args[0].Kind != KindString {
		e.fail(pos, "get_target_outputs(label) requires one string argument")
	}
	label := e.resolveLabel(args[0].Str, pos)
	target := e.Graph.Target(label)
	if target == nil {
		e.fail(pos, "get_target_outputs: %s has not been declared", label)
	}
	out := make([]Value, len(target.Sources))
	for i, s := range target.Sources {
		out[i] = NewString(string(s))
	}
	return NewList(out)
}

func biLabelMatches(e *Evaluator, scope *Scope, args []Value, pos Position) Value {
	if len(args) != 2 || args[0].Kind != KindString || args[1].Kind != KindList {
		e.fail(pos, "label_matches(label, patterns) requires a string and a list")
	}
	label := e.resolveLabel(args[0].Str, pos)
	patterns := e.parsePatterns(args[1], pos)
	return NewBool(core.LabelMatches(label, patterns))
}

func biFilterLabels(e *Evaluator, scope *Scope, args []Value, pos Position) Value {
	if len(args) != 2 || args[0].Kind != KindList || args[1].Kind != KindList {
		e.fail(pos, "filter_labels(labels, patterns) requires two lists")
	}
	labelStrs, err := args[0].Strings()
	if err != nil {
		e.fail(pos, "%s", err.Error())
	}
	labels := make([]core.Label, len(labelStrs))
	for i, s := range labelStrs {
		labels[i] = e.resolveLabel(s, pos)
	}
	patterns := e.parsePatterns(args[1], pos)
	filtered := core.FilterLabels(labels, patterns)
	out := make([]Value, len(filtered))
	for i, l := range filtered {
		out[i] = NewString(l.String())
	}
	return NewList(out)
}

func biReadFile(e *Evaluator, scope *Scope, args []Value, pos Position) Value {
	if len(args) != 1 || args[0].Kind != KindString {
		e.fail(pos, "read_file(path) requires one string argument")
	}
	path := string(core.NewSourceFile(args[0].Str, e.CurrentDir))
	full := e.resolveSourcePath(path)
	data, err := os.ReadFile(full)
	if err != nil {
		e.fail(pos, "read_file(%q): %s", args[0].Str, err.Error())
	}
	return NewString(string(data))
}

func biWriteFile(e *Evaluator, scope *Scope, args []Value, pos Position) Value {
	if len(args) != 2 || args[0].Kind != KindString || args[1].Kind != KindString {
		e.fail(pos, "write_file(path, contents) requires two string arguments")
	}
	path := string(core.NewSourceFile(args[0].Str, e.CurrentDir))
	full := e.resolveSourcePath(path)
	if err := os.WriteFile(full, []byte(args[1].Str), 0644); err != nil {
		e.fail(pos, "write_file(%q): %s", args[0].Str, err.Error())
	}
	return None
}

// biExecScript implements exec_script(script, args, result_type): runs
// script as a subprocess with args and parses stdout as "list of strings"
// (the common case) or "string" depending on result_type, mirroring GN's
// own `exec_script` contract closely enough for build-time code generation
// use cases (spec.md 4.D's builtins list).
func biExecScript(e *Evaluator, scope *Scope, args []Value, pos Position) Value {
	if len(args) < 2 || args[0].Kind != KindString || args[1].Kind != KindList {
		e.fail(pos, "exec_script(script, args[, result_type]) requires a string and a list")
	}
	scriptArgs, err := args[1].Strings()
	if err != nil {
		e.fail(pos, "%s", err.Error())
	}
	resultType := "string"
	if len(args) >= 3 && args[2].Kind == KindString {
		resultType = args[2].Str
	}
	scriptPath := e.resolveSourcePath(string(core.NewSourceFile(args[0].Str, e.CurrentDir)))
	cmd := exec.Command(scriptPath, scriptArgs...)
	cmd.Dir = e.resolveSourcePath(string(e.CurrentDir))
	out, err := cmd.Output()
	if err != nil {
		e.fail(pos, "exec_script(%q): %s", args[0].Str, err.Error())
	}
	text := strings.TrimRight(string(out), "\n")
	if resultType == "list lines" {
		lines := strings.Split(text, "\n")
		items := make([]Value, len(lines))
		for i, l := range lines {
			items[i] = NewString(l)
		}
		return NewList(items)
	}
	return NewString(text)
}

func (e *Evaluator) resolveSourcePath(sourceRelative string) string {
	rel := strings.TrimPrefix(sourceRelative, "//")
	return e.Settings.Build.SourceRoot + "/" + rel
}

func biPrint(e *Evaluator, scope *Scope, args []Value, pos Position) Value {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = a.String()
	}
	logging.Log.Info(strings.Join(parts, " "))
	return None
}

func biAssert(e *Evaluator, scope *Scope, args []Value, pos Position) Value {
	if len(args) == 0 {
		e.fail(pos, "assert() requires at least one argument")
	}
	if !args[0].IsTruthy() {
		msg := "assertion failed"
		if len(args) > 1 {
			msg = args[1].String()
		}
		e.fail(pos, "%s", msg)
	}
	return None
}
