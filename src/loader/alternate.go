package loader

import (
	"fmt"
	"os"
	"path/filepath"

	"go.starlark.net/starlark"

	"github.com/forgebuild/bg/src/core"
	"github.com/forgebuild/bg/src/lang"
)

// StarlarkAlternate is the AlternateLoader consulted when a directory has
// no BUILD.gn: a directory can instead carry a BUILD.star file, interpreted
// with go.starlark.net rather than this module's own tokenizer/parser.
// Only target-type declarations are recognized (config/toolchain/pool/
// template declarations stay native-syntax-only); that's enough for a
// directory some other part of a tree generates on the fly and wants to
// describe with an embeddable, sandboxed language instead of hand-writing
// build-file syntax.
type StarlarkAlternate struct {
	// FileName is the alternate file searched for, e.g. "BUILD.star".
	FileName string
}

// NewStarlarkAlternate returns a StarlarkAlternate looking for "BUILD.star".
func NewStarlarkAlternate() *StarlarkAlternate {
	return &StarlarkAlternate{FileName: "BUILD.star"}
}

// CanHandle implements AlternateLoader.
func (s *StarlarkAlternate) CanHandle(dir core.SourceDir, sourceRoot string) (string, bool) {
	rel := string(dir)
	if len(rel) >= 2 && rel[:2] == "//" {
		rel = rel[2:]
	}
	full := filepath.Join(sourceRoot, rel, s.FileName)
	if _, err := os.Stat(full); err != nil {
		return "", false
	}
	return full, true
}

// Load implements AlternateLoader: it runs fullPath as a starlark module
// whose only predeclared globals are one builtin per recognized target
// type (spec.md 4.D's "executable, static_library, etc." list), each of
// which funnels straight into e.DeclareFromValues so a target declared
// this way is indistinguishable, downstream, from one declared natively.
func (s *StarlarkAlternate) Load(e *lang.Evaluator, fullPath string) error {
	predeclared := starlark.StringDict{}
	for _, name := range lang.AllTargetTypeNames() {
		tt, _ := lang.TargetTypeByName(name)
		predeclared[name] = starlark.NewBuiltin(name, declareBuiltin(e, tt))
	}

	thread := &starlark.Thread{Name: fullPath}
	_, err := starlark.ExecFile(thread, fullPath, nil, predeclared)
	return err
}

// declareBuiltin returns the starlark builtin function for one target
// type: `executable(name = "foo", sources = [...], deps = [...])`.
func declareBuiltin(e *lang.Evaluator, tt core.TargetType) func(*starlark.Thread, *starlark.Builtin, starlark.Tuple, []starlark.Tuple) (starlark.Value, error) {
	return func(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		var name string
		var rest []starlark.Tuple
		for _, kv := range kwargs {
			k, ok := starlark.AsString(kv[0])
			if !ok {
				continue
			}
			if k == "name" {
				v, ok := starlark.AsString(kv[1])
				if !ok {
					return nil, fmt.Errorf("%s: name must be a string", b.Name())
				}
				name = v
				continue
			}
			rest = append(rest, kv)
		}
		if name == "" && len(args) > 0 {
			if v, ok := starlark.AsString(args[0]); ok {
				name = v
			}
		}
		if name == "" {
			return nil, fmt.Errorf("%s: requires a name", b.Name())
		}

		fields := map[string]lang.Value{}
		for _, kv := range rest {
			k, _ := starlark.AsString(kv[0])
			v, err := marshalValue(kv[1])
			if err != nil {
				return nil, fmt.Errorf("%s.%s: %w", b.Name(), k, err)
			}
			fields[k] = v
		}

		pos := lang.Position{Filename: fullPathOf(thread)}
		e.DeclareFromValues(name, tt, fields, pos)
		return starlark.None, nil
	}
}

func fullPathOf(thread *starlark.Thread) string {
	if thread == nil {
		return "<starlark>"
	}
	return thread.Name
}

// marshalValue converts a starlark runtime value into this module's own
// Value, supporting the subset an alternate build-file front end plausibly
// needs: strings, bools, ints, and lists of those.
func marshalValue(v starlark.Value) (lang.Value, error) {
	switch x := v.(type) {
	case starlark.String:
		return lang.NewString(string(x)), nil
	case starlark.Bool:
		return lang.NewBool(bool(x)), nil
	case starlark.Int:
		i, ok := x.Int64()
		if !ok {
			return lang.Value{}, fmt.Errorf("integer out of range")
		}
		return lang.NewInt(i), nil
	case *starlark.List:
		items := make([]lang.Value, 0, x.Len())
		iter := x.Iterate()
		defer iter.Done()
		var elem starlark.Value
		for iter.Next(&elem) {
			mv, err := marshalValue(elem)
			if err != nil {
				return lang.Value{}, err
			}
			items = append(items, mv)
		}
		return lang.NewList(items), nil
	case starlark.NoneType:
		return lang.None, nil
	default:
		return lang.Value{}, fmt.Errorf("unsupported starlark value type %s", v.Type())
	}
}
