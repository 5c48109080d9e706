package lang

import (
	"fmt"
	"strconv"
	"strings"
)

// ValueKind discriminates the tagged sum Value implements (spec.md 4.C:
// "Value is a tagged sum with copy-on-demand semantics for lists and
// scopes"). Unlike the teacher's pyObject-per-type interface hierarchy,
// this is a single struct with a kind tag, the more direct Go rendition of
// a C++-style tagged union and the shape the language's own Value class
// uses.
type ValueKind int

const (
	KindNone ValueKind = iota
	KindBool
	KindInt
	KindString
	KindList
	KindScope
)

func (k ValueKind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindString:
		return "string"
	case KindList:
		return "list"
	case KindScope:
		return "scope"
	}
	return "unknown"
}

// Value is the evaluator's universal runtime value type.
type Value struct {
	Kind  ValueKind
	Bool  bool
	Int   int64
	Str   string
	List  []Value
	Scope *Scope
}

// None is the canonical empty value.
var None = Value{Kind: KindNone}

func NewBool(b bool) Value   { return Value{Kind: KindBool, Bool: b} }
func NewInt(i int64) Value   { return Value{Kind: KindInt, Int: i} }
func NewString(s string) Value { return Value{Kind: KindString, Str: s} }
func NewList(items []Value) Value { return Value{Kind: KindList, List: items} }
func NewScopeValue(s *Scope) Value { return Value{Kind: KindScope, Scope: s} }

// IsTruthy applies the language's truthiness rule: booleans test
// themselves, everything else is truthy unless it's None, an empty string,
// or an empty list (matching GN's own "if (x)" semantics for non-bool x is
// actually a type error in real GN, but this evaluator is permissive here
// to keep template/`invoker` patterns ergonomic).
func (v Value) IsTruthy() bool {
	switch v.Kind {
	case KindNone:
		return false
	case KindBool:
		return v.Bool
	case KindInt:
		return v.Int != 0
	case KindString:
		return v.Str != ""
	case KindList:
		return len(v.List) != 0
	case KindScope:
		return true
	}
	return false
}

// String renders v in its unquoted display form (used for print/write_file
// output). Use Quoted for a form suitable for re-parsing as a literal.
func (v Value) String() string {
	switch v.Kind {
	case KindNone:
		return "<none>"
	case KindBool:
		if v.Bool {
			return "true"
		}
		return "false"
	case KindInt:
		return strconv.FormatInt(v.Int, 10)
	case KindString:
		return v.Str
	case KindList:
		parts := make([]string, len(v.List))
		for i, item := range v.List {
			parts[i] = item.Quoted()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case KindScope:
		return "{...}"
	}
	return ""
}

// Quoted renders v the way it would appear as a literal in source, with
// strings surrounded by double quotes.
func (v Value) Quoted() string {
	if v.Kind == KindString {
		return strconv.Quote(v.Str)
	}
	return v.String()
}

// Copy implements the copy-on-demand rule for lists and scopes: copying a
// list or scope value clones its contents rather than sharing them, while
// scalars are trivially copied by value already.
func (v Value) Copy() Value {
	switch v.Kind {
	case KindList:
		items := make([]Value, len(v.List))
		for i, item := range v.List {
			items[i] = item.Copy()
		}
		return NewList(items)
	case KindScope:
		return NewScopeValue(v.Scope.Clone())
	default:
		return v
	}
}

// Equal reports structural equality, used by the `==`/`!=` operators.
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case KindNone:
		return true
	case KindBool:
		return v.Bool == o.Bool
	case KindInt:
		return v.Int == o.Int
	case KindString:
		return v.Str == o.Str
	case KindList:
		if len(v.List) != len(o.List) {
			return false
		}
		for i := range v.List {
			if !v.List[i].Equal(o.List[i]) {
				return false
			}
		}
		return true
	case KindScope:
		return v.Scope == o.Scope
	}
	return false
}

// Add implements the `+` operator: integer addition, string concatenation,
// or list concatenation (append-if-unique is a target-field concern, not a
// property of the generic `+` operator itself).
func Add(a, b Value) (Value, error) {
	if a.Kind != b.Kind {
		return None, fmt.Errorf("cannot add %s to %s", b.Kind, a.Kind)
	}
	switch a.Kind {
	case KindInt:
		return NewInt(a.Int + b.Int), nil
	case KindString:
		return NewString(a.Str + b.Str), nil
	case KindList:
		out := make([]Value, 0, len(a.List)+len(b.List))
		out = append(out, a.List...)
		out = append(out, b.List...)
		return NewList(out), nil
	}
	return None, fmt.Errorf("operator + not defined on type %s", a.Kind)
}

// Sub implements the `-` operator, which for lists removes every matching
// element of b from a rather than indexwise subtraction (GN's "-=" removal
// semantics on list-valued target fields).
func Sub(a, b Value) (Value, error) {
	if a.Kind != b.Kind {
		return None, fmt.Errorf("cannot subtract %s from %s", b.Kind, a.Kind)
	}
	switch a.Kind {
	case KindInt:
		return NewInt(a.Int - b.Int), nil
	case KindList:
		out := make([]Value, 0, len(a.List))
		for _, item := range a.List {
			remove := false
			for _, r := range b.List {
				if item.Equal(r) {
					remove = true
					break
				}
			}
			if !remove {
				out = append(out, item)
			}
		}
		return NewList(out), nil
	}
	return None, fmt.Errorf("operator - not defined on type %s", a.Kind)
}

// Strings returns v's list elements as plain Go strings, erroring if v
// isn't a list of strings. This is the common case for target fields like
// `sources`/`deps`.
func (v Value) Strings() ([]string, error) {
	if v.Kind != KindList {
		return nil, fmt.Errorf("expected a list, got %s", v.Kind)
	}
	out := make([]string, len(v.List))
	for i, item := range v.List {
		if item.Kind != KindString {
			return nil, fmt.Errorf("expected a list of strings, element %d is %s", i, item.Kind)
		}
		out[i] = item.Str
	}
	return out, nil
}
