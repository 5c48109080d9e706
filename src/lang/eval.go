package lang

import (
	"fmt"

	"github.com/forgebuild/bg/src/core"
)

// Importer resolves `import("//path/file.gni")` and `subinclude`-style
// references on behalf of the evaluator. The loader package supplies the
// concrete implementation (component E); the evaluator only needs this
// much of it, which keeps src/lang free of any knowledge of file-system
// layout, once-only tracking, or worker pools.
type Importer interface {
	// Import parses and evaluates path (if not already evaluated for this
	// toolchain) and returns its top-level scope.
	Import(path string, fromDir core.SourceDir) (*Scope, error)
}

// Evaluator walks a parsed Block, producing Target/Config/Toolchain/Pool
// items that it hands to Resolver (component G) as it goes, exactly as
// spec.md 4.D describes: "construct a Target item from the resulting
// scope's recognized variables."
type Evaluator struct {
	Graph    *core.BuildGraph
	Resolver *core.Resolver
	Settings *core.Settings
	Importer Importer
	// Args holds build-arg overrides (from --args) that override a
	// declare_args() block's own defaults.
	Args map[string]Value

	CurrentDir       core.SourceDir
	CurrentFile      core.SourceFile
	CurrentToolchain core.Label

	// Declared accumulates every target this evaluation run has declared,
	// in declaration order. The loader walks it after EvalFile returns to
	// find which directories it still needs to enqueue (spec.md 4.E step 7).
	Declared []*core.Target
}

// evalError is how the evaluator signals a fatal-for-this-file error; it's
// caught at EvalFile's boundary and turned into a *core.GenError.
type evalError struct {
	pos Position
	msg string
}

func (e *evalError) Error() string { return fmt.Sprintf("%s: %s", e.pos, e.msg) }

func (e *Evaluator) fail(pos Position, format string, args ...interface{}) {
	panic(&evalError{pos: pos, msg: fmt.Sprintf(format, args...)})
}

func (e *Evaluator) loc(pos Position) core.Location {
	return core.Location{File: core.SourceFile(pos.Filename), Line: pos.Line, Column: pos.Column}
}

// EvalFile executes blk (the result of Parse) in scope, recovering any
// evaluation error into a *core.GenError rather than letting it escape —
// exactly the "fatal for the file" semantics of spec.md §7.2.
func (e *Evaluator) EvalFile(blk *Block, scope *Scope) *core.GenError {
	var result *core.GenError
	func() {
		defer func() {
			if r := recover(); r != nil {
				ee, ok := r.(*evalError)
				if !ok {
					panic(r)
				}
				result = core.NewError(core.ErrEvaluation, e.loc(ee.pos), "%s", ee.msg)
				return
			}
		}()
		e.execBlock(blk, scope)
	}()
	return result
}

func (e *Evaluator) execBlock(blk *Block, scope *Scope) {
	for _, stmt := range blk.Statements {
		e.execStatement(stmt, scope)
	}
}

func (e *Evaluator) execStatement(node Node, scope *Scope) {
	switch n := node.(type) {
	case *BlockComment:
		return
	case *ConditionNode:
		e.execCondition(n, scope)
	case *ForeachNode:
		e.execForeach(n, scope)
	case *BinaryOp:
		e.execAssignOrExpr(n, scope)
	case *FunctionCall:
		e.callFunction(n, scope)
	default:
		// A bare expression statement; evaluate for side effects (rare,
		// but harmless) and discard the value.
		e.evalExpr(node, scope)
	}
}

// execCondition runs the chosen branch in scope itself, so assignments made
// inside an if/else body stay visible after it.
func (e *Evaluator) execCondition(n *ConditionNode, scope *Scope) {
	if e.evalExpr(n.Cond, scope).IsTruthy() {
		e.execBlock(n.Then, scope)
		return
	}
	switch els := n.Else.(type) {
	case nil:
		return
	case *Block:
		e.execBlock(els, scope)
	case *ConditionNode:
		e.execCondition(els, scope)
	}
}

func (e *Evaluator) execForeach(n *ForeachNode, scope *Scope) {
	list := e.evalExpr(n.List, scope)
	if list.Kind != KindList {
		e.fail(n.Pos, "foreach() requires a list, got %s", list.Kind)
	}
	for _, item := range list.List {
		child := NewScope(scope)
		child.SetValue(n.Var, item, n.Pos)
		e.execBlock(n.Body, child)
	}
}

// execAssignOrExpr handles `=`, `+=`, `-=` to an Identifier or Accessor
// target; any other BinaryOp appearing as a standalone statement is
// evaluated for its value and discarded (the parser never actually
// produces that outside an assignment today, but this keeps the switch
// total).
func (e *Evaluator) execAssignOrExpr(n *BinaryOp, scope *Scope) {
	switch n.Op {
	case "=", "+=", "-=":
		rhs := e.evalExpr(n.RHS, scope)
		e.assign(n.LHS, n.Op, rhs, scope)
	default:
		e.evalExpr(n, scope)
	}
}

func (e *Evaluator) assign(lhs Node, op string, rhs Value, scope *Scope) {
	switch l := lhs.(type) {
	case *Identifier:
		if op == "=" {
			scope.SetValue(l.Name, rhs.Copy(), l.Pos)
			return
		}
		cur, ok := scope.GetValue(l.Name)
		if !ok {
			e.fail(l.Pos, "%s+= on undefined variable %s", op, l.Name)
		}
		e.combineAndStore(l.Name, cur, op, rhs, l.Pos, scope)
	case *Accessor:
		if l.Name != "" {
			// scope.name = value; only meaningful for scope-valued bases,
			// which in this language are effectively just `invoker`-style
			// read targets, so assignment through an accessor isn't
			// supported (mirrors GN, which also disallows writing into
			// another scope's members directly).
			e.fail(l.Pos, "cannot assign to %s.%s", describeBase(l.Base), l.Name)
		}
		e.fail(l.Pos, "cannot assign to an indexed expression")
	default:
		e.fail(lhs.position(), "invalid assignment target")
	}
}

func (e *Evaluator) combineAndStore(name string, cur Value, op string, rhs Value, pos Position, scope *Scope) {
	var result Value
	var err error
	if op == "+=" {
		result, err = Add(cur, rhs)
	} else {
		result, err = Sub(cur, rhs)
	}
	if err != nil {
		e.fail(pos, "%s", err.Error())
	}
	scope.SetValue(name, result, pos)
}

func describeBase(n Node) string {
	if id, ok := n.(*Identifier); ok {
		return id.Name
	}
	return "<expr>"
}

func (e *Evaluator) evalExpr(node Node, scope *Scope) Value {
	switch n := node.(type) {
	case *Literal:
		return e.evalLiteral(n)
	case *Identifier:
		switch n.Name {
		case "true":
			return NewBool(true)
		case "false":
			return NewBool(false)
		}
		v, ok := scope.GetValue(n.Name)
		if !ok {
			e.fail(n.Pos, "undefined variable %q", n.Name)
		}
		return v
	case *List:
		items := make([]Value, len(n.Items))
		for i, item := range n.Items {
			items[i] = e.evalExpr(item, scope)
		}
		return NewList(items)
	case *UnaryOp:
		v := e.evalExpr(n.Expr, scope)
		switch n.Op {
		case "!":
			return NewBool(!v.IsTruthy())
		case "-":
			if v.Kind != KindInt {
				e.fail(n.Pos, "unary - requires an int, got %s", v.Kind)
			}
			return NewInt(-v.Int)
		}
	case *BinaryOp:
		return e.evalBinary(n, scope)
	case *Accessor:
		return e.evalAccessor(n, scope)
	case *FunctionCall:
		return e.callFunction(n, scope)
	}
	e.fail(node.position(), "cannot evaluate expression")
	panic("unreachable")
}

func (e *Evaluator) evalLiteral(n *Literal) Value {
	if n.Kind == String {
		return NewString(n.Value)
	}
	return NewInt(parseSignedInt(n.Value))
}

func parseSignedInt(s string) int64 {
	neg := false
	i := 0
	if len(s) > 0 && s[0] == '-' {
		neg = true
		i = 1
	}
	var v int64
	for ; i < len(s); i++ {
		v = v*10 + int64(s[i]-'0')
	}
	if neg {
		v = -v
	}
	return v
}

func (e *Evaluator) evalBinary(n *BinaryOp, scope *Scope) Value {
	switch n.Op {
	case "&&":
		l := e.evalExpr(n.LHS, scope)
		if !l.IsTruthy() {
			return NewBool(false)
		}
		return NewBool(e.evalExpr(n.RHS, scope).IsTruthy())
	case "||":
		l := e.evalExpr(n.LHS, scope)
		if l.IsTruthy() {
			return NewBool(true)
		}
		return NewBool(e.evalExpr(n.RHS, scope).IsTruthy())
	}
	l := e.evalExpr(n.LHS, scope)
	r := e.evalExpr(n.RHS, scope)
	switch n.Op {
	case "+":
		v, err := Add(l, r)
		if err != nil {
			e.fail(n.Pos, "%s", err.Error())
		}
		return v
	case "-":
		v, err := Sub(l, r)
		if err != nil {
			e.fail(n.Pos, "%s", err.Error())
		}
		return v
	case "==":
		return NewBool(l.Equal(r))
	case "!=":
		return NewBool(!l.Equal(r))
	case "<", "<=", ">", ">=":
		return e.evalCompare(n.Op, l, r, n.Pos)
	}
	e.fail(n.Pos, "unsupported operator %q", n.Op)
	panic("unreachable")
}

func (e *Evaluator) evalCompare(op string, l, r Value, pos Position) Value {
	if l.Kind != r.Kind || (l.Kind != KindInt && l.Kind != KindString) {
		e.fail(pos, "operator %s requires two ints or two strings", op)
	}
	var cmp int
	if l.Kind == KindInt {
		switch {
		case l.Int < r.Int:
			cmp = -1
		case l.Int > r.Int:
			cmp = 1
		}
	} else {
		switch {
		case l.Str < r.Str:
			cmp = -1
		case l.Str > r.Str:
			cmp = 1
		}
	}
	switch op {
	case "<":
		return NewBool(cmp < 0)
	case "<=":
		return NewBool(cmp <= 0)
	case ">":
		return NewBool(cmp > 0)
	case ">=":
		return NewBool(cmp >= 0)
	}
	panic("unreachable")
}

func (e *Evaluator) evalAccessor(n *Accessor, scope *Scope) Value {
	base := e.evalExpr(n.Base, scope)
	if n.Index != nil {
		if base.Kind != KindList {
			e.fail(n.Pos, "cannot index into %s", base.Kind)
		}
		idx := e.evalExpr(n.Index, scope)
		if idx.Kind != KindInt {
			e.fail(n.Pos, "list index must be an int")
		}
		if idx.Int < 0 || int(idx.Int) >= len(base.List) {
			e.fail(n.Pos, "index %d out of range (list has %d elements)", idx.Int, len(base.List))
		}
		return base.List[idx.Int]
	}
	if base.Kind != KindScope {
		e.fail(n.Pos, "cannot access member %q of %s", n.Name, base.Kind)
	}
	v, ok := base.Scope.GetValue(n.Name)
	if !ok {
		return None
	}
	return v
}
