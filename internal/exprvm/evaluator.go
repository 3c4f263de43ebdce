// Package exprvm is the expression evaluator collaborator from spec §6.2.
// It resolves identifiers, field and array access, and function calls
// against the Store directly (those are Loreline-specific: the local
// state chain, character fields, and the strict/lax undefined-binding
// policy are not something a generic expression library knows about), and
// delegates purely arithmetic/comparison/logical operators to
// github.com/expr-lang/expr, the same way getmockd-mockd's stateful
// executor compiles and caches one expr.Program per distinct expression
// text (internal/stateful/executor.go).
//
// Unlike mockd, the "expression text" compiled here is never user-facing
// source -- it is a tiny two-operand fragment ("left + right", "not x")
// synthesized from an already-parsed ast.BinaryExpr/ast.UnaryExpr, so the
// cache key is the operator plus each operand's Go type rather than a
// hash of source text.
package exprvm

import (
	"fmt"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/jeremyfa/loreline-go/ast"
	"github.com/jeremyfa/loreline-go/internal/errs"
	"github.com/jeremyfa/loreline-go/internal/store"
	"github.com/jeremyfa/loreline-go/internal/values"
)

// ReadScope resolves a bare name against the currently active local state
// chain (innermost scope first, per spec §4.6 step 1). It does not cover
// top-level state, characters, or functions -- the Evaluator consults the
// Store and FunctionCaller directly for those, since they are global
// rather than scope-dependent.
type ReadScope interface {
	ResolveLocal(name string) (values.Value, bool)
}

// FunctionCaller dispatches a named function call to whichever of a
// host-registered function or a script-level function can serve it; a
// name that resolves to a beat is reported as an error, since beats run
// as subroutines only from Call statements. Implemented by
// internal/engine.Engine, which is the only component with enough context
// (the continuation core) to run a function body.
type FunctionCaller interface {
	CallFunction(pos ast.Position, name string, args []values.Value) (values.Value, error)
}

// Env bundles everything one Eval call needs beyond the expression node
// itself. It is assembled fresh by the engine for each statement/guard
// evaluation from the currently active scope stack.
type Env struct {
	Store  *store.Store
	Caller FunctionCaller
	Locals ReadScope
	// KnownFunction reports whether name resolves to a callable (script
	// function or host function), used to classify a bare identifier as a
	// FunctionRef value rather than an undefined binding.
	KnownFunction func(name string) bool
}

// Evaluator evaluates ast.Expression trees against an Env.
type Evaluator struct {
	mu    sync.Mutex
	cache map[string]*vm.Program
}

func New() *Evaluator {
	return &Evaluator{cache: map[string]*vm.Program{}}
}

// Eval evaluates expr against env, returning a typed runtime error (from
// internal/errs) on failure.
func (ev *Evaluator) Eval(node ast.Expression, env *Env) (values.Value, error) {
	switch n := node.(type) {
	case *ast.NumberLiteral:
		if n.IsInt {
			return values.Int{Value: int64(n.Value)}, nil
		}
		return values.Number{Value: n.Value}, nil
	case *ast.BooleanLiteral:
		return values.Bool{Value: n.Value}, nil
	case *ast.NullLiteral:
		return values.Null{}, nil
	case *ast.StringLiteral:
		text, _, err := ev.Render(n, env)
		if err != nil {
			return nil, err
		}
		return values.Text{Value: text}, nil
	case *ast.Identifier:
		return ev.resolveIdentifier(n, env)
	case *ast.ArrayLiteral:
		elems := make([]values.Value, len(n.Elements))
		for i, e := range n.Elements {
			v, err := ev.Eval(e, env)
			if err != nil {
				return nil, err
			}
			elems[i] = v
		}
		return values.Array{Elements: elems}, nil
	case *ast.ObjectLiteral:
		obj := values.NewObject()
		for _, f := range n.Fields {
			v, err := ev.Eval(f.Value, env)
			if err != nil {
				return nil, err
			}
			obj.Set(f.Name, v)
		}
		return obj, nil
	case *ast.FieldAccessExpr:
		return ev.evalFieldAccess(n, env)
	case *ast.ArrayAccessExpr:
		return ev.evalArrayAccess(n, env)
	case *ast.CallExpression:
		return ev.evalCall(n, env)
	case *ast.UnaryExpr:
		return ev.evalUnary(n, env)
	case *ast.BinaryExpr:
		return ev.evalBinary(n, env)
	default:
		return nil, errs.NewEvaluationError(node.Pos(), "<expr>", fmt.Errorf("unsupported expression node %T", node))
	}
}

func (ev *Evaluator) resolveIdentifier(n *ast.Identifier, env *Env) (values.Value, error) {
	if v, ok := env.Locals.ResolveLocal(n.Name); ok {
		return v, nil
	}
	if env.Store.TopLevel.Has(n.Name) {
		v, _ := env.Store.TopLevel.Get(n.Name)
		return v, nil
	}
	if _, ok := env.Store.Characters[n.Name]; ok {
		return values.CharacterRef{Name: n.Name}, nil
	}
	if env.KnownFunction != nil && env.KnownFunction(n.Name) {
		return values.FunctionRef{Name: n.Name}, nil
	}
	return nil, errs.NewUndefinedBinding(n.Pos(), n.Name)
}

func (ev *Evaluator) evalFieldAccess(n *ast.FieldAccessExpr, env *Env) (values.Value, error) {
	target, err := ev.Eval(n.Target, env)
	if err != nil {
		return nil, err
	}
	switch t := target.(type) {
	case values.CharacterRef:
		c, ok := env.Store.Characters[t.Name]
		if !ok {
			return nil, errs.NewUnknownCharacter(n.Pos(), t.Name)
		}
		v, ok := c.Get(n.Field)
		if !ok {
			return nil, errs.NewEvaluationError(n.Pos(), n.Field, fmt.Errorf("character %q has no field %q", t.Name, n.Field))
		}
		return v, nil
	case *values.Object:
		v, ok := t.Get(n.Field)
		if !ok {
			return nil, errs.NewEvaluationError(n.Pos(), n.Field, fmt.Errorf("object has no field %q", n.Field))
		}
		return v, nil
	default:
		return nil, errs.NewEvaluationError(n.Pos(), n.Field, fmt.Errorf("cannot read field %q of %s", n.Field, target.Kind()))
	}
}

func (ev *Evaluator) evalArrayAccess(n *ast.ArrayAccessExpr, env *Env) (values.Value, error) {
	target, err := ev.Eval(n.Target, env)
	if err != nil {
		return nil, err
	}
	idx, err := ev.Eval(n.Index, env)
	if err != nil {
		return nil, err
	}
	arr, ok := target.(values.Array)
	if !ok {
		return nil, errs.NewEvaluationError(n.Pos(), "[]", fmt.Errorf("cannot index into %s", target.Kind()))
	}
	i, ok := idx.(values.Int)
	if !ok {
		return nil, errs.NewEvaluationError(n.Pos(), "[]", fmt.Errorf("array index must be an integer, got %s", idx.Kind()))
	}
	if i.Value < 0 || i.Value >= int64(len(arr.Elements)) {
		return nil, errs.NewEvaluationError(n.Pos(), "[]", fmt.Errorf("array index %d out of bounds (len %d)", i.Value, len(arr.Elements)))
	}
	return arr.Elements[i.Value], nil
}

func (ev *Evaluator) evalCall(n *ast.CallExpression, env *Env) (values.Value, error) {
	ident, ok := n.Callee.(*ast.Identifier)
	if !ok {
		return nil, errs.NewEvaluationError(n.Pos(), "<call>", fmt.Errorf("call target must be a plain name"))
	}
	args := make([]values.Value, len(n.Args))
	for i, a := range n.Args {
		v, err := ev.Eval(a, env)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}
	v, err := env.Caller.CallFunction(n.Pos(), ident.Name, args)
	if err != nil {
		return nil, errs.NewEvaluationError(n.Pos(), ident.Name, err)
	}
	return v, nil
}

func (ev *Evaluator) evalUnary(n *ast.UnaryExpr, env *Env) (values.Value, error) {
	operand, err := ev.Eval(n.Operand, env)
	if err != nil {
		return nil, err
	}
	x := ToGo(operand)
	text := n.Operator + " x"
	key := "u:" + n.Operator + ":" + typeTag(x)
	program, err := ev.compile(key, text, map[string]interface{}{"x": x})
	if err != nil {
		return nil, errs.NewEvaluationError(n.Pos(), text, err)
	}
	out, err := expr.Run(program, map[string]interface{}{"x": x})
	if err != nil {
		return nil, errs.NewEvaluationError(n.Pos(), text, err)
	}
	return FromGo(out), nil
}

func (ev *Evaluator) evalBinary(n *ast.BinaryExpr, env *Env) (values.Value, error) {
	left, err := ev.Eval(n.Left, env)
	if err != nil {
		return nil, err
	}
	right, err := ev.Eval(n.Right, env)
	if err != nil {
		return nil, err
	}
	l, r := ToGo(left), ToGo(right)
	text := "left " + n.Operator + " right"
	key := "b:" + n.Operator + ":" + typeTag(l) + ":" + typeTag(r)
	env2 := map[string]interface{}{"left": l, "right": r}
	program, err := ev.compile(key, text, env2)
	if err != nil {
		return nil, errs.NewEvaluationError(n.Pos(), text, err)
	}
	out, err := expr.Run(program, env2)
	if err != nil {
		return nil, errs.NewEvaluationError(n.Pos(), text, err)
	}
	return FromGo(out), nil
}

func (ev *Evaluator) compile(key, text string, env map[string]interface{}) (*vm.Program, error) {
	ev.mu.Lock()
	if p, ok := ev.cache[key]; ok {
		ev.mu.Unlock()
		return p, nil
	}
	ev.mu.Unlock()

	program, err := expr.Compile(text, expr.Env(env))
	if err != nil {
		return nil, err
	}

	ev.mu.Lock()
	ev.cache[key] = program
	ev.mu.Unlock()
	return program, nil
}
