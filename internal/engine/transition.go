package engine

import (
	"fmt"

	"github.com/jeremyfa/loreline-go/ast"
	"github.com/jeremyfa/loreline-go/internal/errs"
	"github.com/jeremyfa/loreline-go/internal/exprvm"
	"github.com/jeremyfa/loreline-go/internal/scope"
	"github.com/jeremyfa/loreline-go/internal/store"
	"github.com/jeremyfa/loreline-go/internal/values"
)

// evalTransition implements spec §4.4's tail form: pop every scope, reset
// the id counters, allocate a fresh finish trigger, and enter the
// resolved beat's body using it as the outermost continuation. There is
// no return to the caller.
func (e *Engine) evalTransition(n *ast.Transition, s *scope.Scope) {
	if n.Target == "." {
		if e.finish != nil {
			e.finish()
		}
		return
	}

	var target *ast.BeatDecl
	if n.Target == "_" {
		target = rootBeat(s.Beat)
		if target == nil {
			e.fail(errs.NewUnknownBeat(n.Pos(), n.Target))
			return
		}
	} else {
		found, ok := e.Lens.ResolveBeat(s.Beat, n.Target)
		if !ok {
			e.fail(errs.NewUnknownBeat(n.Pos(), n.Target))
			return
		}
		target = found
	}

	e.ResetForTransition()
	e.finish = e.finishTrigger()
	e.runBody(target, target, target.Body, e.finish)
}

func rootBeat(b *ast.BeatDecl) *ast.BeatDecl {
	if b == nil {
		return nil
	}
	for b.Parent != nil {
		b = b.Parent
	}
	return b
}

// evalCall implements spec §4.4's subroutine form: if Target resolves to
// a beat, run its body with the caller's next as the continuation (the
// callee's frames pop naturally when its body completes); otherwise fall
// through to the expression evaluator's function-call path.
func (e *Engine) evalCall(n *ast.Call, s *scope.Scope, next func()) {
	if target, ok := e.Lens.ResolveBeat(s.Beat, n.Target); ok {
		e.runBody(target, target, target.Body, next)
		return
	}
	args := make([]values.Value, len(n.Args))
	for i, a := range n.Args {
		v, err := e.evalExpr(a)
		if err != nil {
			e.fail(err)
			return
		}
		args[i] = v
	}
	if _, err := e.CallFunction(n.Pos(), n.Target, args); err != nil {
		e.fail(err)
		return
	}
	next()
}

// CallFunction implements exprvm.FunctionCaller (spec §6.2): a
// host-registered function takes priority, then a script-level function
// declaration. A name that resolves to a beat is rejected here -- beat
// subroutine calls are only supported from Call statements (§4.4), not
// from inside an expression, since running a beat can suspend on a host
// callback and an expression evaluation cannot.
func (e *Engine) CallFunction(pos ast.Position, name string, args []values.Value) (values.Value, error) {
	if hf, ok := e.Opts.Functions[name]; ok {
		return hf(args)
	}
	if fd, ok := e.Lens.FunctionByName(name); ok {
		return e.callScriptFunction(fd, args)
	}
	if _, ok := e.Lens.BeatByPath(name); ok {
		return nil, fmt.Errorf("beat %q cannot be called from an expression context", name)
	}
	return nil, errs.NewUndefinedBinding(pos, name)
}

// callScriptFunction runs a script-level function's body synchronously to
// completion for its side effects. The AST's closed statement-kind set
// has no return-value construct, so a script function never produces a
// value of its own; it is a pure-effect helper (e.g. `function AddGold(n)
// { gold += n }`) invoked for what it mutates, not what it yields. Bodies
// containing a statement that could suspend on a host callback
// (dialogue/choice) or replace the stack (transition) are rejected, since
// an expression evaluation must complete synchronously.
func (e *Engine) callScriptFunction(fd *ast.FunctionDecl, args []values.Value) (values.Value, error) {
	order := make([]string, len(fd.Params))
	declared := make(map[string]values.Value, len(fd.Params))
	for i, p := range fd.Params {
		order[i] = p
		if i < len(args) {
			declared[p] = args[i]
		} else {
			declared[p] = values.Null{}
		}
	}
	s := scope.NewScope(e.allocScopeID(), nil, fd)
	s.LocalState = store.NewContainer(order, declared)
	s.LocalStateTemporary = true
	e.Stack.Push(s)
	defer e.Stack.Pop()

	for _, stmt := range fd.Body {
		if err := e.runSyncStatement(stmt); err != nil {
			return nil, err
		}
	}
	return values.Null{}, nil
}

// runSyncStatement executes the subset of statement kinds that can never
// suspend or replace the stack, for use inside callScriptFunction.
func (e *Engine) runSyncStatement(stmt ast.Statement) error {
	switch n := stmt.(type) {
	case *ast.Assignment:
		rhs, err := e.evalExpr(n.Value)
		if err != nil {
			return err
		}
		return exprvm.Assign(e.env(), e.Stack, n.Target, n.Operator, rhs, e.Opts.StrictAccess, n.Pos())
	case *ast.Conditional:
		for _, branch := range n.Branches {
			enter := branch.Condition == nil
			if !enter {
				v, err := e.evalExpr(branch.Condition)
				if err != nil {
					return err
				}
				enter = values.Truthy(v)
			}
			if enter {
				for _, inner := range branch.Body {
					if err := e.runSyncStatement(inner); err != nil {
						return err
					}
				}
				return nil
			}
		}
		return nil
	default:
		return fmt.Errorf("statement kind %v cannot appear in a function called from an expression", stmt.Kind())
	}
}
