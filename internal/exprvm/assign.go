package exprvm

import (
	"github.com/expr-lang/expr"

	"github.com/jeremyfa/loreline-go/ast"
	"github.com/jeremyfa/loreline-go/internal/errs"
	"github.com/jeremyfa/loreline-go/internal/values"
)

// WriteScope is the scope-stack-facing half of the write path (spec
// §4.6): it finds which local container, if any, already declares Root,
// so Assign can write through it instead of falling to top-level state.
type WriteScope interface {
	// ResolveLocalContainer returns the innermost local container (state
	// declaration or Alternative/body-local binding) that declares name.
	ResolveLocalContainer(name string) (LocalContainer, bool)
}

// LocalContainer is the minimal surface Assign needs from a local state
// container, kept independent of internal/store's concrete type so
// exprvm does not need an import cycle back through internal/scope.
type LocalContainer interface {
	Get(name string) (values.Value, bool)
	Set(name string, v values.Value)
}

// Assign implements the write path (spec §4.6): resolve Target.Root
// against the local chain, then top-level state, then (lax mode) create a
// new top-level binding; then walk Target.Fields, applying Operator to
// the final field.
func Assign(env *Env, ws WriteScope, target ast.AssignTarget, operator string, rhs values.Value, strict bool, pos ast.Position) error {
	if len(target.Fields) == 0 {
		return assignRoot(env, ws, target.Root, operator, rhs, strict, pos)
	}

	var container LocalContainer
	if lc, ok := ws.ResolveLocalContainer(target.Root); ok {
		container = lc
	} else if env.Store.TopLevel.Has(target.Root) {
		container = env.Store.TopLevel
	} else if c, ok := env.Store.Characters[target.Root]; ok {
		container = c
	} else {
		return errs.NewUndefinedBinding(pos, target.Root)
	}

	cur, ok := container.Get(target.Root)
	if !ok {
		return errs.NewUndefinedBinding(pos, target.Root)
	}

	path := target.Fields
	obj, ok := cur.(*values.Object)
	for i := 0; i < len(path)-1; i++ {
		if !ok {
			return errs.NewEvaluationError(pos, target.Root, errInvalidFieldPath(path[i]))
		}
		next, exists := obj.Get(path[i])
		if !exists {
			return errs.NewEvaluationError(pos, target.Root, errInvalidFieldPath(path[i]))
		}
		obj, ok = next.(*values.Object)
	}
	if !ok {
		return errs.NewEvaluationError(pos, target.Root, errInvalidFieldPath(path[len(path)-1]))
	}

	last := path[len(path)-1]
	existing, _ := obj.Get(last)
	newVal, err := applyOperator(operator, existing, rhs, pos)
	if err != nil {
		return err
	}
	obj.Set(last, newVal)
	container.Set(target.Root, cur)
	return nil
}

func assignRoot(env *Env, ws WriteScope, root, operator string, rhs values.Value, strict bool, pos ast.Position) error {
	if lc, ok := ws.ResolveLocalContainer(root); ok {
		existing, _ := lc.Get(root)
		newVal, err := applyOperator(operator, existing, rhs, pos)
		if err != nil {
			return err
		}
		lc.Set(root, newVal)
		return nil
	}
	if env.Store.TopLevel.Has(root) {
		existing, _ := env.Store.TopLevel.Get(root)
		newVal, err := applyOperator(operator, existing, rhs, pos)
		if err != nil {
			return err
		}
		env.Store.TopLevel.Set(root, newVal)
		return nil
	}
	if strict {
		return errs.NewUndefinedBinding(pos, root)
	}
	newVal, err := applyOperator(operator, values.Null{}, rhs, pos)
	if err != nil {
		return err
	}
	env.Store.TopLevel.Set(root, newVal)
	return nil
}

func applyOperator(operator string, existing, rhs values.Value, pos ast.Position) (values.Value, error) {
	if operator == "=" {
		return rhs, nil
	}
	base := operator[:len(operator)-1] // "+=" -> "+"
	l, r := ToGo(existing), ToGo(rhs)
	text := "left " + base + " right"
	env2 := map[string]interface{}{"left": l, "right": r}
	program, err := expr.Compile(text, expr.Env(env2))
	if err != nil {
		return nil, errs.NewEvaluationError(pos, text, err)
	}
	out, err := expr.Run(program, env2)
	if err != nil {
		return nil, errs.NewEvaluationError(pos, text, err)
	}
	return FromGo(out), nil
}

type fieldPathError struct{ field string }

func (e fieldPathError) Error() string { return "cannot descend through field " + e.field }

func errInvalidFieldPath(field string) error { return fieldPathError{field: field} }
