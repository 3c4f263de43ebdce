package engine

import (
	"github.com/jeremyfa/loreline-go/ast"
	"github.com/jeremyfa/loreline-go/internal/errs"
	"github.com/jeremyfa/loreline-go/internal/exprvm"
	"github.com/jeremyfa/loreline-go/internal/scope"
	"github.com/jeremyfa/loreline-go/internal/store"
	"github.com/jeremyfa/loreline-go/internal/values"
)

// evalStatement is the statement evaluator dispatch table from spec §4.2.
func (e *Engine) evalStatement(node ast.Statement, s *scope.Scope, next func()) {
	switch n := node.(type) {
	case *ast.TextStatement:
		e.evalText(n, nil, n.Text, next)
	case *ast.DialogueStatement:
		e.evalText(n, &n.Character, n.Text, next)
	case *ast.Assignment:
		e.evalAssignment(n, next)
	case *ast.Conditional:
		e.evalConditional(n, s, next)
	case *ast.Alternative:
		e.evalAlternative(n, s, next)
	case *ast.Call:
		e.evalCall(n, s, next)
	case *ast.Transition:
		e.evalTransition(n, s)
	case *ast.StateDecl:
		e.evalLocalStateDecl(n, s, next)
	case *ast.ChoiceStatement:
		e.evalChoice(n, s, next)
	case *ast.BeatDecl:
		// A nested beat declaration is a hoisted definition, not a control
		// flow target; it is registered on the scope (spec §3's `beats`
		// field) and otherwise skipped over.
		s.Beats = append(s.Beats, n)
		next()
	default:
		e.fail(errs.NewEvaluationError(node.Pos(), "<statement>", unsupportedStatement{node}))
	}
}

type unsupportedStatement struct{ node ast.Statement }

func (u unsupportedStatement) Error() string { return "unsupported statement kind" }

func (e *Engine) evalText(node ast.Node, character *string, text *ast.StringLiteral, next func()) {
	plain, tags, err := e.renderTemplate(text)
	if err != nil {
		e.fail(err)
		return
	}

	var speaker *string
	if character != nil {
		name := e.displayName(*character)
		if name == "" {
			e.fail(errs.NewUnknownCharacter(node.Pos(), *character))
			return
		}
		speaker = &name
	}

	if e.Opts.Translations != nil {
		if replacement, ok := e.Opts.Translations[plain]; ok {
			plain = replacement
		}
	}

	c := e.wrap(next)
	if e.Callbacks.Dialogue != nil {
		e.Callbacks.Dialogue(e, speaker, plain, tags, c.invoke)
	} else {
		c.invoke()
	}
	c.release()
}

// displayName resolves a character's display name: its current `name`
// field if non-empty, else the declared identifier (spec §4.2). Returns
// "" if name is not a declared character.
func (e *Engine) displayName(name string) string {
	c, ok := e.Store.Characters[name]
	if !ok {
		return ""
	}
	if c.Has("name") {
		if v, ok := c.Get("name"); ok {
			if t, ok := v.(values.Text); ok && t.Value != "" {
				return t.Value
			}
		}
	}
	return name
}

func (e *Engine) evalAssignment(n *ast.Assignment, next func()) {
	rhs, err := e.evalExpr(n.Value)
	if err != nil {
		e.fail(err)
		return
	}
	if err := exprvm.Assign(e.env(), e.Stack, n.Target, n.Operator, rhs, e.Opts.StrictAccess, n.Pos()); err != nil {
		e.fail(err)
		return
	}
	next()
}

func (e *Engine) evalConditional(n *ast.Conditional, s *scope.Scope, next func()) {
	for _, branch := range n.Branches {
		if branch.Condition == nil {
			e.runBody(s.Beat, n, branch.Body, next)
			return
		}
		v, err := e.evalExpr(branch.Condition)
		if err != nil {
			e.fail(err)
			return
		}
		if values.Truthy(v) {
			e.runBody(s.Beat, n, branch.Body, next)
			return
		}
	}
	next()
}

func (e *Engine) evalLocalStateDecl(n *ast.StateDecl, s *scope.Scope, next func()) {
	if n.Temporary {
		declared, order, err := e.declaredFields(n.Fields)
		if err != nil {
			e.fail(err)
			return
		}
		s.LocalState = store.NewContainer(order, declared)
		s.LocalStateTemporary = true
		s.LocalStateOwner = n.ID()
		next()
		return
	}
	if existing, ok := e.Store.LookupNodeContainer(n.ID()); ok {
		s.LocalState = existing
		s.LocalStateTemporary = false
		s.LocalStateOwner = n.ID()
		next()
		return
	}
	declared, order, err := e.declaredFields(n.Fields)
	if err != nil {
		e.fail(err)
		return
	}
	s.LocalState = e.Store.NodeContainer(n.ID(), order, declared)
	s.LocalStateTemporary = false
	s.LocalStateOwner = n.ID()
	next()
}

func (e *Engine) declaredFields(fields []ast.CharacterField) (map[string]values.Value, []string, error) {
	declared := make(map[string]values.Value, len(fields))
	order := make([]string, len(fields))
	for i, f := range fields {
		v, err := e.evalExpr(f.Initial)
		if err != nil {
			return nil, nil, err
		}
		declared[f.Name] = v
		order[i] = f.Name
	}
	return declared, order, nil
}
