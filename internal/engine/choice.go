package engine

import (
	"errors"

	"github.com/jeremyfa/loreline-go/ast"
	"github.com/jeremyfa/loreline-go/internal/errs"
	"github.com/jeremyfa/loreline-go/internal/scope"
	"github.com/jeremyfa/loreline-go/internal/values"
)

// errAlreadyFailed is a sentinel collect()/collectInsertion() done(...)
// call when a nested walk already drove the engine to e.fail:
// evalChoice's own err != nil branch calls e.fail again, which is a
// harmless no-op (e.fail is idempotent once e.finished is set), so the
// failure is never reported twice to the host.
var errAlreadyFailed = errors.New("engine: aborted")

// evalChoice implements spec §4.3: collect (Phase 1), then either hand
// the flattened list to the host (Phase 2) or, if this choice's own scope
// is itself being collected for an enclosing insertion, capture-and-defer
// without calling the host at all.
//
// collect is itself continuation-passing: an insertion target's body can
// contain dialogue, and a host is free to answer a dialogue callback
// asynchronously, so Phase 1 may suspend every bit as much as ordinary
// body execution does. done is called exactly once, synchronously if
// nothing along the way suspended, later otherwise.
func (e *Engine) evalChoice(n *ast.ChoiceStatement, s *scope.Scope, next func()) {
	e.collect(n, s.Beat, func(options []scope.ChoiceOption, err error) {
		if err != nil {
			e.fail(err)
			return
		}

		if s.Insertion != nil && !s.Insertion.Collected {
			s.Insertion.Collected = true
			s.Insertion.Options = options
			s.Insertion.Stack = e.Stack.Snapshot()
			next()
			return
		}

		e.present(n, s, options, next)
	})
}

// collect is Phase 1: walk entries in source order, evaluating option
// guards/text inline and recursively flattening insertions.
func (e *Engine) collect(n *ast.ChoiceStatement, enclosingBeat *ast.BeatDecl, done func([]scope.ChoiceOption, error)) {
	var out []scope.ChoiceOption
	entries := n.Entries
	var step func(i int)
	step = func(i int) {
		if i >= len(entries) {
			done(out, nil)
			return
		}
		switch ent := entries[i].(type) {
		case *ast.ChoiceOptionNode:
			enabled := true
			if ent.Condition != nil {
				v, err := e.evalExpr(ent.Condition)
				if err != nil {
					done(nil, err)
					return
				}
				enabled = values.Truthy(v)
			}
			text, tags, err := e.renderTemplate(ent.Text)
			if err != nil {
				done(nil, err)
				return
			}
			out = append(out, scope.ChoiceOption{
				DisplayText: text,
				Tags:        tags,
				Enabled:     enabled,
				Source:      ent,
				Insertion:   nil,
			})
			step(i + 1)
		case *ast.InsertionNode:
			e.collectInsertion(ent, enclosingBeat, func(opts []scope.ChoiceOption, err error) {
				if err != nil {
					done(nil, err)
					return
				}
				out = append(out, opts...)
				step(i + 1)
			})
		default:
			step(i + 1)
		}
	}
	step(0)
}

// collectInsertion implements spec §4.3's insertion handling: run the
// target beat as a normal execution (its dialogue and side effects before
// its first choice happen for real, exactly as if the player were already
// there, including any asynchronous suspension a host dialogue callback
// introduces), with a fresh RuntimeInsertion attached to the scope that
// enters it so the inserted choice's own Phase 1 captures-and-returns
// instead of presenting to the host.
func (e *Engine) collectInsertion(n *ast.InsertionNode, enclosingBeat *ast.BeatDecl, done func([]scope.ChoiceOption, error)) {
	target, ok := e.Lens.ResolveBeat(enclosingBeat, n.TargetBeat)
	if !ok {
		done(nil, errs.NewUnknownBeat(n.Pos(), n.TargetBeat))
		return
	}

	ins := &scope.RuntimeInsertion{ID: e.allocInsertionID(), Origin: n}
	e.Insertions[ins.ID] = ins

	s := scope.NewScope(e.allocScopeID(), target, target)
	s.Insertion = ins
	e.Stack.Push(s)
	e.walk(s, target.Body, 0, func() {
		// A failure inside the walk calls e.fail directly rather than
		// returning an error down this closure, so it must be checked
		// explicitly to avoid reporting a collected-nothing result
		// instead of the real failure.
		if e.finished {
			done(nil, errAlreadyFailed)
			return
		}
		if !ins.Collected {
			// The inserted beat's body ran to completion (or
			// transitioned away) without ever reaching a choice node;
			// it contributes no options.
			done(nil, nil)
			return
		}
		owned := make([]scope.ChoiceOption, len(ins.Options))
		for i, opt := range ins.Options {
			if opt.Insertion == nil {
				opt.Insertion = ins
			}
			owned[i] = opt
		}
		done(owned, nil)
	})
}

// present is Phase 2: invoke the host choice callback with the flattened
// option list and dispatch the selected option per spec §4.3's
// "Selection dispatch".
func (e *Engine) present(n *ast.ChoiceStatement, s *scope.Scope, options []scope.ChoiceOption, next func()) {
	used := false
	c := e.wrap(nil)
	selectFn := func(index int) {
		if used {
			panic(errs.NewHostContractError("select invoked more than once"))
		}
		used = true
		if index < 0 || index >= len(options) {
			panic(errs.NewHostContractError("select invoked with an out-of-range index"))
		}
		c.target = func() { e.dispatchSelection(n, s, options[index], next) }
		c.invoke()
	}
	if e.Callbacks.Choice != nil {
		e.Callbacks.Choice(e, options, selectFn)
	}
	c.release()
}

// dispatchSelection implements spec §4.3's selection dispatch.
func (e *Engine) dispatchSelection(n *ast.ChoiceStatement, s *scope.Scope, opt scope.ChoiceOption, next func()) {
	optionNode, _ := opt.Source.(*ast.ChoiceOptionNode)
	if opt.Insertion == nil {
		if optionNode != nil {
			// The new scope is tagged with optionNode itself, not n (the
			// enclosing ChoiceStatement): bodyAndIndex re-derives a
			// saved scope's body purely from its own Node field, and
			// only knows how to do that for a ChoiceOptionNode, not for
			// the ChoiceStatement that contains it.
			e.runBody(s.Beat, optionNode, optionNode.Body, next)
		} else {
			next()
		}
		return
	}

	ins := opt.Insertion
	e.Stack.Replace(ins.Stack)
	e.Stack.ClearInsertions()

	resumeScope := scope.NewScope(e.allocScopeID(), s.Beat, optionNode)
	resumeScope.BodyHead = opt.Source
	e.Stack.Push(resumeScope)

	if optionNode == nil {
		e.resumeFromScope(e.Stack.Len()-1, next)
		return
	}
	e.walk(resumeScope, optionNode.Body, 0, func() {
		e.popScope(resumeScope)
		e.resumeFromScope(e.Stack.Len()-1, next)
	})
}
