package engine

import (
	"github.com/jeremyfa/loreline-go/ast"
	"github.com/jeremyfa/loreline-go/internal/scope"
)

// runBody is the body walker from spec §4.1: entering a body creates a
// new scope and repeatedly advances through it, dispatching each
// statement to its evaluator with the trampoline-wrapped advance as its
// continuation.
func (e *Engine) runBody(beat *ast.BeatDecl, node ast.Node, body []ast.Statement, next func()) *scope.Scope {
	s := scope.NewScope(e.allocScopeID(), beat, node)
	e.Stack.Push(s)
	e.walk(s, body, 0, next)
	return s
}

// walk implements advance() for scope s positioned at body[index:], per
// spec §4.1 steps 1-3. It is also the re-entry point the Resumer uses to
// continue a body at a restored body head (internal/serialize).
func (e *Engine) walk(s *scope.Scope, body []ast.Statement, index int, next func()) {
	var advance func()
	advance = func() {
		if s.Insertion != nil && s.Insertion.Collected {
			e.popScope(s)
			next()
			return
		}
		if index < len(body) {
			stmt := body[index]
			s.BodyHead = stmt
			index++
			e.evalStatement(stmt, s, advance)
			return
		}
		e.popScope(s)
		next()
	}
	advance()
}

// popScope removes s from the top of the stack. Scopes are always popped
// in LIFO order by construction: runBody/walk recursion mirrors the
// explicit scope stack exactly.
func (e *Engine) popScope(s *scope.Scope) {
	if e.Stack.Top() == s {
		e.Stack.Pop()
	}
}
