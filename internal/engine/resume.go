package engine

import "github.com/jeremyfa/loreline-go/internal/scope"

// resumeFromScope implements the insertion-epilogue half of spec §4.7.4's
// resume procedure, reused from spec §4.3's selection dispatch: every
// scope still on the stack above stackIndex already finished executing
// for real (its body head is the choice statement the pick substituted
// for), so resuming here means continuing each one's body from the
// statement after its body head, outermost scope last, until the
// snapshot is exhausted and next (the original choice's own
// continuation) fires.
func (e *Engine) resumeFromScope(stackIndex int, next func()) {
	if stackIndex < 0 {
		next()
		return
	}
	s := e.Stack.At(stackIndex)
	body, idx, ok := bodyAndIndex(s)
	if !ok {
		e.popScope(s)
		e.resumeFromScope(stackIndex-1, next)
		return
	}
	e.walk(s, body, idx+1, func() {
		e.resumeFromScope(stackIndex-1, next)
	})
}

// Resume re-enters a scope stack freshly rebuilt by a restore (spec
// §4.7.4): scopes are descended outermost to innermost, each skipping to
// its recorded body head without re-executing what came before it, until
// the innermost (leaf) scope is reached and re-dispatched to the normal
// per-kind evaluator -- naturally reproducing the dialogue or choice
// event the host was waiting on when the session was saved. Called by
// internal/serialize once the Store, Stack, and Insertions arena have
// been rebuilt.
func (e *Engine) Resume(next func()) {
	e.resumeDescend(0, next)
}

func (e *Engine) resumeDescend(stackIndex int, next func()) {
	if stackIndex >= e.Stack.Len() {
		next()
		return
	}
	s := e.Stack.At(stackIndex)
	if stackIndex == e.Stack.Len()-1 {
		e.resumeLeaf(s, next)
		return
	}
	body, idx, ok := bodyAndIndex(s)
	if !ok {
		e.resumeDescend(stackIndex+1, next)
		return
	}
	e.resumeDescend(stackIndex+1, func() {
		e.walk(s, body, idx+1, next)
	})
}

// resumeLeaf re-dispatches the innermost scope's recorded body head
// through the normal statement evaluator, which re-renders dialogue text
// or re-collects and re-presents a choice exactly as the Continuation
// Core would have done the first time.
func (e *Engine) resumeLeaf(s *scope.Scope, next func()) {
	body, idx, ok := bodyAndIndex(s)
	if !ok {
		e.popScope(s)
		next()
		return
	}
	e.walk(s, body, idx, next)
}
