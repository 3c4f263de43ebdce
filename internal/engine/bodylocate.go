package engine

import (
	"github.com/jeremyfa/loreline-go/ast"
	"github.com/jeremyfa/loreline-go/internal/scope"
)

// bodyAndIndex recovers the statement slice a scope is walking and the
// index of its body head within it, purely from the scope's Node and
// BodyHead (spec §4.7.4's resume dispatch deliberately carries only
// `{id, kind}` pairs in a saved scope record, not a body reference, so
// the live body must always be re-derivable this way -- both right after
// a restore and, here, when reusing the same mechanism for insertion
// epilogues within a live session).
func bodyAndIndex(s *scope.Scope) (body []ast.Statement, index int, ok bool) {
	if s.BodyHead == nil {
		return nil, 0, false
	}
	switch n := s.Node.(type) {
	case *ast.Script:
		return nil, 0, false
	case *ast.BeatDecl:
		if i := indexOf(n.Body, s.BodyHead); i >= 0 {
			return n.Body, i, true
		}
	case *ast.Conditional:
		for _, branch := range n.Branches {
			if i := indexOf(branch.Body, s.BodyHead); i >= 0 {
				return branch.Body, i, true
			}
		}
	case *ast.Alternative:
		for _, branch := range n.Branches {
			if i := indexOf(branch, s.BodyHead); i >= 0 {
				return branch, i, true
			}
		}
	case *ast.ChoiceOptionNode:
		if i := indexOf(n.Body, s.BodyHead); i >= 0 {
			return n.Body, i, true
		}
	}
	return nil, 0, false
}

func indexOf(body []ast.Statement, target ast.Node) int {
	for i, stmt := range body {
		if stmt.ID() == target.ID() {
			return i
		}
	}
	return -1
}
