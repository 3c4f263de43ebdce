package engine

import (
	"github.com/jeremyfa/loreline-go/ast"
	"github.com/jeremyfa/loreline-go/internal/scope"
)

// evalAlternative implements spec §4.5's five selection modes, storing the
// visit counter (and, for Shuffle, the current epoch's permutation) under
// the Alternative's own AST id in Store.NodeState.
func (e *Engine) evalAlternative(n *ast.Alternative, s *scope.Scope, next func()) {
	count := int64(len(n.Branches))
	if count == 0 {
		next()
		return
	}
	c := e.Store.Visits(n.ID())

	var branch int64
	switch n.Mode {
	case ast.AltSequence:
		branch = c
		if branch >= count {
			branch = count - 1
		}
		e.Store.SetVisits(n.ID(), c+1)
	case ast.AltCycle:
		branch = c % count
		e.Store.SetVisits(n.ID(), c+1)
	case ast.AltOnce:
		e.Store.SetVisits(n.ID(), c+1)
		if c >= count {
			next()
			return
		}
		branch = c
	case ast.AltPick:
		branch = int64(e.Rand.Intn(int(count)))
		e.Store.SetVisits(n.ID(), c+1)
	case ast.AltShuffle:
		if c%count == 0 {
			e.Store.SetShufflePermutation(n.ID(), e.freshPermutation(count))
		}
		perm, ok := e.Store.ShufflePermutation(n.ID())
		if !ok {
			perm = e.freshPermutation(count)
			e.Store.SetShufflePermutation(n.ID(), perm)
		}
		branch = perm[c%count]
		e.Store.SetVisits(n.ID(), c+1)
	default:
		branch = 0
	}

	e.runBody(s.Beat, n, n.Branches[branch], next)
}

func (e *Engine) freshPermutation(n int64) []int64 {
	perm := make([]int64, n)
	for i := range perm {
		perm[i] = int64(i)
	}
	e.Rand.Shuffle(int(n), func(i, j int) {
		perm[i], perm[j] = perm[j], perm[i]
	})
	return perm
}
