// Package scope implements the Scope Stack and RuntimeInsertion from spec
// §3/§4.1/§4.3: an ordered sequence of runtime scopes tracking position
// within one AST body, plus the insertion machinery that lets a choice
// flatten another beat's options into itself while preserving that beat's
// epilogue.
//
// Session-global scope/insertion id counters are owned by
// internal/engine.Engine (spec §3, "Ownership": the Interpreter owns the
// counters, reset only at a whole-stack transition), not by this package.
package scope

import (
	"github.com/jeremyfa/loreline-go/ast"
	"github.com/jeremyfa/loreline-go/internal/exprvm"
	"github.com/jeremyfa/loreline-go/internal/store"
	"github.com/jeremyfa/loreline-go/internal/values"
)

// ChoiceOption is the runtime projection of one entry in a flattened
// choice option list (spec §3, "ChoiceOption (runtime)").
type ChoiceOption struct {
	DisplayText string
	Tags        []exprvm.Tag
	Enabled     bool
	Source      ast.Node
	Insertion   *RuntimeInsertion
}

// RuntimeInsertion is created the first time an insertion entry is
// processed during Phase 1 collection, and lives in the Engine's
// id-keyed arena for the rest of the session so that scopes pointing back
// at it (spec §9's cycle note) can be serialized by id rather than by
// value.
type RuntimeInsertion struct {
	ID        int64
	Origin    *ast.InsertionNode
	Collected bool
	Options   []ChoiceOption
	Stack     []*Scope
}

// Scope is one runtime frame attached to a body-bearing AST node (spec
// §3, "Runtime scope").
type Scope struct {
	ID       int64
	Beat     *ast.BeatDecl
	Node     ast.Node
	BodyHead ast.Node
	Beats    []*ast.BeatDecl

	LocalState          *store.Container
	LocalStateTemporary bool
	// LocalStateOwner is the declaring StateDecl's own node id, set
	// whenever LocalState is non-nil. For a non-temporary declaration
	// this is also the key LocalState is filed under in
	// Store.NodeState, letting the Restorer reattach the shared
	// container instead of reconstructing a second copy of it.
	LocalStateOwner ast.NodeID

	Insertion *RuntimeInsertion
}

// NewScope constructs a scope attached to node, within beat, with id
// assigned by the caller's counter.
func NewScope(id int64, beat *ast.BeatDecl, node ast.Node) *Scope {
	return &Scope{ID: id, Beat: beat, Node: node}
}

// Clone produces the structural copy spec §3/§4.3 requires when a
// RuntimeInsertion captures a stack snapshot. A temporary local state
// container is deep-copied since it lives nowhere but the scope stack and
// would otherwise be lost when the live scope later pops; a non-temporary
// container is shared by reference since it is also reachable (and
// separately serialized) through Store.NodeState. The Insertion
// attachment is shared by reference -- insertions live in the Engine's
// arena and are serialized by id.
func (s *Scope) Clone() *Scope {
	clone := &Scope{
		ID:                  s.ID,
		Beat:                s.Beat,
		Node:                s.Node,
		BodyHead:            s.BodyHead,
		Beats:               append([]*ast.BeatDecl(nil), s.Beats...),
		LocalStateTemporary: s.LocalStateTemporary,
		LocalStateOwner:     s.LocalStateOwner,
		Insertion:           s.Insertion,
	}
	if s.LocalState != nil {
		if s.LocalStateTemporary {
			clone.LocalState = s.LocalState.Clone()
		} else {
			clone.LocalState = s.LocalState
		}
	}
	return clone
}

// Stack is the ordered sequence of runtime scopes, outermost first.
type Stack struct {
	scopes []*Scope
}

func NewStack() *Stack { return &Stack{} }

func (st *Stack) Push(s *Scope) { st.scopes = append(st.scopes, s) }

func (st *Stack) Pop() *Scope {
	if len(st.scopes) == 0 {
		return nil
	}
	top := st.scopes[len(st.scopes)-1]
	st.scopes = st.scopes[:len(st.scopes)-1]
	return top
}

func (st *Stack) Top() *Scope {
	if len(st.scopes) == 0 {
		return nil
	}
	return st.scopes[len(st.scopes)-1]
}

func (st *Stack) Len() int { return len(st.scopes) }

// All returns the live scopes outermost-first. Callers must not retain the
// slice across a Push/Pop/Replace.
func (st *Stack) All() []*Scope { return st.scopes }

// At returns the scope at position i (0 = outermost).
func (st *Stack) At(i int) *Scope { return st.scopes[i] }

// Snapshot returns a structural copy of the entire stack (spec §3,
// RuntimeInsertion's "stack snapshot").
func (st *Stack) Snapshot() []*Scope {
	out := make([]*Scope, len(st.scopes))
	for i, s := range st.scopes {
		out[i] = s.Clone()
	}
	return out
}

// Replace discards the current stack and installs scopes as the new one
// (spec §4.3 selection dispatch step 2: "Replace the entire current scope
// stack with a copy of ins.stack snapshot").
func (st *Stack) Replace(scopes []*Scope) {
	st.scopes = scopes
}

// ClearInsertions detaches the insertion attachment of every scope on the
// stack (spec §4.3 selection dispatch: "Clear the attached insertion of
// every scope in the stack ... so the early-exit rule no longer fires").
func (st *Stack) ClearInsertions() {
	for _, s := range st.scopes {
		s.Insertion = nil
	}
}

// ResolveLocal implements exprvm.ReadScope: search the local state chain
// innermost-first (spec §4.6 read path step 1, local-state portion).
func (st *Stack) ResolveLocal(name string) (values.Value, bool) {
	for i := len(st.scopes) - 1; i >= 0; i-- {
		ls := st.scopes[i].LocalState
		if ls != nil && ls.Has(name) {
			v, _ := ls.Get(name)
			return v, true
		}
	}
	return nil, false
}

// ResolveLocalContainer implements exprvm.WriteScope: find the innermost
// local container that already declares name, for the write path (spec
// §4.6).
func (st *Stack) ResolveLocalContainer(name string) (exprvm.LocalContainer, bool) {
	for i := len(st.scopes) - 1; i >= 0; i-- {
		ls := st.scopes[i].LocalState
		if ls != nil && ls.Has(name) {
			return ls, true
		}
	}
	return nil, false
}
