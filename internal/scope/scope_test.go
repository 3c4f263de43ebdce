package scope_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeremyfa/loreline-go/ast"
	"github.com/jeremyfa/loreline-go/internal/scope"
	"github.com/jeremyfa/loreline-go/internal/store"
	"github.com/jeremyfa/loreline-go/internal/values"
)

func TestStackPushPopTop(t *testing.T) {
	st := scope.NewStack()
	assert.Equal(t, 0, st.Len())
	assert.Nil(t, st.Pop())
	assert.Nil(t, st.Top())

	b := ast.NewBuilder(0)
	beat := b.Beat("Intro", nil)
	s1 := scope.NewScope(1, beat, beat)
	s2 := scope.NewScope(2, beat, beat)
	st.Push(s1)
	st.Push(s2)

	assert.Equal(t, 2, st.Len())
	assert.Same(t, s2, st.Top())

	popped := st.Pop()
	assert.Same(t, s2, popped)
	assert.Equal(t, 1, st.Len())
	assert.Same(t, s1, st.Top())
}

func TestStackSnapshotIsStructuralCopy(t *testing.T) {
	b := ast.NewBuilder(0)
	beat := b.Beat("Intro", nil)
	st := scope.NewStack()
	s := scope.NewScope(1, beat, beat)
	s.LocalState = store.NewContainer([]string{"x"}, map[string]values.Value{"x": values.Int{Value: 1}})
	s.LocalStateTemporary = true
	st.Push(s)

	snap := st.Snapshot()
	require.Len(t, snap, 1)
	assert.NotSame(t, s, snap[0])
	assert.NotSame(t, s.LocalState, snap[0].LocalState)

	// Mutating the live scope's local state after the snapshot must not
	// affect the captured copy.
	s.LocalState.Set("x", values.Int{Value: 99})
	v, ok := snap[0].LocalState.Get("x")
	require.True(t, ok)
	assert.Equal(t, values.Int{Value: 1}, v)
}

func TestScopeCloneSharesNonTemporaryLocalState(t *testing.T) {
	b := ast.NewBuilder(0)
	beat := b.Beat("Intro", nil)
	shared := store.NewContainer([]string{"x"}, map[string]values.Value{"x": values.Int{Value: 1}})
	s := scope.NewScope(1, beat, beat)
	s.LocalState = shared
	s.LocalStateTemporary = false

	clone := s.Clone()
	assert.Same(t, shared, clone.LocalState)
}

func TestStackReplaceAndClearInsertions(t *testing.T) {
	b := ast.NewBuilder(0)
	beat := b.Beat("Intro", nil)
	st := scope.NewStack()
	s1 := scope.NewScope(1, beat, beat)
	s1.Insertion = &scope.RuntimeInsertion{ID: 1}
	st.Push(s1)

	st.ClearInsertions()
	assert.Nil(t, s1.Insertion)

	s2 := scope.NewScope(2, beat, beat)
	st.Replace([]*scope.Scope{s2})
	assert.Equal(t, 1, st.Len())
	assert.Same(t, s2, st.Top())
}

func TestResolveLocalSearchesInnermostFirst(t *testing.T) {
	b := ast.NewBuilder(0)
	beat := b.Beat("Intro", nil)
	st := scope.NewStack()

	outer := scope.NewScope(1, beat, beat)
	outer.LocalState = store.NewContainer([]string{"x"}, map[string]values.Value{"x": values.Int{Value: 1}})
	st.Push(outer)

	inner := scope.NewScope(2, beat, beat)
	inner.LocalState = store.NewContainer([]string{"x"}, map[string]values.Value{"x": values.Int{Value: 2}})
	st.Push(inner)

	v, ok := st.ResolveLocal("x")
	require.True(t, ok)
	assert.Equal(t, values.Int{Value: 2}, v)

	_, ok = st.ResolveLocal("y")
	assert.False(t, ok)
}

func TestResolveLocalContainerFindsDeclaringScope(t *testing.T) {
	b := ast.NewBuilder(0)
	beat := b.Beat("Intro", nil)
	st := scope.NewStack()

	outer := scope.NewScope(1, beat, beat)
	outer.LocalState = store.NewContainer([]string{"gold"}, map[string]values.Value{"gold": values.Int{Value: 0}})
	st.Push(outer)

	inner := scope.NewScope(2, beat, beat)
	st.Push(inner)

	container, ok := st.ResolveLocalContainer("gold")
	require.True(t, ok)
	container.Set("gold", values.Int{Value: 42})

	v, ok := outer.LocalState.Get("gold")
	require.True(t, ok)
	assert.Equal(t, values.Int{Value: 42}, v)
}
