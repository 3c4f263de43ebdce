package store_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeremyfa/loreline-go/internal/store"
	"github.com/jeremyfa/loreline-go/internal/values"
)

func newFixtureContainer() *store.Container {
	return store.NewContainer(
		[]string{"gold", "name"},
		map[string]values.Value{
			"gold": values.Int{Value: 0},
			"name": values.Text{Value: "Anonymous"},
		},
	)
}

func TestContainerDeltaEmptyWhenUnchanged(t *testing.T) {
	c := newFixtureContainer()
	assert.Empty(t, c.Delta())
}

func TestContainerDeltaOnlyDivergentFields(t *testing.T) {
	c := newFixtureContainer()
	c.Set("gold", values.Int{Value: 10})

	delta := c.Delta()
	require.Len(t, delta, 1)
	assert.Equal(t, values.Int{Value: 10}, delta["gold"])
}

func TestContainerApplyDeltaIgnoresUndeclaredNames(t *testing.T) {
	c := newFixtureContainer()
	c.ApplyDelta(map[string]values.Value{
		"gold":    values.Int{Value: 99},
		"unknown": values.Text{Value: "ghost"},
	})

	v, ok := c.Get("gold")
	require.True(t, ok)
	assert.Equal(t, values.Int{Value: 99}, v)
	assert.False(t, c.Has("unknown"))
}

// Mirrors the scenario of declaring `state { x: 1 }`, never touching x, then
// a later script revision changing the default to 2: a save taken under the
// old default carries no delta entry for x, so restoring it into the new
// container leaves the new default observed (spec §8's declared-default
// divergence scenario).
func TestContainerDeltaRoundTripObservesNewDefaultWhenUnset(t *testing.T) {
	before := store.NewContainer([]string{"x"}, map[string]values.Value{"x": values.Int{Value: 1}})
	delta := before.Delta()
	assert.Empty(t, delta)

	after := store.NewContainer([]string{"x"}, map[string]values.Value{"x": values.Int{Value: 2}})
	after.ApplyDelta(delta)

	v, ok := after.Get("x")
	require.True(t, ok)
	assert.Equal(t, values.Int{Value: 2}, v)
}

func TestContainerDeltaRoundTripPreservesExplicitChange(t *testing.T) {
	before := store.NewContainer([]string{"x"}, map[string]values.Value{"x": values.Int{Value: 1}})
	before.Set("x", values.Int{Value: 7})
	delta := before.Delta()

	after := store.NewContainer([]string{"x"}, map[string]values.Value{"x": values.Int{Value: 2}})
	after.ApplyDelta(delta)

	v, ok := after.Get("x")
	require.True(t, ok)
	assert.Equal(t, values.Int{Value: 7}, v)
}

func TestContainerSetExtendsUndeclaredField(t *testing.T) {
	c := store.NewContainer(nil, nil)
	c.Set("newField", values.Text{Value: "hi"})

	assert.True(t, c.Has("newField"))
	assert.Equal(t, []string{"newField"}, c.Names())
	v, ok := c.Get("newField")
	require.True(t, ok)
	assert.Equal(t, values.Text{Value: "hi"}, v)
}

func TestContainerReset(t *testing.T) {
	c := newFixtureContainer()
	c.Set("gold", values.Int{Value: 50})
	c.Set("extra", values.Bool{Value: true})

	c.Reset()

	assert.False(t, c.Has("extra"))
	v, ok := c.Get("gold")
	require.True(t, ok)
	assert.Equal(t, values.Int{Value: 0}, v)
}

func TestContainerCloneIndependence(t *testing.T) {
	c := newFixtureContainer()
	clone := c.Clone()

	clone.Set("gold", values.Int{Value: 123})

	orig, ok := c.Get("gold")
	require.True(t, ok)
	assert.Equal(t, values.Int{Value: 0}, orig)

	cloned, ok := clone.Get("gold")
	require.True(t, ok)
	assert.Equal(t, values.Int{Value: 123}, cloned)
}

func TestContainerNamesPreservesDeclarationOrder(t *testing.T) {
	c := newFixtureContainer()
	assert.Equal(t, []string{"gold", "name"}, c.Names())
}
