package engine_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeremyfa/loreline-go/ast"
	"github.com/jeremyfa/loreline-go/internal/engine"
)

// runAlternativeNTimes drives a single Alternative node to completion n
// times over a shared store, returning which branch's text fired each
// time. The Alternative's node-state persists across calls the way a
// repeated beat visit would.
func runAlternativeNTimes(t *testing.T, mode ast.AlternativeMode, n int) []string {
	t.Helper()
	b := ast.NewBuilder(0)
	beat := b.Beat("Start", nil,
		b.Alt(mode,
			[]ast.Statement{b.Text("one")},
			[]ast.Statement{b.Text("two")},
			[]ast.Statement{b.Text("three")},
		),
		b.Goto("."),
	)
	script := b.Script(beat)

	r := newRecorder()
	var e *engine.Engine
	var got []string
	for i := 0; i < n; i++ {
		r.lines = nil
		if e == nil {
			e = newTestEngine(t, script, r.callbacks(), engine.Options{})
		} else {
			e = engine.New(script, e.Lens, e.Store, r.callbacks(), engine.Options{}, nil)
		}
		e.Start("")
		require.Len(t, r.lines, 1)
		got = append(got, r.lines[0].text)
	}
	return got
}

func TestAlternativeSequenceAdvancesThenSticksOnLast(t *testing.T) {
	got := runAlternativeNTimes(t, ast.AltSequence, 5)
	assert.Equal(t, []string{"one", "two", "three", "three", "three"}, got)
}

func TestAlternativeCycleWrapsAround(t *testing.T) {
	got := runAlternativeNTimes(t, ast.AltCycle, 5)
	assert.Equal(t, []string{"one", "two", "three", "one", "two"}, got)
}

func TestAlternativeOnceSkipsAfterAllBranchesSeen(t *testing.T) {
	b := ast.NewBuilder(0)
	beat := b.Beat("Start", nil,
		b.Alt(ast.AltOnce,
			[]ast.Statement{b.Text("one")},
			[]ast.Statement{b.Text("two")},
		),
		b.Text("after"),
		b.Goto("."),
	)
	script := b.Script(beat)

	r := newRecorder()
	e := newTestEngine(t, script, r.callbacks(), engine.Options{})

	e.Start("")
	require.Len(t, r.lines, 2)
	assert.Equal(t, "one", r.lines[0].text)

	r.lines = nil
	e2 := engine.New(script, e.Lens, e.Store, r.callbacks(), engine.Options{}, nil)
	e2.Start("")
	require.Len(t, r.lines, 2)
	assert.Equal(t, "two", r.lines[0].text)

	r.lines = nil
	e3 := engine.New(script, e.Lens, e.Store, r.callbacks(), engine.Options{}, nil)
	e3.Start("")
	require.Len(t, r.lines, 1)
	assert.Equal(t, "after", r.lines[0].text)
}

func TestAlternativePickAlwaysSelectsAnAvailableBranch(t *testing.T) {
	valid := map[string]bool{"one": true, "two": true, "three": true}
	for i := 0; i < 20; i++ {
		got := runAlternativeNTimes(t, ast.AltPick, 1)
		require.Len(t, got, 1)
		assert.True(t, valid[got[0]])
	}
}

func TestAlternativeShuffleVisitsEachBranchExactlyOncePerEpoch(t *testing.T) {
	got := runAlternativeNTimes(t, ast.AltShuffle, 3)
	seen := map[string]bool{}
	for _, line := range got {
		seen[line] = true
	}
	assert.Len(t, seen, 3, "a three-branch shuffle epoch must touch every branch exactly once")
}

func TestAlternativeWithNoBranchesIsANoOp(t *testing.T) {
	b := ast.NewBuilder(0)
	beat := b.Beat("Start", nil,
		b.Alt(ast.AltCycle),
		b.Text("after"),
		b.Goto("."),
	)
	script := b.Script(beat)

	r := newRecorder()
	e := newTestEngine(t, script, r.callbacks(), engine.Options{})
	e.Start("")

	require.Len(t, r.lines, 1)
	assert.Equal(t, "after", r.lines[0].text)
}
