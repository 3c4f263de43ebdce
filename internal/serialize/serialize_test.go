package serialize_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeremyfa/loreline-go/ast"
	"github.com/jeremyfa/loreline-go/internal/engine"
	"github.com/jeremyfa/loreline-go/internal/exprvm"
	"github.com/jeremyfa/loreline-go/internal/lens"
	"github.com/jeremyfa/loreline-go/internal/scope"
	"github.com/jeremyfa/loreline-go/internal/serialize"
	"github.com/jeremyfa/loreline-go/internal/store"
	"github.com/jeremyfa/loreline-go/internal/values"
)

type harness struct {
	lines    []string
	choices  [][]scope.ChoiceOption
	finished bool
	err      error
	pick     func([]scope.ChoiceOption) int
	auto     bool
}

func newHarness() *harness {
	return &harness{auto: true, pick: func([]scope.ChoiceOption) int { return 0 }}
}

func (h *harness) callbacks() engine.Callbacks {
	return engine.Callbacks{
		Dialogue: func(e *engine.Engine, character *string, text string, tags []exprvm.Tag, advance func()) {
			h.lines = append(h.lines, text)
			if h.auto {
				advance()
			}
		},
		Choice: func(e *engine.Engine, options []scope.ChoiceOption, selectFn func(index int)) {
			h.choices = append(h.choices, options)
			if h.auto {
				selectFn(h.pick(options))
			}
		},
		Finish: func(e *engine.Engine, err error) {
			h.finished = true
			h.err = err
		},
	}
}

func buildEngine(t *testing.T, script *ast.Script, cb engine.Callbacks, opts engine.Options) *engine.Engine {
	t.Helper()
	l := lens.Build(script)
	st := store.New()
	require.NoError(t, engine.InitStore(script, l, st, opts))
	return engine.New(script, l, st, cb, opts, nil)
}

func TestSaveRestoreRoundTripPreservesTopLevelState(t *testing.T) {
	b := ast.NewBuilder(0)
	topState := b.TopState(b.Field("gold", b.Int(0)))
	beat := b.Beat("Start", nil,
		b.Assign("=", b.Target("gold"), b.Int(7)),
		b.Text("pausing here"),
		b.Goto("."),
	)
	script := b.Script(topState, beat)

	h := newHarness()
	h.auto = false
	e := buildEngine(t, script, h.callbacks(), engine.Options{})
	e.Start("")
	require.Len(t, h.lines, 1, "the run should suspend at the dialogue line awaiting advance")

	blob, err := serialize.Save(e)
	require.NoError(t, err)

	l2 := lens.Build(script)
	st2 := store.New()
	require.NoError(t, engine.InitStore(script, l2, st2, engine.Options{}))
	h2 := newHarness()
	e2 := engine.New(script, l2, st2, h2.callbacks(), engine.Options{}, nil)

	require.NoError(t, serialize.Restore(e2, blob))
	assert.Empty(t, e2.FallbackBeat)

	v, err := e2.GetField("gold", nil)
	require.NoError(t, err)
	assert.Equal(t, values.Int{Value: 7}, v)

	e2.ResumeRun()
	assert.True(t, h2.finished)
	assert.NoError(t, h2.err)
}

func TestSaveIsIdempotentAtAQuiescentPoint(t *testing.T) {
	b := ast.NewBuilder(0)
	topState := b.TopState(b.Field("gold", b.Int(3)))
	beat := b.Beat("Start", nil, b.Text("hi"), b.Goto("."))
	script := b.Script(topState, beat)

	h := newHarness()
	h.auto = false
	e := buildEngine(t, script, h.callbacks(), engine.Options{})
	e.Start("")

	first, err := serialize.Save(e)
	require.NoError(t, err)
	second, err := serialize.Save(e)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestRestoreFallsBackWhenSavedBeatNoLongerExists(t *testing.T) {
	b := ast.NewBuilder(0)
	beat := b.Beat("Ephemeral", nil, b.Text("hi"), b.Goto("."))
	script := b.Script(beat)

	h := newHarness()
	h.auto = false
	e := buildEngine(t, script, h.callbacks(), engine.Options{})
	e.Start("")

	blob, err := serialize.Save(e)
	require.NoError(t, err)

	b2 := ast.NewBuilder(0)
	script2 := b2.Script()

	l2 := lens.Build(script2)
	st2 := store.New()
	require.NoError(t, engine.InitStore(script2, l2, st2, engine.Options{}))
	h2 := newHarness()
	e2 := engine.New(script2, l2, st2, h2.callbacks(), engine.Options{}, nil)

	require.NoError(t, serialize.Restore(e2, blob))
	assert.Equal(t, 0, e2.Stack.Len())
	assert.Empty(t, e2.FallbackBeat, "a saved beat reference that resolves neither by path nor by id leaves nothing to fall back to")

	e2.ResumeRun()
	assert.True(t, h2.finished)
	assert.Error(t, h2.err, "resuming with no stack and no fallback beat should fail to resolve a start target")
}

func TestSaveRestorePreservesPendingInsertionChoice(t *testing.T) {
	b := ast.NewBuilder(0)
	sideQuest := b.Beat("SideQuest", nil,
		b.Choice(
			b.Option(b.Raw("Help"), nil, b.Text("helped")),
			b.Option(b.Raw("Ignore"), nil, b.Text("ignored")),
		),
	)
	main := b.Beat("Main", nil,
		b.Choice(b.Insert("SideQuest")),
		b.Goto("."),
	)
	script := b.Script(sideQuest, main)

	h := newHarness()
	h.auto = false
	var captured []scope.ChoiceOption
	h.choices = nil
	cb := h.callbacks()
	cb.Choice = func(e *engine.Engine, options []scope.ChoiceOption, selectFn func(index int)) {
		captured = options
	}
	e := buildEngine(t, script, cb, engine.Options{})
	e.Start("Main")
	require.Len(t, captured, 2)

	blob, err := serialize.Save(e)
	require.NoError(t, err)

	l2 := lens.Build(script)
	st2 := store.New()
	require.NoError(t, engine.InitStore(script, l2, st2, engine.Options{}))
	h2 := newHarness()
	e2 := engine.New(script, l2, st2, h2.callbacks(), engine.Options{}, nil)
	require.NoError(t, serialize.Restore(e2, blob))
	assert.Empty(t, e2.FallbackBeat)
	// Only Main's own scope is live when the choice is pending: the
	// insertion's scope already popped after Phase 1 finished collecting,
	// so resume re-enters the ChoiceStatement and re-runs collection.
	assert.Equal(t, 1, e2.Stack.Len())

	e2.ResumeRun()
	require.Len(t, h2.choices, 1)
	assert.Equal(t, "Help", h2.choices[0][0].DisplayText)
}
