package loreline_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/jeremyfa/loreline-go/ast"
	"github.com/jeremyfa/loreline-go/internal/engine"
	"github.com/jeremyfa/loreline-go/pkg/loreline"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type run struct {
	lines    []string
	speakers []*string
	choices  [][]loreline.ChoiceOption
	finished bool
	err      error
	pick     func([]loreline.ChoiceOption) int
}

func newRun() *run {
	return &run{pick: func([]loreline.ChoiceOption) int { return 0 }}
}

func (r *run) callbacks() loreline.Callbacks {
	return loreline.Callbacks{
		Dialogue: func(e *engine.Engine, character *string, text string, tags []loreline.Tag, advance func()) {
			r.lines = append(r.lines, text)
			r.speakers = append(r.speakers, character)
			advance()
		},
		Choice: func(e *engine.Engine, options []loreline.ChoiceOption, selectFn func(index int)) {
			r.choices = append(r.choices, options)
			selectFn(r.pick(options))
		},
		Finish: func(e *engine.Engine, err error) {
			r.finished = true
			r.err = err
		},
	}
}

func TestSessionStartDeliversDialogueThenFinishes(t *testing.T) {
	b := ast.NewBuilder(0)
	beat := b.Beat("Start", nil,
		b.Text("Once upon a time."),
		b.Goto("."),
	)
	script := b.Script(beat)

	r := newRun()
	s, err := loreline.New(script, r.callbacks())
	require.NoError(t, err)

	s.Start("")

	require.Len(t, r.lines, 1)
	assert.Equal(t, "Once upon a time.", r.lines[0])
	assert.Nil(t, r.speakers[0])
	assert.True(t, r.finished)
	assert.NoError(t, r.err)
}

func TestSessionDialogueCarriesDisplayName(t *testing.T) {
	b := ast.NewBuilder(0)
	mira := b.Character("Mira", b.Field("name", b.Raw("Mira the Wise")))
	beat := b.Beat("Start", nil, b.Dialogue("Mira", "Welcome."), b.Goto("."))
	script := b.Script(mira, beat)

	r := newRun()
	s, err := loreline.New(script, r.callbacks())
	require.NoError(t, err)
	s.Start("")

	require.Len(t, r.lines, 1)
	require.NotNil(t, r.speakers[0])
	assert.Equal(t, "Mira the Wise", *r.speakers[0])
}

func TestSessionGetFieldAndSetFieldRoundTrip(t *testing.T) {
	b := ast.NewBuilder(0)
	topState := b.TopState(b.Field("gold", b.Int(1)))
	beat := b.Beat("Start", nil, b.Goto("."))
	script := b.Script(topState, beat)

	r := newRun()
	s, err := loreline.New(script, r.callbacks())
	require.NoError(t, err)

	v, err := s.GetField("gold")
	require.NoError(t, err)
	assert.Equal(t, loreline.Int{Value: 1}, v)

	require.NoError(t, s.SetField("gold", loreline.Int{Value: 9}))

	v, err = s.GetField("gold")
	require.NoError(t, err)
	assert.Equal(t, loreline.Int{Value: 9}, v)
}

func TestSessionWithFunctionsRegistersHostFunction(t *testing.T) {
	b := ast.NewBuilder(0)
	topState := b.TopState(b.Field("result", b.Int(0)))
	beat := b.Beat("Start", nil,
		b.Assign("=", b.Target("result"), b.CallExpr(b.Ident("double"), b.Int(21))),
		b.Goto("."),
	)
	script := b.Script(topState, beat)

	r := newRun()
	s, err := loreline.New(script, r.callbacks(), loreline.WithFunctions(map[string]loreline.HostFunction{
		"double": func(args []loreline.Value) (loreline.Value, error) {
			n, ok := args[0].(loreline.Int)
			require.True(t, ok)
			return loreline.Int{Value: 2 * n.Value}, nil
		},
	}))
	require.NoError(t, err)

	s.Start("")
	got, err := s.GetField("result")
	require.NoError(t, err)
	assert.Equal(t, loreline.Int{Value: 42}, got)
}

func TestSessionSaveRestoreResume(t *testing.T) {
	b := ast.NewBuilder(0)
	topState := b.TopState(b.Field("gold", b.Int(0)))
	beat := b.Beat("Start", nil,
		b.Assign("=", b.Target("gold"), b.Int(3)),
		b.Choice(
			b.Option(b.Raw("Take the gold"), nil, b.Text("you take it")),
		),
		b.Goto("."),
	)
	script := b.Script(topState, beat)

	blocked := newRun()
	blockedCB := blocked.callbacks()
	blockedCB.Choice = func(e *engine.Engine, options []loreline.ChoiceOption, selectFn func(index int)) {
		blocked.choices = append(blocked.choices, options)
		// Leave the choice unselected: the run must suspend right here.
	}
	s, err := loreline.New(script, blockedCB)
	require.NoError(t, err)
	s.Start("")
	require.Len(t, blocked.choices, 1)
	require.False(t, blocked.finished)

	blob, err := s.Save()
	require.NoError(t, err)

	r2 := newRun()
	s2, err := loreline.New(script, r2.callbacks())
	require.NoError(t, err)
	require.NoError(t, s2.Restore(blob))
	s2.Resume()

	require.Len(t, r2.choices, 1)
	require.Len(t, r2.lines, 1)
	assert.Equal(t, "you take it", r2.lines[0])
	assert.True(t, r2.finished)
}

func TestSessionGetCharacterReturnsDeclaredFields(t *testing.T) {
	b := ast.NewBuilder(0)
	mira := b.Character("Mira", b.Field("mood", b.Raw("curious")))
	beat := b.Beat("Start", nil, b.Goto("."))
	script := b.Script(mira, beat)

	r := newRun()
	s, err := loreline.New(script, r.callbacks())
	require.NoError(t, err)

	c, ok := s.GetCharacter("Mira")
	require.True(t, ok)
	v, ok := c.Get("mood")
	require.True(t, ok)
	assert.Equal(t, loreline.Text{Value: "curious"}, v)

	_, ok = s.GetCharacter("Nobody")
	assert.False(t, ok)
}

func TestSessionUnknownStartBeatFinishesWithError(t *testing.T) {
	b := ast.NewBuilder(0)
	script := b.Script(b.Beat("Start", nil, b.Goto(".")))

	r := newRun()
	s, err := loreline.New(script, r.callbacks())
	require.NoError(t, err)

	s.Start("Nowhere")
	assert.True(t, r.finished)
	var unknownBeat *loreline.UnknownBeatError
	require.ErrorAs(t, r.err, &unknownBeat)
}
