// Package engine implements the Continuation Core, Choice & Insertion
// Collector, Transition & Call Dispatcher, and Alternative selection logic
// from spec §4.1-§4.5. It is the Interpreter: the sole owner of the Store,
// the Scope Stack, the session-global id counters, and the arena of live
// RuntimeInsertions (spec §3, "Ownership").
//
// Grounded on internal/interp's Interpreter type (one struct holding the
// call stack, the global environment, and dispatch tables keyed by AST
// node kind), generalized here to the continuation-passing, suspendable
// walk spec §4.1 requires instead of interp's direct recursive-eval loop.
package engine

import (
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/jeremyfa/loreline-go/ast"
	"github.com/jeremyfa/loreline-go/internal/exprvm"
	"github.com/jeremyfa/loreline-go/internal/lens"
	"github.com/jeremyfa/loreline-go/internal/scope"
	"github.com/jeremyfa/loreline-go/internal/store"
	"github.com/jeremyfa/loreline-go/internal/values"
)

// HostFunction is a host-registered named function (spec §6.2, §6.3
// options.functions).
type HostFunction func(args []values.Value) (values.Value, error)

// DialogueCallback delivers a free-text or dialogue line (spec §6.3).
// character is nil for free text. advance is the one-shot continuation.
type DialogueCallback func(e *Engine, character *string, text string, tags []exprvm.Tag, advance func())

// ChoiceCallback delivers a flattened option list (spec §6.3). selectFn is
// the one-shot continuation, called with the chosen option's index.
type ChoiceCallback func(e *Engine, options []scope.ChoiceOption, selectFn func(index int))

// FinishCallback signals the end of a run (spec §6.3), err non-nil if the
// run ended by an unrecovered RuntimeError (spec §7's propagation policy).
type FinishCallback func(e *Engine, err error)

// Options mirrors spec §6.3's `options` record.
type Options struct {
	Functions    map[string]HostFunction
	StrictAccess bool
	Translations map[string]string
}

// Callbacks bundles the three host callbacks a run is started with.
type Callbacks struct {
	Dialogue DialogueCallback
	Choice   ChoiceCallback
	Finish   FinishCallback
}

// Engine is the Interpreter (spec §3, §4). Exported fields are consulted
// directly by internal/serialize, which cannot be a dependency of this
// package (serialize depends on engine, never the reverse).
type Engine struct {
	Script *ast.Script
	Lens   *lens.Lens
	Store  *store.Store
	Stack  *scope.Stack

	// Insertions is the id-keyed arena of live RuntimeInsertions (spec §9:
	// "store all live insertions in an id-keyed arena owned by the
	// Interpreter; scopes carry the integer id").
	Insertions map[int64]*scope.RuntimeInsertion

	Eval *exprvm.Evaluator
	Rand *rand.Rand
	Log  *zap.Logger

	Opts      Options
	Callbacks Callbacks

	NextScopeID     int64
	NextInsertionID int64

	// FallbackBeat is set by internal/serialize when a Restore could not
	// resolve the saved stack against the current script (spec §4.7.5).
	// An empty Stack paired with a non-empty FallbackBeat tells ResumeRun
	// to start fresh from this beat instead of re-descending a stack that
	// was never rebuilt.
	FallbackBeat string

	// finish is the current run's finish trigger, reallocated on every
	// whole-stack transition, and what a `-> .` transition fires directly.
	finish func()

	queue    []func()
	draining bool
	finished bool
}

// New builds an Engine over a parsed script and its Lens, with Store
// already initialized with declared defaults (spec §4.2's state
// initialization happens as state declarations are walked, but top-level
// state and characters are initialized up front by the caller -- see
// pkg/loreline.Start).
func New(script *ast.Script, l *lens.Lens, st *store.Store, cb Callbacks, opts Options, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.Functions == nil {
		opts.Functions = map[string]HostFunction{}
	}
	e := &Engine{
		Script:     script,
		Lens:       l,
		Store:      st,
		Stack:      scope.NewStack(),
		Insertions: map[int64]*scope.RuntimeInsertion{},
		Eval:       exprvm.New(),
		Rand:       rand.New(rand.NewSource(time.Now().UnixNano())),
		Log:        log,
		Opts:       opts,
		Callbacks:  cb,
	}
	registerStdlib(e)
	return e
}

func (e *Engine) allocScopeID() int64 {
	e.NextScopeID++
	return e.NextScopeID
}

func (e *Engine) allocInsertionID() int64 {
	e.NextInsertionID++
	return e.NextInsertionID
}

// ResetForTransition clears the scope stack, the insertion arena, and the
// id counters (spec §4.4: "Reset scope-id and insertion-id counters").
func (e *Engine) ResetForTransition() {
	e.Stack = scope.NewStack()
	e.Insertions = map[int64]*scope.RuntimeInsertion{}
	e.NextScopeID = 0
	e.NextInsertionID = 0
}

// env builds the exprvm.Env the evaluator needs for one expression
// evaluation, bound to the engine's current Store/Stack/function registry.
func (e *Engine) env() *exprvm.Env {
	return &exprvm.Env{
		Store:  e.Store,
		Caller: e,
		Locals: e.Stack,
		KnownFunction: func(name string) bool {
			if _, ok := e.Opts.Functions[name]; ok {
				return true
			}
			_, ok := e.Lens.FunctionByName(name)
			return ok
		},
	}
}

func (e *Engine) evalExpr(n ast.Expression) (values.Value, error) {
	return e.Eval.Eval(n, e.env())
}

func (e *Engine) renderTemplate(sl *ast.StringLiteral) (string, []exprvm.Tag, error) {
	return e.Eval.Render(sl, e.env())
}
