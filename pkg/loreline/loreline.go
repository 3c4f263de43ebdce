// Package loreline is the host-facing public API (spec §6.3), a thin
// facade over internal/engine and internal/serialize grounded on
// pkg/dwscript's role in front of internal/interp: a small surface that
// hides the runtime's internal packages behind New/Start-style
// constructors and re-exports the error kinds a host is expected to
// type-switch on.
//
// Loreline has no lexer or parser in this module (spec §6.5): a host
// builds or otherwise obtains a *ast.Script -- for example with
// ast.Builder, or a parser of its own -- and passes it to New.
package loreline

import (
	"go.uber.org/zap"

	"github.com/jeremyfa/loreline-go/ast"
	"github.com/jeremyfa/loreline-go/internal/engine"
	"github.com/jeremyfa/loreline-go/internal/errs"
	"github.com/jeremyfa/loreline-go/internal/exprvm"
	"github.com/jeremyfa/loreline-go/internal/lens"
	"github.com/jeremyfa/loreline-go/internal/scope"
	"github.com/jeremyfa/loreline-go/internal/serialize"
	"github.com/jeremyfa/loreline-go/internal/store"
	"github.com/jeremyfa/loreline-go/internal/values"
)

// Re-exported so a host can type-switch on the runtime error taxonomy
// (spec §7) without importing internal/errs directly.
type (
	RuntimeError          = errs.RuntimeError
	UndefinedBindingError = errs.UndefinedBindingError
	UnknownBeatError      = errs.UnknownBeatError
	UnknownCharacterError = errs.UnknownCharacterError
	EvaluationError       = errs.EvaluationError
	HostContractError     = errs.HostContractError
	RestoreError          = errs.RestoreError
)

// HostFunction is a host-registered named function callable from script
// expressions (spec §6.2, options.functions).
type HostFunction = engine.HostFunction

// DialogueCallback delivers one line of dialogue or free text (spec
// §6.3). character is nil for free text; advance is the one-shot
// continuation that must be invoked to resume the run.
type DialogueCallback = engine.DialogueCallback

// ChoiceCallback delivers a flattened option list (spec §6.3). selectFn
// is the one-shot continuation, called with the chosen option's index.
type ChoiceCallback = engine.ChoiceCallback

// FinishCallback signals the end of a run (spec §6.3). err is non-nil if
// the run ended on an unrecovered RuntimeError (spec §7).
type FinishCallback = engine.FinishCallback

// ChoiceOption is one entry of the list a ChoiceCallback receives.
type ChoiceOption = scope.ChoiceOption

// Tag is one span of a rendered line carrying inline markup (spec §4.6's
// template rendering).
type Tag = exprvm.Tag

// Value is the runtime value sum type read and written through
// GetField/SetField and character field access.
type Value = values.Value

// The concrete Value variants, re-exported so a host can construct and
// type-switch on runtime values without importing internal/values
// directly (spec §3's closed Value sum type).
type (
	Null         = values.Null
	Bool         = values.Bool
	Int          = values.Int
	Number       = values.Number
	Text         = values.Text
	CharacterRef = values.CharacterRef
	FunctionRef  = values.FunctionRef
	Array        = values.Array
	Object       = values.Object
)

// NewObject builds an empty Object value, matching values.NewObject's
// insertion-order-preserving field map.
func NewObject() *Object { return values.NewObject() }

// config accumulates what New's variadic Options configure: the
// engine.Options record plus the logger, which engine.New takes
// separately from its Options argument.
type config struct {
	opts engine.Options
	log  *zap.Logger
}

// Option configures a Session at construction time, mirroring spec
// §6.3's `options` record.
type Option func(*config)

// WithFunctions registers host functions callable from script
// expressions (spec §6.3 options.functions).
func WithFunctions(fns map[string]HostFunction) Option {
	return func(c *config) {
		if c.opts.Functions == nil {
			c.opts.Functions = map[string]HostFunction{}
		}
		for name, fn := range fns {
			c.opts.Functions[name] = fn
		}
	}
}

// WithStrictAccess sets the strict-access policy governing an
// undeclared-binding write (spec §4.6's write path, §6.3).
func WithStrictAccess(strict bool) Option {
	return func(c *config) { c.opts.StrictAccess = strict }
}

// WithTranslations supplies a translation table for localized text (spec
// §6.3 options.translations).
func WithTranslations(translations map[string]string) Option {
	return func(c *config) { c.opts.Translations = translations }
}

// Logger overrides the structured logger a Session's engine reports
// through (teacher default: zap.NewNop when unset).
func Logger(log *zap.Logger) Option {
	return func(c *config) { c.log = log }
}

// Callbacks bundles the three host callbacks a run is driven with (spec
// §6.3).
type Callbacks struct {
	Dialogue DialogueCallback
	Choice   ChoiceCallback
	Finish   FinishCallback
}

// Session is one host-facing run of a script: a parsed Script indexed
// once by a Lens, paired with the Interpreter (internal/engine.Engine)
// that owns its Store and Scope Stack for the run's lifetime (spec §3,
// "Ownership").
type Session struct {
	script *ast.Script
	lens   *lens.Lens
	store  *store.Store
	opts   engine.Options
	log    *zap.Logger
	cb     Callbacks

	eng *engine.Engine
}

// New builds a Session over a parsed script, initializing the Store's
// top-level state and character defaults (spec §4.2) but not yet
// starting a run -- call Start or Restore next.
func New(script *ast.Script, cb Callbacks, opts ...Option) (*Session, error) {
	var c config
	for _, apply := range opts {
		apply(&c)
	}
	if c.opts.Functions == nil {
		c.opts.Functions = map[string]HostFunction{}
	}
	if c.log == nil {
		c.log = zap.NewNop()
	}

	l := lens.Build(script)
	st := store.New()
	if err := engine.InitStore(script, l, st, c.opts); err != nil {
		return nil, err
	}

	s := &Session{
		script: script,
		lens:   l,
		store:  st,
		opts:   c.opts,
		log:    c.log,
		cb:     cb,
	}
	s.eng = s.newEngine()
	return s, nil
}

func (s *Session) newEngine() *engine.Engine {
	return engine.New(s.script, s.lens, s.store, engine.Callbacks{
		Dialogue: s.cb.Dialogue,
		Choice:   s.cb.Choice,
		Finish:   s.cb.Finish,
	}, s.opts, s.log)
}

// Start begins the run from the named beat (a dotted path), or the
// script's first root beat when beat is "" (spec §6.3's
// `start(script, ..., options)`, options.beat). The host is driven from
// here purely through the Dialogue/Choice/Finish callbacks supplied to
// New until the run suspends or finishes.
func (s *Session) Start(beat string) {
	s.eng.Start(beat)
}

// Save captures the current quiescent state as an opaque, JSON-shaped
// blob (spec §6.3's `save()`, spec §4.7.2). It must only be called
// between host interactions, never from inside a dialogue or choice
// callback before that callback's continuation has been invoked.
func (s *Session) Save() (string, error) {
	return serialize.Save(s.eng)
}

// Restore reconstructs the Store and Scope Stack from a blob previously
// produced by Save (spec §6.3's `restore(blob)`, spec §4.7.3). A save
// that cannot be resolved against the current script falls back silently
// per §4.7.5 rather than returning an error; call Resume afterward either
// way. Restore replaces the Session's engine, so any run in progress is
// discarded.
func (s *Session) Restore(blob string) error {
	e := s.newEngine()
	if err := serialize.Restore(e, blob); err != nil {
		return err
	}
	s.eng = e
	return nil
}

// Resume continues execution after a Restore (spec §6.3's `resume()`).
// If the restore fell back to a recorded beat (spec §4.7.5) this is
// equivalent to Start on that beat; otherwise it re-descends the
// restored stack per spec §4.7.4.
func (s *Session) Resume() {
	s.eng.ResumeRun()
}

// GetCharacter returns a character's current field container for host
// inspection (spec §6.3's `getCharacter`). ok is false if name was never
// declared or created.
func (s *Session) GetCharacter(name string) (*store.Container, bool) {
	return s.eng.GetCharacter(name)
}

// GetField reads a dotted field path (spec §6.3's `getField`, spec
// §4.6's read path), e.g. GetField("player", "inventory", "gold").
func (s *Session) GetField(root string, fields ...string) (Value, error) {
	return s.eng.GetField(root, fields)
}

// SetField writes a dotted field path (spec §6.3's `setField`, spec
// §4.6's write path).
func (s *Session) SetField(root string, value Value, fields ...string) error {
	return s.eng.SetField(root, fields, value)
}
