package engine

import (
	"github.com/jeremyfa/loreline-go/ast"
	"github.com/jeremyfa/loreline-go/internal/errs"
	"github.com/jeremyfa/loreline-go/internal/exprvm"
	"github.com/jeremyfa/loreline-go/internal/lens"
	"github.com/jeremyfa/loreline-go/internal/store"
	"github.com/jeremyfa/loreline-go/internal/values"
)

// InitStore walks the script's top-level declarations and populates st
// with declared defaults (spec §4.2's state initialization, run once up
// front here for top-level state and characters rather than lazily the
// way a beat's local state initializes).
func InitStore(script *ast.Script, l *lens.Lens, st *store.Store, opts Options) error {
	ev := New(script, l, st, Callbacks{}, opts, nil)

	var topFields []ast.CharacterField
	for _, decl := range script.Declarations {
		if sd, ok := decl.(*ast.StateDecl); ok && sd.Scope == ast.StateScopeTopLevel {
			topFields = append(topFields, sd.Fields...)
		}
	}
	declared, order, err := ev.declaredFields(topFields)
	if err != nil {
		return err
	}
	st.InitTopLevel(order, declared)

	for _, decl := range script.Declarations {
		cd, ok := decl.(*ast.CharacterDecl)
		if !ok {
			continue
		}
		declared, order, err := ev.declaredFields(cd.Fields)
		if err != nil {
			return err
		}
		st.InitCharacter(cd.Name, order, declared)
	}
	return nil
}

// DeclaredFields exposes declaredFields to internal/serialize, which
// needs it to reconstruct a StateDecl-backed node-state container's
// declared defaults during restore -- it cannot import internal/engine's
// unexported members directly.
func (e *Engine) DeclaredFields(fields []ast.CharacterField) (map[string]values.Value, []string, error) {
	return e.declaredFields(fields)
}

// Start begins a run from the named beat (dotted path), or the script's
// first root beat if name is "" (spec §6.3's `start(beat?)`).
func (e *Engine) Start(beatName string) {
	target, ok := e.resolveStart(beatName)
	if !ok {
		e.fail(errs.NewUnknownBeat(ast.Position{}, beatName))
		return
	}
	e.ResetForTransition()
	e.finish = e.finishTrigger()
	e.runBody(target, target, target.Body, e.finish)
}

// ResumeRun continues a session after a Restore (spec §6.3's `resume()`).
// An empty stack means Restore fell back to a recorded beat (§4.7.5), so
// this is equivalent to Start(FallbackBeat); otherwise it reallocates the
// finish trigger and re-descends the restored stack per §4.7.4.
func (e *Engine) ResumeRun() {
	if e.Stack.Len() == 0 {
		e.Start(e.FallbackBeat)
		return
	}
	e.finish = e.finishTrigger()
	e.Resume(e.finish)
}

func (e *Engine) resolveStart(beatName string) (*ast.BeatDecl, bool) {
	if beatName != "" {
		return e.Lens.BeatByPath(beatName)
	}
	roots := e.Lens.RootBeats()
	if len(roots) == 0 {
		return nil, false
	}
	return roots[0], true
}

// GetCharacter returns a character's current field container, for the
// host-facing `getCharacter` accessor (spec §6.3). ok is false if no
// character by that name has been declared or created.
func (e *Engine) GetCharacter(name string) (*store.Container, bool) {
	c, ok := e.Store.Characters[name]
	return c, ok
}

// fieldPathBuilder allocates synthetic expression nodes for host-facing
// dotted-path field access (GetField/SetField), kept in a section no
// parsed script can ever occupy so its ids never collide with live AST
// node ids.
var fieldPathBuilder = ast.NewBuilder(-1)

func fieldPathExpr(root string, fields []string) ast.Expression {
	var expr ast.Expression = fieldPathBuilder.Ident(root)
	for _, f := range fields {
		expr = fieldPathBuilder.Field_(expr, f)
	}
	return expr
}

// GetField implements the `getField(path)` read path (spec §4.6, §6.3)
// by building a synthetic identifier/field-access chain and running it
// through the normal expression evaluator -- a host query has no
// enclosing scope, so the local-state portion of the read path never
// matches and resolution falls straight to top-level state or
// characters.
func (e *Engine) GetField(root string, fields []string) (values.Value, error) {
	return e.evalExpr(fieldPathExpr(root, fields))
}

// SetField implements the `setField(path, value)` write path (spec
// §6.3), sharing exprvm.Assign with ordinary in-script assignment.
func (e *Engine) SetField(root string, fields []string, v values.Value) error {
	return exprvm.Assign(e.env(), e.Stack, ast.AssignTarget{Root: root, Fields: fields}, "=", v, e.Opts.StrictAccess, ast.Position{})
}
