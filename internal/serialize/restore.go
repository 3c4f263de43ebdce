package serialize

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/jeremyfa/loreline-go/ast"
	"github.com/jeremyfa/loreline-go/internal/engine"
	"github.com/jeremyfa/loreline-go/internal/scope"
	"github.com/jeremyfa/loreline-go/internal/store"
)

// errUnresolved is a RestoreError (spec §7): a saved node id, beat, or
// insertion reference could not be matched against the live script, or
// matched a node of the wrong kind. It is never returned to Restore's
// caller -- spec §4.7.5 recovers it locally by falling back to a
// recorded beat.
var errUnresolved = errors.New("serialize: could not resolve a saved reference against the current script")

// Restore implements spec §4.7.3. It always fully rebuilds the Store; if
// the saved scope stack cannot be resolved against the current script it
// falls back per §4.7.5 (stack cleared, FallbackBeat recorded) rather
// than returning an error -- only a malformed blob or an unsupported
// version is reported to the caller.
//
// Restore assumes e.Store has not yet accumulated state from a prior
// session (freshly constructed and engine.InitStore'd, or never
// initialized at all): it reinitializes top-level state and characters
// from the live script's declared defaults before applying the save's
// deltas, but has no way to forget a character created by an earlier,
// unrelated run.
func Restore(e *engine.Engine, blob string) error {
	doc, err := unmarshalDocument(blob)
	if err != nil {
		return err
	}
	if doc.Version > currentVersion {
		return fmt.Errorf("serialize: save version %d is newer than this build supports (%d)", doc.Version, currentVersion)
	}

	if err := restoreStore(e, doc); err != nil {
		return err
	}

	rb := &restoreBuilder{engine: e, doc: doc, insertionCache: map[int64]*scope.RuntimeInsertion{}}
	stack, err := rb.stackRecords(doc.Stack)
	if err != nil {
		e.Stack = scope.NewStack()
		e.Insertions = map[int64]*scope.RuntimeInsertion{}
		e.NextScopeID = 0
		e.NextInsertionID = 0
		e.FallbackBeat = fallbackBeatPath(e, doc)
		return nil
	}

	e.Stack = scope.NewStack()
	for _, s := range stack {
		e.Stack.Push(s)
	}
	e.Insertions = rb.insertionCache
	e.NextScopeID = doc.NextScopeID
	e.NextInsertionID = doc.NextInsertionID
	e.FallbackBeat = ""
	return nil
}

// restoreStore implements spec §4.7.3 step 1 and the node-state half of
// step 2 (the insertion half of step 2's memoized cache is
// restoreBuilder.insertion).
func restoreStore(e *engine.Engine, doc Document) error {
	if err := engine.InitStore(e.Script, e.Lens, e.Store, e.Opts); err != nil {
		return err
	}
	e.Store.NodeState = map[ast.NodeID]*store.Container{}

	delta, err := decodeDelta(doc.State)
	if err != nil {
		return err
	}
	e.Store.TopLevel.ApplyDelta(delta)

	for name, raw := range doc.Characters {
		delta, err := decodeDelta(raw)
		if err != nil {
			return err
		}
		e.Store.EnsureCharacter(name).ApplyDelta(delta)
	}

	for key, raw := range doc.NodeState {
		id, err := parseNodeID(key)
		if err != nil {
			return err
		}
		delta, err := decodeDelta(raw)
		if err != nil {
			return err
		}
		if node, ok := e.Lens.NodeByID(id); ok {
			if sd, ok := node.(*ast.StateDecl); ok {
				declared, order, err := e.DeclaredFields(sd.Fields)
				if err != nil {
					return err
				}
				e.Store.NodeContainer(id, order, declared).ApplyDelta(delta)
				continue
			}
		}
		// Not a live StateDecl (an Alternative's visit/shuffle
		// bookkeeping, or a node the current script no longer
		// contains): recreate a bare container and accept every saved
		// field directly, since there is no script-declared set to
		// filter against.
		c := e.Store.NodeContainer(id, nil, nil)
		for name, v := range delta {
			c.Set(name, v)
		}
	}
	return nil
}

// fallbackBeatPath implements spec §4.7.5's "outermost identifiable
// beat": scan the saved stack outermost-first for the first beat
// reference that still resolves live.
func fallbackBeatPath(e *engine.Engine, doc Document) string {
	for _, rec := range doc.Stack {
		if rec.Beat == nil {
			continue
		}
		if _, ok := e.Lens.BeatByPath(rec.Beat.Path); ok {
			return rec.Beat.Path
		}
		if id, err := parseNodeID(rec.Beat.ID); err == nil {
			if b, ok := e.Lens.BeatByID(id); ok {
				return b.DottedPath()
			}
		}
	}
	return ""
}

// restoreBuilder rebuilds scopes and insertions from a Document,
// resolving every saved node reference against the live script through
// engine.Engine.Lens.
type restoreBuilder struct {
	engine         *engine.Engine
	doc            Document
	insertionCache map[int64]*scope.RuntimeInsertion
}

func (r *restoreBuilder) stackRecords(recs []ScopeRecord) ([]*scope.Scope, error) {
	out := make([]*scope.Scope, len(recs))
	for i, rec := range recs {
		s, err := r.buildScope(rec)
		if err != nil {
			return nil, err
		}
		out[i] = s
	}
	return out, nil
}

// resolveBeat implements spec §4.7.3 step 3's beat resolution: dotted
// path first, id second. When resolved by path, the returned offset is
// the live beat's own id offset minus the saved one, for resolveNode to
// apply to other saved ids in the same scope (tolerating small edits
// above the beat without invalidating ids below it).
func (r *restoreBuilder) resolveBeat(ref *BeatRef) (beat *ast.BeatDecl, offset int, err error) {
	savedID, perr := parseNodeID(ref.ID)
	if perr != nil {
		return nil, 0, perr
	}
	if b, ok := r.engine.Lens.BeatByPath(ref.Path); ok {
		return b, b.ID().Offset - savedID.Offset, nil
	}
	if b, ok := r.engine.Lens.BeatByID(savedID); ok {
		return b, 0, nil
	}
	return nil, 0, errUnresolved
}

// resolveNode looks a saved node reference up directly first, then --
// when it carries the same section as the enclosing scope's saved beat
// id -- retries with the beat's resolved offset applied. offset/section
// are zero/-1 for references that have no enclosing-beat context of
// their own (insertion origins, choice option sources), which resolve by
// exact id only.
func (r *restoreBuilder) resolveNode(ref NodeRef, offset int, savedBeatSection int) (ast.Node, error) {
	id, err := parseNodeID(ref.ID)
	if err != nil {
		return nil, err
	}
	if n, ok := r.engine.Lens.NodeByID(id); ok && n.Kind().String() == ref.Kind {
		return n, nil
	}
	if offset != 0 && id.Section == savedBeatSection {
		shifted := ast.NodeID{Section: id.Section, Offset: id.Offset + offset}
		if n, ok := r.engine.Lens.NodeByID(shifted); ok && n.Kind().String() == ref.Kind {
			return n, nil
		}
	}
	return nil, errUnresolved
}

func (r *restoreBuilder) buildScope(rec ScopeRecord) (*scope.Scope, error) {
	var beat *ast.BeatDecl
	offset := 0
	savedSection := -1
	if rec.Beat != nil {
		savedID, err := parseNodeID(rec.Beat.ID)
		if err != nil {
			return nil, err
		}
		savedSection = savedID.Section
		b, off, err := r.resolveBeat(rec.Beat)
		if err != nil {
			return nil, err
		}
		beat, offset = b, off
	}

	node, err := r.resolveNode(rec.Node, offset, savedSection)
	if err != nil {
		return nil, err
	}
	s := scope.NewScope(rec.ID, beat, node)

	if rec.BodyHead != nil {
		head, err := r.resolveNode(*rec.BodyHead, offset, savedSection)
		if err != nil {
			return nil, err
		}
		s.BodyHead = head
	}

	for _, nb := range rec.NestedBeats {
		child, err := r.resolveBeatRef(nb)
		if err != nil {
			return nil, err
		}
		s.Beats = append(s.Beats, child)
	}

	if rec.LocalState != nil {
		if err := r.attachLocalState(s, rec.LocalState); err != nil {
			return nil, err
		}
	}

	if rec.InsertionID != nil {
		ins, err := r.insertion(*rec.InsertionID)
		if err != nil {
			return nil, err
		}
		s.Insertion = ins
	}

	return s, nil
}

func (r *restoreBuilder) resolveBeatRef(ref BeatRef) (*ast.BeatDecl, error) {
	if b, ok := r.engine.Lens.BeatByPath(ref.Path); ok {
		return b, nil
	}
	id, err := parseNodeID(ref.ID)
	if err != nil {
		return nil, err
	}
	if b, ok := r.engine.Lens.BeatByID(id); ok {
		return b, nil
	}
	return nil, errUnresolved
}

func (r *restoreBuilder) attachLocalState(s *scope.Scope, rec *LocalStateRecord) error {
	ownerID, err := parseNodeID(rec.Owner)
	if err != nil {
		return err
	}
	s.LocalStateOwner = ownerID
	s.LocalStateTemporary = rec.Temporary
	if rec.Temporary {
		order, fields, err := decodeFullOrdered(rec.Full)
		if err != nil {
			return err
		}
		s.LocalState = store.NewContainer(order, fields)
		return nil
	}
	c, ok := r.engine.Store.LookupNodeContainer(ownerID)
	if !ok {
		return errUnresolved
	}
	s.LocalState = c
	return nil
}

// insertion rebuilds (or returns the cached) RuntimeInsertion for id,
// creating the shell and caching it before populating its options/stack
// so a cycle back to this id during that population resolves to the
// same shell rather than recursing forever (spec §4.7.3 step 4).
func (r *restoreBuilder) insertion(id int64) (*scope.RuntimeInsertion, error) {
	if ins, ok := r.insertionCache[id]; ok {
		return ins, nil
	}
	rec, ok := r.doc.Insertions[strconv.FormatInt(id, 10)]
	if !ok {
		return nil, errUnresolved
	}

	ins := &scope.RuntimeInsertion{ID: id, Collected: rec.Collected}
	r.insertionCache[id] = ins

	origin, err := r.resolveNode(rec.Origin, 0, -1)
	if err != nil {
		return nil, err
	}
	insertionNode, ok := origin.(*ast.InsertionNode)
	if !ok {
		return nil, errUnresolved
	}
	ins.Origin = insertionNode

	options := make([]scope.ChoiceOption, len(rec.Options))
	for i, or := range rec.Options {
		source, err := r.resolveNode(or.Source, 0, -1)
		if err != nil {
			return nil, err
		}
		opt := scope.ChoiceOption{
			DisplayText: or.DisplayText,
			Tags:        or.Tags,
			Enabled:     or.Enabled,
			Source:      source,
		}
		if or.InsertionID != nil {
			nested, err := r.insertion(*or.InsertionID)
			if err != nil {
				return nil, err
			}
			opt.Insertion = nested
		}
		options[i] = opt
	}
	ins.Options = options

	stack, err := r.stackRecords(rec.Stack)
	if err != nil {
		return nil, err
	}
	ins.Stack = stack

	return ins, nil
}
