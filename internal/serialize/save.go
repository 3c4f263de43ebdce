package serialize

import (
	"strconv"

	"github.com/jeremyfa/loreline-go/internal/engine"
	"github.com/jeremyfa/loreline-go/internal/scope"
)

// Save implements spec §4.7.2. It must only be called at a quiescent
// point between host interactions -- the Continuation Core never calls
// it mid-step, and a RuntimeError-aborted step (engine.Engine.Stack == nil)
// has nothing left to walk.
func Save(e *engine.Engine) (string, error) {
	doc := Document{
		Version:         currentVersion,
		Characters:      map[string]string{},
		NodeState:       map[string]string{},
		Insertions:      map[string]InsertionRecord{},
		NextScopeID:     e.NextScopeID,
		NextInsertionID: e.NextInsertionID,
	}

	state, err := encodeDelta(e.Store.TopLevel)
	if err != nil {
		return "", err
	}
	doc.State = state

	for _, name := range e.Store.CharacterNames() {
		d, err := encodeDelta(e.Store.Characters[name])
		if err != nil {
			return "", err
		}
		doc.Characters[name] = d
	}

	for id, c := range e.Store.NodeState {
		d, err := encodeDelta(c)
		if err != nil {
			return "", err
		}
		doc.NodeState[nodeIDKey(id)] = d
	}

	b := &saveBuilder{seen: map[int64]bool{}, insertions: doc.Insertions}
	stack, err := b.stackRecords(e.Stack.All())
	if err != nil {
		return "", err
	}
	doc.Stack = stack

	return marshalDocument(doc)
}

// saveBuilder accumulates insertion records into a flat, id-keyed map as
// it discovers them while walking scope records, breaking cycles between
// an insertion and its own captured stack (spec §4.7.2 step 1).
type saveBuilder struct {
	seen       map[int64]bool
	insertions map[string]InsertionRecord
}

func (b *saveBuilder) stackRecords(scopes []*scope.Scope) ([]ScopeRecord, error) {
	out := make([]ScopeRecord, len(scopes))
	for i, s := range scopes {
		rec, err := b.scopeRecord(s)
		if err != nil {
			return nil, err
		}
		out[i] = rec
	}
	return out, nil
}

func (b *saveBuilder) scopeRecord(s *scope.Scope) (ScopeRecord, error) {
	rec := ScopeRecord{ID: s.ID, Node: nodeRef(s.Node)}
	if s.Beat != nil {
		ref := beatRef(s.Beat)
		rec.Beat = &ref
	}
	if s.BodyHead != nil {
		ref := nodeRef(s.BodyHead)
		rec.BodyHead = &ref
	}
	for _, nb := range s.Beats {
		rec.NestedBeats = append(rec.NestedBeats, beatRef(nb))
	}
	if s.LocalState != nil {
		lsr := &LocalStateRecord{Temporary: s.LocalStateTemporary, Owner: nodeIDKey(s.LocalStateOwner)}
		if s.LocalStateTemporary {
			full, err := encodeFull(s.LocalState)
			if err != nil {
				return ScopeRecord{}, err
			}
			lsr.Full = full
		}
		rec.LocalState = lsr
	}
	if s.Insertion != nil {
		id := s.Insertion.ID
		rec.InsertionID = &id
		if err := b.ensureInsertion(s.Insertion); err != nil {
			return ScopeRecord{}, err
		}
	}
	return rec, nil
}

// ensureInsertion records ins under its id the first time it is seen.
// The id is marked seen before recursing into its options/stack so a
// cycle back to ins (an option's captured stack containing a scope still
// attached to ins itself) finds the id already claimed and stops.
func (b *saveBuilder) ensureInsertion(ins *scope.RuntimeInsertion) error {
	key := strconv.FormatInt(ins.ID, 10)
	if b.seen[ins.ID] {
		return nil
	}
	b.seen[ins.ID] = true

	options := make([]OptionRecord, len(ins.Options))
	for i, opt := range ins.Options {
		or := OptionRecord{
			DisplayText: opt.DisplayText,
			Tags:        opt.Tags,
			Enabled:     opt.Enabled,
			Source:      nodeRef(opt.Source),
		}
		if opt.Insertion != nil {
			id := opt.Insertion.ID
			or.InsertionID = &id
			if err := b.ensureInsertion(opt.Insertion); err != nil {
				return err
			}
		}
		options[i] = or
	}

	stackRecs, err := b.stackRecords(ins.Stack)
	if err != nil {
		return err
	}

	b.insertions[key] = InsertionRecord{
		Origin:    nodeRef(ins.Origin),
		Collected: ins.Collected,
		Options:   options,
		Stack:     stackRecs,
	}
	return nil
}
