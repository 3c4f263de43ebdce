package store

import (
	"github.com/jeremyfa/loreline-go/ast"
	"github.com/jeremyfa/loreline-go/internal/values"
)

// VisitsField is the reserved field name an Alternative's node-state
// container uses to hold its visit counter (spec §4.5).
const VisitsField = "__visits"

// ShuffleField is the reserved field name a Shuffle Alternative's
// node-state container uses to hold the current epoch's permutation.
const ShuffleField = "__shuffle"

// Store is the runtime's sole owner of top-level state, character
// fields, and per-node persistent state (spec §3, "Store"; spec §3,
// "Ownership").
type Store struct {
	TopLevel   *Container
	Characters map[string]*Container
	// characterOrder preserves first-declaration order so serialization
	// is deterministic even though Characters is a map.
	characterOrder []string
	NodeState      map[ast.NodeID]*Container
}

// New builds an empty Store. TopLevel starts as an empty container; call
// InitTopLevel once the script's top-level StateDecl fields are known.
func New() *Store {
	return &Store{
		TopLevel:   NewContainer(nil, nil),
		Characters: map[string]*Container{},
		NodeState:  map[ast.NodeID]*Container{},
	}
}

// InitTopLevel (re)initializes top-level state from declared defaults.
func (s *Store) InitTopLevel(order []string, declared map[string]values.Value) {
	s.TopLevel = NewContainer(order, declared)
}

// InitCharacter declares a character's fields. Calling it again for the
// same name replaces the declaration (used only at Store construction;
// re-declaring a running character is not a supported operation).
func (s *Store) InitCharacter(name string, order []string, declared map[string]values.Value) {
	if _, exists := s.Characters[name]; !exists {
		s.characterOrder = append(s.characterOrder, name)
	}
	s.Characters[name] = NewContainer(order, declared)
}

// CharacterNames returns declared character names in declaration order.
func (s *Store) CharacterNames() []string {
	out := make([]string, len(s.characterOrder))
	copy(out, s.characterOrder)
	return out
}

// EnsureCharacter returns the container for name, creating an empty one
// on demand (used when a save references a character absent from the
// current script, spec §4.7.3).
func (s *Store) EnsureCharacter(name string) *Container {
	if c, ok := s.Characters[name]; ok {
		return c
	}
	c := NewContainer(nil, nil)
	s.Characters[name] = c
	s.characterOrder = append(s.characterOrder, name)
	return c
}

// NodeContainer returns the persistent container for id, creating it from
// the given declared defaults on first access. Subsequent calls ignore
// order/declared and return the existing container unchanged -- this
// implements spec §4.2's "if non-temporary and already present in the
// map, do not re-initialize" rule for local state, and also backs
// Alternative visit counters (which always pass the same zero defaults).
func (s *Store) NodeContainer(id ast.NodeID, order []string, declared map[string]values.Value) *Container {
	if c, ok := s.NodeState[id]; ok {
		return c
	}
	c := NewContainer(order, declared)
	s.NodeState[id] = c
	return c
}

// LookupNodeContainer returns the existing container for id without
// creating one.
func (s *Store) LookupNodeContainer(id ast.NodeID) (*Container, bool) {
	c, ok := s.NodeState[id]
	return c, ok
}

// Visits returns an Alternative's current visit counter, defaulting to 0
// if the node has not been visited yet.
func (s *Store) Visits(id ast.NodeID) int64 {
	c := s.NodeContainer(id, []string{VisitsField}, map[string]values.Value{VisitsField: values.Int{Value: 0}})
	v, _ := c.Get(VisitsField)
	if iv, ok := v.(values.Int); ok {
		return iv.Value
	}
	return 0
}

// SetVisits writes an Alternative's visit counter.
func (s *Store) SetVisits(id ast.NodeID, n int64) {
	c := s.NodeContainer(id, []string{VisitsField}, map[string]values.Value{VisitsField: values.Int{Value: 0}})
	c.Set(VisitsField, values.Int{Value: n})
}

// ShufflePermutation returns a Shuffle Alternative's stored permutation
// for the current epoch, if any has been generated yet.
func (s *Store) ShufflePermutation(id ast.NodeID) ([]int64, bool) {
	c, ok := s.LookupNodeContainer(id)
	if !ok {
		return nil, false
	}
	v, ok := c.Get(ShuffleField)
	if !ok {
		return nil, false
	}
	arr, ok := v.(values.Array)
	if !ok {
		return nil, false
	}
	out := make([]int64, len(arr.Elements))
	for i, e := range arr.Elements {
		iv, ok := e.(values.Int)
		if !ok {
			return nil, false
		}
		out[i] = iv.Value
	}
	return out, true
}

// SetShufflePermutation stores a freshly generated permutation.
func (s *Store) SetShufflePermutation(id ast.NodeID, perm []int64) {
	c := s.NodeContainer(id, []string{VisitsField}, map[string]values.Value{VisitsField: values.Int{Value: 0}})
	elements := make([]values.Value, len(perm))
	for i, p := range perm {
		elements[i] = values.Int{Value: p}
	}
	c.Set(ShuffleField, values.Array{Elements: elements})
}
