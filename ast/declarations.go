package ast

// Script is the root node: an ordered sequence of declarations (spec §3,
// "Script").
type Script struct {
	base
	Declarations []Decl
}

func NewScript(id NodeID, pos Position, decls []Decl) *Script {
	return &Script{base: newBase(id, pos, KindScript), Declarations: decls}
}

func (s *Script) Children() []Node {
	out := make([]Node, len(s.Declarations))
	for i, d := range s.Declarations {
		out[i] = d
	}
	return out
}
func (s *Script) declNode() {}

// BeatDecl is a named, ordered body of statements (spec §3, "Beat").
// Beats may be nested; Parent is nil for top-level beats.
type BeatDecl struct {
	base
	Name   string
	Parent *BeatDecl
	Body   []Statement
}

func NewBeatDecl(id NodeID, pos Position, name string, parent *BeatDecl, body []Statement) *BeatDecl {
	return &BeatDecl{base: newBase(id, pos, KindBeatDecl), Name: name, Parent: parent, Body: body}
}

// DottedPath returns the dotted path from the outermost ancestor beat to
// this beat, e.g. "Parent.Child" (spec §3).
func (b *BeatDecl) DottedPath() string {
	if b.Parent == nil {
		return b.Name
	}
	return b.Parent.DottedPath() + "." + b.Name
}

func (b *BeatDecl) Children() []Node {
	out := make([]Node, len(b.Body))
	for i, s := range b.Body {
		out[i] = s
	}
	return out
}
func (b *BeatDecl) declNode()      {}
func (b *BeatDecl) statementNode() {} // a beat may also appear nested inside another beat's body

// CharacterField is a single field name -> initial expression pair,
// shared by CharacterDecl and StateDecl.
type CharacterField struct {
	Name    string
	Initial Expression
}

// CharacterDecl is a named object with a mapping from field name to
// initial expression (spec §3, "Character").
type CharacterDecl struct {
	base
	Name   string
	Fields []CharacterField
}

func NewCharacterDecl(id NodeID, pos Position, name string, fields []CharacterField) *CharacterDecl {
	return &CharacterDecl{base: newBase(id, pos, KindCharacterDecl), Name: name, Fields: fields}
}

func (c *CharacterDecl) Children() []Node {
	out := make([]Node, 0, len(c.Fields))
	for _, f := range c.Fields {
		if f.Initial != nil {
			out = append(out, f.Initial)
		}
	}
	return out
}
func (c *CharacterDecl) declNode() {}

// StateDecl is an ordered mapping of field name -> initial expression
// (spec §3, "State block"). Scope distinguishes top-level from local;
// Temporary distinguishes a local block that lives only on the scope
// stack from one that survives re-entry in Store.node-state-map.
type StateScope int

const (
	StateScopeTopLevel StateScope = iota
	StateScopeLocal
)

type StateDecl struct {
	base
	Scope     StateScope
	Temporary bool // only meaningful when Scope == StateScopeLocal
	Fields    []CharacterField
}

func NewStateDecl(id NodeID, pos Position, scope StateScope, temporary bool, fields []CharacterField) *StateDecl {
	return &StateDecl{base: newBase(id, pos, KindStateDecl), Scope: scope, Temporary: temporary, Fields: fields}
}

func (s *StateDecl) Children() []Node {
	out := make([]Node, 0, len(s.Fields))
	for _, f := range s.Fields {
		if f.Initial != nil {
			out = append(out, f.Initial)
		}
	}
	return out
}
func (s *StateDecl) declNode()      {}
func (s *StateDecl) statementNode() {}

// FunctionDecl is a script-level function usable from expressions and
// from Call statements (spec §6.2).
type FunctionDecl struct {
	base
	Name   string
	Params []string
	Body   []Statement
}

func NewFunctionDecl(id NodeID, pos Position, name string, params []string, body []Statement) *FunctionDecl {
	return &FunctionDecl{base: newBase(id, pos, KindFunctionDecl), Name: name, Params: params, Body: body}
}

func (f *FunctionDecl) Children() []Node {
	out := make([]Node, len(f.Body))
	for i, s := range f.Body {
		out[i] = s
	}
	return out
}
func (f *FunctionDecl) declNode() {}

// Import references another script by path; the core does not resolve
// imports itself (collaborator concern) but carries the node so a host
// linker can.
type Import struct {
	base
	Path string
}

func NewImport(id NodeID, pos Position, path string) *Import {
	return &Import{base: newBase(id, pos, KindImport), Path: path}
}

func (i *Import) Children() []Node { return nil }
func (i *Import) declNode()        {}
