// Package ast defines the Abstract Syntax Tree node types that the
// Loreline runtime core walks. The lexer, parser, printer, and LSP that
// would normally produce this tree are out of scope for this module (see
// spec §1); ast only fixes the contract a parser must satisfy and that
// the interpreter, Lens, and Serializer all depend on.
package ast

import "fmt"

// Position is a source location, used only for diagnostics. It carries no
// weight in node identity -- NodeID does that.
type Position struct {
	Line   int
	Column int
	Offset int
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// NodeID is the stable identifier every node carries, per spec §3: a
// section index plus an offset within that section. It is the only
// durable handle the Serializer uses; it survives independently of
// source position so that small edits above a beat don't necessarily
// invalidate a save (see spec §4.7.3's section-offset tolerance).
type NodeID struct {
	Section int
	Offset  int
}

func (id NodeID) String() string {
	return fmt.Sprintf("%d:%d", id.Section, id.Offset)
}

// IsZero reports whether id is the unset zero value.
func (id NodeID) IsZero() bool {
	return id == NodeID{}
}

// Kind is the closed tag set from spec §6.1. Dispatch throughout the
// engine switches on Kind rather than relying on type assertions or
// reflection (spec §9's "dynamic reflection on nodes" re-architecture
// note).
type Kind int

const (
	KindInvalid Kind = iota

	// Declarations
	KindScript
	KindBeatDecl
	KindCharacterDecl
	KindStateDecl
	KindFunctionDecl
	KindImport

	// Statements
	KindDialogueStatement
	KindTextStatement
	KindChoiceStatement
	KindChoiceOption
	KindInsertion
	KindConditional
	KindAlternative
	KindTransition
	KindCall
	KindAssignment

	// Expressions
	KindIdentifier
	KindUnaryOp
	KindBinaryOp
	KindArrayAccess
	KindFieldAccess
	KindObjectField
	KindCallExpression

	// Literals
	KindNumberLiteral
	KindBooleanLiteral
	KindNullLiteral
	KindArrayLiteral
	KindObjectLiteral
	KindStringLiteral
)

var kindNames = map[Kind]string{
	KindInvalid:           "Invalid",
	KindScript:            "Script",
	KindBeatDecl:          "BeatDecl",
	KindCharacterDecl:     "CharacterDecl",
	KindStateDecl:         "StateDecl",
	KindFunctionDecl:      "FunctionDecl",
	KindImport:            "Import",
	KindDialogueStatement: "DialogueStatement",
	KindTextStatement:     "TextStatement",
	KindChoiceStatement:   "ChoiceStatement",
	KindChoiceOption:      "ChoiceOption",
	KindInsertion:         "Insertion",
	KindConditional:       "Conditional",
	KindAlternative:       "Alternative",
	KindTransition:        "Transition",
	KindCall:              "Call",
	KindAssignment:        "Assignment",
	KindIdentifier:        "Identifier",
	KindUnaryOp:           "UnaryOp",
	KindBinaryOp:          "BinaryOp",
	KindArrayAccess:       "ArrayAccess",
	KindFieldAccess:       "FieldAccess",
	KindObjectField:       "ObjectField",
	KindCallExpression:    "CallExpression",
	KindNumberLiteral:     "NumberLiteral",
	KindBooleanLiteral:    "BooleanLiteral",
	KindNullLiteral:       "NullLiteral",
	KindArrayLiteral:      "ArrayLiteral",
	KindObjectLiteral:     "ObjectLiteral",
	KindStringLiteral:     "StringLiteral",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Node is the base interface every AST node implements.
type Node interface {
	// ID returns the node's stable identifier.
	ID() NodeID
	// Kind returns the node's closed kind tag.
	Kind() Kind
	// Pos returns the node's source position, for diagnostics only.
	Pos() Position
	// Children returns this node's direct children in source order.
	Children() []Node
}

// Expression is any node that produces a runtime value.
type Expression interface {
	Node
	expressionNode()
}

// Statement is any node that performs an action within a beat body.
type Statement interface {
	Node
	statementNode()
}

// Decl is any top-level or nested declaration.
type Decl interface {
	Node
	declNode()
}

// base is embedded by every concrete node to provide ID/Kind/Pos without
// repeating boilerplate accessors on each type. Position is carried for
// diagnostics only; node identity and equality rely solely on NodeID.
type base struct {
	id  NodeID
	pos Position
	k   Kind
}

func (b base) ID() NodeID    { return b.id }
func (b base) Kind() Kind    { return b.k }
func (b base) Pos() Position { return b.pos }

func newBase(id NodeID, pos Position, k Kind) base {
	return base{id: id, pos: pos, k: k}
}
