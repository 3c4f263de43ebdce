package ast

// Builder constructs AST trees from already-evaluated Go values. It is
// fixture/test infrastructure standing in for the out-of-scope parser
// (spec §1): it performs no tokenization, only allocates stable NodeIDs
// and wires up node literals, mirroring how internal/ast's own tests
// build trees as direct struct literals -- Builder just wraps that in
// chainable helpers so multi-beat fixtures stay readable.
type Builder struct {
	section int
	offset  int
}

// NewBuilder returns a Builder that allocates NodeIDs within the given
// section (a script-level index; building multiple files/units should use
// distinct sections so ids never collide).
func NewBuilder(section int) *Builder {
	return &Builder{section: section}
}

func (b *Builder) next() NodeID {
	id := NodeID{Section: b.section, Offset: b.offset}
	b.offset++
	return id
}

func (b *Builder) Script(decls ...Decl) *Script {
	return NewScript(b.next(), Position{}, decls)
}

func (b *Builder) Beat(name string, parent *BeatDecl, body ...Statement) *BeatDecl {
	return NewBeatDecl(b.next(), Position{}, name, parent, body)
}

func (b *Builder) Character(name string, fields ...CharacterField) *CharacterDecl {
	return NewCharacterDecl(b.next(), Position{}, name, fields)
}

func (b *Builder) Field(name string, initial Expression) CharacterField {
	return CharacterField{Name: name, Initial: initial}
}

func (b *Builder) TopState(fields ...CharacterField) *StateDecl {
	return NewStateDecl(b.next(), Position{}, StateScopeTopLevel, false, fields)
}

func (b *Builder) LocalState(temporary bool, fields ...CharacterField) *StateDecl {
	return NewStateDecl(b.next(), Position{}, StateScopeLocal, temporary, fields)
}

func (b *Builder) Text(raw string) *TextStatement {
	return NewTextStatement(b.next(), Position{}, b.Raw(raw))
}

func (b *Builder) Dialogue(character, raw string) *DialogueStatement {
	return NewDialogueStatement(b.next(), Position{}, character, b.Raw(raw))
}

// Raw builds a StringLiteral with a single raw-text part; use Template
// for interpolated content.
func (b *Builder) Raw(text string) *StringLiteral {
	return NewStringLiteral(b.next(), Position{}, QuoteDouble, []TemplatePart{{Kind: PartRaw, Raw: text}})
}

func (b *Builder) Template(parts ...TemplatePart) *StringLiteral {
	return NewStringLiteral(b.next(), Position{}, QuoteDouble, parts)
}

func (b *Builder) RawPart(text string) TemplatePart { return TemplatePart{Kind: PartRaw, Raw: text} }
func (b *Builder) ExprPart(e Expression) TemplatePart {
	return TemplatePart{Kind: PartExpression, Expr: e}
}
func (b *Builder) TagPart(name string, closing bool) TemplatePart {
	return TemplatePart{Kind: PartTag, TagName: name, TagClosing: closing}
}

func (b *Builder) Assign(operator string, target AssignTarget, value Expression) *Assignment {
	return NewAssignment(b.next(), Position{}, target, operator, value)
}

func (b *Builder) Target(root string, fields ...string) AssignTarget {
	return AssignTarget{Root: root, Fields: fields}
}

func (b *Builder) If(branches ...ConditionalBranch) *Conditional {
	return NewConditional(b.next(), Position{}, branches)
}

func (b *Builder) Branch(cond Expression, body ...Statement) ConditionalBranch {
	return ConditionalBranch{Condition: cond, Body: body}
}

func (b *Builder) Alt(mode AlternativeMode, branches ...[]Statement) *Alternative {
	return NewAlternative(b.next(), Position{}, mode, branches)
}

func (b *Builder) Goto(target string) *Transition {
	return NewTransition(b.next(), Position{}, target)
}

func (b *Builder) CallStmt(target string, args ...Expression) *Call {
	return NewCall(b.next(), Position{}, target, args)
}

func (b *Builder) Choice(entries ...ChoiceEntry) *ChoiceStatement {
	return NewChoiceStatement(b.next(), Position{}, entries)
}

func (b *Builder) Option(text *StringLiteral, condition Expression, body ...Statement) *ChoiceOptionNode {
	return NewChoiceOptionNode(b.next(), Position{}, text, condition, body)
}

func (b *Builder) Insert(targetBeat string) *InsertionNode {
	return NewInsertionNode(b.next(), Position{}, targetBeat)
}

func (b *Builder) Ident(name string) *Identifier {
	return NewIdentifier(b.next(), Position{}, name)
}

func (b *Builder) Field_(target Expression, field string) *FieldAccessExpr {
	return NewFieldAccessExpr(b.next(), Position{}, target, field)
}

func (b *Builder) Index(target, index Expression) *ArrayAccessExpr {
	return NewArrayAccessExpr(b.next(), Position{}, target, index)
}

func (b *Builder) Unary(op string, operand Expression) *UnaryExpr {
	return NewUnaryExpr(b.next(), Position{}, op, operand)
}

func (b *Builder) Binary(op string, left, right Expression) *BinaryExpr {
	return NewBinaryExpr(b.next(), Position{}, op, left, right)
}

func (b *Builder) CallExpr(callee Expression, args ...Expression) *CallExpression {
	return NewCallExpression(b.next(), Position{}, callee, args)
}

func (b *Builder) Num(v float64) *NumberLiteral {
	return NewNumberLiteral(b.next(), Position{}, v, false)
}

func (b *Builder) Int(v int64) *NumberLiteral {
	return NewNumberLiteral(b.next(), Position{}, float64(v), true)
}

func (b *Builder) Bool(v bool) *BooleanLiteral {
	return NewBooleanLiteral(b.next(), Position{}, v)
}

func (b *Builder) Null() *NullLiteral {
	return NewNullLiteral(b.next(), Position{})
}

func (b *Builder) Array(elements ...Expression) *ArrayLiteral {
	return NewArrayLiteral(b.next(), Position{}, elements)
}

func (b *Builder) Object(fields ...*ObjectFieldNode) *ObjectLiteral {
	return NewObjectLiteral(b.next(), Position{}, fields)
}

func (b *Builder) ObjField(name string, value Expression) *ObjectFieldNode {
	return NewObjectFieldNode(b.next(), Position{}, name, value)
}
