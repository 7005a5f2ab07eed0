// Package jsparser wraps a tree-sitter ECMAScript parser and normalizes its
// concrete syntax tree into a small ESTree-shaped AST. Each node kind is a
// concrete struct behind the Stmt/Expr interfaces so that consumers can
// type-switch exhaustively instead of dispatching on string tags.
package jsparser

// Position is a 1-based line/column location in the source text.
type Position struct {
	Line   int
	Column int
}

// Node is implemented by every AST node.
type Node interface {
	Pos() Position
}

// Stmt is implemented by statement nodes.
type Stmt interface {
	Node
	stmtNode()
}

// Expr is implemented by expression nodes.
type Expr interface {
	Node
	exprNode()
}

type pos struct{ P Position }

func (p pos) Pos() Position { return p.P }

// Program is the root of a parsed script.
type Program struct {
	pos
	Body []Stmt
}

// ExpressionStatement wraps an expression used as a statement.
type ExpressionStatement struct {
	pos
	X Expr
}

// BlockStatement is a braced list of statements.
type BlockStatement struct {
	pos
	Body []Stmt
}

// IfStatement is a conditional; Alternate is nil when there is no else.
type IfStatement struct {
	pos
	Test       Expr
	Consequent Stmt
	Alternate  Stmt
}

// ForStatement is a classic three-clause for loop. Any clause may be nil.
type ForStatement struct {
	pos
	Init   Node
	Test   Expr
	Update Expr
	Body   Stmt
}

// ForOfStatement iterates the values of Right.
type ForOfStatement struct {
	pos
	Left  string
	Right Expr
	Body  Stmt
}

// ForInStatement iterates the keys of Right.
type ForInStatement struct {
	pos
	Left  string
	Right Expr
	Body  Stmt
}

// WhileStatement is an unbounded loop; the converter rejects it.
type WhileStatement struct {
	pos
	Test Expr
	Body Stmt
}

// VariableDeclaration is a var/let/const declaration list.
type VariableDeclaration struct {
	pos
	Kind         string
	Declarations []*VariableDeclarator
}

// VariableDeclarator is one name = init pair; Init may be nil.
type VariableDeclarator struct {
	pos
	Name string
	Init Expr
}

// ReturnStatement returns Argument (possibly nil) from the script.
type ReturnStatement struct {
	pos
	Argument Expr
}

// UnknownStatement stands in for a syntax form the normalizer does not
// model. Kind carries the grammar node type for diagnostics.
type UnknownStatement struct {
	pos
	Kind string
}

func (*ExpressionStatement) stmtNode() {}
func (*BlockStatement) stmtNode()      {}
func (*IfStatement) stmtNode()         {}
func (*ForStatement) stmtNode()        {}
func (*ForOfStatement) stmtNode()      {}
func (*ForInStatement) stmtNode()      {}
func (*WhileStatement) stmtNode()      {}
func (*VariableDeclaration) stmtNode() {}
func (*ReturnStatement) stmtNode()     {}
func (*UnknownStatement) stmtNode()    {}

// Literal is a string, number, boolean or null literal. Value is nil for
// null, bool, float64 or string otherwise. Raw preserves the source text.
type Literal struct {
	pos
	Value any
	Raw   string
}

// Identifier is a bare name.
type Identifier struct {
	pos
	Name string
}

// MemberExpression is property access: dotted when Computed is false,
// bracketed when true.
type MemberExpression struct {
	pos
	Object   Expr
	Property Expr
	Computed bool
}

// BinaryExpression is an arithmetic, comparison or bitwise operation.
type BinaryExpression struct {
	pos
	Operator string
	Left     Expr
	Right    Expr
}

// LogicalExpression is && or ||.
type LogicalExpression struct {
	pos
	Operator string
	Left     Expr
	Right    Expr
}

// UnaryExpression is a prefix or postfix unary operation.
type UnaryExpression struct {
	pos
	Operator string
	Prefix   bool
	Argument Expr
}

// UpdateExpression is ++ or --.
type UpdateExpression struct {
	pos
	Operator string
	Prefix   bool
	Argument Expr
}

// ConditionalExpression is the ternary test ? consequent : alternate.
type ConditionalExpression struct {
	pos
	Test       Expr
	Consequent Expr
	Alternate  Expr
}

// CallExpression is a function or method invocation.
type CallExpression struct {
	pos
	Callee    Expr
	Arguments []Expr
}

// ArrayExpression is an array literal.
type ArrayExpression struct {
	pos
	Elements []Expr
}

// ObjectExpression is an object literal.
type ObjectExpression struct {
	pos
	Properties []*Property
}

// Property is one key/value entry of an object literal.
type Property struct {
	pos
	Key       Expr
	Value     Expr
	Computed  bool
	Shorthand bool
}

// TemplateLiteral is a backtick string. Quasis has exactly one more element
// than Expressions; the rendered form alternates quasi, expression, quasi.
type TemplateLiteral struct {
	pos
	Quasis      []string
	Expressions []Expr
}

// AssignmentExpression is an assignment used in expression position.
type AssignmentExpression struct {
	pos
	Operator string
	Left     Expr
	Right    Expr
}

// SequenceExpression is a comma-separated expression list.
type SequenceExpression struct {
	pos
	Expressions []Expr
}

// SpreadElement is ...argument.
type SpreadElement struct {
	pos
	Argument Expr
}

// ArrowFunctionExpression is an arrow function. The dialect has no closures,
// so only specific callers (array.filter) look inside; Body is either an
// Expr or a *BlockStatement.
type ArrowFunctionExpression struct {
	pos
	Params []string
	Body   Node
}

// FunctionExpression is a function literal; unsupported by the dialect.
type FunctionExpression struct {
	pos
}

// AwaitExpression wraps an awaited expression.
type AwaitExpression struct {
	pos
	Argument Expr
}

// UnknownExpression stands in for an expression form the normalizer does not
// model. Kind carries the grammar node type for diagnostics.
type UnknownExpression struct {
	pos
	Kind string
}

func (*Literal) exprNode()                 {}
func (*Identifier) exprNode()              {}
func (*MemberExpression) exprNode()        {}
func (*BinaryExpression) exprNode()        {}
func (*LogicalExpression) exprNode()       {}
func (*UnaryExpression) exprNode()         {}
func (*UpdateExpression) exprNode()        {}
func (*ConditionalExpression) exprNode()   {}
func (*CallExpression) exprNode()          {}
func (*ArrayExpression) exprNode()         {}
func (*ObjectExpression) exprNode()        {}
func (*TemplateLiteral) exprNode()         {}
func (*AssignmentExpression) exprNode()    {}
func (*SequenceExpression) exprNode()      {}
func (*SpreadElement) exprNode()           {}
func (*ArrowFunctionExpression) exprNode() {}
func (*FunctionExpression) exprNode()      {}
func (*AwaitExpression) exprNode()         {}
func (*UnknownExpression) exprNode()       {}

// IsStorePath reports whether e is a member expression rooted at one of the
// store namespaces (Page, Store, Url, Parent, Steps, Arguments, Context).
func IsStorePath(e Expr) bool {
	return StoreRoot(e) != ""
}

// StoreRoot returns the store namespace a member expression is rooted at, or
// "" when the expression is not a store path.
func StoreRoot(e Expr) string {
	m, ok := e.(*MemberExpression)
	if !ok {
		return ""
	}
	switch obj := m.Object.(type) {
	case *Identifier:
		if isStoreRootName(obj.Name) {
			return obj.Name
		}
		return ""
	case *MemberExpression:
		return StoreRoot(obj)
	default:
		return ""
	}
}

func isStoreRootName(name string) bool {
	switch name {
	case "Page", "Store", "Url", "Parent", "Steps", "Arguments", "Context":
		return true
	}
	return false
}
