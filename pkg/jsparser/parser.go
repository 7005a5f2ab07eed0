package jsparser

import (
	"fmt"
	"strconv"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// ParseError describes a fatal syntax error with its source location.
type ParseError struct {
	Message string
	Line    int
	Column  int
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at line %d, column %d: %s", e.Line, e.Column, e.Message)
}

// Parse parses script source into a normalized AST. It is a pure function:
// the same input always yields the same tree and nothing else is touched.
// A malformed source returns a *ParseError carrying line and column of the
// first offending token.
func Parse(source string) (*Program, error) {
	content := []byte(source)

	parser := sitter.NewParser()
	parser.SetLanguage(typescript.GetLanguage())
	tree := parser.Parse(nil, content)
	if tree == nil {
		return nil, &ParseError{Message: "parser produced no tree"}
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		if bad := firstErrorNode(root); bad != nil {
			return nil, &ParseError{
				Message: errorMessage(bad, content),
				Line:    int(bad.StartPoint().Row) + 1,
				Column:  int(bad.StartPoint().Column) + 1,
			}
		}
		return nil, &ParseError{Message: "malformed source", Line: 1, Column: 1}
	}

	n := &normalizer{src: content}
	return n.program(root), nil
}

// ParseExpression parses a single expression. The source is wrapped in
// parentheses so that object literals are not mistaken for blocks.
func ParseExpression(source string) (Expr, error) {
	prog, err := Parse("(" + source + ");")
	if err != nil {
		return nil, err
	}
	if len(prog.Body) == 0 {
		return nil, &ParseError{Message: "empty expression", Line: 1, Column: 1}
	}
	stmt, ok := prog.Body[0].(*ExpressionStatement)
	if !ok {
		return nil, &ParseError{Message: "source is not an expression", Line: 1, Column: 1}
	}
	return stmt.X, nil
}

func firstErrorNode(node *sitter.Node) *sitter.Node {
	if node.IsError() || node.IsMissing() {
		return node
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child == nil {
			continue
		}
		if found := firstErrorNode(child); found != nil {
			return found
		}
	}
	return nil
}

func errorMessage(node *sitter.Node, content []byte) string {
	if node.IsMissing() {
		return fmt.Sprintf("missing %s", node.Type())
	}
	text := nodeText(node, content)
	if len(text) > 20 {
		text = text[:20] + "..."
	}
	if text == "" {
		return "unexpected token"
	}
	return fmt.Sprintf("unexpected token %q", text)
}

func nodeText(node *sitter.Node, content []byte) string {
	if node == nil {
		return ""
	}
	start, end := node.StartByte(), node.EndByte()
	if start >= uint32(len(content)) || end > uint32(len(content)) {
		return ""
	}
	return string(content[start:end])
}

// normalizer converts tree-sitter CST nodes into the package's AST.
type normalizer struct {
	src []byte
}

func (n *normalizer) text(node *sitter.Node) string {
	return nodeText(node, n.src)
}

func (n *normalizer) position(node *sitter.Node) pos {
	return pos{P: Position{
		Line:   int(node.StartPoint().Row) + 1,
		Column: int(node.StartPoint().Column) + 1,
	}}
}

func (n *normalizer) program(root *sitter.Node) *Program {
	prog := &Program{pos: n.position(root)}
	for i := 0; i < int(root.NamedChildCount()); i++ {
		child := root.NamedChild(i)
		if child == nil || child.Type() == "comment" {
			continue
		}
		if stmt := n.statement(child); stmt != nil {
			prog.Body = append(prog.Body, stmt)
		}
	}
	return prog
}

func (n *normalizer) statement(node *sitter.Node) Stmt {
	switch node.Type() {
	case "expression_statement":
		inner := node.NamedChild(0)
		if inner == nil {
			return nil
		}
		return &ExpressionStatement{pos: n.position(node), X: n.expression(inner)}

	case "statement_block":
		block := &BlockStatement{pos: n.position(node)}
		for i := 0; i < int(node.NamedChildCount()); i++ {
			child := node.NamedChild(i)
			if child == nil || child.Type() == "comment" {
				continue
			}
			if stmt := n.statement(child); stmt != nil {
				block.Body = append(block.Body, stmt)
			}
		}
		return block

	case "if_statement":
		out := &IfStatement{pos: n.position(node)}
		if cond := node.ChildByFieldName("condition"); cond != nil {
			out.Test = n.expression(unwrapParens(cond))
		}
		if cons := node.ChildByFieldName("consequence"); cons != nil {
			out.Consequent = n.statement(cons)
		}
		if alt := node.ChildByFieldName("alternative"); alt != nil {
			// alternative is an else_clause wrapping the actual statement.
			if inner := alt.NamedChild(0); inner != nil {
				out.Alternate = n.statement(inner)
			}
		}
		return out

	case "for_statement":
		out := &ForStatement{pos: n.position(node)}
		if init := node.ChildByFieldName("initializer"); init != nil && init.Type() != "empty_statement" {
			out.Init = n.statement(init)
		}
		if cond := node.ChildByFieldName("condition"); cond != nil && cond.Type() != "empty_statement" {
			// The condition slot is itself an expression_statement.
			if inner := cond.NamedChild(0); inner != nil {
				out.Test = n.expression(inner)
			} else if cond.IsNamed() && cond.Type() != "expression_statement" {
				out.Test = n.expression(cond)
			}
		}
		if inc := node.ChildByFieldName("increment"); inc != nil {
			out.Update = n.expression(inc)
		}
		if body := node.ChildByFieldName("body"); body != nil {
			out.Body = n.statement(body)
		}
		return out

	case "for_in_statement":
		left := ""
		if l := node.ChildByFieldName("left"); l != nil {
			left = n.text(l)
		}
		var right Expr
		if r := node.ChildByFieldName("right"); r != nil {
			right = n.expression(r)
		}
		var body Stmt
		if b := node.ChildByFieldName("body"); b != nil {
			body = n.statement(b)
		}
		op := ""
		if o := node.ChildByFieldName("operator"); o != nil {
			op = n.text(o)
		}
		if op == "of" {
			return &ForOfStatement{pos: n.position(node), Left: left, Right: right, Body: body}
		}
		return &ForInStatement{pos: n.position(node), Left: left, Right: right, Body: body}

	case "while_statement":
		out := &WhileStatement{pos: n.position(node)}
		if cond := node.ChildByFieldName("condition"); cond != nil {
			out.Test = n.expression(unwrapParens(cond))
		}
		if body := node.ChildByFieldName("body"); body != nil {
			out.Body = n.statement(body)
		}
		return out

	case "lexical_declaration", "variable_declaration":
		out := &VariableDeclaration{pos: n.position(node), Kind: n.declarationKind(node)}
		for i := 0; i < int(node.NamedChildCount()); i++ {
			child := node.NamedChild(i)
			if child == nil || child.Type() != "variable_declarator" {
				continue
			}
			decl := &VariableDeclarator{pos: n.position(child)}
			if name := child.ChildByFieldName("name"); name != nil {
				decl.Name = n.text(name)
			}
			if value := child.ChildByFieldName("value"); value != nil {
				decl.Init = n.expression(value)
			}
			out.Declarations = append(out.Declarations, decl)
		}
		return out

	case "return_statement":
		out := &ReturnStatement{pos: n.position(node)}
		if arg := node.NamedChild(0); arg != nil && arg.Type() != "comment" {
			out.Argument = n.expression(arg)
		}
		return out

	case "empty_statement":
		return nil

	default:
		return &UnknownStatement{pos: n.position(node), Kind: node.Type()}
	}
}

func (n *normalizer) declarationKind(node *sitter.Node) string {
	if node.ChildCount() == 0 {
		return "var"
	}
	return n.text(node.Child(0))
}

func (n *normalizer) expression(node *sitter.Node) Expr {
	switch node.Type() {
	case "parenthesized_expression":
		if inner := node.NamedChild(0); inner != nil {
			return n.expression(inner)
		}
		return &UnknownExpression{pos: n.position(node), Kind: node.Type()}

	case "number":
		raw := n.text(node)
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return &Literal{pos: n.position(node), Value: raw, Raw: raw}
		}
		return &Literal{pos: n.position(node), Value: value, Raw: raw}

	case "string":
		raw := n.text(node)
		return &Literal{pos: n.position(node), Value: unquote(raw), Raw: raw}

	case "true":
		return &Literal{pos: n.position(node), Value: true, Raw: "true"}

	case "false":
		return &Literal{pos: n.position(node), Value: false, Raw: "false"}

	case "null":
		return &Literal{pos: n.position(node), Value: nil, Raw: "null"}

	case "undefined":
		return &Identifier{pos: n.position(node), Name: "undefined"}

	case "identifier", "property_identifier", "shorthand_property_identifier":
		return &Identifier{pos: n.position(node), Name: n.text(node)}

	case "member_expression":
		out := &MemberExpression{pos: n.position(node)}
		if obj := node.ChildByFieldName("object"); obj != nil {
			out.Object = n.expression(obj)
		}
		if prop := node.ChildByFieldName("property"); prop != nil {
			out.Property = n.expression(prop)
		}
		return out

	case "subscript_expression":
		out := &MemberExpression{pos: n.position(node), Computed: true}
		if obj := node.ChildByFieldName("object"); obj != nil {
			out.Object = n.expression(obj)
		}
		if idx := node.ChildByFieldName("index"); idx != nil {
			out.Property = n.expression(idx)
		}
		return out

	case "binary_expression":
		op := ""
		if o := node.ChildByFieldName("operator"); o != nil {
			op = n.text(o)
		}
		var left, right Expr
		if l := node.ChildByFieldName("left"); l != nil {
			left = n.expression(l)
		}
		if r := node.ChildByFieldName("right"); r != nil {
			right = n.expression(r)
		}
		// tree-sitter folds logical operators into binary_expression;
		// keep the ESTree split so consumers can treat them apart.
		if op == "&&" || op == "||" || op == "??" {
			return &LogicalExpression{pos: n.position(node), Operator: op, Left: left, Right: right}
		}
		return &BinaryExpression{pos: n.position(node), Operator: op, Left: left, Right: right}

	case "unary_expression":
		out := &UnaryExpression{pos: n.position(node), Prefix: true}
		if o := node.ChildByFieldName("operator"); o != nil {
			out.Operator = n.text(o)
		}
		if arg := node.ChildByFieldName("argument"); arg != nil {
			out.Argument = n.expression(arg)
		}
		return out

	case "update_expression":
		out := &UpdateExpression{pos: n.position(node)}
		op := node.ChildByFieldName("operator")
		arg := node.ChildByFieldName("argument")
		if op != nil {
			out.Operator = n.text(op)
		}
		if arg != nil {
			out.Argument = n.expression(arg)
		}
		if op != nil && arg != nil {
			out.Prefix = op.StartByte() < arg.StartByte()
		}
		return out

	case "ternary_expression":
		out := &ConditionalExpression{pos: n.position(node)}
		if c := node.ChildByFieldName("condition"); c != nil {
			out.Test = n.expression(c)
		}
		if c := node.ChildByFieldName("consequence"); c != nil {
			out.Consequent = n.expression(c)
		}
		if a := node.ChildByFieldName("alternative"); a != nil {
			out.Alternate = n.expression(a)
		}
		return out

	case "assignment_expression":
		out := &AssignmentExpression{pos: n.position(node), Operator: "="}
		if l := node.ChildByFieldName("left"); l != nil {
			out.Left = n.expression(l)
		}
		if r := node.ChildByFieldName("right"); r != nil {
			out.Right = n.expression(r)
		}
		return out

	case "augmented_assignment_expression":
		out := &AssignmentExpression{pos: n.position(node)}
		if o := node.ChildByFieldName("operator"); o != nil {
			out.Operator = n.text(o)
		}
		if l := node.ChildByFieldName("left"); l != nil {
			out.Left = n.expression(l)
		}
		if r := node.ChildByFieldName("right"); r != nil {
			out.Right = n.expression(r)
		}
		return out

	case "call_expression":
		args := node.ChildByFieldName("arguments")
		if args != nil && args.Type() == "template_string" {
			// Tagged template; the dialect has no use for it.
			return &UnknownExpression{pos: n.position(node), Kind: "TaggedTemplateExpression"}
		}
		out := &CallExpression{pos: n.position(node)}
		if fn := node.ChildByFieldName("function"); fn != nil {
			out.Callee = n.expression(fn)
		}
		if args != nil {
			for i := 0; i < int(args.NamedChildCount()); i++ {
				child := args.NamedChild(i)
				if child == nil || child.Type() == "comment" {
					continue
				}
				out.Arguments = append(out.Arguments, n.expression(child))
			}
		}
		return out

	case "array":
		out := &ArrayExpression{pos: n.position(node)}
		for i := 0; i < int(node.NamedChildCount()); i++ {
			child := node.NamedChild(i)
			if child == nil || child.Type() == "comment" {
				continue
			}
			out.Elements = append(out.Elements, n.expression(child))
		}
		return out

	case "object":
		out := &ObjectExpression{pos: n.position(node)}
		for i := 0; i < int(node.NamedChildCount()); i++ {
			child := node.NamedChild(i)
			if child == nil {
				continue
			}
			switch child.Type() {
			case "pair":
				prop := &Property{pos: n.position(child)}
				if key := child.ChildByFieldName("key"); key != nil {
					if key.Type() == "computed_property_name" {
						prop.Computed = true
						if inner := key.NamedChild(0); inner != nil {
							prop.Key = n.expression(inner)
						}
					} else {
						prop.Key = n.expression(key)
					}
				}
				if value := child.ChildByFieldName("value"); value != nil {
					prop.Value = n.expression(value)
				}
				out.Properties = append(out.Properties, prop)
			case "shorthand_property_identifier":
				ident := &Identifier{pos: n.position(child), Name: n.text(child)}
				out.Properties = append(out.Properties, &Property{
					pos: n.position(child), Key: ident, Value: ident, Shorthand: true,
				})
			case "spread_element":
				// Spread in object literals is best-effort; surface it as a
				// property with a spread value so the converter can warn.
				spread := &SpreadElement{pos: n.position(child)}
				if inner := child.NamedChild(0); inner != nil {
					spread.Argument = n.expression(inner)
				}
				out.Properties = append(out.Properties, &Property{pos: n.position(child), Value: spread})
			}
		}
		return out

	case "template_string":
		return n.templateLiteral(node)

	case "sequence_expression":
		out := &SequenceExpression{pos: n.position(node)}
		n.flattenSequence(node, out)
		return out

	case "spread_element":
		out := &SpreadElement{pos: n.position(node)}
		if inner := node.NamedChild(0); inner != nil {
			out.Argument = n.expression(inner)
		}
		return out

	case "arrow_function":
		out := &ArrowFunctionExpression{pos: n.position(node)}
		if p := node.ChildByFieldName("parameter"); p != nil {
			out.Params = append(out.Params, n.text(p))
		} else if ps := node.ChildByFieldName("parameters"); ps != nil {
			for i := 0; i < int(ps.NamedChildCount()); i++ {
				child := ps.NamedChild(i)
				if child != nil && child.Type() != "comment" {
					out.Params = append(out.Params, n.text(child))
				}
			}
		}
		if body := node.ChildByFieldName("body"); body != nil {
			if body.Type() == "statement_block" {
				out.Body = n.statement(body)
			} else {
				out.Body = n.expression(body)
			}
		}
		return out

	case "function_expression", "function", "generator_function":
		return &FunctionExpression{pos: n.position(node)}

	case "await_expression":
		out := &AwaitExpression{pos: n.position(node)}
		if inner := node.NamedChild(0); inner != nil {
			out.Argument = n.expression(inner)
		}
		return out

	default:
		return &UnknownExpression{pos: n.position(node), Kind: node.Type()}
	}
}

// flattenSequence collapses nested sequence_expression nodes into one list,
// preserving source order.
func (n *normalizer) flattenSequence(node *sitter.Node, out *SequenceExpression) {
	left := node.ChildByFieldName("left")
	right := node.ChildByFieldName("right")
	if left == nil && right == nil {
		for i := 0; i < int(node.NamedChildCount()); i++ {
			if child := node.NamedChild(i); child != nil && child.Type() != "comment" {
				out.Expressions = append(out.Expressions, n.expression(child))
			}
		}
		return
	}
	if left != nil {
		if left.Type() == "sequence_expression" {
			n.flattenSequence(left, out)
		} else {
			out.Expressions = append(out.Expressions, n.expression(left))
		}
	}
	if right != nil {
		if right.Type() == "sequence_expression" {
			n.flattenSequence(right, out)
		} else {
			out.Expressions = append(out.Expressions, n.expression(right))
		}
	}
}

// templateLiteral splits a backtick string into quasi segments and embedded
// expressions so that Quasis always has len(Expressions)+1 entries.
func (n *normalizer) templateLiteral(node *sitter.Node) *TemplateLiteral {
	out := &TemplateLiteral{pos: n.position(node)}
	current := strings.Builder{}
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child == nil {
			continue
		}
		switch child.Type() {
		case "string_fragment":
			current.WriteString(n.text(child))
		case "escape_sequence":
			current.WriteString(unescape(n.text(child)))
		case "template_substitution":
			out.Quasis = append(out.Quasis, current.String())
			current.Reset()
			if inner := child.NamedChild(0); inner != nil {
				out.Expressions = append(out.Expressions, n.expression(inner))
			} else {
				out.Expressions = append(out.Expressions, &UnknownExpression{pos: n.position(child), Kind: "template_substitution"})
			}
		}
	}
	out.Quasis = append(out.Quasis, current.String())
	return out
}

func unwrapParens(node *sitter.Node) *sitter.Node {
	for node != nil && node.Type() == "parenthesized_expression" {
		inner := node.NamedChild(0)
		if inner == nil {
			return node
		}
		node = inner
	}
	return node
}

// unquote strips the surrounding quotes from a string literal and resolves
// the common escape sequences.
func unquote(raw string) string {
	if len(raw) >= 2 {
		first := raw[0]
		if (first == '"' || first == '\'' || first == '`') && raw[len(raw)-1] == first {
			raw = raw[1 : len(raw)-1]
		}
	}
	if !strings.Contains(raw, "\\") {
		return raw
	}
	var b strings.Builder
	for i := 0; i < len(raw); i++ {
		if raw[i] != '\\' || i+1 >= len(raw) {
			b.WriteByte(raw[i])
			continue
		}
		i++
		b.WriteString(unescape("\\" + string(raw[i])))
	}
	return b.String()
}

func unescape(seq string) string {
	if len(seq) < 2 || seq[0] != '\\' {
		return seq
	}
	switch seq[1] {
	case 'n':
		return "\n"
	case 't':
		return "\t"
	case 'r':
		return "\r"
	case '\\':
		return "\\"
	case '\'':
		return "'"
	case '"':
		return "\""
	case '`':
		return "`"
	default:
		return seq[1:]
	}
}
