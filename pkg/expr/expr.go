// Package expr renders parsed script expressions as flow-IR expression
// strings. The dialect has no local variables: every identifier must resolve
// to a store-path root, and anything else is reported as a diagnostic rather
// than silently passed through.
package expr

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kaivue/flowscript/pkg/ir"
	"github.com/kaivue/flowscript/pkg/jsparser"
)

// binaryOperators maps script operators onto IR operators. Equality folds to
// a single '=' because the runtime has no identity comparison.
var binaryOperators = map[string]string{
	"+":   "+",
	"-":   "-",
	"*":   "*",
	"/":   "/",
	"%":   "%",
	"==":  "=",
	"===": "=",
	"!=":  "!=",
	"!==": "!=",
	"<":   "<",
	">":   ">",
	"<=":  "<=",
	">=":  ">=",
	"&&":  "&&",
	"||":  "||",
	"&":   "&",
	"|":   "|",
	"^":   "^",
}

var unaryOperators = map[string]string{
	"!": "!",
	"-": "-",
	"+": "+",
	"~": "~",
}

// Converter renders one expression subtree at a time, accumulating warnings
// and errors. A Converter is cheap; create one per conversion so concurrent
// conversions never share diagnostic state.
type Converter struct {
	Warnings []string
	Errors   []string
}

// New creates a fresh Converter.
func New() *Converter {
	return &Converter{}
}

// Reset clears accumulated diagnostics.
func (c *Converter) Reset() {
	c.Warnings = nil
	c.Errors = nil
}

func (c *Converter) warnf(format string, args ...any) {
	c.Warnings = append(c.Warnings, fmt.Sprintf(format, args...))
}

func (c *Converter) errorf(format string, args ...any) {
	c.Errors = append(c.Errors, fmt.Sprintf(format, args...))
}

// Convert renders an expression node to IR expression text. Unsupported
// constructs produce a diagnostic and an empty string; they never panic and
// never emit text the runtime could misread.
func (c *Converter) Convert(e jsparser.Expr) string {
	if e == nil {
		return ""
	}

	switch node := e.(type) {
	case *jsparser.Literal:
		return c.literal(node)

	case *jsparser.Identifier:
		return c.identifier(node)

	case *jsparser.MemberExpression:
		obj := c.Convert(node.Object)
		if node.Computed {
			return fmt.Sprintf("%s[%s]", obj, c.Convert(node.Property))
		}
		name := ""
		if ident, ok := node.Property.(*jsparser.Identifier); ok {
			name = ident.Name
		} else {
			name = c.Convert(node.Property)
		}
		return fmt.Sprintf("%s.%s", obj, name)

	case *jsparser.BinaryExpression:
		return c.binary(node.Operator, node.Left, node.Right)

	case *jsparser.LogicalExpression:
		return c.binary(node.Operator, node.Left, node.Right)

	case *jsparser.UnaryExpression:
		op, ok := unaryOperators[node.Operator]
		if !ok {
			op = node.Operator
		}
		arg := c.Convert(node.Argument)
		if node.Prefix {
			return op + arg
		}
		return arg + op

	case *jsparser.ConditionalExpression:
		return fmt.Sprintf("(%s ? %s : %s)",
			c.Convert(node.Test), c.Convert(node.Consequent), c.Convert(node.Alternate))

	case *jsparser.CallExpression:
		args := make([]string, 0, len(node.Arguments))
		for _, arg := range node.Arguments {
			args = append(args, c.Convert(arg))
		}
		return fmt.Sprintf("%s(%s)", c.Convert(node.Callee), strings.Join(args, ", "))

	case *jsparser.ArrayExpression:
		elems := make([]string, 0, len(node.Elements))
		for _, el := range node.Elements {
			if el == nil {
				continue
			}
			elems = append(elems, c.Convert(el))
		}
		return "[" + strings.Join(elems, ", ") + "]"

	case *jsparser.ObjectExpression:
		return c.object(node)

	case *jsparser.TemplateLiteral:
		return c.template(node)

	case *jsparser.UpdateExpression:
		arg := c.Convert(node.Argument)
		switch node.Operator {
		case "++":
			return fmt.Sprintf("(%s + 1)", arg)
		case "--":
			return fmt.Sprintf("(%s - 1)", arg)
		}
		return arg

	case *jsparser.AssignmentExpression:
		// In expression position only the produced value matters.
		return c.Convert(node.Right)

	case *jsparser.SequenceExpression:
		if len(node.Expressions) == 0 {
			return ""
		}
		return c.Convert(node.Expressions[len(node.Expressions)-1])

	case *jsparser.SpreadElement:
		arg := c.Convert(node.Argument)
		c.warnf("spread element may not be fully supported: ...%s", arg)
		return "..." + arg

	case *jsparser.AwaitExpression:
		return c.Convert(node.Argument)

	case *jsparser.ArrowFunctionExpression:
		c.errorf("arrow functions are not supported in flow expressions")
		return ""

	case *jsparser.FunctionExpression:
		c.errorf("function expressions are not supported in flow expressions")
		return ""

	case *jsparser.UnknownExpression:
		c.warnf("unknown expression type: %s", node.Kind)
		return ""

	default:
		c.warnf("unknown expression type: %T", e)
		return ""
	}
}

func (c *Converter) literal(node *jsparser.Literal) string {
	switch v := node.Value.(type) {
	case nil:
		return "null"
	case bool:
		if v {
			return "true"
		}
		return "false"
	case string:
		return fmt.Sprintf("%q", v)
	case float64:
		return formatNumber(v)
	default:
		if node.Raw != "" {
			return node.Raw
		}
		return fmt.Sprintf("%v", v)
	}
}

func (c *Converter) identifier(node *jsparser.Identifier) string {
	name := node.Name

	if ir.IsStorePrefix(name) {
		return name
	}

	switch name {
	case "true", "false", "null":
		return name
	case "undefined":
		return "null"
	}

	c.warnf("unknown identifier %q - expected a store path (Page.*, Store.*, ...)", name)
	return name
}

func (c *Converter) binary(operator string, left, right jsparser.Expr) string {
	op, ok := binaryOperators[operator]
	if !ok {
		op = operator
	}
	// Always parenthesized so nesting never changes precedence.
	return fmt.Sprintf("(%s %s %s)", c.Convert(left), op, c.Convert(right))
}

func (c *Converter) object(node *jsparser.ObjectExpression) string {
	props := make([]string, 0, len(node.Properties))
	for _, prop := range node.Properties {
		if prop == nil {
			continue
		}
		if spread, ok := prop.Value.(*jsparser.SpreadElement); ok && prop.Key == nil {
			props = append(props, c.Convert(spread))
			continue
		}
		key := ""
		if ident, ok := prop.Key.(*jsparser.Identifier); ok && !prop.Computed {
			key = ident.Name
		} else if lit, ok := prop.Key.(*jsparser.Literal); ok {
			if s, ok := lit.Value.(string); ok {
				key = s
			} else {
				key = c.Convert(prop.Key)
			}
		} else {
			key = c.Convert(prop.Key)
		}
		props = append(props, fmt.Sprintf("%q: %s", key, c.Convert(prop.Value)))
	}
	return "{" + strings.Join(props, ", ") + "}"
}

// template renders a template literal as plain string concatenation, the
// only interpolation form the runtime evaluates.
func (c *Converter) template(node *jsparser.TemplateLiteral) string {
	var parts []string
	for i, quasi := range node.Quasis {
		if quasi != "" {
			parts = append(parts, fmt.Sprintf("%q", quasi))
		}
		if i < len(node.Expressions) {
			parts = append(parts, c.Convert(node.Expressions[i]))
		}
	}
	if len(parts) == 0 {
		return `""`
	}
	if len(parts) == 1 {
		return parts[0]
	}
	return strings.Join(parts, " + ")
}

// formatNumber renders a float the way script source would: integral values
// without a decimal point.
func formatNumber(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	b, _ := json.Marshal(v)
	return string(b)
}

// IsStorePathExpression reports whether a rendered expression is a bare
// store path (or a store root by itself).
func IsStorePathExpression(expression string) bool {
	for _, prefix := range ir.StorePrefixes {
		if expression == prefix || strings.HasPrefix(expression, prefix+".") {
			return true
		}
	}
	return false
}

// ExtractPath returns the store path when the expression is a simple path
// reference with no operators, and "" otherwise.
func ExtractPath(expression string) string {
	if !IsStorePathExpression(expression) {
		return ""
	}
	if strings.ContainsAny(expression, "+-*/()?:&|") {
		return ""
	}
	return expression
}
