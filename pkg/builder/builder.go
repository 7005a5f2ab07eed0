// Package builder constructs IR statements and function definitions. It
// owns the per-conversion statement name and parameter-reference key
// generators; both are plain counters carried on a Builder instance so that
// concurrent conversions never share state and produced output is fully
// deterministic.
package builder

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/kaivue/flowscript/pkg/ir"
)

// NameGenerator produces unique camelCase statement names. Each prefix has
// its own counter, so the first SetStore becomes setStore1, the second
// setStore2, and so on.
type NameGenerator struct {
	counters map[string]int
}

// NewNameGenerator creates an empty generator.
func NewNameGenerator() *NameGenerator {
	return &NameGenerator{counters: make(map[string]int)}
}

// Generate returns the next unique name for prefix. The prefix is folded to
// camelCase first so names never contain separators.
func (g *NameGenerator) Generate(prefix string) string {
	if prefix == "" {
		prefix = "step"
	}
	prefix = CamelCase(prefix)
	g.counters[prefix]++
	return fmt.Sprintf("%s%d", prefix, g.counters[prefix])
}

// Reset clears all counters.
func (g *NameGenerator) Reset() {
	g.counters = make(map[string]int)
}

// CamelCase folds underscores, hyphens and spaces out of a name, upper-casing
// the letter that follows each separator and lower-casing the first letter.
func CamelCase(name string) string {
	var b strings.Builder
	capitalizeNext := false
	first := true
	for _, r := range name {
		switch {
		case r == '_' || r == '-' || r == ' ':
			capitalizeNext = true
		case capitalizeNext:
			b.WriteRune(unicode.ToUpper(r))
			capitalizeNext = false
			first = false
		case first:
			b.WriteRune(unicode.ToLower(r))
			first = false
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// KeyGenerator produces parameter-reference keys. Keys are a monotonic
// counter rather than random identifiers so that repeated conversions of the
// same source yield byte-identical output and collisions cannot occur.
type KeyGenerator struct {
	n int
}

// NewKeyGenerator creates a generator starting at ref1.
func NewKeyGenerator() *KeyGenerator {
	return &KeyGenerator{}
}

// Next returns the next unique key.
func (g *KeyGenerator) Next() string {
	g.n++
	return fmt.Sprintf("ref%d", g.n)
}

// Builder bundles the two generators and the statement constructors. Create
// one per conversion.
type Builder struct {
	Names *NameGenerator
	Keys  *KeyGenerator
}

// New creates a Builder with fresh generators.
func New() *Builder {
	return &Builder{Names: NewNameGenerator(), Keys: NewKeyGenerator()}
}

// ValueRef creates a VALUE reference with order 1.
func (b *Builder) ValueRef(value any) ir.ParameterReference {
	return ir.NewValueRef(b.Keys.Next(), 1, value)
}

// ExpressionRef creates an EXPRESSION reference with order 1.
func (b *Builder) ExpressionRef(expression string) ir.ParameterReference {
	return ir.NewExpressionRef(b.Keys.Next(), 1, expression)
}

// OrderedExpressionRef creates an EXPRESSION reference at an explicit order
// for variadic parameters.
func (b *Builder) OrderedExpressionRef(expression string, order int) ir.ParameterReference {
	return ir.NewExpressionRef(b.Keys.Next(), order, expression)
}

// OrderedValueRef creates a VALUE reference at an explicit order.
func (b *Builder) OrderedValueRef(value any, order int) ir.ParameterReference {
	return ir.NewValueRef(b.Keys.Next(), order, value)
}

// Param wraps a single reference into a parameter entry keyed by its key.
func Param(ref ir.ParameterReference) map[string]ir.ParameterReference {
	return map[string]ir.ParameterReference{ref.Key(): ref}
}

// AddToParam inserts a reference into an existing parameter entry.
func AddToParam(entry map[string]ir.ParameterReference, ref ir.ParameterReference) map[string]ir.ParameterReference {
	if entry == nil {
		entry = make(map[string]ir.ParameterReference)
	}
	entry[ref.Key()] = ref
	return entry
}

// Statement creates a generic IR statement. namePrefix seeds the statement
// name; name and namespace identify the target operation.
func (b *Builder) Statement(namePrefix, name, namespace string, params ir.ParameterMap, deps map[string]bool) *ir.Statement {
	if params == nil {
		params = make(ir.ParameterMap)
	}
	st := &ir.Statement{
		StatementName: b.Names.Generate(namePrefix),
		Name:          name,
		Namespace:     namespace,
		ParameterMap:  params,
	}
	if len(deps) > 0 {
		st.DependentStatements = deps
	}
	return st
}

// SetStoreValue creates a UIEngine.SetStore statement assigning a static
// value to a store path.
func (b *Builder) SetStoreValue(path string, value any) *ir.Statement {
	params := ir.ParameterMap{
		"path":  Param(b.ValueRef(path)),
		"value": Param(b.ValueRef(value)),
	}
	return b.Statement("setStore", "SetStore", "UIEngine", params, nil)
}

// SetStoreExpression creates a UIEngine.SetStore statement assigning the
// result of an expression to a store path.
func (b *Builder) SetStoreExpression(path, expression string) *ir.Statement {
	params := ir.ParameterMap{
		"path":  Param(b.ValueRef(path)),
		"value": Param(b.ExpressionRef(expression)),
	}
	return b.Statement("setStore", "SetStore", "UIEngine", params, nil)
}

// FetchOptions carries the optional parts of a FetchData statement.
type FetchOptions struct {
	URLIsExpression bool
	QueryParams     map[string]any
	PathParams      map[string]any
	Headers         map[string]any
}

// FetchData creates a UIEngine.FetchData statement (HTTP GET).
func (b *Builder) FetchData(url string, opts FetchOptions) *ir.Statement {
	params := make(ir.ParameterMap)
	if opts.URLIsExpression {
		params["url"] = Param(b.ExpressionRef(url))
	} else {
		params["url"] = Param(b.ValueRef(url))
	}
	if len(opts.QueryParams) > 0 {
		params["queryParams"] = Param(b.ValueRef(opts.QueryParams))
	}
	if len(opts.PathParams) > 0 {
		params["pathParams"] = Param(b.ValueRef(opts.PathParams))
	}
	if len(opts.Headers) > 0 {
		params["headers"] = Param(b.ValueRef(opts.Headers))
	}
	return b.Statement("fetchData", "FetchData", "UIEngine", params, nil)
}

// SendOptions carries the optional parts of a SendData statement.
type SendOptions struct {
	URLIsExpression     bool
	Payload             any
	PayloadIsExpression bool
	QueryParams         map[string]any
	PathParams          map[string]any
	Headers             map[string]any
}

// SendData creates a UIEngine.SendData statement (mutating HTTP method).
func (b *Builder) SendData(url, method string, opts SendOptions) *ir.Statement {
	params := make(ir.ParameterMap)
	if opts.URLIsExpression {
		params["url"] = Param(b.ExpressionRef(url))
	} else {
		params["url"] = Param(b.ValueRef(url))
	}
	params["method"] = Param(b.ValueRef(strings.ToUpper(method)))
	if opts.Payload != nil {
		if opts.PayloadIsExpression {
			params["payload"] = Param(b.ExpressionRef(fmt.Sprintf("%v", opts.Payload)))
		} else {
			params["payload"] = Param(b.ValueRef(opts.Payload))
		}
	}
	if len(opts.QueryParams) > 0 {
		params["queryParams"] = Param(b.ValueRef(opts.QueryParams))
	}
	if len(opts.PathParams) > 0 {
		params["pathParams"] = Param(b.ValueRef(opts.PathParams))
	}
	if len(opts.Headers) > 0 {
		params["headers"] = Param(b.ValueRef(opts.Headers))
	}
	return b.Statement("sendData", "SendData", "UIEngine", params, nil)
}

// Navigate creates a UIEngine.Navigate statement.
func (b *Builder) Navigate(linkPath string, pathIsExpression bool) *ir.Statement {
	params := make(ir.ParameterMap)
	if pathIsExpression {
		params["linkPath"] = Param(b.ExpressionRef(linkPath))
	} else {
		params["linkPath"] = Param(b.ValueRef(linkPath))
	}
	return b.Statement("navigate", "Navigate", "UIEngine", params, nil)
}

// Wait creates a System.Wait statement. millis is either a number (VALUE) or
// an expression string when millisIsExpression is set.
func (b *Builder) Wait(millis any, millisIsExpression bool) *ir.Statement {
	params := make(ir.ParameterMap)
	if millisIsExpression {
		params["millis"] = Param(b.ExpressionRef(fmt.Sprintf("%v", millis)))
	} else {
		params["millis"] = Param(b.ValueRef(millis))
	}
	return b.Statement("wait", "Wait", "System", params, nil)
}

// Message creates a UIEngine.Message statement. msgType is one of ERROR,
// WARNING, INFO, SUCCESS.
func (b *Builder) Message(msg any, msgIsExpression bool, msgType string) *ir.Statement {
	params := make(ir.ParameterMap)
	if msgIsExpression {
		params["msg"] = Param(b.ExpressionRef(fmt.Sprintf("%v", msg)))
	} else {
		params["msg"] = Param(b.ValueRef(msg))
	}
	params["type"] = Param(b.ValueRef(msgType))
	return b.Statement("message", "Message", "UIEngine", params, nil)
}

// If creates a System.If statement for a condition expression.
func (b *Builder) If(condition string) *ir.Statement {
	params := ir.ParameterMap{
		"condition": Param(b.ExpressionRef(condition)),
	}
	return b.Statement("if", "If", "System", params, nil)
}

// GenerateEvent creates a System.GenerateEvent statement carrying an output
// event whose payload is the given expression.
func (b *Builder) GenerateEvent(eventName, valueExpression string) *ir.Statement {
	params := ir.ParameterMap{
		"eventName": Param(b.ValueRef(eventName)),
		"results": Param(b.ValueRef(map[string]any{
			"name": "returnValue",
			"value": map[string]any{
				"isExpression": true,
				"value":        valueExpression,
			},
		})),
	}
	return b.Statement("generateEvent", "GenerateEvent", "System", params, nil)
}

// FunctionDefinition assembles steps into a complete definition, preserving
// the given statement order.
func FunctionDefinition(name, namespace string, steps []*ir.Statement) *ir.FunctionDefinition {
	fn := ir.NewFunctionDefinition(name, namespace)
	for _, st := range steps {
		fn.AddStep(st)
	}
	return fn
}
