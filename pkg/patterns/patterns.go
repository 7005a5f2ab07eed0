// Package patterns maps script AST statements onto flow-IR statements. Each
// matcher recognizes one shape of the restricted dialect (a store assignment,
// a known call, a branch) and emits the corresponding instruction, keeping
// diagnostics three-tiered: unmatched shapes warn, invalid shapes error.
package patterns

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/kaivue/flowscript/pkg/builder"
	"github.com/kaivue/flowscript/pkg/expr"
	"github.com/kaivue/flowscript/pkg/ir"
	"github.com/kaivue/flowscript/pkg/jsparser"
)

// Result is the outcome of matching one statement node. Statements is in
// source order; Matched is false when the node had no flow equivalent.
type Result struct {
	Matched    bool
	Statements []*ir.Statement
	Warnings   []string
	Errors     []string
}

func unmatched(warnings ...string) Result {
	return Result{Warnings: warnings}
}

func failed(errors ...string) Result {
	return Result{Errors: errors}
}

func matched(statements ...*ir.Statement) Result {
	return Result{Matched: true, Statements: statements}
}

// branchDepPattern recognizes the dependency-annotation sugar
// `if (Steps.<name>.output)` / `if (Steps.<name>.error)`. Only these two
// branch labels count; any other condition is a real conditional.
var branchDepPattern = regexp.MustCompile(`^Steps\.(\w+)\.(output|error)$`)

// Matcher converts statement nodes to IR statements. It carries the builder
// whose generators give names and keys, so one Matcher serves exactly one
// conversion.
type Matcher struct {
	b    *builder.Builder
	expr *expr.Converter
}

// New creates a Matcher around a fresh builder.
func New(b *builder.Builder) *Matcher {
	return &Matcher{b: b, expr: expr.New()}
}

// MatchStatement converts a single AST statement. Unhandled statement kinds
// come back unmatched with a warning naming the kind.
func (m *Matcher) MatchStatement(node jsparser.Stmt) Result {
	switch st := node.(type) {
	case *jsparser.ExpressionStatement:
		return m.matchExpression(st.X)
	case *jsparser.IfStatement:
		return m.matchIf(st)
	case *jsparser.ForStatement:
		return m.matchFor(st)
	case *jsparser.ForOfStatement:
		return m.matchIteration(st.Left, st.Right, st.Body)
	case *jsparser.ForInStatement:
		return m.matchIteration(st.Left, st.Right, st.Body)
	case *jsparser.WhileStatement:
		return unmatched("while loops are not supported - use a for loop with explicit bounds")
	case *jsparser.VariableDeclaration:
		return m.matchVariableDeclaration(st)
	case *jsparser.ReturnStatement:
		return m.matchReturn(st)
	case *jsparser.BlockStatement:
		return m.matchBlock(st)
	case *jsparser.UnknownStatement:
		return unmatched(fmt.Sprintf("unhandled statement type: %s", st.Kind))
	default:
		return unmatched(fmt.Sprintf("unhandled statement type: %T", node))
	}
}

func (m *Matcher) matchExpression(node jsparser.Expr) Result {
	switch e := node.(type) {
	case *jsparser.AssignmentExpression:
		return m.matchAssignment(e)
	case *jsparser.CallExpression:
		return m.matchCall(e)
	case *jsparser.AwaitExpression:
		if call, ok := e.Argument.(*jsparser.CallExpression); ok {
			return m.matchCall(call)
		}
		return unmatched()
	case *jsparser.UpdateExpression:
		return m.matchUpdate(e)
	default:
		return unmatched()
	}
}

// matchAssignment handles `Page.x = value` and its compound forms. The left
// side must be a store path; assignments to anything else warn, since the
// dialect has no local variables.
func (m *Matcher) matchAssignment(node *jsparser.AssignmentExpression) Result {
	if !jsparser.IsStorePath(node.Left) {
		return unmatched("assignment to non-store path - local variables are not supported")
	}

	path := m.convert(node.Left)

	var st *ir.Statement
	switch {
	case node.Operator != "=":
		// Page.x += e rewrites to Page.x = (Page.x + e).
		op := strings.TrimSuffix(node.Operator, "=")
		value := m.convert(node.Right)
		st = m.b.SetStoreExpression(path, fmt.Sprintf("(%s %s %s)", path, op, value))
	default:
		if lit, ok := node.Right.(*jsparser.Literal); ok {
			st = m.b.SetStoreValue(path, lit.Value)
		} else {
			st = m.b.SetStoreExpression(path, m.convert(node.Right))
		}
	}
	return m.withDiagnostics(matched(st))
}

// matchUpdate handles `Page.counter++` / `--`, again only on store paths.
func (m *Matcher) matchUpdate(node *jsparser.UpdateExpression) Result {
	if !jsparser.IsStorePath(node.Argument) {
		return unmatched("update expression on non-store path")
	}

	path := m.convert(node.Argument)
	var expression string
	switch node.Operator {
	case "++":
		expression = fmt.Sprintf("(%s + 1)", path)
	case "--":
		expression = fmt.Sprintf("(%s - 1)", path)
	default:
		return unmatched()
	}
	return m.withDiagnostics(matched(m.b.SetStoreExpression(path, expression)))
}

func (m *Matcher) matchCall(node *jsparser.CallExpression) Result {
	switch callee := node.Callee.(type) {
	case *jsparser.Identifier:
		return m.matchFunctionCall(callee.Name, node.Arguments)
	case *jsparser.MemberExpression:
		return m.matchMemberCall(callee, node.Arguments)
	default:
		return unmatched()
	}
}

func (m *Matcher) matchFunctionCall(name string, args []jsparser.Expr) Result {
	switch name {
	case "fetch":
		return m.matchFetch(args)
	case "navigate":
		return m.matchNavigate(args)
	case "wait", "delay", "sleep":
		return m.matchWait(args)
	case "alert", "showMessage":
		return m.matchMessage(args)
	case "setStore":
		return m.matchSetStoreCall(args)
	}
	return m.matchGenericCall(name, args)
}

func (m *Matcher) matchMemberCall(callee *jsparser.MemberExpression, args []jsparser.Expr) Result {
	method := ""
	if ident, ok := callee.Property.(*jsparser.Identifier); ok {
		method = ident.Name
	}

	objName := ""
	if ident, ok := callee.Object.(*jsparser.Identifier); ok {
		objName = ident.Name
	}

	if objName == "router" && (method == "push" || method == "replace") {
		return m.matchNavigate(args)
	}

	if _, nested := callee.Object.(*jsparser.MemberExpression); objName == "window" || nested {
		objStr := m.convert(callee.Object)
		if strings.Contains(objStr, "location") && (method == "assign" || method == "replace") {
			return m.matchNavigate(args)
		}
	}

	if objName == "console" && method == "log" {
		return m.matchPrint(args)
	}

	if jsparser.IsStorePath(callee.Object) {
		switch method {
		case "push":
			return m.matchArrayPush(callee.Object, args)
		case "forEach":
			return m.matchForEach(callee.Object)
		case "map":
			return unmatched("array.map() is not directly supported - use a forEach loop instead")
		case "filter":
			return m.matchArrayFilter(callee.Object, args)
		}
	}

	return unmatched()
}

func (m *Matcher) matchFetch(args []jsparser.Expr) Result {
	if len(args) == 0 {
		return failed("fetch() requires at least one argument (url)")
	}

	url, urlIsExpression := m.literalOrExpression(args[0])

	method := "GET"
	var payload any
	payloadIsExpression := false
	var headers map[string]any

	if len(args) > 1 {
		if options, ok := args[1].(*jsparser.ObjectExpression); ok {
			for _, prop := range options.Properties {
				key := propertyKey(prop)
				switch key {
				case "method":
					if lit, ok := prop.Value.(*jsparser.Literal); ok {
						if s, ok := lit.Value.(string); ok {
							method = strings.ToUpper(s)
						}
					}
				case "body":
					payload = m.convert(prop.Value)
					payloadIsExpression = true
				case "headers":
					headers = m.extractObjectLiteral(prop.Value)
				}
			}
		}
	}

	var st *ir.Statement
	if method == "GET" {
		st = m.b.FetchData(url, builder.FetchOptions{
			URLIsExpression: urlIsExpression,
			Headers:         headers,
		})
	} else {
		st = m.b.SendData(url, method, builder.SendOptions{
			URLIsExpression:     urlIsExpression,
			Payload:             payload,
			PayloadIsExpression: payloadIsExpression,
			Headers:             headers,
		})
	}
	return m.withDiagnostics(matched(st))
}

func (m *Matcher) matchNavigate(args []jsparser.Expr) Result {
	if len(args) == 0 {
		return failed("navigate() requires a path argument")
	}
	path, isExpression := m.literalOrExpression(args[0])
	return m.withDiagnostics(matched(m.b.Navigate(path, isExpression)))
}

func (m *Matcher) matchWait(args []jsparser.Expr) Result {
	if len(args) == 0 {
		return failed("wait() requires a milliseconds argument")
	}
	if lit, ok := args[0].(*jsparser.Literal); ok {
		return m.withDiagnostics(matched(m.b.Wait(lit.Value, false)))
	}
	return m.withDiagnostics(matched(m.b.Wait(m.convert(args[0]), true)))
}

func (m *Matcher) matchMessage(args []jsparser.Expr) Result {
	if len(args) == 0 {
		return failed("message function requires a message argument")
	}

	msgType := "INFO"
	if len(args) > 1 {
		if lit, ok := args[1].(*jsparser.Literal); ok {
			if s, ok := lit.Value.(string); ok {
				msgType = strings.ToUpper(s)
			}
		}
	}

	if lit, ok := args[0].(*jsparser.Literal); ok {
		return m.withDiagnostics(matched(m.b.Message(lit.Value, false, msgType)))
	}
	return m.withDiagnostics(matched(m.b.Message(m.convert(args[0]), true, msgType)))
}

func (m *Matcher) matchSetStoreCall(args []jsparser.Expr) Result {
	if len(args) < 2 {
		return failed("setStore() requires path and value arguments")
	}

	var path string
	if lit, ok := args[0].(*jsparser.Literal); ok {
		if s, ok := lit.Value.(string); ok {
			path = s
		} else {
			path = m.convert(args[0])
		}
	} else {
		path = m.convert(args[0])
	}

	value := m.convert(args[1])
	return m.withDiagnostics(matched(m.b.SetStoreExpression(path, value)))
}

// matchPrint converts console.log to System.Print; each argument becomes one
// ordered reference under the variadic "values" parameter.
func (m *Matcher) matchPrint(args []jsparser.Expr) Result {
	values := make(map[string]ir.ParameterReference)
	for i, arg := range args {
		ref := m.b.OrderedExpressionRef(m.convert(arg), i+1)
		values[ref.Key()] = ref
	}
	params := ir.ParameterMap{"values": values}
	st := m.b.Statement("print", "Print", "System", params, nil)
	return m.withDiagnostics(matched(st))
}

// matchIf handles conditionals. The shape `if (Steps.x.output) { ... }` with
// no else is not a real conditional: it annotates the body's statements with
// a dependency on that branch. Anything else becomes a System.If statement,
// with branch statements depending on Steps.<if>.true / .false.
func (m *Matcher) matchIf(node *jsparser.IfStatement) Result {
	condition := m.convert(node.Test)

	if match := branchDepPattern.FindStringSubmatch(condition); match != nil && node.Alternate == nil {
		depPath := fmt.Sprintf("Steps.%s.%s", match[1], match[2])
		body := m.MatchStatement(node.Consequent)
		if !body.Matched {
			return Result{Warnings: body.Warnings, Errors: body.Errors}
		}
		for _, st := range body.Statements {
			st.AddDependency(depPath)
		}
		return body
	}

	ifSt := m.b.If(condition)
	result := m.withDiagnostics(matched(ifSt))

	trueBody := m.MatchStatement(node.Consequent)
	result.Warnings = append(result.Warnings, trueBody.Warnings...)
	result.Errors = append(result.Errors, trueBody.Errors...)
	if trueBody.Matched {
		for _, st := range trueBody.Statements {
			st.AddDependency(fmt.Sprintf("Steps.%s.true", ifSt.StatementName))
		}
		result.Statements = append(result.Statements, trueBody.Statements...)
	}

	if node.Alternate != nil {
		falseBody := m.MatchStatement(node.Alternate)
		result.Warnings = append(result.Warnings, falseBody.Warnings...)
		result.Errors = append(result.Errors, falseBody.Errors...)
		if falseBody.Matched {
			for _, st := range falseBody.Statements {
				st.AddDependency(fmt.Sprintf("Steps.%s.false", ifSt.StatementName))
			}
			result.Statements = append(result.Statements, falseBody.Statements...)
		}
	}

	return result
}

func (m *Matcher) matchBlock(node *jsparser.BlockStatement) Result {
	var result Result
	for _, st := range node.Body {
		r := m.MatchStatement(st)
		if r.Matched {
			result.Statements = append(result.Statements, r.Statements...)
		}
		result.Warnings = append(result.Warnings, r.Warnings...)
		result.Errors = append(result.Errors, r.Errors...)
	}
	result.Matched = len(result.Statements) > 0
	return result
}

// matchFor handles the classic three-clause loop. Only bounded counting
// loops convert, so the test must supply an upper bound via < or <=.
func (m *Matcher) matchFor(node *jsparser.ForStatement) Result {
	var toExpr string
	if test, ok := node.Test.(*jsparser.BinaryExpression); ok {
		if test.Operator == "<" || test.Operator == "<=" {
			toExpr = m.convert(test.Right)
		}
	}
	if toExpr == "" {
		return unmatched("could not determine loop bounds")
	}

	params := ir.ParameterMap{
		"from": builder.Param(m.b.ValueRef(0)),
		"to":   builder.Param(m.b.ExpressionRef(toExpr)),
	}
	if decl, ok := node.Init.(*jsparser.VariableDeclaration); ok && len(decl.Declarations) > 0 {
		params["counterKey"] = builder.Param(m.b.ValueRef(decl.Declarations[0].Name))
	}
	loop := m.b.Statement("rangeLoop", "RangeLoop", "System.Loop", params, nil)

	result := m.withDiagnostics(matched(loop))
	m.appendIterationBody(&result, loop.StatementName, node.Body)
	return result
}

// matchIteration handles for-of and for-in, both becoming ForEachLoop over
// the iterated expression. left is the raw loop binding, e.g. "const item".
func (m *Matcher) matchIteration(left string, right jsparser.Expr, body jsparser.Stmt) Result {
	source := m.convert(right)
	params := ir.ParameterMap{
		"source": builder.Param(m.b.ExpressionRef(source)),
	}
	if key := bindingName(left); key != "" {
		params["iteratorKey"] = builder.Param(m.b.ValueRef(key))
	}
	loop := m.b.Statement("forEachLoop", "ForEachLoop", "System.Loop", params, nil)

	result := m.withDiagnostics(matched(loop))
	m.appendIterationBody(&result, loop.StatementName, body)
	return result
}

// bindingName strips the declaration keyword from a loop binding like
// "const item", leaving the bound identifier.
func bindingName(left string) string {
	fields := strings.Fields(left)
	if len(fields) == 0 {
		return ""
	}
	return fields[len(fields)-1]
}

func (m *Matcher) appendIterationBody(result *Result, loopName string, body jsparser.Stmt) {
	bodyResult := m.MatchStatement(body)
	result.Warnings = append(result.Warnings, bodyResult.Warnings...)
	result.Errors = append(result.Errors, bodyResult.Errors...)
	if !bodyResult.Matched {
		return
	}
	for _, st := range bodyResult.Statements {
		st.AddDependency(fmt.Sprintf("Steps.%s.iteration", loopName))
	}
	result.Statements = append(result.Statements, bodyResult.Statements...)
}

// matchVariableDeclaration supports declarations only when the initializer is
// itself a convertible call; the declared name is otherwise a local variable,
// which the dialect does not have.
func (m *Matcher) matchVariableDeclaration(node *jsparser.VariableDeclaration) Result {
	var result Result
	for _, decl := range node.Declarations {
		if decl.Init == nil {
			continue
		}
		switch decl.Init.(type) {
		case *jsparser.CallExpression, *jsparser.AwaitExpression:
			r := m.matchExpression(decl.Init)
			if r.Matched {
				result.Statements = append(result.Statements, r.Statements...)
			}
			result.Warnings = append(result.Warnings, r.Warnings...)
			result.Errors = append(result.Errors, r.Errors...)
		default:
			result.Warnings = append(result.Warnings, fmt.Sprintf(
				"variable declaration %q - local variables are not supported; use Page.%s or Store.%s instead",
				decl.Name, decl.Name, decl.Name))
		}
	}
	result.Matched = len(result.Statements) > 0
	return result
}

func (m *Matcher) matchReturn(node *jsparser.ReturnStatement) Result {
	if node.Argument == nil {
		return unmatched()
	}
	value := m.convert(node.Argument)
	return m.withDiagnostics(matched(m.b.GenerateEvent("output", value)))
}

func (m *Matcher) matchArrayPush(array jsparser.Expr, args []jsparser.Expr) Result {
	source := m.convert(array)

	params := ir.ParameterMap{
		"source": builder.Param(m.b.ExpressionRef(source)),
	}
	elements := make(map[string]ir.ParameterReference)
	for i, arg := range args {
		ref := m.b.OrderedExpressionRef(m.convert(arg), i+1)
		elements[ref.Key()] = ref
	}
	if len(elements) > 0 {
		params["element"] = elements
	}

	st := m.b.Statement("insertLast", "InsertLast", "System.Array", params, nil)
	return m.withDiagnostics(matched(st))
}

func (m *Matcher) matchForEach(array jsparser.Expr) Result {
	source := m.convert(array)
	params := ir.ParameterMap{
		"source": builder.Param(m.b.ExpressionRef(source)),
	}
	loop := m.b.Statement("forEachLoop", "ForEachLoop", "System.Loop", params, nil)
	result := m.withDiagnostics(matched(loop))
	result.Warnings = append(result.Warnings, "forEach callback body may not be fully converted")
	return result
}

func (m *Matcher) matchArrayFilter(array jsparser.Expr, args []jsparser.Expr) Result {
	if len(args) == 0 {
		return unmatched("array.filter() requires an arrow function callback")
	}
	callback, ok := args[0].(*jsparser.ArrowFunctionExpression)
	if !ok {
		return unmatched("array.filter() requires an arrow function callback")
	}
	condExpr, ok := callback.Body.(jsparser.Expr)
	if !ok {
		return unmatched("array.filter() callback must be a single expression")
	}

	source := m.convert(array)
	condition := m.convert(condExpr)
	params := ir.ParameterMap{
		"source":    builder.Param(m.b.ExpressionRef(source)),
		"condition": builder.Param(m.b.ExpressionRef(condition)),
	}
	st := m.b.Statement("filter", "Filter", "System.Array", params, nil)
	result := m.withDiagnostics(matched(st))
	result.Warnings = append(result.Warnings, "filter condition may need adjustment for flow expression syntax")
	return result
}

// uiEngineFunctions are names that resolve to the UIEngine namespace when
// called bare.
var uiEngineFunctions = map[string]bool{
	"SetStore": true, "GetStoreData": true, "Navigate": true, "NavigateBack": true,
	"FetchData": true, "SendData": true, "DeleteData": true, "Message": true,
	"Login": true, "Logout": true, "Refresh": true, "ScrollTo": true, "ScrollToGrid": true,
}

// matchGenericCall handles calls that match no catalog pattern: each argument
// becomes its own argN expression parameter, and UIEngine built-ins get their
// namespace filled in.
func (m *Matcher) matchGenericCall(name string, args []jsparser.Expr) Result {
	params := make(ir.ParameterMap)
	for i, arg := range args {
		ref := m.b.OrderedExpressionRef(m.convert(arg), i+1)
		params[fmt.Sprintf("arg%d", i)] = builder.Param(ref)
	}

	namespace := ""
	if uiEngineFunctions[name] {
		namespace = "UIEngine"
	}

	st := m.b.Statement(strings.ToLower(name), name, namespace, params, nil)
	return m.withDiagnostics(matched(st))
}

// convert renders an expression to IR text through the shared expression
// converter.
func (m *Matcher) convert(e jsparser.Expr) string {
	return m.expr.Convert(e)
}

// withDiagnostics drains the expression converter's accumulated diagnostics
// into a result, so call-site conversions surface their warnings exactly once.
func (m *Matcher) withDiagnostics(r Result) Result {
	r.Warnings = append(r.Warnings, m.expr.Warnings...)
	r.Errors = append(r.Errors, m.expr.Errors...)
	m.expr.Reset()
	return r
}

// literalOrExpression renders an argument either as the literal's raw value
// (string literals lose their quotes) or as an expression.
func (m *Matcher) literalOrExpression(node jsparser.Expr) (text string, isExpression bool) {
	if lit, ok := node.(*jsparser.Literal); ok {
		if s, ok := lit.Value.(string); ok {
			return s, false
		}
		return m.convert(node), false
	}
	return m.convert(node), true
}

func propertyKey(prop *jsparser.Property) string {
	switch key := prop.Key.(type) {
	case *jsparser.Identifier:
		return key.Name
	case *jsparser.Literal:
		if s, ok := key.Value.(string); ok {
			return s
		}
	}
	return ""
}

// extractObjectLiteral flattens a simple object literal into the header map
// shape the runtime expects: literal values wrap as {"value": v}, everything
// else as an expression location.
func (m *Matcher) extractObjectLiteral(node jsparser.Expr) map[string]any {
	obj, ok := node.(*jsparser.ObjectExpression)
	if !ok {
		return nil
	}
	result := make(map[string]any)
	for _, prop := range obj.Properties {
		key := propertyKey(prop)
		if key == "" {
			continue
		}
		if lit, ok := prop.Value.(*jsparser.Literal); ok {
			result[key] = map[string]any{"value": lit.Value}
		} else {
			result[key] = map[string]any{
				"location": map[string]any{
					"type":       "EXPRESSION",
					"expression": m.convert(prop.Value),
				},
			}
		}
	}
	return result
}
