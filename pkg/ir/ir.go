// Package ir defines the data model for flow function definitions: the
// statements, parameter references and function metadata that the visual
// runtime executes. A FunctionDefinition is a pure value; once built it is
// never mutated except for dependency annotation on its statements.
package ir

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
)

// StorePrefixes are the only valid roots for store-path expressions. The
// scripting dialect has no local variables; every piece of state lives under
// one of these namespaces.
var StorePrefixes = []string{"Page", "Store", "Url", "Parent", "Steps", "Arguments", "Context"}

// IsStorePrefix reports whether name is one of the store-path roots.
func IsStorePrefix(name string) bool {
	for _, p := range StorePrefixes {
		if name == p {
			return true
		}
	}
	return false
}

// RefType distinguishes static values from dynamic expressions in a
// parameter reference. The wire contract requires exactly these strings.
type RefType string

const (
	RefValue      RefType = "VALUE"
	RefExpression RefType = "EXPRESSION"
)

// ParameterReference is one argument binding of a statement. It is a tagged
// union: either a static value or an expression string, never both and never
// neither. Construct with NewValueRef or NewExpressionRef.
type ParameterReference struct {
	key        string
	refType    RefType
	value      any
	expression string
	order      int
}

// NewValueRef creates a VALUE parameter reference.
func NewValueRef(key string, order int, value any) ParameterReference {
	return ParameterReference{key: key, refType: RefValue, value: value, order: order}
}

// NewExpressionRef creates an EXPRESSION parameter reference.
func NewExpressionRef(key string, order int, expression string) ParameterReference {
	return ParameterReference{key: key, refType: RefExpression, expression: expression, order: order}
}

// Key returns the unique reference key.
func (r ParameterReference) Key() string { return r.key }

// Order returns the position of this reference within a variadic parameter.
func (r ParameterReference) Order() int { return r.order }

// Type returns RefValue or RefExpression.
func (r ParameterReference) Type() RefType { return r.refType }

// IsExpression reports whether the reference carries an expression.
func (r ParameterReference) IsExpression() bool { return r.refType == RefExpression }

// Value returns the static value. Only meaningful when Type() is RefValue.
func (r ParameterReference) Value() any { return r.value }

// Expression returns the expression text. Only meaningful when Type() is
// RefExpression.
func (r ParameterReference) Expression() string { return r.expression }

type parameterReferenceJSON struct {
	Key        string  `json:"key"`
	Type       RefType `json:"type"`
	Value      any     `json:"value,omitempty"`
	Expression string  `json:"expression,omitempty"`
	Order      int     `json:"order"`
}

// MarshalJSON emits the wire shape: key, type, value or expression, order.
func (r ParameterReference) MarshalJSON() ([]byte, error) {
	out := parameterReferenceJSON{Key: r.key, Type: r.refType, Order: r.order}
	if r.refType == RefExpression {
		out.Expression = r.expression
	} else {
		out.Value = r.value
	}
	return json.Marshal(out)
}

// UnmarshalJSON parses the wire shape. A missing type defaults to VALUE,
// matching persisted definitions produced by older tooling.
func (r *ParameterReference) UnmarshalJSON(data []byte) error {
	var in parameterReferenceJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	r.key = in.Key
	r.order = in.Order
	if in.Type == RefExpression {
		r.refType = RefExpression
		r.expression = in.Expression
	} else {
		r.refType = RefValue
		r.value = in.Value
	}
	return nil
}

// ParameterMap maps a parameter name to its references, keyed by reference
// key. A parameter with more than one reference is variadic; its references
// collectively form an array argument ordered by Order().
type ParameterMap map[string]map[string]ParameterReference

// Position is the cosmetic editor position of a statement, preserved
// verbatim through conversion.
type Position struct {
	Left float64 `json:"left,omitempty"`
	Top  float64 `json:"top,omitempty"`
}

// Statement is a single instruction in a flow function. StatementName is
// unique within the function and camelCase with no separators. Namespace and
// Name identify the target operation (for example UIEngine.SetStore).
// DependentStatements holds dependency paths of the form
// Steps.<name>.<branch>.
type Statement struct {
	StatementName       string          `json:"statementName"`
	Name                string          `json:"name"`
	Namespace           string          `json:"namespace"`
	Comment             string          `json:"comment,omitempty"`
	Description         string          `json:"description,omitempty"`
	Position            *Position       `json:"position,omitempty"`
	ParameterMap        ParameterMap    `json:"parameterMap"`
	DependentStatements map[string]bool `json:"dependentStatements,omitempty"`
	ExecuteIfTrue       map[string]bool `json:"executeIftrue,omitempty"`
}

// AddDependency records a dependency on another statement's branch, for
// example "Steps.fetchData1.output".
func (s *Statement) AddDependency(path string) {
	if s.DependentStatements == nil {
		s.DependentStatements = make(map[string]bool)
	}
	s.DependentStatements[path] = true
}

// SchemaDefinition is a loose type schema for parameters and events.
type SchemaDefinition struct {
	Version    int            `json:"version,omitempty"`
	Type       []string       `json:"type,omitempty"`
	Items      map[string]any `json:"items,omitempty"`
	Properties map[string]any `json:"properties,omitempty"`
}

// Parameter declares one input of a function definition.
type Parameter struct {
	ParameterName    string           `json:"parameterName"`
	Schema           SchemaDefinition `json:"schema,omitempty"`
	VariableArgument bool             `json:"variableArgument,omitempty"`
}

// Event declares one output event of a function definition.
type Event struct {
	Name       string                      `json:"name"`
	Parameters map[string]SchemaDefinition `json:"parameters,omitempty"`
}

// FunctionDefinition is a complete flow function: metadata plus steps keyed
// by statement name. It additionally remembers the order in which steps were
// added (or encountered in a JSON document) so that downstream consumers have
// a deterministic fallback ordering.
type FunctionDefinition struct {
	Name       string                `json:"name"`
	Namespace  string                `json:"namespace"`
	Version    int                   `json:"version"`
	Parameters map[string]Parameter  `json:"parameters,omitempty"`
	Events     map[string]Event      `json:"events,omitempty"`
	Steps      map[string]*Statement `json:"steps"`

	stepOrder []string
}

// NewFunctionDefinition creates an empty function definition with version 1.
func NewFunctionDefinition(name, namespace string) *FunctionDefinition {
	return &FunctionDefinition{
		Name:      name,
		Namespace: namespace,
		Version:   1,
		Steps:     make(map[string]*Statement),
	}
}

// AddStep inserts a statement, recording insertion order.
func (f *FunctionDefinition) AddStep(s *Statement) {
	if f.Steps == nil {
		f.Steps = make(map[string]*Statement)
	}
	if _, exists := f.Steps[s.StatementName]; !exists {
		f.stepOrder = append(f.stepOrder, s.StatementName)
	}
	f.Steps[s.StatementName] = s
}

// StepOrder returns statement names in insertion (or document) order. Names
// present in Steps but never recorded are appended at the end so the result
// always covers every step.
func (f *FunctionDefinition) StepOrder() []string {
	seen := make(map[string]bool, len(f.stepOrder))
	order := make([]string, 0, len(f.Steps))
	for _, name := range f.stepOrder {
		if _, ok := f.Steps[name]; ok && !seen[name] {
			order = append(order, name)
			seen[name] = true
		}
	}
	// Pick up steps added behind AddStep's back.
	if len(order) < len(f.Steps) {
		rest := make([]string, 0, len(f.Steps)-len(order))
		for name := range f.Steps {
			if !seen[name] {
				rest = append(rest, name)
			}
		}
		sort.Strings(rest)
		order = append(order, rest...)
	}
	return order
}

// MarshalJSON writes the steps object in StepOrder rather than Go's sorted
// map order, so encoding and decoding a definition preserves step order.
func (f *FunctionDefinition) MarshalJSON() ([]byte, error) {
	var steps bytes.Buffer
	steps.WriteByte('{')
	for i, name := range f.StepOrder() {
		if i > 0 {
			steps.WriteByte(',')
		}
		key, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		steps.Write(key)
		steps.WriteByte(':')
		st, err := json.Marshal(f.Steps[name])
		if err != nil {
			return nil, fmt.Errorf("encoding step %s: %w", name, err)
		}
		steps.Write(st)
	}
	steps.WriteByte('}')

	return json.Marshal(struct {
		Name       string               `json:"name"`
		Namespace  string               `json:"namespace"`
		Version    int                  `json:"version"`
		Parameters map[string]Parameter `json:"parameters,omitempty"`
		Events     map[string]Event     `json:"events,omitempty"`
		Steps      json.RawMessage      `json:"steps"`
	}{f.Name, f.Namespace, f.Version, f.Parameters, f.Events, steps.Bytes()})
}

// UnmarshalJSON decodes a function definition and captures the document
// order of the steps object, since Go maps do not preserve it.
func (f *FunctionDefinition) UnmarshalJSON(data []byte) error {
	type alias FunctionDefinition
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*f = FunctionDefinition(a)

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	stepsRaw, ok := raw["steps"]
	if !ok {
		return nil
	}
	order, err := objectKeyOrder(stepsRaw)
	if err != nil {
		return fmt.Errorf("reading steps order: %w", err)
	}
	f.stepOrder = order
	return nil
}

// objectKeyOrder returns the top-level keys of a JSON object in document
// order.
func objectKeyOrder(data json.RawMessage) ([]string, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, nil
	}
	var keys []string
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected token %v in object", tok)
		}
		keys = append(keys, key)
		var skip json.RawMessage
		if err := dec.Decode(&skip); err != nil {
			return nil, err
		}
	}
	return keys, nil
}

var statementNamePattern = regexp.MustCompile(`^[a-z][a-zA-Z0-9]*$`)

// stepPathPattern matches dependency paths like Steps.fetchData1.output.
var stepPathPattern = regexp.MustCompile(`^Steps\.([a-zA-Z0-9]+)\.([a-zA-Z0-9]+)$`)

// ParseStepPath splits a dependency path "Steps.<name>.<branch>" into its
// step name and branch label. ok is false for anything else.
func ParseStepPath(path string) (step, branch string, ok bool) {
	m := stepPathPattern.FindStringSubmatch(path)
	if m == nil {
		return "", "", false
	}
	return m[1], m[2], true
}

// Validate checks the structural invariants of a function definition:
// statement names are camelCase with no separators and match their step key,
// and every dependency path names an existing statement. Dangling references
// are a defect, not a valid state.
func (f *FunctionDefinition) Validate() error {
	for key, step := range f.Steps {
		if step.StatementName != key {
			return fmt.Errorf("step %q: statementName %q does not match its key", key, step.StatementName)
		}
		if !statementNamePattern.MatchString(step.StatementName) {
			return fmt.Errorf("step %q: statement names must be camelCase without separators", key)
		}
		for path := range step.DependentStatements {
			name, _, ok := ParseStepPath(path)
			if !ok {
				return fmt.Errorf("step %q: malformed dependency path %q", key, path)
			}
			if _, exists := f.Steps[name]; !exists {
				return fmt.Errorf("step %q: dependency %q references unknown statement %q", key, path, name)
			}
		}
	}
	return nil
}
