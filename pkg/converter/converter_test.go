package converter

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kaivue/flowscript/pkg/ir"
)

const clickHandler = `
Page.loading = true;
await fetch('/api/items');
if (Steps.fetchData1.output) {
	Page.items = Steps.fetchData1.output.data;
}
Page.loading = false;
`

func TestConvertSimpleAssignment(t *testing.T) {
	result := New().Convert("Page.count = Page.count + 1;", Options{
		FunctionName: "onClick",
		Namespace:    "App",
	})

	assert.Empty(t, result.Errors)
	assert.Empty(t, result.Warnings)
	assert.Equal(t, "onClick", result.Function.Name)
	assert.Equal(t, "App", result.Function.Namespace)
	require.Len(t, result.Function.Steps, 1)

	st, ok := result.Function.Steps["setStore1"]
	require.True(t, ok)
	assert.Equal(t, "SetStore", st.Name)
}

func TestConvertDefaultFunctionName(t *testing.T) {
	result := New().Convert("Page.x = 1;", Options{})
	assert.Equal(t, DefaultFunctionName, result.Function.Name)
}

func TestConvertMultiStatement(t *testing.T) {
	result := New().Convert(clickHandler, Options{FunctionName: "loadItems"})

	assert.Empty(t, result.Errors)
	require.Len(t, result.Function.Steps, 4)

	order := result.Function.StepOrder()
	assert.Equal(t, []string{"setStore1", "fetchData1", "setStore2", "setStore3"}, order)

	// The branch-guarded assignment depends on the fetch's output branch.
	set := result.Function.Steps["setStore2"]
	require.NotNil(t, set)
	assert.True(t, set.DependentStatements["Steps.fetchData1.output"])
}

func TestConvertAnnotatesExpressionDependencies(t *testing.T) {
	source := `
await fetch('/api/user');
Page.greeting = 'Hello ' + Steps.fetchData1.output.name;
`
	result := New().Convert(source, Options{})
	require.Empty(t, result.Errors)

	set := result.Function.Steps["setStore1"]
	require.NotNil(t, set)
	assert.True(t, set.DependentStatements["Steps.fetchData1.output"])
}

func TestConvertParseError(t *testing.T) {
	result := New().Convert("Page.count = ;", Options{FunctionName: "broken"})

	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "parse error")
	require.NotNil(t, result.Function)
	assert.Equal(t, "broken", result.Function.Name)
	assert.Empty(t, result.Function.Steps)
}

func TestConvertKeepsConvertibleStatements(t *testing.T) {
	source := `
Page.a = 1;
let local = 5;
Page.b = 2;
`
	result := New().Convert(source, Options{})

	assert.Len(t, result.Function.Steps, 2)
	require.NotEmpty(t, result.Warnings)
	assert.Contains(t, result.Warnings[0], "local")
}

func TestConvertToJSON(t *testing.T) {
	out, result, err := New().ConvertToJSON("Page.x = 1;", Options{FunctionName: "onClick"}, 2)
	require.NoError(t, err)
	assert.Empty(t, result.Errors)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, "onClick", decoded["name"])
	assert.Contains(t, decoded, "steps")

	// Two-space indentation.
	assert.True(t, strings.Contains(out, "\n  \"name\""), "output:\n%s", out)
}

func TestConvertDeterministic(t *testing.T) {
	c := New()
	first, _, err := c.ConvertToJSON(clickHandler, Options{FunctionName: "loadItems"}, 2)
	require.NoError(t, err)
	second, _, err := c.ConvertToJSON(clickHandler, Options{FunctionName: "loadItems"}, 2)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestValidate(t *testing.T) {
	v := New().Validate("Page.count = 1;")
	assert.True(t, v.Valid)
	assert.Empty(t, v.Errors)

	v = New().Validate("fetch();")
	assert.False(t, v.Valid)
	require.NotEmpty(t, v.Errors)

	v = New().Validate("let x = 1;")
	assert.True(t, v.Valid, "warnings alone do not invalidate")
	assert.NotEmpty(t, v.Warnings)
}

func TestConvertResultRoundTrips(t *testing.T) {
	result := New().Convert(clickHandler, Options{FunctionName: "loadItems", Namespace: "App"})
	data, err := json.Marshal(result.Function)
	require.NoError(t, err)

	var fn ir.FunctionDefinition
	require.NoError(t, json.Unmarshal(data, &fn))
	assert.Equal(t, "loadItems", fn.Name)
	assert.Equal(t, "App", fn.Namespace)
	assert.Equal(t, result.Function.StepOrder(), fn.StepOrder())
}

func TestConvertHandler(t *testing.T) {
	fn, result := New().ConvertHandler("Page.open = true;", "onOpen", "App")
	assert.Empty(t, result.Errors)
	assert.Equal(t, "onOpen", fn.Name)
	assert.Equal(t, "App", fn.Namespace)
	assert.Len(t, fn.Steps, 1)
}

func TestConvertHandlers(t *testing.T) {
	out, diags := New().ConvertHandlers(map[string]string{
		"onOpen":  "Page.open = true;",
		"onClose": "Page.open = false;",
	})

	require.Len(t, out, 2)
	require.Len(t, diags, 2)
	assert.Equal(t, "onOpen", out["onOpen"].Name)
	assert.Empty(t, diags["onOpen"].Errors)
	assert.Len(t, out["onClose"].Steps, 1)
}
