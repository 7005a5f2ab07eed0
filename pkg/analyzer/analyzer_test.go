package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kaivue/flowscript/pkg/builder"
	"github.com/kaivue/flowscript/pkg/ir"
)

func TestStepReferences(t *testing.T) {
	tests := []struct {
		expression string
		want       []string
	}{
		{"Steps.fetchData1.output", []string{"Steps.fetchData1.output"}},
		{"(Steps.fetchData1.output.data + Steps.setStore1.output)",
			[]string{"Steps.fetchData1.output", "Steps.setStore1.output"}},
		{"Page.count + 1", nil},
		{"", nil},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StepReferences(tt.expression), "expression %q", tt.expression)
	}
}

func TestAnnotate(t *testing.T) {
	b := builder.New()
	fetch := b.FetchData("/api/items", builder.FetchOptions{})
	set := b.SetStoreExpression("Page.items", "Steps.fetchData1.output.data")
	// References a step that does not exist: stays a plain store read.
	other := b.SetStoreExpression("Page.x", "Steps.ghost1.output")

	steps := map[string]*ir.Statement{
		fetch.StatementName: fetch,
		set.StatementName:   set,
		other.StatementName: other,
	}
	Annotate(steps)

	require.NotNil(t, set.DependentStatements)
	assert.True(t, set.DependentStatements["Steps.fetchData1.output"])
	assert.Nil(t, other.DependentStatements)
	assert.Nil(t, fetch.DependentStatements)
}

func TestAnnotateIgnoresValueRefs(t *testing.T) {
	b := builder.New()
	fetch := b.FetchData("/api/items", builder.FetchOptions{})
	// The path parameter is a VALUE even though it looks like a step path.
	set := b.SetStoreValue("Page.note", "Steps.fetchData1.output")

	steps := map[string]*ir.Statement{
		fetch.StatementName: fetch,
		set.StatementName:   set,
	}
	Annotate(steps)
	assert.Nil(t, set.DependentStatements)
}

func TestExecutionOrderLinearChain(t *testing.T) {
	b := builder.New()
	fetch := b.FetchData("/api/items", builder.FetchOptions{})
	set := b.SetStoreExpression("Page.items", "Steps.fetchData1.output.data")
	set.AddDependency("Steps.fetchData1.output")
	msg := b.Message("done", false, "INFO")
	msg.AddDependency("Steps.setStore1.output")

	steps := map[string]*ir.Statement{
		// Insertion order deliberately lists dependents first.
		msg.StatementName:   msg,
		set.StatementName:   set,
		fetch.StatementName: fetch,
	}
	insertion := []string{"message1", "setStore1", "fetchData1"}

	order := ExecutionOrder(steps, insertion)
	assert.Equal(t, []string{"fetchData1", "setStore1", "message1"}, order)
}

func TestExecutionOrderBreaksTiesByInsertion(t *testing.T) {
	b := builder.New()
	first := b.SetStoreValue("Page.a", 1)
	second := b.SetStoreValue("Page.b", 2)
	third := b.SetStoreValue("Page.c", 3)

	steps := map[string]*ir.Statement{
		first.StatementName:  first,
		second.StatementName: second,
		third.StatementName:  third,
	}
	insertion := []string{"setStore1", "setStore2", "setStore3"}

	// No edges at all: order is exactly insertion order, every time.
	for i := 0; i < 5; i++ {
		assert.Equal(t, insertion, ExecutionOrder(steps, insertion))
	}
}

func TestExecutionOrderCycleFallsBack(t *testing.T) {
	b := builder.New()
	a := b.SetStoreValue("Page.a", 1)
	c := b.SetStoreValue("Page.b", 2)
	a.AddDependency("Steps." + c.StatementName + ".output")
	c.AddDependency("Steps." + a.StatementName + ".output")

	steps := map[string]*ir.Statement{
		a.StatementName: a,
		c.StatementName: c,
	}
	insertion := []string{a.StatementName, c.StatementName}

	assert.Equal(t, insertion, ExecutionOrder(steps, insertion))
}

func TestExecutionOrderCoversUnlistedSteps(t *testing.T) {
	b := builder.New()
	a := b.SetStoreValue("Page.a", 1)
	c := b.SetStoreValue("Page.b", 2)

	steps := map[string]*ir.Statement{
		a.StatementName: a,
		c.StatementName: c,
	}

	// Insertion list misses setStore2; it still appears in the result.
	order := ExecutionOrder(steps, []string{a.StatementName})
	assert.ElementsMatch(t, []string{a.StatementName, c.StatementName}, order)
	assert.Equal(t, a.StatementName, order[0])
}
