// Package converter is the front door for script-to-flow conversion: it
// parses source, matches patterns, annotates dependencies and assembles a
// FunctionDefinition. Each call builds fresh generator state, so a single
// Converter value is safe for concurrent use.
package converter

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kaivue/flowscript/pkg/analyzer"
	"github.com/kaivue/flowscript/pkg/builder"
	"github.com/kaivue/flowscript/pkg/ir"
	"github.com/kaivue/flowscript/pkg/jsparser"
	"github.com/kaivue/flowscript/pkg/patterns"
)

// DefaultFunctionName names converted handlers when the caller supplies
// none.
const DefaultFunctionName = "eventHandler"

// Options controls conversion output naming.
type Options struct {
	FunctionName string
	Namespace    string
}

func (o Options) functionName() string {
	if o.FunctionName == "" {
		return DefaultFunctionName
	}
	return o.FunctionName
}

// Result carries the converted definition plus the diagnostics produced
// along the way. Errors being non-empty means parts of the source could not
// be converted; the definition still contains everything that could.
type Result struct {
	Function *ir.FunctionDefinition `json:"functionDefinition"`
	Errors   []string               `json:"errors"`
	Warnings []string               `json:"warnings"`
}

// Validation is the outcome of checking source without keeping the
// definition.
type Validation struct {
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

// Converter converts script source to flow function definitions. The zero
// value is ready to use.
type Converter struct{}

// New creates a Converter.
func New() *Converter {
	return &Converter{}
}

// Convert parses and converts source into a function definition. A parse
// error yields a Result whose Errors carries the failure and whose Function
// is an empty definition; pattern-level problems land in Errors/Warnings
// with the convertible statements kept.
func (c *Converter) Convert(source string, opts Options) *Result {
	result := &Result{
		Function: ir.NewFunctionDefinition(opts.functionName(), opts.Namespace),
		Errors:   []string{},
		Warnings: []string{},
	}

	program, err := jsparser.Parse(source)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("parse error: %v", err))
		return result
	}

	m := patterns.New(builder.New())
	for _, node := range program.Body {
		r := m.MatchStatement(node)
		if r.Matched {
			for _, st := range r.Statements {
				result.Function.AddStep(st)
			}
		}
		result.Warnings = append(result.Warnings, r.Warnings...)
		result.Errors = append(result.Errors, r.Errors...)
	}

	analyzer.Annotate(result.Function.Steps)
	return result
}

// ConvertToJSON converts source and renders the function definition as
// indented JSON.
func (c *Converter) ConvertToJSON(source string, opts Options, indent int) (string, *Result, error) {
	result := c.Convert(source, opts)
	data, err := json.MarshalIndent(result.Function, "", strings.Repeat(" ", indent))
	if err != nil {
		return "", result, fmt.Errorf("encoding function definition: %w", err)
	}
	return string(data), result, nil
}

// Validate checks source for convertibility without keeping the produced
// definition.
func (c *Converter) Validate(source string) Validation {
	result := c.Convert(source, Options{})
	return Validation{
		Valid:    len(result.Errors) == 0,
		Errors:   result.Errors,
		Warnings: result.Warnings,
	}
}

// EventFunction is a converted handler in the shape page definitions embed.
type EventFunction struct {
	Name      string                   `json:"name"`
	Namespace string                   `json:"namespace"`
	Steps     map[string]*ir.Statement `json:"steps"`
}

// ConvertHandler converts one event handler body into the page event
// function shape.
func (c *Converter) ConvertHandler(source, eventName, namespace string) (EventFunction, *Result) {
	result := c.Convert(source, Options{FunctionName: eventName, Namespace: namespace})
	return EventFunction{
		Name:      eventName,
		Namespace: result.Function.Namespace,
		Steps:     result.Function.Steps,
	}, result
}

// ConvertHandlers converts a batch of event handlers keyed by event name.
// Each output entry is keyed by a deterministic handler key derived from the
// event name, and diagnostics are collected per event.
func (c *Converter) ConvertHandlers(handlers map[string]string) (map[string]EventFunction, map[string]*Result) {
	out := make(map[string]EventFunction, len(handlers))
	diags := make(map[string]*Result, len(handlers))
	for eventName, source := range handlers {
		fn, result := c.ConvertHandler(source, eventName, "")
		out[eventName] = fn
		diags[eventName] = result
	}
	return out, diags
}
