// Package analyzer derives the dependency structure of a flow function:
// which statements consume other statements' outputs, and what execution
// order satisfies those edges. Dependencies come from two places, explicit
// dependentStatements entries written by the pattern matcher and implicit
// Steps.<name>.<branch> references inside parameter expressions.
package analyzer

import (
	"regexp"
	"sort"

	"github.com/kaivue/flowscript/pkg/ir"
)

// stepRefPattern finds Steps.<name>.<branch> references anywhere inside an
// expression string.
var stepRefPattern = regexp.MustCompile(`Steps\.([a-zA-Z0-9]+)\.([a-zA-Z0-9]+)`)

// StepReferences extracts every step reference path appearing in an
// expression, in match order. Duplicates are preserved; callers dedupe
// through the dependency set.
func StepReferences(expression string) []string {
	matches := stepRefPattern.FindAllStringSubmatch(expression, -1)
	if len(matches) == 0 {
		return nil
	}
	refs := make([]string, 0, len(matches))
	for _, m := range matches {
		refs = append(refs, "Steps."+m[1]+"."+m[2])
	}
	return refs
}

// Annotate scans every statement's expression parameters for implicit step
// references and records them as dependencies. References to step names that
// do not exist in the function are ignored; those are plain store reads of a
// Steps-shaped path, not edges.
func Annotate(steps map[string]*ir.Statement) {
	for _, st := range steps {
		for _, refs := range st.ParameterMap {
			for _, ref := range refs {
				if !ref.IsExpression() {
					continue
				}
				for _, path := range StepReferences(ref.Expression()) {
					name, _, ok := ir.ParseStepPath(path)
					if !ok {
						continue
					}
					if _, exists := steps[name]; exists {
						st.AddDependency(path)
					}
				}
			}
		}
	}
}

// ExecutionOrder returns statement names topologically sorted by their
// dependency edges. Ties break by the given insertion order, so repeated
// runs over the same function produce identical output. When the graph has a
// cycle the insertion order itself is returned, leaving the definition
// intact for the runtime to reject.
func ExecutionOrder(steps map[string]*ir.Statement, insertion []string) []string {
	insertion = normalizeOrder(steps, insertion)

	indexOf := make(map[string]int, len(insertion))
	for i, name := range insertion {
		indexOf[name] = i
	}

	dependents := make(map[string][]string, len(steps))
	inDegree := make(map[string]int, len(steps))
	for _, name := range insertion {
		inDegree[name] = 0
	}
	for _, name := range insertion {
		for path := range steps[name].DependentStatements {
			dep, _, ok := ir.ParseStepPath(path)
			if !ok {
				continue
			}
			if _, exists := steps[dep]; !exists {
				continue
			}
			dependents[dep] = append(dependents[dep], name)
			inDegree[name]++
		}
	}

	// Kahn's algorithm over a ready list kept sorted by insertion index.
	ready := make([]string, 0, len(insertion))
	for _, name := range insertion {
		if inDegree[name] == 0 {
			ready = append(ready, name)
		}
	}

	order := make([]string, 0, len(insertion))
	for len(ready) > 0 {
		// Take the earliest-inserted ready statement.
		minIdx := 0
		for i := 1; i < len(ready); i++ {
			if indexOf[ready[i]] < indexOf[ready[minIdx]] {
				minIdx = i
			}
		}
		current := ready[minIdx]
		ready = append(ready[:minIdx], ready[minIdx+1:]...)
		order = append(order, current)

		for _, dependent := range dependents[current] {
			inDegree[dependent]--
			if inDegree[dependent] == 0 {
				ready = append(ready, dependent)
			}
		}
	}

	if len(order) != len(insertion) {
		// Cycle: fall back to insertion order.
		return insertion
	}
	return order
}

// normalizeOrder filters the insertion list to existing steps and appends any
// steps it misses, so ExecutionOrder always covers the full map.
func normalizeOrder(steps map[string]*ir.Statement, insertion []string) []string {
	seen := make(map[string]bool, len(insertion))
	out := make([]string, 0, len(steps))
	for _, name := range insertion {
		if _, ok := steps[name]; ok && !seen[name] {
			out = append(out, name)
			seen[name] = true
		}
	}
	if len(out) < len(steps) {
		missing := make([]string, 0, len(steps)-len(out))
		for name := range steps {
			if !seen[name] {
				missing = append(missing, name)
			}
		}
		sort.Strings(missing)
		out = append(out, missing...)
	}
	return out
}
