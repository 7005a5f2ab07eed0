// Package decompiler renders flow function definitions back into script
// source. Operations map through a template registry; branch dependencies
// (Steps.<name>.true/false/output/error/iteration) reconstruct the if/else,
// fetch-guard and loop-body nesting the forward conversion flattened away.
package decompiler

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/kaivue/flowscript/pkg/ir"
)

var (
	stepNamePattern  = regexp.MustCompile(`Steps\.(\w+)`)
	branchRefPattern = regexp.MustCompile(`Steps\.(\w+)\.(output|error)`)
	branchLabels     = []string{"true", "false", "output", "error", "iteration"}
	branchLabelIndex = map[string]bool{"true": true, "false": true, "output": true, "error": true, "iteration": true}
)

// Decompiler converts function definitions to script source. Templates can
// be extended at runtime with AddTemplate; the zero set covers the built-in
// operation catalog.
type Decompiler struct {
	templates map[templateKey]Template
}

// New creates a Decompiler with the built-in template catalog.
func New() *Decompiler {
	return &Decompiler{templates: functionTemplates()}
}

// AddTemplate registers or replaces the template for an operation.
func (d *Decompiler) AddTemplate(namespace, name string, tpl Template) {
	d.templates[templateKey{Namespace: namespace, Name: name}] = tpl
}

// SupportedFunctions lists the (namespace, name) pairs the decompiler can
// render natively, sorted for stable output.
func (d *Decompiler) SupportedFunctions() [][2]string {
	out := make([][2]string, 0, len(d.templates))
	for key := range d.templates {
		out = append(out, [2]string{key.Namespace, key.Name})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i][0] != out[j][0] {
			return out[i][0] < out[j][0]
		}
		return out[i][1] < out[j][1]
	})
	return out
}

// Decompile renders a complete function definition as script source.
func (d *Decompiler) Decompile(fn *ir.FunctionDefinition) string {
	name := fn.Name
	if name == "" {
		name = "unknown"
	}
	if len(fn.Steps) == 0 {
		return fmt.Sprintf("// Function: %s\n// (empty function)", name)
	}

	lines := []string{fmt.Sprintf("// Function: %s", name), ""}

	groups := d.groupByBranches(fn.Steps, fn.StepOrder())
	processed := make(map[string]bool)

	for _, stepName := range topoSort(fn.Steps, fn.StepOrder()) {
		lines = d.renderStep(fn.Steps, groups, lines, stepName, 0, processed)
	}

	return strings.Join(lines, "\n")
}

// DecompileStep renders a single statement without control-flow context.
func (d *Decompiler) DecompileStep(st *ir.Statement) string {
	return d.stepToJS(st)
}

// renderStep emits one step and, when it anchors branches, its nested
// dependents. processed is shared across the whole render so a step nested
// under a branch never re-appears at the top level.
func (d *Decompiler) renderStep(
	steps map[string]*ir.Statement,
	groups map[string]map[string][]string,
	lines []string,
	stepName string,
	indent int,
	processed map[string]bool,
) []string {
	if processed[stepName] {
		return lines
	}
	st, ok := steps[stepName]
	if !ok {
		return lines
	}
	processed[stepName] = true

	pad := strings.Repeat("  ", indent)
	branches := groups[stepName]
	hasTrue := len(branches["true"]) > 0
	hasFalse := len(branches["false"]) > 0
	hasIteration := len(branches["iteration"]) > 0
	hasOutput := len(branches["output"]) > 0
	hasError := len(branches["error"]) > 0

	tpl := d.templates[templateKey{Namespace: st.Namespace, Name: st.Name}]

	switch {
	case tpl.ControlFlow && st.Name == "If" && (hasTrue || hasFalse):
		condition := d.condition(st)
		lines = append(lines, fmt.Sprintf("%sif (%s) {  // Step: %s", pad, condition, stepName))
		lines = d.renderBranch(steps, groups, lines, branches["true"], indent+1, processed)
		if hasFalse {
			lines = append(lines, pad+"} else {")
			lines = d.renderBranch(steps, groups, lines, branches["false"], indent+1, processed)
		}
		lines = append(lines, pad+"}")

	case tpl.ControlFlow && hasIteration:
		header := strings.TrimSuffix(d.stepToJS(st), " { ... }")
		lines = append(lines, fmt.Sprintf("%s%s {  // Step: %s", pad, header, stepName))
		lines = d.renderBranch(steps, groups, lines, branches["iteration"], indent+1, processed)
		lines = append(lines, pad+"}")

	case (st.Name == "FetchData" || st.Name == "SendData") && (hasOutput || hasError):
		lines = append(lines, fmt.Sprintf("%s%s  // Step: %s", pad, d.stepToJS(st), stepName))
		if hasOutput {
			lines = append(lines, fmt.Sprintf("%sif (Steps.%s.output) {", pad, stepName))
			lines = d.renderBranch(steps, groups, lines, branches["output"], indent+1, processed)
			lines = append(lines, pad+"}")
		}
		if hasError {
			lines = append(lines, fmt.Sprintf("%sif (Steps.%s.error) {", pad, stepName))
			lines = d.renderBranch(steps, groups, lines, branches["error"], indent+1, processed)
			lines = append(lines, pad+"}")
		}

	case tpl.Inline:
		// Expression templates render as bare expression statements.
		lines = append(lines, pad+d.stepToJS(st)+";")

	default:
		lines = append(lines, fmt.Sprintf("%s%s  // Step: %s", pad, d.stepToJS(st), stepName))
	}

	return lines
}

func (d *Decompiler) renderBranch(
	steps map[string]*ir.Statement,
	groups map[string]map[string][]string,
	lines []string,
	stepNames []string,
	indent int,
	processed map[string]bool,
) []string {
	for _, name := range stepNames {
		lines = d.renderStep(steps, groups, lines, name, indent, processed)
	}
	return lines
}

// stepToJS renders one statement through its template, or as a comment
// carrying all parameters when no template exists.
func (d *Decompiler) stepToJS(st *ir.Statement) string {
	tpl, ok := d.templates[templateKey{Namespace: st.Namespace, Name: st.Name}]
	if !ok {
		return d.fallbackComment(st)
	}

	identifiers := make(map[string]bool, len(tpl.Identifiers))
	for _, name := range tpl.Identifiers {
		identifiers[name] = true
	}

	code := tpl.Pattern
	for _, param := range tpl.Extract {
		value := extractParamValue(st.ParameterMap, param, identifiers[param])
		code = strings.ReplaceAll(code, "{"+param+"}", value)
	}
	return code
}

func (d *Decompiler) fallbackComment(st *ir.Statement) string {
	names := make([]string, 0, len(st.ParameterMap))
	for name := range st.ParameterMap {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s=%s", name, extractParamValue(st.ParameterMap, name, false)))
	}
	return fmt.Sprintf("// %s.%s(%s)", st.Namespace, st.Name, strings.Join(parts, ", "))
}

// condition extracts the condition text from a System.If statement.
func (d *Decompiler) condition(st *ir.Statement) string {
	for _, ref := range st.ParameterMap["condition"] {
		if ref.IsExpression() {
			if expr := stripOuterParens(ref.Expression()); expr != "" {
				return expr
			}
			return "true"
		}
		return fmt.Sprintf("%v", ref.Value())
	}
	return "true"
}

// groupByBranches maps each step to the steps that depend on its branches.
// Explicit dependentStatements entries take priority: a step that explicitly
// depends on Steps.if1.true lands only in that branch even when its
// expressions also mention another step's output. Implicit expression
// references place only steps with no explicit branch membership.
func (d *Decompiler) groupByBranches(steps map[string]*ir.Statement, order []string) map[string]map[string][]string {
	groups := make(map[string]map[string][]string)
	explicit := make(map[string]bool)

	ensure := func(parent string) map[string][]string {
		g, ok := groups[parent]
		if !ok {
			g = make(map[string][]string, len(branchLabels))
			groups[parent] = g
		}
		return g
	}
	add := func(parent, branch, stepName string) {
		g := ensure(parent)
		for _, existing := range g[branch] {
			if existing == stepName {
				return
			}
		}
		g[branch] = append(g[branch], stepName)
	}

	for _, stepName := range order {
		st := steps[stepName]
		paths := make([]string, 0, len(st.DependentStatements))
		for path := range st.DependentStatements {
			paths = append(paths, path)
		}
		sort.Strings(paths)
		for _, path := range paths {
			parent, branch, ok := ir.ParseStepPath(path)
			if !ok || !branchLabelIndex[branch] {
				continue
			}
			add(parent, branch, stepName)
			explicit[stepName] = true
		}
	}

	for _, stepName := range order {
		if explicit[stepName] {
			continue
		}
		st := steps[stepName]

		type parentBranch struct{ parent, branch string }
		seen := make(map[parentBranch]bool)
		var detected []parentBranch

		for _, paramName := range sortedParamNames(st.ParameterMap) {
			for _, refKey := range sortedRefKeys(st.ParameterMap[paramName]) {
				ref := st.ParameterMap[paramName][refKey]
				if !ref.IsExpression() {
					continue
				}
				for _, m := range branchRefPattern.FindAllStringSubmatch(ref.Expression(), -1) {
					pb := parentBranch{parent: m[1], branch: m[2]}
					if !seen[pb] {
						seen[pb] = true
						detected = append(detected, pb)
					}
				}
			}
		}

		for _, pb := range detected {
			add(pb.parent, pb.branch, stepName)
		}
	}

	return groups
}

// topoSort orders steps by dependency edges, explicit and implicit alike.
// Ties and cycles resolve to the given insertion order.
func topoSort(steps map[string]*ir.Statement, order []string) []string {
	if len(steps) == 0 {
		return nil
	}

	indexOf := make(map[string]int, len(order))
	for i, name := range order {
		indexOf[name] = i
	}

	inDegree := make(map[string]int, len(steps))
	dependents := make(map[string][]string, len(steps))
	type edge struct{ from, to string }
	seenEdges := make(map[edge]bool)

	for _, name := range order {
		st := steps[name]
		deps := make(map[string]bool)

		for path := range st.DependentStatements {
			if dep, _, ok := ir.ParseStepPath(path); ok {
				deps[dep] = true
			}
		}
		for _, dep := range implicitStepRefs(st) {
			deps[dep] = true
		}

		depNames := make([]string, 0, len(deps))
		for dep := range deps {
			depNames = append(depNames, dep)
		}
		sort.Strings(depNames)

		for _, dep := range depNames {
			if _, exists := steps[dep]; !exists || dep == name {
				continue
			}
			e := edge{from: dep, to: name}
			if seenEdges[e] {
				continue
			}
			seenEdges[e] = true
			dependents[dep] = append(dependents[dep], name)
			inDegree[name]++
		}
	}

	ready := make([]string, 0, len(order))
	for _, name := range order {
		if inDegree[name] == 0 {
			ready = append(ready, name)
		}
	}

	result := make([]string, 0, len(order))
	for len(ready) > 0 {
		minIdx := 0
		for i := 1; i < len(ready); i++ {
			if indexOf[ready[i]] < indexOf[ready[minIdx]] {
				minIdx = i
			}
		}
		name := ready[minIdx]
		ready = append(ready[:minIdx], ready[minIdx+1:]...)
		result = append(result, name)

		for _, dependent := range dependents[name] {
			inDegree[dependent]--
			if inDegree[dependent] == 0 {
				ready = append(ready, dependent)
			}
		}
	}

	if len(result) != len(order) {
		return order
	}
	return result
}

// implicitStepRefs finds step names referenced from a statement's parameter
// expressions and string values.
func implicitStepRefs(st *ir.Statement) []string {
	seen := make(map[string]bool)
	var refs []string
	record := func(text string) {
		for _, m := range stepNamePattern.FindAllStringSubmatch(text, -1) {
			if !seen[m[1]] {
				seen[m[1]] = true
				refs = append(refs, m[1])
			}
		}
	}

	for _, paramName := range sortedParamNames(st.ParameterMap) {
		for _, refKey := range sortedRefKeys(st.ParameterMap[paramName]) {
			ref := st.ParameterMap[paramName][refKey]
			if ref.IsExpression() {
				record(ref.Expression())
			} else if s, ok := ref.Value().(string); ok {
				record(s)
			}
		}
	}
	return refs
}

func sortedParamNames(params ir.ParameterMap) []string {
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func sortedRefKeys(refs map[string]ir.ParameterReference) []string {
	keys := make([]string, 0, len(refs))
	for key := range refs {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
