package decompiler

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/kaivue/flowscript/pkg/ir"
)

// stripOuterParens removes redundant enclosing parentheses, repeatedly, but
// only when the first '(' really matches the last ')'. "(a + b) * c" keeps
// its parentheses; "((a + b))" loses both pairs. Idempotent by construction.
func stripOuterParens(expr string) string {
	expr = strings.TrimSpace(expr)
	for len(expr) >= 2 && expr[0] == '(' && expr[len(expr)-1] == ')' {
		depth := 0
		matchesOuter := true
		for i, ch := range expr {
			switch ch {
			case '(':
				depth++
			case ')':
				depth--
				if depth == 0 && i < len(expr)-1 {
					matchesOuter = false
				}
			}
			if !matchesOuter {
				break
			}
		}
		if !matchesOuter || depth != 0 {
			break
		}
		expr = strings.TrimSpace(expr[1 : len(expr)-1])
	}
	return expr
}

// extractParamValue renders a parameter as script text. A parameter with
// several references is variadic and renders as an array literal ordered by
// Order(). asIdentifier suppresses quoting for parameters that are iterator
// or counter names rather than values.
func extractParamValue(params ir.ParameterMap, name string, asIdentifier bool) string {
	entries := params[name]
	if len(entries) == 0 {
		return "undefined"
	}

	if len(entries) > 1 {
		refs := make([]ir.ParameterReference, 0, len(entries))
		for _, ref := range entries {
			refs = append(refs, ref)
		}
		sort.SliceStable(refs, func(i, j int) bool { return refs[i].Order() < refs[j].Order() })
		values := make([]string, 0, len(refs))
		for _, ref := range refs {
			values = append(values, extractSingleValue(ref, asIdentifier))
		}
		return "[" + strings.Join(values, ", ") + "]"
	}

	for _, ref := range entries {
		return extractSingleValue(ref, asIdentifier)
	}
	return "undefined"
}

func extractSingleValue(ref ir.ParameterReference, asIdentifier bool) string {
	if ref.IsExpression() {
		expr := ref.Expression()
		// Tolerate the {{ }} wrapper some stored definitions carry.
		if strings.HasPrefix(expr, "{{") && strings.HasSuffix(expr, "}}") {
			expr = strings.TrimSpace(expr[2 : len(expr)-2])
		}
		return stripOuterParens(expr)
	}

	switch v := ref.Value().(type) {
	case nil:
		return "null"
	case string:
		if asIdentifier {
			return v
		}
		if isStorePathValue(v) {
			return v
		}
		return fmt.Sprintf("%q", v)
	case bool:
		if v {
			return "true"
		}
		return "false"
	case float64:
		if v == float64(int64(v)) {
			return fmt.Sprintf("%d", int64(v))
		}
		b, _ := json.Marshal(v)
		return string(b)
	case int:
		return fmt.Sprintf("%d", v)
	default:
		// Composite values (maps, slices) render as JSON, which is valid
		// script literal syntax.
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(b)
	}
}

// isStorePathValue reports whether a string value is a dotted store path and
// should therefore render unquoted.
func isStorePathValue(v string) bool {
	for _, prefix := range ir.StorePrefixes {
		if strings.HasPrefix(v, prefix+".") {
			return true
		}
	}
	return false
}
