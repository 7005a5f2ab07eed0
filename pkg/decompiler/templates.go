package decompiler

// templateKey identifies a flow operation by namespace and name.
type templateKey struct {
	Namespace string
	Name      string
}

// Template maps one flow operation to its script rendering. Pattern contains
// {param} placeholders filled from the statement's parameter map; Extract
// lists the parameters to pull, and Identifiers names the subset rendered
// without quotes. Inline templates are expressions rather than statements,
// and ControlFlow templates get their bodies from branch dependencies
// instead of the pattern.
type Template struct {
	Pattern     string
	Extract     []string
	Identifiers []string
	Inline      bool
	ControlFlow bool
}

// functionTemplates is the built-in operation catalog. Operations missing
// here render as comments carrying all their parameters.
func functionTemplates() map[templateKey]Template {
	return map[templateKey]Template{
		{"UIEngine", "SetStore"}: {
			Pattern: "{path} = {value};",
			Extract: []string{"path", "value"},
		},
		{"UIEngine", "Navigate"}: {
			Pattern: "navigate({linkPath});",
			Extract: []string{"linkPath"},
		},
		{"UIEngine", "SendData"}: {
			Pattern: "fetch({url}, { method: {method}, body: {payload} });",
			Extract: []string{"url", "method", "payload"},
		},
		{"UIEngine", "FetchData"}: {
			Pattern: "fetch({url});",
			Extract: []string{"url"},
		},
		{"UIEngine", "Message"}: {
			Pattern: "showMessage({msg}, {type});",
			Extract: []string{"msg", "type"},
		},
		{"UIEngine", "GenerateEvent"}: {
			Pattern: "generateEvent({eventName}, {results});",
			Extract: []string{"eventName", "results"},
		},
		{"UIEngine", "Output"}: {
			Pattern: "return {value};",
			Extract: []string{"value"},
		},

		{"System", "Wait"}: {
			Pattern: "wait({millis});",
			Extract: []string{"millis"},
		},
		{"System", "If"}: {
			Pattern:     "if ({condition}) { ... }",
			Extract:     []string{"condition"},
			ControlFlow: true,
		},
		{"System", "Print"}: {
			Pattern: "console.log({values});",
			Extract: []string{"values"},
		},
		{"System", "GenerateEvent"}: {
			Pattern: "generateEvent({eventName}, {results});",
			Extract: []string{"eventName", "results"},
		},
		{"System", "JSONStringify"}: {
			Pattern: "JSON.stringify({source})",
			Extract: []string{"source"},
			Inline:  true,
		},
		{"System", "JSONParse"}: {
			Pattern: "JSON.parse({source})",
			Extract: []string{"source"},
			Inline:  true,
		},

		{"System.Loop", "ForEachLoop"}: {
			Pattern:     "for (let {iteratorKey} of {source}) { ... }",
			Extract:     []string{"source", "iteratorKey"},
			Identifiers: []string{"iteratorKey"},
			ControlFlow: true,
		},
		{"System.Loop", "CountLoop"}: {
			Pattern:     "for (let {counterKey} = 0; {counterKey} < {count}; {counterKey}++) { ... }",
			Extract:     []string{"count", "counterKey"},
			Identifiers: []string{"counterKey"},
			ControlFlow: true,
		},
		{"System.Loop", "RangeLoop"}: {
			Pattern:     "for (let {counterKey} = {from}; {counterKey} < {to}; {counterKey}++) { ... }",
			Extract:     []string{"from", "to", "counterKey"},
			Identifiers: []string{"counterKey"},
			ControlFlow: true,
		},
		{"System.Loop", "Break"}: {
			Pattern: "break;",
		},

		{"System.Math", "Add"}: {
			Pattern: "({value1} + {value2})",
			Extract: []string{"value1", "value2"},
			Inline:  true,
		},
		{"System.Math", "Subtract"}: {
			Pattern: "({value1} - {value2})",
			Extract: []string{"value1", "value2"},
			Inline:  true,
		},
		{"System.Math", "Multiply"}: {
			Pattern: "({value1} * {value2})",
			Extract: []string{"value1", "value2"},
			Inline:  true,
		},
		{"System.Math", "Divide"}: {
			Pattern: "({value1} / {value2})",
			Extract: []string{"value1", "value2"},
			Inline:  true,
		},
		{"System.Math", "Modulus"}: {
			Pattern: "({value1} % {value2})",
			Extract: []string{"value1", "value2"},
			Inline:  true,
		},
		{"System.Math", "Power"}: {
			Pattern: "Math.pow({value1}, {value2})",
			Extract: []string{"value1", "value2"},
			Inline:  true,
		},
		{"System.Math", "Random"}: {
			Pattern: "Math.random()",
			Inline:  true,
		},
		{"System.Math", "Minimum"}: {
			Pattern: "Math.min({values})",
			Extract: []string{"values"},
			Inline:  true,
		},
		{"System.Math", "Maximum"}: {
			Pattern: "Math.max({values})",
			Extract: []string{"values"},
			Inline:  true,
		},
		{"System.Math", "AbsoluteValue"}: {
			Pattern: "Math.abs({value})",
			Extract: []string{"value"},
			Inline:  true,
		},
		{"System.Math", "Round"}: {
			Pattern: "Math.round({value})",
			Extract: []string{"value"},
			Inline:  true,
		},
		{"System.Math", "Floor"}: {
			Pattern: "Math.floor({value})",
			Extract: []string{"value"},
			Inline:  true,
		},
		{"System.Math", "Ceiling"}: {
			Pattern: "Math.ceil({value})",
			Extract: []string{"value"},
			Inline:  true,
		},

		{"System.String", "Concatenate"}: {
			Pattern: "({values}.join(''))",
			Extract: []string{"values"},
			Inline:  true,
		},
		{"System.String", "Split"}: {
			Pattern: "{source}.split({searchString})",
			Extract: []string{"source", "searchString"},
			Inline:  true,
		},
		{"System.String", "Length"}: {
			Pattern: "{source}.length",
			Extract: []string{"source"},
			Inline:  true,
		},
		{"System.String", "Substring"}: {
			Pattern: "{source}.substring({start}, {end})",
			Extract: []string{"source", "start", "end"},
			Inline:  true,
		},
		{"System.String", "ToUpperCase"}: {
			Pattern: "{source}.toUpperCase()",
			Extract: []string{"source"},
			Inline:  true,
		},
		{"System.String", "ToLowerCase"}: {
			Pattern: "{source}.toLowerCase()",
			Extract: []string{"source"},
			Inline:  true,
		},
		{"System.String", "Trim"}: {
			Pattern: "{source}.trim()",
			Extract: []string{"source"},
			Inline:  true,
		},
		{"System.String", "Replace"}: {
			Pattern: "{source}.replace({searchString}, {replacement})",
			Extract: []string{"source", "searchString", "replacement"},
			Inline:  true,
		},
		{"System.String", "IndexOf"}: {
			Pattern: "{source}.indexOf({searchString})",
			Extract: []string{"source", "searchString"},
			Inline:  true,
		},

		{"System.Array", "Size"}: {
			Pattern: "{source}.length",
			Extract: []string{"source"},
			Inline:  true,
		},
		{"System.Array", "AddFirst"}: {
			Pattern: "{source}.unshift({element});",
			Extract: []string{"source", "element"},
		},
		{"System.Array", "InsertLast"}: {
			Pattern: "{source}.push({element});",
			Extract: []string{"source", "element"},
		},
		{"System.Array", "DeleteFirst"}: {
			Pattern: "{source}.shift();",
			Extract: []string{"source"},
		},
		{"System.Array", "DeleteLast"}: {
			Pattern: "{source}.pop();",
			Extract: []string{"source"},
		},
		{"System.Array", "IndexOf"}: {
			Pattern: "{source}.indexOf({element})",
			Extract: []string{"source", "element"},
			Inline:  true,
		},
		{"System.Array", "Join"}: {
			Pattern: "{source}.join({delimiter})",
			Extract: []string{"source", "delimiter"},
			Inline:  true,
		},
		{"System.Array", "Reverse"}: {
			Pattern: "{source}.reverse()",
			Extract: []string{"source"},
			Inline:  true,
		},
		{"System.Array", "Sort"}: {
			Pattern: "{source}.sort()",
			Extract: []string{"source"},
			Inline:  true,
		},
		{"System.Array", "Concatenate"}: {
			Pattern: "{source}.concat({secondSource})",
			Extract: []string{"source", "secondSource"},
			Inline:  true,
		},
		{"System.Array", "SubArray"}: {
			Pattern: "{source}.slice({start}, {end})",
			Extract: []string{"source", "start", "end"},
			Inline:  true,
		},

		{"System.Object", "Keys"}: {
			Pattern: "Object.keys({source})",
			Extract: []string{"source"},
			Inline:  true,
		},
		{"System.Object", "Values"}: {
			Pattern: "Object.values({source})",
			Extract: []string{"source"},
			Inline:  true,
		},
		{"System.Object", "Entries"}: {
			Pattern: "Object.entries({source})",
			Extract: []string{"source"},
			Inline:  true,
		},

		{"System.Context", "Create"}: {
			Pattern: "// Context.create({name})",
			Extract: []string{"name"},
		},
		{"System.Context", "Get"}: {
			Pattern: "Context.{name}",
			Extract: []string{"name"},
			Inline:  true,
		},
		{"System.Context", "Set"}: {
			Pattern: "Context.{name} = {value};",
			Extract: []string{"name", "value"},
		},
	}
}
