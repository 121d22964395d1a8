// Package docs generates reference documentation for a grammar: the
// categories it produces, the operators it recognizes and how sample
// expressions group under it. Output is Markdown or standalone HTML.
package docs

// Format represents a documentation output format
type Format string

const (
	// FormatMarkdown generates a Markdown reference
	FormatMarkdown Format = "markdown"

	// FormatHTML generates a standalone HTML page
	FormatHTML Format = "html"
)

// Formats lists the supported output formats
var Formats = []Format{FormatMarkdown, FormatHTML}

// Reference is everything extracted from one grammar
type Reference struct {
	// Grammar is the grammar's name
	Grammar string `json:"grammar"`

	// Source is the grammar text
	Source string `json:"source"`

	// Rules lists the categories the grammar produces, in declaration order
	Rules []*RuleDoc `json:"rules"`

	// Operators lists the operators the grammar can produce
	Operators []*OperatorDoc `json:"operators"`

	// Examples shows how sample programs parse
	Examples []*ExampleDoc `json:"examples"`
}

// RuleDoc describes one category
type RuleDoc struct {
	Name string `json:"name"`
	// Kind is "operator", "literal" or "structure"
	Kind string `json:"kind"`
}

// OperatorDoc describes one operator
type OperatorDoc struct {
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
	Rule   string `json:"rule"`
	// Arity is "unary", "binary" or "unary, binary"
	Arity string `json:"arity"`
	// Example is a short program using the operator
	Example string `json:"example"`
	// Tree is the S-expression Example parses to
	Tree string `json:"tree"`
}

// ExampleDoc pairs a program with its parse
type ExampleDoc struct {
	Source string `json:"source"`
	// Trees holds one S-expression per top-level expression
	Trees []string `json:"trees,omitempty"`
	// Error is the diagnostic for a program the grammar rejects
	Error string `json:"error,omitempty"`
}
