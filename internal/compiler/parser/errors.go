// Package parser turns expression source text into AST nodes. It drives the
// grammar engine over the whole program and lowers each top-level expression
// of the resulting parse tree into an ast.ExprNode.
package parser

import (
	"fmt"

	"github.com/tsparse/tsparse/internal/compiler/grammar"
)

// DefectError signals that the grammar produced something the AST builder
// has no lowering for. It is raised with panic: it means the grammar and the
// builder disagree, never that the user's input is wrong.
type DefectError struct {
	Rule    grammar.Rule
	Text    string
	Message string
}

// Error implements the error interface
func (e *DefectError) Error() string {
	return fmt.Sprintf("internal parser error: %s (rule %s, text %q); this is a bug, please report it",
		e.Message, e.Rule, e.Text)
}

func defect(n *grammar.Node, format string, args ...any) *DefectError {
	return &DefectError{
		Rule:    n.Rule,
		Text:    n.Text(),
		Message: fmt.Sprintf(format, args...),
	}
}
