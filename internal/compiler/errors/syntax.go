package errors

import (
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/tsparse/tsparse/internal/compiler/grammar"
)

// Syntax error codes (SYN001-099)
const (
	// ErrUnexpectedInput indicates input the grammar could not match
	ErrUnexpectedInput ErrorCode = "SYN001"
	// ErrUnexpectedEnd indicates the input ended in the middle of an expression
	ErrUnexpectedEnd ErrorCode = "SYN002"
)

// contextRadius is the number of lines shown on each side of the error line.
const contextRadius = 1

// operandRules are the categories that start an operand. A failure expecting
// one of them means an operator is missing its right-hand side.
var operandRules = []grammar.Rule{
	grammar.RuleExpression,
	grammar.RuleEquality,
	grammar.RuleComparison,
	grammar.RuleTerm,
	grammar.RuleFactor,
	grammar.RuleUnary,
}

// NewUnexpectedInput creates a SYN001 error
func NewUnexpectedInput(loc grammar.Position, found, expected string) *CompilerError {
	return newError(
		ErrUnexpectedInput,
		"unexpected_input",
		CategorySyntax,
		SeverityError,
		fmt.Sprintf("Unexpected %s", found),
		loc,
	).WithExpected(expected).WithActual(found)
}

// NewUnexpectedEnd creates a SYN002 error
func NewUnexpectedEnd(loc grammar.Position, expected string) *CompilerError {
	return newError(
		ErrUnexpectedEnd,
		"unexpected_end",
		CategorySyntax,
		SeverityError,
		"Unexpected end of input",
		loc,
	).WithExpected(expected).WithActual("end of input")
}

// FromFailure converts a parse failure into a diagnostic with source context
// and, where the failure has a recognizable shape, a suggestion.
func FromFailure(f *grammar.Failure) *CompilerError {
	var e *CompilerError
	if f.AtEnd() {
		e = NewUnexpectedEnd(f.Pos, f.ExpectedString())
	} else {
		e = NewUnexpectedInput(f.Pos, f.Found(), f.ExpectedString())
		e.Length = utf8.RuneCountInString(f.Token())
	}

	first, lines := sourceContext(f.Input, f.Pos.Line)
	e.WithContext(lines[f.Pos.Line-first], first, lines)

	suggest(e, f)
	return e
}

func suggest(e *CompilerError, f *grammar.Failure) {
	switch {
	case slices.Contains(f.Literals, ")"):
		e.WithSuggestion("Close the parenthesized expression with ')'").
			WithExamples("(1 + 2) * 3")

	case expectsOperand(f) && f.AtEnd():
		e.WithSuggestion("An operator must be followed by an operand").
			WithExamples("1 + 2", "-1", "!true")

	case expectsOperand(f):
		e.WithSuggestion("Expressions start with a number, a boolean, a prefix operator or '('").
			WithExamples("42", "true", "(1 + 2)")
	}
}

func expectsOperand(f *grammar.Failure) bool {
	for _, r := range operandRules {
		if f.Expects(r) {
			return true
		}
	}
	return false
}

// sourceContext returns the lines surrounding line (1-based) and the line
// number of the first one.
func sourceContext(input string, line int) (int, []string) {
	all := strings.Split(input, "\n")
	for i, l := range all {
		all[i] = strings.TrimSuffix(l, "\r")
	}

	if line > len(all) {
		line = len(all)
	}
	first := max(line-contextRadius, 1)
	last := min(line+contextRadius, len(all))

	return first, all[first-1 : last]
}
