package errors

import (
	"encoding/json"
	stderrors "errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tsparse/tsparse/internal/compiler/grammar"
	"github.com/tsparse/tsparse/internal/compiler/parser"
)

func failureFor(t *testing.T, source string) *grammar.Failure {
	t.Helper()

	_, err := parser.Parse(source)
	require.Error(t, err)

	var failure *grammar.Failure
	require.True(t, stderrors.As(err, &failure))
	return failure
}

func TestFromFailureUnexpectedEnd(t *testing.T) {
	e := FromFailure(failureFor(t, "1 +"))

	assert.Equal(t, ErrUnexpectedEnd, e.Code)
	assert.Equal(t, "unexpected_end", e.Type)
	assert.Equal(t, CategorySyntax, e.Category)
	assert.Equal(t, SeverityError, e.Severity)
	assert.Equal(t, "Unexpected end of input", e.Message)
	assert.Equal(t, grammar.Position{Offset: 3, Line: 1, Column: 4}, e.Location)
	assert.Equal(t, 0, e.Length)
	assert.Equal(t, "factor", e.Expected)
	assert.Equal(t, "end of input", e.Actual)
	assert.Equal(t, "An operator must be followed by an operand", e.Suggestion)

	require.NotNil(t, e.Context)
	assert.Equal(t, "1 +", e.Context.Current)
	assert.Equal(t, 1, e.Context.FirstLine)
	assert.Equal(t, []string{"1 +"}, e.Context.SourceLines)
}

func TestFromFailureUnexpectedInput(t *testing.T) {
	e := FromFailure(failureFor(t, "1\n2 $\n3\n4"))

	assert.Equal(t, ErrUnexpectedInput, e.Code)
	assert.Equal(t, `Unexpected "$"`, e.Message)
	assert.Equal(t, `"$"`, e.Actual)
	assert.Equal(t, 1, e.Length)
	assert.Equal(t, 2, e.Location.Line)
	assert.Equal(t, 3, e.Location.Column)
	assert.Contains(t, e.Expected, "expression")

	require.NotNil(t, e.Context)
	assert.Equal(t, "2 $", e.Context.Current)
	assert.Equal(t, 1, e.Context.FirstLine)
	assert.Equal(t, []string{"1", "2 $", "3"}, e.Context.SourceLines)
	assert.NotEmpty(t, e.Suggestion)
}

func TestFromFailureUnclosedGrouping(t *testing.T) {
	e := FromFailure(failureFor(t, "(1 + 2"))

	assert.Equal(t, ErrUnexpectedEnd, e.Code)
	assert.Contains(t, e.Expected, `")"`)
	assert.Equal(t, "Close the parenthesized expression with ')'", e.Suggestion)
	assert.Equal(t, []string{"(1 + 2) * 3"}, e.Examples)
}

func TestSourceContext(t *testing.T) {
	tests := []struct {
		input string
		line  int
		first int
		lines []string
	}{
		{"only", 1, 1, []string{"only"}},
		{"a\nb\nc\nd", 1, 1, []string{"a", "b"}},
		{"a\nb\nc\nd", 3, 2, []string{"b", "c", "d"}},
		{"a\nb\nc\nd", 4, 3, []string{"c", "d"}},
		{"a\r\nb\r\n", 3, 2, []string{"b", ""}},
		{"a", 5, 1, []string{"a"}},
	}

	for _, tt := range tests {
		first, lines := sourceContext(tt.input, tt.line)
		assert.Equal(t, tt.first, first, "%q line %d", tt.input, tt.line)
		assert.Equal(t, tt.lines, lines, "%q line %d", tt.input, tt.line)
	}
}

func TestErrorFormatting(t *testing.T) {
	e := FromFailure(failureFor(t, "1 +")).WithFile("test.ts")
	out := e.Format()

	assert.Contains(t, out, "❌ Syntax Error in test.ts")
	assert.Contains(t, out, "Line 1, Column 4:")
	assert.Contains(t, out, "  1 |  1 +\n")
	assert.Contains(t, out, "    |     ^ Unexpected end of input\n")
	assert.Contains(t, out, "Expected: factor")
	assert.Contains(t, out, "Actual:   end of input")
	assert.Contains(t, out, "💡 An operator must be followed by an operand")
	assert.Contains(t, out, "1. 1 + 2")

	// The caret spans the offending token.
	out = FromFailure(failureFor(t, "1 + 2 ) 3")).Format()
	assert.Contains(t, out, "    |        ^ Unexpected \")\"\n")

	// Length counts characters, not bytes.
	e = FromFailure(failureFor(t, "1 + éé"))
	assert.Equal(t, 2, e.Length)
	assert.Contains(t, e.Format(), "    |      ^^ Unexpected \"éé\"\n")
}

func TestFormatCompact(t *testing.T) {
	e := FromFailure(failureFor(t, "1 +"))
	assert.Equal(t, "<source>:1:4: error: Unexpected end of input, expected factor [SYN002]", e.Error())

	e.WithFile("a.ts")
	assert.True(t, strings.HasPrefix(e.Error(), "a.ts:1:4: "))
}

func TestErrorJSONSerialization(t *testing.T) {
	e := FromFailure(failureFor(t, "1 +")).WithFile("test.ts")

	out, err := e.ToJSON()
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, "SYN002", decoded["code"])
	assert.Equal(t, "syntax", decoded["category"])
	assert.Equal(t, "test.ts", decoded["file"])
	assert.Equal(t, map[string]any{"offset": 3.0, "line": 1.0, "column": 4.0}, decoded["location"])
	assert.NotContains(t, decoded, "documentation")
}

func TestErrorList(t *testing.T) {
	var empty ErrorList
	assert.Equal(t, "no errors", empty.Error())
	assert.False(t, empty.HasErrors())

	list := ErrorList{
		FromFailure(failureFor(t, "1 +")),
		FromFailure(failureFor(t, "(")),
	}
	list = append(list, &CompilerError{Severity: SeverityWarning, Message: "w"})

	assert.True(t, list.HasErrors())
	errs, warnings, info := list.ErrorCount()
	assert.Equal(t, 2, errs)
	assert.Equal(t, 1, warnings)
	assert.Equal(t, 0, info)

	out := list.Error()
	assert.True(t, strings.HasPrefix(out, "Parsing failed with 2 error(s), 1 warning(s), 0 info\n\n"))
	assert.Contains(t, out, strings.Repeat("-", 80))

	js, err := list.ToJSON()
	require.NoError(t, err)
	var decoded []map[string]any
	require.NoError(t, json.Unmarshal([]byte(js), &decoded))
	assert.Len(t, decoded, 3)
}

func TestWithMethods(t *testing.T) {
	e := NewUnexpectedInput(grammar.Position{Line: 1, Column: 1}, `"x"`, "expression").
		WithSuggestion("remove it").
		WithExamples("1", "2")

	assert.Equal(t, "expression", e.Expected)
	assert.Equal(t, `"x"`, e.Actual)
	assert.Equal(t, "remove it", e.Suggestion)
	assert.Equal(t, []string{"1", "2"}, e.Examples)
	assert.Nil(t, e.Context)

	out := e.Format()
	assert.Contains(t, out, "  Unexpected \"x\"\n")
}
