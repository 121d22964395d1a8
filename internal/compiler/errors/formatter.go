package errors

import (
	"fmt"
	"strings"
)

// FormatError returns a human-readable error message for terminal output
func FormatError(e *CompilerError) string {
	var b strings.Builder

	file := e.File
	if file == "" {
		file = "<source>"
	}

	fmt.Fprintf(&b, "%s %s in %s\n", severityIcon(e.Severity), categoryDisplayName(e.Category), file)
	fmt.Fprintf(&b, "Line %d, Column %d:\n", e.Location.Line, e.Location.Column)

	if e.Context != nil && len(e.Context.SourceLines) > 0 {
		for i, line := range e.Context.SourceLines {
			lineNum := e.Context.FirstLine + i
			fmt.Fprintf(&b, "%s  %s\n", formatLineNumber(lineNum), line)
			if lineNum == e.Location.Line {
				fmt.Fprintf(&b, "    |  %s%s %s\n", strings.Repeat(" ", e.Location.Column-1), caret(e), e.Message)
			}
		}
	} else {
		fmt.Fprintf(&b, "  %s\n", e.Message)
	}

	if e.Expected != "" || e.Actual != "" {
		b.WriteString("\n")
		if e.Expected != "" {
			fmt.Fprintf(&b, "  Expected: %s\n", e.Expected)
		}
		if e.Actual != "" {
			fmt.Fprintf(&b, "  Actual:   %s\n", e.Actual)
		}
	}

	if e.Suggestion != "" {
		fmt.Fprintf(&b, "\n💡 %s\n", e.Suggestion)
	}

	if len(e.Examples) > 0 {
		b.WriteString("\nExamples:\n")
		for i, example := range e.Examples {
			fmt.Fprintf(&b, "  %d. %s\n", i+1, example)
		}
	}

	return b.String()
}

// caret underlines the offending token, or marks a single column at the end
// of input.
func caret(e *CompilerError) string {
	return strings.Repeat("^", max(e.Length, 1))
}

// FormatErrorList returns a formatted string of all errors
func FormatErrorList(errors ErrorList) string {
	if len(errors) == 0 {
		return "no errors"
	}

	var b strings.Builder

	errCount, warnCount, infoCount := errors.ErrorCount()
	fmt.Fprintf(&b, "Parsing failed with %d error(s), %d warning(s), %d info\n\n",
		errCount, warnCount, infoCount)

	for i, err := range errors {
		if i > 0 {
			b.WriteString("\n" + strings.Repeat("-", 80) + "\n\n")
		}
		b.WriteString(err.Format())
	}

	return b.String()
}

// FormatCompact returns a compact one-line error format
func FormatCompact(e *CompilerError) string {
	file := e.File
	if file == "" {
		file = "<source>"
	}
	msg := fmt.Sprintf("%s:%d:%d: %s: %s", file, e.Location.Line, e.Location.Column, e.Severity, e.Message)
	if e.Expected != "" {
		msg += ", expected " + e.Expected
	}
	if e.Code != "" {
		msg += " [" + string(e.Code) + "]"
	}
	return msg
}

// severityIcon returns the emoji/icon for a severity level
func severityIcon(severity ErrorSeverity) string {
	switch severity {
	case SeverityError:
		return "❌"
	case SeverityWarning:
		return "⚠️ "
	case SeverityInfo:
		return "ℹ️ "
	default:
		return "❓"
	}
}

// categoryDisplayName returns a human-readable category name
func categoryDisplayName(category ErrorCategory) string {
	switch category {
	case CategorySyntax:
		return "Syntax Error"
	default:
		return "Error"
	}
}

func formatLineNumber(lineNum int) string {
	return fmt.Sprintf("%3d |", lineNum)
}
