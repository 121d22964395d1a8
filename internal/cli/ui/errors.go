package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/tsparse/tsparse/internal/compiler/errors"
)

// ErrorLevel represents the severity of a message
type ErrorLevel int

const (
	ErrorLevelError ErrorLevel = iota
	ErrorLevelWarning
	ErrorLevelInfo
)

// ErrorOptions configures the error message formatting
type ErrorOptions struct {
	Level        ErrorLevel
	Context      string
	Problem      string
	Suggestions  []string
	HelpCommands []string
	NoColor      bool
}

// palette returns a color that honours noColor
func palette(noColor bool, attrs ...color.Attribute) *color.Color {
	c := color.New(attrs...)
	if noColor {
		c.DisableColor()
	}
	return c
}

// FormatError creates a standardized message with suggestions and help commands
//
// Example output:
//
//	❌ CONFIGURATION ERROR: output.format must be one of debug, sexpr, json, got "jsno"
//
//	   Did you mean: json?
//
//	   → Get help: tsparse parse --help
func FormatError(opts ErrorOptions) string {
	var b strings.Builder

	var header *color.Color
	var symbol string
	switch opts.Level {
	case ErrorLevelWarning:
		header = palette(opts.NoColor, color.FgYellow, color.Bold)
		symbol = "⚠️"
	case ErrorLevelInfo:
		header = palette(opts.NoColor, color.FgCyan, color.Bold)
		symbol = "ℹ️"
	default:
		header = palette(opts.NoColor, color.FgRed, color.Bold)
		symbol = "❌"
	}

	if opts.Context != "" {
		header.Fprintf(&b, "%s %s: %s\n", symbol, strings.ToUpper(opts.Context), opts.Problem)
	} else {
		header.Fprintf(&b, "%s %s\n", symbol, opts.Problem)
	}

	if len(opts.Suggestions) > 0 {
		b.WriteString("\n")
		palette(opts.NoColor, color.FgYellow).Fprintf(&b, "   Did you mean: %s?\n", strings.Join(opts.Suggestions, ", "))
	}

	if len(opts.HelpCommands) > 0 {
		b.WriteString("\n")
		cyan := palette(opts.NoColor, color.FgCyan)
		for _, cmd := range opts.HelpCommands {
			cyan.Fprintf(&b, "   → %s\n", cmd)
		}
	}

	return b.String()
}

// WriteError writes a formatted error message to the writer
func WriteError(w io.Writer, opts ErrorOptions) {
	fmt.Fprint(w, FormatError(opts))
}

// FormatSuccess creates a success message
func FormatSuccess(message string, noColor bool) string {
	return palette(noColor, color.FgGreen, color.Bold).Sprintf("✓ %s", message)
}

// WriteSuccess writes a success message to the writer
func WriteSuccess(w io.Writer, message string, noColor bool) {
	fmt.Fprintln(w, FormatSuccess(message, noColor))
}

// InvalidValue reports a flag or setting outside its allowed set, suggesting
// the closest allowed values.
func InvalidValue(key, value string, allowed []string, help string, noColor bool) string {
	opts := ErrorOptions{
		Level:       ErrorLevelError,
		Context:     "invalid " + key,
		Problem:     fmt.Sprintf("%q is not one of %s", value, strings.Join(allowed, ", ")),
		Suggestions: FindSimilar(value, allowed, nil),
		NoColor:     noColor,
	}
	if help != "" {
		opts.HelpCommands = []string{"Get help: " + help}
	}
	return FormatError(opts)
}

// Diagnostic renders a parse diagnostic with its source context. The
// offending span is underlined and the suggestion, if any, follows.
//
//	❌ Syntax Error in input.ts [SYN002]
//	  1 |  1 +
//	    |     ^ Unexpected end of input
//
//	   Expected: factor
//	   💡 An operator must be followed by an operand
func Diagnostic(e *errors.CompilerError, noColor bool) string {
	var b strings.Builder

	red := palette(noColor, color.FgRed, color.Bold)
	gray := palette(noColor, color.FgHiBlack)
	yellow := palette(noColor, color.FgYellow)

	file := e.File
	if file == "" {
		file = "<source>"
	}
	red.Fprintf(&b, "❌ Syntax Error in %s [%s]\n", file, e.Code)

	if e.Context != nil && len(e.Context.SourceLines) > 0 {
		for i, line := range e.Context.SourceLines {
			n := e.Context.FirstLine + i
			gray.Fprintf(&b, "%3d | ", n)
			fmt.Fprintf(&b, " %s\n", line)
			if n == e.Location.Line {
				gray.Fprint(&b, "    | ")
				red.Fprintf(&b, " %s%s %s\n",
					strings.Repeat(" ", e.Location.Column-1),
					strings.Repeat("^", max(e.Length, 1)),
					e.Message)
			}
		}
	} else {
		fmt.Fprintf(&b, "%d:%d: %s\n", e.Location.Line, e.Location.Column, e.Message)
	}

	if e.Expected != "" {
		fmt.Fprintf(&b, "\n   Expected: %s\n", e.Expected)
	}
	if e.Suggestion != "" {
		yellow.Fprintf(&b, "   💡 %s\n", e.Suggestion)
		for _, ex := range e.Examples {
			gray.Fprintf(&b, "      %s\n", ex)
		}
	}

	return b.String()
}
