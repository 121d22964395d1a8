package ui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fatih/color"

	"github.com/tsparse/tsparse/internal/compiler/errors"
	"github.com/tsparse/tsparse/internal/compiler/grammar"
)

func TestFormatError(t *testing.T) {
	color.NoColor = true
	defer func() { color.NoColor = false }()

	tests := []struct {
		name     string
		opts     ErrorOptions
		contains []string
	}{
		{
			name: "basic error",
			opts: ErrorOptions{
				Level:   ErrorLevelError,
				Context: "configuration error",
				Problem: "serve.addr must not be empty",
			},
			contains: []string{"❌", "CONFIGURATION ERROR: serve.addr must not be empty"},
		},
		{
			name: "error with suggestions",
			opts: ErrorOptions{
				Problem:     "unknown format",
				Suggestions: []string{"json", "sexpr"},
			},
			contains: []string{"Did you mean: json, sexpr?"},
		},
		{
			name: "error with help commands",
			opts: ErrorOptions{
				Problem:      "no input",
				HelpCommands: []string{"Get help: tsparse parse --help"},
			},
			contains: []string{"→ Get help: tsparse parse --help"},
		},
		{
			name:     "warning message",
			opts:     ErrorOptions{Level: ErrorLevelWarning, Problem: "no files matched"},
			contains: []string{"⚠️", "no files matched"},
		},
		{
			name:     "info message",
			opts:     ErrorOptions{Level: ErrorLevelInfo, Problem: "watching 3 files"},
			contains: []string{"ℹ️", "watching 3 files"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := FormatError(tt.opts)

			for _, expected := range tt.contains {
				if !strings.Contains(result, expected) {
					t.Errorf("FormatError() output missing expected string:\nExpected to contain: %q\nGot: %q", expected, result)
				}
			}
		})
	}
}

func TestInvalidValue(t *testing.T) {
	result := InvalidValue("--format", "jsno", []string{"debug", "sexpr", "json"}, "tsparse parse --help", true)

	for _, expected := range []string{
		"INVALID --FORMAT",
		`"jsno" is not one of debug, sexpr, json`,
		"Did you mean: json?",
		"→ Get help: tsparse parse --help",
	} {
		if !strings.Contains(result, expected) {
			t.Errorf("expected %q in:\n%s", expected, result)
		}
	}

	result = InvalidValue("--format", "xml", []string{"debug", "sexpr", "json"}, "", true)
	if strings.Contains(result, "Did you mean") {
		t.Errorf("expected no suggestion for a distant value, got:\n%s", result)
	}
}

func TestWriteSuccess(t *testing.T) {
	var buf bytes.Buffer
	WriteSuccess(&buf, "3 files parsed", true)

	if buf.String() != "✓ 3 files parsed\n" {
		t.Errorf("unexpected output %q", buf.String())
	}
}

func TestDiagnostic(t *testing.T) {
	_, err := grammar.Default().Parse(grammar.RuleProgram, "1 +")
	failure, ok := err.(*grammar.Failure)
	if !ok {
		t.Fatalf("expected *grammar.Failure, got %T", err)
	}

	result := Diagnostic(errors.FromFailure(failure).WithFile("input.ts"), true)

	for _, expected := range []string{
		"❌ Syntax Error in input.ts [SYN002]",
		"  1 |  1 +",
		"    |     ^ Unexpected end of input",
		"Expected: factor",
		"💡 An operator must be followed by an operand",
	} {
		if !strings.Contains(result, expected) {
			t.Errorf("expected %q in:\n%s", expected, result)
		}
	}
}

func TestDiagnosticUnderlinesToken(t *testing.T) {
	_, err := grammar.Default().Parse(grammar.RuleProgram, "1\n2 $$\n3")
	failure := err.(*grammar.Failure)

	result := Diagnostic(errors.FromFailure(failure), true)

	if !strings.Contains(result, "<source>") {
		t.Errorf("expected placeholder file name in:\n%s", result)
	}
	if !strings.Contains(result, "    |    ^ Unexpected") {
		t.Errorf("expected caret under column 3 in:\n%s", result)
	}
	if !strings.Contains(result, "  3 |  3") {
		t.Errorf("expected trailing context line in:\n%s", result)
	}
}
