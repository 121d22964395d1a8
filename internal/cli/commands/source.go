package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/tsparse/tsparse/internal/compiler/grammar"
	"github.com/tsparse/tsparse/internal/compiler/parser"
)

// stdinName is the file argument that reads standard input
const stdinName = "-"

// newParser builds a parser for the grammar at path, or for the configured
// grammar when path is empty. With neither set the embedded grammar is used.
func (e *env) newParser(path string) (*parser.Parser, error) {
	if path == "" {
		path = e.cfg.Grammar
	}

	opts := []parser.Option{parser.WithLogger(e.logger)}
	if path != "" {
		g, err := loadGrammar(path)
		if err != nil {
			return nil, err
		}
		opts = append(opts, parser.WithGrammar(g))
	}

	p, err := parser.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("grammar %s: %w", path, err)
	}
	return p, nil
}

func loadGrammar(path string) (*grammar.Grammar, error) {
	text, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read grammar: %w", err)
	}
	g, err := grammar.Load(path, string(text))
	if err != nil {
		return nil, fmt.Errorf("failed to load grammar: %w", err)
	}
	return g, nil
}

// readSource reads path, or the command's input for "-". The returned name
// labels diagnostics.
func readSource(cmd *cobra.Command, path string) (name, source string, err error) {
	if path == stdinName {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return "<stdin>", string(data), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", "", fmt.Errorf("failed to read input: %w", err)
	}
	return path, string(data), nil
}
