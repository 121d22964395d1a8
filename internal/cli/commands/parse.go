package commands

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"slices"
	"sort"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tsparse/tsparse/internal/cli/config"
	"github.com/tsparse/tsparse/internal/cli/ui"
	"github.com/tsparse/tsparse/internal/compiler/ast"
	"github.com/tsparse/tsparse/internal/compiler/errors"
	"github.com/tsparse/tsparse/internal/compiler/grammar"
)

type parseOptions struct {
	format  string
	grammar string
	stats   bool
}

func newParseCommand(e *env) *cobra.Command {
	opts := &parseOptions{}

	cmd := &cobra.Command{
		Use:   "parse [file]",
		Short: "Parse a file and print its syntax tree",
		Long: `Parse a file and print one syntax tree per top-level expression.

Formats:
  debug   every node with its type and fields (default)
  sexpr   one S-expression per line, e.g. (+ 1 (group (* 2 3)))
  json    a JSON array of nodes

Without a file the configured input is parsed; "-" reads standard input.`,
		Example: `  tsparse parse test.ts
  echo "1 + 2 * 3" | tsparse parse --format sexpr -
  tsparse parse --stats --grammar custom.peg input.ts`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParse(cmd, e, opts, args)
		},
	}

	cmd.Flags().StringVarP(&opts.format, "format", "f", "", "output format: debug, sexpr, json (default from config)")
	cmd.Flags().StringVar(&opts.grammar, "grammar", "", "grammar file to parse with instead of the configured one")
	cmd.Flags().BoolVar(&opts.stats, "stats", false, "print node statistics to stderr")

	return cmd
}

func runParse(cmd *cobra.Command, e *env, opts *parseOptions, args []string) error {
	format := opts.format
	if format == "" {
		format = e.cfg.Output.Format
	}
	if !slices.Contains(config.Formats, format) {
		fmt.Fprint(cmd.ErrOrStderr(), ui.InvalidValue("--format", format, config.Formats, "tsparse parse --help", e.noColor))
		return reported("invalid format %q", format)
	}

	path := e.cfg.Input
	if len(args) > 0 {
		path = args[0]
	}

	p, err := e.newParser(opts.grammar)
	if err != nil {
		return err
	}

	name, source, err := readSource(cmd, path)
	if err != nil {
		return err
	}

	start := time.Now()
	exprs, err := p.Parse(source)
	elapsed := time.Since(start)

	var failure *grammar.Failure
	if stderrors.As(err, &failure) {
		fmt.Fprint(cmd.ErrOrStderr(), ui.Diagnostic(errors.FromFailure(failure).WithFile(name), e.noColor))
		return reported("%s: parse failed", name)
	}
	if err != nil {
		return err
	}

	e.logger.Debug("parsed input",
		zap.String("file", name),
		zap.Int("expressions", len(exprs)),
		zap.Duration("duration", elapsed))

	if err := writeExprs(cmd.OutOrStdout(), format, exprs); err != nil {
		return err
	}

	if opts.stats {
		writeStats(cmd.ErrOrStderr(), exprs, elapsed, e.noColor)
	}
	return nil
}

func writeExprs(w io.Writer, format string, exprs []ast.ExprNode) error {
	switch format {
	case "sexpr":
		_, err := io.WriteString(w, ast.Sprint(exprs))
		return err
	case "json":
		data, err := json.MarshalIndent(exprs, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode syntax tree: %w", err)
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	default:
		ast.Dump(w, exprs)
		return nil
	}
}

// writeStats summarises the trees: node count, deepest tree and how often
// each operator occurs.
func writeStats(w io.Writer, exprs []ast.ExprNode, elapsed time.Duration, noColor bool) {
	nodes, depth := 0, 0
	operators := make(map[ast.Operator]int)

	for _, e := range exprs {
		depth = max(depth, ast.Depth(e))
		ast.Inspect(e, func(n ast.ExprNode) bool {
			nodes++
			switch n := n.(type) {
			case *ast.BinaryExpr:
				operators[n.Operator]++
			case *ast.UnaryExpr:
				operators[n.Operator]++
			}
			return true
		})
	}

	kv := ui.NewKeyValueTable(w, noColor)
	kv.AddRow("Expressions", strconv.Itoa(len(exprs)))
	kv.AddRow("Nodes", strconv.Itoa(nodes))
	kv.AddRow("Max depth", strconv.Itoa(depth))
	kv.AddRow("Parse time", elapsed.Round(time.Microsecond).String())
	kv.Render()

	if len(operators) == 0 {
		return
	}

	ops := make([]ast.Operator, 0, len(operators))
	for op := range operators {
		ops = append(ops, op)
	}
	sort.Slice(ops, func(i, j int) bool { return ops[i] < ops[j] })

	fmt.Fprintln(w)
	table := ui.NewTable(w, noColor, "OPERATOR", "NAME", "COUNT")
	for _, op := range ops {
		table.AddRow(op.String(), op.Name(), strconv.Itoa(operators[op]))
	}
	table.Render()
}
