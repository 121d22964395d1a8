// Package format prints expression programs in canonical form: one
// expression per line, single spaces around binary operators, prefix
// operators attached to their operand and parentheses kept where written.
// Formatting never changes the syntax tree a program parses to.
package format

import (
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/tsparse/tsparse/internal/compiler/ast"
	"github.com/tsparse/tsparse/internal/compiler/parser"
)

// Formatter formats source code
type Formatter struct {
	config *Config
	parser *parser.Parser
}

// New creates a formatter that parses with p. A nil config uses DefaultConfig.
func New(p *parser.Parser, config *Config) *Formatter {
	if config == nil {
		config = DefaultConfig()
	}
	return &Formatter{config: config, parser: p}
}

// Format parses source and returns it formatted. A parse failure is
// returned as the parser's error.
func (f *Formatter) Format(source string) (string, error) {
	exprs, err := f.parser.Parse(source)
	if err != nil {
		return "", err
	}
	return f.FormatExprs(exprs)
}

// FormatFile formats the file at path
func FormatFile(f *Formatter, path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}
	return f.Format(string(content))
}

// FormatExprs renders exprs one per line
func (f *Formatter) FormatExprs(exprs []ast.ExprNode) (string, error) {
	var b strings.Builder
	for _, e := range exprs {
		if err := checkPrintable(e); err != nil {
			return "", err
		}
		b.WriteString(f.expr(e))
		b.WriteByte('\n')
	}
	return b.String(), nil
}

// checkPrintable rejects numbers that have no literal form
func checkPrintable(e ast.ExprNode) error {
	var err error
	ast.Inspect(e, func(n ast.ExprNode) bool {
		if num, ok := n.(*ast.NumberLiteral); ok && (math.IsInf(num.Value, 0) || math.IsNaN(num.Value)) {
			err = fmt.Errorf("number literal out of range in %s", e)
		}
		return err == nil
	})
	return err
}

// expr renders e on one line, or wraps its outermost operator chain when
// the line would exceed the configured width.
func (f *Formatter) expr(e ast.ExprNode) string {
	flat := Expr(e)
	b, ok := e.(*ast.BinaryExpr)
	if !ok || f.config.LineWidth == 0 || len(flat) <= f.config.LineWidth {
		return flat
	}

	first, links := chain(b)
	indent := strings.Repeat(" ", f.config.IndentSize)

	var out strings.Builder
	out.WriteString(Expr(first))
	for _, l := range links {
		fmt.Fprintf(&out, "\n%s%s %s", indent, l.op, Expr(l.operand))
	}
	return out.String()
}

type link struct {
	op      ast.Operator
	operand ast.ExprNode
}

// chain unfolds a left-nested run of operators of one precedence level,
// so "a + b - c" yields a and [(+ b) (- c)].
func chain(b *ast.BinaryExpr) (ast.ExprNode, []link) {
	level := precedence(b.Operator)

	var links []link
	var cur ast.ExprNode = b
	for {
		bin, ok := cur.(*ast.BinaryExpr)
		if !ok || precedence(bin.Operator) != level {
			break
		}
		links = append(links, link{bin.Operator, bin.Right})
		cur = bin.Left
	}

	for i, j := 0, len(links)-1; i < j; i, j = i+1, j-1 {
		links[i], links[j] = links[j], links[i]
	}
	return cur, links
}

func precedence(op ast.Operator) int {
	switch op {
	case ast.OpNotEqual, ast.OpDoubleEqual, ast.OpTripleEqual:
		return 1
	case ast.OpGreaterThan, ast.OpGreaterThanEqual, ast.OpLessThan, ast.OpLessThanEqual:
		return 2
	case ast.OpMinus, ast.OpPlus:
		return 3
	case ast.OpMultiply, ast.OpDivide:
		return 4
	}
	return 0
}

// Expr renders e as source text on a single line
func Expr(e ast.ExprNode) string {
	switch e := e.(type) {
	case *ast.BinaryExpr:
		return Expr(e.Left) + " " + e.Operator.String() + " " + Expr(e.Right)
	case *ast.UnaryExpr:
		return e.Operator.String() + Expr(e.Right)
	case *ast.GroupingExpr:
		return "(" + Expr(e.Inner) + ")"
	case nil:
		return ""
	default:
		return e.String()
	}
}
