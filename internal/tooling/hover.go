package tooling

import (
	"fmt"
	"strings"

	"github.com/tsparse/tsparse/internal/compiler/ast"
)

// buildHover describes an expression: its fully parenthesized form, the
// operator at its root and the shape of its tree.
func buildHover(e ast.ExprNode, r Range) *Hover {
	var content strings.Builder

	content.WriteString("```\n")
	content.WriteString(e.String())
	content.WriteString("\n```\n\n")

	kind, detail := classify(e)
	switch kind {
	case SymbolKindBinary:
		content.WriteString(fmt.Sprintf("**Binary** `%s` (%s)\n\n", e.(*ast.BinaryExpr).Operator, detail))
	case SymbolKindUnary:
		content.WriteString(fmt.Sprintf("**Unary** `%s` (%s)\n\n", e.(*ast.UnaryExpr).Operator, detail))
	default:
		content.WriteString(fmt.Sprintf("**%s**\n\n", detail))
	}

	nodes := 0
	ast.Inspect(e, func(ast.ExprNode) bool {
		nodes++
		return true
	})
	content.WriteString(fmt.Sprintf("---\n\n%d node(s), depth %d\n", nodes, ast.Depth(e)))

	return &Hover{
		Contents: content.String(),
		Range:    r,
	}
}
