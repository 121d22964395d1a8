package ast

import (
	"io"
	"strings"

	"github.com/alecthomas/repr"
)

// Sprint renders each expression as an S-expression on its own line.
func Sprint(exprs []ExprNode) string {
	var b strings.Builder
	for _, e := range exprs {
		b.WriteString(e.String())
		b.WriteByte('\n')
	}
	return b.String()
}

// Dump writes a Go-syntax, indented rendering of the expressions to w,
// showing every node type and field.
func Dump(w io.Writer, exprs []ExprNode) {
	repr.New(w, repr.Indent("  "), repr.OmitEmpty(false)).Println(exprs)
}
