package docs

import (
	"fmt"
	"io"
	"strings"
)

// WriteMarkdown renders ref as a Markdown document
func WriteMarkdown(w io.Writer, ref *Reference) error {
	var buf strings.Builder

	fmt.Fprintf(&buf, "# %s Grammar Reference\n\n", ref.Grammar)

	buf.WriteString("## Operators\n\n")
	if len(ref.Operators) == 0 {
		buf.WriteString("This grammar produces no operators.\n\n")
	} else {
		buf.WriteString("| Symbol | Name | Rule | Arity | Example | Parses to |\n")
		buf.WriteString("|--------|------|------|-------|---------|-----------|\n")
		for _, op := range ref.Operators {
			fmt.Fprintf(&buf, "| `%s` | %s | %s | %s | `%s` | %s |\n",
				op.Symbol, op.Name, op.Rule, op.Arity, op.Example, code(op.Tree))
		}
		buf.WriteString("\n")
	}

	buf.WriteString("## Categories\n\n")
	buf.WriteString("| Rule | Kind |\n")
	buf.WriteString("|------|------|\n")
	for _, r := range ref.Rules {
		fmt.Fprintf(&buf, "| %s | %s |\n", r.Name, r.Kind)
	}
	buf.WriteString("\n")

	buf.WriteString("## Examples\n\n")
	for _, ex := range ref.Examples {
		buf.WriteString("```\n")
		buf.WriteString(ex.Source + "\n")
		if ex.Error != "" {
			buf.WriteString("=> error: " + ex.Error + "\n")
		}
		for _, tree := range ex.Trees {
			buf.WriteString("=> " + tree + "\n")
		}
		buf.WriteString("```\n\n")
	}

	buf.WriteString("## Grammar\n\n")
	buf.WriteString("```peg\n")
	buf.WriteString(strings.TrimRight(ref.Source, "\n") + "\n")
	buf.WriteString("```\n")

	_, err := io.WriteString(w, buf.String())
	return err
}

func code(s string) string {
	if s == "" {
		return ""
	}
	return "`" + s + "`"
}
