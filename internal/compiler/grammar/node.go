package grammar

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Node is one match in a parse tree: the category that matched, the byte
// span of the input it covers, and the nodes its rule produced, in order.
type Node struct {
	Rule     Rule
	Start    int
	End      int
	Children []*Node

	input string
}

// Text returns the exact substring of the input the node matched.
func (n *Node) Text() string {
	return n.input[n.Start:n.End]
}

// Position returns the line and column where the match starts.
func (n *Node) Position() Position {
	return positionAt(n.input, n.Start)
}

// EndPosition returns the position just past the match, not counting any
// whitespace the rule skipped after its last token.
func (n *Node) EndPosition() Position {
	text := strings.TrimRightFunc(n.Text(), unicode.IsSpace)
	return positionAt(n.input, n.Start+len(text))
}

// String renders the subtree on one line, e.g. term(factor(...) plus factor(...)).
func (n *Node) String() string {
	var b strings.Builder
	n.write(&b)
	return b.String()
}

func (n *Node) write(b *strings.Builder) {
	b.WriteString(n.Rule.String())
	if len(n.Children) == 0 {
		fmt.Fprintf(b, "(%q)", n.Text())
		return
	}
	b.WriteByte('(')
	for i, child := range n.Children {
		if i > 0 {
			b.WriteByte(' ')
		}
		child.write(b)
	}
	b.WriteByte(')')
}

// Position is a location in source text. Line and Column are 1-based;
// Column counts runes.
type Position struct {
	Offset int `json:"offset"`
	Line   int `json:"line"`
	Column int `json:"column"`
}

// String returns "line:column".
func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

func positionAt(input string, offset int) Position {
	if offset > len(input) {
		offset = len(input)
	}
	before := input[:offset]
	line := strings.Count(before, "\n") + 1
	lineStart := strings.LastIndexByte(before, '\n') + 1
	return Position{
		Offset: offset,
		Line:   line,
		Column: utf8.RuneCountInString(before[lineStart:]) + 1,
	}
}
