package parser

import (
	"errors"
	"strconv"

	"github.com/tsparse/tsparse/internal/compiler/ast"
	"github.com/tsparse/tsparse/internal/compiler/grammar"
)

// AST lowering
//
// Precedence is never computed here. Each binary level of the grammar
// matches `operand (operator operand)*`; when no operator occurred at a level
// the node has a single child and lowers to that child unchanged, which is
// how the levels with nothing to apply disappear from the AST.
//
// expression → equality
// equality   → comparison ( ( "!=" | "===" | "==" ) comparison )*
// comparison → term ( ( ">=" | ">" | "<=" | "<" ) term )*
// term       → factor ( ( "-" | "+" ) factor )*
// factor     → unary ( ( "/" | "*" ) unary )*
// unary      → ( "-" | "!" ) unary | primary
// primary    → grouping | NUMBER | BOOL_TRUE | BOOL_FALSE

// lowered lists every category lower has an arm for. Operators are only
// ever consumed through classify.
var lowered = map[grammar.Rule]bool{
	grammar.RuleExpression: true,
	grammar.RuleEquality:   true,
	grammar.RuleComparison: true,
	grammar.RuleTerm:       true,
	grammar.RuleFactor:     true,
	grammar.RuleUnary:      true,
	grammar.RuleGrouping:   true,
	grammar.RuleNumber:     true,
	grammar.RuleBoolTrue:   true,
	grammar.RuleBoolFalse:  true,
}

// Span is the source range an AST node was built from. End excludes
// trailing whitespace.
type Span struct {
	Start grammar.Position
	End   grammar.Position
}

// builder lowers parse trees. When spans is non-nil it records where every
// AST node it creates came from.
type builder struct {
	spans map[ast.ExprNode]Span
}

// lower transforms one parse tree node into exactly one AST node.
func lower(n *grammar.Node) ast.ExprNode {
	var b builder
	return b.lower(n)
}

func (b *builder) record(e ast.ExprNode, first, last *grammar.Node) ast.ExprNode {
	if b.spans != nil {
		b.spans[e] = Span{Start: first.Position(), End: last.EndPosition()}
	}
	return e
}

func (b *builder) lower(n *grammar.Node) ast.ExprNode {
	switch n.Rule {
	case grammar.RuleNumber:
		// Out-of-range literals saturate to ±Inf.
		value, err := strconv.ParseFloat(n.Text(), 64)
		if err != nil && !errors.Is(err, strconv.ErrRange) {
			panic(defect(n, "number literal does not parse: %v", err))
		}
		return b.record(&ast.NumberLiteral{Value: value}, n, n)

	case grammar.RuleBoolTrue:
		return b.record(&ast.BoolLiteral{Value: true}, n, n)

	case grammar.RuleBoolFalse:
		return b.record(&ast.BoolLiteral{Value: false}, n, n)

	case grammar.RuleString:
		panic(defect(n, "string literals are not supported"))

	case grammar.RuleNull:
		panic(defect(n, "null literals are not supported"))

	case grammar.RuleExpression:
		return b.lower(only(n))

	case grammar.RuleEquality, grammar.RuleComparison, grammar.RuleTerm, grammar.RuleFactor:
		return b.lowerBinary(n)

	case grammar.RuleUnary:
		return b.lowerUnary(n)

	case grammar.RuleGrouping:
		return b.record(&ast.GroupingExpr{Inner: b.lower(only(n))}, n, n)
	}

	panic(defect(n, "no lowering for this category"))
}

// lowerBinary folds `operand (operator operand)*` to the left.
func (b *builder) lowerBinary(n *grammar.Node) ast.ExprNode {
	if len(n.Children) == 0 {
		panic(defect(n, "binary level without an operand"))
	}
	if len(n.Children)%2 == 0 {
		panic(defect(n, "operator without a right operand"))
	}

	first := n.Children[0]
	left := b.lower(first)
	for i := 1; i < len(n.Children); i += 2 {
		right := n.Children[i+1]
		left = b.record(&ast.BinaryExpr{
			Left:     left,
			Right:    b.lower(right),
			Operator: classify(n.Children[i]),
		}, first, right)
	}

	// With a single child this is a pass-through and left is returned as is.
	return left
}

func (b *builder) lowerUnary(n *grammar.Node) ast.ExprNode {
	if len(n.Children) == 0 {
		panic(defect(n, "unary level without an operand"))
	}

	first := n.Children[0]
	if first.Rule != grammar.RuleMinus && first.Rule != grammar.RuleInverse {
		return b.lower(only(n))
	}

	if len(n.Children) != 2 {
		panic(defect(n, "prefix operator without an operand"))
	}
	return b.record(&ast.UnaryExpr{
		Operator: classify(first),
		Right:    b.lower(n.Children[1]),
	}, first, n.Children[1])
}

// only returns the single child of a pass-through node.
func only(n *grammar.Node) *grammar.Node {
	if len(n.Children) != 1 {
		panic(defect(n, "expected exactly one child, found %d", len(n.Children)))
	}
	return n.Children[0]
}
