// Package ast defines the abstract syntax tree produced by the expression
// parser. The tree carries no precedence information of its own: every
// operator application is an explicit BinaryExpr or UnaryExpr node, and
// parentheses written in the source survive as GroupingExpr nodes.
package ast

// Node is the base interface for all AST nodes
type Node interface {
	// String renders the node as an S-expression, e.g. (+ 1 (* 2 3)).
	String() string
	node()
}

// ExprNode is implemented by every expression node
type ExprNode interface {
	Node
	exprNode()
}

// Inspect traverses the tree rooted at node in depth-first order, calling fn
// for each node. If fn returns false the children of that node are skipped.
func Inspect(node ExprNode, fn func(ExprNode) bool) {
	if node == nil || !fn(node) {
		return
	}

	switch n := node.(type) {
	case *BinaryExpr:
		Inspect(n.Left, fn)
		Inspect(n.Right, fn)
	case *UnaryExpr:
		Inspect(n.Right, fn)
	case *GroupingExpr:
		Inspect(n.Inner, fn)
	}
}

// Depth returns the height of the tree rooted at node; a leaf has depth 1.
func Depth(node ExprNode) int {
	switch n := node.(type) {
	case nil:
		return 0
	case *BinaryExpr:
		return 1 + max(Depth(n.Left), Depth(n.Right))
	case *UnaryExpr:
		return 1 + Depth(n.Right)
	case *GroupingExpr:
		return 1 + Depth(n.Inner)
	default:
		return 1
	}
}
