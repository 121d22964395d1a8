package parser

import (
	"github.com/tsparse/tsparse/internal/compiler/ast"
	"github.com/tsparse/tsparse/internal/compiler/grammar"
)

var operatorsByRule = map[grammar.Rule]ast.Operator{
	grammar.RuleNotEqual:         ast.OpNotEqual,
	grammar.RuleDoubleEqual:      ast.OpDoubleEqual,
	grammar.RuleTripleEqual:      ast.OpTripleEqual,
	grammar.RuleGreaterThan:      ast.OpGreaterThan,
	grammar.RuleGreaterThanEqual: ast.OpGreaterThanEqual,
	grammar.RuleLessThan:         ast.OpLessThan,
	grammar.RuleLessThanEqual:    ast.OpLessThanEqual,
	grammar.RuleMinus:            ast.OpMinus,
	grammar.RulePlus:             ast.OpPlus,
	grammar.RuleMultiply:         ast.OpMultiply,
	grammar.RuleDivide:           ast.OpDivide,
	grammar.RuleInverse:          ast.OpInvert,
}

// classify maps an operator node to its ast.Operator. Any other category
// panics with a *DefectError.
func classify(n *grammar.Node) ast.Operator {
	op, ok := operatorsByRule[n.Rule]
	if !ok {
		panic(defect(n, "attempted to convert a non-operator to an operator"))
	}
	return op
}

// OperatorFor returns the operator an operator category lowers to
func OperatorFor(r grammar.Rule) (ast.Operator, bool) {
	op, ok := operatorsByRule[r]
	return op, ok
}
