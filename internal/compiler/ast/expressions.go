package ast

import (
	"encoding/json"
	"math"
	"strconv"
)

// StringLiteral represents a string literal. The parser does not produce it
// yet; it is kept so consumers can already switch over it.
type StringLiteral struct {
	Value string
}

func (s *StringLiteral) node()     {}
func (s *StringLiteral) exprNode() {}

func (s *StringLiteral) String() string {
	return strconv.Quote(s.Value)
}

// NumberLiteral represents a numeric literal
type NumberLiteral struct {
	Value float64
}

func (n *NumberLiteral) node()     {}
func (n *NumberLiteral) exprNode() {}

func (n *NumberLiteral) String() string {
	return strconv.FormatFloat(n.Value, 'g', -1, 64)
}

// BoolLiteral represents true or false
type BoolLiteral struct {
	Value bool
}

func (b *BoolLiteral) node()     {}
func (b *BoolLiteral) exprNode() {}

func (b *BoolLiteral) String() string {
	return strconv.FormatBool(b.Value)
}

// BinaryExpr represents a single application of a binary operator (a + b, a == b, etc.)
type BinaryExpr struct {
	Left     ExprNode
	Right    ExprNode
	Operator Operator
}

func (b *BinaryExpr) node()     {}
func (b *BinaryExpr) exprNode() {}

func (b *BinaryExpr) String() string {
	return "(" + b.Operator.String() + " " + b.Left.String() + " " + b.Right.String() + ")"
}

// UnaryExpr represents a prefix operator (-x, !x)
type UnaryExpr struct {
	Operator Operator
	Right    ExprNode
}

func (u *UnaryExpr) node()     {}
func (u *UnaryExpr) exprNode() {}

func (u *UnaryExpr) String() string {
	return "(" + u.Operator.String() + " " + u.Right.String() + ")"
}

// GroupingExpr represents a parenthesized expression. It is kept distinct
// from its inner expression so consumers can tell explicit grouping apart
// from grouping implied by precedence.
type GroupingExpr struct {
	Inner ExprNode
}

func (g *GroupingExpr) node()     {}
func (g *GroupingExpr) exprNode() {}

func (g *GroupingExpr) String() string {
	return "(group " + g.Inner.String() + ")"
}

// MarshalJSON encodes the literal as {"kind":"string","value":...}
func (s *StringLiteral) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Kind  string `json:"kind"`
		Value string `json:"value"`
	}{"string", s.Value})
}

// MarshalJSON encodes the literal as {"kind":"number","value":...}. JSON has
// no infinities, so out-of-range literals encode their value as the strings
// "Infinity" and "-Infinity".
func (n *NumberLiteral) MarshalJSON() ([]byte, error) {
	var value any = n.Value
	switch {
	case math.IsInf(n.Value, 1):
		value = "Infinity"
	case math.IsInf(n.Value, -1):
		value = "-Infinity"
	case math.IsNaN(n.Value):
		value = "NaN"
	}
	return json.Marshal(struct {
		Kind  string `json:"kind"`
		Value any    `json:"value"`
	}{"number", value})
}

// MarshalJSON encodes the literal as {"kind":"bool","value":...}
func (b *BoolLiteral) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Kind  string `json:"kind"`
		Value bool   `json:"value"`
	}{"bool", b.Value})
}

// MarshalJSON encodes the node with its operator symbol and both operands
func (b *BinaryExpr) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Kind     string   `json:"kind"`
		Operator Operator `json:"operator"`
		Left     ExprNode `json:"left"`
		Right    ExprNode `json:"right"`
	}{"binary", b.Operator, b.Left, b.Right})
}

// MarshalJSON encodes the node with its operator symbol and operand
func (u *UnaryExpr) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Kind     string   `json:"kind"`
		Operator Operator `json:"operator"`
		Right    ExprNode `json:"right"`
	}{"unary", u.Operator, u.Right})
}

// MarshalJSON encodes the node with its inner expression
func (g *GroupingExpr) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Kind  string   `json:"kind"`
		Inner ExprNode `json:"inner"`
	}{"grouping", g.Inner})
}
