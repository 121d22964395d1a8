package ast

import "fmt"

// Operator identifies the operator applied by a BinaryExpr or UnaryExpr
type Operator int

const (
	OpNotEqual Operator = iota
	OpDoubleEqual
	OpTripleEqual
	OpGreaterThan
	OpGreaterThanEqual
	OpLessThan
	OpLessThanEqual
	OpMinus
	OpPlus
	OpMultiply
	OpDivide
	OpInvert
)

var operatorSymbols = [...]string{
	OpNotEqual:         "!=",
	OpDoubleEqual:      "==",
	OpTripleEqual:      "===",
	OpGreaterThan:      ">",
	OpGreaterThanEqual: ">=",
	OpLessThan:         "<",
	OpLessThanEqual:    "<=",
	OpMinus:            "-",
	OpPlus:             "+",
	OpMultiply:         "*",
	OpDivide:           "/",
	OpInvert:           "!",
}

var operatorNames = [...]string{
	OpNotEqual:         "NotEqual",
	OpDoubleEqual:      "DoubleEqual",
	OpTripleEqual:      "TripleEqual",
	OpGreaterThan:      "GreaterThan",
	OpGreaterThanEqual: "GreaterThanEqual",
	OpLessThan:         "LessThan",
	OpLessThanEqual:    "LessThanEqual",
	OpMinus:            "Minus",
	OpPlus:             "Plus",
	OpMultiply:         "Multiply",
	OpDivide:           "Divide",
	OpInvert:           "Invert",
}

// Operators returns all operators in declaration order.
func Operators() []Operator {
	ops := make([]Operator, len(operatorSymbols))
	for i := range ops {
		ops[i] = Operator(i)
	}
	return ops
}

func (o Operator) valid() bool {
	return o >= 0 && int(o) < len(operatorSymbols)
}

// String returns the operator as written in source, e.g. ">=".
func (o Operator) String() string {
	if !o.valid() {
		return fmt.Sprintf("Operator(%d)", int(o))
	}
	return operatorSymbols[o]
}

// Name returns the descriptive name of the operator, e.g. "GreaterThanEqual".
func (o Operator) Name() string {
	if !o.valid() {
		return fmt.Sprintf("Operator(%d)", int(o))
	}
	return operatorNames[o]
}

// IsUnary reports whether the operator can be applied as a prefix.
func (o Operator) IsUnary() bool {
	return o == OpMinus || o == OpInvert
}

// IsBinary reports whether the operator can join two operands.
func (o Operator) IsBinary() bool {
	return o.valid() && o != OpInvert
}

// MarshalText implements encoding.TextMarshaler using the source symbol.
func (o Operator) MarshalText() ([]byte, error) {
	if !o.valid() {
		return nil, fmt.Errorf("invalid operator %d", int(o))
	}
	return []byte(operatorSymbols[o]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (o *Operator) UnmarshalText(text []byte) error {
	for i, sym := range operatorSymbols {
		if sym == string(text) {
			*o = Operator(i)
			return nil
		}
	}
	return fmt.Errorf("unknown operator %q", text)
}
