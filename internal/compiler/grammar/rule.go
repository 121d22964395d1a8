package grammar

// Rule identifies a syntax category a grammar may produce. The set is closed:
// a grammar whose non-silent rules name anything outside it fails to load.
type Rule int

const (
	RuleProgram Rule = iota
	RuleExpression
	RuleEquality
	RuleComparison
	RuleTerm
	RuleFactor
	RuleUnary
	RuleGrouping

	// Literals
	RuleNumber
	RuleString
	RuleBoolTrue
	RuleBoolFalse
	RuleNull

	// Operators
	RuleNotEqual
	RuleDoubleEqual
	RuleTripleEqual
	RuleGreaterThan
	RuleGreaterThanEqual
	RuleLessThan
	RuleLessThanEqual
	RuleMinus
	RulePlus
	RuleMultiply
	RuleDivide
	RuleInverse

	// RuleEOI is reported in failures when the end of input was expected.
	// It never labels a Node.
	RuleEOI
)

var ruleNames = [...]string{
	RuleProgram:          "program",
	RuleExpression:       "expression",
	RuleEquality:         "equality",
	RuleComparison:       "comparison",
	RuleTerm:             "term",
	RuleFactor:           "factor",
	RuleUnary:            "unary",
	RuleGrouping:         "grouping",
	RuleNumber:           "NUMBER",
	RuleString:           "STRING",
	RuleBoolTrue:         "BOOL_TRUE",
	RuleBoolFalse:        "BOOL_FALSE",
	RuleNull:             "NULL",
	RuleNotEqual:         "not_equal",
	RuleDoubleEqual:      "double_equal",
	RuleTripleEqual:      "triple_equal",
	RuleGreaterThan:      "greater_than",
	RuleGreaterThanEqual: "greater_than_equal",
	RuleLessThan:         "less_than",
	RuleLessThanEqual:    "less_than_equal",
	RuleMinus:            "minus",
	RulePlus:             "plus",
	RuleMultiply:         "multiply",
	RuleDivide:           "divide",
	RuleInverse:          "inverse",
	RuleEOI:              "EOI",
}

var rulesByName map[string]Rule

func init() {
	rulesByName = make(map[string]Rule, len(ruleNames))
	for r, name := range ruleNames {
		if Rule(r) == RuleEOI {
			continue
		}
		rulesByName[name] = Rule(r)
	}
}

// String returns the rule's name as written in grammar text.
func (r Rule) String() string {
	if r >= 0 && int(r) < len(ruleNames) {
		return ruleNames[r]
	}
	return "unknown"
}

// LookupRule maps a grammar rule name to its category.
func LookupRule(name string) (Rule, bool) {
	r, ok := rulesByName[name]
	return r, ok
}

// IsOperator reports whether r is one of the twelve operator categories.
func (r Rule) IsOperator() bool {
	return r >= RuleNotEqual && r <= RuleInverse
}

// IsLiteral reports whether r is a literal category.
func (r Rule) IsLiteral() bool {
	return r >= RuleNumber && r <= RuleNull
}

// AllRules returns every category that may label a Node, in declaration order.
func AllRules() []Rule {
	rules := make([]Rule, 0, int(RuleEOI))
	for r := RuleProgram; r < RuleEOI; r++ {
		rules = append(rules, r)
	}
	return rules
}
