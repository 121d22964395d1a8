package docs

import (
	stderrors "errors"

	"github.com/tsparse/tsparse/internal/compiler/ast"
	"github.com/tsparse/tsparse/internal/compiler/errors"
	"github.com/tsparse/tsparse/internal/compiler/grammar"
	"github.com/tsparse/tsparse/internal/compiler/parser"
)

// samplePrograms demonstrate precedence, associativity and grouping.
var samplePrograms = []string{
	"1 + 2 * 3",
	"(1 + 2) * 3",
	"8 - 4 - 2",
	"--1",
	"!true == false",
	"1 < 2 != 3 >= 4",
	"1 +",
}

// Extractor builds a Reference by inspecting a parser's grammar and parsing
// sample programs with it
type Extractor struct {
	parser *parser.Parser
}

// NewExtractor creates a new extractor
func NewExtractor(p *parser.Parser) *Extractor {
	return &Extractor{parser: p}
}

// Extract builds the reference for the parser's grammar
func (e *Extractor) Extract() *Reference {
	g := e.parser.Grammar()
	ref := &Reference{
		Grammar:   g.Name(),
		Source:    g.Source(),
		Rules:     make([]*RuleDoc, 0),
		Operators: make([]*OperatorDoc, 0),
		Examples:  make([]*ExampleDoc, 0, len(samplePrograms)),
	}

	for _, category := range g.Categories() {
		ref.Rules = append(ref.Rules, &RuleDoc{Name: category.String(), Kind: Kind(category)})

		op, ok := parser.OperatorFor(category)
		if !ok {
			continue
		}
		doc := &OperatorDoc{
			Symbol:  op.String(),
			Name:    op.Name(),
			Rule:    category.String(),
			Arity:   arity(op),
			Example: exampleFor(op),
		}
		if trees, err := e.trees(doc.Example); err == nil && len(trees) == 1 {
			doc.Tree = trees[0]
		}
		ref.Operators = append(ref.Operators, doc)
	}

	for _, source := range samplePrograms {
		ex := &ExampleDoc{Source: source}
		trees, err := e.trees(source)
		var failure *grammar.Failure
		switch {
		case stderrors.As(err, &failure):
			ex.Error = errors.FromFailure(failure).Error()
		case err != nil:
			ex.Error = err.Error()
		default:
			ex.Trees = trees
		}
		ref.Examples = append(ref.Examples, ex)
	}

	return ref
}

func (e *Extractor) trees(source string) ([]string, error) {
	exprs, err := e.parser.Parse(source)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(exprs))
	for i, x := range exprs {
		out[i] = x.String()
	}
	return out, nil
}

// Kind names what a category stands for
func Kind(r grammar.Rule) string {
	switch {
	case r.IsOperator():
		return "operator"
	case r.IsLiteral():
		return "literal"
	default:
		return "structure"
	}
}

func arity(op ast.Operator) string {
	switch {
	case op.IsUnary() && op.IsBinary():
		return "unary, binary"
	case op.IsUnary():
		return "unary"
	default:
		return "binary"
	}
}

func exampleFor(op ast.Operator) string {
	switch op {
	case ast.OpInvert:
		return "!true"
	case ast.OpMinus:
		return "-1 - 2"
	default:
		return "1 " + op.String() + " 2"
	}
}
