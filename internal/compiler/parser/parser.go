package parser

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/tsparse/tsparse/internal/compiler/ast"
	"github.com/tsparse/tsparse/internal/compiler/grammar"
)

// Parser parses whole programs: sequences of top-level expressions.
// A Parser is immutable and safe for concurrent use.
type Parser struct {
	grammar *grammar.Grammar
	logger  *zap.Logger
}

// Option configures a Parser
type Option func(*Parser)

// WithGrammar replaces the embedded default grammar.
func WithGrammar(g *grammar.Grammar) Option {
	return func(p *Parser) {
		p.grammar = g
	}
}

// WithLogger sets the logger used for debug output.
func WithLogger(logger *zap.Logger) Option {
	return func(p *Parser) {
		p.logger = logger
	}
}

// New creates a parser. It fails if the grammar can produce a category the
// AST builder cannot lower.
func New(opts ...Option) (*Parser, error) {
	p := &Parser{
		grammar: grammar.Default(),
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}

	if err := CheckGrammar(p.grammar); err != nil {
		return nil, err
	}

	return p, nil
}

// Grammar returns the grammar the parser matches with.
func (p *Parser) Grammar() *grammar.Grammar {
	return p.grammar
}

// Parse parses source into one AST per top-level expression, in source
// order. If the grammar does not match, the *grammar.Failure is returned
// as-is and no expressions are.
func (p *Parser) Parse(source string) ([]ast.ExprNode, error) {
	located, err := p.ParseLocated(source)
	if err != nil {
		return nil, err
	}

	exprs := make([]ast.ExprNode, len(located))
	for i, l := range located {
		exprs[i] = l.Expr
	}
	return exprs, nil
}

// Located is a top-level expression and the span of source it came from.
type Located struct {
	Expr  ast.ExprNode
	Start grammar.Position
	End   grammar.Position
	// Spans holds the source range of every node in Expr
	Spans map[ast.ExprNode]Span
}

// ParseLocated is like Parse but keeps the source span of every top-level
// expression, for editors and diagnostics.
func (p *Parser) ParseLocated(source string) ([]Located, error) {
	started := time.Now()

	root, err := p.grammar.Parse(grammar.RuleProgram, source)
	if err != nil {
		p.logger.Debug("parse failed",
			zap.String("grammar", p.grammar.Name()),
			zap.Error(err),
		)
		return nil, err
	}

	located := make([]Located, 0, len(root.Children))
	for _, child := range root.Children {
		if child.Rule != grammar.RuleExpression {
			continue
		}
		b := builder{spans: make(map[ast.ExprNode]Span)}
		located = append(located, Located{
			Expr:  b.lower(child),
			Start: child.Position(),
			End:   child.EndPosition(),
			Spans: b.spans,
		})
	}

	p.logger.Debug("parsed program",
		zap.String("grammar", p.grammar.Name()),
		zap.Int("bytes", len(source)),
		zap.Int("expressions", len(located)),
		zap.Duration("elapsed", time.Since(started)),
	)

	return located, nil
}

var defaultParser = sync.OnceValue(func() *Parser {
	p, err := New()
	if err != nil {
		panic(err)
	}
	return p
})

// Parse parses source with the default grammar.
func Parse(source string) ([]ast.ExprNode, error) {
	return defaultParser().Parse(source)
}

// CheckGrammar verifies that every category g can produce is one the AST
// builder lowers (or an operator it classifies), and that g defines a
// program rule to start from.
func CheckGrammar(g *grammar.Grammar) error {
	if !g.Has(grammar.RuleProgram) {
		return fmt.Errorf("grammar %s: missing %q rule", g.Name(), grammar.RuleProgram)
	}

	var unsupported []string
	for _, category := range g.Categories() {
		switch {
		case category == grammar.RuleProgram:
		case category.IsOperator():
		case lowered[category]:
		default:
			unsupported = append(unsupported, category.String())
		}
	}
	if len(unsupported) > 0 {
		return fmt.Errorf("grammar %s: rules not supported by the AST builder: %s",
			g.Name(), strings.Join(unsupported, ", "))
	}

	return nil
}
