// Package grammar implements the grammar engine used by the expression parser.
//
// A grammar is declarative text in a PEG notation close to pest's: named rules
// built from literals, character ranges, ordered choice, sequence, repetition
// and lookahead. Loading a grammar compiles it into matcher expressions and
// checks that every node-producing rule names one of the closed Rule
// categories, so the AST builder and the grammar cannot drift apart silently.
//
// Matching a grammar against source text yields a parse tree of *Node values
// labelled with their Rule, or a *Failure describing the furthest position
// reached and what was expected there.
package grammar

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"
)

//go:embed expr.peg
var defaultSource string

// Grammar is a compiled grammar. It is immutable once loaded and may be
// shared between goroutines; every Parse call uses its own matcher state.
type Grammar struct {
	name       string
	source     string
	rules      []*rule
	byName     map[string]*rule
	byCategory map[Rule]*rule
	skipper    expr
}

type rule struct {
	name     string
	category Rule
	silent   bool
	atomic   bool
	body     expr
}

var (
	defaultOnce    sync.Once
	defaultGrammar *Grammar
)

// Default returns the embedded expression grammar.
func Default() *Grammar {
	defaultOnce.Do(func() {
		defaultGrammar = MustLoad("expr.peg", defaultSource)
	})
	return defaultGrammar
}

// MustLoad is like Load but panics if the grammar is invalid.
func MustLoad(name, text string) *Grammar {
	g, err := Load(name, text)
	if err != nil {
		panic(err)
	}
	return g
}

// Name returns the name the grammar was loaded under (usually a file name).
func (g *Grammar) Name() string {
	return g.name
}

// Source returns the grammar text.
func (g *Grammar) Source() string {
	return g.source
}

// Categories returns the categories of all node-producing rules in
// declaration order.
func (g *Grammar) Categories() []Rule {
	categories := make([]Rule, 0, len(g.byCategory))
	for _, r := range g.rules {
		if !r.silent {
			categories = append(categories, r.category)
		}
	}
	return categories
}

// Has reports whether the grammar defines a node-producing rule for category.
func (g *Grammar) Has(category Rule) bool {
	_, ok := g.byCategory[category]
	return ok
}

// Parse matches input against the rule for start. The whole input must be
// consumed; otherwise, or if the rule does not match, a *Failure is returned.
func (g *Grammar) Parse(start Rule, input string) (*Node, error) {
	r, ok := g.byCategory[start]
	if !ok {
		return nil, fmt.Errorf("grammar %s has no rule %q", g.name, start)
	}

	m := newMatcher(g, input)
	end, matched := m.call(r, 0)
	if !matched || end != len(input) {
		return nil, m.failure(end, matched)
	}

	return m.stack[0], nil
}

// Describe renders one line per rule, for diagnostics and the CLI.
func (g *Grammar) Describe() string {
	var b strings.Builder
	for _, r := range g.rules {
		kind := "rule"
		switch {
		case r.silent:
			kind = "silent"
		case r.atomic:
			kind = "atomic"
		}
		fmt.Fprintf(&b, "%-20s %s\n", r.name, kind)
	}
	return b.String()
}
