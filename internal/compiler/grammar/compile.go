package grammar

import (
	"fmt"
	"unicode"
	"unicode/utf8"
)

const (
	whitespaceRule = "WHITESPACE"
	commentRule    = "COMMENT"
)

// builtins are the predefined rules available to every grammar.
var builtins = map[string]expr{
	"ANY":                &runeClass{accept: func(rune) bool { return true }},
	"SOI":                startOfInput{},
	"EOI":                endOfInput{},
	"ASCII_DIGIT":        &runeClass{accept: isASCIIDigit},
	"ASCII_ALPHA":        &runeClass{accept: isASCIIAlpha},
	"ASCII_ALPHANUMERIC": &runeClass{accept: func(r rune) bool { return isASCIIDigit(r) || isASCIIAlpha(r) }},
	"NEWLINE": &choice{alternatives: []expr{
		&charRange{lo: '\n', hi: '\n'},
		&sequence{items: []expr{&charRange{lo: '\r', hi: '\r'}, &charRange{lo: '\n', hi: '\n'}}},
		&charRange{lo: '\r', hi: '\r'},
	}},
}

func isASCIIDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func isASCIIAlpha(r rune) bool {
	return r < unicode.MaxASCII && unicode.IsLetter(r)
}

// Load parses and compiles grammar text. name is used in error messages.
func Load(name, text string) (*Grammar, error) {
	file, err := parseGrammarText(name, text)
	if err != nil {
		return nil, fmt.Errorf("invalid grammar %s: %w", name, err)
	}
	if len(file.Rules) == 0 {
		return nil, fmt.Errorf("invalid grammar %s: no rules defined", name)
	}

	g := &Grammar{
		name:       name,
		source:     text,
		byName:     make(map[string]*rule, len(file.Rules)),
		byCategory: make(map[Rule]*rule, len(file.Rules)),
	}

	// Declare every rule first so bodies may reference rules defined later.
	for _, decl := range file.Rules {
		if _, ok := builtins[decl.Name]; ok {
			return nil, fmt.Errorf("%s: rule %q redefines a built-in", decl.Pos, decl.Name)
		}
		if _, ok := g.byName[decl.Name]; ok {
			return nil, fmt.Errorf("%s: rule %q is defined more than once", decl.Pos, decl.Name)
		}

		r := &rule{
			name:   decl.Name,
			silent: decl.Modifier == "_",
			atomic: decl.Modifier == "@",
		}
		if !r.silent {
			category, ok := LookupRule(decl.Name)
			if !ok {
				return nil, fmt.Errorf("%s: rule %q is not a known syntax category (mark helper rules silent with _{ })", decl.Pos, decl.Name)
			}
			r.category = category
			g.byCategory[category] = r
		}

		g.rules = append(g.rules, r)
		g.byName[decl.Name] = r
	}

	for i, decl := range file.Rules {
		body, err := g.compileChoice(decl.Body)
		if err != nil {
			return nil, err
		}
		g.rules[i].body = body
	}

	var skippers []expr
	for _, skipName := range []string{whitespaceRule, commentRule} {
		if r, ok := g.byName[skipName]; ok {
			skippers = append(skippers, &ruleRef{name: skipName, target: r})
		}
	}
	switch len(skippers) {
	case 0:
	case 1:
		g.skipper = skippers[0]
	default:
		g.skipper = &choice{alternatives: skippers}
	}

	return g, nil
}

func (g *Grammar) compileChoice(decl *choiceDecl) (expr, error) {
	alternatives := make([]expr, 0, len(decl.Alternatives))
	for _, seq := range decl.Alternatives {
		e, err := g.compileSequence(seq)
		if err != nil {
			return nil, err
		}
		alternatives = append(alternatives, e)
	}
	if len(alternatives) == 1 {
		return alternatives[0], nil
	}
	return &choice{alternatives: alternatives}, nil
}

func (g *Grammar) compileSequence(decl *sequenceDecl) (expr, error) {
	items := make([]expr, 0, len(decl.Terms))
	for _, term := range decl.Terms {
		e, err := g.compileTerm(term)
		if err != nil {
			return nil, err
		}
		items = append(items, e)
	}
	if len(items) == 1 {
		return items[0], nil
	}
	return &sequence{items: items}, nil
}

func (g *Grammar) compileTerm(decl *termDecl) (expr, error) {
	e, err := g.compileAtom(decl)
	if err != nil {
		return nil, err
	}

	switch decl.Repeat {
	case "*":
		e = &repeat{inner: e, min: 0, max: -1}
	case "+":
		e = &repeat{inner: e, min: 1, max: -1}
	case "?":
		e = &repeat{inner: e, min: 0, max: 1}
	}

	switch decl.Predicate {
	case "!":
		e = &lookahead{inner: e, negate: true}
	case "&":
		e = &lookahead{inner: e}
	}

	return e, nil
}

func (g *Grammar) compileAtom(decl *termDecl) (expr, error) {
	atom := decl.Atom
	switch {
	case atom.Range != nil:
		lo, loSize := utf8.DecodeRuneInString(atom.Range.From)
		hi, hiSize := utf8.DecodeRuneInString(atom.Range.To)
		if loSize != len(atom.Range.From) || hiSize != len(atom.Range.To) {
			return nil, fmt.Errorf("%s: character range bounds must be single characters", decl.Pos)
		}
		if lo > hi {
			return nil, fmt.Errorf("%s: empty character range '%c'..'%c'", decl.Pos, lo, hi)
		}
		return &charRange{lo: lo, hi: hi}, nil

	case atom.Literal != nil:
		if *atom.Literal == "" {
			return nil, fmt.Errorf("%s: empty string literal", decl.Pos)
		}
		return &literal{text: *atom.Literal}, nil

	case atom.Ref != nil:
		name := *atom.Ref
		if b, ok := builtins[name]; ok {
			return b, nil
		}
		target, ok := g.byName[name]
		if !ok {
			return nil, fmt.Errorf("%s: reference to undefined rule %q", decl.Pos, name)
		}
		return &ruleRef{name: name, target: target}, nil

	case atom.Group != nil:
		return g.compileChoice(atom.Group)
	}

	return nil, fmt.Errorf("%s: empty term", decl.Pos)
}
