package grammar

import (
	"strings"
	"unicode/utf8"
)

// expr is one compiled parsing expression. match reports the position after
// a successful match; on failure the matcher state is restored by the caller
// that opened the alternative.
type expr interface {
	match(m *matcher, pos int) (int, bool)
}

// literal matches an exact string.
type literal struct {
	text string
}

func (e *literal) match(m *matcher, pos int) (int, bool) {
	if strings.HasPrefix(m.input[pos:], e.text) {
		return pos + len(e.text), true
	}
	m.failLiteral(pos, e.text)
	return pos, false
}

// charRange matches one rune between lo and hi inclusive.
type charRange struct {
	lo, hi rune
}

func (e *charRange) match(m *matcher, pos int) (int, bool) {
	r, size := utf8.DecodeRuneInString(m.input[pos:])
	if size == 0 || r < e.lo || r > e.hi {
		return pos, false
	}
	return pos + size, true
}

// runeClass matches one rune accepted by a predicate (ANY, ASCII_DIGIT, ...).
type runeClass struct {
	accept func(r rune) bool
}

func (e *runeClass) match(m *matcher, pos int) (int, bool) {
	r, size := utf8.DecodeRuneInString(m.input[pos:])
	if size == 0 || !e.accept(r) {
		return pos, false
	}
	return pos + size, true
}

// startOfInput matches the empty string at offset zero.
type startOfInput struct{}

func (startOfInput) match(m *matcher, pos int) (int, bool) {
	return pos, pos == 0
}

// endOfInput matches the empty string at the end of the input.
type endOfInput struct{}

func (endOfInput) match(m *matcher, pos int) (int, bool) {
	if pos == len(m.input) {
		return pos, true
	}
	m.failRule(pos, RuleEOI)
	return pos, false
}

// sequence matches each element in turn, skipping implicit whitespace
// between elements outside atomic rules.
type sequence struct {
	items []expr
}

func (e *sequence) match(m *matcher, pos int) (int, bool) {
	mark := m.mark()
	cur := pos
	for i, item := range e.items {
		if i > 0 {
			cur = m.skip(cur)
		}
		next, ok := item.match(m, cur)
		if !ok {
			m.reset(mark)
			return pos, false
		}
		cur = next
	}
	return cur, true
}

// choice is PEG ordered choice: the first matching alternative wins.
type choice struct {
	alternatives []expr
}

func (e *choice) match(m *matcher, pos int) (int, bool) {
	for _, alt := range e.alternatives {
		mark := m.mark()
		if next, ok := alt.match(m, pos); ok {
			return next, true
		}
		m.reset(mark)
	}
	return pos, false
}

// repeat matches its inner expression between min and max times
// (max < 0 means unbounded).
type repeat struct {
	inner expr
	min   int
	max   int
}

func (e *repeat) match(m *matcher, pos int) (int, bool) {
	mark := m.mark()
	cur := pos
	count := 0
	for e.max < 0 || count < e.max {
		try := cur
		if count > 0 {
			try = m.skip(cur)
		}
		inner := m.mark()
		next, ok := e.inner.match(m, try)
		if !ok {
			m.reset(inner)
			break
		}
		count++
		if next == cur {
			// An empty match would repeat forever.
			break
		}
		cur = next
	}
	if count < e.min {
		m.reset(mark)
		return pos, false
	}
	return cur, true
}

// lookahead matches without consuming input. negate turns it into "!".
type lookahead struct {
	inner  expr
	negate bool
}

func (e *lookahead) match(m *matcher, pos int) (int, bool) {
	mark := m.mark()
	m.quiet++
	_, ok := e.inner.match(m, pos)
	m.quiet--
	m.reset(mark)
	if e.negate {
		return pos, !ok
	}
	return pos, ok
}

// ruleRef invokes a named rule. It is resolved after all rules are compiled.
type ruleRef struct {
	name   string
	target *rule
}

func (e *ruleRef) match(m *matcher, pos int) (int, bool) {
	return m.call(e.target, pos)
}
