package grammar

// matcher holds the state of a single Parse call.
type matcher struct {
	grammar *Grammar
	input   string

	// stack holds finished nodes that have not yet been claimed by a parent.
	stack []*Node

	// atomic counts enclosing atomic rules; inside them no nodes are emitted,
	// no whitespace is skipped and no failures are recorded.
	atomic int
	// quiet counts enclosing lookaheads, which never record failures.
	quiet int
	// depth counts enclosing rule calls. The start rule is not recorded as
	// an expectation: it would hide everything it attempted.
	depth int

	furthest int
	attempts []attempt
}

// attempt is a category or literal that failed to match at the furthest
// position reached so far.
type attempt struct {
	rule    Rule
	literal string
	isRule  bool
}

func newMatcher(g *Grammar, input string) *matcher {
	return &matcher{
		grammar: g,
		input:   input,
		stack:   make([]*Node, 0, 16),
	}
}

func (m *matcher) mark() int {
	return len(m.stack)
}

func (m *matcher) reset(mark int) {
	for i := mark; i < len(m.stack); i++ {
		m.stack[i] = nil
	}
	m.stack = m.stack[:mark]
}

// call runs a rule at pos and, for node-producing rules outside atomic
// context, wraps everything the body emitted into a new Node.
func (m *matcher) call(r *rule, pos int) (int, bool) {
	emit := !r.silent && m.atomic == 0
	tracked := emit && m.quiet == 0 && m.depth > 0
	entryFurthest, entryAttempts := m.furthest, len(m.attempts)
	mark := m.mark()

	m.depth++
	if r.atomic {
		m.atomic++
	}
	end, ok := r.body.match(m, pos)
	if r.atomic {
		m.atomic--
	}
	m.depth--

	if !ok {
		m.reset(mark)
		if tracked {
			m.failCategory(pos, r.category, entryFurthest, entryAttempts)
		}
		return pos, false
	}

	if !emit {
		return end, true
	}

	var children []*Node
	if n := len(m.stack) - mark; n > 0 {
		children = make([]*Node, n)
		copy(children, m.stack[mark:])
	}
	m.reset(mark)
	m.stack = append(m.stack, &Node{
		Rule:     r.category,
		Start:    pos,
		End:      end,
		Children: children,
		input:    m.input,
	})

	return end, true
}

// skip consumes implicit WHITESPACE and COMMENT between tokens.
func (m *matcher) skip(pos int) int {
	if m.atomic > 0 || m.grammar.skipper == nil {
		return pos
	}

	m.atomic++
	defer func() { m.atomic-- }()

	for {
		mark := m.mark()
		next, ok := m.grammar.skipper.match(m, pos)
		m.reset(mark)
		if !ok || next == pos {
			return pos
		}
		pos = next
	}
}

// failCategory records that category failed to match at pos. A rule failing
// where its own sub-rules failed replaces them: the report names the
// outermost construct that could have started there.
func (m *matcher) failCategory(pos int, category Rule, entryFurthest, entryAttempts int) {
	switch {
	case pos > m.furthest:
		m.furthest = pos
		m.attempts = m.attempts[:0]
	case pos == m.furthest:
		if entryFurthest == pos {
			m.attempts = m.attempts[:entryAttempts]
		} else {
			m.attempts = m.attempts[:0]
		}
	default:
		return
	}
	m.attempts = append(m.attempts, attempt{rule: category, isRule: true})
}

// failRule records a built-in category such as EOI.
func (m *matcher) failRule(pos int, category Rule) {
	if m.atomic > 0 || m.quiet > 0 {
		return
	}
	m.record(pos, attempt{rule: category, isRule: true})
}

func (m *matcher) failLiteral(pos int, text string) {
	if m.atomic > 0 || m.quiet > 0 {
		return
	}
	m.record(pos, attempt{literal: text})
}

func (m *matcher) record(pos int, a attempt) {
	switch {
	case pos > m.furthest:
		m.furthest = pos
		m.attempts = append(m.attempts[:0], a)
	case pos == m.furthest:
		m.attempts = append(m.attempts, a)
	}
}

// failure builds the report for a parse that did not match or stopped short
// of the end of the input.
func (m *matcher) failure(end int, matched bool) *Failure {
	pos := m.furthest
	attempts := m.attempts
	if matched && end > pos {
		pos = end
		attempts = nil
	}

	f := &Failure{
		Input: m.input,
		Pos:   positionAt(m.input, pos),
	}

	seenRules := make(map[Rule]bool)
	seenLiterals := make(map[string]bool)
	for _, a := range attempts {
		if a.isRule {
			if !seenRules[a.rule] {
				seenRules[a.rule] = true
				f.Expected = append(f.Expected, a.rule)
			}
			continue
		}
		if !seenLiterals[a.literal] {
			seenLiterals[a.literal] = true
			f.Literals = append(f.Literals, a.literal)
		}
	}

	return f
}
