package grammar

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Failure reports input the grammar could not match: the furthest position
// reached and the categories and literal tokens that were expected there.
type Failure struct {
	Input    string
	Pos      Position
	Expected []Rule
	Literals []string
}

// Error implements the error interface.
func (f *Failure) Error() string {
	return fmt.Sprintf("expected %s at %s, found %s", f.ExpectedString(), f.Pos, f.Found())
}

// AtEnd reports whether the failure occurred at the end of the input.
func (f *Failure) AtEnd() bool {
	return f.Pos.Offset >= len(f.Input)
}

// Found describes the input at the failure position.
func (f *Failure) Found() string {
	if f.AtEnd() {
		return "end of input"
	}
	return strconv.Quote(f.Token())
}

// Token returns the run of input starting at the failure position up to the
// next whitespace, or the single offending character if it is punctuation.
func (f *Failure) Token() string {
	if f.AtEnd() {
		return ""
	}
	rest := f.Input[f.Pos.Offset:]
	r, size := utf8.DecodeRuneInString(rest)
	if !isWordRune(r) {
		return rest[:size]
	}
	end := strings.IndexFunc(rest, func(r rune) bool { return !isWordRune(r) })
	if end < 0 {
		return rest
	}
	return rest[:end]
}

func isWordRune(r rune) bool {
	return r == '_' || r == '.' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// ExpectedString joins the expected categories and literals for display,
// e.g. `factor, plus or ")"`.
func (f *Failure) ExpectedString() string {
	items := make([]string, 0, len(f.Expected)+len(f.Literals))
	for _, r := range f.Expected {
		items = append(items, r.String())
	}
	for _, lit := range f.Literals {
		items = append(items, strconv.Quote(lit))
	}

	switch len(items) {
	case 0:
		return "end of input"
	case 1:
		return items[0]
	default:
		return strings.Join(items[:len(items)-1], ", ") + " or " + items[len(items)-1]
	}
}

// Expects reports whether r is among the expected categories.
func (f *Failure) Expects(r Rule) bool {
	for _, e := range f.Expected {
		if e == r {
			return true
		}
	}
	return false
}
