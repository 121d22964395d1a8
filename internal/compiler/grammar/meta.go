package grammar

import (
	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// The structures below describe grammar text itself. They are filled in by
// participle and then compiled into matcher expressions by compile.go.
// Punctuation is matched by token type as well as value, since an unquoted
// String token such as "!" has the same value as the Punct token.

type grammarFile struct {
	Rules []*ruleDecl `@@*`
}

type ruleDecl struct {
	Pos      lexer.Position
	Name     string      `@Ident "=":Punct`
	Modifier string      `@("_":Punct | "@":Punct)?`
	Body     *choiceDecl `"{":Punct @@ "}":Punct`
}

type choiceDecl struct {
	Alternatives []*sequenceDecl `@@ ( "|":Punct @@ )*`
}

type sequenceDecl struct {
	Terms []*termDecl `@@ ( "~":Punct @@ )*`
}

type termDecl struct {
	Pos       lexer.Position
	Predicate string    `@("!":Punct | "&":Punct)?`
	Atom      *atomDecl `@@`
	Repeat    string    `@("*":Punct | "+":Punct | "?":Punct)?`
}

type atomDecl struct {
	Range   *rangeDecl  `  @@`
	Literal *string     `| @String`
	Ref     *string     `| @Ident`
	Group   *choiceDecl `| "(":Punct @@ ")":Punct`
}

type rangeDecl struct {
	From string `@Char Range`
	To   string `@Char`
}

var metaLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Comment", Pattern: `//[^\n]*`},
	{Name: "Whitespace", Pattern: `[ \t\r\n]+`},
	{Name: "String", Pattern: `"(?:\\.|[^"\\])*"`},
	{Name: "Char", Pattern: `'(?:\\.|[^'\\])'`},
	{Name: "Ident", Pattern: `[A-Za-z][A-Za-z0-9_]*`},
	{Name: "Range", Pattern: `\.\.`},
	{Name: "Punct", Pattern: `[=~|!&*+?(){}_@]`},
})

var metaParser = participle.MustBuild[grammarFile](
	participle.Lexer(metaLexer),
	participle.Elide("Whitespace", "Comment"),
	participle.Unquote("String", "Char"),
)

func parseGrammarText(name, text string) (*grammarFile, error) {
	return metaParser.ParseString(name, text)
}
