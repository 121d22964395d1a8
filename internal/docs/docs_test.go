package docs

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tsparse/tsparse/internal/compiler/grammar"
	"github.com/tsparse/tsparse/internal/compiler/parser"
)

func extractDefault(t *testing.T) *Reference {
	t.Helper()
	p, err := parser.New()
	require.NoError(t, err)
	return NewExtractor(p).Extract()
}

func TestExtract(t *testing.T) {
	ref := extractDefault(t)

	assert.Equal(t, "expr.peg", ref.Grammar)
	assert.Contains(t, ref.Source, "program")

	require.NotEmpty(t, ref.Rules)
	assert.Equal(t, &RuleDoc{Name: "program", Kind: "structure"}, ref.Rules[0])

	kinds := make(map[string]string)
	for _, r := range ref.Rules {
		kinds[r.Name] = r.Kind
	}
	assert.Equal(t, "literal", kinds["NUMBER"])
	assert.Equal(t, "operator", kinds["plus"])
	assert.Equal(t, "structure", kinds["grouping"])

	require.Len(t, ref.Operators, 12)
	assert.Equal(t, &OperatorDoc{
		Symbol:  "!=",
		Name:    "NotEqual",
		Rule:    "not_equal",
		Arity:   "binary",
		Example: "1 != 2",
		Tree:    "(!= 1 2)",
	}, ref.Operators[0])

	byName := make(map[string]*OperatorDoc)
	for _, op := range ref.Operators {
		byName[op.Name] = op
	}
	assert.Equal(t, "unary, binary", byName["Minus"].Arity)
	assert.Equal(t, "(- (- 1) 2)", byName["Minus"].Tree)
	assert.Equal(t, "unary", byName["Invert"].Arity)
	assert.Equal(t, "(! true)", byName["Invert"].Tree)
}

func TestExtractExamples(t *testing.T) {
	ref := extractDefault(t)

	got := make(map[string]*ExampleDoc)
	for _, ex := range ref.Examples {
		got[ex.Source] = ex
	}

	assert.Equal(t, []string{"(+ 1 (* 2 3))"}, got["1 + 2 * 3"].Trees)
	assert.Equal(t, []string{"(* (group (+ 1 2)) 3)"}, got["(1 + 2) * 3"].Trees)
	assert.Equal(t, []string{"(- (- 8 4) 2)"}, got["8 - 4 - 2"].Trees)
	assert.Equal(t, []string{"(== (! true) false)"}, got["!true == false"].Trees)

	failed := got["1 +"]
	assert.Empty(t, failed.Trees)
	assert.Contains(t, failed.Error, "SYN002")
}

func TestExtractGrammarWithoutOperators(t *testing.T) {
	g := grammar.MustLoad("numbers.peg", `
WHITESPACE = _{ " " }
program    = { SOI ~ expression* ~ EOI }
expression = { NUMBER }
NUMBER     = @{ ASCII_DIGIT+ }
`)
	p, err := parser.New(parser.WithGrammar(g))
	require.NoError(t, err)

	ref := NewExtractor(p).Extract()
	assert.Empty(t, ref.Operators)

	var buf bytes.Buffer
	require.NoError(t, WriteMarkdown(&buf, ref))
	assert.Contains(t, buf.String(), "This grammar produces no operators.")
}

func TestWriteMarkdown(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteMarkdown(&buf, extractDefault(t)))
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, "# expr.peg Grammar Reference\n"))
	assert.Contains(t, out, "| `==` | DoubleEqual | double_equal | binary | `1 == 2` | `(== 1 2)` |")
	assert.Contains(t, out, "| NUMBER | literal |")
	assert.Contains(t, out, "```\n1 + 2 * 3\n=> (+ 1 (* 2 3))\n```")
	assert.Contains(t, out, "=> error: <source>:1:4:")
	assert.Contains(t, out, "```peg\n")
}

func TestWriteHTML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteHTML(&buf, extractDefault(t)))
	out := buf.String()

	assert.Contains(t, out, "<title>expr.peg Grammar Reference</title>")
	assert.Contains(t, out, "<td><code>&lt;=</code></td>")
	assert.Contains(t, out, `<td class="kind-literal">literal</td>`)
	assert.Contains(t, out, "=&gt; (&#43; 1 (* 2 3))")
	assert.NotContains(t, out, "<= 1 2")
}

func TestWriteUnknownFormat(t *testing.T) {
	err := Write(&bytes.Buffer{}, &Reference{}, Format("pdf"))
	assert.EqualError(t, err, `unknown documentation format "pdf"`)
}

func TestGenerate(t *testing.T) {
	ref := extractDefault(t)
	dir := filepath.Join(t.TempDir(), "out")

	path, err := Generate(ref, FormatMarkdown, dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "expr.md"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Grammar Reference")

	path, err = Generate(ref, FormatHTML, dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "expr.html"), path)

	_, err = Generate(ref, FormatMarkdown, "docs/../../etc")
	assert.Error(t, err)

	_, err = Generate(ref, Format("pdf"), dir)
	assert.Error(t, err)
}

func TestFileStem(t *testing.T) {
	tests := map[string]string{
		"expr.peg":               "expr",
		"grammars/My Expr.peg":   "my-expr",
		"weird__name--v2.peg":    "weird-name-v2",
		"!!!.peg":                "grammar",
		filepath.Join("a", "b"): "b",
	}
	for in, want := range tests {
		assert.Equal(t, want, FileStem(in), in)
	}
}

func TestContainsPathTraversal(t *testing.T) {
	assert.True(t, containsPathTraversal("../docs"))
	assert.True(t, containsPathTraversal(`a\..\b`))
	assert.False(t, containsPathTraversal("docs/..hidden"))
	assert.False(t, containsPathTraversal("docs"))
}
