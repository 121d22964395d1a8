package docs

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode"
)

// Write renders ref in the given format
func Write(w io.Writer, ref *Reference, format Format) error {
	switch format {
	case FormatMarkdown:
		return WriteMarkdown(w, ref)
	case FormatHTML:
		return WriteHTML(w, ref)
	default:
		return fmt.Errorf("unknown documentation format %q", format)
	}
}

// Generate writes ref into outputDir, creating it if needed, and returns
// the path of the written file.
func Generate(ref *Reference, format Format, outputDir string) (string, error) {
	if containsPathTraversal(outputDir) {
		return "", fmt.Errorf("output directory %q must not contain '..'", outputDir)
	}

	var ext string
	switch format {
	case FormatMarkdown:
		ext = ".md"
	case FormatHTML:
		ext = ".html"
	default:
		return "", fmt.Errorf("unknown documentation format %q", format)
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	path := filepath.Join(outputDir, FileStem(ref.Grammar)+ext)
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	if err := Write(f, ref, format); err != nil {
		return "", err
	}
	return path, f.Close()
}

// FileStem turns a grammar name such as "grammars/My Expr.peg" into a file
// name stem such as "my-expr".
func FileStem(name string) string {
	base := filepath.Base(name)
	base = strings.TrimSuffix(base, filepath.Ext(base))

	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(base) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
		} else if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}

	stem := strings.TrimSuffix(b.String(), "-")
	if stem == "" {
		return "grammar"
	}
	return stem
}
