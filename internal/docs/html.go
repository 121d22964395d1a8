package docs

import (
	"fmt"
	"html/template"
	"io"
	"strings"
)

var pageTemplate = template.Must(template.New("page").Funcs(template.FuncMap{
	"trim": func(s string) string { return strings.TrimRight(s, "\n") },
}).Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Grammar}} Grammar Reference</title>
<style>
body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", sans-serif; margin: 2rem auto; max-width: 60rem; color: #222; }
table { border-collapse: collapse; margin-bottom: 1.5rem; }
th, td { border: 1px solid #ddd; padding: 0.3rem 0.7rem; text-align: left; }
th { background: #f5f5f5; }
code, pre { font-family: "SFMono-Regular", Consolas, monospace; }
pre { background: #f7f7f7; padding: 0.8rem; overflow-x: auto; }
.error { color: #b00020; }
.kind-operator { color: #0b6e99; }
.kind-literal { color: #2f7d32; }
</style>
</head>
<body>
<h1>{{.Grammar}} Grammar Reference</h1>

<h2 id="operators">Operators</h2>
{{if .Operators}}<table>
<tr><th>Symbol</th><th>Name</th><th>Rule</th><th>Arity</th><th>Example</th><th>Parses to</th></tr>
{{range .Operators}}<tr><td><code>{{.Symbol}}</code></td><td>{{.Name}}</td><td>{{.Rule}}</td><td>{{.Arity}}</td><td><code>{{.Example}}</code></td><td><code>{{.Tree}}</code></td></tr>
{{end}}</table>
{{else}}<p>This grammar produces no operators.</p>
{{end}}
<h2 id="categories">Categories</h2>
<table>
<tr><th>Rule</th><th>Kind</th></tr>
{{range .Rules}}<tr><td>{{.Name}}</td><td class="kind-{{.Kind}}">{{.Kind}}</td></tr>
{{end}}</table>

<h2 id="examples">Examples</h2>
{{range .Examples}}<pre>{{.Source}}
{{if .Error}}<span class="error">=&gt; error: {{.Error}}</span>
{{end}}{{range .Trees}}=&gt; {{.}}
{{end}}</pre>
{{end}}
<h2 id="grammar">Grammar</h2>
<pre>{{trim .Source}}</pre>
</body>
</html>
`))

// WriteHTML renders ref as a standalone HTML page
func WriteHTML(w io.Writer, ref *Reference) error {
	if err := pageTemplate.Execute(w, ref); err != nil {
		return fmt.Errorf("failed to execute page template: %w", err)
	}
	return nil
}
