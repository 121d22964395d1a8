// Package tooling provides a programmatic API for editor integration. It
// keeps the state of open documents, parses them on every change, and exposes
// diagnostics, an outline of top-level expressions and hover information in a
// thread-safe manner suitable for a Language Server Protocol server.
package tooling

import (
	"fmt"
	"sync"
	"unicode/utf8"

	"github.com/tsparse/tsparse/internal/compiler/ast"
	"github.com/tsparse/tsparse/internal/compiler/cache"
	"github.com/tsparse/tsparse/internal/compiler/errors"
	"github.com/tsparse/tsparse/internal/compiler/grammar"
	"github.com/tsparse/tsparse/internal/compiler/parser"
)

// DiagnosticSource names this tool in published diagnostics.
const DiagnosticSource = "tsparse"

// API provides thread-safe access to the parser for editor integration.
type API struct {
	documents map[string]*Document
	docsMutex sync.RWMutex

	parser *parser.Parser
	hasher *cache.FileHasher
}

// Document represents an open document and the result of parsing it
type Document struct {
	// URI is the document identifier (typically a file URI)
	URI string

	// Content is the raw source code
	Content string

	// Hash identifies Content
	Hash string

	// Version tracks document changes (as reported by the editor)
	Version int

	// Expressions holds the top-level expressions when parsing succeeded
	Expressions []parser.Located

	// Failure is set when parsing failed
	Failure *grammar.Failure

	// Symbols is the outline: one entry per top-level expression
	Symbols []*Symbol
}

// Position represents a position in a document (zero-based for LSP compatibility)
type Position struct {
	Line      int // Zero-based line number
	Character int // Zero-based character offset
}

// Range represents a range in a document
type Range struct {
	Start Position
	End   Position
}

// Contains reports whether pos lies within the range (end inclusive, so a
// cursor placed right after an expression still refers to it).
func (r Range) Contains(pos Position) bool {
	return !pos.before(r.Start) && !r.End.before(pos)
}

func (p Position) before(other Position) bool {
	if p.Line != other.Line {
		return p.Line < other.Line
	}
	return p.Character < other.Character
}

// Symbol represents a top-level expression in the document outline
type Symbol struct {
	Name   string
	Kind   SymbolKind
	Range  Range
	Detail string
}

// SymbolKind categorizes symbols by the root node of the expression
type SymbolKind int

const (
	// SymbolKindBinary represents a binary operator application
	SymbolKindBinary SymbolKind = iota
	// SymbolKindUnary represents a prefix operator application
	SymbolKindUnary
	// SymbolKindGrouping represents a parenthesized expression
	SymbolKindGrouping
	// SymbolKindNumber represents a number literal
	SymbolKindNumber
	// SymbolKindBoolean represents true or false
	SymbolKindBoolean
	// SymbolKindString represents a string literal
	SymbolKindString
)

// Hover represents hover information for an expression
type Hover struct {
	// Contents is the hover text (markdown formatted)
	Contents string

	// Range is the range of the expression
	Range Range
}

// Diagnostic represents a parse error
type Diagnostic struct {
	Range    Range
	Severity DiagnosticSeverity
	Code     string
	Message  string
	Source   string
}

// DiagnosticSeverity indicates the severity of a diagnostic
type DiagnosticSeverity int

const (
	// DiagnosticSeverityError represents an error diagnostic
	DiagnosticSeverityError DiagnosticSeverity = iota
	// DiagnosticSeverityWarning represents a warning diagnostic
	DiagnosticSeverityWarning
	// DiagnosticSeverityInfo represents an informational diagnostic
	DiagnosticSeverityInfo
	// DiagnosticSeverityHint represents a hint diagnostic
	DiagnosticSeverityHint
)

// NewAPI creates a new tooling API that parses with p
func NewAPI(p *parser.Parser) *API {
	return &API{
		documents: make(map[string]*Document),
		parser:    p,
		hasher:    cache.NewFileHasher(),
	}
}

// ParseFile parses a document and stores it under uri
func (a *API) ParseFile(uri, content string) (*Document, error) {
	return a.UpdateDocument(uri, content, 1)
}

// UpdateDocument replaces the content of a document and re-parses it.
// Unchanged content only updates the version.
func (a *API) UpdateDocument(uri, content string, version int) (*Document, error) {
	hash := a.hasher.HashString(content)

	a.docsMutex.Lock()
	if old, exists := a.documents[uri]; exists && old.Hash == hash && old.Content == content {
		old.Version = version
		a.docsMutex.Unlock()
		return old, nil
	}
	a.docsMutex.Unlock()

	doc, err := a.parseDocument(uri, content)
	if err != nil {
		return nil, err
	}
	doc.Hash = hash
	doc.Version = version

	a.docsMutex.Lock()
	a.documents[uri] = doc
	a.docsMutex.Unlock()

	return doc, nil
}

// parseDocument parses content without holding the document lock. A parse
// failure is recorded in the document rather than returned.
func (a *API) parseDocument(uri, content string) (*Document, error) {
	doc := &Document{
		URI:     uri,
		Content: content,
		Symbols: make([]*Symbol, 0),
	}

	located, err := a.parser.ParseLocated(content)
	if err != nil {
		failure, ok := err.(*grammar.Failure)
		if !ok {
			return nil, fmt.Errorf("parse %s: %w", uri, err)
		}
		doc.Failure = failure
		return doc, nil
	}

	doc.Expressions = located
	for _, l := range located {
		doc.Symbols = append(doc.Symbols, symbolFor(l))
	}
	return doc, nil
}

// GetDocument retrieves an open document
func (a *API) GetDocument(uri string) (*Document, bool) {
	a.docsMutex.RLock()
	defer a.docsMutex.RUnlock()

	doc, exists := a.documents[uri]
	return doc, exists
}

// CloseDocument forgets a document
func (a *API) CloseDocument(uri string) {
	a.docsMutex.Lock()
	delete(a.documents, uri)
	a.docsMutex.Unlock()
}

// DocumentCount returns the number of open documents
func (a *API) DocumentCount() int {
	a.docsMutex.RLock()
	defer a.docsMutex.RUnlock()

	return len(a.documents)
}

// GetDiagnostics returns diagnostics for a document. A document that parsed
// cleanly has none.
func (a *API) GetDiagnostics(uri string) []Diagnostic {
	doc, exists := a.GetDocument(uri)
	if !exists {
		return nil
	}

	diagnostics := make([]Diagnostic, 0, 1)
	if doc.Failure == nil {
		return diagnostics
	}

	e := errors.FromFailure(doc.Failure)
	start := toPosition(doc.Failure.Pos)
	end := start
	end.Character += e.Length

	message := e.Message
	if e.Expected != "" {
		message += ", expected " + e.Expected
	}
	if e.Suggestion != "" {
		message += "\n" + e.Suggestion
	}

	return append(diagnostics, Diagnostic{
		Range:    Range{Start: start, End: end},
		Severity: DiagnosticSeverityError,
		Code:     string(e.Code),
		Message:  message,
		Source:   DiagnosticSource,
	})
}

// GetHover returns hover information for the innermost expression at pos.
// A cursor right after a top-level expression refers to the whole of it.
// Returns (nil, nil) if no expression covers the position.
func (a *API) GetHover(uri string, pos Position) (*Hover, error) {
	doc, exists := a.GetDocument(uri)
	if !exists {
		return nil, fmt.Errorf("document not found: %s", uri)
	}

	for _, l := range doc.Expressions {
		if e, r, ok := innermost(l, pos); ok {
			return buildHover(e, r), nil
		}
	}
	for _, l := range doc.Expressions {
		r := rangeOf(l)
		if r.Contains(pos) {
			return buildHover(l.Expr, r), nil
		}
	}
	return nil, nil //nolint:nilnil // nil hover is valid when no expression at position
}

// innermost finds the deepest node of l whose span covers pos, end exclusive.
// Spans of siblings never overlap, so the covering nodes form a single path.
func innermost(l parser.Located, pos Position) (ast.ExprNode, Range, bool) {
	var (
		found ast.ExprNode
		at    Range
	)
	ast.Inspect(l.Expr, func(e ast.ExprNode) bool {
		span, ok := l.Spans[e]
		if !ok {
			return false
		}
		r := Range{Start: toPosition(span.Start), End: toPosition(span.End)}
		if pos.before(r.Start) || !pos.before(r.End) {
			return false
		}
		found, at = e, r
		return true
	})
	return found, at, found != nil
}

// GetDocumentSymbols returns the outline of a document
func (a *API) GetDocumentSymbols(uri string) ([]*Symbol, error) {
	doc, exists := a.GetDocument(uri)
	if !exists {
		return nil, fmt.Errorf("document not found: %s", uri)
	}

	return doc.Symbols, nil
}

// Helper functions

func toPosition(p grammar.Position) Position {
	return Position{Line: p.Line - 1, Character: p.Column - 1}
}

func rangeOf(l parser.Located) Range {
	return Range{Start: toPosition(l.Start), End: toPosition(l.End)}
}

// maxSymbolName bounds the length of outline entries.
const maxSymbolName = 60

func symbolFor(l parser.Located) *Symbol {
	name := l.Expr.String()
	if utf8.RuneCountInString(name) > maxSymbolName {
		name = string([]rune(name)[:maxSymbolName-1]) + "…"
	}

	kind, detail := classify(l.Expr)
	return &Symbol{
		Name:   name,
		Kind:   kind,
		Range:  rangeOf(l),
		Detail: detail,
	}
}

func classify(e ast.ExprNode) (SymbolKind, string) {
	switch n := e.(type) {
	case *ast.BinaryExpr:
		return SymbolKindBinary, n.Operator.Name()
	case *ast.UnaryExpr:
		return SymbolKindUnary, n.Operator.Name()
	case *ast.GroupingExpr:
		return SymbolKindGrouping, "Grouping"
	case *ast.NumberLiteral:
		return SymbolKindNumber, "Number"
	case *ast.BoolLiteral:
		return SymbolKindBoolean, "Bool"
	case *ast.StringLiteral:
		return SymbolKindString, "String"
	}
	return SymbolKindBinary, ""
}
