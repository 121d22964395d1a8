package ui

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/fatih/color"
)

// Table renders rows under a highlighted header, columns padded to fit
type Table struct {
	writer  io.Writer
	headers []string
	rows    [][]string
	noColor bool
}

// NewTable creates a new table with the given headers
func NewTable(w io.Writer, noColor bool, headers ...string) *Table {
	return &Table{writer: w, headers: headers, noColor: noColor}
}

// AddRow adds a row to the table
func (t *Table) AddRow(cells ...string) {
	t.rows = append(t.rows, cells)
}

// Render writes the table
func (t *Table) Render() {
	if len(t.headers) == 0 {
		return
	}

	widths := make([]int, len(t.headers))
	for i, h := range t.headers {
		widths[i] = utf8.RuneCountInString(h)
	}
	for _, row := range t.rows {
		for i, cell := range row {
			if i < len(widths) {
				widths[i] = max(widths[i], utf8.RuneCountInString(cell))
			}
		}
	}

	bold := palette(t.noColor, color.Bold, color.FgCyan)
	gray := palette(t.noColor, color.FgHiBlack)

	t.line(t.headers, widths, bold)

	rules := make([]string, len(widths))
	for i, w := range widths {
		rules[i] = strings.Repeat("─", w)
	}
	t.line(rules, widths, gray)

	for _, row := range t.rows {
		t.line(row, widths, nil)
	}
}

func (t *Table) line(cells []string, widths []int, c *color.Color) {
	n := min(len(cells), len(widths))
	for i := 0; i < n; i++ {
		cell := cells[i]
		if i < n-1 {
			cell = padRight(cell, widths[i]) + "  "
		}
		if c != nil {
			c.Fprint(t.writer, cell)
		} else {
			fmt.Fprint(t.writer, cell)
		}
	}
	fmt.Fprintln(t.writer)
}

func padRight(s string, width int) string {
	if n := utf8.RuneCountInString(s); n < width {
		return s + strings.Repeat(" ", width-n)
	}
	return s
}

// KeyValueTable renders aligned "key: value" lines
type KeyValueTable struct {
	writer  io.Writer
	keys    []string
	values  []string
	noColor bool
}

// NewKeyValueTable creates a new key-value table
func NewKeyValueTable(w io.Writer, noColor bool) *KeyValueTable {
	return &KeyValueTable{writer: w, noColor: noColor}
}

// AddRow adds a key-value pair to the table
func (t *KeyValueTable) AddRow(key, value string) {
	t.keys = append(t.keys, key)
	t.values = append(t.values, value)
}

// Render writes the table
func (t *KeyValueTable) Render() {
	width := 0
	for _, k := range t.keys {
		width = max(width, utf8.RuneCountInString(k)+1)
	}

	cyan := palette(t.noColor, color.FgCyan)
	for i, k := range t.keys {
		cyan.Fprint(t.writer, padRight(k+":", width))
		fmt.Fprintf(t.writer, " %s\n", t.values[i])
	}
}
