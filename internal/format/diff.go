package format

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/fatih/color"
)

// DiffResult represents the difference between original and formatted code
type DiffResult struct {
	Original  string
	Formatted string
	Changed   bool

	hunks []hunk
}

// hunk is a run of deleted and inserted lines. oldStart and newStart are
// 1-based line numbers.
type hunk struct {
	oldStart, newStart int
	deleted, inserted  []string
}

// Diff compares original and formatted code line by line
func Diff(original, formatted string) *DiffResult {
	d := &DiffResult{
		Original:  original,
		Formatted: formatted,
		Changed:   original != formatted,
	}
	if d.Changed {
		d.hunks = diffLines(splitLines(original), splitLines(formatted))
	}
	return d
}

func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(s, "\n"), "\n")
}

// diffLines groups the lines outside a longest common subsequence of a and
// b into hunks.
func diffLines(a, b []string) []hunk {
	// lcs[i][j] is the LCS length of a[i:] and b[j:]
	lcs := make([][]int, len(a)+1)
	for i := range lcs {
		lcs[i] = make([]int, len(b)+1)
	}
	for i := len(a) - 1; i >= 0; i-- {
		for j := len(b) - 1; j >= 0; j-- {
			if a[i] == b[j] {
				lcs[i][j] = lcs[i+1][j+1] + 1
			} else {
				lcs[i][j] = max(lcs[i+1][j], lcs[i][j+1])
			}
		}
	}

	var hunks []hunk
	var cur *hunk
	flush := func() {
		if cur != nil {
			hunks = append(hunks, *cur)
			cur = nil
		}
	}
	open := func(i, j int) *hunk {
		if cur == nil {
			cur = &hunk{oldStart: i + 1, newStart: j + 1}
		}
		return cur
	}

	i, j := 0, 0
	for i < len(a) || j < len(b) {
		switch {
		case i < len(a) && j < len(b) && a[i] == b[j]:
			flush()
			i++
			j++
		case j < len(b) && (i == len(a) || lcs[i][j+1] >= lcs[i+1][j]):
			h := open(i, j)
			h.inserted = append(h.inserted, b[j])
			j++
		default:
			h := open(i, j)
			h.deleted = append(h.deleted, a[i])
			i++
		}
	}
	flush()

	return hunks
}

// String returns a human-readable diff with color highlighting
func (d *DiffResult) String() string {
	if !d.Changed {
		return color.GreenString("No changes needed")
	}

	var buf bytes.Buffer
	red := color.New(color.FgRed)
	green := color.New(color.FgGreen)
	cyan := color.New(color.FgCyan)

	for _, h := range d.hunks {
		cyan.Fprintf(&buf, "@@ Line %d @@\n", h.oldStart)
		for _, l := range h.deleted {
			red.Fprintf(&buf, "- %s\n", l)
		}
		for _, l := range h.inserted {
			green.Fprintf(&buf, "+ %s\n", l)
		}
	}

	return buf.String()
}

// UnifiedDiff returns the changes as a unified diff without context lines
func (d *DiffResult) UnifiedDiff(filename string) string {
	if !d.Changed {
		return ""
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "--- a/%s\n", filename)
	fmt.Fprintf(&buf, "+++ b/%s\n", filename)

	for _, h := range d.hunks {
		fmt.Fprintf(&buf, "@@ -%s +%s @@\n",
			hunkRange(h.oldStart, len(h.deleted)),
			hunkRange(h.newStart, len(h.inserted)))
		for _, l := range h.deleted {
			fmt.Fprintf(&buf, "-%s\n", l)
		}
		for _, l := range h.inserted {
			fmt.Fprintf(&buf, "+%s\n", l)
		}
	}

	return buf.String()
}

// hunkRange renders a unified diff range; an empty range names the line
// before it.
func hunkRange(start, count int) string {
	if count == 0 {
		return fmt.Sprintf("%d,0", start-1)
	}
	if count == 1 {
		return fmt.Sprintf("%d", start)
	}
	return fmt.Sprintf("%d,%d", start, count)
}

// Stats returns statistics about the changes
func (d *DiffResult) Stats() string {
	if !d.Changed {
		return "No changes"
	}

	added, removed := 0, 0
	for _, h := range d.hunks {
		added += len(h.inserted)
		removed += len(h.deleted)
	}
	return fmt.Sprintf("%d line(s) added, %d line(s) removed", added, removed)
}
