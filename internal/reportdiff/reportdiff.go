// Package reportdiff shows what changed between a rejected report draft and
// its repaired version.
package reportdiff

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

type Op string

const (
	OpContext Op = "context"
	OpAdded   Op = "added"
	OpRemoved Op = "removed"
)

type Line struct {
	Op      Op
	Text    string
	OldLine int // 0 for added lines
	NewLine int // 0 for removed lines
}

// Diff is a line-level comparison of two report texts.
type Diff struct {
	Lines []Line
}

// Compute diffs before and after line by line.
func Compute(before, after string) Diff {
	dmp := diffmatchpatch.New()
	a, b, lineArray := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lineArray)

	var d Diff
	oldLine, newLine := 1, 1
	for _, chunk := range diffs {
		for _, text := range splitChunk(chunk.Text) {
			switch chunk.Type {
			case diffmatchpatch.DiffEqual:
				d.Lines = append(d.Lines, Line{Op: OpContext, Text: text, OldLine: oldLine, NewLine: newLine})
				oldLine++
				newLine++
			case diffmatchpatch.DiffDelete:
				d.Lines = append(d.Lines, Line{Op: OpRemoved, Text: text, OldLine: oldLine})
				oldLine++
			case diffmatchpatch.DiffInsert:
				d.Lines = append(d.Lines, Line{Op: OpAdded, Text: text, NewLine: newLine})
				newLine++
			}
		}
	}
	return d
}

func splitChunk(s string) []string {
	lines := strings.Split(s, "\n")
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}
	return lines
}

// Changed reports whether any line was added or removed.
func (d Diff) Changed() bool {
	for _, l := range d.Lines {
		if l.Op != OpContext {
			return true
		}
	}
	return false
}

func (d Diff) Counts() (added, removed int) {
	for _, l := range d.Lines {
		switch l.Op {
		case OpAdded:
			added++
		case OpRemoved:
			removed++
		}
	}
	return added, removed
}

// Changes returns only the added and removed lines, in order.
func (d Diff) Changes() []Line {
	var out []Line
	for _, l := range d.Lines {
		if l.Op != OpContext {
			out = append(out, l)
		}
	}
	return out
}

// Unified renders changed lines with "-"/"+" markers.
func (d Diff) Unified() string {
	var b strings.Builder
	for _, l := range d.Changes() {
		if l.Op == OpAdded {
			b.WriteString("+ ")
		} else {
			b.WriteString("- ")
		}
		b.WriteString(l.Text)
		b.WriteString("\n")
	}
	return b.String()
}
