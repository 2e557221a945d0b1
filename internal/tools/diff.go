package tools

import (
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// maxPreviewLines bounds a diff preview shown for confirmation.
const maxPreviewLines = 400

// DiffPreview renders a line diff between oldContent and newContent with
// ---/+++ headers and a +/- summary.
func DiffPreview(label, oldContent, newContent string) string {
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(oldContent, newContent)
	diffs := dmp.DiffMain(a, b, false)
	diffs = dmp.DiffCharsToLines(diffs, lines)

	var result strings.Builder
	fmt.Fprintf(&result, "--- %s\n", label)
	fmt.Fprintf(&result, "+++ %s\n", label)

	added, removed, written := 0, 0, 0
	for _, d := range diffs {
		parts := strings.Split(d.Text, "\n")
		for i, line := range parts {
			if i == len(parts)-1 && line == "" {
				continue
			}
			var prefix string
			switch d.Type {
			case diffmatchpatch.DiffEqual:
				prefix = " "
			case diffmatchpatch.DiffDelete:
				prefix = "-"
				removed++
			case diffmatchpatch.DiffInsert:
				prefix = "+"
				added++
			}
			if written < maxPreviewLines {
				result.WriteString(prefix + line + "\n")
				written++
			}
		}
	}
	if written >= maxPreviewLines {
		result.WriteString("... (preview truncated)\n")
	}
	fmt.Fprintf(&result, "(+%d -%d lines)\n", added, removed)
	return result.String()
}
