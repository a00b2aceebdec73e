package triage

import "strings"

// Snapshot captures the report fields compared before and after a transition.
type Snapshot struct {
	Status string `json:"status"`
	Memo   string `json:"memo"`
}

// NoChanges is the summary produced when the snapshots are equal.
const NoChanges = "no changes"

// DiffSummary describes the field-level differences between two snapshots.
func DiffSummary(before, after Snapshot) string {
	changes := make([]string, 0, 2)
	if before.Memo != after.Memo {
		changes = append(changes, "memo changed")
	}
	if before.Status != after.Status {
		changes = append(changes, "status("+dash(before.Status)+"→"+dash(after.Status)+")")
	}
	if len(changes) == 0 {
		return NoChanges
	}
	return strings.Join(changes, ", ")
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// LineChange classifies one line of a LineDiff.
type LineChange string

const (
	LineSame    LineChange = "same"
	LineAdded   LineChange = "added"
	LineRemoved LineChange = "removed"
	LineChanged LineChange = "changed"
)

// DiffLine is a positional comparison of two lines.
type DiffLine struct {
	Type    LineChange `json:"type"`
	OldLine string     `json:"old_line"`
	NewLine string     `json:"new_line"`
}

// LineDiff compares two texts line by line at equal positions. It is not an LCS diff.
func LineDiff(oldText, newText string) []DiffLine {
	oldLines := strings.Split(oldText, "\n")
	newLines := strings.Split(newText, "\n")

	n := len(oldLines)
	if len(newLines) > n {
		n = len(newLines)
	}

	result := make([]DiffLine, 0, n)
	for i := 0; i < n; i++ {
		var oldLine, newLine string
		if i < len(oldLines) {
			oldLine = oldLines[i]
		}
		if i < len(newLines) {
			newLine = newLines[i]
		}

		change := LineChanged
		switch {
		case oldLine == newLine:
			change = LineSame
		case oldLine == "":
			change = LineAdded
		case newLine == "":
			change = LineRemoved
		}
		result = append(result, DiffLine{Type: change, OldLine: oldLine, NewLine: newLine})
	}
	return result
}
