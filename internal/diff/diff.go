// Package diff computes line-level diffs between two texts.
package diff

import "strings"

type Kind string

const (
	Unchanged Kind = "unchanged"
	Added     Kind = "added"
	Removed   Kind = "removed"
)

type Entry struct {
	Kind Kind   `json:"kind"`
	Line string `json:"line"`
}

// Lines aligns the two texts on their longest common subsequence of lines
// and returns a minimal edit script transforming original into updated.
// Removed lines always come from original, added lines from updated; on a
// tie the original line is marked removed first. Pure function: identical
// inputs always produce the identical script.
func Lines(original, updated string) []Entry {
	a := strings.Split(original, "\n")
	b := strings.Split(updated, "\n")
	m, n := len(a), len(b)

	// lcs[i][j] is the LCS length of a[i:] and b[j:], filled from the
	// bottom-right corner backwards.
	lcs := make([][]int, m+1)
	for i := range lcs {
		lcs[i] = make([]int, n+1)
	}
	for i := m - 1; i >= 0; i-- {
		for j := n - 1; j >= 0; j-- {
			if a[i] == b[j] {
				lcs[i][j] = lcs[i+1][j+1] + 1
			} else if lcs[i+1][j] >= lcs[i][j+1] {
				lcs[i][j] = lcs[i+1][j]
			} else {
				lcs[i][j] = lcs[i][j+1]
			}
		}
	}

	entries := make([]Entry, 0, m+n)
	i, j := 0, 0
	for i < m && j < n {
		switch {
		case a[i] == b[j]:
			entries = append(entries, Entry{Unchanged, a[i]})
			i++
			j++
		case lcs[i+1][j] >= lcs[i][j+1]:
			entries = append(entries, Entry{Removed, a[i]})
			i++
		default:
			entries = append(entries, Entry{Added, b[j]})
			j++
		}
	}
	for ; i < m; i++ {
		entries = append(entries, Entry{Removed, a[i]})
	}
	for ; j < n; j++ {
		entries = append(entries, Entry{Added, b[j]})
	}
	return entries
}

// Render formats an edit script with one "+", "-" or " " marked line per
// entry, the way version control tools print patches.
func Render(entries []Entry) string {
	var sb strings.Builder
	for _, e := range entries {
		switch e.Kind {
		case Added:
			sb.WriteString("+ ")
		case Removed:
			sb.WriteString("- ")
		default:
			sb.WriteString("  ")
		}
		sb.WriteString(e.Line)
		sb.WriteByte('\n')
	}
	return sb.String()
}
