package diff

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func kinds(entries []Entry) []Kind {
	out := make([]Kind, len(entries))
	for i, e := range entries {
		out[i] = e.Kind
	}
	return out
}

func TestLinesIdenticalInputs(t *testing.T) {
	entries := Lines("a\nb\nc", "a\nb\nc")
	require.Len(t, entries, 3)
	for _, e := range entries {
		assert.Equal(t, Unchanged, e.Kind)
	}
}

func TestLinesInsertion(t *testing.T) {
	entries := Lines("a\nb", "a\nx\nb")
	require.Equal(t, []Kind{Unchanged, Added, Unchanged}, kinds(entries))
	assert.Equal(t, "a", entries[0].Line)
	assert.Equal(t, "x", entries[1].Line)
	assert.Equal(t, "b", entries[2].Line)
}

func TestLinesRemoval(t *testing.T) {
	entries := Lines("a\nx\nb", "a\nb")
	require.Equal(t, []Kind{Unchanged, Removed, Unchanged}, kinds(entries))
	assert.Equal(t, "x", entries[1].Line)
}

func TestLinesReplacementRemovesFirst(t *testing.T) {
	// On a tie the original line is marked removed before the new one is
	// added.
	entries := Lines("a\nold\nb", "a\nnew\nb")
	require.Equal(t, []Kind{Unchanged, Removed, Added, Unchanged}, kinds(entries))
	assert.Equal(t, "old", entries[1].Line)
	assert.Equal(t, "new", entries[2].Line)
}

func TestLinesTrailingAdditions(t *testing.T) {
	entries := Lines("a", "a\nb\nc")
	require.Equal(t, []Kind{Unchanged, Added, Added}, kinds(entries))
}

func TestLinesTrailingRemovals(t *testing.T) {
	entries := Lines("a\nb\nc", "a")
	require.Equal(t, []Kind{Unchanged, Removed, Removed}, kinds(entries))
}

func TestLinesFullRewrite(t *testing.T) {
	entries := Lines("x\ny", "p\nq")
	for _, e := range entries {
		assert.NotEqual(t, Unchanged, e.Kind)
	}
}

func TestLinesReconstructsBothSides(t *testing.T) {
	original := "alpha\nbeta\ngamma\ndelta"
	updated := "alpha\ngamma\nepsilon\ndelta"
	entries := Lines(original, updated)

	var left, right []string
	for _, e := range entries {
		switch e.Kind {
		case Unchanged:
			left = append(left, e.Line)
			right = append(right, e.Line)
		case Removed:
			left = append(left, e.Line)
		case Added:
			right = append(right, e.Line)
		}
	}
	assert.Equal(t, original, strings.Join(left, "\n"))
	assert.Equal(t, updated, strings.Join(right, "\n"))
}

func TestLinesDeterministic(t *testing.T) {
	a := "one\ntwo\nthree"
	b := "one\nthree\nfour"
	assert.Equal(t, Lines(a, b), Lines(a, b))
}

func TestRender(t *testing.T) {
	entries := Lines("a\nb", "a\nc")
	text := Render(entries)
	assert.Equal(t, "  a\n- b\n+ c\n", text)
}
