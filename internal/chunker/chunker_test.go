package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KashifAliLashari/DocChat-Ollama-MERN/internal/pdfextract"
)

func TestChunkShortPageStaysWhole(t *testing.T) {
	c := New(100, 10)
	drafts := c.Chunk([]pdfextract.Page{{Number: 1, Text: "A short page."}})

	require.Len(t, drafts, 1)
	assert.Equal(t, "A short page.", drafts[0].Text)
	assert.Equal(t, 1, drafts[0].PageNumber)
	assert.Equal(t, 0, drafts[0].SequenceIndex)
}

func TestChunkSkipsWhitespaceOnlyPages(t *testing.T) {
	c := New(100, 10)
	drafts := c.Chunk([]pdfextract.Page{
		{Number: 1, Text: "First page."},
		{Number: 2, Text: "  \n\t  "},
		{Number: 3, Text: "Third page."},
	})

	require.Len(t, drafts, 2)
	assert.Equal(t, 1, drafts[0].PageNumber)
	assert.Equal(t, 3, drafts[1].PageNumber)
	// Sequence stays monotonic across the skipped page.
	assert.Equal(t, 0, drafts[0].SequenceIndex)
	assert.Equal(t, 1, drafts[1].SequenceIndex)
}

func TestChunkSplitsLongPageWithOverlap(t *testing.T) {
	sentence := "The quick brown fox jumps over the lazy dog. "
	text := strings.TrimSpace(strings.Repeat(sentence, 60))

	c := New(500, 50)
	drafts := c.Chunk([]pdfextract.Page{{Number: 4, Text: text}})

	require.Greater(t, len(drafts), 1)
	for i, d := range drafts {
		assert.Equal(t, 4, d.PageNumber)
		assert.Equal(t, i, d.SequenceIndex)
		assert.LessOrEqual(t, len([]rune(d.Text)), 500)
		assert.NotEmpty(t, d.Text)
	}

	// Adjacent chunks share text from the overlap window.
	tail := drafts[0].Text[len(drafts[0].Text)-20:]
	assert.Contains(t, drafts[1].Text, strings.TrimSpace(tail))
}

func TestChunkPrefersSentenceBoundary(t *testing.T) {
	text := strings.Repeat("x", 450) + ". " + strings.Repeat("y", 400)

	c := New(500, 50)
	drafts := c.Chunk([]pdfextract.Page{{Number: 1, Text: text}})

	require.Greater(t, len(drafts), 1)
	assert.True(t, strings.HasSuffix(drafts[0].Text, "."))
}

func TestChunkIsDeterministic(t *testing.T) {
	pages := []pdfextract.Page{
		{Number: 1, Text: strings.Repeat("Deterministic splitting matters for re-ingest. ", 40)},
		{Number: 2, Text: "Short tail page."},
	}

	c := New(300, 30)
	first := c.Chunk(pages)
	second := c.Chunk(pages)

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i], second[i])
	}
}

func TestChunkEmptyInput(t *testing.T) {
	c := New(0, 0)
	assert.Empty(t, c.Chunk(nil))
	assert.Empty(t, c.Chunk([]pdfextract.Page{}))
}

func TestNewDefaults(t *testing.T) {
	c := New(0, -1)
	assert.Equal(t, defaultBudget, c.budget)
	assert.Equal(t, defaultBudget/8, c.overlap)

	c = New(100, 200)
	assert.Equal(t, 100, c.budget)
	assert.Equal(t, 100/8, c.overlap)
}

func TestNewZeroOverlapTakesDefault(t *testing.T) {
	c := New(0, 0)
	assert.Equal(t, defaultBudget, c.budget)
	assert.Equal(t, defaultBudget/8, c.overlap)

	c = New(400, 0)
	assert.Equal(t, 400, c.budget)
	assert.Equal(t, 400/8, c.overlap)
}

func TestChunkDefaultsProduceOverlap(t *testing.T) {
	sentence := "Default settings must still carry context between chunks. "
	text := strings.TrimSpace(strings.Repeat(sentence, 40))

	c := New(0, 0)
	drafts := c.Chunk([]pdfextract.Page{{Number: 1, Text: text}})

	require.Greater(t, len(drafts), 1)
	tail := drafts[0].Text[len(drafts[0].Text)-20:]
	assert.Contains(t, drafts[1].Text, strings.TrimSpace(tail))
}

func TestChunkTerminatesWithTightOverlap(t *testing.T) {
	// An early sentence terminator combined with an overlap close to the
	// budget must not stall the window.
	text := strings.Repeat("z", 30) + ". " + strings.Repeat("q", 300)

	c := New(100, 95)
	drafts := c.Chunk([]pdfextract.Page{{Number: 1, Text: text}})

	require.NotEmpty(t, drafts)
	for i, d := range drafts {
		assert.Equal(t, i, d.SequenceIndex)
		assert.LessOrEqual(t, len([]rune(d.Text)), 100)
	}
	last := drafts[len(drafts)-1].Text
	assert.True(t, strings.HasSuffix(last, "q"))
}
