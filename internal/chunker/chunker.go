// Package chunker splits extracted page text into overlapping passages that
// carry page provenance. Chunk boundaries are deterministic for a given text
// and configuration, so re-ingesting a document reproduces the same chunks.
package chunker

import (
	"strings"

	"github.com/KashifAliLashari/DocChat-Ollama-MERN/internal/pdfextract"
)

// Draft is a chunk before it gets an identity and a vector.
type Draft struct {
	PageNumber    int
	SequenceIndex int
	Text          string
}

type Chunker struct {
	budget   int // target chunk size in runes
	overlap  int // runes carried over between adjacent chunks
	lookback int // window to search backwards for a sentence boundary
}

const (
	defaultBudget   = 1000
	defaultLookback = 200
)

func New(budget, overlap int) *Chunker {
	if budget <= 0 {
		budget = defaultBudget
	}
	if overlap <= 0 || overlap >= budget {
		overlap = budget / 8
	}
	return &Chunker{
		budget:   budget,
		overlap:  overlap,
		lookback: defaultLookback,
	}
}

// Chunk splits each page into passages of roughly budget runes with a fixed
// overlap. SequenceIndex is monotonic across the whole document. Whitespace
// only pages produce no chunks.
func (c *Chunker) Chunk(pages []pdfextract.Page) []Draft {
	var drafts []Draft
	seq := 0
	for _, page := range pages {
		text := strings.TrimSpace(page.Text)
		if text == "" {
			continue
		}
		for _, passage := range c.split(text) {
			drafts = append(drafts, Draft{
				PageNumber:    page.Number,
				SequenceIndex: seq,
				Text:          passage,
			})
			seq++
		}
	}
	return drafts
}

func (c *Chunker) split(text string) []string {
	runes := []rune(text)
	if len(runes) <= c.budget {
		return []string{text}
	}

	var passages []string
	start := 0
	for start < len(runes) {
		end := start + c.budget
		if end >= len(runes) {
			end = len(runes)
		} else {
			// Prefer ending on a sentence boundary when one falls inside the
			// lookback window; otherwise hard-split at the budget. A cut is
			// only taken when the next window still starts past the current
			// one, so the loop advances for every budget/overlap pairing.
			if cut := c.sentenceCut(runes, end); cut-start > c.overlap {
				end = cut
			}
		}

		passage := strings.TrimSpace(string(runes[start:end]))
		if passage != "" {
			passages = append(passages, passage)
		}

		if end == len(runes) {
			break
		}
		start = end - c.overlap
		if start < 0 {
			start = 0
		}
	}
	return passages
}

// sentenceCut searches backwards from end for a sentence terminator and
// returns the index just past it, or 0 if none is found inside the window.
func (c *Chunker) sentenceCut(runes []rune, end int) int {
	limit := end - c.lookback
	if limit < 0 {
		limit = 0
	}
	for i := end - 1; i >= limit; i-- {
		switch runes[i] {
		case '.', '!', '?', '\n':
			return i + 1
		}
	}
	return 0
}
