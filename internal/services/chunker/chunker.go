// Package chunker splits extracted text into overlapping passages sized
// for embedding.
package chunker

import (
	"regexp"
	"strings"
)

const (
	defaultChunkTokens   = 500
	defaultOverlapTokens = 50

	// charsPerToken approximates tokenizer behavior for sizing decisions
	charsPerToken = 4
	// charsPerWord converts the overlap token budget into a word count
	charsPerWord = 5
)

// TokenEstimator maps text to an estimated token count
type TokenEstimator func(text string) int

// EstimateTokens is the default estimator: ceil(len/4), matching the rough
// four-characters-per-token behavior of common embedding tokenizers
func EstimateTokens(text string) int {
	return (len(text) + charsPerToken - 1) / charsPerToken
}

// Passage is one chunk of text cut from a document, ordered by Index
type Passage struct {
	Index      int
	Text       string
	TokenCount int
}

// Chunker cuts normalized text into passages. Chunking is deterministic:
// the same input always produces the same passages.
type Chunker struct {
	chunkTokens   int
	overlapTokens int
	estimate      TokenEstimator
}

// Option configures a Chunker
type Option func(*Chunker)

// WithChunkTokens sets the target passage size in tokens
func WithChunkTokens(n int) Option {
	return func(c *Chunker) {
		if n > 0 {
			c.chunkTokens = n
		}
	}
}

// WithOverlapTokens sets how many tokens of context carry over between
// adjacent passages
func WithOverlapTokens(n int) Option {
	return func(c *Chunker) {
		if n >= 0 {
			c.overlapTokens = n
		}
	}
}

// WithTokenEstimator replaces the default length-based token estimator
func WithTokenEstimator(fn TokenEstimator) Option {
	return func(c *Chunker) {
		if fn != nil {
			c.estimate = fn
		}
	}
}

// New creates a Chunker with defaults applied, then options. An overlap at
// or above the chunk size is clamped to a quarter of it.
func New(opts ...Option) *Chunker {
	c := &Chunker{
		chunkTokens:   defaultChunkTokens,
		overlapTokens: defaultOverlapTokens,
		estimate:      EstimateTokens,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.overlapTokens >= c.chunkTokens {
		c.overlapTokens = c.chunkTokens / 4
	}
	return c
}

var blankLines = regexp.MustCompile(`\n{4,}`)

// Chunk splits text into passages. Paragraphs (double-newline separated)
// accumulate greedily until the next one would push past the target size;
// the passage is then closed and the next one seeded with an overlap tail.
// A single paragraph larger than the target becomes its own passage.
func (c *Chunker) Chunk(text string) []Passage {
	normalized := normalize(text)
	if normalized == "" {
		return nil
	}

	paragraphs := splitParagraphs(normalized)
	if len(paragraphs) == 0 {
		return nil
	}

	var passages []Passage
	buffer := ""

	for _, para := range paragraphs {
		candidate := para
		if buffer != "" {
			candidate = buffer + "\n\n" + para
		}

		if buffer != "" && c.estimate(candidate) > c.chunkTokens {
			passages = append(passages, Passage{
				Index:      len(passages),
				Text:       buffer,
				TokenCount: c.estimate(buffer),
			})

			if tail := c.overlapTail(buffer); tail != "" {
				buffer = tail + "\n\n" + para
			} else {
				buffer = para
			}
			continue
		}

		buffer = candidate
	}

	if strings.TrimSpace(buffer) != "" {
		passages = append(passages, Passage{
			Index:      len(passages),
			Text:       buffer,
			TokenCount: c.estimate(buffer),
		})
	}

	return passages
}

// normalize unifies line endings and collapses runs of three or more blank
// lines into a single blank line
func normalize(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = blankLines.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// splitParagraphs splits on blank lines, dropping whitespace-only parts
func splitParagraphs(text string) []string {
	parts := strings.Split(text, "\n\n")
	paragraphs := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			paragraphs = append(paragraphs, trimmed)
		}
	}
	return paragraphs
}

// overlapTail returns the last words of a closed passage, sized to the
// overlap token budget
func (c *Chunker) overlapTail(chunk string) string {
	if c.overlapTokens <= 0 {
		return ""
	}

	n := c.overlapTokens * charsPerToken / charsPerWord
	if n <= 0 {
		return ""
	}

	words := strings.Fields(chunk)
	if len(words) == 0 {
		return ""
	}
	if n > len(words) {
		n = len(words)
	}
	return strings.Join(words[len(words)-n:], " ")
}
