// Package chunker splits document text into bounded-size pieces for embedding.
package chunker

import (
	"regexp"
	"strings"

	"github.com/documind/documind/internal/models"
)

// Strategy selects how a document is split into chunks.
type Strategy int

const (
	// ByWindow walks a fixed-size window with overlap, preferring sentence
	// or line boundaries over mid-word cuts.
	ByWindow Strategy = iota
	// ByParagraph packs whole paragraphs (blank-line separated) into chunks.
	ByParagraph
	// BySentence packs whole sentences into chunks.
	BySentence
)

// String returns the strategy name as used in config files.
func (s Strategy) String() string {
	switch s {
	case ByParagraph:
		return "paragraphs"
	case BySentence:
		return "sentences"
	default:
		return "window"
	}
}

// ParseStrategy maps a config name to a Strategy. Unknown names fall back
// to ByWindow rather than erroring.
func ParseStrategy(name string) Strategy {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "paragraphs", "paragraph":
		return ByParagraph
	case "sentences", "sentence":
		return BySentence
	default:
		return ByWindow
	}
}

// Chunker splits text into chunks of roughly chunkSize characters.
type Chunker struct {
	chunkSize    int
	chunkOverlap int
}

// NewChunker creates a chunker with the given size and overlap (in characters).
func NewChunker(chunkSize, chunkOverlap int) *Chunker {
	if chunkSize <= 0 {
		chunkSize = 500
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		chunkOverlap = 0
	}
	return &Chunker{
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
	}
}

// ChunkBySize splits text into overlapping windows of at most chunkSize
// characters. When a window does not reach the end of the text, it is
// shrunk to end just after the last period or newline inside it, so chunks
// prefer sentence and line boundaries. Consecutive windows overlap by
// chunkOverlap characters. Empty input yields no chunks.
func (c *Chunker) ChunkBySize(text string) []string {
	if text == "" {
		return nil
	}
	var chunks []string
	start := 0
	for start < len(text) {
		end := start + c.chunkSize
		if end < len(text) {
			periodIdx := strings.LastIndexByte(text[start:end], '.')
			newlineIdx := strings.LastIndexByte(text[start:end], '\n')
			breakIdx := periodIdx
			if newlineIdx > breakIdx {
				breakIdx = newlineIdx
			}
			if breakIdx > 0 {
				end = start + breakIdx + 1
			}
		} else {
			end = len(text)
		}
		if chunk := strings.TrimSpace(text[start:end]); chunk != "" {
			chunks = append(chunks, chunk)
		}
		next := end - c.chunkOverlap
		if next <= start {
			next = end
		}
		start = next
	}
	return chunks
}

// paragraphSep matches one or more blank lines between paragraphs.
var paragraphSep = regexp.MustCompile(`\n\s*\n`)

// ChunkByParagraphs splits text on blank lines and greedily packs consecutive
// paragraphs into chunks of at most chunkSize characters. A single paragraph
// longer than chunkSize is kept whole as its own oversized chunk.
func (c *Chunker) ChunkByParagraphs(text string) []string {
	return c.pack(paragraphSep.Split(text, -1), "\n\n")
}

// ChunkBySentences splits text into sentences (after '.', '!', or '?'
// followed by whitespace) and packs them the same way as ChunkByParagraphs.
func (c *Chunker) ChunkBySentences(text string) []string {
	return c.pack(splitSentences(text), " ")
}

// pack greedily accumulates units into chunks of at most chunkSize characters,
// joining units within a chunk by sep. A unit longer than chunkSize becomes
// its own chunk.
func (c *Chunker) pack(units []string, sep string) []string {
	var chunks []string
	current := ""
	for _, unit := range units {
		unit = strings.TrimSpace(unit)
		if unit == "" {
			continue
		}
		if len(current)+len(unit) > c.chunkSize && current != "" {
			chunks = append(chunks, current)
			current = unit
		} else if current == "" {
			current = unit
		} else {
			current += sep + unit
		}
	}
	if current != "" {
		chunks = append(chunks, current)
	}
	return chunks
}

// splitSentences splits text after '.', '!', or '?' followed by whitespace.
func splitSentences(text string) []string {
	var sentences []string
	start := 0
	for i := 0; i < len(text)-1; i++ {
		c := text[i]
		if (c == '.' || c == '!' || c == '?') && isSpace(text[i+1]) {
			sentences = append(sentences, text[start:i+1])
			start = i + 1
		}
	}
	if start < len(text) {
		sentences = append(sentences, text[start:])
	}
	return sentences
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

// ChunkDocument splits text using the given strategy and wraps each piece
// into a models.Chunk with a sequential ChunkID, a shared ChunkCount, and
// the same metadata map attached to every chunk (callers must treat the
// metadata as read-only). Output is deterministic for identical inputs.
func (c *Chunker) ChunkDocument(text string, strategy Strategy, metadata map[string]interface{}) []models.Chunk {
	var pieces []string
	switch strategy {
	case ByParagraph:
		pieces = c.ChunkByParagraphs(text)
	case BySentence:
		pieces = c.ChunkBySentences(text)
	default:
		pieces = c.ChunkBySize(text)
	}
	if metadata == nil {
		metadata = map[string]interface{}{}
	}
	chunks := make([]models.Chunk, len(pieces))
	for i, piece := range pieces {
		chunks[i] = models.Chunk{
			Text:       piece,
			ChunkID:    i,
			ChunkCount: len(pieces),
			Metadata:   metadata,
		}
	}
	return chunks
}
