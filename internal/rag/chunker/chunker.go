package chunker

import (
	"strings"
	"unicode"
)

const (
	DefaultChunkSize = 500
	DefaultOverlap   = 50
)

// Chunker splits text on sentence boundaries into overlapping chunks.
// Sizes are counted in runes.
type Chunker struct {
	Size    int
	Overlap int
}

func New(size int, overlap int) Chunker {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap < 0 || overlap >= size {
		overlap = DefaultOverlap
	}
	return Chunker{Size: size, Overlap: overlap}
}

func Chunk(text string) []string {
	return New(DefaultChunkSize, DefaultOverlap).Chunk(text)
}

// Chunk never breaks a sentence: a sentence longer than Size becomes its own oversized chunk.
func (c Chunker) Chunk(text string) []string {
	chunks := []string{}
	if strings.TrimSpace(text) == "" {
		return chunks
	}

	var buf []rune
	for _, sentence := range SplitSentences(text) {
		s := []rune(sentence)

		if len(buf) > 0 && len(buf)+1+len(s) > c.Size {
			closed := strings.TrimSpace(string(buf))
			chunks = append(chunks, closed)
			buf = overlapTail(closed, c.Overlap)
		}

		if len(buf) > 0 {
			buf = append(buf, ' ')
		}
		buf = append(buf, s...)
	}

	if last := strings.TrimSpace(string(buf)); last != "" {
		chunks = append(chunks, last)
	}
	return chunks
}

func overlapTail(chunk string, overlap int) []rune {
	if overlap <= 0 {
		return nil
	}
	r := []rune(chunk)
	if len(r) <= overlap {
		return r
	}
	tail := make([]rune, overlap)
	copy(tail, r[len(r)-overlap:])
	return tail
}

// SplitSentences emits a sentence whenever '.', '!' or '?' is followed by whitespace or the end of text.
func SplitSentences(text string) []string {
	runes := []rune(text)
	var sentences []string
	start := 0

	for i, r := range runes {
		if r != '.' && r != '!' && r != '?' {
			continue
		}
		if i+1 < len(runes) && !unicode.IsSpace(runes[i+1]) {
			continue
		}
		if s := strings.TrimSpace(string(runes[start : i+1])); s != "" {
			sentences = append(sentences, s)
		}
		start = i + 1
	}

	if start < len(runes) {
		if rest := strings.TrimSpace(string(runes[start:])); rest != "" {
			sentences = append(sentences, rest)
		}
	}
	return sentences
}
