package chunk

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/chonkit/chonkit/internal/chonkiterr"
	"github.com/chonkit/chonkit/internal/cursor"
)

const (
	DefaultSnappingSize    = 1000
	DefaultSnappingOverlap = 5
)

// Snapping is a sentence-aware chunker: it grows a chunk until it reaches
// size bytes, then looks for a safe delimiter to end the chunk on (skipping
// over abbreviations, URLs, and delimiters not followed by whitespace), and
// pads the chunk boundary with overlap sentences borrowed from its
// neighbours.
type Snapping struct {
	Size        int
	Overlap     int
	Delimiter   rune
	SkipForward []string
	SkipBack    []string
}

// NewSnapping validates overlap <= size and returns a ready-to-use chunker.
func NewSnapping(size, overlap int, delim rune, skipForward, skipBack []string) (Snapping, error) {
	if overlap > size {
		return Snapping{}, chonkiterr.Chunks("snapping window overlap (%d) must not exceed size (%d)", overlap, size)
	}
	return Snapping{
		Size:        size,
		Overlap:     overlap,
		Delimiter:   delim,
		SkipForward: append([]string(nil), skipForward...),
		SkipBack:    append([]string(nil), skipBack...),
	}, nil
}

// DefaultSnapping returns a Snapping chunker configured with the package's
// default size, overlap, delimiter, and skip lists.
func DefaultSnapping() Snapping {
	s, _ := NewSnapping(DefaultSnappingSize, DefaultSnappingOverlap, '.', cursor.DefaultSkipForward, cursor.DefaultSkipBack)
	return s
}

// Chunk splits input into sentence-bounded chunks of approximately Size
// bytes each, with Overlap sentences of context borrowed from the previous
// and next chunk at each boundary.
func (s Snapping) Chunk(input string) ([]string, error) {
	if strings.TrimSpace(input) == "" {
		return nil, nil
	}

	totalBytes := len(input)
	runes := []rune(input)

	var chunks []string
	var chunk strings.Builder
	chunkByteSize := 0
	currentOffset := 0
	pos := 0

outer:
	for pos < len(runes) {
		ch := runes[pos]
		pos++
		currentOffset += utf8.RuneLen(ch)

		if currentOffset == totalBytes {
			chunk.WriteRune(ch)
			chunkByteSize += utf8.RuneLen(ch)
			prev := previousChunk(input[:currentOffset-chunkByteSize], s.Overlap, s.Delimiter, s.SkipForward, s.SkipBack)
			chunks = append(chunks, prev+chunk.String())
			break outer
		}

		if ch != s.Delimiter {
			chunk.WriteRune(ch)
			chunkByteSize += utf8.RuneLen(ch)
			continue
		}

		if chunkByteSize < s.Size {
			chunk.WriteRune(ch)
			chunkByteSize += utf8.RuneLen(ch)
			continue
		}

		skippedBack := false
		for _, skip := range s.SkipBack {
			if !strings.HasSuffix(chunk.String(), skip) {
				continue
			}

			chunk.WriteRune(ch)
			chunkByteSize += utf8.RuneLen(ch)

			if currentOffset == totalBytes {
				prev := previousChunk(input[:currentOffset-chunkByteSize], s.Overlap, s.Delimiter, s.SkipForward, s.SkipBack)
				chunks = append(chunks, prev+chunk.String())
				break outer
			}

			skippedBack = true
			break
		}
		if skippedBack {
			continue
		}

		if pos < len(runes) && !unicode.IsSpace(runes[pos]) {
			chunk.WriteRune(ch)
			chunkByteSize += utf8.RuneLen(ch)
			continue
		}

		skippedForward := false
		for _, skip := range s.SkipForward {
			if strings.HasPrefix(input[currentOffset:], skip) {
				chunk.WriteRune(ch)
				chunkByteSize += utf8.RuneLen(ch)
				skippedForward = true
				break
			}
		}
		if skippedForward {
			continue
		}

		chunk.WriteRune(ch)
		chunkByteSize += utf8.RuneLen(ch)

		prev := previousChunk(input[:currentOffset-chunkByteSize], s.Overlap, s.Delimiter, s.SkipForward, s.SkipBack)
		next, nextOffset := nextChunk(input[currentOffset:], s.Overlap, s.Delimiter, s.SkipForward, s.SkipBack)

		if currentOffset+nextOffset >= totalBytes-1 {
			chunks = append(chunks, prev+chunk.String()+next)
			break outer
		}

		target := currentOffset + nextOffset
		for currentOffset < target && pos < len(runes) {
			r := runes[pos]
			pos++
			currentOffset += utf8.RuneLen(r)
		}

		chunks = append(chunks, prev+chunk.String()+next)
		chunk.Reset()
		chunkByteSize = 0
	}

	return chunks, nil
}

// previousChunk walks backward from the end of input, gathering up to
// overlap sentences (skipping abbreviations/URLs along the way) to prepend
// to the next chunk.
func previousChunk(input string, overlap int, delim rune, skipForward, skipBack []string) string {
	c := cursor.NewRev(input, delim)
	for i := 0; i < overlap; i++ {
		c.Advance()
		for c.AdvanceIfPeek(skipForward, skipBack) {
			c.Advance()
		}
	}
	return c.GetSlice()
}

// nextChunk walks forward from the start of input, gathering up to overlap
// sentences to append to the previous chunk, and reports how many bytes were
// consumed doing so.
func nextChunk(input string, overlap int, delim rune, skipForward, skipBack []string) (string, int) {
	c := cursor.New(input, delim)
	for i := 0; i < overlap; i++ {
		c.Advance()
		for c.AdvanceIfPeek(skipForward, skipBack) {
			c.Advance()
		}
	}
	return c.GetSlice(), c.ByteOffset()
}
