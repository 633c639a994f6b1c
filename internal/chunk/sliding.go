package chunk

import (
	"github.com/chonkit/chonkit/internal/chonkiterr"
	"github.com/chonkit/chonkit/internal/cursor"
)

// Sliding splits input into fixed-size byte windows with a byte overlap
// between adjacent windows. It is the simplest of the three strategies: no
// delimiter or skip-list awareness, just a moving byte window snapped to the
// nearest UTF-8 character boundary so no chunk ever contains a split rune.
type Sliding struct {
	Size    int
	Overlap int
}

// NewSliding validates overlap < size and returns a ready-to-use chunker.
func NewSliding(size, overlap int) (Sliding, error) {
	if overlap >= size {
		return Sliding{}, chonkiterr.Chunks("sliding window overlap (%d) must be less than size (%d)", overlap, size)
	}
	return Sliding{Size: size, Overlap: overlap}, nil
}

// Chunk splits input into fixed-size, overlapping byte windows.
func (s Sliding) Chunk(input string) ([]string, error) {
	if s.Overlap >= s.Size {
		return nil, chonkiterr.Chunks("sliding window overlap (%d) must be less than size (%d)", s.Overlap, s.Size)
	}
	if input == "" {
		return nil, nil
	}

	var chunks []string
	start := 0

	for start < len(input) {
		end := start + s.Size
		if end >= len(input) {
			chunks = append(chunks, input[start:])
			break
		}

		end = cursor.SnapFront(end, input)
		if end <= start {
			end = start + 1
		}
		chunks = append(chunks, input[start:end])

		next := cursor.SnapBack(end-s.Overlap, input)
		if next <= start {
			next = end
		}
		start = next
	}

	return chunks, nil
}
