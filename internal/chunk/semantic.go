package chunk

import (
	"context"
	"strings"

	"github.com/chonkit/chonkit/internal/chonkiterr"
	"github.com/chonkit/chonkit/internal/cursor"
)

const (
	DefaultSemanticSize      = 10
	DefaultSemanticThreshold = 0.9
)

// Embedder is the minimal contract the semantic chunker needs: turn a batch
// of candidate sentence groups into vectors using the named model.
type Embedder interface {
	Embed(ctx context.Context, content []string, model string) ([][]float64, error)
}

// Semantic groups sentences into chunks by vector similarity: every Size
// sentences form a candidate group, each candidate is embedded, and
// candidates whose similarity to an existing group meets Threshold are
// merged into it instead of starting a new one.
type Semantic struct {
	Size        int
	Threshold   float64
	DistanceFn  DistanceFn
	Delimiter   rune
	SkipForward []string
	SkipBack    []string
}

// DefaultSemantic returns a Semantic chunker configured with the package's
// default size, threshold, cosine distance function, delimiter, and skip
// lists.
func DefaultSemantic() Semantic {
	return Semantic{
		Size:        DefaultSemanticSize,
		Threshold:   DefaultSemanticThreshold,
		DistanceFn:  DistanceFn{Kind: Cosine},
		Delimiter:   '.',
		SkipForward: append([]string(nil), cursor.DefaultSkipForward...),
		SkipBack:    append([]string(nil), cursor.DefaultSkipBack...),
	}
}

// Chunk splits input into candidate sentence groups of Size sentences each,
// embeds them with embedder using model, and merges candidates into
// existing groups whose similarity meets Threshold.
func (s Semantic) Chunk(ctx context.Context, input string, embedder Embedder, model string) ([]string, error) {
	if strings.TrimSpace(input) == "" {
		return nil, nil
	}

	candidates := s.candidates(input)
	if len(candidates) == 0 {
		return nil, nil
	}

	vectors, err := embedder.Embed(ctx, candidates, model)
	if err != nil {
		return nil, chonkiterr.Wrap(chonkiterr.KindEmbedding, err, "embedding candidate sentence groups")
	}
	if len(vectors) != len(candidates) {
		return nil, chonkiterr.Embedding("embedder returned %d vectors for %d candidates", len(vectors), len(candidates))
	}

	type group struct {
		text string
		vec  []float64
	}

	groups := []group{{candidates[0], vectors[0]}}

	for i := 1; i < len(candidates); i++ {
		text := candidates[i]
		if strings.TrimSpace(text) == "" {
			continue
		}
		vec := vectors[i]

		best := -1
		var bestSimilarity float64

		for gi, g := range groups {
			similarity := s.DistanceFn.Calculate(vec, g.vec)
			if similarity < s.Threshold {
				continue
			}
			if best == -1 || similarity > bestSimilarity {
				best = gi
				bestSimilarity = similarity
			}
		}

		if best != -1 {
			groups[best].text += text
		} else {
			groups = append(groups, group{text, vec})
		}
	}

	out := make([]string, len(groups))
	for i, g := range groups {
		out[i] = g.text
	}
	return out, nil
}

// candidates splits input into Size-sentence groups using the forward
// cursor, honoring the skip lists the same way Snapping does.
func (s Semantic) candidates(input string) []string {
	totalBytes := len(input)
	var out []string

	c := cursor.New(input, s.Delimiter)
	start := 0
	amount := 0

	for start < totalBytes {
		if c.Finished() {
			break
		}

		c.Advance()

		if c.AdvanceIfPeek(s.SkipForward, s.SkipBack) {
			continue
		}

		amount++
		if amount < s.Size {
			continue
		}
		amount = 0

		text := c.GetSlice()
		start += len(text)
		out = append(out, text)
		c = cursor.New(input[start:], s.Delimiter)
	}

	if start < totalBytes {
		if rest := input[start:]; strings.TrimSpace(rest) != "" {
			out = append(out, rest)
		}
	}

	return out
}
