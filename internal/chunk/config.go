package chunk

import (
	"context"
	"fmt"

	"github.com/chonkit/chonkit/internal/chonkiterr"
)

// Kind names which of the three strategies a Config holds.
type Kind string

const (
	KindSliding  Kind = "sliding"
	KindSnapping Kind = "snapping"
	KindSemantic Kind = "semantic"
)

// Config is a tagged union over the three chunking strategies, the
// serializable counterpart to Sliding/Snapping/Semantic. Exactly one of the
// strategy fields is set, matching Kind.
type Config struct {
	Kind     Kind
	Sliding  *Sliding
	Snapping *Snapping
	Semantic *Semantic
}

// NewSlidingConfig builds a Config wrapping a validated Sliding chunker.
func NewSlidingConfig(size, overlap int) (Config, error) {
	s, err := NewSliding(size, overlap)
	if err != nil {
		return Config{}, err
	}
	return Config{Kind: KindSliding, Sliding: &s}, nil
}

// SlidingDefaultConfig wraps Sliding with package defaults.
func SlidingDefaultConfig() Config {
	s, _ := NewSliding(1000, 100)
	return Config{Kind: KindSliding, Sliding: &s}
}

// NewSnappingConfig builds a Config wrapping a validated Snapping chunker.
func NewSnappingConfig(size, overlap int, delim rune, skipForward, skipBack []string) (Config, error) {
	s, err := NewSnapping(size, overlap, delim, skipForward, skipBack)
	if err != nil {
		return Config{}, err
	}
	return Config{Kind: KindSnapping, Snapping: &s}, nil
}

// SnappingDefaultConfig wraps Snapping with package defaults.
func SnappingDefaultConfig() Config {
	s := DefaultSnapping()
	return Config{Kind: KindSnapping, Snapping: &s}
}

// NewSemanticConfig builds a Config wrapping a Semantic chunker.
func NewSemanticConfig(size int, threshold float64, distanceFn DistanceFn, delim rune, skipForward, skipBack []string) Config {
	s := Semantic{
		Size:        size,
		Threshold:   threshold,
		DistanceFn:  distanceFn,
		Delimiter:   delim,
		SkipForward: append([]string(nil), skipForward...),
		SkipBack:    append([]string(nil), skipBack...),
	}
	return Config{Kind: KindSemantic, Semantic: &s}
}

// SemanticDefaultConfig wraps Semantic with package defaults.
func SemanticDefaultConfig() Config {
	s := DefaultSemantic()
	return Config{Kind: KindSemantic, Semantic: &s}
}

func (c Config) String() string {
	switch c.Kind {
	case KindSliding:
		return fmt.Sprintf("sliding(size=%d, overlap=%d)", c.Sliding.Size, c.Sliding.Overlap)
	case KindSnapping:
		return fmt.Sprintf("snapping(size=%d, overlap=%d, delimiter=%q)", c.Snapping.Size, c.Snapping.Overlap, c.Snapping.Delimiter)
	case KindSemantic:
		return fmt.Sprintf("semantic(size=%d, threshold=%.3f, distance=%s)", c.Semantic.Size, c.Semantic.Threshold, c.Semantic.DistanceFn.Kind)
	default:
		return "unknown"
	}
}

// Chunk dispatches to the wrapped strategy. Semantic needs an embedder and
// model name; Sliding and Snapping ignore both.
func (c Config) Chunk(ctx context.Context, content string, embedder Embedder, model string) ([]string, error) {
	switch c.Kind {
	case KindSliding:
		if c.Sliding == nil {
			return nil, chonkiterr.Chunks("sliding config is missing its parameters")
		}
		return c.Sliding.Chunk(content)
	case KindSnapping:
		if c.Snapping == nil {
			return nil, chonkiterr.Chunks("snapping config is missing its parameters")
		}
		return c.Snapping.Chunk(content)
	case KindSemantic:
		if c.Semantic == nil {
			return nil, chonkiterr.Chunks("semantic config is missing its parameters")
		}
		if embedder == nil {
			return nil, chonkiterr.Chunks("semantic chunking requires an embedder")
		}
		return c.Semantic.Chunk(ctx, content, embedder, model)
	default:
		return nil, chonkiterr.Chunks("unknown chunk config kind %q", c.Kind)
	}
}
