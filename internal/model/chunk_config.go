package model

import (
	"fmt"

	"github.com/chonkit/chonkit/internal/chonkiterr"
	"github.com/chonkit/chonkit/internal/chunk"
	"github.com/chonkit/chonkit/internal/cursor"
)

// ChunkConfig is the persisted, provider-aware counterpart of chunk.Config:
// the same tagged union over Sliding/Snapping/Semantic, but the Semantic
// variant additionally records which embedding provider and model produced
// the vectors used to group sentences, since that choice must survive a
// round trip through the repository's JSON blob column.
type ChunkConfig struct {
	Kind     chunk.Kind
	Sliding  *SlidingWindowConfig
	Snapping *SnappingWindowConfig
	Semantic *SemanticWindowConfig
}

type SlidingWindowConfig struct {
	Size    int
	Overlap int
}

type SnappingWindowConfig struct {
	Size        int
	Overlap     int
	Delimiter   rune
	SkipForward []string
	SkipBack    []string
}

type SemanticWindowConfig struct {
	Size               int
	Threshold          float64
	DistanceFn         chunk.DistanceFn
	Delimiter          rune
	SkipForward        []string
	SkipBack           []string
	EmbeddingProvider  string
	EmbeddingModel     string
}

// NewSlidingChunkConfig validates overlap < size.
func NewSlidingChunkConfig(size, overlap int) (ChunkConfig, error) {
	if _, err := chunk.NewSliding(size, overlap); err != nil {
		return ChunkConfig{}, err
	}
	return ChunkConfig{Kind: chunk.KindSliding, Sliding: &SlidingWindowConfig{Size: size, Overlap: overlap}}, nil
}

// DefaultSlidingChunkConfig mirrors chunk's package defaults.
func DefaultSlidingChunkConfig() ChunkConfig {
	return ChunkConfig{Kind: chunk.KindSliding, Sliding: &SlidingWindowConfig{Size: 1000, Overlap: 100}}
}

// NewSnappingChunkConfig validates overlap <= size.
func NewSnappingChunkConfig(size, overlap int, skipForward, skipBack []string) (ChunkConfig, error) {
	if _, err := chunk.NewSnapping(size, overlap, '.', skipForward, skipBack); err != nil {
		return ChunkConfig{}, err
	}
	return ChunkConfig{Kind: chunk.KindSnapping, Snapping: &SnappingWindowConfig{
		Size: size, Overlap: overlap, Delimiter: '.',
		SkipForward: append([]string(nil), skipForward...),
		SkipBack:    append([]string(nil), skipBack...),
	}}, nil
}

// DefaultSnappingChunkConfig mirrors the default snapping window.
func DefaultSnappingChunkConfig() ChunkConfig {
	return ChunkConfig{Kind: chunk.KindSnapping, Snapping: &SnappingWindowConfig{
		Size: chunk.DefaultSnappingSize, Overlap: chunk.DefaultSnappingOverlap, Delimiter: '.',
		SkipForward: append([]string(nil), cursor.DefaultSkipForward...),
		SkipBack:    append([]string(nil), cursor.DefaultSkipBack...),
	}}
}

// NewSemanticChunkConfig builds a Semantic config bound to a provider/model
// pair.
func NewSemanticChunkConfig(size int, threshold float64, delim rune, distanceFn chunk.DistanceFn, embeddingProvider, embeddingModel string, skipForward, skipBack []string) ChunkConfig {
	return ChunkConfig{Kind: chunk.KindSemantic, Semantic: &SemanticWindowConfig{
		Size: size, Threshold: threshold, DistanceFn: distanceFn, Delimiter: delim,
		SkipForward:       append([]string(nil), skipForward...),
		SkipBack:          append([]string(nil), skipBack...),
		EmbeddingProvider: embeddingProvider,
		EmbeddingModel:    embeddingModel,
	}}
}

// DefaultSemanticChunkConfig mirrors the default semantic window, bound to
// the given provider/model pair.
func DefaultSemanticChunkConfig(embeddingProvider, embeddingModel string) ChunkConfig {
	return ChunkConfig{Kind: chunk.KindSemantic, Semantic: &SemanticWindowConfig{
		Size: chunk.DefaultSemanticSize, Threshold: chunk.DefaultSemanticThreshold,
		DistanceFn:        chunk.DistanceFn{Kind: chunk.Cosine},
		Delimiter:         '.',
		SkipForward:       append([]string(nil), cursor.DefaultSkipForward...),
		SkipBack:          append([]string(nil), cursor.DefaultSkipBack...),
		EmbeddingProvider: embeddingProvider,
		EmbeddingModel:    embeddingModel,
	}}
}

func (c ChunkConfig) String() string {
	switch c.Kind {
	case chunk.KindSliding:
		return "SlidingWindow"
	case chunk.KindSnapping:
		return "SnappingWindow"
	case chunk.KindSemantic:
		return "SemanticWindow"
	default:
		return fmt.Sprintf("unknown(%s)", c.Kind)
	}
}

// ToAlgorithm strips the provider/model fields and returns the pure
// algorithmic chunk.Config the chunk package operates on.
func (c ChunkConfig) ToAlgorithm() (chunk.Config, error) {
	switch c.Kind {
	case chunk.KindSliding:
		if c.Sliding == nil {
			return chunk.Config{}, chonkiterr.Chunks("sliding chunk config is missing its parameters")
		}
		return chunk.NewSlidingConfig(c.Sliding.Size, c.Sliding.Overlap)
	case chunk.KindSnapping:
		if c.Snapping == nil {
			return chunk.Config{}, chonkiterr.Chunks("snapping chunk config is missing its parameters")
		}
		return chunk.NewSnappingConfig(c.Snapping.Size, c.Snapping.Overlap, c.Snapping.Delimiter, c.Snapping.SkipForward, c.Snapping.SkipBack)
	case chunk.KindSemantic:
		if c.Semantic == nil {
			return chunk.Config{}, chonkiterr.Chunks("semantic chunk config is missing its parameters")
		}
		return chunk.NewSemanticConfig(c.Semantic.Size, c.Semantic.Threshold, c.Semantic.DistanceFn, c.Semantic.Delimiter, c.Semantic.SkipForward, c.Semantic.SkipBack), nil
	default:
		return chunk.Config{}, chonkiterr.Chunks("unknown chunk config kind %q", c.Kind)
	}
}

// Validate checks the structural invariants spec.md §3 names: overlap < size
// for sliding, overlap <= size for snapping, and threshold in [0, 1] for
// semantic.
func (c ChunkConfig) Validate() error {
	switch c.Kind {
	case chunk.KindSliding:
		if c.Sliding == nil {
			return chonkiterr.Validation("sliding chunk config is missing its parameters")
		}
		if c.Sliding.Overlap >= c.Sliding.Size {
			return chonkiterr.Validation("sliding overlap (%d) must be less than size (%d)", c.Sliding.Overlap, c.Sliding.Size)
		}
	case chunk.KindSnapping:
		if c.Snapping == nil {
			return chonkiterr.Validation("snapping chunk config is missing its parameters")
		}
		if c.Snapping.Overlap > c.Snapping.Size {
			return chonkiterr.Validation("snapping overlap (%d) must not exceed size (%d)", c.Snapping.Overlap, c.Snapping.Size)
		}
	case chunk.KindSemantic:
		if c.Semantic == nil {
			return chonkiterr.Validation("semantic chunk config is missing its parameters")
		}
		if c.Semantic.Threshold < 0 || c.Semantic.Threshold > 1 {
			return chonkiterr.Validation("semantic threshold (%f) must be in [0, 1]", c.Semantic.Threshold)
		}
	default:
		return chonkiterr.Validation("unknown chunk config kind %q", c.Kind)
	}
	return nil
}
