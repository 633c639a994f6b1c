package model

import (
	"testing"

	"github.com/chonkit/chonkit/internal/chunk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSlidingChunkConfigRejectsBadOverlap(t *testing.T) {
	_, err := NewSlidingChunkConfig(10, 10)
	assert.Error(t, err)
}

func TestSlidingChunkConfigToAlgorithm(t *testing.T) {
	cfg, err := NewSlidingChunkConfig(5, 1)
	require.NoError(t, err)

	algo, err := cfg.ToAlgorithm()
	require.NoError(t, err)
	assert.Equal(t, chunk.KindSliding, algo.Kind)
	assert.Equal(t, 5, algo.Sliding.Size)
}

func TestSemanticChunkConfigValidateRejectsThresholdOutOfRange(t *testing.T) {
	cfg := NewSemanticChunkConfig(1, 1.5, '.', chunk.DistanceFn{Kind: chunk.Cosine}, "local", "bge-small", nil, nil)
	assert.Error(t, cfg.Validate())
}

func TestDefaultSnappingChunkConfigValidates(t *testing.T) {
	cfg := DefaultSnappingChunkConfig()
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, "SnappingWindow", cfg.String())
}
