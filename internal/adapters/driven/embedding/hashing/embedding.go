// Package hashing provides an offline embedding service based on feature
// hashing of character n-grams.
//
// Every rune 1-gram, 2-gram and 3-gram of the input is hashed into one of
// Dimensions buckets with a hash-derived sign, and the resulting vector is
// L2-normalised. Texts that share many short character sequences end up close
// together. The projection is deterministic and needs no model files.
package hashing

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"unicode/utf8"

	"github.com/custodia-labs/docsearch/internal/core/domain"
	"github.com/custodia-labs/docsearch/internal/core/ports/driven"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// Default configuration values.
const (
	DefaultModel      = "char-ngram-1-3"
	DefaultDimensions = domain.DefaultDimension
	maxGram           = 3
)

// Config holds configuration for the hashing embedding service.
type Config struct {
	// Dimensions is the embedding vector size (default: 768).
	Dimensions int
}

// EmbeddingService generates embeddings locally.
type EmbeddingService struct {
	dimensions int
}

// NewEmbeddingService creates a new hashing embedding service.
func NewEmbeddingService(cfg Config) *EmbeddingService {
	if cfg.Dimensions <= 0 {
		cfg.Dimensions = DefaultDimensions
	}
	return &EmbeddingService{dimensions: cfg.Dimensions}
}

// Embed generates a unit-length vector for text.
func (s *EmbeddingService) Embed(_ context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, fmt.Errorf("%w: empty text", domain.ErrEmbedding)
	}
	if !utf8.ValidString(text) {
		return nil, fmt.Errorf("%w: text is not valid UTF-8", domain.ErrEmbedding)
	}

	runes := []rune(text)
	acc := make([]float64, s.dimensions)
	h := fnv.New64a()
	for n := 1; n <= maxGram; n++ {
		for i := 0; i+n <= len(runes); i++ {
			h.Reset()
			_, _ = h.Write([]byte(string(runes[i : i+n])))
			sum := h.Sum64()

			bucket := int(sum % uint64(s.dimensions))
			if sum>>63 == 1 {
				acc[bucket]--
			} else {
				acc[bucket]++
			}
		}
	}

	var norm float64
	for _, v := range acc {
		norm += v * v
	}
	if norm == 0 {
		return nil, fmt.Errorf("%w: text produced a zero vector", domain.ErrEmbedding)
	}
	norm = math.Sqrt(norm)

	out := make([]float32, s.dimensions)
	for i, v := range acc {
		out[i] = float32(v / norm)
	}
	return out, nil
}

// EmbedBatch generates embeddings for multiple texts.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	embeddings := make([][]float32, len(texts))
	for i, text := range texts {
		embedding, err := s.Embed(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("embed text %d: %w", i, err)
		}
		embeddings[i] = embedding
	}
	return embeddings, nil
}

// Dimensions returns the embedding vector size.
func (s *EmbeddingService) Dimensions() int {
	return s.dimensions
}

// ModelName returns the name of the embedding scheme.
func (s *EmbeddingService) ModelName() string {
	return DefaultModel
}

// Ping always succeeds; the service runs in-process.
func (s *EmbeddingService) Ping(_ context.Context) error {
	return nil
}

// Close releases resources.
func (s *EmbeddingService) Close() error {
	return nil
}
