package embeddings

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"fmt"

	"github.com/profscope/hub/pkg/vectors"
)

// MockClient implements Client with deterministic vectors derived from the
// text hash. Identical texts always embed identically, which is what the
// store and service tests rely on.
type MockClient struct {
	dimensions int
}

var _ Client = (*MockClient)(nil)

// NewMockClient creates a mock embedding client. Dimensions below 1 default
// to 1536 to match text-embedding-3-small.
func NewMockClient(dimensions int) *MockClient {
	if dimensions < 1 {
		dimensions = 1536
	}

	return &MockClient{dimensions: dimensions}
}

// Embed implements Client.
func (c *MockClient) Embed(_ context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, fmt.Errorf("text cannot be empty")
	}

	return c.deterministicVector(text), nil
}

// EmbedBatch implements Client.
func (c *MockClient) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("texts cannot be empty")
	}

	out := make([][]float32, len(texts))

	for i, text := range texts {
		if text == "" {
			return nil, fmt.Errorf("text at index %d cannot be empty", i)
		}

		out[i] = c.deterministicVector(text)
	}

	return out, nil
}

// deterministicVector expands the text's sha256 digest into a unit vector.
// Four hash bytes per component keep nearby texts from colliding.
func (c *MockClient) deterministicVector(text string) []float32 {
	hash := sha256.Sum256([]byte(text))
	vec := make([]float32, c.dimensions)

	for i := range vec {
		word := binary.BigEndian.Uint32([]byte{
			hash[(i*4)%len(hash)],
			hash[(i*4+1)%len(hash)],
			hash[(i*4+2)%len(hash)],
			hash[(i*4+3+i/len(hash))%len(hash)],
		})
		vec[i] = (float32(word)/float32(1<<31) - 1.0)
	}

	vectors.NormalizeL2(vec)

	return vec
}
