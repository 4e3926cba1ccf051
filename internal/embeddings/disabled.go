package embeddings

import (
	"context"
	"errors"

	"github.com/profscope/hub/internal/apperrors"
)

var errNoAPIKey = errors.New("no embedding API key configured")

// Disabled implements Client for deployments without an embedding provider.
// Every call reports the capability as unavailable; callers degrade instead
// of failing ingestion.
type Disabled struct{}

var _ Client = Disabled{}

// Embed implements Client.
func (Disabled) Embed(_ context.Context, _ string) ([]float32, error) {
	return nil, apperrors.NewCapabilityUnavailableError("embedding", errNoAPIKey)
}

// EmbedBatch implements Client.
func (Disabled) EmbedBatch(_ context.Context, _ []string) ([][]float32, error) {
	return nil, apperrors.NewCapabilityUnavailableError("embedding", errNoAPIKey)
}
