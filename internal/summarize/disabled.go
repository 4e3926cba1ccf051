package summarize

import (
	"context"
	"errors"

	"github.com/profscope/hub/internal/apperrors"
)

var errNoAPIKey = errors.New("no summarization API key configured")

// Disabled implements Client for deployments without a summarization
// provider. Callers treat the capability error as "no summary available".
type Disabled struct{}

var _ Client = Disabled{}

// Summarize implements Client.
func (Disabled) Summarize(_ context.Context, _ string) (Sections, error) {
	return Sections{}, apperrors.NewCapabilityUnavailableError("summarization", errNoAPIKey)
}
