package summarize

import (
	"context"
	"fmt"
	"strings"
)

// MockClient implements Client with a trivial deterministic digest for tests:
// each input line becomes one neutral bullet.
type MockClient struct{}

var _ Client = MockClient{}

// NewMockClient creates a mock summarization client.
func NewMockClient() MockClient { return MockClient{} }

// Summarize implements Client.
func (MockClient) Summarize(_ context.Context, reviewsText string) (Sections, error) {
	if strings.TrimSpace(reviewsText) == "" {
		return Sections{}, fmt.Errorf("reviews text cannot be empty")
	}

	var neutral []string

	for _, line := range strings.Split(reviewsText, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			neutral = append(neutral, trimmed)
		}
	}

	return Sections{Neutral: neutral}, nil
}
