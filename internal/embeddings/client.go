// Package embeddings wraps the embedding provider behind a small interface so
// services and tests never talk to the OpenAI SDK directly.
package embeddings

import "context"

// Client generates text embeddings.
type Client interface {
	// Embed generates an embedding vector for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embedding vectors for multiple texts in one
	// request. More efficient than calling Embed per text.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}
