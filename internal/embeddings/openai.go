package embeddings

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"
)

// OpenAIClient implements Client on OpenAI's embedding API.
type OpenAIClient struct {
	client *openai.Client
	model  openai.EmbeddingModel
}

var _ Client = (*OpenAIClient)(nil)

// NewOpenAIClient creates an OpenAI embedding client. Model defaults to
// text-embedding-3-small (1536 dimensions) when empty. Panics if apiKey is
// empty; use Disabled for deployments without a key.
func NewOpenAIClient(apiKey, model string) *OpenAIClient {
	if apiKey == "" {
		panic("embeddings: OpenAI API key cannot be empty")
	}

	embeddingModel := openai.SmallEmbedding3
	if model != "" {
		embeddingModel = openai.EmbeddingModel(model)
	}

	return &OpenAIClient{
		client: openai.NewClient(apiKey),
		model:  embeddingModel,
	}
}

// Embed implements Client.
func (c *OpenAIClient) Embed(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, fmt.Errorf("text cannot be empty")
	}

	resp, err := c.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: c.model,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding: %w", err)
	}

	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("no embedding returned from API")
	}

	return resp.Data[0].Embedding, nil
}

// EmbedBatch implements Client. Returns an error if any text is empty.
func (c *OpenAIClient) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("texts cannot be empty")
	}

	for i, t := range texts {
		if t == "" {
			return nil, fmt.Errorf("text at index %d cannot be empty", i)
		}
	}

	resp, err := c.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: texts,
		Model: c.model,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create embeddings: %w", err)
	}

	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("unexpected number of embeddings returned: got %d, expected %d", len(resp.Data), len(texts))
	}

	out := make([][]float32, len(resp.Data))
	for i, data := range resp.Data {
		out[i] = data.Embedding
	}

	return out, nil
}
