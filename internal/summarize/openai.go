package summarize

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
)

const summaryPrompt = "You analyze collections of professor reviews. " +
	"Produce a balanced summary as JSON with keys 'pros', 'cons', and 'neutral'. " +
	"Each value must be an array of short bullet strings (<=25 words) summarizing recurring themes. " +
	"Only include statements supported by the reviews. When a category has no insights return an empty array. " +
	"Respond with STRICT JSON only, no markdown or prose."

// OpenAIClient implements Client on OpenAI's chat completion API.
type OpenAIClient struct {
	client *openai.Client
	model  string
}

var _ Client = (*OpenAIClient)(nil)

// NewOpenAIClient creates an OpenAI summarization client. Model defaults to
// gpt-4o-mini when empty. Panics if apiKey is empty; use Disabled for
// deployments without a key.
func NewOpenAIClient(apiKey, model string) *OpenAIClient {
	if apiKey == "" {
		panic("summarize: OpenAI API key cannot be empty")
	}

	if model == "" {
		model = "gpt-4o-mini"
	}

	return &OpenAIClient{client: openai.NewClient(apiKey), model: model}
}

// Summarize implements Client.
func (c *OpenAIClient) Summarize(ctx context.Context, reviewsText string) (Sections, error) {
	if strings.TrimSpace(reviewsText) == "" {
		return Sections{}, fmt.Errorf("reviews text cannot be empty")
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: summaryPrompt},
			{Role: openai.ChatMessageRoleUser, Content: reviewsText},
		},
	})
	if err != nil {
		return Sections{}, fmt.Errorf("failed to create summary: %w", err)
	}

	if len(resp.Choices) == 0 {
		return Sections{}, fmt.Errorf("no completion returned from API")
	}

	return parseSections(resp.Choices[0].Message.Content), nil
}

// parseSections reads the model output as strict JSON and falls back to a
// line-oriented parse when the model ignored the format instruction.
func parseSections(text string) Sections {
	var raw struct {
		Pros    json.RawMessage `json:"pros"`
		Cons    json.RawMessage `json:"cons"`
		Neutral json.RawMessage `json:"neutral"`
	}

	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return parseHeuristic(text)
	}

	return Sections{
		Pros:    coerceStringList(raw.Pros),
		Cons:    coerceStringList(raw.Cons),
		Neutral: coerceStringList(raw.Neutral),
	}
}

// parseHeuristic splits prose output on "pros"/"cons"/"neutral" headings and
// treats following lines as bullets.
func parseHeuristic(text string) Sections {
	sections := map[string][]string{"pros": nil, "cons": nil, "neutral": nil}
	current := ""

	for _, line := range strings.Split(text, "\n") {
		heading := strings.ToLower(strings.Trim(strings.TrimSpace(line), ": "))
		if _, ok := sections[heading]; ok {
			current = heading

			continue
		}

		trimmed := strings.TrimSpace(line)
		if trimmed == "" || current == "" {
			continue
		}

		bullet := strings.TrimSpace(strings.TrimLeft(trimmed, "-•* "))
		if bullet != "" {
			sections[current] = append(sections[current], bullet)
		}
	}

	return Sections{Pros: sections["pros"], Cons: sections["cons"], Neutral: sections["neutral"]}
}

// coerceStringList accepts an array of strings or a bare string and drops
// everything else.
func coerceStringList(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}

	var list []any
	if err := json.Unmarshal(raw, &list); err == nil {
		var out []string

		for _, item := range list {
			if s, ok := item.(string); ok {
				if cleaned := strings.TrimSpace(s); cleaned != "" {
					out = append(out, cleaned)
				}
			}
		}

		return out
	}

	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		if cleaned := strings.TrimSpace(single); cleaned != "" {
			return []string{cleaned}
		}
	}

	return nil
}
