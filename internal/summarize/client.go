// Package summarize wraps the review-digest provider behind a small
// interface, mirroring how embeddings hides its SDK.
package summarize

import "context"

// Sections is the parsed digest: recurring themes bucketed by sentiment.
type Sections struct {
	Pros    []string
	Cons    []string
	Neutral []string
}

// Client turns a formatted block of review text into digest sections.
type Client interface {
	Summarize(ctx context.Context, reviewsText string) (Sections, error)
}
