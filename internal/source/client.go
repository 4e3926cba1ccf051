package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/profscope/hub/internal/apperrors"
)

const maxResponseBytes = 4 << 20 // scraped pages are small; anything bigger is broken

// NewHTTPClient builds the HTTP client adapters share: short transport-level
// retries for connection blips, bounded timeout per call. Run-level retry with
// backoff stays with the orchestrator.
func NewHTTPClient(timeout time.Duration) *http.Client {
	retryClient := retryablehttp.NewClient()
	retryClient.HTTPClient.Timeout = timeout
	retryClient.RetryMax = 2
	retryClient.Logger = nil // adapters log at the walk layer

	return retryClient.StandardClient()
}

// Get performs a GET and classifies failures: transport errors, timeouts, 429
// and 5xx are transient; other non-2xx statuses are permanent.
func Get(ctx context.Context, client *http.Client, sourceName, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	req.Header.Set("User-Agent", "profscope-sync/1.0 (+https://github.com/profscope/hub)")

	resp, err := client.Do(req)
	if err != nil {
		return nil, apperrors.NewTransientSourceError(sourceName, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, apperrors.NewTransientSourceError(sourceName, err)
	}

	if resp.StatusCode >= http.StatusInternalServerError || resp.StatusCode == http.StatusTooManyRequests {
		return nil, apperrors.NewTransientSourceError(sourceName,
			fmt.Errorf("unexpected status %d for %s", resp.StatusCode, url))
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("%s: unexpected status %d for %s", sourceName, resp.StatusCode, url)
	}

	return body, nil
}

// GetJSON performs a GET and decodes the JSON body into v.
// A body that fails to decode is a permanent failure, not a retryable one.
func GetJSON(ctx context.Context, client *http.Client, sourceName, url string, v any) error {
	body, err := Get(ctx, client, sourceName, url)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("%s: decode %s: %w", sourceName, url, err)
	}

	return nil
}
