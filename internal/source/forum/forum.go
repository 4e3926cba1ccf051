// Package forum adapts a public forum search API (reddit-style search.json)
// to the source contract. Posts mentioning the professor become unrated
// review records keyed by the forum's stable post id.
package forum

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/profscope/hub/internal/models"
	"github.com/profscope/hub/internal/source"
)

const defaultBaseURL = "https://www.reddit.com"

// Adapter is the forum source adapter.
type Adapter struct {
	client  *http.Client
	baseURL string
}

// Config holds configuration for the forum adapter.
type Config struct {
	BaseURL    string
	HTTPClient *http.Client
}

// New creates a forum adapter.
func New(cfg Config) *Adapter {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	client := cfg.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	return &Adapter{client: client, baseURL: strings.TrimRight(baseURL, "/")}
}

// Name implements source.Adapter.
func (a *Adapter) Name() string { return "forum" }

// Kind implements source.Adapter.
func (a *Adapter) Kind() models.SourceKind { return models.SourceForum }

// Fetch implements source.Adapter.
func (a *Adapter) Fetch(_ context.Context, scope source.Scope) (source.Iterator, error) {
	if scope.ProfessorName == "" {
		return nil, fmt.Errorf("forum: professor name is required")
	}

	limit := scope.MaxItems
	if limit <= 0 || limit > 100 {
		limit = 100
	}

	return &search{adapter: a, scope: scope, limit: limit}, nil
}

type searchResponse struct {
	Data struct {
		Children []struct {
			Data post `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type post struct {
	ID         string  `json:"id"`
	Title      string  `json:"title"`
	SelfText   string  `json:"selftext"`
	CreatedUTC float64 `json:"created_utc"`
}

type search struct {
	adapter *Adapter
	scope   source.Scope
	limit   int

	started bool
	posts   []post
	pos     int
}

// Next implements source.Iterator. One search request backs the whole walk;
// the forum API returns a single bounded page.
func (s *search) Next(ctx context.Context) (*source.Record, error) {
	if !s.started {
		u := fmt.Sprintf("%s/search.json?q=%s&limit=%d",
			s.adapter.baseURL, url.QueryEscape(s.scope.ProfessorName), s.limit)

		var resp searchResponse
		if err := source.GetJSON(ctx, s.adapter.client, "forum", u, &resp); err != nil {
			return nil, err
		}

		for _, child := range resp.Data.Children {
			s.posts = append(s.posts, child.Data)
		}

		s.started = true
	}

	for s.pos < len(s.posts) {
		p := s.posts[s.pos]
		s.pos++

		text := source.NormalizeText(p.Title + "\n" + p.SelfText)
		if text == "" {
			continue
		}

		rec := &source.Record{
			Key:           source.ExternalKey(models.SourceForum, p.ID),
			ProfessorName: s.scope.ProfessorName,
			ReviewText:    text,
		}

		if p.CreatedUTC > 0 {
			ts := time.Unix(int64(p.CreatedUTC), 0).UTC()
			rec.ReviewedAt = &ts
		}

		return rec, nil
	}

	return nil, io.EOF
}
