// Package reviewsite adapts a professor-ratings site to the source contract.
// The site has no public API: the adapter scrapes the search page for the
// professor's profile id, then pulls review snippets out of the profile page.
// Reviews carry no stable id, so records are keyed by content hash.
package reviewsite

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/profscope/hub/internal/models"
	"github.com/profscope/hub/internal/source"
)

const defaultBaseURL = "https://www.ratemyprofessors.com"

var (
	profileIDPattern = regexp.MustCompile(`/professor/(\d+)`)
	legacyIDPattern  = regexp.MustCompile(`/(?:ShowRatings|ProfessorRatings)\.jsp\?tid=(\d+)`)
	commentPattern   = regexp.MustCompile(`(?s)<p class="Comments__Text">(.*?)</p>`)
	legacyPattern    = regexp.MustCompile(`(?s)<div class="Rating__RatingBody">(.*?)</div>`)
	tagPattern       = regexp.MustCompile(`<[^>]+>`)
)

// Adapter is the review-site source adapter.
type Adapter struct {
	client  *http.Client
	baseURL string
}

// Config holds configuration for the review-site adapter.
type Config struct {
	BaseURL    string
	HTTPClient *http.Client
}

// New creates a review-site adapter.
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
func (a *Adapter) Name() string { return "reviewsite" }

// Kind implements source.Adapter.
func (a *Adapter) Kind() models.SourceKind { return models.SourceReviewSite }

// Fetch implements source.Adapter.
func (a *Adapter) Fetch(_ context.Context, scope source.Scope) (source.Iterator, error) {
	if scope.ProfessorName == "" {
		return nil, fmt.Errorf("reviewsite: professor name is required")
	}

	limit := scope.MaxItems
	if limit <= 0 {
		limit = 50
	}

	return &scrape{adapter: a, scope: scope, limit: limit}, nil
}

type scrape struct {
	adapter *Adapter
	scope   source.Scope
	limit   int

	started    bool
	profileURL string
	reviews    []string
	pos        int
}

// Next implements source.Iterator. A professor absent from the site is an
// empty sequence, not an error.
func (s *scrape) Next(ctx context.Context) (*source.Record, error) {
	if !s.started {
		if err := s.load(ctx); err != nil {
			return nil, err
		}

		s.started = true
	}

	for s.pos < len(s.reviews) {
		text := s.reviews[s.pos]
		s.pos++

		if text == "" {
			continue
		}

		rec := &source.Record{
			Key:           source.ContentKey(models.SourceReviewSite, text),
			ProfessorName: s.scope.ProfessorName,
			ReviewText:    text,
		}

		if s.profileURL != "" {
			u := s.profileURL
			rec.ProfileURL = &u
		}

		return rec, nil
	}

	return nil, io.EOF
}

func (s *scrape) load(ctx context.Context) error {
	searchURL := fmt.Sprintf("%s/search/teachers?query=%s",
		s.adapter.baseURL, url.QueryEscape(s.scope.ProfessorName))

	page, err := source.Get(ctx, s.adapter.client, "reviewsite", searchURL)
	if err != nil {
		return err
	}

	profilePath := ""
	if m := profileIDPattern.FindSubmatch(page); m != nil {
		profilePath = "/professor/" + string(m[1])
	} else if m := legacyIDPattern.FindSubmatch(page); m != nil {
		profilePath = "/ShowRatings.jsp?tid=" + string(m[1])
	}

	if profilePath == "" {
		return nil // professor not listed on the site
	}

	s.profileURL = s.adapter.baseURL + profilePath

	profile, err := source.Get(ctx, s.adapter.client, "reviewsite", s.profileURL)
	if err != nil {
		return err
	}

	for _, pattern := range []*regexp.Regexp{commentPattern, legacyPattern} {
		for _, m := range pattern.FindAllSubmatch(profile, s.limit) {
			if len(s.reviews) >= s.limit {
				return nil
			}

			s.reviews = append(s.reviews, stripTags(string(m[1])))
		}

		if len(s.reviews) > 0 {
			return nil
		}
	}

	return nil
}

func stripTags(s string) string {
	return source.NormalizeText(tagPattern.ReplaceAllString(s, " "))
}
