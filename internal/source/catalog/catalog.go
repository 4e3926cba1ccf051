// Package catalog adapts a university course-outlines API to the source
// contract. It walks recent terms of one department, pulls each section's
// outline, and yields one identity record per instructor it finds. The
// catalog is the only source that establishes professor identity; review
// sources only attach text to professors that already exist.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"

	"golang.org/x/time/rate"

	"github.com/profscope/hub/internal/models"
	"github.com/profscope/hub/internal/source"
)

const defaultBaseURL = "https://www.sfu.ca/bin/wcm"

// Adapter is the course-catalog source adapter.
type Adapter struct {
	client  *http.Client
	baseURL string
	limiter *rate.Limiter
}

// Config holds configuration for the catalog adapter.
type Config struct {
	BaseURL    string
	HTTPClient *http.Client
	// RequestsPerSecond paces outline fetches; the catalog API is shared
	// infrastructure and a full department walk is hundreds of requests.
	RequestsPerSecond float64
}

// New creates a catalog adapter.
func New(cfg Config) *Adapter {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	client := cfg.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}

	return &Adapter{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
		limiter: limiter,
	}
}

// Name implements source.Adapter.
func (a *Adapter) Name() string { return "catalog" }

// Kind implements source.Adapter.
func (a *Adapter) Kind() models.SourceKind { return models.SourceCatalog }

// Fetch implements source.Adapter. The walk is lazy: nothing is requested
// until the first Next call, and outlines are fetched one section at a time.
func (a *Adapter) Fetch(_ context.Context, scope source.Scope) (source.Iterator, error) {
	if scope.Department == "" {
		return nil, fmt.Errorf("catalog: department is required")
	}

	recentTerms := scope.RecentTerms
	if recentTerms <= 0 {
		recentTerms = 2
	}

	return &walk{
		adapter:     a,
		scope:       scope,
		recentTerms: recentTerms,
		seen:        make(map[string]bool),
	}, nil
}

// termRef is one (year, term) pair to scan.
type termRef struct {
	year string
	term string
}

// walk is the lazy iterator over catalog records.
type walk struct {
	adapter     *Adapter
	scope       source.Scope
	recentTerms int

	started     bool
	terms       []termRef
	courses     []string // course numbers pending for the current term
	sections    []string // section codes pending for the current course
	current     termRef
	currentNum  string
	coursesDone int

	pending []*source.Record
	seen    map[string]bool // name + course code, dedupe within the walk
}

// Next implements source.Iterator.
func (w *walk) Next(ctx context.Context) (*source.Record, error) {
	for {
		if len(w.pending) > 0 {
			rec := w.pending[0]
			w.pending = w.pending[1:]

			return rec, nil
		}

		if !w.started {
			if err := w.start(ctx); err != nil {
				return nil, err
			}

			w.started = true

			continue
		}

		// Pending units are consumed only after their fetch succeeds, so a
		// caller retrying Next after a transient error re-attempts the same
		// section, course, or term instead of silently skipping it.
		switch {
		case len(w.sections) > 0:
			if err := w.loadOutline(ctx, w.sections[0]); err != nil {
				return nil, err
			}

			w.sections = w.sections[1:]

		case len(w.courses) > 0:
			if w.scope.MaxCourses > 0 && w.coursesDone >= w.scope.MaxCourses {
				w.courses = nil
				w.terms = nil

				continue
			}

			w.currentNum = w.courses[0]

			sections, err := w.adapter.listSections(ctx, w.current, w.scope.Department, w.currentNum)
			if err != nil {
				return nil, err
			}

			w.courses = w.courses[1:]
			w.coursesDone++
			w.sections = sections

		case len(w.terms) > 0:
			courses, err := w.adapter.listCourses(ctx, w.terms[0], w.scope.Department)
			if err != nil {
				return nil, err
			}

			w.current = w.terms[0]
			w.terms = w.terms[1:]
			w.courses = courses

		default:
			return nil, io.EOF
		}
	}
}

// start resolves the most recent year and its newest terms.
func (w *walk) start(ctx context.Context) error {
	years, err := w.adapter.listStrings(ctx, "")
	if err != nil {
		return err
	}

	if len(years) == 0 {
		return fmt.Errorf("catalog: no years available")
	}

	sort.Sort(sort.Reverse(sort.StringSlice(years)))
	latest := years[0]

	terms, err := w.adapter.listStrings(ctx, latest)
	if err != nil {
		return err
	}

	if len(terms) == 0 {
		return fmt.Errorf("catalog: no terms for year %s", latest)
	}

	if len(terms) > w.recentTerms {
		terms = terms[:w.recentTerms]
	}

	for _, term := range terms {
		w.terms = append(w.terms, termRef{year: latest, term: strings.ToLower(term)})
	}

	return nil
}

// loadOutline fetches one section outline and queues identity records for
// every instructor named in it.
func (w *walk) loadOutline(ctx context.Context, section string) error {
	path := fmt.Sprintf("%s/%s/%s/%s/%s",
		w.current.year, w.current.term, strings.ToLower(w.scope.Department), w.currentNum, section)

	var outline map[string]any
	if err := w.adapter.getPath(ctx, path, &outline); err != nil {
		return err
	}

	dept := strings.ToUpper(w.scope.Department)
	code := source.NormalizeCourseCode(dept, w.currentNum)

	for _, name := range extractInstructors(outline) {
		dedupeKey := name + "|" + code
		if w.seen[dedupeKey] {
			continue
		}

		w.seen[dedupeKey] = true

		deptCopy := dept
		w.pending = append(w.pending, &source.Record{
			Key:           source.ExternalKey(models.SourceCatalog, path+"#"+source.NormalizeText(name)),
			ProfessorName: name,
			Department:    &deptCopy,
			CourseCodes:   []string{code},
		})
	}

	return nil
}

// listItem is one entry of a catalog listing; the API mixes bare strings and
// {value, text} objects in the same endpoints.
type listItem struct {
	Value string `json:"value"`
	Text  string `json:"text"`
}

// UnmarshalJSON accepts both the string and object forms.
func (it *listItem) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		it.Value = s

		return nil
	}

	type alias listItem

	var a alias
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}

	*it = listItem(a)

	return nil
}

func (it listItem) val() string {
	if it.Value != "" {
		return it.Value
	}

	return it.Text
}

func (a *Adapter) getPath(ctx context.Context, path string, v any) error {
	if a.limiter != nil {
		if err := a.limiter.Wait(ctx); err != nil {
			return err
		}
	}

	url := a.baseURL + "/course-outlines"
	if path != "" {
		url += "?" + path
	}

	return source.GetJSON(ctx, a.client, "catalog", url, v)
}

func (a *Adapter) listStrings(ctx context.Context, path string) ([]string, error) {
	var items []listItem
	if err := a.getPath(ctx, path, &items); err != nil {
		return nil, err
	}

	out := make([]string, 0, len(items))

	for _, it := range items {
		if v := it.val(); v != "" {
			out = append(out, v)
		}
	}

	return out, nil
}

func (a *Adapter) listCourses(ctx context.Context, term termRef, department string) ([]string, error) {
	return a.listStrings(ctx, fmt.Sprintf("%s/%s/%s", term.year, term.term, strings.ToLower(department)))
}

func (a *Adapter) listSections(ctx context.Context, term termRef, department, courseNum string) ([]string, error) {
	return a.listStrings(ctx, fmt.Sprintf("%s/%s/%s/%s", term.year, term.term, strings.ToLower(department), courseNum))
}

// extractInstructors recursively searches outline JSON for instructor fields
// and returns display names, deduplicated in encounter order.
func extractInstructors(v any) []string {
	var out []string

	collect(v, &out)

	seen := make(map[string]bool, len(out))
	deduped := out[:0]

	for _, name := range out {
		n := source.NormalizeText(name)
		if n == "" || seen[n] {
			continue
		}

		seen[n] = true
		deduped = append(deduped, n)
	}

	return deduped
}

var instructorKeys = map[string]bool{
	"instructor":        true,
	"instructors":       true,
	"primaryinstructor": true,
	"instructorlist":    true,
}

func collect(v any, out *[]string) {
	switch val := v.(type) {
	case map[string]any:
		for k, child := range val {
			if instructorKeys[strings.ToLower(k)] {
				collectNames(child, out)
			} else {
				collect(child, out)
			}
		}
	case []any:
		for _, child := range val {
			collect(child, out)
		}
	}
}

// collectNames pulls names out of an instructor value, which may be a string,
// a {firstName, lastName} object, or a list of either.
func collectNames(v any, out *[]string) {
	switch val := v.(type) {
	case string:
		*out = append(*out, val)
	case []any:
		for _, child := range val {
			collectNames(child, out)
		}
	case map[string]any:
		first := firstString(val, "firstName", "firstname", "givenName")
		last := firstString(val, "lastName", "lastname", "familyName")

		name := strings.TrimSpace(first + " " + last)
		if name == "" {
			name = firstString(val, "name", "displayName", "commonName")
		}

		if name != "" {
			*out = append(*out, name)
		}
	}
}

func firstString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := m[k].(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}

	return ""
}
