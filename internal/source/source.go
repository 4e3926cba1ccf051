// Package source defines the contract external data sources are adapted to:
// a lazy, finite sequence of normalized intermediate records. Adapters perform
// no side effects beyond their own HTTP calls; merging records into persisted
// state is the sync orchestrator's job.
package source

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/profscope/hub/internal/models"
)

// Scope bounds one sync run against a source.
type Scope struct {
	// Department code, e.g. "CMPT". Adapters that are not course-structured
	// use it only as a search hint.
	Department string
	// RecentTerms is how many most recent terms the catalog walks.
	RecentTerms int
	// MaxCourses caps how many courses the catalog processes (0 = no cap).
	MaxCourses int
	// MaxItems caps how many records a review source yields (0 = no cap).
	MaxItems int
	// ProfessorName narrows review sources to a single instructor.
	ProfessorName string
}

// Record is the normalized intermediate record all adapters produce.
// Identity-only records (from the catalog) have an empty ReviewText; review
// records carry text plus the optional rating/timestamp.
type Record struct {
	Key           NaturalKey
	ProfessorName string
	Department    *string
	ProfileURL    *string
	CourseCodes   []string
	ReviewText    string
	Rating        *int
	ReviewedAt    *time.Time
}

// IsReview reports whether the record carries review text.
func (r *Record) IsReview() bool {
	return strings.TrimSpace(r.ReviewText) != ""
}

// Iterator yields records one at a time. Next returns (nil, io.EOF) after the
// last record. Any transport failure surfaces as a TransientSourceError so
// the orchestrator can retry the run.
type Iterator interface {
	Next(ctx context.Context) (*Record, error)
}

// Adapter is one external data source normalized to the Record contract.
type Adapter interface {
	// Name identifies the adapter in logs and summaries.
	Name() string
	// Kind is the closed-set source tag stamped on yielded records.
	Kind() models.SourceKind
	// Fetch starts a lazy walk of the source within scope.
	Fetch(ctx context.Context, scope Scope) (Iterator, error)
}

// KeyKind discriminates the two natural-key variants.
type KeyKind int

// Natural-key variants. A key is external when the source hands out a stable
// id for the record, content-hash otherwise. Kept as an explicit two-case
// union rather than a single string field so the variants can never collide.
const (
	KeyExternal KeyKind = iota
	KeyContent
)

// NaturalKey identifies a record independently of store-assigned ids.
type NaturalKey struct {
	Source      models.SourceKind
	Kind        KeyKind
	ExternalID  string
	ContentHash string
}

// ExternalKey builds a natural key from a source-provided stable id.
func ExternalKey(source models.SourceKind, externalID string) NaturalKey {
	return NaturalKey{Source: source, Kind: KeyExternal, ExternalID: externalID}
}

// ContentKey builds a natural key by hashing the normalized record text.
// Used when the source has no stable id for the record.
func ContentKey(source models.SourceKind, text string) NaturalKey {
	sum := sha256.Sum256([]byte(NormalizeText(text)))

	return NaturalKey{Source: source, Kind: KeyContent, ContentHash: hex.EncodeToString(sum[:])}
}

// String renders the key for logging.
func (k NaturalKey) String() string {
	if k.Kind == KeyExternal {
		return string(k.Source) + "/id:" + k.ExternalID
	}

	return string(k.Source) + "/hash:" + k.ContentHash
}

// NormalizeText collapses runs of whitespace to single spaces and trims.
// Dedup hashes are computed over this form so formatting noise from scrapers
// does not defeat duplicate detection.
func NormalizeText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// NormalizeCourseCode renders a department + course number pair as the
// canonical "CMPT110" form. Numbers already carrying the department prefix
// pass through upper-cased.
func NormalizeCourseCode(department, number string) string {
	dept := strings.ToUpper(strings.TrimSpace(department))
	num := strings.ToUpper(strings.TrimSpace(number))

	if num == "" {
		return ""
	}

	if dept != "" && !strings.Contains(num, dept) {
		return dept + num
	}

	return num
}
