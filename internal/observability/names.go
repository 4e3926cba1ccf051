// Package observability provides OpenTelemetry metrics and tracing plus the
// structured-logging handler shared by all binaries.
package observability

// Metric names (Prometheus / OpenTelemetry).
const (
	MetricNameSyncRecords         = "profscope_sync_records_total"
	MetricNameSyncSourceRetries   = "profscope_sync_source_retries_total"
	MetricNameRecomputes          = "profscope_embedding_recomputes_total"
	MetricNameRecomputeDuration   = "profscope_embedding_recompute_duration_seconds"
	MetricNameRecomputesScheduled = "profscope_embedding_recomputes_scheduled_total"
	MetricNameCacheHits           = "profscope_cache_hits_total"
	MetricNameCacheMisses         = "profscope_cache_misses_total"
	MetricNameSummaryRefreshes    = "profscope_summary_refreshes_total"
)

// Attribute keys.
const (
	AttrKind    = "kind"
	AttrOutcome = "outcome"
	AttrSource  = "source"
	AttrStatus  = "status"
	AttrCache   = "cache"
)

// AllowedRecordKinds for profscope_sync_records_total (bounded cardinality).
var AllowedRecordKinds = map[string]bool{
	"professor": true,
	"review":    true,
}

// AllowedOutcomes for profscope_sync_records_total.
var AllowedOutcomes = map[string]bool{
	"added":   true,
	"updated": true,
	"skipped": true,
	"failed":  true,
}

// AllowedStatuses for recompute and summary refresh counters.
var AllowedStatuses = map[string]bool{
	"success":     true,
	"cleared":     true,
	"stale_drop":  true,
	"unavailable": true,
	"error":       true,
}

// AllowedCacheNames for cache hit/miss counters.
var AllowedCacheNames = map[string]bool{
	"search_query": true,
}

// Normalize returns value when allowed, otherwise "other".
func Normalize(value string, allowed map[string]bool) string {
	if allowed[value] {
		return value
	}

	return "other"
}
