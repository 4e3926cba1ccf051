package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// SyncMetrics records sync-run metrics with bounded cardinality.
type SyncMetrics interface {
	RecordRecord(ctx context.Context, kind, outcome string)
	RecordSourceRetry(ctx context.Context, source string)
	RecordRecomputesScheduled(ctx context.Context, count int64)
}

// syncMetrics implements SyncMetrics.
type syncMetrics struct {
	records             metric.Int64Counter
	sourceRetries       metric.Int64Counter
	recomputesScheduled metric.Int64Counter
}

// NewSyncMetrics creates SyncMetrics. Returns (nil, nil) when meter is nil (metrics disabled).
func NewSyncMetrics(meter metric.Meter) (SyncMetrics, error) {
	if meter == nil {
		//nolint:nilnil // intentional: callers use "if metrics != nil" when metrics disabled
		return nil, nil
	}

	records, err := meter.Int64Counter(
		MetricNameSyncRecords,
		metric.WithDescription("Total sync records processed, by record kind and upsert outcome"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("create sync records counter: %w", err)
	}

	sourceRetries, err := meter.Int64Counter(
		MetricNameSyncSourceRetries,
		metric.WithDescription("Total transient source failures that triggered a retry"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("create sync source retries counter: %w", err)
	}

	recomputesScheduled, err := meter.Int64Counter(
		MetricNameRecomputesScheduled,
		metric.WithDescription("Total embedding recompute jobs enqueued by sync runs"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("create recomputes scheduled counter: %w", err)
	}

	return &syncMetrics{
		records:             records,
		sourceRetries:       sourceRetries,
		recomputesScheduled: recomputesScheduled,
	}, nil
}

func (s *syncMetrics) RecordRecord(ctx context.Context, kind, outcome string) {
	s.records.Add(ctx, 1, metric.WithAttributes(
		attribute.String(AttrKind, Normalize(kind, AllowedRecordKinds)),
		attribute.String(AttrOutcome, Normalize(outcome, AllowedOutcomes)),
	))
}

func (s *syncMetrics) RecordSourceRetry(ctx context.Context, source string) {
	s.sourceRetries.Add(ctx, 1, metric.WithAttributes(attribute.String(AttrSource, source)))
}

func (s *syncMetrics) RecordRecomputesScheduled(ctx context.Context, count int64) {
	s.recomputesScheduled.Add(ctx, count)
}
