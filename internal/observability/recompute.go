package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// RecomputeMetrics records embedding recompute outcomes and timing.
type RecomputeMetrics interface {
	RecordRecompute(ctx context.Context, status string)
	RecordRecomputeDuration(ctx context.Context, duration time.Duration, status string)
	RecordSummaryRefresh(ctx context.Context, status string)
}

// recomputeMetrics implements RecomputeMetrics.
type recomputeMetrics struct {
	recomputes        metric.Int64Counter
	recomputeDuration metric.Float64Histogram
	summaryRefreshes  metric.Int64Counter
}

// NewRecomputeMetrics creates RecomputeMetrics. Returns (nil, nil) when meter is nil (metrics disabled).
func NewRecomputeMetrics(meter metric.Meter) (RecomputeMetrics, error) {
	if meter == nil {
		//nolint:nilnil // intentional: callers use "if metrics != nil" when metrics disabled
		return nil, nil
	}

	recomputes, err := meter.Int64Counter(
		MetricNameRecomputes,
		metric.WithDescription("Total embedding recomputes by status. "+
			"stale_drop means a concurrent recompute already stored a newer generation."),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("create recomputes counter: %w", err)
	}

	duration, err := meter.Float64Histogram(
		MetricNameRecomputeDuration,
		metric.WithDescription("Embedding recompute duration (seconds)"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("create recompute duration histogram: %w", err)
	}

	summaryRefreshes, err := meter.Int64Counter(
		MetricNameSummaryRefreshes,
		metric.WithDescription("Total summary refresh attempts by status"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("create summary refreshes counter: %w", err)
	}

	return &recomputeMetrics{
		recomputes:        recomputes,
		recomputeDuration: duration,
		summaryRefreshes:  summaryRefreshes,
	}, nil
}

func (r *recomputeMetrics) RecordRecompute(ctx context.Context, status string) {
	r.recomputes.Add(ctx, 1, metric.WithAttributes(attrStatus(status)))
}

func (r *recomputeMetrics) RecordRecomputeDuration(ctx context.Context, duration time.Duration, status string) {
	r.recomputeDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrStatus(status)))
}

func (r *recomputeMetrics) RecordSummaryRefresh(ctx context.Context, status string) {
	r.summaryRefreshes.Add(ctx, 1, metric.WithAttributes(attrStatus(status)))
}

func attrStatus(status string) attribute.KeyValue {
	return attribute.String(AttrStatus, Normalize(status, AllowedStatuses))
}
