package observability

import (
	"fmt"

	"go.opentelemetry.io/otel/metric"
)

// Metrics holds all metric collectors. When metrics are disabled, all fields
// are nil; components that accept the individual interfaces already handle nil.
type Metrics struct {
	Sync      SyncMetrics
	Recompute RecomputeMetrics
	Cache     CacheMetrics
}

// NewMetrics creates all metric collectors from the given meter.
// Returns (nil, nil) when meter is nil (metrics disabled).
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	if meter == nil {
		//nolint:nilnil // intentional: callers use "if metrics != nil" when metrics disabled
		return nil, nil
	}

	syncMetrics, err := NewSyncMetrics(meter)
	if err != nil {
		return nil, fmt.Errorf("sync metrics: %w", err)
	}

	recompute, err := NewRecomputeMetrics(meter)
	if err != nil {
		return nil, fmt.Errorf("recompute metrics: %w", err)
	}

	cache, err := NewCacheMetrics(meter)
	if err != nil {
		return nil, fmt.Errorf("cache metrics: %w", err)
	}

	return &Metrics{
		Sync:      syncMetrics,
		Recompute: recompute,
		Cache:     cache,
	}, nil
}
