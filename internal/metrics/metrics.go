// Package metrics records scoring runs with opencensus and exposes them to
// prometheus.
package metrics

import (
	"context"
	"fmt"
	"time"

	"contrib.go.opencensus.io/exporter/prometheus"
	"go.opencensus.io/stats"
	"go.opencensus.io/stats/view"
	"go.opencensus.io/tag"
)

const Namespace = "outlier"

var (
	MethodKey = tag.MustNewKey("method")

	RunLatencyMs    = stats.Float64("outlier/run_latency", "Latency of a scoring run", stats.UnitMilliseconds)
	PointsScored    = stats.Int64("outlier/points_scored", "Number of points scored", stats.UnitDimensionless)
	PointsUndefined = stats.Int64("outlier/points_undefined", "Number of points with an undefined score", stats.UnitDimensionless)
	RunFailures     = stats.Int64("outlier/run_failures", "Number of failed scoring runs", stats.UnitDimensionless)
)

var (
	RunLatencyView = &view.View{
		Name:        "outlier/run_latency",
		Measure:     RunLatencyMs,
		Description: "Distribution of scoring run latency",
		TagKeys:     []tag.Key{MethodKey},
		Aggregation: view.Distribution(1, 5, 10, 50, 100, 500, 1000, 5000, 10000, 60000),
	}
	PointsScoredView = &view.View{
		Name:        "outlier/points_scored",
		Measure:     PointsScored,
		Description: "Total points scored",
		TagKeys:     []tag.Key{MethodKey},
		Aggregation: view.Sum(),
	}
	PointsUndefinedView = &view.View{
		Name:        "outlier/points_undefined",
		Measure:     PointsUndefined,
		Description: "Total points with an undefined score",
		TagKeys:     []tag.Key{MethodKey},
		Aggregation: view.Sum(),
	}
	RunFailuresView = &view.View{
		Name:        "outlier/run_failures",
		Measure:     RunFailures,
		Description: "Total failed scoring runs",
		TagKeys:     []tag.Key{MethodKey},
		Aggregation: view.Count(),
	}
)

func Views() []*view.View {
	return []*view.View{RunLatencyView, PointsScoredView, PointsUndefinedView, RunFailuresView}
}

func Register() error {
	if err := view.Register(Views()...); err != nil {
		return fmt.Errorf("unable to register views: %w", err)
	}
	return nil
}

// NewExporter returns the prometheus exporter; it serves /metrics as an
// http.Handler.
func NewExporter() (*prometheus.Exporter, error) {
	exporter, err := prometheus.NewExporter(prometheus.Options{Namespace: Namespace})
	if err != nil {
		return nil, fmt.Errorf("unable to create prometheus exporter: %w", err)
	}
	return exporter, nil
}

// RecordRun records a finished scoring run.
func RecordRun(ctx context.Context, method string, latency time.Duration, scored, undefined int) {
	ctx, err := tag.New(ctx, tag.Upsert(MethodKey, method))
	if err != nil {
		return
	}
	stats.Record(ctx,
		RunLatencyMs.M(float64(latency)/float64(time.Millisecond)),
		PointsScored.M(int64(scored)),
		PointsUndefined.M(int64(undefined)),
	)
}

func RecordFailure(ctx context.Context, method string) {
	ctx, err := tag.New(ctx, tag.Upsert(MethodKey, method))
	if err != nil {
		return
	}
	stats.Record(ctx, RunFailures.M(1))
}
