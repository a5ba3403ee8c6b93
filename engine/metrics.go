package engine

import (
	"context"
	"time"

	"go.opencensus.io/stats"
	"go.opencensus.io/stats/view"
	"go.opencensus.io/tag"
)

var (
	MExecutions    = stats.Int64("autoflow/executions", "Workflow executions by final state", stats.UnitDimensionless)
	MActionLatency = stats.Float64("autoflow/action_latency", "Action latency", stats.UnitMilliseconds)

	KeyState  = tag.MustNewKey("state")
	KeyAction = tag.MustNewKey("action_type")
)

var (
	ExecutionCountView = &view.View{
		Name:        "autoflow/executions",
		Description: "Number of workflow executions by final state",
		Measure:     MExecutions,
		Aggregation: view.Count(),
		TagKeys:     []tag.Key{KeyState},
	}
	ActionLatencyView = &view.View{
		Name:        "autoflow/action_latency",
		Description: "Action latency distribution",
		Measure:     MActionLatency,
		Aggregation: view.Distribution(5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000),
		TagKeys:     []tag.Key{KeyAction},
	}
)

func RegisterViews() error {
	return view.Register(ExecutionCountView, ActionLatencyView)
}

func recordExecution(ctx context.Context, state ExecutionState) {
	stats.RecordWithTags(ctx, []tag.Mutator{tag.Upsert(KeyState, string(state))}, MExecutions.M(1))
}

func recordActionLatency(ctx context.Context, kind string, start time.Time) {
	ms := float64(time.Since(start)) / float64(time.Millisecond)
	stats.RecordWithTags(ctx, []tag.Mutator{tag.Upsert(KeyAction, kind)}, MActionLatency.M(ms))
}
