package tracking

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/teslashibe/go-marker/pkg/tracking"

type metrics struct {
	events      metric.Int64Counter
	ignored     metric.Int64Counter
	transitions metric.Int64Counter
	loops       metric.Int64Counter
}

// newMetrics uses the global meter provider, a no-op unless one is installed.
func newMetrics() (*metrics, error) {
	m := otel.Meter(instrumentationName)

	var (
		out metrics
		err error
	)
	out.events, err = m.Int64Counter("tracking.events.processed",
		metric.WithDescription("Events applied to the tracking state machine"))
	if err != nil {
		return nil, fmt.Errorf("creating events counter: %w", err)
	}
	out.ignored, err = m.Int64Counter("tracking.events.ignored",
		metric.WithDescription("Events ignored (wrong anchor kind or stale anchor)"))
	if err != nil {
		return nil, fmt.Errorf("creating ignored counter: %w", err)
	}
	out.transitions, err = m.Int64Counter("tracking.transitions",
		metric.WithDescription("State changes between searching and locked"))
	if err != nil {
		return nil, fmt.Errorf("creating transitions counter: %w", err)
	}
	out.loops, err = m.Int64Counter("tracking.overlay.loops",
		metric.WithDescription("Overlay restarts after end of media"))
	if err != nil {
		return nil, fmt.Errorf("creating loops counter: %w", err)
	}
	return &out, nil
}

func (m *metrics) record(ctx context.Context, t Transition, err error) {
	kind := metric.WithAttributes(attribute.String("event", t.Event.Kind.String()))
	if err != nil {
		m.ignored.Add(ctx, 1, kind)
		return
	}
	m.events.Add(ctx, 1, kind)
	if t.Changed() {
		m.transitions.Add(ctx, 1, metric.WithAttributes(attribute.String("to", t.To.String())))
	}
}
