package telemetry

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
)

// InstrumentationName scopes tabpilot's tracers and meters.
const InstrumentationName = "github.com/entrhq/tabpilot"

// Tracer returns the tabpilot tracer from the global provider.
func Tracer() trace.Tracer {
	return otel.Tracer(InstrumentationName)
}

// Instruments are the agent's metric instruments.
type Instruments struct {
	Turns         metric.Int64Counter
	Iterations    metric.Int64Counter
	ProviderCalls metric.Int64Counter
	Retries       metric.Int64Counter
	Actions       metric.Int64Counter
	PromptTokens  metric.Int64Histogram
	TurnDuration  metric.Float64Histogram
}

// NewInstruments creates the instruments from the global meter provider.
// An instrument that cannot be created is replaced by a no-op one.
func NewInstruments() *Instruments {
	meter := otel.Meter(InstrumentationName)

	return &Instruments{
		Turns:         counter(meter, "tabpilot.turns", "Completed agent turns"),
		Iterations:    counter(meter, "tabpilot.iterations", "Agent loop iterations"),
		ProviderCalls: counter(meter, "tabpilot.provider.calls", "Provider requests including retries"),
		Retries:       counter(meter, "tabpilot.provider.retries", "Rate-limited provider requests that were retried"),
		Actions:       counter(meter, "tabpilot.actions", "Browser actions executed"),
		PromptTokens:  intHistogram(meter, "tabpilot.prompt.tokens", "Estimated prompt tokens per provider call"),
		TurnDuration:  floatHistogram(meter, "tabpilot.turn.duration", "Turn duration", "s"),
	}
}

func counter(m metric.Meter, name, desc string) metric.Int64Counter {
	c, err := m.Int64Counter(name, metric.WithDescription(desc))
	if err != nil {
		otel.Handle(err)
		c, _ = noop.Meter{}.Int64Counter(name)
	}
	return c
}

func intHistogram(m metric.Meter, name, desc string) metric.Int64Histogram {
	h, err := m.Int64Histogram(name, metric.WithDescription(desc))
	if err != nil {
		otel.Handle(err)
		h, _ = noop.Meter{}.Int64Histogram(name)
	}
	return h
}

func floatHistogram(m metric.Meter, name, desc, unit string) metric.Float64Histogram {
	h, err := m.Float64Histogram(name, metric.WithDescription(desc), metric.WithUnit(unit))
	if err != nil {
		otel.Handle(err)
		h, _ = noop.Meter{}.Float64Histogram(name)
	}
	return h
}
