package sinks

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/JakeFAU/assistant-tools/internal/progress"
)

// PrometheusSink exports the progress event stream as Prometheus counters.
// It owns its collectors so several sinks can coexist under distinct
// registries in tests.
type PrometheusSink struct {
	eventsTotal    *prometheus.CounterVec
	terminalStatus *prometheus.CounterVec
	citationsTotal prometheus.Counter
}

// NewPrometheusSink registers the collectors against the provided registry.
func NewPrometheusSink(reg prometheus.Registerer) (*PrometheusSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PrometheusSink{
		eventsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tool_progress_events_total",
			Help: "Progress events emitted, partitioned by kind.",
		}, []string{"kind"}),
		terminalStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tool_terminal_status_total",
			Help: "Terminal status events partitioned by status code.",
		}, []string{"status"}),
		citationsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tool_citations_total",
			Help: "Citation events surfaced to the host.",
		}),
	}
	for _, collector := range []prometheus.Collector{
		s.eventsTotal,
		s.terminalStatus,
		s.citationsTotal,
	} {
		if err := reg.Register(collector); err != nil {
			return nil, fmt.Errorf("register progress collector: %w", err)
		}
	}
	return s, nil
}

// Emit updates the collectors for one event. It is safe for concurrent use.
func (s *PrometheusSink) Emit(_ context.Context, evt progress.Event) error {
	s.eventsTotal.WithLabelValues(string(evt.Kind)).Inc()
	switch evt.Kind {
	case progress.KindStatus:
		if evt.Status.Done {
			s.terminalStatus.WithLabelValues(evt.Status.Status).Inc()
		}
	case progress.KindCitation:
		s.citationsTotal.Inc()
	}
	return nil
}
