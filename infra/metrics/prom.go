package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/gridhub/aggcoord/core/metrics"
)

// PromSink records coordinator events in Prometheus metrics.
type PromSink struct {
	jobStates *prometheus.CounterVec
	jobDur    *prometheus.HistogramVec
	messages  *prometheus.CounterVec
	documents *prometheus.CounterVec
}

// NewPromSink registers coordinator metrics on the default Prometheus
// registerer. The Prometheus server should be started separately.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	jobStates := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "aggregation_job_states_total",
		Help: "Job state transitions by process type and state",
	}, []string{"process_type", "state"})
	jobDur := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "aggregation_job_duration_seconds",
		Help:    "Time from job creation to a terminal state",
		Buckets: prometheus.ExponentialBuckets(1, 2, 14),
	}, []string{"process_type", "state"})
	messages := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "outbound_messages_total",
		Help: "Outbound messages handed to the transport",
	}, []string{"category"})
	documents := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cim_documents_total",
		Help: "CIM documents built for file distribution",
	}, []string{"grid_area"})

	if err := register(reg, &jobStates); err != nil {
		return nil, err
	}
	if err := registerHist(reg, &jobDur); err != nil {
		return nil, err
	}
	if err := register(reg, &messages); err != nil {
		return nil, err
	}
	if err := register(reg, &documents); err != nil {
		return nil, err
	}
	return &PromSink{jobStates: jobStates, jobDur: jobDur, messages: messages, documents: documents}, nil
}

func register(reg prometheus.Registerer, cv **prometheus.CounterVec) error {
	if err := reg.Register(*cv); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			*cv = are.ExistingCollector.(*prometheus.CounterVec)
			return nil
		}
		return err
	}
	return nil
}

func registerHist(reg prometheus.Registerer, hv **prometheus.HistogramVec) error {
	if err := reg.Register(*hv); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			*hv = are.ExistingCollector.(*prometheus.HistogramVec)
			return nil
		}
		return err
	}
	return nil
}

// RecordJobState counts the transition and observes the duration once a
// terminal state is reached.
func (s *PromSink) RecordJobState(ev coremetrics.JobStateEvent) error {
	s.jobStates.WithLabelValues(ev.ProcessType, ev.State).Inc()
	if ev.Terminal {
		s.jobDur.WithLabelValues(ev.ProcessType, ev.State).Observe(ev.Duration.Seconds())
	}
	return nil
}

// RecordMessage counts one published message.
func (s *PromSink) RecordMessage(ev coremetrics.MessageEvent) error {
	s.messages.WithLabelValues(ev.Category).Inc()
	return nil
}

// RecordDocument counts one built document.
func (s *PromSink) RecordDocument(ev coremetrics.DocumentEvent) error {
	s.documents.WithLabelValues(ev.GridArea).Inc()
	return nil
}
