package metrics

import "time"

// JobStateEvent records a persisted job lifecycle transition.
type JobStateEvent struct {
	JobID       string
	ProcessType string
	State       string
	Terminal    bool
	Duration    time.Duration
	Time        time.Time
}

// MessageEvent records one outbound message handed to the transport.
type MessageEvent struct {
	Category string
	GridArea string
	Receiver string
	Time     time.Time
}

// DocumentEvent records one CIM document built for file distribution.
type DocumentEvent struct {
	GridArea    string
	SeriesCount int
	PointCount  int
	Time        time.Time
}

// Sink records coordinator events for observability purposes.
type Sink interface {
	RecordJobState(ev JobStateEvent) error
	RecordMessage(ev MessageEvent) error
	RecordDocument(ev DocumentEvent) error
}

// NopSink discards all events.
type NopSink struct{}

func (NopSink) RecordJobState(JobStateEvent) error { return nil }
func (NopSink) RecordMessage(MessageEvent) error   { return nil }
func (NopSink) RecordDocument(DocumentEvent) error { return nil }
