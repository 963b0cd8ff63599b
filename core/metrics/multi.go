package metrics

// MultiSink forwards every event to all wrapped sinks. The first error stops
// the fan-out.
type MultiSink struct {
	Sinks []Sink
}

// NewMultiSink combines multiple sinks into one.
func NewMultiSink(sinks ...Sink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

func (m *MultiSink) RecordJobState(ev JobStateEvent) error {
	for _, s := range m.Sinks {
		if err := s.RecordJobState(ev); err != nil {
			return err
		}
	}
	return nil
}

func (m *MultiSink) RecordMessage(ev MessageEvent) error {
	for _, s := range m.Sinks {
		if err := s.RecordMessage(ev); err != nil {
			return err
		}
	}
	return nil
}

func (m *MultiSink) RecordDocument(ev DocumentEvent) error {
	for _, s := range m.Sinks {
		if err := s.RecordDocument(ev); err != nil {
			return err
		}
	}
	return nil
}
