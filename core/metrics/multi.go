package metrics

// MultiSink fans out events to multiple sinks.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordSchedule forwards the event to all sinks, returning the first error
// encountered.
func (m *MultiSink) RecordSchedule(ev ScheduleEvent) error {
	for _, s := range m.Sinks {
		if err := s.RecordSchedule(ev); err != nil {
			return err
		}
	}
	return nil
}

// RecordStoreOperation forwards store calls to sinks that support them.
func (m *MultiSink) RecordStoreOperation(ev StoreEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(StoreRecorder); ok {
			if err := rec.RecordStoreOperation(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordBusDrops forwards drop counts to sinks that support them.
func (m *MultiSink) RecordBusDrops(topic string, total int64) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(BusDropRecorder); ok {
			if err := rec.RecordBusDrops(topic, total); err != nil {
				return err
			}
		}
	}
	return nil
}

// Close closes the sinks that hold resources.
func (m *MultiSink) Close() {
	for _, s := range m.Sinks {
		if c, ok := s.(interface{ Close() }); ok {
			c.Close()
		}
	}
}
