package sim

import (
	"errors"

	"simexerciser/internal/exercise"
)

// MultiWriter fans events out to several sinks. Every sink sees every event
// even when an earlier one fails; errors are joined.
type MultiWriter struct {
	writers []TimelineWriter
}

// NewMultiWriter combines writers, skipping nils.
func NewMultiWriter(writers ...TimelineWriter) *MultiWriter {
	mw := &MultiWriter{}
	for _, w := range writers {
		if w != nil {
			mw.writers = append(mw.writers, w)
		}
	}
	return mw
}

// WriteEvent forwards the event to every sink.
func (m *MultiWriter) WriteEvent(evt exercise.TimelineEvent) error {
	var errs []error
	for _, w := range m.writers {
		if err := w.WriteEvent(evt); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// WriteEvents forwards a batch, using sink batch support where available.
func (m *MultiWriter) WriteEvents(events []exercise.TimelineEvent) error {
	var errs []error
	for _, w := range m.writers {
		if bw, ok := w.(batchTimelineWriter); ok {
			if err := bw.WriteEvents(events); err != nil {
				errs = append(errs, err)
			}
			continue
		}
		for _, evt := range events {
			if err := w.WriteEvent(evt); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
