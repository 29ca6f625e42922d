package sim

import (
	"encoding/json"
	"os"

	"simexerciser/internal/exercise"
)

// FileWriter appends timeline events to a JSONL file, one event per line.
// The export can be fed back through the replay command.
type FileWriter struct {
	file *os.File
	enc  *json.Encoder
}

// NewFileWriter creates (truncating) the export file.
func NewFileWriter(path string) (*FileWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	return &FileWriter{file: f, enc: json.NewEncoder(f)}, nil
}

// WriteEvent logs a single event.
func (w *FileWriter) WriteEvent(evt exercise.TimelineEvent) error {
	return w.enc.Encode(evt)
}

// WriteEvents logs multiple events.
func (w *FileWriter) WriteEvents(events []exercise.TimelineEvent) error {
	for _, evt := range events {
		if err := w.WriteEvent(evt); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the underlying file.
func (w *FileWriter) Close() error {
	return w.file.Close()
}
