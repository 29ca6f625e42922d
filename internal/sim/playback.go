package sim

import (
	"encoding/json"
	"io"
	"os"
	"time"

	"simexerciser/internal/exercise"
)

// ReplayLog replays exported timeline events from r to writer. A speed >0
// reproduces the original event spacing, scaled; speed <= 0 inserts no
// delay. Events with unparseable timestamps replay without delay.
func ReplayLog(r io.Reader, writer TimelineWriter, speed float64) error {
	dec := json.NewDecoder(r)
	var prev time.Time
	for {
		var evt exercise.TimelineEvent
		if err := dec.Decode(&evt); err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
		ts, ok := exercise.ParseTime(evt.Ts)
		if ok && !prev.IsZero() && speed > 0 {
			diff := ts.Sub(prev)
			if speed != 1 {
				diff = time.Duration(float64(diff) / speed)
			}
			if diff > 0 {
				time.Sleep(diff)
			}
		}
		if err := writer.WriteEvent(evt); err != nil {
			return err
		}
		if ok {
			prev = ts
		}
	}
}

// ReplayLogFile opens a JSONL export and replays its events.
func ReplayLogFile(path string, writer TimelineWriter, speed float64) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return ReplayLog(f, writer, speed)
}
