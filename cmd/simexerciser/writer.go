package main

import (
	"fmt"
	"os"

	"simexerciser/internal/sim"
	"simexerciser/internal/snapshot"
)

// newWriters sets up the timeline event sinks based on flags and env vars.
// It returns the writer and a cleanup function to close any resources.
func newWriters(printOnly bool, logFile string) (sim.TimelineWriter, func(), error) {
	cleanup := func() {}

	writer, err := baseWriter(printOnly)
	if err != nil {
		return nil, nil, err
	}
	if logFile == "" {
		return writer, cleanup, nil
	}

	fw, err := sim.NewFileWriter(logFile)
	if err != nil {
		return nil, nil, err
	}
	cleanup = func() { fw.Close() }
	return sim.NewMultiWriter(writer, fw), cleanup, nil
}

// baseWriter chooses the underlying sink based on the printOnly flag and
// env vars.
func baseWriter(printOnly bool) (sim.TimelineWriter, error) {
	if printOnly || os.Getenv("GREPTIMEDB_ENDPOINT") == "" {
		return &sim.StdoutWriter{}, nil
	}

	endpoint := os.Getenv("GREPTIMEDB_ENDPOINT")
	database := os.Getenv("GREPTIMEDB_DATABASE")
	if database == "" {
		database = "public"
	}
	return sim.NewGreptimeDBWriter(endpoint, database)
}

// newStore picks the snapshot backend. An empty dataDir disables persistence.
func newStore(backend, dataDir string) (snapshot.Store, func(), error) {
	cleanup := func() {}
	if dataDir == "" {
		return nil, cleanup, nil
	}
	switch backend {
	case "file":
		st, err := snapshot.NewFileStore(dataDir)
		if err != nil {
			return nil, nil, err
		}
		return st, cleanup, nil
	case "sqlite":
		if err := os.MkdirAll(dataDir, 0o755); err != nil {
			return nil, nil, err
		}
		st, err := snapshot.OpenSQLite(dataDir + "/exercise.db")
		if err != nil {
			return nil, nil, err
		}
		return st, func() { st.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q (want file or sqlite)", backend)
	}
}
