package batch

import "io"

// Sink receives listings and the summary artifact.
type Sink interface {
	// Create returns a writer for the artifact called name. Each name is
	// created at most once per batch and never from two tasks.
	Create(name string) (io.WriteCloser, error)
}

// Recorder persists a complete batch. It is never called for failed batches.
type Recorder interface {
	Record(s *Summary) error
}
