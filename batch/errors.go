package batch

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrDuplicateName is returned when two input paths share a file name. Listings
// and summary entries are keyed by file name so both cannot be kept.
var ErrDuplicateName = errors.New("batch: duplicate input file name")

// TaskError reports a failed decode task together with the offending file.
type TaskError struct {
	Name string
	Path string
	Err  error
}

func (e *TaskError) Error() string {
	return fmt.Sprintf("batch: %s: %v", e.Name, e.Err)
}

func (e *TaskError) Unwrap() error { return e.Err }
