package batch

import "strings"

// Kind is the category of a run, derived from its file name.
type Kind uint8

const (
	// Exec runs completed normally.
	Exec Kind = iota
	// Timeout runs were stopped by the producer's time limit.
	Timeout

	kinds = 2
)

func (k Kind) String() string {
	if k == Timeout {
		return "TIMEOUT"
	}
	return "EXEC"
}

// Classify returns Timeout when name contains the exact substring "timeout",
// Exec otherwise. Content of the file is never consulted.
func Classify(name string) Kind {
	if strings.Contains(name, "timeout") {
		return Timeout
	}
	return Exec
}
