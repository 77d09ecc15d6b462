package measurement

import (
	"context"
)

// Outcome tags the result of a single inspector query.
type Outcome int

const (
	// Sampled means the query produced a valid value.
	Sampled Outcome = iota
	// SubjectGone means the subject could not be found; it has exited.
	SubjectGone
	// QueryFailed means the inspection itself failed for a reason other than the subject exiting.
	QueryFailed
)

func (o Outcome) String() string {
	switch o {
	case Sampled:
		return "sampled"
	case SubjectGone:
		return "subject_gone"
	case QueryFailed:
		return "query_failed"
	default:
		return "unknown"
	}
}

// Reading is the tagged result of one query. Value is only meaningful when Outcome is Sampled;
// Err carries the cause of the other outcomes.
type Reading[T Number] struct {
	Value   T
	Outcome Outcome
	Err     error
}

// Observed returns a Sampled reading.
func Observed[T Number](value T) Reading[T] {
	return Reading[T]{Value: value, Outcome: Sampled}
}

// Gone returns a SubjectGone reading.
func Gone[T Number](cause error) Reading[T] {
	return Reading[T]{Outcome: SubjectGone, Err: cause}
}

// Failed returns a QueryFailed reading.
func Failed[T Number](err error) Reading[T] {
	return Reading[T]{Outcome: QueryFailed, Err: err}
}

// An Inspector reads the live resource state of a process. Implementations must be safe to call
// from several sessions at once.
type Inspector interface {
	// CPUPercent returns the CPU utilization of pid as a percentage of one core, averaged over the
	// process lifetime (the %cpu column of ps).
	CPUPercent(ctx context.Context, pid int) Reading[float64]
	// ResidentMemory returns the resident set size of pid in kilobytes.
	ResidentMemory(ctx context.Context, pid int) Reading[uint64]
}
