package measurement

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrNoSamplesCollected is returned when a session ends before a single sample was taken. No
// statistics record exists for an empty series.
var ErrNoSamplesCollected = errors.New("no samples collected")

// InvalidSubjectError is returned when a subject is rejected before any sampling starts, e.g. a
// path that is neither a file nor a directory, or a non-positive process id.
type InvalidSubjectError struct {
	Kind    string
	Subject string
	Err     error
}

// NewInvalidSubjectError returns an *InvalidSubjectError for the given kind ("path", "pid") and
// subject. The cause may be nil.
func NewInvalidSubjectError(kind, subject string, cause error) error {
	return &InvalidSubjectError{Kind: kind, Subject: subject, Err: cause}
}

func (e *InvalidSubjectError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("invalid %s: %s", e.Kind, e.Subject)
	}
	return fmt.Sprintf("invalid %s: %s: %v", e.Kind, e.Subject, e.Err)
}

func (e *InvalidSubjectError) Unwrap() error {
	return e.Err
}

// IsInvalidSubject returns whether err is or wraps an *InvalidSubjectError.
func IsInvalidSubject(err error) bool {
	var target *InvalidSubjectError
	return errors.As(err, &target)
}

// UnitFailureError reports the failure of the unit under test during a latency trial. The
// remaining trials are not run.
type UnitFailureError struct {
	Trial int
	Err   error
}

func (e *UnitFailureError) Error() string {
	return fmt.Sprintf("unit failed on trial %d: %v", e.Trial, e.Err)
}

func (e *UnitFailureError) Unwrap() error {
	return e.Err
}

// QueryError reports an inspector failure that was not a sign of the subject exiting. It is only
// returned under AbortOnQueryError.
type QueryError struct {
	PID int
	Err error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("querying pid %d: %v", e.PID, e.Err)
}

func (e *QueryError) Unwrap() error {
	return e.Err
}
