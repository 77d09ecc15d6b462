package measurement

import (
	"context"
	"strconv"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
)

// poll queries the subject until it is gone, a query fails or ctx is done. Each Sampled reading is
// appended to the returned series. The series is returned even on error so callers can report
// how far the session got.
func poll[T Number](ctx context.Context, pid int, query func(context.Context) Reading[T], o options) (*Series[T], error) {
	if o.interval <= 0 {
		return nil, errors.Errorf("poll interval must be positive, got %v", o.interval)
	}
	logger := o.logger
	series := &Series[T]{}
	for {
		if err := ctx.Err(); err != nil {
			return series, errors.Wrapf(err, "sampling pid %d canceled after %d samples", pid, series.Len())
		}
		reading := query(ctx)
		// A query interrupted by cancellation says nothing about the subject.
		if err := ctx.Err(); err != nil {
			return series, errors.Wrapf(err, "sampling pid %d canceled after %d samples", pid, series.Len())
		}

		switch reading.Outcome {
		case Sampled:
			series.Append(reading.Value, o.clock.Now())
			logger.CDebugw(ctx, "sample", "pid", pid, "value", reading.Value, "count", series.Len())
		case SubjectGone:
			logger.Infow("session ended", "pid", pid, "samples", series.Len(), "cause", errString(reading.Err))
			return series, nil
		case QueryFailed:
			if o.onQueryError == AbortOnQueryError {
				return series, &QueryError{PID: pid, Err: reading.Err}
			}
			logger.Warnw("query failed, ending session", "pid", pid, "samples", series.Len(), "error", errString(reading.Err))
			return series, nil
		default:
			return series, errors.Errorf("unknown reading outcome %d", reading.Outcome)
		}

		if !sleepContext(ctx, o.clock, o.interval) {
			return series, errors.Wrapf(ctx.Err(), "sampling pid %d canceled after %d samples", pid, series.Len())
		}
	}
}

// sleepContext waits for d on clk. It returns false if ctx is done first.
func sleepContext(ctx context.Context, clk clock.Clock, d time.Duration) bool {
	timer := clk.Timer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func validatePID(pid int) error {
	if pid <= 0 {
		return NewInvalidSubjectError("pid", strconv.Itoa(pid), nil)
	}
	return nil
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
