package measurement

import (
	"context"

	"github.com/pkg/errors"
)

var errZeroResident = errors.New("resident memory reported as zero")

// CollectMemory polls the resident memory of pid until the process can no longer be read and
// returns the collected series in kilobytes. A zero reading counts as the process being gone.
func CollectMemory(ctx context.Context, inspector Inspector, pid int, opts ...Option) (*Series[uint64], error) {
	if err := validatePID(pid); err != nil {
		return nil, err
	}
	if inspector == nil {
		return nil, errors.New("inspector is required")
	}
	o := newOptions(opts)
	o.logger = o.logger.Sublogger("memory")
	return poll(ctx, pid, func(ctx context.Context) Reading[uint64] {
		reading := inspector.ResidentMemory(ctx, pid)
		if reading.Outcome == Sampled && reading.Value == 0 {
			return Gone[uint64](errZeroResident)
		}
		return reading
	}, o)
}

// SampleMemory blocks until pid exits and returns statistics over its resident memory samples. A
// process that is already gone at the first poll yields ErrNoSamplesCollected.
func SampleMemory(ctx context.Context, inspector Inspector, pid int, opts ...Option) (MemoryStatistics, error) {
	series, err := CollectMemory(ctx, inspector, pid, opts...)
	if err != nil {
		return MemoryStatistics{}, err
	}
	summary, err := series.Summarize()
	if err != nil {
		return MemoryStatistics{}, errors.Wrapf(err, "memory consumption of pid %d", pid)
	}
	return MemoryStatistics{summary}, nil
}
