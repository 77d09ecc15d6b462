package measurement

import (
	"context"

	"github.com/pkg/errors"
)

// CollectCPU polls the CPU utilization of pid until the process can no longer be read and returns
// the collected series. The series may be empty.
func CollectCPU(ctx context.Context, inspector Inspector, pid int, opts ...Option) (*Series[float64], error) {
	if err := validatePID(pid); err != nil {
		return nil, err
	}
	if inspector == nil {
		return nil, errors.New("inspector is required")
	}
	o := newOptions(opts)
	o.logger = o.logger.Sublogger("cpu")
	return poll(ctx, pid, func(ctx context.Context) Reading[float64] {
		return inspector.CPUPercent(ctx, pid)
	}, o)
}

// SampleCPU blocks until pid exits and returns statistics over its CPU utilization samples. A
// process that is already gone at the first poll yields ErrNoSamplesCollected.
func SampleCPU(ctx context.Context, inspector Inspector, pid int, opts ...Option) (CPUStatistics, error) {
	series, err := CollectCPU(ctx, inspector, pid, opts...)
	if err != nil {
		return CPUStatistics{}, err
	}
	summary, err := series.Summarize()
	if err != nil {
		return CPUStatistics{}, errors.Wrapf(err, "cpu utilization of pid %d", pid)
	}
	return CPUStatistics{summary}, nil
}
