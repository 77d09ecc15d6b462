package measurement

import (
	"fmt"
	"slices"

	"github.com/montanaflynn/stats"
	"golang.org/x/exp/constraints"
)

// Number is the set of scalar types a sample can hold.
type Number interface {
	constraints.Integer | constraints.Float
}

// Statistics summarizes a non-empty sample series.
type Statistics[T Number] struct {
	Average float64 `json:"average"`
	Minimum T       `json:"minimum"`
	Maximum T       `json:"maximum"`
}

// NewStatistics computes the arithmetic mean and the extrema of values. It returns
// ErrNoSamplesCollected when values is empty.
func NewStatistics[T Number](values []T) (Statistics[T], error) {
	if len(values) == 0 {
		return Statistics[T]{}, ErrNoSamplesCollected
	}
	data := make(stats.Float64Data, len(values))
	for i, v := range values {
		data[i] = float64(v)
	}
	avg, err := stats.Mean(data)
	if err != nil {
		return Statistics[T]{}, err
	}
	return Statistics[T]{
		Average: avg,
		Minimum: slices.Min(values),
		Maximum: slices.Max(values),
	}, nil
}

// CPUStatistics summarizes CPU utilization samples, in percent of one core.
type CPUStatistics struct {
	Statistics[float64]
}

func (s CPUStatistics) String() string {
	return fmt.Sprintf("Average: %.1f%%\nMinimum: %.1f%%\nMaximum: %.1f%%", s.Average, s.Minimum, s.Maximum)
}

// MemoryStatistics summarizes resident memory samples, in kilobytes.
type MemoryStatistics struct {
	Statistics[uint64]
}

func (s MemoryStatistics) String() string {
	return fmt.Sprintf("Average: %d KB\nMinimum: %d KB\nMaximum: %d KB", uint64(s.Average), s.Minimum, s.Maximum)
}
