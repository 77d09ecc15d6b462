package measurement

import (
	"time"
)

// Sample is a single reading taken at one poll tick.
type Sample[T Number] struct {
	Value T
	At    time.Time
}

// Series is the append-only sequence of samples collected during one session, in acquisition
// order. It is owned by whoever started the session and is not safe for concurrent writers.
type Series[T Number] struct {
	samples []Sample[T]
}

// Append adds a sample at the end of the series.
func (s *Series[T]) Append(value T, at time.Time) {
	s.samples = append(s.samples, Sample[T]{Value: value, At: at})
}

// Len returns the number of samples.
func (s *Series[T]) Len() int {
	return len(s.samples)
}

// Samples returns a copy of the samples.
func (s *Series[T]) Samples() []Sample[T] {
	out := make([]Sample[T], len(s.samples))
	copy(out, s.samples)
	return out
}

// Values returns the sample values in acquisition order.
func (s *Series[T]) Values() []T {
	out := make([]T, 0, len(s.samples))
	for _, sample := range s.samples {
		out = append(out, sample.Value)
	}
	return out
}

// Summarize returns the statistics of the series, or ErrNoSamplesCollected if it is empty.
func (s *Series[T]) Summarize() (Statistics[T], error) {
	return NewStatistics(s.Values())
}
