package measurement

import (
	"errors"
	"testing"
	"time"

	"go.viam.com/test"
)

func TestNewStatistics(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		_, err := NewStatistics([]float64{})
		test.That(t, errors.Is(err, ErrNoSamplesCollected), test.ShouldBeTrue)

		var series Series[uint64]
		_, err = series.Summarize()
		test.That(t, errors.Is(err, ErrNoSamplesCollected), test.ShouldBeTrue)
	})

	t.Run("single sample", func(t *testing.T) {
		s, err := NewStatistics([]float64{42.5})
		test.That(t, err, test.ShouldBeNil)
		test.That(t, s, test.ShouldResemble, Statistics[float64]{Average: 42.5, Minimum: 42.5, Maximum: 42.5})
	})

	t.Run("floats", func(t *testing.T) {
		s, err := NewStatistics([]float64{1.5, 10, 0.5, 4})
		test.That(t, err, test.ShouldBeNil)
		test.That(t, s.Average, test.ShouldAlmostEqual, 4.0)
		test.That(t, s.Minimum, test.ShouldEqual, 0.5)
		test.That(t, s.Maximum, test.ShouldEqual, 10.0)
	})

	t.Run("integers", func(t *testing.T) {
		s, err := NewStatistics([]uint64{1024, 4096, 2048, 1})
		test.That(t, err, test.ShouldBeNil)
		test.That(t, s.Average, test.ShouldAlmostEqual, 1792.25)
		test.That(t, s.Minimum, test.ShouldEqual, uint64(1))
		test.That(t, s.Maximum, test.ShouldEqual, uint64(4096))
	})

	t.Run("bounds hold", func(t *testing.T) {
		for _, values := range [][]float64{
			{3},
			{0, 0, 0},
			{100, 0.1, 55.5, 99.9, 12},
			{7, 7, 7, 8},
		} {
			s, err := NewStatistics(values)
			test.That(t, err, test.ShouldBeNil)
			test.That(t, s.Minimum, test.ShouldBeLessThanOrEqualTo, s.Average)
			test.That(t, s.Average, test.ShouldBeLessThanOrEqualTo, s.Maximum)
			for _, v := range values {
				test.That(t, v, test.ShouldBeGreaterThanOrEqualTo, s.Minimum)
				test.That(t, v, test.ShouldBeLessThanOrEqualTo, s.Maximum)
			}
		}
	})
}

func TestSeries(t *testing.T) {
	var series Series[float64]
	start := time.Unix(1700000000, 0)
	series.Append(2, start)
	series.Append(6, start.Add(time.Second))
	test.That(t, series.Len(), test.ShouldEqual, 2)
	test.That(t, series.Values(), test.ShouldResemble, []float64{2, 6})

	samples := series.Samples()
	test.That(t, samples[1].At, test.ShouldResemble, start.Add(time.Second))
	samples[0].Value = 100
	test.That(t, series.Values()[0], test.ShouldEqual, 2.0)

	s, err := series.Summarize()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, s.Average, test.ShouldEqual, 4.0)
}

func TestStatisticsString(t *testing.T) {
	cpu := CPUStatistics{Statistics[float64]{Average: 12.345, Minimum: 0, Maximum: 99.96}}
	test.That(t, cpu.String(), test.ShouldEqual, "Average: 12.3%\nMinimum: 0.0%\nMaximum: 100.0%")

	mem := MemoryStatistics{Statistics[uint64]{Average: 2048.7, Minimum: 1024, Maximum: 4096}}
	test.That(t, mem.String(), test.ShouldEqual, "Average: 2048 KB\nMinimum: 1024 KB\nMaximum: 4096 KB")
}
