package inspect

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"runtime"
	"testing"
	"time"

	"go.viam.com/test"

	"go.viam.com/mlte/logging"
	"go.viam.com/mlte/measurement"
	"go.viam.com/mlte/testutils"
)

// eachInspector runs fn against every inspector that can be built on this machine.
func eachInspector(t *testing.T, fn func(t *testing.T, inspector measurement.Inspector)) {
	t.Helper()
	for _, name := range []string{ProcfsName, GopsutilName, PsName} {
		t.Run(name, func(t *testing.T) {
			if _, ok := measurement.InspectorLookup(name); !ok {
				t.Skipf("%s is not available on %s", name, runtime.GOOS)
			}
			inspector, err := measurement.NewInspector(name, logging.NewTestLogger(t))
			if err != nil {
				t.Skipf("cannot construct %s: %v", name, err)
			}
			fn(t, inspector)
		})
	}
}

func TestDefaultInspector(t *testing.T) {
	name := DefaultInspector()
	_, ok := measurement.InspectorLookup(name)
	test.That(t, ok, test.ShouldBeTrue)
	if runtime.GOOS == "linux" {
		test.That(t, name, test.ShouldEqual, ProcfsName)
	}
	test.That(t, measurement.RegisteredInspectors(), test.ShouldContain, GopsutilName)
}

func TestLiveProcess(t *testing.T) {
	eachInspector(t, func(t *testing.T, inspector measurement.Inspector) {
		ctx := context.Background()
		pid := os.Getpid()

		cpu := inspector.CPUPercent(ctx, pid)
		test.That(t, cpu.Err, test.ShouldBeNil)
		test.That(t, cpu.Outcome, test.ShouldEqual, measurement.Sampled)
		test.That(t, cpu.Value, test.ShouldBeGreaterThanOrEqualTo, 0.0)

		mem := inspector.ResidentMemory(ctx, pid)
		test.That(t, mem.Err, test.ShouldBeNil)
		test.That(t, mem.Outcome, test.ShouldEqual, measurement.Sampled)
		test.That(t, mem.Value, test.ShouldBeGreaterThan, uint64(0))
	})
}

func TestExitedProcess(t *testing.T) {
	pid := testutils.ExitedSubject(t)
	eachInspector(t, func(t *testing.T, inspector measurement.Inspector) {
		ctx := context.Background()
		test.That(t, inspector.CPUPercent(ctx, pid).Outcome, test.ShouldEqual, measurement.SubjectGone)
		test.That(t, inspector.ResidentMemory(ctx, pid).Outcome, test.ShouldEqual, measurement.SubjectGone)

		_, err := measurement.SampleMemory(ctx, inspector, pid, measurement.WithPollInterval(10*time.Millisecond))
		test.That(t, errors.Is(err, measurement.ErrNoSamplesCollected), test.ShouldBeTrue)
	})
}

func TestZombieProcess(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("zombie states are only checked on linux")
	}
	// Started but never waited on until the end of the test, so it lingers as a zombie.
	cmd := exec.Command("true")
	test.That(t, cmd.Start(), test.ShouldBeNil)
	t.Cleanup(func() {
		//nolint:errcheck
		cmd.Wait()
	})
	time.Sleep(300 * time.Millisecond)

	eachInspector(t, func(t *testing.T, inspector measurement.Inspector) {
		reading := inspector.CPUPercent(context.Background(), cmd.Process.Pid)
		test.That(t, reading.Outcome, test.ShouldEqual, measurement.SubjectGone)
	})
}

func TestSamplingSubject(t *testing.T) {
	if testing.Short() {
		t.Skip("samples a live process")
	}
	const interval = 200 * time.Millisecond
	eachInspector(t, func(t *testing.T, inspector measurement.Inspector) {
		subject := testutils.SpawnSubject(t, 3*interval)
		ctx := context.Background()

		cpu, err := measurement.CollectCPU(ctx, inspector, subject.PID, measurement.WithPollInterval(interval))
		test.That(t, err, test.ShouldBeNil)
		test.That(t, cpu.Len(), test.ShouldBeBetweenOrEqual, 2, 4)

		stats, err := cpu.Summarize()
		test.That(t, err, test.ShouldBeNil)
		test.That(t, stats.Minimum, test.ShouldBeLessThanOrEqualTo, stats.Average)
		test.That(t, stats.Average, test.ShouldBeLessThanOrEqualTo, stats.Maximum)
		<-subject.Exited
	})
	eachInspector(t, func(t *testing.T, inspector measurement.Inspector) {
		subject := testutils.SpawnSubject(t, 3*interval)
		stats, err := measurement.SampleMemory(context.Background(), inspector, subject.PID,
			measurement.WithPollInterval(interval))
		test.That(t, err, test.ShouldBeNil)
		test.That(t, stats.Minimum, test.ShouldBeGreaterThan, uint64(0))
		test.That(t, float64(stats.Minimum), test.ShouldBeLessThanOrEqualTo, stats.Average)
		test.That(t, stats.Average, test.ShouldBeLessThanOrEqualTo, float64(stats.Maximum))
	})
}
