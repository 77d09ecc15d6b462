package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.viam.com/test"

	"go.viam.com/mlte/measurement"
	"go.viam.com/mlte/measurement/inspect"
	"go.viam.com/mlte/testutils"
)

// runApp runs mlte with args and returns what it wrote to stdout and stderr.
func runApp(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	app := NewApp(&out, &errOut)
	err := app.RunContext(context.Background(), append([]string{"mlte"}, args...))
	return out.String(), errOut.String(), err
}

func TestSizeCommand(t *testing.T) {
	dir := testutils.TempDir(t, "cli-size")
	testutils.WriteSizedFile(t, dir, "model/weights", 2048)
	testutils.WriteSizedFile(t, dir, "model/vocab", 952)
	root := filepath.Join(dir, "model")

	out, _, err := runApp(t, "size", root)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldStartWith, "Size: 3000 bytes")

	out, _, err = runApp(t, "--format", "json", "size", root)
	test.That(t, err, test.ShouldBeNil)
	var doc struct {
		Path  string `json:"path"`
		Bytes int64  `json:"bytes"`
	}
	test.That(t, json.Unmarshal([]byte(out), &doc), test.ShouldBeNil)
	test.That(t, doc.Bytes, test.ShouldEqual, int64(3000))
	test.That(t, doc.Path, test.ShouldEqual, root)

	out, _, err = runApp(t, "--format", "table", "size", root)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldContainSubstring, "3000")

	_, _, err = runApp(t, "size", filepath.Join(dir, "missing"))
	test.That(t, measurement.IsInvalidSubject(err), test.ShouldBeTrue)

	_, _, err = runApp(t, "size")
	test.That(t, err, test.ShouldNotBeNil)
}

func TestInspectorsCommand(t *testing.T) {
	out, _, err := runApp(t, "inspectors")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldContainSubstring, "* "+inspect.DefaultInspector())
	test.That(t, out, test.ShouldContainSubstring, inspect.GopsutilName)

	out, _, err = runApp(t, "--inspector", inspect.GopsutilName, "--format", "json", "inspectors")
	test.That(t, err, test.ShouldBeNil)
	var entries []struct {
		Name     string `json:"name"`
		Selected bool   `json:"selected"`
	}
	test.That(t, json.Unmarshal([]byte(out), &entries), test.ShouldBeNil)
	test.That(t, len(entries), test.ShouldBeGreaterThanOrEqualTo, 2)
	for _, e := range entries {
		test.That(t, e.Selected, test.ShouldEqual, e.Name == inspect.GopsutilName)
	}

	_, _, err = runApp(t, "--inspector", "procmon", "inspectors")
	test.That(t, err, test.ShouldNotBeNil)

	_, _, err = runApp(t, "--format", "xml", "inspectors")
	test.That(t, err, test.ShouldNotBeNil)
}

func TestSamplingCommands(t *testing.T) {
	t.Run("gone process", func(t *testing.T) {
		pid := strconv.Itoa(testutils.ExitedSubject(t))
		for _, cmd := range []string{"cpu", "memory"} {
			_, _, err := runApp(t, "--interval", "10ms", cmd, pid)
			test.That(t, err, test.ShouldNotBeNil)
			test.That(t, err.Error(), test.ShouldContainSubstring, measurement.ErrNoSamplesCollected.Error())
		}
	})

	t.Run("bad pid", func(t *testing.T) {
		_, _, err := runApp(t, "cpu", "abc")
		test.That(t, measurement.IsInvalidSubject(err), test.ShouldBeTrue)
		_, _, err = runApp(t, "memory", "0")
		test.That(t, err, test.ShouldNotBeNil)
		_, _, err = runApp(t, "cpu")
		test.That(t, err, test.ShouldNotBeNil)
	})

	t.Run("live processes", func(t *testing.T) {
		if testing.Short() {
			t.Skip("samples live processes")
		}
		first := testutils.SpawnSubject(t, 300*time.Millisecond)
		second := testutils.SpawnSubject(t, 500*time.Millisecond)
		out, _, err := runApp(t, "--interval", "50ms", "--format", "json", "memory",
			strconv.Itoa(first.PID), strconv.Itoa(second.PID))
		test.That(t, err, test.ShouldBeNil)

		var results []struct {
			PID        int `json:"pid"`
			Statistics struct {
				Average float64 `json:"average"`
				Minimum uint64  `json:"minimum"`
				Maximum uint64  `json:"maximum"`
			} `json:"statistics"`
		}
		test.That(t, json.Unmarshal([]byte(out), &results), test.ShouldBeNil)
		test.That(t, results, test.ShouldHaveLength, 2)
		test.That(t, results[0].PID, test.ShouldEqual, first.PID)
		test.That(t, results[1].PID, test.ShouldEqual, second.PID)
		for _, res := range results {
			test.That(t, res.Statistics.Minimum, test.ShouldBeGreaterThan, uint64(0))
			test.That(t, float64(res.Statistics.Maximum), test.ShouldBeGreaterThanOrEqualTo, res.Statistics.Average)
		}
	})

	t.Run("text output", func(t *testing.T) {
		if testing.Short() {
			t.Skip("samples a live process")
		}
		subject := testutils.SpawnSubject(t, 200*time.Millisecond)
		out, _, err := runApp(t, "--interval", "50ms", "cpu", strconv.Itoa(subject.PID))
		test.That(t, err, test.ShouldBeNil)
		lines := strings.Split(strings.TrimSpace(out), "\n")
		test.That(t, lines, test.ShouldHaveLength, 3)
		test.That(t, lines[0], test.ShouldStartWith, "Average: ")
		test.That(t, lines[1], test.ShouldStartWith, "Minimum: ")
		test.That(t, lines[2], test.ShouldStartWith, "Maximum: ")
	})

	t.Run("one failure does not hide the rest", func(t *testing.T) {
		if testing.Short() {
			t.Skip("samples a live process")
		}
		live := testutils.SpawnSubject(t, 200*time.Millisecond)
		gone := testutils.ExitedSubject(t)
		out, _, err := runApp(t, "--interval", "50ms", "memory", strconv.Itoa(live.PID), strconv.Itoa(gone))
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, err.Error(), test.ShouldContainSubstring, "pid "+strconv.Itoa(gone))
		test.That(t, out, test.ShouldContainSubstring, "PID "+strconv.Itoa(live.PID))
	})
}

func TestLatencyCommand(t *testing.T) {
	out, _, err := runApp(t, "latency", "--trials", "5", "--mean-ms", "2", "--stddev-ms", "0", "--progress=false")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldContainSubstring, "Mean latency: ")
	test.That(t, out, test.ShouldContainSubstring, "P99 latency: ")

	out, _, err = runApp(t, "--format", "json", "latency",
		"--trials", "4", "--mean-ms", "1", "--stddev-ms", "0", "--percentile", "0.5", "--estimator", "empirical",
		"--progress=false")
	test.That(t, err, test.ShouldBeNil)
	var report latencyReport
	test.That(t, json.Unmarshal([]byte(out), &report), test.ShouldBeNil)
	test.That(t, report.Profile.Trials, test.ShouldEqual, 4)
	test.That(t, report.Percentile, test.ShouldEqual, 0.5)
	test.That(t, report.Estimator, test.ShouldEqual, "empirical")
	test.That(t, report.Profile.Minimum, test.ShouldBeGreaterThanOrEqualTo, 1.0)

	_, _, err = runApp(t, "latency", "--trials", "0", "--progress=false")
	test.That(t, err, test.ShouldNotBeNil)
	_, _, err = runApp(t, "latency", "--percentile", "2", "--progress=false")
	test.That(t, err, test.ShouldNotBeNil)
}

func TestConfigFlag(t *testing.T) {
	dir := testutils.TempDir(t, "cli-config")
	path := filepath.Join(dir, "mlte.json")
	test.That(t, os.WriteFile(path, []byte(`{"trials": 3, "inspector": "gopsutil", "estimator": "gonum_lininterp"}`), 0o600),
		test.ShouldBeNil)

	out, _, err := runApp(t, "--config", path, "--format", "json", "latency", "--mean-ms", "1", "--stddev-ms", "0",
		"--progress=false")
	test.That(t, err, test.ShouldBeNil)
	var report latencyReport
	test.That(t, json.Unmarshal([]byte(out), &report), test.ShouldBeNil)
	test.That(t, report.Profile.Trials, test.ShouldEqual, 3)
	test.That(t, report.Estimator, test.ShouldEqual, "gonum_lininterp")

	out, _, err = runApp(t, "--config", path, "inspectors")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldContainSubstring, "* "+inspect.GopsutilName)

	_, _, err = runApp(t, "--config", filepath.Join(dir, "missing.json"), "inspectors")
	test.That(t, err, test.ShouldNotBeNil)
}

func TestLatencyHistogramAndLogFile(t *testing.T) {
	dir := testutils.TempDir(t, "cli-log")
	logPath := filepath.Join(dir, "mlte.log")

	out, _, err := runApp(t, "--debug", "--log-file", logPath, "latency",
		"--trials", "6", "--mean-ms", "1", "--stddev-ms", "0.5", "--histogram", "3")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldContainSubstring, "Mean latency: ")
	test.That(t, out, test.ShouldContainSubstring, "ms")

	logs, err := os.ReadFile(logPath)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, string(logs), test.ShouldContainSubstring, "configured")
	test.That(t, string(logs), test.ShouldContainSubstring, "latency trials done")
}

func TestSamplePIDsCombinesFailures(t *testing.T) {
	results, err := samplePIDs(context.Background(), []int{1, 2, 3}, func(ctx context.Context, pid int) (int, error) {
		if pid == 2 {
			// Still running when the other sessions fail.
			time.Sleep(50 * time.Millisecond)
			return pid * 10, nil
		}
		return 0, errors.Errorf("session %d failed", pid)
	})
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, multierr.Errors(err), test.ShouldHaveLength, 2)
	test.That(t, err.Error(), test.ShouldContainSubstring, "pid 1: session 1 failed")
	test.That(t, err.Error(), test.ShouldContainSubstring, "pid 3: session 3 failed")

	test.That(t, results, test.ShouldHaveLength, 3)
	test.That(t, results[1].Err, test.ShouldBeNil)
	test.That(t, results[1].Stats, test.ShouldEqual, 20)
	test.That(t, results[2].Error, test.ShouldEqual, "session 3 failed")

	results, err = samplePIDs(context.Background(), []int{4}, func(ctx context.Context, pid int) (int, error) {
		return pid, nil
	})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, results[0].Stats, test.ShouldEqual, 4)
}
