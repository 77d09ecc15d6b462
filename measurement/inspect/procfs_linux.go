//go:build linux

package inspect

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/prometheus/procfs"

	"go.viam.com/mlte/logging"
	"go.viam.com/mlte/measurement"
)

func init() {
	measurement.RegisterInspector(ProcfsName, func(logger logging.Logger) (measurement.Inspector, error) {
		return NewProcfs(logger, procfs.DefaultMountPoint)
	})
}

// Procfs reads process state straight from a proc filesystem.
type Procfs struct {
	fs     procfs.FS
	logger logging.Logger

	// Stat files count start time in clock ticks since boot, so elapsed time is taken against the
	// uptime file rather than the wall clock and the whole-second boot time.
	uptimePath string
	pageSize   int
}

// NewProcfs returns an inspector reading the proc filesystem mounted at mountPoint.
func NewProcfs(logger logging.Logger, mountPoint string) (*Procfs, error) {
	procFS, err := procfs.NewFS(mountPoint)
	if err != nil {
		return nil, err
	}
	p := &Procfs{
		fs:         procFS,
		logger:     logger,
		uptimePath: filepath.Join(mountPoint, "uptime"),
		pageSize:   os.Getpagesize(),
	}
	if _, err := p.uptime(); err != nil {
		return nil, err
	}
	return p, nil
}

// uptime returns the seconds since boot, at the hundredth-of-a-second resolution the kernel reports.
func (p *Procfs) uptime() (float64, error) {
	data, err := os.ReadFile(p.uptimePath)
	if err != nil {
		return 0, err
	}
	fields := strings.Fields(string(data))
	if len(fields) == 0 {
		return 0, fmt.Errorf("malformed %s", p.uptimePath)
	}
	return strconv.ParseFloat(fields[0], 64)
}

// stat returns the stat of pid. Any outcome other than Sampled comes with its cause.
func (p *Procfs) stat(pid int) (procfs.ProcStat, measurement.Outcome, error) {
	proc, err := p.fs.Proc(pid)
	if err == nil {
		var stat procfs.ProcStat
		if stat, err = proc.Stat(); err == nil {
			if stat.State == "Z" || stat.State == "X" {
				return procfs.ProcStat{}, measurement.SubjectGone, errZombie
			}
			return stat, measurement.Sampled, nil
		}
	}
	outcome := classify(err)
	if outcome == measurement.QueryFailed {
		p.logger.Debugw("reading process stat failed", "pid", pid, "error", err)
	}
	return procfs.ProcStat{}, outcome, err
}

// CPUPercent returns the cpu time of pid over its lifetime so far, as a percentage of one core.
func (p *Procfs) CPUPercent(ctx context.Context, pid int) measurement.Reading[float64] {
	stat, outcome, err := p.stat(pid)
	if outcome != measurement.Sampled {
		return measurement.Reading[float64]{Outcome: outcome, Err: err}
	}

	uptime, err := p.uptime()
	if err != nil {
		return measurement.Failed[float64](err)
	}
	// Starttime is in clock ticks since boot, at the USER_HZ of 100 that procfs also assumes for
	// CPUTime.
	const userHz = 100
	elapsedSecs := uptime - float64(stat.Starttime)/userHz
	if elapsedSecs <= 0 {
		return measurement.Observed(0.0)
	}
	return measurement.Observed(100 * stat.CPUTime() / elapsedSecs)
}

// ResidentMemory returns the resident set size of pid in kilobytes. It is read from the status
// file: the page count in the stat file lags behind and often reads zero for a fresh process.
// A live process never yields a zero reading; when neither file reports any resident pages the
// query fails instead.
func (p *Procfs) ResidentMemory(ctx context.Context, pid int) measurement.Reading[uint64] {
	stat, outcome, err := p.stat(pid)
	if outcome != measurement.Sampled {
		return measurement.Reading[uint64]{Outcome: outcome, Err: err}
	}
	proc, err := p.fs.Proc(pid)
	if err != nil {
		return measurement.Reading[uint64]{Outcome: classify(err), Err: err}
	}
	status, err := proc.NewStatus()
	if err != nil {
		return measurement.Reading[uint64]{Outcome: classify(err), Err: err}
	}
	if status.VmRSS > 0 {
		return measurement.Observed(status.VmRSS / 1024)
	}
	if stat.RSS > 0 {
		return measurement.Observed(uint64(stat.RSS) * uint64(p.pageSize) / 1024)
	}
	return measurement.Failed[uint64](errNoResidentPages)
}

var errNoResidentPages = errors.New("no resident pages reported for a live process")

// classify tells a process that left the table apart from a failure to read it.
func classify(err error) measurement.Outcome {
	if errors.Is(err, os.ErrNotExist) {
		return measurement.SubjectGone
	}
	return measurement.QueryFailed
}
