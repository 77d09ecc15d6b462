package inspect

import (
	"bytes"
	"context"
	"os/exec"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"go.viam.com/mlte/logging"
	"go.viam.com/mlte/measurement"
)

// Ps inspects processes by running the ps tool, one invocation per query.
type Ps struct {
	path   string
	logger logging.Logger
}

// NewPs returns an inspector using the ps found on PATH.
func NewPs(logger logging.Logger) (*Ps, error) {
	path, err := exec.LookPath("ps")
	if err != nil {
		return nil, errors.Wrap(err, "ps inspector unavailable")
	}
	return &Ps{path: path, logger: logger}, nil
}

// query returns the state and the requested column of pid. ps exits non-zero for a pid it does
// not know, which is indistinguishable from other failures by status alone, so a failed run is
// followed by a liveness probe.
func (p *Ps) query(ctx context.Context, pid int, column string) (string, measurement.Outcome, error) {
	//nolint:gosec
	cmd := exec.CommandContext(ctx, p.path, "-o", "stat=", "-o", column+"=", "-p", strconv.Itoa(pid))
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, runErr := cmd.Output()

	fields := strings.Fields(string(out))
	if runErr == nil && len(fields) == 2 {
		if strings.HasPrefix(fields[0], "Z") {
			return "", measurement.SubjectGone, errZombie
		}
		return fields[1], measurement.Sampled, nil
	}

	alive, probeErr := processAlive(ctx, pid)
	switch {
	case probeErr != nil:
		return "", measurement.QueryFailed, errors.Wrap(probeErr, "probing process liveness")
	case !alive:
		return "", measurement.SubjectGone, errNoSuchProcess
	case runErr != nil:
		p.logger.Debugw("ps failed", "pid", pid, "error", runErr, "stderr", stderr.String())
		return "", measurement.QueryFailed, errors.Wrapf(runErr, "ps: %s", strings.TrimSpace(stderr.String()))
	default:
		return "", measurement.QueryFailed, errors.Errorf("unexpected ps output %q", string(out))
	}
}

// CPUPercent returns the %cpu column of ps for pid.
func (p *Ps) CPUPercent(ctx context.Context, pid int) measurement.Reading[float64] {
	value, outcome, err := p.query(ctx, pid, "%cpu")
	if outcome != measurement.Sampled {
		return measurement.Reading[float64]{Outcome: outcome, Err: err}
	}
	percent, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return measurement.Failed[float64](errors.Wrap(err, "parsing %cpu"))
	}
	return measurement.Observed(percent)
}

// ResidentMemory returns the rss column of ps for pid, which ps reports in kilobytes.
func (p *Ps) ResidentMemory(ctx context.Context, pid int) measurement.Reading[uint64] {
	value, outcome, err := p.query(ctx, pid, "rss")
	if outcome != measurement.Sampled {
		return measurement.Reading[uint64]{Outcome: outcome, Err: err}
	}
	kb, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return measurement.Failed[uint64](errors.Wrap(err, "parsing rss"))
	}
	return measurement.Observed(kb)
}
