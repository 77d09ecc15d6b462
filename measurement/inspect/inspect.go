// Package inspect provides the process inspectors used by the CPU and memory samplers. Importing
// it registers every inspector available on the current platform with the measurement package.
package inspect

import (
	"github.com/pkg/errors"

	"go.viam.com/mlte/logging"
	"go.viam.com/mlte/measurement"
)

// Inspector names.
const (
	ProcfsName   = "procfs"
	GopsutilName = "gopsutil"
	PsName       = "ps"
)

// errNoSuchProcess is the cause reported for a process missing from the process table.
var errNoSuchProcess = errors.New("no such process")

// errZombie is the cause reported for a process that has exited but was not yet reaped.
var errZombie = errors.New("process is a zombie")

func init() {
	measurement.RegisterInspector(GopsutilName, func(logger logging.Logger) (measurement.Inspector, error) {
		return NewGopsutil(logger), nil
	})
	measurement.RegisterInspector(PsName, func(logger logging.Logger) (measurement.Inspector, error) {
		return NewPs(logger)
	})
}

// DefaultInspector returns the name of the preferred inspector on this platform.
func DefaultInspector() string {
	if _, ok := measurement.InspectorLookup(ProcfsName); ok {
		return ProcfsName
	}
	return GopsutilName
}
