//go:build unix

package inspect

import (
	"context"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// processAlive sends signal 0 to pid, which checks for existence without delivering anything.
func processAlive(_ context.Context, pid int) (bool, error) {
	err := unix.Kill(pid, 0)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, unix.EPERM):
		// Exists, but belongs to someone else.
		return true, nil
	case errors.Is(err, unix.ESRCH):
		return false, nil
	default:
		return false, err
	}
}
