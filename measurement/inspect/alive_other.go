//go:build !unix

package inspect

import (
	"context"

	"github.com/shirou/gopsutil/v3/process"
)

func processAlive(ctx context.Context, pid int) (bool, error) {
	return process.PidExistsWithContext(ctx, int32(pid))
}
