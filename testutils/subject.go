package testutils

import (
	"fmt"
	"os/exec"
	"testing"
	"time"

	"go.viam.com/test"
)

// Subject is a child process started for a test to be sampled.
type Subject struct {
	PID int
	// Exited is closed once the process has exited and been reaped.
	Exited <-chan struct{}
}

// SpawnSubject starts a process that lives for roughly lifetime. The process is reaped as soon as
// it exits so that it disappears from the process table instead of lingering as a zombie. It is
// killed when the test ends if still running.
func SpawnSubject(t *testing.T, lifetime time.Duration) Subject {
	t.Helper()
	//nolint:gosec
	cmd := exec.Command("sleep", fmt.Sprintf("%.3f", lifetime.Seconds()))
	test.That(t, cmd.Start(), test.ShouldBeNil)

	exited := make(chan struct{})
	go func() {
		//nolint:errcheck
		cmd.Wait()
		close(exited)
	}()
	t.Cleanup(func() {
		select {
		case <-exited:
		default:
			//nolint:errcheck
			cmd.Process.Kill()
			<-exited
		}
	})
	return Subject{PID: cmd.Process.Pid, Exited: exited}
}

// ExitedSubject returns the id of a process that has already exited and been reaped.
func ExitedSubject(t *testing.T) int {
	t.Helper()
	subject := SpawnSubject(t, 0)
	<-subject.Exited
	return subject.PID
}
