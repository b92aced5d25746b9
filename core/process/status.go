package process

import (
	"errors"
	"os/exec"
	"syscall"
)

// Exit statuses reported for stages that never ran or were killed.
const (
	StatusFailure      = 1
	StatusUsage        = 2
	StatusCannotSpawn  = 126
	StatusNotFound     = 127
	statusSignalOffset = 128
)

// ExitStatus converts the error returned by exec.Cmd.Wait into a shell exit
// status. Processes killed by a signal report 128 plus the signal number.
func ExitStatus(err error) int {
	if err == nil {
		return 0
	}

	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		return StatusFailure
	}
	if ws, ok := exitErr.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return statusSignalOffset + int(ws.Signal())
	}
	if code := exitErr.ExitCode(); code >= 0 {
		return code
	}
	return StatusFailure
}
