// Package spawn launches the deleteafter helper detached from the caller.
// It is the Go counterpart of backgrounding the helper from a shell: the
// child gets its own session, no stdio and is never waited on.
package spawn

import (
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"time"
)

// ErrNegativeDelay is returned for delays below zero
var ErrNegativeDelay = errors.New("delay cannot be negative")

// Command builds the helper command without starting it.
// delay is truncated to whole seconds. flags are passed ahead of the
// positional arguments and closed with "--" so a target that looks like a
// flag is never parsed as one.
func Command(exe, target string, delay time.Duration, flags ...string) (*exec.Cmd, error) {
	if exe == "" {
		return nil, errors.New("helper executable is required")
	}
	if target == "" {
		return nil, errors.New("target is required")
	}
	if delay < 0 {
		return nil, fmt.Errorf("%w: %v", ErrNegativeDelay, delay)
	}

	seconds := strconv.FormatInt(int64(delay/time.Second), 10)
	// Stdin, Stdout and Stderr stay nil, which connects them to the null device
	args := make([]string, 0, len(flags)+3)
	if len(flags) > 0 {
		args = append(args, flags...)
		args = append(args, "--")
	}
	args = append(args, target, seconds)
	cmd := exec.Command(exe, args...)
	detach(cmd)
	return cmd, nil
}

// Schedule starts the helper for target and returns its pid.
// The process is released immediately; its exit status is never collected.
func Schedule(exe, target string, delay time.Duration, flags ...string) (int, error) {
	cmd, err := Command(exe, target, delay, flags...)
	if err != nil {
		return 0, err
	}
	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("start %s: %w", exe, err)
	}
	pid := cmd.Process.Pid
	if err := cmd.Process.Release(); err != nil {
		return pid, fmt.Errorf("release pid %d: %w", pid, err)
	}
	return pid, nil
}
