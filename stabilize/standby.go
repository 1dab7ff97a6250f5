package stabilize

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
)

const standbyReason = "Benchmarking ..."

// systemdInhibit holds a sleep and idle inhibitor lock for the run.
type systemdInhibit struct {
	sys  System
	proc Process
}

// NewSystemdInhibit returns a stabilizer that keeps the machine out of
// standby by running systemd-inhibit around a sleeping child.
func NewSystemdInhibit(sys System) Stabilizer {
	return &systemdInhibit{sys: sys}
}

func (s *systemdInhibit) Name() string {
	return "standby"
}

func (s *systemdInhibit) Acquire(ctx context.Context) error {
	if s.proc != nil {
		return nil
	}

	proc, err := s.sys.Start(ctx, "systemd-inhibit",
		"--what=sleep:idle",
		"--mode=block",
		"--who=evalbench",
		"--why="+standbyReason,
		"sleep", "infinity",
	)
	// Without logind the lock cannot be taken and the child exits at once.
	if errors.Is(err, exec.ErrNotFound) || errors.Is(err, ErrExited) {
		return fmt.Errorf("systemd-inhibit: %w: %w", ErrNotSupported, err)
	}

	if err != nil {
		return err
	}

	s.proc = proc

	return nil
}

func (s *systemdInhibit) Release(_ context.Context) error {
	if s.proc == nil {
		return nil
	}

	if err := s.proc.Stop(); err != nil {
		return err
	}

	s.proc = nil

	return nil
}
