// Package stabilize quiets the host for the duration of a benchmark run.
// Each Stabilizer changes one system setting on Acquire and restores the
// value it found on Release.
package stabilize

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"
)

// ErrNotSupported is returned by Acquire when the host offers no way to
// change the setting. Guard skips such stabilizers.
var ErrNotSupported = errors.New("not supported on this host")

// Stabilizer changes a system setting and restores it afterwards. Release
// after a successful Release is a no-op.
type Stabilizer interface {
	Name() string
	Acquire(ctx context.Context) error
	Release(ctx context.Context) error
}

// ErrExited is returned by System.Start when the child exits within the
// start grace period.
var ErrExited = errors.New("exited right after start")

// startGrace is how long a started child must stay alive to count as
// running.
const startGrace = 100 * time.Millisecond

// Process is a background child started by System.Start.
type Process interface {
	Stop() error
}

// System is the host access used by the stabilizers.
type System interface {
	ReadFile(name string) ([]byte, error)
	WriteFile(name string, data []byte) error
	// Run executes a command to completion and returns its stdout. The
	// output is returned even when the command exits non-zero.
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
	// Start runs a command in the background. It fails with ErrExited
	// when the command does not keep running.
	Start(ctx context.Context, name string, args ...string) (Process, error)
}

// NewSystem returns the System backed by the real host.
func NewSystem(logger *slog.Logger) System {
	return &execSystem{logger: logger, grace: startGrace}
}

type execSystem struct {
	logger *slog.Logger
	grace  time.Duration
}

func (s *execSystem) ReadFile(name string) ([]byte, error) {
	return os.ReadFile(name)
}

func (s *execSystem) WriteFile(name string, data []byte) error {
	return os.WriteFile(name, data, 0o644)
}

func (s *execSystem) Run(
	ctx context.Context,
	name string,
	args ...string,
) ([]byte, error) {
	s.logger.DebugContext(ctx, "exec",
		slog.String("command", name),
		slog.Any("args", args),
	)

	var stderr bytes.Buffer

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		return out, fmt.Errorf("%s %s: %w: %s",
			name, strings.Join(args, " "), err,
			strings.TrimSpace(stderr.String()))
	}

	return out, nil
}

func (s *execSystem) Start(
	ctx context.Context,
	name string,
	args ...string,
) (Process, error) {
	s.logger.DebugContext(ctx, "start",
		slog.String("command", name),
		slog.Any("args", args),
	)

	// The child outlives ctx; it is stopped through Process.Stop.
	cmd := exec.Command(name, args...)
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", name, err)
	}

	done := make(chan error, 1)

	go func() {
		done <- cmd.Wait()
	}()

	p := &execProcess{cmd: cmd, done: done, logger: s.logger}

	timer := time.NewTimer(s.grace)
	defer timer.Stop()

	select {
	case err := <-done:
		if err != nil {
			return nil, fmt.Errorf("%s: %w: %w", name, ErrExited, err)
		}

		return nil, fmt.Errorf("%s: %w", name, ErrExited)
	case <-ctx.Done():
		return nil, errors.Join(ctx.Err(), p.Stop())
	case <-timer.C:
	}

	return p, nil
}

type execProcess struct {
	cmd    *exec.Cmd
	done   <-chan error
	logger *slog.Logger

	waited  bool
	waitErr error
}

func (p *execProcess) wait() error {
	if !p.waited {
		p.waitErr = <-p.done
		p.waited = true
	}

	return p.waitErr
}

func (p *execProcess) Stop() error {
	err := p.cmd.Process.Kill()
	if errors.Is(err, os.ErrProcessDone) {
		p.logger.Warn("child exited before stop",
			slog.String("command", p.cmd.Path),
			slog.Any("status", p.wait()),
		)

		return nil
	}

	if err != nil {
		return fmt.Errorf("kill %s: %w", p.cmd.Path, err)
	}

	// The exit status of a killed child is expected to be non-zero.
	var exitErr *exec.ExitError
	if err := p.wait(); err != nil && !errors.As(err, &exitErr) {
		return fmt.Errorf("wait %s: %w", p.cmd.Path, err)
	}

	return nil
}
