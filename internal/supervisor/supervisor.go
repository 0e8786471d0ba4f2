// Package supervisor runs a child process with stdio passthrough and
// signal forwarding. `prism connect` uses it to host the serve process an
// IDE talks to.
package supervisor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
)

// Supervisor spawns one child process, pipes the parent's stdio through it,
// forwards SIGINT/SIGTERM, and reports the child's exit code.
type Supervisor struct {
	name   string
	args   []string
	logger *log.Logger

	// Stdin/Stdout/Stderr default to the parent's streams. Nil means the
	// child gets /dev/null (or discards output).
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// New creates a supervisor for the given command.
func New(logger *log.Logger, name string, args ...string) *Supervisor {
	if logger == nil {
		logger = log.Default()
	}
	return &Supervisor{
		name:   name,
		args:   args,
		logger: logger,
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
}

// Run starts the child and blocks until it exits, returning its exit code.
// SIGINT and SIGTERM received by the parent are forwarded to the child so
// the protocol session can shut down before the parent does. Context
// cancellation kills the child.
func (s *Supervisor) Run(ctx context.Context) (int, error) {
	cmd := exec.CommandContext(ctx, s.name, s.args...)
	cmd.Stdin = s.Stdin
	cmd.Stdout = s.Stdout
	cmd.Stderr = s.Stderr

	if err := cmd.Start(); err != nil {
		return -1, fmt.Errorf("start %s: %w", s.name, err)
	}
	s.logger.Debug("child started", "command", s.name, "pid", cmd.Process.Pid)

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(signals)

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	for {
		select {
		case sig := <-signals:
			s.logger.Debug("forwarding signal", "signal", sig)
			if err := cmd.Process.Signal(sig); err != nil {
				s.logger.Warn("signal forward failed", "signal", sig, "error", err)
			}
		case err := <-done:
			return exitCode(err)
		}
	}
}

// exitCode maps a Wait error to the child's exit code.
func exitCode(err error) (int, error) {
	if err == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	return -1, err
}
