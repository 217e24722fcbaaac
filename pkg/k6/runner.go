package k6

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// ExitThresholdsCrossed is k6's exit code when the run completed but declared
// thresholds were crossed. The run still produced a full result stream, so the
// harness reports it rather than treating it as a launch failure.
const ExitThresholdsCrossed = 99

// Runner supervises a single k6 process
type Runner struct {
	Binary      string        // Path to the k6 binary
	StopTimeout time.Duration // Grace period between SIGINT and SIGKILL

	// Stdout/Stderr receive the k6 process output; nil discards it
	Stdout io.Writer
	Stderr io.Writer

	logger *zap.Logger
	cmd    *exec.Cmd

	// The reaper goroutine started in Start owns the single cmd.Wait call.
	// waitErr carries its result to Wait; done lets Stop observe process exit
	// without touching the Cmd from a second goroutine.
	waitErr chan error
	done    chan struct{}
}

// NewRunner creates a runner for the given k6 binary
func NewRunner(binary string, stopTimeout time.Duration, appLogger *zap.Logger) *Runner {
	if appLogger == nil {
		appLogger = zap.NewNop()
	}
	if stopTimeout <= 0 {
		stopTimeout = 10 * time.Second
	}
	return &Runner{
		Binary:      binary,
		StopTimeout: stopTimeout,
		logger:      appLogger,
	}
}

// Start launches k6 for the given run configuration. The context cancels the
// process; callers that want a graceful stop should call Stop instead of
// cancelling.
func (r *Runner) Start(ctx context.Context, cfg *RunConfig) error {
	env, err := BuildEnv(cfg)
	if err != nil {
		return err
	}

	r.cmd = exec.CommandContext(ctx, r.Binary, BuildArgs(cfg)...)
	r.cmd.Env = env
	r.cmd.Stdout = r.Stdout
	r.cmd.Stderr = r.Stderr

	if err := r.cmd.Start(); err != nil {
		return fmt.Errorf("failed to start k6: %w", err)
	}

	r.waitErr = make(chan error, 1)
	r.done = make(chan struct{})
	go func() {
		r.waitErr <- r.cmd.Wait()
		close(r.done)
	}()

	r.logger.Info("k6 process launched",
		zap.Int("pid", r.cmd.Process.Pid),
		zap.String("script", cfg.Script),
		zap.String("results_file", cfg.ResultsFile))

	return nil
}

// Wait blocks until the k6 process exits and returns its exit code.
// ExitThresholdsCrossed is not an error: the run finished and its output is
// complete. Any other non-zero exit is returned as an error alongside the
// code.
func (r *Runner) Wait() (int, error) {
	if r.cmd == nil {
		return -1, errors.New("k6 process was never started")
	}

	err := <-r.waitErr
	if err == nil {
		return 0, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		code := exitErr.ExitCode()
		if code == ExitThresholdsCrossed {
			r.logger.Warn("k6 thresholds crossed", zap.Int("exit_code", code))
			return code, nil
		}
		return code, fmt.Errorf("k6 exited with code %d: %w", code, err)
	}

	return -1, fmt.Errorf("k6 wait failed: %w", err)
}

// Stop interrupts the k6 process so it can flush its output, escalating to a
// kill after the stop timeout. Safe to call when the process already exited.
func (r *Runner) Stop() {
	if r.cmd == nil || r.cmd.Process == nil {
		return
	}

	r.logger.Info("Stopping k6 process", zap.Int("pid", r.cmd.Process.Pid))

	if err := r.cmd.Process.Signal(syscall.SIGINT); err != nil {
		// Already exited; the reaper goroutine delivers the result to Wait
		return
	}

	select {
	case <-r.done:
	case <-time.After(r.StopTimeout):
		r.logger.Warn("k6 did not stop in time, killing",
			zap.Duration("timeout", r.StopTimeout))
		_ = r.cmd.Process.Kill()
	}
}
