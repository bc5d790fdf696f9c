package utils

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"time"
)

const stderrTailSize = 4096

// CmdResult is what is known about one finished shell invocation.
type CmdResult struct {
	Command  string
	ExitCode int
	Stderr   string // last few KB only
	Duration time.Duration
	TimedOut bool
}

// Failed reports whether the command did not exit cleanly.
func (r *CmdResult) Failed() bool {
	return r.ExitCode != 0 || r.TimedOut
}

// BashRunner runs command strings with `bash -c`, passing output through to
// Stdout/Stderr while keeping the tail of stderr for diagnostics.
type BashRunner struct {
	Stdout  io.Writer
	Stderr  io.Writer
	Timeout time.Duration
}

// NewBashRunner returns a runner wired to the process's own stdout and stderr.
func NewBashRunner(timeout time.Duration) *BashRunner {
	return &BashRunner{Stdout: os.Stdout, Stderr: os.Stderr, Timeout: timeout}
}

// Run executes cmdStr in dir and blocks until it exits. A non-nil error means
// the command could not be started or was cancelled; a non-zero exit is
// reported through CmdResult.ExitCode.
func (b *BashRunner) Run(ctx context.Context, dir, cmdStr string) (*CmdResult, error) {
	if b.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, "bash", "-c", cmdStr)
	cmd.Dir = dir
	setProcessGroup(cmd)
	cmd.WaitDelay = 5 * time.Second

	tail := &tailBuffer{max: stderrTailSize}
	stdout, stderr := b.Stdout, b.Stderr
	if stdout == nil {
		stdout = io.Discard
	}
	if stderr == nil {
		stderr = io.Discard
	}
	cmd.Stdout = stdout
	cmd.Stderr = io.MultiWriter(stderr, tail)

	start := time.Now()
	err := cmd.Run()
	res := &CmdResult{Command: cmdStr, Duration: time.Since(start), Stderr: tail.String()}
	if err == nil {
		return res, nil
	}

	var exitErr *exec.ExitError
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		res.ExitCode = -1
		res.TimedOut = true
		return res, nil
	case ctx.Err() != nil:
		res.ExitCode = -1
		return res, ctx.Err()
	case errors.As(err, &exitErr):
		res.ExitCode = exitErr.ExitCode()
		return res, nil
	default:
		return res, fmt.Errorf("run %q: %w", cmdStr, err)
	}
}

// tailBuffer keeps the last max bytes written to it.
type tailBuffer struct {
	mu  sync.Mutex
	max int
	buf []byte
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.buf = append(t.buf, p...)
	if over := len(t.buf) - t.max; over > 0 {
		t.buf = append(t.buf[:0], t.buf[over:]...)
	}
	return len(p), nil
}

func (t *tailBuffer) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return string(t.buf)
}
