package tcforge

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"syscall"
	"time"
)

// Runner is the narrow interface every stage uses to invoke external
// commands (git, cmake, ninja, tar). Tests substitute a fake so the
// pipeline can be exercised without real repositories or a toolchain.
type Runner interface {
	// Run executes the command with stdio passed through.
	Run(cmd *exec.Cmd) error
	// Output executes the command and returns its captured stdout.
	Output(cmd *exec.Cmd) (string, error)
}

// Executor runs external commands under the application context.
// Children are isolated in their own process group so a cancelled
// context can take down the whole group at once.
type Executor struct {
	Context context.Context
}

func NewExecutor(ctx context.Context) *Executor {
	return &Executor{Context: ctx}
}

// Run executes the given command, wiring up stdio and watching the
// context for cancellation.
func (e *Executor) Run(cmd *exec.Cmd) error {
	if cmd.Stdin == nil {
		cmd.Stdin = os.Stdin
	}
	if cmd.Stdout == nil {
		cmd.Stdout = os.Stdout
	}
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}
	return e.run(cmd)
}

// Output executes the command and captures stdout. Stderr still goes
// to the terminal so failing commands surface their own diagnostics.
func (e *Executor) Output(cmd *exec.Cmd) (string, error) {
	var out bytes.Buffer
	cmd.Stdout = &out
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}
	err := e.run(cmd)
	return out.String(), err
}

func (e *Executor) run(cmd *exec.Cmd) error {
	final := exec.CommandContext(e.Context, cmd.Path, cmd.Args[1:]...)
	final.Dir = cmd.Dir
	final.Stdin = cmd.Stdin
	final.Stdout = cmd.Stdout
	final.Stderr = cmd.Stderr
	if len(cmd.Env) > 0 {
		final.Env = cmd.Env
	} else {
		final.Env = os.Environ()
	}

	// Isolate the child's process group so cancellation can reach the
	// whole tree (ninja spawns its own children).
	final.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	if err := final.Start(); err != nil {
		return fmt.Errorf("failed to start %s: %w", cmd.Args[0], err)
	}

	pgid := final.Process.Pid
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-e.Context.Done():
			syscall.Kill(-pgid, syscall.SIGKILL)
		case <-done:
		}
	}()

	if waitErr := final.Wait(); waitErr != nil {
		if e.Context.Err() != nil {
			time.Sleep(100 * time.Millisecond)
			return fmt.Errorf("command aborted: %v", e.Context.Err())
		}
		return waitErr
	}
	return nil
}
