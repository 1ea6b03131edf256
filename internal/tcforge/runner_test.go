package tcforge

import (
	"fmt"
	"os/exec"
	"strings"
)

// fakeRunner records every command the pipeline would execute instead
// of running it. Outputs are matched by substring against the argv
// line; failOn forces a failure for matching commands; onRun lets a
// test simulate a command's filesystem side effects.
type fakeRunner struct {
	cmds    [][]string
	dirs    []string
	outputs map[string]string
	failOn  string
	onRun   func(cmd *exec.Cmd) error
}

func (f *fakeRunner) record(cmd *exec.Cmd) (string, error) {
	f.cmds = append(f.cmds, append([]string(nil), cmd.Args...))
	f.dirs = append(f.dirs, cmd.Dir)
	line := strings.Join(cmd.Args, " ")
	if f.failOn != "" && strings.Contains(line, f.failOn) {
		return line, fmt.Errorf("forced failure for %q", f.failOn)
	}
	return line, nil
}

func (f *fakeRunner) Run(cmd *exec.Cmd) error {
	if _, err := f.record(cmd); err != nil {
		return err
	}
	if f.onRun != nil {
		return f.onRun(cmd)
	}
	return nil
}

func (f *fakeRunner) Output(cmd *exec.Cmd) (string, error) {
	line, err := f.record(cmd)
	if err != nil {
		return "", err
	}
	for key, out := range f.outputs {
		if strings.Contains(line, key) {
			return out, nil
		}
	}
	return "", nil
}

// ran reports whether any recorded command line contains sub.
func (f *fakeRunner) ran(sub string) bool {
	for _, args := range f.cmds {
		if strings.Contains(strings.Join(args, " "), sub) {
			return true
		}
	}
	return false
}
