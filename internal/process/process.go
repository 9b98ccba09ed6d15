// Package process runs external solver executables under a hard deadline.
package process

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"time"
)

var ErrExecutableNotFound = errors.New("executable not found")

// KillDelay is the time a process gets past its own time limit before it is killed
const KillDelay = 5 * time.Second

var (
	executablesMu sync.RWMutex
	executables   = map[string]string{}
)

// SetExecutables registers executable paths by tool name. An empty path resets a tool to its name.
func SetExecutables(paths map[string]string) {
	executablesMu.Lock()
	defer executablesMu.Unlock()
	for name, path := range paths {
		executables[name] = path
	}
}

// Executable resolves a tool to a configured path or its name on PATH
func Executable(name string) (string, error) {
	executablesMu.RLock()
	path, ok := executables[name]
	executablesMu.RUnlock()
	if !ok || path == "" {
		path = name
	}

	resolved, err := exec.LookPath(path)
	if err != nil {
		return "", fmt.Errorf("%w: %v: %v", ErrExecutableNotFound, name, err)
	}
	return resolved, nil
}

// Seconds rounds a time limit up to whole seconds, at least one
func Seconds(timeLimit time.Duration) int {
	return max(1, int((timeLimit+time.Second-1)/time.Second))
}

type Execution struct {
	Stdout   bytes.Buffer
	Stderr   bytes.Buffer
	ExitCode int
	// Killed reports that the hard ceiling was reached (or ctx was cancelled)
	Killed bool
}

// Run executes path with args bounded by a hard ceiling of timeLimit + KillDelay.
// The process is killed on breach and always reaped before Run returns. A non-zero
// exit code is not an error.
func Run(ctx context.Context, timeLimit time.Duration, stdin io.Reader, path string, args ...string) (*Execution, error) {
	ctx, cancel := context.WithTimeout(ctx, timeLimit+KillDelay)
	defer cancel()

	cmd := exec.CommandContext(ctx, path, args...)
	cmd.WaitDelay = time.Second
	cmd.Stdin = stdin

	execution := &Execution{}
	cmd.Stdout = &execution.Stdout
	cmd.Stderr = &execution.Stderr

	err := cmd.Run()
	if ctx.Err() != nil {
		execution.Killed = true
		return execution, nil
	}

	var exitErr *exec.ExitError
	if err != nil && !errors.As(err, &exitErr) {
		return nil, err
	}
	execution.ExitCode = cmd.ProcessState.ExitCode()
	return execution, nil
}
