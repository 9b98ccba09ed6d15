package sat

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/limaJavier/sts/internal/process"
	"github.com/samber/lo"
)

// ExecutablePath resolves the executable of a solver: a configured path or the solver name on PATH
func ExecutablePath(solver string) (string, error) {
	path, err := process.Executable(solver)
	if errors.Is(err, process.ErrExecutableNotFound) {
		return "", fmt.Errorf("%w: %w", ErrSolverUnavailable, err)
	}
	return path, err
}

// classify maps the competition exit codes: 10 satisfiable, 20 unsatisfiable
func classify(solver string, run *process.Execution, variables uint64) (Result, error) {
	stdout := run.Stdout.String()
	switch {
	case run.Killed:
		return Result{Status: Unknown}, nil
	case run.ExitCode == 10:
		return Result{Status: Satisfiable, Solution: parseSolution(stdout, variables)}, nil
	case run.ExitCode == 20:
		return Result{Status: Unsatisfiable}, nil
	case strings.Contains(stdout, "s UNKNOWN"), strings.Contains(stdout, "s INDETERMINATE"):
		return Result{Status: Unknown}, nil
	default:
		return Result{}, fmt.Errorf("an error occurred during %v execution: exit code %d: %v", solver, run.ExitCode, run.Stderr.String())
	}
}

// parseSolution reads the "v" lines of a solver output into a dense solution
func parseSolution(solverOutput string, variables uint64) SATSolution {
	values := lo.FilterMap(
		lo.FlatMap(
			lo.Filter(strings.Split(solverOutput, "\n"), func(line string, _ int) bool {
				return len(line) > 0 && line[0] == 'v'
			}),
			func(line string, _ int) []string {
				return strings.Fields(line[1:])
			},
		),
		func(valueStr string, _ int) (int64, bool) {
			value, err := strconv.ParseInt(valueStr, 10, 64)
			return value, err == nil && value != 0
		},
	)
	return dense(values, variables)
}

func dense(values []int64, variables uint64) SATSolution {
	solution := make(SATSolution, variables)
	for i := range solution {
		solution[i] = -int64(i + 1)
	}
	for _, value := range values {
		index := value
		if index < 0 {
			index = -index
		}
		if index <= int64(variables) {
			solution[index-1] = value
		}
	}
	return solution
}
