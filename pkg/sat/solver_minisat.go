package sat

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/limaJavier/sts/internal/process"
)

type minisatSolver struct{}

func NewMinisatSolver() SATSolver {
	return &minisatSolver{}
}

func (solver *minisatSolver) Name() string { return "minisat" }

func (solver *minisatSolver) Solve(ctx context.Context, sat SAT, timeLimit time.Duration) (Result, error) {
	minisatPath, err := ExecutablePath(solver.Name())
	if err != nil {
		return Result{}, err
	}

	// Create a temporary file to hold the DIMACS content
	inputTempFile, err := os.CreateTemp("", "dimacs-*.cnf")
	if err != nil {
		return Result{}, fmt.Errorf("failed to create temporary file: %w", err)
	}
	defer os.Remove(inputTempFile.Name()) // Ensure the file is removed after execution

	outputTempFile, err := os.CreateTemp("", "minisat_output-*.txt")
	if err != nil {
		return Result{}, fmt.Errorf("failed to create temporary file: %w", err)
	}
	outputTempFile.Close()
	defer os.Remove(outputTempFile.Name()) // Ensure the file is removed after execution

	// Write the DIMACS content to the temporary file
	if err := sat.WriteDIMACS(inputTempFile); err != nil {
		inputTempFile.Close()
		return Result{}, fmt.Errorf("failed to write DIMACS to temporary file: %w", err)
	}
	if err := inputTempFile.Close(); err != nil {
		return Result{}, fmt.Errorf("failed to close temporary file: %w", err)
	}

	run, err := process.Run(ctx, timeLimit, nil, minisatPath,
		"-verb=0", fmt.Sprintf("-cpu-lim=%d", process.Seconds(timeLimit)), inputTempFile.Name(), outputTempFile.Name())
	if err != nil {
		return Result{}, fmt.Errorf("an error occurred during minisat execution: %w", err)
	}
	if run.Killed {
		return Result{Status: Unknown}, nil
	}

	output, err := os.ReadFile(outputTempFile.Name()) // Read the output file
	if err != nil {
		return Result{}, fmt.Errorf("failed to read output file: %w", err)
	}
	return solver.parseOutput(string(output), run, sat.Variables)
}

// The output file holds a status line (SAT, UNSAT or INDET) and, when satisfiable, the model on the second line
func (solver *minisatSolver) parseOutput(output string, run *process.Execution, variables uint64) (Result, error) {
	lines := strings.Split(output, "\n")
	switch strings.TrimSpace(lines[0]) {
	case "SAT":
		if len(lines) < 2 {
			return Result{}, fmt.Errorf("minisat reported SAT without a model")
		}
		return Result{Status: Satisfiable, Solution: parseSolution("v "+lines[1], variables)}, nil
	case "UNSAT":
		return Result{Status: Unsatisfiable}, nil
	case "INDET", "":
		if run.ExitCode != 0 && run.ExitCode != 10 && run.ExitCode != 20 {
			return Result{}, fmt.Errorf("an error occurred during minisat execution: exit code %d: %v", run.ExitCode, run.Stderr.String())
		}
		return Result{Status: Unknown}, nil
	default:
		return Result{}, fmt.Errorf("unexpected minisat output: %q", lines[0])
	}
}
