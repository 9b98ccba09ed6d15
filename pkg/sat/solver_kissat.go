package sat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/limaJavier/sts/internal/process"
)

type kissatSolver struct{}

func NewKissatSolver() SATSolver {
	return &kissatSolver{}
}

func (solver *kissatSolver) Name() string { return "kissat" }

func (solver *kissatSolver) Solve(ctx context.Context, sat SAT, timeLimit time.Duration) (Result, error) {
	kissatPath, err := ExecutablePath(solver.Name())
	if err != nil {
		return Result{}, err
	}

	dimacs := sat.ToDIMACS() // Transform SAT into DIMACS-CNF string format

	// Feed dimacs into kissat's standard input
	run, err := process.Run(ctx, timeLimit, strings.NewReader(dimacs), kissatPath, "-q", "--relaxed", fmt.Sprintf("--time=%d", process.Seconds(timeLimit)))
	if err != nil {
		return Result{}, fmt.Errorf("an error occurred during kissat execution: %w", err)
	}
	return classify(solver.Name(), run, sat.Variables)
}
