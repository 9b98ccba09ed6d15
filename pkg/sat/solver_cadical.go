package sat

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/limaJavier/sts/internal/process"
)

type cadicalSolver struct{}

func NewCadicalSolver() SATSolver {
	return &cadicalSolver{}
}

func (solver *cadicalSolver) Name() string { return "cadical" }

func (solver *cadicalSolver) Solve(ctx context.Context, sat SAT, timeLimit time.Duration) (Result, error) {
	cadicalPath, err := ExecutablePath(solver.Name())
	if err != nil {
		return Result{}, err
	}

	run, err := process.Run(ctx, timeLimit, strings.NewReader(sat.ToDIMACS()), cadicalPath, "-q", "-t", strconv.Itoa(process.Seconds(timeLimit)))
	if err != nil {
		return Result{}, fmt.Errorf("an error occurred during cadical execution: %w", err)
	}
	return classify(solver.Name(), run, sat.Variables)
}
