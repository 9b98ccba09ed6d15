package sat

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/limaJavier/sts/internal/process"
)

type cryptominisatSolver struct{}

func NewCryptominisatSolver() SATSolver {
	return &cryptominisatSolver{}
}

func (solver *cryptominisatSolver) Name() string { return "cryptominisat" }

func (solver *cryptominisatSolver) Solve(ctx context.Context, sat SAT, timeLimit time.Duration) (Result, error) {
	cryptominisatPath, err := ExecutablePath(solver.Name())
	if err != nil {
		return Result{}, err
	}

	run, err := process.Run(ctx, timeLimit, strings.NewReader(sat.ToDIMACS()), cryptominisatPath, "--verb", "0", "--maxtime", strconv.Itoa(process.Seconds(timeLimit)))
	if err != nil {
		return Result{}, fmt.Errorf("an error occurred during cryptominisat execution: %w", err)
	}
	return classify(solver.Name(), run, sat.Variables)
}
