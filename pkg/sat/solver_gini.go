package sat

import (
	"context"
	"time"

	"github.com/go-air/gini"
	"github.com/go-air/gini/z"
)

// giniSolver runs the pure Go gini solver in-process
type giniSolver struct{}

func NewGiniSolver() SATSolver {
	return &giniSolver{}
}

func (solver *giniSolver) Name() string { return "gini" }

func (solver *giniSolver) Solve(ctx context.Context, sat SAT, timeLimit time.Duration) (Result, error) {
	g := gini.NewVc(int(sat.Variables), len(sat.Clauses))
	for _, clause := range sat.Clauses {
		for _, literal := range clause {
			g.Add(z.Dimacs2Lit(int(literal)))
		}
		g.Add(z.LitNull)
	}

	if deadline, ok := ctx.Deadline(); ok {
		timeLimit = min(timeLimit, time.Until(deadline))
	}

	// Try returns 0 once the limit elapses; Stop reclaims the solving goroutine
	solve := g.GoSolve()
	verdict := solve.Try(timeLimit)
	if verdict == 0 {
		solve.Stop()
		return Result{Status: Unknown}, nil
	}
	if verdict < 0 {
		return Result{Status: Unsatisfiable}, nil
	}

	solution := make(SATSolution, sat.Variables)
	for i := range solution {
		v := int64(i + 1)
		if g.Value(z.Dimacs2Lit(int(v))) {
			solution[i] = v
		} else {
			solution[i] = -v
		}
	}
	return Result{Status: Satisfiable, Solution: solution}, nil
}
