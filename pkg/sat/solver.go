package sat

import (
	"context"
	"errors"
	"time"
)

var ErrSolverUnavailable = errors.New("sat solver unavailable")

type Status int

const (
	Unknown Status = iota
	Satisfiable
	Unsatisfiable
)

func (status Status) String() string {
	switch status {
	case Satisfiable:
		return "sat"
	case Unsatisfiable:
		return "unsat"
	default:
		return "unknown"
	}
}

// Result is a solver verdict. Solution is set only when Status is Satisfiable and is
// dense: literal of variable v sits at index v-1.
type Result struct {
	Status   Status
	Solution SATSolution
}

type SATSolver interface {
	// Name identifies the solver as an approach
	Name() string
	// Solve decides the instance within timeLimit. Reaching the limit yields Unknown, not an error.
	Solve(ctx context.Context, sat SAT, timeLimit time.Duration) (Result, error)
}

// Solvers maps approach names to solver constructors
var Solvers = map[string]func() SATSolver{
	"gini":          NewGiniSolver,
	"kissat":        NewKissatSolver,
	"cadical":       NewCadicalSolver,
	"minisat":       NewMinisatSolver,
	"cryptominisat": NewCryptominisatSolver,
}
