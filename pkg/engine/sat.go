package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/limaJavier/sts/pkg/model"
	"github.com/limaJavier/sts/pkg/sat"
)

type satEngine struct {
	solver sat.SATSolver
}

// NewSATEngine solves the CNF encoding of a model with a SAT solver. The balance
// objective is not encoded.
func NewSATEngine(solver sat.SATSolver) Engine {
	return &satEngine{solver: solver}
}

func (engine *satEngine) Name() string { return engine.solver.Name() }

func (engine *satEngine) Paradigm() Paradigm { return SAT }

func (engine *satEngine) Solve(ctx context.Context, m *model.Model, opts Options) (Verdict, error) {
	//** Build SAT instance
	satInstance := m.ToSAT()

	//** Solve SAT instance
	result, err := engine.solver.Solve(ctx, satInstance, opts.TimeLimit)
	if errors.Is(err, sat.ErrSolverUnavailable) {
		return Verdict{}, fmt.Errorf("%w: %w", ErrEngineUnavailable, err)
	} else if err != nil {
		return Verdict{}, err
	}

	//** Classify
	switch result.Status {
	case sat.Satisfiable:
		assignment := model.NewAssignment(m)
		for v := range assignment[1:] {
			assignment[v+1] = result.Solution.Holds(int64(v + 1))
		}
		return Verdict{Status: Feasible, Assignment: assignment}, nil
	case sat.Unsatisfiable:
		return Verdict{Status: Infeasible}, nil
	default:
		return Verdict{Status: Unknown}, nil
	}
}
