// Package cp solves tournament models with finite-domain constraint engines: the
// in-process gokanlogic solver and MiniZinc back-ends run as subprocesses.
package cp

import (
	"context"
	"errors"
	"fmt"

	"github.com/gitrdm/gokanlogic/pkg/minikanren"
	"github.com/limaJavier/sts/pkg/engine"
	"github.com/limaJavier/sts/pkg/model"
	"github.com/samber/lo"
)

// Booleans are encoded as the finite domain {1=false, 2=true}
const (
	fdFalse = 1
	fdTrue  = 2
)

type gokanlogicEngine struct{}

func NewGokanlogicEngine() engine.Engine {
	return &gokanlogicEngine{}
}

func (e *gokanlogicEngine) Name() string { return "gokanlogic" }

func (e *gokanlogicEngine) Paradigm() engine.Paradigm { return engine.CP }

type fdModel struct {
	model      *minikanren.Model
	indicators []*minikanren.FDVariable
	// maxDeviation holds twice the balance objective plus one
	maxDeviation *minikanren.FDVariable
}

func (e *gokanlogicEngine) Solve(ctx context.Context, m *model.Model, opts engine.Options) (engine.Verdict, error) {
	fd, err := translate(m)
	if err != nil {
		return engine.Verdict{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, opts.TimeLimit)
	defer cancel()

	solver := minikanren.NewSolver(fd.model)

	if fd.maxDeviation == nil {
		solutions, err := solver.Solve(ctx, 1)
		switch {
		case isTimeout(err):
			return engine.Verdict{Status: engine.Unknown}, nil
		case err != nil:
			return engine.Verdict{}, fmt.Errorf("an error occurred during gokanlogic execution: %w", err)
		case len(solutions) == 0:
			return engine.Verdict{Status: engine.Infeasible}, nil
		}
		return engine.Verdict{Status: engine.Feasible, Assignment: fd.assignment(m, solutions[0])}, nil
	}

	solution, best, err := solver.SolveOptimal(ctx, fd.maxDeviation, true)
	switch {
	case isTimeout(err) && solution == nil:
		return engine.Verdict{Status: engine.Unknown}, nil
	case err != nil && !isTimeout(err):
		return engine.Verdict{}, fmt.Errorf("an error occurred during gokanlogic execution: %w", err)
	case solution == nil:
		return engine.Verdict{Status: engine.Infeasible}, nil
	}

	objective := float64(best-1) / 2
	return engine.Verdict{
		Status:     engine.Feasible,
		Assignment: fd.assignment(m, solution),
		Objective:  &objective,
		Optimal:    err == nil,
	}, nil
}

func isTimeout(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
}

func (fd *fdModel) assignment(m *model.Model, solution []int) model.Assignment {
	assignment := model.NewAssignment(m)
	for v := 1; v < len(assignment); v++ {
		assignment[v] = solution[fd.indicators[v].ID()] == fdTrue
	}
	return assignment
}

// translate turns every cardinality constraint into a BoolSum whose total (count+1)
// is restricted to [Min+1, Max+1]
func translate(m *model.Model) (*fdModel, error) {
	fd := &fdModel{
		model:      minikanren.NewModel(),
		indicators: make([]*minikanren.FDVariable, m.NumIndicators()+1),
	}

	pinned := lo.SliceToMap(m.Pinned, func(v model.Var) (model.Var, bool) { return v, true })
	for v := 1; v < len(fd.indicators); v++ {
		domain := minikanren.NewBitSetDomain(fdTrue)
		if pinned[model.Var(v)] {
			domain = minikanren.NewBitSetDomainFromValues(fdTrue, []int{fdTrue})
		}
		fd.indicators[v] = fd.model.NewVariable(domain)
	}

	for _, constraint := range m.Constraints {
		if err := fd.boolSum(constraint.Vars, lo.RangeFrom(constraint.Min+1, constraint.Max-constraint.Min+1)); err != nil {
			return nil, fmt.Errorf("%v: %w", constraint.Name, err)
		}
	}

	if m.Objective != nil {
		if err := fd.balance(m); err != nil {
			return nil, err
		}
	}
	return fd, nil
}

func (fd *fdModel) boolSum(vars []model.Var, totals []int) error {
	members := lo.Map(vars, func(v model.Var, _ int) *minikanren.FDVariable { return fd.indicators[v] })
	total := fd.model.NewVariable(minikanren.NewBitSetDomainFromValues(len(vars)+1, totals))

	constraint, err := minikanren.NewBoolSum(members, total)
	if err != nil {
		return err
	}
	fd.model.AddConstraint(constraint)
	return nil
}

// balance adds home_t (count+1), dev_t = |2*home_t - (n-1)| + 1 as a table and
// maxDeviation = max_t dev_t
func (fd *fdModel) balance(m *model.Model) error {
	weeks := m.Instance.Weeks()
	rows := lo.Map(lo.Range(weeks+1), func(home int, _ int) []int {
		deviation := 2*home - weeks
		if deviation < 0 {
			deviation = -deviation
		}
		return []int{home + 1, deviation + 1}
	})

	deviations := make([]*minikanren.FDVariable, 0, len(m.Objective.HomeGames))
	for _, homeGames := range m.Objective.HomeGames {
		members := lo.Map(homeGames, func(v model.Var, _ int) *minikanren.FDVariable { return fd.indicators[v] })
		home := fd.model.NewVariable(minikanren.NewBitSetDomain(weeks + 1))
		sum, err := minikanren.NewBoolSum(members, home)
		if err != nil {
			return err
		}
		fd.model.AddConstraint(sum)

		deviation := fd.model.NewVariable(minikanren.NewBitSetDomain(weeks + 1))
		table, err := minikanren.NewTable([]*minikanren.FDVariable{home, deviation}, rows)
		if err != nil {
			return err
		}
		fd.model.AddConstraint(table)
		deviations = append(deviations, deviation)
	}

	fd.maxDeviation = fd.model.NewVariable(minikanren.NewBitSetDomain(weeks + 1))
	maximum, err := minikanren.NewMax(deviations, fd.maxDeviation)
	if err != nil {
		return err
	}
	fd.model.AddConstraint(maximum)
	return nil
}
