// Package mip solves tournament models as 0-1 integer programs with HiGHS.
package mip

import (
	"context"
	"fmt"
	"time"

	"github.com/bartolsthoorn/gohighs/highs"
	"github.com/limaJavier/sts/pkg/engine"
	"github.com/limaJavier/sts/pkg/model"
)

type highsEngine struct{}

func NewHighsEngine() engine.Engine {
	return &highsEngine{}
}

func (e *highsEngine) Name() string { return "highs" }

func (e *highsEngine) Paradigm() engine.Paradigm { return engine.MIP }

func (e *highsEngine) Solve(ctx context.Context, m *model.Model, opts engine.Options) (engine.Verdict, error) {
	program, devCol := Translate(m)

	timeLimit := opts.TimeLimit
	if deadline, ok := ctx.Deadline(); ok {
		timeLimit = min(timeLimit, time.Until(deadline))
	}

	solution, err := program.Solve(
		highs.WithOutput(false),
		highs.WithThreads(opts.Threads),
		highs.WithTimeLimit(timeLimit.Seconds()),
	)
	if err != nil {
		return engine.Verdict{}, fmt.Errorf("an error occurred during highs execution: %w", err)
	}

	return verdictOf(m, solution, devCol), nil
}

// verdictOf classifies a HiGHS solution. A time-limited run reports a solution
// status even without an incumbent, so non-optimal values count only when they
// form a valid schedule.
func verdictOf(m *model.Model, solution *highs.Solution, devCol int) engine.Verdict {
	switch {
	case solution.IsInfeasible():
		return engine.Verdict{Status: engine.Infeasible}
	case !solution.HasSolution():
		return engine.Verdict{Status: engine.Unknown}
	}

	assignment := model.NewAssignment(m)
	for v := 1; v < len(assignment); v++ {
		assignment[v] = solution.Value(column(model.Var(v))) > 0.5
	}

	if !solution.IsOptimal() {
		schedule, err := model.Extract(m, assignment)
		if err != nil || model.Verify(m.Instance, schedule) != nil {
			return engine.Verdict{Status: engine.Unknown}
		}
	}

	verdict := engine.Verdict{Status: engine.Feasible, Assignment: assignment}
	if m.Objective != nil {
		objective := solution.Value(devCol)
		verdict.Objective = &objective
		verdict.Optimal = solution.IsOptimal()
	}
	return verdict
}

// column maps an indicator to its 0-based column
func column(v model.Var) int { return int(v) - 1 }

// Translate builds the integer program of a model. Indicators are binary columns
// in Var order; each cardinality constraint is one row. With an objective, team
// home counts and the deviation bound follow the indicators and devCol is the
// objective column, else devCol is -1.
func Translate(m *model.Model) (program *highs.Model, devCol int) {
	indicators := m.NumIndicators()

	program = &highs.Model{
		ColCosts: make([]float64, indicators),
		ColLower: make([]float64, indicators),
		ColUpper: make([]float64, indicators),
		VarTypes: make([]highs.VariableType, indicators),
	}
	for col := range indicators {
		program.ColUpper[col] = 1
		program.VarTypes[col] = highs.Integer
	}
	for _, pinned := range m.Pinned {
		program.ColLower[column(pinned)] = 1
	}

	for _, constraint := range m.Constraints {
		cols := make([]int, len(constraint.Vars))
		vals := make([]float64, len(constraint.Vars))
		for i, v := range constraint.Vars {
			cols[i] = column(v)
			vals[i] = 1
		}
		program.AddSparseRow(float64(constraint.Min), cols, vals, float64(constraint.Max))
	}

	devCol = -1
	if m.Objective == nil {
		return program, devCol
	}

	// home_t - Sum(HomeGames[t]) = 0, home_t integer in [0, n-1]
	teams := len(m.Objective.HomeGames)
	homeCol := indicators
	for t, homeGames := range m.Objective.HomeGames {
		program.ColCosts = append(program.ColCosts, 0)
		program.ColLower = append(program.ColLower, 0)
		program.ColUpper = append(program.ColUpper, float64(m.Instance.Weeks()))
		program.VarTypes = append(program.VarTypes, highs.Integer)

		cols := append([]int{homeCol + t}, make([]int, len(homeGames))...)
		vals := append([]float64{1}, make([]float64, len(homeGames))...)
		for i, v := range homeGames {
			cols[i+1] = column(v)
			vals[i+1] = -1
		}
		program.AddSparseRow(0, cols, vals, 0)
	}

	// dev >= |home_t - ideal|, continuous and minimized
	devCol = homeCol + teams
	program.ColCosts = append(program.ColCosts, 1)
	program.ColLower = append(program.ColLower, 0)
	program.ColUpper = append(program.ColUpper, highs.Inf())
	program.VarTypes = append(program.VarTypes, highs.Continuous)

	ideal := m.Objective.Ideal
	for t := range teams {
		program.AddSparseRow(highs.NegInf(), []int{homeCol + t, devCol}, []float64{1, -1}, ideal)
		program.AddSparseRow(highs.NegInf(), []int{homeCol + t, devCol}, []float64{-1, -1}, -ideal)
	}
	return program, devCol
}
