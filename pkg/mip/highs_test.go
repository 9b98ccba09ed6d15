package mip

import (
	"context"
	"testing"
	"time"

	"github.com/bartolsthoorn/gohighs/highs"
	"github.com/limaJavier/sts/pkg/engine"
	"github.com/limaJavier/sts/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testOptions = engine.Options{TimeLimit: 60 * time.Second, Threads: 1}

func build(t *testing.T, n int, options model.BuildOptions) *model.Model {
	instance, err := model.NewInstance(n)
	require.NoError(t, err)
	m, err := model.Build(instance, options)
	require.NoError(t, err)
	return m
}

func TestTranslate(t *testing.T) {
	t.Run("Decision", func(t *testing.T) {
		//** Arrange
		m := build(t, 6, model.BuildOptions{SymmetryBreaking: true})

		//** Act
		program, devCol := Translate(m)

		//** Assert
		assert.Equal(t, -1, devCol)
		assert.Len(t, program.ColCosts, m.NumIndicators())
		assert.Len(t, program.RowLower, len(m.Constraints))
		assert.Equal(t, 1.0, program.ColLower[column(m.Pinned[0])])
	})

	t.Run("Optimization", func(t *testing.T) {
		//** Arrange
		m := build(t, 6, model.BuildOptions{Optimize: true})

		//** Act
		program, devCol := Translate(m)

		//** Assert
		assert.Equal(t, m.NumIndicators()+6, devCol)
		assert.Len(t, program.ColCosts, devCol+1)
		assert.Equal(t, 1.0, program.ColCosts[devCol])
		// cardinalities, one home count per team, two deviation rows per team
		assert.Len(t, program.RowLower, len(m.Constraints)+3*6)
	})
}

func TestHighs(t *testing.T) {
	solver := NewHighsEngine()

	scenarios := []struct {
		n        int
		expected engine.Status
	}{
		{2, engine.Feasible},
		{4, engine.Infeasible},
		{6, engine.Feasible},
	}

	for _, scenario := range scenarios {
		//** Arrange
		m := build(t, scenario.n, model.BuildOptions{SymmetryBreaking: true})

		//** Act
		verdict, _, err := engine.Solve(context.Background(), solver, m, testOptions)

		//** Assert
		require.NoError(t, err)
		require.Equal(t, scenario.expected, verdict.Status, "n=%d", scenario.n)
		assert.Nil(t, verdict.Objective)
		if scenario.expected == engine.Feasible {
			schedule, err := model.Extract(m, verdict.Assignment)
			require.NoError(t, err)
			assert.NoError(t, model.Verify(m.Instance, schedule))
		}
	}
}

func TestHighsOptimization(t *testing.T) {
	//** Arrange
	m := build(t, 6, model.BuildOptions{SymmetryBreaking: true, Optimize: true})

	//** Act
	verdict, _, err := engine.Solve(context.Background(), NewHighsEngine(), m, testOptions)

	//** Assert
	require.NoError(t, err)
	require.Equal(t, engine.Feasible, verdict.Status)
	require.NotNil(t, verdict.Objective)
	assert.True(t, verdict.Optimal)
	assert.InDelta(t, model.BalanceLowerBound(m.Instance), *verdict.Objective, 1e-6)

	schedule, err := model.Extract(m, verdict.Assignment)
	require.NoError(t, err)
	assert.InDelta(t, *verdict.Objective, model.BalanceOf(m.Instance, schedule), 1e-6)
}

// sixTeams is a valid n=6 schedule (periods x weeks)
var sixTeams = model.Schedule{
	{{1, 6}, {1, 5}, {5, 3}, {4, 2}, {3, 6}},
	{{2, 5}, {6, 4}, {6, 2}, {1, 3}, {4, 5}},
	{{3, 4}, {2, 3}, {1, 4}, {5, 6}, {1, 2}},
}

func columnValues(m *model.Model, cols int, schedule model.Schedule) []float64 {
	values := make([]float64, cols)
	for period, row := range schedule {
		for week, match := range row {
			values[column(m.Match(match[0]-1, match[1]-1, period, week))] = 1
		}
	}
	return values
}

func TestVerdictOfTimeLimit(t *testing.T) {
	t.Run("Optimization without incumbent", func(t *testing.T) {
		//** Arrange
		m := build(t, 6, model.BuildOptions{Optimize: true})
		program, devCol := Translate(m)
		solution := &highs.Solution{Status: highs.ModelStatusTimeLimit, ColValues: make([]float64, len(program.ColCosts))}

		//** Act
		verdict := verdictOf(m, solution, devCol)

		//** Assert
		assert.Equal(t, engine.Unknown, verdict.Status)
		assert.Nil(t, verdict.Objective)
	})

	t.Run("Optimization with incumbent", func(t *testing.T) {
		//** Arrange
		m := build(t, 6, model.BuildOptions{Optimize: true})
		program, devCol := Translate(m)
		values := columnValues(m, len(program.ColCosts), sixTeams)
		values[devCol] = 1.5
		solution := &highs.Solution{Status: highs.ModelStatusTimeLimit, ColValues: values}

		//** Act
		verdict := verdictOf(m, solution, devCol)

		//** Assert
		require.Equal(t, engine.Feasible, verdict.Status)
		require.NotNil(t, verdict.Objective)
		assert.Equal(t, 1.5, *verdict.Objective)
		assert.False(t, verdict.Optimal)
		schedule, err := model.Extract(m, verdict.Assignment)
		require.NoError(t, err)
		assert.Equal(t, sixTeams, schedule)
	})

	t.Run("Decision with valid values", func(t *testing.T) {
		//** Arrange
		m := build(t, 6, model.BuildOptions{})
		program, devCol := Translate(m)
		solution := &highs.Solution{Status: highs.ModelStatusTimeLimit, ColValues: columnValues(m, len(program.ColCosts), sixTeams)}

		//** Act
		verdict := verdictOf(m, solution, devCol)

		//** Assert
		assert.Equal(t, engine.Feasible, verdict.Status)
		assert.Nil(t, verdict.Objective)
	})

	t.Run("Decision with partial values", func(t *testing.T) {
		//** Arrange
		m := build(t, 6, model.BuildOptions{})
		program, devCol := Translate(m)
		values := columnValues(m, len(program.ColCosts), sixTeams)
		values[column(m.Match(0, 5, 0, 0))] = 0
		solution := &highs.Solution{Status: highs.ModelStatusTimeLimit, ColValues: values}

		//** Act
		verdict := verdictOf(m, solution, devCol)

		//** Assert
		assert.Equal(t, engine.Unknown, verdict.Status)
	})
}
