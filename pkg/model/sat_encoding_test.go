package model

import (
	"context"
	"testing"
	"time"

	"github.com/limaJavier/sts/pkg/sat"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// satisfiable brute-forces the auxiliary variables of clauses once the first
// len(fixed) variables are fixed
func satisfiable(clauses [][]int64, fixed []bool, variables int) bool {
	free := variables - len(fixed)
	for mask := range 1 << free {
		value := func(lit int64) bool {
			v := int(max(lit, -lit))
			var truth bool
			if v <= len(fixed) {
				truth = fixed[v-1]
			} else {
				truth = mask&(1<<(v-len(fixed)-1)) != 0
			}
			return truth == (lit > 0)
		}

		all := true
		for _, clause := range clauses {
			some := false
			for _, lit := range clause {
				if value(lit) {
					some = true
					break
				}
			}
			if !some {
				all = false
				break
			}
		}
		if all {
			return true
		}
	}
	return false
}

func TestAtMostExhaustive(t *testing.T) {
	for n := 1; n <= 5; n++ {
		for k := 0; k <= n; k++ {
			// Arrange
			lits := make([]int64, n)
			for i := range lits {
				lits[i] = int64(i + 1)
			}

			// Act
			clauses := AtMost(lits, k, int64(n+1))

			// Assert
			variables := n + sequentialCounterSize(n, k)
			for mask := range 1 << n {
				fixed := make([]bool, n)
				count := 0
				for i := range fixed {
					fixed[i] = mask&(1<<i) != 0
					if fixed[i] {
						count++
					}
				}
				assert.Equal(t, count <= k, satisfiable(clauses, fixed, variables), "n=%d k=%d x=%v", n, k, fixed)
			}
		}
	}
}

func TestEncodeCardinality(t *testing.T) {
	scenarios := []struct {
		name     string
		min, max int
	}{
		{"Exactly one", 1, 1},
		{"At most two", 0, 2},
		{"Between two and three", 2, 3},
		{"Exactly four", 4, 4},
	}

	for _, scenario := range scenarios {
		t.Run(scenario.name, func(t *testing.T) {
			//** Arrange
			constraint := Cardinality{Vars: []Var{1, 2, 3, 4}, Min: scenario.min, Max: scenario.max}

			//** Act
			clauses := encodeCardinality(constraint, 5)

			//** Assert
			variables := 4 + auxiliaryVariables(constraint)
			for mask := range 1 << 4 {
				fixed := make([]bool, 4)
				count := 0
				for i := range fixed {
					fixed[i] = mask&(1<<i) != 0
					if fixed[i] {
						count++
					}
				}
				expected := scenario.min <= count && count <= scenario.max
				assert.Equal(t, expected, satisfiable(clauses, fixed, variables), "x=%v", fixed)
			}
		})
	}
}

func TestUnreachableMinimum(t *testing.T) {
	clauses := encodeCardinality(Cardinality{Vars: []Var{1, 2}, Min: 3, Max: 3}, 3)

	assert.Equal(t, [][]int64{{}}, clauses)
}

func TestToSAT(t *testing.T) {
	//** Arrange
	m := mustBuild(t, 6, BuildOptions{SymmetryBreaking: true})

	//** Act
	instance := m.ToSAT()

	//** Assert
	assert.GreaterOrEqual(t, instance.Variables, uint64(m.NumIndicators()))
	assert.Equal(t, []int64{int64(m.Pinned[0])}, instance.Clauses[0])
	for _, clause := range instance.Clauses {
		for _, lit := range clause {
			assert.LessOrEqual(t, uint64(max(lit, -lit)), instance.Variables)
		}
	}
}

func TestToSATSolutionsAreSchedules(t *testing.T) {
	for _, n := range []int{2, 6, 8} {
		//** Arrange
		m := mustBuild(t, n, BuildOptions{SymmetryBreaking: true})

		//** Act
		res, err := sat.NewGiniSolver().Solve(context.Background(), m.ToSAT(), 30*time.Second)

		//** Assert
		require.NoError(t, err)
		require.Equal(t, sat.Satisfiable, res.Status, "n=%d", n)
		assignment := NewAssignment(m)
		for v := 1; v < len(assignment); v++ {
			assignment[v] = res.Solution.Holds(int64(v))
		}
		schedule, err := Extract(m, assignment)
		require.NoError(t, err)
		assert.NoError(t, Verify(m.Instance, schedule))
	}
}
