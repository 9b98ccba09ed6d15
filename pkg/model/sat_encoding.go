package model

import (
	"sync"

	"github.com/limaJavier/sts/pkg/sat"
)

// ToSAT encodes the model as CNF. Indicators keep their ids; auxiliary counter
// variables are numbered after them.
func (model *Model) ToSAT() sat.SAT {
	// Reserve auxiliary variables up front so constraints can be encoded concurrently
	offsets := make([]int64, len(model.Constraints))
	next := int64(model.NumIndicators()) + 1
	for i, constraint := range model.Constraints {
		offsets[i] = next
		next += int64(auxiliaryVariables(constraint))
	}

	encoded := make([][][]int64, len(model.Constraints))
	var wg sync.WaitGroup
	for i, constraint := range model.Constraints {
		wg.Add(1)
		go func() {
			defer wg.Done()
			encoded[i] = encodeCardinality(constraint, offsets[i])
		}()
	}
	wg.Wait()

	satInstance := sat.SAT{
		Variables: uint64(next - 1),
		Clauses:   make([][]int64, 0, len(model.Pinned)),
	}
	for _, pinned := range model.Pinned {
		satInstance.Clauses = append(satInstance.Clauses, []int64{int64(pinned)})
	}
	for _, clauses := range encoded {
		satInstance.Clauses = append(satInstance.Clauses, clauses...)
	}
	return satInstance
}

func literals(vars []Var) []int64 {
	lits := make([]int64, len(vars))
	for i, v := range vars {
		lits[i] = int64(v)
	}
	return lits
}

func negate(lits []int64) []int64 {
	negated := make([]int64, len(lits))
	for i, lit := range lits {
		negated[i] = -lit
	}
	return negated
}

// Upper bound of the at-least part is rewritten as an at-most over negated literals
func auxiliaryVariables(constraint Cardinality) int {
	size := len(constraint.Vars)
	total := sequentialCounterSize(size, constraint.Max)
	if constraint.Min > 1 {
		total += sequentialCounterSize(size, size-constraint.Min)
	}
	return total
}

func encodeCardinality(constraint Cardinality, offset int64) [][]int64 {
	lits := literals(constraint.Vars)
	clauses := make([][]int64, 0)

	switch {
	case constraint.Min == 1:
		clauses = append(clauses, lits)
	case constraint.Min > len(lits):
		return [][]int64{{}}
	}

	clauses = append(clauses, AtMost(lits, constraint.Max, offset)...)

	if constraint.Min > 1 {
		offset += int64(sequentialCounterSize(len(lits), constraint.Max))
		clauses = append(clauses, AtMost(negate(lits), len(lits)-constraint.Min, offset)...)
	}
	return clauses
}

func sequentialCounterSize(size, k int) int {
	if k <= 0 || k >= size {
		return 0
	}
	return (size - 1) * k
}

// AtMost encodes Sum(lits) <= k with a sequential counter (Sinz, 2005). Register
// s(i,j) means "at least j of the first i literals are true"; it is numbered
// offset + i*k + j for i in [0, n-1) and j in [0, k).
func AtMost(lits []int64, k int, offset int64) [][]int64 {
	n := len(lits)
	if k >= n {
		return nil
	}
	if k <= 0 {
		clauses := make([][]int64, n)
		for i, lit := range lits {
			clauses[i] = []int64{-lit}
		}
		return clauses
	}

	s := func(i, j int) int64 { return offset + int64(i*k+j) }
	clauses := make([][]int64, 0, 2*n*k+n)

	// x1 -> s(1,1); not s(1,j) for j > 1
	clauses = append(clauses, []int64{-lits[0], s(0, 0)})
	for j := 1; j < k; j++ {
		clauses = append(clauses, []int64{-s(0, j)})
	}

	for i := 1; i < n-1; i++ {
		clauses = append(clauses,
			[]int64{-lits[i], s(i, 0)},
			[]int64{-s(i-1, 0), s(i, 0)},
		)
		for j := 1; j < k; j++ {
			clauses = append(clauses,
				[]int64{-lits[i], -s(i-1, j-1), s(i, j)},
				[]int64{-s(i-1, j), s(i, j)},
			)
		}
		// Overflow
		clauses = append(clauses, []int64{-lits[i], -s(i-1, k-1)})
	}

	clauses = append(clauses, []int64{-lits[n-1], -s(n-2, k-1)})
	return clauses
}
