package sat

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

// SATSolution is the list of literals of a model, one per variable (positive = true)
type SATSolution []int64

type SAT struct {
	Variables uint64
	Clauses   [][]int64
}

func (s SAT) ToDIMACS() string {
	var builder strings.Builder
	s.WriteDIMACS(&builder)
	return builder.String()
}

// WriteDIMACS streams the instance in DIMACS-CNF format
func (s SAT) WriteDIMACS(w io.Writer) error {
	buffer := make([]byte, 0, 64)
	if _, err := fmt.Fprintf(w, "p cnf %d %d\n", s.Variables, len(s.Clauses)); err != nil {
		return err
	}
	for _, clause := range s.Clauses {
		buffer = buffer[:0]
		for _, literal := range clause {
			buffer = strconv.AppendInt(buffer, literal, 10)
			buffer = append(buffer, ' ')
		}
		buffer = append(buffer, '0', '\n')
		if _, err := w.Write(buffer); err != nil {
			return err
		}
	}
	return nil
}

// Holds reports whether variable v is true in the solution
func (solution SATSolution) Holds(v int64) bool {
	if v <= 0 || v > int64(len(solution)) {
		return false
	}
	return solution[v-1] > 0
}
