package model

import (
	"fmt"
)

// Assignment is a truth assignment indexed by Var (index 0 is unused)
type Assignment []bool

func NewAssignment(model *Model) Assignment {
	return make(Assignment, model.NumIndicators()+1)
}

func (assignment Assignment) Holds(v Var) bool {
	return int(v) < len(assignment) && assignment[v]
}

// Schedule is a periods x weeks grid of [home, away] cells with 1-indexed teams
type Schedule [][][2]int

// InconsistencyError reports a slot whose true indicator count is not exactly one
type InconsistencyError struct {
	Period int
	Week   int
	Count  int
}

func (err *InconsistencyError) Error() string {
	return fmt.Sprintf("slot (period %d, week %d) has %d true match indicators", err.Period, err.Week, err.Count)
}

func (err *InconsistencyError) Unwrap() error {
	return ErrExtractionInconsistency
}

// Extract reconstructs the schedule from an assignment of the model's indicators
func Extract(model *Model, assignment Assignment) (Schedule, error) {
	periods, weeks := model.Instance.Periods(), model.Instance.Weeks()

	schedule := make(Schedule, periods)
	for period := range periods {
		schedule[period] = make([][2]int, weeks)
		for week := range weeks {
			count := 0
			for _, v := range model.IndicatorsOfSlot(period, week) {
				if !assignment.Holds(v) {
					continue
				}
				count++
				home, away, _, _ := model.Attributes(v)
				schedule[period][week] = [2]int{home + 1, away + 1}
			}
			if count != 1 {
				return nil, &InconsistencyError{Period: period, Week: week, Count: count}
			}
		}
	}
	return schedule, nil
}

// Verify checks that a schedule satisfies every tournament constraint
func Verify(instance Instance, schedule Schedule) error {
	if _, err := NewInstance(instance.N); err != nil {
		return err
	}
	n, periods, weeks := instance.N, instance.Periods(), instance.Weeks()
	if len(schedule) != periods {
		return fmt.Errorf("%w: expected %d periods, got %d", ErrExtractionInconsistency, periods, len(schedule))
	}

	met := make(map[[2]int]bool)
	weekly := make([][]int, weeks)
	for week := range weekly {
		weekly[week] = make([]int, n+1)
	}
	perPeriod := make([][]int, periods)

	for period, row := range schedule {
		if len(row) != weeks {
			return fmt.Errorf("%w: period %d has %d weeks, expected %d", ErrExtractionInconsistency, period, len(row), weeks)
		}
		perPeriod[period] = make([]int, n+1)
		for week, cell := range row {
			home, away := cell[0], cell[1]
			if home < 1 || home > n || away < 1 || away > n || home == away {
				return fmt.Errorf("%w: invalid match %v at period %d, week %d", ErrExtractionInconsistency, cell, period, week)
			}

			key := [2]int{min(home, away), max(home, away)}
			if met[key] {
				return fmt.Errorf("%w: teams %d and %d meet more than once", ErrExtractionInconsistency, key[0], key[1])
			}
			met[key] = true

			for _, team := range cell {
				if weekly[week][team]++; weekly[week][team] > 1 {
					return fmt.Errorf("%w: team %d plays more than once in week %d", ErrExtractionInconsistency, team, week)
				}
				if perPeriod[period][team]++; perPeriod[period][team] > PeriodCap {
					return fmt.Errorf("%w: team %d appears more than %d times in period %d", ErrExtractionInconsistency, team, PeriodCap, period)
				}
			}
		}
	}

	// Every pair met once and the grid holds n(n-1)/2 matches, so every team plays each week
	if len(met) != n*(n-1)/2 {
		return fmt.Errorf("%w: %d distinct pairs met, expected %d", ErrExtractionInconsistency, len(met), n*(n-1)/2)
	}
	return nil
}
