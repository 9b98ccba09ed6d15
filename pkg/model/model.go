package model

import (
	"sync"

	"github.com/samber/lo"
)

// PeriodCap is the maximum number of appearances of a team in one period across the tournament
const PeriodCap = 2

// Var is a 1-based match indicator id. It is shared by every back-end and doubles as the DIMACS variable.
type Var int

// Cardinality states Min <= Sum(Vars) <= Max over Boolean indicators
type Cardinality struct {
	Name string
	Vars []Var
	Min  int
	Max  int
}

// Objective describes the home/away balance objective:
// minimize max_t |home_t - Ideal|, where home_t = Sum(HomeGames[t])
type Objective struct {
	HomeGames [][]Var
	Ideal     float64
}

type BuildOptions struct {
	SymmetryBreaking bool
	Optimize         bool
}

// Model is the canonical constraint model of an instance. Every paradigm translates
// the same cardinality constraints, pins and objective.
type Model struct {
	Instance    Instance
	Constraints []Cardinality
	// Pinned indicators are fixed to true
	Pinned []Var
	// Objective is nil for decision runs
	Objective *Objective

	indexer indexer
}

func Build(instance Instance, options BuildOptions) (*Model, error) {
	if _, err := NewInstance(instance.N); err != nil {
		return nil, err
	}

	indexer := newIndexer(instance.N, instance.Periods(), instance.Weeks())
	state := constraintState{
		indexer: indexer,
		teams:   instance.N,
		periods: instance.Periods(),
		weeks:   instance.Weeks(),
	}

	model := &Model{
		Instance:    instance,
		Constraints: buildConstraints(state, []func(state constraintState) []Cardinality{
			slotConstraints,
			teamWeekConstraints,
			pairConstraints,
			periodCapConstraints,
		}),
		indexer: indexer,
	}

	// Any schedule can be relabelled so that team 0 hosts team n-1 in the first slot
	if options.SymmetryBreaking {
		model.Pinned = append(model.Pinned, indexer.Index(0, instance.N-1, 0, 0))
	}

	if options.Optimize {
		model.Objective = balanceObjective(state)
	}

	return model, nil
}

// Execute generators on different goroutines; constraint order is kept stable
func buildConstraints(state constraintState, generators []func(state constraintState) []Cardinality) []Cardinality {
	results := make([][]Cardinality, len(generators))

	var wg sync.WaitGroup
	for i, generator := range generators {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = generator(state)
		}()
	}
	wg.Wait()

	return lo.Flatten(results)
}

func balanceObjective(state constraintState) *Objective {
	homeGames := make([][]Var, state.teams)
	for team := range state.teams {
		homeGames[team] = make([]Var, 0, (state.teams-1)*state.periods*state.weeks)
		for week := range state.weeks {
			for period := range state.periods {
				for away := range state.teams {
					if away != team {
						homeGames[team] = append(homeGames[team], state.indexer.Index(team, away, period, week))
					}
				}
			}
		}
	}
	return &Objective{
		HomeGames: homeGames,
		Ideal:     float64(state.teams-1) / 2,
	}
}

// Match returns the indicator of "home hosts away in period p of week w"
func (model *Model) Match(home, away, period, week int) Var {
	return model.indexer.Index(home, away, period, week)
}

// Attributes is the inverse of Match
func (model *Model) Attributes(v Var) (home, away, period, week int) {
	return model.indexer.Attributes(v)
}

// NumIndicators is the size of the match indicator domain
func (model *Model) NumIndicators() int {
	return model.indexer.Size()
}

// Slots returns the number of (period, week) slots
func (model *Model) Slots() int {
	return model.Instance.Slots()
}

// IndicatorsOfSlot returns every ordered-pair indicator of slot (period, week)
func (model *Model) IndicatorsOfSlot(period, week int) []Var {
	n := model.Instance.N
	vars := make([]Var, 0, n*(n-1))
	for home := range n {
		for away := range n {
			if home != away {
				vars = append(vars, model.indexer.Index(home, away, period, week))
			}
		}
	}
	return vars
}

// WithoutPins returns a shallow copy of the model with symmetry breaking removed
func (model *Model) WithoutPins() *Model {
	unpinned := *model
	unpinned.Pinned = nil
	return &unpinned
}
