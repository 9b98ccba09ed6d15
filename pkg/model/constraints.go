package model

import "fmt"

type constraintState struct {
	indexer indexer

	teams,
	periods,
	weeks int
}

// Sum_{i != j} M(i,j,p,w) = 1, for every slot (p,w)
func slotConstraints(state constraintState) []Cardinality {
	constraints := make([]Cardinality, 0, state.periods*state.weeks)
	for week := range state.weeks {
		for period := range state.periods {
			vars := make([]Var, 0, state.teams*(state.teams-1))
			for home := range state.teams {
				for away := range state.teams {
					if home == away {
						continue
					}
					vars = append(vars, state.indexer.Index(home, away, period, week))
				}
			}
			constraints = append(constraints, exactlyOne(fmt.Sprintf("slot(p=%d,w=%d)", period, week), vars))
		}
	}
	return constraints
}

// Sum_{p, j != t} M(t,j,p,w) + M(j,t,p,w) = 1, for every team t and week w
func teamWeekConstraints(state constraintState) []Cardinality {
	constraints := make([]Cardinality, 0, state.teams*state.weeks)
	for team := range state.teams {
		for week := range state.weeks {
			vars := make([]Var, 0, 2*(state.teams-1)*state.periods)
			for period := range state.periods {
				for other := range state.teams {
					if other == team {
						continue
					}
					vars = append(vars,
						state.indexer.Index(team, other, period, week),
						state.indexer.Index(other, team, period, week),
					)
				}
			}
			constraints = append(constraints, exactlyOne(fmt.Sprintf("team-week(t=%d,w=%d)", team, week), vars))
		}
	}
	return constraints
}

// Sum_{p,w} M(i,j,p,w) + M(j,i,p,w) = 1, for every unordered pair {i,j}
func pairConstraints(state constraintState) []Cardinality {
	constraints := make([]Cardinality, 0, state.teams*(state.teams-1)/2)
	for i := range state.teams {
		for j := i + 1; j < state.teams; j++ {
			vars := make([]Var, 0, 2*state.periods*state.weeks)
			for week := range state.weeks {
				for period := range state.periods {
					vars = append(vars,
						state.indexer.Index(i, j, period, week),
						state.indexer.Index(j, i, period, week),
					)
				}
			}
			constraints = append(constraints, exactlyOne(fmt.Sprintf("pair(%d,%d)", i, j), vars))
		}
	}
	return constraints
}

// Sum_{w, j != t} M(t,j,p,w) + M(j,t,p,w) <= 2, for every team t and period p
func periodCapConstraints(state constraintState) []Cardinality {
	constraints := make([]Cardinality, 0, state.teams*state.periods)
	for team := range state.teams {
		for period := range state.periods {
			vars := make([]Var, 0, 2*(state.teams-1)*state.weeks)
			for week := range state.weeks {
				for other := range state.teams {
					if other == team {
						continue
					}
					vars = append(vars,
						state.indexer.Index(team, other, period, week),
						state.indexer.Index(other, team, period, week),
					)
				}
			}
			constraints = append(constraints, Cardinality{
				Name: fmt.Sprintf("period-cap(t=%d,p=%d)", team, period),
				Vars: vars,
				Min:  0,
				Max:  PeriodCap,
			})
		}
	}
	return constraints
}

func exactlyOne(name string, vars []Var) Cardinality {
	return Cardinality{Name: name, Vars: vars, Min: 1, Max: 1}
}
