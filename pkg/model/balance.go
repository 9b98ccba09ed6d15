package model

import (
	"math"

	"github.com/onsi/gomega/matchers/support/goraph/bipartitegraph"
	"github.com/samber/lo"
)

type unorientableError struct {
}

func (err unorientableError) Error() string {
	return "not all matches can be assigned a host"
}

// BalanceLowerBound is the smallest reachable value of the balance objective:
// with n-1 odd no team can host exactly (n-1)/2 games
func BalanceLowerBound(instance Instance) float64 {
	ideal := float64(instance.Weeks()) / 2
	return math.Abs(math.Ceil(ideal) - ideal)
}

// Balance reorients the matches of a schedule so that every team hosts at most
// ceil((n-1)/2) games. Slots and pairings are untouched, so the result is still a
// valid schedule whose balance objective equals BalanceLowerBound.
func Balance(instance Instance, schedule Schedule) (Schedule, error) {
	type cell struct{ period, week int }
	capacity := (instance.Weeks() + 1) / 2

	cells := make([]cell, 0, instance.Slots())
	for period, row := range schedule {
		for week := range row {
			cells = append(cells, cell{period, week})
		}
	}

	// Every team offers capacity host slots: slot k of team t is t*capacity + k
	hosts := lo.Range(instance.N * capacity)

	neighbors := func(cellAny any, hostAny any) (bool, error) {
		c := cellAny.(cell)
		team := hostAny.(int)/capacity + 1
		match := schedule[c.period][c.week]
		return match[0] == team || match[1] == team, nil
	}

	cellsAny, hostsAny := lo.Map(cells, func(c cell, _ int) any { return c }), lo.Map(hosts, func(host int, _ int) any { return host })

	graph, err := bipartitegraph.NewBipartiteGraph(cellsAny, hostsAny, neighbors)
	if err != nil {
		return nil, err
	}

	matching := graph.LargestMatching()

	// Check every match received a host
	if len(matching) < len(cells) {
		return nil, unorientableError{}
	}

	balanced := make(Schedule, len(schedule))
	for period, row := range schedule {
		balanced[period] = make([][2]int, len(row))
		copy(balanced[period], row)
	}

	for _, edge := range matching {
		c, host := cells[edge.Node1], hosts[edge.Node2-len(cells)]
		team := host/capacity + 1

		match := balanced[c.period][c.week]
		if match[0] != team {
			balanced[c.period][c.week] = [2]int{match[1], match[0]}
		}
	}

	return balanced, nil
}

// BalanceOf evaluates the balance objective on a schedule
func BalanceOf(instance Instance, schedule Schedule) float64 {
	homes := make([]int, instance.N+1)
	for _, row := range schedule {
		for _, match := range row {
			homes[match[0]]++
		}
	}
	ideal := float64(instance.Weeks()) / 2
	return lo.Max(lo.Map(homes[1:], func(home int, _ int) float64 {
		return math.Abs(float64(home) - ideal)
	}))
}
