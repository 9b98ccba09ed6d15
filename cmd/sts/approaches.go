package main

import (
	"fmt"
	"slices"
	"strings"

	"github.com/limaJavier/sts/pkg/cp"
	"github.com/limaJavier/sts/pkg/engine"
	"github.com/limaJavier/sts/pkg/mip"
	"github.com/limaJavier/sts/pkg/sat"
	"github.com/samber/lo"
)

// approaches maps approach names to engine constructors per paradigm
var approaches = map[engine.Paradigm]map[string]func() engine.Engine{
	engine.SAT: lo.MapValues(sat.Solvers, func(solver func() sat.SATSolver, _ string) func() engine.Engine {
		return func() engine.Engine { return engine.NewSATEngine(solver()) }
	}),
	engine.CP: {
		"gokanlogic": cp.NewGokanlogicEngine,
		"gecode":     cp.NewGecodeEngine,
		"chuffed":    cp.NewChuffedEngine,
	},
	engine.MIP: {
		"highs": mip.NewHighsEngine,
	},
}

// engines resolves approach names of a paradigm; "all" selects every approach
func engines(paradigm engine.Paradigm, names []string) ([]engine.Engine, error) {
	available := lo.Keys(approaches[paradigm])
	slices.Sort(available)

	if slices.Contains(names, "all") {
		names = available
	}

	selected := make([]engine.Engine, 0, len(names))
	for _, name := range names {
		constructor, ok := approaches[paradigm][strings.ToLower(name)]
		if !ok {
			return nil, fmt.Errorf("%v is not a valid %v approach, expected one of %v", name, paradigm, strings.Join(available, ", "))
		}
		selected = append(selected, constructor())
	}
	return selected, nil
}
