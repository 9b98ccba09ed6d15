package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/limaJavier/sts/pkg/model"
)

var ErrEngineUnavailable = errors.New("engine unavailable")

// DefaultTimeLimit is the solving budget of every approach
const DefaultTimeLimit = 300 * time.Second

// MaxTimeLimit bounds the budget and every recorded time
const MaxTimeLimit = 300 * time.Second

// DefaultGrace is added to the budget to form the hard ceiling
const DefaultGrace = 10 * time.Second

type Paradigm string

const (
	SAT Paradigm = "SAT"
	CP  Paradigm = "CP"
	MIP Paradigm = "MIP"
)

var Paradigms = []Paradigm{SAT, CP, MIP}

func ParseParadigm(value string) (Paradigm, error) {
	paradigm := Paradigm(strings.ToUpper(value))
	switch paradigm {
	case SAT, CP, MIP:
		return paradigm, nil
	}
	return "", fmt.Errorf("unknown paradigm %q, expected one of SAT, CP, MIP", value)
}

type Status int

const (
	Unknown Status = iota
	Feasible
	Infeasible
)

func (status Status) String() string {
	switch status {
	case Feasible:
		return "sat"
	case Infeasible:
		return "unsat"
	default:
		return "unknown"
	}
}

// Verdict is the classified outcome of one engine run
type Verdict struct {
	Status Status
	// Assignment of the model's indicators, set when Status is Feasible
	Assignment model.Assignment
	// Objective is set when the engine optimized the model's objective
	Objective *float64
	// Optimal reports that Objective was proven optimal
	Optimal bool
}

type Options struct {
	TimeLimit time.Duration
	// Hard ceiling beyond TimeLimit after which the run is abandoned
	Grace   time.Duration
	Threads int
}

// WithDefaults fills unset options with their defaults
func (options Options) WithDefaults() Options {
	if options.TimeLimit <= 0 {
		options.TimeLimit = DefaultTimeLimit
	}
	if options.Grace <= 0 {
		options.Grace = DefaultGrace
	}
	if options.Threads <= 0 {
		options.Threads = 1
	}
	return options
}

// Engine solves canonical models with one solving back-end
type Engine interface {
	Name() string
	Paradigm() Paradigm
	// Solve must honor opts.TimeLimit cooperatively and report Unknown when it is reached
	Solve(ctx context.Context, m *model.Model, opts Options) (Verdict, error)
}

// Solve runs an engine under a hard ceiling of TimeLimit + Grace and measures the
// elapsed wall-clock time. An engine that does not return before the ceiling is
// reported as Unknown; subprocess engines are killed through ctx, in-process engines
// are abandoned.
func Solve(ctx context.Context, engine Engine, m *model.Model, opts Options) (Verdict, time.Duration, error) {
	opts = opts.WithDefaults()

	ctx, cancel := context.WithTimeout(ctx, opts.TimeLimit+opts.Grace)
	defer cancel()

	type outcome struct {
		verdict Verdict
		err     error
	}
	done := make(chan outcome, 1)

	start := time.Now()
	go func() {
		verdict, err := engine.Solve(ctx, m, opts)
		done <- outcome{verdict, err}
	}()

	select {
	case result := <-done:
		elapsed := time.Since(start)
		if result.err != nil {
			return Verdict{}, elapsed, fmt.Errorf("%v: %w", engine.Name(), result.err)
		}
		return result.verdict, elapsed, nil
	case <-ctx.Done():
		return Verdict{Status: Unknown}, time.Since(start), nil
	}
}
