// Package runner drives instances through model building, solving, extraction
// and recording.
package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/limaJavier/sts/pkg/engine"
	"github.com/limaJavier/sts/pkg/model"
	"github.com/limaJavier/sts/pkg/result"
	"go.uber.org/zap"
)

type Options struct {
	Build  model.BuildOptions
	Engine engine.Options
}

// Outcome is the result of one (n, approach) run
type Outcome struct {
	N        int
	Approach string
	Paradigm engine.Paradigm
	Status   engine.Status
	Result   result.ApproachResult
	// Path of the result file the outcome was recorded in
	Path string
}

type Summary struct {
	Outcomes []Outcome
	Failures int
}

type Runner struct {
	recorder *result.Recorder
	logger   *zap.Logger
	out      io.Writer
	options  Options
}

// New returns a runner printing status lines to out. Every runner tags its logs
// with a fresh run id.
func New(recorder *result.Recorder, logger *zap.Logger, out io.Writer, options Options) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	options.Engine = options.Engine.WithDefaults()
	return &Runner{
		recorder: recorder,
		logger:   logger.With(zap.String("run", uuid.NewString())),
		out:      out,
		options:  options,
	}
}

// Run solves every n with every approach. A failed run is logged and counted;
// the batch moves on to the next one.
func (runner *Runner) Run(ctx context.Context, ns []int, approaches []engine.Engine) Summary {
	var summary Summary

	for i, n := range ns {
		if len(ns) > 1 {
			fmt.Fprintf(runner.out, "Progress: %d/%d\n", i+1, len(ns))
		}

		for _, approach := range approaches {
			if ctx.Err() != nil {
				return summary
			}

			outcome, err := runner.Solve(ctx, n, approach)
			if err != nil && ctx.Err() != nil {
				runner.logger.Warn("batch interrupted", zap.Int("n", n), zap.String("approach", approach.Name()))
				return summary
			}
			if err != nil {
				summary.Failures++
				runner.logger.Error("run failed",
					zap.Int("n", n),
					zap.String("approach", approach.Name()),
					zap.Error(err),
				)
				fmt.Fprintf(runner.out, "[%v] n=%d, approach=%v, failed: %v\n", approach.Paradigm(), n, approach.Name(), err)
				continue
			}
			summary.Outcomes = append(summary.Outcomes, outcome)
		}
	}

	if len(ns) > 1 {
		fmt.Fprintf(runner.out, "Completed all %d instances\n", len(ns))
	}
	return summary
}

// Solve runs one approach on one instance and records the outcome
func (runner *Runner) Solve(ctx context.Context, n int, approach engine.Engine) (Outcome, error) {
	logger := runner.logger.With(zap.Int("n", n), zap.String("approach", approach.Name()))
	budget := runner.options.Engine.TimeLimit

	//** Build model
	instance, err := model.NewInstance(n)
	if err != nil {
		return Outcome{}, err
	}
	m, err := model.Build(instance, runner.options.Build)
	if err != nil {
		return Outcome{}, err
	}
	logger.Debug("model built",
		zap.Int("indicators", m.NumIndicators()),
		zap.Int("constraints", len(m.Constraints)),
		zap.Int("pinned", len(m.Pinned)),
	)

	//** Solve model
	verdict, elapsed, err := engine.Solve(ctx, approach, m, runner.options.Engine)
	if err != nil {
		return Outcome{}, err
	}

	// A proof of infeasibility must not depend on the pinned match
	if verdict.Status == engine.Infeasible && len(m.Pinned) > 0 {
		logger.Info("infeasible with symmetry breaking, solving again without it")
		m = m.WithoutPins()

		options := runner.options.Engine
		options.TimeLimit = budget - elapsed
		if options.TimeLimit <= 0 {
			verdict = engine.Verdict{Status: engine.Unknown}
		} else {
			var retry time.Duration
			verdict, retry, err = engine.Solve(ctx, approach, m, options)
			if err != nil {
				return Outcome{}, err
			}
			elapsed += retry
		}
	}
	// An interrupted run did not time out and is not recorded
	if ctx.Err() != nil {
		return Outcome{}, fmt.Errorf("run interrupted: %w", ctx.Err())
	}
	logger.Debug("engine returned", zap.Stringer("status", verdict.Status), zap.Duration("elapsed", elapsed))

	//** Extract schedule
	var schedule model.Schedule
	if verdict.Status == engine.Feasible {
		schedule, err = runner.extract(m, &verdict)
		if err != nil {
			return Outcome{}, err
		}
	}

	//** Record outcome
	res := result.FromVerdict(verdict, elapsed, budget, schedule)
	path, err := runner.recorder.Record(approach.Paradigm(), n, approach.Name(), res)
	if err != nil {
		return Outcome{}, err
	}

	fmt.Fprintf(runner.out, "[%v] n=%d, approach=%v, result=%v, time=%ds → %v\n",
		approach.Paradigm(), n, approach.Name(), verdict.Status, res.Time, path)

	return Outcome{
		N:        n,
		Approach: approach.Name(),
		Paradigm: approach.Paradigm(),
		Status:   verdict.Status,
		Result:   res,
		Path:     path,
	}, nil
}

// extract reconstructs and verifies the schedule of a feasible verdict. Optimization
// runs on engines without a native objective get their matches reoriented by Balance.
func (runner *Runner) extract(m *model.Model, verdict *engine.Verdict) (model.Schedule, error) {
	schedule, err := model.Extract(m, verdict.Assignment)
	if err != nil {
		return nil, err
	}
	if err := model.Verify(m.Instance, schedule); err != nil {
		return nil, err
	}

	if m.Objective == nil || verdict.Objective != nil {
		return schedule, nil
	}

	balanced, err := model.Balance(m.Instance, schedule)
	if err != nil {
		return nil, errors.Join(model.ErrExtractionInconsistency, err)
	}
	if err := model.Verify(m.Instance, balanced); err != nil {
		return nil, err
	}

	objective := model.BalanceOf(m.Instance, balanced)
	verdict.Objective = &objective
	verdict.Optimal = objective <= model.BalanceLowerBound(m.Instance)
	return balanced, nil
}
