package cp

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/limaJavier/sts/internal/process"
	"github.com/limaJavier/sts/pkg/engine"
	"github.com/limaJavier/sts/pkg/model"
)

//go:embed models/*.mzn
var models embed.FS

// MiniZinc status markers
const (
	solutionPrefix = "SOL="
	searchComplete = "=========="
	unsatisfiable  = "=====UNSATISFIABLE====="
)

type minizincEngine struct {
	solver string
}

// NewGecodeEngine runs the tournament model through MiniZinc with the Gecode back-end
func NewGecodeEngine() engine.Engine {
	return &minizincEngine{solver: "gecode"}
}

// NewChuffedEngine runs the tournament model through MiniZinc with the Chuffed back-end
func NewChuffedEngine() engine.Engine {
	return &minizincEngine{solver: "chuffed"}
}

func (e *minizincEngine) Name() string { return e.solver }

func (e *minizincEngine) Paradigm() engine.Paradigm { return engine.CP }

func (e *minizincEngine) Solve(ctx context.Context, m *model.Model, opts engine.Options) (engine.Verdict, error) {
	minizincPath, err := process.Executable("minizinc")
	if err != nil {
		return engine.Verdict{}, fmt.Errorf("%w: %w", engine.ErrEngineUnavailable, err)
	}

	dir, err := os.MkdirTemp("", "sts-minizinc-*")
	if err != nil {
		return engine.Verdict{}, fmt.Errorf("failed to create model directory: %w", err)
	}
	defer os.RemoveAll(dir)

	if err := writeModels(dir); err != nil {
		return engine.Verdict{}, err
	}

	run, err := process.Run(ctx, opts.TimeLimit, nil, minizincPath, e.arguments(m, opts, dir)...)
	if err != nil {
		return engine.Verdict{}, fmt.Errorf("an error occurred during minizinc execution: %w", err)
	}

	stderr := run.Stderr.String()
	if strings.Contains(stderr, "no solver with tag") {
		return engine.Verdict{}, fmt.Errorf("%w: minizinc has no %v back-end", engine.ErrEngineUnavailable, e.solver)
	}

	verdict, err := parseOutput(m, run.Stdout.String())
	if err != nil {
		return engine.Verdict{}, err
	}
	if verdict.Status == engine.Unknown && !run.Killed && run.ExitCode != 0 {
		return engine.Verdict{}, fmt.Errorf("an error occurred during minizinc execution: exit code %d: %v", run.ExitCode, stderr)
	}
	return verdict, nil
}

func (e *minizincEngine) arguments(m *model.Model, opts engine.Options, dir string) []string {
	goal := "satisfy.mzn"
	if m.Objective != nil {
		goal = "balance.mzn"
	}
	symmetry := slices.Contains(m.Pinned, m.Match(0, m.Instance.N-1, 0, 0))

	args := []string{
		"--solver", e.solver,
		"--time-limit", strconv.FormatInt(opts.TimeLimit.Milliseconds(), 10),
		"-D", fmt.Sprintf("n=%d;symmetry=%t;", m.Instance.N, symmetry),
	}
	if m.Objective != nil {
		args = append(args, "--intermediate-solutions")
	}
	if opts.Threads > 1 {
		args = append(args, "-p", strconv.Itoa(opts.Threads))
	}
	return append(args, filepath.Join(dir, "sts.mzn"), filepath.Join(dir, goal))
}

func writeModels(dir string) error {
	entries, err := models.ReadDir("models")
	if err != nil {
		return err
	}
	for _, entry := range entries {
		content, err := models.ReadFile("models/" + entry.Name())
		if err != nil {
			return err
		}
		if err := os.WriteFile(filepath.Join(dir, entry.Name()), content, 0o644); err != nil {
			return fmt.Errorf("failed to write %v: %w", entry.Name(), err)
		}
	}
	return nil
}

// parseOutput classifies a MiniZinc run from its standard output. The last
// printed solution is the best one; a complete search proves it optimal.
func parseOutput(m *model.Model, output string) (engine.Verdict, error) {
	if strings.Contains(output, unsatisfiable) {
		return engine.Verdict{Status: engine.Infeasible}, nil
	}

	var last string
	for line := range strings.Lines(output) {
		if strings.HasPrefix(line, solutionPrefix) {
			last = strings.TrimSpace(strings.TrimPrefix(line, solutionPrefix))
		}
	}
	if last == "" {
		return engine.Verdict{Status: engine.Unknown}, nil
	}

	var schedule model.Schedule
	if err := json.Unmarshal([]byte(last), &schedule); err != nil {
		return engine.Verdict{}, fmt.Errorf("unexpected minizinc solution %q: %w", last, err)
	}

	assignment, err := toAssignment(m, schedule)
	if err != nil {
		return engine.Verdict{}, err
	}

	verdict := engine.Verdict{Status: engine.Feasible, Assignment: assignment}
	if m.Objective != nil {
		objective := model.BalanceOf(m.Instance, schedule)
		verdict.Objective = &objective
		verdict.Optimal = strings.Contains(output, searchComplete)
	}
	return verdict, nil
}

func toAssignment(m *model.Model, schedule model.Schedule) (model.Assignment, error) {
	n := m.Instance.N
	if len(schedule) != m.Instance.Periods() {
		return nil, fmt.Errorf("%w: minizinc solution has %d periods", model.ErrExtractionInconsistency, len(schedule))
	}

	assignment := model.NewAssignment(m)
	for period, row := range schedule {
		if len(row) != m.Instance.Weeks() {
			return nil, fmt.Errorf("%w: minizinc solution has %d weeks in period %d", model.ErrExtractionInconsistency, len(row), period)
		}
		for week, match := range row {
			home, away := match[0]-1, match[1]-1
			if home < 0 || home >= n || away < 0 || away >= n || home == away {
				return nil, fmt.Errorf("%w: invalid match %v at period %d, week %d", model.ErrExtractionInconsistency, match, period, week)
			}
			assignment[m.Match(home, away, period, week)] = true
		}
	}
	return assignment, nil
}
