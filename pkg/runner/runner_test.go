package runner

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/limaJavier/sts/pkg/engine"
	"github.com/limaJavier/sts/pkg/model"
	"github.com/limaJavier/sts/pkg/result"
	"github.com/limaJavier/sts/pkg/sat"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeEngine replays canned verdicts and records the models it was given
type fakeEngine struct {
	verdicts []engine.Verdict
	err      error
	models   []*model.Model
}

func (e *fakeEngine) Name() string { return "fake" }

func (e *fakeEngine) Paradigm() engine.Paradigm { return engine.SAT }

func (e *fakeEngine) Solve(_ context.Context, m *model.Model, _ engine.Options) (engine.Verdict, error) {
	e.models = append(e.models, m)
	if e.err != nil {
		return engine.Verdict{}, e.err
	}
	verdict := e.verdicts[0]
	if len(e.verdicts) > 1 {
		e.verdicts = e.verdicts[1:]
	}
	return verdict, nil
}

func newRunner(t *testing.T, build model.BuildOptions) (*Runner, *result.Recorder, *bytes.Buffer) {
	recorder := result.NewRecorder(t.TempDir(), nil)
	out := &bytes.Buffer{}
	runner := New(recorder, nil, out, Options{
		Build:  build,
		Engine: engine.Options{TimeLimit: 30 * time.Second, Grace: time.Second},
	})
	return runner, recorder, out
}

func TestSolveWithGini(t *testing.T) {
	gini := engine.NewSATEngine(sat.NewGiniSolver())

	t.Run("Feasible instance", func(t *testing.T) {
		//** Arrange
		runner, recorder, out := newRunner(t, model.BuildOptions{SymmetryBreaking: true})

		//** Act
		outcome, err := runner.Solve(context.Background(), 6, gini)

		//** Assert
		require.NoError(t, err)
		assert.Equal(t, engine.Feasible, outcome.Status)
		assert.True(t, outcome.Result.Optimal)
		assert.Nil(t, outcome.Result.Obj)
		require.NoError(t, model.Verify(model.Instance{N: 6}, outcome.Result.Sol))
		assert.Equal(t, [2]int{1, 6}, outcome.Result.Sol[0][0])

		record, err := recorder.Load(engine.SAT, 6)
		require.NoError(t, err)
		assert.Equal(t, outcome.Result, record["gini"])
		assert.Contains(t, out.String(), "[SAT] n=6, approach=gini, result=sat")
	})

	t.Run("Infeasible instance", func(t *testing.T) {
		//** Arrange
		runner, _, out := newRunner(t, model.BuildOptions{SymmetryBreaking: true})

		//** Act
		outcome, err := runner.Solve(context.Background(), 4, gini)

		//** Assert
		require.NoError(t, err)
		assert.Equal(t, engine.Infeasible, outcome.Status)
		assert.True(t, outcome.Result.Optimal)
		assert.Nil(t, outcome.Result.Sol)
		assert.Contains(t, out.String(), "result=unsat")
	})

	t.Run("Optimization is balanced after solving", func(t *testing.T) {
		//** Arrange
		runner, _, _ := newRunner(t, model.BuildOptions{SymmetryBreaking: true, Optimize: true})

		//** Act
		outcome, err := runner.Solve(context.Background(), 6, gini)

		//** Assert
		require.NoError(t, err)
		require.NotNil(t, outcome.Result.Obj)
		assert.InDelta(t, 0.5, *outcome.Result.Obj, 1e-9)
		assert.True(t, outcome.Result.Optimal)
		assert.InDelta(t, 0.5, model.BalanceOf(model.Instance{N: 6}, outcome.Result.Sol), 1e-9)
	})
}

func TestInfeasibleWithPinIsSolvedAgain(t *testing.T) {
	//** Arrange
	runner, _, _ := newRunner(t, model.BuildOptions{SymmetryBreaking: true})
	fake := &fakeEngine{verdicts: []engine.Verdict{{Status: engine.Infeasible}, {Status: engine.Unknown}}}

	//** Act
	outcome, err := runner.Solve(context.Background(), 6, fake)

	//** Assert
	require.NoError(t, err)
	require.Len(t, fake.models, 2)
	assert.NotEmpty(t, fake.models[0].Pinned)
	assert.Empty(t, fake.models[1].Pinned)
	assert.Equal(t, engine.Unknown, outcome.Status)
	assert.Equal(t, result.ApproachResult{Time: 30}, outcome.Result)
}

func TestTimeoutIsRecordedAtBudget(t *testing.T) {
	//** Arrange
	runner, recorder, out := newRunner(t, model.BuildOptions{})
	fake := &fakeEngine{verdicts: []engine.Verdict{{Status: engine.Unknown}}}

	//** Act
	_, err := runner.Solve(context.Background(), 8, fake)

	//** Assert
	require.NoError(t, err)
	record, err := recorder.Load(engine.SAT, 8)
	require.NoError(t, err)
	assert.Equal(t, result.ApproachResult{Time: 30, Optimal: false}, record["fake"])
	assert.Contains(t, out.String(), "result=unknown, time=30s")
}

func TestTimeoutIsRecordedAtMostAtMaxTimeLimit(t *testing.T) {
	//** Arrange
	recorder := result.NewRecorder(t.TempDir(), nil)
	runner := New(recorder, nil, &bytes.Buffer{}, Options{
		Engine: engine.Options{TimeLimit: 10 * time.Minute, Grace: time.Second},
	})
	fake := &fakeEngine{verdicts: []engine.Verdict{{Status: engine.Unknown}}}

	//** Act
	_, err := runner.Solve(context.Background(), 8, fake)

	//** Assert
	require.NoError(t, err)
	record, err := recorder.Load(engine.SAT, 8)
	require.NoError(t, err)
	assert.Equal(t, 300, record["fake"].Time)
}

// cancellingEngine cancels the batch while solving, like a SIGINT would
type cancellingEngine struct {
	cancel context.CancelFunc
	calls  int
}

func (e *cancellingEngine) Name() string { return "cancelling" }

func (e *cancellingEngine) Paradigm() engine.Paradigm { return engine.SAT }

func (e *cancellingEngine) Solve(ctx context.Context, _ *model.Model, _ engine.Options) (engine.Verdict, error) {
	e.calls++
	e.cancel()
	<-ctx.Done()
	return engine.Verdict{Status: engine.Unknown}, nil
}

func TestInterruptedRunIsNotRecorded(t *testing.T) {
	//** Arrange
	runner, recorder, out := newRunner(t, model.BuildOptions{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	interrupting := &cancellingEngine{cancel: cancel}

	//** Act
	summary := runner.Run(ctx, []int{2, 4}, []engine.Engine{interrupting})

	//** Assert
	assert.Equal(t, 1, interrupting.calls)
	assert.Zero(t, summary.Failures)
	assert.Empty(t, summary.Outcomes)
	record, err := recorder.Load(engine.SAT, 2)
	require.NoError(t, err)
	assert.Empty(t, record)
	assert.NotContains(t, out.String(), "result=")

	//** Act
	_, err = runner.Solve(ctx, 2, interrupting)

	//** Assert
	assert.ErrorIs(t, err, context.Canceled)
}

func TestInconsistentAssignmentFails(t *testing.T) {
	//** Arrange
	runner, recorder, _ := newRunner(t, model.BuildOptions{})
	instance, err := model.NewInstance(2)
	require.NoError(t, err)
	m, err := model.Build(instance, model.BuildOptions{})
	require.NoError(t, err)
	fake := &fakeEngine{verdicts: []engine.Verdict{{Status: engine.Feasible, Assignment: model.NewAssignment(m)}}}

	//** Act
	_, err = runner.Solve(context.Background(), 2, fake)

	//** Assert
	assert.ErrorIs(t, err, model.ErrExtractionInconsistency)
	record, err := recorder.Load(engine.SAT, 2)
	require.NoError(t, err)
	assert.Empty(t, record)
}

func TestBatchContinuesPastFailures(t *testing.T) {
	//** Arrange
	runner, _, out := newRunner(t, model.BuildOptions{})
	failing := &fakeEngine{err: errors.New("engine crashed")}

	//** Act
	summary := runner.Run(context.Background(), []int{2, 5, 4}, []engine.Engine{failing})

	//** Assert
	assert.Equal(t, 3, summary.Failures)
	assert.Len(t, failing.models, 2, "odd n must fail before the engine is invoked")
	assert.Contains(t, out.String(), "Progress: 3/3")
	assert.Contains(t, out.String(), "Completed all 3 instances")
}

func TestBatchRecordsEveryInstance(t *testing.T) {
	//** Arrange
	runner, recorder, _ := newRunner(t, model.BuildOptions{SymmetryBreaking: true})
	gini := engine.NewSATEngine(sat.NewGiniSolver())

	//** Act
	summary := runner.Run(context.Background(), []int{2, 4, 6}, []engine.Engine{gini})

	//** Assert
	assert.Zero(t, summary.Failures)
	require.Len(t, summary.Outcomes, 3)
	for _, outcome := range summary.Outcomes {
		record, err := recorder.Load(engine.SAT, outcome.N)
		require.NoError(t, err)
		assert.Contains(t, record, "gini")
	}
}
