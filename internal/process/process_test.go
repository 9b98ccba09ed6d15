package process

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeconds(t *testing.T) {
	assert.Equal(t, 1, Seconds(0))
	assert.Equal(t, 1, Seconds(200*time.Millisecond))
	assert.Equal(t, 300, Seconds(300*time.Second))
	assert.Equal(t, 301, Seconds(300*time.Second+time.Millisecond))
}

func TestExecutable(t *testing.T) {
	path, err := Executable("sh")
	require.NoError(t, err)
	assert.NotEmpty(t, path)

	SetExecutables(map[string]string{"fake-solver": "/nonexistent/fake-solver"})
	defer SetExecutables(map[string]string{"fake-solver": ""})
	_, err = Executable("fake-solver")
	assert.ErrorIs(t, err, ErrExecutableNotFound)
}

func TestRun(t *testing.T) {
	sh, err := Executable("sh")
	require.NoError(t, err)

	t.Run("Exit code and output", func(t *testing.T) {
		//** Act
		run, err := Run(context.Background(), time.Second, strings.NewReader("input"), sh, "-c", "cat; echo oops >&2; exit 10")

		//** Assert
		require.NoError(t, err)
		assert.False(t, run.Killed)
		assert.Equal(t, 10, run.ExitCode)
		assert.Equal(t, "input", run.Stdout.String())
		assert.Equal(t, "oops\n", run.Stderr.String())
	})

	t.Run("Cancelled", func(t *testing.T) {
		//** Arrange
		ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		defer cancel()
		start := time.Now()

		//** Act
		run, err := Run(ctx, time.Minute, nil, sh, "-c", "sleep 30")

		//** Assert
		require.NoError(t, err)
		assert.True(t, run.Killed)
		assert.Less(t, time.Since(start), 5*time.Second)
	})

	t.Run("Missing executable", func(t *testing.T) {
		_, err := Run(context.Background(), time.Second, nil, "/nonexistent/solver")

		assert.Error(t, err)
	})
}
