package gym

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMakeKnownEnvs(t *testing.T) {
	for _, name := range []string{"CartPole-v1", "Pendulum-v1"} {
		env, err := Make(name)
		require.NoError(t, err)
		assert.Equal(t, name, env.Name())
	}
}

func TestMakeUnknownEnv(t *testing.T) {
	_, err := Make("Breakout-v5")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownEnv)
}

func TestListContainsRegisteredEnvs(t *testing.T) {
	names := List()
	assert.Contains(t, names, "CartPole-v1")
	assert.Contains(t, names, "Pendulum-v1")
}

func TestSpaceSize(t *testing.T) {
	assert.Equal(t, 2, Space{Discrete: true, N: 2}.Size())
	assert.Equal(t, 4, Space{Shape: []int{4}}.Size())
}

func TestCartPoleSeededDeterminism(t *testing.T) {
	e1 := NewCartPole()
	e2 := NewCartPole()
	obs1, err := e1.Reset(42)
	require.NoError(t, err)
	obs2, err := e2.Reset(42)
	require.NoError(t, err)
	assert.Equal(t, obs1, obs2)

	for i := 0; i < 10; i++ {
		r1, err := e1.Step(Action{Discrete: i % 2})
		require.NoError(t, err)
		r2, err := e2.Step(Action{Discrete: i % 2})
		require.NoError(t, err)
		assert.Equal(t, r1, r2)
	}
}

func TestCartPoleTerminatesOnPoleFall(t *testing.T) {
	env := NewCartPole()
	_, err := env.Reset(1)
	require.NoError(t, err)

	// Pushing in one direction forever must tip the pole well before the
	// step limit.
	var last StepResult
	for i := 0; i < 500; i++ {
		last, err = env.Step(Action{Discrete: 1})
		require.NoError(t, err)
		assert.Equal(t, 1.0, last.Reward)
		if last.Terminated {
			break
		}
	}
	assert.True(t, last.Terminated)
	assert.False(t, last.Truncated)

	_, err = env.Step(Action{Discrete: 1})
	require.Error(t, err)
}

func TestCartPoleStepBeforeReset(t *testing.T) {
	env := NewCartPole()
	_, err := env.Step(Action{Discrete: 0})
	require.Error(t, err)
}

func TestCartPoleInvalidAction(t *testing.T) {
	env := NewCartPole()
	_, err := env.Reset(1)
	require.NoError(t, err)
	_, err = env.Step(Action{Discrete: 2})
	require.Error(t, err)
}

func TestCartPoleSpaces(t *testing.T) {
	env := NewCartPole()
	obs := env.ObservationSpace()
	assert.Equal(t, 4, obs.Size())
	act := env.ActionSpace()
	assert.True(t, act.Discrete)
	assert.Equal(t, 2, act.Size())
}

func TestPendulumRewardIsNonPositive(t *testing.T) {
	env := NewPendulum()
	_, err := env.Reset(7)
	require.NoError(t, err)

	for i := 0; i < 50; i++ {
		res, err := env.Step(Action{Box: []float64{0.5}})
		require.NoError(t, err)
		assert.LessOrEqual(t, res.Reward, 0.0)
		require.Len(t, res.Observation, 3)
		// cos/sin components stay on the unit circle.
		norm := res.Observation[0]*res.Observation[0] + res.Observation[1]*res.Observation[1]
		assert.InDelta(t, 1.0, norm, 1e-9)
		assert.LessOrEqual(t, math.Abs(res.Observation[2]), 8.0)
	}
}

func TestPendulumTruncatesAtStepLimit(t *testing.T) {
	env := NewPendulum()
	_, err := env.Reset(3)
	require.NoError(t, err)

	var last StepResult
	for i := 0; i < 200; i++ {
		last, err = env.Step(Action{Box: []float64{0}})
		require.NoError(t, err)
	}
	assert.True(t, last.Truncated)
	assert.False(t, last.Terminated)

	_, err = env.Step(Action{Box: []float64{0}})
	require.Error(t, err)
}

func TestPendulumClampsTorque(t *testing.T) {
	e1 := NewPendulum()
	e2 := NewPendulum()
	_, err := e1.Reset(9)
	require.NoError(t, err)
	_, err = e2.Reset(9)
	require.NoError(t, err)

	r1, err := e1.Step(Action{Box: []float64{100.0}})
	require.NoError(t, err)
	r2, err := e2.Step(Action{Box: []float64{2.0}})
	require.NoError(t, err)
	assert.Equal(t, r2.Observation, r1.Observation)
}

func TestPendulumActionDimension(t *testing.T) {
	env := NewPendulum()
	_, err := env.Reset(1)
	require.NoError(t, err)
	_, err = env.Step(Action{Box: []float64{1, 2}})
	require.Error(t, err)
}

func TestAngleNormalize(t *testing.T) {
	assert.InDelta(t, 0.0, angleNormalize(0), 1e-9)
	assert.InDelta(t, 0.0, angleNormalize(2*math.Pi), 1e-9)
	assert.InDelta(t, -math.Pi/2, angleNormalize(3*math.Pi/2), 1e-9)
	assert.InDelta(t, math.Pi/2, angleNormalize(-3*math.Pi/2), 1e-9)
}
