package neatgym

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neatgym/neatgym/gym"
	"github.com/neatgym/neatgym/neat"
)

// mockEnv is a scripted environment: each step pays the configured reward
// and the episode terminates after maxSteps steps (never, if zero).
type mockEnv struct {
	reward   float64
	maxSteps int
	obs      []float64

	steps  int
	closed bool
}

func (e *mockEnv) Name() string { return "Mock-v0" }

func (e *mockEnv) ObservationSpace() gym.Space {
	return gym.Space{Shape: []int{len(e.obs)}, High: []float64{1, 1}}
}

func (e *mockEnv) ActionSpace() gym.Space { return gym.Space{Discrete: true, N: 2} }

func (e *mockEnv) Reset(seed int64) ([]float64, error) {
	e.steps = 0
	return e.obs, nil
}

func (e *mockEnv) Step(action gym.Action) (gym.StepResult, error) {
	e.steps++
	return gym.StepResult{
		Observation: e.obs,
		Reward:      e.reward,
		Terminated:  e.maxSteps > 0 && e.steps >= e.maxSteps,
	}, nil
}

func (e *mockEnv) Render() string { return "" }

func (e *mockEnv) Close() error {
	e.closed = true
	return nil
}

// fixedNet always emits the same output vector and counts activations.
type fixedNet struct {
	out       []float64
	numInputs int
	calls     int
}

func (n *fixedNet) Activate(inputs []float64) ([]float64, error) {
	n.calls++
	return n.out, nil
}

func (n *fixedNet) NumInputs() int  { return n.numInputs }
func (n *fixedNet) NumOutputs() int { return len(n.out) }

// passthroughGenome builds a two-input sum genome compatible with mockEnv.
func passthroughGenome() *neat.Genome {
	g := neat.NewGenome(1, &neat.GenomeConfig{
		InputKeys:  []int{-1, -2},
		OutputKeys: []int{0},
	})
	g.Nodes[0] = &neat.NodeGene{Key: 0, Response: 1.0, Activation: "identity", Aggregation: "sum"}
	for _, in := range []int{-1, -2} {
		key := neat.ConnectionKey{InNodeID: in, OutNodeID: 0}
		g.Connections[key] = &neat.ConnectionGene{Key: key, Weight: 1.0, Enabled: true}
	}
	return g
}

func TestEvalGenomeAveragesRepetitions(t *testing.T) {
	// Episodes pay 1, 2 and 3 in order; the fitness is their mean.
	episode := 0
	gym.Register("MockRewards-v0", func() gym.Env {
		episode++
		return &mockEnv{reward: float64(episode), maxSteps: 1, obs: []float64{0.1, 0.2}}
	})

	rc := &RunConfig{
		EnvName:     "MockRewards-v0",
		Variant:     Direct,
		Repetitions: 3,
	}
	fitness, err := rc.EvalGenome(passthroughGenome())
	require.NoError(t, err)
	assert.InDelta(t, 2.0, fitness, 1e-9)
	assert.Equal(t, 3, episode)
}

func TestDecodeActionArgmax(t *testing.T) {
	action := decodeAction([]float64{0.1, 0.9, 0.2}, gym.Space{Discrete: true, N: 3})
	assert.Equal(t, 1, action.Discrete)
	assert.Nil(t, action.Box)
}

func TestDecodeActionScalesContinuous(t *testing.T) {
	out := []float64{0.5, -0.5}
	action := decodeAction(out, gym.Space{Shape: []int{2}, High: []float64{2, 2}})
	assert.Equal(t, []float64{1, -1}, action.Box)
	// The network's output buffer must not be scaled in place.
	assert.Equal(t, []float64{0.5, -0.5}, out)
}

func TestModelFileName(t *testing.T) {
	assert.Equal(t, "CartPole-000003.250", ModelFileName("CartPole", "", -3.25))
	assert.Equal(t, "CartPole-v1+000003.250", ModelFileName("CartPole-v1", "", 3.25))
	assert.Equal(t, "Pendulum-v1-hyper+000178.400", ModelFileName("Pendulum-v1", "-hyper", 178.4))
	assert.Equal(t, "Pendulum-v1-eshyper-001500.000", ModelFileName("Pendulum-v1", "-eshyper", -1500.0))
}

func TestRunEpisodeStopsAtMaxSteps(t *testing.T) {
	env := &mockEnv{reward: 1.0, obs: []float64{0, 0}}
	net := &fixedNet{out: []float64{0.5}, numInputs: 2}

	result, err := RunEpisode(net, env, EpisodeOptions{MaxSteps: 5})
	require.NoError(t, err)
	assert.Equal(t, 5, result.Steps)
	assert.InDelta(t, 5.0, result.TotalReward, 1e-9)
	assert.True(t, env.closed)
}

func TestRunEpisodeActivationCount(t *testing.T) {
	env := &mockEnv{reward: 1.0, maxSteps: 4, obs: []float64{0, 0}}
	net := &fixedNet{out: []float64{0.5}, numInputs: 2}

	_, err := RunEpisode(net, env, EpisodeOptions{Activations: 3})
	require.NoError(t, err)
	// Three settling passes per environment step.
	assert.Equal(t, 12, net.calls)
}

func TestRunEpisodeTerminationExcludedFromSteps(t *testing.T) {
	env := &mockEnv{reward: 1.0, maxSteps: 3, obs: []float64{0, 0}}
	net := &fixedNet{out: []float64{0.5}, numInputs: 2}

	result, err := RunEpisode(net, env, EpisodeOptions{})
	require.NoError(t, err)
	// The terminating step pays reward but does not count.
	assert.Equal(t, 2, result.Steps)
	assert.InDelta(t, 3.0, result.TotalReward, 1e-9)
}

func TestRunEpisodeTrajectoryCSV(t *testing.T) {
	env := &mockEnv{reward: 1.0, maxSteps: 3, obs: []float64{0.25, 0.5}}
	net := &fixedNet{out: []float64{0.1, 0.9}, numInputs: 2}

	path := filepath.Join(t.TempDir(), "trajectory.csv")
	_, err := RunEpisode(net, env, EpisodeOptions{TrajectoryPath: path})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	require.Len(t, lines, 3)
	for _, line := range lines {
		assert.Equal(t, "1,0.250000,0.500000", line)
	}
}

func TestRunEpisodeContinuousTrajectory(t *testing.T) {
	gym.Register("MockBox-v0", func() gym.Env { return &mockBoxEnv{} })
	env, err := gym.Make("MockBox-v0")
	require.NoError(t, err)

	net := &fixedNet{out: []float64{0.5}, numInputs: 1}
	path := filepath.Join(t.TempDir(), "trajectory.csv")
	_, err = RunEpisode(net, env, EpisodeOptions{TrajectoryPath: path})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	require.Len(t, lines, 1)
	// Action 0.5*2.0, then the observation.
	assert.Equal(t, "1.000000,0.125000", lines[0])
}

// mockBoxEnv is a one-step continuous environment.
type mockBoxEnv struct{ done bool }

func (e *mockBoxEnv) Name() string { return "MockBox-v0" }
func (e *mockBoxEnv) ObservationSpace() gym.Space {
	return gym.Space{Shape: []int{1}, High: []float64{1}}
}
func (e *mockBoxEnv) ActionSpace() gym.Space {
	return gym.Space{Shape: []int{1}, High: []float64{2.0}}
}
func (e *mockBoxEnv) Reset(seed int64) ([]float64, error) { return []float64{0}, nil }
func (e *mockBoxEnv) Step(action gym.Action) (gym.StepResult, error) {
	return gym.StepResult{Observation: []float64{0.125}, Reward: 0, Terminated: true}, nil
}
func (e *mockBoxEnv) Render() string { return "" }
func (e *mockBoxEnv) Close() error   { return nil }

func TestVariantSuffixAndString(t *testing.T) {
	assert.Equal(t, "", Direct.Suffix())
	assert.Equal(t, "-hyper", Hyper.Suffix())
	assert.Equal(t, "-eshyper", ESHyper.Suffix())
	assert.Equal(t, "neat", Direct.String())
	assert.Equal(t, "hyper", Hyper.String())
	assert.Equal(t, "eshyper", ESHyper.String())
}

func TestLoadRunConfigDirect(t *testing.T) {
	rc, err := LoadRunConfig("config", "CartPole-v1", Direct)
	require.NoError(t, err)

	assert.Equal(t, "CartPole-v1", rc.EnvName)
	assert.Equal(t, Direct, rc.Variant)
	require.NotNil(t, rc.Config)
	assert.Equal(t, 4, rc.Config.Genome.NumInputs)
	assert.Equal(t, 2, rc.Config.Genome.NumOutputs)
	assert.Equal(t, "x", rc.Names[-1])
	assert.Equal(t, "left", rc.Names[0])
	assert.Nil(t, rc.Substrate)
	assert.Nil(t, rc.ES)
}

func TestLoadRunConfigHyper(t *testing.T) {
	rc, err := LoadRunConfig("config", "CartPole-v1", Hyper)
	require.NoError(t, err)

	// The genome describes the CPPN, not the controller.
	assert.Equal(t, 5, rc.Config.Genome.NumInputs)
	assert.Equal(t, 1, rc.Config.Genome.NumOutputs)
	require.NotNil(t, rc.Substrate)
	assert.Len(t, rc.Substrate.Inputs, 4)
	assert.Len(t, rc.Substrate.Outputs, 2)
	assert.NotEmpty(t, rc.Substrate.Hidden)
}

func TestLoadRunConfigESHyper(t *testing.T) {
	rc, err := LoadRunConfig("config", "Pendulum-v1", ESHyper)
	require.NoError(t, err)

	require.NotNil(t, rc.Substrate)
	assert.Empty(t, rc.Substrate.Hidden)
	require.NotNil(t, rc.ES)
	assert.Equal(t, 2, rc.ES.InitialDepth)
	assert.Equal(t, 3, rc.ES.MaxDepth)
	assert.Equal(t, 5.0, rc.ES.MaxWeight)
}

func TestLoadRunConfigUnknownEnv(t *testing.T) {
	_, err := LoadRunConfig("config", "Doom-v0", Direct)
	require.Error(t, err)
	var envErr *EnvError
	require.ErrorAs(t, err, &envErr)
	assert.Equal(t, "Doom-v0", envErr.Name)
}

func TestLoadRunConfigMissingFile(t *testing.T) {
	_, err := LoadRunConfig(t.TempDir(), "CartPole-v1", Direct)
	require.Error(t, err)
	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
}

func TestLoadRunConfigRejectsUnknownKey(t *testing.T) {
	data, err := os.ReadFile(filepath.Join("config", "CartPole-v1"))
	require.NoError(t, err)

	cfgDir := t.TempDir()
	mutated := append(data, []byte("\n[NEAT]\nbogus_key = 1\n")...)
	require.NoError(t, os.WriteFile(filepath.Join(cfgDir, "CartPole-v1"), mutated, 0o644))

	_, err = LoadRunConfig(cfgDir, "CartPole-v1", Direct)
	require.Error(t, err)
	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Contains(t, err.Error(), "bogus_key")
}

func TestLoadRunConfigRejectsUnknownSection(t *testing.T) {
	data, err := os.ReadFile(filepath.Join("config", "CartPole-v1"))
	require.NoError(t, err)

	cfgDir := t.TempDir()
	mutated := append(data, []byte("\n[Gym]\nepisode_reps = 10\n")...)
	require.NoError(t, os.WriteFile(filepath.Join(cfgDir, "CartPole-v1"), mutated, 0o644))

	_, err = LoadRunConfig(cfgDir, "CartPole-v1", Direct)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "[Gym]")
}

func TestSaveAndLoadModel(t *testing.T) {
	dir := t.TempDir()
	rc := &RunConfig{
		EnvName:    "CartPole-v1",
		Variant:    Direct,
		ModelsDir:  filepath.Join(dir, "models"),
		VisualsDir: filepath.Join(dir, "visuals"),
		// No visualizer: model persistence must not depend on graphviz.
	}

	g := passthroughGenome()
	g.Fitness = 42.5
	require.NoError(t, rc.Save(g))

	name := ModelFileName("CartPole-v1", "", 42.5)
	path := filepath.Join(rc.ModelsDir, name+".dat")
	model, err := LoadModel(path)
	require.NoError(t, err)
	assert.Equal(t, "CartPole-v1", model.EnvName)
	assert.Equal(t, 1, model.Activations)
	require.NotNil(t, model.Spec)

	net, err := model.Spec.Compile()
	require.NoError(t, err)
	out, err := net.Activate([]float64{1.0, 2.0})
	require.NoError(t, err)
	assert.InDelta(t, 3.0, out[0], 1e-9)
}

func TestLoadModelMissingFile(t *testing.T) {
	_, err := LoadModel(filepath.Join(t.TempDir(), "nope.dat"))
	require.Error(t, err)
}

func TestEpisodeSeedDeterministicWithRunSeed(t *testing.T) {
	rc := &RunConfig{Seed: 100, HasSeed: true}
	assert.Equal(t, rc.episodeSeed(3, 1), rc.episodeSeed(3, 1))
	assert.NotEqual(t, rc.episodeSeed(3, 1), rc.episodeSeed(3, 2))
	assert.NotEqual(t, rc.episodeSeed(3, 1), rc.episodeSeed(4, 1))
}

func TestEnvErrorMessage(t *testing.T) {
	err := &EnvError{Name: "Doom-v0", Err: fmt.Errorf("nope")}
	assert.Equal(t, "unable to make environment Doom-v0: nope", err.Error())
}
