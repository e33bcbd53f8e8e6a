package neat

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validConfig = `
[NEAT]
fitness_criterion     = max
fitness_threshold     = 100
pop_size              = 10
reset_on_extinction   = False

[DefaultGenome]
num_inputs              = 2
num_hidden              = 0
num_outputs             = 1
initial_connection      = full_direct
feed_forward            = True
compatibility_disjoint_coefficient = 1.0
compatibility_weight_coefficient   = 0.5
conn_add_prob           = 0.2
conn_delete_prob        = 0.2
node_add_prob           = 0.2
node_delete_prob        = 0.2
activation_default      = tanh
activation_options      = tanh
activation_mutate_rate  = 0.0
aggregation_default     = sum
aggregation_options     = sum
aggregation_mutate_rate = 0.0
bias_init_mean          = 0.0
bias_init_stdev         = 1.0
bias_replace_rate       = 0.1
bias_mutate_rate        = 0.7
bias_mutate_power       = 0.5
bias_max_value          = 30.0
bias_min_value          = -30.0
response_init_mean      = 1.0
response_init_stdev     = 0.0
response_replace_rate   = 0.0
response_mutate_rate    = 0.0
response_mutate_power   = 0.0
response_max_value      = 30.0
response_min_value      = -30.0
weight_max_value        = 30
weight_min_value        = -30
weight_init_mean        = 0.0
weight_init_stdev       = 1.0
weight_mutate_rate      = 0.8
weight_replace_rate     = 0.1
weight_mutate_power     = 0.5
enabled_default         = True
enabled_mutate_rate     = 0.01

[DefaultSpeciesSet]
compatibility_threshold = 3.0

[DefaultStagnation]
species_fitness_func = max
max_stagnation       = 20
species_elitism      = 2

[DefaultReproduction]
elitism            = 2
survival_threshold = 0.2
`

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func loadTestConfig(t *testing.T) *Config {
	t.Helper()
	config, err := LoadConfig(writeConfigFile(t, validConfig))
	require.NoError(t, err)
	return config
}

func TestLoadConfig(t *testing.T) {
	config := loadTestConfig(t)

	assert.Equal(t, 10, config.Neat.PopSize)
	assert.Equal(t, "max", config.Neat.FitnessCriterion)
	assert.Equal(t, 100.0, config.Neat.FitnessThreshold)
	assert.False(t, config.Neat.ResetOnExtinction)
	assert.Equal(t, 2, config.Genome.NumInputs)
	assert.Equal(t, 1, config.Genome.NumOutputs)
	assert.Equal(t, []int{-1, -2}, config.Genome.InputKeys)
	assert.Equal(t, []int{0}, config.Genome.OutputKeys)
	assert.Equal(t, 3.0, config.SpeciesSet.CompatibilityThreshold)
	assert.Equal(t, 2, config.Reproduction.Elitism)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "does-not-exist"))
	require.Error(t, err)
}

func TestLoadConfigRejectsUnknownKey(t *testing.T) {
	path := writeConfigFile(t, validConfig+"\n[NEAT]\nbogus_key = 1\n")
	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown key 'bogus_key' in [NEAT]")
}

func TestLoadConfigMissingRequiredKey(t *testing.T) {
	content := strings.Replace(validConfig, "pop_size              = 10\n", "", 1)
	_, err := LoadConfig(writeConfigFile(t, content))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing required key 'pop_size' in [NEAT]")
}

func TestLoadConfigBadFitnessCriterion(t *testing.T) {
	content := strings.Replace(validConfig, "fitness_criterion     = max", "fitness_criterion     = median", 1)
	_, err := LoadConfig(writeConfigFile(t, content))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fitness_criterion")
}

func TestSetIOLayout(t *testing.T) {
	config := loadTestConfig(t)

	require.NoError(t, config.SetIOLayout(4, 2))
	assert.Equal(t, []int{-1, -2, -3, -4}, config.Genome.InputKeys)
	assert.Equal(t, []int{0, 1}, config.Genome.OutputKeys)
	assert.Equal(t, 2, config.Genome.NodeKeyIndex)

	assert.Error(t, config.SetIOLayout(0, 2))
	assert.Error(t, config.SetIOLayout(3, -1))
}

func TestGetNewNodeKey(t *testing.T) {
	config := loadTestConfig(t)
	first := config.Genome.GetNewNodeKey()
	second := config.Genome.GetNewNodeKey()
	assert.Equal(t, config.Genome.NumOutputs, first)
	assert.Equal(t, first+1, second)
}
