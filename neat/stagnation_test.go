package neat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stagnantSpeciesSet(t *testing.T, config *Config, fitnesses map[int]float64) *SpeciesSet {
	t.Helper()
	ss := NewSpeciesSet(&config.SpeciesSet)
	for sid, fit := range fitnesses {
		sp := NewSpecies(sid, 0)
		g := NewGenome(sid, &config.Genome)
		g.Fitness = fit
		sp.Members[sid] = g
		sp.Representative = g
		ss.Species[sid] = sp
	}
	return ss
}

func TestNewStagnationRejectsUnknownFunc(t *testing.T) {
	config := loadTestConfig(t)
	config.Stagnation.SpeciesFitnessFunc = "mode"
	_, err := NewStagnation(&config.Stagnation)
	require.Error(t, err)
}

func TestStagnationMarksOldSpecies(t *testing.T) {
	config := loadTestConfig(t)
	config.Stagnation.MaxStagnation = 5
	config.Stagnation.SpeciesElitism = 1
	stagnation, err := NewStagnation(&config.Stagnation)
	require.NoError(t, err)

	ss := stagnantSpeciesSet(t, config, map[int]float64{1: 1.0, 2: 2.0})

	// Seed the fitness histories, then advance past max_stagnation without
	// any improvement.
	_, err = stagnation.Update(ss, 0)
	require.NoError(t, err)
	infos, err := stagnation.Update(ss, 10)
	require.NoError(t, err)
	require.Len(t, infos, 2)

	byID := map[int]StagnationInfo{}
	for _, info := range infos {
		byID[info.SpeciesID] = info
	}
	// The least fit species stagnates; elitism spares the fittest one.
	assert.True(t, byID[1].IsStagnant)
	assert.False(t, byID[2].IsStagnant)
}

func TestStagnationSparesImprovingSpecies(t *testing.T) {
	config := loadTestConfig(t)
	config.Stagnation.MaxStagnation = 5
	config.Stagnation.SpeciesElitism = 0
	stagnation, err := NewStagnation(&config.Stagnation)
	require.NoError(t, err)

	ss := stagnantSpeciesSet(t, config, map[int]float64{1: 1.0})
	_, err = stagnation.Update(ss, 0)
	require.NoError(t, err)

	// Improvement resets the stagnation clock.
	ss.Species[1].Members[1].Fitness = 3.0
	infos, err := stagnation.Update(ss, 10)
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.False(t, infos[0].IsStagnant)
	assert.Equal(t, 10, ss.Species[1].LastImproved)
}

func TestStagnationEmptySpeciesSet(t *testing.T) {
	config := loadTestConfig(t)
	stagnation, err := NewStagnation(&config.Stagnation)
	require.NoError(t, err)

	ss := NewSpeciesSet(&config.SpeciesSet)
	infos, err := stagnation.Update(ss, 0)
	require.NoError(t, err)
	assert.Empty(t, infos)
}
