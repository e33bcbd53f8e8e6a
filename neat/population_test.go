package neat

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPopulation(t *testing.T) {
	config := loadTestConfig(t)
	p, err := NewPopulation(config)
	require.NoError(t, err)

	assert.Len(t, p.Genomes, config.Neat.PopSize)
	assert.Equal(t, 0, p.Generation)
	assert.NotEmpty(t, p.SpeciesSet.Species)
}

func TestRunStopsAtFitnessThreshold(t *testing.T) {
	config := loadTestConfig(t)
	p, err := NewPopulation(config)
	require.NoError(t, err)

	// Fitness below the threshold of 100 exhausts all generations.
	generations := 0
	winner, err := p.Run(func(genomes map[int]*Genome) error {
		generations++
		for _, g := range genomes {
			g.Fitness = 1.0
		}
		return nil
	}, 10)
	require.NoError(t, err)
	require.NotNil(t, winner)
	assert.Equal(t, 10, generations)

	// Crossing the threshold stops the run in the first generation.
	p2, err := NewPopulation(config)
	require.NoError(t, err)
	winner2, err := p2.Run(func(genomes map[int]*Genome) error {
		for _, g := range genomes {
			g.Fitness = 200.0
		}
		return nil
	}, 50)
	require.NoError(t, err)
	require.NotNil(t, winner2)
	assert.Equal(t, 200.0, winner2.Fitness)
	assert.Equal(t, 0, p2.Generation)
}

func TestRunPropagatesFitnessError(t *testing.T) {
	config := loadTestConfig(t)
	p, err := NewPopulation(config)
	require.NoError(t, err)

	boom := errors.New("boom")
	_, err = p.Run(func(map[int]*Genome) error { return boom }, 5)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}

func TestRunTracksBestGenome(t *testing.T) {
	config := loadTestConfig(t)
	p, err := NewPopulation(config)
	require.NoError(t, err)

	_, err = p.RunGeneration(func(genomes map[int]*Genome) error {
		for _, g := range genomes {
			g.Fitness = 1.0
			if g.Key == 3 {
				g.Fitness = 7.0
			}
		}
		return nil
	})
	require.NoError(t, err)
	require.NotNil(t, p.BestGenome)
	assert.Equal(t, 7.0, p.BestGenome.Fitness)
}
