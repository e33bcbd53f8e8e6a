package neat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPopulation(t *testing.T, config *Config, size int) map[int]*Genome {
	t.Helper()
	population := make(map[int]*Genome, size)
	for key := 1; key <= size; key++ {
		g := NewGenome(key, &config.Genome)
		g.ConfigureNew()
		population[key] = g
	}
	return population
}

func TestSpeciateAssignsEveryGenome(t *testing.T) {
	config := loadTestConfig(t)
	population := newTestPopulation(t, config, 10)

	ss := NewSpeciesSet(&config.SpeciesSet)
	require.NoError(t, ss.Speciate(config, population, 0))

	assert.Len(t, ss.GenomeToSpecies, len(population))
	total := 0
	for _, s := range ss.Species {
		require.NotNil(t, s.Representative)
		total += len(s.Members)
		for gid, g := range s.Members {
			assert.Same(t, population[gid], g)
			sid, ok := ss.GetSpeciesID(gid)
			require.True(t, ok)
			assert.Equal(t, s.Key, sid)
		}
	}
	assert.Equal(t, len(population), total)
}

func TestSpeciateIsStableAcrossGenerations(t *testing.T) {
	config := loadTestConfig(t)
	population := newTestPopulation(t, config, 6)

	ss := NewSpeciesSet(&config.SpeciesSet)
	require.NoError(t, ss.Speciate(config, population, 0))
	firstCount := len(ss.Species)

	// Re-speciating the same genomes must not spawn extra species.
	require.NoError(t, ss.Speciate(config, population, 1))
	assert.Equal(t, firstCount, len(ss.Species))
}

func TestSpeciateEmptyPopulation(t *testing.T) {
	config := loadTestConfig(t)
	ss := NewSpeciesSet(&config.SpeciesSet)
	require.NoError(t, ss.Speciate(config, map[int]*Genome{}, 0))
	assert.Empty(t, ss.Species)
	assert.Empty(t, ss.GenomeToSpecies)
}

func TestGetSpecies(t *testing.T) {
	config := loadTestConfig(t)
	population := newTestPopulation(t, config, 3)
	ss := NewSpeciesSet(&config.SpeciesSet)
	require.NoError(t, ss.Speciate(config, population, 0))

	s, ok := ss.GetSpecies(1)
	require.True(t, ok)
	assert.Contains(t, s.Members, 1)

	_, ok = ss.GetSpecies(999)
	assert.False(t, ok)
}

func TestGenomeDistanceCache(t *testing.T) {
	config := loadTestConfig(t)
	g1 := NewGenome(1, &config.Genome)
	g1.ConfigureNew()
	g2 := NewGenome(2, &config.Genome)
	g2.ConfigureNew()

	cache := NewGenomeDistanceCache()
	d1 := cache.Distance(g1, g2)
	assert.Equal(t, 1, cache.Misses)
	assert.Equal(t, 0, cache.Hits)

	// Order of arguments must not matter for the cache key.
	d2 := cache.Distance(g2, g1)
	assert.Equal(t, 1, cache.Misses)
	assert.Equal(t, 1, cache.Hits)
	assert.Equal(t, d1, d2)
}

func TestSpeciesGetFitnesses(t *testing.T) {
	config := loadTestConfig(t)
	s := NewSpecies(1, 0)
	for key, fit := range map[int]float64{1: 1.0, 2: 3.0} {
		g := NewGenome(key, &config.Genome)
		g.Fitness = fit
		s.Members[key] = g
	}
	fitnesses := s.GetFitnesses()
	assert.ElementsMatch(t, []float64{1.0, 3.0}, fitnesses)
}
