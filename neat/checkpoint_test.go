package neat

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckpointRoundTrip(t *testing.T) {
	config := loadTestConfig(t)
	p, err := NewPopulation(config)
	require.NoError(t, err)

	_, err = p.RunGeneration(func(genomes map[int]*Genome) error {
		for _, g := range genomes {
			g.Fitness = float64(g.Key)
		}
		return nil
	})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "checkpoint-1")
	require.NoError(t, SaveCheckpoint(p, path))

	restored, err := LoadCheckpoint(path, config)
	require.NoError(t, err)

	assert.Equal(t, p.Generation, restored.Generation)
	assert.Len(t, restored.Genomes, len(p.Genomes))
	assert.Equal(t, p.Reproduction.NextGenomeKey, restored.Reproduction.NextGenomeKey)

	// Species members must point at the canonical genome map after restore.
	for _, sp := range restored.SpeciesSet.Species {
		for key, member := range sp.Members {
			assert.Same(t, restored.Genomes[key], member)
		}
		require.NotNil(t, sp.Representative)
		assert.Same(t, restored.Genomes[sp.Representative.Key], sp.Representative)
	}

	// Configs are re-linked, not decoded copies.
	for _, g := range restored.Genomes {
		assert.Same(t, &config.Genome, g.Config)
	}

	// The restored population can keep evolving.
	_, err = restored.RunGeneration(func(genomes map[int]*Genome) error {
		for _, g := range genomes {
			g.Fitness = 1.0
		}
		return nil
	})
	require.NoError(t, err)
}

func TestLoadCheckpointMissingFile(t *testing.T) {
	config := loadTestConfig(t)
	_, err := LoadCheckpoint(filepath.Join(t.TempDir(), "nope"), config)
	require.Error(t, err)
}

func TestCheckpointerWritesOnInterval(t *testing.T) {
	config := loadTestConfig(t)
	p, err := NewPopulation(config)
	require.NoError(t, err)

	prefix := filepath.Join(t.TempDir(), "neat-checkpoint-")
	checkpointer := NewCheckpointer(1, 0, prefix)
	p.AddReporter(checkpointer)

	_, err = p.RunGeneration(func(genomes map[int]*Genome) error {
		for _, g := range genomes {
			g.Fitness = 1.0
		}
		return nil
	})
	require.NoError(t, err)
	require.NoError(t, checkpointer.LastError)

	matches, err := filepath.Glob(prefix + "*")
	require.NoError(t, err)
	assert.Len(t, matches, 1)
	info, err := os.Stat(matches[0])
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}
