package neatgym

import (
	"math/rand"

	"github.com/neatgym/neatgym/neat"
	"github.com/neatgym/neatgym/neat/nn"
)

// EvalGenome builds the genome's phenotype once and returns the arithmetic
// mean of Repetitions episode rewards for it. Safe to call concurrently for
// different genomes: each call builds its own network and environment
// instances and touches no shared state.
func (rc *RunConfig) EvalGenome(g *neat.Genome) (float64, error) {
	built, err := rc.BuildNetwork(g)
	if err != nil {
		return 0, err
	}

	reps := rc.Repetitions
	if reps < 1 {
		reps = 1
	}

	total := 0.0
	for rep := 0; rep < reps; rep++ {
		env, err := rc.MakeEnv()
		if err != nil {
			return 0, err
		}

		// Recurrent phenotypes carry state between activations; clear it so
		// repetitions stay independent.
		if rn, ok := built.Net.(*nn.RecurrentNetwork); ok {
			rn.Reset()
		}

		result, err := RunEpisode(built.Net, env, EpisodeOptions{
			Activations: built.Activations,
			Seed:        rc.episodeSeed(g.Key, rep),
		})
		if err != nil {
			return 0, err
		}
		total += result.TotalReward
	}
	return total / float64(reps), nil
}

// episodeSeed derives a per-episode seed. With a run seed set this is
// deterministic per (genome, repetition) within one process; determinism
// across worker boundaries is best-effort only.
func (rc *RunConfig) episodeSeed(genomeKey, rep int) int64 {
	if rc.HasSeed {
		return rc.Seed + int64(genomeKey)*1000 + int64(rep)
	}
	return rand.Int63()
}
