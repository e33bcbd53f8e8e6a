package neat

import (
	"fmt"
	"math"
	"sort"
)

// Reproduction creates new genomes, either from scratch or through crossover
// and mutation of the previous generation.
type Reproduction struct {
	Config        *ReproductionConfig
	NextGenomeKey int
	Ancestors     map[int][]int // genome key -> parent keys
	Stagnation    *Stagnation
}

// NewReproduction creates a reproduction manager.
func NewReproduction(config *ReproductionConfig, stagnation *Stagnation) *Reproduction {
	return &Reproduction{
		Config:        config,
		NextGenomeKey: 1,
		Ancestors:     make(map[int][]int),
		Stagnation:    stagnation,
	}
}

func (r *Reproduction) getNextKey() int {
	key := r.NextGenomeKey
	r.NextGenomeKey++
	return key
}

// CreateNewPopulation creates an initial population of genomes.
func (r *Reproduction) CreateNewPopulation(genomeConfig *GenomeConfig, popSize int) map[int]*Genome {
	genomes := make(map[int]*Genome, popSize)
	for i := 0; i < popSize; i++ {
		key := r.getNextKey()
		g := NewGenome(key, genomeConfig)
		g.ConfigureNew()
		genomes[key] = g
		r.Ancestors[key] = nil
	}
	return genomes
}

// Reproduce creates the next generation from the current species.
func (r *Reproduction) Reproduce(overallConfig *Config, speciesSet *SpeciesSet, popSize int, generation int) (map[int]*Genome, error) {
	stagnationInfo, err := r.Stagnation.Update(speciesSet, generation)
	if err != nil {
		return nil, fmt.Errorf("failed to update stagnation: %w", err)
	}

	// Drop stagnant and empty species; everything else may reproduce.
	allFitnesses := []float64{}
	remaining := []*Species{}
	for _, info := range stagnationInfo {
		if info.IsStagnant {
			continue
		}
		fitnesses := info.Species.GetFitnesses()
		if len(fitnesses) == 0 {
			continue
		}
		allFitnesses = append(allFitnesses, fitnesses...)
		remaining = append(remaining, info.Species)
	}
	if len(remaining) == 0 {
		// Total extinction; the population decides whether to reset.
		return map[int]*Genome{}, nil
	}

	// Fitness sharing: scale each species' mean fitness into [0, 1].
	minFitness := MinFloat(allFitnesses)
	maxFitness := MaxFloat(allFitnesses)
	fitnessRange := math.Max(1.0, maxFitness-minFitness)

	adjustedSum := 0.0
	for _, sp := range remaining {
		sp.AdjustedFitness = (sp.Fitness - minFitness) / fitnessRange
		adjustedSum += sp.AdjustedFitness
	}

	previousSizes := make([]int, len(remaining))
	adjustedFitnesses := make([]float64, len(remaining))
	for i, sp := range remaining {
		previousSizes[i] = len(sp.Members)
		adjustedFitnesses[i] = sp.AdjustedFitness
	}
	spawnMinSize := maxInt(r.Config.MinSpeciesSize, r.Config.Elitism)
	spawnAmounts := computeSpawnAmounts(adjustedFitnesses, adjustedSum, previousSizes, popSize, spawnMinSize)

	newPopulation := make(map[int]*Genome)
	newAncestors := make(map[int][]int)

	for i, sp := range remaining {
		spawn := maxInt(spawnAmounts[i], r.Config.Elitism)
		if spawn <= 0 {
			continue
		}

		oldMembers := make([]*Genome, 0, len(sp.Members))
		for _, g := range sp.Members {
			oldMembers = append(oldMembers, g)
		}
		sort.Slice(oldMembers, func(a, b int) bool {
			if oldMembers[a].Fitness != oldMembers[b].Fitness {
				return oldMembers[a].Fitness > oldMembers[b].Fitness
			}
			return oldMembers[a].Key < oldMembers[b].Key
		})

		// Elites carry over unchanged.
		for j := 0; j < r.Config.Elitism && j < len(oldMembers); j++ {
			elite := oldMembers[j]
			newPopulation[elite.Key] = elite
			newAncestors[elite.Key] = []int{elite.Key}
			spawn--
		}
		if spawn <= 0 {
			continue
		}

		// Only the top survival_threshold fraction may be parents.
		cutoff := int(math.Ceil(r.Config.SurvivalThreshold * float64(len(oldMembers))))
		cutoff = maxInt(cutoff, 2)
		if cutoff > len(oldMembers) {
			cutoff = len(oldMembers)
		}
		parents := oldMembers[:cutoff]
		if len(parents) == 0 {
			continue
		}

		for j := 0; j < spawn; j++ {
			parent1 := parents[rng.Intn(len(parents))]
			parent2 := parents[rng.Intn(len(parents))]

			childKey := r.getNextKey()
			child := NewGenome(childKey, &overallConfig.Genome)
			child.ConfigureCrossover(parent1, parent2)
			child.Mutate()

			newPopulation[childKey] = child
			newAncestors[childKey] = []int{parent1.Key, parent2.Key}
		}
	}
	r.Ancestors = newAncestors
	return newPopulation, nil
}

// computeSpawnAmounts apportions popSize offspring across species in
// proportion to adjusted fitness, dampened toward each species' previous
// size.
func computeSpawnAmounts(adjustedFitnesses []float64, adjustedSum float64, previousSizes []int, popSize, minSpeciesSize int) []int {
	spawnAmounts := make([]int, len(adjustedFitnesses))
	for i, af := range adjustedFitnesses {
		ps := previousSizes[i]
		var s float64
		if adjustedSum > 0 {
			s = math.Max(float64(minSpeciesSize), af/adjustedSum*float64(popSize))
		} else {
			s = float64(minSpeciesSize)
		}
		d := (s - float64(ps)) * 0.5
		c := int(math.Round(d))
		spawn := ps
		if c != 0 {
			spawn += c
		} else if d > 0 {
			spawn++
		} else if d < 0 {
			spawn--
		}
		spawnAmounts[i] = maxInt(minSpeciesSize, spawn)
	}

	totalSpawn := 0
	for _, sa := range spawnAmounts {
		totalSpawn += sa
	}
	if totalSpawn == 0 {
		for i := range spawnAmounts {
			spawnAmounts[i] = minSpeciesSize
		}
		return spawnAmounts
	}

	norm := float64(popSize) / float64(totalSpawn)
	final := make([]int, len(spawnAmounts))
	currentTotal := 0
	for i, sa := range spawnAmounts {
		final[i] = maxInt(minSpeciesSize, int(math.Round(float64(sa)*norm)))
		currentTotal += final[i]
	}

	// Rounding and minimum sizes can leave the total off target; nudge
	// random species until it matches (or no species can shrink further).
	diff := popSize - currentTotal
	if diff != 0 {
		indices := rng.Perm(len(final))
		for _, idx := range indices {
			if diff == 0 {
				break
			}
			if diff > 0 {
				final[idx]++
				diff--
			} else if final[idx] > minSpeciesSize {
				final[idx]--
				diff++
			}
		}
	}
	return final
}
