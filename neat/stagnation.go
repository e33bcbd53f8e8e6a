package neat

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Stagnation detects species whose fitness has stopped improving.
type Stagnation struct {
	Config             *StagnationConfig
	SpeciesFitnessFunc func([]float64) float64
}

// NewStagnation creates a stagnation manager.
func NewStagnation(config *StagnationConfig) (*Stagnation, error) {
	fn, ok := StatFunctions[strings.ToLower(config.SpeciesFitnessFunc)]
	if !ok {
		return nil, fmt.Errorf("invalid species_fitness_func in config: %s", config.SpeciesFitnessFunc)
	}
	return &Stagnation{Config: config, SpeciesFitnessFunc: fn}, nil
}

// StagnationInfo is the stagnation verdict for a single species.
type StagnationInfo struct {
	SpeciesID  int
	Species    *Species
	IsStagnant bool
}

// Update refreshes each species' fitness history and marks species stagnant
// when they have not improved for max_stagnation generations. The top
// species_elitism species are always spared so the population cannot lose
// all of its species to stagnation at once.
func (s *Stagnation) Update(speciesSet *SpeciesSet, generation int) ([]StagnationInfo, error) {
	if len(speciesSet.Species) == 0 {
		return nil, nil
	}

	type speciesEntry struct {
		id int
		sp *Species
	}
	entries := make([]speciesEntry, 0, len(speciesSet.Species))
	for sid, sp := range speciesSet.Species {
		previousMax := math.Inf(-1)
		if len(sp.FitnessHistory) > 0 {
			previousMax = MaxFloat(sp.FitnessHistory)
		}

		fitnesses := sp.GetFitnesses()
		if len(fitnesses) == 0 {
			sp.Fitness = math.Inf(-1)
		} else {
			sp.Fitness = s.SpeciesFitnessFunc(fitnesses)
		}
		sp.FitnessHistory = append(sp.FitnessHistory, sp.Fitness)
		sp.AdjustedFitness = 0

		if sp.Fitness > previousMax {
			sp.LastImproved = generation
		}
		entries = append(entries, speciesEntry{sid, sp})
	}

	// Least fit first: when several species are equally stagnant, the
	// fittest ones are the ones elitism protects.
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].sp.Fitness != entries[j].sp.Fitness {
			return entries[i].sp.Fitness < entries[j].sp.Fitness
		}
		return entries[i].id < entries[j].id
	})

	result := make([]StagnationInfo, len(entries))
	numNonStagnant := len(entries)
	for i, e := range entries {
		stagnantTime := generation - e.sp.LastImproved
		isStagnant := false
		if numNonStagnant > s.Config.SpeciesElitism {
			isStagnant = stagnantTime >= s.Config.MaxStagnation
		}
		// The fittest species_elitism species are never removed.
		if len(entries)-i <= s.Config.SpeciesElitism {
			isStagnant = false
		}
		if isStagnant {
			numNonStagnant--
		}
		result[i] = StagnationInfo{SpeciesID: e.id, Species: e.sp, IsStagnant: isStagnant}
	}
	return result, nil
}
