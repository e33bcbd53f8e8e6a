package neat

import (
	"errors"
	"fmt"
)

// ErrCompleteExtinction is returned when all species die out and
// reset_on_extinction is disabled.
var ErrCompleteExtinction = errors.New("complete extinction: all species have died out")

// FitnessFunc evaluates every genome in the map, setting its Fitness field.
// It is called once per generation.
type FitnessFunc func(genomes map[int]*Genome) error

// Population holds a full generational state and drives the evolution loop.
type Population struct {
	Config       *Config
	Genomes      map[int]*Genome
	SpeciesSet   *SpeciesSet
	Reproduction *Reproduction
	Generation   int
	BestGenome   *Genome
	Reporters    *ReporterSet

	fitnessCriterion AggregationType
}

// NewPopulation creates an initial population from the configuration.
func NewPopulation(config *Config) (*Population, error) {
	stagnation, err := NewStagnation(&config.Stagnation)
	if err != nil {
		return nil, err
	}
	reproduction := NewReproduction(&config.Reproduction, stagnation)
	genomes := reproduction.CreateNewPopulation(&config.Genome, config.Neat.PopSize)
	speciesSet := NewSpeciesSet(&config.SpeciesSet)
	if err := speciesSet.Speciate(config, genomes, 0); err != nil {
		return nil, err
	}

	p := &Population{
		Config:       config,
		Genomes:      genomes,
		SpeciesSet:   speciesSet,
		Reproduction: reproduction,
		Generation:   0,
		Reporters:    NewReporterSet(),
	}
	if !config.Neat.NoFitnessTermination {
		criterion, err := GetAggregation(config.Neat.FitnessCriterion)
		if err != nil {
			return nil, fmt.Errorf("invalid fitness_criterion: %w", err)
		}
		p.fitnessCriterion = criterion
	}
	return p, nil
}

// AddReporter registers a reporter for evolution callbacks.
func (p *Population) AddReporter(r Reporter) {
	p.Reporters.Add(r)
}

// RunGeneration executes one generation: evaluation, termination check,
// reproduction and speciation. It returns (solved, error); solved is true
// when the fitness criterion crosses the configured threshold.
func (p *Population) RunGeneration(fitnessFunc FitnessFunc) (bool, error) {
	p.Reporters.StartGeneration(p.Generation)

	if err := fitnessFunc(p.Genomes); err != nil {
		return false, fmt.Errorf("fitness function failed: %w", err)
	}

	// Track the best genome ever seen.
	var best *Genome
	for _, g := range p.Genomes {
		if best == nil || g.Fitness > best.Fitness {
			best = g
		}
	}
	if best != nil && (p.BestGenome == nil || best.Fitness > p.BestGenome.Fitness) {
		p.BestGenome = best
	}
	p.Reporters.PostEvaluate(p, best)

	if !p.Config.Neat.NoFitnessTermination {
		fitnesses := make([]float64, 0, len(p.Genomes))
		for _, g := range p.Genomes {
			fitnesses = append(fitnesses, g.Fitness)
		}
		if p.fitnessCriterion(fitnesses) >= p.Config.Neat.FitnessThreshold {
			p.Reporters.Info(fmt.Sprintf(
				"\nBest individual in generation %d meets fitness threshold - complexity: %v",
				p.Generation, formatSize(best)))
			return true, nil
		}
	}

	// Create the next generation.
	newGenomes, err := p.Reproduction.Reproduce(p.Config, p.SpeciesSet, p.Config.Neat.PopSize, p.Generation)
	if err != nil {
		return false, err
	}
	p.Genomes = newGenomes

	if len(p.Genomes) == 0 {
		p.Reporters.Info("All species extinct.")
		if !p.Config.Neat.ResetOnExtinction {
			return false, ErrCompleteExtinction
		}
		p.Genomes = p.Reproduction.CreateNewPopulation(&p.Config.Genome, p.Config.Neat.PopSize)
	}

	p.Generation++
	if err := p.SpeciesSet.Speciate(p.Config, p.Genomes, p.Generation); err != nil {
		return false, err
	}
	p.Reporters.EndGeneration(p)
	return false, nil
}

// Run executes up to maxGenerations generations, stopping early if the
// fitness threshold is met. A maxGenerations of zero or less runs until the
// threshold is met or extinction occurs. It returns the best genome seen.
func (p *Population) Run(fitnessFunc FitnessFunc, maxGenerations int) (*Genome, error) {
	for n := 0; maxGenerations <= 0 || n < maxGenerations; n++ {
		solved, err := p.RunGeneration(fitnessFunc)
		if err != nil {
			return p.BestGenome, err
		}
		if solved {
			return p.BestGenome, nil
		}
	}
	if p.Config.Neat.NoFitnessTermination {
		p.Reporters.Info(fmt.Sprintf("Maximum number of generations reached - best fitness: %v",
			formatFitness(p.BestGenome)))
	}
	return p.BestGenome, nil
}

func formatSize(g *Genome) string {
	if g == nil {
		return "(0, 0)"
	}
	nodes, conns := g.Size()
	return fmt.Sprintf("(%d, %d)", nodes, conns)
}

func formatFitness(g *Genome) string {
	if g == nil {
		return "none"
	}
	return fmt.Sprintf("%.5f", g.Fitness)
}
