package neat

import (
	"compress/gzip"
	"encoding/gob"
	"fmt"
	"os"
	"time"
)

// checkpointState is the gob-serializable portion of a population. Config
// references are re-linked on restore.
type checkpointState struct {
	Generation    int
	Genomes       map[int]*Genome
	SpeciesSet    *SpeciesSet
	NextGenomeKey int
	Ancestors     map[int][]int
}

// SaveCheckpoint writes the population state to a gzip-compressed gob file.
func SaveCheckpoint(p *Population, filename string) error {
	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create checkpoint file: %w", err)
	}
	defer f.Close()

	zw := gzip.NewWriter(f)
	state := checkpointState{
		Generation:    p.Generation,
		Genomes:       p.Genomes,
		SpeciesSet:    p.SpeciesSet,
		NextGenomeKey: p.Reproduction.NextGenomeKey,
		Ancestors:     p.Reproduction.Ancestors,
	}
	if err := gob.NewEncoder(zw).Encode(&state); err != nil {
		zw.Close()
		return fmt.Errorf("failed to encode checkpoint: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to finish checkpoint: %w", err)
	}
	return nil
}

// LoadCheckpoint restores a population from a checkpoint file. The provided
// config replaces the one that was active when the checkpoint was written.
func LoadCheckpoint(filename string, config *Config) (*Population, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open checkpoint file: %w", err)
	}
	defer f.Close()

	zr, err := gzip.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read checkpoint: %w", err)
	}
	defer zr.Close()

	var state checkpointState
	if err := gob.NewDecoder(zr).Decode(&state); err != nil {
		return nil, fmt.Errorf("failed to decode checkpoint: %w", err)
	}

	stagnation, err := NewStagnation(&config.Stagnation)
	if err != nil {
		return nil, err
	}
	reproduction := NewReproduction(&config.Reproduction, stagnation)
	reproduction.NextGenomeKey = state.NextGenomeKey
	reproduction.Ancestors = state.Ancestors

	p := &Population{
		Config:       config,
		Genomes:      state.Genomes,
		SpeciesSet:   state.SpeciesSet,
		Reproduction: reproduction,
		Generation:   state.Generation,
		Reporters:    NewReporterSet(),
	}

	// Gob does not preserve pointer identity, so re-link configs and point
	// species members back at the canonical genome map.
	for _, g := range p.Genomes {
		g.Config = &config.Genome
	}
	p.SpeciesSet.Config = &config.SpeciesSet
	if p.SpeciesSet.GenomeToSpecies == nil {
		p.SpeciesSet.GenomeToSpecies = make(map[int]int)
	}
	for _, sp := range p.SpeciesSet.Species {
		for key := range sp.Members {
			if g, ok := p.Genomes[key]; ok {
				sp.Members[key] = g
			}
		}
		if sp.Representative != nil {
			if g, ok := p.Genomes[sp.Representative.Key]; ok {
				sp.Representative = g
			}
		}
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

// Checkpointer is a reporter that periodically saves population checkpoints
// every generationInterval generations or timeInterval of wall time,
// whichever comes first.
type Checkpointer struct {
	GenerationInterval int
	TimeInterval       time.Duration
	FilenamePrefix     string

	lastGeneration int
	lastTime       time.Time
	LastError      error
}

// NewCheckpointer creates a checkpointer writing files named
// prefix<generation>.
func NewCheckpointer(generationInterval int, timeInterval time.Duration, filenamePrefix string) *Checkpointer {
	return &Checkpointer{
		GenerationInterval: generationInterval,
		TimeInterval:       timeInterval,
		FilenamePrefix:     filenamePrefix,
		lastGeneration:     -1,
		lastTime:           time.Now(),
	}
}

func (c *Checkpointer) StartGeneration(generation int) {}

func (c *Checkpointer) PostEvaluate(population *Population, best *Genome) {}

func (c *Checkpointer) EndGeneration(population *Population) {
	due := false
	if c.GenerationInterval > 0 && population.Generation-c.lastGeneration >= c.GenerationInterval {
		due = true
	}
	if c.TimeInterval > 0 && time.Since(c.lastTime) >= c.TimeInterval {
		due = true
	}
	if !due {
		return
	}
	filename := fmt.Sprintf("%s%d", c.FilenamePrefix, population.Generation)
	c.LastError = SaveCheckpoint(population, filename)
	c.lastGeneration = population.Generation
	c.lastTime = time.Now()
}

func (c *Checkpointer) Info(msg string) {}
