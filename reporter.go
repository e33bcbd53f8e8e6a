package neatgym

import (
	"context"
	"fmt"
	"io"

	"gonum.org/v1/gonum/stat"

	"github.com/neatgym/neatgym/neat"
	"github.com/neatgym/neatgym/store"
)

// SaveReporter checkpoints every new champion: when a generation's best
// genome strictly beats the best fitness seen so far, the genome is saved
// immediately, independent of the final save at run end.
type SaveReporter struct {
	runConfig *RunConfig
	enabled   bool
	out       io.Writer

	best     float64
	haveBest bool

	// Err holds the first persistence failure; the driver treats it as fatal
	// at the next generation boundary.
	Err error
}

// NewSaveReporter creates a checkpoint reporter. With enabled false it
// observes without saving.
func NewSaveReporter(rc *RunConfig, enabled bool, out io.Writer) *SaveReporter {
	return &SaveReporter{runConfig: rc, enabled: enabled, out: out}
}

func (r *SaveReporter) StartGeneration(generation int) {}

func (r *SaveReporter) PostEvaluate(population *neat.Population, best *neat.Genome) {
	if !r.enabled || best == nil || r.Err != nil {
		return
	}
	if r.haveBest && best.Fitness <= r.best {
		return
	}
	r.best = best.Fitness
	r.haveBest = true
	fmt.Fprintf(r.out, "############# Saving new best %f ##############\n", r.best)
	r.Err = r.runConfig.Save(best)
}

func (r *SaveReporter) EndGeneration(population *neat.Population) {}

func (r *SaveReporter) Info(msg string) {}

// HistoryReporter records per-generation summaries into a run-history store.
type HistoryReporter struct {
	store store.Store
	runID string
	ctx   context.Context

	// Err holds the first store failure.
	Err error
}

// NewHistoryReporter creates a reporter writing generation records for runID.
func NewHistoryReporter(ctx context.Context, s store.Store, runID string) *HistoryReporter {
	return &HistoryReporter{store: s, runID: runID, ctx: ctx}
}

func (r *HistoryReporter) StartGeneration(generation int) {}

func (r *HistoryReporter) PostEvaluate(population *neat.Population, best *neat.Genome) {
	if r.Err != nil {
		return
	}
	fitnesses := make([]float64, 0, len(population.Genomes))
	for _, g := range population.Genomes {
		fitnesses = append(fitnesses, g.Fitness)
	}
	record := store.GenerationRecord{
		RunID:       r.runID,
		Generation:  population.Generation,
		MeanFitness: stat.Mean(fitnesses, nil),
		NumSpecies:  len(population.SpeciesSet.Species),
		PopSize:     len(population.Genomes),
	}
	if best != nil {
		record.BestFitness = best.Fitness
	}
	r.Err = r.store.SaveGeneration(r.ctx, record)
}

func (r *HistoryReporter) EndGeneration(population *neat.Population) {}

func (r *HistoryReporter) Info(msg string) {}
