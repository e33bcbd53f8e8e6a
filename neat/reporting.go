package neat

import (
	"fmt"
	"io"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"
)

// Reporter receives callbacks as evolution progresses. Implementations must
// tolerate being called from a single goroutine only.
type Reporter interface {
	StartGeneration(generation int)
	PostEvaluate(population *Population, best *Genome)
	EndGeneration(population *Population)
	Info(msg string)
}

// ReporterSet fans callbacks out to a list of reporters.
type ReporterSet struct {
	reporters []Reporter
}

func NewReporterSet() *ReporterSet {
	return &ReporterSet{}
}

func (rs *ReporterSet) Add(r Reporter) {
	rs.reporters = append(rs.reporters, r)
}

func (rs *ReporterSet) StartGeneration(generation int) {
	for _, r := range rs.reporters {
		r.StartGeneration(generation)
	}
}

func (rs *ReporterSet) PostEvaluate(population *Population, best *Genome) {
	for _, r := range rs.reporters {
		r.PostEvaluate(population, best)
	}
}

func (rs *ReporterSet) EndGeneration(population *Population) {
	for _, r := range rs.reporters {
		r.EndGeneration(population)
	}
}

func (rs *ReporterSet) Info(msg string) {
	for _, r := range rs.reporters {
		r.Info(msg)
	}
}

// StdOutReporter prints per-generation summaries, mirroring the familiar
// console output of NEAT drivers.
type StdOutReporter struct {
	w         io.Writer
	startTime time.Time
}

func NewStdOutReporter(w io.Writer) *StdOutReporter {
	return &StdOutReporter{w: w}
}

func (r *StdOutReporter) StartGeneration(generation int) {
	r.startTime = time.Now()
	fmt.Fprintf(r.w, "\n ****** Running generation %d ****** \n\n", generation)
}

func (r *StdOutReporter) PostEvaluate(population *Population, best *Genome) {
	fitnesses := make([]float64, 0, len(population.Genomes))
	for _, g := range population.Genomes {
		fitnesses = append(fitnesses, g.Fitness)
	}
	mean := stat.Mean(fitnesses, nil)
	stdev := stat.StdDev(fitnesses, nil)
	fmt.Fprintf(r.w, "Population's average fitness: %.5f stdev: %.5f\n", mean, stdev)
	if best != nil {
		nodes, conns := best.Size()
		speciesID, _ := population.SpeciesSet.GetSpeciesID(best.Key)
		fmt.Fprintf(r.w, "Best fitness: %.5f - size: (%d, %d) - species %d - id %d\n",
			best.Fitness, nodes, conns, speciesID, best.Key)
	}
}

func (r *StdOutReporter) EndGeneration(population *Population) {
	elapsed := time.Since(r.startTime)
	fmt.Fprintf(r.w, "Population of %d members in %d species\n",
		len(population.Genomes), len(population.SpeciesSet.Species))
	ids := make([]int, 0, len(population.SpeciesSet.Species))
	for id := range population.SpeciesSet.Species {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	fmt.Fprintln(r.w, "   ID   age  size   fitness   adj fit  stag")
	fmt.Fprintln(r.w, "  ====  ===  ====  =========  =======  ====")
	for _, id := range ids {
		sp := population.SpeciesSet.Species[id]
		age := population.Generation - sp.Created
		stag := population.Generation - sp.LastImproved
		fmt.Fprintf(r.w, "  %4d  %3d  %4d  %9.3f  %7.3f  %4d\n",
			id, age, len(sp.Members), sp.Fitness, sp.AdjustedFitness, stag)
	}
	fmt.Fprintf(r.w, "Generation time: %.3f sec\n", elapsed.Seconds())
}

func (r *StdOutReporter) Info(msg string) {
	fmt.Fprintln(r.w, msg)
}

// GenerationStatistics captures a snapshot of population fitness per
// generation.
type GenerationStatistics struct {
	Generation   int
	BestFitness  float64
	MeanFitness  float64
	StdevFitness float64
	NumSpecies   int
}

// StatisticsReporter accumulates per-generation fitness statistics for later
// inspection or plotting.
type StatisticsReporter struct {
	Generations    []GenerationStatistics
	MostFitGenomes []*Genome
}

func NewStatisticsReporter() *StatisticsReporter {
	return &StatisticsReporter{}
}

func (r *StatisticsReporter) StartGeneration(generation int) {}

func (r *StatisticsReporter) PostEvaluate(population *Population, best *Genome) {
	fitnesses := make([]float64, 0, len(population.Genomes))
	for _, g := range population.Genomes {
		fitnesses = append(fitnesses, g.Fitness)
	}
	gs := GenerationStatistics{
		Generation:   population.Generation,
		MeanFitness:  stat.Mean(fitnesses, nil),
		StdevFitness: stat.StdDev(fitnesses, nil),
		NumSpecies:   len(population.SpeciesSet.Species),
	}
	if best != nil {
		gs.BestFitness = best.Fitness
		r.MostFitGenomes = append(r.MostFitGenomes, best)
	}
	r.Generations = append(r.Generations, gs)
}

func (r *StatisticsReporter) EndGeneration(population *Population) {}

func (r *StatisticsReporter) Info(msg string) {}

// BestGenome returns the fittest genome seen across all generations, or nil
// if no generation has been evaluated.
func (r *StatisticsReporter) BestGenome() *Genome {
	var best *Genome
	for _, g := range r.MostFitGenomes {
		if best == nil || g.Fitness > best.Fitness {
			best = g
		}
	}
	return best
}

// BestFitnessHistory returns the per-generation best fitness values in
// generation order.
func (r *StatisticsReporter) BestFitnessHistory() []float64 {
	history := make([]float64, len(r.Generations))
	for i, gs := range r.Generations {
		history[i] = gs.BestFitness
	}
	return history
}

// MeanFitnessHistory returns the per-generation mean fitness values in
// generation order.
func (r *StatisticsReporter) MeanFitnessHistory() []float64 {
	history := make([]float64, len(r.Generations))
	for i, gs := range r.Generations {
		history[i] = gs.MeanFitness
	}
	return history
}
