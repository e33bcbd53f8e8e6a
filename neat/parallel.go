package neat

import (
	"runtime"
	"sync"
)

// GenomeEvaluator computes the fitness of a single genome.
type GenomeEvaluator func(genome *Genome) (float64, error)

// ParallelEvaluator distributes genome evaluations across a pool of worker
// goroutines. All workers finish before a generation advances; the first
// evaluation error aborts the batch.
type ParallelEvaluator struct {
	numWorkers int
	evalFunc   GenomeEvaluator
}

// NewParallelEvaluator creates an evaluator using numWorkers goroutines.
// A numWorkers of zero or less uses one worker per CPU.
func NewParallelEvaluator(numWorkers int, evalFunc GenomeEvaluator) *ParallelEvaluator {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	return &ParallelEvaluator{numWorkers: numWorkers, evalFunc: evalFunc}
}

// Evaluate assigns a fitness to every genome in the map. It satisfies the
// FitnessFunc signature expected by Population.Run.
func (pe *ParallelEvaluator) Evaluate(genomes map[int]*Genome) error {
	jobs := make(chan *Genome, len(genomes))
	results := make(chan error, len(genomes))

	var wg sync.WaitGroup
	for i := 0; i < pe.numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for g := range jobs {
				fitness, err := pe.evalFunc(g)
				if err != nil {
					results <- err
					continue
				}
				g.Fitness = fitness
				results <- nil
			}
		}()
	}

	for _, g := range genomes {
		jobs <- g
	}
	close(jobs)
	wg.Wait()
	close(results)

	for err := range results {
		if err != nil {
			return err
		}
	}
	return nil
}
