package neatgym

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/google/uuid"

	"github.com/neatgym/neatgym/neat"
	"github.com/neatgym/neatgym/store"
	"github.com/neatgym/neatgym/viz"
)

// Driver orchestrates one evolution run: population setup, parallel fitness
// dispatch with a generation barrier, progress and checkpoint reporters,
// run-history recording and unconditional final persistence of the winner.
type Driver struct {
	RunConfig *RunConfig

	// Checkpoint enables mid-run saving of every new champion.
	Checkpoint bool

	// CheckpointInterval, when positive, writes a resumable population
	// checkpoint every that many generations.
	CheckpointInterval int

	// CheckpointPrefix names the checkpoint files; the generation number is
	// appended. Defaults to "<env><suffix>-checkpoint-".
	CheckpointPrefix string

	// NumWorkers sizes the evaluation pool; zero means one per CPU.
	NumWorkers int

	// Store, when set, records the run and its generations.
	Store store.Store

	// Out receives progress output; os.Stdout if nil.
	Out io.Writer

	// Resume, when set, restores the population from a checkpoint file
	// instead of creating a fresh one.
	Resume string
}

// Run evolves for up to maxGenerations generations (zero or less runs until
// the fitness threshold is met) and returns the best genome. The winner is
// saved unconditionally on every successful completion path.
func (d *Driver) Run(ctx context.Context, maxGenerations int) (*neat.Genome, error) {
	rc := d.RunConfig
	out := d.Out
	if out == nil {
		out = os.Stdout
	}

	var population *neat.Population
	var err error
	if d.Resume != "" {
		population, err = neat.LoadCheckpoint(d.Resume, rc.Config)
		if err != nil {
			return nil, fmt.Errorf("failed to resume from %s: %w", d.Resume, err)
		}
	} else {
		population, err = neat.NewPopulation(rc.Config)
		if err != nil {
			return nil, err
		}
	}

	population.AddReporter(neat.NewStdOutReporter(out))
	stats := neat.NewStatisticsReporter()
	population.AddReporter(stats)
	saver := NewSaveReporter(rc, d.Checkpoint, out)
	population.AddReporter(saver)

	var checkpointer *neat.Checkpointer
	if d.CheckpointInterval > 0 {
		prefix := d.CheckpointPrefix
		if prefix == "" {
			prefix = rc.EnvName + rc.Variant.Suffix() + "-checkpoint-"
		}
		checkpointer = neat.NewCheckpointer(d.CheckpointInterval, 0, prefix)
		population.AddReporter(checkpointer)
	}

	runID := uuid.NewString()
	startedAt := time.Now()
	var history *HistoryReporter
	if d.Store != nil {
		if err := d.Store.SaveRun(ctx, store.Run{
			ID:        runID,
			EnvName:   rc.EnvName,
			Variant:   rc.Variant.String(),
			Seed:      rc.Seed,
			StartedAt: startedAt,
		}); err != nil {
			return nil, fmt.Errorf("failed to record run: %w", err)
		}
		history = NewHistoryReporter(ctx, d.Store, runID)
		population.AddReporter(history)
	}

	evaluator := neat.NewParallelEvaluator(d.workers(), rc.EvalGenome)

	winner, err := population.Run(func(genomes map[int]*neat.Genome) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := evaluator.Evaluate(genomes); err != nil {
			return err
		}
		return d.reporterErr(saver, history, checkpointer)
	}, maxGenerations)
	if err != nil {
		return winner, err
	}
	if winner == nil {
		return nil, fmt.Errorf("run produced no evaluated genomes")
	}

	// The last generation's reporters fire after the closure has already run,
	// so a failure there surfaces only here.
	if err := d.reporterErr(saver, history, checkpointer); err != nil {
		return winner, err
	}

	if err := rc.Save(winner); err != nil {
		return winner, err
	}

	if err := d.plotFitness(stats); err != nil {
		return winner, err
	}

	if d.Store != nil {
		if err := d.Store.SaveRun(ctx, store.Run{
			ID:          runID,
			EnvName:     rc.EnvName,
			Variant:     rc.Variant.String(),
			Seed:        rc.Seed,
			StartedAt:   startedAt,
			FinishedAt:  time.Now(),
			BestFitness: winner.Fitness,
			Generations: population.Generation,
		}); err != nil {
			return winner, fmt.Errorf("failed to record run: %w", err)
		}
	}
	return winner, nil
}

// reporterErr surfaces the first persistence failure from the run's
// reporters; all of them are fatal.
func (d *Driver) reporterErr(saver *SaveReporter, history *HistoryReporter, checkpointer *neat.Checkpointer) error {
	if saver.Err != nil {
		return fmt.Errorf("champion save failed: %w", saver.Err)
	}
	if history != nil && history.Err != nil {
		return fmt.Errorf("run history write failed: %w", history.Err)
	}
	if checkpointer != nil && checkpointer.LastError != nil {
		return fmt.Errorf("population checkpoint failed: %w", checkpointer.LastError)
	}
	return nil
}

func (d *Driver) workers() int {
	if d.NumWorkers > 0 {
		return d.NumWorkers
	}
	return runtime.NumCPU()
}

// plotFitness writes the per-generation fitness curve next to the diagrams.
func (d *Driver) plotFitness(stats *neat.StatisticsReporter) error {
	if len(stats.Generations) == 0 {
		return nil
	}
	rc := d.RunConfig
	if err := os.MkdirAll(rc.VisualsDir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", rc.VisualsDir, err)
	}
	name := rc.EnvName + rc.Variant.Suffix() + "-fitness.png"
	title := fmt.Sprintf("%s (%s)", rc.EnvName, rc.Variant)
	if err := viz.FitnessCurve(stats.BestFitnessHistory(), stats.MeanFitnessHistory(),
		title, filepath.Join(rc.VisualsDir, name)); err != nil {
		return fmt.Errorf("failed to plot fitness: %w", err)
	}
	return nil
}
