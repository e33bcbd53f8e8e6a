package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/neatgym/neatgym"
	"github.com/neatgym/neatgym/neat"
	"github.com/neatgym/neatgym/store"
)

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("neat-evolve", flag.ContinueOnError)
	envName := fs.String("env", "Pendulum-v1", "environment id")
	useHyper := fs.Bool("hyper", false, "evolve a CPPN over a fixed substrate")
	useESHyper := fs.Bool("eshyper", false, "evolve a CPPN over an evolvable substrate")
	checkpoint := fs.Bool("checkpoint", false, "save at each new best")
	checkpointInterval := fs.Int("checkpoint-interval", 0, "generations between population checkpoints (0 disables)")
	cfgDir := fs.String("cfgdir", "./config", "directory for config files")
	ngen := fs.Int("ngen", 0, "number of generations to run (0 runs to the fitness threshold)")
	reps := fs.Int("reps", 10, "number of repetitions per genome")
	seed := fs.Int64("seed", 0, "seed for random number generator")
	resume := fs.String("resume", "", "population checkpoint file to resume from")
	storeKind := fs.String("store", "", "run-history backend: memory|sqlite (empty disables)")
	dbPath := fs.String("dbpath", "neatgym.db", "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *useHyper && *useESHyper {
		return fmt.Errorf("--hyper and --eshyper are mutually exclusive")
	}

	variant := neatgym.Direct
	if *useHyper {
		variant = neatgym.Hyper
	}
	if *useESHyper {
		variant = neatgym.ESHyper
	}

	seedSet := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "seed" {
			seedSet = true
		}
	})
	if seedSet {
		neat.Seed(*seed)
	}

	rc, err := neatgym.LoadRunConfig(*cfgDir, *envName, variant)
	if err != nil {
		return err
	}
	rc.Repetitions = *reps
	rc.Seed = *seed
	rc.HasSeed = seedSet

	driver := &neatgym.Driver{
		RunConfig:          rc,
		Checkpoint:         *checkpoint,
		CheckpointInterval: *checkpointInterval,
		Resume:             *resume,
	}

	if *storeKind != "" {
		s, err := store.New(*storeKind, *dbPath)
		if err != nil {
			return err
		}
		if err := s.Init(ctx); err != nil {
			return err
		}
		defer func() {
			_ = store.CloseIfSupported(s)
		}()
		driver.Store = s
	}

	winner, err := driver.Run(ctx, *ngen)
	if err != nil {
		return err
	}

	nodes, conns := winner.Size()
	fmt.Printf("Best fitness %f - size (%d, %d)\n", winner.Fitness, nodes, conns)
	return nil
}
