package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"

	"github.com/neatgym/neatgym"
	"github.com/neatgym/neatgym/gym"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("neat-play", flag.ContinueOnError)
	noDisplay := fs.Bool("nodisplay", false, "suppress display")
	record := fs.String("record", "", "if specified, sets the recording trajectory file")
	seed := fs.Int64("seed", 0, "seed for random number generator")
	csvPath := fs.String("save", "", "save trajectory in CSV file")
	maxSteps := fs.Int("steps", 0, "cap episode length (0 runs to termination)")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "usage: neat-play [flags] FILENAME\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return fmt.Errorf("expected a .dat model file argument")
	}

	seedSet := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "seed" {
			seedSet = true
		}
	})

	model, err := neatgym.LoadModel(fs.Arg(0))
	if err != nil {
		return err
	}

	net, err := model.Spec.Compile()
	if err != nil {
		return fmt.Errorf("failed to compile model: %w", err)
	}

	env, err := gym.Make(model.EnvName)
	if err != nil {
		return fmt.Errorf("unable to make environment %s: %w", model.EnvName, err)
	}

	trajectory := *csvPath
	if trajectory == "" {
		trajectory = *record
	}

	result, err := neatgym.RunEpisode(net, env, neatgym.EpisodeOptions{
		Activations:    model.Activations,
		MaxSteps:       *maxSteps,
		Seed:           episodeSeed(seedSet, *seed),
		TrajectoryPath: trajectory,
		Render:         !*noDisplay,
	})
	if err != nil {
		return err
	}

	fmt.Printf("Got reward %+6.6f in %d steps\n", result.TotalReward, result.Steps)
	return nil
}

// episodeSeed honours an explicit --seed and otherwise draws a fresh one so
// that unseeded playback varies between invocations.
func episodeSeed(seedSet bool, seed int64) int64 {
	if seedSet {
		return seed
	}
	return rand.Int63()
}
