package neatgym

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gonum.org/v1/gonum/floats"

	"github.com/neatgym/neatgym/gym"
	"github.com/neatgym/neatgym/neat/nn"
)

// renderDelay keeps rendered episodes humanly viewable.
const renderDelay = 20 * time.Millisecond

// EpisodeResult is the outcome of one episode.
type EpisodeResult struct {
	TotalReward float64
	Steps       int
}

// EpisodeOptions control a single episode run.
type EpisodeOptions struct {
	// Activations is how many network passes settle the output per
	// observation; the last pass's output becomes the action.
	Activations int

	// MaxSteps caps the episode length; zero means unbounded.
	MaxSteps int

	// Seed seeds the environment's episode dynamics.
	Seed int64

	// TrajectoryPath, when set, records one CSV line per step: the decoded
	// action followed by the resulting observation.
	TrajectoryPath string

	// Render writes the environment's textual rendering to RenderTo (or
	// stdout) with a fixed per-step delay.
	Render   bool
	RenderTo io.Writer
}

// RunEpisode runs a network against an environment for one episode. The
// environment is closed before returning on every path.
func RunEpisode(net nn.Network, env gym.Env, opts EpisodeOptions) (EpisodeResult, error) {
	defer env.Close()

	activations := opts.Activations
	if activations < 1 {
		activations = 1
	}

	obs, err := env.Reset(opts.Seed)
	if err != nil {
		return EpisodeResult{}, fmt.Errorf("failed to reset %s: %w", env.Name(), err)
	}

	var trajectory *os.File
	if opts.TrajectoryPath != "" {
		trajectory, err = os.Create(opts.TrajectoryPath)
		if err != nil {
			return EpisodeResult{}, fmt.Errorf("failed to open trajectory file: %w", err)
		}
		defer trajectory.Close()
	}

	renderTo := opts.RenderTo
	if renderTo == nil {
		renderTo = os.Stdout
	}

	actSpace := env.ActionSpace()
	totalReward := 0.0
	steps := 0

	for opts.MaxSteps == 0 || steps < opts.MaxSteps {
		var out []float64
		for k := 0; k < activations; k++ {
			out, err = net.Activate(obs)
			if err != nil {
				return EpisodeResult{}, fmt.Errorf("network activation failed: %w", err)
			}
		}

		action := decodeAction(out, actSpace)

		result, err := env.Step(action)
		if err != nil {
			return EpisodeResult{}, fmt.Errorf("environment step failed: %w", err)
		}
		obs = result.Observation

		if trajectory != nil {
			if err := writeTrajectoryLine(trajectory, action, actSpace, obs); err != nil {
				return EpisodeResult{}, fmt.Errorf("failed to write trajectory: %w", err)
			}
		}

		if opts.Render {
			fmt.Fprintln(renderTo, env.Render())
			time.Sleep(renderDelay)
		}

		totalReward += result.Reward

		if result.Terminated || result.Truncated {
			break
		}
		steps++
	}

	return EpisodeResult{TotalReward: totalReward, Steps: steps}, nil
}

// decodeAction turns a network output vector into an environment action:
// argmax for discrete spaces, element-wise scale by the declared upper bound
// for continuous ones.
func decodeAction(out []float64, space gym.Space) gym.Action {
	if space.Discrete {
		return gym.Action{Discrete: floats.MaxIdx(out)}
	}
	box := make([]float64, len(out))
	copy(box, out)
	floats.Mul(box, space.High)
	return gym.Action{Box: box}
}

// writeTrajectoryLine writes one CSV record: "%d," for a discrete action or
// "%f," per continuous dimension, then the observation at six decimals, no
// header.
func writeTrajectoryLine(w io.Writer, action gym.Action, space gym.Space, obs []float64) error {
	var b strings.Builder
	if space.Discrete {
		fmt.Fprintf(&b, "%d,", action.Discrete)
	} else {
		for _, a := range action.Box {
			fmt.Fprintf(&b, "%f,", a)
		}
	}
	for i, o := range obs {
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(&b, "%f", o)
	}
	b.WriteByte('\n')
	_, err := io.WriteString(w, b.String())
	return err
}
