package neatgym

import (
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"

	"github.com/neatgym/neatgym/neat"
	"github.com/neatgym/neatgym/neat/nn"
)

// SavedModel is the persisted form of an evolved controller: the network
// spec, the environment it was evolved for, and the activation count needed
// to settle its output during playback.
type SavedModel struct {
	Spec        *nn.Spec
	EnvName     string
	Activations int
}

// ModelFileName formats the canonical artifact name: environment name,
// variant suffix and the fitness as a signed fixed-width token so directory
// listings order models by fitness value.
func ModelFileName(envName, suffix string, fitness float64) string {
	return fmt.Sprintf("%s%s%+011.3f", envName, suffix, fitness)
}

// Save persists a genome's network artifacts: the phenotype spec with the
// environment identity as a gob model file under ModelsDir, and one diagram
// per distinct network under VisualsDir. Indirect encodings produce a second
// diagram for the CPPN. Persistence failures are fatal to the run.
func (rc *RunConfig) Save(g *neat.Genome) error {
	built, err := rc.BuildNetwork(g)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(rc.ModelsDir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", rc.ModelsDir, err)
	}
	if err := os.MkdirAll(rc.VisualsDir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", rc.VisualsDir, err)
	}

	name := ModelFileName(rc.EnvName, rc.Variant.Suffix(), g.Fitness)

	modelPath := filepath.Join(rc.ModelsDir, name+".dat")
	if err := writeModel(modelPath, &SavedModel{
		Spec:        built.Spec,
		EnvName:     rc.EnvName,
		Activations: built.Activations,
	}); err != nil {
		return err
	}

	if rc.Visualizer == nil {
		return nil
	}
	if err := rc.Visualizer.Draw(built.Spec, rc.Names, filepath.Join(rc.VisualsDir, name+".png")); err != nil {
		return fmt.Errorf("failed to draw network: %w", err)
	}
	if built.CPPNSpec != nil {
		cppnNames := map[int]string{-1: "x1", -2: "y1", -3: "x2", -4: "y2", -5: "bias", 0: "weight"}
		if err := rc.Visualizer.Draw(built.CPPNSpec, cppnNames, filepath.Join(rc.VisualsDir, name+"-cppn.png")); err != nil {
			return fmt.Errorf("failed to draw cppn: %w", err)
		}
	}
	return nil
}

func writeModel(path string, model *SavedModel) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create model file: %w", err)
	}
	defer f.Close()

	if err := gob.NewEncoder(f).Encode(model); err != nil {
		return fmt.Errorf("failed to encode model: %w", err)
	}
	return nil
}

// LoadModel reads a model file written by Save.
func LoadModel(path string) (*SavedModel, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open model file: %w", err)
	}
	defer f.Close()

	var model SavedModel
	if err := gob.NewDecoder(f).Decode(&model); err != nil {
		return nil, fmt.Errorf("failed to decode model file %s: %w", path, err)
	}
	return &model, nil
}
