package neatgym

import (
	"fmt"
	"path/filepath"

	"gopkg.in/ini.v1"

	"github.com/neatgym/neatgym/gym"
	"github.com/neatgym/neatgym/hyper"
	"github.com/neatgym/neatgym/neat"
	"github.com/neatgym/neatgym/viz"
)

// Variant selects how genomes become phenotype networks. The set is closed;
// the variant is fixed at configuration-load time by the config-file suffix.
type Variant int

const (
	// Direct decodes genome topology straight into the phenotype.
	Direct Variant = iota
	// Hyper evolves a CPPN queried over a fixed substrate.
	Hyper
	// ESHyper evolves a CPPN over a quadtree-grown substrate.
	ESHyper
)

// Suffix returns the config-file and artifact-name suffix for the variant.
func (v Variant) Suffix() string {
	switch v {
	case Hyper:
		return "-hyper"
	case ESHyper:
		return "-eshyper"
	default:
		return ""
	}
}

func (v Variant) String() string {
	switch v {
	case Hyper:
		return "hyper"
	case ESHyper:
		return "eshyper"
	default:
		return "neat"
	}
}

// RunConfig owns everything needed to evaluate a generation and persist a
// winner: engine parameters with environment-derived arity injected, variant
// geometry, node naming, repetition count and artifact directories.
type RunConfig struct {
	EnvName     string
	Variant     Variant
	Config      *neat.Config
	Repetitions int
	Seed        int64
	HasSeed     bool

	// Names maps phenotype node keys to human labels for diagrams.
	Names map[int]string

	// Substrate and ES are nil unless the variant needs them.
	Substrate *hyper.Substrate
	ES        *hyper.ESParams

	ModelsDir  string
	VisualsDir string
	Visualizer viz.Visualizer

	obsSpace gym.Space
	actSpace gym.Space
}

// cppnArity is the fixed genome layout for indirect encodings: the CPPN
// reads (x1, y1, x2, y2, bias) and emits one weight.
const (
	cppnInputs  = 5
	cppnOutputs = 1
)

// sectionSchema enumerates the accepted keys of a configuration section the
// package owns. Unknown keys are rejected by name.
type sectionSchema struct {
	required []string
	optional []string
}

func (s sectionSchema) audit(section *ini.Section) error {
	accepted := make(map[string]bool, len(s.required)+len(s.optional))
	for _, k := range s.required {
		accepted[k] = true
	}
	for _, k := range s.optional {
		accepted[k] = true
	}
	for _, k := range section.KeyStrings() {
		if !accepted[k] {
			return fmt.Errorf("config error: unknown key '%s' in [%s]", k, section.Name())
		}
	}
	for _, k := range s.required {
		if !section.HasKey(k) {
			return fmt.Errorf("config error: missing required key '%s' in [%s]", k, section.Name())
		}
	}
	return nil
}

var (
	namesSectionKeys = sectionSchema{
		optional: []string{"input", "output"},
	}
	substrateSectionKeys = sectionSchema{
		required: []string{"function", "input", "output"},
		optional: []string{"hidden"},
	}
	esSubstrateSectionKeys = sectionSchema{
		required: []string{"function", "input", "output"},
	}
	esSectionKeys = sectionSchema{
		required: []string{
			"initial_depth", "max_depth", "variance_threshold", "band_threshold",
			"iteration_level", "division_threshold", "max_weight",
		},
		optional: []string{"activation"},
	}
)

// engineSections are owned and audited by the engine's own loader.
var engineSections = map[string]bool{
	ini.DefaultSection:    true,
	"NEAT":                true,
	"DefaultGenome":       true,
	"DefaultReproduction": true,
	"DefaultSpeciesSet":   true,
	"DefaultStagnation":   true,
}

// LoadRunConfig reads the configuration file for an environment and variant
// from cfgDir (file name is the environment name plus the variant suffix),
// injects the environment-derived arity and parses the variant-specific
// sections. The environment must be constructible; arity comes from its
// declared spaces.
func LoadRunConfig(cfgDir, envName string, variant Variant) (*RunConfig, error) {
	env, err := gym.Make(envName)
	if err != nil {
		return nil, &EnvError{Name: envName, Err: err}
	}
	defer env.Close()

	rc := &RunConfig{
		EnvName:     envName,
		Variant:     variant,
		Repetitions: 1,
		ModelsDir:   "models",
		VisualsDir:  "visuals",
		Visualizer:  &viz.GraphvizVisualizer{},
		obsSpace:    env.ObservationSpace(),
		actSpace:    env.ActionSpace(),
	}

	path := filepath.Join(cfgDir, envName+variant.Suffix())
	config, err := neat.LoadConfig(path)
	if err != nil {
		return nil, &ConfigError{Path: path, Err: err}
	}
	rc.Config = config

	numInputs := rc.obsSpace.Size()
	numOutputs := rc.actSpace.Size()

	// Indirect encodings evolve the CPPN, not the controller, so the genome
	// arity is the CPPN's regardless of the environment.
	switch variant {
	case Direct:
		err = config.SetIOLayout(numInputs, numOutputs)
	default:
		err = config.SetIOLayout(cppnInputs, cppnOutputs)
	}
	if err != nil {
		return nil, &ConfigError{Path: path, Err: err}
	}

	if err := rc.loadOwnedSections(path, numInputs, numOutputs); err != nil {
		return nil, err
	}
	return rc, nil
}

// loadOwnedSections parses [Names], [Substrate] and [ES] with the same
// strict key contract the engine applies to its sections, and rejects
// sections nobody owns.
func (rc *RunConfig) loadOwnedSections(path string, numInputs, numOutputs int) error {
	cfg, err := ini.Load(path)
	if err != nil {
		return &ConfigError{Path: path, Err: err}
	}

	owned := map[string]bool{"Names": true}
	if rc.Variant == Hyper {
		owned["Substrate"] = true
	}
	if rc.Variant == ESHyper {
		owned["Substrate"] = true
		owned["ES"] = true
	}
	for _, name := range cfg.SectionStrings() {
		if engineSections[name] || owned[name] {
			continue
		}
		return &ConfigError{Path: path, Err: fmt.Errorf("config error: unknown section [%s]", name)}
	}

	if cfg.HasSection("Names") {
		if err := rc.loadNames(cfg.Section("Names"), numInputs, numOutputs); err != nil {
			return &ConfigError{Path: path, Err: err}
		}
	}

	switch rc.Variant {
	case Hyper, ESHyper:
		if !cfg.HasSection("Substrate") {
			return &ConfigError{Path: path, Err: fmt.Errorf("config error: missing section [Substrate]")}
		}
		schema := substrateSectionKeys
		if rc.Variant == ESHyper {
			schema = esSubstrateSectionKeys
		}
		if err := schema.audit(cfg.Section("Substrate")); err != nil {
			return &ConfigError{Path: path, Err: err}
		}
		if err := rc.loadSubstrate(cfg.Section("Substrate"), numInputs, numOutputs); err != nil {
			return &ConfigError{Path: path, Err: err}
		}
	}

	if rc.Variant == ESHyper {
		if !cfg.HasSection("ES") {
			return &ConfigError{Path: path, Err: fmt.Errorf("config error: missing section [ES]")}
		}
		if err := esSectionKeys.audit(cfg.Section("ES")); err != nil {
			return &ConfigError{Path: path, Err: err}
		}
		if err := rc.loadES(cfg.Section("ES")); err != nil {
			return &ConfigError{Path: path, Err: err}
		}
	}
	return nil
}

func (rc *RunConfig) loadNames(section *ini.Section, numInputs, numOutputs int) error {
	if err := namesSectionKeys.audit(section); err != nil {
		return err
	}
	rc.Names = make(map[int]string)
	if section.HasKey("input") {
		labels, err := hyper.ParseStrings(section.Key("input").String())
		if err != nil {
			return err
		}
		if len(labels) != numInputs {
			return fmt.Errorf("config error: [Names] input has %d labels, environment has %d inputs",
				len(labels), numInputs)
		}
		for i, label := range labels {
			rc.Names[-(i + 1)] = label
		}
	}
	if section.HasKey("output") {
		labels, err := hyper.ParseStrings(section.Key("output").String())
		if err != nil {
			return err
		}
		if len(labels) != numOutputs {
			return fmt.Errorf("config error: [Names] output has %d labels, environment has %d outputs",
				len(labels), numOutputs)
		}
		for i, label := range labels {
			rc.Names[i] = label
		}
	}
	return nil
}

func (rc *RunConfig) loadSubstrate(section *ini.Section, numInputs, numOutputs int) error {
	sub := &hyper.Substrate{Function: section.Key("function").String()}
	if _, err := neat.GetActivation(sub.Function); err != nil {
		return fmt.Errorf("config error: %w", err)
	}

	var err error
	sub.Inputs, err = hyper.ParsePoints(section.Key("input").String())
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	sub.Outputs, err = hyper.ParsePoints(section.Key("output").String())
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	if section.HasKey("hidden") {
		sub.Hidden, err = hyper.ParsePoints(section.Key("hidden").String())
		if err != nil {
			return fmt.Errorf("config error: %w", err)
		}
	}

	if err := sub.Validate(numInputs, numOutputs); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	rc.Substrate = sub
	return nil
}

func (rc *RunConfig) loadES(section *ini.Section) error {
	params := &hyper.ESParams{Activation: "sigmoid"}

	var err error
	if params.InitialDepth, err = section.Key("initial_depth").Int(); err != nil {
		return fmt.Errorf("config error: bad initial_depth: %w", err)
	}
	if params.MaxDepth, err = section.Key("max_depth").Int(); err != nil {
		return fmt.Errorf("config error: bad max_depth: %w", err)
	}
	if params.VarianceThreshold, err = section.Key("variance_threshold").Float64(); err != nil {
		return fmt.Errorf("config error: bad variance_threshold: %w", err)
	}
	if params.BandThreshold, err = section.Key("band_threshold").Float64(); err != nil {
		return fmt.Errorf("config error: bad band_threshold: %w", err)
	}
	if params.IterationLevel, err = section.Key("iteration_level").Int(); err != nil {
		return fmt.Errorf("config error: bad iteration_level: %w", err)
	}
	if params.DivisionThreshold, err = section.Key("division_threshold").Float64(); err != nil {
		return fmt.Errorf("config error: bad division_threshold: %w", err)
	}
	if params.MaxWeight, err = section.Key("max_weight").Float64(); err != nil {
		return fmt.Errorf("config error: bad max_weight: %w", err)
	}
	if section.HasKey("activation") {
		params.Activation = section.Key("activation").String()
	}
	if _, err := neat.GetActivation(params.Activation); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	if err := params.Validate(); err != nil {
		return fmt.Errorf("config error: %w", err)
	}

	rc.ES = params
	return nil
}

// MakeEnv constructs a fresh instance of the run's environment.
func (rc *RunConfig) MakeEnv() (gym.Env, error) {
	env, err := gym.Make(rc.EnvName)
	if err != nil {
		return nil, &EnvError{Name: rc.EnvName, Err: err}
	}
	return env, nil
}

// ObservationSpace returns the environment's observation space as captured
// at configuration time.
func (rc *RunConfig) ObservationSpace() gym.Space { return rc.obsSpace }

// ActionSpace returns the environment's action space as captured at
// configuration time.
func (rc *RunConfig) ActionSpace() gym.Space { return rc.actSpace }
