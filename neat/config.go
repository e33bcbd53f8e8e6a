package neat

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/ini.v1"
)

// Config stores the configuration parameters for the NEAT algorithm.
type Config struct {
	Neat         NeatConfig
	Genome       GenomeConfig
	Reproduction ReproductionConfig
	SpeciesSet   SpeciesSetConfig
	Stagnation   StagnationConfig
}

// NeatConfig holds parameters specific to the NEAT algorithm itself.
type NeatConfig struct {
	PopSize              int     `ini:"pop_size"`
	FitnessCriterion     string  `ini:"fitness_criterion"` // "max", "min" or "mean"
	FitnessThreshold     float64 `ini:"fitness_threshold"`
	ResetOnExtinction    bool    `ini:"reset_on_extinction"`
	NoFitnessTermination bool    `ini:"no_fitness_termination"`
}

// GenomeConfig holds parameters specific to the structure and mutation of genomes.
type GenomeConfig struct {
	NumInputs                        int     `ini:"num_inputs"`
	NumOutputs                       int     `ini:"num_outputs"`
	NumHidden                        int     `ini:"num_hidden"`
	FeedForward                      bool    `ini:"feed_forward"`
	CompatibilityDisjointCoefficient float64 `ini:"compatibility_disjoint_coefficient"`
	CompatibilityWeightCoefficient   float64 `ini:"compatibility_weight_coefficient"`
	ConnAddProb                      float64 `ini:"conn_add_prob"`
	ConnDeleteProb                   float64 `ini:"conn_delete_prob"`
	NodeAddProb                      float64 `ini:"node_add_prob"`
	NodeDeleteProb                   float64 `ini:"node_delete_prob"`
	SingleStructuralMutation         bool    `ini:"single_structural_mutation"`
	StructuralMutationSurer          string  `ini:"structural_mutation_surer"`
	InitialConnection                string  `ini:"initial_connection"`

	BiasInitMean    float64 `ini:"bias_init_mean"`
	BiasInitStdev   float64 `ini:"bias_init_stdev"`
	BiasInitType    string  `ini:"bias_init_type"`
	BiasReplaceRate float64 `ini:"bias_replace_rate"`
	BiasMutateRate  float64 `ini:"bias_mutate_rate"`
	BiasMutatePower float64 `ini:"bias_mutate_power"`
	BiasMaxValue    float64 `ini:"bias_max_value"`
	BiasMinValue    float64 `ini:"bias_min_value"`

	ResponseInitMean    float64 `ini:"response_init_mean"`
	ResponseInitStdev   float64 `ini:"response_init_stdev"`
	ResponseInitType    string  `ini:"response_init_type"`
	ResponseReplaceRate float64 `ini:"response_replace_rate"`
	ResponseMutateRate  float64 `ini:"response_mutate_rate"`
	ResponseMutatePower float64 `ini:"response_mutate_power"`
	ResponseMaxValue    float64 `ini:"response_max_value"`
	ResponseMinValue    float64 `ini:"response_min_value"`

	ActivationDefault    string   `ini:"activation_default"`
	ActivationOptions    []string `ini:"activation_options" delim:" "`
	ActivationMutateRate float64  `ini:"activation_mutate_rate"`

	AggregationDefault    string   `ini:"aggregation_default"`
	AggregationOptions    []string `ini:"aggregation_options" delim:" "`
	AggregationMutateRate float64  `ini:"aggregation_mutate_rate"`

	WeightInitMean    float64 `ini:"weight_init_mean"`
	WeightInitStdev   float64 `ini:"weight_init_stdev"`
	WeightInitType    string  `ini:"weight_init_type"`
	WeightReplaceRate float64 `ini:"weight_replace_rate"`
	WeightMutateRate  float64 `ini:"weight_mutate_rate"`
	WeightMutatePower float64 `ini:"weight_mutate_power"`
	WeightMaxValue    float64 `ini:"weight_max_value"`
	WeightMinValue    float64 `ini:"weight_min_value"`

	EnabledDefault        string  `ini:"enabled_default"`
	EnabledMutateRate     float64 `ini:"enabled_mutate_rate"`
	EnabledRateToTrueAdd  float64 `ini:"enabled_rate_to_true_add"`
	EnabledRateToFalseAdd float64 `ini:"enabled_rate_to_false_add"`

	// Derived at load time, never read from the file.
	InputKeys    []int `ini:"-"`
	OutputKeys   []int `ini:"-"`
	NodeKeyIndex int   `ini:"-"`
}

// ReproductionConfig holds parameters related to reproduction.
type ReproductionConfig struct {
	Elitism           int     `ini:"elitism"`
	SurvivalThreshold float64 `ini:"survival_threshold"`
	MinSpeciesSize    int     `ini:"min_species_size"`
}

// SpeciesSetConfig holds parameters related to speciation.
type SpeciesSetConfig struct {
	CompatibilityThreshold float64 `ini:"compatibility_threshold"`
}

// StagnationConfig holds parameters related to species stagnation.
type StagnationConfig struct {
	SpeciesFitnessFunc string `ini:"species_fitness_func"`
	MaxStagnation      int    `ini:"max_stagnation"`
	SpeciesElitism     int    `ini:"species_elitism"`
}

type sectionSchema struct {
	required []string
	optional []string
}

// Accepted and required keys per engine-owned section. Any key in one of
// these sections that is not listed here is a configuration error; the
// parser never drops keys silently.
var (
	neatSectionKeys = sectionSchema{
		required: []string{"pop_size", "fitness_criterion", "fitness_threshold", "reset_on_extinction"},
		optional: []string{"no_fitness_termination"},
	}
	genomeSectionKeys = sectionSchema{
		required: []string{"num_inputs", "num_outputs", "activation_options", "aggregation_options"},
		optional: []string{
			"num_hidden", "feed_forward",
			"compatibility_disjoint_coefficient", "compatibility_weight_coefficient",
			"conn_add_prob", "conn_delete_prob", "node_add_prob", "node_delete_prob",
			"single_structural_mutation", "structural_mutation_surer", "initial_connection",
			"bias_init_mean", "bias_init_stdev", "bias_init_type", "bias_replace_rate",
			"bias_mutate_rate", "bias_mutate_power", "bias_max_value", "bias_min_value",
			"response_init_mean", "response_init_stdev", "response_init_type", "response_replace_rate",
			"response_mutate_rate", "response_mutate_power", "response_max_value", "response_min_value",
			"activation_default", "activation_mutate_rate",
			"aggregation_default", "aggregation_mutate_rate",
			"weight_init_mean", "weight_init_stdev", "weight_init_type", "weight_replace_rate",
			"weight_mutate_rate", "weight_mutate_power", "weight_max_value", "weight_min_value",
			"enabled_default", "enabled_mutate_rate", "enabled_rate_to_true_add", "enabled_rate_to_false_add",
		},
	}
	reproductionSectionKeys = sectionSchema{
		optional: []string{"elitism", "survival_threshold", "min_species_size"},
	}
	speciesSetSectionKeys = sectionSchema{
		required: []string{"compatibility_threshold"},
	}
	stagnationSectionKeys = sectionSchema{
		optional: []string{"species_fitness_func", "max_stagnation", "species_elitism"},
	}
)

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

// LoadConfig loads configuration parameters from an INI file. Sections not
// owned by the engine (for example [Names] or [Substrate]) are left for the
// caller; keys inside engine-owned sections are validated strictly.
func LoadConfig(filePath string) (*Config, error) {
	if _, err := os.Stat(filePath); err != nil {
		return nil, fmt.Errorf("config error: cannot read config file '%s': %w", filePath, err)
	}
	cfg, err := ini.Load(filePath)
	if err != nil {
		return nil, fmt.Errorf("config error: failed to parse config file '%s': %w", filePath, err)
	}

	config := &Config{}

	sections := []struct {
		name   string
		schema sectionSchema
		target any
	}{
		{"NEAT", neatSectionKeys, &config.Neat},
		{"DefaultGenome", genomeSectionKeys, &config.Genome},
		{"DefaultReproduction", reproductionSectionKeys, &config.Reproduction},
		{"DefaultSpeciesSet", speciesSetSectionKeys, &config.SpeciesSet},
		{"DefaultStagnation", stagnationSectionKeys, &config.Stagnation},
	}
	for _, s := range sections {
		if !cfg.HasSection(s.name) && len(s.schema.required) > 0 {
			return nil, fmt.Errorf("config error: missing section [%s] in '%s'", s.name, filePath)
		}
		section := cfg.Section(s.name)
		if err := s.schema.audit(section); err != nil {
			return nil, err
		}
		if err := section.MapTo(s.target); err != nil {
			return nil, fmt.Errorf("config error: failed to map [%s] section: %w", s.name, err)
		}
	}

	applyDefaults(config)
	trimOptionLists(config)

	if err := config.finalizeGenomeLayout(); err != nil {
		return nil, err
	}
	if err := validate(config); err != nil {
		return nil, err
	}
	return config, nil
}

// SetIOLayout overrides the genome input/output arity with values derived
// from the target environment and re-derives the node key layout. This is
// the coupling point between the environment's observation/action shapes
// and the topologies the engine may propose.
func (c *Config) SetIOLayout(numInputs, numOutputs int) error {
	c.Genome.NumInputs = numInputs
	c.Genome.NumOutputs = numOutputs
	return c.finalizeGenomeLayout()
}

func (c *Config) finalizeGenomeLayout() error {
	gc := &c.Genome
	if gc.NumInputs <= 0 {
		return fmt.Errorf("config error: num_inputs must be positive, got %d", gc.NumInputs)
	}
	if gc.NumOutputs <= 0 {
		return fmt.Errorf("config error: num_outputs must be positive, got %d", gc.NumOutputs)
	}
	gc.InputKeys = make([]int, gc.NumInputs)
	for i := 0; i < gc.NumInputs; i++ {
		gc.InputKeys[i] = -(i + 1)
	}
	gc.OutputKeys = make([]int, gc.NumOutputs)
	for i := 0; i < gc.NumOutputs; i++ {
		gc.OutputKeys[i] = i
	}
	// Hidden node keys are assigned after the output block.
	gc.NodeKeyIndex = gc.NumOutputs
	return nil
}

func applyDefaults(config *Config) {
	gc := &config.Genome
	if gc.BiasInitType == "" {
		gc.BiasInitType = "gaussian"
	}
	if gc.ResponseInitType == "" {
		gc.ResponseInitType = "gaussian"
	}
	if gc.WeightInitType == "" {
		gc.WeightInitType = "gaussian"
	}
	if gc.ActivationDefault == "" {
		gc.ActivationDefault = "random"
	}
	if gc.AggregationDefault == "" {
		gc.AggregationDefault = "random"
	}
	if gc.EnabledDefault == "" {
		gc.EnabledDefault = "True"
	}
	if gc.InitialConnection == "" {
		gc.InitialConnection = "unconnected"
	}
	if gc.StructuralMutationSurer == "" {
		gc.StructuralMutationSurer = "default"
	}
	if config.Reproduction.MinSpeciesSize == 0 {
		config.Reproduction.MinSpeciesSize = 1
	}
	if config.Reproduction.SurvivalThreshold == 0 {
		config.Reproduction.SurvivalThreshold = 0.2
	}
	if config.Stagnation.SpeciesFitnessFunc == "" {
		config.Stagnation.SpeciesFitnessFunc = "mean"
	}
	if config.Stagnation.MaxStagnation == 0 {
		config.Stagnation.MaxStagnation = 15
	}
}

func trimOptionLists(config *Config) {
	gc := &config.Genome
	gc.ActivationOptions = trimAll(gc.ActivationOptions)
	gc.AggregationOptions = trimAll(gc.AggregationOptions)
}

func trimAll(values []string) []string {
	out := values[:0]
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

func validate(config *Config) error {
	gc := &config.Genome
	if len(gc.ActivationOptions) == 0 {
		return fmt.Errorf("config error: activation_options must not be empty")
	}
	for _, name := range gc.ActivationOptions {
		if _, err := GetActivation(name); err != nil {
			return fmt.Errorf("config error: %w", err)
		}
	}
	if len(gc.AggregationOptions) == 0 {
		return fmt.Errorf("config error: aggregation_options must not be empty")
	}
	for _, name := range gc.AggregationOptions {
		if _, err := GetAggregation(name); err != nil {
			return fmt.Errorf("config error: %w", err)
		}
	}

	probs := map[string]float64{
		"conn_add_prob":    gc.ConnAddProb,
		"conn_delete_prob": gc.ConnDeleteProb,
		"node_add_prob":    gc.NodeAddProb,
		"node_delete_prob": gc.NodeDeleteProb,
	}
	for name, p := range probs {
		if p < 0 || p > 1 {
			return fmt.Errorf("config error: %s must be between 0 and 1, got %g", name, p)
		}
	}
	if gc.CompatibilityDisjointCoefficient < 0 {
		return fmt.Errorf("config error: compatibility_disjoint_coefficient cannot be negative")
	}
	if gc.CompatibilityWeightCoefficient < 0 {
		return fmt.Errorf("config error: compatibility_weight_coefficient cannot be negative")
	}
	if gc.BiasMaxValue < gc.BiasMinValue {
		return fmt.Errorf("config error: bias_max_value cannot be less than bias_min_value")
	}
	if gc.ResponseMaxValue < gc.ResponseMinValue {
		return fmt.Errorf("config error: response_max_value cannot be less than response_min_value")
	}
	if gc.WeightMaxValue < gc.WeightMinValue {
		return fmt.Errorf("config error: weight_max_value cannot be less than weight_min_value")
	}

	if config.Reproduction.SurvivalThreshold < 0 || config.Reproduction.SurvivalThreshold > 1 {
		return fmt.Errorf("config error: survival_threshold must be between 0 and 1")
	}
	if config.Reproduction.MinSpeciesSize <= 0 {
		return fmt.Errorf("config error: min_species_size must be positive")
	}
	if config.SpeciesSet.CompatibilityThreshold < 0 {
		return fmt.Errorf("config error: compatibility_threshold cannot be negative")
	}
	if config.Stagnation.MaxStagnation <= 0 {
		return fmt.Errorf("config error: max_stagnation must be positive")
	}

	switch strings.ToLower(config.Neat.FitnessCriterion) {
	case "max", "min", "mean":
	default:
		return fmt.Errorf("config error: invalid fitness_criterion '%s', must be one of 'max', 'min', 'mean'", config.Neat.FitnessCriterion)
	}

	validConnections := map[string]bool{
		"unconnected": true, "fs_neat_nohidden": true, "fs_neat": true, "fs_neat_hidden": true,
		"full_nodirect": true, "full": true, "full_direct": true,
		"partial_nodirect": true, "partial": true, "partial_direct": true,
	}
	fields := strings.Fields(gc.InitialConnection)
	if len(fields) == 0 || !validConnections[fields[0]] {
		return fmt.Errorf("config error: invalid initial_connection type '%s'", gc.InitialConnection)
	}

	if _, ok := StatFunctions[strings.ToLower(config.Stagnation.SpeciesFitnessFunc)]; !ok {
		return fmt.Errorf("config error: invalid species_fitness_func '%s'", config.Stagnation.SpeciesFitnessFunc)
	}
	return nil
}

// GetNewNodeKey returns the next unused hidden-node key.
func (gc *GenomeConfig) GetNewNodeKey() int {
	key := gc.NodeKeyIndex
	gc.NodeKeyIndex++
	return key
}
