package neat

import (
	"fmt"
	"math"
	"strings"
)

// --------------------------- NodeGene ---------------------------

// NodeGene represents a node (neuron) in the neural network genome.
type NodeGene struct {
	Key         int // Negative for inputs, >= 0 for outputs and hidden nodes.
	Bias        float64
	Response    float64
	Activation  string // Name of the activation function.
	Aggregation string // Name of the aggregation function.
}

// NewNodeGene creates a NodeGene with attributes initialized from the config.
func NewNodeGene(key int, config *GenomeConfig) *NodeGene {
	ng := &NodeGene{
		Key:         key,
		Activation:  initStringAttribute(config.ActivationDefault, config.ActivationOptions),
		Aggregation: initStringAttribute(config.AggregationDefault, config.AggregationOptions),
	}
	ng.Bias = initFloatAttribute(config.BiasInitMean, config.BiasInitStdev, config.BiasInitType, config.BiasMinValue, config.BiasMaxValue)
	ng.Response = initFloatAttribute(config.ResponseInitMean, config.ResponseInitStdev, config.ResponseInitType, config.ResponseMinValue, config.ResponseMaxValue)
	return ng
}

func (ng *NodeGene) String() string {
	return fmt.Sprintf("NodeGene(Key: %d, Bias: %.3f, Response: %.3f, Activation: %s, Aggregation: %s)",
		ng.Key, ng.Bias, ng.Response, ng.Activation, ng.Aggregation)
}

// Copy creates a deep copy of the NodeGene.
func (ng *NodeGene) Copy() *NodeGene {
	c := *ng
	return &c
}

// Mutate adjusts the attributes of the NodeGene based on the config rates.
func (ng *NodeGene) Mutate(config *GenomeConfig) {
	ng.Bias = mutateFloatAttribute(ng.Bias, config.BiasMutateRate, config.BiasReplaceRate, config.BiasMutatePower,
		config.BiasInitMean, config.BiasInitStdev, config.BiasInitType, config.BiasMinValue, config.BiasMaxValue)
	ng.Response = mutateFloatAttribute(ng.Response, config.ResponseMutateRate, config.ResponseReplaceRate, config.ResponseMutatePower,
		config.ResponseInitMean, config.ResponseInitStdev, config.ResponseInitType, config.ResponseMinValue, config.ResponseMaxValue)
	ng.Activation = mutateStringAttribute(ng.Activation, config.ActivationMutateRate, config.ActivationOptions)
	ng.Aggregation = mutateStringAttribute(ng.Aggregation, config.AggregationMutateRate, config.AggregationOptions)
}

// Distance calculates the genetic distance between two NodeGenes.
func (ng *NodeGene) Distance(other *NodeGene, config *GenomeConfig) float64 {
	d := math.Abs(ng.Bias-other.Bias) + math.Abs(ng.Response-other.Response)
	if ng.Activation != other.Activation {
		d += 1.0
	}
	if ng.Aggregation != other.Aggregation {
		d += 1.0
	}
	return d * config.CompatibilityWeightCoefficient
}

// Crossover randomly inherits attributes from two parent NodeGenes.
func (ng *NodeGene) Crossover(other *NodeGene) *NodeGene {
	child := ng.Copy()
	if rng.Float64() < 0.5 {
		child.Bias = other.Bias
	}
	if rng.Float64() < 0.5 {
		child.Response = other.Response
	}
	if rng.Float64() < 0.5 {
		child.Activation = other.Activation
	}
	if rng.Float64() < 0.5 {
		child.Aggregation = other.Aggregation
	}
	return child
}

// --------------------------- ConnectionGene ---------------------------

// ConnectionKey uniquely identifies a connection gene (innovation).
type ConnectionKey struct {
	InNodeID  int
	OutNodeID int
}

// ConnectionGene represents a weighted connection between two nodes.
type ConnectionGene struct {
	Key     ConnectionKey
	Weight  float64
	Enabled bool
}

// NewConnectionGene creates a ConnectionGene with attributes from the config.
func NewConnectionGene(key ConnectionKey, config *GenomeConfig) *ConnectionGene {
	cg := &ConnectionGene{
		Key:     key,
		Enabled: parseBoolAttribute(config.EnabledDefault),
	}
	cg.Weight = initFloatAttribute(config.WeightInitMean, config.WeightInitStdev, config.WeightInitType, config.WeightMinValue, config.WeightMaxValue)
	return cg
}

func (cg *ConnectionGene) String() string {
	return fmt.Sprintf("ConnGene(Key: %d->%d, Weight: %.3f, Enabled: %t)",
		cg.Key.InNodeID, cg.Key.OutNodeID, cg.Weight, cg.Enabled)
}

// Copy creates a deep copy of the ConnectionGene.
func (cg *ConnectionGene) Copy() *ConnectionGene {
	c := *cg
	return &c
}

// Mutate adjusts the attributes of the ConnectionGene. The genome is needed
// to prevent enabling a connection that would close a cycle in feed-forward
// mode.
func (cg *ConnectionGene) Mutate(genome *Genome, config *GenomeConfig) {
	cg.Weight = mutateFloatAttribute(cg.Weight, config.WeightMutateRate, config.WeightReplaceRate, config.WeightMutatePower,
		config.WeightInitMean, config.WeightInitStdev, config.WeightInitType, config.WeightMinValue, config.WeightMaxValue)
	cg.Enabled = mutateEnabledAttribute(cg.Enabled, config.EnabledMutateRate, config.EnabledRateToTrueAdd, config.EnabledRateToFalseAdd, genome, cg)
}

// Distance calculates the genetic distance between two ConnectionGenes.
func (cg *ConnectionGene) Distance(other *ConnectionGene, config *GenomeConfig) float64 {
	d := math.Abs(cg.Weight - other.Weight)
	if cg.Enabled != other.Enabled {
		d += 1.0
	}
	return d * config.CompatibilityWeightCoefficient
}

// Crossover randomly inherits attributes from two parent ConnectionGenes.
func (cg *ConnectionGene) Crossover(other *ConnectionGene) *ConnectionGene {
	child := cg.Copy()
	if rng.Float64() < 0.5 {
		child.Weight = other.Weight
	}
	if rng.Float64() < 0.5 {
		child.Enabled = other.Enabled
	}
	return child
}

// --------------------------- Attribute helpers ---------------------------

func initFloatAttribute(mean, stdev float64, initType string, minVal, maxVal float64) float64 {
	var val float64
	switch strings.ToLower(initType) {
	case "uniform":
		lo := math.Max(minVal, mean-(2*stdev))
		hi := math.Min(maxVal, mean+(2*stdev))
		if hi < lo {
			hi = lo
		}
		val = rng.Float64()*(hi-lo) + lo
	default: // gaussian/normal
		val = rng.NormFloat64()*stdev + mean
	}
	return clamp(val, minVal, maxVal)
}

func mutateFloatAttribute(value, mutateRate, replaceRate, mutatePower, initMean, initStdev float64, initType string, minVal, maxVal float64) float64 {
	r := rng.Float64()
	if r < mutateRate {
		return clamp(value+rng.NormFloat64()*mutatePower, minVal, maxVal)
	}
	if r < mutateRate+replaceRate {
		return initFloatAttribute(initMean, initStdev, initType, minVal, maxVal)
	}
	return value
}

func mutateEnabledAttribute(value bool, mutateRate, rateToTrueAdd, rateToFalseAdd float64, genome *Genome, cg *ConnectionGene) bool {
	effectiveRate := mutateRate
	if value {
		effectiveRate += rateToFalseAdd
	} else {
		effectiveRate += rateToTrueAdd
	}
	if effectiveRate <= 0 || rng.Float64() >= effectiveRate {
		return value
	}

	newState := rng.Float64() < 0.5
	if !value && newState && genome.Config.FeedForward {
		// Re-enabling must not close a cycle.
		if createsCycle(genome, cg.Key.InNodeID, cg.Key.OutNodeID) {
			return false
		}
	}
	return newState
}

func initStringAttribute(defaultVal string, options []string) string {
	if len(options) == 0 {
		return ""
	}
	switch strings.ToLower(defaultVal) {
	case "random", "none", "":
		return options[rng.Intn(len(options))]
	}
	for _, opt := range options {
		if opt == defaultVal {
			return defaultVal
		}
	}
	return options[rng.Intn(len(options))]
}

func mutateStringAttribute(value string, mutateRate float64, options []string) string {
	if len(options) <= 1 {
		return value
	}
	if mutateRate <= 0 || rng.Float64() >= mutateRate {
		return value
	}
	alternatives := make([]string, 0, len(options))
	for _, opt := range options {
		if opt != value {
			alternatives = append(alternatives, opt)
		}
	}
	if len(alternatives) == 0 {
		return value
	}
	return alternatives[rng.Intn(len(alternatives))]
}
