package nn

import (
	"fmt"

	"github.com/neatgym/neatgym/neat"
)

type connInput struct {
	source int
	weight float64
}

type nodeEval struct {
	node        int
	activation  neat.ActivationType
	aggregation neat.AggregationType
	bias        float64
	response    float64
	inputs      []connInput
}

// FeedForwardNetwork is a runnable phenotype network. It is not safe for
// concurrent use; create one network per goroutine.
type FeedForwardNetwork struct {
	inputKeys  []int
	outputKeys []int
	nodeEvals  []nodeEval
	values     map[int]float64
	inBuf      []float64
	outBuf     []float64
}

// Network is a runnable phenotype: one activation maps an input vector to an
// output vector.
type Network interface {
	Activate(inputs []float64) ([]float64, error)
	NumInputs() int
	NumOutputs() int
}

// Compile resolves a spec's activation and aggregation names into a runnable
// network. Recurrent specs compile into a RecurrentNetwork, everything else
// into a FeedForwardNetwork.
func (s *Spec) Compile() (Network, error) {
	if s.Recurrent {
		return s.compileRecurrent()
	}
	return s.compileFeedForward()
}

func (s *Spec) compileFeedForward() (*FeedForwardNetwork, error) {
	net := &FeedForwardNetwork{
		inputKeys:  append([]int(nil), s.InputKeys...),
		outputKeys: append([]int(nil), s.OutputKeys...),
		values:     make(map[int]float64),
		outBuf:     make([]float64, len(s.OutputKeys)),
	}
	for _, ns := range s.Nodes {
		activation, err := neat.GetActivation(ns.Activation)
		if err != nil {
			return nil, fmt.Errorf("node %d: %w", ns.Key, err)
		}
		aggregation, err := neat.GetAggregation(ns.Aggregation)
		if err != nil {
			return nil, fmt.Errorf("node %d: %w", ns.Key, err)
		}
		ne := nodeEval{
			node:        ns.Key,
			activation:  activation,
			aggregation: aggregation,
			bias:        ns.Bias,
			response:    ns.Response,
		}
		for _, in := range ns.Inputs {
			ne.inputs = append(ne.inputs, connInput{source: in.Source, weight: in.Weight})
		}
		net.nodeEvals = append(net.nodeEvals, ne)
	}
	for _, k := range net.inputKeys {
		net.values[k] = 0
	}
	for _, k := range net.outputKeys {
		net.values[k] = 0
	}
	return net, nil
}

// CreateFeedForwardNetwork builds a runnable network straight from a genome.
func CreateFeedForwardNetwork(g *neat.Genome) (*FeedForwardNetwork, error) {
	spec, err := SpecFromGenome(g)
	if err != nil {
		return nil, err
	}
	return spec.compileFeedForward()
}

// NumInputs returns the network's input arity.
func (n *FeedForwardNetwork) NumInputs() int { return len(n.inputKeys) }

// NumOutputs returns the network's output arity.
func (n *FeedForwardNetwork) NumOutputs() int { return len(n.outputKeys) }

// Activate feeds inputs through the network and returns the output values.
// The returned slice is reused across calls; copy it if it must outlive the
// next activation.
func (n *FeedForwardNetwork) Activate(inputs []float64) ([]float64, error) {
	if len(inputs) != len(n.inputKeys) {
		return nil, fmt.Errorf("expected %d inputs, got %d", len(n.inputKeys), len(inputs))
	}
	for i, k := range n.inputKeys {
		n.values[k] = inputs[i]
	}
	for _, ne := range n.nodeEvals {
		if cap(n.inBuf) < len(ne.inputs) {
			n.inBuf = make([]float64, len(ne.inputs))
		}
		buf := n.inBuf[:len(ne.inputs)]
		for i, in := range ne.inputs {
			buf[i] = n.values[in.source] * in.weight
		}
		agg := 0.0
		if len(buf) > 0 {
			agg = ne.aggregation(buf)
		}
		n.values[ne.node] = ne.activation(ne.bias + ne.response*agg)
	}
	for i, k := range n.outputKeys {
		n.outBuf[i] = n.values[k]
	}
	return n.outBuf, nil
}
