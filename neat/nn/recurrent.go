package nn

import (
	"fmt"

	"github.com/neatgym/neatgym/neat"
)

// RecurrentNetwork evaluates every node once per Activate call using the
// previous call's node values as inputs, so cyclic connection graphs are
// legal. Outputs of networks with hidden depth only settle after repeated
// activations on the same input. Not safe for concurrent use.
type RecurrentNetwork struct {
	inputKeys  []int
	outputKeys []int
	nodeEvals  []nodeEval
	values     map[int]float64
	nextValues map[int]float64
	inBuf      []float64
	outBuf     []float64
}

func (s *Spec) compileRecurrent() (*RecurrentNetwork, error) {
	net := &RecurrentNetwork{
		inputKeys:  append([]int(nil), s.InputKeys...),
		outputKeys: append([]int(nil), s.OutputKeys...),
		values:     make(map[int]float64),
		nextValues: make(map[int]float64),
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
	net.Reset()
	return net, nil
}

// Reset zeroes all node values, clearing recurrent state between episodes.
func (n *RecurrentNetwork) Reset() {
	for _, k := range n.inputKeys {
		n.values[k] = 0
	}
	for _, k := range n.outputKeys {
		n.values[k] = 0
	}
	for _, ne := range n.nodeEvals {
		n.values[ne.node] = 0
	}
}

// NumInputs returns the network's input arity.
func (n *RecurrentNetwork) NumInputs() int { return len(n.inputKeys) }

// NumOutputs returns the network's output arity.
func (n *RecurrentNetwork) NumOutputs() int { return len(n.outputKeys) }

// Activate propagates one tick: every node reads its sources' values from
// before the call. The returned slice is reused across calls.
func (n *RecurrentNetwork) Activate(inputs []float64) ([]float64, error) {
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
		n.nextValues[ne.node] = ne.activation(ne.bias + ne.response*agg)
	}
	for node, v := range n.nextValues {
		n.values[node] = v
	}
	for i, k := range n.outputKeys {
		n.outBuf[i] = n.values[k]
	}
	return n.outBuf, nil
}
