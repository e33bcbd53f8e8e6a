// Package nn builds executable neural networks from genomes.
package nn

import (
	"fmt"
	"sort"

	"github.com/neatgym/neatgym/neat"
)

// ConnSpec describes one incoming connection of a node.
type ConnSpec struct {
	Source int
	Weight float64
}

// NodeSpec describes a single node by value, with activation and aggregation
// referenced by name so the whole spec stays gob-serializable.
type NodeSpec struct {
	Key         int
	Bias        float64
	Response    float64
	Activation  string
	Aggregation string
	Inputs      []ConnSpec
}

// Spec is a serializable description of a network. Unlike the compiled
// network it carries no function values, so it can be written with
// encoding/gob and compiled back into a runnable network after loading.
// Recurrent specs may contain cycles and compile into a network that
// propagates one tick per activation.
type Spec struct {
	InputKeys  []int
	OutputKeys []int
	Nodes      []NodeSpec
	Recurrent  bool
}

// SpecFromGenome extracts a network spec from a genome, pruning nodes that
// cannot affect any output.
func SpecFromGenome(g *neat.Genome) (*Spec, error) {
	enabled := make(map[neat.ConnectionKey]*neat.ConnectionGene)
	for key, conn := range g.Connections {
		if conn.Enabled {
			enabled[key] = conn
		}
	}

	required := requiredNodes(g.Config.InputKeys, g.Config.OutputKeys, enabled)

	layers, err := feedForwardLayers(g.Config.InputKeys, g.Config.OutputKeys, required, enabled)
	if err != nil {
		return nil, err
	}

	spec := &Spec{
		InputKeys:  append([]int(nil), g.Config.InputKeys...),
		OutputKeys: append([]int(nil), g.Config.OutputKeys...),
	}
	for _, layer := range layers {
		for _, nodeKey := range layer {
			node, ok := g.Nodes[nodeKey]
			if !ok {
				return nil, fmt.Errorf("genome %d is missing node %d", g.Key, nodeKey)
			}
			ns := NodeSpec{
				Key:         nodeKey,
				Bias:        node.Bias,
				Response:    node.Response,
				Activation:  node.Activation,
				Aggregation: node.Aggregation,
			}
			for connKey, conn := range enabled {
				if connKey.OutNodeID != nodeKey {
					continue
				}
				if _, ok := required[connKey.InNodeID]; !ok && !isInput(g.Config.InputKeys, connKey.InNodeID) {
					continue
				}
				ns.Inputs = append(ns.Inputs, ConnSpec{Source: connKey.InNodeID, Weight: conn.Weight})
			}
			spec.Nodes = append(spec.Nodes, ns)
		}
	}
	return spec, nil
}

// requiredNodes returns the set of nodes on some path from an input to an
// output, plus the outputs themselves.
func requiredNodes(inputKeys, outputKeys []int, connections map[neat.ConnectionKey]*neat.ConnectionGene) map[int]bool {
	required := make(map[int]bool)
	for _, k := range outputKeys {
		required[k] = true
	}
	// Walk backwards from the outputs until the frontier stops growing.
	frontier := make(map[int]bool)
	for _, k := range outputKeys {
		frontier[k] = true
	}
	for len(frontier) > 0 {
		next := make(map[int]bool)
		for connKey := range connections {
			if !frontier[connKey.OutNodeID] {
				continue
			}
			in := connKey.InNodeID
			if isInput(inputKeys, in) || required[in] {
				continue
			}
			required[in] = true
			next[in] = true
		}
		frontier = next
	}
	return required
}

// feedForwardLayers groups required non-input nodes into layers such that
// every node's inputs live in an earlier layer or are network inputs.
func feedForwardLayers(inputKeys, outputKeys []int, required map[int]bool, connections map[neat.ConnectionKey]*neat.ConnectionGene) ([][]int, error) {
	placed := make(map[int]bool)
	for _, k := range inputKeys {
		placed[k] = true
	}

	pending := make(map[int]bool)
	for k := range required {
		pending[k] = true
	}

	var layers [][]int
	for len(pending) > 0 {
		var layer []int
		for node := range pending {
			ready := true
			for connKey := range connections {
				if connKey.OutNodeID != node {
					continue
				}
				if required[connKey.InNodeID] && !placed[connKey.InNodeID] {
					ready = false
					break
				}
			}
			if ready {
				layer = append(layer, node)
			}
		}
		if len(layer) == 0 {
			return nil, fmt.Errorf("network contains a cycle")
		}
		sort.Ints(layer)
		for _, node := range layer {
			placed[node] = true
			delete(pending, node)
		}
		layers = append(layers, layer)
	}
	return layers, nil
}

func isInput(inputKeys []int, key int) bool {
	for _, k := range inputKeys {
		if k == key {
			return true
		}
	}
	return false
}
