package neat

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Genome represents an individual organism in the population. It consists of
// NodeGenes (outputs and hidden nodes; inputs are implicit) and
// ConnectionGenes.
type Genome struct {
	Key         int
	Nodes       map[int]*NodeGene
	Connections map[ConnectionKey]*ConnectionGene
	Fitness     float64
	Config      *GenomeConfig
}

// NewGenome creates an empty Genome with the given key and config reference.
func NewGenome(key int, config *GenomeConfig) *Genome {
	return &Genome{
		Key:         key,
		Nodes:       make(map[int]*NodeGene),
		Connections: make(map[ConnectionKey]*ConnectionGene),
		Config:      config,
	}
}

// ConfigureNew initializes a fresh genome: output and hidden node genes plus
// the initial connection scheme from the configuration.
func (g *Genome) ConfigureNew() {
	for _, nodeKey := range g.Config.OutputKeys {
		g.Nodes[nodeKey] = NewNodeGene(nodeKey, g.Config)
	}
	for i := 0; i < g.Config.NumHidden; i++ {
		nodeKey := g.Config.GetNewNodeKey()
		g.Nodes[nodeKey] = NewNodeGene(nodeKey, g.Config)
	}
	g.setupInitialConnections()
}

// hiddenKeys returns the keys of non-output nodes, sorted.
func (g *Genome) hiddenKeys() []int {
	outputs := make(map[int]bool, len(g.Config.OutputKeys))
	for _, ok := range g.Config.OutputKeys {
		outputs[ok] = true
	}
	keys := []int{}
	for nk := range g.Nodes {
		if !outputs[nk] {
			keys = append(keys, nk)
		}
	}
	sort.Ints(keys)
	return keys
}

func (g *Genome) addConnection(in, out int, fraction float64) {
	if fraction < 1.0 && rng.Float64() >= fraction {
		return
	}
	key := ConnectionKey{InNodeID: in, OutNodeID: out}
	g.Connections[key] = NewConnectionGene(key, g.Config)
}

// setupInitialConnections creates initial connections per initial_connection.
func (g *Genome) setupInitialConnections() {
	fields := strings.Fields(g.Config.InitialConnection)
	connType := fields[0]
	fraction := 1.0
	if strings.HasPrefix(connType, "partial") && len(fields) > 1 {
		if f, err := strconv.ParseFloat(fields[1], 64); err == nil {
			fraction = clamp(f, 0.0, 1.0)
		}
	}

	inputKeys := g.Config.InputKeys
	outputKeys := g.Config.OutputKeys
	hiddenKeys := g.hiddenKeys()

	switch connType {
	case "unconnected":
		// No initial connections.
	case "fs_neat_nohidden", "fs_neat":
		// Connect a single random input to all outputs.
		in := inputKeys[rng.Intn(len(inputKeys))]
		for _, ok := range outputKeys {
			g.addConnection(in, ok, 1.0)
		}
	case "fs_neat_hidden":
		// Connect a single random input to all hidden and output nodes.
		in := inputKeys[rng.Intn(len(inputKeys))]
		for _, hk := range hiddenKeys {
			g.addConnection(in, hk, 1.0)
		}
		for _, ok := range outputKeys {
			g.addConnection(in, ok, 1.0)
		}
	case "full_nodirect", "full", "partial_nodirect", "partial":
		// Inputs to hidden, hidden to output; direct input-output only when
		// there are no hidden nodes.
		if len(hiddenKeys) == 0 {
			for _, ik := range inputKeys {
				for _, ok := range outputKeys {
					g.addConnection(ik, ok, fraction)
				}
			}
			break
		}
		for _, ik := range inputKeys {
			for _, hk := range hiddenKeys {
				g.addConnection(ik, hk, fraction)
			}
		}
		for _, hk := range hiddenKeys {
			for _, ok := range outputKeys {
				g.addConnection(hk, ok, fraction)
			}
		}
	case "full_direct", "partial_direct":
		for _, ik := range inputKeys {
			for _, hk := range hiddenKeys {
				g.addConnection(ik, hk, fraction)
			}
			for _, ok := range outputKeys {
				g.addConnection(ik, ok, fraction)
			}
		}
		for _, hk := range hiddenKeys {
			for _, ok := range outputKeys {
				g.addConnection(hk, ok, fraction)
			}
		}
	default:
		// Unreachable: validated at config load.
		panic(fmt.Sprintf("invalid initial_connection type: %s", connType))
	}
}

// ConfigureCrossover fills this genome with genes combined from two parents.
// The fitter parent contributes all disjoint and excess genes.
func (g *Genome) ConfigureCrossover(parent1, parent2 *Genome) {
	if parent1.Fitness < parent2.Fitness {
		parent1, parent2 = parent2, parent1
	}
	g.Config = parent1.Config

	for key, node1 := range parent1.Nodes {
		if node2, ok := parent2.Nodes[key]; ok {
			g.Nodes[key] = node1.Crossover(node2)
		} else {
			g.Nodes[key] = node1.Copy()
		}
	}
	for key, conn1 := range parent1.Connections {
		if conn2, ok := parent2.Connections[key]; ok {
			g.Connections[key] = conn1.Crossover(conn2)
		} else {
			g.Connections[key] = conn1.Copy()
		}
	}
}

// Mutate applies structural and attribute mutations to the genome.
func (g *Genome) Mutate() {
	if g.Config.SingleStructuralMutation {
		div := g.Config.NodeAddProb + g.Config.NodeDeleteProb + g.Config.ConnAddProb + g.Config.ConnDeleteProb
		if div > 0 {
			r := rng.Float64()
			switch {
			case r < g.Config.NodeAddProb/div:
				g.mutateAddNode()
			case r < (g.Config.NodeAddProb+g.Config.NodeDeleteProb)/div:
				g.mutateDeleteNode()
			case r < (g.Config.NodeAddProb+g.Config.NodeDeleteProb+g.Config.ConnAddProb)/div:
				g.mutateAddConnection()
			default:
				g.mutateDeleteConnection()
			}
		}
	} else {
		if rng.Float64() < g.Config.NodeAddProb {
			g.mutateAddNode()
		}
		if rng.Float64() < g.Config.NodeDeleteProb {
			g.mutateDeleteNode()
		}
		if rng.Float64() < g.Config.ConnAddProb {
			g.mutateAddConnection()
		}
		if rng.Float64() < g.Config.ConnDeleteProb {
			g.mutateDeleteConnection()
		}
	}

	for _, node := range g.Nodes {
		node.Mutate(g.Config)
	}
	for _, conn := range g.Connections {
		conn.Mutate(g, g.Config)
	}
}

// mutateAddNode splits an existing connection with a new node. The incoming
// half gets weight 1.0 and the outgoing half inherits the original weight.
func (g *Genome) mutateAddNode() {
	if len(g.Connections) == 0 {
		return
	}
	keys := make([]ConnectionKey, 0, len(g.Connections))
	for k := range g.Connections {
		keys = append(keys, k)
	}
	connToSplit := g.Connections[keys[rng.Intn(len(keys))]]
	connToSplit.Enabled = false

	newNodeKey := g.Config.GetNewNodeKey()
	g.Nodes[newNodeKey] = NewNodeGene(newNodeKey, g.Config)

	in := ConnectionKey{InNodeID: connToSplit.Key.InNodeID, OutNodeID: newNodeKey}
	inConn := NewConnectionGene(in, g.Config)
	inConn.Weight = 1.0
	inConn.Enabled = true
	g.Connections[in] = inConn

	out := ConnectionKey{InNodeID: newNodeKey, OutNodeID: connToSplit.Key.OutNodeID}
	outConn := NewConnectionGene(out, g.Config)
	outConn.Weight = connToSplit.Weight
	outConn.Enabled = true
	g.Connections[out] = outConn
}

// mutateDeleteNode removes a random hidden node and its connections.
func (g *Genome) mutateDeleteNode() {
	hidden := g.hiddenKeys()
	if len(hidden) == 0 {
		return
	}
	victim := hidden[rng.Intn(len(hidden))]
	for key := range g.Connections {
		if key.InNodeID == victim || key.OutNodeID == victim {
			delete(g.Connections, key)
		}
	}
	delete(g.Nodes, victim)
}

// mutateDeleteConnection removes a random connection gene.
func (g *Genome) mutateDeleteConnection() {
	if len(g.Connections) == 0 {
		return
	}
	keys := make([]ConnectionKey, 0, len(g.Connections))
	for k := range g.Connections {
		keys = append(keys, k)
	}
	delete(g.Connections, keys[rng.Intn(len(keys))])
}

// mutateAddConnection adds a connection between two currently unconnected
// nodes, honoring the feed-forward constraint.
func (g *Genome) mutateAddConnection() {
	possibleInputs := make([]int, 0, len(g.Config.InputKeys)+len(g.Nodes))
	possibleInputs = append(possibleInputs, g.Config.InputKeys...)
	possibleOutputs := make([]int, 0, len(g.Nodes))
	for nk := range g.Nodes {
		possibleInputs = append(possibleInputs, nk)
		possibleOutputs = append(possibleOutputs, nk)
	}
	if len(possibleInputs) == 0 || len(possibleOutputs) == 0 {
		return
	}

	// Bounded retry; dense genomes may have no free pair.
	const maxAttempts = 20
	for i := 0; i < maxAttempts; i++ {
		in := possibleInputs[rng.Intn(len(possibleInputs))]
		out := possibleOutputs[rng.Intn(len(possibleOutputs))]

		key := ConnectionKey{InNodeID: in, OutNodeID: out}
		if _, exists := g.Connections[key]; exists {
			continue
		}
		if g.Config.FeedForward && createsCycle(g, in, out) {
			continue
		}
		g.Connections[key] = NewConnectionGene(key, g.Config)
		return
	}
}

// Distance calculates the genetic distance to another genome using the NEAT
// compatibility formula over disjoint genes and matching-gene attributes.
func (g *Genome) Distance(other *Genome) float64 {
	nodeDistance := 0.0
	if len(g.Nodes) > 0 || len(other.Nodes) > 0 {
		disjointNodes := 0
		for key := range other.Nodes {
			if _, ok := g.Nodes[key]; !ok {
				disjointNodes++
			}
		}
		for key, n1 := range g.Nodes {
			if n2, ok := other.Nodes[key]; ok {
				nodeDistance += n1.Distance(n2, g.Config)
			} else {
				disjointNodes++
			}
		}
		maxNodes := maxInt(len(g.Nodes), len(other.Nodes))
		nodeDistance = (nodeDistance + g.Config.CompatibilityDisjointCoefficient*float64(disjointNodes)) / float64(maxNodes)
	}

	connDistance := 0.0
	if len(g.Connections) > 0 || len(other.Connections) > 0 {
		disjointConns := 0
		for key := range other.Connections {
			if _, ok := g.Connections[key]; !ok {
				disjointConns++
			}
		}
		for key, c1 := range g.Connections {
			if c2, ok := other.Connections[key]; ok {
				connDistance += c1.Distance(c2, g.Config)
			} else {
				disjointConns++
			}
		}
		maxConns := maxInt(len(g.Connections), len(other.Connections))
		connDistance = (connDistance + g.Config.CompatibilityDisjointCoefficient*float64(disjointConns)) / float64(maxConns)
	}

	return nodeDistance + connDistance
}

// Size returns the number of nodes and enabled connections, a rough
// complexity measure used in progress reports.
func (g *Genome) Size() (int, int) {
	enabled := 0
	for _, c := range g.Connections {
		if c.Enabled {
			enabled++
		}
	}
	return len(g.Nodes), enabled
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// createsCycle reports whether adding in->out would close a cycle through
// existing connections.
func createsCycle(genome *Genome, inNode, outNode int) bool {
	if inNode == outNode {
		return true
	}
	visited := map[int]bool{}
	queue := []int{outNode}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if current == inNode {
			return true
		}
		if visited[current] {
			continue
		}
		visited[current] = true
		for key := range genome.Connections {
			if key.InNodeID == current {
				queue = append(queue, key.OutNodeID)
			}
		}
	}
	return false
}
