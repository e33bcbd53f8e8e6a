package neat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigureNewFullDirect(t *testing.T) {
	config := loadTestConfig(t)
	g := NewGenome(1, &config.Genome)
	g.ConfigureNew()

	// One node gene per output, one connection per input/output pair.
	assert.Len(t, g.Nodes, 1)
	assert.Len(t, g.Connections, 2)
	for _, key := range config.Genome.InputKeys {
		conn, ok := g.Connections[ConnectionKey{InNodeID: key, OutNodeID: 0}]
		require.True(t, ok, "missing connection from input %d", key)
		assert.True(t, conn.Enabled)
	}
}

func TestConfigureNewUnconnected(t *testing.T) {
	config := loadTestConfig(t)
	config.Genome.InitialConnection = "unconnected"
	g := NewGenome(1, &config.Genome)
	g.ConfigureNew()

	assert.Len(t, g.Nodes, 1)
	assert.Empty(t, g.Connections)
}

func TestConfigureNewFSNeat(t *testing.T) {
	config := loadTestConfig(t)
	config.Genome.InitialConnection = "fs_neat"
	g := NewGenome(1, &config.Genome)
	g.ConfigureNew()

	// Exactly one input feeds the single output.
	assert.Len(t, g.Connections, 1)
	for key := range g.Connections {
		assert.Equal(t, 0, key.OutNodeID)
		assert.Contains(t, config.Genome.InputKeys, key.InNodeID)
	}
}

func TestMutateAddNodeSplitsConnection(t *testing.T) {
	config := loadTestConfig(t)
	g := NewGenome(1, &config.Genome)
	g.ConfigureNew()

	before := len(g.Connections)
	g.mutateAddNode()

	assert.Len(t, g.Nodes, 2)
	assert.Len(t, g.Connections, before+2)

	disabled := 0
	var inHalf *ConnectionGene
	for key, conn := range g.Connections {
		if !conn.Enabled {
			disabled++
		}
		if conn.Enabled && key.InNodeID < 0 && key.OutNodeID != 0 {
			inHalf = conn
		}
	}
	assert.Equal(t, 1, disabled)
	require.NotNil(t, inHalf)
	assert.Equal(t, 1.0, inHalf.Weight)
}

func TestMutateDeleteNodeKeepsOutputs(t *testing.T) {
	config := loadTestConfig(t)
	g := NewGenome(1, &config.Genome)
	g.ConfigureNew()
	g.mutateAddNode()
	require.Len(t, g.Nodes, 2)

	g.mutateDeleteNode()
	assert.Len(t, g.Nodes, 1)
	_, ok := g.Nodes[0]
	assert.True(t, ok, "output node must survive deletion")
	for key := range g.Connections {
		assert.Equal(t, 0, key.OutNodeID)
	}
}

func TestDistanceToSelfIsZero(t *testing.T) {
	config := loadTestConfig(t)
	g := NewGenome(1, &config.Genome)
	g.ConfigureNew()

	assert.Equal(t, 0.0, g.Distance(g))
}

func TestDistanceGrowsWithDisjointGenes(t *testing.T) {
	config := loadTestConfig(t)
	g1 := NewGenome(1, &config.Genome)
	g1.ConfigureNew()
	g2 := NewGenome(2, &config.Genome)
	g2.ConfigureNew()
	g2.mutateAddNode()

	assert.Greater(t, g1.Distance(g2), 0.0)
	assert.InDelta(t, g1.Distance(g2), g2.Distance(g1), 1e-9)
}

func TestCreatesCycle(t *testing.T) {
	config := loadTestConfig(t)
	g := NewGenome(1, &config.Genome)
	g.ConfigureNew()
	g.mutateAddNode()

	var hidden int
	for nk := range g.Nodes {
		if nk != 0 {
			hidden = nk
		}
	}

	assert.True(t, createsCycle(g, hidden, hidden))
	// The split created hidden->0; adding 0->hidden closes a cycle.
	assert.True(t, createsCycle(g, 0, hidden))
	assert.False(t, createsCycle(g, -1, hidden))
}

func TestConfigureCrossoverCombinesParents(t *testing.T) {
	config := loadTestConfig(t)
	p1 := NewGenome(1, &config.Genome)
	p1.ConfigureNew()
	p1.Fitness = 2.0
	p2 := NewGenome(2, &config.Genome)
	p2.ConfigureNew()
	p2.Fitness = 1.0
	p1.mutateAddNode()

	child := NewGenome(3, &config.Genome)
	child.ConfigureCrossover(p1, p2)

	// The fitter parent contributes its disjoint structure.
	assert.Len(t, child.Nodes, len(p1.Nodes))
	assert.Len(t, child.Connections, len(p1.Connections))
}

func TestGenomeSize(t *testing.T) {
	config := loadTestConfig(t)
	g := NewGenome(1, &config.Genome)
	g.ConfigureNew()
	g.mutateAddNode()

	nodes, enabled := g.Size()
	assert.Equal(t, 2, nodes)
	// The split disabled one of the original connections.
	assert.Equal(t, len(g.Connections)-1, enabled)
}
