package hyper

import (
	"fmt"
	"sort"

	"github.com/neatgym/neatgym/neat"
	"github.com/neatgym/neatgym/neat/nn"
)

// DefaultMaxWeight bounds substrate connection weights when the
// configuration does not override it.
const DefaultMaxWeight = 5.0

// weightCutoff is the CPPN output magnitude below which a coordinate pair
// produces no connection in the static substrate build.
const weightCutoff = 0.2

// CPPN wraps a genome-derived network queried over coordinate pairs to
// produce connection weights.
type CPPN struct {
	net *nn.FeedForwardNetwork
}

// NewCPPN builds a CPPN from a genome. The genome layout must have five
// inputs (x1, y1, x2, y2, bias) and one output.
func NewCPPN(g *neat.Genome) (*CPPN, error) {
	net, err := nn.CreateFeedForwardNetwork(g)
	if err != nil {
		return nil, fmt.Errorf("failed to build cppn: %w", err)
	}
	if net.NumInputs() != 5 || net.NumOutputs() != 1 {
		return nil, fmt.Errorf("cppn needs 5 inputs and 1 output, genome has %d and %d",
			net.NumInputs(), net.NumOutputs())
	}
	return &CPPN{net: net}, nil
}

// Query returns the raw CPPN output for a source/target coordinate pair.
func (c *CPPN) Query(source, target Point) (float64, error) {
	out, err := c.net.Activate([]float64{source.X, source.Y, target.X, target.Y, 1.0})
	if err != nil {
		return 0, err
	}
	return out[0], nil
}

// BuildStatic queries the CPPN over every layer-adjacent coordinate pair of a
// fixed substrate and assembles the phenotype network spec. It returns the
// spec and the activation count needed to settle its output.
func BuildStatic(cppn *CPPN, substrate *Substrate) (*nn.Spec, int, error) {
	layers := [][]Point{substrate.Inputs}
	if len(substrate.Hidden) > 0 {
		layers = append(layers, substrate.Hidden)
	}
	layers = append(layers, substrate.Outputs)

	builder := newSpecBuilder(substrate)
	for i := 0; i < len(layers)-1; i++ {
		for _, source := range layers[i] {
			for _, target := range layers[i+1] {
				w, err := cppn.Query(source, target)
				if err != nil {
					return nil, 0, err
				}
				if w > -weightCutoff && w < weightCutoff {
					continue
				}
				builder.addConnection(source, target, clampWeight(w*DefaultMaxWeight, DefaultMaxWeight))
			}
		}
	}
	spec := builder.build()
	return spec, len(substrate.Hidden) + 2, nil
}

func clampWeight(w, maxWeight float64) float64 {
	if w > maxWeight {
		return maxWeight
	}
	if w < -maxWeight {
		return -maxWeight
	}
	return w
}

// specBuilder assembles a recurrent network spec from coordinate-addressed
// connections, assigning node keys on first sight: inputs get the negative
// keys the engine uses, outputs 0..n-1, hidden nodes everything above.
type specBuilder struct {
	substrate  *Substrate
	inputKeys  map[Point]int
	outputKeys map[Point]int
	hiddenKeys map[Point]int
	nextHidden int
	conns      map[Point]map[Point]float64
}

func newSpecBuilder(substrate *Substrate) *specBuilder {
	b := &specBuilder{
		substrate:  substrate,
		inputKeys:  make(map[Point]int),
		outputKeys: make(map[Point]int),
		hiddenKeys: make(map[Point]int),
		nextHidden: len(substrate.Outputs),
		conns:      make(map[Point]map[Point]float64),
	}
	for i, pt := range substrate.Inputs {
		b.inputKeys[pt] = -(i + 1)
	}
	for i, pt := range substrate.Outputs {
		b.outputKeys[pt] = i
	}
	return b
}

func (b *specBuilder) addConnection(source, target Point, weight float64) {
	if b.conns[target] == nil {
		b.conns[target] = make(map[Point]float64)
	}
	b.conns[target][source] = weight
}

func (b *specBuilder) keyFor(pt Point) int {
	if k, ok := b.inputKeys[pt]; ok {
		return k
	}
	if k, ok := b.outputKeys[pt]; ok {
		return k
	}
	if k, ok := b.hiddenKeys[pt]; ok {
		return k
	}
	k := b.nextHidden
	b.nextHidden++
	b.hiddenKeys[pt] = k
	return k
}

func (b *specBuilder) build() *nn.Spec {
	activation := b.substrate.Function
	if activation == "" {
		activation = "sigmoid"
	}

	// Assign hidden keys in a deterministic coordinate order.
	var hiddenPoints []Point
	for target := range b.conns {
		if _, ok := b.inputKeys[target]; ok {
			continue
		}
		if _, ok := b.outputKeys[target]; ok {
			continue
		}
		hiddenPoints = append(hiddenPoints, target)
	}
	for _, sources := range b.conns {
		for source := range sources {
			if _, ok := b.inputKeys[source]; ok {
				continue
			}
			if _, ok := b.outputKeys[source]; ok {
				continue
			}
			hiddenPoints = append(hiddenPoints, source)
		}
	}
	sortPoints(hiddenPoints)
	for _, pt := range hiddenPoints {
		if _, ok := b.hiddenKeys[pt]; !ok {
			b.keyFor(pt)
		}
	}

	spec := &nn.Spec{Recurrent: true}
	for i := range b.substrate.Inputs {
		spec.InputKeys = append(spec.InputKeys, -(i + 1))
	}
	for i := range b.substrate.Outputs {
		spec.OutputKeys = append(spec.OutputKeys, i)
	}

	// Every output and every connected hidden node gets a node spec; inputs
	// are value sources only.
	targets := make([]Point, 0, len(b.substrate.Outputs)+len(b.hiddenKeys))
	targets = append(targets, b.substrate.Outputs...)
	hidden := make([]Point, 0, len(b.hiddenKeys))
	for pt := range b.hiddenKeys {
		hidden = append(hidden, pt)
	}
	sortPoints(hidden)
	targets = append(targets, hidden...)

	for _, target := range targets {
		ns := nn.NodeSpec{
			Key:         b.keyFor(target),
			Response:    1.0,
			Activation:  activation,
			Aggregation: "sum",
		}
		sources := make([]Point, 0, len(b.conns[target]))
		for source := range b.conns[target] {
			sources = append(sources, source)
		}
		sortPoints(sources)
		for _, source := range sources {
			ns.Inputs = append(ns.Inputs, nn.ConnSpec{
				Source: b.keyFor(source),
				Weight: b.conns[target][source],
			})
		}
		spec.Nodes = append(spec.Nodes, ns)
	}
	return spec
}

func sortPoints(pts []Point) {
	sort.Slice(pts, func(i, j int) bool {
		if pts[i].Y != pts[j].Y {
			return pts[i].Y < pts[j].Y
		}
		return pts[i].X < pts[j].X
	})
}
