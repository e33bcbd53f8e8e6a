package hyper

import (
	"fmt"
	"math"

	"github.com/neatgym/neatgym/neat/nn"
)

// ESParams are the evolvable-substrate hyperparameters loaded from the [ES]
// configuration section.
type ESParams struct {
	InitialDepth      int
	MaxDepth          int
	VarianceThreshold float64
	BandThreshold     float64
	IterationLevel    int
	DivisionThreshold float64
	MaxWeight         float64
	Activation        string
}

// Validate rejects parameter combinations the quadtree cannot work with.
func (p *ESParams) Validate() error {
	if p.InitialDepth < 0 {
		return fmt.Errorf("initial_depth must be >= 0, got %d", p.InitialDepth)
	}
	if p.MaxDepth < p.InitialDepth {
		return fmt.Errorf("max_depth (%d) must be >= initial_depth (%d)", p.MaxDepth, p.InitialDepth)
	}
	if p.MaxWeight <= 0 {
		return fmt.Errorf("max_weight must be positive, got %g", p.MaxWeight)
	}
	return nil
}

// quadPoint is one region of the quadtree covering the substrate plane. The
// stored weight is the CPPN's output for the region's center.
type quadPoint struct {
	x, y, width float64
	level       int
	weight      float64
	children    []*quadPoint
}

type esConn struct {
	source, target Point
}

// esBuilder grows a substrate layout for a single genome by recursively
// dividing regions where the CPPN output varies, then banding away
// connections in uniform regions.
type esBuilder struct {
	cppn   *CPPN
	params *ESParams
	conns  map[esConn]float64
}

// BuildES discovers hidden-node geometry between a substrate's fixed input
// and output coordinates and assembles the phenotype network spec. The
// returned activation count reflects the quadtree depth.
func BuildES(cppn *CPPN, substrate *Substrate, params *ESParams) (*nn.Spec, int, error) {
	if err := params.Validate(); err != nil {
		return nil, 0, err
	}
	b := &esBuilder{cppn: cppn, params: params, conns: make(map[esConn]float64)}

	hidden := make(map[Point]bool)

	// Inputs to hidden.
	for _, in := range substrate.Inputs {
		root, err := b.division(in, true)
		if err != nil {
			return nil, 0, err
		}
		if err := b.pruning(in, root, true); err != nil {
			return nil, 0, err
		}
	}
	for conn := range b.conns {
		hidden[conn.target] = true
	}

	// Hidden to hidden, iteration_level passes over newly found nodes.
	unexplored := make(map[Point]bool, len(hidden))
	for pt := range hidden {
		unexplored[pt] = true
	}
	for i := 0; i < params.IterationLevel; i++ {
		for pt := range unexplored {
			root, err := b.division(pt, true)
			if err != nil {
				return nil, 0, err
			}
			if err := b.pruning(pt, root, true); err != nil {
				return nil, 0, err
			}
		}
		next := make(map[Point]bool)
		for conn := range b.conns {
			if !hidden[conn.target] {
				hidden[conn.target] = true
				next[conn.target] = true
			}
		}
		unexplored = next
	}

	// Hidden to outputs, queried from the output side.
	for _, out := range substrate.Outputs {
		root, err := b.division(out, false)
		if err != nil {
			return nil, 0, err
		}
		if err := b.pruning(out, root, false); err != nil {
			return nil, 0, err
		}
	}

	conns := b.cleanNet(substrate)

	builder := newSpecBuilder(substrate)
	for conn, w := range conns {
		builder.addConnection(conn.source, conn.target, w)
	}
	spec := builder.build()

	activations := 1<<uint(params.MaxDepth) + 1
	return spec, activations, nil
}

// division builds the quadtree for one fixed coordinate: every region is
// subdivided down to initial_depth, and further down to max_depth while the
// CPPN output variance across its children exceeds division_threshold.
func (b *esBuilder) division(coord Point, outgoing bool) (*quadPoint, error) {
	root := &quadPoint{x: 0, y: 0, width: 1, level: 1}
	queue := []*quadPoint{root}
	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]

		half := p.width / 2
		p.children = []*quadPoint{
			{x: p.x - half, y: p.y - half, width: half, level: p.level + 1},
			{x: p.x - half, y: p.y + half, width: half, level: p.level + 1},
			{x: p.x + half, y: p.y - half, width: half, level: p.level + 1},
			{x: p.x + half, y: p.y + half, width: half, level: p.level + 1},
		}
		for _, c := range p.children {
			w, err := b.query(coord, Point{X: c.x, Y: c.y}, outgoing)
			if err != nil {
				return nil, err
			}
			c.weight = w
		}

		if p.level < b.params.InitialDepth ||
			(p.level < b.params.MaxDepth && variance(p) > b.params.DivisionThreshold) {
			queue = append(queue, p.children...)
		}
	}
	return root, nil
}

// pruning walks the quadtree and emits a connection for every leaf region
// whose weight stands out from its neighborhood (band pruning); regions with
// enough internal variance are descended instead.
func (b *esBuilder) pruning(coord Point, p *quadPoint, outgoing bool) error {
	for _, c := range p.children {
		if variance(c) > b.params.VarianceThreshold {
			if err := b.pruning(coord, c, outgoing); err != nil {
				return err
			}
			continue
		}
		offsets := []Point{
			{X: c.x - p.width, Y: c.y},
			{X: c.x + p.width, Y: c.y},
			{X: c.x, Y: c.y - p.width},
			{X: c.x, Y: c.y + p.width},
		}
		diffs := make([]float64, len(offsets))
		for i, off := range offsets {
			w, err := b.query(coord, off, outgoing)
			if err != nil {
				return err
			}
			diffs[i] = math.Abs(c.weight - w)
		}
		dHoriz := math.Min(diffs[0], diffs[1])
		dVert := math.Min(diffs[2], diffs[3])
		if math.Max(dHoriz, dVert) > b.params.BandThreshold {
			node := Point{X: c.x, Y: c.y}
			weight := clampWeight(c.weight*b.params.MaxWeight, b.params.MaxWeight)
			var conn esConn
			if outgoing {
				conn = esConn{source: coord, target: node}
			} else {
				conn = esConn{source: node, target: coord}
			}
			b.conns[conn] = weight
		}
	}
	return nil
}

func (b *esBuilder) query(a, c Point, outgoing bool) (float64, error) {
	if outgoing {
		return b.cppn.Query(a, c)
	}
	return b.cppn.Query(c, a)
}

// variance is the mean squared deviation of a region's child weights.
func variance(p *quadPoint) float64 {
	if len(p.children) == 0 {
		return 0
	}
	mean := 0.0
	for _, c := range p.children {
		mean += c.weight
	}
	mean /= float64(len(p.children))
	v := 0.0
	for _, c := range p.children {
		d := c.weight - mean
		v += d * d
	}
	return v / float64(len(p.children))
}

// cleanNet keeps only connections lying on some path from an input to an
// output, dropping dangling hidden structure the quadtree discovered but
// never wired through.
func (b *esBuilder) cleanNet(substrate *Substrate) map[esConn]float64 {
	forward := reachable(b.conns, substrate.Inputs, func(c esConn) (Point, Point) {
		return c.source, c.target
	})
	backward := reachable(b.conns, substrate.Outputs, func(c esConn) (Point, Point) {
		return c.target, c.source
	})

	inputs := make(map[Point]bool, len(substrate.Inputs))
	for _, pt := range substrate.Inputs {
		inputs[pt] = true
	}
	outputs := make(map[Point]bool, len(substrate.Outputs))
	for _, pt := range substrate.Outputs {
		outputs[pt] = true
	}

	kept := make(map[esConn]float64)
	for conn, w := range b.conns {
		srcOK := inputs[conn.source] || (forward[conn.source] && backward[conn.source])
		dstOK := outputs[conn.target] || (forward[conn.target] && backward[conn.target])
		if srcOK && dstOK {
			kept[conn] = w
		}
	}
	return kept
}

// reachable floods from the given seed points along connections, using from/to
// as selected by the accessor, and returns every point reached.
func reachable(conns map[esConn]float64, seeds []Point, fromTo func(esConn) (Point, Point)) map[Point]bool {
	seen := make(map[Point]bool, len(seeds))
	frontier := make([]Point, 0, len(seeds))
	for _, pt := range seeds {
		seen[pt] = true
		frontier = append(frontier, pt)
	}
	for len(frontier) > 0 {
		pt := frontier[0]
		frontier = frontier[1:]
		for conn := range conns {
			from, to := fromTo(conn)
			if from == pt && !seen[to] {
				seen[to] = true
				frontier = append(frontier, to)
			}
		}
	}
	return seen
}
