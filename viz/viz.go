// Package viz renders network diagrams and fitness plots for evolved
// controllers.
package viz

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	"gonum.org/v1/gonum/graph/encoding"
	"gonum.org/v1/gonum/graph/encoding/dot"
	"gonum.org/v1/gonum/graph/simple"

	"github.com/neatgym/neatgym/neat/nn"
)

// Visualizer renders one network diagram per artifact.
type Visualizer interface {
	Draw(spec *nn.Spec, names map[int]string, outPath string) error
}

// vizNode is a graph node with Graphviz attributes derived from a network
// spec node.
type vizNode struct {
	id    int64
	label string
	shape string
	color string
}

func (n vizNode) ID() int64 { return n.id }

func (n vizNode) DOTID() string { return fmt.Sprintf("n%d", n.id) }

func (n vizNode) Attributes() []encoding.Attribute {
	return []encoding.Attribute{
		{Key: "label", Value: fmt.Sprintf("%q", n.label)},
		{Key: "shape", Value: n.shape},
		{Key: "fillcolor", Value: n.color},
		{Key: "style", Value: "filled"},
	}
}

type vizEdge struct {
	simple.Edge
	weight float64
}

func (e vizEdge) Attributes() []encoding.Attribute {
	style := "solid"
	if e.weight < 0 {
		style = "dotted"
	}
	return []encoding.Attribute{
		{Key: "label", Value: fmt.Sprintf("%q", fmt.Sprintf("%.2f", e.weight))},
		{Key: "style", Value: style},
	}
}

// GraphvizVisualizer turns network specs into rendered diagrams by writing a
// DOT description and invoking the dot executable. The intermediate .gv file
// is removed once rendering succeeds; only the diagram survives.
type GraphvizVisualizer struct {
	// Format is the dot output format, "png" if empty.
	Format string
}

func (v *GraphvizVisualizer) Draw(spec *nn.Spec, names map[int]string, outPath string) error {
	g := simple.NewDirectedGraph()

	// Keys can be negative; offset them into valid node IDs.
	idOf := func(key int) int64 { return int64(key) + 1_000_000 }

	addNode := func(key int, shape, color string) {
		label := names[key]
		if label == "" {
			label = fmt.Sprintf("%d", key)
		}
		g.AddNode(vizNode{id: idOf(key), label: label, shape: shape, color: color})
	}

	for _, key := range spec.InputKeys {
		addNode(key, "box", "lightgray")
	}
	outputs := make(map[int]bool, len(spec.OutputKeys))
	for _, key := range spec.OutputKeys {
		outputs[key] = true
		addNode(key, "oval", "lightblue")
	}
	for _, ns := range spec.Nodes {
		if outputs[ns.Key] {
			continue
		}
		if g.Node(idOf(ns.Key)) == nil {
			addNode(ns.Key, "oval", "white")
		}
	}
	for _, ns := range spec.Nodes {
		for _, in := range ns.Inputs {
			if g.Node(idOf(in.Source)) == nil {
				addNode(in.Source, "oval", "white")
			}
			g.SetEdge(vizEdge{
				Edge:   simple.Edge{F: g.Node(idOf(in.Source)), T: g.Node(idOf(ns.Key))},
				weight: in.Weight,
			})
		}
	}

	data, err := dot.Marshal(g, "network", "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode diagram: %w", err)
	}

	gvPath := gvPathFor(outPath)
	if err := os.WriteFile(gvPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", gvPath, err)
	}

	format := v.Format
	if format == "" {
		format = "png"
	}
	cmd := exec.Command("dot", "-T"+format, "-o", outPath, gvPath)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("dot failed: %v: %s", err, strings.TrimSpace(string(out)))
	}

	// The .gv file is a generator byproduct, not an artifact.
	if err := os.Remove(gvPath); err != nil {
		return fmt.Errorf("failed to remove %s: %w", gvPath, err)
	}
	return nil
}

func gvPathFor(outPath string) string {
	if i := strings.LastIndexByte(outPath, '.'); i > 0 {
		return outPath[:i] + ".gv"
	}
	return outPath + ".gv"
}
