package neatgym

import (
	"fmt"

	"github.com/neatgym/neatgym/hyper"
	"github.com/neatgym/neatgym/neat"
	"github.com/neatgym/neatgym/neat/nn"
)

// BuiltNetwork bundles the artifacts a genome decodes into. Direct genomes
// produce only the phenotype; indirect encodings additionally expose the
// CPPN that generated it. Activations is how many activation passes settle
// the phenotype's output on one observation.
type BuiltNetwork struct {
	Spec        *nn.Spec
	Net         nn.Network
	Activations int
	CPPNSpec    *nn.Spec // nil for the direct variant
}

// BuildNetwork decodes a genome into a runnable phenotype using the run's
// variant. A fresh network is built per call; phenotypes are never cached
// across evaluations.
func (rc *RunConfig) BuildNetwork(g *neat.Genome) (*BuiltNetwork, error) {
	switch rc.Variant {
	case Direct:
		spec, err := nn.SpecFromGenome(g)
		if err != nil {
			return nil, fmt.Errorf("failed to decode genome %d: %w", g.Key, err)
		}
		net, err := spec.Compile()
		if err != nil {
			return nil, fmt.Errorf("failed to compile genome %d: %w", g.Key, err)
		}
		return &BuiltNetwork{Spec: spec, Net: net, Activations: 1}, nil

	case Hyper:
		cppn, cppnSpec, err := rc.buildCPPN(g)
		if err != nil {
			return nil, err
		}
		spec, activations, err := hyper.BuildStatic(cppn, rc.Substrate)
		if err != nil {
			return nil, fmt.Errorf("substrate build failed for genome %d: %w", g.Key, err)
		}
		net, err := spec.Compile()
		if err != nil {
			return nil, fmt.Errorf("failed to compile substrate network for genome %d: %w", g.Key, err)
		}
		return &BuiltNetwork{Spec: spec, Net: net, Activations: activations, CPPNSpec: cppnSpec}, nil

	case ESHyper:
		cppn, cppnSpec, err := rc.buildCPPN(g)
		if err != nil {
			return nil, err
		}
		spec, activations, err := hyper.BuildES(cppn, rc.Substrate, rc.ES)
		if err != nil {
			return nil, fmt.Errorf("evolvable substrate build failed for genome %d: %w", g.Key, err)
		}
		net, err := spec.Compile()
		if err != nil {
			return nil, fmt.Errorf("failed to compile substrate network for genome %d: %w", g.Key, err)
		}
		return &BuiltNetwork{Spec: spec, Net: net, Activations: activations, CPPNSpec: cppnSpec}, nil

	default:
		return nil, fmt.Errorf("unknown variant %d", rc.Variant)
	}
}

func (rc *RunConfig) buildCPPN(g *neat.Genome) (*hyper.CPPN, *nn.Spec, error) {
	cppn, err := hyper.NewCPPN(g)
	if err != nil {
		return nil, nil, fmt.Errorf("genome %d: %w", g.Key, err)
	}
	cppnSpec, err := nn.SpecFromGenome(g)
	if err != nil {
		return nil, nil, fmt.Errorf("genome %d: %w", g.Key, err)
	}
	return cppn, cppnSpec, nil
}
