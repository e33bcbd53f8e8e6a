// Package neatgym drives neuroevolution of controllers for simulated
// environments. It couples an evolutionary engine (package neat) to episodic
// environments (package gym) through three network encodings: direct genome
// decoding, a CPPN queried over a fixed substrate, and a CPPN over an
// evolvable quadtree-grown substrate (package hyper).
//
// A run is described by a RunConfig loaded from an INI file whose suffix
// selects the encoding: "<env>" for direct NEAT, "<env>-hyper" and
// "<env>-eshyper" for the indirect variants. The Driver evolves a population
// against the environment, reports progress, checkpoints new champions and
// persists the winning network under models/ with a diagram under visuals/.
package neatgym
