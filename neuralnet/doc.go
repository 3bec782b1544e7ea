/*
Package neuralnet runs a fixed-topology, two-layer feed-forward network in
Q2.14 fixed-point arithmetic.

# Architecture

All three layer widths share one compile-time capacity, MaxNodes. The
weights live in two MaxNodes x MaxNodes matrices owned by a WeightStore:

	W01[hidden][input]   input  -> hidden
	W12[output][hidden]  hidden -> output

A load copies the caller's flat row-major mappings into the top-left corner
of each matrix and zeroes everything else, so later passes may sweep the
full capacity without picking up stale values.

A forward pass rectifies the input, accumulates it through W01, rectifies
the hidden layer, accumulates it through W12 and writes the rectified
output. Every multiply and every add is rounded and saturated on its own,
in ascending index order, which makes results bit-reproducible.

# Usage

	c := neuralnet.New()
	dims := neuralnet.Dimensions{Input: 2, Hidden: 2, Output: 1}

	out := make([]fixed.Fixed, dims.Output)
	err := c.Step(neuralnet.Request{
		Load:      true,
		Execute:   true,
		Dims:      dims,
		Weights01: w01,
		Weights12: w12,
		Input:     in,
		Output:    out,
	})

A Controller is not safe for concurrent use: at most one Step may be in
flight per instance. Separate controllers share nothing.
*/
package neuralnet
