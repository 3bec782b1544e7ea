package neuralnet

import (
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/sea212/Implementation-of-an-artificial-neural-network-on-a-zynq7045-fpga-using-sdsoc/fixed"
)

// BoundMode selects how far the two accumulation stages sweep.
type BoundMode int

const (
	// StrictBounds accumulates units [0, count).
	StrictBounds BoundMode = iota

	// InclusiveBounds accumulates units [0, count], reproducing the
	// accelerator's loop bounds. The extra unit is always zero padding, and
	// the sweep stops at MaxNodes, so outputs match StrictBounds.
	InclusiveBounds
)

func (m BoundMode) String() string {
	switch m {
	case StrictBounds:
		return "strict"
	case InclusiveBounds:
		return "inclusive"
	}
	return fmt.Sprintf("BoundMode(%d)", int(m))
}

// ParseBoundMode is the inverse of BoundMode.String.
func ParseBoundMode(s string) (BoundMode, error) {
	switch s {
	case "", "strict":
		return StrictBounds, nil
	case "inclusive":
		return InclusiveBounds, nil
	}
	return StrictBounds, fmt.Errorf("unknown bound mode %q", s)
}

// sweep returns how many units a stage accumulates over for count.
func (m BoundMode) sweep(count int) int {
	if m == InclusiveBounds && count < MaxNodes {
		return count + 1
	}
	return count
}

// minRowsPerWorker keeps small stages on the calling goroutine.
const minRowsPerWorker = 32

// ForwardPass computes output activations from the resident weights.
type ForwardPass struct {
	store   *WeightStore
	workers int
	bounds  BoundMode

	// Working registers, cleared on every call
	input  [MaxNodes]fixed.Fixed
	hidden [MaxNodes]fixed.Fixed
	output [MaxNodes]fixed.Fixed
}

// NewForwardPass creates a single-worker, strict-bounds pass over store.
func NewForwardPass(store *WeightStore) *ForwardPass {
	return &ForwardPass{
		store:   store,
		workers: 1,
	}
}

// SetWorkers sets how many goroutines may split one accumulation stage.
// Values below 1 mean 1.
func (f *ForwardPass) SetWorkers(n int) {
	f.workers = max(n, 1)
}

// SetBoundMode sets the accumulation sweep.
func (f *ForwardPass) SetBoundMode(m BoundMode) {
	f.bounds = m
}

// Execute writes dims.Output rectified activations for input into output.
func (f *ForwardPass) Execute(dims Dimensions, input, output []fixed.Fixed) error {
	if err := validateExecute(dims, input, output); err != nil {
		return err
	}
	f.run(dims, input, output)
	return nil
}

func validateExecute(dims Dimensions, input, output []fixed.Fixed) error {
	if err := dims.Validate(); err != nil {
		return err
	}
	if err := checkLen("input", len(input), dims.Input); err != nil {
		return err
	}
	return checkLen("output", len(output), dims.Output)
}

// run assumes validated arguments.
func (f *ForwardPass) run(dims Dimensions, input, output []fixed.Fixed) {
	clear(f.input[:])
	clear(f.hidden[:])
	clear(f.output[:])

	// Rectified input registers
	for i := 0; i < dims.Input; i++ {
		f.input[i] = input[i].ReLU()
	}

	// Hidden net input over the full capacity; padded rows stay zero
	f.propagate(&f.store.W01, f.input[:], f.hidden[:], MaxNodes, f.bounds.sweep(dims.Input))

	for j := range f.hidden {
		f.hidden[j] = f.hidden[j].ReLU()
	}

	// Output net input; rows past dims.Output are never observed
	f.propagate(&f.store.W12, f.hidden[:], f.output[:], dims.Output, f.bounds.sweep(dims.Hidden))

	// Rectify while writing out, leaving the registers as accumulated
	for j := 0; j < dims.Output; j++ {
		output[j] = f.output[j].ReLU()
	}
}

// propagate sets acc[r] = sum over c < cols of x[c]*m[r][c] for r < rows,
// splitting rows across workers when that is worthwhile. Rows are disjoint,
// so the split does not change any result.
func (f *ForwardPass) propagate(m *[MaxNodes][MaxNodes]fixed.Fixed, x, acc []fixed.Fixed, rows, cols int) {
	if f.workers <= 1 || rows < 2*minRowsPerWorker {
		propagateRows(m, x, acc, 0, rows, cols)
		return
	}

	chunk := max((rows+f.workers-1)/f.workers, minRowsPerWorker)

	var g errgroup.Group
	g.SetLimit(f.workers)
	for lo := 0; lo < rows; lo += chunk {
		hi := min(lo+chunk, rows)
		g.Go(func() error {
			propagateRows(m, x, acc, lo, hi, cols)
			return nil
		})
	}
	_ = g.Wait()
}

func propagateRows(m *[MaxNodes][MaxNodes]fixed.Fixed, x, acc []fixed.Fixed, lo, hi, cols int) {
	for r := lo; r < hi; r++ {
		acc[r] = fixed.Dot(fixed.Zero, m[r][:], x, cols)
	}
}
