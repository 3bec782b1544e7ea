// Package reference evaluates the two-layer network in float64 with gonum,
// as a yardstick for the fixed-point kernel.
package reference

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/sea212/Implementation-of-an-artificial-neural-network-on-a-zynq7045-fpga-using-sdsoc/fixed"
	"github.com/sea212/Implementation-of-an-artificial-neural-network-on-a-zynq7045-fpga-using-sdsoc/neuralnet"
)

// relu rectifies v in place.
func relu(v *mat.VecDense) {
	for i := 0; i < v.Len(); i++ {
		v.SetVec(i, math.Max(v.AtVec(i), 0))
	}
}

// Forward computes relu(W12 * relu(W01 * relu(input))) for row-major
// mappings laid out like the fixed-point kernel's.
func Forward(dims neuralnet.Dimensions, w01, w12, input []float64) ([]float64, error) {
	if err := dims.Validate(); err != nil {
		return nil, err
	}
	if len(w01) < dims.Weights01Len() || len(w12) < dims.Weights12Len() || len(input) < dims.Input {
		return nil, fmt.Errorf("%w: mappings too short for %v", neuralnet.ErrInvalidDimension, dims)
	}
	if dims.Input == 0 || dims.Hidden == 0 || dims.Output == 0 {
		// gonum rejects empty matrices; every unit is zero anyway
		return make([]float64, dims.Output), nil
	}

	x := mat.NewVecDense(dims.Input, append([]float64(nil), input[:dims.Input]...))
	relu(x)

	l1 := mat.NewDense(dims.Hidden, dims.Input, append([]float64(nil), w01[:dims.Weights01Len()]...))
	hidden := mat.NewVecDense(dims.Hidden, nil)
	hidden.MulVec(l1, x)
	relu(hidden)

	l2 := mat.NewDense(dims.Output, dims.Hidden, append([]float64(nil), w12[:dims.Weights12Len()]...))
	out := mat.NewVecDense(dims.Output, nil)
	out.MulVec(l2, hidden)
	relu(out)

	return out.RawVector().Data, nil
}

// ForwardFixed runs Forward on the real values of fixed-point mappings.
func ForwardFixed(dims neuralnet.Dimensions, w01, w12, input []fixed.Fixed) ([]float64, error) {
	return Forward(dims, fixed.Floats(w01), fixed.Floats(w12), fixed.Floats(input))
}

// MaxAbsDiff returns the largest element-wise distance between a fixed-point
// output and a float64 one, over the shorter length.
func MaxAbsDiff(got []fixed.Fixed, want []float64) float64 {
	var worst float64
	for i := 0; i < min(len(got), len(want)); i++ {
		worst = math.Max(worst, math.Abs(got[i].Float64()-want[i]))
	}
	return worst
}
