package neuralnet

import (
	"errors"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/sea212/Implementation-of-an-artificial-neural-network-on-a-zynq7045-fpga-using-sdsoc/fixed"
)

// randomInput returns n values uniformly spread in [lo, hi).
func randomInput(rng *rand.Rand, n int, lo, hi float64) []fixed.Fixed {
	out := make([]fixed.Fixed, n)
	for i := range out {
		out[i] = fixed.FromFloat(lo + rng.Float64()*(hi-lo))
	}
	return out
}

func newLoadedPass(t testing.TB, dims Dimensions, w01, w12 []fixed.Fixed) *ForwardPass {
	t.Helper()
	s := NewWeightStore()
	if err := s.Load(dims, w01, w12); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	return NewForwardPass(s)
}

func TestForwardIdentityScenario(t *testing.T) {
	dims := Dimensions{Input: 2, Hidden: 2, Output: 1}
	w01 := fixed.FromFloats([]float64{1, 0, 0, 1})
	w12 := fixed.FromFloats([]float64{1, 1})
	input := fixed.FromFloats([]float64{0.5, -0.3})

	f := newLoadedPass(t, dims, w01, w12)
	out := make([]fixed.Fixed, 1)
	if err := f.Execute(dims, input, out); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if out[0] != fixed.FromFloat(0.5) {
		t.Errorf("output = %v, want 0.5", out[0])
	}

	// Intermediate registers follow the documented steps.
	if f.input[0] != fixed.FromFloat(0.5) || f.input[1] != fixed.Zero {
		t.Errorf("rectified input = [%v %v]", f.input[0], f.input[1])
	}
	if f.hidden[0] != fixed.FromFloat(0.5) || f.hidden[1] != fixed.Zero {
		t.Errorf("hidden = [%v %v]", f.hidden[0], f.hidden[1])
	}
}

func TestForwardZeroWeights(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	for _, dims := range []Dimensions{
		{Input: 1, Hidden: 1, Output: 1},
		{Input: 10, Hidden: 3, Output: 7},
		{Input: 450, Hidden: 12, Output: 450},
	} {
		f := newLoadedPass(t, dims, make([]fixed.Fixed, dims.Weights01Len()), make([]fixed.Fixed, dims.Weights12Len()))
		out := make([]fixed.Fixed, dims.Output)
		for i := range out {
			out[i] = fixed.One // must be overwritten
		}
		if err := f.Execute(dims, randomInput(rng, dims.Input, -2, 2), out); err != nil {
			t.Fatal(err)
		}
		for j, v := range out {
			if v != fixed.Zero {
				t.Fatalf("dims %v: output[%d] = %v, want 0", dims, j, v)
			}
		}
	}
}

func TestForwardNonNegative(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 4))
	dims := Dimensions{Input: 40, Hidden: 25, Output: 60}
	w01, w12 := RandomWeights(dims, 11, 1.9)
	f := newLoadedPass(t, dims, w01, w12)

	out := make([]fixed.Fixed, dims.Output)
	for trial := 0; trial < 20; trial++ {
		if err := f.Execute(dims, randomInput(rng, dims.Input, -2, 2), out); err != nil {
			t.Fatal(err)
		}
		for j, v := range out {
			if v < fixed.Zero {
				t.Fatalf("trial %d: output[%d] = %v is negative", trial, j, v)
			}
		}
	}
}

func TestForwardApproximateLinearity(t *testing.T) {
	rng := rand.New(rand.NewPCG(5, 6))
	dims := Dimensions{Input: 6, Hidden: 8, Output: 4}

	// Non-negative weights keep every unit active, so the network is linear
	// up to rounding.
	w01 := randomInput(rng, dims.Weights01Len(), 0, 0.25)
	w12 := randomInput(rng, dims.Weights12Len(), 0, 0.25)
	f := newLoadedPass(t, dims, w01, w12)

	// Even raw values make x*k exact for k = 0.5.
	x := randomInput(rng, dims.Input, 0.05, 0.4)
	for i := range x {
		x[i] &^= 1
	}

	base := make([]fixed.Fixed, dims.Output)
	if err := f.Execute(dims, x, base); err != nil {
		t.Fatal(err)
	}

	// Per-product rounding is at most half a step; bound the total loosely.
	tolerance := float64(dims.Input*dims.Hidden+dims.Hidden) * fixed.Epsilon.Float64()

	for _, k := range []float64{0.5, 0.25, 0.125} {
		scaled := make([]fixed.Fixed, dims.Input)
		for i := range x {
			scaled[i] = x[i].Mul(fixed.FromFloat(k))
		}
		out := make([]fixed.Fixed, dims.Output)
		if err := f.Execute(dims, scaled, out); err != nil {
			t.Fatal(err)
		}
		for j := range out {
			want := k * base[j].Float64()
			if diff := math.Abs(out[j].Float64() - want); diff > tolerance {
				t.Errorf("k=%v output[%d] = %v, want %v (diff %v > %v)", k, j, out[j], want, diff, tolerance)
			}
		}
	}
}

func TestForwardSaturatesPerStep(t *testing.T) {
	dims := Dimensions{Input: 3, Hidden: 1, Output: 1}
	w01 := []fixed.Fixed{fixed.One, fixed.One, fixed.One}
	w12 := []fixed.Fixed{fixed.One}
	// Hidden: 1.5 -> 1.5+1.5 saturates -> Max then + 0 (negative input rectified).
	input := fixed.FromFloats([]float64{1.5, 1.5, -1.5})

	f := newLoadedPass(t, dims, w01, w12)
	out := make([]fixed.Fixed, 1)
	if err := f.Execute(dims, input, out); err != nil {
		t.Fatal(err)
	}
	if out[0] != fixed.Max {
		t.Errorf("output = %v, want saturation at %v", out[0], fixed.Max)
	}

	// Negative weight after saturation: order matters.
	w01 = fixed.FromFloats([]float64{1, 1, -1})
	f = newLoadedPass(t, dims, w01, w12)
	input = fixed.FromFloats([]float64{1.5, 1.5, 1.5})
	if err := f.Execute(dims, input, out); err != nil {
		t.Fatal(err)
	}
	if want := fixed.Max.Sub(fixed.FromFloat(1.5)); out[0] != want {
		t.Errorf("output = %v, want %v", out[0], want)
	}
}

func TestForwardBoundModesAgree(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 8))
	for _, dims := range []Dimensions{
		{Input: 1, Hidden: 1, Output: 1},
		{Input: 13, Hidden: 27, Output: 5},
		{Input: MaxNodes - 1, Hidden: MaxNodes - 1, Output: MaxNodes - 1},
		{Input: MaxNodes, Hidden: 3, Output: MaxNodes},
	} {
		w01, w12 := RandomWeights(dims, 21, 0.1)
		input := randomInput(rng, dims.Input, -1, 1)

		strict := newLoadedPass(t, dims, w01, w12)
		inclusive := newLoadedPass(t, dims, w01, w12)
		inclusive.SetBoundMode(InclusiveBounds)

		a := make([]fixed.Fixed, dims.Output)
		b := make([]fixed.Fixed, dims.Output)
		if err := strict.Execute(dims, input, a); err != nil {
			t.Fatal(err)
		}
		if err := inclusive.Execute(dims, input, b); err != nil {
			t.Fatal(err)
		}
		for j := range a {
			if a[j] != b[j] {
				t.Fatalf("dims %v: strict %v != inclusive %v at %d", dims, a[j], b[j], j)
			}
		}
	}
}

func TestForwardFullCapacity(t *testing.T) {
	rng := rand.New(rand.NewPCG(9, 10))
	dims := Dimensions{Input: MaxNodes, Hidden: MaxNodes, Output: MaxNodes}
	w01, w12 := RandomWeights(dims, 33, 0.05)
	input := randomInput(rng, dims.Input, -1, 1)

	var reference []fixed.Fixed
	for _, mode := range []BoundMode{StrictBounds, InclusiveBounds} {
		for _, workers := range []int{1, 4, 16} {
			f := newLoadedPass(t, dims, w01, w12)
			f.SetBoundMode(mode)
			f.SetWorkers(workers)

			out := make([]fixed.Fixed, dims.Output)
			if err := f.Execute(dims, input, out); err != nil {
				t.Fatalf("%v/%d workers: %v", mode, workers, err)
			}
			for j, v := range out {
				if v < fixed.Zero {
					t.Fatalf("output[%d] negative", j)
				}
			}
			if reference == nil {
				reference = out
				continue
			}
			for j := range out {
				if out[j] != reference[j] {
					t.Fatalf("%v/%d workers differs at %d: %v vs %v", mode, workers, j, out[j], reference[j])
				}
			}
		}
	}
}

func TestForwardDoesNotLeakBetweenCalls(t *testing.T) {
	dims := Dimensions{Input: 4, Hidden: 4, Output: 4}
	w01, w12 := RandomWeights(dims, 2, 0.5)
	f := newLoadedPass(t, dims, w01, w12)
	f.SetBoundMode(InclusiveBounds)

	first := make([]fixed.Fixed, 4)
	input := fixed.FromFloats([]float64{0.1, 0.2, 0.3, 0.4})
	if err := f.Execute(dims, input, first); err != nil {
		t.Fatal(err)
	}

	// A wider call leaves values in the registers past index 4.
	wide := Dimensions{Input: 6, Hidden: 4, Output: 4}
	if err := f.Execute(wide, fixed.FromFloats([]float64{1, 1, 1, 1, 1, 1}), make([]fixed.Fixed, 4)); err != nil {
		t.Fatal(err)
	}

	second := make([]fixed.Fixed, 4)
	if err := f.Execute(dims, input, second); err != nil {
		t.Fatal(err)
	}
	for j := range first {
		if first[j] != second[j] {
			t.Fatalf("output[%d] changed between identical calls: %v vs %v", j, first[j], second[j])
		}
	}
}

func TestExecuteRejectsInvalidArguments(t *testing.T) {
	f := NewForwardPass(NewWeightStore())
	tests := []struct {
		name   string
		dims   Dimensions
		input  int
		output int
	}{
		{"input over capacity", Dimensions{Input: MaxNodes + 1, Hidden: 1, Output: 1}, MaxNodes + 1, 1},
		{"short input", Dimensions{Input: 3, Hidden: 1, Output: 1}, 2, 1},
		{"short output", Dimensions{Input: 1, Hidden: 1, Output: 3}, 1, 2},
	}
	for _, tt := range tests {
		err := f.Execute(tt.dims, make([]fixed.Fixed, tt.input), make([]fixed.Fixed, tt.output))
		if !errors.Is(err, ErrInvalidDimension) {
			t.Errorf("%s: expected ErrInvalidDimension, got %v", tt.name, err)
		}
	}
}

func TestParseBoundMode(t *testing.T) {
	for _, m := range []BoundMode{StrictBounds, InclusiveBounds} {
		got, err := ParseBoundMode(m.String())
		if err != nil || got != m {
			t.Errorf("ParseBoundMode(%q) = %v, %v", m.String(), got, err)
		}
	}
	if _, err := ParseBoundMode("sideways"); err == nil {
		t.Error("expected error for unknown mode")
	}
}

func BenchmarkForwardFullCapacity(b *testing.B) {
	dims := Dimensions{Input: MaxNodes, Hidden: MaxNodes, Output: MaxNodes}
	w01, w12 := RandomWeights(dims, 1, 0.05)
	f := newLoadedPass(b, dims, w01, w12)
	input := randomInput(rand.New(rand.NewPCG(1, 1)), dims.Input, -1, 1)
	out := make([]fixed.Fixed, dims.Output)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = f.Execute(dims, input, out)
	}
}

func BenchmarkForwardFullCapacityParallel(b *testing.B) {
	dims := Dimensions{Input: MaxNodes, Hidden: MaxNodes, Output: MaxNodes}
	w01, w12 := RandomWeights(dims, 1, 0.05)
	f := newLoadedPass(b, dims, w01, w12)
	f.SetWorkers(8)
	input := randomInput(rand.New(rand.NewPCG(1, 1)), dims.Input, -1, 1)
	out := make([]fixed.Fixed, dims.Output)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = f.Execute(dims, input, out)
	}
}
