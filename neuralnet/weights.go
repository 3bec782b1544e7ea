package neuralnet

import "github.com/sea212/Implementation-of-an-artificial-neural-network-on-a-zynq7045-fpga-using-sdsoc/fixed"

// WeightStore holds the two resident weight matrices.
type WeightStore struct {
	// Layer 1: input -> hidden, indexed [hidden][input]
	W01 [MaxNodes][MaxNodes]fixed.Fixed

	// Layer 2: hidden -> output, indexed [output][hidden]
	W12 [MaxNodes][MaxNodes]fixed.Fixed

	// Shape of the last successful load
	dims   Dimensions
	loaded bool
}

// NewWeightStore creates an empty store (all weights zero).
func NewWeightStore() *WeightStore {
	return &WeightStore{}
}

// Load validates the mappings and then overwrites both matrices.
// w01 is row-major by hidden unit then input unit, w12 by output unit then
// hidden unit. Entries outside the loaded widths are set to zero. On error
// the resident weights are left untouched.
func (s *WeightStore) Load(dims Dimensions, w01, w12 []fixed.Fixed) error {
	if err := dims.Validate(); err != nil {
		return err
	}
	if err := checkLen("weights0to1", len(w01), dims.Weights01Len()); err != nil {
		return err
	}
	if err := checkLen("weights1to2", len(w12), dims.Weights12Len()); err != nil {
		return err
	}

	fillPadded(&s.W01, w01, dims.Hidden, dims.Input)
	fillPadded(&s.W12, w12, dims.Output, dims.Hidden)

	s.dims = dims
	s.loaded = true
	return nil
}

// fillPadded copies a rows x cols row-major mapping into m and zeroes the
// rest of the matrix.
func fillPadded(m *[MaxNodes][MaxNodes]fixed.Fixed, flat []fixed.Fixed, rows, cols int) {
	for r := 0; r < MaxNodes; r++ {
		row := &m[r]
		if r >= rows {
			clear(row[:])
			continue
		}
		copy(row[:cols], flat[r*cols:(r+1)*cols])
		clear(row[cols:])
	}
}

// Reset returns the store to its empty all-zero state.
func (s *WeightStore) Reset() {
	clear(s.W01[:])
	clear(s.W12[:])
	s.dims = Dimensions{}
	s.loaded = false
}

// Shape returns the dimensions of the last successful load.
func (s *WeightStore) Shape() Dimensions {
	return s.dims
}

// Loaded reports whether Load has succeeded since creation or Reset.
func (s *WeightStore) Loaded() bool {
	return s.loaded
}

// InitRandom loads deterministic pseudo-random weights (for tooling and tests).
func (s *WeightStore) InitRandom(dims Dimensions, seed int64, scale float64) error {
	if err := dims.Validate(); err != nil {
		return err
	}
	w01, w12 := RandomWeights(dims, seed, scale)
	return s.Load(dims, w01, w12)
}

// RandomWeights returns flat mappings for dims with values spread evenly in
// roughly [-scale, scale). The sequence depends only on seed.
func RandomWeights(dims Dimensions, seed int64, scale float64) (w01, w12 []fixed.Fixed) {
	// Use a simple LCG for reproducibility
	state := uint64(seed)
	next := func() fixed.Fixed {
		state = state*6364136223846793005 + 1442695040888963407
		v := int((state>>48)&0xFF) - 128 // -128 to 127
		return fixed.FromFloat(float64(v) / 128 * scale)
	}

	w01 = make([]fixed.Fixed, dims.Weights01Len())
	for i := range w01 {
		w01[i] = next()
	}

	w12 = make([]fixed.Fixed, dims.Weights12Len())
	for i := range w12 {
		w12[i] = next()
	}
	return w01, w12
}
