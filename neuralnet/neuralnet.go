package neuralnet

import (
	"errors"
	"fmt"
)

// Network capacity constants
const (
	// MaxNodes bounds the input, hidden and output widths alike.
	MaxNodes = 450

	// MatrixCells is the number of entries in one weight matrix.
	MatrixCells = MaxNodes * MaxNodes
)

// ErrInvalidDimension is returned when a layer width exceeds MaxNodes, is
// negative, or does not fit the supplied weight or activation slices.
var ErrInvalidDimension = errors.New("invalid dimension")

// Dimensions holds the actual layer widths for one call.
type Dimensions struct {
	Input  int `json:"input"`
	Hidden int `json:"hidden"`
	Output int `json:"output"`
}

// Validate checks every width against [0, MaxNodes].
func (d Dimensions) Validate() error {
	if err := checkWidth("input", d.Input); err != nil {
		return err
	}
	if err := checkWidth("hidden", d.Hidden); err != nil {
		return err
	}
	return checkWidth("output", d.Output)
}

// Weights01Len is the number of input->hidden weights for these widths.
func (d Dimensions) Weights01Len() int {
	return d.Input * d.Hidden
}

// Weights12Len is the number of hidden->output weights for these widths.
func (d Dimensions) Weights12Len() int {
	return d.Hidden * d.Output
}

func (d Dimensions) String() string {
	return fmt.Sprintf("%d-%d-%d", d.Input, d.Hidden, d.Output)
}

func checkWidth(layer string, n int) error {
	if n < 0 || n > MaxNodes {
		return fmt.Errorf("%w: %s count %d outside [0, %d]", ErrInvalidDimension, layer, n, MaxNodes)
	}
	return nil
}

func checkLen(what string, have, need int) error {
	if have < need {
		return fmt.Errorf("%w: %s has %d values, need %d", ErrInvalidDimension, what, have, need)
	}
	return nil
}
