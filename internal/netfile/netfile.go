// Package netfile reads and writes weight sets in a compact binary format.
package netfile

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/sea212/Implementation-of-an-artificial-neural-network-on-a-zynq7045-fpga-using-sdsoc/fixed"
	"github.com/sea212/Implementation-of-an-artificial-neural-network-on-a-zynq7045-fpga-using-sdsoc/neuralnet"
)

// Weight file format constants
const (
	MagicNumber = 0x4E4E5851 // "QXNN" little-endian
	Version     = 1
)

// FileHeader is the header of the weight file.
type FileHeader struct {
	Magic    uint32
	Version  uint32
	Input    uint32
	Hidden   uint32
	Output   uint32
	FracBits uint32
}

// HeaderSize is the encoded size of FileHeader in bytes.
const HeaderSize = 6 * 4

// WeightSet is one network's flat weight mappings.
type WeightSet struct {
	Dims      neuralnet.Dimensions
	Weights01 []fixed.Fixed // hidden-major, Input*Hidden values
	Weights12 []fixed.Fixed // output-major, Hidden*Output values
}

// NewWeightSet checks the mapping lengths against dims.
func NewWeightSet(dims neuralnet.Dimensions, w01, w12 []fixed.Fixed) (*WeightSet, error) {
	if err := dims.Validate(); err != nil {
		return nil, err
	}
	if len(w01) != dims.Weights01Len() || len(w12) != dims.Weights12Len() {
		return nil, fmt.Errorf("%w: %v needs %d+%d weights, got %d+%d", neuralnet.ErrInvalidDimension,
			dims, dims.Weights01Len(), dims.Weights12Len(), len(w01), len(w12))
	}
	return &WeightSet{Dims: dims, Weights01: w01, Weights12: w12}, nil
}

// EncodedSize is the number of bytes Write produces for ws.
func (ws *WeightSet) EncodedSize() int {
	return HeaderSize + 2*(len(ws.Weights01)+len(ws.Weights12))
}

// LoadInto loads ws into a controller.
func (ws *WeightSet) LoadInto(c *neuralnet.Controller) error {
	return c.Load(ws.Dims, ws.Weights01, ws.Weights12)
}

// Load reads a weight set from a file.
func Load(filename string) (*WeightSet, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open weights file: %w", err)
	}
	defer f.Close()

	return Read(bufio.NewReader(f))
}

// Save writes a weight set to a file.
func Save(filename string, ws *WeightSet) error {
	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create weights file: %w", err)
	}

	w := bufio.NewWriter(f)
	if err := Write(w, ws); err != nil {
		f.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("failed to flush weights file: %w", err)
	}
	return f.Close()
}

// Read decodes a weight set.
// Format (little-endian):
//   - Header: Magic, Version, Input, Hidden, Output, FracBits (uint32 each)
//   - W01: Input*Hidden int16, hidden-major
//   - W12: Hidden*Output int16, output-major
func Read(r io.Reader) (*WeightSet, error) {
	header, err := readLittleEndian[FileHeader](r)
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	// Validate header
	if header.Magic != MagicNumber {
		return nil, fmt.Errorf("invalid magic number: expected %x, got %x", MagicNumber, header.Magic)
	}
	if header.Version != Version {
		return nil, fmt.Errorf("unsupported version: expected %d, got %d", Version, header.Version)
	}
	if header.FracBits != fixed.FracBits {
		return nil, fmt.Errorf("fractional bits mismatch: expected %d, got %d", fixed.FracBits, header.FracBits)
	}

	dims := neuralnet.Dimensions{
		Input:  int(header.Input),
		Hidden: int(header.Hidden),
		Output: int(header.Output),
	}
	if err := dims.Validate(); err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	ws := &WeightSet{
		Dims:      dims,
		Weights01: make([]fixed.Fixed, dims.Weights01Len()),
		Weights12: make([]fixed.Fixed, dims.Weights12Len()),
	}

	if err := readLittleEndianSlice(r, ws.Weights01); err != nil {
		return nil, fmt.Errorf("failed to read weights0to1: %w", err)
	}
	if err := readLittleEndianSlice(r, ws.Weights12); err != nil {
		return nil, fmt.Errorf("failed to read weights1to2: %w", err)
	}

	return ws, nil
}

// Write encodes a weight set.
func Write(w io.Writer, ws *WeightSet) error {
	if len(ws.Weights01) != ws.Dims.Weights01Len() || len(ws.Weights12) != ws.Dims.Weights12Len() {
		return fmt.Errorf("%w: weight set %v has %d+%d weights", neuralnet.ErrInvalidDimension,
			ws.Dims, len(ws.Weights01), len(ws.Weights12))
	}

	header := FileHeader{
		Magic:    MagicNumber,
		Version:  Version,
		Input:    uint32(ws.Dims.Input),
		Hidden:   uint32(ws.Dims.Hidden),
		Output:   uint32(ws.Dims.Output),
		FracBits: fixed.FracBits,
	}
	if err := writeLittleEndian(w, &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	if err := writeLittleEndian(w, ws.Weights01); err != nil {
		return fmt.Errorf("failed to write weights0to1: %w", err)
	}
	if err := writeLittleEndian(w, ws.Weights12); err != nil {
		return fmt.Errorf("failed to write weights1to2: %w", err)
	}
	return nil
}

// readLittleEndian reads a fixed-size value in little-endian order.
func readLittleEndian[T any](r io.Reader) (T, error) {
	var result T
	err := binary.Read(r, binary.LittleEndian, &result)
	return result, err
}

// readLittleEndianSlice fills out in little-endian order.
func readLittleEndianSlice[T any](r io.Reader, out []T) error {
	if len(out) == 0 {
		return nil
	}
	return binary.Read(r, binary.LittleEndian, out)
}

func writeLittleEndian[T any](w io.Writer, value T) error {
	return binary.Write(w, binary.LittleEndian, value)
}
