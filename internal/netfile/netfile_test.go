package netfile

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sea212/Implementation-of-an-artificial-neural-network-on-a-zynq7045-fpga-using-sdsoc/fixed"
	"github.com/sea212/Implementation-of-an-artificial-neural-network-on-a-zynq7045-fpga-using-sdsoc/neuralnet"
)

func sampleSet(t *testing.T) *WeightSet {
	t.Helper()
	dims := neuralnet.Dimensions{Input: 3, Hidden: 4, Output: 2}
	w01, w12 := neuralnet.RandomWeights(dims, 8, 1.0)
	ws, err := NewWeightSet(dims, w01, w12)
	require.NoError(t, err)
	return ws
}

func TestWriteReadFile(t *testing.T) {
	ws := sampleSet(t)
	path := filepath.Join(t.TempDir(), "net.qxnn")

	require.NoError(t, Save(path, ws))
	got, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, ws, got)
}

func TestLayout(t *testing.T) {
	dims := neuralnet.Dimensions{Input: 1, Hidden: 1, Output: 1}
	ws, err := NewWeightSet(dims, []fixed.Fixed{fixed.One}, []fixed.Fixed{fixed.FromFloat(-0.5)})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, ws))
	require.Equal(t, ws.EncodedSize(), buf.Len())

	raw := buf.Bytes()
	require.Equal(t, []byte("QXNN"), raw[:4])
	require.Equal(t, uint32(Version), binary.LittleEndian.Uint32(raw[4:]))
	require.Equal(t, uint32(fixed.FracBits), binary.LittleEndian.Uint32(raw[20:]))
	require.Equal(t, uint16(0x4000), binary.LittleEndian.Uint16(raw[24:]))
	require.Equal(t, uint16(0xE000), binary.LittleEndian.Uint16(raw[26:]))
}

func TestReadRejectsBadHeaders(t *testing.T) {
	encode := func(h FileHeader) *bytes.Buffer {
		var buf bytes.Buffer
		require.NoError(t, binary.Write(&buf, binary.LittleEndian, &h))
		return &buf
	}
	good := FileHeader{Magic: MagicNumber, Version: Version, Input: 1, Hidden: 1, Output: 1, FracBits: fixed.FracBits}

	h := good
	h.Magic = 0xDEADBEEF
	_, err := Read(encode(h))
	require.ErrorContains(t, err, "invalid magic number")

	h = good
	h.Version = 9
	_, err = Read(encode(h))
	require.ErrorContains(t, err, "unsupported version")

	h = good
	h.FracBits = 15
	_, err = Read(encode(h))
	require.ErrorContains(t, err, "fractional bits mismatch")

	h = good
	h.Hidden = neuralnet.MaxNodes + 1
	_, err = Read(encode(h))
	require.True(t, errors.Is(err, neuralnet.ErrInvalidDimension), "got %v", err)
}

func TestReadTruncated(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sampleSet(t)))

	_, err := Read(bytes.NewReader(buf.Bytes()[:buf.Len()-1]))
	require.ErrorContains(t, err, "failed to read weights1to2")
	require.True(t, errors.Is(err, io.ErrUnexpectedEOF))

	_, err = Read(bytes.NewReader(buf.Bytes()[:10]))
	require.ErrorContains(t, err, "failed to read header")
}

func TestNewWeightSetChecksLengths(t *testing.T) {
	dims := neuralnet.Dimensions{Input: 2, Hidden: 2, Output: 2}
	_, err := NewWeightSet(dims, make([]fixed.Fixed, 3), make([]fixed.Fixed, 4))
	require.ErrorIs(t, err, neuralnet.ErrInvalidDimension)
}

func TestLoadInto(t *testing.T) {
	ws := sampleSet(t)
	c := neuralnet.New()
	require.NoError(t, ws.LoadInto(c))
	require.Equal(t, ws.Dims, c.Weights().Shape())
}
