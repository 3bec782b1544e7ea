package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sea212/Implementation-of-an-artificial-neural-network-on-a-zynq7045-fpga-using-sdsoc/fixed"
	"github.com/sea212/Implementation-of-an-artificial-neural-network-on-a-zynq7045-fpga-using-sdsoc/neuralnet"
)

// splitList splits on commas and whitespace, dropping empty fields.
func splitList(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n'
	})
}

// parseDims parses "input,hidden,output".
func parseDims(s string) (neuralnet.Dimensions, error) {
	parts := splitList(s)
	if len(parts) != 3 {
		return neuralnet.Dimensions{}, fmt.Errorf("dimensions must be input,hidden,output, got %q", s)
	}

	var n [3]int
	for i, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil {
			return neuralnet.Dimensions{}, fmt.Errorf("invalid layer width %q: %w", p, err)
		}
		n[i] = v
	}

	dims := neuralnet.Dimensions{Input: n[0], Hidden: n[1], Output: n[2]}
	return dims, dims.Validate()
}

// parseVector parses a comma separated list of decimals into Q2.14 values.
func parseVector(s string) ([]fixed.Fixed, error) {
	parts := splitList(s)
	out := make([]fixed.Fixed, len(parts))
	for i, p := range parts {
		v, err := fixed.Parse(p)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func formatVector(xs []fixed.Fixed) string {
	parts := make([]string, len(xs))
	for i, x := range xs {
		parts[i] = x.String()
	}
	return strings.Join(parts, ",")
}
