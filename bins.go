package ras

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// BasesPerMegabase converts base-pair lengths from the bin sources into the
// megabase lengths used by the estimator.
const BasesPerMegabase = 1e6

// Bin is a jackknife resampling unit, conventionally a chromosome.
type Bin struct {
	Name   string  // Canonical chromosome name
	Length float64 // Megabases
}

// BinTable is the closed, ordered set of bins. Bin indices are 0-based in
// the order the bins were added. Once handed to an Accumulator it must not be
// modified.
type BinTable struct {
	bins  []Bin
	index map[string]int
}

// NewBinTable returns an empty table.
func NewBinTable() *BinTable {
	return &BinTable{index: make(map[string]int)}
}

// Add appends length megabases to the named bin, creating the bin if this is
// the first time it is seen. Lengths of repeated names accumulate.
func (t *BinTable) Add(name string, length float64) error {
	if length < 0 {
		return fmt.Errorf("bin %s: negative length %g", name, length)
	}

	chr := Chromosome(name)
	if i, ok := t.index[chr]; ok {
		t.bins[i].Length += length
		return nil
	}

	t.index[chr] = len(t.bins)
	t.bins = append(t.bins, Bin{Name: chr, Length: length})
	return nil
}

// Len returns the number of bins.
func (t *BinTable) Len() int {
	return len(t.bins)
}

// Bin returns the bin at index i.
func (t *BinTable) Bin(i int) Bin {
	return t.bins[i]
}

// Index returns the bin index for a chromosome name in any accepted spelling.
func (t *BinTable) Index(name string) (int, bool) {
	i, ok := t.index[Chromosome(name)]
	return i, ok
}

// Lengths returns a copy of the bin lengths, in megabases, by bin index.
func (t *BinTable) Lengths() []float64 {
	out := make([]float64, len(t.bins))
	for i, b := range t.bins {
		out[i] = b.Length
	}
	return out
}

// TotalLength is the summed length of all bins in megabases.
func (t *BinTable) TotalLength() float64 {
	return floats.Sum(t.Lengths())
}
