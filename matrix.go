package ras

// Matrix is a dense [population][stratum][bin] array. Strata are addressed by
// their allele count s in [MinAF, MaxAF], not by offset.
type Matrix[T int | float64] struct {
	NPopulations int
	MinAF, MaxAF int
	NBins        int
	data         []T
}

func newMatrix[T int | float64](nPopulations, minAF, maxAF, nBins int) *Matrix[T] {
	return &Matrix[T]{
		NPopulations: nPopulations,
		MinAF:        minAF,
		MaxAF:        maxAF,
		NBins:        nBins,
		data:         make([]T, nPopulations*(maxAF-minAF+1)*nBins),
	}
}

func (m *Matrix[T]) offset(pop, stratum, bin int) int {
	return (pop*(m.MaxAF-m.MinAF+1)+(stratum-m.MinAF))*m.NBins + bin
}

// At returns the entry for population pop, stratum s and bin.
func (m *Matrix[T]) At(pop, stratum, bin int) T {
	return m.data[m.offset(pop, stratum, bin)]
}

func (m *Matrix[T]) add(pop, stratum, bin int, v T) {
	m.data[m.offset(pop, stratum, bin)] += v
}

// Bins returns a copy of the per-bin entries for one population and stratum.
func (m *Matrix[T]) Bins(pop, stratum int) []T {
	i := m.offset(pop, stratum, 0)
	out := make([]T, m.NBins)
	copy(out, m.data[i:i+m.NBins])
	return out
}

// Collapsed sums the per-bin entries of one population over every stratum.
func (m *Matrix[T]) Collapsed(pop int) []T {
	out := make([]T, m.NBins)
	for s := m.MinAF; s <= m.MaxAF; s++ {
		i := m.offset(pop, s, 0)
		for b, v := range m.data[i : i+m.NBins] {
			out[b] += v
		}
	}
	return out
}

// Equal reports whether two matrices have the same shape and bit-identical
// entries.
func (m *Matrix[T]) Equal(o *Matrix[T]) bool {
	if m.NPopulations != o.NPopulations || m.MinAF != o.MinAF || m.MaxAF != o.MaxAF || m.NBins != o.NBins {
		return false
	}
	for i := range m.data {
		if m.data[i] != o.data[i] {
			return false
		}
	}
	return true
}
