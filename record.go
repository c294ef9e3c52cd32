package ras

// GenotypeRecord is one site of a freqsum file. Counts holds one allele count
// per population in schema order; negative values mark missing data.
type GenotypeRecord struct {
	Line       int // 1-based input line, for error reporting
	Chromosome string
	Position   uint32
	Ref        Allele
	Alt        Allele
	Counts     []int
}

// normalizeMissing replaces the missing-data sentinel with zero, i.e. assumes
// the reference allele wherever a population was not called.
func (r *GenotypeRecord) normalizeMissing() {
	for i, c := range r.Counts {
		if c < 0 {
			r.Counts[i] = 0
		}
	}
}
