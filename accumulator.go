package ras

import (
	"fmt"
)

// Counters tallies what happened to each record offered to an Accumulator.
type Counters struct {
	Records         int // Records offered
	AmbiguousRef    int // Excluded: unresolved reference allele
	Transitions     int // Excluded: transition while transitions are disabled
	TestAbsent      int // Excluded: test population does not carry the variant
	OutsideStrata   int // Excluded: stratum total outside [MinAF, MaxAF]
	Accumulated     int // Reached the per-reference step
	SitesPerBin     []int
	ContributingBin []bool
}

// Accumulator streams genotype records into the RAS and site-count matrices.
// It is not safe for concurrent use.
type Accumulator struct {
	Schema *PopulationSchema
	Bins   *BinTable
	Config Config

	Test       int   // Column of the test population
	References []int // Columns RAS is accumulated for
	strataPops []int

	// ras[r][s][bin] is the running RAS sum; sites[r][s][bin] counts the
	// records that added a non-zero term to it.
	ras   *Matrix[float64]
	sites *Matrix[int]

	Counters Counters
}

// NewAccumulator validates cfg against the schema and allocates the matrices.
// MaxAF is lowered to the number of chromosomes carried by the stratum
// populations, since no higher stratum can fill; the stored Config reflects
// the cap.
func NewAccumulator(schema *PopulationSchema, bins *BinTable, cfg Config) (*Accumulator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	test, ok := schema.Index(cfg.Test)
	if !ok {
		return nil, &SchemaError{Field: cfg.Test, Msg: "test population not present in the header"}
	}

	refs, err := schema.Resolve(cfg.References)
	if err != nil {
		return nil, err
	}

	strataPops, err := schema.Resolve(cfg.StratumPopulations)
	if err != nil {
		return nil, err
	}

	if bins.Len() == 0 {
		return nil, &DegenerateInputError{Msg: "bin table is empty"}
	}

	var chromosomes int
	for _, p := range strataPops {
		chromosomes += schema.Population(p).Size
	}
	if chromosomes < cfg.MinAF {
		return nil, &ConfigError{Field: "MinAF", Msg: fmt.Sprintf("%d exceeds the %d chromosomes carried by the stratum populations", cfg.MinAF, chromosomes)}
	}
	if cfg.MaxAF > chromosomes {
		cfg.MaxAF = chromosomes
	}

	return &Accumulator{
		Schema:     schema,
		Bins:       bins,
		Config:     cfg,
		Test:       test,
		References: refs,
		strataPops: strataPops,
		ras:        newMatrix[float64](schema.Len(), cfg.MinAF, cfg.MaxAF, bins.Len()),
		sites:      newMatrix[int](schema.Len(), cfg.MinAF, cfg.MaxAF, bins.Len()),
		Counters: Counters{
			SitesPerBin:     make([]int, bins.Len()),
			ContributingBin: make([]bool, bins.Len()),
		},
	}, nil
}

// RAS returns the accumulated RAS matrix.
func (a *Accumulator) RAS() *Matrix[float64] {
	return a.ras
}

// Sites returns the matrix of contributing site counts.
func (a *Accumulator) Sites() *Matrix[int] {
	return a.sites
}

// Add folds one record into the matrices. rec.Counts is normalized in place.
func (a *Accumulator) Add(rec *GenotypeRecord) error {
	if len(rec.Counts) != a.Schema.Len() {
		return &RecordError{Line: rec.Line, Msg: fmt.Sprintf("record has %d allele counts; the header declares %d populations", len(rec.Counts), a.Schema.Len())}
	}

	bin, ok := a.Bins.Index(rec.Chromosome)
	if !ok {
		return &RecordError{Line: rec.Line, Field: "CHROM", Msg: fmt.Sprintf("chromosome %q is not in the bin table", rec.Chromosome)}
	}

	a.Counters.Records++

	if !rec.Ref.Resolved() {
		a.Counters.AmbiguousRef++
		return nil
	}

	if a.Config.NoTransitions && IsTransition(rec.Ref, rec.Alt) {
		a.Counters.Transitions++
		return nil
	}

	rec.normalizeMissing()

	c2 := rec.Counts[a.Test]
	if c2 == 0 {
		a.Counters.TestAbsent++
		return nil
	}

	sum := 0
	for _, p := range a.strataPops {
		sum += rec.Counts[p]
	}
	if sum < a.Config.MinAF || sum > a.Config.MaxAF {
		a.Counters.OutsideStrata++
		return nil
	}

	a.Counters.Accumulated++
	a.Counters.SitesPerBin[bin]++

	nTest := a.Schema.Population(a.Test).Size
	for _, r := range a.References {
		c1 := rec.Counts[r]

		if a.Config.Private && sum != c1+c2 {
			continue
		}

		if c1 == 0 {
			continue
		}

		var contribution float64
		if r == a.Test {
			// Leave out the test allele itself: a chromosome does not share
			// a variant with itself.
			if nTest < 2 {
				continue
			}
			contribution = float64(c1*(c2-1)) / float64(nTest*(nTest-1))
		} else {
			contribution = float64(c1*c2) / float64(a.Schema.Population(r).Size*nTest)
		}

		if contribution == 0 {
			continue
		}

		a.ras.add(r, sum, bin, contribution)
		a.sites.add(r, sum, bin, 1)
		a.Counters.ContributingBin[bin] = true
	}

	return nil
}

// EmptyBins lists bins that no record contributed to. On a complete genome
// scan this usually means the input was truncated or the bin table does not
// match it.
func (a *Accumulator) EmptyBins() []Bin {
	var out []Bin
	for i, contributed := range a.Counters.ContributingBin {
		if !contributed {
			out = append(out, a.Bins.Bin(i))
		}
	}
	return out
}

// Accumulate reads every record from rr into a new Accumulator.
func Accumulate(rr *RecordReader, bins *BinTable, cfg Config) (*Accumulator, error) {
	acc, err := NewAccumulator(rr.Schema(), bins, cfg)
	if err != nil {
		return nil, err
	}

	for rec := rr.Read(); rec != nil; rec = rr.Read() {
		if err := acc.Add(rec); err != nil {
			return nil, err
		}
	}

	if err := rr.Error(); err != nil {
		return nil, err
	}

	return acc, nil
}
