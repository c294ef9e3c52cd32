package ras

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// Estimate is the jackknife summary for one reference population and one
// stratum, or for all strata pooled when Total is set.
type Estimate struct {
	Reference int // Column of the reference population
	Stratum   int // Allele count; MinAF-1 on Total rows
	Total     bool

	RAS       float64 // Summed over bins
	Sites     int     // Contributing sites summed over bins
	Naive     float64 // RAS per megabase over all bins
	Jackknife float64 // Bias-corrected estimate
	StdErr    float64

	// Bins is the number of bins that entered the delete-one terms. Below 2
	// the jackknife cannot say anything: Jackknife equals Naive and StdErr is
	// zero.
	Bins int
}

// Estimator computes weighted delete-one-bin jackknife estimates over a fixed
// bin table.
//
// A bin enters the delete-one terms only if both its length and its weight
// are positive. Other bins still count towards the full-sample estimate
// (their RAS and their length stay in the totals) but are skipped when
// forming leave-one-out estimates and pseudo-values, since their h value is
// undefined.
type Estimator struct {
	Policy      WeightPolicy
	lengths     []float64
	totalLength float64
}

// NewEstimator checks that the bin table can support a delete-one jackknife.
func NewEstimator(bins *BinTable, policy WeightPolicy) (*Estimator, error) {
	switch policy {
	case WeightByLength, WeightBySites:
	default:
		return nil, &ConfigError{Field: "Weights", Msg: fmt.Sprintf("unknown weight policy %q", policy)}
	}

	if bins.Len() < 2 {
		return nil, &DegenerateInputError{Msg: fmt.Sprintf("%d bin(s); the delete-one jackknife needs at least 2", bins.Len())}
	}

	lengths := bins.Lengths()
	total := floats.Sum(lengths)
	if total <= 0 {
		return nil, &DegenerateInputError{Msg: "total bin length is zero"}
	}

	return &Estimator{
		Policy:      policy,
		lengths:     lengths,
		totalLength: total,
	}, nil
}

// Estimate runs the jackknife over one population's per-bin RAS sums and
// contributing-site counts.
func (e *Estimator) Estimate(ras []float64, sites []int) (Estimate, error) {
	if len(ras) != len(e.lengths) || len(sites) != len(e.lengths) {
		return Estimate{}, &DegenerateInputError{Msg: fmt.Sprintf("got %d RAS and %d site bins for a table of %d bins", len(ras), len(sites), len(e.lengths))}
	}

	out := Estimate{RAS: floats.Sum(ras)}
	for _, n := range sites {
		out.Sites += n
	}

	if out.RAS == 0 {
		return out, nil
	}

	L := e.totalLength
	thetaHat := out.RAS / L
	out.Naive = thetaHat

	weights := make([]float64, len(e.lengths))
	usable := make([]bool, len(e.lengths))
	var W float64
	for c, length := range e.lengths {
		w := length
		if e.Policy == WeightBySites {
			w = float64(sites[c])
		}
		if w > 0 && length > 0 {
			weights[c] = w
			usable[c] = true
			W += w
			out.Bins++
		}
	}

	if out.Bins < 2 {
		out.Jackknife = thetaHat
		return out, nil
	}

	// Leave-one-out estimates and the weighted jackknife estimate
	thetaMinus := make([]float64, len(e.lengths))
	var thetaJ float64
	for c := range e.lengths {
		if !usable[c] {
			continue
		}
		thetaMinus[c] = (out.RAS - ras[c]) / (L - e.lengths[c])
		thetaJ += thetaHat - thetaMinus[c]
		thetaJ += weights[c] * thetaMinus[c] / W
	}
	out.Jackknife = thetaJ

	var variance float64
	for c := range e.lengths {
		if !usable[c] {
			continue
		}
		h := W / weights[c]
		pseudo := h*thetaHat - (h-1)*thetaMinus[c]
		variance += (pseudo - thetaJ) * (pseudo - thetaJ) / (h - 1)
	}
	variance /= float64(out.Bins)
	out.StdErr = math.Sqrt(variance)

	return out, nil
}

// EstimateAll returns, for each reference population of acc in order, one
// Estimate per stratum from MinAF to MaxAF followed by the pooled Total row
// when withTotal is set.
func (e *Estimator) EstimateAll(acc *Accumulator, withTotal bool) ([]Estimate, error) {
	ras, sites := acc.RAS(), acc.Sites()
	if ras.NBins != len(e.lengths) {
		return nil, &DegenerateInputError{Msg: fmt.Sprintf("accumulated %d bins but the estimator has %d", ras.NBins, len(e.lengths))}
	}

	var out []Estimate
	for _, r := range acc.References {
		for s := ras.MinAF; s <= ras.MaxAF; s++ {
			est, err := e.Estimate(ras.Bins(r, s), sites.Bins(r, s))
			if err != nil {
				return nil, err
			}
			est.Reference, est.Stratum = r, s
			out = append(out, est)
		}

		if !withTotal {
			continue
		}

		est, err := e.Estimate(ras.Collapsed(r), sites.Collapsed(r))
		if err != nil {
			return nil, err
		}
		est.Reference, est.Stratum, est.Total = r, ras.MinAF-1, true
		out = append(out, est)
	}

	return out, nil
}
