package ras

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func binTable(t *testing.T, lengths ...float64) *BinTable {
	t.Helper()
	bins := NewBinTable()
	for i, l := range lengths {
		require.NoError(t, bins.Add(string(rune('A'+i)), l))
	}
	return bins
}

func TestEstimateZero(t *testing.T) {
	for _, policy := range []WeightPolicy{WeightByLength, WeightBySites} {
		est, err := NewEstimator(binTable(t, 1, 2, 3), policy)
		require.NoError(t, err)

		row, err := est.Estimate([]float64{0, 0, 0}, []int{0, 0, 0})
		require.NoError(t, err)
		assert.Equal(t, 0.0, row.Naive, policy)
		assert.Equal(t, 0.0, row.Jackknife, policy)
		assert.Equal(t, 0.0, row.StdErr, policy)
	}
}

func TestEstimateEqualBins(t *testing.T) {
	for _, length := range []float64{1, 2.5, 40} {
		est, err := NewEstimator(binTable(t, length, length), WeightByLength)
		require.NoError(t, err)

		v := 0.75
		row, err := est.Estimate([]float64{v, v}, []int{3, 3})
		require.NoError(t, err)
		assert.InDelta(t, v/length, row.Naive, 1e-15)
		assert.InDelta(t, v/length, row.Jackknife, 1e-15)
		assert.InDelta(t, 0, row.StdErr, 1e-12)
		assert.Equal(t, 2, row.Bins)
	}
}

// jackknifeByHand follows the textbook weighted delete-one jackknife
// (Busing et al. 1999) to cross-check the estimator.
func jackknifeByHand(ras, lengths, weights []float64) (thetaJ, se float64) {
	var total, L, W float64
	for i := range ras {
		total += ras[i]
		L += lengths[i]
		W += weights[i]
	}
	thetaHat := total / L
	g := float64(len(ras))

	thetaJ = g * thetaHat
	minus := make([]float64, len(ras))
	for i := range ras {
		minus[i] = (total - ras[i]) / (L - lengths[i])
		thetaJ -= (1 - weights[i]/W) * minus[i]
	}

	var v float64
	for i := range ras {
		h := W / weights[i]
		pseudo := h*thetaHat - (h-1)*minus[i]
		v += (pseudo - thetaJ) * (pseudo - thetaJ) / (h - 1)
	}

	return thetaJ, math.Sqrt(v / g)
}

func TestEstimateMatchesWeightedJackknife(t *testing.T) {
	lengths := []float64{249.2, 243.2, 198.0, 191.2, 180.9}
	ras := []float64{1.5, 0.25, 2.75, 1.0, 0.5}
	sites := []int{12, 2, 20, 9, 4}

	est, err := NewEstimator(binTable(t, lengths...), WeightByLength)
	require.NoError(t, err)
	row, err := est.Estimate(ras, sites)
	require.NoError(t, err)

	wantJ, wantSE := jackknifeByHand(ras, lengths, lengths)
	assert.InDelta(t, 6.0/1062.5, row.Naive, 1e-15)
	assert.InDelta(t, wantJ, row.Jackknife, 1e-12)
	assert.InDelta(t, wantSE, row.StdErr, 1e-12)
	assert.Greater(t, row.StdErr, 0.0)
	assert.Equal(t, 34+13, row.Sites)

	siteWeights := make([]float64, len(sites))
	for i, s := range sites {
		siteWeights[i] = float64(s)
	}
	est, err = NewEstimator(binTable(t, lengths...), WeightBySites)
	require.NoError(t, err)
	row, err = est.Estimate(ras, sites)
	require.NoError(t, err)

	wantJ, wantSE = jackknifeByHand(ras, lengths, siteWeights)
	assert.InDelta(t, wantJ, row.Jackknife, 1e-12)
	assert.InDelta(t, wantSE, row.StdErr, 1e-12)
}

func TestEstimateZeroWeightBinsAreSkipped(t *testing.T) {
	lengths := []float64{10, 20, 30}
	ras := []float64{1, 0, 3}
	sites := []int{4, 0, 6}

	est, err := NewEstimator(binTable(t, lengths...), WeightBySites)
	require.NoError(t, err)
	row, err := est.Estimate(ras, sites)
	require.NoError(t, err)

	// The empty bin keeps its length in the full-sample estimate but has no
	// pseudo-value.
	assert.InDelta(t, 4.0/60, row.Naive, 1e-15)
	assert.Equal(t, 2, row.Bins)
	assert.False(t, math.IsNaN(row.Jackknife))
	assert.False(t, math.IsNaN(row.StdErr))

	thetaHat := 4.0 / 60
	minus0, minus2 := 3.0/50, 1.0/30
	wantJ := (thetaHat - minus0) + (thetaHat - minus2) + (4*minus0+6*minus2)/10
	assert.InDelta(t, wantJ, row.Jackknife, 1e-15)
}

func TestEstimateZeroLengthBinIsSkipped(t *testing.T) {
	est, err := NewEstimator(binTable(t, 5, 0, 5), WeightByLength)
	require.NoError(t, err)

	row, err := est.Estimate([]float64{2, 1, 2}, []int{1, 1, 1})
	require.NoError(t, err)

	assert.Equal(t, 2, row.Bins)
	assert.InDelta(t, 0.5, row.Naive, 1e-15)
	assert.False(t, math.IsNaN(row.Jackknife))
	assert.False(t, math.IsInf(row.StdErr, 0))
	assert.False(t, math.IsNaN(row.StdErr))
}

func TestEstimateSingleUsableBin(t *testing.T) {
	est, err := NewEstimator(binTable(t, 1, 2), WeightBySites)
	require.NoError(t, err)

	row, err := est.Estimate([]float64{0.25, 0}, []int{1, 0})
	require.NoError(t, err)

	assert.Equal(t, 1, row.Bins)
	assert.InDelta(t, 0.25/3, row.Naive, 1e-15)
	assert.Equal(t, row.Naive, row.Jackknife)
	assert.Zero(t, row.StdErr)
}

func TestNewEstimatorDegenerate(t *testing.T) {
	var derr *DegenerateInputError

	_, err := NewEstimator(binTable(t, 10), WeightByLength)
	require.True(t, errors.As(err, &derr), "got %v", err)

	_, err = NewEstimator(binTable(t), WeightByLength)
	require.True(t, errors.As(err, &derr), "got %v", err)

	_, err = NewEstimator(binTable(t, 0, 0), WeightByLength)
	require.True(t, errors.As(err, &derr), "got %v", err)

	var cerr *ConfigError
	_, err = NewEstimator(binTable(t, 1, 1), WeightPolicy("uniform"))
	require.True(t, errors.As(err, &cerr), "got %v", err)
}

func TestEstimateBinCountMismatch(t *testing.T) {
	est, err := NewEstimator(binTable(t, 1, 1), WeightByLength)
	require.NoError(t, err)

	_, err = est.Estimate([]float64{1}, []int{1, 1})
	var derr *DegenerateInputError
	require.True(t, errors.As(err, &derr), "got %v", err)
}

func TestEstimateAll(t *testing.T) {
	freqsum := "#CHROM POS REF ALT T(8) A(8)\n" +
		"1 1 A C 1 1\n" +
		"2 1 A C 1 2\n" +
		"2 2 A C 2 1\n"

	cfg := testConfig("T")
	cfg.MaxAF = 4
	acc := accumulateString(t, freqsum, twoBins(t), cfg)

	est, err := NewEstimator(acc.Bins, WeightByLength)
	require.NoError(t, err)

	rows, err := est.EstimateAll(acc, true)
	require.NoError(t, err)

	// Two references, strata 2..4, plus a Total row each.
	require.Len(t, rows, 2*4)

	total := rows[3]
	assert.True(t, total.Total)
	assert.Equal(t, 0, total.Reference)
	assert.Equal(t, 1, total.Stratum)

	// The Total row is the same estimator over strata-summed input.
	for _, ref := range acc.References {
		want, err := est.Estimate(acc.RAS().Collapsed(ref), acc.Sites().Collapsed(ref))
		require.NoError(t, err)

		got := rows[ref*4+3]
		assert.Equal(t, want.RAS, got.RAS)
		assert.Equal(t, want.Jackknife, got.Jackknife)
		assert.Equal(t, want.StdErr, got.StdErr)

		var sum float64
		for s := 2; s <= 4; s++ {
			sum += rows[ref*4+s-2].RAS
		}
		assert.InDelta(t, sum, got.RAS, 1e-15)
	}

	rows, err = est.EstimateAll(acc, false)
	require.NoError(t, err)
	assert.Len(t, rows, 2*3)
	for _, row := range rows {
		assert.False(t, row.Total)
	}
}
