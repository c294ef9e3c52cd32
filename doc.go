// Package ras computes Rare Allele Sharing (RAS) between a test population
// and a set of reference populations from freqsum allele-count files, and
// estimates its standard error with a delete-one-chromosome jackknife.
//
// A run has two stages. An Accumulator consumes the records of a freqsum
// file once, in order, and sums each site's RAS contribution into a
// [population][allele count][chromosome] matrix. An Estimator then turns
// each population's per-chromosome sums into a rate per megabase, a
// jackknife bias-corrected rate, and its standard error.
package ras
