// freqsum2ras computes Rare Allele Sharing between a test population and
// every population of a freqsum file, with delete-one-chromosome jackknife
// standard errors.
package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/akamensky/argparse"
	"github.com/carbocation/genomisc"
	"github.com/carbocation/pfx"
	"github.com/carbocation/ras"
	log "github.com/sirupsen/logrus"
)

// unsetAF marks an allele count flag that was not given, so that an explicit
// 0 or negative value still reaches validation.
const unsetAF = math.MinInt32

type options struct {
	input, output, config string
	test                  string
	minAF, maxAF          *int // nil when not given
	noTransitions         bool
	private               bool
	lengths, bed, bgi     string
	merge                 bool
	weights               string
	stratumPops, refs     string
	noTotal               bool
}

func main() {
	parser := argparse.NewParser("freqsum2ras", "Compute the rate of rare alleles shared between a test population and each population of a freqsum file, per allele count, with delete-one-chromosome jackknife standard errors.")
	input := parser.String("I", "Input", &argparse.Options{Help: "The input freqsum file (local, gs:// or - for stdin; gzip and zstd are detected)", Default: ras.Stdin})
	output := parser.String("O", "Output", &argparse.Options{Help: "The output file (default stdout)"})
	config := parser.String("c", "config", &argparse.Options{Help: "YAML configuration file. Flags given on the command line take precedence"})
	test := parser.String("S", "Sample", &argparse.Options{Help: "The Test population. RAS is calculated between it and the populations in the freqsum"})
	maxAF := parser.Int("M", "MAF", &argparse.Options{Help: fmt.Sprintf("The maximum total allele count of a site (default %d; capped at the chromosomes carried by the stratum populations)", ras.DefaultMaxAF), Default: unsetAF})
	minAF := parser.Int("m", "MinAF", &argparse.Options{Help: fmt.Sprintf("The minimum total allele count of a site (default %d)", ras.DefaultMinAF), Default: unsetAF})
	noTransitions := parser.Flag("", "NT", &argparse.Options{Help: "Exclude transitions. Useful for ancient samples with damaged DNA"})
	private := parser.Flag("P", "Private", &argparse.Options{Help: "Restrict RAS to variants shared only by the test and the reference"})
	lengths := parser.String("L", "Lengths", &argparse.Options{Help: "Chromosome length file (NAME LENGTH_BP)"})
	bed := parser.String("B", "BED", &argparse.Options{Help: "BED file of the regions covered; interval lengths are summed per chromosome"})
	bgi := parser.String("", "BGI", &argparse.Options{Help: "BGEN index whose per-chromosome variant span is used as the chromosome length"})
	merge := parser.Flag("", "merge", &argparse.Options{Help: "Merge overlapping BED intervals before summing"})
	weights := parser.String("", "weights", &argparse.Options{Help: "Jackknife bin weights: length or sites (default length)"})
	stratumPops := parser.String("", "stratum-pops", &argparse.Options{Help: "Comma-separated populations whose counts define a site's allele count (default all)"})
	refs := parser.String("", "refs", &argparse.Options{Help: "Comma-separated reference populations to report (default all)"})
	noTotal := parser.Flag("", "no-total", &argparse.Options{Help: "Do not report the row pooling all allele counts"})
	verbose := parser.Flag("v", "verbose", &argparse.Options{Help: "Verbose logging"})

	if err := parser.Parse(os.Args); err != nil {
		fmt.Print(parser.Usage(err))
		os.Exit(1)
	}

	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	if *verbose {
		log.SetLevel(log.DebugLevel)
	}

	opts := options{
		input:         *input,
		output:        *output,
		config:        *config,
		test:          *test,
		noTransitions: *noTransitions,
		private:       *private,
		lengths:       *lengths,
		bed:           *bed,
		bgi:           *bgi,
		merge:         *merge,
		weights:       *weights,
		stratumPops:   *stratumPops,
		refs:          *refs,
		noTotal:       *noTotal,
	}

	if *minAF != unsetAF {
		opts.minAF = minAF
	}
	if *maxAF != unsetAF {
		opts.maxAF = maxAF
	}

	if err := run(context.Background(), opts); err != nil {
		log.Fatalln(err)
	}
}

func run(ctx context.Context, opts options) error {
	cfg, err := buildConfig(ctx, opts)
	if err != nil {
		return err
	}

	bins, err := ras.LoadBinTable(ctx, cfg)
	if err != nil {
		return err
	}
	log.Debugln("Loaded", bins.Len(), "bins totalling", bins.TotalLength(), "Mb")

	// Fail on a degenerate bin table before reading any records.
	estimator, err := ras.NewEstimator(bins, cfg.Weights)
	if err != nil {
		return err
	}

	in, err := ras.Open(ctx, opts.input)
	if err != nil {
		return err
	}
	defer in.Close()

	rr, err := ras.NewRecordReader(in)
	if err != nil {
		return err
	}
	log.Debugln("Freqsum header declares", rr.Schema().Len(), "populations")

	acc, err := ras.Accumulate(rr, bins, cfg)
	if err != nil {
		return err
	}
	logCounters(acc)
	if acc.Config.MaxAF < cfg.MaxAF {
		log.Infof("MaxAF lowered from %d to %d, the chromosomes carried by the stratum populations", cfg.MaxAF, acc.Config.MaxAF)
	}

	estimates, err := estimator.EstimateAll(acc, cfg.WithTotal)
	if err != nil {
		return err
	}
	for _, est := range estimates {
		if est.RAS != 0 && est.Bins < 2 {
			log.Debugf("%s stratum %s: only %d usable bin(s); the standard error is not informative",
				acc.Schema.Population(est.Reference).Name, ras.StratumLabel(est, acc.Config.MinAF, acc.Config.MaxAF), est.Bins)
		}
	}

	if opts.output == "" {
		return ras.WriteReport(os.Stdout, acc.Schema, acc.Test, acc.Config.MinAF, acc.Config.MaxAF, estimates)
	}

	f, err := os.Create(genomisc.ExpandHome(opts.output))
	if err != nil {
		return pfx.Err(err)
	}

	if err := ras.WriteReport(f, acc.Schema, acc.Test, acc.Config.MinAF, acc.Config.MaxAF, estimates); err != nil {
		f.Close()
		return err
	}

	if err := f.Close(); err != nil {
		return pfx.Err(err)
	}

	return nil
}

// buildConfig layers the command line over the optional YAML file over the
// defaults.
func buildConfig(ctx context.Context, opts options) (ras.Config, error) {
	cfg := ras.DefaultConfig()

	if opts.config != "" {
		f, err := ras.Open(ctx, opts.config)
		if err != nil {
			return cfg, err
		}
		cfg, err = ras.ReadConfig(f, cfg)
		f.Close()
		if err != nil {
			return cfg, err
		}
	}

	if opts.test != "" {
		cfg.Test = opts.test
	}
	if opts.minAF != nil {
		cfg.MinAF = *opts.minAF
	}
	if opts.maxAF != nil {
		cfg.MaxAF = *opts.maxAF
	}
	if opts.noTransitions {
		cfg.NoTransitions = true
	}
	if opts.private {
		cfg.Private = true
	}
	if opts.lengths != "" || opts.bed != "" || opts.bgi != "" {
		cfg.LengthFile, cfg.BEDFile, cfg.BGIFile = opts.lengths, opts.bed, opts.bgi
	}
	if opts.merge {
		cfg.MergeIntervals = true
	}
	if opts.weights != "" {
		cfg.Weights = ras.WeightPolicy(opts.weights)
	}
	if opts.stratumPops != "" {
		cfg.StratumPopulations = splitList(opts.stratumPops)
	}
	if opts.refs != "" {
		cfg.References = splitList(opts.refs)
	}
	if opts.noTotal {
		cfg.WithTotal = false
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}

	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, v := range strings.Split(s, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func logCounters(acc *ras.Accumulator) {
	c := acc.Counters
	log.WithFields(log.Fields{
		"records":       c.Records,
		"ambiguous_ref": c.AmbiguousRef,
		"transitions":   c.Transitions,
		"test_absent":   c.TestAbsent,
		"outside_range": c.OutsideStrata,
		"accumulated":   c.Accumulated,
	}).Infoln("Finished reading records")

	for i, n := range c.SitesPerBin {
		log.Debugf("Bin %s: %d accumulated site(s)", acc.Bins.Bin(i).Name, n)
	}

	for _, b := range acc.EmptyBins() {
		log.Warnf("No site contributed to bin %s (%g Mb); the input may be truncated or not cover it", b.Name, b.Length)
	}
}
