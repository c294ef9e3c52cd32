package ras

import (
	"bufio"
	"fmt"
	"io"
	"strconv"

	"github.com/carbocation/pfx"
)

// ReportHeader names the columns written by WriteReport.
const ReportHeader = "reference\ttest\tras\tnaive_mean\tjackknife\tstd_err\tstratum"

// StratumLabel is the allele count of a per-stratum row, or the "MIN-MAX"
// range of a pooled row.
func StratumLabel(est Estimate, minAF, maxAF int) string {
	if est.Total {
		return fmt.Sprintf("%d-%d", minAF, maxAF)
	}
	return strconv.Itoa(est.Stratum)
}

// WriteReport writes one tab-separated line per estimate.
func WriteReport(w io.Writer, schema *PopulationSchema, test int, minAF, maxAF int, estimates []Estimate) error {
	bw := bufio.NewWriter(w)

	if _, err := fmt.Fprintln(bw, ReportHeader); err != nil {
		return pfx.Err(err)
	}

	testName := schema.Population(test).Name
	for _, est := range estimates {
		_, err := fmt.Fprintf(bw, "%s\t%s\t%g\t%g\t%g\t%g\t%s\n",
			schema.Population(est.Reference).Name,
			testName,
			est.RAS,
			est.Naive,
			est.Jackknife,
			est.StdErr,
			StratumLabel(est, minAF, maxAF),
		)
		if err != nil {
			return pfx.Err(err)
		}
	}

	if err := bw.Flush(); err != nil {
		return pfx.Err(err)
	}

	return nil
}
