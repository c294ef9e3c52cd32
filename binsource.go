package ras

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/biogo/store/interval"
	"github.com/carbocation/genomisc"
	"github.com/carbocation/pfx"
)

// LoadBinTable builds the bin table from whichever single bin source cfg
// names: a chromosome length file, a BED file, or a BGEN index.
func LoadBinTable(ctx context.Context, cfg Config) (*BinTable, error) {
	switch n := cfg.binSources(); {
	case n == 0:
		return nil, &ConfigError{Field: "bins", Msg: "one of a length file, a BED file or a BGEN index is required"}
	case n > 1:
		return nil, &ConfigError{Field: "bins", Msg: "length file, BED file and BGEN index are mutually exclusive"}
	}

	if cfg.BGIFile != "" {
		return ReadBGIBins(genomisc.ExpandHome(cfg.BGIFile))
	}

	path := cfg.LengthFile
	if path == "" {
		path = cfg.BEDFile
	}

	f, err := Open(ctx, path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if cfg.LengthFile != "" {
		return ReadChromosomeLengths(f)
	}
	return ReadBED(f, cfg.MergeIntervals)
}

func skippableLine(fields []string) bool {
	if len(fields) == 0 {
		return true
	}
	switch {
	case strings.HasPrefix(fields[0], "#"),
		fields[0] == "track",
		fields[0] == "browser":
		return true
	}
	return false
}

// ReadChromosomeLengths parses "name length" lines, with lengths in base
// pairs, into a bin table. Columns after the second are ignored.
func ReadChromosomeLengths(r io.Reader) (*BinTable, error) {
	t := NewBinTable()
	scanner := bufio.NewScanner(r)

	line := 0
	for scanner.Scan() {
		line++
		fields := strings.Fields(scanner.Text())
		if skippableLine(fields) {
			continue
		}
		if len(fields) < 2 {
			return nil, fmt.Errorf("length file line %d: expected NAME LENGTH", line)
		}

		bp, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return nil, fmt.Errorf("length file line %d: length %q is not a number", line, fields[1])
		}
		if err := t.Add(fields[0], bp/BasesPerMegabase); err != nil {
			return nil, fmt.Errorf("length file line %d: %w", line, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, pfx.Err(err)
	}

	return t, nil
}

// bedInterval is a half-open [Start, End) interval stored in an IntTree.
type bedInterval struct {
	Start, End int
	UID        uintptr
}

func (i bedInterval) Overlap(b interval.IntRange) bool {
	return i.End > b.Start && i.Start < b.End
}

func (i bedInterval) ID() uintptr {
	return i.UID
}

func (i bedInterval) Range() interval.IntRange {
	return interval.IntRange{Start: i.Start, End: i.End}
}

// ReadBED sums the lengths of the BED intervals on each chromosome. With
// merge set, overlapping intervals are counted once.
func ReadBED(r io.Reader, merge bool) (*BinTable, error) {
	t := NewBinTable()
	trees := make(map[string]*interval.IntTree)
	var nextID uintptr

	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		fields := strings.Fields(scanner.Text())
		if skippableLine(fields) {
			continue
		}
		if len(fields) < 3 {
			return nil, fmt.Errorf("BED line %d: expected CHROM START END", line)
		}

		start, err := strconv.Atoi(fields[1])
		if err != nil || start < 0 {
			return nil, fmt.Errorf("BED line %d: start %q is not a non-negative integer", line, fields[1])
		}
		end, err := strconv.Atoi(fields[2])
		if err != nil {
			return nil, fmt.Errorf("BED line %d: end %q is not an integer", line, fields[2])
		}
		if end < start {
			return nil, fmt.Errorf("BED line %d: end %d precedes start %d", line, end, start)
		}

		if !merge {
			if err := t.Add(fields[0], float64(end-start)/BasesPerMegabase); err != nil {
				return nil, fmt.Errorf("BED line %d: %w", line, err)
			}
			continue
		}

		// Register the bin now so that bin order follows the file.
		if err := t.Add(fields[0], 0); err != nil {
			return nil, fmt.Errorf("BED line %d: %w", line, err)
		}
		if end == start {
			continue
		}

		chr := Chromosome(fields[0])
		tree, ok := trees[chr]
		if !ok {
			tree = &interval.IntTree{}
			trees[chr] = tree
		}

		nextID++
		if err := insertMerged(tree, bedInterval{Start: start, End: end, UID: nextID}); err != nil {
			return nil, pfx.Err(fmt.Errorf("BED line %d: %w", line, err))
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, pfx.Err(err)
	}

	for chr, tree := range trees {
		var bp int
		tree.Do(func(e interval.IntInterface) bool {
			r := e.Range()
			bp += r.End - r.Start
			return false
		})
		if err := t.Add(chr, float64(bp)/BasesPerMegabase); err != nil {
			return nil, err
		}
	}

	return t, nil
}

// insertMerged adds iv to tree, first absorbing every interval it overlaps so
// that the tree always holds disjoint intervals.
func insertMerged(tree *interval.IntTree, iv bedInterval) error {
	for _, hit := range tree.Get(iv) {
		r := hit.Range()
		if r.Start < iv.Start {
			iv.Start = r.Start
		}
		if r.End > iv.End {
			iv.End = r.End
		}
		if err := tree.Delete(hit, false); err != nil {
			return err
		}
	}

	return tree.Insert(iv, false)
}
