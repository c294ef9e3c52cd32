package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/carbocation/ras"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int {
	return &v
}

func TestBuildConfigLayers(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ras.yaml")
	require.NoError(t, os.WriteFile(path, []byte("test: Mbuti\nmax_af: 6\nprivate: true\nbed_file: a.bed\n"), 0o644))

	cfg, err := buildConfig(context.Background(), options{
		config:  path,
		maxAF:   intPtr(8),
		lengths: "genome.txt",
		refs:    "French, Han,",
		noTotal: true,
	})
	require.NoError(t, err)

	assert.Equal(t, "Mbuti", cfg.Test)
	assert.Equal(t, ras.DefaultMinAF, cfg.MinAF)
	assert.Equal(t, 8, cfg.MaxAF)
	assert.True(t, cfg.Private)
	assert.Equal(t, "genome.txt", cfg.LengthFile)
	assert.Empty(t, cfg.BEDFile)
	assert.Equal(t, []string{"French", "Han"}, cfg.References)
	assert.False(t, cfg.WithTotal)
}

func TestBuildConfigRejectsInvalid(t *testing.T) {
	_, err := buildConfig(context.Background(), options{test: "T", minAF: intPtr(5), maxAF: intPtr(3)})
	assert.Error(t, err)

	_, err = buildConfig(context.Background(), options{})
	assert.Error(t, err)
}

func TestBuildConfigExplicitAlleleCounts(t *testing.T) {
	for _, tc := range []struct {
		name         string
		minAF, maxAF *int
		field        string
	}{
		{"zero minimum", intPtr(0), intPtr(5), "MinAF"},
		{"negative minimum", intPtr(-1), nil, "MinAF"},
		{"zero maximum", nil, intPtr(0), "MaxAF"},
		{"negative maximum", intPtr(1), intPtr(-3), "MaxAF"},
	} {
		_, err := buildConfig(context.Background(), options{test: "T", minAF: tc.minAF, maxAF: tc.maxAF})
		var cerr *ras.ConfigError
		require.True(t, errors.As(err, &cerr), "%s: got %v", tc.name, err)
		assert.Equal(t, tc.field, cerr.Field, tc.name)
	}

	// An explicit value equal to the default is kept, not treated as unset.
	cfg, err := buildConfig(context.Background(), options{test: "T", minAF: intPtr(1), maxAF: intPtr(1)})
	require.NoError(t, err)
	assert.Equal(t, 1, cfg.MinAF)
	assert.Equal(t, 1, cfg.MaxAF)
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "in.freqsum")
	lengths := filepath.Join(dir, "genome.txt")
	output := filepath.Join(dir, "out.tsv")

	require.NoError(t, os.WriteFile(input, []byte("#CHROM POS REF ALT Test(2) RefA(4)\n1 100 A C 1 2\n"), 0o644))
	require.NoError(t, os.WriteFile(lengths, []byte("1 1000000\n2 2000000\n"), 0o644))

	err := run(context.Background(), options{
		input:   input,
		output:  output,
		test:    "Test",
		lengths: lengths,
	})
	require.NoError(t, err)

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")

	// MaxAF 10 is capped at the 6 chromosomes in the header: strata 2..6
	// and a Total row for each of two references.
	require.Len(t, lines, 1+2*6)
	assert.Equal(t, ras.ReportHeader, lines[0])
	assert.True(t, strings.HasPrefix(lines[1+6+1], "RefA\tTest\t0.25\t0.08333333333333333\t"), lines[8])
	assert.True(t, strings.HasSuffix(lines[len(lines)-1], "\t2-6"), lines[len(lines)-1])

	// Rewriting the same output replaces it.
	require.NoError(t, run(context.Background(), options{
		input:   input,
		output:  output,
		test:    "Test",
		lengths: lengths,
	}))
	again, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Equal(t, data, again)

	err = run(context.Background(), options{
		input:   input,
		output:  filepath.Join(dir, "missing", "out.tsv"),
		test:    "Test",
		lengths: lengths,
	})
	assert.Error(t, err)
}
