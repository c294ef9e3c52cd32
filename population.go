package ras

import (
	"fmt"
	"strconv"
	"strings"
)

// Number of leading non-population columns in a freqsum line: chromosome,
// position, reference allele, alternate allele.
const leadingColumns = 4

// Map leading freqsum columns to their positions
const (
	columnChromosome int = iota
	columnPosition
	columnRef
	columnAlt
)

// Population is one column group of a freqsum file. Size is the number of
// chromosomes sampled (2 per diploid individual), which bounds its allele
// count at any site.
type Population struct {
	Name string
	Size int
}

// PopulationSchema describes the populations of a freqsum file in column
// order. It is built once from the header and never modified afterwards.
type PopulationSchema struct {
	populations []Population
	index       map[string]int
}

// ParseHeader builds a PopulationSchema from the fields of a freqsum header
// line such as "#CHROM POS REF ALT Yoruba(16) French(20)". line is used only
// for error reporting.
func ParseHeader(fields []string, line int) (*PopulationSchema, error) {
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "#") {
		return nil, &SchemaError{Line: line, Msg: "header must start with '#'"}
	}
	if len(fields) <= leadingColumns {
		return nil, &SchemaError{Line: line, Msg: fmt.Sprintf("header has %d fields; expected %d leading columns followed by at least one population", len(fields), leadingColumns)}
	}

	s := &PopulationSchema{
		populations: make([]Population, 0, len(fields)-leadingColumns),
		index:       make(map[string]int, len(fields)-leadingColumns),
	}

	for _, field := range fields[leadingColumns:] {
		pop, err := parsePopulationField(field)
		if err != nil {
			return nil, &SchemaError{Line: line, Field: field, Msg: err.Error()}
		}
		if _, exists := s.index[pop.Name]; exists {
			return nil, &SchemaError{Line: line, Field: field, Msg: "duplicate population name " + pop.Name}
		}
		s.index[pop.Name] = len(s.populations)
		s.populations = append(s.populations, pop)
	}

	return s, nil
}

// parsePopulationField splits "Name(Size)" into its parts.
func parsePopulationField(field string) (Population, error) {
	open := strings.IndexByte(field, '(')
	if open <= 0 || !strings.HasSuffix(field, ")") || open >= len(field)-2 {
		return Population{}, fmt.Errorf("expected NAME(SIZE)")
	}

	size, err := strconv.Atoi(field[open+1 : len(field)-1])
	if err != nil {
		return Population{}, fmt.Errorf("sample size is not an integer")
	}
	if size <= 0 {
		return Population{}, fmt.Errorf("sample size must be positive, got %d", size)
	}

	return Population{Name: field[:open], Size: size}, nil
}

// Len returns the number of populations.
func (s *PopulationSchema) Len() int {
	return len(s.populations)
}

// Population returns the population in column i.
func (s *PopulationSchema) Population(i int) Population {
	return s.populations[i]
}

// Populations returns a copy of the populations in column order.
func (s *PopulationSchema) Populations() []Population {
	out := make([]Population, len(s.populations))
	copy(out, s.populations)
	return out
}

// Index returns the column of the named population.
func (s *PopulationSchema) Index(name string) (int, bool) {
	i, ok := s.index[name]
	return i, ok
}

// Resolve maps names to columns. An empty list resolves to every population.
func (s *PopulationSchema) Resolve(names []string) ([]int, error) {
	if len(names) == 0 {
		out := make([]int, len(s.populations))
		for i := range out {
			out[i] = i
		}
		return out, nil
	}

	out := make([]int, 0, len(names))
	seen := make(map[int]struct{}, len(names))
	for _, name := range names {
		i, ok := s.index[name]
		if !ok {
			return nil, &SchemaError{Field: name, Msg: "population not present in the header"}
		}
		if _, dup := seen[i]; dup {
			continue
		}
		seen[i] = struct{}{}
		out = append(out, i)
	}

	return out, nil
}
