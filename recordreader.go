package ras

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/carbocation/pfx"
)

// MaxLineBytes bounds the length of a single freqsum line.
const MaxLineBytes = 64 * 1024 * 1024

// RecordReader streams GenotypeRecords from a freqsum file. The header is
// consumed by NewRecordReader; each call to Read parses one more line.
type RecordReader struct {
	RecordsSeen int
	schema      *PopulationSchema
	scanner     *bufio.Scanner
	line        int
	err         error

	// Reused between calls to Read
	record GenotypeRecord
}

// NewRecordReader reads the header from r and returns a reader positioned at
// the first data line.
func NewRecordReader(r io.Reader) (*RecordReader, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), MaxLineBytes)

	rr := &RecordReader{scanner: scanner}

	for rr.scanner.Scan() {
		rr.line++
		fields := strings.Fields(rr.scanner.Text())
		if len(fields) == 0 {
			continue
		}

		schema, err := ParseHeader(fields, rr.line)
		if err != nil {
			return nil, err
		}
		rr.schema = schema
		rr.record.Counts = make([]int, schema.Len())
		return rr, nil
	}

	if err := rr.scanner.Err(); err != nil {
		return nil, pfx.Err(err)
	}

	return nil, &SchemaError{Msg: "input is empty; expected a freqsum header"}
}

// Schema returns the populations declared by the header.
func (rr *RecordReader) Schema() *PopulationSchema {
	return rr.schema
}

// Error returns the first error encountered by Read, if any.
func (rr *RecordReader) Error() error {
	return rr.err
}

// Read returns the next record, or nil at the end of input or after an
// error. The returned record is reused by the next call to Read.
func (rr *RecordReader) Read() *GenotypeRecord {
	if rr.err != nil {
		return nil
	}

	for rr.scanner.Scan() {
		rr.line++
		fields := strings.Fields(rr.scanner.Text())
		if len(fields) == 0 {
			continue
		}

		if err := rr.parseFields(fields); err != nil {
			rr.err = err
			return nil
		}

		rr.RecordsSeen++
		return &rr.record
	}

	if err := rr.scanner.Err(); err != nil {
		rr.err = pfx.Err(err)
	}

	return nil
}

func (rr *RecordReader) parseFields(fields []string) error {
	if expected := leadingColumns + rr.schema.Len(); len(fields) != expected {
		return &RecordError{Line: rr.line, Msg: fmt.Sprintf("found %d fields; the header declares %d", len(fields), expected)}
	}

	pos, err := strconv.ParseUint(fields[columnPosition], 10, 32)
	if err != nil {
		return &RecordError{Line: rr.line, Field: "POS", Msg: fmt.Sprintf("position %q is not a non-negative integer", fields[columnPosition])}
	}

	rec := &rr.record
	rec.Line = rr.line
	rec.Chromosome = fields[columnChromosome]
	rec.Position = uint32(pos)
	rec.Ref = Allele(fields[columnRef])
	rec.Alt = Allele(fields[columnAlt])

	for i, field := range fields[leadingColumns:] {
		c, err := strconv.Atoi(field)
		if err != nil {
			return &RecordError{Line: rr.line, Field: rr.schema.Population(i).Name, Msg: fmt.Sprintf("allele count %q is not an integer", field)}
		}
		rec.Counts[i] = c
	}

	return nil
}
