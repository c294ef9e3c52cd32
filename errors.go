package ras

import "fmt"

// SchemaError reports a problem with the freqsum header: it is missing or
// malformed, a population is declared twice, or a population named in the
// configuration does not appear in it.
type SchemaError struct {
	Line  int    // 1-based line of the header, 0 if there is none
	Field string // Offending header field, if any
	Msg   string
}

func (e *SchemaError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("schema error (line %d, field %q): %s", e.Line, e.Field, e.Msg)
	}
	return fmt.Sprintf("schema error (line %d): %s", e.Line, e.Msg)
}

// RecordError reports a malformed data record. The accumulator cannot
// resynchronize after a corrupt record, so these are always fatal.
type RecordError struct {
	Line  int
	Field string
	Msg   string
}

func (e *RecordError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("record error (line %d, field %q): %s", e.Line, e.Field, e.Msg)
	}
	return fmt.Sprintf("record error (line %d): %s", e.Line, e.Msg)
}

// ConfigError reports an invalid option or combination of options.
type ConfigError struct {
	Field string
	Msg   string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error (%s): %s", e.Field, e.Msg)
}

// DegenerateInputError is returned when the bin table cannot support a
// delete-one jackknife at all.
type DegenerateInputError struct {
	Msg string
}

func (e *DegenerateInputError) Error() string {
	return "degenerate input: " + e.Msg
}
