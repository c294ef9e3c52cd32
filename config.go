package ras

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/carbocation/pfx"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// WeightPolicy selects how the jackknife weighs each bin. The two policies
// are different estimators and are not numerically interchangeable.
type WeightPolicy string

const (
	// WeightByLength weighs bins by physical length in megabases.
	WeightByLength WeightPolicy = "length"

	// WeightBySites weighs bins by the number of sites that contributed to
	// the population/stratum being estimated.
	WeightBySites WeightPolicy = "sites"
)

const (
	DefaultMinAF = 2
	DefaultMaxAF = 10
)

// Config holds every option that changes what is accumulated or how it is
// estimated. The zero value is not valid; start from DefaultConfig.
type Config struct {
	// Test is the population every reference is compared against.
	Test string `yaml:"test" validate:"required"`

	// Sites whose stratum total falls outside [MinAF, MaxAF] are ignored.
	MinAF int `yaml:"min_af" validate:"gte=1"`
	MaxAF int `yaml:"max_af" validate:"gtefield=MinAF"`

	// NoTransitions drops A<->G and C<->T sites.
	NoTransitions bool `yaml:"no_transitions"`

	// Private only counts sites carried by the reference and the test alone.
	Private bool `yaml:"private"`

	// StratumPopulations restricts the populations summed to find a site's
	// stratum. Empty means all populations.
	StratumPopulations []string `yaml:"stratum_populations"`

	// References restricts the populations RAS is reported for. Empty means
	// all populations, including the test itself.
	References []string `yaml:"references"`

	Weights WeightPolicy `yaml:"weights" validate:"oneof=length sites"`

	// WithTotal adds a row per reference that pools all strata.
	WithTotal bool `yaml:"with_total"`

	// Exactly one bin source must be set.
	LengthFile string `yaml:"length_file"`
	BEDFile    string `yaml:"bed_file"`
	BGIFile    string `yaml:"bgi_file"`

	// MergeIntervals unions overlapping BED intervals before summing.
	MergeIntervals bool `yaml:"merge_intervals"`
}

// DefaultConfig returns the defaults of the freqsum2ras tool.
func DefaultConfig() Config {
	return Config{
		MinAF:     DefaultMinAF,
		MaxAF:     DefaultMaxAF,
		Weights:   WeightByLength,
		WithTotal: true,
	}
}

var configValidate = validator.New()

// Validate checks option values. It does not check the bin source; see
// LoadBinTable.
func (c Config) Validate() error {
	err := configValidate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return pfx.Err(err)
	}

	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return &ConfigError{Field: fe.Field(), Msg: "must be set"}
	case "gte":
		return &ConfigError{Field: fe.Field(), Msg: fmt.Sprintf("must be at least %s, got %v", fe.Param(), fe.Value())}
	case "gtefield":
		return &ConfigError{Field: fe.Field(), Msg: fmt.Sprintf("must not be below %s, got %v", fe.Param(), fe.Value())}
	case "oneof":
		return &ConfigError{Field: fe.Field(), Msg: fmt.Sprintf("must be one of [%s], got %q", fe.Param(), fe.Value())}
	}

	return &ConfigError{Field: fe.Field(), Msg: fe.Error()}
}

// binSources returns how many bin sources are configured.
func (c Config) binSources() int {
	n := 0
	for _, s := range []string{c.LengthFile, c.BEDFile, c.BGIFile} {
		if s != "" {
			n++
		}
	}
	return n
}

// ReadConfig decodes YAML from r on top of base, so that keys absent from the
// document keep their values from base. Unknown keys are rejected.
func ReadConfig(r io.Reader, base Config) (Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return base, pfx.Err(err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	cfg := base
	if err := dec.Decode(&cfg); err != nil && err != io.EOF {
		return base, &ConfigError{Field: "config", Msg: err.Error()}
	}

	return cfg, nil
}
