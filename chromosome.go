package ras

import "strings"

// Chromosome returns the canonical form of a chromosome name so that bin
// tables and freqsum records written with different conventions agree:
// "chr01", "Chr1" and "1" all become "1", "0X" becomes "X", and "M" or
// "chrM" becomes "MT".
func Chromosome(name string) string {
	chr := strings.TrimSpace(name)
	if len(chr) > 3 && strings.EqualFold(chr[:3], "chr") {
		chr = chr[3:]
	}

	for len(chr) > 1 && chr[0] == '0' {
		chr = chr[1:]
	}

	switch upper := strings.ToUpper(chr); upper {
	case "X", "Y", "XY", "MT":
		return upper
	case "M":
		return "MT"
	}

	return chr
}
