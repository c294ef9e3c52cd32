package ras

import "strings"

// Allele is a reference or alternate allele as written in a freqsum file.
type Allele string

func (a Allele) String() string {
	return string(a)
}

// Resolved reports whether the allele is one of the four unambiguous bases.
// Reference genomes report "N" (or IUPAC ambiguity codes) at positions they
// could not call.
func (a Allele) Resolved() bool {
	switch strings.ToUpper(string(a)) {
	case "A", "C", "G", "T":
		return true
	}
	return false
}

// IsTransition reports whether ref→alt is a purine↔purine (A↔G) or
// pyrimidine↔pyrimidine (C↔T) substitution. These dominate post-mortem DNA
// damage in ancient samples.
func IsTransition(ref, alt Allele) bool {
	r, a := strings.ToUpper(string(ref)), strings.ToUpper(string(alt))
	switch r + a {
	case "AG", "GA", "CT", "TC":
		return true
	}
	return false
}
