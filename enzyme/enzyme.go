// Package enzyme defines the closed set of nucleases the BLT assay supports.
// New enzymes are added by extending the constant block and the switches
// below; the read extractor for each variant lives in the extract package.
package enzyme

import (
	"fmt"
	"strings"
)

type Enzyme byte

const (
	Cas9 Enzyme = iota
)

// Parse returns the enzyme named by s, case-insensitive.
func Parse(s string) (Enzyme, error) {
	switch strings.ToLower(s) {
	case "cas9":
		return Cas9, nil
	default:
		return 0, fmt.Errorf("unrecognized enzyme '%s'", s)
	}
}

func (e Enzyme) String() string {
	switch e {
	case Cas9:
		return "Cas9"
	default:
		return "unknown"
	}
}

// PamIs5PrimeOfTarget reports whether the enzyme's PAM sits 5' of the target.
// Cas9 recognizes a 3' PAM, so mismatch positions are counted from the PAM
// backwards along the target.
func (e Enzyme) PamIs5PrimeOfTarget() bool {
	switch e {
	case Cas9:
		return false
	default:
		return false
	}
}
