// Package seq holds byte-level sequence primitives shared by the extractor
// and demultiplexer. Everything operates on raw bytes and none of these
// functions allocate. The per-read path as a whole still allocates: the
// extractor converts each read's bases to a new byte slice first.
package seq

import "log"

// Mismatches counts positions where lhs[lhsStart:lhsStart+length] differs from
// rhs[rhsStart:rhsStart+length], returning early once the count reaches max.
// Panics if either range runs past the end of its input.
func Mismatches(lhs []byte, lhsStart int, rhs []byte, rhsStart int, length int, max int) int {
	if lhsStart+length > len(lhs) || rhsStart+length > len(rhs) {
		log.Panicf("ERROR: mismatch range out of bounds: lhs[%d:%d] len %d, rhs[%d:%d] len %d",
			lhsStart, lhsStart+length, len(lhs), rhsStart, rhsStart+length, len(rhs))
	}
	var count int
	for i := 0; i < length; i++ {
		if lhs[lhsStart+i] != rhs[rhsStart+i] {
			count++
			if count >= max {
				return count
			}
		}
	}
	return count
}

// IsValidBase reports whether b is an uppercase DNA base. With allowAmbiguity
// the extended IUPAC alphabet is accepted.
func IsValidBase(b byte, allowAmbiguity bool) bool {
	switch b {
	case 'A', 'C', 'G', 'T':
		return true
	case 'R', 'Y', 'S', 'W', 'K', 'M', 'B', 'D', 'H', 'V', 'N':
		return allowAmbiguity
	}
	return false
}

// AreValidBases reports whether every byte in s satisfies IsValidBase.
func AreValidBases(s []byte, allowAmbiguity bool) bool {
	for i := range s {
		if !IsValidBase(s[i], allowAmbiguity) {
			return false
		}
	}
	return true
}

// MeanQual averages PHRED scores over one or more [start, end) ranges of qual.
// Returns 0 when the ranges are empty.
func MeanQual(qual []uint8, ranges ...[2]int) float64 {
	var sum, n int
	for _, r := range ranges {
		for i := r[0]; i < r[1]; i++ {
			sum += int(qual[i])
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return float64(sum) / float64(n)
}
