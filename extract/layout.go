package extract

import (
	"bytes"

	"github.com/dasnellings/bltTools/seq"
)

// The fixed BLT read layout. Every read starts with 1-8 stagger bases
// followed by three constant anchors bracketing the random barcode and the
// sample barcode:
//
//	stagger . CGATCT . rbc[6] . TACGAC . sbc[15] . TTACCGAAGATAGCAGCCTAGTGGAACC . <enzyme tail>
//
// Anchor offsets below assume the minimum stagger; the true offsets shift
// right by stagger-1 bases.
const (
	minStagger = 1
	maxStagger = 8

	randomBarcodeLength = 6

	umiLength          = 12
	umiLengthTolerance = 1
	minUmiLength       = umiLength - umiLengthTolerance
	maxUmiLength       = umiLength + umiLengthTolerance

	maxAnchorMismatches = 2
)

type anchor struct {
	seq            []byte
	expectedOffset int // offset at the minimum stagger
}

var leftAnchors = []anchor{
	{[]byte("CGATCT"), 1},
	{[]byte("TACGAC"), 13},
	{[]byte("TTACCGAAGATAGCAGCCTAGTGGAACC"), 34},
}

// prefixLength is the length of the constant region from the first anchor
// through the end of the third, including the random and sample barcodes.
const prefixLength = 6 + randomBarcodeLength + 6 + 15 + 28

// sampleBarcodeOffset is the offset of the sample barcode relative to the
// first base of the first anchor (the base right after the stagger).
const sampleBarcodeOffset = 6 + randomBarcodeLength + 6

// locateStagger searches for each left anchor in turn within the window
// allowed by the stagger range and returns the implied stagger length.
// Returns 0 when no anchor can be located.
func locateStagger(read []byte) int {
	for _, a := range leftAnchors {
		start := a.expectedOffset
		end := a.expectedOffset + (maxStagger - minStagger) + len(a.seq)
		if end > len(read) {
			end = len(read)
		}
		if start >= end {
			continue
		}
		if idx := bytes.Index(read[start:end], a.seq); idx >= 0 {
			return idx + minStagger
		}
	}
	return 0
}

// verifyAnchors checks that all three left anchors sit at their post-stagger
// offsets with a tolerated number of mismatches each.
func verifyAnchors(read []byte, stagger int) bool {
	for _, a := range leftAnchors {
		offset := a.expectedOffset + stagger - minStagger
		if offset+len(a.seq) > len(read) {
			return false
		}
		if seq.Mismatches(read, offset, a.seq, 0, len(a.seq), maxAnchorMismatches+1) > maxAnchorMismatches {
			return false
		}
	}
	return true
}
