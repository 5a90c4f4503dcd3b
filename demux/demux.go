// Package demux assigns reads to samples by their sample barcode. A read is
// assigned only when the best-matching barcode is both within the absolute
// mismatch tolerance and separated from every other barcode by the minimum
// distance, so near-ties fall through as unassigned.
package demux

import (
	"github.com/dasnellings/bltTools/manifest"
	"github.com/dasnellings/bltTools/seq"
)

type Demultiplexer struct {
	samples       []*manifest.Sample
	barcodes      [][]byte
	barcodeLength int
	maxMismatches int
	minDistance   int
}

func New(m *manifest.Manifest, maxMismatches, minDistance int) *Demultiplexer {
	d := &Demultiplexer{
		samples:       m.Samples,
		barcodeLength: m.BarcodeLength(),
		maxMismatches: maxMismatches,
		minDistance:   minDistance,
	}
	for _, s := range m.Samples {
		d.barcodes = append(d.barcodes, []byte(s.Barcode))
	}
	return d
}

// BarcodeLength returns the length of the barcode window Assign compares.
func (d *Demultiplexer) BarcodeLength() int {
	return d.barcodeLength
}

// Assign matches read[offset:offset+barcodeLength] against every sample
// barcode. Returns the unique best-matching sample, or nil when the window
// runs off the read, the best match exceeds maxMismatches, or a second
// barcode sits within minDistance of the best.
func (d *Demultiplexer) Assign(read []byte, offset int) *manifest.Sample {
	if offset < 0 || offset+d.barcodeLength > len(read) {
		return nil
	}
	counts := make([]int, len(d.barcodes))
	min := d.barcodeLength + 1
	for i := range d.barcodes {
		counts[i] = seq.Mismatches(read, offset, d.barcodes[i], 0, d.barcodeLength, min+d.minDistance)
		if counts[i] < min {
			min = counts[i]
		}
	}
	if min > d.maxMismatches {
		return nil
	}
	var best *manifest.Sample
	var withinMargin int
	for i := range counts {
		if counts[i] < min+d.minDistance {
			withinMargin++
			if counts[i] == min {
				best = d.samples[i]
			}
		}
	}
	if withinMargin != 1 {
		return nil
	}
	return best
}
