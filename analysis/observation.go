// Package analysis collapses extracted BLT reads into observations,
// validates target/UMI pairings with multi-sample evidence, and aggregates
// per-UMI, per-target, and per-sample cut-rate metrics.
package analysis

import (
	"log"

	"github.com/dasnellings/bltTools/extract"
	"github.com/dasnellings/bltTools/manifest"
)

// Observation is one deduplicated molecule: all reads sharing a sample, UMI,
// stagger, random barcode, and cut status, collapsed together. Targets holds
// the observed target sequence of each collapsed read.
type Observation struct {
	Sample  *manifest.Sample
	Umi     string
	Targets []string
	Cut     bool
}

// Reads returns the number of reads collapsed into this observation.
func (o *Observation) Reads() int {
	return len(o.Targets)
}

type dedupKey struct {
	sample  string
	umi     string
	guide   string
	pam     string
	stagger int
	rbc     string
	cut     bool
}

// Deduplicate collapses reads into observations. Reads sharing the composite
// key (UMI, guide, PAM, sample, stagger, random barcode, cut) are duplicates
// of one molecule. The caller should drop its reference to reads afterwards
// to release the buffer.
func Deduplicate(reads []extract.BltRead) []*Observation {
	m := make(map[dedupKey]*Observation)
	var order []*Observation
	for i := range reads {
		r := &reads[i]
		key := dedupKey{
			sample:  r.Sample.Name,
			umi:     r.Umi,
			guide:   r.Sample.Guide,
			pam:     r.Sample.Pam,
			stagger: r.Stagger,
			rbc:     r.RandomBarcode,
			cut:     r.Cut,
		}
		o, found := m[key]
		if !found {
			o = &Observation{Sample: r.Sample, Umi: r.Umi, Cut: r.Cut}
			m[key] = o
			order = append(order, o)
		}
		if o.Cut != r.Cut {
			log.Panicf("ERROR: mixed cut status collapsing reads for umi %s rbc %s in sample %s", r.Umi, r.RandomBarcode, r.Sample.Name)
		}
		o.Targets = append(o.Targets, r.Target)
	}
	return order
}
