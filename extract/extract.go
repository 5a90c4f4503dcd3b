// Package extract turns raw fixed-layout sequencing reads into structured
// BLT reads: it locates the stagger and anchor landmarks, assigns each read
// to a sample by its barcode, parses the enzyme-specific tail for the target
// and UMI, and applies a mean-quality filter. All failures are per-read
// classifications tallied into the demultiplexing metrics; none abort a run.
package extract

import (
	"fmt"
	"log"
	"strings"

	"github.com/dasnellings/bltTools/demux"
	"github.com/dasnellings/bltTools/enzyme"
	"github.com/dasnellings/bltTools/manifest"
	"github.com/dasnellings/bltTools/seq"
	"github.com/vertgenlab/gonomics/dna"
	"github.com/vertgenlab/gonomics/exception"
	"github.com/vertgenlab/gonomics/fastq"
	"github.com/vertgenlab/gonomics/fileio"
)

// BltRead is one successfully extracted read.
type BltRead struct {
	Sample        *manifest.Sample
	Stagger       int
	RandomBarcode string
	Umi           string
	Target        string
	Cut           bool
}

type sampleCounts struct {
	failedExtraction int
	failedQuality    int
	extracted        int
}

// Extractor applies the BLT read layout to raw reads. Not safe for
// concurrent use; extraction is a single-consumer stage.
type Extractor struct {
	dmx         *demux.Demultiplexer
	parsers     map[enzyme.Enzyme]tailParser
	minMeanQual float64

	totalReads      int
	failedLandmarks int
	failedSampleId  int
	counts          map[string]*sampleCounts
	sampleOrder     []*manifest.Sample
}

// newTailParser is the factory mapping each enzyme variant to its tail
// layout parser.
func newTailParser(e enzyme.Enzyme, fixedGuideLength int) tailParser {
	switch e {
	case enzyme.Cas9:
		return cas9Parser{fixedGuideLength: fixedGuideLength}
	default:
		log.Panicf("ERROR: no read extractor for enzyme '%s'", e)
		return nil
	}
}

// New builds an extractor for every enzyme present in the manifest.
func New(m *manifest.Manifest, dmx *demux.Demultiplexer, minMeanQual float64, fixedGuideLength int) *Extractor {
	e := &Extractor{
		dmx:         dmx,
		parsers:     make(map[enzyme.Enzyme]tailParser),
		minMeanQual: minMeanQual,
		counts:      make(map[string]*sampleCounts),
		sampleOrder: m.Samples,
	}
	for _, s := range m.Samples {
		if _, found := e.parsers[s.Enzyme]; !found {
			e.parsers[s.Enzyme] = newTailParser(s.Enzyme, fixedGuideLength)
		}
		e.counts[s.Name] = new(sampleCounts)
	}
	return e
}

// Extract classifies one read. The returned BltRead is valid only when ok is
// true; failed reads are tallied internally.
func (e *Extractor) Extract(fq fastq.Fastq) (r BltRead, ok bool) {
	e.totalReads++
	if len(fq.Seq) != len(fq.Qual) {
		log.Panicf("ERROR: read '%s' has %d bases but %d quality scores", fq.Name, len(fq.Seq), len(fq.Qual))
	}
	read := []byte(dna.BasesToString(fq.Seq))

	stagger := locateStagger(read)
	if stagger == 0 || !verifyAnchors(read, stagger) {
		e.failedLandmarks++
		return r, false
	}

	sample := e.dmx.Assign(read, stagger+sampleBarcodeOffset)
	if sample == nil {
		e.failedSampleId++
		return r, false
	}

	t, found := e.parsers[sample.Enzyme].parse(read, sample, stagger+prefixLength)
	if !found {
		e.counts[sample.Name].failedExtraction++
		return r, false
	}

	rbcOffset := stagger + 6
	meanQual := seq.MeanQual(fq.Qual,
		[2]int{rbcOffset, rbcOffset + randomBarcodeLength},
		[2]int{t.targetOffset, t.targetOffset + t.targetLength},
		[2]int{t.umiOffset, t.umiOffset + t.umiLength})
	if meanQual < e.minMeanQual {
		e.counts[sample.Name].failedQuality++
		return r, false
	}

	e.counts[sample.Name].extracted++
	r = BltRead{
		Sample:        sample,
		Stagger:       stagger,
		RandomBarcode: string(read[rbcOffset : rbcOffset+randomBarcodeLength]),
		Umi:           string(read[t.umiOffset : t.umiOffset+t.umiLength]),
		Target:        string(read[t.targetOffset : t.targetOffset+t.targetLength]),
		Cut:           t.cut,
	}
	return r, true
}

// TotalReads returns the number of reads seen so far.
func (e *Extractor) TotalReads() int {
	return e.totalReads
}

// ExtractedReads returns the number of reads emitted so far.
func (e *Extractor) ExtractedReads() int {
	var n int
	for _, c := range e.counts {
		n += c.extracted
	}
	return n
}

// WriteMetrics writes the experiment-wide demultiplexing summary and the
// per-sample detail table. Extra manifest attributes are appended to detail
// rows in sorted key order.
func (e *Extractor) WriteMetrics(summaryFile, detailsFile string, m *manifest.Manifest) {
	var err error
	var failedExtraction, failedQuality, extracted int
	for _, c := range e.counts {
		failedExtraction += c.failedExtraction
		failedQuality += c.failedQuality
		extracted += c.extracted
	}

	summary := fileio.EasyCreate(summaryFile)
	fmt.Fprintln(summary, "total_reads\tfailed_landmarks\tfailed_sample_id\tfailed_extraction\tfailed_quality\textracted_reads\tfrac_extracted")
	fmt.Fprintf(summary, "%d\t%d\t%d\t%d\t%d\t%d\t%s\n",
		e.totalReads, e.failedLandmarks, e.failedSampleId, failedExtraction, failedQuality, extracted,
		formatFrac(extracted, e.totalReads))
	err = summary.Close()
	exception.PanicOnErr(err)

	details := fileio.EasyCreate(detailsFile)
	header := []string{"sample", "failed_extraction", "failed_quality", "extracted_reads", "frac_of_extracted"}
	fmt.Fprintln(details, strings.Join(append(header, m.ExtraKeys...), "\t"))
	for _, s := range e.sampleOrder {
		c := e.counts[s.Name]
		fields := []string{
			s.Name,
			fmt.Sprint(c.failedExtraction),
			fmt.Sprint(c.failedQuality),
			fmt.Sprint(c.extracted),
			formatFrac(c.extracted, extracted),
		}
		fields = append(fields, m.ExtraValues(s)...)
		fmt.Fprintln(details, strings.Join(fields, "\t"))
	}
	err = details.Close()
	exception.PanicOnErr(err)
}

func formatFrac(num, denom int) string {
	if denom == 0 {
		return ""
	}
	return fmt.Sprintf("%f", float64(num)/float64(denom))
}
