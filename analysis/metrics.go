package analysis

import (
	"fmt"
	"log"
	"math"
	"strings"

	"github.com/dasnellings/bltTools/annotate"
	"github.com/dasnellings/bltTools/manifest"
	"golang.org/x/exp/slices"
	"gonum.org/v1/gonum/stat/distuv"
)

// SampleTargetMetric is one row of a sample's per-UMI or per-target table.
type SampleTargetMetric struct {
	Sample   string
	Guide    string
	Pam      string
	Umi      string // "multiple" when a per-target row merges several UMIs
	Target   string
	Location string // genomic location from the off-target file, may be empty

	ObsCut   int
	ObsUncut int

	CutRate     float64
	NormCutRate float64
	CiLow       float64 // 95% Wilson interval on the cut proportion, normalized
	CiHigh      float64

	Mismatches           int
	IndelBases           int
	MeanMismatchPosition float64
	HasMeanPosition      bool
	Tuples               []annotate.MismatchTuple

	Cigar        string
	PaddedGuide  string
	Alignment    string
	PaddedTarget string
}

// ObsTotal returns the total observation count, the sum of cut and uncut
// observations.
func (m *SampleTargetMetric) ObsTotal() int {
	return m.ObsCut + m.ObsUncut
}

// SampleMetric is one row of a sample's per-mismatch summary.
type SampleMetric struct {
	Sample      string
	Mismatches  int
	Targets     int
	ObsCut      int
	ObsUncut    int
	CutRate     float64
	NormCutRate float64
}

// BltMetric is one row of the experiment-wide summary.
type BltMetric struct {
	Sample string
	Guide  string
	Enzyme string
	Pam    string
	Score  float64
}

// umiMetrics builds the per-UMI rows for sample s from the validated target
// infos whose observations include s. Rows are not yet normalized.
func umiMetrics(s *manifest.Sample, infos []*TargetInfo) []*SampleTargetMetric {
	var rows []*SampleTargetMetric
	for _, info := range infos {
		if info.Guide != s.Guide || info.Pam != s.Pam {
			continue
		}
		var obsCut, obsUncut int
		for _, o := range info.Obs {
			if o.Sample != s {
				continue
			}
			if o.Cut {
				obsCut++
			} else {
				obsUncut++
			}
		}
		if obsCut+obsUncut == 0 {
			continue
		}
		a := info.Annotation
		rows = append(rows, &SampleTargetMetric{
			Sample:               s.Name,
			Guide:                info.Guide,
			Pam:                  info.Pam,
			Umi:                  info.Umi,
			Target:               info.Target,
			Location:             s.OffTargets[info.Target],
			ObsCut:               obsCut,
			ObsUncut:             obsUncut,
			CutRate:              float64(obsCut) / float64(obsCut+obsUncut),
			Mismatches:           a.Mismatches,
			IndelBases:           a.IndelBases,
			MeanMismatchPosition: a.MeanMismatchPosition,
			HasMeanPosition:      a.HasMeanPosition,
			Tuples:               a.MismatchTuples(),
			Cigar:                a.Cigar(),
			PaddedGuide:          a.PaddedGuide,
			Alignment:            a.Alignment,
			PaddedTarget:         a.PaddedTarget,
		})
	}
	slices.SortFunc(rows, func(a, b *SampleTargetMetric) int {
		if a.Umi != b.Umi {
			return cmpString(a.Umi, b.Umi)
		}
		return cmpString(a.Target, b.Target)
	})
	return rows
}

// targetMetrics rolls per-UMI rows up by target sequence. Rows are not yet
// normalized.
func targetMetrics(umiRows []*SampleTargetMetric) []*SampleTargetMetric {
	byTarget := make(map[string]*SampleTargetMetric)
	umisSeen := make(map[string]int)
	var order []string
	for _, row := range umiRows {
		merged, found := byTarget[row.Target]
		if !found {
			clone := *row
			byTarget[row.Target] = &clone
			order = append(order, row.Target)
			umisSeen[row.Target] = 1
			continue
		}
		merged.ObsCut += row.ObsCut
		merged.ObsUncut += row.ObsUncut
		umisSeen[row.Target]++
	}
	ans := make([]*SampleTargetMetric, 0, len(order))
	slices.Sort(order)
	for _, target := range order {
		row := byTarget[target]
		if umisSeen[target] > 1 {
			row.Umi = "multiple"
		}
		row.CutRate = float64(row.ObsCut) / float64(row.ObsTotal())
		ans = append(ans, row)
	}
	return ans
}

// normalize sets each row's normalized cut rate and confidence interval
// against the base rate of the zero-mismatch zero-indel rows. When that pool
// is empty or has no cut observations, rates pass through unnormalized.
func normalize(rows []*SampleTargetMetric) {
	var zeroCut, zeroTotal int
	for _, row := range rows {
		if row.Mismatches == 0 && row.IndelBases == 0 {
			zeroCut += row.ObsCut
			zeroTotal += row.ObsTotal()
		}
	}
	baseRate := 1.0
	if zeroTotal > 0 && zeroCut > 0 {
		baseRate = float64(zeroCut) / float64(zeroTotal)
	}
	for _, row := range rows {
		row.NormCutRate = row.CutRate / baseRate
		low, high := wilson(row.ObsCut, row.ObsTotal())
		row.CiLow = low / baseRate
		row.CiHigh = high / baseRate
	}
}

// mismatchRollup buckets the indel-free per-target rows by mismatch count
// and emits one row per count in [0..maxObserved], including empty buckets.
func mismatchRollup(sample string, targetRows []*SampleTargetMetric) []SampleMetric {
	type bucket struct {
		targets  int
		obsCut   int
		obsUncut int
	}
	buckets := make(map[int]*bucket)
	maxObserved := -1
	for _, row := range targetRows {
		if row.IndelBases != 0 {
			continue
		}
		b, found := buckets[row.Mismatches]
		if !found {
			b = new(bucket)
			buckets[row.Mismatches] = b
		}
		b.targets++
		b.obsCut += row.ObsCut
		b.obsUncut += row.ObsUncut
		if row.Mismatches > maxObserved {
			maxObserved = row.Mismatches
		}
	}

	zeroMmCutRate := 1.0
	if b, found := buckets[0]; found && b.obsCut+b.obsUncut > 0 {
		rate := float64(b.obsCut) / float64(b.obsCut+b.obsUncut)
		if rate > 0 {
			zeroMmCutRate = rate
		}
	}

	var rows []SampleMetric
	for mm := 0; mm <= maxObserved; mm++ {
		row := SampleMetric{Sample: sample, Mismatches: mm}
		if b, found := buckets[mm]; found {
			row.Targets = b.targets
			row.ObsCut = b.obsCut
			row.ObsUncut = b.obsUncut
			if total := b.obsCut + b.obsUncut; total > 0 {
				row.CutRate = float64(b.obsCut) / float64(total)
			}
		}
		row.NormCutRate = row.CutRate / zeroMmCutRate
		rows = append(rows, row)
	}
	return rows
}

// SpecificityScore integrates the trapezoidal curve of normalized cut rate
// over mismatches [1..n] and divides by n-1. When fewer than n mismatch rows
// exist the bound is clamped to the largest observed count; a sample without
// at least two rows past zero mismatches scores 0.
func SpecificityScore(rows []SampleMetric, n int) float64 {
	rates := make(map[int]float64)
	maxMm := 0
	for _, row := range rows {
		rates[row.Mismatches] = row.NormCutRate
		if row.Mismatches > maxMm {
			maxMm = row.Mismatches
		}
	}
	if maxMm < n {
		n = maxMm
	}
	if n < 2 {
		return 0
	}
	var area float64
	for mm := 1; mm < n; mm++ {
		area += (rates[mm] + rates[mm+1]) / 2
	}
	return area / float64(n-1)
}

// wilson returns the 95% Wilson score interval for successes out of total.
func wilson(successes, total int) (low, high float64) {
	if total == 0 {
		return 0, 0
	}
	z := distuv.UnitNormal.Quantile(0.975)
	n := float64(total)
	p := float64(successes) / n
	denom := 1 + z*z/n
	center := (p + z*z/(2*n)) / denom
	half := z * math.Sqrt(p*(1-p)/n+z*z/(4*n*n)) / denom
	return center - half, center + half
}

// checkRow verifies the row invariants before serialization.
func checkRow(m *SampleTargetMetric) {
	if len(m.PaddedGuide) != len(m.Alignment) || len(m.Alignment) != len(m.PaddedTarget) {
		log.Panicf("ERROR: ragged alignment strings for sample %s umi %s: %d/%d/%d",
			m.Sample, m.Umi, len(m.PaddedGuide), len(m.Alignment), len(m.PaddedTarget))
	}
	if m.ObsTotal() != m.ObsCut+m.ObsUncut {
		log.Panicf("ERROR: observation counts disagree for sample %s umi %s", m.Sample, m.Umi)
	}
}

// tuplesString serializes mismatch tuples as [pos:guide>target,...].
func tuplesString(tuples []annotate.MismatchTuple) string {
	parts := make([]string, 0, len(tuples))
	for _, t := range tuples {
		parts = append(parts, fmt.Sprintf("%d:%c>%c", t.Position, t.GuideBase, t.TargetBase))
	}
	return "[" + strings.Join(parts, ",") + "]"
}
