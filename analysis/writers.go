package analysis

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dasnellings/bltTools/manifest"
	"github.com/vertgenlab/gonomics/exception"
	"github.com/vertgenlab/gonomics/fileio"
)

// WriteValidationMetrics writes one row per observed (UMI, guide, PAM)
// triple. Files ending in .gz are gzipped transparently.
func WriteValidationMetrics(filename string, metrics []ValidationMetric) {
	out := fileio.EasyCreate(filename)
	fmt.Fprintln(out, "guide\tpam\tumi\tcut_reads_cut_samples\tuncut_reads_cut_samples\tcut_reads_naive_samples\tuncut_reads_naive_samples\ttarget\tvalid\tfraction_identical")
	for i := range metrics {
		m := &metrics[i]
		frac := ""
		if m.HasFraction {
			frac = formatFloat(m.FractionIdentical)
		}
		fmt.Fprintf(out, "%s\t%s\t%s\t%d\t%d\t%d\t%d\t%s\t%t\t%s\n",
			m.Guide, m.Pam, m.Umi,
			m.CutReadsCutSamples, m.UncutReadsCutSamples, m.CutReadsNaiveSamples, m.UncutReadsNaiveSamples,
			m.Target, m.Valid, frac)
	}
	err := out.Close()
	exception.PanicOnErr(err)
}

var sampleRowHeader = strings.Join([]string{
	"sample", "guide", "pam", "umi", "target", "location",
	"obs_cut", "obs_uncut", "obs_total",
	"cut_rate", "normalized_cut_rate", "norm_cut_rate_ci95_low", "norm_cut_rate_ci95_high",
	"mismatches", "indel_bases", "mean_mismatch_position", "mismatch_tuples",
	"cigar", "padded_guide", "alignment", "padded_target",
}, "\t")

// writeSampleRows writes a per-UMI or per-target table.
func writeSampleRows(filename string, rows []*SampleTargetMetric) {
	out := fileio.EasyCreate(filename)
	fmt.Fprintln(out, sampleRowHeader)
	for _, m := range rows {
		checkRow(m)
		meanPos := ""
		if m.HasMeanPosition {
			meanPos = formatFloat(m.MeanMismatchPosition)
		}
		fmt.Fprintf(out, "%s\t%s\t%s\t%s\t%s\t%s\t%d\t%d\t%d\t%s\t%s\t%s\t%s\t%d\t%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			m.Sample, m.Guide, m.Pam, m.Umi, m.Target, m.Location,
			m.ObsCut, m.ObsUncut, m.ObsTotal(),
			formatFloat(m.CutRate), formatFloat(m.NormCutRate), formatFloat(m.CiLow), formatFloat(m.CiHigh),
			m.Mismatches, m.IndelBases, meanPos, tuplesString(m.Tuples),
			m.Cigar, m.PaddedGuide, m.Alignment, m.PaddedTarget)
	}
	err := out.Close()
	exception.PanicOnErr(err)
}

// writeSampleSummary writes the per-mismatch rollup for one sample.
func writeSampleSummary(filename string, rows []SampleMetric) {
	out := fileio.EasyCreate(filename)
	fmt.Fprintln(out, "sample\tmismatches\ttargets\tobs_cut\tobs_uncut\tobs_total\tcut_rate\tnormalized_cut_rate")
	for i := range rows {
		m := &rows[i]
		fmt.Fprintf(out, "%s\t%d\t%d\t%d\t%d\t%d\t%s\t%s\n",
			m.Sample, m.Mismatches, m.Targets, m.ObsCut, m.ObsUncut, m.ObsCut+m.ObsUncut,
			formatFloat(m.CutRate), formatFloat(m.NormCutRate))
	}
	err := out.Close()
	exception.PanicOnErr(err)
}

// writeExperimentSummary writes the per-sample specificity scores with extra
// manifest attributes appended in sorted key order.
func writeExperimentSummary(filename string, metrics []BltMetric, m *manifest.Manifest) {
	out := fileio.EasyCreate(filename)
	header := []string{"sample", "guide", "enzyme", "pam", "specificity_score"}
	fmt.Fprintln(out, strings.Join(append(header, m.ExtraKeys...), "\t"))
	byName := make(map[string]*manifest.Sample)
	for _, s := range m.Samples {
		byName[s.Name] = s
	}
	for i := range metrics {
		row := &metrics[i]
		fields := []string{row.Sample, row.Guide, row.Enzyme, row.Pam, formatFloat(row.Score)}
		fields = append(fields, m.ExtraValues(byName[row.Sample])...)
		fmt.Fprintln(out, strings.Join(fields, "\t"))
	}
	err := out.Close()
	exception.PanicOnErr(err)
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
