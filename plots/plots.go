// Package plots renders the cut-rate figures. The packaged R scripts are the
// primary renderer; when the configured interpreter is not on PATH the
// curves are drawn natively with gonum/plot instead.
package plots

import (
	"embed"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/vertgenlab/gonomics/fileio"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

//go:embed plot_experiment.R plot_sample.R
var scripts embed.FS

// ExperimentPlot renders the experiment-wide normalized cut rate curve, one
// series per cut-sample summary file.
func ExperimentPlot(rscript, pdfFile string, summaryFiles []string) error {
	if len(summaryFiles) == 0 {
		return fmt.Errorf("no summary files to plot")
	}
	if interpreterFound(rscript) {
		args := append([]string{pdfFile}, summaryFiles...)
		return runScript(rscript, "plot_experiment.R", args)
	}
	return nativeExperimentPlot(pdfFile, summaryFiles)
}

// SamplePlot renders one sample's per-target cut rates by mismatch count.
func SamplePlot(rscript, targetsFile, pdfFile string) error {
	if interpreterFound(rscript) {
		return runScript(rscript, "plot_sample.R", []string{targetsFile, pdfFile})
	}
	return nativeSamplePlot(targetsFile, pdfFile)
}

func interpreterFound(rscript string) bool {
	_, err := exec.LookPath(rscript)
	return err == nil
}

// runScript materializes the embedded script to a temp file and executes it
// with the configured interpreter.
func runScript(rscript, name string, args []string) error {
	contents, err := scripts.ReadFile(name)
	if err != nil {
		return err
	}
	dir, err := os.MkdirTemp("", "bltplots")
	if err != nil {
		return err
	}
	defer os.RemoveAll(dir)
	scriptFile := filepath.Join(dir, name)
	if err = os.WriteFile(scriptFile, contents, 0644); err != nil {
		return err
	}
	cmd := exec.Command(rscript, append([]string{scriptFile}, args...)...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s %s failed: %s: %s", rscript, name, err, strings.TrimSpace(string(out)))
	}
	return nil
}

// tsvColumns reads the named columns from a tab-delimited file with header.
func tsvColumns(filename string, names ...string) ([][]float64, error) {
	lines := fileio.Read(filename)
	if len(lines) == 0 {
		return nil, fmt.Errorf("%s is empty", filename)
	}
	header := strings.Split(lines[0], "\t")
	idx := make([]int, len(names))
	for i, name := range names {
		idx[i] = -1
		for j := range header {
			if header[j] == name {
				idx[i] = j
			}
		}
		if idx[i] == -1 {
			return nil, fmt.Errorf("%s missing column %s", filename, name)
		}
	}
	ans := make([][]float64, len(names))
	for _, line := range lines[1:] {
		if line == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		for i := range idx {
			v, err := strconv.ParseFloat(fields[idx[i]], 64)
			if err != nil {
				return nil, fmt.Errorf("%s: bad value '%s' for %s", filename, fields[idx[i]], names[i])
			}
			ans[i] = append(ans[i], v)
		}
	}
	return ans, nil
}

func nativeExperimentPlot(pdfFile string, summaryFiles []string) error {
	p := plot.New()
	p.Title.Text = "Cut rate by mismatches"
	p.X.Label.Text = "Mismatches between guide and target"
	p.Y.Label.Text = "Normalized cut rate"

	for _, file := range summaryFiles {
		cols, err := tsvColumns(file, "mismatches", "normalized_cut_rate")
		if err != nil {
			return err
		}
		xys := make(plotter.XYs, len(cols[0]))
		for i := range cols[0] {
			xys[i].X, xys[i].Y = cols[0][i], cols[1][i]
		}
		line, points, err := plotter.NewLinePoints(xys)
		if err != nil {
			return err
		}
		p.Add(line, points)
		p.Legend.Add(sampleName(file), line)
	}
	p.Add(plotter.NewGrid())
	return p.Save(7*vg.Inch, 5*vg.Inch, pdfFile)
}

func nativeSamplePlot(targetsFile, pdfFile string) error {
	cols, err := tsvColumns(targetsFile, "mismatches", "indel_bases", "normalized_cut_rate")
	if err != nil {
		return err
	}
	p := plot.New()
	p.Title.Text = sampleName(targetsFile)
	p.X.Label.Text = "Mismatches between guide and target"
	p.Y.Label.Text = "Normalized cut rate"

	var xys plotter.XYs
	for i := range cols[0] {
		if cols[1][i] != 0 {
			continue
		}
		xys = append(xys, plotter.XY{X: cols[0][i], Y: cols[2][i]})
	}
	scatter, err := plotter.NewScatter(xys)
	if err != nil {
		return err
	}
	p.Add(scatter, plotter.NewGrid())
	return p.Save(7*vg.Inch, 5*vg.Inch, pdfFile)
}

// sampleName recovers the sample name from a <sample>.<kind>.txt[.gz] path.
func sampleName(file string) string {
	base := filepath.Base(file)
	if idx := strings.Index(base, "."); idx > 0 {
		return base[:idx]
	}
	return base
}
