package analysis

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/dasnellings/bltTools/extract"
	"github.com/dasnellings/bltTools/manifest"
	"github.com/dasnellings/bltTools/plots"
	"github.com/guptarohit/asciigraph"
	"github.com/vertgenlab/gonomics/exception"
)

// Config holds the analysis engine's tunables.
type Config struct {
	OutputDir                 string
	MinUncutReads             int
	MinIdenticalFraction      float64
	UseCutSamplesInValidation bool
	ScoreMismatchBound        int // upper mismatch bound for the specificity score
	Threads                   int
	Verbose                   int
	Rscript                   string
}

type sampleResult struct {
	sample      *manifest.Sample
	summaryRows []SampleMetric
	score       float64
	hasData     bool
	summaryFile string
}

// Run consumes the extracted reads and writes every analysis output. Reads
// and observations are released as soon as the next derived collection is
// built to keep peak memory bounded.
func Run(reads []extract.BltRead, m *manifest.Manifest, cfg Config) {
	if cfg.ScoreMismatchBound == 0 {
		cfg.ScoreMismatchBound = 4
	}
	if cfg.Threads < 1 {
		cfg.Threads = 1
	}

	obs := Deduplicate(reads)
	reads = nil
	log.Printf("collapsed reads into %d observations", len(obs))

	infos, validationMetrics := Validate(obs, cfg.MinUncutReads, cfg.MinIdenticalFraction, cfg.UseCutSamplesInValidation)
	obs = nil
	log.Printf("validated %d of %d target/UMI pairings", len(infos), len(validationMetrics))
	WriteValidationMetrics(filepath.Join(cfg.OutputDir, "target_validation.txt.gz"), validationMetrics)
	validationMetrics = nil

	sampleChan := make(chan *manifest.Sample, len(m.Samples))
	for _, s := range m.Samples {
		sampleChan <- s
	}
	close(sampleChan)

	resultChan := make(chan sampleResult, len(m.Samples))
	wg := new(sync.WaitGroup)
	for i := 0; i < cfg.Threads; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for s := range sampleChan {
				resultChan <- processSample(s, infos, cfg)
			}
		}()
	}
	go func() {
		wg.Wait()
		close(resultChan)
	}()

	results := make(map[string]sampleResult)
	for r := range resultChan {
		results[r.sample.Name] = r
		if cfg.Verbose > 0 {
			log.Printf("finished sample %s (specificity score %g)", r.sample.Name, r.score)
			if r.sample.Cut && r.hasData {
				vals := make([]float64, len(r.summaryRows))
				for i := range r.summaryRows {
					vals[i] = r.summaryRows[i].NormCutRate
				}
				log.Printf("%s normalized cut rate by mismatches:\n%s", r.sample.Name,
					asciigraph.Plot(vals, asciigraph.Height(8), asciigraph.Precision(2)))
			}
		}
	}

	summary := make([]BltMetric, 0, len(m.Samples))
	var cutSummaryFiles []string
	for _, s := range m.Samples {
		r := results[s.Name]
		summary = append(summary, BltMetric{
			Sample: s.Name,
			Guide:  s.Guide,
			Enzyme: s.Enzyme.String(),
			Pam:    s.Pam,
			Score:  r.score,
		})
		if s.Cut && r.hasData {
			cutSummaryFiles = append(cutSummaryFiles, r.summaryFile)
		}
	}
	writeExperimentSummary(filepath.Join(cfg.OutputDir, "summary.txt"), summary, m)

	if len(cutSummaryFiles) == 0 {
		banner := strings.Repeat("#", 80)
		log.Printf("\n%s\n# WARNING: no cut sample produced any usable target data.\n#          %s was not generated.\n%s",
			banner, "cut_rate_by_mismatches.pdf", banner)
		return
	}
	err := plots.ExperimentPlot(cfg.Rscript, filepath.Join(cfg.OutputDir, "cut_rate_by_mismatches.pdf"), cutSummaryFiles)
	if err != nil {
		log.Printf("WARNING: experiment plot failed: %s", err)
	}
}

// processSample computes and writes one sample's per-UMI, per-target, and
// per-mismatch tables. Samples are independent; each worker owns its own
// writers.
func processSample(s *manifest.Sample, infos []*TargetInfo, cfg Config) sampleResult {
	umiRows := umiMetrics(s, infos)
	normalize(umiRows)
	targetRows := targetMetrics(umiRows)
	normalize(targetRows)
	summaryRows := mismatchRollup(s.Name, targetRows)
	score := SpecificityScore(summaryRows, cfg.ScoreMismatchBound)

	dir := filepath.Join(cfg.OutputDir, s.Name)
	err := os.MkdirAll(dir, 0755)
	exception.PanicOnErr(err)
	targetsFile := filepath.Join(dir, s.Name+".targets.txt.gz")
	summaryFile := filepath.Join(dir, s.Name+".summary.txt")
	writeSampleRows(filepath.Join(dir, s.Name+".umis.txt.gz"), umiRows)
	writeSampleRows(targetsFile, targetRows)
	writeSampleSummary(summaryFile, summaryRows)

	hasData := len(umiRows) > 0
	if s.Cut && hasData {
		if err = plots.SamplePlot(cfg.Rscript, targetsFile, filepath.Join(dir, s.Name+".pdf")); err != nil {
			log.Printf("WARNING: plot for sample %s failed: %s", s.Name, err)
		}
	}

	return sampleResult{
		sample:      s,
		summaryRows: summaryRows,
		score:       score,
		hasData:     hasData,
		summaryFile: summaryFile,
	}
}
