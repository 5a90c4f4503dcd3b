// Package experiment ties the BLT pipeline together: it validates the run
// configuration, streams raw reads through the extractor, writes the
// demultiplexing metrics, and hands the materialized reads to the analysis
// engine.
package experiment

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/dasnellings/bltTools/analysis"
	"github.com/dasnellings/bltTools/demux"
	"github.com/dasnellings/bltTools/extract"
	"github.com/dasnellings/bltTools/manifest"
	"github.com/dasnellings/bltTools/offtarget"
	"github.com/vertgenlab/gonomics/fastq"
)

const progressInterval = 2_500_000

// Config is the full run configuration, one field per CLI flag except the
// profiling flags.
type Config struct {
	Inputs                    []string
	ManifestFile              string
	OutputDir                 string
	MaxMismatches             int
	MinDistance               int
	MinMeanQual               float64
	MinUncutReads             int
	MinIdenticalFraction      float64
	UseCutSamplesInValidation bool
	FixedGuideLength          int // 0 means unset
	Threads                   int
	Rscript                   string
	Verbose                   int
}

func (cfg *Config) validate() error {
	if len(cfg.Inputs) == 0 {
		return fmt.Errorf("no input FASTQ files given")
	}
	for _, file := range cfg.Inputs {
		if _, err := os.Stat(file); err != nil {
			return fmt.Errorf("input FASTQ '%s' is not readable: %s", file, err)
		}
	}
	if cfg.ManifestFile == "" {
		return fmt.Errorf("no sample manifest given")
	}
	if _, err := os.Stat(cfg.ManifestFile); err != nil {
		return fmt.Errorf("sample manifest '%s' is not readable: %s", cfg.ManifestFile, err)
	}
	if cfg.OutputDir == "" {
		return fmt.Errorf("no output directory given")
	}
	if cfg.MaxMismatches < 0 {
		return fmt.Errorf("max mismatches must be >= 0, found %d", cfg.MaxMismatches)
	}
	if cfg.MinDistance < 0 {
		return fmt.Errorf("min distance must be >= 0, found %d", cfg.MinDistance)
	}
	if cfg.MinUncutReads < 1 {
		return fmt.Errorf("min uncut reads must be >= 1, found %d", cfg.MinUncutReads)
	}
	if cfg.MinIdenticalFraction < 0 || cfg.MinIdenticalFraction > 1 {
		return fmt.Errorf("min identical fraction must be within [0, 1], found %g", cfg.MinIdenticalFraction)
	}
	if cfg.Threads < 1 {
		return fmt.Errorf("threads must be >= 1, found %d", cfg.Threads)
	}
	return nil
}

// Run executes a full BLT experiment analysis.
func Run(cfg Config) error {
	startTime := time.Now()
	if err := cfg.validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
		return fmt.Errorf("output directory '%s' is not writable: %s", cfg.OutputDir, err)
	}

	m, err := manifest.Read(cfg.ManifestFile)
	if err != nil {
		return err
	}
	for _, s := range m.Samples {
		if cfg.FixedGuideLength > 0 && cfg.FixedGuideLength < len(s.Guide) {
			return fmt.Errorf("fixed guide length %d is shorter than sample '%s' guide (%d bases)", cfg.FixedGuideLength, s.Name, len(s.Guide))
		}
		if s.OffTargetFile == "" {
			continue
		}
		if _, statErr := os.Stat(s.OffTargetFile); statErr != nil {
			return fmt.Errorf("off-target file '%s' for sample '%s' is not readable: %s", s.OffTargetFile, s.Name, statErr)
		}
		if s.OffTargets, err = offtarget.Read(s.OffTargetFile); err != nil {
			return err
		}
	}
	log.Printf("read %d samples from %s", len(m.Samples), cfg.ManifestFile)

	dmx := demux.New(m, cfg.MaxMismatches, cfg.MinDistance)
	ext := extract.New(m, dmx, cfg.MinMeanQual, cfg.FixedGuideLength)

	var reads []extract.BltRead
	for _, file := range cfg.Inputs {
		for fq := range fastq.GoReadToChan(file) {
			if r, ok := ext.Extract(fq); ok {
				reads = append(reads, r)
			}
			if ext.TotalReads()%progressInterval == 0 {
				log.Printf("processed %d reads, extracted %d", ext.TotalReads(), ext.ExtractedReads())
			}
		}
	}
	log.Printf("finished extraction: %d of %d reads extracted", len(reads), ext.TotalReads())

	ext.WriteMetrics(
		filepath.Join(cfg.OutputDir, "demultiplexing.summary.txt"),
		filepath.Join(cfg.OutputDir, "demultiplexing.details.txt"),
		m)

	analysis.Run(reads, m, analysis.Config{
		OutputDir:                 cfg.OutputDir,
		MinUncutReads:             cfg.MinUncutReads,
		MinIdenticalFraction:      cfg.MinIdenticalFraction,
		UseCutSamplesInValidation: cfg.UseCutSamplesInValidation,
		Threads:                   cfg.Threads,
		Verbose:                   cfg.Verbose,
		Rscript:                   cfg.Rscript,
	})

	log.Printf("Successfully Completed\nTotal Runtime: %s", time.Since(startTime).Round(time.Second))
	return nil
}
