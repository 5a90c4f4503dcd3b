// Command analyzeExperiment analyzes sequencing reads from a Barcoded
// Library of Targets (BLT) assay, estimating per-sample cut rates by
// mismatch count and a single specificity score per sample.
package main

import (
	"flag"
	"fmt"
	"log"
	"strings"

	"github.com/dasnellings/bltTools/experiment"
	"github.com/pkg/profile"
)

func usage() {
	fmt.Print(
		"analyzeExperiment - Analyze reads from a BLT nuclease specificity experiment.\n" +
			"Usage:\n" +
			"analyzeExperiment [options] -i reads.fq.gz -s samples.tsv -o outputDir\n\n")
	flag.PrintDefaults()
}

// inputFiles is a custom type that gets filled by flag.Parse()
type inputFiles []string

// String to satisfy flag.Value interface
func (i *inputFiles) String() string {
	return strings.Join(*i, " ")
}

// Set to satisfy flag.Value interface
func (i *inputFiles) Set(value string) error {
	*i = append(*i, value)
	return nil
}

func main() {
	var inputs inputFiles
	cpuprofile := flag.Bool("cpuprofile", false, "write cpu profile")
	memprofile := flag.Bool("memprofile", false, "write memory profile")
	flag.Var(&inputs, "i", "Input FASTQ file. May be gzipped. May be declared more than once with additional -i flags.")
	manifestFile := flag.String("s", "", "Sample manifest. Tab-delimited with header; required columns sample, sample_barcode, guide, enzyme, pam, cut, off_target_file.")
	outputDir := flag.String("o", "", "Output directory. Created if missing.")
	maxMismatches := flag.Int("m", 2, "Maximum mismatches between a read and a sample barcode for assignment.")
	minDistance := flag.Int("d", 2, "Minimum mismatch distance between the best and second-best sample barcode for assignment.")
	minQuality := flag.Float64("q", 20, "Minimum mean base quality across the random barcode, target, and UMI.")
	minUncutReads := flag.Int("u", 3, "Minimum uncut reads required to validate a target/UMI pairing.")
	minIdenticalFraction := flag.Float64("f", 0.9, "Minimum fraction of identical uncut reads required to validate a target/UMI pairing.")
	useCutSamples := flag.Bool("c", false, "Use uncut reads from cut samples as validation evidence.")
	fixedGuideLength := flag.Int("l", 0, "Fixed guide length for libraries built with padded guides. Must be >= every sample's guide length. 0 disables padding.")
	threads := flag.Int("t", 4, "Number of processor threads to use for per-sample metric generation.")
	rscript := flag.String("rscript", "Rscript", "R interpreter used for plotting. Falls back to native rendering when not on PATH.")
	verbose := flag.Int("verbose", 0, "Level of verbosity in log.")
	flag.Parse()

	if *memprofile && *cpuprofile {
		usage()
		log.Fatal("ERROR: -memprofile and -cpuprofile are mutually exclusive.")
	}
	if *memprofile {
		defer profile.Start(profile.MemProfile).Stop()
	}
	if *cpuprofile {
		defer profile.Start(profile.CPUProfile).Stop()
	}

	if len(inputs) == 0 || *manifestFile == "" || *outputDir == "" {
		usage()
		log.Fatal("ERROR: must specify fastq (-i), manifest (-s), and output directory (-o).")
	}

	cfg := experiment.Config{
		Inputs:                    inputs,
		ManifestFile:              *manifestFile,
		OutputDir:                 *outputDir,
		MaxMismatches:             *maxMismatches,
		MinDistance:               *minDistance,
		MinMeanQual:               *minQuality,
		MinUncutReads:             *minUncutReads,
		MinIdenticalFraction:      *minIdenticalFraction,
		UseCutSamplesInValidation: *useCutSamples,
		FixedGuideLength:          *fixedGuideLength,
		Threads:                   *threads,
		Rscript:                   *rscript,
		Verbose:                   *verbose,
	}
	log.Printf("analyzeExperiment -i %s -s %s -o %s -m %d -d %d -q %g -u %d -f %g -c %t -l %d -t %d",
		inputs.String(), *manifestFile, *outputDir, *maxMismatches, *minDistance, *minQuality,
		*minUncutReads, *minIdenticalFraction, *useCutSamples, *fixedGuideLength, *threads)

	if err := experiment.Run(cfg); err != nil {
		log.Fatalf("ERROR: %s", err)
	}
}
