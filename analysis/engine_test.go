package analysis

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dasnellings/bltTools/manifest"
	"github.com/vertgenlab/gonomics/fileio"
)

func TestRun(t *testing.T) {
	s1, s2 := cutSample(), naiveSample()
	m := &manifest.Manifest{Samples: []*manifest.Sample{s1, s2}}
	outDir := t.TempDir()

	Run(pureMatchReads(s1, s2), m, Config{
		OutputDir:            outDir,
		MinUncutReads:        3,
		MinIdenticalFraction: 0.9,
		Threads:              2,
		Rscript:              "no-such-interpreter",
	})

	for _, file := range []string{
		"target_validation.txt.gz",
		"summary.txt",
		"cut_rate_by_mismatches.pdf",
		filepath.Join("s1", "s1.umis.txt.gz"),
		filepath.Join("s1", "s1.targets.txt.gz"),
		filepath.Join("s1", "s1.summary.txt"),
		filepath.Join("s1", "s1.pdf"),
		filepath.Join("s2", "s2.summary.txt"),
	} {
		if _, err := os.Stat(filepath.Join(outDir, file)); err != nil {
			t.Errorf("expected output file %s: %s", file, err)
		}
	}

	summary := fileio.Read(filepath.Join(outDir, "summary.txt"))
	if len(summary) != 3 {
		t.Fatalf("expected header and 2 sample rows in summary.txt, found %d lines", len(summary))
	}
	if !strings.HasPrefix(summary[0], "sample\tguide\tenzyme\tpam\tspecificity_score") {
		t.Errorf("unexpected summary header: %s", summary[0])
	}
	s1Fields := strings.Split(summary[1], "\t")
	if s1Fields[0] != "s1" || s1Fields[1] != testGuide || s1Fields[2] != "Cas9" || s1Fields[3] != testPam {
		t.Errorf("unexpected s1 summary row: %s", summary[1])
	}

	umis := fileio.Read(filepath.Join(outDir, "s1", "s1.umis.txt.gz"))
	if len(umis) != 2 {
		t.Fatalf("expected header and 1 umi row for s1, found %d lines", len(umis))
	}
	fields := strings.Split(umis[1], "\t")
	if fields[0] != "s1" || fields[3] != testUmi || fields[4] != testGuide {
		t.Errorf("unexpected umi row: %s", umis[1])
	}
}

func TestRunNoCutData(t *testing.T) {
	// naive-only experiment: outputs written, no experiment plot
	s2 := naiveSample()
	m := &manifest.Manifest{Samples: []*manifest.Sample{s2}}
	outDir := t.TempDir()

	Run(pureMatchReads(cutSample(), s2)[5:], m, Config{
		OutputDir:            outDir,
		MinUncutReads:        1,
		MinIdenticalFraction: 0.9,
		Threads:              1,
		Rscript:              "no-such-interpreter",
	})

	if _, err := os.Stat(filepath.Join(outDir, "summary.txt")); err != nil {
		t.Errorf("expected summary.txt: %s", err)
	}
	if _, err := os.Stat(filepath.Join(outDir, "cut_rate_by_mismatches.pdf")); err == nil {
		t.Error("expected no experiment plot without cut-sample data")
	}
}
