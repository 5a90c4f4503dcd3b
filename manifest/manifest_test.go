package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/dasnellings/bltTools/enzyme"
)

const testManifest = "sample\tsample_barcode\tguide\tenzyme\tpam\tcut\toff_target_file\tdonor\treplicate\n" +
	"s1\tacacacacacacaca\tGGCCTCCCCAAAGCCTGGCCA\tCas9\tGGGAGT\tTrue\t\td1\t1\n" +
	"s2\tgtgtgtgtgtgtgtg\tGGCCTCCCCAAAGCCTGGCCA\tcas9\tGGGAGT\tno\t\td1\t2\n"

func writeTemp(t *testing.T, contents string) string {
	t.Helper()
	file := filepath.Join(t.TempDir(), "manifest.tsv")
	if err := os.WriteFile(file, []byte(contents), 0644); err != nil {
		t.Fatal(err)
	}
	return file
}

func TestRead(t *testing.T) {
	m, err := Read(writeTemp(t, testManifest))
	if err != nil {
		t.Fatal(err)
	}
	if len(m.Samples) != 2 {
		t.Fatalf("expected 2 samples, found %d", len(m.Samples))
	}
	s1, s2 := m.Samples[0], m.Samples[1]
	if s1.Name != "s1" || s1.Barcode != "ACACACACACACACA" || !s1.Cut {
		t.Errorf("unexpected s1: %+v", s1)
	}
	if s2.Enzyme != enzyme.Cas9 || s2.Cut {
		t.Errorf("unexpected s2: %+v", s2)
	}
	if s1.Guide != "GGCCTCCCCAAAGCCTGGCCA" || s1.Pam != "GGGAGT" {
		t.Errorf("unexpected guide/pam: %s %s", s1.Guide, s1.Pam)
	}
	if len(m.ExtraKeys) != 2 || m.ExtraKeys[0] != "donor" || m.ExtraKeys[1] != "replicate" {
		t.Errorf("unexpected extra keys: %v", m.ExtraKeys)
	}
	if vals := m.ExtraValues(s2); len(vals) != 2 || vals[0] != "d1" || vals[1] != "2" {
		t.Errorf("unexpected extra values: %v", vals)
	}
	if m.BarcodeLength() != 15 {
		t.Errorf("expected barcode length 15, found %d", m.BarcodeLength())
	}
}

func TestReadErrors(t *testing.T) {
	tests := []struct {
		name     string
		contents string
	}{
		{"missing column", "sample\tsample_barcode\tguide\tenzyme\tpam\tcut\ns1\tACGT\tACGT\tCas9\tGG\ttrue\n"},
		{"duplicate name", "sample\tsample_barcode\tguide\tenzyme\tpam\tcut\toff_target_file\ns1\tACGT\tACGT\tCas9\tGG\ttrue\t\ns1\tTGCA\tACGT\tCas9\tGG\tfalse\t\n"},
		{"bad dna", "sample\tsample_barcode\tguide\tenzyme\tpam\tcut\toff_target_file\ns1\tACXT\tACGT\tCas9\tGG\ttrue\t\n"},
		{"ragged barcodes", "sample\tsample_barcode\tguide\tenzyme\tpam\tcut\toff_target_file\ns1\tACGT\tACGT\tCas9\tGG\ttrue\t\ns2\tACGTA\tACGT\tCas9\tGG\tfalse\t\n"},
		{"bad enzyme", "sample\tsample_barcode\tguide\tenzyme\tpam\tcut\toff_target_file\ns1\tACGT\tACGT\tCpf1\tGG\ttrue\t\n"},
	}
	for _, test := range tests {
		if _, err := Read(writeTemp(t, test.contents)); err == nil {
			t.Errorf("%s: expected error", test.name)
		}
	}
}

func TestRoundTrip(t *testing.T) {
	m, err := Read(writeTemp(t, testManifest))
	if err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(t.TempDir(), "roundtrip.tsv")
	Write(m, out)
	m2, err := Read(out)
	if err != nil {
		t.Fatal(err)
	}
	for i := range m.Samples {
		a, b := m.Samples[i], m2.Samples[i]
		if a.Name != b.Name || a.Barcode != b.Barcode || a.Guide != b.Guide ||
			a.Pam != b.Pam || a.Enzyme != b.Enzyme || a.Cut != b.Cut {
			t.Errorf("sample %d did not round-trip: %+v vs %+v", i, a, b)
		}
	}
}

func TestParseBool(t *testing.T) {
	for _, s := range []string{"true", "TRUE", "Yes", "t", "Y"} {
		if !ParseBool(s) {
			t.Errorf("expected ParseBool(%q) to be true", s)
		}
	}
	for _, s := range []string{"false", "no", "0", "", "maybe"} {
		if ParseBool(s) {
			t.Errorf("expected ParseBool(%q) to be false", s)
		}
	}
}
