package offtarget

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTemp(t *testing.T, contents string) string {
	t.Helper()
	file := filepath.Join(t.TempDir(), "offtargets.csv")
	if err := os.WriteFile(file, []byte(contents), 0644); err != nil {
		t.Fatal(err)
	}
	return file
}

func TestRead(t *testing.T) {
	contents := "GGCCTCCCCAAAGCCTGGCCAGGGAGT,chr1,1000,GGACTCCCCATAGCCTGGCCGGGGAGT,+,3,ggactccccatagcctggccg,chr1:1000-1020\n" +
		"GGCCTCCCCAAAGCCTGGCCAGGGAGT,chr2,2000,GGCCTCCCCAAAGCCTGGCCAGGGAGT,-,0,GGCCTCCCCAAAGCCTGGCCA,chr2:2000-2020\n"
	m, err := Read(writeTemp(t, contents))
	if err != nil {
		t.Fatal(err)
	}
	if len(m) != 2 {
		t.Fatalf("expected 2 off-targets, found %d", len(m))
	}
	if m["GGACTCCCCATAGCCTGGCCG"] != "chr1:1000-1020" {
		t.Errorf("unexpected location: %s", m["GGACTCCCCATAGCCTGGCCG"])
	}
	if m["GGCCTCCCCAAAGCCTGGCCA"] != "chr2:2000-2020" {
		t.Errorf("unexpected location: %s", m["GGCCTCCCCAAAGCCTGGCCA"])
	}
}

func TestReadEmpty(t *testing.T) {
	m, err := Read(writeTemp(t, ""))
	if err != nil {
		t.Fatal(err)
	}
	if len(m) != 0 {
		t.Errorf("expected empty map, found %d entries", len(m))
	}
}

func TestReadErrors(t *testing.T) {
	tests := []struct {
		name     string
		contents string
	}{
		{"wrong field count", "a,b,c\n"},
		{"bad dna", "g,chr1,1,o,+,0,ACXT,chr1:1\n"},
		{"loc missing colon", "g,chr1,1,o,+,0,ACGT,chr1\n"},
	}
	for _, test := range tests {
		if _, err := Read(writeTemp(t, test.contents)); err == nil {
			t.Errorf("%s: expected error", test.name)
		}
	}
}
