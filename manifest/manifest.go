// Package manifest parses the tab-delimited sample description for a BLT
// experiment. One row per sample; unknown columns flow through as extra
// attributes and are appended to metric outputs in sorted key order.
package manifest

import (
	"fmt"
	"strings"

	"github.com/dasnellings/bltTools/enzyme"
	"github.com/dasnellings/bltTools/seq"
	"github.com/vertgenlab/gonomics/exception"
	"github.com/vertgenlab/gonomics/fileio"
	"golang.org/x/exp/slices"
)

var requiredCols = []string{"sample", "sample_barcode", "guide", "enzyme", "pam", "cut", "off_target_file"}

// Sample is one row of the manifest. Immutable after the manifest is read,
// except for OffTargets which is attached once at startup from OffTargetFile.
type Sample struct {
	Name          string
	Barcode       string // uppercase DNA, same length for every sample in a manifest
	Guide         string // uppercase DNA
	Pam           string // uppercase DNA
	Enzyme        enzyme.Enzyme
	Cut           bool
	OffTargetFile string
	OffTargets    map[string]string // off-target sequence -> genomic location
	Extra         map[string]string // unknown manifest columns
}

// Manifest is the ordered set of samples in an experiment.
type Manifest struct {
	Samples   []*Sample
	ExtraKeys []string // sorted keys of the extra attribute columns
}

// BarcodeLength returns the shared sample barcode length.
func (m *Manifest) BarcodeLength() int {
	return len(m.Samples[0].Barcode)
}

// Read parses and validates a manifest file.
func Read(filename string) (*Manifest, error) {
	lines := fileio.Read(filename)
	if len(lines) < 2 {
		return nil, fmt.Errorf("manifest %s: expected a header line and at least one sample", filename)
	}

	header := strings.Split(lines[0], "\t")
	colIdx := make(map[string]int)
	for i := range header {
		colIdx[header[i]] = i
	}
	for _, col := range requiredCols {
		if _, found := colIdx[col]; !found {
			return nil, fmt.Errorf("manifest %s: missing required column '%s'", filename, col)
		}
	}
	var extraKeys []string
	for i := range header {
		if !slices.Contains(requiredCols, header[i]) {
			extraKeys = append(extraKeys, header[i])
		}
	}

	m := &Manifest{}
	seen := make(map[string]bool)
	for lineNum, line := range lines[1:] {
		if line == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) != len(header) {
			return nil, fmt.Errorf("manifest %s line %d: expected %d fields, found %d", filename, lineNum+2, len(header), len(fields))
		}
		s := &Sample{
			Name:          fields[colIdx["sample"]],
			Barcode:       strings.ToUpper(fields[colIdx["sample_barcode"]]),
			Guide:         strings.ToUpper(fields[colIdx["guide"]]),
			Pam:           strings.ToUpper(fields[colIdx["pam"]]),
			Cut:           ParseBool(fields[colIdx["cut"]]),
			OffTargetFile: fields[colIdx["off_target_file"]],
			Extra:         make(map[string]string),
		}
		var err error
		s.Enzyme, err = enzyme.Parse(fields[colIdx["enzyme"]])
		if err != nil {
			return nil, fmt.Errorf("manifest %s line %d: %s", filename, lineNum+2, err)
		}
		for _, key := range extraKeys {
			s.Extra[key] = fields[colIdx[key]]
		}

		if s.Name == "" {
			return nil, fmt.Errorf("manifest %s line %d: empty sample name", filename, lineNum+2)
		}
		if seen[s.Name] {
			return nil, fmt.Errorf("manifest %s: duplicate sample name '%s'", filename, s.Name)
		}
		seen[s.Name] = true
		for _, field := range []struct{ name, val string }{
			{"sample_barcode", s.Barcode}, {"guide", s.Guide}, {"pam", s.Pam},
		} {
			if field.val == "" || !seq.AreValidBases([]byte(field.val), false) {
				return nil, fmt.Errorf("manifest %s line %d: %s '%s' is not valid DNA", filename, lineNum+2, field.name, field.val)
			}
		}
		if len(m.Samples) > 0 && len(s.Barcode) != len(m.Samples[0].Barcode) {
			return nil, fmt.Errorf("manifest %s: sample '%s' barcode length %d differs from '%s' length %d",
				filename, s.Name, len(s.Barcode), m.Samples[0].Name, len(m.Samples[0].Barcode))
		}
		m.Samples = append(m.Samples, s)
	}
	if len(m.Samples) == 0 {
		return nil, fmt.Errorf("manifest %s: no samples found", filename)
	}

	slices.Sort(extraKeys)
	m.ExtraKeys = extraKeys
	return m, nil
}

// Write formats the manifest back to a tab-delimited file. Round-trips the
// required columns plus extra attributes in sorted key order.
func Write(m *Manifest, filename string) {
	out := fileio.EasyCreate(filename)
	cols := append(slices.Clone(requiredCols), m.ExtraKeys...)
	fmt.Fprintln(out, strings.Join(cols, "\t"))
	for _, s := range m.Samples {
		fields := []string{s.Name, s.Barcode, s.Guide, s.Enzyme.String(), s.Pam, fmt.Sprint(s.Cut), s.OffTargetFile}
		for _, key := range m.ExtraKeys {
			fields = append(fields, s.Extra[key])
		}
		fmt.Fprintln(out, strings.Join(fields, "\t"))
	}
	err := out.Close()
	exception.PanicOnErr(err)
}

// ParseBool interprets the manifest cut column. true/yes/t/y are true,
// case-insensitive; anything else is false.
func ParseBool(s string) bool {
	switch strings.ToLower(s) {
	case "true", "yes", "t", "y":
		return true
	default:
		return false
	}
}

// ExtraValues returns s's extra attribute values ordered by the manifest's
// sorted keys, for appending to metric rows.
func (m *Manifest) ExtraValues(s *Sample) []string {
	ans := make([]string, 0, len(m.ExtraKeys))
	for _, key := range m.ExtraKeys {
		ans = append(ans, s.Extra[key])
	}
	return ans
}
