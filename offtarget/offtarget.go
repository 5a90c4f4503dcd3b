// Package offtarget reads the headerless comma-separated off-target site
// files referenced by the sample manifest.
package offtarget

import (
	"fmt"
	"strings"

	"github.com/dasnellings/bltTools/seq"
	"github.com/vertgenlab/gonomics/fileio"
)

// column order in the input file
const (
	colGuideWithPam = iota
	colChrom
	colPos
	colOffTargetWithPam
	colStrand
	colMismatches
	colOffTarget
	colLoc
	numCols
)

// Read parses filename to a map from off-target sequence to genomic location.
// The file may be empty. Only the off_target and loc columns are retained;
// off_target is uppercased and must be pure DNA, loc must contain a colon.
func Read(filename string) (map[string]string, error) {
	ans := make(map[string]string)
	lines := fileio.Read(filename)
	for i, line := range lines {
		if line == "" {
			continue
		}
		fields := strings.Split(line, ",")
		if len(fields) != numCols {
			return nil, fmt.Errorf("off-target file %s line %d: expected %d comma-separated fields, found %d", filename, i+1, numCols, len(fields))
		}
		target := strings.ToUpper(fields[colOffTarget])
		if !seq.AreValidBases([]byte(target), false) {
			return nil, fmt.Errorf("off-target file %s line %d: off_target '%s' is not valid DNA", filename, i+1, fields[colOffTarget])
		}
		loc := fields[colLoc]
		if !strings.Contains(loc, ":") {
			return nil, fmt.Errorf("off-target file %s line %d: loc '%s' missing colon", filename, i+1, loc)
		}
		ans[target] = loc
	}
	return ans, nil
}
