package extract

import (
	"bytes"

	"github.com/dasnellings/bltTools/manifest"
	"github.com/dasnellings/bltTools/seq"
)

// Cas9 tail layout. The target sits 5' of the PAM:
//
//	ATCTG . target . PAM . GC . umi[12+/-1] . TGAC . AGATCGGAAGAGCACACGTCTGAACTCCAGTCAC
//
// A cut read replaces "ATCTG . target" with a stub of at most 8 bases ending
// at the PAM.
var (
	cas9TargetLeader = []byte("ATCTG")
	umiRightAnchor   = []byte("TGAC")
)

const (
	maxLeaderMismatches = 1
	maxCutStubLength    = 8
	pamSuffix           = "GC"
)

// tail describes where the target and UMI sit within a read, and whether the
// target was cleaved.
type tail struct {
	targetOffset, targetLength int
	umiOffset, umiLength       int
	cut                        bool
}

// tailParser locates the enzyme-specific region following the shared read
// prefix. start is the offset of the first base after the third left anchor.
type tailParser interface {
	parse(read []byte, s *manifest.Sample, start int) (tail, bool)
}

type cas9Parser struct {
	fixedGuideLength int
}

func (p cas9Parser) parse(read []byte, s *manifest.Sample, start int) (t tail, ok bool) {
	if start+len(cas9TargetLeader) > len(read) {
		return t, false
	}

	pamPlus := []byte(s.Pam + pamSuffix)
	idx := bytes.Index(read[start:], pamPlus)
	if idx < 0 {
		return t, false
	}
	pamOffset := start + idx
	pamPlusEnd := pamOffset + len(pamPlus)

	leaderMismatches := seq.Mismatches(read, start, cas9TargetLeader, 0, len(cas9TargetLeader), maxLeaderMismatches+1)

	if pamPlusEnd+minUmiLength >= len(read) {
		return t, false
	}
	idx = bytes.Index(read[pamPlusEnd+minUmiLength:], umiRightAnchor)
	if idx < 0 {
		return t, false
	}
	tgacOffset := pamPlusEnd + minUmiLength + idx
	t.umiOffset = pamPlusEnd
	t.umiLength = tgacOffset - pamPlusEnd
	if t.umiLength < minUmiLength || t.umiLength > maxUmiLength {
		return t, false
	}

	expectedTargetLength := len(s.Guide)
	var padding int
	if p.fixedGuideLength > 0 {
		expectedTargetLength = p.fixedGuideLength
		padding = p.fixedGuideLength - len(s.Guide)
	}

	switch {
	case leaderMismatches <= maxLeaderMismatches && pamOffset >= start+len(cas9TargetLeader)+expectedTargetLength-2:
		// an uncut target of allowed length fits between the leader and the PAM
		t.targetOffset = start + len(cas9TargetLeader) + padding
		t.targetLength = pamOffset - t.targetOffset
		t.cut = false
	case pamOffset-start <= maxCutStubLength:
		t.targetOffset = start
		t.targetLength = pamOffset - start
		t.cut = true
	default:
		return t, false
	}
	return t, true
}
