package annotate

import (
	"math"
	"testing"
)

const guide = "GGCCTCCCCAAAGCCTGGCCA"

func TestPerfectMatch(t *testing.T) {
	a := New(guide, guide, false)
	if a.Cigar() != "21=" {
		t.Errorf("cigar = %s, expected 21=", a.Cigar())
	}
	if a.Mismatches != 0 || a.IndelBases != 0 {
		t.Errorf("expected no mismatches or indels, found %d and %d", a.Mismatches, a.IndelBases)
	}
	if len(a.MismatchPositions) != 0 || len(a.MismatchTuples()) != 0 {
		t.Error("expected no mismatch positions")
	}
	if a.HasMeanPosition {
		t.Error("mean mismatch position should be undefined with no mismatches")
	}
	if a.PaddedGuide != guide || a.PaddedTarget != guide {
		t.Error("padded strings should equal the input for a perfect match")
	}
}

func TestThreeMismatchesPam3Prime(t *testing.T) {
	a := New(guide, "GGACTCCCCATAGCCTGGCCG", false)
	if a.Cigar() != "2=1X7=1X9=1X" {
		t.Errorf("cigar = %s, expected 2=1X7=1X9=1X", a.Cigar())
	}
	if a.Mismatches != 3 || a.IndelBases != 0 {
		t.Errorf("expected 3 mismatches and 0 indel bases, found %d and %d", a.Mismatches, a.IndelBases)
	}
	expected := []int{1, 11, 19}
	if len(a.MismatchPositions) != len(expected) {
		t.Fatalf("positions = %v, expected %v", a.MismatchPositions, expected)
	}
	for i := range expected {
		if a.MismatchPositions[i] != expected[i] {
			t.Errorf("positions = %v, expected %v", a.MismatchPositions, expected)
			break
		}
	}
	if !a.HasMeanPosition || math.Abs(a.MeanMismatchPosition-10.3333) > 1e-4 {
		t.Errorf("mean position = %v, expected 10.3333", a.MeanMismatchPosition)
	}
	tuples := a.MismatchTuples()
	if len(tuples) != 3 {
		t.Fatalf("expected 3 tuples, found %d", len(tuples))
	}
	// position 1 is the 3'-most guide base: A>G
	if tuples[0] != (MismatchTuple{Position: 1, GuideBase: 'A', TargetBase: 'G'}) {
		t.Errorf("unexpected first tuple: %+v", tuples[0])
	}
	if tuples[1] != (MismatchTuple{Position: 11, GuideBase: 'A', TargetBase: 'T'}) {
		t.Errorf("unexpected second tuple: %+v", tuples[1])
	}
	if tuples[2] != (MismatchTuple{Position: 19, GuideBase: 'C', TargetBase: 'A'}) {
		t.Errorf("unexpected third tuple: %+v", tuples[2])
	}
}

func TestPositionsKeptForPam5Prime(t *testing.T) {
	a := New(guide, "GGACTCCCCATAGCCTGGCCG", true)
	expected := []int{3, 11, 21}
	if len(a.MismatchPositions) != len(expected) {
		t.Fatalf("positions = %v, expected %v", a.MismatchPositions, expected)
	}
	for i := range expected {
		if a.MismatchPositions[i] != expected[i] {
			t.Errorf("positions = %v, expected %v", a.MismatchPositions, expected)
			break
		}
	}
}

func TestIndelAndMismatch(t *testing.T) {
	a := New(guide, "GGCACTCCCCAAAGCCTGCCCA", false)
	if a.Cigar() != "3=1D14=1X3=" {
		t.Errorf("cigar = %s, expected 3=1D14=1X3=", a.Cigar())
	}
	if a.IndelBases != 1 || a.Mismatches != 1 {
		t.Errorf("expected 1 indel base and 1 mismatch, found %d and %d", a.IndelBases, a.Mismatches)
	}
	if len(a.MismatchPositions) != 0 || len(a.MismatchTuples()) != 0 {
		t.Error("mismatch positions must be empty when any indel is present")
	}
	if a.HasMeanPosition {
		t.Error("mean mismatch position should be undefined with an indel")
	}
	if len(a.PaddedGuide) != len(a.Alignment) || len(a.Alignment) != len(a.PaddedTarget) {
		t.Errorf("padded strings differ in length: %d %d %d", len(a.PaddedGuide), len(a.Alignment), len(a.PaddedTarget))
	}
	if a.PaddedGuide != "GGC-CTCCCCAAAGCCTGGCCA" {
		t.Errorf("unexpected padded guide: %s", a.PaddedGuide)
	}
	if a.PaddedTarget != "GGCACTCCCCAAAGCCTGCCCA" {
		t.Errorf("unexpected padded target: %s", a.PaddedTarget)
	}
}

func TestInsertionInGuide(t *testing.T) {
	// target missing one guide base
	a := New("GGCCTACCCC", "GGCCTCCCC", false)
	if a.IndelBases != 1 {
		t.Errorf("expected 1 indel base, found %d", a.IndelBases)
	}
	var iRuns int
	for _, op := range a.Ops {
		if op.Kind == 'I' {
			iRuns += op.Length
		}
	}
	if iRuns != 1 {
		t.Errorf("expected a 1-base insertion in the guide, found %d", iRuns)
	}
	if len(a.MismatchPositions) != 0 {
		t.Error("mismatch positions must be empty when any indel is present")
	}
}

func TestIndelBasesSumNotCancel(t *testing.T) {
	// one insertion and one deletion must sum to 2, not cancel to 0
	a := New("AACCTTTTGGAA", "ACCTTTTGGAAT", false)
	if a.IndelBases == 0 {
		t.Errorf("expected nonzero indel bases, cigar %s", a.Cigar())
	}
}
