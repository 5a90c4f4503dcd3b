// Package annotate aligns an observed target back to its guide and derives
// the mismatch and indel metrics reported for each validated target.
package annotate

import (
	"fmt"
	"log"
	"strings"
)

// Alignment scoring. The constants were tuned so that the fraction of
// equal-length alignments containing indels stays within an order of
// magnitude of the expected double-indel rate.
const (
	matchScore    = 4
	mismatchScore = -2
	gapOpen       = -5
	gapExtend     = -2
)

const negInf = -1 << 30

// Op is one run of a guide/target alignment: '=' match, 'X' mismatch,
// 'I' insertion in the guide (base absent from the target), 'D' deletion
// from the guide (base present only in the target).
type Op struct {
	Length int
	Kind   byte
}

// Annotation describes how an observed target differs from its guide.
type Annotation struct {
	Guide  string
	Target string
	Ops    []Op

	Mismatches int
	IndelBases int
	// MismatchPositions are 1-based distances along the guide, counted from
	// the PAM-proximal end for a 3' PAM. Empty whenever any indel is present.
	MismatchPositions    []int
	MeanMismatchPosition float64 // NaN-free: only meaningful when HasMeanPosition
	HasMeanPosition      bool

	PaddedGuide  string
	Alignment    string
	PaddedTarget string

	tuples []MismatchTuple
}

// MismatchTuple pairs a PAM-relative mismatch position with the differing
// guide and target bases.
type MismatchTuple struct {
	Position   int
	GuideBase  byte
	TargetBase byte
}

// New aligns guide against target and derives the annotation.
// pamIs5PrimeOfTarget controls the orientation of mismatch positions:
// false (Cas9) counts position 1 as the base adjacent to the 3' PAM.
func New(guide, target string, pamIs5PrimeOfTarget bool) *Annotation {
	a := &Annotation{Guide: guide, Target: target}
	a.Ops = alignGlobal(guide, target)
	a.derive(pamIs5PrimeOfTarget)
	return a
}

// alignGlobal runs Needleman-Wunsch with affine gaps (Gotoh's three-state
// recurrence) and returns the run-length encoded operations, guide as query.
// A gap of length L costs gapOpen + L*gapExtend.
func alignGlobal(guide, target string) []Op {
	n, m := len(guide), len(target)
	// mat: ending in an aligned pair; gq: ending in a gap consuming guide
	// only; gt: ending in a gap consuming target only.
	mat := makeMatrix(n+1, m+1)
	gq := makeMatrix(n+1, m+1)
	gt := makeMatrix(n+1, m+1)

	mat[0][0] = 0
	for i := 1; i <= n; i++ {
		mat[i][0], gt[i][0] = negInf, negInf
		gq[i][0] = gapOpen + i*gapExtend
	}
	for j := 1; j <= m; j++ {
		mat[0][j], gq[0][j] = negInf, negInf
		gt[0][j] = gapOpen + j*gapExtend
	}

	for i := 1; i <= n; i++ {
		for j := 1; j <= m; j++ {
			sub := mismatchScore
			if guide[i-1] == target[j-1] {
				sub = matchScore
			}
			mat[i][j] = max3(mat[i-1][j-1], gq[i-1][j-1], gt[i-1][j-1]) + sub
			gq[i][j] = maxInt(mat[i-1][j]+gapOpen+gapExtend, gq[i-1][j]+gapExtend)
			gt[i][j] = maxInt(mat[i][j-1]+gapOpen+gapExtend, gt[i][j-1]+gapExtend)
		}
	}

	// traceback, preferring aligned pairs at ties
	var ops []Op
	push := func(kind byte) {
		if len(ops) > 0 && ops[len(ops)-1].Kind == kind {
			ops[len(ops)-1].Length++
			return
		}
		ops = append(ops, Op{Length: 1, Kind: kind})
	}

	i, j := n, m
	var state byte = 'M'
	switch best := max3(mat[n][m], gq[n][m], gt[n][m]); {
	case best == mat[n][m]:
		state = 'M'
	case best == gq[n][m]:
		state = 'I'
	default:
		state = 'D'
	}
	for i > 0 || j > 0 {
		switch {
		case i == 0:
			state = 'D'
		case j == 0:
			state = 'I'
		}
		switch state {
		case 'M':
			if guide[i-1] == target[j-1] {
				push('=')
			} else {
				push('X')
			}
			prev := mat[i][j] - subScore(guide[i-1], target[j-1])
			i, j = i-1, j-1
			switch prev {
			case mat[i][j]:
				state = 'M'
			case gq[i][j]:
				state = 'I'
			default:
				state = 'D'
			}
		case 'I':
			push('I')
			if gq[i][j] == gq[i-1][j]+gapExtend && gq[i-1][j] != negInf {
				state = 'I'
			} else {
				state = 'M'
			}
			i--
		case 'D':
			push('D')
			if gt[i][j] == gt[i][j-1]+gapExtend && gt[i][j-1] != negInf {
				state = 'D'
			} else {
				state = 'M'
			}
			j--
		}
	}

	// ops were built back-to-front
	for l, r := 0, len(ops)-1; l < r; l, r = l+1, r-1 {
		ops[l], ops[r] = ops[r], ops[l]
	}
	return ops
}

func (a *Annotation) derive(pamIs5PrimeOfTarget bool) {
	var gi, ti int // consumed guide and target bases
	var paddedGuide, alignment, paddedTarget strings.Builder
	var leftToRightPositions []int

	for _, op := range a.Ops {
		for k := 0; k < op.Length; k++ {
			switch op.Kind {
			case '=':
				paddedGuide.WriteByte(a.Guide[gi])
				paddedTarget.WriteByte(a.Target[ti])
				alignment.WriteByte('|')
				gi, ti = gi+1, ti+1
			case 'X':
				paddedGuide.WriteByte(a.Guide[gi])
				paddedTarget.WriteByte(a.Target[ti])
				alignment.WriteByte('.')
				leftToRightPositions = append(leftToRightPositions, gi+1)
				gi, ti = gi+1, ti+1
			case 'I':
				paddedGuide.WriteByte(a.Guide[gi])
				paddedTarget.WriteByte('-')
				alignment.WriteByte(' ')
				gi++
			case 'D':
				paddedGuide.WriteByte('-')
				paddedTarget.WriteByte(a.Target[ti])
				alignment.WriteByte(' ')
				ti++
			default:
				log.Panicf("ERROR: unrecognized alignment op '%c'", op.Kind)
			}
		}
		switch op.Kind {
		case 'X':
			a.Mismatches += op.Length
		case 'I', 'D':
			a.IndelBases += op.Length
		}
	}
	if gi != len(a.Guide) || ti != len(a.Target) {
		log.Panicf("ERROR: alignment consumed %d/%d guide and %d/%d target bases", gi, len(a.Guide), ti, len(a.Target))
	}
	a.PaddedGuide = paddedGuide.String()
	a.Alignment = alignment.String()
	a.PaddedTarget = paddedTarget.String()

	if a.IndelBases > 0 {
		return
	}
	// indel-free alignments keep guide and target indices in register
	if pamIs5PrimeOfTarget {
		for _, p := range leftToRightPositions {
			a.MismatchPositions = append(a.MismatchPositions, p)
			a.tuples = append(a.tuples, MismatchTuple{Position: p, GuideBase: a.Guide[p-1], TargetBase: a.Target[p-1]})
		}
	} else {
		// position 1 is the base adjacent to the 3' PAM
		for k := len(leftToRightPositions) - 1; k >= 0; k-- {
			p := leftToRightPositions[k]
			pos := len(a.Guide) + 1 - p
			a.MismatchPositions = append(a.MismatchPositions, pos)
			a.tuples = append(a.tuples, MismatchTuple{Position: pos, GuideBase: a.Guide[p-1], TargetBase: a.Target[p-1]})
		}
	}
	if len(a.MismatchPositions) > 0 {
		var sum int
		for _, p := range a.MismatchPositions {
			sum += p
		}
		a.MeanMismatchPosition = float64(sum) / float64(len(a.MismatchPositions))
		a.HasMeanPosition = true
	}
}

// Cigar renders the op sequence as a CIGAR-like string, e.g. "2=1X7=1X9=1X".
func (a *Annotation) Cigar() string {
	var s strings.Builder
	for _, op := range a.Ops {
		fmt.Fprintf(&s, "%d%c", op.Length, op.Kind)
	}
	return s.String()
}

// MismatchTuples returns the (position, guideBase, targetBase) triple for
// each mismatch, ordered with MismatchPositions. Empty whenever any indel is
// present.
func (a *Annotation) MismatchTuples() []MismatchTuple {
	return a.tuples
}

func subScore(g, t byte) int {
	if g == t {
		return matchScore
	}
	return mismatchScore
}

func makeMatrix(rows, cols int) [][]int {
	backing := make([]int, rows*cols)
	ans := make([][]int, rows)
	for i := range ans {
		ans[i] = backing[i*cols : (i+1)*cols]
	}
	return ans
}

func max3(a, b, c int) int {
	return maxInt(a, maxInt(b, c))
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
