package analysis

import (
	"github.com/dasnellings/bltTools/annotate"
	"golang.org/x/exp/slices"
)

// TargetInfo is a validated target/UMI pairing: the consensus target for one
// UMI, every observation of that UMI across samples sharing the guide and
// PAM, and the guide-to-target alignment annotation.
type TargetInfo struct {
	Guide      string
	Pam        string
	Umi        string
	Target     string
	Obs        []*Observation
	Annotation *annotate.Annotation
}

// ValidationMetric is one row of the target validation table, emitted for
// every observed (UMI, guide, PAM) triple whether or not it validated.
type ValidationMetric struct {
	Guide                  string
	Pam                    string
	Umi                    string
	CutReadsCutSamples     int
	UncutReadsCutSamples   int
	CutReadsNaiveSamples   int
	UncutReadsNaiveSamples int
	Target                 string // empty when no eligible uncut reads
	Valid                  bool
	FractionIdentical      float64
	HasFraction            bool
}

type validationKey struct {
	umi   string
	guide string
	pam   string
}

// Validate groups observations by (UMI, guide, PAM) and keeps the pairings
// supported by enough identical uncut reads. Naive samples always contribute
// evidence; cut samples only when useCutSamples is set. The caller should
// drop its reference to obs afterwards to release the buffer.
func Validate(obs []*Observation, minUncutReads int, minIdenticalFraction float64, useCutSamples bool) ([]*TargetInfo, []ValidationMetric) {
	groups := make(map[validationKey][]*Observation)
	var keys []validationKey
	for _, o := range obs {
		key := validationKey{umi: o.Umi, guide: o.Sample.Guide, pam: o.Sample.Pam}
		if _, found := groups[key]; !found {
			keys = append(keys, key)
		}
		groups[key] = append(groups[key], o)
	}
	slices.SortFunc(keys, func(a, b validationKey) int {
		switch {
		case a.guide != b.guide:
			return cmpString(a.guide, b.guide)
		case a.pam != b.pam:
			return cmpString(a.pam, b.pam)
		default:
			return cmpString(a.umi, b.umi)
		}
	})

	var infos []*TargetInfo
	metrics := make([]ValidationMetric, 0, len(keys))
	for _, key := range keys {
		group := groups[key]
		metric := ValidationMetric{Guide: key.guide, Pam: key.pam, Umi: key.umi}

		targetCounts := make(map[string]int)
		var eligibleReads int
		for _, o := range group {
			switch {
			case o.Sample.Cut && o.Cut:
				metric.CutReadsCutSamples += o.Reads()
			case o.Sample.Cut:
				metric.UncutReadsCutSamples += o.Reads()
			case o.Cut:
				metric.CutReadsNaiveSamples += o.Reads()
			default:
				metric.UncutReadsNaiveSamples += o.Reads()
			}
			if o.Cut || (o.Sample.Cut && !useCutSamples) {
				continue
			}
			for _, target := range o.Targets {
				targetCounts[target]++
				eligibleReads++
			}
		}

		if eligibleReads > 0 {
			var topTarget string
			var topCount int
			for target, count := range targetCounts {
				if count > topCount || (count == topCount && target < topTarget) {
					topTarget, topCount = target, count
				}
			}
			metric.Target = topTarget
			metric.FractionIdentical = float64(topCount) / float64(eligibleReads)
			metric.HasFraction = true
			metric.Valid = eligibleReads >= minUncutReads && metric.FractionIdentical >= minIdenticalFraction
		}
		metrics = append(metrics, metric)

		if metric.Valid {
			infos = append(infos, &TargetInfo{
				Guide:      key.guide,
				Pam:        key.pam,
				Umi:        key.umi,
				Target:     metric.Target,
				Obs:        group,
				Annotation: annotate.New(key.guide, metric.Target, group[0].Sample.Enzyme.PamIs5PrimeOfTarget()),
			})
		}
	}
	return infos, metrics
}

func cmpString(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
