package chart

import (
	"github.com/jsphweid/seqconv/model"
	"golang.org/x/exp/slices"
)

func ExpandParts(parts []string) []string {
	if len(parts) == 0 || slices.Contains(parts, "all") {
		return model.Parts
	}
	return parts
}

// ExpandDifficulties resolves to the short difficulty names, or to a lone
// "min"/"max" which Filter resolves against the charts present.
func ExpandDifficulties(diffs []string) []string {
	if len(diffs) == 0 || slices.Contains(diffs, "all") {
		return model.Difficulties
	}
	if slices.Contains(diffs, "min") {
		return []string{"min"}
	}
	if slices.Contains(diffs, "max") {
		return []string{"max"}
	}
	return diffs
}

// Filter keeps metadata charts and the note charts matching parts and
// difficulties. min and max mean the lowest and highest difficulty among
// the note charts.
func Filter(charts []*model.Chart, parts []string, difficulties []string) []*model.Chart {
	parts = ExpandParts(parts)
	difficulties = ExpandDifficulties(difficulties)

	minDiff, maxDiff := -1, -1
	for _, c := range charts {
		if c.Header.IsMetadata {
			continue
		}
		d := c.Header.Difficulty
		if minDiff == -1 || d < minDiff {
			minDiff = d
		}
		if maxDiff == -1 || d > maxDiff {
			maxDiff = d
		}
	}

	var res []*model.Chart
	for _, c := range charts {
		if c.Header.IsMetadata {
			res = append(res, c)
			continue
		}
		if !slices.Contains(parts, c.Part()) {
			continue
		}
		d := c.Header.Difficulty
		keep := slices.Contains(difficulties, model.DifficultyName(d)) ||
			(slices.Contains(difficulties, "min") && d == minDiff) ||
			(slices.Contains(difficulties, "max") && d == maxDiff)
		if keep {
			res = append(res, c)
		}
	}
	return res
}
