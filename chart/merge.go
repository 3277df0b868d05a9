package chart

import (
	"github.com/jsphweid/seqconv/model"
)

// Merge combines a metadata timeline with a note timeline. At every key the
// metadata events come first so tempo changes precede notes on the same tick.
func Merge(metadata, notes model.Timeline) model.Timeline {
	res := make(model.Timeline, len(metadata)+len(notes))
	for k, evts := range metadata {
		for _, e := range evts {
			res[k] = append(res[k], e.Clone())
		}
	}
	for k, evts := range notes {
		for _, e := range evts {
			res[k] = append(res[k], e.Clone())
		}
	}
	return res
}

// MergeInto copies only the named events from src into dst.
func MergeInto(dst, src model.Timeline, names ...string) {
	keep := make(map[string]bool, len(names))
	for _, n := range names {
		keep[n] = true
	}
	for _, k := range src.Keys() {
		for _, e := range src[k] {
			if keep[e.Name] {
				dst.Add(k, e.Clone())
			}
		}
	}
}

// SplitByPart groups note charts by part. Metadata charts and charts whose
// game type has no part come back in rest, in their original order.
func SplitByPart(charts []*model.Chart) (map[string][]*model.Chart, []*model.Chart) {
	parts := make(map[string][]*model.Chart)
	var rest []*model.Chart
	for _, c := range charts {
		part := c.Part()
		if c.Header.IsMetadata || part == "" {
			rest = append(rest, c)
			continue
		}
		parts[part] = append(parts[part], c)
	}
	return parts, rest
}

// SplitByGameType is SplitByPart without folding guitar1/guitar2 into guitar.
func SplitByGameType(charts []*model.Chart) (map[model.GameType][]*model.Chart, []*model.Chart) {
	res := make(map[model.GameType][]*model.Chart)
	var rest []*model.Chart
	for _, c := range charts {
		if c.Header.IsMetadata || c.Part() == "" {
			rest = append(rest, c)
			continue
		}
		res[c.Header.GameType] = append(res[c.Header.GameType], c)
	}
	return res, rest
}

// CombineGuitars folds the notes and levels of every from chart into the
// into chart of the same difficulty. It returns the charts of from that had
// no partner.
func CombineGuitars(into, from []*model.Chart) []*model.Chart {
	used := make(map[*model.Chart]bool)
	for _, c := range into {
		for _, other := range from {
			if other.Header.Difficulty != c.Header.Difficulty {
				continue
			}
			if c.Header.Level == nil {
				c.Header.Level = make(map[string]int)
			}
			for k, v := range other.Header.Level {
				c.Header.Level[k] = v
			}
			MergeInto(c.Timestamp, other.Timestamp, model.EventNote)
			used[other] = true
		}
	}

	var leftover []*model.Chart
	for _, c := range from {
		if !used[c] {
			leftover = append(leftover, c)
		}
	}
	return leftover
}

// CombineMetadata returns a combined copy of every note chart of song.
func CombineMetadata(song *model.Song) ([]*model.Chart, error) {
	metadata := song.MetadataChart()
	if metadata == nil {
		return nil, missingMetadata()
	}
	var res []*model.Chart
	for _, c := range song.NoteCharts() {
		combined := c.Clone()
		combined.Timestamp = Merge(metadata.Timestamp, c.Timestamp)
		res = append(res, combined)
	}
	return res, nil
}
