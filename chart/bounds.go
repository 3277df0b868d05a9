package chart

import (
	"github.com/jsphweid/seqconv/errs"
	"github.com/jsphweid/seqconv/model"
)

func missingMetadata() error {
	return errs.Encodef("couldn't find metadata chart")
}

// Bounds returns the first startpos and the first endpos, falling back to
// the first and last keys.
func Bounds(t model.Timeline) (int, int, bool) {
	keys := t.Keys()
	if len(keys) == 0 {
		return 0, 0, false
	}
	start, ok := t.Find(model.EventStartPos)
	if !ok {
		start = keys[0]
	}
	end, ok := t.Find(model.EventEndPos)
	if !ok {
		end = keys[len(keys)-1]
	}
	return start, end, true
}

// NormalizeBounds trims everything outside the chart bounds and leaves
// exactly one startpos and one endpos, keeping the first of each. Charts
// without bounds get them at the first and last keys.
func NormalizeBounds(t model.Timeline) {
	start, end, ok := Bounds(t)
	if !ok {
		return
	}
	if end < start {
		end = start
	}

	for k := range t {
		if k < start || k > end {
			delete(t, k)
		}
	}

	seenStart, seenEnd := false, false
	for _, k := range t.Keys() {
		var kept []model.Event
		for _, e := range t[k] {
			switch e.Name {
			case model.EventStartPos:
				if seenStart || k != start {
					continue
				}
				seenStart = true
			case model.EventEndPos:
				if seenEnd || k != end {
					continue
				}
				seenEnd = true
			}
			kept = append(kept, e)
		}
		t[k] = kept
	}

	if !seenStart {
		t[start] = append([]model.Event{{Name: model.EventStartPos}}, t[start]...)
	}
	if !seenEnd {
		t.Add(end, model.Event{Name: model.EventEndPos})
	}
	t.Prune()
}

// KeepBetween drops events outside [start, end] and any bound event that
// does not sit on its own bound.
func KeepBetween(t model.Timeline, start, end int, names map[string]bool) model.Timeline {
	res := make(model.Timeline)
	for _, k := range t.Keys() {
		if k < start || k > end {
			continue
		}
		for _, e := range t[k] {
			if names != nil && !names[e.Name] {
				continue
			}
			if e.Name == model.EventStartPos && k != start {
				continue
			}
			if e.Name == model.EventEndPos && k != end {
				continue
			}
			res.Add(k, e)
		}
	}
	return res
}
