// Package sample cuts short excerpts out of charts for previews.
package sample

import (
	"github.com/jsphweid/seqconv/model"
)

// Create keeps the first maxNotes playable notes at or after from and
// shifts them to the start. Tempo and measure events before from are
// carried to timestamp 0 so the excerpt keeps its timing. A maxNotes of
// 0 keeps every note.
func Create(c *model.Chart, from int, maxNotes int) *model.Chart {
	res := model.NewChart(c.Header)
	carried := make(map[string]model.Event)
	var numNotes int

TimestampLoop:
	for _, ts := range c.Timestamp.Keys() {
		for _, e := range c.Timestamp[ts] {
			switch {
			case ts < from:
				if e.Name == model.EventBPM || e.Name == model.EventBarInfo {
					carried[e.Name] = e.Clone()
				}
			case e.IsNote():
				if maxNotes > 0 && numNotes >= maxNotes {
					break TimestampLoop
				}
				if !e.IsAutoNote() {
					numNotes += 1
				}
				res.Timestamp.Add(ts-from, e.Clone())
			default:
				res.Timestamp.Add(ts-from, e.Clone())
			}
		}
	}

	for _, name := range []string{model.EventBPM, model.EventBarInfo} {
		e, ok := carried[name]
		if !ok {
			continue
		}
		if first, found := res.Timestamp.Find(name); found && first == 0 {
			continue
		}
		res.Timestamp[0] = append([]model.Event{e}, res.Timestamp[0]...)
	}
	return res
}
