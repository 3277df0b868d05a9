package chart

import (
	"github.com/jsphweid/seqconv/model"
	"github.com/jsphweid/seqconv/timing"
)

// TimeSigs collects every barinfo by timestamp, starting from 4/4 at 0.
func TimeSigs(t model.Timeline) *timing.Index[int, timing.TimeSig] {
	sigs := map[int]timing.TimeSig{0: timing.Common}
	for _, k := range t.Keys() {
		for _, e := range t[k] {
			if e.Name == model.EventBarInfo && e.Data != nil {
				sigs[k] = timing.TimeSig{Numerator: e.Data.Numerator, Denominator: e.Data.Denominator}
			}
		}
	}
	return timing.NewIndex(sigs)
}

// AnnotateTimeSigs sets every event's time signature to the last barinfo at
// or before it.
func AnnotateTimeSigs(t model.Timeline) error {
	sigs := TimeSigs(t)
	for _, k := range t.Keys() {
		ts, ok := sigs.AtOrBefore(k)
		if !ok {
			ts = timing.Common
		}
		if err := timing.Validate(ts); err != nil {
			return err
		}
		for i := range t[k] {
			sig := ts
			t[k][i].TimeSignature = &sig
		}
	}
	return nil
}

// beatsByTimestamp walks the measure and beat markers. A measure marker
// counts using the signature that was in force before its own key.
func beatsByTimestamp(t model.Timeline) map[int]int {
	res := make(map[int]int)
	current := timing.Common
	measures, beats := 0, 0
	foundFirst := false

	for _, k := range t.Keys() {
		hold := current
		for _, e := range t[k] {
			if !foundFirst {
				current = e.TimeSig()
				hold = current
			} else {
				hold = e.TimeSig()
			}

			switch e.Name {
			case model.EventMeasure:
				if foundFirst {
					beats = 0
					measures += timing.BeatTicks(current) * current.Numerator
				}
				foundFirst = true
				res[k] = measures + beats
			case model.EventBeat:
				beats += timing.BeatTicks(current)
				res[k] = measures + beats
			}
		}
		current = hold
	}
	return res
}

// AnnotateBeats sets the beat of every event. Events on a marker take its
// value; the rest extrapolate from the last marker at the current tempo.
// Timelines must carry time signatures first.
func AnnotateBeats(t model.Timeline) {
	markers := beatsByTimestamp(t)
	lastMarker := 0
	var bpm float64

	for _, k := range t.Keys() {
		if _, ok := markers[k]; ok {
			lastMarker = k
		}
		for _, e := range t[k] {
			if e.Name == model.EventBPM && e.Data != nil {
				bpm = e.Data.BPM
				break
			}
		}

		base := markers[lastMarker]
		for i := range t[k] {
			e := &t[k][i]
			e.Beat = base
			if _, ok := markers[k]; !ok {
				diff := float64(k - lastMarker)
				offset := (diff / timing.TimeDivision) * (bpm / 60) * float64(timing.BeatTicks(e.TimeSig()))
				e.Beat += int(offset)
			}
		}
	}
}

// NoteCount is the per-chart summary stored in the package manifest.
type NoteCount struct {
	Total int            `json:"total"`
	Notes map[string]int `json:"notes"`
}

// CountNotes skips auto notes. Guitar and bass count each fret of a chord
// while the total counts the chord once.
func CountNotes(c *model.Chart) NoteCount {
	res := NoteCount{Notes: make(map[string]int)}
	part := c.Part()
	for _, evts := range c.Timestamp {
		for i := range evts {
			e := &evts[i]
			if !e.IsNote() || e.IsAutoNote() {
				continue
			}
			note := e.Data.Note
			switch part {
			case model.PartDrum:
				res.Notes[note]++
				res.Total++
			case model.PartGuitar, model.PartBass, model.PartOpen:
				if len(note) < 2 {
					continue
				}
				frets := note[2:]
				if frets == "open" {
					res.Notes[frets]++
					res.Total++
					continue
				}
				for _, fret := range frets {
					if fret != 'x' {
						res.Notes[string(fret)]++
					}
				}
				res.Total++
			}
		}
	}
	return res
}
