package postprocess

import (
	"sort"

	"github.com/jsphweid/seqconv/errs"
	"github.com/jsphweid/seqconv/model"
)

// HoldNote is a note that may be the start of a long note. Order is any
// monotonic position (DTX uses its global tick).
type HoldNote struct {
	Lane      string
	Order     int
	Timestamp int
	Data      *model.EventData
}

type HoldMarker struct {
	Lane      string
	Order     int
	Timestamp int
}

// ResolveHolds attaches each release marker to the last note on its lane
// strictly before it. A marker with nothing to release is reported and
// leaves no duration behind.
func ResolveHolds(notes []HoldNote, markers []HoldMarker) []error {
	sort.SliceStable(notes, func(i, j int) bool { return notes[i].Order < notes[j].Order })
	sort.SliceStable(markers, func(i, j int) bool { return markers[i].Order < markers[j].Order })

	var warnings []error
	last := make(map[string]*HoldNote)
	n := 0
	for _, m := range markers {
		for n < len(notes) && notes[n].Order < m.Order {
			last[notes[n].Lane] = &notes[n]
			n++
		}

		start, ok := last[m.Lane]
		if !ok || start == nil {
			warnings = append(warnings, errs.MissingDataf("%v long note release at timestamp %d has no note to hold", m.Lane, m.Timestamp))
			continue
		}
		duration := m.Timestamp - start.Timestamp
		if duration <= 0 {
			warnings = append(warnings, errs.MissingDataf("%v long note at timestamp %d ends before it starts", m.Lane, start.Timestamp))
			start.Data.HoldDuration = 0
			last[m.Lane] = nil
			continue
		}
		start.Data.GuitarSpecial |= model.SpecialHold
		start.Data.HoldDuration = duration
		last[m.Lane] = nil
	}
	return warnings
}

// AddReleases adds a "_note_release" marker at the end of every held note.
func AddReleases(t model.Timeline) {
	var releases []struct {
		ts int
		e  model.Event
	}
	for _, k := range t.Keys() {
		for _, e := range t[k] {
			if !e.IsNote() || e.Data == nil || e.Data.GuitarSpecial&model.SpecialHold == 0 || e.Data.HoldDuration <= 0 {
				continue
			}
			release := e.Clone()
			release.Name = EventNoteRelease
			release.Beat = 0
			releases = append(releases, struct {
				ts int
				e  model.Event
			}{k + e.Data.HoldDuration, release})
		}
	}
	for _, r := range releases {
		t.Add(r.ts, r.e)
	}
}

const EventNoteRelease = "_note_release"
