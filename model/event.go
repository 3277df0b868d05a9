package model

import (
	"sort"

	"github.com/jsphweid/seqconv/timing"
)

const (
	EventNote      = "note"
	EventAuto      = "auto"
	EventMeta      = "meta"
	EventBPM       = "bpm"
	EventBarInfo   = "barinfo"
	EventBarOn     = "baron"
	EventBarOff    = "baroff"
	EventMeasure   = "measure"
	EventBeat      = "beat"
	EventChipStart = "chipstart"
	EventChipEnd   = "chipend"
	EventStartPos  = "startpos"
	EventEndPos    = "endpos"
	EventUnk0C     = "unk0c"
	EventUnk       = "unk"
	EventEndNotes  = "endnotes"

	NoteAuto = "auto"
)

type EventData struct {
	SoundID         int     `json:"sound_id,omitempty"`
	SoundUnk        int     `json:"sound_unk,omitempty"`
	Volume          int     `json:"volume,omitempty"`
	Pan             *int    `json:"pan,omitempty"`
	Note            string  `json:"note,omitempty"`
	AutoNote        int     `json:"auto_note,omitempty"`
	AutoVolume      int     `json:"auto_volume,omitempty"`
	HoldDuration    int     `json:"hold_duration,omitempty"`
	NoteLength      int     `json:"note_length,omitempty"`
	BonusNote       bool    `json:"bonus_note,omitempty"`
	WailMisc        int     `json:"wail_misc,omitempty"`
	GuitarSpecial   int     `json:"guitar_special,omitempty"`
	Unk             int     `json:"unk,omitempty"`
	AutoUnk         int     `json:"auto_unk,omitempty"`
	BPM             float64 `json:"bpm,omitempty"`
	Numerator       int     `json:"numerator,omitempty"`
	Denominator     int     `json:"denominator,omitempty"`
	DenominatorOrig int     `json:"denominator_orig,omitempty"`
	MergedBeat      bool    `json:"merged_beat,omitempty"`
}

const (
	// guitar_special bits
	SpecialWail = 1
	SpecialHold = 2
)

type Event struct {
	Name          string          `json:"name"`
	Data          *EventData      `json:"data,omitempty"`
	Beat          int             `json:"beat,omitempty"`
	TimeSignature *timing.TimeSig `json:"time_signature,omitempty"`
}

func (e Event) Clone() Event {
	res := e
	if e.Data != nil {
		d := *e.Data
		if e.Data.Pan != nil {
			pan := *e.Data.Pan
			d.Pan = &pan
		}
		res.Data = &d
	}
	if e.TimeSignature != nil {
		ts := *e.TimeSignature
		res.TimeSignature = &ts
	}
	return res
}

// D never returns nil, so callers can read fields of payload-less events.
func (e *Event) D() *EventData {
	if e.Data == nil {
		e.Data = &EventData{}
	}
	return e.Data
}

func (e *Event) IsNote() bool {
	return e.Name == EventNote
}

func (e *Event) IsAutoNote() bool {
	return e.IsNote() && e.Data != nil && (e.Data.Note == NoteAuto || e.Data.AutoNote == 1)
}

func (e *Event) TimeSig() timing.TimeSig {
	if e.TimeSignature == nil {
		return timing.Common
	}
	return *e.TimeSignature
}

func IntPtr(v int) *int {
	return &v
}

// Timeline maps a timestamp to every event at that instant. Map order is
// never meaningful so anything that serializes goes through Keys.
type Timeline map[int][]Event

func (t Timeline) Keys() []int {
	keys := make([]int, 0, len(t))
	for k := range t {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

func (t Timeline) Add(ts int, evts ...Event) {
	t[ts] = append(t[ts], evts...)
}

func (t Timeline) Clone() Timeline {
	res := make(Timeline, len(t))
	for k, evts := range t {
		cloned := make([]Event, len(evts))
		for i, e := range evts {
			cloned[i] = e.Clone()
		}
		res[k] = cloned
	}
	return res
}

func (t Timeline) Count(name string) int {
	var total int
	for _, evts := range t {
		for _, e := range evts {
			if e.Name == name {
				total++
			}
		}
	}
	return total
}

// Find returns the first key holding an event called name.
func (t Timeline) Find(name string) (int, bool) {
	for _, k := range t.Keys() {
		for _, e := range t[k] {
			if e.Name == name {
				return k, true
			}
		}
	}
	return 0, false
}

// Prune drops empty buckets.
func (t Timeline) Prune() {
	for k, evts := range t {
		if len(evts) == 0 {
			delete(t, k)
		}
	}
}
