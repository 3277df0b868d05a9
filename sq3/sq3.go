// Package sq3 reads and writes SQ3 sequences. Records are 0x40 bytes and
// carry beats, hold lengths and five lane guitar notes.
package sq3

import (
	"encoding/binary"
	"os"

	"github.com/jsphweid/seqconv/errs"
	"github.com/jsphweid/seqconv/event"
	"github.com/jsphweid/seqconv/lane"
	"github.com/jsphweid/seqconv/model"
	"github.com/jsphweid/seqconv/seqp"
	"github.com/jsphweid/seqconv/timing"
)

const (
	Name       = "SQ3"
	Ext        = "sq3"
	ChartMagic = "SQ3T"
	Revision   = 0x03
	RecordSize = 0x40
	// later revisions pad records, never past this
	maxRecordSize = 0x400
)

var events = map[byte]string{
	0x01: model.EventBPM,
	0x02: model.EventBarInfo,
	0x03: model.EventBarOn,
	0x04: model.EventBarOff,
	0x05: model.EventMeasure,
	0x06: model.EventBeat,
	0x07: model.EventChipStart,
	0x08: model.EventChipEnd,
	0x0c: model.EventUnk0C,
	0x0e: model.EventStartPos,
	0x0f: model.EventEndPos,
	0x10: model.EventNote,
}

var commands = func() map[string]byte {
	res := make(map[string]byte, len(events)+1)
	for k, v := range events {
		res[v] = k
	}
	res[model.EventAuto] = 0x10
	return res
}()

// default for the unknown field of notes read from other formats
const defaultNoteUnk = 0x16c

// default note length of guitar notes without one
const defaultNoteLength = 0x40

// Lanes lists the note names SQ3 can play. Guitar lanes are the fret mask
// itself with 0 for open.
func Lanes(g model.GameType) map[string]int {
	res := map[string]int{lane.Auto: seqp.AutoLane}
	if g.IsDrum() {
		for i, d := range lane.Drums {
			res[d] = i
		}
		return res
	}
	res[lane.Open(g)] = 0
	for mask := 1; mask < 32; mask++ {
		res[lane.Guitar(g, mask)] = mask
		if mask < 8 {
			res[lane.Guitar3(g, mask)] = mask
		}
	}
	return res
}

func noteName(g model.GameType, b byte) (string, bool) {
	if b == seqp.AutoLane {
		return lane.Auto, true
	}
	if g.IsDrum() {
		if int(b) < len(lane.Drums) {
			return lane.Drums[b], true
		}
		return "", false
	}
	if b >= 32 {
		return "", false
	}
	return lane.Guitar(g, int(b)), true
}

type Codec struct{}

func (Codec) Name() string { return Name }

func (Codec) Detect(header []byte) bool {
	return seqp.Detect(header, ChartMagic, Revision)
}

func u32(b []byte) int { return int(binary.LittleEndian.Uint32(b)) }

type decoder struct {
	p       *model.Params
	bonuses map[int][]event.BonusNote
}

func (dec *decoder) record(rec []byte, g model.GameType) (int, model.Event, error) {
	ts := u32(rec[0x00:0x04])
	name, ok := events[rec[0x04]]
	if !ok {
		return 0, model.Event{}, errs.Formatf("unknown SQ3 command %#02x at timestamp %d", rec[0x04], ts)
	}
	e := model.Event{Name: name, Beat: u32(rec[0x10:0x14])}

	switch rec[0x04] {
	case 0x01:
		micros := binary.LittleEndian.Uint32(rec[0x34:0x38])
		if micros == 0 {
			return 0, e, errs.Formatf("bpm of zero length at timestamp %d", ts)
		}
		e.Data = &model.EventData{BPM: timing.BPMFromMicros(micros)}
	case 0x02:
		e.Data = &model.EventData{
			Numerator:       int(rec[0x34]),
			Denominator:     1 << rec[0x35],
			DenominatorOrig: int(rec[0x35]),
		}
	case 0x07:
		e.Data = &model.EventData{Unk: u32(rec[0x14:0x18])}
	case 0x10:
		d := &model.EventData{
			HoldDuration:  u32(rec[0x08:0x0c]),
			Unk:           u32(rec[0x14:0x18]),
			SoundID:       u32(rec[0x20:0x24]),
			NoteLength:    u32(rec[0x24:0x28]),
			Volume:        int(rec[0x2d]),
			AutoVolume:    int(rec[0x2e]),
			WailMisc:      int(rec[0x31]),
			GuitarSpecial: int(rec[0x32]),
			AutoNote:      int(rec[0x34]),
		}
		note, ok := noteName(g, rec[0x30])
		if !ok {
			dec.p.Report(errs.Mappingf("SQ3 lane %#02x has no %v note, playing it as auto", rec[0x30], g.Part()))
			note = lane.Auto
		}
		d.Note = note
		if d.AutoNote == 1 {
			d.Note = lane.Auto
		}
		for _, b := range dec.bonuses[e.Beat] {
			if b.Matches(g, d.SoundID) {
				d.BonusNote = true
			}
		}
		e.Data = d
	}
	return ts, e, nil
}

func (dec *decoder) chart(data []byte, musicID int) (*model.Chart, error) {
	h, err := seqp.ParseHeader(data, ChartMagic)
	if err != nil {
		return nil, err
	}
	if h.IsMetadata > 1 {
		return nil, nil
	}
	if h.GameType > byte(model.GameGuitar2) {
		return nil, errs.Formatf("SQ3 chart has unknown game type %d", h.GameType)
	}
	size := int(h.EntrySize)
	if size < RecordSize || size > maxRecordSize {
		return nil, errs.Formatf("SQ3 record size %#x is outside %#x-%#x", size, RecordSize, maxRecordSize)
	}
	records, err := h.Records(data, size)
	if err != nil {
		return nil, err
	}

	g := model.GameType(h.GameType)
	t := make(model.Timeline)
	for _, rec := range records {
		ts, e, err := dec.record(rec, g)
		if err != nil {
			return nil, err
		}
		t.Add(ts, e)
	}
	return seqp.NewChart(h, musicID, t), nil
}

// Decode reads every chart. Bonus notes come from the event file named in
// the params, when there is one.
func (Codec) Decode(data []byte, p *model.Params) (*model.Song, error) {
	musicID, blobs, err := seqp.Read(data)
	if err != nil {
		return nil, err
	}

	dec := &decoder{p: p, bonuses: map[int][]event.BonusNote{}}
	if p != nil && p.EventFile != "" {
		raw, err := os.ReadFile(p.EventFile)
		if err != nil {
			p.Report(errs.MissingDataf("could not read event file %v: %v", p.EventFile, err))
		} else if dec.bonuses, err = event.Parse(raw); err != nil {
			return nil, err
		}
	}

	song := &model.Song{MusicID: musicID, Format: Name}
	for _, blob := range blobs {
		c, err := dec.chart(blob, musicID)
		if err != nil {
			return nil, err
		}
		if c != nil {
			song.Charts = append(song.Charts, c)
		}
	}
	return song, nil
}
