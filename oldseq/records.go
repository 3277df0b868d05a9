package oldseq

import (
	"encoding/binary"

	"github.com/jsphweid/seqconv/errs"
	"github.com/jsphweid/seqconv/lane"
	"github.com/jsphweid/seqconv/model"
)

// record is one decoded entry. keep is false for terminators and for
// entries a revision ignores.
type record struct {
	ts    int
	event model.Event
	keep  bool
}

type parser func(rec []byte, g model.GameType, p *model.Params) (record, error)

// guitar commands share one table across every GSQ revision
var guitarEvents = map[uint32]string{
	0x00: model.EventNote,
	0x10: model.EventMeasure,
	0x20: model.EventNote,
	0x40: model.EventNote,
	0x60: model.EventNote,
	0xa0: model.EventEndPos,
}

const (
	cmdWail = 0x20
	cmdOpen = 0x40

	guitarAuto = 0x08
)

func guitarNote(g model.GameType, mask uint32) (string, bool) {
	switch {
	case mask == guitarAuto:
		return lane.Auto, true
	case mask >= 1 && mask <= 7:
		return lane.Guitar3(g, int(mask)), true
	}
	return "", false
}

func guitarRecord(ts int, sound int, cmd, param uint32, g model.GameType, p *model.Params) (record, error) {
	name, ok := guitarEvents[cmd]
	if !ok {
		return record{}, errs.Formatf("unknown GSQ command %#02x at timestamp %d", cmd, ts)
	}
	e := model.Event{Name: name}
	if name != model.EventNote {
		return record{ts: ts, event: e, keep: true}, nil
	}

	d := &model.EventData{SoundID: sound, Volume: 127}
	if cmd&cmdOpen != 0 {
		d.Note = lane.Open(g)
		d.AutoUnk = int(param)
	} else {
		note, ok := guitarNote(g, param&0x0f)
		if !ok {
			p.Report(errs.Mappingf("GSQ lane %#02x has no %v note, playing it as auto", param&0x0f, g.Part()))
			note = lane.Auto
		}
		d.Note = note
	}
	if d.Note == lane.Auto {
		d.AutoNote, d.AutoVolume = 1, 1
	}
	if cmd&cmdWail != 0 {
		d.WailMisc = 1
		d.GuitarSpecial = model.SpecialWail
	}
	e.Data = d
	return record{ts: ts, event: e, keep: true}, nil
}

// parseGSQ8 reads the 8 byte <HHHH> records of GSQ0 and GSQ1. Timestamps
// are stored in units of four.
func parseGSQ8(rec []byte, g model.GameType, p *model.Params) (record, error) {
	ts := binary.LittleEndian.Uint16(rec[0x00:0x02])
	sound := binary.LittleEndian.Uint16(rec[0x02:0x04])
	cmd := uint32(binary.LittleEndian.Uint16(rec[0x06:0x08]))
	if ts == 0xffff {
		return record{}, nil
	}
	return guitarRecord(int(ts)*4, int(sound), cmd&0xf0, cmd&0xff0f, g, p)
}

// parseGSQ15 reads 16 byte <IIII> records.
func parseGSQ15(rec []byte, g model.GameType, p *model.Params) (record, error) {
	ts := binary.LittleEndian.Uint32(rec[0x00:0x04])
	sound := binary.LittleEndian.Uint32(rec[0x04:0x08])
	cmd := binary.LittleEndian.Uint32(rec[0x0c:0x10])
	if ts == 0xffffffff {
		return record{}, nil
	}
	return guitarRecord(int(ts), int(sound), cmd&0xf0, cmd&0xffffff0f, g, p)
}

// parseGSQ3 reads 12 byte <IIHH> records.
func parseGSQ3(rec []byte, g model.GameType, p *model.Params) (record, error) {
	ts := binary.LittleEndian.Uint32(rec[0x00:0x04])
	sound := binary.LittleEndian.Uint16(rec[0x08:0x0a])
	cmd := uint32(binary.LittleEndian.Uint16(rec[0x0a:0x0c]))
	if ts == 0xffffffff {
		return record{}, nil
	}
	return guitarRecord(int(ts), int(sound), cmd&0xf0, cmd&0xff0f, g, p)
}

// drum pads 0x00-0x05 are shared by both DSQ revisions
var drumPads = lane.Drums[:6]

var dsq0Events = map[byte]string{
	0x06: model.EventMeasure,
	0x07: model.EventBeat,
	0x0c: model.EventEndPos,
}

var dsq1Events = map[byte]string{
	0x07: model.EventMeasure,
	0x08: model.EventBeat,
	0x09: model.EventEndPos,
	0x0a: model.EventEndPos,
	0x0b: model.EventEndNotes,
	0x0c: model.EventEndPos,
}

const dsq1Auto = 0x06

func drumEvent(cmd byte, table map[byte]string) model.Event {
	if name, ok := table[cmd]; ok {
		return model.Event{Name: name}
	}
	return model.Event{Name: model.EventUnk, Data: &model.EventData{Unk: int(cmd)}}
}

// parseDSQ0 reads 8 byte <HHBBBB> records. A non-zero visibility byte
// turns the note into an auto note.
func parseDSQ0(rec []byte, _ model.GameType, _ *model.Params) (record, error) {
	ts := int(binary.LittleEndian.Uint16(rec[0x00:0x02])) * 4
	cmd, volume, sound, visibility := rec[0x04], rec[0x05], rec[0x06], rec[0x07]

	if int(cmd) >= len(drumPads) {
		return record{ts: ts, event: drumEvent(cmd, dsq0Events), keep: true}, nil
	}
	switch visibility {
	case 0, 1, 2, 4:
	default:
		return record{}, errs.Formatf("DSQ0 note at timestamp %d has unknown visibility %#02x", ts, visibility)
	}

	d := &model.EventData{SoundID: int(sound), Volume: int(volume), Note: drumPads[cmd]}
	if visibility != 0 {
		d.Note = lane.Auto
		d.AutoNote, d.AutoVolume = 1, 1
	}
	return record{ts: ts, event: model.Event{Name: model.EventNote, Data: d}, keep: true}, nil
}

// parseDSQ1 reads 8 byte <IBBH> records.
func parseDSQ1(rec []byte, _ model.GameType, _ *model.Params) (record, error) {
	ts := int(binary.LittleEndian.Uint32(rec[0x00:0x04])) * 4
	cmd, volume := rec[0x04], rec[0x05]
	sound := binary.LittleEndian.Uint16(rec[0x06:0x08])

	if int(cmd) > dsq1Auto {
		return record{ts: ts, event: drumEvent(cmd, dsq1Events), keep: true}, nil
	}

	d := &model.EventData{SoundID: int(sound), Volume: int(volume)}
	if cmd == dsq1Auto {
		d.Note = lane.Auto
		d.AutoNote, d.AutoVolume = 1, 1
	} else {
		d.Note = drumPads[cmd]
	}
	return record{ts: ts, event: model.Event{Name: model.EventNote, Data: d}, keep: true}, nil
}
