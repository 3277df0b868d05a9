// Package sq2 reads and writes SQ2 sequences: a SEQP container of SEQT
// charts made of 0x10 byte records.
package sq2

import (
	"encoding/binary"

	"github.com/jsphweid/seqconv/errs"
	"github.com/jsphweid/seqconv/lane"
	"github.com/jsphweid/seqconv/model"
	"github.com/jsphweid/seqconv/seqp"
	"github.com/jsphweid/seqconv/timing"
)

const (
	Name       = "SQ2"
	Ext        = "sq2"
	ChartMagic = "SEQT"
	Revision   = 0x02
	RecordSize = 0x10
)

var events = map[byte]string{
	0x00: model.EventNote,
	0x01: model.EventAuto,
	0x10: model.EventBPM,
	0x20: model.EventBarInfo,
	0x30: model.EventBarOn,
	0x40: model.EventBarOff,
	0x50: model.EventMeasure,
	0x60: model.EventBeat,
	0x70: model.EventChipStart,
	0x80: model.EventChipEnd,
	0xe0: model.EventStartPos,
	0xf0: model.EventEndPos,
}

var commands = func() map[string]byte {
	res := make(map[string]byte, len(events)+1)
	for k, v := range events {
		res[v] = k
	}
	// metadata charts keep unknown note records as meta events
	res[model.EventMeta] = 0x00
	return res
}()

const (
	laneOpen = 0x10
	laneWail = 0x20
)

// drums stops at the right cymbal; the other pads did not exist yet
var drums = lane.Drums[:6]

// Lanes lists the note names SQ2 can play for a game type.
func Lanes(g model.GameType) map[string]int {
	res := map[string]int{lane.Auto: seqp.AutoLane}
	if g.IsDrum() {
		for i, d := range drums {
			res[d] = i
		}
		return res
	}
	res[lane.Open(g)] = laneOpen
	for mask := 1; mask < 8; mask++ {
		res[lane.Guitar3(g, mask)] = mask
		res[lane.Guitar(g, mask)] = mask
	}
	return res
}

func noteName(g model.GameType, b byte) (string, bool) {
	if g.IsDrum() {
		if b == seqp.AutoLane {
			return lane.Auto, true
		}
		if int(b) < len(drums) {
			return drums[b], true
		}
		return "", false
	}
	if b&laneOpen != 0 {
		return lane.Open(g), true
	}
	mask := int(b & 0x0f)
	if mask == 0 || mask > 7 {
		return "", false
	}
	return lane.Guitar3(g, mask), true
}

type Codec struct{}

func (Codec) Name() string { return Name }

func (Codec) Detect(header []byte) bool {
	return seqp.Detect(header, ChartMagic, Revision)
}

func u32(b []byte) uint32 { return binary.LittleEndian.Uint32(b) }
func u16(b []byte) uint16 { return binary.LittleEndian.Uint16(b) }

func parseRecord(rec []byte, g model.GameType, isMetadata bool, p *model.Params) (int, model.Event, error) {
	ts := int(u32(rec[0x00:0x04]))
	name, ok := events[rec[0x05]]
	if !ok {
		return 0, model.Event{}, errs.Formatf("unknown SQ2 command %#02x at timestamp %d", rec[0x05], ts)
	}
	e := model.Event{Name: name}

	switch rec[0x05] {
	case 0x10:
		micros := u32(rec[0x08:0x0c])
		if micros == 0 {
			return 0, e, errs.Formatf("bpm of zero length at timestamp %d", ts)
		}
		e.Data = &model.EventData{BPM: timing.BPMFromMicros(micros)}
	case 0x20:
		e.Data = &model.EventData{
			Numerator:       int(rec[0x0c]),
			Denominator:     1 << rec[0x0d],
			DenominatorOrig: int(rec[0x0d]),
		}
	case 0x00:
		d := &model.EventData{
			SoundID:  int(u16(rec[0x08:0x0a])),
			SoundUnk: int(u16(rec[0x0a:0x0c])),
			Volume:   int(rec[0x0c]),
		}
		if isMetadata {
			e.Name = model.EventMeta
			e.Data = d
			break
		}
		note, ok := noteName(g, rec[0x04])
		if !ok {
			p.Report(errs.Mappingf("SQ2 lane %#02x has no %v note, playing it as auto", rec[0x04], g.Part()))
			note = lane.Auto
			d.AutoNote, d.AutoVolume = 1, 1
		}
		d.Note = note
		if rec[0x04]&laneWail != 0 && !g.IsDrum() {
			d.WailMisc = 1
			d.GuitarSpecial = model.SpecialWail
		}
		e.Data = d
	case 0x01:
		e.Name = model.EventNote
		e.Data = &model.EventData{
			SoundID:    int(u16(rec[0x08:0x0a])),
			SoundUnk:   int(u16(rec[0x0a:0x0c])),
			Volume:     int(rec[0x0c]),
			Note:       lane.Auto,
			AutoNote:   1,
			AutoVolume: 1,
		}
	}
	return ts, e, nil
}

func parseChart(data []byte, musicID int, p *model.Params) (*model.Chart, error) {
	h, err := seqp.ParseHeader(data, ChartMagic)
	if err != nil {
		return nil, err
	}
	// only metadata and note charts are understood
	if h.IsMetadata > 1 {
		return nil, nil
	}
	if h.GameType > byte(model.GameOpen) {
		return nil, errs.Formatf("SQ2 chart has unknown game type %d", h.GameType)
	}
	h.TimeDivision, h.BeatDivision = 0, 0

	records, err := h.Records(data, RecordSize)
	if err != nil {
		return nil, err
	}

	g := model.GameType(h.GameType)
	t := make(model.Timeline)
	for _, rec := range records {
		ts, e, err := parseRecord(rec, g, h.IsMetadata == 1, p)
		if err != nil {
			return nil, err
		}
		t.Add(ts, e)
	}
	return seqp.NewChart(h, musicID, t), nil
}

func (Codec) Decode(data []byte, p *model.Params) (*model.Song, error) {
	musicID, blobs, err := seqp.Read(data)
	if err != nil {
		return nil, err
	}

	song := &model.Song{MusicID: musicID, Format: Name}
	for _, blob := range blobs {
		c, err := parseChart(blob, musicID, p)
		if err != nil {
			return nil, err
		}
		if c != nil {
			song.Charts = append(song.Charts, c)
		}
	}
	return song, nil
}

// ClassicLevels marks SQ2 songs as taking their levels from the classics
// columns of the music database.
func (Codec) ClassicLevels() bool { return true }
