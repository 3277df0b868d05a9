package sq3

import (
	"encoding/binary"
	"fmt"

	"github.com/jsphweid/seqconv/chart"
	"github.com/jsphweid/seqconv/errs"
	"github.com/jsphweid/seqconv/event"
	"github.com/jsphweid/seqconv/model"
	"github.com/jsphweid/seqconv/seqp"
	"github.com/jsphweid/seqconv/timing"
)

var noteEvents = map[string]bool{
	model.EventChipStart: true,
	model.EventChipEnd:   true,
	model.EventStartPos:  true,
	model.EventEndPos:    true,
	model.EventNote:      true,
	model.EventAuto:      true,
}

var metadataEvents = map[string]bool{
	model.EventBPM:      true,
	model.EventBarInfo:  true,
	model.EventBarOn:    true,
	model.EventBarOff:   true,
	model.EventMeasure:  true,
	model.EventBeat:     true,
	model.EventUnk0C:    true,
	model.EventStartPos: true,
	model.EventEndPos:   true,
}

func EventFilename(musicID int) string {
	return fmt.Sprintf("event%04d.ev2", musicID)
}

func put32(b []byte, v int) {
	binary.LittleEndian.PutUint32(b, uint32(v))
}

func record(ev seqp.Timed, g model.GameType, lanes map[string]int) ([]byte, error) {
	e := ev.Event
	d := e.D()
	rec := make([]byte, RecordSize)
	put32(rec[0x00:0x04], ev.Timestamp)
	rec[0x04] = commands[e.Name]
	put32(rec[0x10:0x14], e.Beat)

	switch e.Name {
	case model.EventBPM:
		if d.BPM <= 0 {
			return nil, errs.Encodef("bpm %v at timestamp %d can not be stored", d.BPM, ev.Timestamp)
		}
		binary.LittleEndian.PutUint32(rec[0x34:0x38], timing.MicrosPerBeat(d.BPM))
	case model.EventBarInfo:
		bits, err := seqp.DenominatorBits(timing.TimeSig{Numerator: d.Numerator, Denominator: d.Denominator})
		if err != nil {
			return nil, err
		}
		rec[0x34] = byte(d.Numerator)
		rec[0x35] = bits
	case model.EventChipStart:
		put32(rec[0x14:0x18], d.Unk)
	case model.EventNote, model.EventAuto:
		put32(rec[0x08:0x0c], d.HoldDuration)
		unk := d.Unk
		if unk == 0 {
			unk = defaultNoteUnk
		}
		put32(rec[0x14:0x18], unk)
		put32(rec[0x20:0x24], d.SoundID)
		if !g.IsDrum() {
			length := d.NoteLength
			if length == 0 {
				length = defaultNoteLength
			}
			put32(rec[0x24:0x28], length)
		}
		rec[0x2d] = byte(d.Volume)
		rec[0x2e] = byte(d.AutoVolume)
		rec[0x31] = byte(d.WailMisc)
		rec[0x32] = byte(d.GuitarSpecial)
		rec[0x34] = byte(d.AutoNote)

		l, ok := lanes[d.Note]
		if !ok || e.Name == model.EventAuto {
			l = seqp.AutoLane
		}
		rec[0x30] = byte(l)
		if l == seqp.AutoLane {
			rec[0x34] = 1
			rec[0x2e] = 1
		}
	}
	return rec, nil
}

func encodeChart(c *model.Chart) ([]byte, error) {
	allowed := noteEvents
	if c.Header.IsMetadata {
		allowed = metadataEvents
	}
	g := c.Header.GameType
	lanes := Lanes(g)

	var body []byte
	selected := seqp.Select(c, allowed)
	for _, ev := range selected {
		rec, err := record(ev, g, lanes)
		if err != nil {
			return nil, err
		}
		body = append(body, rec...)
	}

	h := seqp.Header{
		Magic:        ChartMagic,
		Flag06:       Revision,
		Flag0A:       0x03,
		Count:        len(selected),
		UnkSys:       byte(c.Header.UnkSys),
		GameType:     byte(g),
		Difficulty:   byte(c.Header.Difficulty),
		TimeDivision: uint16(c.Header.TimeDivision),
		BeatDivision: uint16(c.Header.BeatDivision),
		EntrySize:    RecordSize,
	}
	if h.TimeDivision == 0 {
		h.TimeDivision = timing.TimeDivision
	}
	if h.BeatDivision == 0 {
		h.BeatDivision = timing.BeatDivision
	}
	if c.Header.IsMetadata {
		h.IsMetadata, h.Difficulty = 1, 1
	}
	return append(h.Bytes(), body...), nil
}

// Encode writes the drum and guitar sets and the event file holding the
// bonus notes of the drum charts.
func (Codec) Encode(song *model.Song, p *model.Params) ([]model.OutputFile, error) {
	groups, err := seqp.Groups(song, Lanes, p)
	if err != nil {
		return nil, err
	}

	var res []model.OutputFile
	var drums []*model.Chart
	for _, group := range groups {
		if group.Prefix == "d" {
			drums = append(drums, group.Charts...)
		}

		// the metadata chart carries beats too
		meta := group.Metadata.Clone()
		chart.AnnotateBeats(meta.Timestamp)
		blob, err := encodeChart(meta)
		if err != nil {
			return nil, err
		}
		blobs := [][]byte{blob}
		for _, c := range group.Charts {
			blob, err := encodeChart(c)
			if err != nil {
				return nil, err
			}
			blobs = append(blobs, blob)
		}
		res = append(res, model.OutputFile{
			Name: group.Filename(song.MusicID, Ext),
			Data: seqp.Write(seqp.LayoutSQ3, song.MusicID, blobs),
		})
	}

	ev, err := event.Build(song.MusicID, event.Collect(drums))
	if err != nil {
		return nil, err
	}
	res = append(res, model.OutputFile{Name: EventFilename(song.MusicID), Data: ev})
	return res, nil
}
