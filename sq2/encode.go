package sq2

import (
	"encoding/binary"

	"github.com/jsphweid/seqconv/errs"
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
	model.EventMeta:     true,
	model.EventBPM:      true,
	model.EventBarInfo:  true,
	model.EventBarOn:    true,
	model.EventBarOff:   true,
	model.EventMeasure:  true,
	model.EventBeat:     true,
	model.EventStartPos: true,
	model.EventEndPos:   true,
}

func record(ev seqp.Timed, lanes map[string]int) ([]byte, error) {
	e := ev.Event
	d := e.D()
	rec := make([]byte, RecordSize)
	binary.LittleEndian.PutUint32(rec[0x00:0x04], uint32(ev.Timestamp))
	rec[0x05] = commands[e.Name]

	switch e.Name {
	case model.EventBPM:
		if d.BPM <= 0 {
			return nil, errs.Encodef("bpm %v at timestamp %d can not be stored", d.BPM, ev.Timestamp)
		}
		binary.LittleEndian.PutUint32(rec[0x08:0x0c], timing.MicrosPerBeat(d.BPM))
	case model.EventBarInfo:
		bits, err := seqp.DenominatorBits(timing.TimeSig{Numerator: d.Numerator, Denominator: d.Denominator})
		if err != nil {
			return nil, err
		}
		rec[0x0c] = byte(d.Numerator)
		rec[0x0d] = bits
	case model.EventNote, model.EventAuto:
		binary.LittleEndian.PutUint16(rec[0x08:0x0a], uint16(d.SoundID))
		binary.LittleEndian.PutUint16(rec[0x0a:0x0c], uint16(d.SoundUnk))
		rec[0x0c] = byte(d.Volume)
		if e.Name == model.EventAuto {
			rec[0x05] = commands[model.EventAuto]
			break
		}
		l := lanes[d.Note]
		if d.GuitarSpecial&model.SpecialWail != 0 || d.WailMisc != 0 {
			l |= laneWail
		}
		rec[0x04] = byte(l)
	}
	return rec, nil
}

func encodeChart(c *model.Chart, g model.GameType) ([]byte, error) {
	allowed := noteEvents
	if c.Header.IsMetadata {
		allowed = metadataEvents
	}
	lanes := Lanes(g)

	var body []byte
	selected := seqp.Select(c, allowed)
	for _, ev := range selected {
		rec, err := record(ev, lanes)
		if err != nil {
			return nil, err
		}
		body = append(body, rec...)
	}

	h := seqp.Header{
		Magic:      ChartMagic,
		Flag06:     Revision,
		Flag0A:     0x01,
		Count:      len(selected),
		UnkSys:     byte(c.Header.UnkSys),
		GameType:   byte(c.Header.GameType),
		Difficulty: byte(c.Header.Difficulty),
	}
	if c.Header.IsMetadata {
		h.IsMetadata, h.Difficulty = 1, 1
	}
	return append(h.Bytes(), body...), nil
}

// Encode writes one file for the drum charts and one for the guitar, bass
// and open charts, each led by the metadata chart.
func (Codec) Encode(song *model.Song, p *model.Params) ([]model.OutputFile, error) {
	groups, err := seqp.Groups(song, Lanes, p)
	if err != nil {
		return nil, err
	}

	var res []model.OutputFile
	for _, group := range groups {
		meta, err := encodeChart(group.Metadata, group.Metadata.Header.GameType)
		if err != nil {
			return nil, err
		}
		blobs := [][]byte{meta}
		for _, c := range group.Charts {
			blob, err := encodeChart(c, c.Header.GameType)
			if err != nil {
				return nil, err
			}
			blobs = append(blobs, blob)
		}
		res = append(res, model.OutputFile{
			Name: group.Filename(song.MusicID, Ext),
			Data: seqp.Write(seqp.LayoutSQ2, song.MusicID, blobs),
		})
	}
	return res, nil
}
