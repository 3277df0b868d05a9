package sq2

import (
	"encoding/binary"
	"fmt"
	"sort"
	"testing"

	"github.com/jsphweid/seqconv/model"
	"github.com/jsphweid/seqconv/seqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type rec struct {
	ts    uint32
	lane  byte
	cmd   byte
	arg32 uint32
	sound uint16
	vol   byte
	num   byte
	den   byte
}

func (r rec) bytes() []byte {
	b := make([]byte, RecordSize)
	binary.LittleEndian.PutUint32(b[0:4], r.ts)
	b[0x04] = r.lane
	b[0x05] = r.cmd
	if r.arg32 != 0 {
		binary.LittleEndian.PutUint32(b[0x08:0x0c], r.arg32)
	} else {
		binary.LittleEndian.PutUint16(b[0x08:0x0a], r.sound)
	}
	if r.cmd == 0x20 {
		b[0x0c], b[0x0d] = r.num, r.den
	} else {
		b[0x0c] = r.vol
	}
	return b
}

func chartBlob(meta bool, game model.GameType, difficulty byte, recs ...rec) []byte {
	h := seqp.Header{Magic: ChartMagic, Flag06: Revision, Flag0A: 1, Count: len(recs), GameType: byte(game), Difficulty: difficulty}
	if meta {
		h.IsMetadata = 1
	}
	out := h.Bytes()
	for _, r := range recs {
		out = append(out, r.bytes()...)
	}
	return out
}

func sampleFile() []byte {
	meta := chartBlob(true, model.GameDrum, 1,
		rec{ts: 0, cmd: 0xe0},
		rec{ts: 0, cmd: 0x10, arg32: 500000},
		rec{ts: 0, cmd: 0x20, num: 4, den: 2},
		rec{ts: 0, cmd: 0x50},
		rec{ts: 150, cmd: 0x60},
		rec{ts: 600, cmd: 0x50},
		rec{ts: 900, cmd: 0xf0},
	)
	drums := chartBlob(false, model.GameDrum, 4,
		rec{ts: 0, cmd: 0xe0},
		rec{ts: 0, cmd: 0x00, lane: 0x01, sound: 12, vol: 100},
		rec{ts: 150, cmd: 0x01, sound: 13, vol: 90},
		rec{ts: 300, cmd: 0x00, lane: 0x05, sound: 14, vol: 127},
		rec{ts: 900, cmd: 0xf0},
	)
	guitar := chartBlob(false, model.GameGuitar, 2,
		rec{ts: 0, cmd: 0xe0},
		rec{ts: 300, cmd: 0x00, lane: 0x03 | laneWail, sound: 20, vol: 80},
		rec{ts: 450, cmd: 0x00, lane: laneOpen, sound: 21, vol: 80},
		rec{ts: 900, cmd: 0xf0},
	)
	return seqp.Write(seqp.LayoutSQ2, 77, [][]byte{meta, drums, guitar})
}

// notes lists what a round trip must keep: key, kind, note and sound.
func notes(c *model.Chart) []string {
	var res []string
	for _, k := range c.Timestamp.Keys() {
		var at []string
		for _, e := range c.Timestamp[k] {
			name := e.Name
			if e.IsAutoNote() {
				name = model.EventAuto
			}
			at = append(at, fmt.Sprintf("%d %s %s %d", k, name, e.D().Note, e.D().SoundID))
		}
		sort.Strings(at)
		res = append(res, at...)
	}
	return res
}

func TestDetect(t *testing.T) {
	assert := assert.New(t)
	data := sampleFile()
	assert.True(Codec{}.Detect(data[:0x40]))
	data[0x36] = 0x03
	assert.False(Codec{}.Detect(data[:0x40]))
}

func TestDecodeMinimal(t *testing.T) {
	assert := assert.New(t)
	meta := chartBlob(true, model.GameDrum, 1,
		rec{ts: 0, cmd: 0x10, arg32: 500000},
		rec{ts: 0, cmd: 0x20, num: 4, den: 2},
	)
	drum := chartBlob(false, model.GameDrum, 0, rec{ts: 0, cmd: 0x00, lane: 0x00, sound: 1, vol: 100})
	song, err := Codec{}.Decode(seqp.Write(seqp.LayoutSQ2, 1, [][]byte{meta, drum}), &model.Params{})
	require.Nil(t, err)

	assert.Equal(2, len(song.Charts))
	assert.True(song.Charts[0].Header.IsMetadata)
	assert.Equal(120.0, song.Charts[0].Timestamp[0][1].Data.BPM)

	var note *model.Event
	for i, e := range song.Charts[1].Timestamp[0] {
		if e.IsNote() {
			note = &song.Charts[1].Timestamp[0][i]
		}
	}
	require.NotNil(t, note)
	assert.NotEqual("auto", note.Data.Note)
	assert.Equal("hihat", note.Data.Note)
	assert.True(note.Data.Volume >= 0 && note.Data.Volume <= 127)
	assert.Equal(1, song.Charts[1].Timestamp.Count(model.EventStartPos))
	assert.Equal(1, song.Charts[1].Timestamp.Count(model.EventEndPos))
}

func TestDecodeNotes(t *testing.T) {
	assert := assert.New(t)
	song, err := Codec{}.Decode(sampleFile(), &model.Params{})
	require.Nil(t, err)
	require.Equal(t, 3, len(song.Charts))
	assert.Equal(77, song.MusicID)

	drums := song.Charts[1].Timestamp
	assert.Equal("snare", drums[0][1].Data.Note)
	assert.Equal(1, drums[150][0].Data.AutoNote)
	assert.Equal("rightcymbal", drums[300][0].Data.Note)

	guitar := song.Charts[2].Timestamp
	assert.Equal("g_rgx", guitar[300][0].Data.Note)
	assert.Equal(model.SpecialWail, guitar[300][0].Data.GuitarSpecial)
	assert.Equal("g_open", guitar[450][0].Data.Note)
}

func TestDecodeErrors(t *testing.T) {
	assert := assert.New(t)

	t.Run("bad magic", func(t *testing.T) {
		_, err := Codec{}.Decode([]byte("NOPE0000000000000000000000000000"), &model.Params{})
		assert.NotNil(err)
	})

	t.Run("truncated records", func(t *testing.T) {
		blob := chartBlob(false, model.GameDrum, 0, rec{ts: 0, cmd: 0x00})
		binary.LittleEndian.PutUint32(blob[0x10:0x14], 5)
		_, err := Codec{}.Decode(seqp.Write(seqp.LayoutSQ2, 1, [][]byte{blob}), &model.Params{})
		assert.NotNil(err)
	})

	t.Run("unknown lane degrades to auto", func(t *testing.T) {
		var warnings []error
		blob := chartBlob(false, model.GameDrum, 0, rec{ts: 0, cmd: 0x00, lane: 0x07})
		song, err := Codec{}.Decode(seqp.Write(seqp.LayoutSQ2, 1, [][]byte{blob}), &model.Params{Warn: func(err error) { warnings = append(warnings, err) }})
		assert.Nil(err)
		assert.Equal(1, len(warnings))
		assert.True(song.Charts[0].Timestamp[0][1].IsAutoNote())
	})
}

func TestRoundTrip(t *testing.T) {
	assert := assert.New(t)
	p := &model.Params{}
	first, err := Codec{}.Decode(sampleFile(), p)
	require.Nil(t, err)

	files, err := Codec{}.Encode(first, p)
	require.Nil(t, err)
	require.Equal(t, 2, len(files))
	assert.Equal("d0077.sq2", files[0].Name)
	assert.Equal("g0077.sq2", files[1].Name)

	drum, err := Codec{}.Decode(files[0].Data, p)
	require.Nil(t, err)
	guitar, err := Codec{}.Decode(files[1].Data, p)
	require.Nil(t, err)

	require.Equal(t, 2, len(drum.Charts))
	require.Equal(t, 2, len(guitar.Charts))
	assert.Equal(notes(first.Charts[1]), notes(drum.Charts[1]))
	assert.Equal(notes(first.Charts[2]), notes(guitar.Charts[1]))

	bpm := drum.Charts[0].Timestamp[0]
	for _, e := range bpm {
		if e.Name == model.EventBPM {
			assert.InDelta(120.0, e.Data.BPM, 1.0/60000000*120*120)
		}
	}
}

func TestEncodeWithoutMetadata(t *testing.T) {
	song := &model.Song{Charts: []*model.Chart{model.NewChart(model.NewHeader(model.GameDrum, 0, false))}}
	_, err := Codec{}.Encode(song, &model.Params{})
	assert.NotNil(t, err)
}
