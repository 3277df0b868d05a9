package sq3

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/jsphweid/seqconv/errs"
	"github.com/jsphweid/seqconv/event"
	"github.com/jsphweid/seqconv/model"
	"github.com/jsphweid/seqconv/seqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type rec struct {
	ts, beat, hold, sound, length int
	cmd, lane, vol, auto         byte
	bpm                          uint32
	num, den                     byte
}

func (r rec) bytes() []byte {
	b := make([]byte, RecordSize)
	binary.LittleEndian.PutUint32(b[0x00:0x04], uint32(r.ts))
	b[0x04] = r.cmd
	binary.LittleEndian.PutUint32(b[0x08:0x0c], uint32(r.hold))
	binary.LittleEndian.PutUint32(b[0x10:0x14], uint32(r.beat))
	binary.LittleEndian.PutUint32(b[0x20:0x24], uint32(r.sound))
	binary.LittleEndian.PutUint32(b[0x24:0x28], uint32(r.length))
	b[0x2d] = r.vol
	b[0x30] = r.lane
	switch r.cmd {
	case 0x01:
		binary.LittleEndian.PutUint32(b[0x34:0x38], r.bpm)
	case 0x02:
		b[0x34], b[0x35] = r.num, r.den
	default:
		b[0x34] = r.auto
	}
	return b
}

func chartBlob(meta bool, game model.GameType, difficulty byte, recs ...rec) []byte {
	h := seqp.Header{
		Magic: ChartMagic, Flag06: Revision, Flag0A: 3, Count: len(recs),
		GameType: byte(game), Difficulty: difficulty,
		TimeDivision: 300, BeatDivision: 480, EntrySize: RecordSize,
	}
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
		rec{ts: 0, cmd: 0x0e},
		rec{ts: 0, cmd: 0x01, bpm: 500000},
		rec{ts: 0, cmd: 0x02, num: 4, den: 2},
		rec{ts: 0, cmd: 0x05},
		rec{ts: 150, cmd: 0x06, beat: 480},
		rec{ts: 600, cmd: 0x05, beat: 1920},
		rec{ts: 900, cmd: 0x0f, beat: 2880},
	)
	drums := chartBlob(false, model.GameDrum, 3,
		rec{ts: 0, cmd: 0x0e},
		rec{ts: 0, cmd: 0x10, lane: 0x06, sound: 40, vol: 100},
		rec{ts: 150, cmd: 0x10, beat: 480, lane: 0x08, sound: 41, vol: 90},
		rec{ts: 300, cmd: 0x10, beat: 960, lane: 0xff, sound: 42, vol: 90, auto: 1},
		rec{ts: 900, cmd: 0x0f, beat: 2880},
	)
	guitar := chartBlob(false, model.GameGuitar, 2,
		rec{ts: 0, cmd: 0x0e},
		rec{ts: 300, cmd: 0x10, beat: 960, lane: 0x19, sound: 50, vol: 80, hold: 150, length: 90},
		rec{ts: 450, cmd: 0x10, beat: 1440, lane: 0x00, sound: 51, vol: 80},
		rec{ts: 900, cmd: 0x0f, beat: 2880},
	)
	return seqp.Write(seqp.LayoutSQ3, 1852, [][]byte{meta, drums, guitar})
}

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
	copy(data[0x30:0x34], "SEQT")
	assert.False(Codec{}.Detect(data[:0x40]))
}

func TestDecode(t *testing.T) {
	assert := assert.New(t)
	song, err := Codec{}.Decode(sampleFile(), &model.Params{})
	require.Nil(t, err)
	require.Equal(t, 3, len(song.Charts))
	assert.Equal(1852, song.MusicID)

	drums := song.Charts[1].Timestamp
	assert.Equal("leftcymbal", drums[0][1].Data.Note)
	assert.Equal("leftpedal", drums[150][0].Data.Note)
	assert.Equal(480, drums[150][0].Beat)
	assert.Equal("auto", drums[300][0].Data.Note)

	guitar := song.Charts[2].Timestamp
	assert.Equal("g_rxxyp", guitar[300][0].Data.Note)
	assert.Equal(150, guitar[300][0].Data.HoldDuration)
	assert.Equal(90, guitar[300][0].Data.NoteLength)
	assert.Equal("g_open", guitar[450][0].Data.Note)
}

func TestDecodeBonusNotes(t *testing.T) {
	assert := assert.New(t)
	ev, err := event.Build(1852, []event.BonusNote{{GameType: event.GameTypeDrum, Time: 480, Note: 41, GameLevel: 8}})
	require.Nil(t, err)
	path := filepath.Join(t.TempDir(), "event1852.ev2")
	require.Nil(t, os.WriteFile(path, ev, 0644))

	song, err := Codec{}.Decode(sampleFile(), &model.Params{EventFile: path})
	require.Nil(t, err)
	assert.True(song.Charts[1].Timestamp[150][0].Data.BonusNote)
	assert.False(song.Charts[1].Timestamp[0][1].Data.BonusNote)
}

func TestRoundTrip(t *testing.T) {
	assert := assert.New(t)
	p := &model.Params{}
	first, err := Codec{}.Decode(sampleFile(), p)
	require.Nil(t, err)
	first.Charts[1].Timestamp[150][0].Data.BonusNote = true

	files, err := Codec{}.Encode(first, p)
	require.Nil(t, err)
	require.Equal(t, 3, len(files))
	assert.Equal("d1852.sq3", files[0].Name)
	assert.Equal("g1852.sq3", files[1].Name)
	assert.Equal("event1852.ev2", files[2].Name)

	bonuses, err := event.Parse(files[2].Data)
	require.Nil(t, err)
	assert.Equal([]event.BonusNote{{GameType: event.GameTypeDrum, Time: 480, Note: 41, GameLevel: 1 << 3}}, bonuses[480])

	drum, err := Codec{}.Decode(files[0].Data, p)
	require.Nil(t, err)
	guitar, err := Codec{}.Decode(files[1].Data, p)
	require.Nil(t, err)
	assert.Equal(notes(first.Charts[1]), notes(drum.Charts[1]))
	assert.Equal(notes(first.Charts[2]), notes(guitar.Charts[1]))

	held := guitar.Charts[1].Timestamp[300][0]
	assert.Equal(150, held.Data.HoldDuration)
	assert.Equal(960, held.Beat)
}

func TestUnknownCommand(t *testing.T) {
	blob := chartBlob(false, model.GameDrum, 0, rec{ts: 0, cmd: 0x7f})
	_, err := Codec{}.Decode(seqp.Write(seqp.LayoutSQ3, 1, [][]byte{blob}), &model.Params{})
	assert.NotNil(t, err)
}

func TestCorruptRecordCounts(t *testing.T) {
	cases := []struct {
		name       string
		count      uint32
		recordSize uint32
	}{
		{"count and size overflow", 0xffffffff, 0xffffffff},
		{"count past the data", 0xffffffff, RecordSize},
		{"oversized records", 1, 0x10000},
		{"undersized records", 1, 0x10},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			blob := chartBlob(false, model.GameDrum, 0, rec{ts: 0, cmd: 0x00})
			binary.LittleEndian.PutUint32(blob[0x10:0x14], c.count)
			binary.LittleEndian.PutUint32(blob[0x1c:0x20], c.recordSize)

			_, err := Codec{}.Decode(seqp.Write(seqp.LayoutSQ3, 1, [][]byte{blob}), &model.Params{})
			assert.True(t, errs.Is(err, errs.Format), "%v", err)
		})
	}
}
