package oldseq

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/jsphweid/seqconv/errs"
	"github.com/jsphweid/seqconv/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gsq8(ts, sound, param, cmd uint16) []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint16(b[0:2], ts)
	binary.LittleEndian.PutUint16(b[2:4], sound)
	binary.LittleEndian.PutUint16(b[4:6], param)
	binary.LittleEndian.PutUint16(b[6:8], cmd)
	return b
}

func dsq1(ts uint32, cmd, vol byte, sound uint16) []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint32(b[0:4], ts)
	b[4], b[5] = cmd, vol
	binary.LittleEndian.PutUint16(b[6:8], sound)
	return b
}

func join(recs ...[]byte) []byte {
	var out []byte
	for _, r := range recs {
		out = append(out, r...)
	}
	return out
}

func find(t model.Timeline, ts int, name string) *model.Event {
	for i := range t[ts] {
		if t[ts][i].Name == name {
			return &t[ts][i]
		}
	}
	return nil
}

func writeFile(t *testing.T, dir, name string, data []byte) string {
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestDecodeGSQ1(t *testing.T) {
	assert := assert.New(t)
	dir := t.TempDir()

	guitar := join(
		gsq8(0, 0, 42, 0x10),
		gsq8(75, 5, 0, 0x03),
		gsq8(150, 0, 0, 0x10),
		gsq8(150, 6, 0, 0x20|0x01),
		gsq8(225, 7, 0, 0x40),
		gsq8(300, 0, 0, 0x10),
		gsq8(450, 0, 0, 0x10),
		gsq8(450, 0, 0, 0xa0),
		gsq8(0xffff, 0, 0, 0),
	)
	bass := join(
		gsq8(0, 0, 42, 0x10),
		gsq8(75, 8, 0, 0x03),
		gsq8(150, 9, 0, 0x08),
		gsq8(450, 0, 0, 0xa0),
	)

	p := &model.Params{InputSplit: map[string]map[string]string{
		"guitar": {"mst": writeFile(t, dir, "g.bin", guitar)},
		"bass":   {"ext": writeFile(t, dir, "b.bin", bass)},
	}}
	song, err := Codec{GSQ1}.Decode(nil, p)
	require.NoError(t, err)

	assert.Equal(42, song.MusicID)
	assert.Equal("GSQ1", song.Format)
	require.Len(t, song.Charts, 3)

	meta := song.Charts[0]
	assert.True(meta.Header.IsMetadata)
	bpm := find(meta.Timestamp, 0, model.EventBPM)
	require.NotNil(t, bpm)
	assert.Equal(120.0, bpm.Data.BPM)
	assert.Equal(1, meta.Timestamp.Count(model.EventBPM))
	assert.NotNil(find(meta.Timestamp, 0, model.EventBarInfo))
	assert.NotNil(find(meta.Timestamp, 0, model.EventStartPos))
	assert.NotNil(find(meta.Timestamp, 1800, model.EventEndPos))
	assert.Equal(4, meta.Timestamp.Count(model.EventMeasure))

	g := song.Charts[1]
	assert.Equal(model.GameGuitar, g.Header.GameType)
	assert.Equal(4, g.Header.Difficulty)
	assert.Equal(0, g.Timestamp.Count(model.EventMeasure))
	assert.NotNil(find(g.Timestamp, 0, model.EventChipStart))

	n := find(g.Timestamp, 300, model.EventNote)
	require.NotNil(t, n)
	assert.Equal("g_rgx", n.Data.Note)
	assert.Equal(5, n.Data.SoundID)
	assert.Equal(127, n.Data.Volume)

	wail := find(g.Timestamp, 600, model.EventNote)
	require.NotNil(t, wail)
	assert.Equal("g_rxx", wail.Data.Note)
	assert.Equal(1, wail.Data.WailMisc)
	assert.Equal(model.SpecialWail, wail.Data.GuitarSpecial)

	open := find(g.Timestamp, 900, model.EventNote)
	require.NotNil(t, open)
	assert.Equal("g_open", open.Data.Note)

	b := song.Charts[2]
	assert.Equal(model.GameBass, b.Header.GameType)
	assert.Equal(3, b.Header.Difficulty)
	assert.Equal("b_rgx", find(b.Timestamp, 300, model.EventNote).Data.Note)
	auto := find(b.Timestamp, 600, model.EventNote)
	require.NotNil(t, auto)
	assert.True(auto.IsAutoNote())
}

func TestDecodeDSQ1SingleFile(t *testing.T) {
	assert := assert.New(t)

	data := join(
		dsq1(0, 0x07, 0, 0),
		dsq1(0, 0x08, 0, 0),
		dsq1(75, 0x08, 0, 0),
		dsq1(75, 0x01, 100, 9),
		dsq1(150, 0x06, 80, 10),
		dsq1(150, 0x20, 0, 0),
		dsq1(300, 0x0c, 0, 0),
	)
	p := &model.Params{MusicID: 5, Parts: []string{"drum"}, Difficulty: []string{"ext"}}
	song, err := Codec{DSQ1}.Decode(data, p)
	require.NoError(t, err)
	require.Len(t, song.Charts, 2)
	assert.Equal(5, song.MusicID)

	meta := song.Charts[0].Timestamp
	measure := find(meta, 0, model.EventMeasure)
	require.NotNil(t, measure)
	assert.True(measure.Data.MergedBeat)
	assert.Nil(find(meta, 0, model.EventBeat))
	assert.NotNil(find(meta, 300, model.EventBeat))
	assert.Equal(120.0, find(meta, 0, model.EventBPM).Data.BPM)

	drums := song.Charts[1]
	assert.Equal(model.GameDrum, drums.Header.GameType)
	assert.Equal(3, drums.Header.Difficulty)

	snare := find(drums.Timestamp, 300, model.EventNote)
	require.NotNil(t, snare)
	assert.Equal("snare", snare.Data.Note)
	assert.Equal(100, snare.Data.Volume)
	assert.Equal(9, snare.Data.SoundID)

	auto := find(drums.Timestamp, 600, model.EventNote)
	require.NotNil(t, auto)
	assert.True(auto.IsAutoNote())

	unk := find(drums.Timestamp, 600, model.EventUnk)
	require.NotNil(t, unk)
	assert.Equal(0x20, unk.Data.Unk)
}

func TestDecodeDSQ0Visibility(t *testing.T) {
	rec := func(ts uint16, cmd, vol, sound, visibility byte) []byte {
		b := make([]byte, 8)
		binary.LittleEndian.PutUint16(b[0:2], ts)
		b[4], b[5], b[6], b[7] = cmd, vol, sound, visibility
		return b
	}

	t.Run("hidden notes are auto", func(t *testing.T) {
		assert := assert.New(t)
		data := join(rec(0, 0x06, 0, 0, 0), rec(75, 0x02, 90, 3, 2), rec(150, 0x0c, 0, 0, 0))
		song, err := Codec{DSQ0}.Decode(data, &model.Params{})
		require.NoError(t, err)
		n := find(song.Charts[1].Timestamp, 300, model.EventNote)
		require.NotNil(t, n)
		assert.True(n.IsAutoNote())
	})

	t.Run("unknown visibility", func(t *testing.T) {
		data := join(rec(0, 0x06, 0, 0, 0), rec(75, 0x02, 90, 3, 3))
		_, err := Codec{DSQ0}.Decode(data, &model.Params{})
		assert.True(t, errs.Is(err, errs.Format))
	})
}

func TestDecodeGSQ3WithMagic(t *testing.T) {
	assert := assert.New(t)

	rec := func(ts uint32, sound, cmd uint16) []byte {
		b := make([]byte, 12)
		binary.LittleEndian.PutUint32(b[0:4], ts)
		binary.LittleEndian.PutUint16(b[8:10], sound)
		binary.LittleEndian.PutUint16(b[10:12], cmd)
		return b
	}
	header := make([]byte, magicHeaderSize)
	copy(header, Magic)
	data := join(header,
		rec(0, 0, 0x10),
		rec(300, 4, 0x05),
		rec(900, 0, 0x10),
		rec(900, 0, 0xa0),
		rec(0xffffffff, 0, 0),
	)

	c := Codec{GSQ3}
	assert.True(c.Detect(data))
	assert.False(Codec{GSQ15}.Detect(data))

	song, err := c.Decode(data, &model.Params{Parts: []string{"bass"}})
	require.NoError(t, err)
	require.Len(t, song.Charts, 2)
	assert.Equal(80.0, find(song.Charts[0].Timestamp, 0, model.EventBPM).Data.BPM)
	assert.Equal("b_rxb", find(song.Charts[1].Timestamp, 300, model.EventNote).Data.Note)
}

func TestGSQUnknownCommand(t *testing.T) {
	_, err := Codec{GSQ0}.Decode(gsq8(0, 0, 0, 0x80), &model.Params{})
	assert.True(t, errs.Is(err, errs.Format))
}

func TestEncodeUnsupported(t *testing.T) {
	for _, r := range Revisions {
		_, err := Codec{r}.Encode(&model.Song{}, &model.Params{})
		assert.True(t, errs.Is(err, errs.Encode), r.Name)
	}
}

func TestNoInput(t *testing.T) {
	_, err := Codec{DSQ1}.Decode(nil, &model.Params{})
	assert.True(t, errs.Is(err, errs.MissingData))
}
