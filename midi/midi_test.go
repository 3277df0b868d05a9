package midi

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jsphweid/seqconv/lane"
	"github.com/jsphweid/seqconv/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gomidi "gitlab.com/gomidi/midi/v2"
)

func chartWith(g model.GameType, notes map[int]model.EventData) *model.Chart {
	c := model.NewChart(model.NewHeader(g, 3, false))
	for ts, d := range notes {
		d := d
		c.Timestamp.Add(ts, model.Event{Name: model.EventNote, Data: &d})
	}
	return c
}

func TestNotes(t *testing.T) {
	assert := assert.New(t)

	drums := chartWith(model.GameDrum, map[int]model.EventData{
		0:   {Note: lane.Snare},
		150: {Note: lane.Auto},
	})
	assert.Equal([]Note{{Timestamp: 0, Length: tapLength, Channel: drumChannel, Key: 38}}, Notes(drums))

	guitar := chartWith(model.GameGuitar, map[int]model.EventData{
		0:   {Note: "g_rxbxx", HoldDuration: 300},
		300: {Note: "g_open"},
	})
	assert.Equal([]Note{
		{Timestamp: 0, Length: 300, Channel: guitarChannel, Key: 60},
		{Timestamp: 0, Length: 300, Channel: guitarChannel, Key: 64},
		{Timestamp: 300, Length: tapLength, Channel: guitarChannel, Key: openKey},
	}, Notes(guitar))
}

func TestWritePreview(t *testing.T) {
	assert := assert.New(t)
	c := chartWith(model.GameDrum, map[int]model.EventData{
		0:   {Note: lane.Bass},
		300: {Note: lane.HiHat},
	})

	path := filepath.Join(t.TempDir(), "preview.mid")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, WritePreview(c, f))
	require.NoError(t, f.Close())

	s, err := ReadPreview(path)
	require.NoError(t, err)
	require.Len(t, s.Tracks, 1)

	var keys []uint8
	var starts []int
	tick := 0
	for _, ev := range s.Tracks[0] {
		tick += int(ev.Delta)
		var ch, key, vel uint8
		if gomidi.Message(ev.Message).GetNoteStart(&ch, &key, &vel) {
			keys = append(keys, key)
			starts = append(starts, tick)
		}
	}
	assert.Equal([]uint8{36, 42}, keys)
	assert.Equal([]int{0, 300}, starts)
}

func TestReadPreviewMissing(t *testing.T) {
	_, err := ReadPreview(filepath.Join(t.TempDir(), "nope.mid"))
	assert.Error(t, err)
}
