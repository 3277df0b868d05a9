package postprocess

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jsphweid/seqconv/errs"
	"github.com/jsphweid/seqconv/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSoundMetadataRoundTrip(t *testing.T) {
	assert := assert.New(t)
	dir := t.TempDir()

	m := model.SoundMetadata{Drum: &model.SoundBank{Entries: []model.SoundEntry{
		{SoundID: 3, Filename: "kick.wav", Volume: 127, Pan: 64, Duration: 0.25},
	}}}
	require.NoError(t, SaveSoundMetadata(dir, m))

	loaded, err := LoadSoundMetadata(dir)
	require.NoError(t, err)
	assert.Nil(loaded.Guitar)
	require.NotNil(t, loaded.Drum)
	e, ok := loaded.Drum.Entry(3)
	assert.True(ok)
	assert.Equal("kick.wav", e.Filename)
	assert.Equal(0.25, e.Duration)
}

func TestLoadSoundMetadataRejectsGarbage(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "g_metadata.json"), []byte("{"), 0o644))

	_, err := LoadSoundMetadata(dir)
	assert.True(t, errs.Is(err, errs.Format))
}

func TestLoadSoundMetadataWithoutFolder(t *testing.T) {
	m, err := LoadSoundMetadata("")
	assert.NoError(t, err)
	assert.Nil(t, m.Guitar)
	assert.Nil(t, m.Drum)
}
