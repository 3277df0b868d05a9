package audio

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTone(t *testing.T, path string, frames int, value int) {
	data := make([]int, frames)
	for i := range data {
		data[i] = value
	}
	require.Nil(t, write(path, pcm{data: data, sampleRate: 8000, channels: 1, bitDepth: 16}))
}

func TestDuration(t *testing.T) {
	assert := assert.New(t)
	path := filepath.Join(t.TempDir(), "tone.wav")
	writeTone(t, path, 4000, 100)

	d, err := Duration(path)
	assert.Nil(err)
	assert.InDelta(0.5, d, 0.001)
}

func TestDurationOfMissingFile(t *testing.T) {
	_, err := Duration(filepath.Join(t.TempDir(), "nope.wav"))
	assert.NotNil(t, err)
}

func TestClipShortens(t *testing.T) {
	assert := assert.New(t)
	dir := t.TempDir()
	in := filepath.Join(dir, "in.wav")
	out := filepath.Join(dir, "out.wav")
	writeTone(t, in, 8000, 100)

	assert.Nil(Clip(in, out, 0.25))
	p, err := read(out)
	assert.Nil(err)
	assert.Equal(2000, p.frames())
}

func TestClipStretchesWithTailLoop(t *testing.T) {
	assert := assert.New(t)
	dir := t.TempDir()
	in := filepath.Join(dir, "in.wav")
	out := filepath.Join(dir, "out.wav")
	writeTone(t, in, 800, 7)

	assert.Nil(Clip(in, out, 1))
	p, err := read(out)
	assert.Nil(err)
	assert.Equal(8000, p.frames())
	assert.Equal(7, p.data[7999])
}

func TestMixBGMOverlaysAtOffsets(t *testing.T) {
	assert := assert.New(t)
	dir := t.TempDir()
	a := filepath.Join(dir, "a.wav")
	b := filepath.Join(dir, "b.wav")
	out := filepath.Join(dir, "bgm.wav")
	writeTone(t, a, 8000, 100)
	writeTone(t, b, 8000, 50)

	err := MixBGM([]Placement{{Path: a, Seconds: 0}, {Path: b, Seconds: 0.5}}, 1, out)
	assert.Nil(err)

	p, err := read(out)
	assert.Nil(err)
	assert.Equal(12000, p.frames())
	assert.Equal(100, p.data[100])
	assert.Equal(150, p.data[5000])
	assert.Equal(50, p.data[11000])
}

func TestPCM16(t *testing.T) {
	assert := assert.New(t)
	buf := pcm16(pcm{data: []int{1, -2, 0x1234}, bitDepth: 16})
	assert.Equal([]byte{0x01, 0x00, 0xfe, 0xff, 0x34, 0x12}, buf)

	// 8 bit sources are widened
	buf = pcm16(pcm{data: []int{1}, bitDepth: 8})
	assert.Equal([]byte{0x00, 0x01}, buf)
}
