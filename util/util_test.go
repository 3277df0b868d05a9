package util

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetKeysSorted(t *testing.T) {
	assert := assert.New(t)
	assert.Equal([]int{-3, 0, 7}, GetKeys(map[int]bool{7: true, -3: false, 0: true}))
}

func TestNumericHelpers(t *testing.T) {
	assert := assert.New(t)
	assert.Equal(2, Min(2, 5))
	assert.Equal(1.5, Max(1.5, -1.0))
}

func TestFindPathIgnoresCase(t *testing.T) {
	assert := assert.New(t)
	dir := t.TempDir()
	require.Nil(t, os.MkdirAll(filepath.Join(dir, "Sounds"), 0777))
	target := filepath.Join(dir, "Sounds", "Kick.WAV")
	require.Nil(t, os.WriteFile(target, []byte("x"), 0666))

	found, ok := FindPath(filepath.Join(dir, "sounds", "kick.wav"))
	assert.True(ok)
	assert.Equal(target, found)

	_, ok = FindPath(filepath.Join(dir, "sounds", "snare.wav"))
	assert.False(ok)
}
