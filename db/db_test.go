package db

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/jsphweid/seqconv/errs"
	"github.com/jsphweid/seqconv/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const musicCSV = `music_id,game_version,title_name,artist_title,diff_dm_easy,diff_dm_bsc,diff_dm_adv,diff_dm_ext,diff_dm_mst,diff_gf_easy,diff_gf_bsc,diff_gf_adv,diff_gf_ext,diff_gf_mst,diff_gf_b_easy,diff_gf_b_bsc,diff_gf_b_adv,diff_gf_b_ext,diff_gf_b_mst
5,10,Old,Band,1,2,3,4,5,6,7,8,9,10,11,12,13,14,15
5,20,New,Band,100,200,300,400,0,0,0,0,0,0,0,0,0,0,0
5,1200,Future,Band,9,9,9,9,9,9,9,9,9,9,9,9,9,9,9
6,1,Other,Someone,1,1,1,1,1,1,1,1,1,1,1,1,1,1,1
`

const musicMDB = `<?xml version="1.0" encoding="UTF-8"?>
<mdb>
  <mdb_data>
    <music_id>7</music_id>
    <title_name>Song</title_name>
    <artist_title>Artist</artist_title>
    <xg_diff_list>1 2 3 4 5 6 7 8 9 10 11 12 13 14 15</xg_diff_list>
    <classics_diff_list>1 2 3 4 5 6 7 8 9 10 11 12 13 14 15 16</classics_diff_list>
  </mdb_data>
</mdb>
`

func TestFromCSVPicksNewestRelease(t *testing.T) {
	assert := assert.New(t)
	info, err := FromCSV(strings.NewReader(musicCSV), 5)
	require.Nil(t, err)
	require.NotNil(t, info)
	assert.Equal("New", info.Title)
	assert.Equal(400, info.Level(model.GameDrum, 3))
	assert.Equal(0, info.Level(model.GameDrum, 4))

	info, err = FromCSV(strings.NewReader(musicCSV), 99)
	assert.Nil(err)
	assert.Nil(info)
}

func TestFromMDBReordersLevels(t *testing.T) {
	assert := assert.New(t)
	info, err := FromMDB(strings.NewReader(musicMDB), 7)
	require.Nil(t, err)
	require.NotNil(t, info)
	assert.Equal("Artist", info.Artist)
	assert.Equal([]int{11, 12, 13, 14, 15, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, info.Difficulty)
	assert.Equal(13, info.ClassicsDifficulty[0])
	assert.Equal(1, info.ClassicsDifficulty[4])
}

func TestLookup(t *testing.T) {
	assert := assert.New(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "gitadora_music.csv")
	require.Nil(t, os.WriteFile(path, []byte(musicCSV), 0644))

	info, err := Lookup(path, 6)
	assert.Nil(err)
	assert.Equal("Someone", info.Artist)

	_, err = Lookup(path, 1234)
	assert.True(errs.Is(err, errs.MissingData))

	info, err = Lookup(dir, 6)
	assert.Nil(err)
	assert.Equal("Someone", info.Artist)

	_, err = Lookup(filepath.Join(dir, "nope.csv"), 6)
	assert.True(errs.Is(err, errs.MissingData))
}

func TestApply(t *testing.T) {
	assert := assert.New(t)
	info := &model.SongInfo{Title: "T", Artist: "A", Difficulty: []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15}}
	guitar := model.NewChart(model.NewHeader(model.GameGuitar, 2, false))
	meta := model.NewChart(model.NewHeader(model.GameDrum, 0, true))

	Apply([]*model.Chart{meta, guitar}, info, true)
	assert.Equal(map[string]int{"guitar": 8, "bass": 13}, guitar.Header.Level)
	assert.Nil(meta.Header.Level)
	assert.Equal("T", meta.Header.Title)
}

func TestToSongInfo(t *testing.T) {
	assert := assert.New(t)
	info := ToSongInfo(map[string]*dynamodb.AttributeValue{
		"PK":         {S: aws.String("5")},
		"Title":      {S: aws.String("Song")},
		"BPM":        {N: aws.String("150")},
		"Difficulty": {NS: []*string{aws.String("10"), aws.String("20")}},
	})
	assert.Equal("Song", info.Title)
	assert.Equal(150.0, info.BPM)
	assert.Equal([]int{10, 20}, info.Difficulty)
	assert.Equal("", info.Artist)
}
