// Package db looks songs up in a music database. Three sources are
// understood: the csv export, the game's mdb xml and a DynamoDB table.
package db

import (
	"encoding/csv"
	"encoding/xml"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/jsphweid/seqconv/constants"
	"github.com/jsphweid/seqconv/errs"
	"github.com/jsphweid/seqconv/model"
	"golang.org/x/net/html/charset"
)

// csv columns holding the xg levels, drum then guitar then bass
var csvDifficultyColumns = []string{
	"diff_dm_easy", "diff_dm_bsc", "diff_dm_adv", "diff_dm_ext", "diff_dm_mst",
	"diff_gf_easy", "diff_gf_bsc", "diff_gf_adv", "diff_gf_ext", "diff_gf_mst",
	"diff_gf_b_easy", "diff_gf_b_bsc", "diff_gf_b_adv", "diff_gf_b_ext", "diff_gf_b_mst",
}

// rows at or above this version are not playable releases
const maxGameVersion = 1000

// Lookup finds a song by music id. A song that is not found is reported as
// a MissingData warning by the caller; only unreadable databases are errors.
func Lookup(path string, musicID int) (*model.SongInfo, error) {
	if strings.HasPrefix(path, constants.DynamoPrefix) {
		infos := GetSongInfos(strings.TrimPrefix(path, constants.DynamoPrefix), []int{musicID})
		info, ok := infos[musicID]
		if !ok {
			return nil, notFound(path, musicID)
		}
		return &info, nil
	}

	if stat, err := os.Stat(path); err == nil && stat.IsDir() {
		path = filepath.Join(path, constants.MusicCSVFilename)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, errs.MissingDataf("could not open music database %v: %v", path, err)
	}
	defer f.Close()

	var info *model.SongInfo
	if strings.EqualFold(filepath.Ext(path), ".xml") {
		info, err = FromMDB(f, musicID)
	} else {
		info, err = FromCSV(f, musicID)
	}
	if err != nil {
		return nil, err
	}
	if info == nil {
		return nil, notFound(path, musicID)
	}
	return info, nil
}

func notFound(path string, musicID int) error {
	return errs.MissingDataf("music id %d not found in %v", musicID, path)
}

func parseInts(vals []string) []int {
	res := make([]int, 0, len(vals))
	for _, v := range vals {
		n, _ := strconv.Atoi(strings.TrimSpace(v))
		res = append(res, n)
	}
	return res
}

// FromCSV picks the row with the highest game version below 1000.
func FromCSV(r io.Reader, musicID int) (*model.SongInfo, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, errs.Formatf("could not read music csv: %v", err)
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(name)] = i
	}
	field := func(row []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}

	var res *model.SongInfo
	best := 0
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errs.Formatf("could not read music csv: %v", err)
		}

		id, _ := strconv.Atoi(field(row, "music_id"))
		version, _ := strconv.Atoi(field(row, "game_version"))
		if id != musicID || version <= best || version >= maxGameVersion {
			continue
		}
		best = version

		var levels []string
		for _, col := range csvDifficultyColumns {
			levels = append(levels, field(row, col))
		}
		res = &model.SongInfo{
			Title:      field(row, "title_name"),
			Artist:     field(row, "artist_title"),
			Difficulty: parseInts(levels),
		}
	}
	return res, nil
}

type mdbEntry struct {
	MusicID       int    `xml:"music_id"`
	Title         string `xml:"title_name"`
	Artist        string `xml:"artist_title"`
	XGDiffList    string `xml:"xg_diff_list"`
	ClassicsDiffs string `xml:"classics_diff_list"`
	BPM           string `xml:"bpm"`
	BPM2          string `xml:"bpm2"`
}

type mdb struct {
	Entries []mdbEntry `xml:"mdb_data"`
}

// FromMDB reads the game's music database. Its level lists are stored
// guitar, bass, drum for xg and guitar, bass, open, drum for classics.
func FromMDB(r io.Reader, musicID int) (*model.SongInfo, error) {
	var doc mdb
	decoder := xml.NewDecoder(r)
	decoder.CharsetReader = charset.NewReaderLabel
	if err := decoder.Decode(&doc); err != nil {
		return nil, errs.Formatf("could not parse mdb: %v", err)
	}

	for _, e := range doc.Entries {
		if e.MusicID != musicID {
			continue
		}
		info := &model.SongInfo{Title: e.Title, Artist: e.Artist}
		info.BPM, _ = strconv.ParseFloat(strings.TrimSpace(e.BPM), 64)
		info.BPM2, _ = strconv.ParseFloat(strings.TrimSpace(e.BPM2), 64)

		if xg := strings.Fields(e.XGDiffList); len(xg) >= 15 {
			ordered := append(append(append([]string{}, xg[10:]...), xg[0:5]...), xg[5:10]...)
			info.Difficulty = parseInts(ordered)
		}
		if classics := strings.Fields(e.ClassicsDiffs); len(classics) >= 4 {
			n := len(classics)
			ordered := append(append([]string{}, classics[n-4:]...), classics[:n-4]...)
			info.ClassicsDifficulty = parseInts(ordered)
		}
		return info, nil
	}
	return nil, nil
}

// Apply copies title, artist, bpm and levels onto every chart. Guitar charts
// carry the bass level too when the two are merged.
func Apply(charts []*model.Chart, info *model.SongInfo, mergeGuitars bool) {
	if info == nil {
		return
	}
	for _, c := range charts {
		h := &c.Header
		if h.Level == nil {
			h.Level = make(map[string]int)
		}
		if level := info.Level(h.GameType, h.Difficulty); level > 0 && !h.IsMetadata {
			h.Level[h.GameType.Part()] = level
		}
		if mergeGuitars && h.GameType == model.GameGuitar {
			if level := info.Level(model.GameBass, h.Difficulty); level > 0 {
				h.Level[model.PartBass] = level
			}
		}
		if len(h.Level) == 0 {
			h.Level = nil
		}
		h.Title = info.Title
		h.Artist = info.Artist
		if info.BPM != 0 {
			h.BPM = info.BPM
		}
		if info.BPM2 != 0 {
			h.BPM2 = info.BPM2
		}
	}
}
