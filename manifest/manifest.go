// Package manifest builds the package.json that describes a converted song
// for the package manager.
package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"unicode"

	"github.com/gojp/kana"
	"github.com/google/uuid"
	"github.com/jsphweid/seqconv/chart"
	"github.com/jsphweid/seqconv/errs"
	"github.com/jsphweid/seqconv/model"
	"github.com/kennygrant/sanitize"
)

const DefaultJacket = "pre.jpg"

type Levels map[string]int

func emptyLevels() Levels {
	res := make(Levels, len(model.DifficultyNames))
	for _, name := range model.DifficultyNames {
		res[name] = 0
	}
	return res
}

type PartFiles struct {
	Seq     string `json:"seq"`
	Sound   string `json:"sound"`
	Preview string `json:"preview"`
}

type Files struct {
	Event  string            `json:"event"`
	BGM    map[string]string `json:"bgm"`
	Drum   *PartFiles        `json:"drum,omitempty"`
	Guitar *PartFiles        `json:"guitar,omitempty"`
}

type Graphics struct {
	Jacket string `json:"jacket"`
}

type Manifest struct {
	UniqueID    string                                `json:"unique_id"`
	Artist      string                                `json:"artist"`
	ArtistASCII string                                `json:"artist_ascii"`
	Title       string                                `json:"title"`
	TitleASCII  string                                `json:"title_ascii"`
	Folder      string                                `json:"folder"`
	BPM         float64                               `json:"bpm"`
	BPM2        float64                               `json:"bpm2"`
	Difficulty  map[string]Levels                     `json:"difficulty"`
	Files       Files                                 `json:"files"`
	Graphics    Graphics                              `json:"graphics"`
	Notes       map[string]map[string]chart.NoteCount `json:"notes"`
}

// Romanize turns kana into upper case romaji. Plain ascii is left alone and
// anything that still is not ascii afterwards is dropped.
func Romanize(s string) string {
	if isASCII(s) {
		return s
	}
	res := kana.KanaToRomaji(sanitize.Accents(s))
	res = strings.Map(func(r rune) rune {
		if r > unicode.MaxASCII {
			return -1
		}
		return r
	}, res)
	return strings.ToUpper(strings.TrimSpace(res))
}

func isASCII(s string) bool {
	for _, r := range s {
		if r > unicode.MaxASCII {
			return false
		}
	}
	return true
}

// Load reads an existing manifest. A missing file is not an error.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, errs.Formatf("could not parse %v: %v", path, err)
	}
	return &m, nil
}

func bgmFiles(musicID int) map[string]string {
	res := make(map[string]string)
	for _, suffix := range []string{"___k", "__bk", "_gbk", "d__k", "d_bk"} {
		res[suffix] = fmt.Sprintf("bgm%04d%s.bin", musicID, suffix)
	}
	return res
}

// Build describes the charts just written. Parts that were not converted
// this time keep the levels and note counts of prev, so drum and guitar can
// be converted in separate runs.
func Build(musicID int, ext string, charts []*model.Chart, prev *Manifest) *Manifest {
	m := &Manifest{
		Difficulty: map[string]Levels{},
		Notes:      map[string]map[string]chart.NoteCount{},
		Files: Files{
			Event: fmt.Sprintf("event%04d.ev2", musicID),
			BGM:   bgmFiles(musicID),
		},
		Graphics: Graphics{Jacket: DefaultJacket},
	}
	for _, part := range model.Parts {
		m.Difficulty[part] = emptyLevels()
		m.Notes[part] = map[string]chart.NoteCount{}
	}

	converted := map[string]bool{}
	for _, c := range charts {
		if c.Header.IsMetadata {
			continue
		}
		part := c.Part()
		converted[part] = true
		diff := model.DifficultyName(c.Header.Difficulty)
		m.Notes[part][diff] = chart.CountNotes(c)

		if level, ok := c.Header.Level[part]; ok {
			m.Difficulty[part][model.DifficultyNames[c.Header.Difficulty]] = level
		}
		if c.Header.Title != "" {
			m.Title = c.Header.Title
		}
		if c.Header.Artist != "" {
			m.Artist = c.Header.Artist
		}
		if c.Header.BPM != 0 {
			m.BPM = c.Header.BPM
			m.BPM2 = c.Header.BPM2
		}
		if c.Header.PreImage != "" {
			m.Graphics.Jacket = c.Header.PreImage
		}
	}

	if prev != nil {
		m.UniqueID = prev.UniqueID
		for _, part := range model.Parts {
			if converted[part] {
				continue
			}
			if levels, ok := prev.Difficulty[part]; ok {
				m.Difficulty[part] = levels
			}
			if notes, ok := prev.Notes[part]; ok && len(notes) > 0 {
				m.Notes[part] = notes
				converted[part] = true
			}
		}
		if m.Title == "" {
			m.Title, m.Artist = prev.Title, prev.Artist
		}
		if m.BPM == 0 {
			m.BPM, m.BPM2 = prev.BPM, prev.BPM2
		}
	}
	if m.UniqueID == "" {
		m.UniqueID = strings.ReplaceAll(uuid.New().String(), "-", "")
	}

	m.TitleASCII = Romanize(m.Title)
	m.ArtistASCII = Romanize(m.Artist)
	m.Folder = sanitize.BaseName(m.TitleASCII)

	if converted[model.PartDrum] {
		m.Files.Drum = &PartFiles{
			Seq:     fmt.Sprintf("d%04d.%s", musicID, ext),
			Sound:   fmt.Sprintf("spu%04dd.va3", musicID),
			Preview: fmt.Sprintf("i%04ddm.bin", musicID),
		}
	}
	if converted[model.PartGuitar] || converted[model.PartBass] || converted[model.PartOpen] {
		m.Files.Guitar = &PartFiles{
			Seq:     fmt.Sprintf("g%04d.%s", musicID, ext),
			Sound:   fmt.Sprintf("spu%04dg.va3", musicID),
			Preview: fmt.Sprintf("i%04dgf.bin", musicID),
		}
	}
	return m
}

func (m *Manifest) Marshal() ([]byte, error) {
	return json.MarshalIndent(m, "", "    ")
}
