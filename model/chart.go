package model

import "github.com/jsphweid/seqconv/timing"

type GameType int

const (
	GameDrum GameType = iota
	GameGuitar
	GameBass
	GameOpen
	GameGuitar1
	GameGuitar2
)

const (
	PartDrum   = "drum"
	PartGuitar = "guitar"
	PartBass   = "bass"
	PartOpen   = "open"
)

var Parts = []string{PartDrum, PartGuitar, PartBass, PartOpen}

// Part maps the split guitar game types onto guitar.
func (g GameType) Part() string {
	switch g {
	case GameDrum:
		return PartDrum
	case GameGuitar, GameGuitar1, GameGuitar2:
		return PartGuitar
	case GameBass:
		return PartBass
	case GameOpen:
		return PartOpen
	}
	return ""
}

func (g GameType) IsDrum() bool {
	return g == GameDrum
}

func GameTypeForPart(part string) (GameType, bool) {
	switch part {
	case PartDrum:
		return GameDrum, true
	case PartGuitar:
		return GameGuitar, true
	case PartBass:
		return GameBass, true
	case PartOpen:
		return GameOpen, true
	}
	return 0, false
}

// short names used on the command line and in file names
var Difficulties = []string{"nov", "bsc", "adv", "ext", "mst"}

// long names used by the package manifest
var DifficultyNames = []string{"novice", "basic", "advanced", "extreme", "master"}

func DifficultyIndex(name string) (int, bool) {
	for i, v := range Difficulties {
		if v == name {
			return i, true
		}
	}
	return 0, false
}

func DifficultyName(idx int) string {
	if idx < 0 || idx >= len(Difficulties) {
		return ""
	}
	return Difficulties[idx]
}

type Header struct {
	UnkSys       int            `json:"unk_sys"`
	IsMetadata   bool           `json:"is_metadata"`
	Difficulty   int            `json:"difficulty"`
	GameType     GameType       `json:"game_type"`
	TimeDivision int            `json:"time_division"`
	BeatDivision int            `json:"beat_division"`
	MusicID      int            `json:"musicid,omitempty"`
	Title        string         `json:"title,omitempty"`
	Artist       string         `json:"artist,omitempty"`
	BPM          float64        `json:"bpm,omitempty"`
	BPM2         float64        `json:"bpm2,omitempty"`
	Level        map[string]int `json:"level,omitempty"`
	PreImage     string         `json:"preimage,omitempty"`
}

func NewHeader(gameType GameType, difficulty int, isMetadata bool) Header {
	return Header{
		IsMetadata:   isMetadata,
		Difficulty:   difficulty,
		GameType:     gameType,
		TimeDivision: timing.TimeDivision,
		BeatDivision: timing.BeatDivision,
	}
}

type Chart struct {
	Header    Header   `json:"header"`
	Timestamp Timeline `json:"timestamp"`
}

func NewChart(h Header) *Chart {
	return &Chart{Header: h, Timestamp: make(Timeline)}
}

func (c *Chart) Clone() *Chart {
	res := &Chart{Header: c.Header, Timestamp: c.Timestamp.Clone()}
	if c.Header.Level != nil {
		res.Header.Level = make(map[string]int, len(c.Header.Level))
		for k, v := range c.Header.Level {
			res.Header.Level[k] = v
		}
	}
	return res
}

func (c *Chart) Part() string {
	return c.Header.GameType.Part()
}

// HasPlayableNotes is false for charts holding nothing but auto notes.
func (c *Chart) HasPlayableNotes() bool {
	for _, evts := range c.Timestamp {
		for i := range evts {
			if evts[i].IsNote() && !evts[i].IsAutoNote() {
				return true
			}
		}
	}
	return false
}

type Song struct {
	MusicID       int           `json:"musicid"`
	Format        string        `json:"format"`
	Charts        []*Chart      `json:"charts"`
	SoundMetadata SoundMetadata `json:"sound_metadata"`
	BGM           BGM           `json:"bgm"`
	Preview       string        `json:"preview,omitempty"`
}

func (s *Song) MetadataChart() *Chart {
	for _, c := range s.Charts {
		if c.Header.IsMetadata {
			return c
		}
	}
	return nil
}

func (s *Song) NoteCharts() []*Chart {
	var res []*Chart
	for _, c := range s.Charts {
		if !c.Header.IsMetadata {
			res = append(res, c)
		}
	}
	return res
}
