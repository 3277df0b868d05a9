// Package event reads and writes the xg_eventdata file that carries the
// bonus notes of a song.
package event

import (
	"bytes"
	"encoding/xml"
	"strconv"
	"strings"

	"github.com/jsphweid/seqconv/errs"
	"github.com/jsphweid/seqconv/model"
	"github.com/jsphweid/seqconv/util"
)

const (
	GameTypeDrum = 0
	GameTypeBass = 2

	// bonus notes are the only event type in use
	EventTypeBonus = 0
)

type BonusNote struct {
	GameType  int
	EventType int
	Time      int
	Note      int
	GameLevel int
}

// Matches reports whether the bonus note marks a note of game g playing
// soundID.
func (b BonusNote) Matches(g model.GameType, soundID int) bool {
	return b.GameType == int(g) && b.EventType == EventTypeBonus && b.Note == soundID
}

type u32 struct {
	Type  string `xml:"__type,attr,omitempty"`
	Value string `xml:",chardata"`
}

func num(v int) u32 {
	return u32{Type: "u32", Value: strconv.Itoa(v)}
}

func (v u32) val() int {
	n, _ := strconv.Atoi(strings.TrimSpace(v.Value))
	return n
}

type xmlEvent struct {
	EventType u32 `xml:"eventtype"`
	Value     u32 `xml:"value"`
	Time      u32 `xml:"time"`
	Note      u32 `xml:"note"`
	GameLevel u32 `xml:"gamelevel"`
}

type xmlEvents struct {
	EventType u32        `xml:"eventtype"`
	Events    []xmlEvent `xml:"event"`
}

type xmlGame struct {
	GameType u32       `xml:"gametype"`
	Events   xmlEvents `xml:"events"`
}

type xmlMusic struct {
	MusicID u32       `xml:"musicid"`
	Games   []xmlGame `xml:"game"`
}

type xmlEventData struct {
	XMLName xml.Name `xml:"xg_eventdata"`
	Version u32      `xml:"version"`
	Music   xmlMusic `xml:"music"`
}

// Parse groups the bonus notes by the beat they sit on. An empty file has
// no bonus notes.
func Parse(data []byte) (map[int][]BonusNote, error) {
	res := make(map[int][]BonusNote)
	if len(bytes.TrimSpace(data)) == 0 {
		return res, nil
	}

	var doc xmlEventData
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, errs.Formatf("could not parse event file: %v", err)
	}

	for _, game := range doc.Music.Games {
		for _, e := range game.Events.Events {
			note := BonusNote{
				GameType:  game.GameType.val(),
				EventType: e.EventType.val(),
				Time:      e.Time.val(),
				Note:      e.Note.val(),
				GameLevel: e.GameLevel.val(),
			}
			res[note.Time] = append(res[note.Time], note)
		}
	}
	return res, nil
}

// Collect gathers the bonus notes of every drum chart. The same sound on the
// same beat in several difficulties becomes one note with a combined level
// mask.
func Collect(charts []*model.Chart) []BonusNote {
	byBeat := make(map[int]map[int]*BonusNote)
	order := make(map[int][]int)
	for _, c := range charts {
		for _, k := range c.Timestamp.Keys() {
			for _, e := range c.Timestamp[k] {
				if !e.IsNote() || e.Data == nil || !e.Data.BonusNote {
					continue
				}
				if byBeat[e.Beat] == nil {
					byBeat[e.Beat] = make(map[int]*BonusNote)
				}
				level := 1 << c.Header.Difficulty
				if prev, ok := byBeat[e.Beat][e.Data.SoundID]; ok {
					prev.GameLevel |= level
					continue
				}
				byBeat[e.Beat][e.Data.SoundID] = &BonusNote{
					GameType:  GameTypeDrum,
					EventType: EventTypeBonus,
					Time:      e.Beat,
					Note:      e.Data.SoundID,
					GameLevel: level,
				}
				order[e.Beat] = append(order[e.Beat], e.Data.SoundID)
			}
		}
	}

	var res []BonusNote
	for _, beat := range util.GetKeys(byBeat) {
		for _, id := range order[beat] {
			res = append(res, *byBeat[beat][id])
		}
	}
	return res
}

// Build writes the event file for a song. The bass game is always present
// and always empty.
func Build(musicID int, notes []BonusNote) ([]byte, error) {
	drum := xmlGame{
		GameType: num(GameTypeDrum),
		Events:   xmlEvents{EventType: num(0)},
	}
	for _, n := range notes {
		drum.Events.Events = append(drum.Events.Events, xmlEvent{
			EventType: num(n.EventType),
			Value:     num(0),
			Time:      num(n.Time),
			Note:      num(n.Note),
			GameLevel: num(n.GameLevel),
		})
	}

	doc := xmlEventData{
		Version: num(2),
		Music: xmlMusic{
			MusicID: num(musicID),
			Games: []xmlGame{
				{GameType: num(GameTypeBass), Events: xmlEvents{EventType: num(1)}},
				drum,
			},
		},
	}

	out, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, errs.Encodef("could not write event file: %v", err)
	}
	return append([]byte(xml.Header), out...), nil
}
