package seqp

import (
	"bytes"
	"fmt"

	"github.com/jsphweid/seqconv/chart"
	"github.com/jsphweid/seqconv/errs"
	"github.com/jsphweid/seqconv/model"
	"github.com/jsphweid/seqconv/postprocess"
	"github.com/jsphweid/seqconv/timing"
)

// Detect checks the container magic, the first chart's magic and its
// revision byte.
func Detect(header []byte, chartMagic string, revision byte) bool {
	if len(header) < 0x37 {
		return false
	}
	return bytes.Equal(header[0:4], []byte(Magic)) &&
		bytes.Equal(header[0x30:0x34], []byte(chartMagic)) &&
		header[0x36] == revision
}

// Group is one output file: the drum set or the guitar set of a song.
type Group struct {
	Prefix   string
	Parts    []string
	Metadata *model.Chart
	// note charts with the metadata merged in and every event annotated
	Charts []*model.Chart
}

var groupParts = []struct {
	prefix string
	parts  []string
}{
	{"d", []string{model.PartDrum}},
	{"g", []string{model.PartGuitar, model.PartBass, model.PartOpen}},
}

func inGroup(c *model.Chart, parts []string) bool {
	for _, p := range parts {
		if c.Part() == p {
			return true
		}
	}
	return false
}

// Lanes maps the note names a format can play to their lane byte, per game.
type Lanes func(g model.GameType) map[string]int

// AutoLane is the lane byte auto notes are written with.
const AutoLane = 0xff

// Groups prepares a song for encoding. Every note chart gets the metadata
// events merged in, time signatures and beats annotated, and the notes the
// format cannot play turned into auto notes.
func Groups(song *model.Song, lanes Lanes, p *model.Params) ([]Group, error) {
	metadata := song.MetadataChart()
	if metadata == nil {
		return nil, errs.Encodef("couldn't find metadata chart")
	}
	if err := chart.AnnotateTimeSigs(metadata.Timestamp); err != nil {
		return nil, err
	}

	var res []Group
	for _, g := range groupParts {
		group := Group{Prefix: g.prefix, Parts: g.parts, Metadata: metadata}
		for _, c := range song.NoteCharts() {
			if !inGroup(c, g.parts) {
				continue
			}
			combined := c.Clone()
			combined.Timestamp = chart.Merge(metadata.Timestamp, c.Timestamp)
			if err := chart.AnnotateTimeSigs(combined.Timestamp); err != nil {
				return nil, err
			}
			for _, w := range postprocess.CorrectAutoNotes(combined.Timestamp, lanes(c.Header.GameType), AutoLane) {
				p.Report(w)
			}
			chart.AnnotateBeats(combined.Timestamp)
			group.Charts = append(group.Charts, combined)
		}
		if len(group.Charts) > 0 {
			res = append(res, group)
		}
	}
	return res, nil
}

func (g Group) Filename(musicID int, ext string) string {
	return fmt.Sprintf("%s%04d.%s", g.Prefix, musicID, ext)
}

// Timed is an event with the key it sits on.
type Timed struct {
	Timestamp int
	Event     *model.Event
}

// Select lists the events of a chart the format stores, in key order,
// between the chart bounds and with one startpos and one endpos.
func Select(c *model.Chart, allowed map[string]bool) []Timed {
	start, end, ok := chart.Bounds(c.Timestamp)
	if !ok {
		return nil
	}

	var res []Timed
	seen := map[string]bool{}
	for _, k := range c.Timestamp.Keys() {
		if k < start || k > end {
			continue
		}
		for i := range c.Timestamp[k] {
			e := &c.Timestamp[k][i]
			if !allowed[e.Name] {
				continue
			}
			if e.Name == model.EventStartPos || e.Name == model.EventEndPos {
				if seen[e.Name] {
					continue
				}
				seen[e.Name] = true
			}
			res = append(res, Timed{Timestamp: k, Event: e})
		}
	}
	return res
}

// DenominatorBits is the power of two a denominator is stored as.
func DenominatorBits(ts timing.TimeSig) (byte, error) {
	if err := timing.Validate(ts); err != nil {
		return 0, err
	}
	return byte(timing.Log2(ts.Denominator)), nil
}

// NewChart builds a decoded chart and normalizes its bounds.
func NewChart(h Header, musicID int, t model.Timeline) *model.Chart {
	header := model.NewHeader(model.GameType(h.GameType), int(h.Difficulty), h.IsMetadata == 1)
	header.UnkSys = int(h.UnkSys)
	header.MusicID = musicID
	if h.TimeDivision != 0 {
		header.TimeDivision = int(h.TimeDivision)
	}
	if h.BeatDivision != 0 {
		header.BeatDivision = int(h.BeatDivision)
	}
	c := &model.Chart{Header: header, Timestamp: t}
	chart.NormalizeBounds(c.Timestamp)
	return c
}
