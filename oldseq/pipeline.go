package oldseq

import (
	"math"

	"github.com/jsphweid/seqconv/chart"
	"github.com/jsphweid/seqconv/errs"
	"github.com/jsphweid/seqconv/model"
	"github.com/jsphweid/seqconv/postprocess"
	"github.com/jsphweid/seqconv/timing"
)

// a 4/4 measure lasts 240/bpm seconds
const tempoScale = timing.TimeDivision * 240

const defaultBPM = 120

var timingEvents = map[string]bool{
	model.EventMeasure:  true,
	model.EventBeat:     true,
	model.EventStartPos: true,
	model.EventEndPos:   true,
}

func (c Codec) timeline(data []byte, g model.GameType, p *model.Params) (model.Timeline, error) {
	t := make(model.Timeline)
	for off := 0; off+c.RecordSize <= len(data); off += c.RecordSize {
		rec, err := c.parse(data[off:off+c.RecordSize], g, p)
		if err != nil {
			return nil, err
		}
		if rec.keep {
			t.Add(rec.ts, rec.event)
		}
	}
	return t, nil
}

// removeExtraBeats drops beat lines that sit on a measure line and marks
// the measure instead.
func removeExtraBeats(t model.Timeline) {
	for k, evts := range t {
		hasMeasure := false
		for _, e := range evts {
			if e.Name == model.EventMeasure {
				hasMeasure = true
				break
			}
		}
		if !hasMeasure {
			continue
		}

		merged := false
		kept := evts[:0]
		for _, e := range evts {
			if e.Name == model.EventBeat {
				merged = true
				continue
			}
			kept = append(kept, e)
		}
		if merged {
			for i := range kept {
				if kept[i].Name == model.EventMeasure {
					kept[i].D().MergedBeat = true
				}
			}
		}
		t[k] = kept
	}
}

// splitTiming separates the measure grid and bounds from everything else.
func splitTiming(t model.Timeline) (grid, notes model.Timeline) {
	grid, notes = make(model.Timeline), make(model.Timeline)
	for k, evts := range t {
		for _, e := range evts {
			if timingEvents[e.Name] {
				grid.Add(k, e)
			} else {
				notes.Add(k, e)
			}
		}
	}
	return grid, notes
}

// synthesizeMetadata derives the tempo from the spacing of measure lines
// and adds the bar and bound events a metadata chart needs.
func synthesizeMetadata(t model.Timeline) {
	keys := t.Keys()
	if len(keys) == 0 {
		return
	}

	var measures []int
	for _, k := range keys {
		for _, e := range t[k] {
			if e.Name == model.EventMeasure {
				measures = append(measures, k)
				break
			}
		}
	}

	var last float64
	for i := 1; i < len(measures); i++ {
		dt := measures[i] - measures[i-1]
		if dt <= 0 {
			continue
		}
		bpm := math.Round(tempoScale / float64(dt))
		if bpm != last {
			t.Add(measures[i-1], model.Event{Name: model.EventBPM, Data: &model.EventData{BPM: bpm}})
			last = bpm
		}
	}
	if last == 0 {
		t.Add(keys[0], model.Event{Name: model.EventBPM, Data: &model.EventData{BPM: defaultBPM}})
	}

	t.Add(keys[0],
		model.Event{Name: model.EventBarInfo, Data: &model.EventData{
			Numerator:       timing.Common.Numerator,
			Denominator:     timing.Common.Denominator,
			DenominatorOrig: timing.Log2(timing.Common.Denominator),
		}},
		model.Event{Name: model.EventBarOn},
	)
	chart.NormalizeBounds(t)
}

func (c Codec) decode(raws []rawChart, musicID int, p *model.Params) (*model.Song, error) {
	song := &model.Song{MusicID: musicID, Format: c.Revision.Name, SoundMetadata: p.Sounds}

	var metadata *model.Chart
	var notes []*model.Chart
	for _, raw := range raws {
		t, err := c.timeline(raw.data, raw.gameType, p)
		if err != nil {
			return nil, err
		}
		start, end, ok := chart.Bounds(t)
		if !ok {
			continue
		}
		t = chart.KeepBetween(t, start, end, nil)
		removeExtraBeats(t)

		grid, nt := splitTiming(t)
		if metadata == nil {
			h := model.NewHeader(raw.gameType, raw.difficulty, true)
			h.MusicID = musicID
			metadata = &model.Chart{Header: h, Timestamp: grid}
			synthesizeMetadata(metadata.Timestamp)
		}

		nt.Add(start, model.Event{Name: model.EventChipStart})
		if !raw.gameType.IsDrum() {
			postprocess.AddNoteDurations(nt, p.Sounds.For(raw.gameType), p.SoundFolder)
		}
		h := model.NewHeader(raw.gameType, raw.difficulty, false)
		h.MusicID = musicID
		notes = append(notes, &model.Chart{Header: h, Timestamp: nt})
	}
	if metadata == nil {
		return nil, errs.Formatf("%s input holds no events", c.Revision.Name)
	}

	song.Charts = append(song.Charts, metadata)
	byType, rest := chart.SplitByGameType(notes)
	song.Charts = append(song.Charts, rest...)
	for _, g := range c.gameTypes() {
		song.Charts = append(song.Charts, byType[g]...)
	}
	return song, nil
}
