// Package dtx reads and writes DTXMania charts. A DTX file is text: header
// tags, the WAV, BPM, VOLUME and PAN tables, and "#MMMCC: tokens" lines that
// place two character base 36 tokens on channel CC of measure MMM.
package dtx

import (
	"bytes"
	"math"
	"os"
	"sort"
	"strconv"

	"github.com/jsphweid/seqconv/chart"
	"github.com/jsphweid/seqconv/errs"
	"github.com/jsphweid/seqconv/lane"
	"github.com/jsphweid/seqconv/model"
	"github.com/jsphweid/seqconv/postprocess"
	"github.com/jsphweid/seqconv/timing"
	"github.com/jsphweid/seqconv/util"
)

const (
	Name = "DTX"
	Ext  = "dtx"

	SetDefinitionFilename = "set.def"
)

// sound ids handed out to WAV entries start here
const firstSoundID = 30

// parts a DTX file can hold notes for
var splitParts = []string{model.PartDrum, model.PartGuitar, model.PartBass}

// charts of a song are listed in this difficulty order
var difficultyOrder = []int{3, 4, 2, 1, 0}

type Codec struct{}

func (Codec) Name() string { return Name }

func (Codec) Detect(header []byte) bool {
	h := bytes.TrimPrefix(header, []byte("\xef\xbb\xbf"))
	if bytes.HasPrefix(h, []byte("\xff\xfe")) {
		return len(h) > 2 && (h[2] == '#' || h[2] == ';')
	}
	h = bytes.TrimLeft(h, " \t\r\n")
	return len(h) > 0 && (h[0] == '#' || h[0] == ';')
}

type input struct {
	part       string
	difficulty int
	doc        *document
}

func singleDifficulty(p *model.Params) int {
	for _, name := range p.Difficulty {
		if idx, ok := model.DifficultyIndex(name); ok {
			return idx
		}
	}
	return len(model.Difficulties) - 1
}

// inputs reads the per chart files of InputSplit. Without any, data is a
// single file holding every requested part.
func (Codec) inputs(data []byte, p *model.Params) ([]input, error) {
	parsed := make(map[string]*document)
	var res []input
	for diff, name := range model.Difficulties {
		for _, part := range splitParts {
			path, ok := p.Split(part, name)
			if !ok || !p.HasPart(part) {
				continue
			}
			doc, ok := parsed[path]
			if !ok {
				raw, err := os.ReadFile(path)
				if err != nil {
					p.Report(errs.MissingDataf("could not read %s %s chart %s: %v", part, name, path, err))
					continue
				}
				if doc, err = parseDocument(raw, p.DTXPadStart); err != nil {
					return nil, err
				}
				parsed[path] = doc
			}
			res = append(res, input{part: part, difficulty: diff, doc: doc})
		}
	}
	if len(res) > 0 || len(data) == 0 {
		if len(res) == 0 {
			return nil, errs.MissingDataf("no dtx input")
		}
		return res, nil
	}

	doc, err := parseDocument(data, p.DTXPadStart)
	if err != nil {
		return nil, err
	}
	diff := singleDifficulty(p)
	for _, part := range splitParts {
		if p.HasPart(part) {
			res = append(res, input{part: part, difficulty: diff, doc: doc})
		}
	}
	return res, nil
}

// soundTable collects the sound entries of every file of a song.
type soundTable struct {
	entries  map[int]model.SoundEntry
	drum     map[int]bool
	guitar   map[int]bool
	defaults map[string]int
}

func newSoundTable() *soundTable {
	return &soundTable{
		entries:  make(map[int]model.SoundEntry),
		drum:     make(map[int]bool),
		guitar:   make(map[int]bool),
		defaults: make(map[string]int),
	}
}

func scaleVolume(v int) int {
	return int(math.Round(127 * float64(v) / 100))
}

func scalePan(v int) int {
	return int(math.Round(float64(v)*64/100 + 64))
}

// assign maps the WAV ids of doc to sound ids. A WAV with the filename and
// pan of a known entry reuses that entry.
func (s *soundTable) assign(doc *document) map[int]int {
	ids := make(map[int]int, len(doc.wavIDs))
	target := firstSoundID
	for _, wav := range doc.wavIDs {
		for {
			if _, used := s.entries[target]; !used {
				break
			}
			target++
		}

		e := model.SoundEntry{SoundID: target, Filename: doc.wavs[wav], Volume: 127, Pan: 64}
		if v, ok := doc.volumes[wav]; ok {
			e.Volume = scaleVolume(v)
		}
		if v, ok := doc.pans[wav]; ok {
			e.Pan = scalePan(v)
		}

		id, found := target, false
		for _, k := range util.GetKeys(s.entries) {
			old := s.entries[k]
			if old.Filename == e.Filename && old.Pan == e.Pan {
				id, found = old.SoundID, true
				break
			}
		}
		ids[wav] = id
		if !found {
			s.entries[id] = e
		}
	}
	return ids
}

func (s *soundTable) removeFiles(filenames map[string]bool) {
	for id, e := range s.entries {
		if filenames[e.Filename] {
			delete(s.entries, id)
		}
	}
}

// bank lists the entries used by one side and every entry used by neither.
func (s *soundTable) bank(kind string, used map[int]bool, defaults map[string]int) *model.SoundBank {
	bank := &model.SoundBank{Type: kind, Version: 2, GdxVolumeFlag: 1, Defaults: defaults, Entries: []model.SoundEntry{}}
	for _, id := range util.GetKeys(s.entries) {
		if used[id] || (!s.drum[id] && !s.guitar[id]) {
			bank.Entries = append(bank.Entries, s.entries[id])
		}
	}
	return bank
}

func (s *soundTable) metadata(p *model.Params) model.SoundMetadata {
	drumDefaults := make(map[string]int, len(lane.Drums))
	for _, pad := range lane.Drums {
		drumDefaults["default_"+pad] = s.defaults[pad]
	}
	res := model.SoundMetadata{Drum: s.bank("GDXG", s.drum, drumDefaults)}
	if p.HasPart(model.PartGuitar) || p.HasPart(model.PartBass) {
		guitar := make(map[string]int, len(guitarDefaults))
		for k, v := range guitarDefaults {
			guitar[k] = v
		}
		res.Guitar = s.bank("GDXH", s.guitar, guitar)
	}
	return res
}

// grid places (measure, tick) positions on the timestamp and global beat
// scales of one file.
type grid struct {
	sigs   *timing.Index[int, timing.TimeSig]
	clock  *timing.Clock
	starts []int
}

func newGrid(doc *document, tempo map[timing.Position]float64) *grid {
	return &grid{sigs: doc.sigIndex(), clock: timing.NewClock(doc.sigs, tempo), starts: []int{0}}
}

func (g *grid) sig(m int) timing.TimeSig {
	if ts, ok := g.sigs.AtOrBefore(m); ok {
		return ts
	}
	return timing.Common
}

func (g *grid) ticks(m int) int {
	ts := g.sig(m)
	return timing.BeatTicks(ts) * ts.Numerator
}

// beat counts ticks from the start of the song.
func (g *grid) beat(p timing.Position) int {
	for len(g.starts) <= p.Measure {
		last := len(g.starts) - 1
		g.starts = append(g.starts, g.starts[last]+g.ticks(last))
	}
	return g.starts[p.Measure] + p.Tick
}

func (g *grid) timestamp(p timing.Position) int {
	return g.clock.Timestamp(p)
}

// tempoChanges reads both tempo channels. Without a change at the very
// start the lowest numbered #BPM applies.
func tempoChanges(doc *document) (map[timing.Position]float64, error) {
	sigs := doc.sigIndex()
	res := make(map[timing.Position]float64)
	for _, m := range doc.measures() {
		ts, ok := sigs.AtOrBefore(m)
		if !ok {
			ts = timing.Common
		}
		ticks := timing.BeatTicks(ts) * ts.Numerator

		for _, c := range doc.chips(m, chBPM, ticks) {
			id, ok := base36(c.token)
			bpm, found := doc.bpms[id]
			if !ok || !found {
				return nil, errs.Formatf("measure %d uses undefined tempo %s", m, c.token)
			}
			res[timing.Position{Measure: m, Tick: c.tick}] = doc.baseBPM + bpm
		}
		for _, c := range doc.chips(m, chBPMInt, ticks) {
			v, err := strconv.ParseInt(c.token, 16, 32)
			if err != nil {
				return nil, errs.Formatf("measure %d has bad tempo %s", m, c.token)
			}
			res[timing.Position{Measure: m, Tick: c.tick}] = doc.baseBPM + float64(v)
		}
	}

	if _, ok := res[timing.Position{}]; !ok && len(doc.bpms) > 0 {
		ids := util.GetKeys(doc.bpms)
		res[timing.Position{}] = doc.baseBPM + doc.bpms[ids[0]]
	}
	if len(res) == 0 {
		return nil, errs.Formatf("dtx chart has no tempo")
	}
	return res, nil
}

type chartDecoder struct {
	doc    *document
	part   string
	p      *model.Params
	sounds *soundTable
	ids    map[int]int
	// note_length by raw WAV id
	lengths map[int]int

	grid  *grid
	tempo map[timing.Position]float64

	meta, notes model.Timeline
	last        timing.Position
	lastBeat    int

	bgm     []model.BGMClip
	holds   []postprocess.HoldNote
	markers []postprocess.HoldMarker
}

type decoded struct {
	metadata *model.Chart
	chart    *model.Chart
	bgm      model.BGM
}

func bpmEvent(bpm float64) model.Event {
	return model.Event{Name: model.EventBPM, Data: &model.EventData{BPM: bpm}}
}

func (d *chartDecoder) add(t model.Timeline, pos timing.Position, e model.Event) {
	e.Beat = d.grid.beat(pos)
	t.Add(d.grid.timestamp(pos), e)
}

func (d *chartDecoder) touch(pos timing.Position) {
	if b := d.grid.beat(pos); b > d.lastBeat {
		d.last, d.lastBeat = pos, b
	}
}

func (d *chartDecoder) soundID(token string) (raw int, id int) {
	raw, _ = base36(token)
	if mapped, ok := d.ids[raw]; ok {
		return raw, mapped
	}
	return raw, raw
}

func (d *chartDecoder) volume(raw int) int {
	if v, ok := d.doc.volumes[raw]; ok {
		return scaleVolume(v)
	}
	return 127
}

func (d *chartDecoder) hasChip(m, ch, tick, ticks int) bool {
	for _, c := range d.doc.chips(m, ch, ticks) {
		if c.tick == tick {
			return true
		}
	}
	return false
}

func (d *chartDecoder) isBonus(name string, m, tick, ticks int) bool {
	pad, ok := bonusPads[name]
	if !ok {
		return false
	}
	for ch := bonusLast; ch <= bonusFirst; ch++ {
		for _, c := range d.doc.chips(m, ch, ticks) {
			if v, ok := base36(c.token); ok && c.tick == tick && v == pad {
				return true
			}
		}
	}
	return false
}

// tempos adds every change that differs from the tempo before it.
func (d *chartDecoder) tempos() {
	positions := make([]timing.Position, 0, len(d.tempo))
	for pos := range d.tempo {
		positions = append(positions, pos)
	}
	sort.Slice(positions, func(i, j int) bool { return positions[i].Key() < positions[j].Key() })

	current := d.grid.clock.BPMAt(timing.Position{})
	for _, pos := range positions {
		bpm := d.tempo[pos]
		d.touch(pos)
		if bpm == current || pos == (timing.Position{}) {
			continue
		}
		current = bpm
		d.add(d.meta, pos, bpmEvent(bpm))
	}
}

func (d *chartDecoder) measure(m int) {
	ticks := d.grid.ticks(m)
	for _, ch := range util.GetKeys(d.doc.channels[m]) {
		chips := d.doc.chips(m, ch, ticks)
		_, isNote := notes[ch]
		pad, isChip := defaultChips[ch]

		switch {
		case ch == chBGM:
			for _, c := range chips {
				raw, _ := base36(c.token)
				if f, ok := d.doc.wavs[raw]; ok {
					pos := timing.Position{Measure: m, Tick: c.tick}
					d.bgm = append(d.bgm, model.BGMClip{Filename: f, Timestamp: d.grid.clock.Seconds(pos)})
				}
			}

		case ch == chBPM || ch == chBPMInt:

		case ch == chBar:
			for _, c := range chips {
				pos := timing.Position{Measure: m, Tick: c.tick}
				d.touch(pos)
				switch v, _ := base36(c.token); v {
				case barOn:
					d.add(d.meta, pos, model.Event{Name: model.EventBarOn})
				case barOff:
					d.add(d.meta, pos, model.Event{Name: model.EventBarOff})
				}
			}

		case isChip:
			if pad == "" {
				continue
			}
			for _, c := range chips {
				_, id := d.soundID(c.token)
				d.sounds.defaults[pad] = id
			}

		case ch == chGuitarLong || ch == chBassLong:
			part := model.PartGuitar
			if ch == chBassLong {
				part = model.PartBass
			}
			if part != d.part {
				continue
			}
			for _, c := range chips {
				pos := timing.Position{Measure: m, Tick: c.tick}
				d.markers = append(d.markers, postprocess.HoldMarker{
					Lane:      part,
					Order:     d.grid.beat(pos),
					Timestamp: d.grid.timestamp(pos),
				})
			}

		case isNote:
			d.noteChannel(m, ch, chips, ticks)

		case isAutoChannel(ch):
			if d.part != model.PartDrum {
				continue
			}
			for _, c := range chips {
				pos := timing.Position{Measure: m, Tick: c.tick}
				raw, id := d.soundID(c.token)
				d.add(d.notes, pos, model.Event{Name: model.EventNote, Data: &model.EventData{
					Note:       lane.Auto,
					SoundID:    id,
					Volume:     d.volume(raw),
					AutoNote:   1,
					AutoVolume: 1,
				}})
				d.touch(pos)
			}

		case ignoredChannels[ch] || isBonusChannel(ch):

		default:
			d.p.Report(errs.Mappingf("unknown dtx channel %02X in measure %d", ch, m))
		}
	}
}

func (d *chartDecoder) noteChannel(m, ch int, chips []chip, ticks int) {
	name := notes[ch]
	part := channelPart(ch)
	for _, c := range chips {
		pos := timing.Position{Measure: m, Tick: c.tick}
		raw, id := d.soundID(c.token)
		if part == model.PartDrum {
			d.sounds.drum[id] = true
			if _, ok := d.sounds.defaults[name]; !ok && name != lane.Auto {
				d.sounds.defaults[name] = id
			}
		} else {
			d.sounds.guitar[id] = true
		}
		d.touch(pos)

		if part != d.part {
			continue
		}

		data := &model.EventData{
			Note:       name,
			SoundID:    id,
			Volume:     d.volume(raw),
			NoteLength: d.lengths[raw],
			BonusNote:  d.isBonus(name, m, c.tick, ticks),
		}
		if g, ok := model.GameTypeForPart(part); ok && wailChannels[g] >= 0 && d.hasChip(m, wailChannels[g], c.tick, ticks) {
			data.GuitarSpecial = model.SpecialWail
		}
		d.add(d.notes, pos, model.Event{Name: model.EventNote, Data: data})

		if part != model.PartDrum && name != lane.Auto {
			d.holds = append(d.holds, postprocess.HoldNote{
				Lane:      part,
				Order:     d.grid.beat(pos),
				Timestamp: d.grid.timestamp(pos),
				Data:      data,
			})
		}
	}
}

// measureLines adds the bar, measure and beat lines up to the last measure.
func (d *chartDecoder) measureLines(last int) {
	var prev timing.TimeSig
	for m := 0; m <= last; m++ {
		pos := timing.Position{Measure: m}
		ts := d.grid.sig(m)
		if m == 0 || ts != prev {
			d.add(d.meta, pos, model.Event{Name: model.EventBarInfo, Data: &model.EventData{
				Numerator:       ts.Numerator,
				Denominator:     ts.Denominator,
				DenominatorOrig: timing.Log2(ts.Denominator),
			}})
		}
		prev = ts
		d.add(d.meta, pos, model.Event{Name: model.EventMeasure})

		// x/16 and finer only draw every other beat line
		lines, div := float64(ts.Numerator), float64(ts.Denominator)
		if ts.Denominator >= 16 {
			lines, div = lines/2, div/2
		}
		for j := 1; j < int(math.RoundToEven(lines)); j++ {
			tick := int(math.Round(float64(j) * timing.WholeMeasureTicks / div))
			d.add(d.meta, timing.Position{Measure: m, Tick: tick}, model.Event{Name: model.EventBeat})
		}
	}
}

func (in input) header(bpm float64, p *model.Params) model.Header {
	g, _ := model.GameTypeForPart(in.part)
	h := model.NewHeader(g, in.difficulty, false)
	h.MusicID = p.MusicID
	h.BPM = bpm
	h.Title, _ = in.doc.value("TITLE")
	h.Artist, _ = in.doc.value("ARTIST")
	h.PreImage, _ = in.doc.value("PREIMAGE")

	tag := map[string]string{model.PartDrum: "DLEVEL", model.PartGuitar: "GLEVEL", model.PartBass: "BLEVEL"}[in.part]
	if v, ok := in.doc.value(tag); ok {
		if level, err := strconv.Atoi(v); err == nil {
			h.Level = map[string]int{in.part: level}
		}
	}
	return h
}

func decodeChart(in input, sounds *soundTable, p *model.Params) (*decoded, error) {
	tempo, err := tempoChanges(in.doc)
	if err != nil {
		return nil, err
	}

	d := &chartDecoder{
		doc:     in.doc,
		part:    in.part,
		p:       p,
		sounds:  sounds,
		ids:     sounds.assign(in.doc),
		lengths: make(map[int]int),
		grid:    newGrid(in.doc, tempo),
		tempo:   tempo,
		meta:    make(model.Timeline),
		notes:   make(model.Timeline),
	}
	if in.part != model.PartDrum && !p.NoSounds {
		for raw, f := range in.doc.wavs {
			seconds := postprocess.EntryDuration(model.SoundEntry{SoundID: d.ids[raw], Filename: f}, p.SoundFolder)
			d.lengths[raw] = int(math.Round(seconds * timing.TimeDivision))
		}
	}

	start := timing.Position{}
	initial := d.grid.clock.BPMAt(start)
	d.add(d.meta, start, model.Event{Name: model.EventStartPos})
	d.add(d.meta, start, model.Event{Name: model.EventBarOn})
	d.add(d.meta, start, bpmEvent(initial))
	d.add(d.notes, start, model.Event{Name: model.EventStartPos})
	d.add(d.notes, start, model.Event{Name: model.EventChipStart})

	d.tempos()
	for _, m := range in.doc.measures() {
		d.measure(m)
	}
	for _, w := range postprocess.ResolveHolds(d.holds, d.markers) {
		p.Report(w)
	}

	d.add(d.notes, d.last, model.Event{Name: model.EventChipEnd})
	end := d.last
	if p.DTXPadEnd > 0 {
		end = timing.Position{Measure: d.last.Measure + p.DTXPadEnd}
	}
	d.add(d.notes, end, model.Event{Name: model.EventEndPos})
	d.add(d.meta, end, model.Event{Name: model.EventEndPos})
	d.measureLines(util.Max(end.Measure, in.doc.lastMeasure()))

	endTs := d.grid.timestamp(end)
	g, _ := model.GameTypeForPart(in.part)
	metaHeader := model.NewHeader(g, in.difficulty, true)
	metaHeader.MusicID = p.MusicID

	res := &decoded{
		metadata: &model.Chart{Header: metaHeader, Timestamp: chart.KeepBetween(d.meta, 0, endTs, nil)},
		bgm:      model.BGM{End: d.grid.clock.Seconds(end), Data: d.bgm},
	}
	c := &model.Chart{Header: in.header(initial, p), Timestamp: chart.KeepBetween(d.notes, 0, endTs, nil)}
	if c.HasPlayableNotes() {
		res.chart = c
	}
	return res, nil
}

func (c Codec) Decode(data []byte, p *model.Params) (*model.Song, error) {
	if p == nil {
		p = &model.Params{}
	}
	ins, err := c.inputs(data, p)
	if err != nil {
		return nil, err
	}

	song := &model.Song{MusicID: p.MusicID, Format: Name}
	sounds := newSoundTable()
	bgmFiles := make(map[string]bool)
	var metadata *model.Chart
	var charts []*model.Chart
	for _, in := range ins {
		res, err := decodeChart(in, sounds, p)
		if err != nil {
			return nil, err
		}
		for _, clip := range res.bgm.Data {
			bgmFiles[clip.Filename] = true
		}
		if metadata == nil {
			metadata = res.metadata
			song.BGM = res.bgm
			song.Preview, _ = in.doc.value("PREVIEW")
		}
		if res.chart != nil {
			charts = append(charts, res.chart)
		}
	}
	if metadata == nil {
		return nil, errs.Formatf("dtx input holds no charts")
	}

	sounds.removeFiles(bgmFiles)
	song.SoundMetadata = sounds.metadata(p)

	rank := make(map[int]int, len(difficultyOrder))
	for i, d := range difficultyOrder {
		rank[d] = i
	}
	sort.SliceStable(charts, func(i, j int) bool {
		a, b := charts[i].Header, charts[j].Header
		if a.Difficulty != b.Difficulty {
			return rank[a.Difficulty] < rank[b.Difficulty]
		}
		return a.GameType < b.GameType
	})
	song.Charts = append([]*model.Chart{metadata}, charts...)
	return song, nil
}
