package dtx

import (
	"bytes"
	"fmt"
	"math"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/jsphweid/seqconv/chart"
	"github.com/jsphweid/seqconv/errs"
	"github.com/jsphweid/seqconv/lane"
	"github.com/jsphweid/seqconv/model"
	"github.com/jsphweid/seqconv/postprocess"
	"github.com/jsphweid/seqconv/timing"
	"github.com/jsphweid/seqconv/util"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/japanese"
)

// ZZ is taken by the BGM
const maxToken = 36*36 - 2

const bgmToken = "ZZ"

func token(i int) string {
	s := strings.ToUpper(strconv.FormatInt(int64(i), 36))
	if len(s) < 2 {
		s = "0" + s
	}
	return s
}

func lanesFor(g model.GameType) map[string]int {
	switch g {
	case model.GameDrum:
		return drumChannels
	case model.GameBass:
		return bassChannels
	}
	return guitarChannels
}

// fitTimeSigs rejects denominators above 4 unless fake is set. With fake
// they become x/4 and the tempo is scaled so every measure keeps its length.
func fitTimeSigs(t model.Timeline, fake bool) error {
	factor := 1.0
	var real float64
	for _, k := range t.Keys() {
		changed := false
		beat := 0
		for i := range t[k] {
			e := &t[k][i]
			if e.Name != model.EventBarInfo || e.Data == nil {
				continue
			}
			ts := timing.TimeSig{Numerator: e.Data.Numerator, Denominator: e.Data.Denominator}
			if err := timing.Validate(ts); err != nil {
				return err
			}
			next := 1.0
			if ts.Denominator > 4 {
				if !fake {
					return errs.Constraintf("time signature %d/%d at timestamp %d needs fake time signatures in dtx", ts.Numerator, ts.Denominator, k)
				}
				next = float64(ts.Denominator) / 4
				e.Data.Denominator = 4
				e.Data.DenominatorOrig = timing.Log2(4)
			}
			if next != factor {
				factor, changed, beat = next, true, e.Beat
			}
		}

		hasBPM := false
		for i := range t[k] {
			e := &t[k][i]
			if e.Name != model.EventBPM || e.Data == nil {
				continue
			}
			hasBPM = true
			real = e.Data.BPM
			e.Data.BPM = real * factor
		}
		if changed && !hasBPM && real != 0 {
			t.Add(k, model.Event{Name: model.EventBPM, Beat: beat, Data: &model.EventData{BPM: real * factor}})
		}
	}
	return nil
}

// placer turns timestamps into (measure, tick) positions from the measure
// lines and the tempo between them.
type placer struct {
	measures []int
	sigs     []timing.TimeSig
	tempo    *timing.Index[int, float64]

	// beat of each measure line, usable when onGrid
	beats  []int
	onGrid bool
}

// events whose beat and timestamp disagree by more than a 32nd note are
// placed by timestamp
const beatTolerance = timing.WholeMeasureTicks / 32

func newPlacer(t model.Timeline) (*placer, error) {
	sigs := chart.TimeSigs(t)
	bpms := make(map[int]float64)
	pl := &placer{}
	for _, k := range t.Keys() {
		for _, e := range t[k] {
			switch {
			case e.Name == model.EventBPM && e.Data != nil && e.Data.BPM > 0:
				bpms[k] = e.Data.BPM
			case e.Name == model.EventMeasure:
				if n := len(pl.measures); n > 0 && pl.measures[n-1] == k {
					continue
				}
				ts, ok := sigs.AtOrBefore(k)
				if !ok {
					ts = timing.Common
				}
				pl.measures = append(pl.measures, k)
				pl.sigs = append(pl.sigs, ts)
				pl.beats = append(pl.beats, e.Beat)
			}
		}
	}
	if len(bpms) == 0 {
		return nil, errs.Encodef("chart has no tempo")
	}
	if len(pl.measures) == 0 {
		return nil, errs.Encodef("chart has no measure lines")
	}
	pl.tempo = timing.NewIndex(bpms)
	pl.onGrid = pl.beatsFit()
	return pl, nil
}

// beatsFit reports whether the measure lines carry beats that agree with
// their time signatures.
func (pl *placer) beatsFit() bool {
	if len(pl.beats) < 2 {
		return false
	}
	for m := 1; m < len(pl.beats); m++ {
		if pl.beats[m]-pl.beats[m-1] != pl.size(m-1) {
			return false
		}
	}
	return true
}

func (pl *placer) bpmAt(ts int) float64 {
	if bpm, ok := pl.tempo.AtOrBefore(ts); ok {
		return bpm
	}
	bpm, _ := pl.tempo.First()
	return bpm
}

// ticksBetween counts ticks at 8*bpm per second.
func (pl *placer) ticksBetween(from, to int) float64 {
	var res float64
	pos, bpm := from, pl.bpmAt(from)
	for _, k := range pl.tempo.Between(from, to) {
		res += float64(k-pos) / timing.TimeDivision * 8 * bpm
		bpm, _ = pl.tempo.Get(k)
		pos = k
	}
	return res + float64(to-pos)/timing.TimeDivision*8*bpm
}

func (pl *placer) sig(m int) timing.TimeSig {
	if m < len(pl.sigs) {
		return pl.sigs[m]
	}
	return pl.sigs[len(pl.sigs)-1]
}

func (pl *placer) size(m int) int {
	ts := pl.sig(m)
	return timing.BeatTicks(ts) * ts.Numerator
}

func (pl *placer) position(ts int) (int, int) {
	m := sort.Search(len(pl.measures), func(i int) bool { return pl.measures[i] > ts }) - 1
	if m < 0 {
		return 0, 0
	}
	tick := int(math.Round(pl.ticksBetween(pl.measures[m], ts)))
	for tick >= pl.size(m) {
		tick -= pl.size(m)
		m++
	}
	return m, tick
}

// tickOf counts ticks from the first measure line. Only valid on grid.
func (pl *placer) tickOf(m, tick int) int {
	last := len(pl.beats) - 1
	if m <= last {
		return pl.beats[m] - pl.beats[0] + tick
	}
	return pl.beats[last] - pl.beats[0] + (m-last)*pl.size(last) + tick
}

// place positions an event by its beat when the chart carries a beat grid,
// keeping the ticks the chart was authored on. Otherwise, and for events
// without a beat, the timestamp decides.
func (pl *placer) place(ts, beat int) (int, int) {
	m, tick := pl.position(ts)
	if !pl.onGrid || (beat == 0 && ts != pl.measures[0]) {
		return m, tick
	}
	bm := sort.Search(len(pl.beats), func(i int) bool { return pl.beats[i] > beat }) - 1
	if bm < 0 {
		return m, tick
	}
	bt := beat - pl.beats[bm]
	for bt >= pl.size(bm) {
		bt -= pl.size(bm)
		bm++
	}
	if d := pl.tickOf(bm, bt) - pl.tickOf(m, tick); d > beatTolerance || d < -beatTolerance {
		return m, tick
	}
	return bm, bt
}

type sound struct {
	id     int
	volume int
	pan    int
}

type writer struct {
	g    model.GameType
	bank *model.SoundBank
	pl   *placer

	// measure -> channel -> tick -> token
	slots   map[int]map[int]map[int]string
	lengths map[int]string
	bpms    []float64
	keys    map[string]int
	sounds  []sound
}

func newWriter(g model.GameType, bank *model.SoundBank, pl *placer) *writer {
	return &writer{
		g:       g,
		bank:    bank,
		pl:      pl,
		slots:   make(map[int]map[int]map[int]string),
		lengths: make(map[int]string),
		keys:    make(map[string]int),
	}
}

func (w *writer) slot(m, ch, tick int) string {
	return w.slots[m][ch][tick]
}

func (w *writer) set(m, ch, tick int, tok string) {
	if w.slots[m] == nil {
		w.slots[m] = make(map[int]map[int]string)
	}
	if w.slots[m][ch] == nil {
		w.slots[m][ch] = make(map[int]string)
	}
	w.slots[m][ch][tick] = tok
}

func (w *writer) soundToken(ts int, s sound) (string, error) {
	key := fmt.Sprintf("%04d_%03d_%03d", s.id, s.volume, s.pan)
	if i, ok := w.keys[key]; ok {
		return token(i), nil
	}
	if len(w.sounds) >= maxToken {
		return "", errs.CapacityAt(ts, "dtx has no wav slot left for sound %d", s.id)
	}
	w.sounds = append(w.sounds, s)
	w.keys[key] = len(w.sounds)
	return token(len(w.sounds)), nil
}

// mix folds the volume and pan of the note and its sound entry into the
// percentages DTX stores per wav.
func (w *writer) mix(d *model.EventData) (volume, pan int) {
	entryVolume, entryPan := 127, 64
	if e, ok := w.bank.Entry(d.SoundID); ok {
		entryVolume, entryPan = e.Volume, e.Pan
	}

	volume = int(math.Round(float64(d.Volume) / 127 * float64(entryVolume) / 127 * 100))
	if d.AutoVolume != 0 {
		volume = int(math.Round(float64(volume) * 2 / 3))
	}

	notePan := 64
	if d.Pan != nil {
		notePan = *d.Pan
	}
	switch {
	case notePan != 64:
		pan = int(math.Round((float64(notePan) - float64(128-entryPan)/2) / 64 * 100))
	case entryPan != 64:
		pan = int(math.Round(float64(entryPan-64) / 64 * 100))
	}

	// the game mirrors these pads
	switch d.Note {
	case lane.LeftCymbal, lane.HiHat:
		if pan > 0 {
			pan = -pan
		}
	case lane.FloorTom, lane.RightCymbal:
		if pan < 0 {
			pan = -pan
		}
	}
	return volume, pan
}

func (w *writer) note(ts, m, tick int, e *model.Event) error {
	d := e.D()
	ch, ok := channels[d.Note]
	if e.Name == model.EventAuto || e.IsAutoNote() || !ok {
		ch = -1
		for _, c := range autoChannels {
			if w.slot(m, c, tick) == "" {
				ch = c
				break
			}
		}
		if ch < 0 {
			return errs.CapacityAt(ts, "no free dtx auto lane in measure %d", m)
		}
	}

	volume, pan := w.mix(d)
	tok, err := w.soundToken(ts, sound{id: d.SoundID, volume: volume, pan: pan})
	if err != nil {
		return err
	}
	w.set(m, ch, tick, tok)

	if d.GuitarSpecial&model.SpecialWail != 0 && wailChannels[w.g] >= 0 {
		w.set(m, wailChannels[w.g], tick, tok)
	}

	if pad, ok := bonusPads[d.Note]; ok && d.BonusNote && !isAutoChannel(ch) {
		placed := false
		for c := bonusFirst; c >= bonusLast; c-- {
			if w.slot(m, c, tick) == "" {
				w.set(m, c, tick, fmt.Sprintf("%02X", pad))
				placed = true
				break
			}
		}
		if !placed {
			return errs.CapacityAt(ts, "no free dtx bonus lane for %s", d.Note)
		}
	}
	return nil
}

func (w *writer) event(ts int, e *model.Event) error {
	m, tick := w.pl.place(ts, e.Beat)
	switch e.Name {
	case model.EventBPM:
		if e.Data == nil {
			return nil
		}
		if len(w.bpms) >= maxToken {
			return errs.CapacityAt(ts, "dtx has no tempo slot left")
		}
		w.bpms = append(w.bpms, e.Data.BPM)
		w.set(m, chBPM, tick, token(len(w.bpms)))
	case model.EventBarInfo:
		if e.Data == nil || e.Data.Denominator == 0 {
			return nil
		}
		w.lengths[m] = strconv.FormatFloat(float64(e.Data.Numerator)/float64(e.Data.Denominator), 'f', -1, 64)
	case model.EventBarOn:
		w.set(m, chBar, tick, token(barOn))
	case model.EventBarOff:
		w.set(m, chBar, tick, token(barOff))
	case model.EventEndPos:
		w.set(m, chBar, tick, token(barEnd))
	case postprocess.EventNoteRelease:
		if longChannels[w.g] >= 0 {
			w.set(m, longChannels[w.g], tick, token(1))
		}
	case model.EventNote, model.EventAuto:
		return w.note(ts, m, tick, e)
	}
	return nil
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

// line packs the ticks of one channel into the fewest tokens that keep
// every tick on a slot.
func line(ticks map[int]string, size int) string {
	step := size
	for tick := range ticks {
		step = gcd(step, tick)
	}
	if step == 0 {
		step = size
	}
	toks := make([]string, size/step)
	for i := range toks {
		toks[i] = "00"
	}
	for tick, tok := range ticks {
		if i := tick / step; i < len(toks) {
			toks[i] = tok
		}
	}
	return strings.Join(toks, "")
}

func wavFilename(bank *model.SoundBank, id int) string {
	name := fmt.Sprintf("%04x.wav", id)
	if e, ok := bank.Entry(id); ok {
		name = postprocess.SoundFilename(e)
	}
	if filepath.Ext(name) == "" {
		name += ".wav"
	}
	return name
}

var levelTags = []struct {
	part string
	tag  string
}{
	{model.PartDrum, "DLEVEL"},
	{model.PartGuitar, "GLEVEL"},
	{model.PartBass, "BLEVEL"},
	{model.PartOpen, "GLEVEL"},
}

func bgmFilename(h model.Header, musicID int) string {
	if h.Level == nil {
		return "bgm.wav"
	}
	part := func(name, initial string) string {
		if _, ok := h.Level[name]; ok {
			return "_"
		}
		return initial
	}
	suffix := part(model.PartDrum, "d") + part(model.PartGuitar, "g") + part(model.PartBass, "b") + "k"
	// there is no bass only BGM
	if suffix == "__bk" {
		suffix = "d__k"
	}
	return fmt.Sprintf("bgm%04d%s.wav", musicID, suffix)
}

func (w *writer) text(h model.Header, musicID int) string {
	var out []string
	add := func(format string, args ...interface{}) {
		out = append(out, fmt.Sprintf(format, args...))
	}

	title, artist := h.Title, h.Artist
	if title == "" {
		title = "(no title)"
	}
	if artist == "" {
		artist = "(no artist)"
	}
	add("#TITLE %s", title)
	add("#ARTIST %s", artist)

	for _, l := range levelTags {
		if v, ok := h.Level[l.part]; ok {
			add("#%s %d", l.tag, v)
		}
	}
	if _, ok := h.Level[model.PartDrum]; ok {
		add("#PREVIEW i%04ddm.wav", musicID)
	} else if len(h.Level) > 0 {
		add("#PREVIEW i%04dgf.wav", musicID)
	}

	if h.PreImage != "" {
		add("#PREIMAGE %s", h.PreImage)
	} else {
		add("#PREIMAGE img_jk%04d.png", musicID)
	}
	add("#AVIZZ mv%04d.avi", musicID)

	bpm := func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
	add("#BPM %s", bpm(w.bpms[0]))
	for i, v := range w.bpms {
		add("#BPM%s %s", token(i+1), bpm(v))
	}

	for i, s := range w.sounds {
		add("#WAV%s %s", token(i+1), wavFilename(w.bank, s.id))
	}
	add("#WAV%s %s", bgmToken, bgmFilename(h, musicID))
	for i, s := range w.sounds {
		add("#VOLUME%s %d", token(i+1), s.volume)
	}
	for i, s := range w.sounds {
		add("#PAN%s %d", token(i+1), s.pan)
	}

	add("#%03d%02X: %s", 0, chBGM, bgmToken)
	add("#%03d%02X: %s", 0, chBGMTrigger, bgmToken)

	measures := make(map[int]bool)
	for m := range w.slots {
		measures[m] = true
	}
	for m := range w.lengths {
		measures[m] = true
	}
	for _, m := range util.GetKeys(measures) {
		chs := make(map[int]bool)
		for ch := range w.slots[m] {
			chs[ch] = true
		}
		if _, ok := w.lengths[m]; ok {
			chs[chMeasureLength] = true
		}
		for _, ch := range util.GetKeys(chs) {
			if ch == chMeasureLength {
				add("#%03d%02X: %s", m, ch, w.lengths[m])
				continue
			}
			add("#%03d%02X: %s", m, ch, line(w.slots[m][ch], w.pl.size(m)))
		}
	}
	return strings.Join(out, "\n") + "\n"
}

func toShiftJIS(s string) ([]byte, error) {
	out, err := encoding.ReplaceUnsupported(japanese.ShiftJIS.NewEncoder()).String(s)
	if err != nil {
		return nil, errs.Encodef("could not encode dtx text: %v", err)
	}
	return []byte(out), nil
}

func encodeChart(song *model.Song, metadata, c *model.Chart, p *model.Params) ([]byte, error) {
	g := c.Header.GameType

	notes := make(model.Timeline, len(c.Timestamp))
	for k, evts := range c.Timestamp {
		for _, e := range evts {
			if e.Name != model.EventStartPos && e.Name != model.EventEndPos {
				notes.Add(k, e)
			}
		}
	}
	t := chart.Merge(metadata.Timestamp, notes)
	if err := fitTimeSigs(t, p.DTXFakeTimesigs); err != nil {
		return nil, err
	}
	for _, warning := range postprocess.CorrectAutoNotes(t, lanesFor(g), chAuto) {
		p.Report(warning)
	}
	postprocess.AddReleases(t)

	bank := song.SoundMetadata.For(g)
	if bank == nil {
		bank = p.Sounds.For(g)
	}
	if g.IsDrum() {
		var render postprocess.Renderer
		if !p.NoSounds && p.SoundFolder != "" {
			render = postprocess.ClipFile
		}
		if err := postprocess.ResolveMutableSounds(t, bank, p.SoundFolder, render); err != nil {
			return nil, err
		}
	}

	pl, err := newPlacer(t)
	if err != nil {
		return nil, err
	}
	w := newWriter(g, bank, pl)
	for _, k := range t.Keys() {
		for i := range t[k] {
			if err := w.event(k, &t[k][i]); err != nil {
				return nil, err
			}
		}
	}
	return toShiftJIS(w.text(c.Header, song.MusicID))
}

func Filename(song *model.Song, c *model.Chart) string {
	format := ""
	if song.Format != "" {
		format = "_" + strings.ToLower(song.Format)
	}
	return fmt.Sprintf("%s%04d_%s%s.%s",
		gameInitials[c.Header.GameType],
		song.MusicID,
		model.DifficultyName(c.Header.Difficulty),
		format,
		Ext,
	)
}

// setDefinition lists every chart of a part under one title. DTXMania
// numbers the levels from 1.
func setDefinition(song *model.Song, charts []*model.Chart) ([]byte, error) {
	title := ""
	byType := make(map[model.GameType]map[int]string)
	for _, c := range charts {
		g := c.Header.GameType
		if byType[g] == nil {
			byType[g] = make(map[int]string)
		}
		byType[g][c.Header.Difficulty] = Filename(song, c)
		if c.Header.Title != "" {
			title = c.Header.Title
		}
	}

	var buf bytes.Buffer
	for _, g := range util.GetKeys(byType) {
		if title != "" {
			fmt.Fprintf(&buf, "#TITLE: %s (%s)\n", title, setDefParts[g])
		}
		for _, diff := range util.GetKeys(byType[g]) {
			fmt.Fprintf(&buf, "#L%dFILE: %s\n", diff+1, byType[g][diff])
		}
		buf.WriteString("\n")
	}
	return toShiftJIS(buf.String())
}

// Encode writes one file per note chart and the set.def listing them.
func (Codec) Encode(song *model.Song, p *model.Params) ([]model.OutputFile, error) {
	if p == nil {
		p = &model.Params{}
	}
	metadata := song.MetadataChart()
	if metadata == nil {
		return nil, errs.Encodef("couldn't find metadata chart")
	}

	var res []model.OutputFile
	var written []*model.Chart
	for _, c := range song.NoteCharts() {
		if c.Header.GameType > model.GameOpen {
			p.Report(errs.Mappingf("dtx has no %s charts, merge guitars first", c.Part()))
			continue
		}
		data, err := encodeChart(song, metadata, c, p)
		if err != nil {
			return nil, err
		}
		res = append(res, model.OutputFile{Name: Filename(song, c), Data: data})
		written = append(written, c)
	}
	if len(written) == 0 {
		return nil, errs.Encodef("song has no charts dtx can hold")
	}

	set, err := setDefinition(song, written)
	if err != nil {
		return nil, err
	}
	res = append(res, model.OutputFile{Name: SetDefinitionFilename, Data: set, Append: true})
	return res, nil
}
