package timing

import (
	"math"
)

// Position is a (measure, tick) coordinate where tick counts from the
// start of the measure in WholeMeasureTicks scale.
type Position struct {
	Measure int
	Tick    int
}

func (p Position) Key() int64 {
	return int64(p.Measure)<<32 | int64(uint32(p.Tick))
}

func PositionFromKey(k int64) Position {
	return Position{Measure: int(k >> 32), Tick: int(uint32(k))}
}

// Clock converts measure positions to timestamps for one chart. It caches
// the start of every measure it has walked, so build a new one per chart.
type Clock struct {
	sigs   *Index[int, TimeSig]
	tempo  *Index[int64, float64]
	starts []float64
}

func NewClock(sigs map[int]TimeSig, bpms map[Position]float64) *Clock {
	byKey := make(map[int64]float64, len(bpms))
	for p, bpm := range bpms {
		byKey[p.Key()] = bpm
	}
	return &Clock{
		sigs:   NewIndex(sigs),
		tempo:  NewIndex(byKey),
		starts: []float64{0},
	}
}

func (c *Clock) TimeSigAt(measure int) TimeSig {
	if ts, ok := c.sigs.AtOrBefore(measure); ok {
		return ts
	}
	return Common
}

// BPMAt falls back to the first tempo in the map when nothing precedes p.
func (c *Clock) BPMAt(p Position) float64 {
	if bpm, ok := c.tempo.AtOrBefore(p.Key()); ok {
		return bpm
	}
	bpm, _ := c.tempo.First()
	return bpm
}

func tickSeconds(ts TimeSig, bpm float64) float64 {
	oneMeasure := float64((WholeMeasureTicks / ts.Denominator) * ts.Numerator)
	return BeatSeconds(bpm, ts) * float64(ts.Numerator) / oneMeasure
}

// offset is the time from the start of measure m to tick.
func (c *Clock) offset(m int, tick int) float64 {
	ts := c.TimeSigAt(m)
	start := Position{Measure: m}
	bpm := c.BPMAt(start)
	var seconds float64
	pos := 0
	for _, k := range c.tempo.Between(start.Key(), Position{Measure: m, Tick: tick}.Key()) {
		change := PositionFromKey(k)
		seconds += float64(change.Tick-pos) * tickSeconds(ts, bpm)
		bpm, _ = c.tempo.Get(k)
		pos = change.Tick
	}
	seconds += float64(tick-pos) * tickSeconds(ts, bpm)
	return seconds
}

func (c *Clock) measureStart(m int) float64 {
	for len(c.starts) <= m {
		prev := len(c.starts) - 1
		ts := c.TimeSigAt(prev)
		ticks := (WholeMeasureTicks / ts.Denominator) * ts.Numerator
		c.starts = append(c.starts, c.starts[prev]+c.offset(prev, ticks))
	}
	return c.starts[m]
}

func (c *Clock) Seconds(p Position) float64 {
	if p.Measure < 0 {
		return 0
	}
	return c.measureStart(p.Measure) + c.offset(p.Measure, p.Tick)
}

func (c *Clock) Timestamp(p Position) int {
	return int(math.Round(c.Seconds(p) * TimeDivision))
}
