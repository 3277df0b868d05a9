// Package midi turns charts into MIDI so they can be auditioned, either as
// a Standard MIDI File or live on an output port.
package midi

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/jsphweid/seqconv/lane"
	"github.com/jsphweid/seqconv/model"
	"github.com/jsphweid/seqconv/timing"
	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

// at 120 bpm with 150 ticks per quarter one tick is one timestamp unit
const (
	previewBPM   = 120
	ticksPerBeat = timing.TimeDivision / 2
)

const (
	drumChannel   = 9
	guitarChannel = 0
	velocity      = 100
	// notes without a hold ring for this long
	tapLength = timing.TimeDivision / 5
)

// general MIDI percussion
var drumKeys = map[string]uint8{
	lane.HiHat:       42,
	lane.Snare:       38,
	lane.Bass:        36,
	lane.HighTom:     50,
	lane.LowTom:      45,
	lane.RightCymbal: 51,
	lane.LeftCymbal:  49,
	lane.FloorTom:    41,
	lane.LeftPedal:   44,
}

// red to purple, then open
var fretKeys = []uint8{60, 62, 64, 65, 67}

const openKey = 55

type Note struct {
	Timestamp int
	Length    int
	Channel   uint8
	Key       uint8
}

// Notes lists the playable notes of c. Guitar chords sound every held fret.
func Notes(c *model.Chart) []Note {
	var res []Note
	for _, k := range c.Timestamp.Keys() {
		for i := range c.Timestamp[k] {
			e := &c.Timestamp[k][i]
			if e.Name != model.EventNote || e.IsAutoNote() {
				continue
			}
			d := e.D()
			length := tapLength
			if d.HoldDuration > 0 {
				length = d.HoldDuration
			}

			if key, ok := drumKeys[d.Note]; ok {
				res = append(res, Note{Timestamp: k, Length: length, Channel: drumChannel, Key: key})
				continue
			}
			mask, open, ok := lane.Mask(d.Note)
			if !ok {
				continue
			}
			if open {
				res = append(res, Note{Timestamp: k, Length: length, Channel: guitarChannel, Key: openKey})
				continue
			}
			for i, key := range fretKeys {
				if mask&(1<<i) != 0 {
					res = append(res, Note{Timestamp: k, Length: length, Channel: guitarChannel, Key: key})
				}
			}
		}
	}
	return res
}

type message struct {
	timestamp int
	data      []byte
}

// messages lists note ons and offs by time, offs first on a tie.
func messages(notes []Note) []message {
	var res []message
	for _, n := range notes {
		res = append(res,
			message{n.Timestamp, gomidi.NoteOn(n.Channel, n.Key, velocity)},
			message{n.Timestamp + n.Length, gomidi.NoteOff(n.Channel, n.Key)},
		)
	}
	sort.SliceStable(res, func(i, j int) bool {
		if res[i].timestamp != res[j].timestamp {
			return res[i].timestamp < res[j].timestamp
		}
		return gomidi.Message(res[i].data).Is(gomidi.NoteOffMsg) && !gomidi.Message(res[j].data).Is(gomidi.NoteOffMsg)
	})
	return res
}

// WritePreview writes the notes of c as a single track Standard MIDI File.
func WritePreview(c *model.Chart, w io.Writer) error {
	s := smf.New()
	s.TimeFormat = smf.MetricTicks(ticksPerBeat)

	var tr smf.Track
	tr.Add(0, smf.MetaTempo(previewBPM))
	last := 0
	for _, m := range messages(Notes(c)) {
		tr.Add(uint32(m.timestamp-last), m.data)
		last = m.timestamp
	}
	tr.Close(0)

	if err := s.Add(tr); err != nil {
		return err
	}
	_, err := s.WriteTo(w)
	return err
}

func ReadPreview(filepath string) (s *smf.SMF, e error) {
	var blank smf.SMF
	var err error

	// handle panics
	// https://github.com/gomidi/midi/issues/20
	defer func() {
		if r, ok := recover().(string); ok {
			e = errors.New(r)
		}
	}()

	dat, err := os.ReadFile(filepath)

	if err != nil {
		errText := fmt.Sprintf("Error reading midi file... %s", err.Error())
		return &blank, errors.New(errText)
	}
	res, err := smf.ReadFrom(bytes.NewReader(dat))

	if err != nil {
		errText := fmt.Sprintf("Error parsing midi file... %s", err.Error())
		return &blank, errors.New(errText)
	}

	return res, nil
}
