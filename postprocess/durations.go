package postprocess

import (
	"fmt"
	"math"
	"path/filepath"

	"github.com/jsphweid/seqconv/audio"
	"github.com/jsphweid/seqconv/model"
	"github.com/jsphweid/seqconv/timing"
)

// SoundFilename is the file backing a sound entry inside a sound folder.
func SoundFilename(e model.SoundEntry) string {
	if e.NoFilename() {
		return fmt.Sprintf("%04x.wav", e.SoundID)
	}
	return e.Filename
}

// EntryDuration prefers the duration recorded in the bank and probes the
// wav otherwise. Missing files count as zero length.
func EntryDuration(e model.SoundEntry, folder string) float64 {
	if e.Duration != 0 {
		return e.Duration
	}
	if folder == "" {
		return 0
	}
	d, err := audio.Duration(filepath.Join(folder, SoundFilename(e)))
	if err != nil {
		return 0
	}
	return d
}

// AddNoteDurations fills note_length on notes that do not have one yet.
func AddNoteDurations(t model.Timeline, bank *model.SoundBank, folder string) {
	if bank == nil || len(bank.Entries) == 0 {
		return
	}
	lookup := make(map[int]float64, len(bank.Entries))
	for _, e := range bank.Entries {
		lookup[e.SoundID] = EntryDuration(e, folder)
	}

	for _, evts := range t {
		for i := range evts {
			e := &evts[i]
			if e.Name != model.EventNote && e.Name != model.EventAuto {
				continue
			}
			d := e.D()
			if d.NoteLength != 0 {
				continue
			}
			d.NoteLength = int(math.Round(lookup[d.SoundID] * timing.TimeDivision))
		}
	}
}
