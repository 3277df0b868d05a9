package postprocess

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"github.com/jsphweid/seqconv/audio"
	"github.com/jsphweid/seqconv/model"
	"github.com/jsphweid/seqconv/timing"
)

// Renderer produces the audio for a clipped sound. The default renders with
// audio.Clip; nil skips rendering.
type Renderer func(src, dst string, seconds float64) error

func ClipFile(src, dst string, seconds float64) error {
	return audio.Clip(src, dst, seconds)
}

// ClippedFilename names the clipped copy of src stored under id.
func ClippedFilename(id int, src model.SoundEntry) string {
	name := SoundFilename(src)
	return fmt.Sprintf("clipped_%d_%s.wav", id, strings.TrimSuffix(name, filepath.Ext(name)))
}

func clippedFrom(e, src model.SoundEntry) bool {
	return e.Clipped && e.Filename == ClippedFilename(e.SoundID, src)
}

// clippedEntry reuses a clipped copy of src with the same length or adds a
// new one to the bank under the next free mutable id.
func clippedEntry(bank *model.SoundBank, src model.SoundEntry, seconds float64, folder string, render Renderer) (model.SoundEntry, error) {
	seconds = math.Round(seconds*1000) / 1000
	for _, e := range bank.Entries {
		if clippedFrom(e, src) && e.Duration == seconds {
			return e, nil
		}
	}

	next := model.MutableSoundID
	for _, e := range bank.Entries {
		if e.SoundID >= next {
			next = e.SoundID + 1
		}
	}

	clipped := src
	clipped.Flags = nil
	for _, f := range src.Flags {
		if f != model.FlagNoFilename {
			clipped.Flags = append(clipped.Flags, f)
		}
	}
	clipped.SoundID = next
	clipped.Filename = ClippedFilename(next, src)
	clipped.Clipped = true
	clipped.Duration = seconds
	bank.Entries = append(bank.Entries, clipped)

	if render != nil {
		srcPath := filepath.Join(folder, SoundFilename(src))
		dstPath := filepath.Join(folder, clipped.Filename)
		if err := render(srcPath, dstPath, seconds); err != nil {
			return clipped, err
		}
	}
	return clipped, nil
}

// ResolveMutableSounds handles drum sounds at or above MutableSoundID, of
// which the game plays only one at a time. On a shared tick all but the
// last go silent. When the previous tick also played a mutable sound that
// is still ringing, that sound is swapped for a copy clipped to the gap.
func ResolveMutableSounds(t model.Timeline, bank *model.SoundBank, folder string, render Renderer) error {
	if bank == nil {
		return nil
	}

	var last *model.EventData
	lastTs := 0
	for _, k := range t.Keys() {
		var audible *model.EventData
		var mutable []*model.EventData
		for i := range t[k] {
			e := &t[k][i]
			if (e.Name == model.EventNote || e.Name == model.EventAuto) && e.Data != nil && e.Data.SoundID >= model.MutableSoundID {
				mutable = append(mutable, e.Data)
				audible = e.Data
			}
		}

		if audible != nil {
			for _, d := range mutable {
				if d.SoundID != audible.SoundID {
					d.Volume = 0
				}
			}

			if last != nil {
				if entry, ok := bank.Entry(last.SoundID); ok {
					gap := float64(k-lastTs) / timing.TimeDivision
					if gap < entry.Duration {
						clipped, err := clippedEntry(bank, entry, gap, folder, render)
						if err != nil {
							return err
						}
						last.SoundID = clipped.SoundID
					}
				}
			}
		}

		last = audible
		lastTs = k
	}
	return nil
}
