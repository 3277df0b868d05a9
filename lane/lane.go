// Package lane names the lanes notes are played on. Drum lanes are pads,
// guitar and bass lanes are fret combinations written as "g_rgbyp" with an
// x for every fret that is not held.
package lane

import (
	"strings"

	"github.com/jsphweid/seqconv/model"
)

const Auto = model.NoteAuto

const (
	HiHat       = "hihat"
	Snare       = "snare"
	Bass        = "bass"
	HighTom     = "hightom"
	LowTom      = "lowtom"
	RightCymbal = "rightcymbal"
	LeftCymbal  = "leftcymbal"
	FloorTom    = "floortom"
	LeftPedal   = "leftpedal"
)

// Drums in the order the binary formats index them.
var Drums = []string{HiHat, Snare, Bass, HighTom, LowTom, RightCymbal, LeftCymbal, FloorTom, LeftPedal}

const (
	Red    = 0x01
	Green  = 0x02
	Blue   = 0x04
	Yellow = 0x08
	Purple = 0x10
)

const frets = "rgbyp"

func Prefix(g model.GameType) string {
	if g == model.GameBass {
		return "b_"
	}
	return "g_"
}

func Open(g model.GameType) string {
	return Prefix(g) + "open"
}

// Guitar names a fret mask on the five lane layout. A zero mask is open.
func Guitar(g model.GameType, mask int) string {
	if mask == 0 {
		return Open(g)
	}
	var sb strings.Builder
	sb.WriteString(Prefix(g))
	for i := range frets {
		if mask&(1<<i) != 0 {
			sb.WriteByte(frets[i])
		} else {
			sb.WriteByte('x')
		}
	}
	return sb.String()
}

// Guitar3 names a fret mask on the three lane layout.
func Guitar3(g model.GameType, mask int) string {
	return Guitar(g, mask)[:len(Prefix(g))+3]
}

// Mask parses any guitar or bass lane name. Three lane names are the five
// lane names without yellow and purple.
func Mask(name string) (mask int, open bool, ok bool) {
	if len(name) < 2 || (name[:2] != "g_" && name[:2] != "b_") {
		return 0, false, false
	}
	rest := name[2:]
	if rest == "open" {
		return 0, true, true
	}
	if len(rest) != 3 && len(rest) != 5 {
		return 0, false, false
	}
	for i := 0; i < len(rest); i++ {
		switch rest[i] {
		case 'x':
		case frets[i]:
			mask |= 1 << i
		default:
			return 0, false, false
		}
	}
	return mask, false, mask != 0
}

func DrumIndex(name string) (int, bool) {
	for i, d := range Drums {
		if d == name {
			return i, true
		}
	}
	return 0, false
}

func IsDrum(name string) bool {
	_, ok := DrumIndex(name)
	return ok
}
