package dtx

import (
	"github.com/jsphweid/seqconv/lane"
	"github.com/jsphweid/seqconv/model"
)

// channels that are not notes
const (
	chBGM           = 0x01
	chMeasureLength = 0x02
	chBPMInt        = 0x03
	chBPM           = 0x08
	chGuitarWail    = 0x28
	chGuitarLong    = 0x2a
	chBassLong      = 0x2b
	chBassWail      = 0xa8
	chBar           = 0xc2
	chBGMTrigger    = 0x54
	chAuto          = 0x61
)

// values of the 0xc2 bar channel
const (
	barOn  = 0x01
	barOff = 0x02
	barEnd = 0x03
)

var drumChannels = map[string]int{
	lane.HiHat:       0x11,
	lane.Snare:       0x12,
	lane.Bass:        0x13,
	lane.HighTom:     0x14,
	lane.LowTom:      0x15,
	lane.RightCymbal: 0x16,
	lane.FloorTom:    0x17,
	lane.LeftCymbal:  0x1a,
	lane.LeftPedal:   0x1b,
}

var guitarChannels = map[string]int{
	"g_open":  0x20,
	"g_xxbxx": 0x21,
	"g_xgxxx": 0x22,
	"g_xgbxx": 0x23,
	"g_rxxxx": 0x24,
	"g_rxbxx": 0x25,
	"g_rgxxx": 0x26,
	"g_rgbxx": 0x27,
	"g_xxb":   0x21,
	"g_xgx":   0x22,
	"g_xgb":   0x23,
	"g_rxx":   0x24,
	"g_rxb":   0x25,
	"g_rgx":   0x26,
	"g_rgb":   0x27,
	"g_xxxyx": 0x93,
	"g_xxbyx": 0x94,
	"g_xgxyx": 0x95,
	"g_xgbyx": 0x96,
	"g_rxxyx": 0x97,
	"g_rxbyx": 0x98,
	"g_rgxyx": 0x99,
	"g_rgbyx": 0x9a,
	"g_xxxxp": 0x9b,
	"g_xxbxp": 0x9c,
	"g_xgxxp": 0x9d,
	"g_xgbxp": 0x9e,
	"g_rxxxp": 0x9f,
	"g_rxbxp": 0xa9,
	"g_rgxxp": 0xaa,
	"g_rgbxp": 0xab,
	"g_xxxyp": 0xac,
	"g_xxbyp": 0xad,
	"g_xgxyp": 0xae,
	"g_xgbyp": 0xaf,
	"g_rxxyp": 0xd0,
	"g_rxbyp": 0xd1,
	"g_rgxyp": 0xd2,
	"g_rgbyp": 0xd3,
}

var bassChannels = map[string]int{
	"b_open":  0xa0,
	"b_xxbxx": 0xa1,
	"b_xgxxx": 0xa2,
	"b_xgbxx": 0xa3,
	"b_rxxxx": 0xa4,
	"b_rxbxx": 0xa5,
	"b_rgxxx": 0xa6,
	"b_rgbxx": 0xa7,
	"b_xxb":   0xa1,
	"b_xgx":   0xa2,
	"b_xgb":   0xa3,
	"b_rxx":   0xa4,
	"b_rxb":   0xa5,
	"b_rgx":   0xa6,
	"b_rgb":   0xa7,
	"b_xxxyx": 0xc5,
	"b_xxbyx": 0xc6,
	"b_xgxyx": 0xc8,
	"b_xgbyx": 0xc9,
	"b_rxxyx": 0xca,
	"b_rxbyx": 0xcb,
	"b_rgxyx": 0xcc,
	"b_rgbyx": 0xcd,
	"b_xxxxp": 0xce,
	"b_xxbxp": 0xcf,
	"b_xgxxp": 0xda,
	"b_xgbxp": 0xdb,
	"b_rxxxp": 0xdc,
	"b_rxbxp": 0xdd,
	"b_rgxxp": 0xde,
	"b_rgbxp": 0xdf,
	"b_xxxyp": 0xe1,
	"b_xxbyp": 0xe2,
	"b_xgxyp": 0xe3,
	"b_xgbyp": 0xe4,
	"b_rxxyp": 0xe5,
	"b_rxbyp": 0xe6,
	"b_rgxyp": 0xe7,
	"b_rgbyp": 0xe8,
}

// channels is every note name the encoder can place.
var channels = func() map[string]int {
	res := map[string]int{lane.Auto: chAuto}
	for _, m := range []map[string]int{drumChannels, guitarChannels, bassChannels} {
		for k, v := range m {
			res[k] = v
		}
	}
	return res
}()

// notes maps a channel back to its note name. Where several names share a
// channel the three lane name wins.
var notes = func() map[int]string {
	res := make(map[int]string)
	for _, m := range []map[string]int{drumChannels, guitarChannels, bassChannels} {
		for k, v := range m {
			if old, ok := res[v]; ok && len(old) < len(k) {
				continue
			}
			res[v] = k
		}
	}
	res[0x18] = lane.HiHat
	res[0x1c] = lane.LeftPedal
	// ride cymbal has no pad
	res[0x19] = lane.Auto
	return res
}()

// default chip channels set the sound a pad plays when hit between notes
var defaultChips = map[int]string{
	0xb1: lane.HiHat,
	0xb2: lane.Snare,
	0xb3: lane.Bass,
	0xb4: lane.HighTom,
	0xb5: lane.LowTom,
	0xb6: lane.RightCymbal,
	0xb7: lane.FloorTom,
	0xb8: lane.HiHat,
	0xbc: lane.LeftCymbal,
	0xbd: lane.LeftPedal,
	0xbe: lane.LeftPedal,
	0xbf: "",
}

// autoChannels are tried in order when a tick already uses a channel.
var autoChannels = func() []int {
	var res []int
	for _, r := range [][2]int{{0x61, 0x69}, {0x70, 0x79}, {0x80, 0x89}, {0x90, 0x92}} {
		for c := r[0]; c <= r[1]; c++ {
			res = append(res, c)
		}
	}
	return res
}()

func isAutoChannel(c int) bool {
	for _, v := range autoChannels {
		if v == c {
			return true
		}
	}
	return false
}

// bonus channels are packed from the top down
const (
	bonusFirst = 0x4f
	bonusLast  = 0x4c
)

var bonusPads = map[string]int{
	lane.LeftCymbal:  0x01,
	lane.HiHat:       0x02,
	lane.LeftPedal:   0x03,
	lane.Snare:       0x04,
	lane.HighTom:     0x05,
	lane.Bass:        0x06,
	lane.LowTom:      0x07,
	lane.FloorTom:    0x08,
	lane.RightCymbal: 0x09,
}

func isBonusChannel(c int) bool {
	return c >= bonusLast && c <= bonusFirst
}

// channels read elsewhere or that carry nothing a chart can hold
var ignoredChannels = map[int]bool{
	0x04: true, 0x28: true, 0x29: true, 0x2f: true,
	0x51: true, 0x54: true, 0xa8: true,
}

func channelPart(c int) string {
	switch {
	case c >= 0x11 && c <= 0x1c:
		return model.PartDrum
	case inTable(guitarChannels, c):
		return model.PartGuitar
	case inTable(bassChannels, c):
		return model.PartBass
	}
	return ""
}

func inTable(m map[string]int, c int) bool {
	for _, v := range m {
		if v == c {
			return true
		}
	}
	return false
}

// per game type: drum, guitar, bass, open
var (
	wailChannels = []int{-1, chGuitarWail, chBassWail, chGuitarWail}
	longChannels = []int{-1, chGuitarLong, chBassLong, chGuitarLong}
	gameInitials = []string{"d", "g", "b", "o"}
	setDefParts  = []string{"Drum", "Guitar", "Bass", "Open"}
)

// the guitar bank defaults used by every DTX conversion
var guitarDefaults = map[string]int{
	"default_snare":       0,
	"default_hihat":       0,
	"default_floortom":    65521,
	"default_leftcymbal":  65520,
	"default_rightcymbal": 0,
	"default_leftpedal":   65522,
	"default_lowtom":      0,
	"default_hightom":     0,
	"default_bass":        0,
}
