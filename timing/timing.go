package timing

import (
	"math"

	"github.com/jsphweid/seqconv/errs"
)

const (
	// time_division: timestamps count 1/300ths of a second
	TimeDivision = 300
	BeatDivision = 480
	// ticks in a whole measure before scaling by the time signature
	WholeMeasureTicks = 1920
	MaxDenominator    = 256
)

type TimeSig struct {
	Numerator   int `json:"numerator"`
	Denominator int `json:"denominator"`
}

var Common = TimeSig{Numerator: 4, Denominator: 4}

func IsPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}

// Log2 is the "denominator_orig" exponent stored by the binary formats.
func Log2(n int) int {
	res := 0
	for n > 1 {
		n >>= 1
		res++
	}
	return res
}

func Validate(ts TimeSig) error {
	if ts.Numerator < 1 {
		return errs.Constraintf("time signature %d/%d has no beats", ts.Numerator, ts.Denominator)
	}
	if !IsPowerOfTwo(ts.Denominator) || ts.Denominator > MaxDenominator {
		return errs.Constraintf("time signature denominator %d is not a power of two in [1,%d]", ts.Denominator, MaxDenominator)
	}
	return nil
}

func TicksPerMeasure(ts TimeSig) (int, error) {
	if err := Validate(ts); err != nil {
		return 0, err
	}
	return (WholeMeasureTicks / ts.Denominator) * ts.Numerator, nil
}

// BeatTicks is the length of one beat of the signature's denominator.
// Callers must validate ts first.
func BeatTicks(ts TimeSig) int {
	return WholeMeasureTicks / ts.Denominator
}

// BeatSeconds is how long one beat of ts lasts at bpm.
func BeatSeconds(bpm float64, ts TimeSig) float64 {
	return 60 / (bpm * (float64(ts.Denominator) / 4))
}

func SecondsToTimestamp(seconds float64) int {
	return int(math.Round(seconds * TimeDivision))
}

// MicrosPerBeat is the tempo encoding used by the binary formats.
func MicrosPerBeat(bpm float64) uint32 {
	if bpm <= 0 {
		return 0
	}
	return uint32(math.Round(60000000 / bpm))
}

func BPMFromMicros(v uint32) float64 {
	if v == 0 {
		return 0
	}
	return 60000000 / float64(v)
}
