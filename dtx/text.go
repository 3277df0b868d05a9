package dtx

import (
	"bytes"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/jsphweid/seqconv/errs"
	"github.com/jsphweid/seqconv/timing"
	"github.com/jsphweid/seqconv/util"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/unicode"
)

var (
	tagPattern     = regexp.MustCompile(`^#([A-Za-z0-9]+):?\s*(.*)$`)
	idPattern      = regexp.MustCompile(`^([0-9A-Z]{2})`)
	channelPattern = regexp.MustCompile(`^([0-9]{3})([0-9A-F]{2})$`)
)

// decodeText tries Shift-JIS, then UTF-8, then UTF-16.
func decodeText(data []byte) (string, error) {
	if out, err := japanese.ShiftJIS.NewDecoder().Bytes(data); err == nil && !bytes.ContainsRune(out, utf8.RuneError) {
		return string(out), nil
	}
	if utf8.Valid(data) {
		return string(data), nil
	}
	out, err := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder().Bytes(data)
	if err != nil {
		return "", errs.Formatf("dtx text is neither Shift-JIS, UTF-8 nor UTF-16")
	}
	return string(out), nil
}

type tag struct {
	name  string
	value string
}

// chip is one non-empty token of a channel, at its tick inside the measure.
type chip struct {
	tick  int
	token string
}

type document struct {
	tags []tag

	bpms    map[int]float64
	baseBPM float64

	// WAV ids in the order they appear
	wavIDs  []int
	wavs    map[int]string
	volumes map[int]int
	pans    map[int]int

	// measure length changes, by padded measure
	sigs map[int]timing.TimeSig
	// measure -> channel -> raw tokens
	channels map[int]map[int][]string
}

func base36(s string) (int, bool) {
	v, err := strconv.ParseInt(s, 36, 32)
	if err != nil {
		return 0, false
	}
	return int(v), true
}

// tableID reads the two character id after prefix. A bare prefix is id 0.
func tableID(name, prefix string) (int, bool) {
	rest := strings.TrimPrefix(name, prefix)
	if rest == "" {
		return 0, true
	}
	m := idPattern.FindStringSubmatch(rest)
	if m == nil {
		return 0, false
	}
	return base36(m[1])
}

// measureLength turns a 0x02 value such as "0.75" into a time signature.
// Lengths that need a denominator other than a power of two are rejected.
func measureLength(value string) (timing.TimeSig, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil || f <= 0 {
		return timing.TimeSig{}, errs.Formatf("bad measure length %q", value)
	}
	for den := 1; den <= timing.MaxDenominator; den <<= 1 {
		num := f * float64(den)
		if math.Abs(num-math.Round(num)) > 1e-6 {
			continue
		}
		ts := timing.TimeSig{Numerator: int(math.Round(num)), Denominator: den}
		switch den {
		case 1:
			ts = timing.TimeSig{Numerator: ts.Numerator * 4, Denominator: 4}
		case 2:
			ts = timing.TimeSig{Numerator: ts.Numerator * 2, Denominator: 4}
		}
		return ts, timing.Validate(ts)
	}
	return timing.TimeSig{}, errs.Constraintf("measure length %s has no power of two time signature", value)
}

func parseDocument(data []byte, padStart int) (*document, error) {
	text, err := decodeText(data)
	if err != nil {
		return nil, err
	}

	doc := &document{
		bpms:     make(map[int]float64),
		wavs:     make(map[int]string),
		volumes:  make(map[int]int),
		pans:     make(map[int]int),
		sigs:     make(map[int]timing.TimeSig),
		channels: make(map[int]map[int][]string),
	}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(strings.TrimPrefix(line, "\ufeff"))
		if !strings.HasPrefix(line, "#") {
			continue
		}
		if i := strings.Index(line, ";"); i >= 0 {
			line = strings.TrimSpace(line[:i])
		}
		m := tagPattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		t := tag{name: strings.ToUpper(m[1]), value: strings.TrimSpace(m[2])}
		doc.tags = append(doc.tags, t)
		if err := doc.read(t, padStart); err != nil {
			return nil, err
		}
	}

	if _, ok := doc.sigs[0]; !ok {
		doc.sigs[0] = timing.Common
	}
	return doc, nil
}

func (doc *document) read(t tag, padStart int) error {
	if m := channelPattern.FindStringSubmatch(t.name); m != nil {
		measure, _ := strconv.Atoi(m[1])
		measure += padStart
		ch, _ := strconv.ParseInt(m[2], 16, 32)
		if ch == chMeasureLength {
			ts, err := measureLength(t.value)
			if err != nil {
				return err
			}
			doc.sigs[measure] = ts
			return nil
		}
		if doc.channels[measure] == nil {
			doc.channels[measure] = make(map[int][]string)
		}
		doc.channels[measure][int(ch)] = tokens(t.value)
		return nil
	}

	switch {
	case strings.HasPrefix(t.name, "BASEBPM"):
		if v, err := strconv.ParseFloat(t.value, 64); err == nil {
			doc.baseBPM = v
		}
	case strings.HasPrefix(t.name, "BPM"):
		id, ok := tableID(t.name, "BPM")
		v, err := strconv.ParseFloat(t.value, 64)
		if !ok || err != nil {
			return errs.Formatf("bad tempo #%s: %s", t.name, t.value)
		}
		doc.bpms[id] = v
	case strings.HasPrefix(t.name, "WAVVOL"), strings.HasPrefix(t.name, "VOLUME"):
		prefix := "VOLUME"
		if strings.HasPrefix(t.name, "WAVVOL") {
			prefix = "WAVVOL"
		}
		if id, ok := tableID(t.name, prefix); ok {
			if v, err := strconv.Atoi(t.value); err == nil {
				doc.volumes[id] = v
			}
		}
	case strings.HasPrefix(t.name, "WAVPAN"), strings.HasPrefix(t.name, "PAN"):
		prefix := "PAN"
		if strings.HasPrefix(t.name, "WAVPAN") {
			prefix = "WAVPAN"
		}
		if id, ok := tableID(t.name, prefix); ok {
			if v, err := strconv.Atoi(t.value); err == nil {
				doc.pans[id] = v
			}
		}
	case strings.HasPrefix(t.name, "WAV"):
		id, ok := tableID(t.name, "WAV")
		if !ok {
			return nil
		}
		if _, seen := doc.wavs[id]; !seen {
			doc.wavIDs = append(doc.wavIDs, id)
		}
		doc.wavs[id] = strings.ReplaceAll(t.value, "\\", "/")
	}
	return nil
}

func tokens(value string) []string {
	value = strings.ReplaceAll(value, "_", "")
	value = strings.ReplaceAll(value, " ", "")
	var res []string
	for i := 0; i+2 <= len(value); i += 2 {
		res = append(res, strings.ToUpper(value[i:i+2]))
	}
	return res
}

// value returns the first tag starting with prefix.
func (doc *document) value(prefix string) (string, bool) {
	for _, t := range doc.tags {
		if strings.HasPrefix(t.name, prefix) {
			return t.value, true
		}
	}
	return "", false
}

func (doc *document) sigIndex() *timing.Index[int, timing.TimeSig] {
	return timing.NewIndex(doc.sigs)
}

func (doc *document) lastMeasure() int {
	last := 0
	for m := range doc.channels {
		last = util.Max(last, m)
	}
	for m := range doc.sigs {
		last = util.Max(last, m)
	}
	return last
}

func (doc *document) measures() []int {
	return util.GetKeys(doc.channels)
}

// chips spreads the tokens of a channel evenly over the measure and drops
// the empty ones. Lines denser than the measure has ticks place one token
// per tick.
func (doc *document) chips(measure, ch int, ticksPerMeasure int) []chip {
	toks := doc.channels[measure][ch]
	if len(toks) == 0 {
		return nil
	}
	step := util.Max(ticksPerMeasure/len(toks), 1)
	var res []chip
	for i, tok := range toks {
		if tok == "00" {
			continue
		}
		res = append(res, chip{tick: i * step, token: tok})
	}
	return res
}
