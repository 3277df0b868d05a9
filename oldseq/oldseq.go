// Package oldseq decodes the sequence revisions that predate SEQP: the GSQ
// guitar files and the DSQ drum files. Every revision ships one file per
// chart and carries no tempo, so the metadata chart is rebuilt from the
// measure lines.
package oldseq

import (
	"bytes"
	"os"

	"github.com/jsphweid/seqconv/errs"
	"github.com/jsphweid/seqconv/model"
)

// Magic prefixes the GSQ3 files that carry a header.
const Magic = "GSQ1"

const magicHeaderSize = 0x10

type Revision struct {
	Name       string
	RecordSize int
	Drum       bool
	// the first file stores the music id at 0x04
	EmbeddedID bool
	// a GSQ1 magic header may precede the records
	MagicHeader bool
	// files are recognized by their magic header
	Detectable bool

	parse parser
}

var (
	GSQ0  = Revision{Name: "GSQ0", RecordSize: 0x08, parse: parseGSQ8}
	GSQ1  = Revision{Name: "GSQ1", RecordSize: 0x08, EmbeddedID: true, parse: parseGSQ8}
	GSQ15 = Revision{Name: "GSQ15", RecordSize: 0x10, MagicHeader: true, parse: parseGSQ15}
	GSQ3  = Revision{Name: "GSQ3", RecordSize: 0x0c, MagicHeader: true, Detectable: true, parse: parseGSQ3}
	DSQ0  = Revision{Name: "DSQ0", RecordSize: 0x08, Drum: true, parse: parseDSQ0}
	DSQ1  = Revision{Name: "DSQ1", RecordSize: 0x08, Drum: true, parse: parseDSQ1}
)

// Revisions in detection order. Only GSQ3 can be recognized from its
// bytes so it comes first.
var Revisions = []Revision{GSQ3, GSQ15, GSQ1, GSQ0, DSQ1, DSQ0}

// InputSplit keys indexed by game type.
var splitNames = []string{"drum", "guitar", "bass", "open", "guitar1", "guitar2"}

func (r Revision) gameTypes() []model.GameType {
	if r.Drum {
		return []model.GameType{model.GameDrum}
	}
	return []model.GameType{model.GameGuitar, model.GameBass, model.GameOpen, model.GameGuitar1, model.GameGuitar2}
}

type Codec struct {
	Revision
}

func (c Codec) Name() string { return c.Revision.Name }

func (c Codec) Detect(header []byte) bool {
	return c.Detectable && bytes.HasPrefix(header, []byte(Magic))
}

func (c Codec) Encode(*model.Song, *model.Params) ([]model.OutputFile, error) {
	return nil, errs.Encodef("encoding %s is unsupported", c.Revision.Name)
}

func (c Codec) Decode(data []byte, p *model.Params) (*model.Song, error) {
	if p == nil {
		p = &model.Params{}
	}
	raws, err := c.inputs(data, p)
	if err != nil {
		return nil, err
	}

	musicID := p.MusicID
	if c.EmbeddedID && len(raws[0].data) >= 0x06 {
		musicID = int(raws[0].data[0x04]) | int(raws[0].data[0x05])<<8
	}
	return c.decode(raws, musicID, p)
}

type rawChart struct {
	gameType   model.GameType
	difficulty int
	data       []byte
}

func (c Codec) stripMagic(data []byte) []byte {
	if c.MagicHeader && len(data) >= magicHeaderSize && bytes.HasPrefix(data, []byte(Magic)) {
		return data[magicHeaderSize:]
	}
	return data
}

// inputs collects one file per game type and difficulty from the split
// input. A lone input file stands for the first requested part and
// difficulty.
func (c Codec) inputs(data []byte, p *model.Params) ([]rawChart, error) {
	var res []rawChart
	for _, g := range c.gameTypes() {
		for diff := len(model.Difficulties) - 1; diff >= 0; diff-- {
			path, ok := p.Split(splitNames[g], model.Difficulties[diff])
			if !ok {
				continue
			}
			blob, err := os.ReadFile(path)
			if err != nil {
				p.Report(errs.MissingDataf("couldn't read %s chart %s: %v", c.Revision.Name, path, err))
				continue
			}
			res = append(res, rawChart{gameType: g, difficulty: diff, data: c.stripMagic(blob)})
		}
	}
	if len(res) > 0 {
		return res, nil
	}
	if len(data) == 0 {
		return nil, errs.MissingDataf("no %s charts were given", c.Revision.Name)
	}
	return []rawChart{{gameType: c.singleGameType(p), difficulty: singleDifficulty(p), data: c.stripMagic(data)}}, nil
}

func (c Codec) singleGameType(p *model.Params) model.GameType {
	types := c.gameTypes()
	for _, part := range p.Parts {
		g, ok := model.GameTypeForPart(part)
		if !ok {
			continue
		}
		for _, t := range types {
			if t == g {
				return g
			}
		}
	}
	return types[0]
}

func singleDifficulty(p *model.Params) int {
	for _, name := range p.Difficulty {
		if idx, ok := model.DifficultyIndex(name); ok {
			return idx
		}
	}
	return len(model.Difficulties) - 1
}
