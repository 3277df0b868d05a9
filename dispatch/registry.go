// Package dispatch picks codecs and runs a conversion from one format to
// another through the canonical chart model.
package dispatch

import (
	"strings"

	"github.com/jsphweid/seqconv/dtx"
	"github.com/jsphweid/seqconv/errs"
	"github.com/jsphweid/seqconv/model"
	"github.com/jsphweid/seqconv/oldseq"
	"github.com/jsphweid/seqconv/sq2"
	"github.com/jsphweid/seqconv/sq3"
)

type Codec interface {
	Name() string
	// Detect only looks at magic bytes
	Detect(header []byte) bool
	Decode(data []byte, p *model.Params) (*model.Song, error)
	Encode(song *model.Song, p *model.Params) ([]model.OutputFile, error)
}

// SameFormat as an output format means the format of the input.
const SameFormat = "same"

// Codecs in detection order.
var Codecs = func() []Codec {
	res := []Codec{JSON{}, sq3.Codec{}, sq2.Codec{}}
	for _, r := range oldseq.Revisions {
		res = append(res, oldseq.Codec{Revision: r})
	}
	return append(res, dtx.Codec{})
}()

// Find returns the codec called name or, without a name, the first codec
// recognizing header.
func Find(name string, header []byte) (Codec, error) {
	if name != "" {
		for _, c := range Codecs {
			if strings.EqualFold(c.Name(), name) {
				return c, nil
			}
		}
		return nil, errs.Formatf("unknown format %q", name)
	}
	for _, c := range Codecs {
		if c.Detect(header) {
			return c, nil
		}
	}
	return nil, errs.Formatf("unrecognized format")
}

func CanEncode(c Codec) bool {
	_, decodeOnly := c.(oldseq.Codec)
	return !decodeOnly
}

// classicLevels is implemented by formats whose songs take the classics
// levels of the music database.
type classicLevels interface {
	ClassicLevels() bool
}

func usesClassics(c Codec) bool {
	cl, ok := c.(classicLevels)
	return ok && cl.ClassicLevels()
}

type Format struct {
	Name   string `json:"name"`
	Decode bool   `json:"decode"`
	Encode bool   `json:"encode"`
}

func Formats() []Format {
	res := make([]Format, 0, len(Codecs))
	for _, c := range Codecs {
		res = append(res, Format{Name: c.Name(), Decode: true, Encode: CanEncode(c)})
	}
	return res
}
