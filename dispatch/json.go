package dispatch

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/jsphweid/seqconv/errs"
	"github.com/jsphweid/seqconv/model"
)

// JSON is the canonical chart model as written to disk.
type JSON struct{}

func (JSON) Name() string { return "json" }

func (JSON) Detect(header []byte) bool {
	h := bytes.TrimLeft(header, " \t\r\n")
	return len(h) > 0 && h[0] == '{'
}

func (JSON) Decode(data []byte, _ *model.Params) (*model.Song, error) {
	var song model.Song
	if err := json.Unmarshal(data, &song); err != nil {
		return nil, errs.Formatf("could not parse json chart: %v", err)
	}
	if song.MetadataChart() == nil {
		return nil, errs.Formatf("json chart has no metadata chart")
	}
	return &song, nil
}

func (JSON) Encode(song *model.Song, _ *model.Params) ([]model.OutputFile, error) {
	data, err := json.MarshalIndent(song, "", "    ")
	if err != nil {
		return nil, errs.Encodef("could not write json chart: %v", err)
	}
	return []model.OutputFile{{Name: fmt.Sprintf("%04d.json", song.MusicID), Data: data}}, nil
}
