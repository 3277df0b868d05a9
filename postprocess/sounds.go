package postprocess

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/jsphweid/seqconv/constants"
	"github.com/jsphweid/seqconv/errs"
	"github.com/jsphweid/seqconv/model"
	"github.com/pkg/errors"
)

func loadBank(path string) (*model.SoundBank, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "could not read sound metadata")
	}
	var bank model.SoundBank
	if err := json.Unmarshal(data, &bank); err != nil {
		return nil, errs.Formatf("sound metadata %s is not valid json: %v", path, err)
	}
	return &bank, nil
}

// LoadSoundMetadata reads the guitar and drum banks of a sound folder.
// Either file may be missing.
func LoadSoundMetadata(folder string) (model.SoundMetadata, error) {
	var res model.SoundMetadata
	if folder == "" {
		return res, nil
	}

	var err error
	if res.Guitar, err = loadBank(filepath.Join(folder, constants.GuitarSoundMetadataFilename)); err != nil {
		return res, err
	}
	if res.Drum, err = loadBank(filepath.Join(folder, constants.DrumSoundMetadataFilename)); err != nil {
		return res, err
	}
	return res, nil
}

// SaveSoundMetadata writes whichever banks are set back into folder.
func SaveSoundMetadata(folder string, m model.SoundMetadata) error {
	banks := map[string]*model.SoundBank{
		constants.GuitarSoundMetadataFilename: m.Guitar,
		constants.DrumSoundMetadataFilename:   m.Drum,
	}
	for name, bank := range banks {
		if bank == nil {
			continue
		}
		data, err := json.MarshalIndent(bank, "", "    ")
		if err != nil {
			return errors.WithStack(err)
		}
		if err := os.WriteFile(filepath.Join(folder, name), data, 0o644); err != nil {
			return errors.Wrap(err, "could not write sound metadata")
		}
	}
	return nil
}
