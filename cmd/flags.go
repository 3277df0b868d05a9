package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/jsphweid/seqconv/constants"
	"github.com/jsphweid/seqconv/errs"
	"github.com/jsphweid/seqconv/model"
	"github.com/spf13/pflag"
)

// selection holds the flags every command that reads a chart shares.
type selection struct {
	inputFormat string
	parts       []string
	difficulty  []string
	musicDB     string
	musicID     int
	soundFolder string
	split       []string
}

func (s *selection) register(f *pflag.FlagSet) {
	f.StringVar(&s.inputFormat, "input-format", "", "input format, detected when empty")
	f.StringSliceVar(&s.parts, "parts", []string{"all"}, "parts to keep: drum, guitar, bass, open or all")
	f.StringSliceVar(&s.difficulty, "difficulty", []string{"all"}, "difficulties to keep: nov, bsc, adv, ext, mst, all or max")
	f.StringVar(&s.musicDB, "music-db", "", "music database: a csv, an mdb xml or dynamodb:<table>")
	f.IntVar(&s.musicID, "music-id", 0, "overrides the music id of the input")
	f.StringVar(&s.soundFolder, "sound-folder", "", "folder holding the sound metadata and clips")
	f.StringArrayVar(&s.split, "input-split", nil, "part:difficulty=path for inputs split into one file per chart")
}

func (s *selection) params(input string) (*model.Params, error) {
	split, err := parseSplit(s.split)
	if err != nil {
		return nil, err
	}
	p := &model.Params{
		Input:       input,
		InputFormat: s.inputFormat,
		InputSplit:  split,
		Parts:       s.parts,
		Difficulty:  s.difficulty,
		MusicDB:     s.musicDB,
		MusicID:     s.musicID,
		SoundFolder: s.soundFolder,
	}
	if p.SoundFolder == "" {
		p.SoundFolder = constants.GetSoundDir()
	}
	return p, nil
}

// parseSplit reads part:difficulty=path pairs.
func parseSplit(specs []string) (map[string]map[string]string, error) {
	if len(specs) == 0 {
		return nil, nil
	}
	res := make(map[string]map[string]string)
	for _, spec := range specs {
		key, path, ok := strings.Cut(spec, "=")
		if !ok || path == "" {
			return nil, errs.Formatf("bad --input-split %q, want part:difficulty=path", spec)
		}
		part, diff, ok := strings.Cut(key, ":")
		if !ok {
			return nil, errs.Formatf("bad --input-split %q, want part:difficulty=path", spec)
		}
		if _, ok := model.GameTypeForPart(part); !ok {
			return nil, errs.Formatf("unknown part %q in --input-split", part)
		}
		if _, ok := model.DifficultyIndex(diff); !ok {
			return nil, errs.Formatf("unknown difficulty %q in --input-split", diff)
		}
		if res[part] == nil {
			res[part] = make(map[string]string)
		}
		res[part][diff] = path
	}
	return res, nil
}

// inputArg takes the input from --input or the positional argument.
func inputArg(flag string, args []string) (string, error) {
	if len(args) == 0 {
		return flag, nil
	}
	if flag != "" && flag != args[0] {
		return flag, errs.Formatf("input given both as --input %v and as %v", flag, args[0])
	}
	return args[0], nil
}

// fail reports err against the file it concerns and exits.
func fail(name string, err error) {
	if name == "" {
		name = "seqconv"
	}
	fmt.Fprintf(os.Stderr, "%s: %v\n", name, err)
	os.Exit(1)
}
