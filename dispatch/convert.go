package dispatch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jsphweid/seqconv/audio"
	"github.com/jsphweid/seqconv/chart"
	"github.com/jsphweid/seqconv/constants"
	"github.com/jsphweid/seqconv/db"
	"github.com/jsphweid/seqconv/errs"
	"github.com/jsphweid/seqconv/manifest"
	"github.com/jsphweid/seqconv/model"
	"github.com/jsphweid/seqconv/postprocess"
	"github.com/jsphweid/seqconv/sq2"
	"github.com/jsphweid/seqconv/sq3"
	"github.com/jsphweid/seqconv/util"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

type Result struct {
	Song  *model.Song
	Files []model.OutputFile
}

// header returns the bytes used to detect the input format. Inputs split
// into one file per chart are detected from the first file found.
func header(p *model.Params, data []byte) []byte {
	if len(data) > 0 {
		return data
	}
	for _, part := range model.Parts {
		for _, diff := range model.Difficulties {
			if path, ok := p.Split(part, diff); ok {
				if raw, err := os.ReadFile(path); err == nil {
					return raw
				}
			}
		}
	}
	return nil
}

func readInput(p *model.Params) ([]byte, error) {
	if p.Input == "" {
		if len(p.InputSplit) == 0 {
			return nil, errs.MissingDataf("no input given")
		}
		return nil, nil
	}
	data, err := os.ReadFile(p.Input)
	if err != nil {
		return nil, errs.MissingDataf("could not read %v: %v", p.Input, err)
	}
	return data, nil
}

func loadSounds(p *model.Params) error {
	if p.Sounds.Drum != nil || p.Sounds.Guitar != nil {
		return nil
	}
	sounds, err := postprocess.LoadSoundMetadata(p.SoundFolder)
	if err != nil {
		return err
	}
	p.Sounds = sounds
	return nil
}

// Decode reads the input named by p and returns the song ready for
// encoding along with the codec that read it.
func Decode(p *model.Params) (*model.Song, Codec, error) {
	data, err := readInput(p)
	if err != nil {
		return nil, nil, err
	}
	return DecodeData(data, p)
}

// DecodeData is Decode for input already in memory.
func DecodeData(data []byte, p *model.Params) (*model.Song, Codec, error) {
	if err := loadSounds(p); err != nil {
		return nil, nil, err
	}
	in, err := Find(p.InputFormat, header(p, data))
	if err != nil {
		return nil, nil, err
	}
	song, err := in.Decode(data, p)
	if err != nil {
		return nil, nil, err
	}
	if err := Prepare(in, song, p); err != nil {
		return nil, nil, err
	}
	return song, in, nil
}

// Prepare applies the music id, the music database, the part and
// difficulty filters and the guitar merge.
func Prepare(in Codec, song *model.Song, p *model.Params) error {
	if p.MusicID != 0 {
		song.MusicID = p.MusicID
		for _, c := range song.Charts {
			c.Header.MusicID = p.MusicID
		}
	}
	if song.SoundMetadata.Drum == nil && song.SoundMetadata.Guitar == nil {
		song.SoundMetadata = p.Sounds
	}

	info := p.SongInfo
	if info == nil && p.MusicDB != "" {
		found, err := db.Lookup(p.MusicDB, song.MusicID)
		switch {
		case errs.IsWarning(err):
			p.Report(err)
		case err != nil:
			return err
		default:
			info = found
		}
	}
	if info != nil && usesClassics(in) {
		classics := info.Classics()
		info = &classics
	}
	db.Apply(song.Charts, info, p.MergeGuitars)

	song.Charts = chart.Filter(song.Charts, p.Parts, p.Difficulty)
	if p.MergeGuitars {
		song.Charts = mergeGuitars(song.Charts)
	}
	if song.MetadataChart() == nil {
		return errs.Formatf("couldn't find metadata chart")
	}
	return nil
}

// mergeGuitars folds bass into guitar and guitar2 into guitar1. Charts
// without a partner of the same difficulty stay as they are.
func mergeGuitars(charts []*model.Chart) []*model.Chart {
	byType, rest := chart.SplitByGameType(charts)
	bass := chart.CombineGuitars(byType[model.GameGuitar], byType[model.GameBass])
	guitar2 := chart.CombineGuitars(byType[model.GameGuitar1], byType[model.GameGuitar2])

	res := rest
	res = append(res, byType[model.GameDrum]...)
	res = append(res, byType[model.GameGuitar]...)
	res = append(res, bass...)
	res = append(res, byType[model.GameOpen]...)
	res = append(res, byType[model.GameGuitar1]...)
	return append(res, guitar2...)
}

// side is a copy of song holding the metadata and either the drum or the
// guitar charts, or nil when there are none.
func side(song *model.Song, drum bool) *model.Song {
	metadata := song.MetadataChart()
	if metadata == nil {
		return nil
	}
	res := *song
	res.Charts = []*model.Chart{metadata.Clone()}
	for _, c := range song.NoteCharts() {
		if c.Header.GameType.IsDrum() == drum {
			res.Charts = append(res.Charts, c)
		}
	}
	if len(res.Charts) == 1 {
		return nil
	}
	return &res
}

// Encode runs the drum and guitar sides through out, in parallel unless
// p.SingleThreaded, and renders the BGM meanwhile. When both sides write a
// file of the same name the drum one wins, except for appended files.
func Encode(ctx context.Context, out Codec, song *model.Song, p *model.Params) ([]model.OutputFile, error) {
	if !CanEncode(out) {
		return nil, errs.Encodef("%s can only be read", out.Name())
	}

	var sides []*model.Song
	if _, whole := out.(JSON); whole {
		sides = []*model.Song{song}
	} else {
		for _, drum := range []bool{true, false} {
			if s := side(song, drum); s != nil {
				sides = append(sides, s)
			}
		}
	}
	if len(sides) == 0 {
		return nil, errs.Encodef("song has no charts to write")
	}

	results := make([][]model.OutputFile, len(sides))
	g, ctx := errgroup.WithContext(ctx)
	if p.SingleThreaded {
		g.SetLimit(1)
	}
	for i, s := range sides {
		i, s := i, s
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			files, err := out.Encode(s, p)
			results[i] = files
			return err
		})
	}
	if _, whole := out.(JSON); !whole {
		g.Go(func() error { return renderBGM(song, p) })
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var res []model.OutputFile
	seen := make(map[string]bool)
	for _, files := range results {
		for _, f := range files {
			if seen[f.Name] && !f.Append {
				continue
			}
			seen[f.Name] = true
			res = append(res, f)
		}
	}

	if ext, ok := packageExt(out); ok {
		m, err := buildManifest(song, ext, p)
		if err != nil {
			return nil, err
		}
		res = append(res, m)
	}
	return res, nil
}

func packageExt(c Codec) (string, bool) {
	switch c.(type) {
	case sq2.Codec:
		return sq2.Ext, true
	case sq3.Codec:
		return sq3.Ext, true
	}
	return "", false
}

func buildManifest(song *model.Song, ext string, p *model.Params) (model.OutputFile, error) {
	var prev *manifest.Manifest
	if p.Output != "" {
		var err error
		if prev, err = manifest.Load(filepath.Join(p.Output, constants.ManifestFilename)); err != nil {
			p.Report(errs.MissingDataf("ignoring previous manifest: %v", err))
		}
	}
	data, err := manifest.Build(song.MusicID, ext, song.Charts, prev).Marshal()
	if err != nil {
		return model.OutputFile{}, errs.Encodef("could not write manifest: %v", err)
	}
	return model.OutputFile{Name: constants.ManifestFilename, Data: data}, nil
}

func BGMFilename(musicID int) string {
	return fmt.Sprintf("bgm%04d___k.wav", musicID)
}

// renderBGM mixes the BGM clips of song into the output folder. Clips are
// looked up in the sound folder, then next to the input.
func renderBGM(song *model.Song, p *model.Params) error {
	if p.NoSounds || p.Output == "" || len(song.BGM.Data) == 0 {
		return nil
	}
	dir := p.SoundFolder
	if dir == "" && p.Input != "" {
		dir = filepath.Dir(p.Input)
	}

	var clips []audio.Placement
	for _, clip := range song.BGM.Data {
		path, ok := util.FindPath(filepath.Join(dir, clip.Filename))
		if !ok {
			p.Report(errs.MissingDataf("bgm clip %v not found", clip.Filename))
			continue
		}
		clips = append(clips, audio.Placement{Path: path, Seconds: clip.Timestamp})
	}
	if len(clips) == 0 {
		return nil
	}
	if err := os.MkdirAll(p.Output, 0o755); err != nil {
		return errors.WithStack(err)
	}
	return audio.MixBGM(clips, song.BGM.End, filepath.Join(p.Output, BGMFilename(song.MusicID)))
}

// Write puts files into dir. Appended files that already exist from an
// earlier run are removed first.
func Write(dir string, files []model.OutputFile) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.WithStack(err)
	}
	removed := make(map[string]bool)
	for _, f := range files {
		path := filepath.Join(dir, filepath.Base(f.Name))
		flag := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
		if f.Append {
			if !removed[path] {
				if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
					return errors.WithStack(err)
				}
				removed[path] = true
			}
			flag = os.O_CREATE | os.O_WRONLY | os.O_APPEND
		}

		fh, err := os.OpenFile(path, flag, 0o644)
		if err != nil {
			return errors.WithStack(err)
		}
		if _, err := fh.Write(f.Data); err != nil {
			fh.Close()
			return errors.WithStack(err)
		}
		if err := fh.Close(); err != nil {
			return errors.WithStack(err)
		}
		fmt.Printf("Wrote %v\n", path)
	}
	return nil
}

// Convert decodes the input, encodes it in the output format and writes the
// result to p.Output when set.
func Convert(ctx context.Context, p *model.Params) (*Result, error) {
	data, err := readInput(p)
	if err != nil {
		return nil, err
	}
	return ConvertData(ctx, data, p)
}

// ConvertData is Convert for input already in memory.
func ConvertData(ctx context.Context, data []byte, p *model.Params) (*Result, error) {
	song, in, err := DecodeData(data, p)
	if err != nil {
		return nil, err
	}

	name := p.OutputFormat
	if strings.EqualFold(name, SameFormat) {
		name = in.Name()
	}
	if name == "" {
		return nil, errs.Formatf("no output format given")
	}
	out, err := Find(name, nil)
	if err != nil {
		return nil, err
	}

	files, err := Encode(ctx, out, song, p)
	if err != nil {
		return nil, err
	}
	if p.Output != "" {
		if err := Write(p.Output, files); err != nil {
			return nil, err
		}
	}
	return &Result{Song: song, Files: files}, nil
}
