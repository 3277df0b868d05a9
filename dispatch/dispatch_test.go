package dispatch

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jsphweid/seqconv/dtx"
	"github.com/jsphweid/seqconv/errs"
	"github.com/jsphweid/seqconv/model"
	"github.com/jsphweid/seqconv/oldseq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const hihatChart = "#TITLE Dispatch\n#BPM 120\n#WAV01 hat.wav\n#00111: 01010101\n"

func TestFind(t *testing.T) {
	cases := []struct {
		name   string
		format string
		header string
		want   string
	}{
		{"explicit name wins", "dtx", "{", dtx.Name},
		{"explicit name ignores case", "gsq0", "", "GSQ0"},
		{"json", "", "  {\"musicid\": 1}", "json"},
		{"dtx", "", "#TITLE x", dtx.Name},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			codec, err := Find(c.format, []byte(c.header))
			require.NoError(t, err)
			assert.Equal(t, c.want, codec.Name())
		})
	}

	_, err := Find("", []byte{0x00, 0x01, 0x02})
	assert.True(t, errs.Is(err, errs.Format))
	_, err = Find("mp3", nil)
	assert.True(t, errs.Is(err, errs.Format))
}

func TestFormats(t *testing.T) {
	assert := assert.New(t)
	formats := Formats()
	require.Len(t, formats, len(Codecs))
	assert.Equal("json", formats[0].Name)
	assert.Equal(dtx.Name, formats[len(formats)-1].Name)
	for _, f := range formats {
		if f.Name == oldseq.GSQ3.Name {
			assert.False(f.Encode)
		}
	}
	assert.True(CanEncode(dtx.Codec{}))
}

func quiet() *model.Params {
	return &model.Params{NoSounds: true, SingleThreaded: true, Warn: func(error) {}}
}

func writeInput(t *testing.T, name, data string) string {
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
	return path
}

func TestConvertToJSON(t *testing.T) {
	assert := assert.New(t)
	p := quiet()
	p.Input = writeInput(t, "in.dtx", hihatChart)
	p.OutputFormat = "json"
	p.MusicID = 12

	res, err := Convert(context.Background(), p)
	require.NoError(t, err)
	require.Len(t, res.Files, 1)
	assert.Equal("0012.json", res.Files[0].Name)

	song, err := JSON{}.Decode(res.Files[0].Data, p)
	require.NoError(t, err)
	assert.Equal(12, song.MusicID)
	require.Len(t, song.NoteCharts(), 1)
	c := song.NoteCharts()[0]
	assert.Equal(model.GameDrum, c.Header.GameType)
	assert.Equal("Dispatch", c.Header.Title)
	assert.Equal(4, c.Timestamp.Count(model.EventNote))
}

func TestConvertSameFormatReplacesSetDefinition(t *testing.T) {
	assert := assert.New(t)
	out := t.TempDir()
	input := writeInput(t, "in.dtx", hihatChart)

	for i := 0; i < 2; i++ {
		p := quiet()
		p.Input = input
		p.OutputFormat = SameFormat
		p.Output = out
		_, err := Convert(context.Background(), p)
		require.NoError(t, err)
	}

	set, err := os.ReadFile(filepath.Join(out, dtx.SetDefinitionFilename))
	require.NoError(t, err)
	assert.Equal(1, strings.Count(string(set), "#L5FILE"))
	assert.FileExists(filepath.Join(out, "d0000_mst_dtx.dtx"))
}

func TestConvertWithoutInput(t *testing.T) {
	_, err := Convert(context.Background(), quiet())
	assert.True(t, errs.Is(err, errs.MissingData))
}

func TestConvertToDecodeOnlyFormat(t *testing.T) {
	p := quiet()
	p.Input = writeInput(t, "in.dtx", hihatChart)
	p.OutputFormat = "gsq1"
	_, err := Convert(context.Background(), p)
	assert.True(t, errs.Is(err, errs.Encode))
}

func noteChart(g model.GameType, difficulty int, ts int, note string) *model.Chart {
	c := model.NewChart(model.NewHeader(g, difficulty, false))
	c.Timestamp.Add(ts, model.Event{Name: model.EventNote, Data: &model.EventData{Note: note, Volume: 127}})
	return c
}

func TestMergeGuitars(t *testing.T) {
	assert := assert.New(t)
	metadata := model.NewChart(model.NewHeader(model.GameDrum, 0, true))
	guitar := noteChart(model.GameGuitar, 3, 0, "g_rxxxx")
	bass := noteChart(model.GameBass, 3, 100, "b_xgxxx")
	lonely := noteChart(model.GameBass, 1, 100, "b_xgxxx")

	res := mergeGuitars([]*model.Chart{metadata, guitar, bass, lonely})
	assert.Equal([]*model.Chart{metadata, guitar, lonely}, res)
	assert.Equal(2, guitar.Timestamp.Count(model.EventNote))
}

// shared writes one file whose name does not depend on the charts.
type shared struct{}

func (shared) Name() string       { return "shared" }
func (shared) Detect([]byte) bool { return false }
func (shared) Decode([]byte, *model.Params) (*model.Song, error) {
	return nil, errs.Formatf("unsupported")
}
func (shared) Encode(song *model.Song, _ *model.Params) ([]model.OutputFile, error) {
	part := song.NoteCharts()[0].Part()
	return []model.OutputFile{
		{Name: "both", Data: []byte(part)},
		{Name: "list", Data: []byte(part), Append: true},
	}, nil
}

func TestEncodeSides(t *testing.T) {
	assert := assert.New(t)
	metadata := model.NewChart(model.NewHeader(model.GameDrum, 0, true))
	song := &model.Song{Charts: []*model.Chart{
		metadata,
		noteChart(model.GameGuitar, 3, 0, "g_rxxxx"),
		noteChart(model.GameDrum, 3, 0, "snare"),
	}}

	files, err := Encode(context.Background(), shared{}, song, &model.Params{NoSounds: true})
	require.NoError(t, err)
	require.Len(t, files, 3)
	assert.Equal("both", files[0].Name)
	assert.Equal("drum", string(files[0].Data))
	assert.Equal("list", files[1].Name)
	assert.Equal("list", files[2].Name)
	assert.Equal("guitar", string(files[2].Data))
}

func TestWriteAppends(t *testing.T) {
	assert := assert.New(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "list"), []byte("old\n"), 0o644))

	err := Write(dir, []model.OutputFile{
		{Name: "list", Data: []byte("a\n"), Append: true},
		{Name: "one", Data: []byte("x")},
		{Name: "list", Data: []byte("b\n"), Append: true},
	})
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "list"))
	require.NoError(t, err)
	assert.Equal("a\nb\n", string(data))
}
