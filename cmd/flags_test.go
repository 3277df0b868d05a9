package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jsphweid/seqconv/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSplit(t *testing.T) {
	assert := assert.New(t)

	res, err := parseSplit([]string{"drum:ext=d.dsq", "drum:mst=m.dsq", "bass:bsc=b.gsq"})
	require.NoError(t, err)
	assert.Equal(map[string]map[string]string{
		"drum": {"ext": "d.dsq", "mst": "m.dsq"},
		"bass": {"bsc": "b.gsq"},
	}, res)

	res, err = parseSplit(nil)
	assert.NoError(err)
	assert.Nil(res)

	for _, bad := range []string{"drum:ext", "drum=d.dsq", "keys:ext=k.gsq", "drum:hard=d.dsq", "drum:ext="} {
		t.Run(bad, func(t *testing.T) {
			_, err := parseSplit([]string{bad})
			assert.True(errs.Is(err, errs.Format))
		})
	}
}

func TestReport(t *testing.T) {
	assert := assert.New(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.dtx"), []byte("#TITLE a\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.json"), []byte("{}"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "c.bin"), []byte{0, 1, 2}, 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))

	r, err := report(dir)
	require.NoError(t, err)
	assert.Equal([]string{filepath.Join(dir, "a.dtx")}, r.byFormat["DTX"])
	assert.Equal([]string{filepath.Join(dir, "b.json")}, r.byFormat["json"])
	assert.Equal([]string{filepath.Join(dir, "c.bin")}, r.unrecognized)
	assert.Len(r.detected(), 2)
}

func TestInputArg(t *testing.T) {
	cases := []struct {
		name  string
		flag  string
		args  []string
		want  string
		fails bool
	}{
		{"flag", "in.dtx", nil, "in.dtx", false},
		{"argument", "", []string{"in.dtx"}, "in.dtx", false},
		{"both agree", "in.dtx", []string{"in.dtx"}, "in.dtx", false},
		{"both differ", "a.dtx", []string{"b.dtx"}, "", true},
		{"neither", "", nil, "", false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := inputArg(c.flag, c.args)
			if c.fails {
				assert.True(t, errs.Is(err, errs.Format))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, c.want, got)
		})
	}
}
