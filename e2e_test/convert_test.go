//go:build e2e
// +build e2e

package e2e_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/jsphweid/seqconv/cmd"
	"github.com/jsphweid/seqconv/dispatch"
	"github.com/jsphweid/seqconv/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const hihats = "#TITLE E2E\n#ARTIST Someone\n#BPM 150\n#WAV01 hat.wav\n#00111: 01010101\n#00211: 0101\n"

var server *httptest.Server

func TestMain(m *testing.M) {
	server = httptest.NewServer(cmd.Router())

	exitVal := m.Run()

	server.Close()
	os.Exit(exitVal)
}

func post(t *testing.T, query string, body string) (*http.Response, []byte) {
	req := httptest.NewRequest(http.MethodPost, "/convert?"+query, strings.NewReader(body))
	w := httptest.NewRecorder()
	cmd.HandleConvert(w, req)

	resp := w.Result()
	respBody, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, respBody
}

func TestConvertDTXToJSONE2E(t *testing.T) {
	resp, body := post(t, "output_format=json&music_id=12", hihats)

	assert := assert.New(t)
	require.Equal(t, 200, resp.StatusCode, string(body))

	var song model.Song
	require.NoError(t, json.Unmarshal(body, &song))
	assert.Equal(12, song.MusicID)
	require.Len(t, song.NoteCharts(), 1)
	c := song.NoteCharts()[0]
	assert.Equal("E2E", c.Header.Title)
	assert.Equal("Someone", c.Header.Artist)
	assert.Equal(6, c.Timestamp.Count(model.EventNote))
}

func TestConvertDTXToDTXE2E(t *testing.T) {
	resp, body := post(t, "output_format=same&music_id=3", hihats)

	assert := assert.New(t)
	require.Equal(t, 200, resp.StatusCode, string(body))

	var files []cmd.ConvertedFile
	require.NoError(t, json.Unmarshal(body, &files))
	names := make(map[string]string)
	for _, f := range files {
		names[f.Filename] = string(f.Data)
	}
	assert.Contains(names, "d0003_mst_dtx.dtx")
	assert.Contains(names["set.def"], "#L5FILE")
}

func TestConvertGarbageE2E(t *testing.T) {
	resp, _ := post(t, "output_format=json", "\x00\x01\x02")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestFormatsE2E(t *testing.T) {
	resp, err := http.Get(server.URL + "/formats")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert := assert.New(t)
	assert.Equal(200, resp.StatusCode)

	var formats []dispatch.Format
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&formats))
	assert.Equal(dispatch.Formats(), formats)
}

func TestCORSE2E(t *testing.T) {
	req, err := http.NewRequest(http.MethodGet, server.URL+"/formats", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://example.com")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}
