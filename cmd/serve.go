package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/gorilla/mux"
	"github.com/jsphweid/seqconv/constants"
	"github.com/jsphweid/seqconv/dispatch"
	"github.com/jsphweid/seqconv/errs"
	"github.com/jsphweid/seqconv/model"
	"github.com/rs/cors"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serves conversions over http",
	Long: `Serves conversions over http. POST a chart to /convert with the options
as query parameters, GET /formats for the supported formats.`,
	Run: func(cmd *cobra.Command, args []string) {
		serve(constants.GetServeAddr())
	},
}

// ConvertedFile is one output of a conversion. Data is base64 in JSON.
type ConvertedFile struct {
	Filename string `json:"filename"`
	Data     []byte `json:"data"`
}

func splitList(v string) []string {
	if v == "" {
		return nil
	}
	return strings.Split(v, ",")
}

func statusFor(err error) int {
	if _, ok := errs.As(err); ok {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// HandleConvert converts the request body. JSON output is returned as is,
// every other format as a list of files.
func HandleConvert(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Could not read request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	q := r.URL.Query()
	p := &model.Params{
		InputFormat:     q.Get("input_format"),
		OutputFormat:    q.Get("output_format"),
		Parts:           splitList(q.Get("parts")),
		Difficulty:      splitList(q.Get("difficulty")),
		MergeGuitars:    q.Get("merge_guitars") == "true",
		DTXPadEnd:       2,
		DTXFakeTimesigs: q.Get("dtx_fake_timesigs") == "true",
		NoSounds:        true,
	}
	if v := q.Get("music_id"); v != "" {
		id, err := strconv.Atoi(v)
		if err != nil {
			http.Error(w, "music_id must be a number", http.StatusBadRequest)
			return
		}
		p.MusicID = id
	}
	var mu sync.Mutex
	var warnings []string
	p.Warn = func(err error) {
		mu.Lock()
		defer mu.Unlock()
		warnings = append(warnings, err.Error())
	}

	res, err := dispatch.ConvertData(r.Context(), body, p)
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	for _, warning := range warnings {
		w.Header().Add("X-Seqconv-Warning", warning)
	}

	w.Header().Set("Content-Type", "application/json")
	if strings.EqualFold(p.OutputFormat, dispatch.JSON{}.Name()) && len(res.Files) == 1 {
		w.Write(res.Files[0].Data)
		return
	}
	files := make([]ConvertedFile, 0, len(res.Files))
	for _, f := range res.Files {
		files = append(files, ConvertedFile{Filename: f.Name, Data: f.Data})
	}
	json.NewEncoder(w).Encode(files)
}

func HandleFormats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(dispatch.Formats())
}

func Router() http.Handler {
	router := mux.NewRouter().StrictSlash(true)
	router.HandleFunc("/convert", HandleConvert).Methods("POST")
	router.HandleFunc("/formats", HandleFormats).Methods("GET")
	return cors.Default().Handler(router)
}

func serve(addr string) {
	fmt.Printf("Listening on %v\n", addr)
	log.Fatal(http.ListenAndServe(addr, Router()))
}
