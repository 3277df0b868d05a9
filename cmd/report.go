package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jsphweid/seqconv/dispatch"
	"github.com/jsphweid/seqconv/util"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(reportCmd)
}

var reportCmd = &cobra.Command{
	Use:   "report <folder>",
	Short: "Reports the chart formats in a folder",
	Long:  `Detects the format of every file in a folder and counts them per format.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		r, err := report(args[0])
		if err != nil {
			fail(args[0], err)
		}
		for _, name := range util.GetKeys(r.byFormat) {
			fmt.Printf("%v: %v\n", name, len(r.byFormat[name]))
		}
		fmt.Printf("unrecognized: %v\n", len(r.unrecognized))
	},
}

type formatReport struct {
	byFormat     map[string][]string
	unrecognized []string
}

// detected lists the files of dir whose format is recognized.
func (r formatReport) detected() []string {
	var res []string
	for _, files := range r.byFormat {
		res = append(res, files...)
	}
	return res
}

func report(dir string) (formatReport, error) {
	r := formatReport{byFormat: make(map[string][]string)}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return r, err
	}
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return r, err
		}
		codec, err := dispatch.Find("", data)
		if err != nil {
			r.unrecognized = append(r.unrecognized, path)
			continue
		}
		r.byFormat[codec.Name()] = append(r.byFormat[codec.Name()], path)
	}
	return r, nil
}
