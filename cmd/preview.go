package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jsphweid/seqconv/dispatch"
	"github.com/jsphweid/seqconv/errs"
	"github.com/jsphweid/seqconv/midi"
	"github.com/jsphweid/seqconv/model"
	"github.com/jsphweid/seqconv/sample"
	"github.com/spf13/cobra"
)

var (
	previewFlags  selection
	previewOutput string
	previewFrom   int
	previewNotes  int
)

func init() {
	previewFlags.register(previewCmd.Flags())
	previewCmd.Flags().StringVarP(&previewOutput, "output", "o", "", "midi file to write, next to the input when empty")
	previewCmd.Flags().IntVar(&previewFrom, "from", 0, "timestamp the excerpt starts at")
	previewCmd.Flags().IntVar(&previewNotes, "notes", 0, "notes in the excerpt, 0 for all")
	rootCmd.AddCommand(previewCmd)
}

var previewCmd = &cobra.Command{
	Use:   "preview <input>",
	Short: "Writes a chart as a midi file",
	Long: `Writes the first chart left after the part and difficulty filters as a
Standard MIDI File so it can be auditioned.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		p, err := previewFlags.params(args[0])
		if err != nil {
			fail(args[0], err)
		}
		out := previewOutput
		if out == "" {
			out = args[0] + ".mid"
		}
		if err := preview(p, out); err != nil {
			fail(args[0], err)
		}
		fmt.Printf("Wrote %v\n", out)
	},
}

func firstChart(p *model.Params) (*model.Chart, error) {
	p.NoSounds = true
	song, _, err := dispatch.Decode(p)
	if err != nil {
		return nil, err
	}
	charts := song.NoteCharts()
	if len(charts) == 0 {
		return nil, errs.MissingDataf("no chart matches the part and difficulty filters")
	}
	return charts[0], nil
}

func preview(p *model.Params, out string) error {
	c, err := firstChart(p)
	if err != nil {
		return err
	}
	if previewFrom > 0 || previewNotes > 0 {
		c = sample.Create(c, previewFrom, previewNotes)
	}
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return err
	}
	f, err := os.Create(out)
	if err != nil {
		return err
	}
	if err := midi.WritePreview(c, f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
