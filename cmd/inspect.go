package cmd

import (
	"fmt"

	"github.com/jsphweid/seqconv/chart"
	"github.com/jsphweid/seqconv/dispatch"
	"github.com/jsphweid/seqconv/model"
	"github.com/jsphweid/seqconv/util"
	"github.com/spf13/cobra"
)

var inspectFlags selection

func init() {
	inspectFlags.register(inspectCmd.Flags())
	rootCmd.AddCommand(inspectCmd)
}

var inspectCmd = &cobra.Command{
	Use:   "inspect <input>",
	Short: "Inspects a chart",
	Long:  `Prints the charts found in a file along with their events and note counts.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		p, err := inspectFlags.params(args[0])
		if err != nil {
			fail(args[0], err)
		}
		p.NoSounds = true
		if err := inspect(p); err != nil {
			fail(args[0], err)
		}
	},
}

func inspect(p *model.Params) error {
	song, in, err := dispatch.Decode(p)
	if err != nil {
		return err
	}
	fmt.Printf("format: %v\n", in.Name())
	fmt.Printf("musicid: %v\n", song.MusicID)

	for _, c := range song.Charts {
		h := c.Header
		if h.IsMetadata {
			fmt.Printf("metadata chart\n")
		} else {
			fmt.Printf("%v %v\n", c.Part(), model.DifficultyName(h.Difficulty))
		}
		if h.Title != "" {
			fmt.Printf("  title: %v\n", h.Title)
		}
		if h.Artist != "" {
			fmt.Printf("  artist: %v\n", h.Artist)
		}
		if start, end, ok := chart.Bounds(c.Timestamp); ok {
			fmt.Printf("  bounds: %v-%v\n", start, end)
		}

		names := make(map[string]int)
		for _, evts := range c.Timestamp {
			for _, e := range evts {
				names[e.Name]++
			}
		}
		for _, name := range util.GetKeys(names) {
			fmt.Printf("  %v: %v\n", name, names[name])
		}

		if !h.IsMetadata {
			count := chart.CountNotes(c)
			fmt.Printf("  notes: %v\n", count.Total)
			for _, note := range util.GetKeys(count.Notes) {
				fmt.Printf("    %v: %v\n", note, count.Notes[note])
			}
		}
	}
	return nil
}
