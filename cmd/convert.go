package cmd

import (
	"fmt"

	"github.com/jsphweid/seqconv/constants"
	"github.com/jsphweid/seqconv/dispatch"
	"github.com/spf13/cobra"
)

var convertFlags selection

var (
	inputPath       string
	outputDir       string
	outputFormat    string
	eventFile       string
	mergeGuitars    bool
	dtxPadStart     int
	dtxPadEnd       int
	dtxFakeTimesigs bool
	noSounds        bool
	singleThreaded  bool
)

func init() {
	f := convertCmd.Flags()
	convertFlags.register(f)
	f.StringVarP(&inputPath, "input", "i", "", "input file, also accepted as the argument")
	f.StringVarP(&outputDir, "output", "o", constants.GetOutDir(), "output folder")
	f.StringVarP(&outputFormat, "output-format", "f", "", "output format, or \"same\" for the input format")
	f.StringVar(&eventFile, "event-file", "", "event file to read SQ3 events from")
	f.BoolVar(&mergeGuitars, "merge-guitars", false, "fold bass into guitar and guitar2 into guitar1")
	f.IntVar(&dtxPadStart, "dtx-pad-start", 0, "empty measures added before a DTX chart")
	f.IntVar(&dtxPadEnd, "dtx-pad-end", 2, "empty measures added after a DTX chart")
	f.BoolVar(&dtxFakeTimesigs, "dtx-fake-timesigs", false, "write time signatures over 4 as 4 by scaling the tempo")
	f.BoolVar(&noSounds, "no-sounds", false, "skip sound lookups, clips and the BGM")
	f.BoolVar(&singleThreaded, "single-threaded", false, "encode one side at a time")
	convertCmd.MarkFlagRequired("output-format")
	rootCmd.AddCommand(convertCmd)
}

var convertCmd = &cobra.Command{
	Use:   "convert [input]",
	Short: "Converts a chart to another format",
	Long: `Converts a chart to another format. The input is either a single file or
a set of --input-split files.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		input, err := inputArg(inputPath, args)
		if err != nil {
			fail(input, err)
		}
		p, err := convertFlags.params(input)
		if err != nil {
			fail(input, err)
		}
		p.Output = outputDir
		p.OutputFormat = outputFormat
		p.EventFile = eventFile
		p.MergeGuitars = mergeGuitars
		p.DTXPadStart = dtxPadStart
		p.DTXPadEnd = dtxPadEnd
		p.DTXFakeTimesigs = dtxFakeTimesigs
		p.NoSounds = noSounds
		p.SingleThreaded = singleThreaded

		res, err := dispatch.Convert(cmd.Context(), p)
		if err != nil {
			fail(input, err)
		}
		fmt.Printf("Converted %v charts into %v files\n", len(res.Song.NoteCharts()), len(res.Files))
	},
}
