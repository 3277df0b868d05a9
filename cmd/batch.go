package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"github.com/jsphweid/seqconv/constants"
	"github.com/jsphweid/seqconv/dispatch"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var (
	batchFlags  selection
	batchOutput string
	batchFormat string
	batchJobs   int
)

func init() {
	f := batchCmd.Flags()
	batchFlags.register(f)
	f.StringVarP(&batchOutput, "output", "o", constants.GetOutDir(), "output folder, one subfolder per input")
	f.StringVarP(&batchFormat, "output-format", "f", "", "output format, or \"same\" for the input format")
	f.IntVarP(&batchJobs, "jobs", "j", runtime.NumCPU(), "conversions run at once")
	batchCmd.MarkFlagRequired("output-format")
	rootCmd.AddCommand(batchCmd)
}

var batchCmd = &cobra.Command{
	Use:   "batch <folder>",
	Short: "Converts every chart in a folder",
	Long: `Converts every file of a folder whose format is recognized. Each input is
written to its own subfolder of the output. Failures are listed at the end.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		r, err := report(args[0])
		if err != nil {
			fail(args[0], err)
		}
		inputs := r.detected()
		sort.Strings(inputs)

		var mu sync.Mutex
		failed := make(map[string]error)
		g := new(errgroup.Group)
		if batchJobs > 0 {
			g.SetLimit(batchJobs)
		}
		for _, input := range inputs {
			input := input
			g.Go(func() error {
				p, err := batchFlags.params(input)
				if err == nil {
					name := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
					p.Output = filepath.Join(batchOutput, name)
					p.OutputFormat = batchFormat
					p.DTXPadEnd = 2
					_, err = dispatch.Convert(cmd.Context(), p)
				}
				if err != nil {
					mu.Lock()
					failed[input] = err
					mu.Unlock()
				}
				return nil
			})
		}
		g.Wait()

		fmt.Printf("Converted %v of %v files\n", len(inputs)-len(failed), len(inputs))
		if len(failed) > 0 {
			for _, input := range inputs {
				if err, ok := failed[input]; ok {
					fmt.Fprintf(os.Stderr, "%s: %v\n", input, err)
				}
			}
			os.Exit(1)
		}
	},
}
