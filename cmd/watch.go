package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/bep/debounce"
	"github.com/jsphweid/seqconv/constants"
	"github.com/jsphweid/seqconv/dispatch"
	"github.com/jsphweid/seqconv/model"
	"github.com/spf13/cobra"
)

var (
	watchFlags    selection
	watchOutput   string
	watchFormat   string
	watchMerge    bool
	watchNoSounds bool
	watchInterval time.Duration
	watchSettle   time.Duration
)

func init() {
	f := watchCmd.Flags()
	watchFlags.register(f)
	f.StringVarP(&watchOutput, "output", "o", constants.GetOutDir(), "output folder")
	f.StringVarP(&watchFormat, "output-format", "f", "", "output format, or \"same\" for the input format")
	f.BoolVar(&watchMerge, "merge-guitars", false, "fold bass into guitar and guitar2 into guitar1")
	f.BoolVar(&watchNoSounds, "no-sounds", false, "skip sound lookups, clips and the BGM")
	f.DurationVar(&watchInterval, "interval", 500*time.Millisecond, "how often the input is checked")
	f.DurationVar(&watchSettle, "settle", 300*time.Millisecond, "quiet time after a change before converting")
	watchCmd.MarkFlagRequired("output-format")
	rootCmd.AddCommand(watchCmd)
}

var watchCmd = &cobra.Command{
	Use:   "watch <input>",
	Short: "Converts a chart every time it changes",
	Long:  `Converts a chart every time it changes, for editing a chart while testing it.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		p, err := watchFlags.params(args[0])
		if err != nil {
			fail(args[0], err)
		}
		p.Output = watchOutput
		p.OutputFormat = watchFormat
		p.MergeGuitars = watchMerge
		p.NoSounds = watchNoSounds
		p.DTXPadEnd = 2
		watch(ctx, p)
	},
}

func convertOnce(ctx context.Context, p *model.Params) {
	run := *p
	run.SongInfo = nil
	run.Sounds = model.SoundMetadata{}
	if _, err := dispatch.Convert(ctx, &run); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", p.Input, err)
	}
}

// watch polls the modification time of the input. Saves in quick
// succession lead to a single conversion.
func watch(ctx context.Context, p *model.Params) {
	debounced := debounce.New(watchSettle)
	var last time.Time
	ticker := time.NewTicker(watchInterval)
	defer ticker.Stop()

	fmt.Printf("Watching %v\n", p.Input)
	for {
		if info, err := os.Stat(p.Input); err == nil && !info.ModTime().Equal(last) {
			last = info.ModTime()
			debounced(func() { convertOnce(ctx, p) })
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
