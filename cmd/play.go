package cmd

import (
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/jsphweid/seqconv/audio"
	"github.com/jsphweid/seqconv/midi"
	"github.com/spf13/cobra"
)

var (
	playFlags selection
	playPort  int
)

func init() {
	playFlags.register(playCmd.Flags())
	playCmd.Flags().IntVar(&playPort, "port", 0, "midi output port")
	rootCmd.AddCommand(playCmd)
}

var playCmd = &cobra.Command{
	Use:   "play <input>",
	Short: "Plays a chart or a wav",
	Long: `Plays a wav, such as a rendered BGM, on the default audio device. Any other
input is decoded and its first chart is sent to a midi output port.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		if strings.EqualFold(filepath.Ext(args[0]), ".wav") {
			if err := audio.Play(ctx, args[0]); err != nil && ctx.Err() == nil {
				fail(args[0], err)
			}
			return
		}

		p, err := playFlags.params(args[0])
		if err != nil {
			fail(args[0], err)
		}
		c, err := firstChart(p)
		if err != nil {
			fail(args[0], err)
		}
		if err := midi.Play(ctx, c, playPort); err != nil && ctx.Err() == nil {
			fail(args[0], err)
		}
	},
}
