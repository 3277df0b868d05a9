package cmd

import (
	"fmt"

	"github.com/jsphweid/seqconv/dispatch"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(formatsCmd)
}

var formatsCmd = &cobra.Command{
	Use:   "formats",
	Short: "Lists the supported formats",
	Long:  `Lists the supported formats and whether each can be read and written.`,
	Run: func(cmd *cobra.Command, args []string) {
		for _, f := range dispatch.Formats() {
			fmt.Printf("%-6v decode: %-5v encode: %v\n", f.Name, f.Decode, f.Encode)
		}
	},
}
