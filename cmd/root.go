package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "seqconv",
	Short: "Converts rhythm game charts",
	Long: `Converts drum and guitar charts between the SQ2, SQ3, GSQ, DSQ, DTX and
JSON formats.`,
}

func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}
