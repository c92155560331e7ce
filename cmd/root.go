package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "forkline",
	Short: "A CLI tool for keeping a patched fork in sync with its upstream",
	Long: `forkline mirrors every release tag of an upstream repository into a
fork, reapplies the fork's patch on top of each tag and republishes the
patched commit under the same tag name.`,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}
