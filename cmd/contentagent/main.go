package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	var cfgPath string
	root := &cobra.Command{
		Use:           "contentagent",
		Short:         "Generate marketing articles from module configuration, research and asset libraries",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "config file (default is ./config/config.json)")

	root.AddCommand(
		serveCMD(&cfgPath),
		migrateCMD(&cfgPath),
		sweepCMD(&cfgPath),
		enqueueCMD(&cfgPath),
		validateCMD(&cfgPath),
		ingestCMD(&cfgPath),
		modulesCMD(&cfgPath),
		articlesCMD(&cfgPath),
		contentCMD(&cfgPath),
	)
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
