package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/plait"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of plait",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("plait version %s\n", strings.TrimSpace(plait.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
