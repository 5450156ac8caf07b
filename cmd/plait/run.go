package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/aretw0/plait/internal/cli"
	"github.com/spf13/cobra"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run [input]",
	Short: "Execute a workflow against an input prompt",
	Long:  `Compiles the workflow specification and runs it to completion. The input prompt is taken from the arguments, or from --input.`,
	Run: func(cmd *cobra.Command, args []string) {
		specPath, _ := cmd.Flags().GetString("file")
		input, _ := cmd.Flags().GetString("input")
		if !cmd.Flags().Changed("input") && len(args) > 0 {
			input = strings.Join(args, " ")
		}
		sessionID, _ := cmd.Flags().GetString("session")
		redisAddr, _ := cmd.Flags().GetString("redis")
		logLevel, _ := cmd.Flags().GetString("log-level")
		debug, _ := cmd.Flags().GetBool("debug")
		plain, _ := cmd.Flags().GetBool("plain")
		codeAgent, _ := cmd.Flags().GetString("code-agent")
		maskPatterns, _ := cmd.Flags().GetStringSlice("mask")

		opts := cli.RunOptions{
			SpecPath:     specPath,
			Input:        input,
			SessionID:    sessionID,
			RedisAddr:    redisAddr,
			LogLevel:     logLevel,
			Debug:        debug,
			Plain:        plain,
			CodeAgentCmd: codeAgent,
			MaskPatterns: maskPatterns,
		}
		if err := cli.RunSession(opts); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringP("input", "i", "", "Input prompt for the workflow")
	runCmd.Flags().String("session", "", "Session ID (generated when empty)")
	runCmd.Flags().String("redis", "", "Redis address for session persistence (e.g. localhost:6379)")
	runCmd.Flags().Bool("debug", false, "Log lifecycle events")
	runCmd.Flags().Bool("plain", false, "Disable markdown rendering and the banner")
	runCmd.Flags().String("code-agent", "", "Command to execute for code nodes")
	runCmd.Flags().StringSlice("mask", nil, "Regex patterns for state keys masked before persistence")
}
