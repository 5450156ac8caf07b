package main

import (
	"fmt"
	"os"

	"github.com/aretw0/plait"
	"github.com/aretw0/plait/internal/logging"
	"github.com/aretw0/plait/internal/presentation/graph"
	"github.com/aretw0/plait/pkg/adapters/specfile"
	"github.com/spf13/cobra"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Export the workflow graph visualization",
	Long:  `Compiles the specification and outputs a Mermaid diagram (graph TD) of the node and edge structure.`,
	Run: func(cmd *cobra.Command, args []string) {
		specPath, _ := cmd.Flags().GetString("file")
		if len(args) > 0 {
			specPath = args[0]
		}
		logLevel, _ := cmd.Flags().GetString("log-level")

		logger := logging.New(logging.ParseLevel(logLevel))
		spec, err := specfile.Load(specPath, specfile.WithLogger(logger))
		if err != nil {
			fmt.Printf("Error loading workflow: %v\n", err)
			os.Exit(1)
		}

		engine, err := plait.New(spec, plait.WithLogger(logger))
		if err != nil {
			fmt.Printf("Error compiling workflow: %v\n", err)
			os.Exit(1)
		}

		fmt.Print(graph.GenerateMermaid(engine.Graph(), nil))
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
}
