package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aretw0/plait"
	"github.com/aretw0/plait/internal/cli"
	"github.com/aretw0/plait/internal/logging"
	httpadapter "github.com/aretw0/plait/pkg/adapters/http"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the workflow HTTP server",
	Long:  `Compiles the specification once and exposes it as a JSON API: POST /run executes the workflow, GET /sessions retrieves stored results.`,
	Run: func(cmd *cobra.Command, args []string) {
		specPath, _ := cmd.Flags().GetString("file")
		port, _ := cmd.Flags().GetString("port")
		redisAddr, _ := cmd.Flags().GetString("redis")
		logLevel, _ := cmd.Flags().GetString("log-level")
		codeAgent, _ := cmd.Flags().GetString("code-agent")
		maskPatterns, _ := cmd.Flags().GetStringSlice("mask")

		logger := logging.New(logging.ParseLevel(logLevel))
		engine, sessions, err := cli.NewEngine(cli.RunOptions{
			SpecPath:     specPath,
			RedisAddr:    redisAddr,
			LogLevel:     logLevel,
			CodeAgentCmd: codeAgent,
			MaskPatterns: maskPatterns,
		}, logger)
		if err != nil {
			fmt.Printf("Error initializing engine: %v\n", err)
			os.Exit(1)
		}

		handler := httpadapter.NewHandler(engine,
			httpadapter.WithSessionManager(sessions),
			httpadapter.WithLogger(logger),
			httpadapter.WithVersion(plait.Version),
		)

		srv := &http.Server{
			Addr:    ":" + port,
			Handler: handler,
		}

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)

		go func() {
			fmt.Printf("Starting Plait Server on %s\n", srv.Addr)
			fmt.Printf("Serving workflow: %s\n", specPath)
			serverErrors <- srv.ListenAndServe()
		}()

		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-serverErrors:
			fmt.Printf("Server error: %v\n", err)
			os.Exit(1)

		case sig := <-shutdown:
			fmt.Printf("\nStart shutdown... Signal: %v\n", sig)

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				fmt.Printf("Graceful shutdown did not complete in %v: %v\n", 5*time.Second, err)
				if err := srv.Close(); err != nil {
					fmt.Printf("Error killing server: %v\n", err)
				}
			}
			fmt.Println("Plait Server stopped gracefully")
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	serveCmd.Flags().String("redis", "", "Redis address for session persistence")
	serveCmd.Flags().String("code-agent", "", "Command to execute for code nodes")
	serveCmd.Flags().StringSlice("mask", nil, "Regex patterns for state keys masked before persistence")
}
