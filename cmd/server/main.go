// Package main runs the todo workspace API.
package main

import (
	"fmt"
	"os"

	_ "workspace/docs"
	"workspace/internal/config"
	"workspace/internal/server"

	"github.com/spf13/cobra"
)

// @title           Todo Workspace API
// @version         1.0
// @description     Topics and hierarchical todos for a single signed-in user.

// @host      localhost:8080
// @BasePath  /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// @schemes http
func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "workspace",
	Short:         "Todo workspace API server",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API (default)",
	RunE:  runServe,
}

var (
	servePort      string
	serveNoMigrate bool
)

func init() {
	rootCmd.AddCommand(serveCmd)
	for _, cmd := range []*cobra.Command{rootCmd, serveCmd} {
		cmd.Flags().StringVar(&servePort, "port", "", "Port to listen on (overrides SERVER_PORT)")
		cmd.Flags().BoolVar(&serveNoMigrate, "no-migrate", false, "Skip applying migrations on startup")
		normalizeFlagNames(cmd.Flags())
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	if servePort != "" {
		cfg.ServerPort = servePort
	}
	if serveNoMigrate {
		cfg.AutoMigrate = false
	}

	s, err := server.Init(cfg)
	if err != nil {
		return fmt.Errorf("server initialization failed: %w", err)
	}
	return s.Run()
}
