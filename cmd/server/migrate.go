package main

import (
	"fmt"

	"workspace/internal/config"
	"workspace/internal/migrations"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply or roll back database migrations",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	Args:  cobra.NoArgs,
	RunE:  runMigrateUp,
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back the most recent migrations",
	Args:  cobra.NoArgs,
	RunE:  runMigrateDown,
}

var migrateDownSteps int

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd)

	migrateDownCmd.Flags().IntVar(&migrateDownSteps, "steps", 1, "Number of migrations to roll back")
	normalizeFlagNames(migrateDownCmd.Flags())
}

func runMigrateUp(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	if err := migrations.Up(cfg.MigrateURL()); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
	return nil
}

func runMigrateDown(cmd *cobra.Command, args []string) error {
	if migrateDownSteps < 1 {
		return fmt.Errorf("--steps must be at least 1")
	}
	cfg := config.Load()
	if err := migrations.Down(cfg.MigrateURL(), migrateDownSteps); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "rolled back %d migration(s)\n", migrateDownSteps)
	return nil
}
