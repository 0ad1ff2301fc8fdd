package main

import (
	"fmt"
	"time"

	"workspace/internal/auth"
	"workspace/internal/config"

	"github.com/spf13/cobra"
)

var tokenCmd = &cobra.Command{
	Use:   "token <user-id>",
	Short: "Mint a bearer token for a user id (development only)",
	Args:  cobra.ExactArgs(1),
	RunE:  runToken,
}

var tokenTTL time.Duration

func init() {
	rootCmd.AddCommand(tokenCmd)
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 0, "Token lifetime (defaults to JWT_EXPIRY_HOURS)")
}

func runToken(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	ttl := cfg.JWTExpiry
	if tokenTTL > 0 {
		ttl = tokenTTL
	}

	token, err := auth.NewManager(cfg.JWTSecret, ttl).GenerateToken(args[0])
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}
