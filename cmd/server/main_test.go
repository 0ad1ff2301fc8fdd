package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"workspace/internal/auth"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenCommand(t *testing.T) {
	t.Setenv("JWT_SECRET", "cli-secret")
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"token", "user-7"})
	t.Cleanup(func() { rootCmd.SetArgs(nil) })

	require.NoError(t, rootCmd.Execute())

	userID, err := auth.NewManager("cli-secret", time.Hour).ParseToken(strings.TrimSpace(out.String()))
	require.NoError(t, err)
	assert.Equal(t, "user-7", userID)
}

func TestTokenCommand_RequiresUser(t *testing.T) {
	rootCmd.SetArgs([]string{"token"})
	t.Cleanup(func() { rootCmd.SetArgs(nil) })

	assert.Error(t, rootCmd.Execute())
}

func TestFlagParsing(t *testing.T) {
	require.NoError(t, migrateDownCmd.Flags().Parse([]string{"--steps=3"}))
	assert.Equal(t, 3, migrateDownSteps)

	require.NoError(t, serveCmd.Flags().Parse([]string{"--no_migrate"}))
	assert.True(t, serveNoMigrate)
}
