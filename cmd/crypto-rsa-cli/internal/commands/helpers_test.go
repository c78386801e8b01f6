//go:build unit || integration
// +build unit integration

package commands

import (
	"bytes"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

// executeCommand runs the CLI with args and returns what it printed to stdout
func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()

	rootCmd := &cobra.Command{Use: "crypto-rsa-cli", SilenceUsage: true, SilenceErrors: true}
	handler, err := InitRSACommands(rootCmd)
	require.NoError(t, err)

	var stdout bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetArgs(args)

	execErr := rootCmd.Execute()
	require.NoError(t, handler.Close())
	return stdout.String(), execErr
}
