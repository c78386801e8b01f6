// Package main is the entry point for the crypto-rsa-cli application.
// It initializes the root command, registers the RSA key pair sub-commands
// and executes the command-line interface.
package main

import (
	"fmt"
	"log"
	"os"

	commands "github.com/MGTheTrain/crypto-rsa/cmd/crypto-rsa-cli/internal/commands"

	"github.com/spf13/cobra"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func run() error {
	rootCmd := &cobra.Command{
		Use:   "crypto-rsa-cli",
		Short: "RSA key pair operations CLI tool",
		Long: `crypto-rsa-cli is a command-line tool for RSA key pairs.
Supports key generation and import, encryption, decryption, signing and verification
with PKCS#1 v1.5, OAEP and PSS. Key pair metadata is kept in a SQLite or PostgreSQL store.

The backend holding key material is selected in the config file (--config) or with
RSA_BACKEND_TYPE=software|pkcs11. The PKCS#11 backend additionally needs
RSA_PKCS11_MODULE_PATH, RSA_PKCS11_SLOT_ID and RSA_PKCS11_USER_PIN.`,
		SilenceUsage: true,
	}

	// Initialize all command groups BEFORE executing
	handler, err := commands.InitRSACommands(rootCmd)
	if err != nil {
		return fmt.Errorf("failed to initialize commands: %w", err)
	}

	// Execute root command ONCE after all commands are registered
	execErr := rootCmd.Execute()
	if err := handler.Close(); err != nil {
		log.Printf("failed to release resources: %v", err)
	}
	if execErr != nil {
		return fmt.Errorf("command execution failed: %w", execErr)
	}

	return nil
}

// init sets up any necessary initialization before main runs.
func init() {
	// Set log flags for better error messages
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	// Ensure proper exit codes on errors
	log.SetOutput(os.Stderr)
}
