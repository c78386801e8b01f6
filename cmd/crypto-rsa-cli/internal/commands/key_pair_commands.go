package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"math/big"

	"github.com/MGTheTrain/crypto-rsa/internal/domain/keys"
	"github.com/MGTheTrain/crypto-rsa/internal/pkg/pkcs1"

	"github.com/spf13/cobra"
)

// ImportKeyCmd imports a PEM encoded PKCS#1 key and records its metadata
func (commandHandler *RSACommandHandler) ImportKeyCmd(cmd *cobra.Command, _ []string) error {
	keyPath, err := cmd.Flags().GetString("key-file")
	if err != nil {
		return fmt.Errorf("invalid key-file flag: %w", err)
	}
	if err := commandHandler.ensureService(); err != nil {
		return err
	}

	block, err := readPEMFile(keyPath)
	if err != nil {
		return err
	}
	defer clear(block.Bytes)

	var meta *keys.KeyPairMeta
	switch block.Type {
	case privateKeyPEMType:
		kp, m, err := commandHandler.service.ImportPrivate(cmd.Context(), block.Bytes)
		if err != nil {
			return err
		}
		kp.Release()
		meta = m
	default:
		kp, m, err := commandHandler.service.ImportPublic(cmd.Context(), block.Bytes)
		if err != nil {
			return err
		}
		kp.Release()
		meta = m
	}

	commandHandler.logger.Info("Imported key pair ", meta.ID, " from ", keyPath)
	_, err = fmt.Fprintln(cmd.OutOrStdout(), meta.ID)
	return err
}

// ListKeyPairsCmd prints the recorded key pair metadata as JSON
func (commandHandler *RSACommandHandler) ListKeyPairsCmd(cmd *cobra.Command, _ []string) error {
	query := keys.NewKeyPairQuery()
	var err error
	if query.KeySize, err = cmd.Flags().GetInt("key-size"); err != nil {
		return fmt.Errorf("invalid key-size flag: %w", err)
	}
	if query.Backend, err = cmd.Flags().GetString("backend"); err != nil {
		return fmt.Errorf("invalid backend flag: %w", err)
	}
	if query.Limit, err = cmd.Flags().GetInt("limit"); err != nil {
		return fmt.Errorf("invalid limit flag: %w", err)
	}
	if query.Offset, err = cmd.Flags().GetInt("offset"); err != nil {
		return fmt.Errorf("invalid offset flag: %w", err)
	}
	if query.SortBy, err = cmd.Flags().GetString("sort-by"); err != nil {
		return fmt.Errorf("invalid sort-by flag: %w", err)
	}
	if query.SortOrder, err = cmd.Flags().GetString("sort-order"); err != nil {
		return fmt.Errorf("invalid sort-order flag: %w", err)
	}
	if cmd.Flags().Changed("private") {
		hasPrivateKey, err := cmd.Flags().GetBool("private")
		if err != nil {
			return fmt.Errorf("invalid private flag: %w", err)
		}
		query.HasPrivateKey = &hasPrivateKey
	}

	if err := query.Validate(); err != nil {
		return err
	}
	if err := commandHandler.ensureService(); err != nil {
		return err
	}

	metas, err := commandHandler.service.List(cmd.Context(), query)
	if err != nil {
		return err
	}
	return writeJSON(cmd.OutOrStdout(), metas)
}

// GetKeyPairCmd prints the metadata of one key pair as JSON
func (commandHandler *RSACommandHandler) GetKeyPairCmd(cmd *cobra.Command, _ []string) error {
	keyPairID, err := cmd.Flags().GetString("key-id")
	if err != nil {
		return fmt.Errorf("invalid key-id flag: %w", err)
	}
	if err := commandHandler.ensureService(); err != nil {
		return err
	}

	meta, err := commandHandler.service.GetByID(cmd.Context(), keyPairID)
	if err != nil {
		return err
	}
	return writeJSON(cmd.OutOrStdout(), meta)
}

// DeleteKeyPairCmd removes the metadata of one key pair
func (commandHandler *RSACommandHandler) DeleteKeyPairCmd(cmd *cobra.Command, _ []string) error {
	keyPairID, err := cmd.Flags().GetString("key-id")
	if err != nil {
		return fmt.Errorf("invalid key-id flag: %w", err)
	}
	if err := commandHandler.ensureService(); err != nil {
		return err
	}

	return commandHandler.service.DeleteByID(cmd.Context(), keyPairID)
}

// InspectKeyCmd decodes a PEM encoded PKCS#1 key and prints the size of every component.
// It needs neither a backend nor the metadata store.
func InspectKeyCmd(cmd *cobra.Command, _ []string) error {
	keyPath, err := cmd.Flags().GetString("key-file")
	if err != nil {
		return fmt.Errorf("invalid key-file flag: %w", err)
	}

	block, err := readPEMFile(keyPath)
	if err != nil {
		return err
	}
	defer clear(block.Bytes)

	w := cmd.OutOrStdout()
	if block.Type == publicKeyPEMType {
		key, err := pkcs1.DecodePublicKey(block.Bytes)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "type: %s\n", publicKeyPEMType)
		printComponent(w, "modulus", key.Modulus)
		printComponent(w, "publicExponent", key.PublicExponent)
		return nil
	}

	key, err := pkcs1.DecodePrivateKey(block.Bytes)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "type: %s\n", privateKeyPEMType)
	fmt.Fprintf(w, "version: %d\n", key.Version)
	printComponent(w, "modulus", key.Modulus)
	printComponent(w, "publicExponent", key.PublicExponent)
	printComponent(w, "privateExponent", key.PrivateExponent)
	printComponent(w, "prime1", key.Prime1)
	printComponent(w, "prime2", key.Prime2)
	printComponent(w, "exponent1", key.Exponent1)
	printComponent(w, "exponent2", key.Exponent2)
	printComponent(w, "coefficient", key.Coefficient)
	return nil
}

func printComponent(w io.Writer, name string, value []byte) {
	fmt.Fprintf(w, "%s: %d bits (%d bytes)\n", name, new(big.Int).SetBytes(value).BitLen(), len(value))
}

func writeJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func initKeyPairMetadataCommands(rootCmd *cobra.Command, handler *RSACommandHandler) {
	var importKeyCmd = &cobra.Command{
		Use:   "import",
		Short: "Import a PEM encoded PKCS#1 private or public key",
		RunE:  handler.ImportKeyCmd,
	}
	importKeyCmd.Flags().StringP("key-file", "", "", "Path to PEM encoded RSA key")
	rootCmd.AddCommand(importKeyCmd)

	var listKeyPairsCmd = &cobra.Command{
		Use:   "list",
		Short: "List recorded key pairs",
		RunE:  handler.ListKeyPairsCmd,
	}
	listKeyPairsCmd.Flags().IntP("key-size", "", 0, "Only key pairs of this size in bits")
	listKeyPairsCmd.Flags().StringP("backend", "", "", "Only key pairs of this backend (software or pkcs11)")
	listKeyPairsCmd.Flags().BoolP("private", "", false, "Only key pairs with (true) or without (false) a private key")
	listKeyPairsCmd.Flags().IntP("limit", "", 0, "Maximum number of key pairs")
	listKeyPairsCmd.Flags().IntP("offset", "", 0, "Number of key pairs to skip")
	listKeyPairsCmd.Flags().StringP("sort-by", "", "", "id, key_size or date_time_created")
	listKeyPairsCmd.Flags().StringP("sort-order", "", "", "asc or desc")
	rootCmd.AddCommand(listKeyPairsCmd)

	var getKeyPairCmd = &cobra.Command{
		Use:   "show",
		Short: "Show the metadata of a recorded key pair",
		RunE:  handler.GetKeyPairCmd,
	}
	getKeyPairCmd.Flags().StringP("key-id", "", "", "ID of the key pair")
	rootCmd.AddCommand(getKeyPairCmd)

	var deleteKeyPairCmd = &cobra.Command{
		Use:   "delete",
		Short: "Delete the metadata of a recorded key pair",
		RunE:  handler.DeleteKeyPairCmd,
	}
	deleteKeyPairCmd.Flags().StringP("key-id", "", "", "ID of the key pair")
	rootCmd.AddCommand(deleteKeyPairCmd)

	var inspectKeyCmd = &cobra.Command{
		Use:   "inspect",
		Short: "Print the components of a PEM encoded PKCS#1 key",
		RunE:  InspectKeyCmd,
	}
	inspectKeyCmd.Flags().StringP("key-file", "", "", "Path to PEM encoded RSA key")
	rootCmd.AddCommand(inspectKeyCmd)
}
