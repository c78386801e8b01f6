package commands

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/MGTheTrain/crypto-rsa/internal/domain/keypair"

	"github.com/spf13/cobra"
)

// RSACommandHandler encapsulates logic for handling RSA key pair operations via CLI.
type RSACommandHandler struct {
	runtime
}

// NewRSACommandHandler creates a handler. Configuration, backend and metadata store
// are set up on first use so that --config is honored.
func NewRSACommandHandler() *RSACommandHandler {
	return &RSACommandHandler{}
}

// loadPrivateKeyPair reads a PEM encoded PKCS#1 private key and imports it into the backend.
func (commandHandler *RSACommandHandler) loadPrivateKeyPair(path string) (*keypair.RSAKeyPair, error) {
	der, err := readPEMFileOfType(path, privateKeyPEMType)
	if err != nil {
		return nil, err
	}
	defer clear(der)

	return keypair.NewFromPrivateKeyPKCS1(commandHandler.backend, commandHandler.logger, der)
}

// loadPublicKeyPair resolves the public key from --public-key or, failing that, from --key-id.
func (commandHandler *RSACommandHandler) loadPublicKeyPair(cmd *cobra.Command) (*keypair.RSAKeyPair, error) {
	publicKeyPath, err := cmd.Flags().GetString("public-key")
	if err != nil {
		return nil, fmt.Errorf("invalid public-key flag: %w", err)
	}
	keyPairID, err := cmd.Flags().GetString("key-id")
	if err != nil {
		return nil, fmt.Errorf("invalid key-id flag: %w", err)
	}

	switch {
	case publicKeyPath != "":
		der, err := readPEMFileOfType(publicKeyPath, publicKeyPEMType)
		if err != nil {
			return nil, err
		}
		return keypair.NewFromPublicKeyPKCS1(commandHandler.backend, commandHandler.logger, der)
	case keyPairID != "":
		if err := commandHandler.ensureService(); err != nil {
			return nil, err
		}
		return commandHandler.service.Open(cmd.Context(), keyPairID)
	default:
		return nil, errors.New("either --public-key or --key-id is required")
	}
}

// GenerateRSAKeysCmd generates an RSA key pair, records its metadata and writes both keys as PEM files
func (commandHandler *RSACommandHandler) GenerateRSAKeysCmd(cmd *cobra.Command, _ []string) error {
	keyDir, err := cmd.Flags().GetString("key-dir")
	if err != nil {
		return fmt.Errorf("invalid key-dir flag: %w", err)
	}
	if err := commandHandler.ensureService(); err != nil {
		return err
	}

	keySize := commandHandler.cfg.KeyPair.DefaultKeySize
	if cmd.Flags().Changed("key-size") {
		if keySize, err = cmd.Flags().GetInt("key-size"); err != nil {
			return fmt.Errorf("invalid key-size flag: %w", err)
		}
	}

	kp, meta, err := commandHandler.service.Generate(cmd.Context(), keySize)
	if err != nil {
		return err
	}
	defer kp.Release()

	// owned by kp and zeroed by its Release
	privateKey, err := kp.PrivateKey(keypair.KeyExportFormatPKCS1)
	if err != nil {
		return err
	}

	if err := writePEMFile(privateKeyFilePath(keyDir, meta.ID), privateKeyPEMType, privateKey); err != nil {
		return err
	}
	if err := writePEMFile(publicKeyFilePath(keyDir, meta.ID), publicKeyPEMType, meta.PublicKey); err != nil {
		return err
	}

	commandHandler.logger.Info("Generated key pair ", meta.ID, " in ", keyDir)
	_, err = fmt.Fprintln(cmd.OutOrStdout(), meta.ID)
	return err
}

// EncryptRSACmd encrypts a file with an RSA public key
func (commandHandler *RSACommandHandler) EncryptRSACmd(cmd *cobra.Command, _ []string) error {
	inputFile, outputFile, err := inputOutputFlags(cmd)
	if err != nil {
		return err
	}
	alg, err := encryptionAlgorithmFlag(cmd)
	if err != nil {
		return err
	}
	if err := commandHandler.ensureBackend(); err != nil {
		return err
	}

	kp, err := commandHandler.loadPublicKeyPair(cmd)
	if err != nil {
		return err
	}
	defer kp.Release()

	plainText, err := os.ReadFile(filepath.Clean(inputFile))
	if err != nil {
		return err
	}
	defer clear(plainText)

	encryptedData, err := kp.Encrypt(alg, plainText, nil)
	if err != nil {
		return fmt.Errorf("failed to encrypt %s (at most %d bytes with %s): %w",
			inputFile, kp.MaxEncryptPlaintextSize(alg), alg, err)
	}

	if err := os.WriteFile(outputFile, encryptedData, 0600); err != nil {
		return err
	}

	commandHandler.logger.Info("Encrypted data path ", outputFile)
	return nil
}

// DecryptRSACmd decrypts a file with an RSA private key
func (commandHandler *RSACommandHandler) DecryptRSACmd(cmd *cobra.Command, _ []string) error {
	inputFile, outputFile, err := inputOutputFlags(cmd)
	if err != nil {
		return err
	}
	privateKeyPath, err := cmd.Flags().GetString("private-key")
	if err != nil {
		return fmt.Errorf("invalid private-key flag: %w", err)
	}
	alg, err := encryptionAlgorithmFlag(cmd)
	if err != nil {
		return err
	}
	if err := commandHandler.ensureBackend(); err != nil {
		return err
	}

	kp, err := commandHandler.loadPrivateKeyPair(privateKeyPath)
	if err != nil {
		return err
	}
	defer kp.Release()

	encryptedData, err := os.ReadFile(filepath.Clean(inputFile))
	if err != nil {
		return err
	}

	decryptedData, err := kp.Decrypt(alg, encryptedData, nil)
	if err != nil {
		return err
	}
	defer clear(decryptedData)

	if err := os.WriteFile(outputFile, decryptedData, 0600); err != nil {
		return err
	}

	commandHandler.logger.Info("Decrypted data path ", outputFile)
	return nil
}

// SignRSACmd signs the SHA-256 digest of a file with an RSA private key and saves the signature
func (commandHandler *RSACommandHandler) SignRSACmd(cmd *cobra.Command, _ []string) error {
	inputFilePath, signatureFilePath, err := inputOutputFlags(cmd)
	if err != nil {
		return err
	}
	privateKeyPath, err := cmd.Flags().GetString("private-key")
	if err != nil {
		return fmt.Errorf("invalid private-key flag: %w", err)
	}
	alg, err := signingAlgorithmFlag(cmd)
	if err != nil {
		return err
	}
	if err := commandHandler.ensureBackend(); err != nil {
		return err
	}

	kp, err := commandHandler.loadPrivateKeyPair(privateKeyPath)
	if err != nil {
		return err
	}
	defer kp.Release()

	digest, err := digestFile(inputFilePath)
	if err != nil {
		return err
	}

	signature, err := kp.Sign(alg, digest, nil)
	if err != nil {
		return err
	}

	if err := os.WriteFile(signatureFilePath, signature, 0600); err != nil {
		return err
	}

	commandHandler.logger.Info("Signature saved at ", signatureFilePath)
	return nil
}

// VerifyRSACmd verifies the signature over the SHA-256 digest of a file
func (commandHandler *RSACommandHandler) VerifyRSACmd(cmd *cobra.Command, _ []string) error {
	inputFilePath, err := cmd.Flags().GetString("input-file")
	if err != nil {
		return fmt.Errorf("invalid input-file flag: %w", err)
	}
	signatureFilePath, err := cmd.Flags().GetString("signature-file")
	if err != nil {
		return fmt.Errorf("invalid signature-file flag: %w", err)
	}
	alg, err := signingAlgorithmFlag(cmd)
	if err != nil {
		return err
	}
	if err := commandHandler.ensureBackend(); err != nil {
		return err
	}

	kp, err := commandHandler.loadPublicKeyPair(cmd)
	if err != nil {
		return err
	}
	defer kp.Release()

	digest, err := digestFile(inputFilePath)
	if err != nil {
		return err
	}
	signature, err := os.ReadFile(filepath.Clean(signatureFilePath))
	if err != nil {
		return err
	}

	if err := kp.Verify(alg, digest, signature); err != nil {
		if errors.Is(err, keypair.ErrSignatureValidationFailed) {
			commandHandler.logger.Error("Signature is invalid")
		}
		return err
	}

	commandHandler.logger.Info("Signature is valid")
	_, err = fmt.Fprintln(cmd.OutOrStdout(), "valid")
	return err
}

func inputOutputFlags(cmd *cobra.Command) (string, string, error) {
	inputFile, err := cmd.Flags().GetString("input-file")
	if err != nil {
		return "", "", fmt.Errorf("invalid input-file flag: %w", err)
	}
	outputFile, err := cmd.Flags().GetString("output-file")
	if err != nil {
		return "", "", fmt.Errorf("invalid output-file flag: %w", err)
	}
	return inputFile, outputFile, nil
}

func encryptionAlgorithmFlag(cmd *cobra.Command) (keypair.EncryptionAlgorithm, error) {
	name, err := cmd.Flags().GetString("algorithm")
	if err != nil {
		return 0, fmt.Errorf("invalid algorithm flag: %w", err)
	}
	return keypair.ParseEncryptionAlgorithm(name)
}

func signingAlgorithmFlag(cmd *cobra.Command) (keypair.SigningAlgorithm, error) {
	name, err := cmd.Flags().GetString("algorithm")
	if err != nil {
		return 0, fmt.Errorf("invalid algorithm flag: %w", err)
	}
	return keypair.ParseSigningAlgorithm(name)
}

func digestFile(path string) ([]byte, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return nil, fmt.Errorf("failed to hash %s: %w", path, err)
	}
	return h.Sum(nil), nil
}

// InitRSACommands registers RSA key pair commands. The returned handler must be closed
// after the root command has executed.
func InitRSACommands(rootCmd *cobra.Command) (*RSACommandHandler, error) {
	handler := NewRSACommandHandler()
	rootCmd.PersistentFlags().StringVar(&handler.configPath, "config", "", "Path to YAML config file")

	var generateRSAKeysCmd = &cobra.Command{
		Use:   "generate",
		Short: "Generate an RSA key pair",
		RunE:  handler.GenerateRSAKeysCmd,
	}
	generateRSAKeysCmd.Flags().IntP("key-size", "", 0, "RSA key size in bits (defaults to key_pair.default_key_size)")
	generateRSAKeysCmd.Flags().StringP("key-dir", "", "", "Directory to store the PEM encoded keys")
	if err := generateRSAKeysCmd.MarkFlagRequired("key-dir"); err != nil {
		return nil, err
	}
	rootCmd.AddCommand(generateRSAKeysCmd)

	var encryptRSAFileCmd = &cobra.Command{
		Use:   "encrypt",
		Short: "Encrypt a file using an RSA public key",
		RunE:  handler.EncryptRSACmd,
	}
	encryptRSAFileCmd.Flags().StringP("input-file", "", "", "Path to input file which needs to be encrypted")
	encryptRSAFileCmd.Flags().StringP("output-file", "", "", "Path to encrypted output file")
	encryptRSAFileCmd.Flags().StringP("public-key", "", "", "Path to PEM encoded RSA public key")
	encryptRSAFileCmd.Flags().StringP("key-id", "", "", "ID of a recorded key pair, used when --public-key is not set")
	encryptRSAFileCmd.Flags().StringP("algorithm", "", keypair.EncryptionOAEPSHA256.String(), "PKCS1_5, OAEP_SHA256 or OAEP_SHA512")
	rootCmd.AddCommand(encryptRSAFileCmd)

	var decryptRSAFileCmd = &cobra.Command{
		Use:   "decrypt",
		Short: "Decrypt a file using an RSA private key",
		RunE:  handler.DecryptRSACmd,
	}
	decryptRSAFileCmd.Flags().StringP("input-file", "", "", "Path to encrypted file")
	decryptRSAFileCmd.Flags().StringP("output-file", "", "", "Path to decrypted output file")
	decryptRSAFileCmd.Flags().StringP("private-key", "", "", "Path to PEM encoded RSA private key")
	decryptRSAFileCmd.Flags().StringP("algorithm", "", keypair.EncryptionOAEPSHA256.String(), "PKCS1_5, OAEP_SHA256 or OAEP_SHA512")
	rootCmd.AddCommand(decryptRSAFileCmd)

	var signRSAFileCmd = &cobra.Command{
		Use:   "sign",
		Short: "Sign the SHA-256 digest of a file using an RSA private key",
		RunE:  handler.SignRSACmd,
	}
	signRSAFileCmd.Flags().StringP("input-file", "", "", "Path to file which needs to be signed")
	signRSAFileCmd.Flags().StringP("output-file", "", "", "Path to signature output file")
	signRSAFileCmd.Flags().StringP("private-key", "", "", "Path to PEM encoded RSA private key")
	signRSAFileCmd.Flags().StringP("algorithm", "", keypair.SigningPSSSHA256.String(), "PKCS1_5_SHA256 or PSS_SHA256")
	rootCmd.AddCommand(signRSAFileCmd)

	var verifyRSAFileCmd = &cobra.Command{
		Use:   "verify",
		Short: "Verify the signature of a file using an RSA public key",
		RunE:  handler.VerifyRSACmd,
	}
	verifyRSAFileCmd.Flags().StringP("input-file", "", "", "Path to file which needs to be validated")
	verifyRSAFileCmd.Flags().StringP("signature-file", "", "", "Path to signature input file")
	verifyRSAFileCmd.Flags().StringP("public-key", "", "", "Path to PEM encoded RSA public key")
	verifyRSAFileCmd.Flags().StringP("key-id", "", "", "ID of a recorded key pair, used when --public-key is not set")
	verifyRSAFileCmd.Flags().StringP("algorithm", "", keypair.SigningPSSSHA256.String(), "PKCS1_5_SHA256 or PSS_SHA256")
	rootCmd.AddCommand(verifyRSAFileCmd)

	initKeyPairMetadataCommands(rootCmd, handler)
	return handler, nil
}
