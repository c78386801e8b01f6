package commands

import (
	"encoding/pem"
	"fmt"
	"os"
	"path/filepath"
)

// PEM block types of PKCS#1 encoded keys
const (
	privateKeyPEMType = "RSA PRIVATE KEY"
	publicKeyPEMType  = "RSA PUBLIC KEY"
)

func privateKeyFilePath(keyDir, keyPairID string) string {
	return filepath.Join(keyDir, keyPairID+"-private-key.pem")
}

func publicKeyFilePath(keyDir, keyPairID string) string {
	return filepath.Join(keyDir, keyPairID+"-public-key.pem")
}

// writePEMFile writes der as a single PEM block readable by the owner only.
func writePEMFile(path, blockType string, der []byte) error {
	encoded := pem.EncodeToMemory(&pem.Block{Type: blockType, Bytes: der})
	defer clear(encoded)

	if err := os.WriteFile(filepath.Clean(path), encoded, 0600); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// readPEMFile returns the first PEM block of the file at path.
// The caller should clear the returned block bytes once done with a private key.
func readPEMFile(path string) (*pem.Block, error) {
	raw, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	defer clear(raw)

	block, _ := pem.Decode(raw)
	if block == nil {
		return nil, fmt.Errorf("no PEM block found in %s", path)
	}
	if block.Type != privateKeyPEMType && block.Type != publicKeyPEMType {
		return nil, fmt.Errorf("unsupported PEM block type %q in %s", block.Type, path)
	}

	// block.Bytes is a fresh buffer, raw only holds the armored text
	return block, nil
}

// readPEMFileOfType is readPEMFile restricted to one block type.
func readPEMFileOfType(path, blockType string) ([]byte, error) {
	block, err := readPEMFile(path)
	if err != nil {
		return nil, err
	}
	if block.Type != blockType {
		clear(block.Bytes)
		return nil, fmt.Errorf("expected %q in %s, got %q", blockType, path, block.Type)
	}
	return block.Bytes, nil
}
