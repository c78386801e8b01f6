//go:build integration
// +build integration

package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/MGTheTrain/crypto-rsa/internal/domain/keys"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeTestConfig writes a config using the software backend and a SQLite store inside dir
func writeTestConfig(t *testing.T, dir string) string {
	t.Helper()

	path := filepath.Join(dir, "config.yaml")
	content := fmt.Sprintf(`logger:
  log_level: error
  log_type: console
backend:
  type: software
database:
  type: sqlite
  dsn: %s
key_pair:
  default_key_size: 1024
metrics:
  textfile_path: %s
`, filepath.Join(dir, "crypto-rsa.db"), filepath.Join(dir, "crypto_rsa.prom"))
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestKeyPairLifecycleCmd(t *testing.T) {
	dir := t.TempDir()
	configPath := writeTestConfig(t, dir)

	out, err := executeCommand(t, "generate", "--config", configPath, "--key-dir", dir)
	require.NoError(t, err)
	keyPairID := strings.TrimSpace(out)

	privatePath := privateKeyFilePath(dir, keyPairID)
	publicPath := publicKeyFilePath(dir, keyPairID)
	require.FileExists(t, privatePath)
	require.FileExists(t, publicPath)

	metrics, err := os.ReadFile(filepath.Join(dir, "crypto_rsa.prom"))
	require.NoError(t, err)
	assert.Contains(t, string(metrics), `crypto_rsa_backend_operations_total{backend="software",operation="generate",result="ok"} 1`)

	out, err = executeCommand(t, "show", "--config", configPath, "--key-id", keyPairID)
	require.NoError(t, err)
	var meta keys.KeyPairMeta
	require.NoError(t, json.Unmarshal([]byte(out), &meta))
	assert.Equal(t, 1024, meta.KeySize)
	assert.True(t, meta.HasPrivateKey)

	// encrypt against the recorded public key, decrypt with the written private key
	plainPath := filepath.Join(dir, "plain.txt")
	encryptedPath := filepath.Join(dir, "plain.enc")
	decryptedPath := filepath.Join(dir, "plain.dec")
	require.NoError(t, os.WriteFile(plainPath, []byte("hello"), 0600))

	_, err = executeCommand(t, "encrypt", "--config", configPath, "--key-id", keyPairID,
		"--input-file", plainPath, "--output-file", encryptedPath)
	require.NoError(t, err)
	_, err = executeCommand(t, "decrypt", "--config", configPath, "--private-key", privatePath,
		"--input-file", encryptedPath, "--output-file", decryptedPath)
	require.NoError(t, err)
	decrypted, err := os.ReadFile(decryptedPath)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(decrypted))

	out, err = executeCommand(t, "import", "--config", configPath, "--key-file", publicPath)
	require.NoError(t, err)
	importedID := strings.TrimSpace(out)
	assert.NotEqual(t, keyPairID, importedID)

	out, err = executeCommand(t, "list", "--config", configPath, "--private=false")
	require.NoError(t, err)
	var metas []*keys.KeyPairMeta
	require.NoError(t, json.Unmarshal([]byte(out), &metas))
	require.Len(t, metas, 1)
	assert.Equal(t, importedID, metas[0].ID)

	_, err = executeCommand(t, "delete", "--config", configPath, "--key-id", importedID)
	require.NoError(t, err)
	_, err = executeCommand(t, "show", "--config", configPath, "--key-id", importedID)
	assert.ErrorIs(t, err, keys.ErrKeyPairNotFound)

	_, err = executeCommand(t, "list", "--config", configPath, "--sort-by", "name")
	assert.ErrorContains(t, err, "SortBy")
}
