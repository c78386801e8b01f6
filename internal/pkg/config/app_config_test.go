//go:build unit
// +build unit

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "app.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestInitializeConfig_Defaults(t *testing.T) {
	cfg, err := InitializeConfig("")
	require.NoError(t, err)

	assert.Equal(t, LogLevelInfo, cfg.Logger.LogLevel)
	assert.Equal(t, LogTypeConsole, cfg.Logger.LogType)
	assert.Equal(t, BackendTypeSoftware, cfg.Backend.Type)
	assert.Equal(t, SqliteDbType, cfg.Database.Type)
	assert.Equal(t, DefaultRSAKeySize, cfg.KeyPair.DefaultKeySize)
}

func TestInitializeConfig_FromFile(t *testing.T) {
	path := writeConfigFile(t, `
logger:
  log_level: debug
  log_type: console
backend:
  type: pkcs11
pkcs11:
  module_path: /usr/lib/softhsm/libsofthsm2.so
  slot_id: "0"
  user_pin: "234567"
  token_label: MyToken
database:
  type: sqlite
  dsn: ":memory:"
  name: keys
key_pair:
  default_key_size: 3072
`)

	cfg, err := InitializeConfig(path)
	require.NoError(t, err)

	assert.Equal(t, LogLevelDebug, cfg.Logger.LogLevel)
	assert.Equal(t, BackendTypePKCS11, cfg.Backend.Type)
	assert.Equal(t, "/usr/lib/softhsm/libsofthsm2.so", cfg.PKCS11.ModulePath)
	assert.Equal(t, "0", cfg.PKCS11.SlotID)
	assert.Equal(t, "MyToken", cfg.PKCS11.TokenLabel)
	assert.Equal(t, ":memory:", cfg.Database.DSN)
	assert.Equal(t, 3072, cfg.KeyPair.DefaultKeySize)
}

func TestInitializeConfig_EnvOverride(t *testing.T) {
	t.Setenv("RSA_KEY_PAIR_DEFAULT_KEY_SIZE", "4096")
	t.Setenv("RSA_LOGGER_LOG_LEVEL", "error")

	cfg, err := InitializeConfig("")
	require.NoError(t, err)

	assert.Equal(t, 4096, cfg.KeyPair.DefaultKeySize)
	assert.Equal(t, LogLevelError, cfg.Logger.LogLevel)
}

func TestInitializeConfig_PKCS11RequiresSettings(t *testing.T) {
	path := writeConfigFile(t, `
backend:
  type: pkcs11
`)

	cfg, err := InitializeConfig(path)
	assert.Error(t, err)
	assert.Nil(t, cfg)
}

func TestInitializeConfig_InvalidKeySize(t *testing.T) {
	path := writeConfigFile(t, `
key_pair:
  default_key_size: 1000
`)

	_, err := InitializeConfig(path)
	assert.Error(t, err)
}

func TestInitializeConfig_MissingFile(t *testing.T) {
	_, err := InitializeConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestInitializeConfig_FileLoggerRotationDefaults(t *testing.T) {
	path := writeConfigFile(t, `
logger:
  log_level: info
  log_type: file
  file_path: /var/log/crypto-rsa.log
`)

	cfg, err := InitializeConfig(path)
	require.NoError(t, err)

	assert.Equal(t, DefaultLogMaxSizeMB, cfg.Logger.MaxSize)
	assert.Equal(t, DefaultLogMaxBackups, cfg.Logger.MaxBackups)
	assert.Equal(t, DefaultLogMaxAgeDays, cfg.Logger.MaxAge)
}
