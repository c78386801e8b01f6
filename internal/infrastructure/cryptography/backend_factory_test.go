//go:build unit
// +build unit

package cryptography

import (
	"testing"

	"github.com/MGTheTrain/crypto-rsa/internal/pkg/config"
	"github.com/MGTheTrain/crypto-rsa/internal/pkg/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBackend(t *testing.T) {
	logger := testutil.SetupTestLogger(t)

	t.Run("Software", func(t *testing.T) {
		backend, closer, err := NewBackend(&config.BackendSettings{Type: config.BackendTypeSoftware}, nil, logger)
		require.NoError(t, err)
		assert.IsType(t, &SoftwareBackend{}, backend)
		assert.NoError(t, closer.Close())
	})

	t.Run("PKCS11WithInvalidSettings", func(t *testing.T) {
		_, _, err := NewBackend(&config.BackendSettings{Type: config.BackendTypePKCS11}, &config.PKCS11Settings{}, logger)
		assert.Error(t, err)
	})

	t.Run("UnknownType", func(t *testing.T) {
		_, _, err := NewBackend(&config.BackendSettings{Type: "keychain"}, nil, logger)
		assert.Error(t, err)
	})
}
