//go:build unit
// +build unit

package cryptography

import (
	"crypto/sha256"
	"testing"

	"github.com/MGTheTrain/crypto-rsa/internal/domain/keypair"
	"github.com/MGTheTrain/crypto-rsa/internal/pkg/config"
	"github.com/MGTheTrain/crypto-rsa/internal/pkg/testutil"

	prom "github.com/prometheus/client_golang/prometheus"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstrumentedBackend(t *testing.T) {
	logger := testutil.SetupTestLogger(t)
	reg := prom.NewRegistry()

	backend, err := NewInstrumentedBackend(NewSoftwareBackend(logger), config.BackendTypeSoftware, reg)
	require.NoError(t, err)

	kp, err := keypair.GenerateRandom(backend, logger, TestKeySize1024)
	require.NoError(t, err)
	defer kp.Release()

	digest := sha256.Sum256([]byte("metrics"))
	signature, err := kp.Sign(keypair.SigningPSSSHA256, digest[:], nil)
	require.NoError(t, err)
	require.NoError(t, kp.Verify(keypair.SigningPSSSHA256, digest[:], signature))

	signature[0] ^= 0xff
	assert.ErrorIs(t, kp.Verify(keypair.SigningPSSSHA256, digest[:], signature), keypair.ErrSignatureValidationFailed)

	_, err = backend.ImportPublic([]byte{0x30, 0x00})
	require.Error(t, err)

	operations := backend.metrics.operations
	assert.Equal(t, 1.0, promtestutil.ToFloat64(operations.WithLabelValues("software", "generate", "ok")))
	assert.Equal(t, 1.0, promtestutil.ToFloat64(operations.WithLabelValues("software", "sign", "ok")))
	assert.Equal(t, 1.0, promtestutil.ToFloat64(operations.WithLabelValues("software", "verify", "ok")))
	assert.Equal(t, 1.0, promtestutil.ToFloat64(operations.WithLabelValues("software", "verify", "invalid_signature")))
	assert.Equal(t, 1.0, promtestutil.ToFloat64(operations.WithLabelValues("software", "import_public", "error")))

	// generate, export, sign, verify ok, verify invalid, import_public error
	assert.GreaterOrEqual(t, promtestutil.CollectAndCount(operations), 6)
	assert.Positive(t, promtestutil.CollectAndCount(backend.metrics.duration))
}

func TestNewInstrumentedBackend_DuplicateRegistration(t *testing.T) {
	logger := testutil.SetupTestLogger(t)
	reg := prom.NewRegistry()

	_, err := NewInstrumentedBackend(NewSoftwareBackend(logger), config.BackendTypeSoftware, reg)
	require.NoError(t, err)

	_, err = NewInstrumentedBackend(NewSoftwareBackend(logger), config.BackendTypeSoftware, reg)
	assert.Error(t, err)
}
