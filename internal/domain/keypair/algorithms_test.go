//go:build unit
// +build unit

package keypair

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEncryptionAlgorithm(t *testing.T) {
	tests := []struct {
		name string
		want EncryptionAlgorithm
	}{
		{"PKCS1_5", EncryptionPKCS1v15},
		{"oaep_sha256", EncryptionOAEPSHA256},
		{"OAEP_SHA512", EncryptionOAEPSHA512},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			alg, err := ParseEncryptionAlgorithm(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.want, alg)
			assert.True(t, alg.Valid())
		})
	}

	_, err := ParseEncryptionAlgorithm("OAEP_SHA1")
	assert.ErrorIs(t, err, ErrUnsupportedAlgorithm)
}

func TestParseSigningAlgorithm(t *testing.T) {
	alg, err := ParseSigningAlgorithm("pss_sha256")
	require.NoError(t, err)
	assert.Equal(t, SigningPSSSHA256, alg)
	assert.Equal(t, "PSS_SHA256", alg.String())

	alg, err = ParseSigningAlgorithm("PKCS1_5_SHA256")
	require.NoError(t, err)
	assert.Equal(t, SigningPKCS1v15SHA256, alg)

	_, err = ParseSigningAlgorithm("PKCS1_5")
	assert.ErrorIs(t, err, ErrUnsupportedAlgorithm)
}

func TestAlgorithmValidity(t *testing.T) {
	assert.False(t, EncryptionAlgorithm(0).Valid())
	assert.False(t, SigningAlgorithm(7).Valid())
	assert.Equal(t, "EncryptionAlgorithm(0)", EncryptionAlgorithm(0).String())
	assert.Equal(t, "sign", OperationSign.String())
}
