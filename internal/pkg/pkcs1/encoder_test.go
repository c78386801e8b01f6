//go:build unit
// +build unit

package pkcs1

import (
	"crypto/x509"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodePrivateKey(t *testing.T) {
	key := generateTestKey(t)
	der := x509.MarshalPKCS1PrivateKey(key)

	t.Run("MatchesStandardLibrary", func(t *testing.T) {
		decoded, err := DecodePrivateKey(der)
		require.NoError(t, err)

		encoded, err := EncodePrivateKey(decoded)
		require.NoError(t, err)
		assert.Equal(t, der, encoded)

		parsed, err := x509.ParsePKCS1PrivateKey(encoded)
		require.NoError(t, err)
		assert.True(t, key.Equal(parsed))
	})

	t.Run("EmptyComponent", func(t *testing.T) {
		decoded, err := DecodePrivateKey(der)
		require.NoError(t, err)
		decoded.Coefficient = nil

		_, err = EncodePrivateKey(decoded)
		assert.ErrorIs(t, err, ErrMalformedASN1)
	})
}

func TestEncodePublicKey(t *testing.T) {
	key := generateTestKey(t)
	der := x509.MarshalPKCS1PublicKey(&key.PublicKey)

	t.Run("MatchesStandardLibrary", func(t *testing.T) {
		encoded, err := EncodePublicKey(&PublicKey{
			Modulus:        key.N.Bytes(),
			PublicExponent: []byte{0x01, 0x00, 0x01},
		})
		require.NoError(t, err)
		assert.Equal(t, der, encoded)
	})

	t.Run("HighBitModulus", func(t *testing.T) {
		encoded, err := EncodePublicKey(&PublicKey{Modulus: []byte{0x80}, PublicExponent: []byte{0x03}})
		require.NoError(t, err)
		assert.Equal(t, []byte{0x30, 0x07, 0x02, 0x02, 0x00, 0x80, 0x02, 0x01, 0x03}, encoded)

		decoded, err := DecodePublicKey(encoded)
		require.NoError(t, err)
		assert.Equal(t, []byte{0x80}, []byte(decoded.Modulus))
	})

	t.Run("MissingModulus", func(t *testing.T) {
		_, err := EncodePublicKey(&PublicKey{PublicExponent: []byte{0x03}})
		assert.ErrorIs(t, err, ErrMalformedASN1)
	})
}
