//go:build unit
// +build unit

package validators

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type keySizeHolder struct {
	KeySize int `validate:"rsaKeySize"`
}

func TestRSAKeySizeValidation(t *testing.T) {
	validate := validator.New()
	require.NoError(t, validate.RegisterValidation("rsaKeySize", RSAKeySizeValidation))

	tests := []struct {
		keySize int
		valid   bool
	}{
		{MinRSAKeySize, true},
		{1032, true},
		{2048, true},
		{3072, true},
		{MaxRSAKeySize, true},
		{MinRSAKeySize - 8, false},
		{MaxRSAKeySize + 8, false},
		{2049, false},
		{0, false},
		{-2048, false},
	}

	for _, tt := range tests {
		err := validate.Struct(&keySizeHolder{KeySize: tt.keySize})
		if tt.valid {
			assert.NoError(t, err, "key size %d", tt.keySize)
		} else {
			assert.Error(t, err, "key size %d", tt.keySize)
		}
	}
}
