package validators

import (
	"github.com/go-playground/validator/v10"
)

// Supported RSA key sizes in bits
const (
	MinRSAKeySize = 1024
	MaxRSAKeySize = 4096
)

// RSAKeySizeValidation validates an RSA key size in bits: within [MinRSAKeySize, MaxRSAKeySize] and byte aligned.
func RSAKeySizeValidation(fl validator.FieldLevel) bool {
	return IsValidRSAKeySize(fl.Field().Int())
}

// IsValidRSAKeySize reports whether keySize is a supported RSA key size in bits.
func IsValidRSAKeySize(keySize int64) bool {
	return keySize >= MinRSAKeySize && keySize <= MaxRSAKeySize && keySize%8 == 0
}
