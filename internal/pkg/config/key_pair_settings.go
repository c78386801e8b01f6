package config

import (
	"fmt"

	"github.com/MGTheTrain/crypto-rsa/internal/pkg/validators"
	"github.com/go-playground/validator/v10"
)

// DefaultRSAKeySize is used when no key size is configured
const DefaultRSAKeySize = 2048

// KeyPairSettings holds defaults applied when generating RSA key pairs
type KeyPairSettings struct {
	DefaultKeySize int `mapstructure:"default_key_size" validate:"required,rsaKeySize"`
}

// Validate checks that all fields in KeyPairSettings are valid
func (s *KeyPairSettings) Validate() error {
	validate := validator.New()

	if err := validate.RegisterValidation("rsaKeySize", validators.RSAKeySizeValidation); err != nil {
		return fmt.Errorf("failed to register custom validator: %w", err)
	}

	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("validation failed for KeyPairSettings: %w", err)
	}

	return nil
}
