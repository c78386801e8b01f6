package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Backend type constants
const (
	BackendTypeSoftware = "software"
	BackendTypePKCS11   = "pkcs11"
)

// BackendSettings selects the cryptographic backend bound to every key pair created by the application
type BackendSettings struct {
	Type string `mapstructure:"type" validate:"required,oneof=software pkcs11"`
}

// Validate checks that all fields in BackendSettings are valid
func (s *BackendSettings) Validate() error {
	validate := validator.New()

	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("validation failed for BackendSettings: %w", err)
	}

	return nil
}

// PKCS11Settings holds the parameters needed to open a user session on a PKCS#11 token
type PKCS11Settings struct {
	ModulePath string `mapstructure:"module_path" validate:"required"`
	SlotID     string `mapstructure:"slot_id" validate:"required,numeric"`
	UserPin    string `mapstructure:"user_pin" validate:"required"`
	TokenLabel string `mapstructure:"token_label"`
}

// Validate checks that all fields in PKCS11Settings are valid
func (s *PKCS11Settings) Validate() error {
	validate := validator.New()

	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("validation failed for PKCS11Settings: %w", err)
	}

	return nil
}
